package store

import (
	"bytes"

	"github.com/google/btree"
)

// ascendBtree collects all cached items within [start, end) in ascending
// order. A nil bound is open.
func ascendBtree(bt *btree.BTree, start, end []byte) []keyer {
	var items []keyer
	collect := func(i btree.Item) bool {
		items = append(items, i.(keyer))
		return true
	}
	switch {
	case start == nil && end == nil:
		bt.Ascend(collect)
	case start == nil:
		bt.AscendLessThan(bkey{end}, collect)
	case end == nil:
		bt.AscendGreaterOrEqual(bkey{start}, collect)
	default:
		bt.AscendRange(bkey{start}, bkey{end}, collect)
	}
	return items
}

// descendBtree collects all cached items within [start, end) in
// descending order. A nil bound is open.
func descendBtree(bt *btree.BTree, start, end []byte) []keyer {
	items := ascendBtree(bt, start, end)
	for i, j := 0, len(items)-1; i < j; i, j = i+1, j-1 {
		items[i], items[j] = items[j], items[i]
	}
	return items
}

// source marks where the current item comes from
type source int32

const (
	us source = iota
	parent
	both
	none
)

// mergeIterator combines cached items with the results of the parent
// iterator, taking into consideration overwrites and deletes.
type mergeIterator struct {
	items     []keyer
	parent    Iterator
	ascending bool
}

var _ Iterator = (*mergeIterator)(nil)

func newMergeIterator(items []keyer, parent Iterator, ascending bool) (*mergeIterator, error) {
	it := &mergeIterator{
		items:     items,
		parent:    parent,
		ascending: ascending,
	}
	if err := it.skipAllDeleted(); err != nil {
		return nil, err
	}
	return it, nil
}

// Valid implements Iterator and returns true iff it can be read
func (i *mergeIterator) Valid() bool {
	return len(i.items) > 0 || i.parentValid()
}

// Next moves the iterator to the next sequential key in the database, as
// defined by order of iteration.
//
// If Valid returns false, this method will panic.
func (i *mergeIterator) Next() error {
	// advance either us, parent, or both
	switch i.firstKey() {
	case us:
		i.items = i.items[1:]
	case both:
		i.items = i.items[1:]
		fallthrough
	case parent:
		if err := i.parent.Next(); err != nil {
			return err
		}
	default:
		panic("Advanced past the end!")
	}

	// keep advancing over all deleted entries
	return i.skipAllDeleted()
}

// Key returns the key of the cursor.
func (i *mergeIterator) Key() (key []byte) {
	switch i.firstKey() {
	case us, both:
		return i.items[0].Key()
	case parent:
		return i.parent.Key()
	default:
		panic("Advanced past the end!")
	}
}

// Value returns the value of the cursor.
func (i *mergeIterator) Value() (value []byte) {
	switch i.firstKey() {
	case us, both:
		return i.items[0].(setItem).value
	case parent:
		return i.parent.Value()
	default:
		panic("Advanced past the end!")
	}
}

// Close releases the Iterator.
func (i *mergeIterator) Close() {
	if i.parent != nil {
		i.parent.Close()
	}
	i.items = nil
}

// skipAllDeleted drops cached deletions from the head, together with the
// parent entry they shadow.
func (i *mergeIterator) skipAllDeleted() error {
	for {
		src := i.firstKey()
		if src != us && src != both {
			return nil
		}
		if _, ok := i.items[0].(deletedItem); !ok {
			return nil
		}
		i.items = i.items[1:]
		if src == both {
			if err := i.parent.Next(); err != nil {
				return err
			}
		}
	}
}

// firstKey selects the iterator that should be read from next
func (i *mergeIterator) firstKey() source {
	// if only one or none is valid, it is clear which to use
	if !i.parentValid() {
		if len(i.items) == 0 {
			return none
		}
		return us
	} else if len(i.items) == 0 {
		return parent
	}

	cmp := bytes.Compare(i.parent.Key(), i.items[0].Key())
	if !i.ascending {
		cmp = -cmp
	}
	switch {
	case cmp < 0:
		return parent
	case cmp > 0:
		return us
	default:
		return both
	}
}

// makes sure the parent is non-nil before checking if it is valid
func (i *mergeIterator) parentValid() bool {
	return i.parent != nil && i.parent.Valid()
}
