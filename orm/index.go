package orm

import (
	"bytes"

	weave "github.com/iov-one/trustd"
	"github.com/iov-one/trustd/errors"
)

// Index is a secondary index on some data stored in a bucket.
type Index interface {
	weave.QueryHandler

	// Name returns the name of this index.
	Name() string

	// Update updates the index after save was written. A nil prev means
	// save is new. Entities are never deleted, so save must not be nil,
	// and an update must keep the primary key.
	Update(db weave.KVStore, prev Object, save Object) error

	// Keys returns all entity keys that were indexed under given value.
	Keys(db weave.ReadOnlyKVStore, value []byte) ([][]byte, error)
}

const compactIdxPrefix = "_i."

// Indexer calculates the secondary index key for a given object
type Indexer func(Object) ([]byte, error)

// MultiKeyIndexer calculates the secondary index keys for a given object
type MultiKeyIndexer func(Object) ([][]byte, error)

// compactIndex stores the primary keys of all entities indexed under the
// same value as a single MultiRef.
type compactIndex struct {
	name   string
	id     []byte
	index  MultiKeyIndexer
	refKey func([]byte) []byte
}

var _ Index = compactIndex{}

// NewMultiKeyIndex constructs an index referencing every entity under all
// values returned by indexer. refKey turns a primary key into the database
// key of the entity.
func NewMultiKeyIndex(name string, indexer MultiKeyIndexer, refKey func([]byte) []byte) Index {
	return compactIndex{
		name:   name,
		id:     append([]byte(compactIdxPrefix), []byte(name+":")...),
		index:  indexer,
		refKey: refKey,
	}
}

func asMultiKeyIndexer(indexer Indexer) MultiKeyIndexer {
	return func(obj Object) ([][]byte, error) {
		key, err := indexer(obj)
		switch {
		case err != nil:
			return nil, err
		case key == nil:
			return nil, nil
		}
		return [][]byte{key}, nil
	}
}

func (i compactIndex) Name() string {
	return i.name
}

// indexKey is the full key we store in the db, including prefix
// We copy into a new array rather than use append, as we don't
// want consecutive calls to overwrite the same byte array.
func (i compactIndex) indexKey(key []byte) []byte {
	l := len(i.id)
	out := make([]byte, l+len(key))
	copy(out, i.id)
	copy(out[l:], key)
	return out
}

// Update references save under every value returned by the indexer. For an
// existing entity the values no longer returned are dropped.
func (i compactIndex) Update(db weave.KVStore, prev Object, save Object) error {
	switch {
	case save == nil:
		return errors.Wrap(errors.ErrHuman, "indexed entities cannot be deleted")
	case prev == nil:
		keys, err := i.index(save)
		if err != nil {
			return err
		}
		for _, key := range dedupKeys(keys) {
			if err := i.insert(db, key, save.Key()); err != nil {
				return err
			}
		}
		return nil
	default:
		return i.move(db, prev, save)
	}
}

func (i compactIndex) move(db weave.KVStore, prev Object, save Object) error {
	if !bytes.Equal(prev.Key(), save.Key()) {
		return errors.Wrap(errors.ErrHuman, "cannot modify the primary key of an object")
	}
	oldKeys, err := i.index(prev)
	if err != nil {
		return err
	}
	newKeys, err := i.index(save)
	if err != nil {
		return err
	}
	oldKeys, newKeys = dedupKeys(oldKeys), dedupKeys(newKeys)

	for _, k := range oldKeys {
		if !containsKey(newKeys, k) {
			if err := i.remove(db, k, prev.Key()); err != nil {
				return err
			}
		}
	}
	for _, k := range newKeys {
		if !containsKey(oldKeys, k) {
			if err := i.insert(db, k, save.Key()); err != nil {
				return err
			}
		}
	}
	return nil
}

func (i compactIndex) insert(db weave.KVStore, key []byte, pk []byte) error {
	dbkey := i.indexKey(key)
	cur, err := db.Get(dbkey)
	if err != nil {
		return err
	}

	var refs MultiRef
	if cur != nil {
		if err := refs.Unmarshal(cur); err != nil {
			return err
		}
	}
	if err := refs.Add(pk); err != nil {
		return err
	}
	bz, err := refs.Marshal()
	if err != nil {
		return err
	}
	return db.Set(dbkey, bz)
}

func (i compactIndex) remove(db weave.KVStore, key []byte, pk []byte) error {
	dbkey := i.indexKey(key)
	cur, err := db.Get(dbkey)
	if err != nil {
		return err
	}
	if cur == nil {
		return errors.Wrapf(errors.ErrNotFound, "index %s has no entry", i.name)
	}

	var refs MultiRef
	if err := refs.Unmarshal(cur); err != nil {
		return err
	}
	if err := refs.Remove(pk); err != nil {
		return err
	}
	if len(refs.Refs) == 0 {
		return db.Delete(dbkey)
	}
	bz, err := refs.Marshal()
	if err != nil {
		return err
	}
	return db.Set(dbkey, bz)
}

// Keys returns a list of all entity keys that were indexed under given value.
func (i compactIndex) Keys(db weave.ReadOnlyKVStore, value []byte) ([][]byte, error) {
	val, err := db.Get(i.indexKey(value))
	if err != nil {
		return nil, err
	}
	if val == nil {
		return nil, nil
	}
	var data MultiRef
	if err := data.Unmarshal(val); err != nil {
		return nil, err
	}
	return data.Refs, nil
}

// Query handles queries from the QueryRouter. The referenced objects are
// returned in the order of their primary keys.
func (i compactIndex) Query(db weave.ReadOnlyKVStore, mod string, data []byte) ([]weave.Model, error) {
	switch mod {
	case weave.KeyQueryMod:
		refs, err := i.Keys(db, data)
		if err != nil {
			return nil, err
		}
		return i.loadRefs(db, refs)
	default:
		return nil, errors.Wrapf(errors.ErrInvalidInput, "unknown query mod %q", mod)
	}
}

func (i compactIndex) loadRefs(db weave.ReadOnlyKVStore, refs [][]byte) ([]weave.Model, error) {
	if len(refs) == 0 {
		return nil, nil
	}
	res := make([]weave.Model, len(refs))
	for j, ref := range refs {
		key := i.refKey(ref)
		value, err := db.Get(key)
		if err != nil {
			return nil, err
		}
		res[j] = weave.Pair(key, value)
	}
	return res, nil
}

func dedupKeys(keys [][]byte) [][]byte {
	var res [][]byte
	for _, k := range keys {
		if !containsKey(res, k) {
			res = append(res, k)
		}
	}
	return res
}

func containsKey(keys [][]byte, key []byte) bool {
	for _, k := range keys {
		if bytes.Equal(k, key) {
			return true
		}
	}
	return false
}
