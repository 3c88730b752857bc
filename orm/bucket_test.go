package orm

import (
	"testing"

	weave "github.com/iov-one/trustd"
	"github.com/iov-one/trustd/errors"
	"github.com/iov-one/trustd/store"
	"github.com/iov-one/trustd/weavetest/assert"
)

func TestBucketSaveGet(t *testing.T) {
	db := store.MemStore()
	b := NewBucket("cnts", NewSimpleObj(nil, &counter{}))

	obj, err := b.Get(db, []byte("a"))
	assert.Nil(t, err)
	assert.Nil(t, obj)

	assert.Nil(t, b.Save(db, NewSimpleObj([]byte("a"), &counter{Count: 7})))

	obj, err = b.Get(db, []byte("a"))
	assert.Nil(t, err)
	assert.Equal(t, int64(7), obj.Value().(*counter).Count)

	err = b.Save(db, NewSimpleObj([]byte("b"), &counter{Count: -1}))
	assert.IsErr(t, errors.ErrInvalidModel, err)
	obj, err = b.Get(db, []byte("b"))
	assert.Nil(t, err)
	assert.Nil(t, obj)
}

func TestBucketIndex(t *testing.T) {
	alice, bob := []byte("alice"), []byte("bob")

	db := store.MemStore()
	b := NewBucket("cnts", NewSimpleObj(nil, &counter{})).
		WithIndex("owner", counterOwner)

	save := func(key string, owner []byte, count int64) {
		t.Helper()
		obj := NewSimpleObj([]byte(key), &counter{Count: count, Owner: owner})
		assert.Nil(t, b.Save(db, obj))
	}
	save("c2", alice, 1)
	save("c1", alice, 2)
	save("c3", bob, 3)

	keys, err := b.IndexKeys(db, "owner", alice)
	assert.Nil(t, err)
	assert.Equal(t, [][]byte{[]byte("c1"), []byte("c2")}, keys)

	// move c2 from alice to bob
	save("c2", bob, 4)
	keys, err = b.IndexKeys(db, "owner", alice)
	assert.Nil(t, err)
	assert.Equal(t, [][]byte{[]byte("c1")}, keys)

	objs, err := b.GetIndexed(db, "owner", bob)
	assert.Nil(t, err)
	assert.Equal(t, 2, len(objs))
	assert.Equal(t, int64(4), objs[0].Value().(*counter).Count)
	assert.Equal(t, int64(3), objs[1].Value().(*counter).Count)

	// moving the last entity away drops the index entry
	save("c1", bob, 5)
	keys, err = b.IndexKeys(db, "owner", alice)
	assert.Nil(t, err)
	assert.Equal(t, 0, len(keys))

	_, err = b.IndexKeys(db, "unknown", alice)
	assert.IsErr(t, errors.ErrHuman, err)
}

func TestIndexRejectsDelete(t *testing.T) {
	db := store.MemStore()
	idx := NewMultiKeyIndex("cnts_owner", asMultiKeyIndexer(counterOwner), nil)
	prev := NewSimpleObj([]byte("a"), &counter{Owner: []byte("x")})
	assert.IsErr(t, errors.ErrHuman, idx.Update(db, prev, nil))

	moved := NewSimpleObj([]byte("b"), &counter{Owner: []byte("x")})
	assert.IsErr(t, errors.ErrHuman, idx.Update(db, prev, moved))
}

func TestBucketQuery(t *testing.T) {
	db := store.MemStore()
	b := NewBucket("cnts", NewSimpleObj(nil, &counter{})).
		WithIndex("owner", counterOwner)
	qr := weave.NewQueryRouter()
	b.Register("counters", qr)

	assert.Nil(t, b.Save(db, NewSimpleObj([]byte("aa"), &counter{Owner: []byte("o")})))
	assert.Nil(t, b.Save(db, NewSimpleObj([]byte("ab"), &counter{Owner: []byte("o")})))
	assert.Nil(t, b.Save(db, NewSimpleObj([]byte("b"), &counter{Owner: []byte("p")})))

	res, err := qr.Handler("/counters").Query(db, weave.KeyQueryMod, []byte("aa"))
	assert.Nil(t, err)
	assert.Equal(t, 1, len(res))
	assert.Equal(t, []byte("cnts:aa"), res[0].Key)

	res, err = qr.Handler("/counters").Query(db, weave.PrefixQueryMod, []byte("a"))
	assert.Nil(t, err)
	assert.Equal(t, 2, len(res))

	res, err = qr.Handler("/counters/owner").Query(db, weave.KeyQueryMod, []byte("o"))
	assert.Nil(t, err)
	assert.Equal(t, 2, len(res))
	assert.Equal(t, []byte("cnts:ab"), res[1].Key)

	_, err = qr.Handler("/counters").Query(db, "bogus", nil)
	assert.IsErr(t, errors.ErrInvalidInput, err)
}

func TestPrefixRange(t *testing.T) {
	start, end := prefixRange([]byte{1, 0xff})
	assert.Equal(t, []byte{1, 0xff}, start)
	assert.Equal(t, []byte{2, 0}, end)

	_, end = prefixRange([]byte{0xff, 0xff})
	assert.Nil(t, end)
}
