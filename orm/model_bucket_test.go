package orm

import (
	"testing"

	"github.com/iov-one/trustd/errors"
	"github.com/iov-one/trustd/store"
	"github.com/iov-one/trustd/weavetest/assert"
)

func TestModelBucket(t *testing.T) {
	db := store.MemStore()

	b := NewModelBucket(NewBucket("cnts", NewSimpleObj(nil, &counter{})))

	if _, err := b.Put(db, []byte("c1"), &counter{Count: 1}); err != nil {
		t.Fatalf("cannot save counter instance: %s", err)
	}

	var c1 counter
	if err := b.One(db, []byte("c1"), &c1); err != nil {
		t.Fatalf("cannot get c1 counter: %s", err)
	}
	if c1.Count != 1 {
		t.Fatalf("unexpected counter state: %d", c1.Count)
	}
	assert.Nil(t, b.Has(db, []byte("c1")))

	if err := b.One(db, []byte("unknown"), &c1); !errors.ErrNotFound.Is(err) {
		t.Fatalf("unexpected error for an unknown model get: %s", err)
	}
	assert.IsErr(t, errors.ErrNotFound, b.Has(db, []byte("unknown")))
}

func TestModelBucketSequenceKeys(t *testing.T) {
	db := store.MemStore()
	b := NewModelBucket(NewBucket("cnts", NewSimpleObj(nil, &counter{})).
		WithIndex("owner", counterOwner))

	owner := []byte("owner")
	var keys [][]byte
	for i := int64(0); i < 3; i++ {
		key, err := b.Put(db, nil, &counter{Count: i, Owner: owner})
		assert.Nil(t, err)
		keys = append(keys, key)
	}
	assert.Equal(t, EncodeSequence(1), keys[0])
	assert.Equal(t, EncodeSequence(3), keys[2])

	got, err := b.ByIndex(db, "owner", owner)
	assert.Nil(t, err)
	assert.Equal(t, keys, got)

	_, err = b.Put(db, nil, &counter{Count: -4})
	assert.IsErr(t, errors.ErrInvalidModel, err)
}
