package app

import (
	"context"
	"testing"

	weave "github.com/iov-one/trustd"
	"github.com/iov-one/trustd/errors"
	"github.com/iov-one/trustd/store"
	"github.com/iov-one/trustd/weavetest"
	"github.com/iov-one/trustd/weavetest/assert"
)

func TestSavepoint(t *testing.T) {
	key := []byte("written")
	write := func(db weave.KVStore) error { return db.Set(key, []byte("yes")) }

	cases := map[string]struct {
		decorator Savepoint
		handler   weavetest.Handler
		wantErr   *errors.Error
		wantSaved bool
	}{
		"success is written": {
			decorator: NewSavepoint().OnDeliver(),
			handler:   weavetest.Handler{OnDeliver: write},
			wantSaved: true,
		},
		"failure is rolled back": {
			decorator: NewSavepoint().OnDeliver(),
			handler:   weavetest.Handler{OnDeliver: write, DeliverErr: errors.ErrTransferFailed},
			wantErr:   errors.ErrTransferFailed,
		},
		"without savepoint a failure keeps the writes": {
			decorator: NewSavepoint().OnCheck(),
			handler:   weavetest.Handler{OnDeliver: write, DeliverErr: errors.ErrTransferFailed},
			wantErr:   errors.ErrTransferFailed,
			wantSaved: true,
		},
	}

	for testName, tc := range cases {
		t.Run(testName, func(t *testing.T) {
			db := store.MemStore()
			h := tc.handler
			_, err := tc.decorator.Deliver(context.Background(), db, nil, &h)
			assert.IsErr(t, tc.wantErr, err)

			saved, err := db.Has(key)
			assert.Nil(t, err)
			assert.Equal(t, tc.wantSaved, saved)
		})
	}
}
