package app

import (
	"context"
	"testing"

	weave "github.com/iov-one/trustd"
	"github.com/iov-one/trustd/errors"
	"github.com/iov-one/trustd/store"
	"github.com/iov-one/trustd/weavetest"
	"github.com/iov-one/trustd/weavetest/assert"
	"github.com/tendermint/tendermint/libs/common"
)

func TestActionTagger(t *testing.T) {
	tx := &weavetest.Tx{Msg: &weavetest.Msg{RoutePath: "trust/create"}}
	db := store.MemStore()

	h := weavetest.Handler{
		DeliverResult: weave.DeliverResult{
			Tags: []common.KVPair{{Key: []byte("trust.id"), Value: []byte("1")}},
		},
	}
	res, err := NewActionTagger().Deliver(context.Background(), db, tx, &h)
	assert.Nil(t, err)
	want := []common.KVPair{
		{Key: []byte("trust.id"), Value: []byte("1")},
		{Key: []byte(ActionKey), Value: []byte("trust/create")},
	}
	assert.Equal(t, want, res.Tags)

	failing := weavetest.Handler{DeliverErr: errors.ErrTooEarly}
	_, err = NewActionTagger().Deliver(context.Background(), db, tx, &failing)
	assert.IsErr(t, errors.ErrTooEarly, err)

	broken := &weavetest.Tx{Err: errors.ErrInvalidMsg}
	_, err = NewActionTagger().Deliver(context.Background(), db, broken, &h)
	assert.IsErr(t, errors.ErrInvalidMsg, err)
	assert.Equal(t, 1, h.DeliverCallCount())
}
