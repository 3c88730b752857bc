package ledger

import (
	"context"
	"strconv"
	"testing"
	"time"

	weave "github.com/iov-one/trustd"
	"github.com/iov-one/trustd/errors"
	"github.com/iov-one/trustd/store"
	"github.com/iov-one/trustd/weavetest"
	"github.com/iov-one/trustd/weavetest/assert"
	"github.com/iov-one/trustd/x"
)

func withdrawCtx(caller weave.Condition) weave.Context {
	ctx := weave.WithBlockTime(context.Background(), time.Now())
	if caller != nil {
		ctx = x.WithCaller(ctx, caller)
	}
	return ctx
}

func TestWithdraw(t *testing.T) {
	alice := weavetest.NewCondition()

	db := store.MemStore()
	ctrl := NewController()
	outbox := NewOutbox(0)
	h := NewWithdrawHandler(x.CallerAuth{}, ctrl, outbox)
	tx := &weavetest.Tx{Msg: &WithdrawMsg{}}

	assert.Nil(t, ctrl.Credit(db, alice.Address(), 990))

	_, err := h.Check(withdrawCtx(alice), db, tx)
	assert.Nil(t, err)

	res, err := h.Deliver(withdrawCtx(alice), db, tx)
	assert.Nil(t, err)
	assert.Equal(t, "990", string(res.Data))
	assert.Equal(t, 1, len(res.Events))
	ev := res.Events[0]
	assert.Equal(t, EventFundsWithdrawn, ev.Kind)
	amount, _ := ev.Attr("amount")
	assert.Equal(t, strconv.Itoa(990), amount)
	account, _ := ev.Attr("account")
	assert.Equal(t, alice.Address().String(), account)

	bal, err := ctrl.Balance(db, alice.Address())
	assert.Nil(t, err)
	assert.Equal(t, int64(0), bal)

	payouts, err := outbox.Payouts(db, alice.Address())
	assert.Nil(t, err)
	assert.Equal(t, 1, len(payouts))
	assert.Equal(t, int64(990), payouts[0].Amount)

	// nothing left
	_, err = h.Deliver(withdrawCtx(alice), db, tx)
	assert.IsErr(t, errors.ErrInsufficientFunds, err)
	_, err = h.Check(withdrawCtx(alice), db, tx)
	assert.IsErr(t, errors.ErrInsufficientFunds, err)

	// unknown caller
	_, err = h.Deliver(withdrawCtx(nil), db, tx)
	assert.IsErr(t, errors.ErrUnauthorized, err)
}

func TestWithdrawTransferFailureRollsBack(t *testing.T) {
	alice := weavetest.NewCondition()

	cases := map[string]Transferer{
		"plain error": TransferFunc(func(weave.Context, weave.KVStore, weave.Address, int64) error {
			return errors.Wrap(errors.ErrHuman, "payer offline")
		}),
		"outbox limit": NewOutbox(100),
	}

	for name, transfer := range cases {
		t.Run(name, func(t *testing.T) {
			db := store.MemStore()
			ctrl := NewController()
			assert.Nil(t, ctrl.Credit(db, alice.Address(), 500))

			h := NewWithdrawHandler(x.CallerAuth{}, ctrl, transfer)

			cache := db.CacheWrap()
			_, err := h.Deliver(withdrawCtx(alice), cache, &weavetest.Tx{Msg: &WithdrawMsg{}})
			assert.IsErr(t, errors.ErrTransferFailed, err)

			// balance was zeroed inside the failed operation
			bal, err := ctrl.Balance(cache, alice.Address())
			assert.Nil(t, err)
			assert.Equal(t, int64(0), bal)

			cache.Discard()

			bal, err = ctrl.Balance(db, alice.Address())
			assert.Nil(t, err)
			assert.Equal(t, int64(500), bal)
			withdrawn, err := ctrl.TotalWithdrawn(db)
			assert.Nil(t, err)
			assert.Equal(t, int64(0), withdrawn)
		})
	}
}

func TestQueryBalances(t *testing.T) {
	alice := weavetest.NewCondition().Address()
	db := store.MemStore()
	assert.Nil(t, NewController().Credit(db, alice, 42))

	qr := weave.NewQueryRouter()
	RegisterQuery(qr)

	res, err := qr.Handler("/balances").Query(db, weave.KeyQueryMod, alice)
	assert.Nil(t, err)
	assert.Equal(t, 1, len(res))

	var bal Balance
	assert.Nil(t, bal.Unmarshal(res[0].Value))
	assert.Equal(t, int64(42), bal.Amount)
}
