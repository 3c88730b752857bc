package ledger

import (
	weave "github.com/iov-one/trustd"
	"github.com/iov-one/trustd/errors"
	"github.com/iov-one/trustd/orm"
)

// Transferer moves value out of the system to the given recipient. It is
// called after the recipient balance was zeroed, using the same store. An
// error aborts the withdrawal and the host must discard all its writes.
type Transferer interface {
	Transfer(ctx weave.Context, db weave.KVStore, recipient weave.Address, amount int64) error
}

// TransferFunc adapts a function to the Transferer interface.
type TransferFunc func(ctx weave.Context, db weave.KVStore, recipient weave.Address, amount int64) error

// Transfer calls the underlying function.
func (fn TransferFunc) Transfer(ctx weave.Context, db weave.KVStore, recipient weave.Address, amount int64) error {
	return fn(ctx, db, recipient, amount)
}

// Outbox is a Transferer that records every transfer as a Payout in the
// store. Because the payout is written with the rest of the operation, it is
// rolled back together with the balance when the operation fails.
type Outbox struct {
	bucket orm.ModelBucket
	// MaxAmount if positive is the largest amount a single payout may
	// carry.
	MaxAmount int64
}

var _ Transferer = (*Outbox)(nil)

// NewOutbox returns an outbox using the default payout bucket.
func NewOutbox(maxAmount int64) *Outbox {
	return &Outbox{
		bucket:    NewPayoutBucket(),
		MaxAmount: maxAmount,
	}
}

// Transfer records a payout for the recipient.
func (o *Outbox) Transfer(ctx weave.Context, db weave.KVStore, recipient weave.Address, amount int64) error {
	if o.MaxAmount > 0 && amount > o.MaxAmount {
		return errors.Wrapf(errors.ErrTransferFailed, "amount %d exceeds payout limit %d", amount, o.MaxAmount)
	}
	now, err := weave.BlockTime(ctx)
	if err != nil {
		return errors.Wrap(errors.ErrTransferFailed, err.Error())
	}
	payout := &Payout{
		Recipient: recipient,
		Amount:    amount,
		CreatedAt: weave.AsUnixTime(now),
	}
	if _, err := o.bucket.Put(db, nil, payout); err != nil {
		return errors.Wrap(errors.ErrTransferFailed, err.Error())
	}
	return nil
}

// Payouts returns all payouts ever recorded for given recipient, oldest first.
func (o *Outbox) Payouts(db weave.ReadOnlyKVStore, recipient weave.Address) ([]*Payout, error) {
	keys, err := o.bucket.ByIndex(db, "recipient", recipient)
	if err != nil {
		return nil, err
	}
	res := make([]*Payout, 0, len(keys))
	for _, k := range keys {
		var p Payout
		if err := o.bucket.One(db, k, &p); err != nil {
			return nil, errors.Wrapf(err, "payout %X", k)
		}
		res = append(res, &p)
	}
	return res, nil
}
