package ledger

import (
	weave "github.com/iov-one/trustd"
	"github.com/iov-one/trustd/errors"
	"github.com/iov-one/trustd/orm"
	"github.com/iov-one/trustd/x"
)

// Balance is the withdrawable amount of a single account.
type Balance struct {
	Amount int64 `json:"amount"`
}

var _ orm.Model = (*Balance)(nil)

// Marshal implements weave.Persistent.
func (b *Balance) Marshal() ([]byte, error) { return x.MarshalBinary(b) }

// Unmarshal implements weave.Persistent.
func (b *Balance) Unmarshal(raw []byte) error { return x.UnmarshalBinary(raw, b) }

// Validate ensures the balance is never negative.
func (b *Balance) Validate() error {
	if b.Amount < 0 {
		return errors.Wrapf(errors.ErrInvalidAmount, "negative balance %d", b.Amount)
	}
	return nil
}

// Copy returns a copy of the balance.
func (b *Balance) Copy() orm.Model {
	return &Balance{Amount: b.Amount}
}

// BalanceBucketName prefixes every stored balance key.
const BalanceBucketName = "bal"

// NewBalanceBucket returns a bucket storing balances by account address.
func NewBalanceBucket() orm.ModelBucket {
	return orm.NewModelBucket(orm.NewBucket(BalanceBucketName, orm.NewSimpleObj(nil, &Balance{})))
}

// Totals accumulates all value that went through the ledger.
type Totals struct {
	Credited  int64 `json:"credited"`
	Withdrawn int64 `json:"withdrawn"`
}

var _ orm.Model = (*Totals)(nil)

// Marshal implements weave.Persistent.
func (t *Totals) Marshal() ([]byte, error) { return x.MarshalBinary(t) }

// Unmarshal implements weave.Persistent.
func (t *Totals) Unmarshal(raw []byte) error { return x.UnmarshalBinary(raw, t) }

// Validate ensures nothing was withdrawn that was not credited first.
func (t *Totals) Validate() error {
	if t.Credited < 0 || t.Withdrawn < 0 {
		return errors.Wrap(errors.ErrInvalidModel, "negative total")
	}
	if t.Withdrawn > t.Credited {
		return errors.Wrapf(errors.ErrInvalidState, "withdrawn %d exceeds credited %d", t.Withdrawn, t.Credited)
	}
	return nil
}

// Copy returns a copy of the totals.
func (t *Totals) Copy() orm.Model {
	cpy := *t
	return &cpy
}

var totalsKey = []byte("all")

// NewTotalsBucket returns a bucket holding the single Totals entity.
func NewTotalsBucket() orm.ModelBucket {
	return orm.NewModelBucket(orm.NewBucket("ledger_sum", orm.NewSimpleObj(nil, &Totals{})))
}

// Payout is a transfer request recorded by the Outbox transferer. It is
// settled by an external payer once the operation that created it commits.
type Payout struct {
	Recipient weave.Address  `json:"recipient"`
	Amount    int64          `json:"amount"`
	CreatedAt weave.UnixTime `json:"created_at"`
}

var _ orm.Model = (*Payout)(nil)

// Marshal implements weave.Persistent.
func (p *Payout) Marshal() ([]byte, error) { return x.MarshalBinary(p) }

// Unmarshal implements weave.Persistent.
func (p *Payout) Unmarshal(raw []byte) error { return x.UnmarshalBinary(raw, p) }

// Validate ensures the payout can be paid.
func (p *Payout) Validate() error {
	var errs error
	errs = errors.AppendField(errs, "Recipient", p.Recipient.Validate())
	if p.Amount <= 0 {
		errs = errors.AppendField(errs, "Amount", errors.ErrInvalidAmount)
	}
	errs = errors.AppendField(errs, "CreatedAt", p.CreatedAt.Validate())
	return errs
}

// Copy returns a copy of the payout.
func (p *Payout) Copy() orm.Model {
	return &Payout{
		Recipient: append(weave.Address(nil), p.Recipient...),
		Amount:    p.Amount,
		CreatedAt: p.CreatedAt,
	}
}

// NewPayoutBucket returns a bucket of payouts, indexed by recipient.
func NewPayoutBucket() orm.ModelBucket {
	b := orm.NewBucket("payout", orm.NewSimpleObj(nil, &Payout{})).
		WithIndex("recipient", idxRecipient)
	return orm.NewModelBucket(b)
}

func idxRecipient(obj orm.Object) ([]byte, error) {
	p, ok := obj.Value().(*Payout)
	if !ok {
		return nil, errors.WithType(errors.ErrInvalidModel, obj.Value())
	}
	return p.Recipient, nil
}
