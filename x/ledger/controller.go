package ledger

import (
	"math"

	weave "github.com/iov-one/trustd"
	"github.com/iov-one/trustd/errors"
	"github.com/iov-one/trustd/orm"
)

// Controller is the ledger API exposed to other extensions.
type Controller interface {
	Crediter

	// Balance returns the withdrawable amount of given account. An
	// account that was never credited has a zero balance.
	Balance(db weave.ReadOnlyKVStore, addr weave.Address) (int64, error)

	// Drain zeroes the balance of given account and returns the amount
	// it held. ErrInsufficientFunds is returned for an empty balance.
	Drain(db weave.KVStore, addr weave.Address) (int64, error)

	// Totals returns the sum of all credits and withdrawals.
	Totals(db weave.ReadOnlyKVStore) (*Totals, error)
}

// Crediter is the subset of the ledger used by settling extensions. It is
// the only way to increase a balance.
type Crediter interface {
	// Credit adds amount to the balance of given account. Amount must not
	// be negative. A zero amount is a no-op.
	Credit(db weave.KVStore, addr weave.Address, amount int64) error

	// TotalWithdrawn returns the sum of all amounts ever drained.
	TotalWithdrawn(db weave.ReadOnlyKVStore) (int64, error)
}

// BaseController is the default Controller implementation, backed by the
// balance and totals buckets.
type BaseController struct {
	balances orm.ModelBucket
	totals   orm.ModelBucket
}

var _ Controller = BaseController{}

// NewController returns a controller using the default buckets.
func NewController() BaseController {
	return BaseController{
		balances: NewBalanceBucket(),
		totals:   NewTotalsBucket(),
	}
}

// Credit implements Crediter.
func (c BaseController) Credit(db weave.KVStore, addr weave.Address, amount int64) error {
	if amount < 0 {
		return errors.Wrapf(errors.ErrInvalidAmount, "cannot credit %d", amount)
	}
	if err := addr.Validate(); err != nil {
		return errors.Wrap(err, "account")
	}
	if amount == 0 {
		return nil
	}

	bal, err := c.load(db, addr)
	if err != nil {
		return err
	}
	if bal.Amount > math.MaxInt64-amount {
		return errors.Wrapf(errors.ErrOverflow, "balance of %s", addr)
	}
	bal.Amount += amount

	tot, err := c.Totals(db)
	if err != nil {
		return err
	}
	if tot.Credited > math.MaxInt64-amount {
		return errors.Wrap(errors.ErrOverflow, "credited total")
	}
	tot.Credited += amount

	if _, err := c.balances.Put(db, addr, bal); err != nil {
		return errors.Wrap(err, "save balance")
	}
	if _, err := c.totals.Put(db, totalsKey, tot); err != nil {
		return errors.Wrap(err, "save totals")
	}
	return nil
}

// Balance implements Controller.
func (c BaseController) Balance(db weave.ReadOnlyKVStore, addr weave.Address) (int64, error) {
	bal, err := c.load(db, addr)
	if err != nil {
		return 0, err
	}
	return bal.Amount, nil
}

// Drain implements Controller.
func (c BaseController) Drain(db weave.KVStore, addr weave.Address) (int64, error) {
	bal, err := c.load(db, addr)
	if err != nil {
		return 0, err
	}
	if bal.Amount == 0 {
		return 0, errors.Wrapf(errors.ErrInsufficientFunds, "no balance for %s", addr)
	}
	amount := bal.Amount

	tot, err := c.Totals(db)
	if err != nil {
		return 0, err
	}
	tot.Withdrawn += amount

	bal.Amount = 0
	if _, err := c.balances.Put(db, addr, bal); err != nil {
		return 0, errors.Wrap(err, "save balance")
	}
	if _, err := c.totals.Put(db, totalsKey, tot); err != nil {
		return 0, errors.Wrap(err, "save totals")
	}
	return amount, nil
}

// Totals implements Controller.
func (c BaseController) Totals(db weave.ReadOnlyKVStore) (*Totals, error) {
	var tot Totals
	switch err := c.totals.One(db, totalsKey, &tot); {
	case err == nil:
		return &tot, nil
	case errors.ErrNotFound.Is(err):
		return &Totals{}, nil
	default:
		return nil, errors.Wrap(err, "load totals")
	}
}

// TotalWithdrawn implements Crediter.
func (c BaseController) TotalWithdrawn(db weave.ReadOnlyKVStore) (int64, error) {
	tot, err := c.Totals(db)
	if err != nil {
		return 0, err
	}
	return tot.Withdrawn, nil
}

func (c BaseController) load(db weave.ReadOnlyKVStore, addr weave.Address) (*Balance, error) {
	if len(addr) == 0 {
		return nil, errors.Wrap(errors.ErrEmpty, "account")
	}
	var bal Balance
	switch err := c.balances.One(db, addr, &bal); {
	case err == nil:
		return &bal, nil
	case errors.ErrNotFound.Is(err):
		return &Balance{}, nil
	default:
		return nil, errors.Wrap(err, "load balance")
	}
}
