package trust

import (
	weave "github.com/iov-one/trustd"
	"github.com/iov-one/trustd/errors"
	"github.com/iov-one/trustd/orm"
	"github.com/iov-one/trustd/x/ledger"
)

// Registry owns the trust records and settles them into the ledger. Its
// read methods serve the get_trust, get_user_trusts and get_stats lookups.
type Registry struct {
	bucket         *Bucket
	depositsBucket orm.ModelBucket
	credit         ledger.Crediter
}

// NewRegistry returns a registry crediting settled funds to given ledger.
func NewRegistry(credit ledger.Crediter) *Registry {
	return &Registry{
		bucket:         NewBucket(),
		depositsBucket: NewDepositsBucket(),
		credit:         credit,
	}
}

// Stats is a summary of the registry state.
type Stats struct {
	// TotalTrusts is the number of trusts ever created.
	TotalTrusts int64 `json:"total_trusts"`
	// TotalValueHeld is the value deposited and not yet withdrawn.
	TotalValueHeld int64 `json:"total_value_held"`
	// Arbitrator resolves disputes.
	Arbitrator weave.Address `json:"arbitrator"`
}

// Trust returns the trust with given id.
func (r *Registry) Trust(db weave.ReadOnlyKVStore, id int64) (*Trust, error) {
	if id <= 0 {
		return nil, errors.Wrapf(errors.ErrNotFound, "trust %d", id)
	}
	return r.bucket.ByID(db, id)
}

// UserTrusts returns the ids of the trusts created by or entrusted to given
// address, in creation order.
func (r *Registry) UserTrusts(db weave.ReadOnlyKVStore, addr weave.Address) ([]int64, error) {
	return r.bucket.UserTrusts(db, addr)
}

// Stats returns the registry summary.
func (r *Registry) Stats(db weave.ReadOnlyKVStore) (*Stats, error) {
	count, err := r.bucket.Count(db)
	if err != nil {
		return nil, err
	}
	deposits, err := r.deposits(db)
	if err != nil {
		return nil, err
	}
	withdrawn, err := r.credit.TotalWithdrawn(db)
	if err != nil {
		return nil, err
	}
	conf, err := loadConf(db)
	if err != nil {
		return nil, err
	}
	return &Stats{
		TotalTrusts:    count,
		TotalValueHeld: deposits.Total - withdrawn,
		Arbitrator:     conf.Arbitrator,
	}, nil
}

func (r *Registry) deposits(db weave.ReadOnlyKVStore) (*Deposits, error) {
	var d Deposits
	switch err := r.depositsBucket.One(db, depositsKey, &d); {
	case err == nil:
		return &d, nil
	case errors.ErrNotFound.Is(err):
		return &Deposits{}, nil
	default:
		return nil, errors.Wrap(err, "load deposits")
	}
}

// pay completes the trust and splits the amount between the beneficiary and
// the fee collector. The released latch is stored before any credit.
func (r *Registry) pay(db weave.KVStore, t *Trust, conf *Configuration) (weave.Event, error) {
	fee := conf.Fee(t.Amount)
	payout := t.Amount - fee

	if err := r.settle(db, t, StatusCompleted); err != nil {
		return weave.Event{}, err
	}
	if err := r.credit.Credit(db, t.Beneficiary, payout); err != nil {
		return weave.Event{}, errors.Wrap(err, "credit beneficiary")
	}
	if err := r.credit.Credit(db, conf.FeeCollector, fee); err != nil {
		return weave.Event{}, errors.Wrap(err, "credit fee collector")
	}
	return weave.NewEvent(EventTrustCompleted,
		"id", idStr(t.ID),
		"beneficiary", t.Beneficiary.String(),
		"amount", amountStr(payout),
		"fee", amountStr(fee),
	), nil
}

// refund cancels the trust and returns the whole amount to the trustor.
func (r *Registry) refund(db weave.KVStore, t *Trust) (weave.Event, error) {
	if err := r.settle(db, t, StatusCancelled); err != nil {
		return weave.Event{}, err
	}
	if err := r.credit.Credit(db, t.Trustor, t.Amount); err != nil {
		return weave.Event{}, errors.Wrap(err, "credit trustor")
	}
	return weave.NewEvent(EventTrustCancelled,
		"id", idStr(t.ID),
		"trustor", t.Trustor.String(),
		"amount", amountStr(t.Amount),
	), nil
}

func (r *Registry) settle(db weave.KVStore, t *Trust, to Status) error {
	if t.FundsReleased {
		return errors.Wrapf(errors.ErrInvalidState, "trust %d funds already released", t.ID)
	}
	t.FundsReleased = true
	t.Status = to
	if _, err := r.bucket.Put(db, Key(t.ID), t); err != nil {
		return errors.Wrap(err, "cannot store trust")
	}
	return nil
}
