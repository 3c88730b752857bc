package trust

import (
	"math"
	"strconv"

	weave "github.com/iov-one/trustd"
	"github.com/iov-one/trustd/errors"
	"github.com/iov-one/trustd/x"
	"github.com/iov-one/trustd/x/ledger"
	"github.com/tendermint/tendermint/libs/common"
)

// Notifications emitted by the registry.
const (
	EventTrustCreated   = "trust_created"
	EventTrustCompleted = "trust_completed"
	EventTrustDisputed  = "trust_disputed"
	EventTrustCancelled = "trust_cancelled"
)

// RegisterRoutes will instantiate and register
// all handlers in this package
func RegisterRoutes(r weave.Registry, auth x.Authenticator, credit ledger.Crediter) {
	reg := NewRegistry(credit)
	r.Handle(pathCreateMsg, CreateHandler{auth, reg})
	r.Handle(pathReleaseMsg, ReleaseHandler{auth, reg})
	r.Handle(pathDisputeMsg, DisputeHandler{auth, reg})
	r.Handle(pathResolveMsg, ResolveHandler{auth, reg})
}

// RegisterQuery will register the trust bucket as "/trusts" and the user
// index as "/trusts/user".
func RegisterQuery(qr weave.QueryRouter) {
	NewBucket().Register("trusts", qr)
}

// CreateHandler stores a new active trust.
type CreateHandler struct {
	auth x.Authenticator
	reg  *Registry
}

var _ weave.Handler = CreateHandler{}

// Check just verifies it is properly formed.
func (h CreateHandler) Check(ctx weave.Context, db weave.KVStore, tx weave.Tx) (*weave.CheckResult, error) {
	if _, _, err := h.validate(ctx, db, tx); err != nil {
		return nil, err
	}
	return &weave.CheckResult{}, nil
}

// Deliver stores the trust and indexes it for both the trustor and the
// trustee. The new id is returned as the result data.
func (h CreateHandler) Deliver(ctx weave.Context, db weave.KVStore, tx weave.Tx) (*weave.DeliverResult, error) {
	msg, trustor, err := h.validate(ctx, db, tx)
	if err != nil {
		return nil, err
	}
	now, err := weave.BlockTime(ctx)
	if err != nil {
		return nil, err
	}

	deposits, err := h.reg.deposits(db)
	if err != nil {
		return nil, err
	}
	if deposits.Total > math.MaxInt64-msg.Amount {
		return nil, errors.Wrap(errors.ErrOverflow, "total deposits")
	}
	deposits.Total += msg.Amount

	t := &Trust{
		Trustor:     trustor,
		Trustee:     msg.Trustee,
		Beneficiary: msg.Beneficiary,
		Amount:      msg.Amount,
		ReleaseTime: msg.ReleaseTime,
		CreatedAt:   weave.AsUnixTime(now),
		Status:      StatusActive,
		Description: msg.Description,
	}
	id, err := h.reg.bucket.Create(db, t)
	if err != nil {
		return nil, errors.Wrap(err, "cannot store trust")
	}
	if _, err := h.reg.depositsBucket.Put(db, depositsKey, deposits); err != nil {
		return nil, errors.Wrap(err, "cannot store deposits")
	}

	weave.GetLogger(ctx).Info("trust created", "id", id, "amount", t.Amount)

	return &weave.DeliverResult{
		Data: Key(id),
		Tags: trustTags(t),
		Events: []weave.Event{
			weave.NewEvent(EventTrustCreated,
				"id", idStr(id),
				"trustor", t.Trustor.String(),
				"trustee", t.Trustee.String(),
				"beneficiary", t.Beneficiary.String(),
				"amount", amountStr(t.Amount),
				"release_time", strconv.FormatInt(int64(t.ReleaseTime), 10),
			),
		},
	}, nil
}

// validate does all common pre-processing between Check and Deliver.
func (h CreateHandler) validate(ctx weave.Context, db weave.KVStore, tx weave.Tx) (*CreateMsg, weave.Address, error) {
	var msg CreateMsg
	if err := weave.LoadMsg(tx, &msg); err != nil {
		return nil, nil, errors.Wrap(err, "load msg")
	}
	if !weave.InTheFuture(ctx, msg.ReleaseTime) {
		return nil, nil, errors.Field("ReleaseTime", errors.ErrInvalidInput, "release time must be in the future")
	}
	signer := x.MainSigner(ctx, h.auth)
	if signer == nil {
		return nil, nil, errors.Wrap(errors.ErrUnauthorized, "trustor unknown")
	}
	return &msg, signer.Address(), nil
}

// ReleaseHandler pays an active trust to its beneficiary.
type ReleaseHandler struct {
	auth x.Authenticator
	reg  *Registry
}

var _ weave.Handler = ReleaseHandler{}

// Check verifies the release would succeed.
func (h ReleaseHandler) Check(ctx weave.Context, db weave.KVStore, tx weave.Tx) (*weave.CheckResult, error) {
	if _, _, err := h.validate(ctx, db, tx); err != nil {
		return nil, err
	}
	return &weave.CheckResult{}, nil
}

// Deliver completes the trust and credits the beneficiary and the fee
// collector.
func (h ReleaseHandler) Deliver(ctx weave.Context, db weave.KVStore, tx weave.Tx) (*weave.DeliverResult, error) {
	t, conf, err := h.validate(ctx, db, tx)
	if err != nil {
		return nil, err
	}
	ev, err := h.reg.pay(db, t, conf)
	if err != nil {
		return nil, err
	}
	weave.GetLogger(ctx).Info("trust released", "id", t.ID)
	return &weave.DeliverResult{
		Data:   Key(t.ID),
		Tags:   trustTags(t),
		Events: []weave.Event{ev},
	}, nil
}

// validate runs every check before any write happens.
func (h ReleaseHandler) validate(ctx weave.Context, db weave.KVStore, tx weave.Tx) (*Trust, *Configuration, error) {
	var msg ReleaseMsg
	if err := weave.LoadMsg(tx, &msg); err != nil {
		return nil, nil, errors.Wrap(err, "load msg")
	}
	t, err := h.reg.bucket.ByID(db, msg.TrustID)
	if err != nil {
		return nil, nil, err
	}
	if t.Status != StatusActive {
		return nil, nil, errors.Wrapf(errors.ErrInvalidState, "trust %d is %s", t.ID, t.Status)
	}
	if !h.auth.HasAddress(ctx, t.Trustee) {
		return nil, nil, errors.Wrap(errors.ErrUnauthorized, "only the trustee can release")
	}
	if !weave.IsExpired(ctx, t.ReleaseTime) {
		return nil, nil, errors.Wrapf(errors.ErrTooEarly, "release time %d not reached", t.ReleaseTime)
	}
	if t.FundsReleased {
		return nil, nil, errors.Wrapf(errors.ErrInvalidState, "trust %d funds already released", t.ID)
	}
	conf, err := loadConf(db)
	if err != nil {
		return nil, nil, err
	}
	return t, conf, nil
}

// DisputeHandler moves an active trust to the disputed state.
type DisputeHandler struct {
	auth x.Authenticator
	reg  *Registry
}

var _ weave.Handler = DisputeHandler{}

// Check verifies the dispute would succeed.
func (h DisputeHandler) Check(ctx weave.Context, db weave.KVStore, tx weave.Tx) (*weave.CheckResult, error) {
	if _, _, err := h.validate(ctx, db, tx); err != nil {
		return nil, err
	}
	return &weave.CheckResult{}, nil
}

// Deliver marks the trust disputed. No funds move.
func (h DisputeHandler) Deliver(ctx weave.Context, db weave.KVStore, tx weave.Tx) (*weave.DeliverResult, error) {
	t, initiator, err := h.validate(ctx, db, tx)
	if err != nil {
		return nil, err
	}
	t.Status = StatusDisputed
	if _, err := h.reg.bucket.Put(db, Key(t.ID), t); err != nil {
		return nil, errors.Wrap(err, "cannot store trust")
	}

	weave.GetLogger(ctx).Info("trust disputed", "id", t.ID, "initiator", initiator.String())

	return &weave.DeliverResult{
		Data: Key(t.ID),
		Tags: trustTags(t),
		Events: []weave.Event{
			weave.NewEvent(EventTrustDisputed,
				"id", idStr(t.ID),
				"initiator", initiator.String(),
			),
		},
	}, nil
}

func (h DisputeHandler) validate(ctx weave.Context, db weave.KVStore, tx weave.Tx) (*Trust, weave.Address, error) {
	var msg DisputeMsg
	if err := weave.LoadMsg(tx, &msg); err != nil {
		return nil, nil, errors.Wrap(err, "load msg")
	}
	t, err := h.reg.bucket.ByID(db, msg.TrustID)
	if err != nil {
		return nil, nil, err
	}
	if t.Status != StatusActive {
		return nil, nil, errors.Wrapf(errors.ErrInvalidState, "trust %d is %s", t.ID, t.Status)
	}
	if t.FundsReleased {
		return nil, nil, errors.Wrapf(errors.ErrInvalidState, "trust %d funds already released", t.ID)
	}
	signer := x.MainSigner(ctx, h.auth)
	if signer == nil || !t.IsParty(signer.Address()) {
		return nil, nil, errors.Wrap(errors.ErrUnauthorized, "only a trust party can dispute")
	}
	return t, signer.Address(), nil
}

// ResolveHandler lets the arbitrator settle a disputed trust.
type ResolveHandler struct {
	auth x.Authenticator
	reg  *Registry
}

var _ weave.Handler = ResolveHandler{}

// Check verifies the resolution would succeed.
func (h ResolveHandler) Check(ctx weave.Context, db weave.KVStore, tx weave.Tx) (*weave.CheckResult, error) {
	if _, _, _, err := h.validate(ctx, db, tx); err != nil {
		return nil, err
	}
	return &weave.CheckResult{}, nil
}

// Deliver either refunds the whole amount to the trustor or pays the
// beneficiary the same way a release does.
func (h ResolveHandler) Deliver(ctx weave.Context, db weave.KVStore, tx weave.Tx) (*weave.DeliverResult, error) {
	msg, t, conf, err := h.validate(ctx, db, tx)
	if err != nil {
		return nil, err
	}

	var ev weave.Event
	if msg.RefundToTrustor {
		ev, err = h.reg.refund(db, t)
	} else {
		ev, err = h.reg.pay(db, t, conf)
	}
	if err != nil {
		return nil, err
	}

	weave.GetLogger(ctx).Info("dispute resolved", "id", t.ID, "refund", msg.RefundToTrustor)

	return &weave.DeliverResult{
		Data:   Key(t.ID),
		Tags:   trustTags(t),
		Events: []weave.Event{ev},
	}, nil
}

func (h ResolveHandler) validate(ctx weave.Context, db weave.KVStore, tx weave.Tx) (*ResolveMsg, *Trust, *Configuration, error) {
	var msg ResolveMsg
	if err := weave.LoadMsg(tx, &msg); err != nil {
		return nil, nil, nil, errors.Wrap(err, "load msg")
	}
	conf, err := loadConf(db)
	if err != nil {
		return nil, nil, nil, err
	}
	if !h.auth.HasAddress(ctx, conf.Arbitrator) {
		return nil, nil, nil, errors.Wrap(errors.ErrUnauthorized, "only the arbitrator can resolve")
	}
	t, err := h.reg.bucket.ByID(db, msg.TrustID)
	if err != nil {
		return nil, nil, nil, err
	}
	if t.Status != StatusDisputed {
		return nil, nil, nil, errors.Wrapf(errors.ErrInvalidState, "trust %d is %s", t.ID, t.Status)
	}
	if t.FundsReleased {
		return nil, nil, nil, errors.Wrapf(errors.ErrInvalidState, "trust %d funds already released", t.ID)
	}
	return &msg, t, conf, nil
}

func trustTags(t *Trust) []common.KVPair {
	return []common.KVPair{
		{Key: []byte("trust.id"), Value: []byte(idStr(t.ID))},
		{Key: []byte("trust.status"), Value: []byte(t.Status.String())},
	}
}

func idStr(id int64) string {
	return strconv.FormatInt(id, 10)
}

func amountStr(a int64) string {
	return strconv.FormatInt(a, 10)
}
