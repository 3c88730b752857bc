package trust

import (
	"context"
	"strings"
	"testing"
	"time"

	weave "github.com/iov-one/trustd"
	"github.com/iov-one/trustd/errors"
	"github.com/iov-one/trustd/gconf"
	"github.com/iov-one/trustd/orm"
	"github.com/iov-one/trustd/store"
	"github.com/iov-one/trustd/weavetest"
	"github.com/iov-one/trustd/weavetest/assert"
	"github.com/iov-one/trustd/x"
	"github.com/iov-one/trustd/x/ledger"
)

type fixture struct {
	db        weave.CacheableKVStore
	ledger    ledger.BaseController
	reg       *Registry
	now       time.Time
	conf      *Configuration
	trustor   weave.Condition
	trustee   weave.Condition
	benef     weave.Condition
	arbitr    weave.Condition
	collector weave.Condition
	auth      x.Authenticator
}

func newFixture(t testing.TB) *fixture {
	t.Helper()
	f := &fixture{
		db:        store.MemStore(),
		ledger:    ledger.NewController(),
		now:       time.Unix(1500000000, 0),
		trustor:   weavetest.NewCondition(),
		trustee:   weavetest.NewCondition(),
		benef:     weavetest.NewCondition(),
		arbitr:    weavetest.NewCondition(),
		collector: weavetest.NewCondition(),
		auth:      x.CallerAuth{},
	}
	f.reg = NewRegistry(f.ledger)
	f.conf = &Configuration{
		Arbitrator:   f.arbitr.Address(),
		FeeCollector: f.collector.Address(),
		FeePercent:   1,
	}
	assert.Nil(t, gconf.Save(f.db, configPkg, f.conf))
	return f
}

func (f *fixture) ctx(caller weave.Condition, at time.Time) weave.Context {
	ctx := weave.WithBlockTime(context.Background(), at)
	if caller != nil {
		ctx = x.WithCaller(ctx, caller)
	}
	return ctx
}

func (f *fixture) create(t testing.TB, amount int64, release time.Time) (int64, *weave.DeliverResult) {
	t.Helper()
	msg := &CreateMsg{
		Trustee:     f.trustee.Address(),
		Beneficiary: f.benef.Address(),
		ReleaseTime: weave.AsUnixTime(release),
		Description: "rent deposit",
		Amount:      amount,
	}
	res, err := CreateHandler{f.auth, f.reg}.Deliver(f.ctx(f.trustor, f.now), f.db, &weavetest.Tx{Msg: msg})
	if err != nil {
		t.Fatalf("cannot create trust: %+v", err)
	}
	return orm.DecodeSequence(res.Data), res
}

func (f *fixture) balance(t testing.TB, c weave.Condition) int64 {
	t.Helper()
	b, err := f.ledger.Balance(f.db, c.Address())
	assert.Nil(t, err)
	return b
}

func TestCreate(t *testing.T) {
	f := newFixture(t)
	id, res := f.create(t, 1000, f.now.Add(time.Second))
	assert.Equal(t, int64(1), id)

	tr, err := f.reg.Trust(f.db, id)
	assert.Nil(t, err)
	assert.Equal(t, StatusActive, tr.Status)
	assert.Equal(t, false, tr.FundsReleased)
	assert.Equal(t, f.trustor.Address(), tr.Trustor)
	assert.Equal(t, int64(1000), tr.Amount)
	assert.Equal(t, weave.AsUnixTime(f.now), tr.CreatedAt)

	assert.Equal(t, 1, len(res.Events))
	ev := res.Events[0]
	assert.Equal(t, EventTrustCreated, ev.Kind)
	for key, want := range map[string]string{
		"id":           "1",
		"trustor":      f.trustor.Address().String(),
		"trustee":      f.trustee.Address().String(),
		"amount":       "1000",
		"release_time": "1500000001",
	} {
		got, ok := ev.Attr(key)
		assert.Equal(t, true, ok)
		assert.Equal(t, want, got)
	}

	id2, _ := f.create(t, 5, f.now.Add(time.Hour))
	assert.Equal(t, int64(2), id2)

	for _, c := range []weave.Condition{f.trustor, f.trustee} {
		ids, err := f.reg.UserTrusts(f.db, c.Address())
		assert.Nil(t, err)
		assert.Equal(t, []int64{1, 2}, ids)
	}
	ids, err := f.reg.UserTrusts(f.db, f.benef.Address())
	assert.Nil(t, err)
	assert.Equal(t, 0, len(ids))
}

func TestCreateInvalid(t *testing.T) {
	f := newFixture(t)
	valid := func() *CreateMsg {
		return &CreateMsg{
			Trustee:     f.trustee.Address(),
			Beneficiary: f.benef.Address(),
			ReleaseTime: weave.AsUnixTime(f.now.Add(time.Second)),
			Description: "x",
			Amount:      1,
		}
	}

	cases := map[string]struct {
		mod     func(*CreateMsg)
		caller  weave.Condition
		wantErr *errors.Error
	}{
		"zero amount":           {mod: func(m *CreateMsg) { m.Amount = 0 }, wantErr: errors.ErrInvalidInput},
		"negative amount":       {mod: func(m *CreateMsg) { m.Amount = -4 }, wantErr: errors.ErrInvalidInput},
		"missing trustee":       {mod: func(m *CreateMsg) { m.Trustee = nil }, wantErr: errors.ErrInvalidInput},
		"missing beneficiary":   {mod: func(m *CreateMsg) { m.Beneficiary = nil }, wantErr: errors.ErrInvalidInput},
		"zero trustee":          {mod: func(m *CreateMsg) { m.Trustee = make(weave.Address, weave.AddressLength) }, wantErr: errors.ErrInvalidInput},
		"zero beneficiary":      {mod: func(m *CreateMsg) { m.Beneficiary = make(weave.Address, weave.AddressLength) }, wantErr: errors.ErrInvalidInput},
		"too long description":  {mod: func(m *CreateMsg) { m.Description = strings.Repeat("x", maxDescriptionSize+1) }, wantErr: errors.ErrInvalidInput},
		"empty description":     {mod: func(m *CreateMsg) { m.Description = "" }, wantErr: errors.ErrInvalidInput},
		"release time now":      {mod: func(m *CreateMsg) { m.ReleaseTime = weave.AsUnixTime(f.now) }, wantErr: errors.ErrInvalidInput},
		"release time in past":  {mod: func(m *CreateMsg) { m.ReleaseTime = weave.AsUnixTime(f.now.Add(-time.Hour)) }, wantErr: errors.ErrInvalidInput},
		"unauthenticated":       {mod: func(*CreateMsg) {}, caller: nil, wantErr: errors.ErrUnauthorized},
		"valid with the caller": {mod: func(*CreateMsg) {}, caller: f.trustor},
	}

	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			db := f.db.CacheWrap()
			defer db.Discard()

			msg := valid()
			tc.mod(msg)
			h := CreateHandler{f.auth, f.reg}
			ctx := f.ctx(tc.caller, f.now)
			tx := &weavetest.Tx{Msg: msg}

			_, err := h.Check(ctx, db, tx)
			assert.IsErr(t, tc.wantErr, err)
			_, err = h.Deliver(ctx, db, tx)
			assert.IsErr(t, tc.wantErr, err)

			if tc.wantErr != nil {
				count, err := f.reg.bucket.Count(db)
				assert.Nil(t, err)
				assert.Equal(t, int64(0), count)
			}
		})
	}
}

func TestReleaseScenario(t *testing.T) {
	f := newFixture(t)
	id, _ := f.create(t, 1000, f.now.Add(time.Second))
	h := ReleaseHandler{f.auth, f.reg}
	tx := &weavetest.Tx{Msg: &ReleaseMsg{TrustID: id}}

	_, err := h.Deliver(f.ctx(f.trustee, f.now), f.db, tx)
	assert.IsErr(t, errors.ErrTooEarly, err)

	later := f.now.Add(time.Second)
	_, err = h.Deliver(f.ctx(f.trustor, later), f.db, tx)
	assert.IsErr(t, errors.ErrUnauthorized, err)
	_, err = h.Deliver(f.ctx(f.benef, later), f.db, tx)
	assert.IsErr(t, errors.ErrUnauthorized, err)

	_, err = h.Check(f.ctx(f.trustee, later), f.db, tx)
	assert.Nil(t, err)
	res, err := h.Deliver(f.ctx(f.trustee, later), f.db, tx)
	assert.Nil(t, err)

	assert.Equal(t, int64(990), f.balance(t, f.benef))
	assert.Equal(t, int64(10), f.balance(t, f.collector))
	assert.Equal(t, int64(0), f.balance(t, f.trustor))

	ev := res.Events[0]
	assert.Equal(t, EventTrustCompleted, ev.Kind)
	fee, _ := ev.Attr("fee")
	assert.Equal(t, "10", fee)

	tr, err := f.reg.Trust(f.db, id)
	assert.Nil(t, err)
	assert.Equal(t, StatusCompleted, tr.Status)
	assert.Equal(t, true, tr.FundsReleased)

	// no double release, balances unchanged
	_, err = h.Deliver(f.ctx(f.trustee, later), f.db, tx)
	assert.IsErr(t, errors.ErrInvalidState, err)
	assert.Equal(t, int64(990), f.balance(t, f.benef))

	// dispute is rejected once released
	_, err = DisputeHandler{f.auth, f.reg}.Deliver(f.ctx(f.benef, later), f.db,
		&weavetest.Tx{Msg: &DisputeMsg{TrustID: id}})
	assert.IsErr(t, errors.ErrInvalidState, err)

	_, err = h.Deliver(f.ctx(f.trustee, later), f.db, &weavetest.Tx{Msg: &ReleaseMsg{TrustID: 42}})
	assert.IsErr(t, errors.ErrNotFound, err)
}

func TestReleaseSmallAmountHasNoFee(t *testing.T) {
	f := newFixture(t)
	id, _ := f.create(t, 99, f.now.Add(time.Second))
	later := f.now.Add(time.Minute)
	_, err := ReleaseHandler{f.auth, f.reg}.Deliver(f.ctx(f.trustee, later), f.db,
		&weavetest.Tx{Msg: &ReleaseMsg{TrustID: id}})
	assert.Nil(t, err)
	assert.Equal(t, int64(99), f.balance(t, f.benef))
	assert.Equal(t, int64(0), f.balance(t, f.collector))
}

func TestDisputeAndRefund(t *testing.T) {
	f := newFixture(t)
	id, _ := f.create(t, 1000, f.now.Add(time.Second))
	dispute := DisputeHandler{f.auth, f.reg}
	resolve := ResolveHandler{f.auth, f.reg}
	stranger := weavetest.NewCondition()

	_, err := dispute.Deliver(f.ctx(stranger, f.now), f.db, &weavetest.Tx{Msg: &DisputeMsg{TrustID: id}})
	assert.IsErr(t, errors.ErrUnauthorized, err)

	res, err := dispute.Deliver(f.ctx(f.benef, f.now), f.db, &weavetest.Tx{Msg: &DisputeMsg{TrustID: id}})
	assert.Nil(t, err)
	assert.Equal(t, EventTrustDisputed, res.Events[0].Kind)
	initiator, _ := res.Events[0].Attr("initiator")
	assert.Equal(t, f.benef.Address().String(), initiator)

	// disputed twice is not allowed
	_, err = dispute.Deliver(f.ctx(f.trustor, f.now), f.db, &weavetest.Tx{Msg: &DisputeMsg{TrustID: id}})
	assert.IsErr(t, errors.ErrInvalidState, err)

	refund := &weavetest.Tx{Msg: &ResolveMsg{TrustID: id, RefundToTrustor: true}}
	_, err = resolve.Deliver(f.ctx(f.trustee, f.now), f.db, refund)
	assert.IsErr(t, errors.ErrUnauthorized, err)

	res, err = resolve.Deliver(f.ctx(f.arbitr, f.now), f.db, refund)
	assert.Nil(t, err)
	assert.Equal(t, EventTrustCancelled, res.Events[0].Kind)

	assert.Equal(t, int64(1000), f.balance(t, f.trustor))
	assert.Equal(t, int64(0), f.balance(t, f.collector))
	assert.Equal(t, int64(0), f.balance(t, f.benef))

	tr, err := f.reg.Trust(f.db, id)
	assert.Nil(t, err)
	assert.Equal(t, StatusCancelled, tr.Status)

	later := f.now.Add(time.Hour)
	_, err = ReleaseHandler{f.auth, f.reg}.Deliver(f.ctx(f.trustee, later), f.db,
		&weavetest.Tx{Msg: &ReleaseMsg{TrustID: id}})
	assert.IsErr(t, errors.ErrInvalidState, err)

	_, err = resolve.Deliver(f.ctx(f.arbitr, f.now), f.db, refund)
	assert.IsErr(t, errors.ErrInvalidState, err)
}

func TestResolveToBeneficiary(t *testing.T) {
	f := newFixture(t)
	id, _ := f.create(t, 250, f.now.Add(time.Hour))
	resolve := ResolveHandler{f.auth, f.reg}
	tx := &weavetest.Tx{Msg: &ResolveMsg{TrustID: id}}

	// only disputed trusts can be resolved
	_, err := resolve.Deliver(f.ctx(f.arbitr, f.now), f.db, tx)
	assert.IsErr(t, errors.ErrInvalidState, err)

	_, err = DisputeHandler{f.auth, f.reg}.Deliver(f.ctx(f.trustee, f.now), f.db,
		&weavetest.Tx{Msg: &DisputeMsg{TrustID: id}})
	assert.Nil(t, err)

	// arbitrator is not bound by the release time
	_, err = resolve.Check(f.ctx(f.arbitr, f.now), f.db, tx)
	assert.Nil(t, err)
	res, err := resolve.Deliver(f.ctx(f.arbitr, f.now), f.db, tx)
	assert.Nil(t, err)
	assert.Equal(t, EventTrustCompleted, res.Events[0].Kind)

	assert.Equal(t, int64(248), f.balance(t, f.benef))
	assert.Equal(t, int64(2), f.balance(t, f.collector))

	tr, err := f.reg.Trust(f.db, id)
	assert.Nil(t, err)
	assert.Equal(t, StatusCompleted, tr.Status)
	assert.Equal(t, true, tr.FundsReleased)
}

func TestStatsAndWithdraw(t *testing.T) {
	f := newFixture(t)
	id, _ := f.create(t, 1000, f.now.Add(time.Second))
	f.create(t, 300, f.now.Add(time.Hour))

	stats, err := f.reg.Stats(f.db)
	assert.Nil(t, err)
	assert.Equal(t, &Stats{TotalTrusts: 2, TotalValueHeld: 1300, Arbitrator: f.arbitr.Address()}, stats)

	later := f.now.Add(time.Minute)
	_, err = ReleaseHandler{f.auth, f.reg}.Deliver(f.ctx(f.trustee, later), f.db,
		&weavetest.Tx{Msg: &ReleaseMsg{TrustID: id}})
	assert.Nil(t, err)

	// settlement keeps the value in the system
	stats, err = f.reg.Stats(f.db)
	assert.Nil(t, err)
	assert.Equal(t, int64(1300), stats.TotalValueHeld)

	withdraw := ledger.NewWithdrawHandler(f.auth, f.ledger, ledger.NewOutbox(0))
	_, err = withdraw.Deliver(f.ctx(f.benef, later), f.db, &weavetest.Tx{Msg: &ledger.WithdrawMsg{}})
	assert.Nil(t, err)
	_, err = withdraw.Deliver(f.ctx(f.benef, later), f.db, &weavetest.Tx{Msg: &ledger.WithdrawMsg{}})
	assert.IsErr(t, errors.ErrInsufficientFunds, err)

	stats, err = f.reg.Stats(f.db)
	assert.Nil(t, err)
	assert.Equal(t, int64(310), stats.TotalValueHeld)
	assert.Equal(t, int64(2), stats.TotalTrusts)
}

func TestGetTrustUnknown(t *testing.T) {
	f := newFixture(t)
	_, err := f.reg.Trust(f.db, 1)
	assert.IsErr(t, errors.ErrNotFound, err)
	_, err = f.reg.Trust(f.db, 0)
	assert.IsErr(t, errors.ErrNotFound, err)
}
