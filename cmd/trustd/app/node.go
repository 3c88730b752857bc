package app

import (
	"context"
	"strconv"
	"time"

	weave "github.com/iov-one/trustd"
	"github.com/iov-one/trustd/app"
	"github.com/iov-one/trustd/errors"
	"github.com/iov-one/trustd/orm"
	"github.com/iov-one/trustd/x/ledger"
	"github.com/iov-one/trustd/x/trust"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/tendermint/tendermint/libs/log"
)

// Config holds everything needed to build a node.
type Config struct {
	// DBPath is where the state is persisted. Empty keeps it in memory.
	DBPath string
	// PayoutLimit if positive caps a single withdrawal.
	PayoutLimit int64
	// Sink receives committed notifications. Optional.
	Sink app.EventSink
	// Registerer collects the metrics. Optional.
	Registerer prometheus.Registerer
	// Clock overrides the current time. Optional.
	Clock  func() time.Time
	Logger log.Logger
}

// Node exposes every registry and ledger operation on top of an engine.
type Node struct {
	engine   *app.Engine
	store    weave.CommitKVStore
	registry *trust.Registry
	ledger   ledger.BaseController
	outbox   *ledger.Outbox
}

// NewNode opens the store and builds the engine.
func NewNode(conf Config) (*Node, error) {
	kv, err := CommitKVStore(conf.DBPath)
	if err != nil {
		return nil, err
	}
	logger := conf.Logger
	if logger == nil {
		logger = log.NewNopLogger()
	}

	var metrics *app.Metrics
	if conf.Registerer != nil {
		metrics = app.NewMetrics(conf.Registerer)
	}
	ctrl := ledger.NewController()
	outbox := ledger.NewOutbox(conf.PayoutLimit)

	opts := []app.Option{app.WithLogger(logger)}
	if conf.Sink != nil {
		opts = append(opts, app.WithSink(conf.Sink))
	}
	if metrics != nil {
		opts = append(opts, app.WithMetrics(metrics))
	}
	if conf.Clock != nil {
		opts = append(opts, app.WithClock(conf.Clock))
	}

	n := &Node{
		store:    kv,
		registry: trust.NewRegistry(ctrl),
		ledger:   ctrl,
		outbox:   outbox,
	}
	n.engine, err = app.NewEngine(kv, Stack(metrics, ctrl, outbox), QueryRouter(), Initializers(), opts...)
	if err != nil {
		n.Close()
		return nil, err
	}
	return n, nil
}

// Engine returns the underlying engine.
func (n *Node) Engine() *app.Engine {
	return n.engine
}

// Close releases the store.
func (n *Node) Close() {
	if c, ok := n.store.(interface{ Close() }); ok {
		c.Close()
	}
}

// Create deposits a new trust on behalf of caller and returns its id.
func (n *Node) Create(ctx context.Context, caller weave.Condition, msg *trust.CreateMsg) (int64, error) {
	res, err := n.engine.Deliver(ctx, caller, &Tx{Msg: msg})
	if err != nil {
		return 0, err
	}
	return orm.DecodeSequence(res.Data), nil
}

// Release pays an active trust to its beneficiary.
func (n *Node) Release(ctx context.Context, caller weave.Condition, id int64) error {
	_, err := n.engine.Deliver(ctx, caller, &Tx{Msg: &trust.ReleaseMsg{TrustID: id}})
	return err
}

// Dispute freezes an active trust.
func (n *Node) Dispute(ctx context.Context, caller weave.Condition, id int64) error {
	_, err := n.engine.Deliver(ctx, caller, &Tx{Msg: &trust.DisputeMsg{TrustID: id}})
	return err
}

// Resolve settles a disputed trust.
func (n *Node) Resolve(ctx context.Context, caller weave.Condition, id int64, refund bool) error {
	msg := &trust.ResolveMsg{TrustID: id, RefundToTrustor: refund}
	_, err := n.engine.Deliver(ctx, caller, &Tx{Msg: msg})
	return err
}

// Withdraw transfers the whole balance of the caller out and returns the
// transferred amount.
func (n *Node) Withdraw(ctx context.Context, caller weave.Condition) (int64, error) {
	res, err := n.engine.Deliver(ctx, caller, &Tx{Msg: &ledger.WithdrawMsg{}})
	if err != nil {
		return 0, err
	}
	amount, err := strconv.ParseInt(string(res.Data), 10, 64)
	if err != nil {
		return 0, errors.Wrap(errors.ErrInvalidState, "withdraw result")
	}
	return amount, nil
}

// Trust returns a single trust.
func (n *Node) Trust(id int64) (*trust.Trust, error) {
	var t *trust.Trust
	err := n.engine.View(func(db weave.ReadOnlyKVStore) error {
		var err error
		t, err = n.registry.Trust(db, id)
		return err
	})
	return t, err
}

// UserTrusts returns the ids of all trusts of given party, oldest first.
func (n *Node) UserTrusts(addr weave.Address) ([]int64, error) {
	var ids []int64
	err := n.engine.View(func(db weave.ReadOnlyKVStore) error {
		var err error
		ids, err = n.registry.UserTrusts(db, addr)
		return err
	})
	return ids, err
}

// Stats returns the registry summary.
func (n *Node) Stats() (*trust.Stats, error) {
	var s *trust.Stats
	err := n.engine.View(func(db weave.ReadOnlyKVStore) error {
		var err error
		s, err = n.registry.Stats(db)
		return err
	})
	return s, err
}

// Balance returns the withdrawable balance of given account.
func (n *Node) Balance(addr weave.Address) (int64, error) {
	var amount int64
	err := n.engine.View(func(db weave.ReadOnlyKVStore) error {
		var err error
		amount, err = n.ledger.Balance(db, addr)
		return err
	})
	return amount, err
}

// Payouts returns all transfers made to given account, oldest first.
func (n *Node) Payouts(addr weave.Address) ([]*ledger.Payout, error) {
	var res []*ledger.Payout
	err := n.engine.View(func(db weave.ReadOnlyKVStore) error {
		var err error
		res, err = n.outbox.Payouts(db, addr)
		return err
	})
	return res, err
}
