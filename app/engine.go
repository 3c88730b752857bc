package app

import (
	"context"
	"sync"
	"time"

	weave "github.com/iov-one/trustd"
	"github.com/iov-one/trustd/errors"
	"github.com/iov-one/trustd/x"
	"github.com/tendermint/tendermint/libs/log"
)

// Engine is the single authoritative execution context. Operations are
// fully serialized: each one runs on its own cache wrap of the committed
// state and is committed before the next one starts. A failed operation
// leaves the committed state untouched.
//
// Notifications of an operation are published only after it committed,
// outside of the state lock and in commit order.
type Engine struct {
	mu sync.Mutex
	// pub is taken before mu is released so that notifications keep the
	// commit order.
	pub sync.Mutex

	store   weave.CommitKVStore
	handler weave.Handler
	queries weave.QueryRouter
	init    weave.Initializer

	sink           EventSink
	publishTimeout time.Duration
	metrics        *Metrics
	logger         log.Logger
	now            func() time.Time

	chainID string
	height  int64
}

// DefaultPublishTimeout is how long the sink may take to accept the
// notifications of one operation.
const DefaultPublishTimeout = 10 * time.Second

// Option configures an Engine.
type Option func(*Engine)

// WithSink sets the destination of committed notifications.
func WithSink(s EventSink) Option {
	return func(e *Engine) { e.sink = s }
}

// WithPublishTimeout bounds a single call to the sink. The default is
// DefaultPublishTimeout.
func WithPublishTimeout(d time.Duration) Option {
	return func(e *Engine) { e.publishTimeout = d }
}

// WithMetrics sets the metrics updated by the engine.
func WithMetrics(m *Metrics) Option {
	return func(e *Engine) { e.metrics = m }
}

// WithLogger sets the engine logger. It is also passed to every handler
// through the context.
func WithLogger(l log.Logger) Option {
	return func(e *Engine) { e.logger = l }
}

// WithClock sets the source of the current time used for all time guards.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// NewEngine loads the latest committed state and returns an engine ready to
// process operations.
func NewEngine(
	store weave.CommitKVStore,
	handler weave.Handler,
	queries weave.QueryRouter,
	init weave.Initializer,
	opts ...Option,
) (*Engine, error) {
	e := &Engine{
		store:   store,
		handler: handler,
		queries: queries,
		init:    init,
		logger:  log.NewNopLogger(),
		now:     time.Now,

		publishTimeout: DefaultPublishTimeout,
	}
	for _, o := range opts {
		o(e)
	}

	if err := store.LoadLatestVersion(); err != nil {
		return nil, errors.Wrap(err, "load latest version")
	}
	info, err := store.LatestVersion()
	if err != nil {
		return nil, errors.Wrap(err, "latest version")
	}
	e.height = info.Version

	cache := store.CacheWrap()
	chainID, err := loadChainID(cache)
	cache.Discard()
	if err != nil {
		return nil, err
	}
	e.chainID = chainID
	return e, nil
}

// ChainID returns the chain id set by the genesis, or an empty string if
// the chain was not initialized yet.
func (e *Engine) ChainID() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.chainID
}

// Height returns the number of committed operations.
func (e *Engine) Height() int64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.height
}

// InitChain loads the genesis into an empty state.
func (e *Engine) InitChain(gen *Genesis) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.chainID != "" {
		return errors.Wrapf(errors.ErrInvalidState, "state previously loaded for chain %s", e.chainID)
	}

	cache := e.store.CacheWrap()
	if err := saveChainID(cache, gen.ChainID); err != nil {
		cache.Discard()
		return err
	}
	if e.init != nil {
		if err := e.init.FromGenesis(gen.AppOptions, cache); err != nil {
			cache.Discard()
			return errors.Wrap(err, "initialize from genesis")
		}
	}
	if err := e.commit(cache); err != nil {
		return err
	}
	e.chainID = gen.ChainID
	e.logger.Info("chain initialized", "chain_id", gen.ChainID, "height", e.height)
	return nil
}

// Check runs the checks of an operation without persisting anything.
func (e *Engine) Check(ctx weave.Context, caller weave.Condition, tx weave.Tx) (*weave.CheckResult, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.chainID == "" {
		return nil, errors.Wrap(errors.ErrInvalidState, "chain not initialized")
	}
	cache := e.store.CacheWrap()
	defer cache.Discard()

	ctx = e.context(ctx, caller, e.height+1, "check", tx)
	return e.handler.Check(ctx, cache, tx)
}

// Deliver executes an operation. On success its writes are committed and its
// notifications published. On failure nothing is persisted.
//
// Publishing happens after the state lock is released and is not bound to
// ctx cancellation, so a slow sink or a gone caller cannot block other
// operations or drop the notifications of a committed operation.
func (e *Engine) Deliver(ctx weave.Context, caller weave.Condition, tx weave.Tx) (*weave.DeliverResult, error) {
	e.mu.Lock()
	if e.chainID == "" {
		e.mu.Unlock()
		return nil, errors.Wrap(errors.ErrInvalidState, "chain not initialized")
	}
	cache := e.store.CacheWrap()
	ctx = e.context(ctx, caller, e.height+1, "deliver", tx)

	res, err := e.handler.Deliver(ctx, cache, tx)
	if err != nil {
		cache.Discard()
		e.mu.Unlock()
		return nil, err
	}
	if err := e.commit(cache); err != nil {
		e.mu.Unlock()
		return nil, err
	}
	height := e.height

	e.pub.Lock()
	e.mu.Unlock()
	defer e.pub.Unlock()
	e.publish(context.WithoutCancel(ctx), height, res.Events)
	return res, nil
}

// Query runs a registered query against the committed state.
func (e *Engine) Query(path, mod string, data []byte) ([]weave.Model, error) {
	h := e.queries.Handler(path)
	if h == nil {
		return nil, errors.Wrapf(errors.ErrNotFound, "no query handler for %q", path)
	}
	var res []weave.Model
	err := e.View(func(db weave.ReadOnlyKVStore) error {
		var err error
		res, err = h.Query(db, mod, data)
		return err
	})
	return res, err
}

// View calls fn with a read only view of the committed state.
func (e *Engine) View(fn func(db weave.ReadOnlyKVStore) error) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	cache := e.store.CacheWrap()
	defer cache.Discard()
	return fn(cache)
}

func (e *Engine) commit(cache weave.KVCacheWrap) error {
	if err := cache.Write(); err != nil {
		e.rollback()
		return errors.Wrap(err, "write cache")
	}
	info, err := e.store.Commit()
	if err != nil {
		e.rollback()
		return errors.Wrap(err, "commit")
	}
	e.height = info.Version
	if e.metrics != nil {
		e.metrics.Commits.Inc()
	}
	return nil
}

// rollback drops writes that reached the working state of the store without
// being committed.
func (e *Engine) rollback() {
	if r, ok := e.store.(interface{ Rollback() }); ok {
		r.Rollback()
	}
}

// publish hands committed notifications to the sink. A sink failure cannot
// undo the commit, so it is only logged.
func (e *Engine) publish(ctx weave.Context, height int64, events []weave.Event) {
	if len(events) == 0 {
		return
	}
	if e.metrics != nil {
		for _, ev := range events {
			e.metrics.Events.WithLabelValues(ev.Kind).Inc()
		}
	}
	if e.sink == nil {
		return
	}
	ctx, cancel := context.WithTimeout(ctx, e.publishTimeout)
	defer cancel()
	if err := e.sink.Publish(ctx, height, events); err != nil {
		e.logger.Error("cannot publish events", "height", height, "err", err)
		if e.metrics != nil {
			e.metrics.SinkFailures.Inc()
		}
	}
}

func (e *Engine) context(ctx weave.Context, caller weave.Condition, height int64, call string, tx weave.Tx) weave.Context {
	ctx = weave.WithHeight(ctx, height)
	ctx = weave.WithBlockTime(ctx, e.now())
	ctx = weave.WithChainID(ctx, e.chainID)
	ctx = weave.WithLogger(ctx, e.logger)
	ctx = weave.WithLogInfo(ctx, "call", call, "height", height, "path", weave.GetPath(tx))
	if caller != nil {
		ctx = x.WithCaller(ctx, caller)
	}
	return ctx
}
