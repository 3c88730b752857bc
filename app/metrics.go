package app

import (
	"strconv"
	"time"

	weave "github.com/iov-one/trustd"
	"github.com/iov-one/trustd/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics of the engine.
type Metrics struct {
	Operations        *prometheus.CounterVec
	OperationDuration *prometheus.HistogramVec
	Events            *prometheus.CounterVec
	Commits           prometheus.Counter
	SinkFailures      prometheus.Counter
}

// NewMetrics creates and registers all metrics with given registerer.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		Operations: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "trustd_operations_total",
			Help: "Total operations by message path, phase and result code.",
		}, []string{"path", "phase", "code"}),
		OperationDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "trustd_operation_duration_seconds",
			Help:    "Operation processing duration in seconds.",
			Buckets: prometheus.DefBuckets,
		}, []string{"path", "phase"}),
		Events: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "trustd_events_total",
			Help: "Total notifications published by kind.",
		}, []string{"kind"}),
		Commits: factory.NewCounter(prometheus.CounterOpts{
			Name: "trustd_commits_total",
			Help: "Total state commits.",
		}),
		SinkFailures: factory.NewCounter(prometheus.CounterOpts{
			Name: "trustd_sink_failures_total",
			Help: "Total notifications that could not be published.",
		}),
	}
}

// Instrumentation is a decorator recording operation metrics.
type Instrumentation struct {
	m *Metrics
}

var _ weave.Decorator = Instrumentation{}

// NewInstrumentation returns a decorator that records every operation in
// given metrics.
func NewInstrumentation(m *Metrics) Instrumentation {
	return Instrumentation{m: m}
}

// Check records the check phase.
func (i Instrumentation) Check(ctx weave.Context, store weave.KVStore, tx weave.Tx, next weave.Checker) (*weave.CheckResult, error) {
	start := time.Now()
	res, err := next.Check(ctx, store, tx)
	i.observe(weave.GetPath(tx), "check", start, err)
	return res, err
}

// Deliver records the deliver phase.
func (i Instrumentation) Deliver(ctx weave.Context, store weave.KVStore, tx weave.Tx, next weave.Deliverer) (*weave.DeliverResult, error) {
	start := time.Now()
	res, err := next.Deliver(ctx, store, tx)
	i.observe(weave.GetPath(tx), "deliver", start, err)
	return res, err
}

func (i Instrumentation) observe(path, phase string, start time.Time, err error) {
	code, _ := errors.ABCIInfo(err, false)
	i.m.Operations.WithLabelValues(path, phase, strconv.FormatUint(uint64(code), 10)).Inc()
	i.m.OperationDuration.WithLabelValues(path, phase).Observe(time.Since(start).Seconds())
}
