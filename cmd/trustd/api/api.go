/*
Package api exposes the trust registry and the balance ledger over HTTP.

The caller of every mutating request is read from the X-Trust-Caller
header, holding a condition in its human readable form. Authenticating that
header is the job of whatever gateway fronts this server.
*/
package api

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	weave "github.com/iov-one/trustd"
	"github.com/iov-one/trustd/x/ledger"
	"github.com/iov-one/trustd/x/trust"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/tendermint/tendermint/libs/log"
)

// CallerHeader carries the condition of the caller.
const CallerHeader = "X-Trust-Caller"

// Service is the set of operations served over HTTP.
type Service interface {
	Create(ctx context.Context, caller weave.Condition, msg *trust.CreateMsg) (int64, error)
	Release(ctx context.Context, caller weave.Condition, id int64) error
	Dispute(ctx context.Context, caller weave.Condition, id int64) error
	Resolve(ctx context.Context, caller weave.Condition, id int64, refund bool) error
	Withdraw(ctx context.Context, caller weave.Condition) (int64, error)

	Trust(id int64) (*trust.Trust, error)
	UserTrusts(addr weave.Address) ([]int64, error)
	Stats() (*trust.Stats, error)
	Balance(addr weave.Address) (int64, error)
	Payouts(addr weave.Address) ([]*ledger.Payout, error)
}

// NewHandler returns the HTTP handler serving all routes. Metrics are served
// under /metrics when a gatherer is given.
func NewHandler(svc Service, logger log.Logger, gatherer prometheus.Gatherer) http.Handler {
	s := &server{svc: svc, logger: logger.With("module", "api")}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))

	r.Get("/info", s.info)
	r.Get("/stats", s.stats)

	r.Route("/trusts", func(r chi.Router) {
		r.Post("/", s.create)
		r.Get("/{id}", s.trust)
		r.Post("/{id}/release", s.release)
		r.Post("/{id}/dispute", s.dispute)
		r.Post("/{id}/resolve", s.resolve)
	})
	r.Get("/users/{address}/trusts", s.userTrusts)

	r.Get("/balances/{address}", s.balance)
	r.Get("/balances/{address}/payouts", s.payouts)
	r.Post("/withdraw", s.withdraw)

	if gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	}

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		JSONErr(w, http.StatusNotFound, http.StatusText(http.StatusNotFound))
	})
	return r
}
