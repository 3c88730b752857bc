/*
Package app links together all the various components
to construct the trustd engine.
*/
package app

import (
	"path/filepath"
	"strings"

	weave "github.com/iov-one/trustd"
	"github.com/iov-one/trustd/app"
	"github.com/iov-one/trustd/errors"
	"github.com/iov-one/trustd/store/iavl"
	"github.com/iov-one/trustd/x"
	"github.com/iov-one/trustd/x/ledger"
	"github.com/iov-one/trustd/x/trust"
)

// Authenticator returns the caller authentication. The caller is bound to
// the context by the engine.
func Authenticator() x.Authenticator {
	return x.CallerAuth{}
}

// Chain returns a chain of decorators, to handle logging, recovery and
// metrics. Metrics are optional.
func Chain(metrics *app.Metrics) app.Decorators {
	var instr weave.Decorator
	if metrics != nil {
		instr = app.NewInstrumentation(metrics)
	}
	return app.ChainDecorators(
		app.NewLogging(),
		app.NewRecovery(),
		instr,
		app.NewActionTagger(),
		// failed operations leave no writes behind
		app.NewSavepoint().OnDeliver(),
	)
}

// Router returns a router dispatching all trust and ledger messages.
func Router(authFn x.Authenticator, ctrl ledger.Controller, transfer ledger.Transferer) *app.Router {
	r := app.NewRouter()
	trust.RegisterRoutes(r, authFn, ctrl)
	ledger.RegisterRoutes(r, authFn, ctrl, transfer)
	return r
}

// QueryRouter returns a query router, allowing access to "/trusts",
// "/trusts/user", "/balances", "/payouts" and "/payouts/recipient".
func QueryRouter() weave.QueryRouter {
	r := weave.NewQueryRouter()
	r.RegisterAll(
		trust.RegisterQuery,
		ledger.RegisterQuery,
	)
	return r
}

// Initializers returns everything that loads state from the genesis.
func Initializers() weave.ChainInitializers {
	return weave.ChainInitializers{
		trust.Initializer{},
	}
}

// Stack wires up a standard router with a standard decorator chain.
func Stack(metrics *app.Metrics, ctrl ledger.Controller, transfer ledger.Transferer) weave.Handler {
	authFn := Authenticator()
	return Chain(metrics).WithHandler(Router(authFn, ctrl, transfer))
}

// CommitKVStore returns an initialized KVStore that persists
// the data to the named path.
// A database that cannot be opened, for example because another process
// holds it, is reported as an error.
func CommitKVStore(dbPath string) (kv weave.CommitKVStore, err error) {
	// memory backed case, just for testing
	if dbPath == "" {
		return iavl.MockCommitStore(), nil
	}

	// Expand the path fully
	path, err := filepath.Abs(dbPath)
	if err != nil {
		return nil, errors.Wrapf(errors.ErrInvalidInput, "invalid database name: %s", dbPath)
	}

	// Some external calls accidently add a ".db", which is now removed
	path = strings.TrimSuffix(path, filepath.Ext(path))

	// Split the database name into it's components (dir, name)
	dir := filepath.Dir(path)
	name := filepath.Base(path)

	defer errors.Recover(&err)
	return iavl.NewCommitStore(dir, name), nil
}
