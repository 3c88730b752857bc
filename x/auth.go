package x

import (
	"context"

	weave "github.com/iov-one/trustd"
)

// Authenticator is an interface we can use to extract authentication info
// from the context. This should be passed into the constructor of
// handlers, so we can plug in another authentication system.
type Authenticator interface {
	// GetConditions reveals all Conditions fulfilled,
	// you may want GetAddresses helper
	GetConditions(weave.Context) []weave.Condition
	// HasAddress checks if any condition matches this address
	HasAddress(weave.Context, weave.Address) bool
}

// MultiAuth chains together many Authenticators into one
type MultiAuth struct {
	impls []Authenticator
}

var _ Authenticator = MultiAuth{}

// ChainAuth groups together a series of Authenticator
func ChainAuth(impls ...Authenticator) MultiAuth {
	return MultiAuth{impls}
}

// GetConditions combines all Conditions from all Authenticators
func (m MultiAuth) GetConditions(ctx weave.Context) []weave.Condition {
	var res []weave.Condition
	for _, impl := range m.impls {
		add := impl.GetConditions(ctx)
		if len(add) > 0 {
			res = append(res, add...)
		}
	}
	return res
}

// HasAddress returns true iff any Authenticator support this
func (m MultiAuth) HasAddress(ctx weave.Context, addr weave.Address) bool {
	for _, impl := range m.impls {
		if impl.HasAddress(ctx, addr) {
			return true
		}
	}
	return false
}

// GetAddresses wraps the GetConditions method of any Authenticator
func GetAddresses(ctx weave.Context, auth Authenticator) []weave.Address {
	perms := auth.GetConditions(ctx)
	addrs := make([]weave.Address, len(perms))
	for i, p := range perms {
		addrs[i] = p.Address()
	}
	return addrs
}

// MainSigner returns the first permission if any, otherwise nil
func MainSigner(ctx weave.Context, auth Authenticator) weave.Condition {
	signers := auth.GetConditions(ctx)
	if len(signers) == 0 {
		return nil
	}
	return signers[0]
}

// HasAnyAddress returns true if at least one of the given addresses is
// authorized in the context.
func HasAnyAddress(ctx weave.Context, auth Authenticator, allowed ...weave.Address) bool {
	for _, a := range allowed {
		if auth.HasAddress(ctx, a) {
			return true
		}
	}
	return false
}

type callerKey int

// WithCaller binds the identity of the party invoking an operation to the
// context. The host that executes operations is responsible for
// authenticating the caller before binding it.
func WithCaller(ctx weave.Context, caller weave.Condition) weave.Context {
	return context.WithValue(ctx, callerKey(0), caller)
}

// CallerAuth authenticates the caller bound to the context with WithCaller.
type CallerAuth struct{}

var _ Authenticator = CallerAuth{}

// GetConditions returns the caller condition, if any was bound.
func (CallerAuth) GetConditions(ctx weave.Context) []weave.Condition {
	c, ok := ctx.Value(callerKey(0)).(weave.Condition)
	if !ok || c == nil {
		return nil
	}
	return []weave.Condition{c}
}

// HasAddress returns true if the bound caller owns given address.
func (a CallerAuth) HasAddress(ctx weave.Context, addr weave.Address) bool {
	for _, c := range a.GetConditions(ctx) {
		if c.Address().Equals(addr) {
			return true
		}
	}
	return false
}
