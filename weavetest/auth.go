package weavetest

import (
	"context"
	"encoding/binary"
	"fmt"
	"sync/atomic"

	weave "github.com/iov-one/trustd"
)

// NewCondition returns a new and unique condition. Each call returns a
// condition that was never returned before.
func NewCondition() weave.Condition {
	n := atomic.AddUint64(&sequence, 1)
	data := make([]byte, 8)
	binary.BigEndian.PutUint64(data, n)
	return weave.NewCondition("test", "sequence", data)
}

var sequence uint64

// Auth is a mock implementing x.Authenticator interface.
//
// This structure authenticates any of referenced conditions.
// You can use either Signer or Signers (or both) attributes to reference
// conditions. Each time all signers (regardless which attribute) are
// considered.
type Auth struct {
	// Signer represents an authentication of a single signer.
	Signer weave.Condition
	// Signers represents an authentication of multiple signers.
	Signers []weave.Condition
}

// GetConditions returns all declared signers.
func (a *Auth) GetConditions(weave.Context) []weave.Condition {
	if a.Signer != nil {
		return append([]weave.Condition{a.Signer}, a.Signers...)
	}
	return a.Signers
}

// HasAddress returns true if any of the declared signers owns addr.
func (a *Auth) HasAddress(ctx weave.Context, addr weave.Address) bool {
	for _, s := range a.GetConditions(ctx) {
		if addr.Equals(s.Address()) {
			return true
		}
	}
	return false
}

// CtxAuth is a mock implementing x.Authenticator interface.
//
// This implementation is using context to store and retrieve permissions.
type CtxAuth struct {
	// Key used to set and retrieve conditions from the context. For
	// convinience only string type keys are allowed.
	Key string
}

// SetConditions returns a context that authenticates given conditions.
func (a *CtxAuth) SetConditions(ctx weave.Context, permissions ...weave.Condition) weave.Context {
	return context.WithValue(ctx, a.Key, permissions)
}

// GetConditions returns conditions stored in the context.
func (a *CtxAuth) GetConditions(ctx weave.Context) []weave.Condition {
	val := ctx.Value(a.Key)
	if val == nil {
		return nil
	}
	conds, ok := val.([]weave.Condition)
	if !ok {
		panic(fmt.Sprintf("instead of []weave.Condition got %T", val))
	}
	return conds
}

// HasAddress returns true if any condition stored in the context owns addr.
func (a *CtxAuth) HasAddress(ctx weave.Context, addr weave.Address) bool {
	for _, s := range a.GetConditions(ctx) {
		if addr.Equals(s.Address()) {
			return true
		}
	}
	return false
}
