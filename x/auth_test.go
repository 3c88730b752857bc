package x_test

import (
	"context"
	"testing"

	weave "github.com/iov-one/trustd"
	"github.com/iov-one/trustd/weavetest"
	"github.com/iov-one/trustd/x"
	"github.com/stretchr/testify/assert"
)

func TestAuth(t *testing.T) {
	a := weavetest.NewCondition()
	b := weavetest.NewCondition()
	c := weavetest.NewCondition()

	ctx1 := &weavetest.CtxAuth{Key: "foo"}
	ctx2 := &weavetest.CtxAuth{Key: "bar"}

	cases := map[string]struct {
		ctx          weave.Context
		auth         x.Authenticator
		mainSigner   weave.Condition
		wantInCtx    weave.Condition
		wantNotInCtx weave.Condition
		wantAll      []weave.Condition
	}{
		"empty context": {
			ctx:          context.Background(),
			auth:         &weavetest.Auth{},
			wantNotInCtx: b,
		},
		"signer a": {
			ctx:          context.Background(),
			auth:         &weavetest.Auth{Signer: a},
			mainSigner:   a,
			wantInCtx:    a,
			wantNotInCtx: b,
			wantAll:      []weave.Condition{a},
		},
		"chained signers": {
			ctx: context.Background(),
			auth: x.ChainAuth(
				&weavetest.Auth{Signer: b},
				&weavetest.Auth{Signer: a}),
			mainSigner:   b,
			wantInCtx:    b,
			wantNotInCtx: c,
			wantAll:      []weave.Condition{b, a},
		},
		"ctxAuth checks what is set by same key": {
			ctx:          ctx1.SetConditions(context.Background(), a, b),
			auth:         ctx1,
			mainSigner:   a,
			wantInCtx:    b,
			wantNotInCtx: c,
			wantAll:      []weave.Condition{a, b},
		},
		"ctxAuth with different key sees nothing": {
			ctx:          ctx1.SetConditions(context.Background(), a, b),
			auth:         ctx2,
			wantNotInCtx: a,
		},
		"caller bound by the host": {
			ctx:          x.WithCaller(context.Background(), c),
			auth:         x.CallerAuth{},
			mainSigner:   c,
			wantInCtx:    c,
			wantNotInCtx: a,
			wantAll:      []weave.Condition{c},
		},
		"no caller bound": {
			ctx:          context.Background(),
			auth:         x.CallerAuth{},
			wantNotInCtx: a,
		},
	}

	for testName, tc := range cases {
		t.Run(testName, func(t *testing.T) {
			assert.Equal(t, tc.mainSigner, x.MainSigner(tc.ctx, tc.auth))
			if tc.wantInCtx != nil {
				assert.True(t, tc.auth.HasAddress(tc.ctx, tc.wantInCtx.Address()))
				assert.True(t, x.HasAnyAddress(tc.ctx, tc.auth, tc.wantNotInCtx.Address(), tc.wantInCtx.Address()))
			}
			assert.False(t, tc.auth.HasAddress(tc.ctx, tc.wantNotInCtx.Address()))
			assert.False(t, x.HasAnyAddress(tc.ctx, tc.auth, tc.wantNotInCtx.Address()))
			assert.Equal(t, tc.wantAll, tc.auth.GetConditions(tc.ctx))

			addrs := x.GetAddresses(tc.ctx, tc.auth)
			assert.Len(t, addrs, len(tc.wantAll))
		})
	}
}

type sample struct {
	Name   string
	Amount int64
	Owner  weave.Address
}

func TestBinaryCodec(t *testing.T) {
	in := sample{Name: "trust", Amount: 1000, Owner: weavetest.NewCondition().Address()}
	bz, err := x.MarshalBinary(&in)
	assert.NoError(t, err)

	var out sample
	assert.NoError(t, x.UnmarshalBinary(bz, &out))
	assert.Equal(t, in, out)

	assert.Error(t, x.UnmarshalBinary([]byte{0xff, 0xff}, &out))
}
