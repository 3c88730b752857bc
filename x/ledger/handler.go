package ledger

import (
	"strconv"

	weave "github.com/iov-one/trustd"
	"github.com/iov-one/trustd/errors"
	"github.com/iov-one/trustd/x"
	"github.com/tendermint/tendermint/libs/common"
)

// EventFundsWithdrawn is emitted for every successful withdrawal.
const EventFundsWithdrawn = "funds_withdrawn"

// RegisterRoutes will instantiate and register
// all handlers in this package
func RegisterRoutes(r weave.Registry, auth x.Authenticator, ctrl Controller, transfer Transferer) {
	r.Handle(pathWithdrawMsg, NewWithdrawHandler(auth, ctrl, transfer))
}

// RegisterQuery will register the balances bucket as "/balances" and the
// payouts bucket as "/payouts".
func RegisterQuery(qr weave.QueryRouter) {
	NewBalanceBucket().Register("balances", qr)
	NewPayoutBucket().Register("payouts", qr)
}

// WithdrawHandler transfers the whole balance of the caller out of the
// system.
type WithdrawHandler struct {
	auth     x.Authenticator
	ctrl     Controller
	transfer Transferer
}

var _ weave.Handler = WithdrawHandler{}

// NewWithdrawHandler creates a handler for WithdrawMsg.
func NewWithdrawHandler(auth x.Authenticator, ctrl Controller, transfer Transferer) WithdrawHandler {
	return WithdrawHandler{
		auth:     auth,
		ctrl:     ctrl,
		transfer: transfer,
	}
}

// Check verifies the caller has anything to withdraw.
func (h WithdrawHandler) Check(ctx weave.Context, db weave.KVStore, tx weave.Tx) (*weave.CheckResult, error) {
	caller, err := h.validate(ctx, db, tx)
	if err != nil {
		return nil, err
	}
	amount, err := h.ctrl.Balance(db, caller)
	if err != nil {
		return nil, err
	}
	if amount == 0 {
		return nil, errors.Wrapf(errors.ErrInsufficientFunds, "no balance for %s", caller)
	}
	return &weave.CheckResult{}, nil
}

// Deliver zeroes the caller balance and only then transfers the drained
// amount. A failed transfer fails the whole operation.
func (h WithdrawHandler) Deliver(ctx weave.Context, db weave.KVStore, tx weave.Tx) (*weave.DeliverResult, error) {
	caller, err := h.validate(ctx, db, tx)
	if err != nil {
		return nil, err
	}

	amount, err := h.ctrl.Drain(db, caller)
	if err != nil {
		return nil, err
	}
	if err := h.transfer.Transfer(ctx, db, caller, amount); err != nil {
		if !errors.ErrTransferFailed.Is(err) {
			err = errors.Wrap(errors.ErrTransferFailed, err.Error())
		}
		return nil, errors.Wrapf(err, "withdraw %d to %s", amount, caller)
	}

	weave.GetLogger(ctx).Info("funds withdrawn", "account", caller.String(), "amount", amount)

	amountStr := strconv.FormatInt(amount, 10)
	return &weave.DeliverResult{
		Data: []byte(amountStr),
		Tags: []common.KVPair{
			{Key: []byte("ledger.account"), Value: []byte(caller.String())},
		},
		Events: []weave.Event{
			weave.NewEvent(EventFundsWithdrawn,
				"account", caller.String(),
				"amount", amountStr,
			),
		},
	}, nil
}

// validate does all common pre-processing between Check and Deliver.
func (h WithdrawHandler) validate(ctx weave.Context, db weave.KVStore, tx weave.Tx) (weave.Address, error) {
	var msg WithdrawMsg
	if err := weave.LoadMsg(tx, &msg); err != nil {
		return nil, errors.Wrap(err, "load msg")
	}
	signer := x.MainSigner(ctx, h.auth)
	if signer == nil {
		return nil, errors.Wrap(errors.ErrUnauthorized, "caller unknown")
	}
	return signer.Address(), nil
}
