package ledger

import (
	weave "github.com/iov-one/trustd"
	"github.com/iov-one/trustd/x"
)

const pathWithdrawMsg = "ledger/withdraw"

var _ weave.Msg = (*WithdrawMsg)(nil)

// WithdrawMsg requests the whole balance of the caller to be transferred out.
type WithdrawMsg struct{}

// Path fulfills weave.Msg interface to allow routing
func (WithdrawMsg) Path() string {
	return pathWithdrawMsg
}

// Validate has nothing to check, the caller is taken from the context.
func (WithdrawMsg) Validate() error {
	return nil
}

// Marshal implements weave.Persistent.
func (m *WithdrawMsg) Marshal() ([]byte, error) { return x.MarshalBinary(m) }

// Unmarshal implements weave.Persistent.
func (m *WithdrawMsg) Unmarshal(raw []byte) error { return x.UnmarshalBinary(raw, m) }
