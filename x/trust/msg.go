package trust

import (
	weave "github.com/iov-one/trustd"
	"github.com/iov-one/trustd/errors"
	"github.com/iov-one/trustd/x"
)

const (
	pathCreateMsg  = "trust/create"
	pathReleaseMsg = "trust/release"
	pathDisputeMsg = "trust/dispute"
	pathResolveMsg = "trust/resolve"
)

var _ weave.Msg = (*CreateMsg)(nil)
var _ weave.Msg = (*ReleaseMsg)(nil)
var _ weave.Msg = (*DisputeMsg)(nil)
var _ weave.Msg = (*ResolveMsg)(nil)

// CreateMsg deposits Amount into a new trust. The caller becomes the
// trustor. The host guarantees the amount was attached to the call.
type CreateMsg struct {
	Trustee     weave.Address  `json:"trustee"`
	Beneficiary weave.Address  `json:"beneficiary"`
	ReleaseTime weave.UnixTime `json:"release_time"`
	Description string         `json:"description"`
	Amount      int64          `json:"amount"`
}

// ReleaseMsg pays an active trust to its beneficiary.
type ReleaseMsg struct {
	TrustID int64 `json:"trust_id"`
}

// DisputeMsg freezes an active trust until the arbitrator resolves it.
type DisputeMsg struct {
	TrustID int64 `json:"trust_id"`
}

// ResolveMsg settles a disputed trust.
type ResolveMsg struct {
	TrustID         int64 `json:"trust_id"`
	RefundToTrustor bool  `json:"refund_to_trustor"`
}

//--------- Path routing --------

// Path fulfills weave.Msg interface to allow routing
func (CreateMsg) Path() string {
	return pathCreateMsg
}

// Path fulfills weave.Msg interface to allow routing
func (ReleaseMsg) Path() string {
	return pathReleaseMsg
}

// Path fulfills weave.Msg interface to allow routing
func (DisputeMsg) Path() string {
	return pathDisputeMsg
}

// Path fulfills weave.Msg interface to allow routing
func (ResolveMsg) Path() string {
	return pathResolveMsg
}

//--------- Serialization --------

// Marshal implements weave.Persistent.
func (m *CreateMsg) Marshal() ([]byte, error) { return x.MarshalBinary(m) }

// Unmarshal implements weave.Persistent.
func (m *CreateMsg) Unmarshal(raw []byte) error { return x.UnmarshalBinary(raw, m) }

// Marshal implements weave.Persistent.
func (m *ReleaseMsg) Marshal() ([]byte, error) { return x.MarshalBinary(m) }

// Unmarshal implements weave.Persistent.
func (m *ReleaseMsg) Unmarshal(raw []byte) error { return x.UnmarshalBinary(raw, m) }

// Marshal implements weave.Persistent.
func (m *DisputeMsg) Marshal() ([]byte, error) { return x.MarshalBinary(m) }

// Unmarshal implements weave.Persistent.
func (m *DisputeMsg) Unmarshal(raw []byte) error { return x.UnmarshalBinary(raw, m) }

// Marshal implements weave.Persistent.
func (m *ResolveMsg) Marshal() ([]byte, error) { return x.MarshalBinary(m) }

// Unmarshal implements weave.Persistent.
func (m *ResolveMsg) Unmarshal(raw []byte) error { return x.UnmarshalBinary(raw, m) }

//--------- Validation --------

// Validate makes sure that this is sensible. Every failure is reported as
// ErrInvalidInput, annotated with the offending field.
func (m *CreateMsg) Validate() error {
	var errs error
	if m.Amount <= 0 {
		errs = errors.AppendField(errs, "Amount",
			errors.Wrapf(errors.ErrInvalidInput, "deposit must be positive, got %d", m.Amount))
	}
	errs = errors.AppendField(errs, "Trustee", validateParty(m.Trustee))
	errs = errors.AppendField(errs, "Beneficiary", validateParty(m.Beneficiary))
	if m.ReleaseTime <= 0 {
		errs = errors.AppendField(errs, "ReleaseTime",
			errors.Wrap(errors.ErrInvalidInput, "release time is required"))
	}
	if err := validateDescription(m.Description); err != nil {
		errs = errors.AppendField(errs, "Description", errors.Wrap(errors.ErrInvalidInput, err.Error()))
	}
	return errs
}

// Validate makes sure the trust id is sensible.
func (m *ReleaseMsg) Validate() error {
	return validateID(m.TrustID)
}

// Validate makes sure the trust id is sensible.
func (m *DisputeMsg) Validate() error {
	return validateID(m.TrustID)
}

// Validate makes sure the trust id is sensible.
func (m *ResolveMsg) Validate() error {
	return validateID(m.TrustID)
}

func validateID(id int64) error {
	if id <= 0 {
		return errors.Field("TrustID", errors.ErrInvalidInput, "must be positive, got %d", id)
	}
	return nil
}

// validateParty rejects malformed and zero addresses.
func validateParty(a weave.Address) error {
	if err := a.Validate(); err != nil {
		return errors.Wrap(errors.ErrInvalidInput, err.Error())
	}
	if a.IsZero() {
		return errors.Wrap(errors.ErrInvalidInput, "zero address")
	}
	return nil
}
