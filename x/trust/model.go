package trust

import (
	"encoding/json"

	weave "github.com/iov-one/trustd"
	"github.com/iov-one/trustd/errors"
	"github.com/iov-one/trustd/orm"
	"github.com/iov-one/trustd/x"
)

const maxDescriptionSize = 256

// Status is the lifecycle state of a trust.
type Status int32

const (
	// StatusActive is the initial state. Funds are held until release
	// or dispute.
	StatusActive Status = 1
	// StatusCompleted is terminal. The beneficiary was paid.
	StatusCompleted Status = 2
	// StatusDisputed waits for the arbitrator decision.
	StatusDisputed Status = 3
	// StatusCancelled is terminal. The trustor was refunded.
	StatusCancelled Status = 4
)

var statusNames = map[Status]string{
	StatusActive:    "active",
	StatusCompleted: "completed",
	StatusDisputed:  "disputed",
	StatusCancelled: "cancelled",
}

func (s Status) String() string {
	if n, ok := statusNames[s]; ok {
		return n
	}
	return "unknown"
}

// Validate returns an error for an out of range status.
func (s Status) Validate() error {
	if _, ok := statusNames[s]; !ok {
		return errors.Wrapf(errors.ErrInvalidState, "invalid status %d", int32(s))
	}
	return nil
}

// Terminal returns true if no transition exists out of this status.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusCancelled
}

// MarshalJSON encodes the status by name.
func (s Status) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

// UnmarshalJSON decodes a status name.
func (s *Status) UnmarshalJSON(raw []byte) error {
	var name string
	if err := json.Unmarshal(raw, &name); err != nil {
		return errors.Wrap(errors.ErrInvalidInput, "status must be a string")
	}
	for st, n := range statusNames {
		if n == name {
			*s = st
			return nil
		}
	}
	return errors.Wrapf(errors.ErrInvalidInput, "unknown status %q", name)
}

// Trust is the unit of escrow.
type Trust struct {
	ID            int64          `json:"id"`
	Trustor       weave.Address  `json:"trustor"`
	Trustee       weave.Address  `json:"trustee"`
	Beneficiary   weave.Address  `json:"beneficiary"`
	Amount        int64          `json:"amount"`
	ReleaseTime   weave.UnixTime `json:"release_time"`
	CreatedAt     weave.UnixTime `json:"created_at"`
	Status        Status         `json:"status"`
	Description   string         `json:"description"`
	FundsReleased bool           `json:"funds_released"`
}

var _ orm.Model = (*Trust)(nil)

// Marshal implements weave.Persistent.
func (t *Trust) Marshal() ([]byte, error) { return x.MarshalBinary(t) }

// Unmarshal implements weave.Persistent.
func (t *Trust) Unmarshal(raw []byte) error { return x.UnmarshalBinary(raw, t) }

// Validate ensures the trust is consistent.
func (t *Trust) Validate() error {
	var errs error
	if t.ID <= 0 {
		errs = errors.AppendField(errs, "ID", errors.ErrEmpty)
	}
	errs = errors.AppendField(errs, "Trustor", t.Trustor.Validate())
	errs = errors.AppendField(errs, "Trustee", t.Trustee.Validate())
	errs = errors.AppendField(errs, "Beneficiary", t.Beneficiary.Validate())
	if t.Amount <= 0 {
		errs = errors.AppendField(errs, "Amount", errors.ErrInvalidAmount)
	}
	if t.ReleaseTime <= t.CreatedAt {
		errs = errors.AppendField(errs, "ReleaseTime",
			errors.Wrap(errors.ErrInvalidInput, "must be after creation time"))
	}
	errs = errors.AppendField(errs, "CreatedAt", t.CreatedAt.Validate())
	errs = errors.AppendField(errs, "Description", validateDescription(t.Description))
	errs = errors.AppendField(errs, "Status", t.Status.Validate())
	if t.FundsReleased != t.Status.Terminal() {
		errs = errors.AppendField(errs, "FundsReleased",
			errors.Wrapf(errors.ErrInvalidState, "released=%v in %s status", t.FundsReleased, t.Status))
	}
	return errs
}

func validateDescription(d string) error {
	switch {
	case d == "":
		return errors.ErrEmpty
	case len(d) > maxDescriptionSize:
		return errors.Wrapf(errors.ErrInvalidInput, "longer than %d", maxDescriptionSize)
	}
	return nil
}

// Copy returns a deep copy of the trust.
func (t *Trust) Copy() orm.Model {
	cpy := *t
	cpy.Trustor = append(weave.Address(nil), t.Trustor...)
	cpy.Trustee = append(weave.Address(nil), t.Trustee...)
	cpy.Beneficiary = append(weave.Address(nil), t.Beneficiary...)
	return &cpy
}

// IsParty returns true if given address is the trustor, the trustee or the
// beneficiary of this trust.
func (t *Trust) IsParty(addr weave.Address) bool {
	return t.Trustor.Equals(addr) || t.Trustee.Equals(addr) || t.Beneficiary.Equals(addr)
}

// Key returns the store key of the trust with given id.
func Key(id int64) []byte {
	return orm.EncodeSequence(id)
}

// Bucket stores trusts by their sequential id and indexes them by user,
// where a user is either the trustor or the trustee of a trust.
type Bucket struct {
	orm.ModelBucket
	idSeq orm.Sequence
}

// NewBucket returns the trust bucket.
func NewBucket() *Bucket {
	b := orm.NewBucket("trust", orm.NewSimpleObj(nil, &Trust{})).
		WithMultiKeyIndex("user", idxUser)
	return &Bucket{
		ModelBucket: orm.NewModelBucket(b),
		idSeq:       b.Sequence("id"),
	}
}

// Create assigns the next id to given trust and stores it.
func (b *Bucket) Create(db weave.KVStore, t *Trust) (int64, error) {
	id, err := b.idSeq.NextInt(db)
	if err != nil {
		return 0, errors.Wrap(err, "cannot acquire id")
	}
	t.ID = id
	if _, err := b.Put(db, Key(id), t); err != nil {
		return 0, err
	}
	return id, nil
}

// Count returns the number of trusts ever created.
func (b *Bucket) Count(db weave.ReadOnlyKVStore) (int64, error) {
	return b.idSeq.Latest(db)
}

// ByID loads the trust with given id. ErrNotFound is returned for an unknown
// id.
func (b *Bucket) ByID(db weave.ReadOnlyKVStore, id int64) (*Trust, error) {
	var t Trust
	if err := b.One(db, Key(id), &t); err != nil {
		return nil, errors.Wrapf(err, "trust %d", id)
	}
	return &t, nil
}

// UserTrusts returns the ids of all trusts in which given address is the
// trustor or the trustee, in creation order.
func (b *Bucket) UserTrusts(db weave.ReadOnlyKVStore, addr weave.Address) ([]int64, error) {
	if len(addr) == 0 {
		return nil, errors.Wrap(errors.ErrEmpty, "address")
	}
	keys, err := b.ByIndex(db, "user", addr)
	if err != nil {
		return nil, err
	}
	ids := make([]int64, len(keys))
	for i, k := range keys {
		ids[i] = orm.DecodeSequence(k)
	}
	return ids, nil
}

func idxUser(obj orm.Object) ([][]byte, error) {
	t, ok := obj.Value().(*Trust)
	if !ok {
		return nil, errors.WithType(errors.ErrInvalidModel, obj.Value())
	}
	return [][]byte{t.Trustor, t.Trustee}, nil
}

// Deposits tracks the sum of all amounts ever deposited into trusts.
type Deposits struct {
	Total int64 `json:"total"`
}

var _ orm.Model = (*Deposits)(nil)

// Marshal implements weave.Persistent.
func (d *Deposits) Marshal() ([]byte, error) { return x.MarshalBinary(d) }

// Unmarshal implements weave.Persistent.
func (d *Deposits) Unmarshal(raw []byte) error { return x.UnmarshalBinary(raw, d) }

// Validate ensures the total is not negative.
func (d *Deposits) Validate() error {
	if d.Total < 0 {
		return errors.Wrap(errors.ErrInvalidModel, "negative deposits")
	}
	return nil
}

// Copy returns a copy.
func (d *Deposits) Copy() orm.Model {
	return &Deposits{Total: d.Total}
}

var depositsKey = []byte("all")

// NewDepositsBucket returns the bucket holding the single Deposits entity.
func NewDepositsBucket() orm.ModelBucket {
	return orm.NewModelBucket(orm.NewBucket("trust_dep", orm.NewSimpleObj(nil, &Deposits{})))
}
