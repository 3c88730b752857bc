package orm

import (
	"github.com/iov-one/trustd/errors"
	"github.com/iov-one/trustd/x"
)

// counter is a minimal model used by the tests of this package.
type counter struct {
	Count int64
	Owner []byte
}

var _ Model = (*counter)(nil)

func (c *counter) Marshal() ([]byte, error) { return x.MarshalBinary(c) }

func (c *counter) Unmarshal(bz []byte) error { return x.UnmarshalBinary(bz, c) }

func (c *counter) Validate() error {
	if c.Count < 0 {
		return errors.Wrap(errors.ErrInvalidModel, "negative count")
	}
	return nil
}

func (c *counter) Copy() Model {
	cpy := *c
	return &cpy
}

func counterOwner(obj Object) ([]byte, error) {
	c, ok := obj.Value().(*counter)
	if !ok {
		return nil, errors.WithType(errors.ErrInvalidModel, obj.Value())
	}
	return c.Owner, nil
}
