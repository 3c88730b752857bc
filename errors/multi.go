package errors

import (
	"fmt"
	"strings"
)

// Append clubs together all provided errors. Nil values are ignored.
//
// If an error is not a multi error, it is wrapped so that the group behaves
// like a single error whose code is the code of the first member.
func Append(errs ...error) error {
	var flat []error
	for _, e := range errs {
		if isNilErr(e) {
			continue
		}
		if m, ok := e.(*multiErr); ok {
			flat = append(flat, m.errs...)
		} else {
			flat = append(flat, e)
		}
	}

	switch len(flat) {
	case 0:
		return nil
	case 1:
		return flat[0]
	default:
		return &multiErr{errs: flat}
	}
}

// unpacker is implemented by errors that are a collection of other errors.
type unpacker interface {
	Unpack() []error
}

type multiErr struct {
	errs []error
}

var (
	_ unpacker = (*multiErr)(nil)
	_ coder    = (*multiErr)(nil)
)

func (m *multiErr) Error() string {
	points := make([]string, len(m.errs))
	for i, err := range m.errs {
		points[i] = fmt.Sprintf("* %s", err)
	}
	return fmt.Sprintf("%d errors occurred:\n\t%s\n",
		len(m.errs), strings.Join(points, "\n\t"))
}

// Unpack returns all clubbed errors.
func (m *multiErr) Unpack() []error {
	return m.errs
}

// ABCICode returns the code of the first error, consistent with a fail-fast
// approach.
func (m *multiErr) ABCICode() uint32 {
	return abciCode(m.errs[0])
}
