package assert

import (
	"reflect"

	"github.com/iov-one/trustd/errors"
)

// Tester is the subset of testing.TB used by all assertions.
type Tester interface {
	Helper()
	Fatal(...interface{})
	Fatalf(string, ...interface{})
	Errorf(string, ...interface{})
	Logf(string, ...interface{})
}

// Nil fails the test if given value is not nil. Typed nil pointers, maps and
// slices are nil as well.
func Nil(t Tester, value interface{}) {
	t.Helper()
	if !isNil(value) {
		// %+v prints the stack trace of wrapped errors.
		t.Fatalf("want a nil value, got %+v", value)
	}
}

func isNil(value interface{}) (isnil bool) {
	if value == nil {
		return true
	}
	defer func() {
		if recover() != nil {
			isnil = false
		}
	}()
	// IsNil panics for values that cannot be nil.
	return reflect.ValueOf(value).IsNil()
}

// Equal fails the test if two values are not deeply equal.
func Equal(t Tester, want, got interface{}) {
	t.Helper()
	if !reflect.DeepEqual(want, got) {
		t.Fatalf("values not equal \nwant %T %v\n got %T %v", want, want, got, got)
	}
}

// Panics fails the test if calling fn does not panic.
func Panics(t Tester, fn func()) {
	t.Helper()
	defer func() {
		if recover() == nil {
			t.Fatal("panic expected")
		}
	}()
	fn()
}

// IsErr fails the test unless got is want or wraps it. A nil want only
// matches a nil got.
func IsErr(t Tester, want, got error) {
	t.Helper()
	if want == got || matches(want, got) {
		return
	}
	t.Fatalf("want %q, got %+v", want, got)
}

func matches(want, got error) bool {
	type comparator interface {
		Is(error) bool
	}
	c, ok := want.(comparator)
	return ok && c.Is(got)
}

// FieldError ensures that err carries exactly one error for the named field
// and that it matches want. A nil want asserts that the field has no error.
func FieldError(t Tester, err error, fieldName string, want *errors.Error) {
	t.Helper()

	errs := errors.FieldErrors(err, fieldName)
	if want == nil {
		if len(errs) != 0 {
			logErrs(t, errs)
			t.Fatalf("want no %s error, got %d", fieldName, len(errs))
		}
		return
	}

	switch len(errs) {
	case 0:
		t.Fatalf("no %s error found", fieldName)
	case 1:
		if !want.Is(errs[0]) {
			t.Fatalf("unexpected %s error: %q", fieldName, errs[0])
		}
	default:
		t.Errorf("want one %s error, got %d", fieldName, len(errs))
		logErrs(t, errs)
		for _, e := range errs {
			if want.Is(e) {
				return
			}
		}
		t.Fatalf("%s error not found", want)
	}
}

func logErrs(t Tester, errs []error) {
	for i, e := range errs {
		t.Logf("\terror %d: %q", i+1, e)
	}
}
