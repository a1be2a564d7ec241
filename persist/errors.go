package persist

import (
	"errors"
	"fmt"
)

var (
	// ErrFieldMissing is returned when a required field is absent.
	ErrFieldMissing = errors.New("persist: field missing")

	// ErrIndexOutOfRange is returned when a list index is outside the list.
	ErrIndexOutOfRange = errors.New("persist: list index out of range")

	// ErrStructSize is returned when a struct blob does not match the size
	// of the destination value.
	ErrStructSize = errors.New("persist: struct size mismatch")
)

// TypeMismatchError reports a field that holds a value of a different kind
// than the one requested.
type TypeMismatchError struct {
	Field string
	Want  Kind
	Got   Kind
}

func (e *TypeMismatchError) Error() string {
	return fmt.Sprintf("persist: field %q is %s, want %s", e.Field, e.Got, e.Want)
}

func missing(name string) error {
	return fmt.Errorf("%w: %q", ErrFieldMissing, name)
}
