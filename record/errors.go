package record

import (
	"errors"
	"fmt"

	"github.com/ggoodman/moodlews-go/jsonval"
)

var (
	// ErrMissingField is matched by *MissingFieldError.
	ErrMissingField = errors.New("record: missing field")
	// ErrTypeMismatch is matched by *TypeMismatchError.
	ErrTypeMismatch = errors.New("record: type mismatch")
)

// MissingFieldError indicates an element lacking a schema field.
type MissingFieldError struct {
	Field string
}

func (e *MissingFieldError) Error() string {
	return fmt.Sprintf("record: missing field %q", e.Field)
}

func (e *MissingFieldError) Is(target error) bool { return target == ErrMissingField }

// TypeMismatchError indicates a field whose JSON kind does not fit the schema.
// Field is empty when the element itself is not an object. Err is set when
// the kind fits but the value does not, such as a number outside int64.
type TypeMismatchError struct {
	Field    string
	Expected string
	Observed jsonval.Kind
	Err      error
}

func (e *TypeMismatchError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("record: expected %s element, got %s", e.Expected, e.Observed)
	}
	if e.Err != nil {
		return fmt.Sprintf("record: field %q: expected %s: %v", e.Field, e.Expected, e.Err)
	}
	return fmt.Sprintf("record: field %q: expected %s, got %s", e.Field, e.Expected, e.Observed)
}

func (e *TypeMismatchError) Is(target error) bool { return target == ErrTypeMismatch }

func (e *TypeMismatchError) Unwrap() error { return e.Err }
