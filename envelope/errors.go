package envelope

import (
	"errors"
	"fmt"

	"github.com/ggoodman/moodlews-go/jsonval"
)

var (
	// ErrMalformed is matched by *MalformedError.
	ErrMalformed = errors.New("envelope: malformed response")
	// ErrServerWarning is matched by *WarningsError.
	ErrServerWarning = errors.New("envelope: server reported warnings")
)

// MalformedError indicates a response that does not have the
// {warnings, <data>} shape. Body is the offending document.
type MalformedError struct {
	Reason string
	Body   jsonval.Value
}

func (e *MalformedError) Error() string {
	return fmt.Sprintf("envelope: malformed response: %s: %s", e.Reason, abbreviate(e.Body.String()))
}

func (e *MalformedError) Is(target error) bool { return target == ErrMalformed }

// WarningsError indicates a well-formed response whose warnings array is not
// empty. The call may be repeated with warnings ignored.
type WarningsError struct {
	Warnings jsonval.Value
}

func (e *WarningsError) Error() string {
	return fmt.Sprintf("envelope: server reported %d warning(s): %s", e.Warnings.Len(), abbreviate(e.Warnings.String()))
}

func (e *WarningsError) Is(target error) bool { return target == ErrServerWarning }

// Details decodes the warnings, skipping entries that are not objects.
func (e *WarningsError) Details() []Warning {
	return DecodeWarnings(e.Warnings)
}

func abbreviate(s string) string {
	const max = 512
	if len(s) > max {
		return s[:max] + "..."
	}
	return s
}
