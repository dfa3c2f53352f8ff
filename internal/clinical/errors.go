package clinical

import (
	"errors"
	"fmt"
)

var (
	// ErrPatientNotFound is returned when a patient id does not resolve.
	ErrPatientNotFound = errors.New("patient not found")

	// ErrNotFound is returned for any other missing clinical row.
	ErrNotFound = errors.New("record not found")
)

// ValidationError reports a rejected write. Field is the JSON name of the
// offending input when known.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s %s", e.Field, e.Message)
}

// IsValidation reports whether err carries a *ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
