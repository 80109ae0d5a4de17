package resilience

import "errors"

// FormatError marks a completion reply that could not be parsed into
// the expected structured shape. Sampling variance makes these failures
// often transient, so they retry exactly like network errors; the
// marker exists so logs can tell the two apart.
type FormatError struct {
	Err error
}

func (e *FormatError) Error() string {
	return "response format: " + e.Err.Error()
}

func (e *FormatError) Unwrap() error {
	return e.Err
}

// NewFormatError wraps err as a response-format failure.
func NewFormatError(err error) *FormatError {
	return &FormatError{Err: err}
}

// IsFormat reports whether any error in the chain is a FormatError.
func IsFormat(err error) bool {
	var fe *FormatError
	return errors.As(err, &fe)
}
