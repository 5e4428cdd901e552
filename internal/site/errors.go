package site

import (
	"errors"
	"fmt"
)

// ErrNotFound is returned when no live site matches an id or code.
var ErrNotFound = errors.New("site not found")

// ValidationError reports a rejected input field.  HTTP handlers map it to
// 400 Bad Request.
type ValidationError struct {
	Field string
	Msg   string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Msg)
}

// Invalid is shorthand for &ValidationError{…}.
func Invalid(field, msg string) error {
	return &ValidationError{Field: field, Msg: msg}
}

// IsValidation reports whether err wraps a *ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
