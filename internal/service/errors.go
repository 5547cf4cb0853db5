package service

import (
	"errors"
	"fmt"
)

// --- Shared Error Definitions ---
var (
	ErrForbidden = errors.New("you do not have permission to perform this action")
)

// ValidationError reports bad input caught before any storage call.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

func validationErrorf(format string, args ...any) error {
	return &ValidationError{Message: fmt.Sprintf(format, args...)}
}

// IsValidation reports whether err is (or wraps) a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
