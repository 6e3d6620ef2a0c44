package services

import "github.com/pkg/errors"

// ValidationError marks a failure the caller can fix: missing or malformed input.
// Handlers map it to a 400 response.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string { return e.Msg }

// Validationf builds a ValidationError with a formatted message.
func Validationf(format string, args ...interface{}) error {
	return &ValidationError{Msg: errors.Errorf(format, args...).Error()}
}

// IsValidation reports whether err is (or wraps) a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// ErrPreviewNotFound is returned when a record exists but no preview has been
// generated for it yet.
var ErrPreviewNotFound = errors.New("no preview stored for this record")
