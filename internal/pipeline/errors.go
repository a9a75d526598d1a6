package pipeline

import "errors"

// ErrNotFound indicates the referenced contract or session does not exist.
var ErrNotFound = errors.New("pipeline: not found")

// ErrAccessDenied indicates the caller does not own the referenced resource.
var ErrAccessDenied = errors.New("pipeline: access denied")

// ValidationError reports invalid caller input. It is never retried.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string { return "pipeline: " + e.Msg }

// Validation builds a ValidationError from a message.
func Validation(msg string) error { return &ValidationError{Msg: msg} }

// IsValidation reports whether err is a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
