package domain

import "fmt"

var (
	ErrNotFound          = errString("not found")
	ErrAlreadyExists     = errString("already exists")
	ErrInvalidTransition = errString("invalid status transition")
	ErrLocked            = errString("resource is locked")
)

type errString string

func (e errString) Error() string { return string(e) }

// ValidationError is a client-side input problem. Nothing has been written
// when one is returned.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func Invalid(field, msg string) error {
	return &ValidationError{Field: field, Message: msg}
}
