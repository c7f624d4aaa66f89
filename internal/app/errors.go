package app

import (
	"errors"
	"fmt"
)

// ValidationError is a local input problem. No network call was made; the
// message is shown to the user as a prompt.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Message)
}

func invalid(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}

// AsValidation unwraps a ValidationError from err.
func AsValidation(err error) (*ValidationError, bool) {
	var ve *ValidationError
	if errors.As(err, &ve) {
		return ve, true
	}
	return nil, false
}

var (
	ErrInvalidTransition   = errors.New("invalid step transition")
	ErrSubmissionInFlight  = errors.New("submission already in progress")
	ErrSessionStale        = errors.New("form session is stale")
	ErrNoSession           = errors.New("no active form session")
	ErrNoRegistrations     = errors.New("no matching registrations")
	ErrLookupUnavailable   = errors.New("registration lookup unavailable")
	ErrAdminNotAuthorized  = errors.New("performing user is not authorized as an admin")
	ErrJournalNotAvailable = errors.New("submission journal is not configured")
)
