package registry

import (
	"errors"
	"fmt"
)

var (
	ErrServerBusy      = errors.New("registry: server busy")
	ErrInvalidJSON     = errors.New("registry: response is not valid JSON")
	ErrInvalidCatalog  = errors.New("registry: catalog response does not match schema")
	ErrInvalidResponse = errors.New("registry: unexpected response shape")
)

// TransportError is returned once the retry budget of a call is spent.
type TransportError struct {
	Attempts int
	Err      error // failure of the last attempt
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("registry: request failed after %d attempt(s): %v", e.Attempts, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// IsTransport reports whether err means the backend could not be reached
// within the retry budget.
func IsTransport(err error) bool {
	var te *TransportError
	return errors.As(err, &te)
}
