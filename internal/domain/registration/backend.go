// internal/domain/registration/backend.go
package registration

import (
	"context"

	"product_registration_bot/internal/domain/retry"
)

// SerialCheck is the backend's answer to a serial number check.
type SerialCheck struct {
	Status  string `json:"status"`
	Model   string `json:"model,omitempty"`
	Message string `json:"message,omitempty"`
}

func (c *SerialCheck) OK() bool {
	return c.Status == "ok"
}

// SubmitResult is the backend's answer to a registration POST.
type SubmitResult struct {
	Result  string `json:"result"`
	Message string `json:"message,omitempty"`
}

func (r *SubmitResult) Success() bool {
	return r.Result == "success"
}

// Backend is the part of the registry API used by the registration form.
type Backend interface {
	CheckSerial(ctx context.Context, serial string, rc *retry.Context) (*SerialCheck, error)
	Register(ctx context.Context, p *Payload, rc *retry.Context) (*SubmitResult, error)
}
