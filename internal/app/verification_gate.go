package app

import (
	"context"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"

	"product_registration_bot/internal/domain/registration"
	"product_registration_bot/internal/domain/retry"
)

// SerialGate owns the verification state of one form's serial input.
// Editing the serial always drops the gate back to UNVERIFIED; a check that
// completes after such an edit is discarded.
type SerialGate struct {
	backend registration.Backend
	logger  *logrus.Entry
	onModel func(model string) // product selection that follows the verified model

	mu         sync.Mutex
	serial     string
	generation uint64
	state      registration.VerificationState
}

func NewSerialGate(backend registration.Backend, logger *logrus.Entry, onModel func(model string)) *SerialGate {
	return &SerialGate{
		backend: backend,
		logger:  logger,
		onModel: onModel,
		state:   registration.Unverified(""),
	}
}

// SetSerial records the current input value. Any change resets verification.
func (g *SerialGate) SetSerial(text string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.setSerialLocked(text)
}

func (g *SerialGate) setSerialLocked(text string) {
	if text == g.serial {
		return
	}
	g.serial = text
	g.generation++
	g.state = registration.Unverified("")
}

func (g *SerialGate) Serial() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.serial
}

func (g *SerialGate) State() registration.VerificationState {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.state
}

// Verify checks serialText against the registry and returns the resulting
// state. Failures never surface as errors: an empty input yields a prompt, a
// backend denial yields REJECTED, and an unreachable backend leaves the serial
// UNVERIFIED so the user can try again.
func (g *SerialGate) Verify(ctx context.Context, serialText string, rc *retry.Context) registration.VerificationState {
	g.mu.Lock()
	g.setSerialLocked(serialText)
	serial := strings.TrimSpace(serialText)
	if serial == "" {
		g.state = registration.Unverified(registration.MsgSerialRequired)
		state := g.state
		g.mu.Unlock()
		g.selectModel("")
		return state
	}
	if g.state.Status == registration.VerificationPending || g.state.IsVerified() {
		// a check for this exact input is running or already done
		state := g.state
		g.mu.Unlock()
		return state
	}
	gen := g.generation
	g.state = registration.Pending()
	g.mu.Unlock()

	logCtx := g.logger.WithField("serial", serial)
	res, err := g.backend.CheckSerial(ctx, serial, rc)

	var next registration.VerificationState
	switch {
	case err != nil:
		logCtx.WithError(err).Warn("Serial check failed")
		next = registration.Unverified(registration.MsgVerifyCommFailure)
	case res.OK():
		logCtx.WithField("model", res.Model).Info("Serial verified")
		next = registration.Verified(res.Model)
	default:
		logCtx.WithField("reason", res.Message).Info("Serial rejected")
		next = registration.Rejected(res.Message)
	}

	g.mu.Lock()
	if gen != g.generation {
		state := g.state
		g.mu.Unlock()
		logCtx.Debug("Serial changed during check, result discarded")
		return state
	}
	g.state = next
	g.mu.Unlock()

	if next.IsVerified() && next.Model != "" {
		g.selectModel(next.Model)
	}
	return next
}

func (g *SerialGate) selectModel(model string) {
	if g.onModel != nil {
		g.onModel(model)
	}
}
