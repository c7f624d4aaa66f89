// internal/domain/registration/verification.go
package registration

import "strings"

// VerificationStatus is the tri-state (plus in-flight) outcome of a serial check.
type VerificationStatus string

const (
	VerificationUnverified VerificationStatus = "UNVERIFIED"
	VerificationPending    VerificationStatus = "PENDING"
	VerificationVerified   VerificationStatus = "VERIFIED"
	VerificationRejected   VerificationStatus = "REJECTED"
)

// VerificationState is owned by the serial verification gate.
// Model is set only when Verified, Reason only when Rejected.
// Message carries the prompt shown next to the serial field.
type VerificationState struct {
	Status  VerificationStatus
	Model   string
	Reason  string
	Message string
}

func Unverified(message string) VerificationState {
	return VerificationState{Status: VerificationUnverified, Message: message}
}

func Pending() VerificationState {
	return VerificationState{Status: VerificationPending, Message: MsgVerifying}
}

func Verified(model string) VerificationState {
	return VerificationState{Status: VerificationVerified, Model: model, Message: "✅ 확인됨 (" + model + ")"}
}

// Rejected falls back to MsgSerialRejected when the backend gave no reason.
func Rejected(reason string) VerificationState {
	if strings.TrimSpace(reason) == "" {
		reason = MsgSerialRejected
	}
	return VerificationState{Status: VerificationRejected, Reason: reason, Message: "❌ " + reason}
}

func (v VerificationState) IsVerified() bool {
	return v.Status == VerificationVerified
}
