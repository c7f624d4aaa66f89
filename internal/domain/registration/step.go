// internal/domain/registration/step.go
package registration

// FormStep is one panel of the registration form. Steps are ordered.
type FormStep int

const (
	StepTerms  FormStep = 1 // consents
	StepVerify FormStep = 2 // serial number check
	StepSubmit FormStep = 3 // purchase details and receipt
)

// Steps lists every step in display order.
var Steps = []FormStep{StepTerms, StepVerify, StepSubmit}

func (s FormStep) Valid() bool {
	return s >= StepTerms && s <= StepSubmit
}

func (s FormStep) String() string {
	switch s {
	case StepTerms:
		return "TERMS"
	case StepVerify:
		return "VERIFY"
	case StepSubmit:
		return "SUBMIT"
	default:
		return "UNKNOWN"
	}
}

// Title is the label shown on the stepper indicator.
func (s FormStep) Title() string {
	switch s {
	case StepTerms:
		return "약관 동의"
	case StepVerify:
		return "차대번호 확인"
	case StepSubmit:
		return "정보 입력"
	default:
		return ""
	}
}

// IndicatorStatus is how a step is drawn on the stepper.
type IndicatorStatus string

const (
	IndicatorNeutral  IndicatorStatus = "NEUTRAL"
	IndicatorActive   IndicatorStatus = "ACTIVE"
	IndicatorComplete IndicatorStatus = "COMPLETE"
)

// StepIndicator is a single cell of the visual stepper.
type StepIndicator struct {
	Step   FormStep
	Status IndicatorStatus
}
