package app

import (
	"fmt"
	"strings"

	"product_registration_bot/internal/domain/registration"
)

// NavEventKind is the direction of a requested step change.
type NavEventKind int

const (
	NavAdvance NavEventKind = iota + 1
	NavRetreat
)

// NavEvent asks the form to move to Target.
type NavEvent struct {
	Kind   NavEventKind
	Target registration.FormStep
}

// NavState is everything the step guards look at.
type NavState struct {
	Step         registration.FormStep
	Consents     registration.Consents
	Serial       string
	Verification registration.VerificationState
}

// NavResult is the outcome of a transition. ExitToLanding is set when the
// user backs out of the first step; Step is then unchanged.
type NavResult struct {
	Step          registration.FormStep
	ExitToLanding bool
}

// Transition applies ev to s. Advancing runs the guard of every step after the
// current one up to and including the target and stops at the first failure.
// Retreating never runs guards.
func Transition(s NavState, ev NavEvent) (NavResult, error) {
	switch ev.Kind {
	case NavAdvance:
		if !ev.Target.Valid() || ev.Target <= s.Step {
			return NavResult{Step: s.Step}, fmt.Errorf("%w: advance %s -> %s", ErrInvalidTransition, s.Step, ev.Target)
		}
		for step := s.Step + 1; step <= ev.Target; step++ {
			if err := guard(step, s); err != nil {
				return NavResult{Step: s.Step}, err
			}
		}
		return NavResult{Step: ev.Target}, nil

	case NavRetreat:
		if s.Step == registration.StepTerms {
			return NavResult{Step: s.Step, ExitToLanding: true}, nil
		}
		if !ev.Target.Valid() || ev.Target >= s.Step {
			return NavResult{Step: s.Step}, fmt.Errorf("%w: retreat %s -> %s", ErrInvalidTransition, s.Step, ev.Target)
		}
		return NavResult{Step: ev.Target}, nil
	}
	return NavResult{Step: s.Step}, fmt.Errorf("%w: unknown event %d", ErrInvalidTransition, ev.Kind)
}

// guard is the entry condition of a step.
func guard(step registration.FormStep, s NavState) *ValidationError {
	switch step {
	case registration.StepVerify:
		return consentGuard(s.Consents)
	case registration.StepSubmit:
		if strings.TrimSpace(s.Serial) == "" {
			return invalid("serialNo", registration.MsgSerialRequired)
		}
		if !s.Verification.IsVerified() {
			return invalid("serialNo", registration.MsgSerialUnverified)
		}
	}
	return nil
}

// consentGuard checks the required consents in display order.
func consentGuard(c registration.Consents) *ValidationError {
	switch {
	case !c.Privacy:
		return invalid("privacyAgree", registration.MsgPrivacyConsent)
	case !c.ThirdParty:
		return invalid("thirdPartyAgree", registration.MsgThirdPartyConsent)
	case !c.Transfer:
		return invalid("transferAgree", registration.MsgTransferConsent)
	}
	return nil
}

// StepView is what the front end draws for the current step.
type StepView struct {
	Visible     registration.FormStep // the only panel shown
	Indicators  []registration.StepIndicator
	ResetScroll bool
}

// Render derives the view of step: earlier steps complete, step active,
// later steps neutral.
func Render(step registration.FormStep) StepView {
	view := StepView{Visible: step, ResetScroll: true}
	for _, s := range registration.Steps {
		status := registration.IndicatorNeutral
		switch {
		case s < step:
			status = registration.IndicatorComplete
		case s == step:
			status = registration.IndicatorActive
		}
		view.Indicators = append(view.Indicators, registration.StepIndicator{Step: s, Status: status})
	}
	return view
}
