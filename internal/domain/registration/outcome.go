// internal/domain/registration/outcome.go
package registration

// OutcomeKind classifies a terminal submission result.
type OutcomeKind string

const (
	OutcomeSuccess OutcomeKind = "SUCCESS"
	OutcomeFailure OutcomeKind = "FAILURE"
)

// SubmissionOutcome is what the reconciler hands back to the front end.
type SubmissionOutcome struct {
	Kind       OutcomeKind
	Reconciled bool   // success inferred from a duplicate error after a retry
	Message    string // shown to the user verbatim
	Retries    int
	RedirectTo string // lookup page for the registrant, set on success
}

func (o SubmissionOutcome) Succeeded() bool {
	return o.Kind == OutcomeSuccess
}
