package app

import (
	"context"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"

	"product_registration_bot/internal/domain/catalog"
	"product_registration_bot/internal/domain/registration"
	"product_registration_bot/internal/domain/retry"
)

// ConsentKind names one checkbox of the terms step.
type ConsentKind string

const (
	ConsentPrivacy    ConsentKind = "privacy"
	ConsentThirdParty ConsentKind = "third_party"
	ConsentTransfer   ConsentKind = "transfer"
	ConsentMarketing  ConsentKind = "marketing"
)

// Details are the purchase fields of the last step.
type Details struct {
	UserName  string
	UserPhone string
	Product   string
	StoreName string
	StoreCode string
}

// SubmissionForm is a snapshot of a session taken when the user submits.
type SubmissionForm struct {
	Consents     registration.Consents
	Serial       string
	Verification registration.VerificationState
	Details      Details
	Receipt      *registration.Receipt
}

// Session is one user's pass through the registration form.
type Session struct {
	ID     string
	ChatID int64

	gate    *SerialGate
	catalog *catalog.Catalog
	stores  map[string]catalog.Store

	mu         sync.Mutex
	step       registration.FormStep
	consents   registration.Consents
	details    Details
	receipt    *registration.Receipt
	submitting bool
}

// NewSession starts a form at the terms step. cat may be nil when the catalog
// could not be loaded; store and product selection are then unavailable.
func NewSession(id string, chatID int64, backend registration.Backend, cat *catalog.Catalog, logger *logrus.Entry) *Session {
	if cat == nil {
		cat = &catalog.Catalog{}
	}
	s := &Session{
		ID:      id,
		ChatID:  chatID,
		catalog: cat,
		stores:  cat.StoreIndex(),
		step:    registration.StepTerms,
	}
	s.gate = NewSerialGate(backend, logger.WithField("session_id", id), s.selectVerifiedModel)
	return s
}

func (s *Session) Catalog() *catalog.Catalog {
	return s.catalog
}

func (s *Session) Step() registration.FormStep {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.step
}

func (s *Session) View() StepView {
	return Render(s.Step())
}

func (s *Session) Consents() registration.Consents {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.consents
}

// SetConsent sets one checkbox.
func (s *Session) SetConsent(kind ConsentKind, value bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	switch kind {
	case ConsentPrivacy:
		s.consents.Privacy = value
	case ConsentThirdParty:
		s.consents.ThirdParty = value
	case ConsentTransfer:
		s.consents.Transfer = value
	case ConsentMarketing:
		s.consents.Marketing = value
	}
}

// ToggleConsent flips one checkbox and returns its new value.
func (s *Session) ToggleConsent(kind ConsentKind) bool {
	c := s.Consents()
	var current bool
	switch kind {
	case ConsentPrivacy:
		current = c.Privacy
	case ConsentThirdParty:
		current = c.ThirdParty
	case ConsentTransfer:
		current = c.Transfer
	case ConsentMarketing:
		current = c.Marketing
	}
	s.SetConsent(kind, !current)
	return !current
}

// SetAllConsents is the "agree to all" checkbox.
func (s *Session) SetAllConsents(value bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.consents = registration.Consents{Privacy: value, ThirdParty: value, Transfer: value, Marketing: value}
}

func (s *Session) navState() NavState {
	s.mu.Lock()
	step, consents := s.step, s.consents
	s.mu.Unlock()
	return NavState{
		Step:         step,
		Consents:     consents,
		Serial:       s.gate.Serial(),
		Verification: s.gate.State(),
	}
}

func (s *Session) apply(ev NavEvent) (NavResult, error) {
	res, err := Transition(s.navState(), ev)
	if err != nil {
		return res, err
	}
	s.mu.Lock()
	s.step = res.Step
	s.mu.Unlock()
	return res, nil
}

// Advance moves forward to target if every guard on the way passes.
func (s *Session) Advance(target registration.FormStep) (NavResult, error) {
	return s.apply(NavEvent{Kind: NavAdvance, Target: target})
}

// Next advances by one step.
func (s *Session) Next() (NavResult, error) {
	return s.Advance(s.Step() + 1)
}

// Retreat moves back to target without checks.
func (s *Session) Retreat(target registration.FormStep) (NavResult, error) {
	return s.apply(NavEvent{Kind: NavRetreat, Target: target})
}

// Back retreats by one step, or leaves the form from the first one.
func (s *Session) Back() (NavResult, error) {
	return s.Retreat(s.Step() - 1)
}

// SetSerial records an edit of the serial input.
func (s *Session) SetSerial(text string) {
	s.gate.SetSerial(text)
}

func (s *Session) Verification() registration.VerificationState {
	return s.gate.State()
}

// VerifySerial runs the serial check for text.
func (s *Session) VerifySerial(ctx context.Context, text string, rc *retry.Context) registration.VerificationState {
	return s.gate.Verify(ctx, text, rc)
}

func (s *Session) selectVerifiedModel(model string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.details.Product = model
}

func (s *Session) Details() Details {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.details
}

func (s *Session) SetName(name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return invalid("userName", registration.MsgNameRequired)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.details.UserName = name
	return nil
}

// SetPhone stores the hyphenated form of raw.
func (s *Session) SetPhone(raw string) (string, error) {
	phone := FormatPhone(raw)
	if phone == "" {
		return "", invalid("userPhone", registration.MsgPhoneRequired)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.details.UserPhone = phone
	return phone, nil
}

// SelectProduct picks a model from the catalog's product list.
func (s *Session) SelectProduct(model string) error {
	if !s.catalog.HasProduct(model) {
		return invalid("product", registration.MsgProductRequired)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.details.Product = model
	return nil
}

// SearchStores lists stores matching keyword.
func (s *Session) SearchStores(keyword string) []catalog.Store {
	return SearchStores(s.catalog, keyword)
}

// SelectStore picks a store by its exact name.
func (s *Session) SelectStore(name string) (catalog.Store, error) {
	store, ok := s.stores[name]
	if !ok {
		return catalog.Store{}, invalid("storeName", registration.MsgStoreRequired)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.details.StoreName = store.Name
	s.details.StoreCode = store.Code
	return store, nil
}

// AttachReceipt sets the receipt image, refusing oversized files.
func (s *Session) AttachReceipt(r *registration.Receipt) error {
	if r == nil || len(r.Data) == 0 {
		return invalid("receiptFile", registration.MsgReceiptRequired)
	}
	if len(r.Data) > registration.MaxReceiptSize {
		return invalid("receiptFile", registration.MsgReceiptTooLarge)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.receipt = r
	return nil
}

func (s *Session) HasReceipt() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.receipt != nil
}

// Form snapshots the session for submission.
func (s *Session) Form() SubmissionForm {
	serial, verification := s.gate.Serial(), s.gate.State()
	s.mu.Lock()
	defer s.mu.Unlock()
	return SubmissionForm{
		Consents:     s.consents,
		Serial:       serial,
		Verification: verification,
		Details:      s.details,
		Receipt:      s.receipt,
	}
}

// beginSubmit claims the submit trigger. Only one submission may run.
func (s *Session) beginSubmit() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.submitting {
		return ErrSubmissionInFlight
	}
	s.submitting = true
	return nil
}

func (s *Session) endSubmit() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.submitting = false
}
