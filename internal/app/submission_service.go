package app

import (
	"context"
	"encoding/base64"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/sirupsen/logrus"

	"product_registration_bot/internal/domain/registration"
	"product_registration_bot/internal/domain/retry"
	domainTelegram "product_registration_bot/internal/domain/telegram"
)

// SubmissionService submits registrations and decides their outcome.
//
// The backend has no idempotency key. When a POST times out after the write
// landed, the retry is answered with "already registered"; that answer after
// at least one retry is taken as success. A genuine duplicate submitted
// without any retry is still reported as a failure.
type SubmissionService struct {
	backend        registration.Backend
	journal        registration.Journal  // optional
	notifier       domainTelegram.Client // optional
	operatorChatID int64
	lookupURL      string
	logger         *logrus.Entry
}

func NewSubmissionService(
	backend registration.Backend,
	journal registration.Journal,
	notifier domainTelegram.Client,
	operatorChatID int64,
	lookupURL string,
	logger *logrus.Entry,
) *SubmissionService {
	return &SubmissionService{
		backend:        backend,
		journal:        journal,
		notifier:       notifier,
		operatorChatID: operatorChatID,
		lookupURL:      lookupURL,
		logger:         logger,
	}
}

// ValidateForm re-checks every required field in the order the form shows
// them. Earlier steps already gated most of these.
func ValidateForm(f SubmissionForm) error {
	if err := consentGuard(f.Consents); err != nil {
		return err
	}
	switch {
	case strings.TrimSpace(f.Serial) == "":
		return invalid("serialNo", registration.MsgSerialRequired)
	case !f.Verification.IsVerified():
		return invalid("serialNo", registration.MsgSerialUnverified)
	case f.Details.UserName == "":
		return invalid("userName", registration.MsgNameRequired)
	case f.Details.UserPhone == "":
		return invalid("userPhone", registration.MsgPhoneRequired)
	case f.Details.Product == "":
		return invalid("product", registration.MsgProductRequired)
	case f.Details.StoreName == "" || f.Details.StoreCode == "":
		return invalid("storeName", registration.MsgStoreRequired)
	case f.Receipt == nil || len(f.Receipt.Data) == 0:
		return invalid("receiptFile", registration.MsgReceiptRequired)
	case len(f.Receipt.Data) > registration.MaxReceiptSize:
		return invalid("receiptFile", registration.MsgReceiptTooLarge)
	}
	return nil
}

// BuildPayload packages a validated form, embedding the receipt as base64.
func BuildPayload(f SubmissionForm) *registration.Payload {
	mimeType := f.Receipt.MimeType
	if mimeType == "" {
		mimeType = http.DetectContentType(f.Receipt.Data)
	}
	return &registration.Payload{
		UserName:         f.Details.UserName,
		UserPhone:        f.Details.UserPhone,
		Product:          f.Details.Product,
		StoreName:        f.Details.StoreName,
		StoreCode:        f.Details.StoreCode,
		SerialNo:         strings.TrimSpace(f.Serial),
		MarketingConsent: f.Consents.Marketing,
		TransferConsent:  f.Consents.Transfer,
		FileName:         f.Receipt.FileName,
		MimeType:         mimeType,
		FileData:         base64.StdEncoding.EncodeToString(f.Receipt.Data),
	}
}

// LookupLink is the lookup page prefilled for a registrant.
func LookupLink(base, name, phone string) string {
	q := url.Values{"name": {name}, "phone": {phone}}
	sep := "?"
	if strings.Contains(base, "?") {
		sep = "&"
	}
	return base + sep + q.Encode()
}

// Submit validates and posts the form. A ValidationError is returned as an
// error; every other result, including backend failures, is an outcome.
// rc is reset first so only retries of this submission count.
func (s *SubmissionService) Submit(ctx context.Context, f SubmissionForm, rc *retry.Context) (registration.SubmissionOutcome, error) {
	if err := ValidateForm(f); err != nil {
		return registration.SubmissionOutcome{}, err
	}
	if rc == nil {
		rc = retry.NewContext(nil)
	}
	rc.Reset()

	payload := BuildPayload(f)
	logCtx := s.logger.WithFields(logrus.Fields{
		"serial":     payload.SerialNo,
		"store_code": payload.StoreCode,
		"file_size":  len(f.Receipt.Data),
	})
	logCtx.Info("Submitting registration")

	res, err := s.backend.Register(ctx, payload, rc)
	outcome := s.classify(payload, res, err, rc)

	logCtx = logCtx.WithFields(logrus.Fields{
		"outcome":    outcome.Kind,
		"reconciled": outcome.Reconciled,
		"retries":    outcome.Retries,
	})
	if err != nil {
		logCtx.WithError(err).Error("Registration request failed")
	} else if outcome.Succeeded() {
		logCtx.Info("Registration completed")
	} else {
		logCtx.WithField("message", outcome.Message).Warn("Registration refused")
	}

	s.record(ctx, payload, outcome)
	if outcome.Reconciled {
		s.notifyOperator(payload, outcome)
	}
	return outcome, nil
}

func (s *SubmissionService) classify(p *registration.Payload, res *registration.SubmitResult, err error, rc *retry.Context) registration.SubmissionOutcome {
	outcome := registration.SubmissionOutcome{Retries: rc.Retries}
	switch {
	case err != nil:
		outcome.Kind = registration.OutcomeFailure
		outcome.Message = registration.MsgSubmitHighTraffic
	case res.Success():
		outcome.Kind = registration.OutcomeSuccess
		outcome.Message = registration.MsgSubmitSuccess
	case strings.Contains(res.Message, registration.AlreadyRegisteredMarker) && rc.Retried():
		outcome.Kind = registration.OutcomeSuccess
		outcome.Reconciled = true
		outcome.Message = registration.MsgSubmitReconciled
	default:
		outcome.Kind = registration.OutcomeFailure
		outcome.Message = res.Message
		if strings.TrimSpace(outcome.Message) == "" {
			outcome.Message = registration.MsgSubmitHighTraffic
		}
	}
	if outcome.Succeeded() {
		outcome.RedirectTo = LookupLink(s.lookupURL, p.UserName, p.UserPhone)
	}
	return outcome
}

func (s *SubmissionService) record(ctx context.Context, p *registration.Payload, o registration.SubmissionOutcome) {
	if s.journal == nil {
		return
	}
	entry := &registration.JournalEntry{
		SerialNo:   p.SerialNo,
		UserName:   p.UserName,
		UserPhone:  p.UserPhone,
		StoreCode:  p.StoreCode,
		Outcome:    o.Kind,
		Reconciled: o.Reconciled,
		Retries:    o.Retries,
		Message:    o.Message,
	}
	if err := s.journal.Record(context.WithoutCancel(ctx), entry); err != nil {
		s.logger.WithError(err).WithField("serial", p.SerialNo).Error("Failed to record submission in journal")
	}
}

func (s *SubmissionService) notifyOperator(p *registration.Payload, o registration.SubmissionOutcome) {
	if s.notifier == nil || s.operatorChatID == 0 {
		return
	}
	text := fmt.Sprintf("재시도 후 중복 응답을 성공으로 처리했습니다.\n차대번호: %s\n매장: %s (%s)\n재시도: %d회",
		p.SerialNo, p.StoreName, p.StoreCode, o.Retries)
	if err := s.notifier.SendMessage(s.operatorChatID, text, nil); err != nil {
		s.logger.WithError(err).Warn("Failed to notify operator about reconciled submission")
	}
}
