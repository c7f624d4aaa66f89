package telegram

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	gocache "github.com/patrickmn/go-cache"
	"github.com/sirupsen/logrus"
	"gopkg.in/telebot.v3"

	"product_registration_bot/internal/app"
	"product_registration_bot/internal/domain/registration"
	"product_registration_bot/internal/domain/retry"
)

// inputField is the form field the next plain text message fills.
type inputField string

const (
	fieldNone   inputField = ""
	fieldSerial inputField = "serial"
	fieldName   inputField = "name"
	fieldPhone  inputField = "phone"
	fieldStore  inputField = "store"
)

const (
	msgStaleForm   = "이전 등록 양식입니다. /register 로 다시 시작해주세요."
	msgNoForm      = "진행 중인 등록이 없습니다. /register 로 시작해주세요."
	msgReceiptHint = "구매 영수증 사진을 보내주세요."
	msgAllFilled   = "모든 정보가 입력되었습니다. 등록하기 버튼을 눌러주세요."
	msgSearchStore = "구입 매장 이름이나 지역을 입력해주세요."
	msgFileFailed  = "파일을 받지 못했습니다. 다시 보내주세요."
	msgFormExit    = "등록을 종료했습니다."
)

// nextField picks what a text message means at step, given what is filled.
func nextField(step registration.FormStep, f app.SubmissionForm) inputField {
	switch step {
	case registration.StepVerify:
		return fieldSerial
	case registration.StepSubmit:
		switch {
		case f.Details.UserName == "":
			return fieldName
		case f.Details.UserPhone == "":
			return fieldPhone
		case f.Details.StoreCode == "":
			return fieldStore
		}
	}
	return fieldNone
}

func promptFor(field inputField) string {
	switch field {
	case fieldSerial:
		return registration.MsgSerialRequired
	case fieldName:
		return registration.MsgNameRequired
	case fieldPhone:
		return registration.MsgPhoneRequired
	case fieldStore:
		return msgSearchStore
	}
	return ""
}

// RegistrationHandlers drives the registration form over chat messages and
// inline buttons.
type RegistrationHandlers struct {
	registration *app.RegistrationService
	landingURL   string
	awaiting     *gocache.Cache // chat ID -> inputField chosen with an edit button
	logger       *logrus.Entry
}

func NewRegistrationHandlers(reg *app.RegistrationService, landingURL string, sessionTTL time.Duration, baseLogger *logrus.Entry) *RegistrationHandlers {
	return &RegistrationHandlers{
		registration: reg,
		landingURL:   landingURL,
		awaiting:     gocache.New(sessionTTL, sessionTTL),
		logger:       baseLogger.WithField("handler_group", "registration"),
	}
}

// Register installs the handlers on b.
func (h *RegistrationHandlers) Register(ctx context.Context, b *telebot.Bot) {
	b.Handle("/register", func(c telebot.Context) error { return h.start(ctx, c) })
	b.Handle("/cancel", h.cancel)
	b.Handle(&btnConsent, h.withSession(h.toggleConsent))
	b.Handle(&btnConsentAll, h.withSession(h.toggleAllConsents))
	b.Handle(&btnNext, h.withSession(h.next))
	b.Handle(&btnBack, h.withSession(h.back))
	b.Handle(&btnProduct, h.withSession(h.selectProduct))
	b.Handle(&btnProductPg, h.withSession(h.productPage))
	b.Handle(&btnStore, h.withSession(h.selectStore))
	b.Handle(&btnEdit, h.withSession(h.edit))
	b.Handle(&btnSubmit, h.withSession(func(c telebot.Context, sess *app.Session) error {
		return h.submit(ctx, c, sess)
	}))
	b.Handle(telebot.OnText, func(c telebot.Context) error { return h.text(ctx, c) })
	b.Handle(telebot.OnPhoto, h.receipt)
	b.Handle(telebot.OnDocument, h.receipt)
}

func (h *RegistrationHandlers) chatLogger(c telebot.Context) *logrus.Entry {
	return h.logger.WithFields(logrus.Fields{
		"chat_id":   c.Chat().ID,
		"sender_id": c.Sender().ID,
	})
}

func (h *RegistrationHandlers) start(ctx context.Context, c telebot.Context) error {
	h.awaiting.Delete(chatKey(c.Chat().ID))
	sess := h.registration.Start(ctx, c.Chat().ID)
	if len(sess.Catalog().Stores) == 0 {
		h.chatLogger(c).Warn("Form opened without store directory")
	}
	return h.sendView(c, sess)
}

func (h *RegistrationHandlers) cancel(c telebot.Context) error {
	h.registration.Discard(c.Chat().ID)
	h.awaiting.Delete(chatKey(c.Chat().ID))
	h.chatLogger(c).Info("Registration cancelled by user")
	return c.Send(msgFormExit)
}

// withSession resolves the session a button refers to. Presses on any form
// but the live one discard the chat's form.
func (h *RegistrationHandlers) withSession(fn func(telebot.Context, *app.Session) error) telebot.HandlerFunc {
	return func(c telebot.Context) error {
		args := c.Args()
		if len(args) == 0 {
			return c.Respond(&telebot.CallbackResponse{Text: msgStaleForm, ShowAlert: true})
		}
		sess, err := h.registration.Resume(c.Chat().ID, args[0])
		if err != nil {
			h.awaiting.Delete(chatKey(c.Chat().ID))
			if errors.Is(err, app.ErrSessionStale) {
				_ = c.Respond(&telebot.CallbackResponse{Text: msgStaleForm, ShowAlert: true})
				return c.Edit(msgStaleForm)
			}
			return err
		}
		return fn(c, sess)
	}
}

func (h *RegistrationHandlers) view(sess *app.Session) (string, *telebot.ReplyMarkup) {
	return h.viewPage(sess, -1)
}

// viewPage renders the current step. A negative product page shows the page
// holding the selected model.
func (h *RegistrationHandlers) viewPage(sess *app.Session, productPage int) (string, *telebot.ReplyMarkup) {
	view := sess.View()
	switch view.Visible {
	case registration.StepTerms:
		return termsText(view), termsMarkup(sess.ID, sess.Consents())
	case registration.StepVerify:
		f := sess.Form()
		return verifyText(view, f.Serial, f.Verification), navMarkup(sess.ID)
	default:
		f := sess.Form()
		cat := sess.Catalog()
		if productPage < 0 {
			productPage = productPageOf(cat, f.Details.Product)
		}
		return submitText(view, f), submitMarkup(sess.ID, cat, f.Details.Product, productPage)
	}
}

func (h *RegistrationHandlers) sendView(c telebot.Context, sess *app.Session) error {
	text, markup := h.view(sess)
	return c.Send(text, markup)
}

func (h *RegistrationHandlers) editView(c telebot.Context, sess *app.Session) error {
	return h.editViewPage(c, sess, -1)
}

func (h *RegistrationHandlers) editViewPage(c telebot.Context, sess *app.Session, productPage int) error {
	text, markup := h.viewPage(sess, productPage)
	err := c.Edit(text, markup)
	if errors.Is(err, telebot.ErrSameMessageContent) {
		return nil
	}
	return err
}

// respondInvalid shows a validation prompt as an alert on the button press.
func respondInvalid(c telebot.Context, err error) error {
	if ve, ok := app.AsValidation(err); ok {
		return c.Respond(&telebot.CallbackResponse{Text: ve.Message, ShowAlert: true})
	}
	return err
}

func (h *RegistrationHandlers) toggleConsent(c telebot.Context, sess *app.Session) error {
	args := c.Args()
	if len(args) < 2 {
		return c.Respond()
	}
	sess.ToggleConsent(app.ConsentKind(args[1]))
	_ = c.Respond()
	return h.editView(c, sess)
}

func (h *RegistrationHandlers) toggleAllConsents(c telebot.Context, sess *app.Session) error {
	value := true
	if args := c.Args(); len(args) > 1 {
		value, _ = strconv.ParseBool(args[1])
	}
	sess.SetAllConsents(value)
	_ = c.Respond()
	return h.editView(c, sess)
}

func (h *RegistrationHandlers) next(c telebot.Context, sess *app.Session) error {
	res, err := sess.Next()
	if err != nil {
		return respondInvalid(c, err)
	}
	h.chatLogger(c).WithField("step", res.Step.String()).Debug("Advanced to step")
	h.awaiting.Delete(chatKey(c.Chat().ID))
	_ = c.Respond()
	return h.editView(c, sess)
}

func (h *RegistrationHandlers) back(c telebot.Context, sess *app.Session) error {
	res, err := sess.Back()
	if err != nil {
		return respondInvalid(c, err)
	}
	_ = c.Respond()
	h.awaiting.Delete(chatKey(c.Chat().ID))
	if res.ExitToLanding {
		h.registration.Discard(c.Chat().ID)
		if isAbsoluteURL(h.landingURL) {
			return c.Edit(msgFormExit, linkMarkup("홈페이지로 이동", h.landingURL))
		}
		return c.Edit(msgFormExit)
	}
	return h.editView(c, sess)
}

func (h *RegistrationHandlers) selectProduct(c telebot.Context, sess *app.Session) error {
	args := c.Args()
	products := sess.Catalog().Products
	if len(args) < 2 {
		return c.Respond()
	}
	i, ok := parseIndex(args[1], len(products))
	if !ok {
		return c.Respond(&telebot.CallbackResponse{Text: registration.MsgProductRequired, ShowAlert: true})
	}
	if err := sess.SelectProduct(products[i]); err != nil {
		return respondInvalid(c, err)
	}
	_ = c.Respond()
	return h.editView(c, sess)
}

func (h *RegistrationHandlers) productPage(c telebot.Context, sess *app.Session) error {
	args := c.Args()
	if len(args) < 2 {
		return c.Respond()
	}
	page, ok := parseIndex(args[1], productPages(sess.Catalog()))
	if !ok {
		return c.Respond()
	}
	_ = c.Respond()
	return h.editViewPage(c, sess, page)
}

func (h *RegistrationHandlers) selectStore(c telebot.Context, sess *app.Session) error {
	args := c.Args()
	stores := sess.Catalog().Stores
	if len(args) < 2 {
		return c.Respond()
	}
	i, ok := parseIndex(args[1], len(stores))
	if !ok {
		return c.Respond(&telebot.CallbackResponse{Text: registration.MsgStoreRequired, ShowAlert: true})
	}
	if _, err := sess.SelectStore(stores[i].Name); err != nil {
		return respondInvalid(c, err)
	}
	h.awaiting.Delete(chatKey(c.Chat().ID))
	_ = c.Respond(&telebot.CallbackResponse{Text: stores[i].Name})
	_ = c.Delete()
	return h.sendView(c, sess)
}

func (h *RegistrationHandlers) edit(c telebot.Context, sess *app.Session) error {
	args := c.Args()
	if len(args) < 2 {
		return c.Respond()
	}
	field := inputField(args[1])
	h.awaiting.SetDefault(chatKey(c.Chat().ID), field)
	_ = c.Respond()
	return c.Send(promptFor(field))
}

// text routes a plain message to the field the form is waiting for.
func (h *RegistrationHandlers) text(ctx context.Context, c telebot.Context) error {
	text := strings.TrimSpace(c.Text())
	if strings.HasPrefix(text, "/") {
		return c.Send(helpText(false))
	}
	sess, err := h.registration.Current(c.Chat().ID)
	if err != nil {
		return c.Send(msgNoForm)
	}

	field := nextField(sess.Step(), sess.Form())
	if v, ok := h.awaiting.Get(chatKey(c.Chat().ID)); ok && sess.Step() == registration.StepSubmit {
		field = v.(inputField)
	}
	h.awaiting.Delete(chatKey(c.Chat().ID))

	switch field {
	case fieldSerial:
		return h.verifySerial(ctx, c, sess, text)
	case fieldName:
		if err := sess.SetName(text); err != nil {
			return h.sendInvalid(c, err)
		}
	case fieldPhone:
		if _, err := sess.SetPhone(text); err != nil {
			return h.sendInvalid(c, err)
		}
	case fieldStore:
		matches := sess.SearchStores(text)
		if len(matches) == 0 {
			h.awaiting.SetDefault(chatKey(c.Chat().ID), fieldStore)
			return c.Send(storeSearchText(text, matches))
		}
		return c.Send(storeSearchText(text, matches), storeMarkup(sess.ID, sess.Catalog(), matches))
	default:
		if sess.Step() == registration.StepSubmit && !sess.HasReceipt() {
			return c.Send(msgReceiptHint)
		}
		if sess.Step() == registration.StepSubmit {
			return c.Send(msgAllFilled)
		}
		return h.sendView(c, sess)
	}
	return h.sendView(c, sess)
}

func (h *RegistrationHandlers) sendInvalid(c telebot.Context, err error) error {
	if ve, ok := app.AsValidation(err); ok {
		return c.Send(ve.Message)
	}
	return err
}

// verifySerial runs the serial check, showing retry progress on a waiting
// message.
func (h *RegistrationHandlers) verifySerial(ctx context.Context, c telebot.Context, sess *app.Session, serial string) error {
	sess.SetSerial(serial)
	waiting, err := c.Bot().Send(c.Recipient(), registration.MsgVerifying)
	if err != nil {
		return err
	}
	rc := retry.NewContext(func(n retry.Notice) {
		if _, err := c.Bot().Edit(waiting, n.Text()); err != nil {
			h.chatLogger(c).WithError(err).Debug("Failed to update waiting message")
		}
	})

	state := sess.VerifySerial(ctx, serial, rc)
	h.chatLogger(c).WithFields(logrus.Fields{
		"serial":  serial,
		"status":  state.Status,
		"retries": rc.Retries,
	}).Info("Serial verification finished")

	text, markup := h.view(sess)
	if _, err := c.Bot().Edit(waiting, text, markup); err != nil {
		return c.Send(text, markup)
	}
	return nil
}

func (h *RegistrationHandlers) receipt(c telebot.Context) error {
	sess, err := h.registration.Current(c.Chat().ID)
	if err != nil || sess.Step() != registration.StepSubmit {
		return c.Send(msgNoForm)
	}

	var (
		file     *telebot.File
		fileName string
		mimeType string
	)
	if photo := c.Message().Photo; photo != nil {
		file, fileName, mimeType = &photo.File, "receipt.jpg", "image/jpeg"
	} else if doc := c.Message().Document; doc != nil {
		file, fileName, mimeType = &doc.File, doc.FileName, doc.MIME
	} else {
		return c.Send(msgReceiptHint)
	}
	if file.FileSize > registration.MaxReceiptSize {
		return c.Send(registration.MsgReceiptTooLarge)
	}

	data, err := downloadFile(c.Bot(), file)
	if err != nil {
		h.chatLogger(c).WithError(err).Error("Failed to download receipt")
		return c.Send(msgFileFailed)
	}
	if err := sess.AttachReceipt(&registration.Receipt{FileName: fileName, MimeType: mimeType, Data: data}); err != nil {
		return h.sendInvalid(c, err)
	}
	h.chatLogger(c).WithField("file_size", len(data)).Info("Receipt attached")
	return h.sendView(c, sess)
}

// downloadFile reads at most one byte more than the receipt limit so oversized
// files are rejected without reading them whole.
func downloadFile(b *telebot.Bot, file *telebot.File) ([]byte, error) {
	rc, err := b.File(file)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch file: %w", err)
	}
	defer rc.Close()
	data, err := io.ReadAll(io.LimitReader(rc, registration.MaxReceiptSize+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}
	return data, nil
}

func (h *RegistrationHandlers) submit(ctx context.Context, c telebot.Context, sess *app.Session) error {
	logCtx := h.chatLogger(c).WithField("session_id", sess.ID)
	if err := app.ValidateForm(sess.Form()); err != nil {
		return respondInvalid(c, err)
	}
	_ = c.Respond()

	waiting, err := c.Bot().Send(c.Recipient(), registration.MsgSubmitInFlight)
	if err != nil {
		return err
	}
	observer := func(n retry.Notice) {
		if _, err := c.Bot().Edit(waiting, n.Text()); err != nil {
			logCtx.WithError(err).Debug("Failed to update waiting message")
		}
	}

	outcome, err := h.registration.Submit(ctx, sess, observer)
	switch {
	case errors.Is(err, app.ErrSubmissionInFlight):
		_, err = c.Bot().Edit(waiting, registration.MsgSubmitInFlight)
		return err
	case err != nil:
		if ve, ok := app.AsValidation(err); ok {
			_, err = c.Bot().Edit(waiting, ve.Message)
			return err
		}
		logCtx.WithError(err).Error("Submission failed unexpectedly")
		_, err = c.Bot().Edit(waiting, registration.MsgSubmitHighTraffic)
		return err
	}

	if outcome.Succeeded() {
		h.awaiting.Delete(chatKey(c.Chat().ID))
		_ = c.Delete()
		if isAbsoluteURL(outcome.RedirectTo) {
			_, err = c.Bot().Edit(waiting, outcomeText(outcome), linkMarkup("등록 내역 확인", outcome.RedirectTo))
			return err
		}
	}
	_, err = c.Bot().Edit(waiting, outcomeText(outcome))
	return err
}

func chatKey(chatID int64) string {
	return strconv.FormatInt(chatID, 10)
}
