package telegram

import (
	"fmt"
	"strconv"
	"strings"

	"gopkg.in/telebot.v3"

	"product_registration_bot/internal/app"
	"product_registration_bot/internal/domain/catalog"
	"product_registration_bot/internal/domain/registration"
)

// Callback endpoints. Every registration button carries the session ID as its
// first argument so presses on an old form can be told apart.
var (
	btnConsent    = telebot.Btn{Unique: "consent"}
	btnConsentAll = telebot.Btn{Unique: "consent_all"}
	btnNext       = telebot.Btn{Unique: "next"}
	btnBack       = telebot.Btn{Unique: "back"}
	btnProduct    = telebot.Btn{Unique: "product"}
	btnProductPg  = telebot.Btn{Unique: "product_page"}
	btnStore      = telebot.Btn{Unique: "store"}
	btnEdit       = telebot.Btn{Unique: "edit"}
	btnSubmit     = telebot.Btn{Unique: "submit"}
	btnPromo      = telebot.Btn{Unique: "promo"}
)

const (
	maxStoreSuggestions = 8
	productsPerPage     = 12
)

var consentLabels = []struct {
	kind  app.ConsentKind
	label string
}{
	{app.ConsentPrivacy, "개인정보 수집 및 이용 (필수)"},
	{app.ConsentThirdParty, "개인정보 제3자 제공 (필수)"},
	{app.ConsentTransfer, "개인정보 국외 이전 (필수)"},
	{app.ConsentMarketing, "마케팅 정보 수신 (선택)"},
}

func consentValue(c registration.Consents, kind app.ConsentKind) bool {
	switch kind {
	case app.ConsentPrivacy:
		return c.Privacy
	case app.ConsentThirdParty:
		return c.ThirdParty
	case app.ConsentTransfer:
		return c.Transfer
	case app.ConsentMarketing:
		return c.Marketing
	}
	return false
}

func checkbox(on bool) string {
	if on {
		return "☑"
	}
	return "☐"
}

// stepperText draws the step indicators as one line.
func stepperText(view app.StepView) string {
	parts := make([]string, 0, len(view.Indicators))
	for _, ind := range view.Indicators {
		mark := "○"
		switch ind.Status {
		case registration.IndicatorActive:
			mark = "●"
		case registration.IndicatorComplete:
			mark = "✔"
		}
		parts = append(parts, mark+" "+ind.Step.Title())
	}
	return strings.Join(parts, " ─ ")
}

func termsText(view app.StepView) string {
	return stepperText(view) + "\n\n제품 등록을 위해 아래 약관에 동의해주세요."
}

func termsMarkup(sessionID string, c registration.Consents) *telebot.ReplyMarkup {
	m := &telebot.ReplyMarkup{}
	rows := make([]telebot.Row, 0, len(consentLabels)+2)
	for _, cl := range consentLabels {
		label := checkbox(consentValue(c, cl.kind)) + " " + cl.label
		rows = append(rows, m.Row(m.Data(label, btnConsent.Unique, sessionID, string(cl.kind))))
	}
	all := c.All()
	rows = append(rows,
		m.Row(m.Data(checkbox(all)+" 전체 동의", btnConsentAll.Unique, sessionID, strconv.FormatBool(!all))),
		m.Row(m.Data("◀ 이전", btnBack.Unique, sessionID), m.Data("다음 ▶", btnNext.Unique, sessionID)),
	)
	m.Inline(rows...)
	return m
}

func verifyText(view app.StepView, serial string, state registration.VerificationState) string {
	var b strings.Builder
	b.WriteString(stepperText(view))
	b.WriteString("\n\n차대번호(제품 번호)를 메시지로 보내주세요.")
	if serial != "" {
		fmt.Fprintf(&b, "\n\n입력한 번호: %s", serial)
	}
	if state.Message != "" {
		b.WriteString("\n")
		b.WriteString(state.Message)
	}
	return b.String()
}

func navMarkup(sessionID string) *telebot.ReplyMarkup {
	m := &telebot.ReplyMarkup{}
	m.Inline(m.Row(m.Data("◀ 이전", btnBack.Unique, sessionID), m.Data("다음 ▶", btnNext.Unique, sessionID)))
	return m
}

func valueOr(v, missing string) string {
	if v == "" {
		return missing
	}
	return v
}

func submitText(view app.StepView, f app.SubmissionForm) string {
	const missing = "(미입력)"
	receipt := missing
	if f.Receipt != nil {
		receipt = valueOr(f.Receipt.FileName, "첨부됨")
	}
	store := missing
	if f.Details.StoreName != "" {
		store = f.Details.StoreName + " [" + f.Details.StoreCode + "]"
	}

	var b strings.Builder
	b.WriteString(stepperText(view))
	b.WriteString("\n\n구매 정보를 입력해주세요.\n")
	fmt.Fprintf(&b, "\n차대번호: %s", f.Serial)
	fmt.Fprintf(&b, "\n이름: %s", valueOr(f.Details.UserName, missing))
	fmt.Fprintf(&b, "\n연락처: %s", valueOr(f.Details.UserPhone, missing))
	fmt.Fprintf(&b, "\n모델: %s", valueOr(f.Details.Product, missing))
	fmt.Fprintf(&b, "\n구입 매장: %s", store)
	fmt.Fprintf(&b, "\n영수증: %s", receipt)
	if prompt := promptFor(nextField(registration.StepSubmit, f)); prompt != "" {
		b.WriteString("\n\n")
		b.WriteString(prompt)
	}
	return b.String()
}

// productPageOf is the page holding the selected product, or the first one.
func productPageOf(cat *catalog.Catalog, selected string) int {
	for i, p := range cat.Products {
		if p == selected {
			return i / productsPerPage
		}
	}
	return 0
}

func productPages(cat *catalog.Catalog) int {
	return (len(cat.Products) + productsPerPage - 1) / productsPerPage
}

func submitMarkup(sessionID string, cat *catalog.Catalog, selected string, page int) *telebot.ReplyMarkup {
	m := &telebot.ReplyMarkup{}
	var rows []telebot.Row

	pages := productPages(cat)
	if page < 0 || page >= pages {
		page = 0
	}
	start := page * productsPerPage
	end := min(start+productsPerPage, len(cat.Products))

	var products []telebot.Btn
	for i := start; i < end; i++ {
		p := cat.Products[i]
		label := p
		if p == selected {
			label = "● " + p
		}
		products = append(products, m.Data(label, btnProduct.Unique, sessionID, strconv.Itoa(i)))
	}
	rows = append(rows, m.Split(3, products)...)

	if pages > 1 {
		var nav []telebot.Btn
		if page > 0 {
			nav = append(nav, m.Data("◀ 모델", btnProductPg.Unique, sessionID, strconv.Itoa(page-1)))
		}
		nav = append(nav, m.Data(fmt.Sprintf("%d/%d", page+1, pages), btnProductPg.Unique, sessionID, strconv.Itoa(page)))
		if page < pages-1 {
			nav = append(nav, m.Data("모델 ▶", btnProductPg.Unique, sessionID, strconv.Itoa(page+1)))
		}
		rows = append(rows, m.Row(nav...))
	}

	rows = append(rows,
		m.Row(
			m.Data("이름 수정", btnEdit.Unique, sessionID, string(fieldName)),
			m.Data("연락처 수정", btnEdit.Unique, sessionID, string(fieldPhone)),
			m.Data("매장 검색", btnEdit.Unique, sessionID, string(fieldStore)),
		),
		m.Row(m.Data("◀ 이전", btnBack.Unique, sessionID), m.Data("등록하기", btnSubmit.Unique, sessionID)),
	)
	m.Inline(rows...)
	return m
}

// storeMarkup lists the matches as buttons referring to their position in
// the catalog.
func storeMarkup(sessionID string, cat *catalog.Catalog, matches []catalog.Store) *telebot.ReplyMarkup {
	m := &telebot.ReplyMarkup{}
	var rows []telebot.Row
	for _, store := range matches {
		if len(rows) == maxStoreSuggestions {
			break
		}
		idx := storePosition(cat, store)
		if idx < 0 {
			continue
		}
		rows = append(rows, m.Row(m.Data(store.Label(), btnStore.Unique, sessionID, strconv.Itoa(idx))))
	}
	m.Inline(rows...)
	return m
}

func storePosition(cat *catalog.Catalog, store catalog.Store) int {
	for i, s := range cat.Stores {
		if s.Name == store.Name && s.Code == store.Code {
			return i
		}
	}
	return -1
}

func storeSearchText(keyword string, matches []catalog.Store) string {
	if len(matches) == 0 {
		return fmt.Sprintf("'%s'에 해당하는 매장이 없습니다. 다른 검색어를 입력해주세요.", keyword)
	}
	text := fmt.Sprintf("'%s' 검색 결과 %d건입니다. 구입하신 매장을 선택해주세요.", keyword, len(matches))
	if len(matches) > maxStoreSuggestions {
		text += fmt.Sprintf("\n(상위 %d건만 표시됩니다. 검색어를 더 자세히 입력해주세요.)", maxStoreSuggestions)
	}
	return text
}

func cardText(card app.Card) string {
	var b strings.Builder
	fmt.Fprintf(&b, "[%d/%d] %s\n", card.Index, card.Total, valueOr(card.Record.Product, "-"))
	fmt.Fprintf(&b, "차대번호: %s\n", valueOr(card.Record.Serial, "-"))
	fmt.Fprintf(&b, "등록일: %s\n", card.DateText)
	fmt.Fprintf(&b, "구입 매장: %s\n", valueOr(card.Record.Store, "-"))
	fmt.Fprintf(&b, "\n%s년형 보증 기간", card.Year)
	if card.Special {
		b.WriteString(" (특별 연장)")
	}
	fmt.Fprintf(&b, "\n프레임: %s\n모터: %s\n컨트롤러: %s", card.Terms.Frame, card.Terms.Motor, card.Terms.Controller)
	if card.Offer != nil {
		fmt.Fprintf(&b, "\n\n🎁 구매 고객 혜택이 %d일 남았습니다.", card.Offer.DaysLeft)
	}
	return b.String()
}

func promoMarkup(index int) *telebot.ReplyMarkup {
	m := &telebot.ReplyMarkup{}
	m.Inline(m.Row(m.Data("혜택 보러가기", btnPromo.Unique, strconv.Itoa(index))))
	return m
}

func linkMarkup(label, link string) *telebot.ReplyMarkup {
	m := &telebot.ReplyMarkup{}
	m.Inline(m.Row(m.URL(label, link)))
	return m
}

// isAbsoluteURL reports whether link can be used on a URL button.
func isAbsoluteURL(link string) bool {
	return strings.HasPrefix(link, "https://") || strings.HasPrefix(link, "http://")
}

func outcomeText(o registration.SubmissionOutcome) string {
	if o.Succeeded() && o.RedirectTo != "" && !isAbsoluteURL(o.RedirectTo) {
		return o.Message + "\n" + o.RedirectTo
	}
	return o.Message
}

func journalText(serial string, entries []*registration.JournalEntry) string {
	if len(entries) == 0 {
		return fmt.Sprintf("차대번호 %s 의 등록 기록이 없습니다.", serial)
	}
	var b strings.Builder
	fmt.Fprintf(&b, "--- %s 등록 기록 (%d건) ---\n", serial, len(entries))
	for _, e := range entries {
		fmt.Fprintf(&b, "%s %s 재시도 %d회", e.CreatedAt.Format("2006-01-02 15:04"), e.Outcome, e.Retries)
		if e.Reconciled {
			b.WriteString(" (중복 응답 보정)")
		}
		fmt.Fprintf(&b, " / %s / %s", e.StoreCode, e.UserName)
		if e.Message != "" && e.Outcome == registration.OutcomeFailure {
			fmt.Fprintf(&b, "\n  사유: %s", strings.ReplaceAll(e.Message, "\n", " "))
		}
		b.WriteString("\n")
	}
	return b.String()
}

// parseIndex reads a button's position argument.
func parseIndex(arg string, n int) (int, bool) {
	i, err := strconv.Atoi(arg)
	if err != nil || i < 0 || i >= n {
		return 0, false
	}
	return i, true
}
