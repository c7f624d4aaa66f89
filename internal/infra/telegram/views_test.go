package telegram

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/telebot.v3"

	"product_registration_bot/internal/app"
	"product_registration_bot/internal/domain/catalog"
	"product_registration_bot/internal/domain/registration"
	"product_registration_bot/internal/domain/warranty"
)

const testSessionID = "6f1c2d3e-0000-4000-8000-000000000001"

func TestStepperText(t *testing.T) {
	assert.Equal(t, "✔ 약관 동의 ─ ● 차대번호 확인 ─ ○ 정보 입력", stepperText(app.Render(registration.StepVerify)))
	assert.Equal(t, "● 약관 동의 ─ ○ 차대번호 확인 ─ ○ 정보 입력", stepperText(app.Render(registration.StepTerms)))
}

func TestTermsMarkup(t *testing.T) {
	m := termsMarkup(testSessionID, registration.Consents{Privacy: true})
	require.Len(t, m.InlineKeyboard, 6)

	first := m.InlineKeyboard[0][0]
	assert.Equal(t, "☑ 개인정보 수집 및 이용 (필수)", first.Text)
	assert.Equal(t, btnConsent.Unique, first.Unique)
	assert.Equal(t, testSessionID+"|privacy", first.Data)
	assert.Equal(t, "☐ 개인정보 제3자 제공 (필수)", m.InlineKeyboard[1][0].Text)

	all := m.InlineKeyboard[4][0]
	assert.Equal(t, "☐ 전체 동의", all.Text)
	assert.Contains(t, all.Data, "|true")

	for _, row := range m.InlineKeyboard {
		for _, btn := range row {
			assert.LessOrEqual(t, len(callbackData(btn)), 64, "callback data limit")
		}
	}
}

// callbackData is what telebot puts on the wire for an inline button.
func callbackData(btn telebot.InlineButton) string {
	return "\f" + btn.Unique + "|" + btn.Data
}

func TestNextField(t *testing.T) {
	f := app.SubmissionForm{}
	assert.Equal(t, fieldSerial, nextField(registration.StepVerify, f))
	assert.Equal(t, fieldNone, nextField(registration.StepTerms, f))
	assert.Equal(t, fieldName, nextField(registration.StepSubmit, f))

	f.Details.UserName = "홍길동"
	assert.Equal(t, fieldPhone, nextField(registration.StepSubmit, f))
	f.Details.UserPhone = "010-1234-5678"
	assert.Equal(t, fieldStore, nextField(registration.StepSubmit, f))
	f.Details.StoreCode = "S001"
	assert.Equal(t, fieldNone, nextField(registration.StepSubmit, f))
}

func TestSubmitText_ShowsMissingFields(t *testing.T) {
	f := app.SubmissionForm{
		Serial:  "AB123",
		Details: app.Details{UserName: "홍길동", Product: "XR-1"},
	}
	text := submitText(app.Render(registration.StepSubmit), f)
	assert.Contains(t, text, "차대번호: AB123")
	assert.Contains(t, text, "이름: 홍길동")
	assert.Contains(t, text, "연락처: (미입력)")
	assert.Contains(t, text, "영수증: (미입력)")
	assert.Contains(t, text, registration.MsgPhoneRequired)
}

func TestStoreMarkup(t *testing.T) {
	cat := &catalog.Catalog{Stores: []catalog.Store{
		{Name: "강남점", Code: "S001", Agency: "서울대리점"},
		{Name: "부산점", Code: "S003"},
	}}
	m := storeMarkup(testSessionID, cat, []catalog.Store{cat.Stores[1], cat.Stores[0]})
	require.Len(t, m.InlineKeyboard, 2)
	assert.Equal(t, "부산점", m.InlineKeyboard[0][0].Text)
	assert.Equal(t, btnStore.Unique, m.InlineKeyboard[0][0].Unique)
	assert.Equal(t, testSessionID+"|1", m.InlineKeyboard[0][0].Data)
	assert.Equal(t, "강남점 (서울대리점)", m.InlineKeyboard[1][0].Text)
}

func TestSubmitMarkup_MarksSelectedProduct(t *testing.T) {
	cat := &catalog.Catalog{Products: []string{"XR-1", "XR-2"}}
	m := submitMarkup(testSessionID, cat, "XR-2", 0)
	require.NotEmpty(t, m.InlineKeyboard)
	assert.Equal(t, "XR-1", m.InlineKeyboard[0][0].Text)
	assert.Equal(t, "● XR-2", m.InlineKeyboard[0][1].Text)
	for _, row := range m.InlineKeyboard {
		for _, btn := range row {
			assert.NotEqual(t, btnProductPg.Unique, btn.Unique, "single page has no paging row")
		}
	}
}

func TestSubmitMarkup_PagesProducts(t *testing.T) {
	cat := &catalog.Catalog{}
	for i := 1; i <= 14; i++ {
		cat.Products = append(cat.Products, fmt.Sprintf("XR-%d", i))
	}
	assert.Equal(t, 2, productPages(cat))
	assert.Equal(t, 1, productPageOf(cat, "XR-14"))
	assert.Equal(t, 0, productPageOf(cat, "unknown"))

	m := submitMarkup(testSessionID, cat, "XR-14", 1)
	// two products, the paging row, edit row, nav row
	require.Len(t, m.InlineKeyboard, 4)
	assert.Equal(t, "XR-13", m.InlineKeyboard[0][0].Text)
	assert.Equal(t, testSessionID+"|12", m.InlineKeyboard[0][0].Data)
	assert.Equal(t, "● XR-14", m.InlineKeyboard[0][1].Text)

	paging := m.InlineKeyboard[1]
	require.Len(t, paging, 2)
	assert.Equal(t, btnProductPg.Unique, paging[0].Unique)
	assert.Equal(t, testSessionID+"|0", paging[0].Data)
	assert.Equal(t, "2/2", paging[1].Text)

	first := submitMarkup(testSessionID, cat, "", 0)
	require.Len(t, first.InlineKeyboard, 7)
	assert.Equal(t, "모델 ▶", first.InlineKeyboard[4][1].Text)
	assert.Equal(t, testSessionID+"|1", first.InlineKeyboard[4][1].Data)

	for _, row := range first.InlineKeyboard {
		for _, btn := range row {
			assert.LessOrEqual(t, len(callbackData(btn)), 64, "callback data limit")
		}
	}
}

func TestCardText(t *testing.T) {
	card := app.Card{
		Index: 2, Total: 3,
		Record:   warranty.Record{Product: "XR-1", Serial: "AB123", Store: "강남점"},
		Year:     "2026",
		Terms:    warranty.Terms{Frame: "2년", Motor: "1년", Controller: "6개월"},
		Special:  true,
		DateText: "2026-03-15",
		Offer:    &warranty.Offer{DaysLeft: 5},
	}
	text := cardText(card)
	assert.Contains(t, text, "[2/3] XR-1")
	assert.Contains(t, text, "2026년형 보증 기간 (특별 연장)")
	assert.Contains(t, text, "프레임: 2년")
	assert.Contains(t, text, "5일 남았습니다")
}

func TestOutcomeText(t *testing.T) {
	o := registration.SubmissionOutcome{Kind: registration.OutcomeSuccess, Message: "완료", RedirectTo: "./product_check.html?name=a"}
	assert.Equal(t, "완료\n./product_check.html?name=a", outcomeText(o))

	o.RedirectTo = "https://example.com/check"
	assert.Equal(t, "완료", outcomeText(o))

	o = registration.SubmissionOutcome{Kind: registration.OutcomeFailure, Message: "실패"}
	assert.Equal(t, "실패", outcomeText(o))
}

func TestJournalText(t *testing.T) {
	assert.Contains(t, journalText("AB123", nil), "기록이 없습니다")

	text := journalText("AB123", []*registration.JournalEntry{
		{Outcome: registration.OutcomeSuccess, Reconciled: true, Retries: 1, StoreCode: "S001", CreatedAt: time.Date(2026, 3, 1, 9, 30, 0, 0, time.UTC)},
		{Outcome: registration.OutcomeFailure, Retries: 5, Message: "접속자가 많아\n실패", CreatedAt: time.Date(2026, 2, 28, 9, 30, 0, 0, time.UTC)},
	})
	assert.Contains(t, text, "(2건)")
	assert.Contains(t, text, "2026-03-01 09:30 SUCCESS 재시도 1회 (중복 응답 보정)")
	assert.Contains(t, text, "사유: 접속자가 많아 실패")
}

func TestParseLookupArgs(t *testing.T) {
	name, phone, ok := parseLookupArgs([]string{"홍길동", "01012345678"})
	require.True(t, ok)
	assert.Equal(t, "홍길동", name)
	assert.Equal(t, "010-1234-5678", phone)

	name, _, ok = parseLookupArgs([]string{"John", "Smith", "010-1234-5678"})
	require.True(t, ok)
	assert.Equal(t, "John Smith", name)

	_, _, ok = parseLookupArgs([]string{"홍길동"})
	assert.False(t, ok)
	_, _, ok = parseLookupArgs([]string{"홍길동", "phone"})
	assert.False(t, ok)
}

func TestParseIndex(t *testing.T) {
	i, ok := parseIndex("1", 2)
	assert.True(t, ok)
	assert.Equal(t, 1, i)

	for _, arg := range []string{"2", "-1", "x", ""} {
		_, ok := parseIndex(arg, 2)
		assert.False(t, ok, arg)
	}
}
