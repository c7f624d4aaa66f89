package app

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"product_registration_bot/internal/domain/warranty"
	"product_registration_bot/internal/infra/logger"
)

func newTestLookup(reg *fakeRegistry, now time.Time) *LookupService {
	svc := NewLookupService(reg, warranty.DefaultPolicy(), logger.Discard())
	svc.location = time.UTC
	svc.now = func() time.Time { return now }
	return svc
}

func TestLookup_RequiresBothFields(t *testing.T) {
	svc := newTestLookup(&fakeRegistry{}, time.Now())

	_, err := svc.Search(context.Background(), "홍길동", " ", nil)
	ve, ok := AsValidation(err)
	require.True(t, ok)
	assert.Equal(t, MsgLookupFieldsRequired, ve.Message)
}

func TestLookup_NoRegistrations(t *testing.T) {
	svc := newTestLookup(&fakeRegistry{searchRes: &warranty.SearchResult{Status: "fail"}}, time.Now())
	_, err := svc.Search(context.Background(), "홍길동", "010-1234-5678", nil)
	assert.ErrorIs(t, err, ErrNoRegistrations)

	svc = newTestLookup(&fakeRegistry{searchRes: &warranty.SearchResult{Status: "success"}}, time.Now())
	_, err = svc.Search(context.Background(), "홍길동", "010-1234-5678", nil)
	assert.ErrorIs(t, err, ErrNoRegistrations)
}

func TestLookup_BackendUnavailable(t *testing.T) {
	svc := newTestLookup(&fakeRegistry{searchErr: errUnreachable}, time.Now())
	_, err := svc.Search(context.Background(), "홍길동", "010-1234-5678", nil)
	assert.ErrorIs(t, err, ErrLookupUnavailable)
}

func TestLookup_CardsAndCoverage(t *testing.T) {
	now := time.Date(2026, 3, 20, 0, 0, 0, 0, time.UTC)
	reg := &fakeRegistry{searchRes: &warranty.SearchResult{
		Status: "success",
		Data: []warranty.Record{
			{ID: "r1", Product: "XR-1", Date: "2026-03-15", Year: "2026"},
			{ID: "r2", Product: "XR-0", Date: "2025-06-01T09:00:00Z", Year: "2025"},
			{ID: "r3", Product: "XR-9", Date: "not a date", Year: "2019"},
		},
	}}
	svc := newTestLookup(reg, now)

	cards, err := svc.Search(context.Background(), "홍길동", "010-1234-5678", nil)
	require.NoError(t, err)
	require.Len(t, cards, 3)

	assert.Equal(t, 3, cards[0].Index)
	assert.Equal(t, 1, cards[2].Index)
	assert.Equal(t, 3, cards[0].Total)

	assert.Equal(t, warranty.Terms{Frame: "2년", Motor: "1년", Controller: "6개월"}, cards[0].Terms)
	assert.Equal(t, "2026-03-15", cards[0].DateText)
	require.NotNil(t, cards[0].Offer)
	assert.Equal(t, 10, cards[0].Offer.DaysLeft)

	assert.Equal(t, warranty.Terms{Frame: "1년", Motor: "6개월", Controller: "6개월"}, cards[1].Terms)
	assert.Nil(t, cards[1].Offer, "promotion only applies to the promo year")

	assert.Equal(t, "-", cards[2].DateText)
	assert.Equal(t, warranty.DefaultPolicy().TermsFor("2026"), cards[2].Terms, "unknown year falls back")
	assert.Nil(t, cards[2].Offer)
}

func TestLookup_OfferExpires(t *testing.T) {
	svc := newTestLookup(&fakeRegistry{}, time.Time{})
	registered := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	rec := warranty.Record{ID: "r1", Date: "2026-03-01", Year: "2026"}

	card := svc.Card(rec, 1, 1, registered.Add(14*24*time.Hour))
	require.NotNil(t, card.Offer)
	assert.Equal(t, 1, card.Offer.DaysLeft)

	card = svc.Card(rec, 1, 1, registered.Add(14*24*time.Hour+time.Minute))
	assert.Nil(t, card.Offer)
}

func TestLookup_FollowPromo(t *testing.T) {
	now := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)
	reg := &fakeRegistry{clickErr: errUnreachable}
	svc := newTestLookup(reg, now)

	dealer := svc.Card(warranty.Record{
		ID: "r1", RegID: "REG-1", Date: "2026-03-01", Year: "2026",
		IsCredit: true, StoreLink: "https://dealer.example.com/buy",
	}, 1, 1, now)
	assert.Equal(t, "https://dealer.example.com/buy", svc.FollowPromo(context.Background(), dealer))

	headOffice := svc.Card(warranty.Record{ID: "r2", Date: "2026-03-01", Year: "2026"}, 1, 1, now)
	assert.Equal(t, warranty.DefaultPolicy().HeadOfficeLink, svc.FollowPromo(context.Background(), headOffice))

	require.Len(t, reg.clicks, 2)
	assert.Equal(t, warranty.ClickEventType, reg.clicks[0].Type)
	assert.Equal(t, "REG-1", reg.clicks[0].RegID)
	assert.Equal(t, "r2", reg.clicks[1].RegID)
}

func TestParseRecordDate(t *testing.T) {
	for _, v := range []string{"2026-03-01", "2026/03/01", "2026.03.01", "2026-03-01 10:00:00", "2026-03-01T10:00:00Z"} {
		got, ok := parseRecordDate(v, time.UTC)
		require.True(t, ok, v)
		assert.Equal(t, "2026-03-01", got.Format("2006-01-02"), v)
	}
	_, ok := parseRecordDate("", time.UTC)
	assert.False(t, ok)
}

func TestParseRecordDate_DateOnlyIsUTC(t *testing.T) {
	seoul := time.FixedZone("KST", 9*60*60)

	got, ok := parseRecordDate("2026-01-05", seoul)
	require.True(t, ok)
	assert.True(t, got.Equal(time.Date(2026, 1, 5, 0, 0, 0, 0, time.UTC)))

	got, ok = parseRecordDate("2026/01/05", seoul)
	require.True(t, ok)
	assert.True(t, got.Equal(time.Date(2026, 1, 5, 0, 0, 0, 0, seoul)))
}

func TestLookup_DaysLeftFromUTCDate(t *testing.T) {
	seoul := time.FixedZone("KST", 9*60*60)
	svc := newTestLookup(&fakeRegistry{}, time.Time{})
	svc.location = seoul
	rec := warranty.Record{ID: "r1", Date: "2026-03-01", Year: "2026"}

	// 23.5 hours after UTC midnight, so still day one.
	now := time.Date(2026, 3, 2, 8, 30, 0, 0, seoul)
	card := svc.Card(rec, 1, 1, now)
	assert.Equal(t, "2026-03-01", card.DateText)
	require.NotNil(t, card.Offer)
	assert.Equal(t, 14, card.Offer.DaysLeft)
}
