package app

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"product_registration_bot/internal/domain/retry"
	"product_registration_bot/internal/domain/warranty"
)

// MsgLookupFieldsRequired prompts for the search inputs.
const MsgLookupFieldsRequired = "이름과 연락처를 모두 입력해주세요."

// ISO date-only values are UTC midnight, the way the lookup page reads them.
// The other zone-less layouts are local time.
var recordDateLayouts = []struct {
	layout string
	utc    bool
}{
	{time.RFC3339Nano, false},
	{time.RFC3339, false},
	{"2006-01-02 15:04:05", false},
	{"2006-01-02", true},
	{"2006/01/02", false},
	{"2006.01.02", false},
}

// Card is one registration as shown on the lookup page.
type Card struct {
	Index    int // newest first: n, n-1, ... 1
	Total    int
	Record   warranty.Record
	Year     string
	Terms    warranty.Terms
	Special  bool
	DateText string
	Offer    *warranty.Offer
}

// LookupService searches past registrations and derives warranty coverage.
type LookupService struct {
	registry warranty.Registry
	policy   warranty.Policy
	location *time.Location
	now      func() time.Time
	logger   *logrus.Entry
}

func NewLookupService(registry warranty.Registry, policy warranty.Policy, logger *logrus.Entry) *LookupService {
	return &LookupService{
		registry: registry,
		policy:   policy,
		location: time.Local,
		now:      time.Now,
		logger:   logger,
	}
}

// Search returns the cards for every registration of name and phone.
func (s *LookupService) Search(ctx context.Context, name, phone string, rc *retry.Context) ([]Card, error) {
	name, phone = strings.TrimSpace(name), strings.TrimSpace(phone)
	if name == "" || phone == "" {
		return nil, invalid("name", MsgLookupFieldsRequired)
	}

	res, err := s.registry.Search(ctx, name, phone, rc)
	if err != nil {
		s.logger.WithError(err).Warn("Registration search failed")
		return nil, fmt.Errorf("%w: %v", ErrLookupUnavailable, err)
	}
	if !res.Found() || len(res.Data) == 0 {
		return nil, ErrNoRegistrations
	}

	now := s.now()
	cards := make([]Card, 0, len(res.Data))
	for i, rec := range res.Data {
		cards = append(cards, s.Card(rec, len(res.Data)-i, len(res.Data), now))
	}
	s.logger.WithField("count", len(cards)).Info("Registrations found")
	return cards, nil
}

// Card derives coverage and promotion for one record as of now.
func (s *LookupService) Card(rec warranty.Record, index, total int, now time.Time) Card {
	year := s.policy.YearOf(rec)
	card := Card{
		Index:    index,
		Total:    total,
		Record:   rec,
		Year:     year,
		Terms:    s.policy.TermsFor(year),
		Special:  rec.IsSpecial,
		DateText: "-",
	}
	registered, ok := parseRecordDate(rec.Date, s.location)
	if !ok {
		return card
	}
	card.DateText = registered.In(s.location).Format("2006-01-02")
	if offer, ok := s.policy.OfferFor(rec, registered, now); ok {
		card.Offer = &offer
	}
	return card
}

// FollowPromo logs the click and returns the offer link. The link is returned
// whatever happens to the log.
func (s *LookupService) FollowPromo(ctx context.Context, card Card) string {
	link := s.policy.HeadOfficeLink
	if card.Offer != nil {
		link = card.Offer.Link
	}
	if err := s.registry.LogClick(ctx, warranty.NewClickEvent(card.Record), retry.NewContext(nil)); err != nil {
		s.logger.WithError(err).WithField("reg_id", card.Record.RegistrationID()).Warn("Promo click log failed")
	}
	return link
}

func parseRecordDate(v string, loc *time.Location) (time.Time, bool) {
	v = strings.TrimSpace(v)
	if v == "" {
		return time.Time{}, false
	}
	for _, l := range recordDateLayouts {
		in := loc
		if l.utc {
			in = time.UTC
		}
		if t, err := time.ParseInLocation(l.layout, v, in); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
