// internal/domain/warranty/policy.go
package warranty

import "time"

// Terms are the coverage periods of one model year.
type Terms struct {
	Frame      string `yaml:"frame"`
	Motor      string `yaml:"motor"`
	Controller string `yaml:"controller"`
}

// Policy decides warranty terms and promotional offers.
type Policy struct {
	DefaultYear    string           `yaml:"default_year"`
	Years          map[string]Terms `yaml:"years"`
	PromoYear      string           `yaml:"promo_year"`
	PromoWindow    int              `yaml:"promo_window_days"`
	HeadOfficeLink string           `yaml:"head_office_link"`
}

// DefaultPolicy is the coverage table in force for the 2025 and 2026 lineups.
func DefaultPolicy() Policy {
	return Policy{
		DefaultYear: "2026",
		Years: map[string]Terms{
			"2026": {Frame: "2년", Motor: "1년", Controller: "6개월"},
			"2025": {Frame: "1년", Motor: "6개월", Controller: "6개월"},
		},
		PromoYear:      "2026",
		PromoWindow:    14,
		HeadOfficeLink: "https://www.qualisports.kr/product/detail.html?product_no=4644",
	}
}

// YearOf returns the model year of a record, falling back to the default.
func (p Policy) YearOf(r Record) string {
	if r.Year != "" {
		return r.Year
	}
	return p.DefaultYear
}

// TermsFor returns the coverage for a model year. Unknown years get the
// default year's coverage.
func (p Policy) TermsFor(year string) Terms {
	if t, ok := p.Years[year]; ok {
		return t
	}
	return p.Years[p.DefaultYear]
}

// Offer is a time-boxed purchase promotion attached to a registration.
type Offer struct {
	Link     string
	DaysLeft int
}

const day = 24 * time.Hour

// ElapsedDays is the absolute distance between the registration date and now,
// rounded up to whole days.
func ElapsedDays(registered, now time.Time) int {
	d := now.Sub(registered)
	if d < 0 {
		d = -d
	}
	days := int(d / day)
	if d%day != 0 {
		days++
	}
	return days
}

// OfferFor returns the promotion for a record, if it still qualifies.
func (p Policy) OfferFor(r Record, registered, now time.Time) (Offer, bool) {
	if p.YearOf(r) != p.PromoYear {
		return Offer{}, false
	}
	elapsed := ElapsedDays(registered, now)
	if elapsed > p.PromoWindow {
		return Offer{}, false
	}
	link := p.HeadOfficeLink
	if r.IsCredit && r.StoreLink != "" {
		link = r.StoreLink
	}
	return Offer{Link: link, DaysLeft: p.PromoWindow + 1 - elapsed}, true
}
