// internal/domain/warranty/record.go
package warranty

import (
	"context"

	"product_registration_bot/internal/domain/retry"
)

// Record is a registration as returned by the backend search.
type Record struct {
	ID        string `json:"id"`
	RegID     string `json:"regId,omitempty"`
	Name      string `json:"name"`
	Phone     string `json:"phone"`
	Product   string `json:"product"`
	Serial    string `json:"serial"`
	Date      string `json:"date"`
	Store     string `json:"store"`
	StoreCode string `json:"storeCode,omitempty"`
	Year      string `json:"year,omitempty"` // model year; the backend rewrites it for special extensions
	IsSpecial bool   `json:"isSpecial,omitempty"`
	IsCredit  bool   `json:"isCredit,omitempty"`
	StoreLink string `json:"storeLink,omitempty"`
}

// RegistrationID is the identifier reported in click logs.
func (r Record) RegistrationID() string {
	if r.RegID != "" {
		return r.RegID
	}
	return r.ID
}

// SearchResult is the backend's answer to a search by name and phone.
type SearchResult struct {
	Status string   `json:"status"`
	Data   []Record `json:"data,omitempty"`
}

func (s *SearchResult) Found() bool {
	return s.Status == "success"
}

// ClickEvent is the fire-and-forget log sent when a promo link is followed.
type ClickEvent struct {
	Type      string `json:"type"`
	Name      string `json:"name"`
	Phone     string `json:"phone"`
	RegID     string `json:"regId"`
	StoreName string `json:"storeName"`
	StoreCode string `json:"storeCode"`
	Model     string `json:"model"`
}

// ClickEventType is the backend's discriminator for click logs.
const ClickEventType = "log_click"

// NewClickEvent builds the click log for a record.
func NewClickEvent(r Record) ClickEvent {
	return ClickEvent{
		Type:      ClickEventType,
		Name:      r.Name,
		Phone:     r.Phone,
		RegID:     r.RegistrationID(),
		StoreName: r.Store,
		StoreCode: r.StoreCode,
		Model:     r.Product,
	}
}

// Registry is the lookup side of the backend API.
type Registry interface {
	Search(ctx context.Context, name, phone string, rc *retry.Context) (*SearchResult, error)
	LogClick(ctx context.Context, ev ClickEvent, rc *retry.Context) error
}
