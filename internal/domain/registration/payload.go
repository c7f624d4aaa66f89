// internal/domain/registration/payload.go
package registration

// Consents are the terms checkboxes of the first step.
type Consents struct {
	Privacy    bool
	ThirdParty bool
	Transfer   bool
	Marketing  bool // optional
}

// All reports whether every consent, including the optional one, is given.
func (c Consents) All() bool {
	return c.Privacy && c.ThirdParty && c.Transfer && c.Marketing
}

// Receipt is the purchase receipt attachment as read from the user.
type Receipt struct {
	FileName string
	MimeType string
	Data     []byte
}

// Payload is the registration record sent to the backend.
// It is built once per submission attempt and never mutated afterwards.
type Payload struct {
	UserName         string `json:"userName"`
	UserPhone        string `json:"userPhone"`
	Product          string `json:"product"`
	StoreName        string `json:"storeName"`
	StoreCode        string `json:"storeCode"`
	SerialNo         string `json:"serialNo"`
	MarketingConsent bool   `json:"marketingConsent"`
	TransferConsent  bool   `json:"transferConsent"`
	FileName         string `json:"fileName"`
	MimeType         string `json:"mimeType"`
	FileData         string `json:"fileData"` // base64, no data-URL prefix
}
