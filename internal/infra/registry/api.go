package registry

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/santhosh-tekuri/jsonschema/v5"
	"github.com/sirupsen/logrus"

	"product_registration_bot/internal/domain/catalog"
	"product_registration_bot/internal/domain/registration"
	"product_registration_bot/internal/domain/retry"
	"product_registration_bot/internal/domain/warranty"
)

// Policies are the retry budgets of each backend call.
type Policies struct {
	Catalog retry.Policy
	Check   retry.Policy
	Search  retry.Policy
	Submit  retry.Policy
	Click   retry.Policy
}

// DefaultPolicies mirror what the web form uses. Submissions get the largest
// budget because a user who reached that step should not lose the form.
func DefaultPolicies() Policies {
	return Policies{
		Catalog: retry.Policy{MaxRetries: 3, InitialBackoff: time.Second},
		Check:   retry.Policy{MaxRetries: 2, InitialBackoff: time.Second},
		Search:  retry.Policy{MaxRetries: 3, InitialBackoff: time.Second},
		Submit:  retry.Policy{MaxRetries: 5, InitialBackoff: time.Second},
		Click:   retry.Policy{MaxRetries: 2, InitialBackoff: 500 * time.Millisecond},
	}
}

// API is the typed registry backend. It implements catalog.Source,
// registration.Backend and warranty.Registry.
type API struct {
	client        *Client
	baseURL       string
	policies      Policies
	catalogSchema *jsonschema.Schema
	logger        *logrus.Entry
}

func NewAPI(client *Client, baseURL string, policies Policies, logger *logrus.Entry) (*API, error) {
	schema, err := compileCatalogSchema()
	if err != nil {
		return nil, err
	}
	return &API{
		client:        client,
		baseURL:       baseURL,
		policies:      policies,
		catalogSchema: schema,
		logger:        logger,
	}, nil
}

// withQuery appends params to base, respecting an existing query string.
func withQuery(base string, params url.Values) string {
	if len(params) == 0 {
		return base
	}
	sep := "?"
	if strings.Contains(base, "?") {
		sep = "&"
	}
	return base + sep + params.Encode()
}

// LoadCatalog fetches products and stores (the request without a type).
func (a *API) LoadCatalog(ctx context.Context, rc *retry.Context) (*catalog.Catalog, error) {
	raw, err := a.client.Request(ctx, a.baseURL, Options{}, a.policies.Catalog, rc)
	if err != nil {
		return nil, err
	}
	if err := validateAgainst(a.catalogSchema, raw); err != nil {
		return nil, err
	}
	var c catalog.Catalog
	if err := json.Unmarshal(raw, &c); err != nil {
		return nil, fmt.Errorf("%w: catalog: %v", ErrInvalidResponse, err)
	}
	a.logger.WithFields(logrus.Fields{
		"products": len(c.Products),
		"stores":   len(c.Stores),
	}).Debug("Catalog loaded")
	return &c, nil
}

// CheckSerial asks the backend whether a serial exists and is unregistered.
func (a *API) CheckSerial(ctx context.Context, serial string, rc *retry.Context) (*registration.SerialCheck, error) {
	endpoint := withQuery(a.baseURL, url.Values{"type": {"check"}, "no": {serial}})
	raw, err := a.client.Request(ctx, endpoint, Options{}, a.policies.Check, rc)
	if err != nil {
		return nil, err
	}
	var res registration.SerialCheck
	if err := json.Unmarshal(raw, &res); err != nil {
		return nil, fmt.Errorf("%w: serial check: %v", ErrInvalidResponse, err)
	}
	return &res, nil
}

// Search lists registrations for a name and phone pair.
func (a *API) Search(ctx context.Context, name, phone string, rc *retry.Context) (*warranty.SearchResult, error) {
	endpoint := withQuery(a.baseURL, url.Values{"type": {"search"}, "name": {name}, "phone": {phone}})
	raw, err := a.client.Request(ctx, endpoint, Options{}, a.policies.Search, rc)
	if err != nil {
		return nil, err
	}
	var res warranty.SearchResult
	if err := json.Unmarshal(raw, &res); err != nil {
		return nil, fmt.Errorf("%w: search: %v", ErrInvalidResponse, err)
	}
	return &res, nil
}

// Register posts a registration payload.
func (a *API) Register(ctx context.Context, p *registration.Payload, rc *retry.Context) (*registration.SubmitResult, error) {
	raw, err := a.post(ctx, p, a.policies.Submit, rc)
	if err != nil {
		return nil, err
	}
	var res registration.SubmitResult
	if err := json.Unmarshal(raw, &res); err != nil {
		return nil, fmt.Errorf("%w: register: %v", ErrInvalidResponse, err)
	}
	return &res, nil
}

// LogClick records that a promo link was followed. Callers ignore the result.
func (a *API) LogClick(ctx context.Context, ev warranty.ClickEvent, rc *retry.Context) error {
	_, err := a.post(ctx, ev, a.policies.Click, rc)
	return err
}

func (a *API) post(ctx context.Context, v any, policy retry.Policy, rc *retry.Context) (json.RawMessage, error) {
	body, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("failed to encode request body: %w", err)
	}
	return a.client.Request(ctx, a.baseURL, Options{
		Method:      http.MethodPost,
		Body:        body,
		ContentType: ContentTypeText,
	}, policy, rc)
}
