package registry

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"product_registration_bot/internal/domain/retry"
)

const (
	// DefaultBackoff is used when a call does not name its own initial backoff.
	DefaultBackoff = time.Second

	tokenParam = "token"

	// ContentTypeText keeps POSTs out of CORS preflight on the backend side,
	// which only accepts simple requests.
	ContentTypeText = "text/plain;charset=utf-8"

	maxResponseSize = 8 << 20
)

// SleepFunc waits for d or until ctx is done.
type SleepFunc func(ctx context.Context, d time.Duration) error

// Options describe a single HTTP exchange.
type Options struct {
	Method      string // GET when empty
	Body        []byte
	ContentType string
}

// Client performs token-authenticated JSON calls against the registry
// backend, retrying failed attempts with exponential backoff.
type Client struct {
	httpClient *http.Client
	token      string
	sleep      SleepFunc
	logger     *logrus.Entry
}

// Option configures a Client.
type Option func(*Client)

// WithSleep replaces the backoff wait. Tests use it to observe backoff
// durations without waiting.
func WithSleep(fn SleepFunc) Option {
	return func(c *Client) { c.sleep = fn }
}

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

func NewClient(token string, logger *logrus.Entry, opts ...Option) *Client {
	c := &Client{
		httpClient: &http.Client{Timeout: 15 * time.Second},
		token:      token,
		sleep:      sleepContext,
		logger:     logger,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// WithToken appends the shared secret to endpoint unless a token parameter is
// already present. The separator depends on whether endpoint has a query.
func WithToken(endpoint, token string) string {
	if strings.Contains(endpoint, tokenParam+"=") {
		return endpoint
	}
	sep := "?"
	if strings.Contains(endpoint, "?") {
		sep = "&"
	}
	return endpoint + sep + tokenParam + "=" + url.QueryEscape(token)
}

// Request calls endpoint until it answers with a 2xx JSON body or the retry
// budget runs out. Each retry increments rc.Retries and notifies rc.Observer
// before waiting; the wait doubles after every retry. The token is appended to
// the original endpoint on every attempt.
//
// When rc is nil a throwaway context is used.
func (c *Client) Request(ctx context.Context, endpoint string, opts Options, policy retry.Policy, rc *retry.Context) (json.RawMessage, error) {
	if policy.MaxRetries < 0 {
		policy.MaxRetries = 0
	}
	if policy.InitialBackoff <= 0 {
		policy.InitialBackoff = DefaultBackoff
	}
	if rc == nil {
		rc = retry.NewContext(nil)
	}
	rc.AttemptsRemaining = policy.MaxRetries
	rc.Backoff = policy.InitialBackoff

	logCtx := c.logger.WithFields(logrus.Fields{
		"endpoint": endpoint,
		"method":   methodOf(opts),
	})

	for attempt := 1; ; attempt++ {
		body, err := c.attempt(ctx, endpoint, opts)
		if err == nil {
			if attempt > 1 {
				logCtx.WithField("attempt", attempt).Info("Request succeeded after retry")
			}
			return body, nil
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, fmt.Errorf("registry: request aborted: %w", ctxErr)
		}
		if rc.AttemptsRemaining <= 0 {
			logCtx.WithError(err).WithField("attempts", attempt).Error("Request failed, retry budget exhausted")
			return nil, &TransportError{Attempts: attempt, Err: err}
		}

		backoff := rc.Backoff
		notice := rc.RecordRetry(backoff, err)
		logCtx.WithError(err).WithFields(logrus.Fields{
			"attempt":   attempt,
			"retries":   notice.Retries,
			"remaining": notice.AttemptsRemaining,
			"backoff":   backoff.String(),
		}).Warn("Request failed, retrying")

		if err := c.sleep(ctx, backoff); err != nil {
			return nil, fmt.Errorf("registry: backoff interrupted: %w", err)
		}
		rc.Backoff = backoff * 2
		rc.AttemptsRemaining--
	}
}

func (c *Client) attempt(ctx context.Context, endpoint string, opts Options) (json.RawMessage, error) {
	var body io.Reader
	if opts.Body != nil {
		body = bytes.NewReader(opts.Body)
	}
	req, err := http.NewRequestWithContext(ctx, methodOf(opts), WithToken(endpoint, c.token), body)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	if opts.Body != nil {
		ct := opts.ContentType
		if ct == "" {
			ct = ContentTypeText
		}
		req.Header.Set("Content-Type", ct)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %s", redact(err.Error(), c.token))
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxResponseSize))
		return nil, fmt.Errorf("%w: HTTP %d", ErrServerBusy, resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}
	if !json.Valid(data) {
		return nil, ErrInvalidJSON
	}
	return json.RawMessage(data), nil
}

func methodOf(opts Options) string {
	if opts.Method == "" {
		return http.MethodGet
	}
	return opts.Method
}

// redact keeps the shared secret out of error messages, which end up in logs.
func redact(s, token string) string {
	if token == "" {
		return s
	}
	s = strings.ReplaceAll(s, url.QueryEscape(token), "REDACTED")
	return strings.ReplaceAll(s, token, "REDACTED")
}

func sleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
