package registry

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"product_registration_bot/internal/domain/retry"
	"product_registration_bot/internal/infra/logger"
)

type recordingSleeper struct {
	mu    sync.Mutex
	waits []time.Duration
}

func (r *recordingSleeper) sleep(_ context.Context, d time.Duration) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.waits = append(r.waits, d)
	return nil
}

type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(r *http.Request) (*http.Response, error) { return f(r) }

func newTestClient(sleeper *recordingSleeper, opts ...Option) *Client {
	opts = append([]Option{WithSleep(sleeper.sleep)}, opts...)
	return NewClient("SECRET", logger.Discard(), opts...)
}

func TestWithToken(t *testing.T) {
	assert.Equal(t, "https://x.test/exec?token=SECRET", WithToken("https://x.test/exec", "SECRET"))
	assert.Equal(t, "https://x.test/exec?type=check&token=SECRET", WithToken("https://x.test/exec?type=check", "SECRET"))
	assert.Equal(t, "https://x.test/exec?token=OTHER", WithToken("https://x.test/exec?token=OTHER", "SECRET"))
}

func TestWithToken_Property(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		endpoint := rapid.StringMatching(`https://example\.com/[a-z]{0,8}`).Draw(t, "path")
		hasQuery := rapid.Bool().Draw(t, "hasQuery")
		if hasQuery {
			endpoint += "?" + rapid.StringMatching(`q[a-z]{0,4}=[a-z0-9]{0,5}`).Draw(t, "query")
		}
		token := rapid.StringMatching(`[A-Z0-9_]{1,20}`).Draw(t, "token")

		got := WithToken(endpoint, token)
		if hasQuery {
			require.Equal(t, endpoint+"&token="+token, got)
		} else {
			require.Equal(t, endpoint+"?token="+token, got)
		}
		require.Equal(t, got, WithToken(got, token))
		require.Equal(t, 1, strings.Count(got, "token="))
	})
}

func TestRequest_RetriesExactlyMaxRetriesWithDoublingBackoff(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		maxRetries := rapid.IntRange(0, 6).Draw(t, "maxRetries")
		initial := time.Duration(rapid.IntRange(1, 2000).Draw(t, "initialMs")) * time.Millisecond

		var calls int
		sleeper := &recordingSleeper{}
		client := newTestClient(sleeper, WithHTTPClient(&http.Client{
			Transport: roundTripFunc(func(*http.Request) (*http.Response, error) {
				calls++
				return nil, errors.New("connection reset")
			}),
		}))

		rc := retry.NewContext(nil)
		_, err := client.Request(context.Background(), "https://x.test/exec", Options{}, retry.Policy{MaxRetries: maxRetries, InitialBackoff: initial}, rc)

		var te *TransportError
		require.ErrorAs(t, err, &te)
		require.Equal(t, maxRetries+1, te.Attempts)
		require.Equal(t, maxRetries+1, calls)
		require.Equal(t, maxRetries, rc.Retries)
		require.Len(t, sleeper.waits, maxRetries)
		for i, w := range sleeper.waits {
			require.Equal(t, initial<<i, w)
		}
	})
}

func TestRequest_TokenAppendedOncePerAttempt(t *testing.T) {
	var (
		mu      sync.Mutex
		queries []string
	)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		queries = append(queries, r.URL.RawQuery)
		n := len(queries)
		mu.Unlock()
		if n < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.Write([]byte(`{"status":"ok","model":"X1"}`))
	}))
	defer server.Close()

	sleeper := &recordingSleeper{}
	client := newTestClient(sleeper)

	body, err := client.Request(context.Background(), server.URL+"?type=check&no=A1", Options{}, retry.Policy{MaxRetries: 3, InitialBackoff: time.Second}, nil)
	require.NoError(t, err)
	assert.JSONEq(t, `{"status":"ok","model":"X1"}`, string(body))

	require.Len(t, queries, 3)
	for _, q := range queries {
		assert.Equal(t, "type=check&no=A1&token=SECRET", q)
	}
	assert.Equal(t, []time.Duration{time.Second, 2 * time.Second}, sleeper.waits)
}

func TestRequest_ObserverSeesLiveRetryCount(t *testing.T) {
	var hits int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
		if hits <= 2 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.Write([]byte(`{}`))
	}))
	defer server.Close()

	var notices []retry.Notice
	rc := retry.NewContext(func(n retry.Notice) { notices = append(notices, n) })

	client := newTestClient(&recordingSleeper{})
	_, err := client.Request(context.Background(), server.URL, Options{}, retry.Policy{MaxRetries: 5, InitialBackoff: 100 * time.Millisecond}, rc)
	require.NoError(t, err)

	require.Len(t, notices, 2)
	assert.Equal(t, 1, notices[0].Retries)
	assert.Equal(t, 4, notices[0].AttemptsRemaining)
	assert.Equal(t, 100*time.Millisecond, notices[0].Backoff)
	assert.ErrorIs(t, notices[0].Err, ErrServerBusy)
	assert.Equal(t, 2, notices[1].Retries)
	assert.Equal(t, 200*time.Millisecond, notices[1].Backoff)
	assert.Contains(t, notices[1].Text(), "(2회 재시도)")
	assert.Equal(t, 2, rc.Retries)
}

func TestRequest_NonJSONBodyIsRetried(t *testing.T) {
	var hits int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
		if hits == 1 {
			w.Write([]byte(`<html>Service busy</html>`))
			return
		}
		w.Write([]byte(`{"result":"success"}`))
	}))
	defer server.Close()

	rc := retry.NewContext(nil)
	client := newTestClient(&recordingSleeper{})
	_, err := client.Request(context.Background(), server.URL, Options{}, retry.Policy{MaxRetries: 1, InitialBackoff: time.Millisecond}, rc)
	require.NoError(t, err)
	assert.Equal(t, 2, hits)
	assert.Equal(t, 1, rc.Retries)
}

func TestRequest_PostSendsBodyAndContentTypeOnEveryAttempt(t *testing.T) {
	var bodies []string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, ContentTypeText, r.Header.Get("Content-Type"))
		buf := new(strings.Builder)
		_, _ = io.Copy(buf, r.Body)
		bodies = append(bodies, buf.String())
		if len(bodies) == 1 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.Write([]byte(`{"result":"success"}`))
	}))
	defer server.Close()

	client := newTestClient(&recordingSleeper{})
	_, err := client.Request(context.Background(), server.URL, Options{
		Method: http.MethodPost,
		Body:   []byte(`{"a":1}`),
	}, retry.Policy{MaxRetries: 2, InitialBackoff: time.Millisecond}, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{`{"a":1}`, `{"a":1}`}, bodies)
}

func TestRequest_CancelledDuringBackoff(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	ctx, cancel := context.WithCancel(context.Background())
	client := NewClient("SECRET", logger.Discard(), WithSleep(func(ctx context.Context, d time.Duration) error {
		cancel()
		return ctx.Err()
	}))

	_, err := client.Request(ctx, server.URL, Options{}, retry.Policy{MaxRetries: 3, InitialBackoff: time.Second}, nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
	assert.False(t, IsTransport(err))
}

func TestRedact(t *testing.T) {
	assert.Equal(t, `Get "https://x.test/?token=REDACTED": EOF`, redact(`Get "https://x.test/?token=S 1": EOF`, "S 1"))
	assert.Equal(t, `Get "https://x.test/?token=REDACTED": EOF`, redact(`Get "https://x.test/?token=S+1": EOF`, "S 1"))
}
