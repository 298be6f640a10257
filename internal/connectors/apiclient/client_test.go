package apiclient

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tisaac13/villagevote/internal/core/domain"
)

func newTestClient(t *testing.T, handler http.HandlerFunc, cfg Config) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	cfg.BaseURL = srv.URL + "/v3"
	if cfg.Rate == 0 {
		cfg.Rate = -1
	}
	c, err := New(cfg)
	require.NoError(t, err)
	return c
}

func TestClient_GetJSON(t *testing.T) {
	var gotPath, gotKey, gotHeader, gotAgent string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotKey = r.URL.Query().Get("api_key")
		gotHeader = r.Header.Get("X-API-KEY")
		gotAgent = r.Header.Get("User-Agent")
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"name":"ok"}`))
	}, Config{
		Query:  url.Values{"api_key": {"secret"}},
		Header: http.Header{"X-Api-Key": {"header-secret"}},
	})

	var out struct {
		Name string `json:"name"`
	}
	require.NoError(t, c.GetJSON(context.Background(), "/bill/119", url.Values{"limit": {"20"}}, &out))
	assert.Equal(t, "ok", out.Name)
	assert.Equal(t, "/v3/bill/119", gotPath)
	assert.Equal(t, "secret", gotKey)
	assert.Equal(t, "header-secret", gotHeader)
	assert.Equal(t, DefaultUserAgent, gotAgent)
}

func TestClient_ErrorMapping(t *testing.T) {
	tests := []struct {
		name      string
		status    int
		body      string
		notFound  bool
		transient bool
		sentinel  error
	}{
		{"not found", http.StatusNotFound, `{"message":"no such bill"}`, true, false, domain.ErrNotFound},
		{"server error", http.StatusBadGateway, "", false, true, domain.ErrTransient},
		{"rate limited", http.StatusTooManyRequests, "", false, true, domain.ErrRateLimited},
		{"forbidden", http.StatusForbidden, `{"error":"API_KEY_INVALID"}`, false, false, domain.ErrMissingCredential},
		{"bad request", http.StatusBadRequest, "", false, false, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
				if tt.status == http.StatusTooManyRequests {
					w.Header().Set(HeaderRetryAfter, "7")
				}
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}, Config{Query: url.Values{"api_key": {"secret"}}})

			_, err := c.Get(context.Background(), "thing", nil)
			require.Error(t, err)
			assert.Equal(t, tt.notFound, IsNotFound(err))
			assert.Equal(t, tt.transient, IsTransient(err))
			if tt.sentinel != nil {
				assert.ErrorIs(t, err, tt.sentinel)
			}
			assert.NotContains(t, err.Error(), "secret")

			var rl *RateLimitError
			if errors.As(err, &rl) {
				assert.Equal(t, 7*time.Second, rl.RetryAfter)
			}
		})
	}
}

func TestClient_Timeout(t *testing.T) {
	release := make(chan struct{})
	c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		<-release
	}, Config{Timeout: 20 * time.Millisecond})
	defer close(release)

	_, err := c.Get(context.Background(), "slow", nil)
	require.Error(t, err)
	assert.True(t, IsTransient(err))
	assert.ErrorIs(t, err, domain.ErrTransient)
}

func TestClient_TransportErrorsRedactCredentials(t *testing.T) {
	query := url.Values{"api_key": {"SECRET123"}, "offset": {"0"}}

	t.Run("timeout", func(t *testing.T) {
		release := make(chan struct{})
		c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
			<-release
		}, Config{Timeout: 20 * time.Millisecond})
		defer close(release)

		_, err := c.Get(context.Background(), "bill/119", query)
		require.Error(t, err)
		assert.ErrorIs(t, err, domain.ErrTransient)
		assert.NotContains(t, err.Error(), "SECRET123")
		assert.Contains(t, err.Error(), "api_key=REDACTED")
	})

	t.Run("connection refused", func(t *testing.T) {
		srv := httptest.NewServer(http.NotFoundHandler())
		base := srv.URL
		srv.Close()

		c, err := New(Config{BaseURL: base, Rate: -1})
		require.NoError(t, err)

		_, err = c.Get(context.Background(), "bill/119", query)
		require.Error(t, err)
		assert.NotContains(t, err.Error(), "SECRET123")
		var ue *url.Error
		require.ErrorAs(t, err, &ue)
		assert.Contains(t, ue.URL, "api_key=REDACTED")
	})
}

func TestRedactError(t *testing.T) {
	cause := errors.New("boom")
	err := redactError(&url.Error{Op: "Get", URL: "https://x.test/a?api_key=k&q=1", Err: cause})
	assert.ErrorIs(t, err, cause)
	assert.NotContains(t, err.Error(), "api_key=k")

	plain := errors.New("plain")
	assert.Same(t, plain, redactError(plain))
}

func TestClient_Pacing(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("{}"))
	}, Config{Rate: 20})

	start := time.Now()
	for i := 0; i < 3; i++ {
		_, err := c.Get(context.Background(), "x", nil)
		require.NoError(t, err)
	}
	assert.GreaterOrEqual(t, time.Since(start), 90*time.Millisecond)
}

func TestClient_CancelledWhileWaiting(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("{}"))
	}, Config{Rate: 0.001})

	_, err := c.Get(context.Background(), "x", nil)
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	_, err = c.Get(ctx, "x", nil)
	assert.Error(t, err)
}

func TestClient_Resolve(t *testing.T) {
	c, err := New(Config{BaseURL: "https://api.example.com/v3/", Rate: -1})
	require.NoError(t, err)

	got, err := c.Resolve("bill/119?offset=20", url.Values{"limit": {"20"}})
	require.NoError(t, err)
	assert.Equal(t, "https://api.example.com/v3/bill/119?limit=20&offset=20", got)

	got, err = c.Resolve("https://other.example.com/doc.xml", nil)
	require.NoError(t, err)
	assert.Equal(t, "https://other.example.com/doc.xml", got)

	bare, err := New(Config{Rate: -1})
	require.NoError(t, err)
	_, err = bare.Resolve("relative", nil)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}
