package apiclient

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/tisaac13/villagevote/internal/core/domain"
)

const (
	// DefaultTimeout is the default HTTP request timeout.
	DefaultTimeout = 30 * time.Second

	// DefaultRate is the default request rate (requests per second).
	DefaultRate = 2.0

	// DefaultUserAgent identifies the client to upstream services.
	DefaultUserAgent = "villagevote/1.0 (+https://github.com/tisaac13/villagevote)"

	// MaxBodySize bounds how much of a response body is read.
	MaxBodySize = 16 << 20

	// HeaderRetryAfter is the retry-after header (seconds).
	HeaderRetryAfter = "Retry-After"
)

// Config configures a Client.
type Config struct {
	// BaseURL is prepended to relative request paths.
	BaseURL string

	// Timeout bounds every request. Defaults to DefaultTimeout.
	Timeout time.Duration

	// Rate is the sustained request rate per second. Zero uses DefaultRate;
	// a negative value disables pacing.
	Rate float64

	// Header is sent with every request (API keys, Accept).
	Header http.Header

	// Query is added to every request (api_key style credentials).
	Query url.Values

	// UserAgent defaults to DefaultUserAgent.
	UserAgent string

	// HTTPClient overrides the transport, mainly for tests.
	HTTPClient *http.Client
}

// Client is a paced HTTP client with typed errors.
type Client struct {
	base    *url.URL
	http    *http.Client
	limiter *rate.Limiter
	header  http.Header
	query   url.Values
	agent   string
}

// New creates a client.
func New(cfg Config) (*Client, error) {
	c := &Client{
		header: cfg.Header.Clone(),
		query:  cfg.Query,
		agent:  cfg.UserAgent,
	}
	if cfg.BaseURL != "" {
		u, err := url.Parse(strings.TrimRight(cfg.BaseURL, "/") + "/")
		if err != nil {
			return nil, fmt.Errorf("base url %q: %w", cfg.BaseURL, domain.ErrInvalidInput)
		}
		c.base = u
	}
	if c.header == nil {
		c.header = http.Header{}
	}
	if c.agent == "" {
		c.agent = DefaultUserAgent
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if cfg.HTTPClient != nil {
		hc := *cfg.HTTPClient
		if hc.Timeout == 0 {
			hc.Timeout = timeout
		}
		c.http = &hc
	} else {
		c.http = &http.Client{Timeout: timeout}
	}

	switch {
	case cfg.Rate < 0:
	case cfg.Rate == 0:
		c.limiter = rate.NewLimiter(rate.Limit(DefaultRate), 1)
	default:
		c.limiter = rate.NewLimiter(rate.Limit(cfg.Rate), 1)
	}
	return c, nil
}

// Resolve turns a path relative to the base URL into an absolute URL.
// Absolute URLs are returned unchanged.
func (c *Client) Resolve(ref string, query url.Values) (string, error) {
	u, err := url.Parse(ref)
	if err != nil {
		return "", fmt.Errorf("url %q: %w", ref, domain.ErrInvalidInput)
	}
	if !u.IsAbs() {
		if c.base == nil {
			return "", fmt.Errorf("relative url %q without base: %w", ref, domain.ErrInvalidInput)
		}
		u = c.base.ResolveReference(&url.URL{Path: strings.TrimLeft(u.Path, "/"), RawQuery: u.RawQuery})
	}

	q := u.Query()
	for k, vs := range c.query {
		for _, v := range vs {
			q.Add(k, v)
		}
	}
	for k, vs := range query {
		for _, v := range vs {
			q.Add(k, v)
		}
	}
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// Get fetches a URL and returns its body.
func (c *Client) Get(ctx context.Context, ref string, query url.Values) ([]byte, error) {
	target, err := c.Resolve(ref, query)
	if err != nil {
		return nil, err
	}

	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, err
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	for k, vs := range c.header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}
	req.Header.Set("User-Agent", c.agent)

	resp, err := c.http.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		// The transport error quotes the full URL.
		err = redactError(err)
		if IsTransient(err) {
			return nil, fmt.Errorf("%w: %w", domain.ErrTransient, err)
		}
		return nil, fmt.Errorf("request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, MaxBodySize))
	if err != nil {
		return nil, fmt.Errorf("%w: read body: %w", domain.ErrTransient, redactError(err))
	}

	if resp.StatusCode == http.StatusTooManyRequests {
		return nil, &RateLimitError{RetryAfter: retryAfter(resp), URL: redact(target)}
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &APIError{
			StatusCode: resp.StatusCode,
			Message:    summarise(body, resp.Status),
			URL:        redact(target),
		}
	}
	return body, nil
}

// GetJSON fetches a URL and decodes its JSON body into dest.
func (c *Client) GetJSON(ctx context.Context, ref string, query url.Values, dest any) error {
	body, err := c.Get(ctx, ref, query)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, dest); err != nil {
		return fmt.Errorf("decode %s: %w", ref, err)
	}
	return nil
}

func retryAfter(resp *http.Response) time.Duration {
	v := resp.Header.Get(HeaderRetryAfter)
	if v == "" {
		return 0
	}
	if secs, err := strconv.Atoi(v); err == nil {
		return time.Duration(secs) * time.Second
	}
	if t, err := http.ParseTime(v); err == nil {
		return time.Until(t)
	}
	return 0
}

func summarise(body []byte, status string) string {
	var payload struct {
		Message string `json:"message"`
		Detail  string `json:"detail"`
		Error   any    `json:"error"`
	}
	if json.Unmarshal(body, &payload) == nil {
		switch {
		case payload.Message != "":
			return payload.Message
		case payload.Detail != "":
			return payload.Detail
		case payload.Error != nil:
			return fmt.Sprint(payload.Error)
		}
	}
	return status
}

// redactError rewrites the URL of a *url.Error with its credentials
// stripped, keeping the wrapped cause.
func redactError(err error) error {
	var ue *url.Error
	if !errors.As(err, &ue) {
		return err
	}
	return &url.Error{Op: ue.Op, URL: redact(ue.URL), Err: ue.Err}
}

// redact strips credentials passed as query parameters.
func redact(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return raw
	}
	q := u.Query()
	for _, k := range []string{"api_key", "apikey", "token"} {
		if q.Has(k) {
			q.Set(k, "REDACTED")
		}
	}
	u.RawQuery = q.Encode()
	return u.String()
}
