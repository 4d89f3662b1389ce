// Package api is the authenticated HTTP client for the blood-donation
// platform backend. It decorates requests with the session's bearer token
// and owns the single 401 recovery path: clear the session, notify the
// application once, and fail the call so stale data is never rendered.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/lifelink/donorlink/internal/metrics"
	"github.com/lifelink/donorlink/internal/session"
)

// ErrUnauthorized is returned for any authenticated call that came back
// 401. By the time the caller sees it the session has been cleared.
var ErrUnauthorized = errors.New("api: unauthorized")

// APIError carries a non-2xx backend response. The message is surfaced
// verbatim so business errors ("slot unavailable") reach the end user.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api: %d: %s", e.Status, e.Message)
}

// Config holds client settings.
type Config struct {
	BaseURL string        // e.g. https://backend.example.com/api
	Store   session.Store // session source for the bearer token
	HTTP    *http.Client  // optional; defaulted when nil
	Timeout time.Duration // per-request timeout when HTTP is nil

	// OnUnauthorized runs once per cleared session after a 401. The CLI
	// uses it to route back to login; views must not duplicate it.
	OnUnauthorized func()
}

// DefaultConfig returns sensible defaults. BaseURL and Store must still
// be supplied by the caller.
func DefaultConfig() Config {
	return Config{Timeout: 15 * time.Second}
}

// Client talks to the backend REST API.
type Client struct {
	baseURL        string
	http           *http.Client
	store          session.Store
	onUnauthorized func()

	mu sync.Mutex // serializes the 401 clear so it fires once per session
}

// NewClient validates the config and returns a ready client.
func NewClient(cfg Config) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, errors.New("api: base URL is required")
	}
	if cfg.Store == nil {
		return nil, errors.New("api: session store is required")
	}
	httpClient := cfg.HTTP
	if httpClient == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = 15 * time.Second
		}
		httpClient = &http.Client{Timeout: timeout}
	}
	return &Client{
		baseURL:        strings.TrimRight(cfg.BaseURL, "/"),
		http:           httpClient,
		store:          cfg.Store,
		onUnauthorized: cfg.OnUnauthorized,
	}, nil
}

// Store returns the session store the client reads tokens from.
func (c *Client) Store() session.Store {
	return c.store
}

// do performs a JSON request against path. When the session holds a token
// it is attached as a bearer header. A 401 response triggers the
// unauthorized recovery and returns ErrUnauthorized; other non-2xx
// statuses become *APIError. When out is non-nil the response body is
// decoded into it.
func (c *Client) do(ctx context.Context, method, path string, query url.Values, body, out interface{}) error {
	return c.roundTrip(ctx, method, path, query, body, out, true)
}

// doPublic is do without the bearer header or 401 recovery. Login and
// registration use it: a 401 there means bad credentials, not a stale
// session.
func (c *Client) doPublic(ctx context.Context, method, path string, query url.Values, body, out interface{}) error {
	return c.roundTrip(ctx, method, path, query, body, out, false)
}

func (c *Client) roundTrip(ctx context.Context, method, path string, query url.Values, body, out interface{}, authed bool) error {
	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("api: marshal request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, u, reader)
	if err != nil {
		return fmt.Errorf("api: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	if authed {
		if sess, err := c.store.Read(ctx); err == nil && sess != nil {
			req.Header.Set("Authorization", "Bearer "+sess.Token)
		}
	}

	resp, err := c.http.Do(req)
	if err != nil {
		metrics.APIRequestsTotal.WithLabelValues("error").Inc()
		return fmt.Errorf("api: %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if authed && resp.StatusCode == http.StatusUnauthorized {
		metrics.APIRequestsTotal.WithLabelValues("unauthorized").Inc()
		c.handleUnauthorized(ctx)
		return ErrUnauthorized
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		metrics.APIRequestsTotal.WithLabelValues("error").Inc()
		return fmt.Errorf("api: read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		metrics.APIRequestsTotal.WithLabelValues("error").Inc()
		return &APIError{Status: resp.StatusCode, Message: errorMessage(data, resp.StatusCode)}
	}

	metrics.APIRequestsTotal.WithLabelValues("ok").Inc()
	if out != nil && len(data) > 0 {
		if err := json.Unmarshal(data, out); err != nil {
			return fmt.Errorf("api: decode response: %w", err)
		}
	}
	return nil
}

// handleUnauthorized clears the session and fires the callback. The mutex
// plus the token-presence check make concurrent 401s converge on a single
// clear and a single callback invocation.
func (c *Client) handleUnauthorized(ctx context.Context) {
	c.mu.Lock()
	defer c.mu.Unlock()

	sess, err := c.store.Read(ctx)
	if err != nil || sess == nil {
		return // already cleared by a racing request
	}
	if err := c.store.Clear(ctx); err != nil {
		log.Printf("[api] session clear after 401 failed: %v", err)
		return
	}
	metrics.SessionClearsTotal.Inc()
	log.Printf("[api] session cleared after unauthorized response")
	if c.onUnauthorized != nil {
		c.onUnauthorized()
	}
}

// errorMessage extracts the backend's error text from a JSON body of the
// form {"error": ...} or {"message": ...}, falling back to the status text.
func errorMessage(body []byte, status int) string {
	var payload struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(body, &payload); err == nil {
		if payload.Error != "" {
			return payload.Error
		}
		if payload.Message != "" {
			return payload.Message
		}
	}
	return http.StatusText(status)
}
