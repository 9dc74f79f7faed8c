// Package gateway is the single access point to the storefront REST service.
// It attaches the session token, normalizes errors into *domain.RequestError
// and notifies observers when the service answers 401.
package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/felixgeelhaar/storefront/internal/domain"
)

const maxBodySize = 10 << 20

// TokenSource supplies the bearer token for outgoing requests. An empty
// string means no credential.
type TokenSource interface {
	Token() string
}

// TokenFunc adapts a function to TokenSource.
type TokenFunc func() string

func (f TokenFunc) Token() string { return f() }

// UnauthorizedEvent describes a call that was answered with 401.
type UnauthorizedEvent struct {
	Method string
	Path   string
	// Token is the credential that was sent, empty if none.
	Token string
	Err   *domain.RequestError
}

// UnauthorizedFunc observes 401 responses.
type UnauthorizedFunc func(ctx context.Context, ev UnauthorizedEvent)

// Config holds gateway settings
type Config struct {
	BaseURL    string
	Timeout    time.Duration
	HTTPClient *http.Client
	Resilience ResilienceConfig
	Logger     *slog.Logger
}

// Client issues credentialed JSON requests against the REST service
type Client struct {
	baseURL    string
	httpClient *http.Client
	resilience *resilience
	logger     *slog.Logger

	mu        sync.RWMutex
	tokens    TokenSource
	observers []UnauthorizedFunc
}

// NewClient creates a gateway client
func NewClient(cfg Config) *Client {
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = newHTTPClient(cfg.Timeout)
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Resilience.Logger == nil {
		cfg.Resilience.Logger = logger
	}

	return &Client{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		httpClient: httpClient,
		resilience: newResilience(cfg.Resilience),
		logger:     logger,
	}
}

// SetTokenSource sets where the bearer token is read from on every call.
func (c *Client) SetTokenSource(ts TokenSource) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.tokens = ts
}

// OnUnauthorized registers fn to be called once for every call answered with 401.
func (c *Client) OnUnauthorized(fn UnauthorizedFunc) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.observers = append(c.observers, fn)
}

// BaseURL returns the configured service root.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Close releases resilience resources.
func (c *Client) Close() error {
	return c.resilience.close()
}

// Get issues GET path?query and decodes the response into out.
func (c *Client) Get(ctx context.Context, path string, query url.Values, out any) error {
	return c.do(ctx, http.MethodGet, path, query, nil, out)
}

// Post issues POST path with a JSON body.
func (c *Client) Post(ctx context.Context, path string, body, out any) error {
	return c.do(ctx, http.MethodPost, path, nil, body, out)
}

// Put issues PUT path with a JSON body.
func (c *Client) Put(ctx context.Context, path string, body, out any) error {
	return c.do(ctx, http.MethodPut, path, nil, body, out)
}

// Patch issues PATCH path with a JSON body.
func (c *Client) Patch(ctx context.Context, path string, body, out any) error {
	return c.do(ctx, http.MethodPatch, path, nil, body, out)
}

// Delete issues DELETE path.
func (c *Client) Delete(ctx context.Context, path string, out any) error {
	return c.do(ctx, http.MethodDelete, path, nil, nil, out)
}

func (c *Client) token() string {
	c.mu.RLock()
	ts := c.tokens
	c.mu.RUnlock()
	if ts == nil {
		return ""
	}
	return ts.Token()
}

func (c *Client) endpoint(path string, query url.Values) string {
	u := c.baseURL + "/" + strings.TrimLeft(path, "/")
	if encoded := query.Encode(); encoded != "" {
		u += "?" + encoded
	}
	return u
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, body, out any) error {
	var payload []byte
	if body != nil {
		var err error
		payload, err = json.Marshal(body)
		if err != nil {
			return &domain.RequestError{Message: "encode request body", Err: err}
		}
	}

	token := c.token()
	requestID := uuid.NewString()
	target := c.endpoint(path, query)
	start := time.Now()

	send := func(ctx context.Context) (*rawResponse, error) {
		var reader io.Reader
		if payload != nil {
			reader = bytes.NewReader(payload)
		}
		req, err := http.NewRequestWithContext(ctx, method, target, reader)
		if err != nil {
			return nil, fmt.Errorf("create request: %w", err)
		}
		req.Header.Set("Accept", "application/json")
		req.Header.Set("X-Request-ID", requestID)
		if payload != nil {
			req.Header.Set("Content-Type", "application/json")
		}
		if token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return nil, err
		}
		defer resp.Body.Close()

		data, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
		if err != nil {
			return nil, fmt.Errorf("read response: %w", err)
		}

		raw := &rawResponse{StatusCode: resp.StatusCode, Body: data}
		if resp.StatusCode >= 500 {
			return raw, &serverError{raw: raw}
		}
		return raw, nil
	}

	raw, err := c.resilience.execute(ctx, method == http.MethodGet, send)
	if err != nil {
		var srvErr *serverError
		if !errors.As(err, &srvErr) {
			c.logger.Debug("request failed", "method", method, "path", path, "request_id", requestID, "error", err)
			message := domain.FallbackMessage
			if errors.Is(err, ErrRateLimited) {
				message = RateLimitedMessage
			}
			return &domain.RequestError{Message: message, Err: err}
		}
		raw = srvErr.raw
	}

	c.logger.Debug("request complete",
		"method", method,
		"path", path,
		"status", raw.StatusCode,
		"request_id", requestID,
		"duration", time.Since(start))

	if raw.StatusCode >= 400 {
		reqErr := &domain.RequestError{
			Message:    errorMessage(raw.Body),
			StatusCode: raw.StatusCode,
		}
		if raw.StatusCode == http.StatusUnauthorized {
			c.notifyUnauthorized(ctx, UnauthorizedEvent{Method: method, Path: path, Token: token, Err: reqErr})
		}
		return reqErr
	}

	if out == nil || len(bytes.TrimSpace(raw.Body)) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw.Body, out); err != nil {
		return &domain.RequestError{Message: "invalid response from server", StatusCode: raw.StatusCode, Err: err}
	}
	return nil
}

type handlingUnauthorizedKey struct{}

// notifyUnauthorized runs the observers. Requests issued by an observer
// that also fail with 401 do not notify again.
func (c *Client) notifyUnauthorized(ctx context.Context, ev UnauthorizedEvent) {
	if ctx.Value(handlingUnauthorizedKey{}) != nil {
		return
	}

	c.mu.RLock()
	observers := append([]UnauthorizedFunc(nil), c.observers...)
	c.mu.RUnlock()

	ctx = context.WithValue(ctx, handlingUnauthorizedKey{}, true)
	for _, fn := range observers {
		fn(ctx, ev)
	}
}

// errorMessage extracts "message" from a JSON error body.
func errorMessage(body []byte) string {
	var payload struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(body, &payload); err != nil || strings.TrimSpace(payload.Message) == "" {
		return domain.FallbackMessage
	}
	return payload.Message
}
