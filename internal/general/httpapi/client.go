// Package httpapi is the REST client for the calls the realtime pipeline
// makes: connection credential, active ride, navigation, chat history and
// the session catalog.
package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"ride-hail-realtime/internal/general/logger"
)

const maxErrorBody = 4 << 10

// APIError is returned for every non-2xx response.
type APIError struct {
	Method string
	Path   string
	Status int
	Body   string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s %s: status %d: %s", e.Method, e.Path, e.Status, e.Body)
}

// IsStatus reports whether err is an APIError with the given status.
func IsStatus(err error, status int) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Status == status
}

// Client issues authenticated JSON requests against the ride-hail API.
type Client struct {
	base   *url.URL
	token  func() string
	http   *http.Client
	logger *logger.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying *http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithBearer sets the function consulted for the Authorization header on
// every request.
func WithBearer(token func() string) Option {
	return func(c *Client) { c.token = token }
}

// New creates a client for baseURL with the given overall request timeout.
func New(baseURL string, timeout time.Duration, log *logger.Logger, opts ...Option) (*Client, error) {
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("httpapi: invalid base url %q", baseURL)
	}
	if log == nil {
		log = logger.Discard()
	}
	c := &Client{
		base:   u,
		token:  func() string { return "" },
		http:   &http.Client{Timeout: timeout},
		logger: log,
	}
	for _, o := range opts {
		o(c)
	}
	return c, nil
}

// getJSON performs GET path?query and decodes the body into out. A 204
// leaves out untouched and reports found=false.
func (c *Client) getJSON(ctx context.Context, path string, query url.Values, out any) (found bool, err error) {
	u := *c.base
	u.Path = c.base.Path + path
	if len(query) > 0 {
		u.RawQuery = query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return false, fmt.Errorf("httpapi: build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if tok := c.token(); tok != "" {
		req.Header.Set("Authorization", "Bearer "+tok)
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		c.logger.Warn(ctx, "api_request_failed", "REST request failed", map[string]any{
			"path": path, "error": err.Error(),
		})
		return false, fmt.Errorf("httpapi: GET %s: %w", path, err)
	}
	defer resp.Body.Close()

	c.logger.Debug(ctx, "api_request", "REST request completed", map[string]any{
		"path":        path,
		"status":      resp.StatusCode,
		"duration_ms": time.Since(start).Milliseconds(),
	})

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return false, &APIError{
			Method: http.MethodGet,
			Path:   path,
			Status: resp.StatusCode,
			Body:   strings.TrimSpace(string(body)),
		}
	}
	if resp.StatusCode == http.StatusNoContent {
		return false, nil
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return false, fmt.Errorf("httpapi: decode %s: %w", path, err)
	}
	return true, nil
}
