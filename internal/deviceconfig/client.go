package deviceconfig

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

	"github.com/muurk/ledsetup/internal/logging"
	"github.com/muurk/ledsetup/internal/version"
	"github.com/muurk/ledsetup/internal/wifi"
)

const (
	// DefaultBaseURL is the API root of a controller in setup mode, reached
	// through its own access point.
	DefaultBaseURL = "http://192.168.168.1/v1/"

	// DefaultTimeout is the default HTTP request timeout
	DefaultTimeout = 10 * time.Second

	// DefaultRetryDelay is the initial delay between retries of idempotent
	// requests
	DefaultRetryDelay = 1 * time.Second

	// DefaultMaxRetryDelay caps the exponential backoff
	DefaultMaxRetryDelay = 30 * time.Second
)

// API actions, relative to the base URL.
const (
	ActionConfig      = "config"
	ActionWiFiScan    = "wifi/scan"
	ActionStripTest   = "ledstrip/test"
	ActionLegacyTest  = "test"
	ActionFinishSetup = "done_config"
)

// Client talks to a controller's REST API. All requests and responses are
// JSON. Only GET requests are retried; submissions are sent exactly once.
type Client struct {
	// BaseURL is the API root and always ends in a slash
	// (e.g. "http://192.168.168.1/v1/")
	BaseURL string

	// Username and Password enable HTTP Basic Auth when Username is set
	Username string
	Password string

	// LegacyAPI selects PUT test instead of POST ledstrip/test for strip
	// tests, as older firmware expects
	LegacyAPI bool

	HTTPClient *http.Client

	// MaxRetries is the number of extra attempts for failed GET requests
	MaxRetries    int
	RetryDelay    time.Duration
	MaxRetryDelay time.Duration
}

// NewClient creates a client for the controller at baseURL. An empty
// baseURL selects DefaultBaseURL.
func NewClient(baseURL string) (*Client, error) {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	normalized, err := NormalizeBaseURL(baseURL)
	if err != nil {
		return nil, err
	}

	return &Client{
		BaseURL:       normalized,
		HTTPClient:    &http.Client{Timeout: DefaultTimeout},
		RetryDelay:    DefaultRetryDelay,
		MaxRetryDelay: DefaultMaxRetryDelay,
	}, nil
}

// NormalizeBaseURL accepts a host, host:port or full URL and returns an API
// root ending in a slash. A URL without a path gets the /v1/ API prefix.
func NormalizeBaseURL(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", fmt.Errorf("empty base URL")
	}
	if !strings.Contains(raw, "://") {
		raw = "http://" + raw
	}

	u, err := url.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("invalid base URL %q: %w", raw, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return "", fmt.Errorf("invalid base URL %q: unsupported scheme %q", raw, u.Scheme)
	}
	if u.Host == "" {
		return "", fmt.Errorf("invalid base URL %q: missing host", raw)
	}

	if u.Path == "" || u.Path == "/" {
		u.Path = "/v1/"
	}
	if !strings.HasSuffix(u.Path, "/") {
		u.Path += "/"
	}
	u.RawQuery = ""
	u.Fragment = ""
	return u.String(), nil
}

// SetTimeout sets the HTTP request timeout
func (c *Client) SetTimeout(timeout time.Duration) {
	c.HTTPClient.Timeout = timeout
}

// SetAuth sets HTTP Basic Auth credentials
func (c *Client) SetAuth(username, password string) {
	c.Username = username
	c.Password = password
}

// SetRetry configures retries of GET requests
func (c *Client) SetRetry(maxRetries int, retryDelay time.Duration) {
	c.MaxRetries = maxRetries
	c.RetryDelay = retryDelay
}

// URI resolves a form action against the base URL.
func (c *Client) URI(action string) string {
	return c.BaseURL + strings.TrimPrefix(action, "/")
}

// GetConfig fetches the whole configuration document.
func (c *Client) GetConfig(ctx context.Context) (Document, error) {
	var raw json.RawMessage
	if err := c.get(ctx, ActionConfig, &raw); err != nil {
		return nil, err
	}
	doc, err := ParseDocument(raw)
	if err != nil {
		return nil, NewParseError(c.URI(ActionConfig), "invalid configuration document", err)
	}
	return doc, nil
}

// UpdateConfig sends a partial document. Sections and keys not present in
// update are left unchanged on the controller.
func (c *Client) UpdateConfig(ctx context.Context, update Document) error {
	if len(update) == 0 {
		return NewValidationError("configuration update is empty")
	}
	return c.do(ctx, http.MethodPut, ActionConfig, update, nil)
}

// ScanWiFi asks the controller to scan for access points.
func (c *Client) ScanWiFi(ctx context.Context) ([]wifi.AccessPoint, error) {
	var result wifi.ScanResult
	if err := c.get(ctx, ActionWiFiScan, &result); err != nil {
		return nil, err
	}
	return result.AccessPoints, nil
}

// StripTestAction returns the strip test endpoint for the API generation
// in use.
func (c *Client) StripTestAction() string {
	if c.LegacyAPI {
		return ActionLegacyTest
	}
	return ActionStripTest
}

// TestStrip lights the strip with the given, possibly unsaved, settings.
func (c *Client) TestStrip(ctx context.Context, params map[string]any) error {
	if c.LegacyAPI {
		return c.do(ctx, http.MethodPut, ActionLegacyTest, params, nil)
	}
	return c.do(ctx, http.MethodPost, ActionStripTest, params, nil)
}

// Submit sends a form body to action with the given method.
func (c *Client) Submit(ctx context.Context, method, action string, body map[string]any) error {
	method = strings.ToUpper(method)
	if method == "" {
		method = http.MethodPost
	}
	return c.do(ctx, method, action, body, nil)
}

// FinishSetup tells the controller that setup is complete.
func (c *Client) FinishSetup(ctx context.Context) error {
	return c.do(ctx, http.MethodGet, ActionFinishSetup, nil, nil)
}

// get performs an idempotent GET with exponential backoff between retries
func (c *Client) get(ctx context.Context, action string, out any) error {
	var lastErr error
	currentDelay := c.RetryDelay

	for attempt := 0; attempt <= c.MaxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return NewNetworkError(c.URI(action), "request cancelled", ctx.Err())
			case <-time.After(currentDelay):
			}

			currentDelay *= 2
			if c.MaxRetryDelay > 0 && currentDelay > c.MaxRetryDelay {
				currentDelay = c.MaxRetryDelay
			}
		}

		err := c.do(ctx, http.MethodGet, action, nil, out)
		if err == nil {
			return nil
		}
		lastErr = err

		if !IsRetryable(err) {
			return err
		}
	}

	return lastErr
}

// do performs a single request
func (c *Client) do(ctx context.Context, method, action string, body any, out any) error {
	uri := c.URI(action)

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return NewValidationError(fmt.Sprintf("cannot encode request body: %v", err))
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, uri, reader)
	if err != nil {
		return NewNetworkError(uri, fmt.Sprintf("failed to create %s request", method), err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", version.UserAgent())
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.Username != "" {
		req.SetBasicAuth(c.Username, c.Password)
	}

	start := time.Now()
	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		devErr := NewNetworkError(uri, fmt.Sprintf("%s request failed", method), err)
		logging.LogRequest(method, uri, 0, time.Since(start), devErr)
		return devErr
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		devErr := NewNetworkError(uri, "failed to read response body", err)
		logging.LogRequest(method, uri, resp.StatusCode, time.Since(start), devErr)
		return devErr
	}

	var devErr *DeviceError
	switch {
	case resp.StatusCode == http.StatusUnauthorized:
		devErr = NewAuthError(uri, "authentication failed (check credentials)")
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		devErr = NewHTTPError(uri, resp.StatusCode, errorMessage(resp.StatusCode, data))
	case out != nil && len(bytes.TrimSpace(data)) > 0:
		if err := json.Unmarshal(data, out); err != nil {
			devErr = NewParseError(uri, "failed to parse JSON response", err)
		}
	}

	if devErr != nil {
		logging.LogRequest(method, uri, resp.StatusCode, time.Since(start), devErr)
		return devErr
	}
	logging.LogRequest(method, uri, resp.StatusCode, time.Since(start), nil)
	return nil
}
