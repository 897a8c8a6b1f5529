package avatax

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"
)

// Payload is a decoded JSON response from the tax API. Failed requests
// yield an empty Payload: the adapter never propagates transport or
// decoding errors to the calculation path.
type Payload map[string]any

// Empty reports whether the response carries no data, i.e. the request
// failed or returned nothing usable.
func (p Payload) Empty() bool { return len(p) == 0 }

// HasError reports whether the service answered with an error object.
func (p Payload) HasError() bool {
	_, ok := p["error"]
	return ok
}

// ErrorMessage extracts a human-readable message from an error response.
func (p Payload) ErrorMessage() string {
	errVal, ok := p["error"]
	if !ok {
		return ""
	}
	if errMap, ok := errVal.(map[string]any); ok {
		if msg, ok := errMap["message"].(string); ok {
			return msg
		}
	}
	return fmt.Sprintf("%v", errVal)
}

// Decode re-marshals the payload into a typed structure.
func (p Payload) Decode(out any) error {
	raw, err := json.Marshal(p)
	if err != nil {
		return err
	}
	return json.Unmarshal(raw, out)
}

// Client is the HTTP client for the tax API. All requests authenticate
// with the account/license pair as basic auth.
type Client struct {
	cfg        Config
	httpClient *http.Client
	logger     *slog.Logger
}

// NewClient creates a tax API client for the given plugin configuration.
func NewClient(cfg Config, timeout time.Duration, logger *slog.Logger) *Client {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger,
	}
}

// ResolveURL joins an API path with the configured base URL.
func (c *Client) ResolveURL(path string) string {
	return c.cfg.APIURL() + path
}

// GetRequest performs an authenticated GET. Transport failures, non-2xx
// statuses and malformed JSON all produce an empty Payload.
func (c *Client) GetRequest(ctx context.Context, url string) Payload {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		c.logger.Warn("Failed to create tax API request", "url", url, "error", err)
		return Payload{}
	}
	return c.do(req)
}

// PostRequest performs an authenticated POST with a JSON body. Failures
// produce an empty Payload, same as GetRequest.
func (c *Client) PostRequest(ctx context.Context, url string, data any) Payload {
	body, err := json.Marshal(data)
	if err != nil {
		c.logger.Warn("Failed to encode tax API request", "url", url, "error", err)
		return Payload{}
	}
	req, err := http.NewRequestWithContext(
		ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		c.logger.Warn("Failed to create tax API request", "url", url, "error", err)
		return Payload{}
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(req)
}

func (c *Client) do(req *http.Request) Payload {
	req.SetBasicAuth(c.cfg.UsernameOrAccount, c.cfg.PasswordOrLicense)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Warn("Tax API request failed",
			"url", req.URL.String(), "error", err)
		return Payload{}
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode < http.StatusOK ||
		resp.StatusCode >= http.StatusMultipleChoices {
		// Error bodies still carry a JSON "error" object the caller
		// inspects, so decode them when possible.
		var payload Payload
		if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
			c.logger.Warn("Tax API returned unexpected status",
				"url", req.URL.String(), "status", resp.StatusCode)
			return Payload{}
		}
		return payload
	}

	var payload Payload
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		c.logger.Warn("Failed to decode tax API response",
			"url", req.URL.String(), "error", err)
		return Payload{}
	}
	return payload
}
