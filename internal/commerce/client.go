package commerce

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Client talks to the commerce backend's store API. All requests carry the
// publishable key header; the backend owns carts, orders, customers and
// digital products, this client only mirrors them.
type Client struct {
	baseURL        string
	publishableKey string
	httpClient     *http.Client
}

// Error is an error response from the commerce backend. The message text is
// surfaced to the storefront unmodified.
type Error struct {
	Status  int    `json:"-"`
	Message string `json:"message"`
}

func (e *Error) Error() string {
	return fmt.Sprintf("commerce backend: %s (status %d)", e.Message, e.Status)
}

// NewClient creates a commerce backend client
func NewClient(baseURL, publishableKey string) *Client {
	return &Client{
		baseURL:        baseURL,
		publishableKey: publishableKey,
		httpClient: &http.Client{
			Timeout: 15 * time.Second,
		},
	}
}

// do issues a request and decodes the JSON response into out (if non-nil).
// Extra headers are applied after the defaults so callers can override
// cache policy per endpoint.
func (c *Client) do(ctx context.Context, method, path string, body interface{}, out interface{}, headers map[string]string) error {
	var reqBody io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request body: %w", err)
		}
		reqBody = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return err
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-publishable-api-key", c.publishableKey)
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("commerce request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		apiErr := &Error{Status: resp.StatusCode, Message: http.StatusText(resp.StatusCode)}
		if msg, err := io.ReadAll(resp.Body); err == nil && len(msg) > 0 {
			var parsed struct {
				Message string `json:"message"`
			}
			if json.Unmarshal(msg, &parsed) == nil && parsed.Message != "" {
				apiErr.Message = parsed.Message
			}
		}
		return apiErr
	}

	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

// IsNotFound reports whether err is a commerce 404
func IsNotFound(err error) bool {
	apiErr, ok := err.(*Error)
	return ok && apiErr.Status == http.StatusNotFound
}
