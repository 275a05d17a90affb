package payment

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
)

// ApplePayValidator proxies Apple Pay merchant validation. The browser
// sends Apple's validation URL here instead of calling it directly, so the
// merchant identity configuration never reaches the client.
type ApplePayValidator struct {
	merchantID  string
	domain      string
	displayName string
	httpClient  *http.Client
}

// NewApplePayValidator creates a merchant validation proxy. The http client
// is expected to carry the merchant identity certificate for mutual TLS
// against Apple; pass nil to use a default client (sandbox setups).
func NewApplePayValidator(merchantID, domain, displayName string, httpClient *http.Client) *ApplePayValidator {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 15 * time.Second}
	}
	return &ApplePayValidator{
		merchantID:  merchantID,
		domain:      domain,
		displayName: displayName,
		httpClient:  httpClient,
	}
}

// ValidateMerchant performs the merchant validation round-trip and returns
// Apple's merchant session verbatim for the browser to resume the payment
// sheet. Only apple.com validation URLs are accepted.
func (v *ApplePayValidator) ValidateMerchant(ctx context.Context, validationURL string) (json.RawMessage, error) {
	parsed, err := url.Parse(validationURL)
	if err != nil || parsed.Scheme != "https" || !strings.HasSuffix(parsed.Hostname(), ".apple.com") {
		return nil, fmt.Errorf("invalid apple pay validation url")
	}

	body, err := json.Marshal(map[string]string{
		"merchantIdentifier": v.merchantID,
		"domainName":         v.domain,
		"displayName":        v.displayName,
	})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, validationURL, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := v.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("merchant validation failed: %w", err)
	}
	defer resp.Body.Close()

	session, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("merchant validation rejected: status %d", resp.StatusCode)
	}

	return json.RawMessage(session), nil
}
