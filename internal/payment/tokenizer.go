package payment

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// ProcessorError carries the processor's own error message text, which is
// shown to the customer unmodified (declines, invalid card, etc).
type ProcessorError struct {
	Code    string
	Message string
}

func (e *ProcessorError) Error() string {
	return fmt.Sprintf("payment processor: %s (%s)", e.Message, e.Code)
}

// CardInput is the raw card data collected by the storefront. It is
// forwarded straight to the processor's hosted tokenizer and never stored
// or logged by this service.
type CardInput struct {
	Number     string `json:"number"`
	Expiry     string `json:"expiry"`
	CVV        string `json:"cvv"`
	HolderName string `json:"holder_name,omitempty"`
}

// OpaqueToken is the tokenizer's opaque payment descriptor, forwarded to
// the commerce backend's payment session.
type OpaqueToken struct {
	Descriptor string `json:"dataDescriptor"`
	Value      string `json:"dataValue"`
}

// Tokenizer calls the processor's hosted card tokenization endpoint.
type Tokenizer struct {
	url        string
	loginID    string
	clientKey  string
	httpClient *http.Client
}

// NewTokenizer creates a hosted tokenizer client
func NewTokenizer(url, loginID, clientKey string) *Tokenizer {
	return &Tokenizer{
		url:       url,
		loginID:   loginID,
		clientKey: clientKey,
		httpClient: &http.Client{
			Timeout: 15 * time.Second,
		},
	}
}

// Tokenize exchanges raw card data for an opaque token. Format validation
// (grouping, expiry mask) happens before this call; everything else is the
// processor's concern.
func (t *Tokenizer) Tokenize(ctx context.Context, card CardInput) (*OpaqueToken, error) {
	number, err := FormatCardNumber(card.Number)
	if err != nil {
		return nil, err
	}
	expiry, err := FormatExpiry(card.Expiry)
	if err != nil {
		return nil, err
	}

	reqBody := map[string]interface{}{
		"securePaymentContainerRequest": map[string]interface{}{
			"merchantAuthentication": map[string]string{
				"name":      t.loginID,
				"clientKey": t.clientKey,
			},
			"data": map[string]interface{}{
				"type": "TOKEN",
				"token": map[string]string{
					"cardNumber":     number,
					"expirationDate": expiry,
					"cardCode":       card.CVV,
					"fullName":       card.HolderName,
				},
			},
		},
	}

	buf, err := json.Marshal(reqBody)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.url, bytes.NewReader(buf))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := t.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("tokenizer request failed: %w", err)
	}
	defer resp.Body.Close()

	var result struct {
		OpaqueData OpaqueToken `json:"opaqueData"`
		Messages   struct {
			ResultCode string `json:"resultCode"`
			Message    []struct {
				Code string `json:"code"`
				Text string `json:"text"`
			} `json:"message"`
		} `json:"messages"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("failed to decode tokenizer response: %w", err)
	}

	if result.Messages.ResultCode != "Ok" {
		procErr := &ProcessorError{Code: "E00000", Message: "tokenization failed"}
		if len(result.Messages.Message) > 0 {
			procErr.Code = result.Messages.Message[0].Code
			procErr.Message = result.Messages.Message[0].Text
		}
		return nil, procErr
	}

	return &result.OpaqueData, nil
}
