package payment

import (
	"context"
	"encoding/base64"
	"fmt"
	"time"

	"streamcart/internal/models"
	"streamcart/internal/util"

	"go.uber.org/zap"
)

// SessionAPI is the subset of the commerce client used to manage a cart's
// payment sessions.
type SessionAPI interface {
	CreatePaymentSessions(ctx context.Context, cartID string) (*models.Cart, error)
	SelectPaymentSession(ctx context.Context, cartID, providerID string) (*models.Cart, error)
	UpdatePaymentSession(ctx context.Context, cartID, providerID string, data map[string]interface{}) (*models.Cart, error)
}

// CardTokenizer exchanges raw card data for an opaque token.
type CardTokenizer interface {
	Tokenize(ctx context.Context, card CardInput) (*OpaqueToken, error)
}

// Request selects one of the three payment rails. Wallet is empty for the
// card path; wallets submit their payment token pre-tokenized.
type Request struct {
	Wallet         string          `json:"wallet"`
	Card           *CardInput      `json:"card,omitempty"`
	WalletToken    string          `json:"wallet_token,omitempty"`
	BillingContact *models.Address `json:"billing_contact,omitempty"`
}

// Orchestrator branches across the payment rails, attaches the resulting
// opaque token to the cart's payment session, and leaves the session
// pending for order placement.
type Orchestrator struct {
	sessions  SessionAPI
	tokenizer CardTokenizer
	logger    *zap.Logger
}

// NewOrchestrator creates a payment orchestrator
func NewOrchestrator(sessions SessionAPI, tokenizer CardTokenizer) *Orchestrator {
	return &Orchestrator{
		sessions:  sessions,
		tokenizer: tokenizer,
		logger:    util.GetLogger(),
	}
}

// ProviderFor maps a wallet selection to a payment provider id
func ProviderFor(wallet string) (string, error) {
	switch wallet {
	case "":
		return models.ProviderCard, nil
	case models.ProviderApplePay:
		return models.ProviderApplePay, nil
	case models.ProviderGooglePay:
		return models.ProviderGooglePay, nil
	default:
		return "", fmt.Errorf("unknown wallet type: %s", wallet)
	}
}

// Authorize runs the selected rail against the cart. If the cart already
// holds a pending session for the same provider, initiation is skipped
// entirely and the caller proceeds straight to order placement.
func (o *Orchestrator) Authorize(ctx context.Context, cart *models.Cart, req Request) (*models.Cart, error) {
	ctx, span := util.StartSpan(ctx, "Orchestrator.Authorize")
	defer span.End()

	provider, err := ProviderFor(req.Wallet)
	if err != nil {
		return nil, err
	}

	if hasPendingSession(cart, provider) {
		util.PaymentSessionsSkipped.Inc()
		o.logger.Info("Pending payment session exists, skipping initiation",
			zap.String("cart_id", cart.ID),
			zap.String("provider", provider))
		return cart, nil
	}

	data, err := o.sessionData(ctx, provider, req)
	if err != nil {
		return nil, err
	}

	updated := cart
	if len(cart.PaymentSessions) == 0 {
		updated, err = o.sessions.CreatePaymentSessions(ctx, cart.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to create payment sessions: %w", err)
		}
	}

	if _, err := o.sessions.SelectPaymentSession(ctx, updated.ID, provider); err != nil {
		return nil, fmt.Errorf("failed to select payment session: %w", err)
	}

	updated, err = o.sessions.UpdatePaymentSession(ctx, updated.ID, provider, data)
	if err != nil {
		return nil, err
	}

	util.PaymentSessionsTotal.WithLabelValues(provider).Inc()
	return updated, nil
}

// sessionData produces the provider-specific payload for the payment session.
func (o *Orchestrator) sessionData(ctx context.Context, provider string, req Request) (map[string]interface{}, error) {
	switch provider {
	case models.ProviderCard:
		if req.Card == nil {
			return nil, fmt.Errorf("card details are required")
		}

		start := time.Now()
		token, err := o.tokenizer.Tokenize(ctx, *req.Card)
		util.TokenizeLatency.Observe(time.Since(start).Seconds())
		if err != nil {
			return nil, err
		}

		return map[string]interface{}{"opaqueData": token}, nil

	case models.ProviderApplePay:
		if req.WalletToken == "" {
			return nil, fmt.Errorf("apple pay token is required")
		}
		data := map[string]interface{}{"paymentToken": ensureBase64(req.WalletToken)}
		if req.BillingContact != nil {
			data["billingContact"] = req.BillingContact
		}
		return data, nil

	case models.ProviderGooglePay:
		if req.WalletToken == "" {
			return nil, fmt.Errorf("google pay token is required")
		}
		return map[string]interface{}{"paymentToken": ensureBase64(req.WalletToken)}, nil
	}

	return nil, fmt.Errorf("unknown provider: %s", provider)
}

func hasPendingSession(cart *models.Cart, provider string) bool {
	for _, s := range cart.PaymentSessions {
		if s.ProviderID == provider && s.Status == models.PaymentSessionStatusPending {
			return true
		}
	}
	return false
}

// ensureBase64 passes already-encoded tokens through and encodes raw ones.
func ensureBase64(token string) string {
	if _, err := base64.StdEncoding.DecodeString(token); err == nil {
		return token
	}
	return base64.StdEncoding.EncodeToString([]byte(token))
}
