package commerce

import (
	"context"
	"net/http"

	"streamcart/internal/models"
)

type cartEnvelope struct {
	Cart models.Cart `json:"cart"`
}

// CartUpdate is a partial cart mutation; zero-value fields are omitted.
type CartUpdate struct {
	Email           string          `json:"email,omitempty"`
	ShippingAddress *models.Address `json:"shipping_address,omitempty"`
	BillingAddress  *models.Address `json:"billing_address,omitempty"`
}

// CreateCart creates a new cart of the given type in a region
func (c *Client) CreateCart(ctx context.Context, regionID, cartType string) (*models.Cart, error) {
	body := map[string]interface{}{
		"region_id": regionID,
		"context":   map[string]string{"type": cartType},
	}

	var env cartEnvelope
	if err := c.do(ctx, http.MethodPost, "/store/carts", body, &env, nil); err != nil {
		return nil, err
	}
	return &env.Cart, nil
}

// RetrieveCart retrieves a cart by id; a 404 yields (nil, nil)
func (c *Client) RetrieveCart(ctx context.Context, cartID string) (*models.Cart, error) {
	var env cartEnvelope
	err := c.do(ctx, http.MethodGet, "/store/carts/"+cartID, nil, &env, nil)
	if IsNotFound(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &env.Cart, nil
}

// AddLineItem adds a variant to a cart
func (c *Client) AddLineItem(ctx context.Context, cartID, variantID string, quantity int) (*models.Cart, error) {
	body := map[string]interface{}{
		"variant_id": variantID,
		"quantity":   quantity,
	}

	var env cartEnvelope
	if err := c.do(ctx, http.MethodPost, "/store/carts/"+cartID+"/line-items", body, &env, nil); err != nil {
		return nil, err
	}
	return &env.Cart, nil
}

// RemoveLineItem deletes a line item from a cart
func (c *Client) RemoveLineItem(ctx context.Context, cartID, lineItemID string) (*models.Cart, error) {
	var env cartEnvelope
	if err := c.do(ctx, http.MethodDelete, "/store/carts/"+cartID+"/line-items/"+lineItemID, nil, &env, nil); err != nil {
		return nil, err
	}
	return &env.Cart, nil
}

// UpdateCart applies a partial update to a cart
func (c *Client) UpdateCart(ctx context.Context, cartID string, update CartUpdate) (*models.Cart, error) {
	var env cartEnvelope
	if err := c.do(ctx, http.MethodPost, "/store/carts/"+cartID, update, &env, nil); err != nil {
		return nil, err
	}
	return &env.Cart, nil
}

// SetShippingMethod selects a shipping option for a cart
func (c *Client) SetShippingMethod(ctx context.Context, cartID, optionID string) (*models.Cart, error) {
	body := map[string]string{"option_id": optionID}

	var env cartEnvelope
	if err := c.do(ctx, http.MethodPost, "/store/carts/"+cartID+"/shipping-methods", body, &env, nil); err != nil {
		return nil, err
	}
	return &env.Cart, nil
}

// CreatePaymentSessions initializes payment sessions for every enabled provider
func (c *Client) CreatePaymentSessions(ctx context.Context, cartID string) (*models.Cart, error) {
	var env cartEnvelope
	if err := c.do(ctx, http.MethodPost, "/store/carts/"+cartID+"/payment-sessions", nil, &env, nil); err != nil {
		return nil, err
	}
	return &env.Cart, nil
}

// SelectPaymentSession marks the session of the given provider as the one
// to use for completion
func (c *Client) SelectPaymentSession(ctx context.Context, cartID, providerID string) (*models.Cart, error) {
	body := map[string]string{"provider_id": providerID}

	var env cartEnvelope
	if err := c.do(ctx, http.MethodPost, "/store/carts/"+cartID+"/payment-session", body, &env, nil); err != nil {
		return nil, err
	}
	return &env.Cart, nil
}

// UpdatePaymentSession attaches tokenized payment data to a provider session
func (c *Client) UpdatePaymentSession(ctx context.Context, cartID, providerID string, data map[string]interface{}) (*models.Cart, error) {
	body := map[string]interface{}{"data": data}

	var env cartEnvelope
	if err := c.do(ctx, http.MethodPost, "/store/carts/"+cartID+"/payment-sessions/"+providerID, body, &env, nil); err != nil {
		return nil, err
	}
	return &env.Cart, nil
}

// OrderResult is the outcome of completing a cart
type OrderResult struct {
	OrderID string `json:"order_id"`
	Status  string `json:"status"`
}

// CompleteCart places a standard order for a cart (physical goods path)
func (c *Client) CompleteCart(ctx context.Context, cartID string) (*OrderResult, error) {
	var res struct {
		Data OrderResult `json:"data"`
	}
	if err := c.do(ctx, http.MethodPost, "/store/carts/"+cartID+"/complete", nil, &res, nil); err != nil {
		return nil, err
	}
	return &res.Data, nil
}

// PlaceDigitalOrder places a digital-product order for a cart
func (c *Client) PlaceDigitalOrder(ctx context.Context, cartID string) (*OrderResult, error) {
	var res struct {
		Data OrderResult `json:"data"`
	}
	if err := c.do(ctx, http.MethodPost, "/store/digital-orders", map[string]string{"cart_id": cartID}, &res, nil); err != nil {
		return nil, err
	}
	return &res.Data, nil
}
