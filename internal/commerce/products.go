package commerce

import (
	"context"
	"net/http"
	"net/url"

	"streamcart/internal/models"
)

// CustomerDigitalProducts lists the digital products visible to a customer
// for a given product (and optionally its parent), with entitlement flags.
// Sent with a no-store cache policy: entitlement can change within seconds
// of purchase, so intermediaries must not cache the response.
func (c *Client) CustomerDigitalProducts(ctx context.Context, customerID, productID, parentID string) ([]models.DigitalProduct, error) {
	q := url.Values{}
	q.Set("product_id", productID)
	if parentID != "" {
		q.Set("parent_id", parentID)
	}

	var res struct {
		DigitalProducts []models.DigitalProduct `json:"digital_products"`
	}
	err := c.do(ctx, http.MethodGet,
		"/store/customers/"+customerID+"/digital-products?"+q.Encode(),
		nil, &res, map[string]string{"Cache-Control": "no-store"})
	if err != nil {
		return nil, err
	}
	return res.DigitalProducts, nil
}

// ListRegions lists the commerce backend's regions
func (c *Client) ListRegions(ctx context.Context) ([]models.Region, error) {
	var res struct {
		Regions []models.Region `json:"regions"`
	}
	if err := c.do(ctx, http.MethodGet, "/store/regions", nil, &res, nil); err != nil {
		return nil, err
	}
	return res.Regions, nil
}
