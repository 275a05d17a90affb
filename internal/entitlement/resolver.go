package entitlement

import (
	"context"
	"errors"

	"streamcart/internal/models"
	"streamcart/internal/util"

	"go.uber.org/zap"
)

// ErrNoPlayback is returned when a product has no playback id for any
// locale and no content URL.
var ErrNoPlayback = errors.New("no playback source for product")

// ProductAPI is the subset of the commerce client queried for entitlements.
type ProductAPI interface {
	CustomerDigitalProducts(ctx context.Context, customerID, productID, parentID string) ([]models.DigitalProduct, error)
}

// Entitlement is the result of a purchase check for one customer+product pair.
type Entitlement struct {
	Purchased  bool
	Product    *models.DigitalProduct
	PlaybackID string
}

// Resolver determines whether a customer has purchased a digital product
// and which playback id to use for their locale. Entitlement checks fail
// closed: any upstream error is treated as not purchased.
type Resolver struct {
	api    ProductAPI
	logger *zap.Logger
}

// NewResolver creates an entitlement resolver
func NewResolver(api ProductAPI) *Resolver {
	return &Resolver{
		api:    api,
		logger: util.GetLogger(),
	}
}

// Resolve checks entitlement and selects a playback id for the locale.
// A purchased product with no resolvable playback source yields
// ErrNoPlayback rather than a placeholder id.
func (r *Resolver) Resolve(ctx context.Context, customerID, productID, parentID, locale string) (*Entitlement, error) {
	ctx, span := util.StartSpan(ctx, "Resolver.Resolve")
	defer span.End()

	products, err := r.api.CustomerDigitalProducts(ctx, customerID, productID, parentID)
	if err != nil {
		// Fail closed: content access is never granted on an upstream error.
		util.EntitlementChecksTotal.WithLabelValues("error").Inc()
		r.logger.Warn("Entitlement check failed, treating as not purchased",
			zap.String("customer_id", customerID),
			zap.String("product_id", productID),
			zap.Error(err))
		return &Entitlement{Purchased: false}, nil
	}

	var product *models.DigitalProduct
	for i := range products {
		if products[i].ID == productID {
			product = &products[i]
			break
		}
	}

	if product == nil || !product.Purchased {
		util.EntitlementChecksTotal.WithLabelValues("not_purchased").Inc()
		return &Entitlement{Purchased: false, Product: product}, nil
	}

	playbackID, err := SelectPlaybackID(product, locale)
	if err != nil {
		return nil, err
	}

	util.EntitlementChecksTotal.WithLabelValues("purchased").Inc()
	return &Entitlement{
		Purchased:  true,
		Product:    product,
		PlaybackID: playbackID,
	}, nil
}

// SelectPlaybackID picks a playback id for a locale with fallback order:
// exact locale, then English, then the raw content URL. Exhausting all
// three is an error.
func SelectPlaybackID(p *models.DigitalProduct, locale string) (string, error) {
	if id, ok := p.TranslatedURLs[locale]; ok && id != "" {
		return id, nil
	}
	if id, ok := p.TranslatedURLs["en"]; ok && id != "" {
		return id, nil
	}
	if p.ContentURL != "" {
		return p.ContentURL, nil
	}
	return "", ErrNoPlayback
}
