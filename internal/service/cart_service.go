package service

import (
	"context"
	"fmt"

	"streamcart/internal/commerce"
	"streamcart/internal/flight"
	"streamcart/internal/models"
	"streamcart/internal/util"

	"go.uber.org/zap"
)

// CartAPI is the subset of the commerce client used for cart operations.
type CartAPI interface {
	CreateCart(ctx context.Context, regionID, cartType string) (*models.Cart, error)
	RetrieveCart(ctx context.Context, cartID string) (*models.Cart, error)
	AddLineItem(ctx context.Context, cartID, variantID string, quantity int) (*models.Cart, error)
	RemoveLineItem(ctx context.Context, cartID, lineItemID string) (*models.Cart, error)
	UpdateCart(ctx context.Context, cartID string, update commerce.CartUpdate) (*models.Cart, error)
	SetShippingMethod(ctx context.Context, cartID, optionID string) (*models.Cart, error)
}

// RegionResolver maps a country code to a commerce region.
type RegionResolver interface {
	Resolve(ctx context.Context, countryCode string) (*models.Region, error)
}

// CartService handles stream-cart operations against the commerce backend.
// The backend owns the cart; this service only adds the storefront
// conveniences (idempotent add, region resolution, single-flight guard).
type CartService struct {
	api     CartAPI
	regions RegionResolver
	flights *flight.Supervisor
	logger  *zap.Logger
}

// NewCartService creates a new cart service
func NewCartService(api CartAPI, regions RegionResolver, flights *flight.Supervisor) *CartService {
	return &CartService{
		api:     api,
		regions: regions,
		flights: flights,
		logger:  util.GetLogger(),
	}
}

// Retrieve returns the current stream cart, or nil when the id is empty or
// the cart no longer exists upstream.
func (s *CartService) Retrieve(ctx context.Context, cartID string) (*models.Cart, error) {
	if cartID == "" {
		return nil, nil
	}
	return s.api.RetrieveCart(ctx, cartID)
}

// AddItem ensures a line item for the variant exists in the stream cart,
// creating the cart on first add. If the variant is already present the add
// call is skipped; this check is best-effort, the backend stays the source
// of truth. Rapid duplicate submissions for the same variant are rejected
// with flight.ErrInFlight.
func (s *CartService) AddItem(ctx context.Context, cartID, variantID string, quantity int, countryCode string) (*models.Cart, error) {
	ctx, span := util.StartSpan(ctx, "CartService.AddItem")
	defer span.End()

	var result *models.Cart
	err := s.flights.Do(ctx, "cart-add:"+cartID+":"+variantID, func(ctx context.Context) error {
		cart, err := s.ensureCart(ctx, cartID, countryCode)
		if err != nil {
			return err
		}

		for _, item := range cart.Items {
			if item.VariantID == variantID {
				util.CartAddsTotal.WithLabelValues("already_in_cart").Inc()
				s.logger.Info("Variant already in stream cart, skipping add",
					zap.String("cart_id", cart.ID),
					zap.String("variant_id", variantID))
				result = cart
				return nil
			}
		}

		updated, err := s.api.AddLineItem(ctx, cart.ID, variantID, quantity)
		if err != nil {
			util.CartAddsTotal.WithLabelValues("error").Inc()
			return err
		}

		util.CartAddsTotal.WithLabelValues("added").Inc()
		result = updated
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// RemoveItem removes the line item holding the variant from the cart. It
// shares the single-flight key with AddItem, so toggling the same track
// rapidly collapses to whichever call won instead of racing the backend.
// Removing a variant that is not in the cart is a no-op.
func (s *CartService) RemoveItem(ctx context.Context, cartID, variantID string) (*models.Cart, error) {
	ctx, span := util.StartSpan(ctx, "CartService.RemoveItem")
	defer span.End()

	var result *models.Cart
	err := s.flights.Do(ctx, "cart-add:"+cartID+":"+variantID, func(ctx context.Context) error {
		cart, err := s.api.RetrieveCart(ctx, cartID)
		if err != nil {
			return err
		}
		if cart == nil {
			return nil
		}

		result = cart
		for _, item := range cart.Items {
			if item.VariantID == variantID {
				updated, err := s.api.RemoveLineItem(ctx, cart.ID, item.ID)
				if err != nil {
					return err
				}
				result = updated
				return nil
			}
		}

		s.logger.Info("Variant not in stream cart, nothing to remove",
			zap.String("cart_id", cart.ID),
			zap.String("variant_id", variantID))
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// UpdateCart applies a partial address/email update to the cart
func (s *CartService) UpdateCart(ctx context.Context, cartID string, update commerce.CartUpdate) (*models.Cart, error) {
	return s.api.UpdateCart(ctx, cartID, update)
}

// SetShippingMethod selects a shipping option for the cart
func (s *CartService) SetShippingMethod(ctx context.Context, cartID, methodID string) (*models.Cart, error) {
	return s.api.SetShippingMethod(ctx, cartID, methodID)
}

// ensureCart retrieves the cart or creates a fresh stream cart in the
// region resolved from the country code.
func (s *CartService) ensureCart(ctx context.Context, cartID, countryCode string) (*models.Cart, error) {
	if cartID != "" {
		cart, err := s.api.RetrieveCart(ctx, cartID)
		if err != nil {
			return nil, err
		}
		if cart != nil {
			return cart, nil
		}
	}

	region, err := s.regions.Resolve(ctx, countryCode)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve region: %w", err)
	}

	cart, err := s.api.CreateCart(ctx, region.ID, models.CartTypeStream)
	if err != nil {
		return nil, fmt.Errorf("failed to create stream cart: %w", err)
	}

	s.logger.Info("Stream cart created",
		zap.String("cart_id", cart.ID),
		zap.String("region_id", region.ID))
	return cart, nil
}
