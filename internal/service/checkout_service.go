package service

import (
	"context"
	"fmt"
	"time"

	"streamcart/internal/commerce"
	"streamcart/internal/flight"
	"streamcart/internal/models"
	"streamcart/internal/payment"
	"streamcart/internal/util"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// CheckoutAPI is the subset of the commerce client used to finalize purchases.
type CheckoutAPI interface {
	RetrieveCart(ctx context.Context, cartID string) (*models.Cart, error)
	CompleteCart(ctx context.Context, cartID string) (*commerce.OrderResult, error)
	PlaceDigitalOrder(ctx context.Context, cartID string) (*commerce.OrderResult, error)
}

// Authorizer runs a payment rail against a cart.
type Authorizer interface {
	Authorize(ctx context.Context, cart *models.Cart, req payment.Request) (*models.Cart, error)
}

// PurchaseStore persists the local purchase trail.
type PurchaseStore interface {
	GetPurchaseByIdempotencyKey(ctx context.Context, key string) (*models.PurchaseRecord, error)
	CreatePurchase(ctx context.Context, p *models.PurchaseRecord) error
}

// PurchasePublisher publishes purchase lifecycle events.
type PurchasePublisher interface {
	PublishPurchaseCompleted(ctx context.Context, event *models.PurchaseCompletedEvent) error
	PublishPurchaseFailed(ctx context.Context, event *models.PurchaseFailedEvent) error
}

// Locker takes cross-instance locks for checkout submissions.
type Locker interface {
	AcquireLock(ctx context.Context, lockKey string, ttl time.Duration) (bool, error)
	ReleaseLock(ctx context.Context, lockKey string) error
}

// CheckoutService drives payment authorization and order placement for a
// cart. A failed step is surfaced to the customer without compensation;
// re-triggering the action is the retry path.
type CheckoutService struct {
	api           CheckoutAPI
	payments      Authorizer
	purchases     PurchaseStore
	publisher     PurchasePublisher
	locks         Locker
	flights       *flight.Supervisor
	digitalTypeID string
	logger        *zap.Logger
}

// NewCheckoutService creates a new checkout service
func NewCheckoutService(
	api CheckoutAPI,
	payments Authorizer,
	purchases PurchaseStore,
	publisher PurchasePublisher,
	locks Locker,
	flights *flight.Supervisor,
	digitalTypeID string,
) *CheckoutService {
	return &CheckoutService{
		api:           api,
		payments:      payments,
		purchases:     purchases,
		publisher:     publisher,
		locks:         locks,
		flights:       flights,
		digitalTypeID: digitalTypeID,
		logger:        util.GetLogger(),
	}
}

// CheckoutRequest submits a cart for payment and order placement.
type CheckoutRequest struct {
	CartID         string          `json:"cart_id" binding:"required"`
	CustomerID     string          `json:"customer_id" binding:"required"`
	CustomerEmail  string          `json:"customer_email"`
	Payment        payment.Request `json:"payment"`
	IdempotencyKey string          `json:"idempotency_key,omitempty"`
}

// CheckoutResponse is the outcome of a checkout submission.
type CheckoutResponse struct {
	OrderID string `json:"order_id"`
	Status  string `json:"status"`
}

// Checkout authorizes payment for the cart and places the order: the
// digital-order endpoint when any line item carries the digital product
// type, the standard completion endpoint otherwise.
func (s *CheckoutService) Checkout(ctx context.Context, req *CheckoutRequest) (*CheckoutResponse, error) {
	ctx, span := util.StartSpan(ctx, "CheckoutService.Checkout")
	defer span.End()

	if req.IdempotencyKey == "" {
		req.IdempotencyKey = uuid.New().String()
	}

	existing, err := s.purchases.GetPurchaseByIdempotencyKey(ctx, req.IdempotencyKey)
	if err != nil {
		return nil, fmt.Errorf("failed to check idempotency: %w", err)
	}
	if existing != nil {
		s.logger.Info("Duplicate checkout request detected",
			zap.String("idempotency_key", req.IdempotencyKey),
			zap.String("order_id", existing.OrderID))
		return &CheckoutResponse{OrderID: existing.OrderID, Status: existing.Status}, nil
	}

	var resp *CheckoutResponse
	err = s.flights.Do(ctx, "checkout:"+req.CartID, func(ctx context.Context) error {
		resp, err = s.checkout(ctx, req)
		return err
	})
	return resp, err
}

func (s *CheckoutService) checkout(ctx context.Context, req *CheckoutRequest) (*CheckoutResponse, error) {
	if s.locks != nil {
		acquired, err := s.locks.AcquireLock(ctx, "checkout:"+req.CartID, 30*time.Second)
		if err != nil {
			s.logger.Warn("Checkout lock unavailable, proceeding without it", zap.Error(err))
		} else if !acquired {
			return nil, flight.ErrInFlight
		} else {
			defer func() {
				if err := s.locks.ReleaseLock(context.Background(), "checkout:"+req.CartID); err != nil {
					s.logger.Warn("Failed to release checkout lock", zap.Error(err))
				}
			}()
		}
	}

	cart, err := s.api.RetrieveCart(ctx, req.CartID)
	if err != nil {
		return nil, err
	}
	if cart == nil {
		return nil, fmt.Errorf("cart not found: %s", req.CartID)
	}

	cart, err = s.payments.Authorize(ctx, cart, req.Payment)
	if err != nil {
		util.PurchasesFailedTotal.WithLabelValues("payment").Inc()
		return nil, err
	}

	provider, _ := payment.ProviderFor(req.Payment.Wallet)

	var result *commerce.OrderResult
	if s.hasDigitalItem(cart) {
		result, err = s.api.PlaceDigitalOrder(ctx, cart.ID)
	} else {
		result, err = s.api.CompleteCart(ctx, cart.ID)
	}
	if err != nil {
		util.PurchasesFailedTotal.WithLabelValues("order_placement").Inc()
		s.publishFailed(ctx, cart, req, provider, err)
		return nil, err
	}

	record := s.recordPurchase(ctx, cart, req, result, provider)

	util.PurchasesCompletedTotal.WithLabelValues(provider).Inc()
	s.logger.Info("Purchase completed",
		zap.String("order_id", result.OrderID),
		zap.String("cart_id", cart.ID),
		zap.String("provider", provider))

	if record != nil {
		event := &models.PurchaseCompletedEvent{
			BaseEvent:     newBaseEvent(models.EventTypePurchaseCompleted),
			PurchaseID:    record.ID,
			OrderID:       record.OrderID,
			CustomerID:    record.CustomerID,
			CustomerEmail: req.CustomerEmail,
			ProductID:     record.ProductID,
			ProductTitle:  s.digitalTitle(cart),
			Provider:      provider,
			Amount:        record.Amount,
		}
		if err := s.publisher.PublishPurchaseCompleted(ctx, event); err != nil {
			s.logger.Error("Failed to publish PurchaseCompleted event", zap.Error(err))
		}
	}

	return &CheckoutResponse{OrderID: result.OrderID, Status: result.Status}, nil
}

// recordPurchase writes the local purchase trail; the order itself already
// succeeded upstream, so a trail failure is logged and not surfaced.
func (s *CheckoutService) recordPurchase(ctx context.Context, cart *models.Cart, req *CheckoutRequest, result *commerce.OrderResult, provider string) *models.PurchaseRecord {
	productID, variantID := "", ""
	var amount int64
	for _, item := range cart.Items {
		amount += item.UnitPrice * int64(item.Quantity)
		if productID == "" && item.ProductType == s.digitalTypeID {
			productID = item.ProductID
			variantID = item.VariantID
		}
	}

	record := &models.PurchaseRecord{
		OrderID:        result.OrderID,
		CustomerID:     req.CustomerID,
		ProductID:      productID,
		VariantID:      variantID,
		Provider:       provider,
		Amount:         amount,
		Status:         models.PurchaseStatusCompleted,
		IdempotencyKey: req.IdempotencyKey,
	}
	if err := s.purchases.CreatePurchase(ctx, record); err != nil {
		s.logger.Error("Failed to record purchase",
			zap.String("order_id", result.OrderID),
			zap.Error(err))
		return nil
	}
	return record
}

func (s *CheckoutService) publishFailed(ctx context.Context, cart *models.Cart, req *CheckoutRequest, provider string, cause error) {
	event := &models.PurchaseFailedEvent{
		BaseEvent:  newBaseEvent(models.EventTypePurchaseFailed),
		CartID:     cart.ID,
		CustomerID: req.CustomerID,
		Provider:   provider,
		Reason:     cause.Error(),
	}
	if err := s.publisher.PublishPurchaseFailed(ctx, event); err != nil {
		s.logger.Error("Failed to publish PurchaseFailed event", zap.Error(err))
	}
}

func (s *CheckoutService) hasDigitalItem(cart *models.Cart) bool {
	for _, item := range cart.Items {
		if item.ProductType == s.digitalTypeID {
			return true
		}
	}
	return false
}

func (s *CheckoutService) digitalTitle(cart *models.Cart) string {
	for _, item := range cart.Items {
		if item.ProductType == s.digitalTypeID {
			return item.Title
		}
	}
	return ""
}

func newBaseEvent(eventType string) models.BaseEvent {
	return models.BaseEvent{
		EventID:   uuid.New().String(),
		EventType: eventType,
		Timestamp: time.Now(),
	}
}
