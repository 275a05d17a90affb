package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"streamcart/internal/commerce"
	"streamcart/internal/flight"
	"streamcart/internal/models"
	"streamcart/internal/payment"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const digitalTypeID = "ptyp_digital"

type fakeCheckoutAPI struct {
	cart          *models.Cart
	digitalOrders int
	standardOrder int
	placeErr      error
}

func (f *fakeCheckoutAPI) RetrieveCart(ctx context.Context, cartID string) (*models.Cart, error) {
	return f.cart, nil
}

func (f *fakeCheckoutAPI) CompleteCart(ctx context.Context, cartID string) (*commerce.OrderResult, error) {
	f.standardOrder++
	if f.placeErr != nil {
		return nil, f.placeErr
	}
	return &commerce.OrderResult{OrderID: "order_std", Status: "completed"}, nil
}

func (f *fakeCheckoutAPI) PlaceDigitalOrder(ctx context.Context, cartID string) (*commerce.OrderResult, error) {
	f.digitalOrders++
	if f.placeErr != nil {
		return nil, f.placeErr
	}
	return &commerce.OrderResult{OrderID: "order_dig", Status: "completed"}, nil
}

type fakeAuthorizer struct {
	err error
}

func (f *fakeAuthorizer) Authorize(ctx context.Context, cart *models.Cart, req payment.Request) (*models.Cart, error) {
	if f.err != nil {
		return nil, f.err
	}
	return cart, nil
}

type fakePurchaseStore struct {
	byKey   map[string]*models.PurchaseRecord
	created []*models.PurchaseRecord
}

func (f *fakePurchaseStore) GetPurchaseByIdempotencyKey(ctx context.Context, key string) (*models.PurchaseRecord, error) {
	if f.byKey == nil {
		return nil, nil
	}
	return f.byKey[key], nil
}

func (f *fakePurchaseStore) CreatePurchase(ctx context.Context, p *models.PurchaseRecord) error {
	p.ID = int64(len(f.created) + 1)
	f.created = append(f.created, p)
	return nil
}

type fakePublisher struct {
	completed []*models.PurchaseCompletedEvent
	failed    []*models.PurchaseFailedEvent
}

func (f *fakePublisher) PublishPurchaseCompleted(ctx context.Context, e *models.PurchaseCompletedEvent) error {
	f.completed = append(f.completed, e)
	return nil
}

func (f *fakePublisher) PublishPurchaseFailed(ctx context.Context, e *models.PurchaseFailedEvent) error {
	f.failed = append(f.failed, e)
	return nil
}

type fakeLocker struct {
	acquired bool
}

func (f *fakeLocker) AcquireLock(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	return !f.acquired, nil
}

func (f *fakeLocker) ReleaseLock(ctx context.Context, key string) error {
	return nil
}

func digitalCart() *models.Cart {
	return &models.Cart{
		ID:   "cart_1",
		Type: models.CartTypeStream,
		Items: []models.LineItem{
			{ID: "li_1", VariantID: "v1", ProductID: "ep_1", ProductType: digitalTypeID, Title: "Episode 1", Quantity: 1, UnitPrice: 499},
		},
	}
}

func newCheckoutService(api *fakeCheckoutAPI, auth *fakeAuthorizer, store *fakePurchaseStore, pub *fakePublisher) *CheckoutService {
	return NewCheckoutService(api, auth, store, pub, &fakeLocker{}, flight.NewSupervisor(), digitalTypeID)
}

func TestCheckoutRoutesDigitalOrder(t *testing.T) {
	api := &fakeCheckoutAPI{cart: digitalCart()}
	store := &fakePurchaseStore{}
	pub := &fakePublisher{}
	s := newCheckoutService(api, &fakeAuthorizer{}, store, pub)

	resp, err := s.Checkout(context.Background(), &CheckoutRequest{
		CartID:     "cart_1",
		CustomerID: "cus_1",
	})
	require.NoError(t, err)

	assert.Equal(t, "order_dig", resp.OrderID)
	assert.Equal(t, 1, api.digitalOrders)
	assert.Equal(t, 0, api.standardOrder)

	require.Len(t, store.created, 1)
	assert.Equal(t, "ep_1", store.created[0].ProductID)
	assert.Equal(t, int64(499), store.created[0].Amount)

	require.Len(t, pub.completed, 1)
	assert.Equal(t, "Episode 1", pub.completed[0].ProductTitle)
}

func TestCheckoutRoutesStandardOrder(t *testing.T) {
	cart := &models.Cart{
		ID:    "cart_2",
		Items: []models.LineItem{{ID: "li_1", VariantID: "v2", ProductType: "ptyp_merch", Quantity: 2, UnitPrice: 1500}},
	}
	api := &fakeCheckoutAPI{cart: cart}
	s := newCheckoutService(api, &fakeAuthorizer{}, &fakePurchaseStore{}, &fakePublisher{})

	resp, err := s.Checkout(context.Background(), &CheckoutRequest{
		CartID:     "cart_2",
		CustomerID: "cus_1",
	})
	require.NoError(t, err)

	assert.Equal(t, "order_std", resp.OrderID)
	assert.Equal(t, 0, api.digitalOrders)
	assert.Equal(t, 1, api.standardOrder)
}

func TestCheckoutIdempotencyKeyReturnsExistingOrder(t *testing.T) {
	api := &fakeCheckoutAPI{cart: digitalCart()}
	store := &fakePurchaseStore{
		byKey: map[string]*models.PurchaseRecord{
			"key-1": {OrderID: "order_prev", Status: models.PurchaseStatusCompleted},
		},
	}
	s := newCheckoutService(api, &fakeAuthorizer{}, store, &fakePublisher{})

	resp, err := s.Checkout(context.Background(), &CheckoutRequest{
		CartID:         "cart_1",
		CustomerID:     "cus_1",
		IdempotencyKey: "key-1",
	})
	require.NoError(t, err)

	assert.Equal(t, "order_prev", resp.OrderID)
	assert.Equal(t, 0, api.digitalOrders)
}

func TestCheckoutSurfacesPaymentError(t *testing.T) {
	api := &fakeCheckoutAPI{cart: digitalCart()}
	auth := &fakeAuthorizer{err: &payment.ProcessorError{Code: "E00027", Message: "This transaction has been declined."}}
	s := newCheckoutService(api, auth, &fakePurchaseStore{}, &fakePublisher{})

	_, err := s.Checkout(context.Background(), &CheckoutRequest{
		CartID:     "cart_1",
		CustomerID: "cus_1",
	})

	var procErr *payment.ProcessorError
	require.ErrorAs(t, err, &procErr)
	assert.Equal(t, "This transaction has been declined.", procErr.Message)
	assert.Equal(t, 0, api.digitalOrders)
}

func TestCheckoutOrderFailurePublishesFailedEvent(t *testing.T) {
	api := &fakeCheckoutAPI{cart: digitalCart(), placeErr: errors.New("backend rejected order")}
	pub := &fakePublisher{}
	s := newCheckoutService(api, &fakeAuthorizer{}, &fakePurchaseStore{}, pub)

	_, err := s.Checkout(context.Background(), &CheckoutRequest{
		CartID:     "cart_1",
		CustomerID: "cus_1",
	})
	require.Error(t, err)

	require.Len(t, pub.failed, 1)
	assert.Equal(t, "cart_1", pub.failed[0].CartID)
}

func TestCheckoutRejectedWhenLockHeldElsewhere(t *testing.T) {
	api := &fakeCheckoutAPI{cart: digitalCart()}
	s := NewCheckoutService(api, &fakeAuthorizer{}, &fakePurchaseStore{}, &fakePublisher{},
		&fakeLocker{acquired: true}, flight.NewSupervisor(), digitalTypeID)

	_, err := s.Checkout(context.Background(), &CheckoutRequest{
		CartID:     "cart_1",
		CustomerID: "cus_1",
	})
	assert.ErrorIs(t, err, flight.ErrInFlight)
}
