package store

import (
	"context"
	"database/sql"
	"fmt"

	"streamcart/internal/models"
)

// CreatePurchase records a placed digital purchase
func (s *Store) CreatePurchase(ctx context.Context, p *models.PurchaseRecord) error {
	query := `
		INSERT INTO purchases (order_id, customer_id, product_id, variant_id, provider, amount, status, idempotency_key)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, created_at, updated_at`

	return s.db.GetContext(ctx, p, query,
		p.OrderID, p.CustomerID, p.ProductID, p.VariantID, p.Provider, p.Amount, p.Status, p.IdempotencyKey)
}

// GetPurchaseByID retrieves a purchase record by id
func (s *Store) GetPurchaseByID(ctx context.Context, id int64) (*models.PurchaseRecord, error) {
	var p models.PurchaseRecord
	err := s.db.GetContext(ctx, &p, "SELECT * FROM purchases WHERE id = $1", id)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("purchase not found: %d", id)
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// GetPurchaseByIdempotencyKey retrieves a purchase by idempotency key
func (s *Store) GetPurchaseByIdempotencyKey(ctx context.Context, key string) (*models.PurchaseRecord, error) {
	var p models.PurchaseRecord
	err := s.db.GetContext(ctx, &p, "SELECT * FROM purchases WHERE idempotency_key = $1", key)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// GetPurchasesByCustomerID retrieves a customer's purchase trail
func (s *Store) GetPurchasesByCustomerID(ctx context.Context, customerID string) ([]models.PurchaseRecord, error) {
	var purchases []models.PurchaseRecord
	err := s.db.SelectContext(ctx, &purchases,
		"SELECT * FROM purchases WHERE customer_id = $1 ORDER BY created_at DESC", customerID)
	return purchases, err
}

// UpdatePurchaseStatus updates the status of a purchase record
func (s *Store) UpdatePurchaseStatus(ctx context.Context, purchaseID int64, status string) error {
	_, err := s.db.ExecContext(ctx,
		"UPDATE purchases SET status = $1, updated_at = NOW() WHERE id = $2",
		status, purchaseID)
	return err
}

// UpsertPlaybackProgress stores the latest playback position for a
// customer+product pair
func (s *Store) UpsertPlaybackProgress(ctx context.Context, p *models.PlaybackProgress) error {
	query := `
		INSERT INTO playback_progress (customer_id, product_id, position_seconds, duration_seconds)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (customer_id, product_id)
		DO UPDATE SET position_seconds = $3, duration_seconds = $4, updated_at = NOW()
		RETURNING id, updated_at`

	return s.db.GetContext(ctx, p, query,
		p.CustomerID, p.ProductID, p.PositionSeconds, p.DurationSeconds)
}

// GetPlaybackProgress retrieves the stored position for a customer+product pair
func (s *Store) GetPlaybackProgress(ctx context.Context, customerID, productID string) (*models.PlaybackProgress, error) {
	var p models.PlaybackProgress
	err := s.db.GetContext(ctx, &p,
		"SELECT * FROM playback_progress WHERE customer_id = $1 AND product_id = $2",
		customerID, productID)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// CreateAudition stores an audition form submission
func (s *Store) CreateAudition(ctx context.Context, a *models.AuditionSubmission) error {
	query := `
		INSERT INTO auditions (name, email, phone, role, message, status)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at`

	return s.db.GetContext(ctx, a, query,
		a.Name, a.Email, a.Phone, a.Role, a.Message, a.Status)
}

// UpdateAuditionStatus updates the delivery status of a submission
func (s *Store) UpdateAuditionStatus(ctx context.Context, auditionID int64, status string) error {
	_, err := s.db.ExecContext(ctx,
		"UPDATE auditions SET status = $1 WHERE id = $2",
		status, auditionID)
	return err
}

// IsEventProcessed checks if an event has been processed
func (s *Store) IsEventProcessed(ctx context.Context, eventID string) (bool, error) {
	var exists bool
	err := s.db.GetContext(ctx, &exists,
		"SELECT EXISTS(SELECT 1 FROM processed_events WHERE event_id = $1)", eventID)
	return exists, err
}

// MarkEventProcessed marks an event as processed
func (s *Store) MarkEventProcessed(ctx context.Context, eventID, eventType string) error {
	_, err := s.db.ExecContext(ctx,
		"INSERT INTO processed_events (event_id, event_type) VALUES ($1, $2) ON CONFLICT (event_id) DO NOTHING",
		eventID, eventType)
	return err
}
