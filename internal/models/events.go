package models

import "time"

// Event types
const (
	EventTypePurchaseCompleted = "PURCHASE_COMPLETED"
	EventTypePurchaseFailed    = "PURCHASE_FAILED"
	EventTypeAuditionSubmitted = "AUDITION_SUBMITTED"
)

// BaseEvent contains common fields for all events
type BaseEvent struct {
	EventID   string    `json:"event_id"`
	EventType string    `json:"event_type"`
	Timestamp time.Time `json:"timestamp"`
}

// PurchaseCompletedEvent published when a digital order has been placed
// and the purchase recorded locally.
type PurchaseCompletedEvent struct {
	BaseEvent
	PurchaseID    int64  `json:"purchase_id"`
	OrderID       string `json:"order_id"`
	CustomerID    string `json:"customer_id"`
	CustomerEmail string `json:"customer_email"`
	ProductID     string `json:"product_id"`
	ProductTitle  string `json:"product_title"`
	Provider      string `json:"provider"`
	Amount        int64  `json:"amount"`
}

// PurchaseFailedEvent published when order placement fails after a payment
// session was opened. No compensation is attempted; the event is a trail
// for support tooling.
type PurchaseFailedEvent struct {
	BaseEvent
	CartID     string `json:"cart_id"`
	CustomerID string `json:"customer_id"`
	Provider   string `json:"provider"`
	Reason     string `json:"reason"`
}

// AuditionSubmittedEvent published when an audition form submission is stored.
type AuditionSubmittedEvent struct {
	BaseEvent
	SubmissionID int64  `json:"submission_id"`
	Name         string `json:"name"`
	Email        string `json:"email"`
	Role         string `json:"role,omitempty"`
}
