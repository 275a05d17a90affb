package models

import "time"

// Cart is the client-side view of a commerce-backend cart. The backend is
// the source of truth; this struct only mirrors the fields the storefront
// flow reads.
type Cart struct {
	ID              string           `json:"id"`
	Type            string           `json:"type"`
	RegionID        string           `json:"region_id"`
	CountryCode     string           `json:"country_code"`
	Email           string           `json:"email,omitempty"`
	Items           []LineItem       `json:"items"`
	PaymentSessions []PaymentSession `json:"payment_sessions,omitempty"`
	ShippingAddress *Address         `json:"shipping_address,omitempty"`
	CompletedAt     *time.Time       `json:"completed_at,omitempty"`
}

// LineItem is a single cart line as returned by the commerce backend.
type LineItem struct {
	ID          string `json:"id"`
	VariantID   string `json:"variant_id"`
	ProductID   string `json:"product_id"`
	ProductType string `json:"product_type"`
	Title       string `json:"title"`
	Quantity    int    `json:"quantity"`
	UnitPrice   int64  `json:"unit_price"`
}

// Address is a partial shipping/billing address; all fields optional on update.
type Address struct {
	FirstName   string `json:"first_name,omitempty"`
	LastName    string `json:"last_name,omitempty"`
	Address1    string `json:"address_1,omitempty"`
	City        string `json:"city,omitempty"`
	PostalCode  string `json:"postal_code,omitempty"`
	CountryCode string `json:"country_code,omitempty"`
}

// Cart types
const (
	CartTypeStream  = "stream"
	CartTypeDefault = "default"
)

// DigitalProduct is a purchasable unit of media content: a season, an
// episode, an album, or a sound. Episodes and sounds carry a parent id
// pointing at their season/album.
type DigitalProduct struct {
	ID             string            `json:"id"`
	Type           string            `json:"type"`
	ParentID       string            `json:"parent_id,omitempty"`
	Title          string            `json:"title"`
	VariantID      string            `json:"product_variant_id"`
	PreviewURL     string            `json:"preview_url,omitempty"`
	ContentURL     string            `json:"content_url,omitempty"`
	TranslatedURLs map[string]string `json:"translated_urls,omitempty"`
	Purchased      bool              `json:"purchased"`
}

// Digital product types
const (
	DigitalProductTypeSeason  = "season"
	DigitalProductTypeEpisode = "episode"
	DigitalProductTypeAlbum   = "album"
	DigitalProductTypeSound   = "sound"
)

// PaymentSession is a backend-tracked payment authorization attempt for a
// cart. The client only reads status and provider id.
type PaymentSession struct {
	ID         string `json:"id"`
	ProviderID string `json:"provider_id"`
	Status     string `json:"status"`
}

// Payment session statuses
const (
	PaymentSessionStatusPending    = "pending"
	PaymentSessionStatusAuthorized = "authorized"
	PaymentSessionStatusError      = "error"
)

// Payment provider ids
const (
	ProviderCard      = "card"
	ProviderApplePay  = "apple-pay"
	ProviderGooglePay = "google-pay"
)

// Region is a commerce-backend region resolved from a country code.
type Region struct {
	ID           string   `json:"id"`
	Name         string   `json:"name"`
	CurrencyCode string   `json:"currency_code"`
	Countries    []string `json:"countries"`
}

// PurchaseRecord is the local trail of a completed digital purchase.
type PurchaseRecord struct {
	ID             int64     `db:"id" json:"id"`
	OrderID        string    `db:"order_id" json:"order_id"`
	CustomerID     string    `db:"customer_id" json:"customer_id"`
	ProductID      string    `db:"product_id" json:"product_id"`
	VariantID      string    `db:"variant_id" json:"variant_id"`
	Provider       string    `db:"provider" json:"provider"`
	Amount         int64     `db:"amount" json:"amount"`
	Status         string    `db:"status" json:"status"`
	IdempotencyKey string    `db:"idempotency_key" json:"idempotency_key,omitempty"`
	CreatedAt      time.Time `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time `db:"updated_at" json:"updated_at"`
}

// Purchase statuses
const (
	PurchaseStatusPlaced    = "PLACED"
	PurchaseStatusCompleted = "COMPLETED"
	PurchaseStatusNotified  = "NOTIFIED"
)

// PlaybackProgress is the stored playback position for a customer+product pair.
type PlaybackProgress struct {
	ID              int64     `db:"id" json:"id"`
	CustomerID      string    `db:"customer_id" json:"customer_id"`
	ProductID       string    `db:"product_id" json:"product_id"`
	PositionSeconds int64     `db:"position_seconds" json:"position_seconds"`
	DurationSeconds int64     `db:"duration_seconds" json:"duration_seconds"`
	UpdatedAt       time.Time `db:"updated_at" json:"updated_at"`
}

// AuditionSubmission is a stored audition form submission awaiting email delivery.
type AuditionSubmission struct {
	ID        int64     `db:"id" json:"id"`
	Name      string    `db:"name" json:"name"`
	Email     string    `db:"email" json:"email"`
	Phone     string    `db:"phone" json:"phone,omitempty"`
	Role      string    `db:"role" json:"role,omitempty"`
	Message   string    `db:"message" json:"message,omitempty"`
	Status    string    `db:"status" json:"status"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// Audition statuses
const (
	AuditionStatusReceived = "RECEIVED"
	AuditionStatusEmailed  = "EMAILED"
)

// ProcessedEvent for worker idempotency
type ProcessedEvent struct {
	EventID     string    `db:"event_id"`
	EventType   string    `db:"event_type"`
	ProcessedAt time.Time `db:"processed_at"`
}
