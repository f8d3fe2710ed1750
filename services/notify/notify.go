// Package notify carries license lifecycle messages to the outside world.
// Delivery itself (SMS, chat deep link) is an external collaborator hidden
// behind Messenger; this package only queues and drains.
package notify

import "context"

// Messenger delivers a pre-formatted message to a destination. Delivery is
// fire-and-forget; nothing here verifies receipt.
type Messenger interface {
	Send(ctx context.Context, to, body string) error
}

// LicenseRequestPayload is enqueued when a property owner asks for a new or
// extended license from the storefront.
type LicenseRequestPayload struct {
	PropertyID    string `json:"property_id"`
	PropertyName  string `json:"property_name"`
	RequesterID   string `json:"requester_id"`
	DurationDays  int    `json:"duration_days"`
	PriceCents    int64  `json:"price_cents"`
	Currency      string `json:"currency"`
	Feedback      string `json:"feedback,omitempty"`
	Message       string `json:"message"`
}

// LicenseActivatedPayload is enqueued after a successful assign or redeem.
type LicenseActivatedPayload struct {
	PropertyID string `json:"property_id"`
	LicenseKey string `json:"license_key"`
	ExpiresAt  string `json:"expires_at"`
	Message    string `json:"message"`
}

// LicenseRevokedPayload is enqueued when an admin withdraws a bound license.
type LicenseRevokedPayload struct {
	PropertyID string `json:"property_id"`
	LicenseKey string `json:"license_key"`
	Message    string `json:"message"`
}
