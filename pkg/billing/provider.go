package billing

import (
	"context"
	"time"
)

// EventKind is the normalized billing event type. The provider maps its
// own event names onto these; everything the lifecycle does not care about
// stays EventOther and is acknowledged without side effects.
type EventKind string

const (
	EventCheckoutCompleted   EventKind = "checkout_completed"
	EventSubscriptionUpdated EventKind = "subscription_updated"
	EventSubscriptionDeleted EventKind = "subscription_deleted"
	EventOther               EventKind = "other"
)

// Event is a normalized webhook event from the payment processor.
type Event struct {
	Kind              EventKind
	ProviderEvent     string // original processor event name
	UserID            string // from event metadata, may be empty
	CustomerID        string
	SubscriptionID    string
	Status            string
	CancelAtPeriodEnd bool
	CurrentPeriodEnd  *time.Time
}

// CheckoutParams carries everything needed to open a hosted checkout.
type CheckoutParams struct {
	PriceID    string
	UserID     string
	Email      string
	SuccessURL string
	CancelURL  string
}

// CheckoutSession is a hosted checkout created on the processor side.
type CheckoutSession struct {
	ID  string
	URL string
}

// SubscriptionSnapshot is the processor's view of a subscription after a
// management call, in the shape the lifecycle resolver consumes.
type SubscriptionSnapshot struct {
	ID                string
	Status            string
	CancelAtPeriodEnd bool
	CurrentPeriodEnd  *time.Time
}

// Provider is the minimal payment-processor surface this service needs.
// All payment complexity lives behind hosted checkout pages; the provider
// never stores anything locally.
type Provider interface {
	// CreateCheckoutSession opens a hosted checkout for a subscription plan.
	CreateCheckoutSession(ctx context.Context, params CheckoutParams) (*CheckoutSession, error)

	// ParseWebhook verifies the payload signature and normalizes the event.
	// Verification fails closed: an unverifiable payload is never parsed.
	ParseWebhook(payload []byte, signature string) (*Event, error)

	// CancelAtPeriodEnd schedules a cancellation at the end of the current
	// billing period and returns the resulting subscription state.
	CancelAtPeriodEnd(ctx context.Context, subscriptionID string) (*SubscriptionSnapshot, error)

	// Reactivate revokes a pending cancellation.
	Reactivate(ctx context.Context, subscriptionID string) (*SubscriptionSnapshot, error)

	// HasActiveSubscriptionForEmail checks the processor for any active
	// subscription under customers with the given email. Defense in depth
	// against local store and processor diverging.
	HasActiveSubscriptionForEmail(ctx context.Context, email string) (bool, error)
}
