package membership

import "context"

// Store defines the persistence interface for membership records.
// The user ID is the primary key; every other lookup exists to resolve
// webhook events or enforce the duplicate-subscription check.
type Store interface {
	// Get retrieves a record by user ID.
	// Returns ErrRecordNotFound if no record exists.
	Get(ctx context.Context, userID string) (*Record, error)

	// FindPremiumByEmail returns the premium record holding the given
	// email, if any. Used by the checkout duplicate check.
	FindPremiumByEmail(ctx context.Context, email string) (*Record, error)

	// FindByCustomerID returns the record whose stored subscription carries
	// the processor's customer identifier.
	FindByCustomerID(ctx context.Context, customerID string) (*Record, error)

	// FindPremiumBySubscriptionID scans premium records for a matching
	// subscription identifier. Last-resort webhook resolution path; O(n)
	// over premium users and acceptable only because it is rare.
	FindPremiumBySubscriptionID(ctx context.Context, subscriptionID string) (*Record, error)

	// ListPremium returns all premium records for the cleanup sweep.
	ListPremium(ctx context.Context) ([]Record, error)

	// Save creates or updates a record keyed by its user ID.
	Save(ctx context.Context, rec *Record) error
}
