package membership

import (
	"strings"
	"time"
)

// MembershipType is the access tier stored on a user record.
// Free and basic are functionally equivalent; premium grants full access.
type MembershipType string

const (
	TypeFree    MembershipType = "free"
	TypeBasic   MembershipType = "basic"
	TypePremium MembershipType = "premium"
)

// GracePeriod is how long premium access is retained after a cancellation
// when the payment processor never supplied a billing period end.
const GracePeriod = 30 * 24 * time.Hour

// testSubscriptionPrefix marks locally-simulated subscriptions that must
// never reach the payment processor.
const testSubscriptionPrefix = "test_"

// SubscriptionState mirrors the processor-side subscription snapshot stored
// inside the user document. Field names match the stored document, which in
// turn follows the processor's wire format.
type SubscriptionState struct {
	ID                string     `bson:"id,omitempty" json:"id,omitempty"`
	Status            string     `bson:"status,omitempty" json:"status,omitempty"`
	CancelAtPeriodEnd bool       `bson:"cancel_at_period_end" json:"cancel_at_period_end"`
	CurrentPeriodEnd  *time.Time `bson:"current_period_end,omitempty" json:"current_period_end,omitempty"`
	CustomerID        string     `bson:"customerId,omitempty" json:"customerId,omitempty"`
	UpdatedAt         time.Time  `bson:"updatedAt,omitempty" json:"updatedAt,omitempty"`
}

// Record is the billing-relevant subset of a user document.
type Record struct {
	UserID          string             `bson:"_id" json:"userId"`
	Email           string             `bson:"email,omitempty" json:"email,omitempty"`
	MembershipType  MembershipType     `bson:"membershipType" json:"membershipType"`
	SubscriptionID  string             `bson:"subscriptionId,omitempty" json:"subscriptionId,omitempty"`
	Subscription    *SubscriptionState `bson:"subscription,omitempty" json:"subscription,omitempty"`
	CancelledAt     *time.Time         `bson:"cancelledAt,omitempty" json:"cancelledAt,omitempty"`
	DowngradeReason string             `bson:"downgradeReason,omitempty" json:"downgradeReason,omitempty"`
	UpdatedAt       time.Time          `bson:"updatedAt,omitempty" json:"updatedAt,omitempty"`
}

// EffectiveSubscriptionID resolves the subscription identifier once.
// Older records carry it in subscriptionId, newer ones in subscription.id;
// the top-level field wins when both are present.
func (r *Record) EffectiveSubscriptionID() string {
	if r.SubscriptionID != "" {
		return r.SubscriptionID
	}
	if r.Subscription != nil {
		return r.Subscription.ID
	}
	return ""
}

// IsPremium returns true if the record currently grants full access.
func (r *Record) IsPremium() bool {
	return r.MembershipType == TypePremium
}

// HasTestSubscription reports whether the effective subscription is a
// locally-simulated one exempt from processor checks.
func (r *Record) HasTestSubscription() bool {
	return IsTestSubscriptionID(r.EffectiveSubscriptionID())
}

// GraceDeadline returns the instant at which a cancelled premium record
// loses access. The processor-supplied current_period_end is canonical;
// cancelledAt plus the fixed grace period is the fallback when the
// processor never delivered a period end. Returns the zero time when the
// record carries no cancellation at all.
func (r *Record) GraceDeadline() time.Time {
	if r.Subscription != nil && r.Subscription.CurrentPeriodEnd != nil {
		return *r.Subscription.CurrentPeriodEnd
	}
	if r.CancelledAt != nil {
		return r.CancelledAt.Add(GracePeriod)
	}
	return time.Time{}
}

// GraceExpired reports whether a recorded cancellation has passed its
// grace deadline at the given instant.
func (r *Record) GraceExpired(now time.Time) bool {
	if r.CancelledAt == nil {
		return false
	}
	deadline := r.GraceDeadline()
	return !deadline.IsZero() && now.After(deadline)
}

// IsTestSubscriptionID reports whether an identifier refers to a
// locally-simulated subscription.
func IsTestSubscriptionID(id string) bool {
	return strings.HasPrefix(id, testSubscriptionPrefix)
}

// IsActiveStatus reports whether a processor status string counts as active.
func IsActiveStatus(status string) bool {
	return strings.EqualFold(status, "active") || strings.EqualFold(status, "trialing")
}

// IsCanceledStatus reports whether a processor status string is terminal.
func IsCanceledStatus(status string) bool {
	return strings.EqualFold(status, "canceled") || strings.EqualFold(status, "cancelled")
}
