package membership

import "time"

// SignalKind identifies a lifecycle transition trigger.
type SignalKind string

const (
	// SignalCheckoutCompleted fires when the processor confirms a finished
	// checkout session for a resolvable user.
	SignalCheckoutCompleted SignalKind = "checkout_completed"
	// SignalActive fires on a subscription update with an active status and
	// no pending cancellation.
	SignalActive SignalKind = "active"
	// SignalCancelScheduled fires on an active subscription flagged to
	// cancel at period end.
	SignalCancelScheduled SignalKind = "cancel_scheduled"
	// SignalReactivated fires when a pending cancellation is revoked.
	SignalReactivated SignalKind = "reactivated"
	// SignalCanceled fires when the subscription is gone on the processor
	// side, either via a deletion event or a canceled status.
	SignalCanceled SignalKind = "canceled"
	// SignalInactive fires for any other non-active status.
	SignalInactive SignalKind = "inactive"
)

// Signal carries a normalized lifecycle trigger and the processor-side
// fields relevant to it. Zero-value fields mean "not supplied".
type Signal struct {
	Kind             SignalKind
	SubscriptionID   string
	CustomerID       string
	Status           string
	CurrentPeriodEnd *time.Time
}

// Resolve computes the next record state from the current one and an
// incoming signal. It is a pure function: it never touches a store, never
// returns an error, and applying the same signal twice yields the same
// record as applying it once. State is driven by the signal's absolute
// content rather than deltas, which is the only ordering safeguard this
// system has under out-of-order webhook delivery.
func Resolve(now time.Time, rec Record, sig Signal) Record {
	next := rec
	next.UpdatedAt = now

	switch sig.Kind {
	case SignalCheckoutCompleted:
		next.MembershipType = TypePremium
		next.SubscriptionID = sig.SubscriptionID
		next.Subscription = &SubscriptionState{
			ID:                sig.SubscriptionID,
			Status:            "active",
			CancelAtPeriodEnd: false,
			CustomerID:        coalesce(sig.CustomerID, customerID(rec)),
			UpdatedAt:         now,
		}
		next.CancelledAt = nil
		next.DowngradeReason = ""

	case SignalActive, SignalReactivated:
		next.MembershipType = TypePremium
		if sig.SubscriptionID != "" {
			next.SubscriptionID = sig.SubscriptionID
		}
		next.Subscription = &SubscriptionState{
			ID:                coalesce(sig.SubscriptionID, rec.EffectiveSubscriptionID()),
			Status:            "active",
			CancelAtPeriodEnd: false,
			CurrentPeriodEnd:  coalesceTime(sig.CurrentPeriodEnd, periodEnd(rec)),
			CustomerID:        coalesce(sig.CustomerID, customerID(rec)),
			UpdatedAt:         now,
		}
		next.CancelledAt = nil
		next.DowngradeReason = ""

	case SignalCancelScheduled:
		// Grace period: access stays premium until the period runs out.
		next.MembershipType = TypePremium
		if sig.SubscriptionID != "" {
			next.SubscriptionID = sig.SubscriptionID
		}
		next.Subscription = &SubscriptionState{
			ID:                coalesce(sig.SubscriptionID, rec.EffectiveSubscriptionID()),
			Status:            "active",
			CancelAtPeriodEnd: true,
			CurrentPeriodEnd:  coalesceTime(sig.CurrentPeriodEnd, periodEnd(rec)),
			CustomerID:        coalesce(sig.CustomerID, customerID(rec)),
			UpdatedAt:         now,
		}
		// First cancellation observation wins; a retried or out-of-order
		// event must never push the grace window forward.
		if rec.CancelledAt == nil {
			next.CancelledAt = &now
		}

	case SignalCanceled:
		next.MembershipType = TypeBasic
		next.SubscriptionID = ""
		next.Subscription = &SubscriptionState{
			Status:     "canceled",
			CustomerID: coalesce(sig.CustomerID, customerID(rec)),
			UpdatedAt:  now,
		}
		if rec.CancelledAt == nil {
			next.CancelledAt = &now
		}

	case SignalInactive:
		next.MembershipType = TypeBasic
		next.SubscriptionID = ""
		next.Subscription = &SubscriptionState{
			Status:     sig.Status,
			CustomerID: coalesce(sig.CustomerID, customerID(rec)),
			UpdatedAt:  now,
		}
	}

	return next
}

// SignalFromStatus maps a raw processor status plus the cancel flag onto a
// lifecycle signal, mirroring the priority order of the resolver rules.
func SignalFromStatus(status string, cancelAtPeriodEnd bool) SignalKind {
	switch {
	case IsActiveStatus(status) && cancelAtPeriodEnd:
		return SignalCancelScheduled
	case IsActiveStatus(status):
		return SignalActive
	case IsCanceledStatus(status):
		return SignalCanceled
	default:
		return SignalInactive
	}
}

func customerID(rec Record) string {
	if rec.Subscription != nil {
		return rec.Subscription.CustomerID
	}
	return ""
}

func periodEnd(rec Record) *time.Time {
	if rec.Subscription != nil {
		return rec.Subscription.CurrentPeriodEnd
	}
	return nil
}

func coalesce(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}

func coalesceTime(vals ...*time.Time) *time.Time {
	for _, v := range vals {
		if v != nil {
			return v
		}
	}
	return nil
}
