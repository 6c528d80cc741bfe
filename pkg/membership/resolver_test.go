package membership_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/readlingo/readlingo/pkg/membership"
)

func timePtr(t time.Time) *time.Time { return &t }

func TestResolve_CheckoutCompleted(t *testing.T) {
	t.Parallel()

	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	rec := membership.Record{UserID: "u1", MembershipType: membership.TypeFree}

	next := membership.Resolve(now, rec, membership.Signal{
		Kind:           membership.SignalCheckoutCompleted,
		SubscriptionID: "sub_abc",
		CustomerID:     "cus_1",
	})

	assert.Equal(t, membership.TypePremium, next.MembershipType)
	assert.Equal(t, "sub_abc", next.SubscriptionID)
	require.NotNil(t, next.Subscription)
	assert.Equal(t, "active", next.Subscription.Status)
	assert.Equal(t, "cus_1", next.Subscription.CustomerID)
	assert.Nil(t, next.CancelledAt)
	assert.Empty(t, next.DowngradeReason)
}

func TestResolve_ActiveIsIdempotent(t *testing.T) {
	t.Parallel()

	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	rec := membership.Record{UserID: "u1", MembershipType: membership.TypeBasic}
	sig := membership.Signal{
		Kind:           membership.SignalActive,
		SubscriptionID: "sub_abc",
		CustomerID:     "cus_1",
	}

	once := membership.Resolve(now, rec, sig)
	twice := membership.Resolve(now, once, sig)

	assert.Equal(t, once, twice)
	assert.Equal(t, membership.TypePremium, twice.MembershipType)
}

func TestResolve_CancelScheduled(t *testing.T) {
	t.Parallel()

	t.Run("keeps premium during grace period", func(t *testing.T) {
		t.Parallel()
		now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
		periodEnd := now.AddDate(0, 1, 0)
		rec := membership.Record{
			UserID:         "u1",
			MembershipType: membership.TypePremium,
			SubscriptionID: "sub_abc",
			Subscription:   &membership.SubscriptionState{ID: "sub_abc", Status: "active"},
		}

		next := membership.Resolve(now, rec, membership.Signal{
			Kind:             membership.SignalCancelScheduled,
			SubscriptionID:   "sub_abc",
			CurrentPeriodEnd: timePtr(periodEnd),
		})

		assert.Equal(t, membership.TypePremium, next.MembershipType)
		require.NotNil(t, next.Subscription)
		assert.True(t, next.Subscription.CancelAtPeriodEnd)
		require.NotNil(t, next.Subscription.CurrentPeriodEnd)
		assert.Equal(t, periodEnd, *next.Subscription.CurrentPeriodEnd)
		require.NotNil(t, next.CancelledAt)
		assert.Equal(t, now, *next.CancelledAt)
	})

	t.Run("first cancellation observation wins", func(t *testing.T) {
		t.Parallel()
		first := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
		later := first.Add(48 * time.Hour)
		rec := membership.Record{
			UserID:         "u1",
			MembershipType: membership.TypePremium,
			SubscriptionID: "sub_abc",
			CancelledAt:    timePtr(first),
		}

		next := membership.Resolve(later, rec, membership.Signal{
			Kind:           membership.SignalCancelScheduled,
			SubscriptionID: "sub_abc",
		})

		require.NotNil(t, next.CancelledAt)
		assert.Equal(t, first, *next.CancelledAt)
	})
}

func TestResolve_Reactivated(t *testing.T) {
	t.Parallel()

	now := time.Date(2024, 3, 5, 12, 0, 0, 0, time.UTC)
	cancelled := now.Add(-72 * time.Hour)
	rec := membership.Record{
		UserID:         "u1",
		MembershipType: membership.TypePremium,
		SubscriptionID: "sub_abc",
		CancelledAt:    &cancelled,
		Subscription: &membership.SubscriptionState{
			ID:                "sub_abc",
			Status:            "active",
			CancelAtPeriodEnd: true,
		},
	}

	next := membership.Resolve(now, rec, membership.Signal{
		Kind:           membership.SignalReactivated,
		SubscriptionID: "sub_abc",
	})

	assert.Equal(t, membership.TypePremium, next.MembershipType)
	assert.Nil(t, next.CancelledAt)
	require.NotNil(t, next.Subscription)
	assert.False(t, next.Subscription.CancelAtPeriodEnd)
}

func TestResolve_ReactivateCancelReactivate(t *testing.T) {
	t.Parallel()

	// Sequence of transitions composes correctly; no stuck state.
	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	rec := membership.Record{
		UserID:         "u1",
		MembershipType: membership.TypePremium,
		SubscriptionID: "sub_abc",
		Subscription:   &membership.SubscriptionState{ID: "sub_abc", Status: "active"},
	}

	reactivate := membership.Signal{Kind: membership.SignalReactivated, SubscriptionID: "sub_abc"}
	cancel := membership.Signal{Kind: membership.SignalCancelScheduled, SubscriptionID: "sub_abc"}

	rec = membership.Resolve(now, rec, reactivate)
	rec = membership.Resolve(now.Add(time.Minute), rec, cancel)
	rec = membership.Resolve(now.Add(2*time.Minute), rec, reactivate)

	assert.Equal(t, membership.TypePremium, rec.MembershipType)
	assert.Nil(t, rec.CancelledAt)
	require.NotNil(t, rec.Subscription)
	assert.False(t, rec.Subscription.CancelAtPeriodEnd)
}

func TestResolve_Canceled(t *testing.T) {
	t.Parallel()

	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	rec := membership.Record{
		UserID:         "u1",
		MembershipType: membership.TypePremium,
		SubscriptionID: "sub_abc",
		Subscription:   &membership.SubscriptionState{ID: "sub_abc", Status: "active"},
	}

	next := membership.Resolve(now, rec, membership.Signal{Kind: membership.SignalCanceled})

	assert.Equal(t, membership.TypeBasic, next.MembershipType)
	assert.Empty(t, next.SubscriptionID)
	require.NotNil(t, next.Subscription)
	assert.Equal(t, "canceled", next.Subscription.Status)
	require.NotNil(t, next.CancelledAt)
	assert.Equal(t, now, *next.CancelledAt)
}

func TestResolve_Inactive(t *testing.T) {
	t.Parallel()

	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	rec := membership.Record{
		UserID:         "u1",
		MembershipType: membership.TypePremium,
		SubscriptionID: "sub_abc",
	}

	next := membership.Resolve(now, rec, membership.Signal{
		Kind:   membership.SignalInactive,
		Status: "past_due",
	})

	assert.Equal(t, membership.TypeBasic, next.MembershipType)
	assert.Empty(t, next.SubscriptionID)
	require.NotNil(t, next.Subscription)
	assert.Equal(t, "past_due", next.Subscription.Status)
}

func TestSignalFromStatus(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name              string
		status            string
		cancelAtPeriodEnd bool
		want              membership.SignalKind
	}{
		{"active", "active", false, membership.SignalActive},
		{"active with pending cancel", "active", true, membership.SignalCancelScheduled},
		{"trialing", "trialing", false, membership.SignalActive},
		{"canceled", "canceled", false, membership.SignalCanceled},
		{"canceled british spelling", "cancelled", false, membership.SignalCanceled},
		{"past due", "past_due", false, membership.SignalInactive},
		{"unpaid", "unpaid", true, membership.SignalInactive},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, membership.SignalFromStatus(tt.status, tt.cancelAtPeriodEnd))
		})
	}
}
