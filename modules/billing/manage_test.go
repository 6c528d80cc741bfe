package billing_test

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/readlingo/readlingo/pkg/billing"
	"github.com/readlingo/readlingo/pkg/jwt"
	"github.com/readlingo/readlingo/pkg/membership"
)

func postAuthenticated(t *testing.T, r http.Handler, tokens *jwt.Service, path, userID string) *httptest.ResponseRecorder {
	t.Helper()
	token, err := tokens.Generate(jwt.Claims{
		Subject:   userID,
		ExpiresAt: time.Now().Add(time.Hour).Unix(),
	})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, path, nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func TestCancelSubscription(t *testing.T) {
	t.Parallel()

	t.Run("requires a token", func(t *testing.T) {
		t.Parallel()

		store := new(mockStore)
		provider := new(mockProvider)
		router, _ := newTestRouter(t, newTestHandlers(t, store, provider, testConfig()))

		req := httptest.NewRequest(http.MethodPost, "/cancel-subscription", nil)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("schedules cancellation with the processor", func(t *testing.T) {
		t.Parallel()

		periodEnd := testNow.Add(15 * 24 * time.Hour)
		store := new(mockStore)
		provider := new(mockProvider)
		store.On("Get", mock.Anything, "u1").
			Return(&membership.Record{
				UserID:         "u1",
				MembershipType: membership.TypePremium,
				SubscriptionID: "sub_abc",
				Subscription:   &membership.SubscriptionState{ID: "sub_abc", Status: "active"},
			}, nil)
		provider.On("CancelAtPeriodEnd", mock.Anything, "sub_abc").
			Return(&billing.SubscriptionSnapshot{
				ID:                "sub_abc",
				Status:            "active",
				CancelAtPeriodEnd: true,
				CurrentPeriodEnd:  timePtr(periodEnd),
			}, nil)

		var saved *membership.Record
		store.On("Save", mock.Anything, mock.Anything).
			Run(func(args mock.Arguments) { saved = args.Get(1).(*membership.Record) }).
			Return(nil)

		router, tokens := newTestRouter(t, newTestHandlers(t, store, provider, testConfig()))
		rec := postAuthenticated(t, router, tokens, "/cancel-subscription", "u1")

		require.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), "cancellation_scheduled")
		require.NotNil(t, saved)
		assert.Equal(t, membership.TypePremium, saved.MembershipType)
		require.NotNil(t, saved.Subscription)
		assert.True(t, saved.Subscription.CancelAtPeriodEnd)
		require.NotNil(t, saved.Subscription.CurrentPeriodEnd)
		assert.Equal(t, periodEnd, *saved.Subscription.CurrentPeriodEnd)
	})

	t.Run("test subscription is cancelled locally", func(t *testing.T) {
		t.Parallel()

		store := new(mockStore)
		provider := new(mockProvider)
		store.On("Get", mock.Anything, "u1").
			Return(&membership.Record{
				UserID:         "u1",
				MembershipType: membership.TypePremium,
				SubscriptionID: "test_sub_1",
			}, nil)

		var saved *membership.Record
		store.On("Save", mock.Anything, mock.Anything).
			Run(func(args mock.Arguments) { saved = args.Get(1).(*membership.Record) }).
			Return(nil)

		router, tokens := newTestRouter(t, newTestHandlers(t, store, provider, testConfig()))
		rec := postAuthenticated(t, router, tokens, "/cancel-subscription", "u1")

		require.Equal(t, http.StatusOK, rec.Code)
		provider.AssertNotCalled(t, "CancelAtPeriodEnd", mock.Anything, mock.Anything)
		require.NotNil(t, saved)
		assert.Equal(t, membership.TypeBasic, saved.MembershipType)
		assert.Empty(t, saved.SubscriptionID)
		assert.Nil(t, saved.Subscription)
		require.NotNil(t, saved.CancelledAt)
		assert.Equal(t, testNow, *saved.CancelledAt)
	})

	t.Run("nothing to cancel", func(t *testing.T) {
		t.Parallel()

		store := new(mockStore)
		provider := new(mockProvider)
		store.On("Get", mock.Anything, "u1").
			Return(&membership.Record{UserID: "u1", MembershipType: membership.TypeFree}, nil)

		router, tokens := newTestRouter(t, newTestHandlers(t, store, provider, testConfig()))
		rec := postAuthenticated(t, router, tokens, "/cancel-subscription", "u1")

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("unknown user", func(t *testing.T) {
		t.Parallel()

		store := new(mockStore)
		provider := new(mockProvider)
		store.On("Get", mock.Anything, "missing").
			Return(nil, membership.ErrRecordNotFound)

		router, tokens := newTestRouter(t, newTestHandlers(t, store, provider, testConfig()))
		rec := postAuthenticated(t, router, tokens, "/cancel-subscription", "missing")

		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}

func TestReactivateSubscription(t *testing.T) {
	t.Parallel()

	t.Run("revokes a pending cancellation", func(t *testing.T) {
		t.Parallel()

		cancelledAt := testNow.Add(-5 * 24 * time.Hour)
		store := new(mockStore)
		provider := new(mockProvider)
		store.On("Get", mock.Anything, "u1").
			Return(&membership.Record{
				UserID:         "u1",
				MembershipType: membership.TypePremium,
				SubscriptionID: "sub_abc",
				CancelledAt:    &cancelledAt,
				Subscription: &membership.SubscriptionState{
					ID:                "sub_abc",
					Status:            "active",
					CancelAtPeriodEnd: true,
				},
			}, nil)
		provider.On("Reactivate", mock.Anything, "sub_abc").
			Return(&billing.SubscriptionSnapshot{ID: "sub_abc", Status: "active"}, nil)

		var saved *membership.Record
		store.On("Save", mock.Anything, mock.Anything).
			Run(func(args mock.Arguments) { saved = args.Get(1).(*membership.Record) }).
			Return(nil)

		router, tokens := newTestRouter(t, newTestHandlers(t, store, provider, testConfig()))
		rec := postAuthenticated(t, router, tokens, "/reactivate-subscription", "u1")

		require.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), "reactivated")
		require.NotNil(t, saved)
		assert.Equal(t, membership.TypePremium, saved.MembershipType)
		assert.Nil(t, saved.CancelledAt)
		require.NotNil(t, saved.Subscription)
		assert.False(t, saved.Subscription.CancelAtPeriodEnd)
	})

	t.Run("test subscription reactivates locally", func(t *testing.T) {
		t.Parallel()

		cancelledAt := testNow.Add(-time.Hour)
		store := new(mockStore)
		provider := new(mockProvider)
		store.On("Get", mock.Anything, "u1").
			Return(&membership.Record{
				UserID:         "u1",
				MembershipType: membership.TypePremium,
				SubscriptionID: "test_sub_1",
				CancelledAt:    &cancelledAt,
			}, nil)

		var saved *membership.Record
		store.On("Save", mock.Anything, mock.Anything).
			Run(func(args mock.Arguments) { saved = args.Get(1).(*membership.Record) }).
			Return(nil)

		router, tokens := newTestRouter(t, newTestHandlers(t, store, provider, testConfig()))
		rec := postAuthenticated(t, router, tokens, "/reactivate-subscription", "u1")

		require.Equal(t, http.StatusOK, rec.Code)
		provider.AssertNotCalled(t, "Reactivate", mock.Anything, mock.Anything)
		require.NotNil(t, saved)
		assert.Equal(t, membership.TypePremium, saved.MembershipType)
		assert.Nil(t, saved.CancelledAt)
	})

	t.Run("processor failure surfaces", func(t *testing.T) {
		t.Parallel()

		store := new(mockStore)
		provider := new(mockProvider)
		store.On("Get", mock.Anything, "u1").
			Return(&membership.Record{
				UserID:         "u1",
				MembershipType: membership.TypePremium,
				SubscriptionID: "sub_abc",
			}, nil)
		provider.On("Reactivate", mock.Anything, "sub_abc").
			Return(nil, billing.ErrProviderUnavailable)

		router, tokens := newTestRouter(t, newTestHandlers(t, store, provider, testConfig()))
		rec := postAuthenticated(t, router, tokens, "/reactivate-subscription", "u1")

		assert.Equal(t, http.StatusInternalServerError, rec.Code)
		store.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
	})
}
