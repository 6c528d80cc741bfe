package billing_test

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	billingmod "github.com/readlingo/readlingo/modules/billing"
	"github.com/readlingo/readlingo/pkg/billing"
	"github.com/readlingo/readlingo/pkg/jwt"
	"github.com/readlingo/readlingo/pkg/membership"
)

type mockStore struct {
	mock.Mock
}

func (m *mockStore) Get(ctx context.Context, userID string) (*membership.Record, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*membership.Record), args.Error(1)
}

func (m *mockStore) FindPremiumByEmail(ctx context.Context, email string) (*membership.Record, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*membership.Record), args.Error(1)
}

func (m *mockStore) FindByCustomerID(ctx context.Context, customerID string) (*membership.Record, error) {
	args := m.Called(ctx, customerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*membership.Record), args.Error(1)
}

func (m *mockStore) FindPremiumBySubscriptionID(ctx context.Context, subscriptionID string) (*membership.Record, error) {
	args := m.Called(ctx, subscriptionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*membership.Record), args.Error(1)
}

func (m *mockStore) ListPremium(ctx context.Context) ([]membership.Record, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]membership.Record), args.Error(1)
}

func (m *mockStore) Save(ctx context.Context, rec *membership.Record) error {
	args := m.Called(ctx, rec)
	return args.Error(0)
}

type mockProvider struct {
	mock.Mock
}

func (m *mockProvider) CreateCheckoutSession(ctx context.Context, params billing.CheckoutParams) (*billing.CheckoutSession, error) {
	args := m.Called(ctx, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*billing.CheckoutSession), args.Error(1)
}

func (m *mockProvider) ParseWebhook(payload []byte, signature string) (*billing.Event, error) {
	args := m.Called(payload, signature)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*billing.Event), args.Error(1)
}

func (m *mockProvider) CancelAtPeriodEnd(ctx context.Context, subscriptionID string) (*billing.SubscriptionSnapshot, error) {
	args := m.Called(ctx, subscriptionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*billing.SubscriptionSnapshot), args.Error(1)
}

func (m *mockProvider) Reactivate(ctx context.Context, subscriptionID string) (*billing.SubscriptionSnapshot, error) {
	args := m.Called(ctx, subscriptionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*billing.SubscriptionSnapshot), args.Error(1)
}

func (m *mockProvider) HasActiveSubscriptionForEmail(ctx context.Context, email string) (bool, error) {
	args := m.Called(ctx, email)
	return args.Bool(0), args.Error(1)
}

// Test helpers

var testNow = time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

func testConfig() billing.Config {
	return billing.Config{
		SecretKey:           "sk_test_123",
		WebhookSecret:       "whsec_123",
		PricePremiumMonthly: "price_monthly_123",
		PricePremiumYearly:  "price_yearly_123",
	}
}

func newTestHandlers(t *testing.T, store *mockStore, provider *mockProvider, cfg billing.Config) *billingmod.Handlers {
	t.Helper()
	h := billingmod.NewHandlers(store, provider, cfg, billingmod.Config{CleanupSecret: "sweep-secret"}, slog.Default())
	return h.WithClock(func() time.Time { return testNow })
}

func newTestRouter(t *testing.T, h *billingmod.Handlers) (chi.Router, *jwt.Service) {
	t.Helper()
	tokens, err := jwt.New("test-signing-key")
	require.NoError(t, err)
	r := chi.NewRouter()
	billingmod.Routes(r, h, tokens)
	return r, tokens
}

func timePtr(t time.Time) *time.Time { return &t }
