// Package billing exposes the subscription HTTP endpoints: checkout
// creation, the processor webhook, cancel/reactivate, and the cleanup
// sweep trigger.
package billing

import (
	"log/slog"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/readlingo/readlingo/pkg/billing"
	"github.com/readlingo/readlingo/pkg/jwt"
	"github.com/readlingo/readlingo/pkg/membership"
)

// Config holds the module's own secrets.
type Config struct {
	// CleanupSecret guards the cleanup endpoint; it is operator-facing,
	// not end-user-facing.
	CleanupSecret string `env:"CLEANUP_ADMIN_SECRET,required"`
}

// Handlers carries the dependencies shared by all billing endpoints.
type Handlers struct {
	store    membership.Store
	provider billing.Provider
	billCfg  billing.Config
	cfg      Config
	sweeper  *membership.Sweeper
	log      *slog.Logger
	now      func() time.Time
}

// NewHandlers creates the billing endpoint handlers.
// Panics on nil required dependencies to fail fast during initialization.
func NewHandlers(store membership.Store, provider billing.Provider, billCfg billing.Config, cfg Config, log *slog.Logger) *Handlers {
	if store == nil {
		panic("billing: membership store is required")
	}
	if provider == nil {
		panic("billing: payment provider is required")
	}
	if log == nil {
		log = slog.Default()
	}
	return &Handlers{
		store:    store,
		provider: provider,
		billCfg:  billCfg,
		cfg:      cfg,
		sweeper:  membership.NewSweeper(store, log),
		log:      log,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// WithClock replaces the handlers' time source. Test hook; the sweeper
// keeps its own clock and is replaced wholesale in tests.
func (h *Handlers) WithClock(now func() time.Time) *Handlers {
	if now != nil {
		h.now = now
		h.sweeper.WithClock(now)
	}
	return h
}

// Routes registers the billing endpoints on the given router. Cancel and
// reactivate sit behind the identity-token middleware; the webhook and
// cleanup endpoints carry their own authentication (processor signature,
// shared secret).
func Routes(r chi.Router, h *Handlers, tokens *jwt.Service) {
	r.Post("/create-checkout-session", h.handleCreateCheckoutSession)
	r.Post("/webhook", h.handleWebhook)
	r.Post("/cleanup-expired-premium", h.handleCleanup)

	r.Group(func(auth chi.Router) {
		auth.Use(jwt.Middleware(tokens))
		auth.Post("/cancel-subscription", h.handleCancel)
		auth.Post("/reactivate-subscription", h.handleReactivate)
	})
}
