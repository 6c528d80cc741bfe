package billing

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/readlingo/readlingo/core"
	"github.com/readlingo/readlingo/pkg/billing"
	"github.com/readlingo/readlingo/pkg/membership"
)

type checkoutRequest struct {
	Plan      string `json:"plan"`
	UserID    string `json:"userId"`
	UserEmail string `json:"userEmail"`
	ReturnURL string `json:"returnUrl"`
}

type checkoutResponse struct {
	URL string `json:"url"`
}

func (h *Handlers) handleCreateCheckoutSession(w http.ResponseWriter, r *http.Request) {
	var req checkoutRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		core.WriteError(w, http.StatusBadRequest, core.ErrBadRequest.Code, "Invalid request body", "")
		return
	}
	req.UserEmail = strings.TrimSpace(strings.ToLower(req.UserEmail))

	if req.UserID == "" || req.UserEmail == "" {
		core.WriteError(w, http.StatusBadRequest, core.ErrBadRequest.Code, "userId and userEmail are required", "")
		return
	}

	priceID, ok := h.billCfg.PriceFor(req.Plan)
	if !ok {
		core.WriteError(w, http.StatusBadRequest, core.ErrBadRequest.Code, "Unknown plan", req.Plan)
		return
	}

	if err := h.checkDuplicateSubscription(r, req.UserID, req.UserEmail); err != nil {
		var httpErr core.HTTPError
		if errors.As(err, &httpErr) {
			core.WriteError(w, httpErr.Status, httpErr.Code, "Subscription already exists", "An active subscription already exists for this email")
			return
		}
		core.WriteError(w, http.StatusInternalServerError, core.ErrInternalError.Code, "Failed to verify existing subscriptions", err.Error())
		return
	}

	sess, err := h.provider.CreateCheckoutSession(r.Context(), billing.CheckoutParams{
		PriceID:    priceID,
		UserID:     req.UserID,
		Email:      req.UserEmail,
		SuccessURL: req.ReturnURL,
		CancelURL:  req.ReturnURL,
	})
	if err != nil {
		h.log.ErrorContext(r.Context(), "checkout session creation failed",
			slog.String("user_id", req.UserID),
			slog.Any("error", err),
		)
		core.WriteError(w, http.StatusInternalServerError, core.ErrInternalError.Code, "Failed to create checkout session", err.Error())
		return
	}

	core.WriteJSON(w, http.StatusOK, checkoutResponse{URL: sess.URL})
}

// errSubscriptionExists carries a distinguishable code so clients can
// branch on the duplicate case.
var errSubscriptionExists = core.NewHTTPError(http.StatusBadRequest, "subscription_exists")

// checkDuplicateSubscription enforces the at-most-one-active-subscription
// rule per email. Best-effort and not transactional: a race between two
// concurrent checkouts can slip through, which is accepted (the store has
// no unique constraint to lean on and the check spans two systems).
func (h *Handlers) checkDuplicateSubscription(r *http.Request, userID, email string) error {
	existing, err := h.store.FindPremiumByEmail(r.Context(), email)
	switch {
	case errors.Is(err, membership.ErrRecordNotFound):
		// No local premium record for this email.
	case err != nil:
		return err
	case existing.UserID == userID:
		// Same user upgrading or renewing.
	case existing.EffectiveSubscriptionID() == "":
		// Premium without a subscription identifier has nothing active on
		// the processor side to protect.
	case existing.HasTestSubscription():
		// Simulated subscriptions never block a real checkout.
	case existing.Subscription != nil && membership.IsActiveStatus(existing.Subscription.Status):
		return errSubscriptionExists
	}

	// Defense in depth on live credentials: the processor may know about
	// an active subscription the local store lost track of. A processor
	// lookup failure is logged, not fatal - this check is best-effort.
	if h.billCfg.LiveMode() {
		active, err := h.provider.HasActiveSubscriptionForEmail(r.Context(), email)
		if err != nil {
			h.log.WarnContext(r.Context(), "processor-side duplicate check failed",
				slog.String("email", email),
				slog.Any("error", err),
			)
		} else if active {
			return errSubscriptionExists
		}
	}

	return nil
}
