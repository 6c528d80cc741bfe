package billing

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/readlingo/readlingo/core"
	"github.com/readlingo/readlingo/pkg/jwt"
	"github.com/readlingo/readlingo/pkg/membership"
)

type manageResponse struct {
	Status         string                    `json:"status"`
	MembershipType membership.MembershipType `json:"membershipType"`
}

// handleCancel schedules a cancellation at period end for the caller's
// subscription. Test subscriptions are simulated with a direct store
// write; the processor never hears about them.
func (h *Handlers) handleCancel(w http.ResponseWriter, r *http.Request) {
	rec, ok := h.recordFromToken(w, r)
	if !ok {
		return
	}

	subID := rec.EffectiveSubscriptionID()
	if subID == "" {
		core.WriteError(w, http.StatusBadRequest, core.ErrBadRequest.Code, "No subscription to cancel", "")
		return
	}

	now := h.now()

	if membership.IsTestSubscriptionID(subID) {
		next := *rec
		next.MembershipType = membership.TypeBasic
		next.SubscriptionID = ""
		next.Subscription = nil
		next.CancelledAt = &now
		next.UpdatedAt = now
		if err := h.store.Save(r.Context(), &next); err != nil {
			core.WriteError(w, http.StatusInternalServerError, core.ErrInternalError.Code, "Failed to update record", "")
			return
		}
		core.WriteJSON(w, http.StatusOK, manageResponse{Status: "cancelled", MembershipType: next.MembershipType})
		return
	}

	snap, err := h.provider.CancelAtPeriodEnd(r.Context(), subID)
	if err != nil {
		h.log.ErrorContext(r.Context(), "processor cancellation failed",
			slog.String("user_id", rec.UserID),
			slog.String("subscription_id", subID),
			slog.Any("error", err),
		)
		core.WriteError(w, http.StatusInternalServerError, core.ErrInternalError.Code, "Failed to cancel subscription", err.Error())
		return
	}

	next := membership.Resolve(now, *rec, membership.Signal{
		Kind:             membership.SignalCancelScheduled,
		SubscriptionID:   snap.ID,
		Status:           snap.Status,
		CurrentPeriodEnd: snap.CurrentPeriodEnd,
	})
	if err := h.store.Save(r.Context(), &next); err != nil {
		core.WriteError(w, http.StatusInternalServerError, core.ErrInternalError.Code, "Failed to update record", "")
		return
	}

	core.WriteJSON(w, http.StatusOK, manageResponse{Status: "cancellation_scheduled", MembershipType: next.MembershipType})
}

// handleReactivate revokes a pending cancellation and restores premium.
func (h *Handlers) handleReactivate(w http.ResponseWriter, r *http.Request) {
	rec, ok := h.recordFromToken(w, r)
	if !ok {
		return
	}

	subID := rec.EffectiveSubscriptionID()
	if subID == "" {
		core.WriteError(w, http.StatusBadRequest, core.ErrBadRequest.Code, "No subscription to reactivate", "")
		return
	}

	now := h.now()

	if membership.IsTestSubscriptionID(subID) {
		next := membership.Resolve(now, *rec, membership.Signal{
			Kind:           membership.SignalReactivated,
			SubscriptionID: subID,
		})
		if err := h.store.Save(r.Context(), &next); err != nil {
			core.WriteError(w, http.StatusInternalServerError, core.ErrInternalError.Code, "Failed to update record", "")
			return
		}
		core.WriteJSON(w, http.StatusOK, manageResponse{Status: "reactivated", MembershipType: next.MembershipType})
		return
	}

	snap, err := h.provider.Reactivate(r.Context(), subID)
	if err != nil {
		h.log.ErrorContext(r.Context(), "processor reactivation failed",
			slog.String("user_id", rec.UserID),
			slog.String("subscription_id", subID),
			slog.Any("error", err),
		)
		core.WriteError(w, http.StatusInternalServerError, core.ErrInternalError.Code, "Failed to reactivate subscription", err.Error())
		return
	}

	next := membership.Resolve(now, *rec, membership.Signal{
		Kind:             membership.SignalReactivated,
		SubscriptionID:   snap.ID,
		Status:           snap.Status,
		CurrentPeriodEnd: snap.CurrentPeriodEnd,
	})
	if err := h.store.Save(r.Context(), &next); err != nil {
		core.WriteError(w, http.StatusInternalServerError, core.ErrInternalError.Code, "Failed to update record", "")
		return
	}

	core.WriteJSON(w, http.StatusOK, manageResponse{Status: "reactivated", MembershipType: next.MembershipType})
}

// recordFromToken loads the caller's record using the verified token
// claims. Writes the error response itself when it returns !ok.
func (h *Handlers) recordFromToken(w http.ResponseWriter, r *http.Request) (*membership.Record, bool) {
	claims, ok := jwt.ClaimsFromContext(r.Context())
	if !ok || claims.Subject == "" {
		core.WriteError(w, http.StatusUnauthorized, core.ErrUnauthorized.Code, "Missing identity", "")
		return nil, false
	}

	rec, err := h.store.Get(r.Context(), claims.Subject)
	if errors.Is(err, membership.ErrRecordNotFound) {
		core.WriteError(w, http.StatusNotFound, core.ErrNotFound.Code, "User record not found", "")
		return nil, false
	}
	if err != nil {
		core.WriteError(w, http.StatusInternalServerError, core.ErrInternalError.Code, "Failed to load user record", "")
		return nil, false
	}
	return rec, true
}
