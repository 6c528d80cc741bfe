package billing

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/readlingo/readlingo/core"
	"github.com/readlingo/readlingo/pkg/billing"
	"github.com/readlingo/readlingo/pkg/membership"
)

const webhookBodyLimit = 1024 * 1024 // 1 MiB

type webhookReceivedResponse struct {
	Received bool `json:"received"`
}

// handleWebhook receives asynchronous, possibly out-of-order, possibly
// retried events from the payment processor.
//
// SECURITY: signature verification is the only authentication this
// endpoint has. The body must stay an unparsed byte buffer until the
// provider has verified it.
func (h *Handlers) handleWebhook(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, webhookBodyLimit)
	payload, err := io.ReadAll(r.Body)
	if err != nil {
		core.WriteError(w, http.StatusBadRequest, core.ErrBadRequest.Code, "Failed to read request body", "")
		return
	}

	event, err := h.provider.ParseWebhook(payload, r.Header.Get("Stripe-Signature"))
	switch {
	case errors.Is(err, billing.ErrMissingWebhookSecret):
		core.WriteError(w, http.StatusInternalServerError, core.ErrInternalError.Code, "Webhook signing secret is not configured", "")
		return
	case err != nil:
		core.WriteError(w, http.StatusBadRequest, core.ErrBadRequest.Code, "Webhook signature verification failed", "")
		return
	}

	if event.Kind == billing.EventOther {
		core.WriteJSON(w, http.StatusOK, webhookReceivedResponse{Received: true})
		return
	}

	rec, err := h.resolveRecord(r.Context(), event)
	switch {
	case errors.Is(err, membership.ErrRecordNotFound):
		// Deliberate at-most-once-effect choice: an unresolvable mapping is
		// logged and acknowledged so the processor does not retry forever.
		h.log.WarnContext(r.Context(), "webhook event could not be mapped to a user",
			slog.String("event", event.ProviderEvent),
			slog.String("subscription_id", event.SubscriptionID),
			slog.String("customer_id", event.CustomerID),
		)
		core.WriteJSON(w, http.StatusOK, webhookReceivedResponse{Received: true})
		return
	case err != nil:
		core.WriteError(w, http.StatusInternalServerError, core.ErrInternalError.Code, "Failed to resolve user record", err.Error())
		return
	}

	next := membership.Resolve(h.now(), *rec, signalFromEvent(event))
	if err := h.store.Save(r.Context(), &next); err != nil {
		// Non-2xx so the processor redelivers; the resolver rules make the
		// retry safe to re-apply.
		h.log.ErrorContext(r.Context(), "failed to persist webhook state change",
			slog.String("event", event.ProviderEvent),
			slog.String("user_id", rec.UserID),
			slog.Any("error", err),
		)
		core.WriteError(w, http.StatusInternalServerError, core.ErrInternalError.Code, "Failed to persist state change", "")
		return
	}

	h.log.InfoContext(r.Context(), "webhook event applied",
		slog.String("event", event.ProviderEvent),
		slog.String("user_id", rec.UserID),
		slog.String("membership", string(next.MembershipType)),
	)
	core.WriteJSON(w, http.StatusOK, webhookReceivedResponse{Received: true})
}

// resolveRecord maps an event onto a user record: event metadata first,
// then the processor's customer identifier, then a scan of premium records
// matching the subscription identifier as a last resort.
func (h *Handlers) resolveRecord(ctx context.Context, event *billing.Event) (*membership.Record, error) {
	if event.UserID != "" {
		rec, err := h.store.Get(ctx, event.UserID)
		if err == nil {
			return rec, nil
		}
		if !errors.Is(err, membership.ErrRecordNotFound) {
			return nil, err
		}
		// For a completed checkout the metadata user is authoritative even
		// when no record exists yet: the signup may not have written one.
		if event.Kind == billing.EventCheckoutCompleted {
			return &membership.Record{UserID: event.UserID, MembershipType: membership.TypeFree}, nil
		}
	}

	if event.CustomerID != "" {
		rec, err := h.store.FindByCustomerID(ctx, event.CustomerID)
		if err == nil {
			return rec, nil
		}
		if !errors.Is(err, membership.ErrRecordNotFound) {
			return nil, err
		}
	}

	if event.SubscriptionID != "" {
		return h.store.FindPremiumBySubscriptionID(ctx, event.SubscriptionID)
	}

	return nil, membership.ErrRecordNotFound
}

func signalFromEvent(event *billing.Event) membership.Signal {
	sig := membership.Signal{
		SubscriptionID:   event.SubscriptionID,
		CustomerID:       event.CustomerID,
		Status:           event.Status,
		CurrentPeriodEnd: event.CurrentPeriodEnd,
	}

	switch event.Kind {
	case billing.EventCheckoutCompleted:
		sig.Kind = membership.SignalCheckoutCompleted
	case billing.EventSubscriptionDeleted:
		sig.Kind = membership.SignalCanceled
	default:
		sig.Kind = membership.SignalFromStatus(event.Status, event.CancelAtPeriodEnd)
	}
	return sig
}
