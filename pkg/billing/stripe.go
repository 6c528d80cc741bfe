package billing

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/stripe/stripe-go/v82"
	checkoutsession "github.com/stripe/stripe-go/v82/checkout/session"
	"github.com/stripe/stripe-go/v82/customer"
	stripesub "github.com/stripe/stripe-go/v82/subscription"
	"github.com/stripe/stripe-go/v82/webhook"
)

// StripeProvider implements Provider against the Stripe API.
//
// SECURITY: ParseWebhook's signature check is the only authentication the
// webhook endpoint has; it must run against the raw, unparsed body.
type StripeProvider struct {
	cfg Config
}

// NewStripeProvider wires the Stripe API key and returns the provider.
func NewStripeProvider(cfg Config) (*StripeProvider, error) {
	if cfg.SecretKey == "" {
		return nil, ErrMissingSecretKey
	}
	stripe.Key = cfg.SecretKey
	return &StripeProvider{cfg: cfg}, nil
}

func (p *StripeProvider) CreateCheckoutSession(ctx context.Context, params CheckoutParams) (*CheckoutSession, error) {
	if params.PriceID == "" {
		return nil, ErrMissingPriceID
	}

	// userId travels in metadata on both the session and the subscription
	// it creates, so later webhook events resolve without a store lookup.
	meta := map[string]string{"userId": params.UserID}

	// The SDK retries transient failures; a fresh idempotency key per
	// attempt keeps those retries from opening duplicate sessions.
	req := &stripe.CheckoutSessionParams{
		Params: stripe.Params{
			Context:        ctx,
			IdempotencyKey: stripe.String(uuid.NewString()),
		},
		Mode:              stripe.String(string(stripe.CheckoutSessionModeSubscription)),
		ClientReferenceID: stripe.String(params.UserID),
		SuccessURL:        stripe.String(params.SuccessURL),
		CancelURL:         stripe.String(params.CancelURL),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				Price:    stripe.String(params.PriceID),
				Quantity: stripe.Int64(1),
			},
		},
		Metadata: meta,
		SubscriptionData: &stripe.CheckoutSessionSubscriptionDataParams{
			Metadata: meta,
		},
	}
	if params.Email != "" {
		req.CustomerEmail = stripe.String(params.Email)
	}

	sess, err := checkoutsession.New(req)
	if err != nil {
		return nil, errors.Join(ErrProviderUnavailable, err)
	}
	if sess.URL == "" {
		return nil, ErrMissingCheckoutURL
	}

	return &CheckoutSession{ID: sess.ID, URL: sess.URL}, nil
}

// checkoutSessionPayload is the subset of a checkout.session event body
// this service reads. Decoded locally instead of through the SDK struct so
// an API-version drift on unrelated fields cannot break event handling.
type checkoutSessionPayload struct {
	ID                string            `json:"id"`
	Customer          string            `json:"customer"`
	Subscription      string            `json:"subscription"`
	ClientReferenceID string            `json:"client_reference_id"`
	Metadata          map[string]string `json:"metadata"`
}

type subscriptionPayload struct {
	ID                string            `json:"id"`
	Customer          string            `json:"customer"`
	Status            string            `json:"status"`
	CancelAtPeriodEnd bool              `json:"cancel_at_period_end"`
	CurrentPeriodEnd  int64             `json:"current_period_end"`
	Metadata          map[string]string `json:"metadata"`
	Items             struct {
		Data []struct {
			CurrentPeriodEnd int64 `json:"current_period_end"`
		} `json:"data"`
	} `json:"items"`
}

func (p *StripeProvider) ParseWebhook(payload []byte, signature string) (*Event, error) {
	if p.cfg.WebhookSecret == "" {
		return nil, ErrMissingWebhookSecret
	}

	event, err := webhook.ConstructEventWithOptions(payload, signature, p.cfg.WebhookSecret, webhook.ConstructEventOptions{
		IgnoreAPIVersionMismatch: true,
	})
	if err != nil {
		return nil, errors.Join(ErrInvalidSignature, err)
	}

	out := &Event{Kind: EventOther, ProviderEvent: string(event.Type)}

	switch event.Type {
	case "checkout.session.completed":
		var sess checkoutSessionPayload
		if err := json.Unmarshal(event.Data.Raw, &sess); err != nil {
			return nil, errors.Join(ErrInvalidPayload, fmt.Errorf("decode checkout.session: %w", err))
		}
		out.Kind = EventCheckoutCompleted
		out.CustomerID = sess.Customer
		out.SubscriptionID = sess.Subscription
		out.Status = "active"
		out.UserID = sess.Metadata["userId"]
		if out.UserID == "" {
			out.UserID = sess.ClientReferenceID
		}

	case "customer.subscription.updated":
		sub, err := decodeSubscription(event.Data.Raw)
		if err != nil {
			return nil, err
		}
		out.Kind = EventSubscriptionUpdated
		fillFromSubscription(out, sub)

	case "customer.subscription.deleted":
		sub, err := decodeSubscription(event.Data.Raw)
		if err != nil {
			return nil, err
		}
		out.Kind = EventSubscriptionDeleted
		fillFromSubscription(out, sub)
		out.Status = "canceled"
	}

	return out, nil
}

func decodeSubscription(raw json.RawMessage) (subscriptionPayload, error) {
	var sub subscriptionPayload
	if err := json.Unmarshal(raw, &sub); err != nil {
		return sub, errors.Join(ErrInvalidPayload, fmt.Errorf("decode subscription: %w", err))
	}
	return sub, nil
}

func fillFromSubscription(out *Event, sub subscriptionPayload) {
	out.SubscriptionID = sub.ID
	out.CustomerID = sub.Customer
	out.Status = sub.Status
	out.CancelAtPeriodEnd = sub.CancelAtPeriodEnd
	out.UserID = sub.Metadata["userId"]

	// Older API versions put current_period_end on the subscription, newer
	// ones on its items. Accept either.
	end := sub.CurrentPeriodEnd
	if end == 0 && len(sub.Items.Data) > 0 {
		end = sub.Items.Data[0].CurrentPeriodEnd
	}
	if end > 0 {
		t := time.Unix(end, 0).UTC()
		out.CurrentPeriodEnd = &t
	}
}

func (p *StripeProvider) CancelAtPeriodEnd(ctx context.Context, subscriptionID string) (*SubscriptionSnapshot, error) {
	return p.updateSubscription(ctx, subscriptionID, true)
}

func (p *StripeProvider) Reactivate(ctx context.Context, subscriptionID string) (*SubscriptionSnapshot, error) {
	return p.updateSubscription(ctx, subscriptionID, false)
}

func (p *StripeProvider) updateSubscription(ctx context.Context, subscriptionID string, cancelAtPeriodEnd bool) (*SubscriptionSnapshot, error) {
	sub, err := stripesub.Update(subscriptionID, &stripe.SubscriptionParams{
		Params:            stripe.Params{Context: ctx},
		CancelAtPeriodEnd: stripe.Bool(cancelAtPeriodEnd),
	})
	if err != nil {
		return nil, errors.Join(ErrProviderUnavailable, err)
	}

	snap := &SubscriptionSnapshot{
		ID:                sub.ID,
		Status:            string(sub.Status),
		CancelAtPeriodEnd: sub.CancelAtPeriodEnd,
	}
	if sub.Items != nil && len(sub.Items.Data) > 0 {
		if end := sub.Items.Data[0].CurrentPeriodEnd; end > 0 {
			t := time.Unix(end, 0).UTC()
			snap.CurrentPeriodEnd = &t
		}
	}
	return snap, nil
}

func (p *StripeProvider) HasActiveSubscriptionForEmail(ctx context.Context, email string) (bool, error) {
	if email == "" {
		return false, nil
	}

	custIter := customer.List(&stripe.CustomerListParams{
		ListParams: stripe.ListParams{Context: ctx},
		Email:      stripe.String(email),
	})
	for custIter.Next() {
		c := custIter.Customer()

		subIter := stripesub.List(&stripe.SubscriptionListParams{
			ListParams: stripe.ListParams{Context: ctx},
			Customer:   stripe.String(c.ID),
			Status:     stripe.String(string(stripe.SubscriptionStatusActive)),
		})
		if subIter.Next() {
			return true, nil
		}
		if err := subIter.Err(); err != nil {
			return false, errors.Join(ErrProviderUnavailable, err)
		}
	}
	if err := custIter.Err(); err != nil {
		return false, errors.Join(ErrProviderUnavailable, err)
	}

	return false, nil
}
