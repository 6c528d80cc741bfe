package billing

import "errors"

var (
	ErrMissingSecretKey     = errors.New("billing secret key is required")
	ErrMissingWebhookSecret = errors.New("billing webhook secret is not configured")
	ErrMissingPriceID       = errors.New("billing price ID is required")
	ErrMissingCheckoutURL   = errors.New("no checkout URL returned from billing provider")

	ErrInvalidSignature = errors.New("webhook signature verification failed")
	ErrInvalidPayload   = errors.New("failed to parse webhook payload")

	ErrProviderUnavailable = errors.New("billing provider request failed")
)
