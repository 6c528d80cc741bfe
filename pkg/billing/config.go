package billing

import "strings"

// Plan names accepted by the checkout endpoint.
const (
	PlanPremiumMonthly = "premium_monthly"
	PlanPremiumYearly  = "premium_yearly"
)

// Config holds payment-processor configuration. The secret key and the
// per-plan price identifiers are required at startup; the webhook signing
// secret is checked at request time so its absence surfaces as a clear 500
// on the webhook endpoint rather than a silent skip of verification.
type Config struct {
	SecretKey           string `env:"STRIPE_SECRET_KEY,required"`
	WebhookSecret       string `env:"STRIPE_WEBHOOK_SECRET"`
	PricePremiumMonthly string `env:"STRIPE_PRICE_PREMIUM_MONTHLY,required"`
	PricePremiumYearly  string `env:"STRIPE_PRICE_PREMIUM_YEARLY,required"`
}

// LiveMode reports whether the configured key talks to the live processor.
// Test credentials carry the sk_test_ prefix.
func (c Config) LiveMode() bool {
	return strings.HasPrefix(c.SecretKey, "sk_live_")
}

// PriceFor maps a plan name onto the processor's price identifier.
func (c Config) PriceFor(plan string) (string, bool) {
	switch plan {
	case PlanPremiumMonthly:
		return c.PricePremiumMonthly, c.PricePremiumMonthly != ""
	case PlanPremiumYearly:
		return c.PricePremiumYearly, c.PricePremiumYearly != ""
	default:
		return "", false
	}
}
