package service

import (
	"net/http"
	"strings"
	"time"

	"github.com/smallbiznis/zalci/internal/config"
	"github.com/stripe/stripe-go/v81"
	"github.com/stripe/stripe-go/v81/client"
)

// SessionCreator is the slice of the Stripe API used to open checkout sessions.
type SessionCreator interface {
	New(params *stripe.CheckoutSessionParams) (*stripe.CheckoutSession, error)
}

// NewSessionCreator builds a Stripe client. It returns nil when no secret key is configured.
func NewSessionCreator(cfg config.Config) SessionCreator {
	key := strings.TrimSpace(cfg.Stripe.SecretKey)
	if key == "" {
		return nil
	}

	backendCfg := &stripe.BackendConfig{
		HTTPClient:        &http.Client{Timeout: 12 * time.Second},
		MaxNetworkRetries: stripe.Int64(2),
	}
	if url := strings.TrimSpace(cfg.Stripe.APIURL); url != "" {
		backendCfg.URL = stripe.String(url)
	}

	sc := client.New(key, stripe.NewBackendsWithConfig(backendCfg))
	return sc.CheckoutSessions
}
