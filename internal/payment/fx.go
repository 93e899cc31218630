package payment

import (
	"github.com/smallbiznis/zalci/internal/payment/adapters"
	"github.com/smallbiznis/zalci/internal/payment/adapters/stripe"
	"github.com/smallbiznis/zalci/internal/payment/repository"
	"github.com/smallbiznis/zalci/internal/payment/webhook"
	"go.uber.org/fx"
)

var Module = fx.Module("payment.service",
	fx.Provide(repository.Provide),
	fx.Provide(func() *adapters.Registry {
		return adapters.NewRegistry(stripe.NewFactory())
	}),
	fx.Provide(webhook.NewService),
)
