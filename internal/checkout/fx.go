package checkout

import (
	"github.com/smallbiznis/zalci/internal/checkout/service"
	"go.uber.org/fx"
)

var Module = fx.Module("checkout.service",
	fx.Provide(service.NewSessionCreator),
	fx.Provide(service.New),
)
