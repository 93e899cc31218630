package claim

import (
	"github.com/smallbiznis/zalci/internal/claim/service"
	"go.uber.org/fx"
)

var Module = fx.Module("claim.service",
	fx.Provide(service.New),
)
