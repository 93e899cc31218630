package purchase

import (
	"github.com/smallbiznis/zalci/internal/purchase/repository"
	"github.com/smallbiznis/zalci/internal/purchase/service"
	"go.uber.org/fx"
)

var Module = fx.Module("purchase.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
