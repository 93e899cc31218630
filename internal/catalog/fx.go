package catalog

import (
	"github.com/smallbiznis/zalci/internal/catalog/repository"
	"github.com/smallbiznis/zalci/internal/catalog/service"
	"go.uber.org/fx"
)

var Module = fx.Module("catalog.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
