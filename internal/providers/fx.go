package providers

import (
	"github.com/smallbiznis/zalci/internal/providers/email"
	"github.com/smallbiznis/zalci/internal/providers/identity"
	"github.com/smallbiznis/zalci/internal/providers/storage"
	"go.uber.org/fx"
)

var Module = fx.Module("providers",
	email.Module,
	identity.Module,
	storage.Module,
)
