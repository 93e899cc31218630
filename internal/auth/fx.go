package auth

import (
	"github.com/smallbiznis/zalci/internal/auth/service"
	"github.com/smallbiznis/zalci/internal/auth/session"
	"go.uber.org/fx"
)

var Module = fx.Module("auth.service",
	fx.Provide(service.NewJWTVerifier),
	session.Module,
)
