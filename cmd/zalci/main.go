package main

import (
	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/zalci/internal/account"
	"github.com/smallbiznis/zalci/internal/auth"
	"github.com/smallbiznis/zalci/internal/authorization"
	"github.com/smallbiznis/zalci/internal/catalog"
	"github.com/smallbiznis/zalci/internal/checkout"
	"github.com/smallbiznis/zalci/internal/claim"
	"github.com/smallbiznis/zalci/internal/clock"
	"github.com/smallbiznis/zalci/internal/config"
	"github.com/smallbiznis/zalci/internal/contact"
	"github.com/smallbiznis/zalci/internal/credit"
	"github.com/smallbiznis/zalci/internal/download"
	"github.com/smallbiznis/zalci/internal/favorite"
	"github.com/smallbiznis/zalci/internal/migration"
	"github.com/smallbiznis/zalci/internal/notification"
	"github.com/smallbiznis/zalci/internal/observability"
	"github.com/smallbiznis/zalci/internal/payment"
	"github.com/smallbiznis/zalci/internal/providers"
	"github.com/smallbiznis/zalci/internal/purchase"
	"github.com/smallbiznis/zalci/internal/ratelimit"
	"github.com/smallbiznis/zalci/internal/server"
	"github.com/smallbiznis/zalci/pkg/db"
	"go.uber.org/fx"
)

func main() {
	app := fx.New(
		// Core Infrastructure
		config.Module,
		observability.Module,
		fx.Provide(RegisterSnowflake),
		db.Module,
		migration.Module,
		clock.Module,
		providers.Module,
		ratelimit.Module,
		auth.Module,
		authorization.Module,

		// Functional Domains
		catalog.Module,
		purchase.Module,
		credit.Module,
		claim.Module,
		notification.Module,
		checkout.Module,
		payment.Module,
		download.Module,
		favorite.Module,
		account.Module,
		contact.Module,

		server.Module,
	)
	app.Run()
}

func RegisterSnowflake() *snowflake.Node {
	node, err := snowflake.NewNode(1)
	if err != nil {
		panic(err)
	}
	return node
}
