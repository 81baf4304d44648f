package main

import (
	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/payline/internal/clock"
	"github.com/smallbiznis/payline/internal/config"
	"github.com/smallbiznis/payline/internal/migration"
	"github.com/smallbiznis/payline/internal/observability"
	"github.com/smallbiznis/payline/internal/payerlock"
	"github.com/smallbiznis/payline/internal/server"
	"github.com/smallbiznis/payline/pkg/db"
	"go.uber.org/fx"
)

func main() {
	app := fx.New(
		// Core infrastructure
		config.Module,
		observability.Module,
		fx.Provide(RegisterSnowflake),
		db.Module,
		clock.Module,
		payerlock.Module,

		// Functional domains
		migration.Module,
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
