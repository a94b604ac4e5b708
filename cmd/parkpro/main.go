package main

import (
	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/parkpro/internal/clock"
	"github.com/smallbiznis/parkpro/internal/config"
	"github.com/smallbiznis/parkpro/internal/migration"
	"github.com/smallbiznis/parkpro/internal/observability"
	"github.com/smallbiznis/parkpro/internal/server"
	"github.com/smallbiznis/parkpro/pkg/db"
	"go.uber.org/fx"
)

func main() {
	app := fx.New(
		// Core Infrastructure
		config.Module,
		observability.Module,
		fx.Provide(RegisterSnowflake),
		db.Module,
		clock.Module,
		migration.Module,

		// HTTP surface and the parking domains behind it
		server.Module,
	)
	app.Run()
}

// RegisterSnowflake provides the ID generator for sessions and receipts.
// Every instance sharing a database needs its own NODE_ID.
func RegisterSnowflake(cfg config.Config) (*snowflake.Node, error) {
	return snowflake.NewNode(cfg.NodeID)
}
