package main

import (
	"github.com/bwmarrin/snowflake"
	"github.com/sitescope/sitescope/internal/clock"
	"github.com/sitescope/sitescope/internal/config"
	"github.com/sitescope/sitescope/internal/logger"
	"github.com/sitescope/sitescope/internal/metrics"
	"github.com/sitescope/sitescope/internal/migration"
	"github.com/sitescope/sitescope/internal/server"
	"github.com/sitescope/sitescope/pkg/db"
	"go.uber.org/fx"
)

func main() {
	app := fx.New(
		// Core infrastructure
		config.Module,
		logger.Module,
		metrics.Module,
		fx.Provide(RegisterSnowflake),
		db.Module,
		clock.Module,
		migration.Module,

		// HTTP surface; pulls in every domain module it serves.
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
