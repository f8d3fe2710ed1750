package main

import (
	"github.com/bwmarrin/snowflake"
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/zap"

	"zamora-controlplane/internal/httpapi"
	"zamora-controlplane/pkg/config"
	"zamora-controlplane/pkg/db"
	"zamora-controlplane/pkg/logger"
	"zamora-controlplane/pkg/otelcol"
	"zamora-controlplane/pkg/redis"
	"zamora-controlplane/pkg/server"
	"zamora-controlplane/pkg/task"
	"zamora-controlplane/services/license"
	"zamora-controlplane/services/plan"
	"zamora-controlplane/services/property"
)

func main() {
	app := fx.New(
		config.Module,
		logger.Module,
		otelcol.Module,
		db.Module,
		redis.Module,
		task.Client,
		fx.Provide(provideSnowflakeNode),
		httpapi.Module,
		plan.ServerModule,
		property.ServerModule,
		license.ServerModule,
		server.Module,
		fxLogger,
	)

	app.Run()
}

var fxLogger = fx.WithLogger(func(cfg *config.Config, logger *zap.Logger) fxevent.Logger {
	return fxevent.NopLogger
})

func provideSnowflakeNode() (*snowflake.Node, error) {
	return snowflake.NewNode(1)
}
