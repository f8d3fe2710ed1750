package main

import (
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/zap"

	"zamora-controlplane/pkg/config"
	"zamora-controlplane/pkg/logger"
	"zamora-controlplane/pkg/task"
	"zamora-controlplane/services/notify"
)

func main() {
	app := fx.New(
		config.Module,
		logger.Module,
		task.Server,
		notify.WorkerModule,
		fxLogger,
	)

	app.Run()
}

var fxLogger = fx.WithLogger(func(cfg *config.Config, logger *zap.Logger) fxevent.Logger {
	return fxevent.NopLogger
})
