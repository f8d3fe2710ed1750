// Package httpapi assembles the gin engine shared by every service module:
// identity resolution, error translation and health probes are mounted here,
// service routes attach themselves through their own fx modules.
package httpapi

import (
	"net/http"

	"zamora-controlplane/pkg/config"
	"zamora-controlplane/pkg/health"
	"zamora-controlplane/pkg/middleware"
	"zamora-controlplane/services/license"
	"zamora-controlplane/services/plan"
	"zamora-controlplane/services/property"

	"github.com/gin-gonic/gin"
	"go.uber.org/fx"
	"gorm.io/gorm"
)

var Module = fx.Module("httpapi",
	health.Module,
	fx.Provide(
		ProvideEngine,
		asHandler,
	),
	fx.Invoke(
		registerHealthRoutes,
		autoMigrate,
	),
)

func ProvideEngine(cfg *config.Config) *gin.Engine {
	if cfg.AppEnv == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	engine := gin.New()
	// Error must precede ResolveIdentity so errors attached during an
	// identity abort still unwind through the envelope writer.
	engine.Use(
		gin.Recovery(),
		middleware.Error(),
		middleware.ResolveIdentity(),
	)

	return engine
}

func asHandler(engine *gin.Engine) http.Handler {
	return engine
}

func registerHealthRoutes(engine *gin.Engine, h health.HealthService) {
	engine.GET("/healthz", h.Liveness)
	engine.GET("/readyz", h.Readiness)
}

func autoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&plan.LicensePlan{},
		&property.Property{},
		&license.License{},
	)
}
