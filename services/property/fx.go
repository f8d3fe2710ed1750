package property

import (
	"zamora-controlplane/pkg/middleware"

	"github.com/gin-gonic/gin"
	"go.uber.org/fx"
)

var Module = fx.Module("property.module",
	fx.Provide(NewService),
)

var ServerModule = fx.Module("property.server",
	Module,
	fx.Invoke(registerRoutes),
)

type registerRoutesParams struct {
	fx.In

	Router  *gin.Engine
	Service *Service
}

func registerRoutes(p registerRoutesParams) {
	admin := p.Router.Group("/v1/admin/properties", middleware.RequireRole(middleware.RoleAdmin))
	admin.GET("", p.Service.handleList)
	admin.GET("/:id", p.Service.handleGet)
	admin.POST("", p.Service.handleCreate)

	store := p.Router.Group("/v1/storefront/properties", middleware.RequireAuthenticated())
	store.GET("/:id/paywall", p.Service.handlePaywall)
}
