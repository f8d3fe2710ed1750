package license

import (
	"zamora-controlplane/pkg/middleware"

	"github.com/gin-gonic/gin"
	"go.uber.org/fx"
)

var Module = fx.Module("license.module",
	fx.Provide(NewService),
)

var ServerModule = fx.Module("license.server",
	Module,
	fx.Invoke(registerRoutes),
)

type registerRoutesParams struct {
	fx.In

	Router  *gin.Engine
	Service *Service
}

func registerRoutes(p registerRoutesParams) {
	admin := p.Router.Group("/v1/admin/licenses", middleware.RequireRole(middleware.RoleAdmin))
	admin.POST("", p.Service.handleGenerate)
	admin.GET("", p.Service.handleList)
	admin.GET("/:id", p.Service.handleGet)
	admin.POST("/:id/assign", p.Service.handleAssign)
	admin.POST("/:id/upgrade", p.Service.handleUpgrade)
	admin.POST("/:id/revoke", p.Service.handleRevoke)
	admin.POST("/:id/unassign", p.Service.handleUnassign)
	admin.DELETE("/:id", p.Service.handleDelete)

	store := p.Router.Group("/v1/storefront/properties/:id", middleware.RequireAuthenticated())
	store.POST("/redeem", p.Service.handleRedeem)
	store.POST("/license-request", p.Service.handleRequest)
}
