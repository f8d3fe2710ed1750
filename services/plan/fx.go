package plan

import (
	"zamora-controlplane/pkg/middleware"

	"github.com/gin-gonic/gin"
	"go.uber.org/fx"
)

var Module = fx.Module("plan.module",
	fx.Provide(NewService),
)

var ServerModule = fx.Module("plan.server",
	Module,
	fx.Invoke(registerRoutes),
)

type registerRoutesParams struct {
	fx.In

	Router  *gin.Engine
	Service *Service
}

func registerRoutes(p registerRoutesParams) {
	admin := p.Router.Group("/v1/admin/plans", middleware.RequireRole(middleware.RoleAdmin))
	admin.GET("", p.Service.handleList)
	admin.GET("/:id", p.Service.handleGet)
	admin.POST("", p.Service.handleUpsert)
	admin.PUT("/:id", p.Service.handleUpsert)
	admin.DELETE("/:id", p.Service.handleDelete)

	// The storefront needs the active catalog to price a license request.
	store := p.Router.Group("/v1/storefront/plans", middleware.RequireAuthenticated())
	store.GET("", p.Service.handleList)
}
