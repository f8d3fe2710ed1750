package property

import (
	"net/http"
	"time"

	"zamora-controlplane/pkg/errutil"
	"zamora-controlplane/pkg/middleware"

	"github.com/gin-gonic/gin"
)

func (s *Service) handleCreate(c *gin.Context) {
	var req CreatePropertyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(errutil.BadRequest("invalid request body", err))
		return
	}

	p, err := s.CreateProperty(c.Request.Context(), req)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, p)
}

func (s *Service) handleGet(c *gin.Context) {
	p, err := s.GetProperty(c.Request.Context(), c.Param("id"))
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, p)
}

func (s *Service) handleList(c *gin.Context) {
	properties, err := s.ListProperties(c.Request.Context())
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"properties": properties})
}

// handlePaywall is the storefront's lazy expiry check: derived on every read,
// never cached. Any authenticated user of the property may ask.
func (s *Service) handlePaywall(c *gin.Context) {
	ctx := c.Request.Context()

	p, err := s.GetProperty(ctx, c.Param("id"))
	if err != nil {
		c.Error(err)
		return
	}

	id, _ := middleware.IdentityFromContext(ctx)
	if id.Role != middleware.RoleAdmin && p.OwnerID != id.UserID {
		c.Error(errutil.Forbidden("not a member of this property", nil))
		return
	}

	eval := Evaluate(p, time.Now(), s.config.Licensing.TrialDays, s.config.Licensing.WarningDays)
	c.JSON(http.StatusOK, eval)
}
