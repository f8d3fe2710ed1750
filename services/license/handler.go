package license

import (
	"net/http"

	"zamora-controlplane/pkg/errutil"
	"zamora-controlplane/pkg/middleware"

	"github.com/gin-gonic/gin"
)

func (s *Service) handleGenerate(c *gin.Context) {
	var sel PlanSelection
	if err := c.ShouldBindJSON(&sel); err != nil {
		c.Error(errutil.BadRequest("invalid request body", err))
		return
	}

	lic, err := s.Generate(c.Request.Context(), sel)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusCreated, lic)
}

func (s *Service) handleList(c *gin.Context) {
	var q ListQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		c.Error(errutil.BadRequest("invalid query parameters", err))
		return
	}

	licenses, pageInfo, err := s.List(c.Request.Context(), q)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"licenses": licenses, "page_info": pageInfo})
}

func (s *Service) handleGet(c *gin.Context) {
	lic, err := s.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, lic)
}

func (s *Service) handleAssign(c *gin.Context) {
	var req struct {
		PropertyID string `json:"property_id"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(errutil.BadRequest("invalid request body", err))
		return
	}

	lic, err := s.Assign(c.Request.Context(), c.Param("id"), req.PropertyID)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, lic)
}

func (s *Service) handleUpgrade(c *gin.Context) {
	var sel PlanSelection
	if err := c.ShouldBindJSON(&sel); err != nil {
		c.Error(errutil.BadRequest("invalid request body", err))
		return
	}

	lic, err := s.Upgrade(c.Request.Context(), c.Param("id"), sel)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, lic)
}

func (s *Service) handleRevoke(c *gin.Context) {
	lic, err := s.Revoke(c.Request.Context(), c.Param("id"))
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, lic)
}

func (s *Service) handleUnassign(c *gin.Context) {
	lic, err := s.Unassign(c.Request.Context(), c.Param("id"))
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, lic)
}

func (s *Service) handleDelete(c *gin.Context) {
	if err := s.Delete(c.Request.Context(), c.Param("id")); err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"deleted": true})
}

func (s *Service) handleRedeem(c *gin.Context) {
	id, ok := middleware.IdentityFromContext(c.Request.Context())
	if !ok {
		c.Error(errutil.Unauthorized("missing identity", nil))
		return
	}

	var req struct {
		Key string `json:"key"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(errutil.BadRequest("invalid request body", err))
		return
	}

	lic, err := s.Redeem(c.Request.Context(), id, c.Param("id"), req.Key)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, lic)
}

func (s *Service) handleRequest(c *gin.Context) {
	id, ok := middleware.IdentityFromContext(c.Request.Context())
	if !ok {
		c.Error(errutil.Unauthorized("missing identity", nil))
		return
	}

	var req LicenseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(errutil.BadRequest("invalid request body", err))
		return
	}
	req.PropertyID = c.Param("id")

	if err := s.RequestLicense(c.Request.Context(), id, req); err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusAccepted, gin.H{"submitted": true})
}
