package plan

import (
	"net/http"

	"zamora-controlplane/pkg/errutil"

	"github.com/gin-gonic/gin"
)

func (s *Service) handleList(c *gin.Context) {
	activeOnly := c.Query("active_only") == "true"

	plans, err := s.ListPlans(c.Request.Context(), activeOnly)
	if err != nil {
		c.Error(err)
		return
	}

	if c.Query("dedupe") == "true" {
		plans = DedupeByDuration(plans)
	}

	c.JSON(http.StatusOK, gin.H{"plans": plans})
}

func (s *Service) handleGet(c *gin.Context) {
	plan, err := s.GetPlan(c.Request.Context(), c.Param("id"))
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, plan)
}

func (s *Service) handleUpsert(c *gin.Context) {
	var req UpsertPlanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(errutil.BadRequest("invalid request body", err))
		return
	}

	plan, err := s.UpsertPlan(c.Request.Context(), req)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, plan)
}

func (s *Service) handleDelete(c *gin.Context) {
	if err := s.DeletePlan(c.Request.Context(), c.Param("id")); err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"deleted": true})
}
