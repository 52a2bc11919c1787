package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/jobpilot/backend/events"
	"github.com/jobpilot/backend/models"
)

// SearchCandidates runs a recruiter search
// @Summary Search candidates
// @Description Find public profiles matching a job description
// @Tags Recruiter
// @Accept json
// @Produce json
// @Param id path string true "Session ID"
// @Param request body models.RecruiterSearchRequest true "Job description"
// @Success 200 {object} recruiter.State
// @Failure 400 {object} models.ErrorResponse "Empty description"
// @Failure 502 {object} models.ErrorResponse "Search failed"
// @Router /sessions/{id}/recruiter/search [post]
func (h *WorkflowHandler) SearchCandidates(c *gin.Context) {
	sess, ok := h.session(c)
	if !ok {
		return
	}

	var req models.RecruiterSearchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request body", err)
		return
	}

	err := sess.Recruiter.Search(c.Request.Context(), req.Description, req.Location)
	state := sess.Recruiter.State()
	h.hub.PublishLatest(sess.ID, events.TypeRecruiter, events.MakeEvent(events.TypeRecruiter, state))
	if err != nil {
		respondError(c, "Candidate search failed", err)
		return
	}
	c.JSON(http.StatusOK, state)
}

// RecruiterState returns the latest recruiter search
// @Summary Recruiter state
// @Tags Recruiter
// @Produce json
// @Param id path string true "Session ID"
// @Success 200 {object} recruiter.State
// @Router /sessions/{id}/recruiter [get]
func (h *WorkflowHandler) RecruiterState(c *gin.Context) {
	sess, ok := h.session(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, sess.Recruiter.State())
}
