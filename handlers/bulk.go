package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/jobpilot/backend/models"
)

// BulkResponse reports the outcome of a bulk operation
type BulkResponse struct {
	Count        int                  `json:"count"`
	Applications []models.Application `json:"applications,omitempty"`
}

// BulkGenerate starts a letter generation for every selected application
// @Summary Bulk generate letters
// @Tags Bulk
// @Produce json
// @Param id path string true "Session ID"
// @Success 202 {object} models.AcceptedResponse "Generations started"
// @Failure 409 {object} models.ErrorResponse "No CV"
// @Router /sessions/{id}/bulk/generate [post]
func (h *WorkflowHandler) BulkGenerate(c *gin.Context) {
	sess, ok := h.session(c)
	if !ok {
		return
	}
	n, err := sess.Coordinator.BulkGenerate(context.WithoutCancel(c.Request.Context()))
	if err != nil {
		respondError(c, "Run an analysis first", err)
		return
	}
	c.JSON(http.StatusAccepted, models.AcceptedResponse{Message: "letter generation started", Count: n})
}

// BulkApply opens the postings of every selected application with a letter
// @Summary Bulk apply
// @Tags Bulk
// @Produce json
// @Param id path string true "Session ID"
// @Success 200 {object} BulkResponse "Applications awaiting confirmation"
// @Failure 409 {object} models.ErrorResponse "No CV"
// @Router /sessions/{id}/bulk/apply [post]
func (h *WorkflowHandler) BulkApply(c *gin.Context) {
	sess, ok := h.session(c)
	if !ok {
		return
	}
	batch, err := sess.Coordinator.BulkApply()
	if err != nil {
		respondError(c, "Run an analysis first", err)
		return
	}
	c.JSON(http.StatusOK, BulkResponse{Count: len(batch), Applications: batch})
}

// ConfirmBulkSent marks every pending application as sent
// @Summary Confirm bulk sent
// @Tags Bulk
// @Produce json
// @Param id path string true "Session ID"
// @Success 200 {object} BulkResponse
// @Router /sessions/{id}/bulk/confirm [post]
func (h *WorkflowHandler) ConfirmBulkSent(c *gin.Context) {
	sess, ok := h.session(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, BulkResponse{Count: sess.Coordinator.ConfirmBulkSent()})
}

// CancelBulkConfirmation returns every pending application to LetterGenerated
// @Summary Cancel bulk confirmation
// @Tags Bulk
// @Produce json
// @Param id path string true "Session ID"
// @Success 200 {object} BulkResponse
// @Router /sessions/{id}/bulk/cancel [post]
func (h *WorkflowHandler) CancelBulkConfirmation(c *gin.Context) {
	sess, ok := h.session(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, BulkResponse{Count: sess.Coordinator.CancelBulkConfirmation()})
}
