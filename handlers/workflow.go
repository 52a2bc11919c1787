package handlers

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/jobpilot/backend/auth"
	"github.com/jobpilot/backend/models"
	"github.com/jobpilot/backend/utils"
	"github.com/jobpilot/backend/workflow"
)

// MaxUploadSize bounds uploaded CV files
const MaxUploadSize = 10 << 20

// UploadCV extracts the text of an uploaded CV
// @Summary Upload CV file
// @Description Extract the text of a PDF or plain-text CV. Signed-in users also get the file archived.
// @Tags Workflow
// @Accept multipart/form-data
// @Produce json
// @Param id path string true "Session ID"
// @Param cv_file formData file true "CV file (PDF or TXT)"
// @Success 200 {object} models.UploadResponse "Extracted text"
// @Failure 400 {object} models.ErrorResponse "Missing or oversized file"
// @Failure 415 {object} models.ErrorResponse "Unsupported file type"
// @Router /sessions/{id}/cv/upload [post]
func (h *WorkflowHandler) UploadCV(c *gin.Context) {
	sess, ok := h.session(c)
	if !ok {
		return
	}

	filename, mimeType, content, err := readUpload(c, "cv_file", MaxUploadSize)
	if err != nil {
		respondError(c, "Invalid file", err)
		return
	}

	text, err := utils.ExtractText(filename, mimeType, content)
	if err != nil {
		log.Printf("[Handler] CV extraction failed in session %s: %v", sess.ID, err)
		respondError(c, "Failed to read CV file", err)
		return
	}

	resp := models.UploadResponse{FileName: filename, Text: text}
	if owner := auth.CurrentEmail(c); owner != "" && h.archive != nil {
		url, err := h.archive.Archive(c.Request.Context(), owner, filename, content)
		if err != nil {
			log.Printf("[Handler] Failed to archive CV of %s: %v", owner, err)
		} else {
			resp.CVUrl = url
		}
	}

	c.JSON(http.StatusOK, resp)
}

// StartAnalysis resolves the CV and searches matching jobs in the background
// @Summary Start analysis
// @Description Parse the CV input and search jobs. Progress is reported through the session events.
// @Tags Workflow
// @Accept json
// @Produce json
// @Param id path string true "Session ID"
// @Param request body models.AnalysisRequest true "CV input and search options"
// @Success 202 {object} models.AcceptedResponse "Analysis started"
// @Failure 400 {object} models.ErrorResponse "Invalid input"
// @Router /sessions/{id}/analysis [post]
func (h *WorkflowHandler) StartAnalysis(c *gin.Context) {
	sess, ok := h.session(c)
	if !ok {
		return
	}

	var req models.AnalysisRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request body", err)
		return
	}
	input, err := workflow.ParseCvInput(req.CvInput)
	if err != nil {
		respondError(c, "Invalid CV input", err)
		return
	}
	opts, err := workflow.ValidateOptions(req.Options)
	if err != nil {
		respondError(c, "Invalid search options", err)
		return
	}
	if lang := strings.TrimSpace(req.Language); lang != "" {
		sess.Controller.SetLanguage(lang)
	}

	ctx := context.WithoutCancel(c.Request.Context())
	go func() {
		logAsync("Analysis", sess.ID, sess.Controller.RunAnalysis(ctx, input, opts))
	}()

	c.JSON(http.StatusAccepted, models.AcceptedResponse{Message: "analysis started"})
}

// ToggleSelectAll selects every application, or clears the selection when all are selected
// @Summary Toggle select all
// @Tags Workflow
// @Param id path string true "Session ID"
// @Success 204
// @Router /sessions/{id}/applications/select-all [post]
func (h *WorkflowHandler) ToggleSelectAll(c *gin.Context) {
	sess, ok := h.session(c)
	if !ok {
		return
	}
	sess.Coordinator.ToggleSelectAll()
	c.Status(http.StatusNoContent)
}

// ToggleSelect flips the selection of one application
// @Summary Toggle selection
// @Tags Workflow
// @Param id path string true "Session ID"
// @Param appId path string true "Application ID"
// @Success 204
// @Failure 404 {object} models.ErrorResponse "Application not found"
// @Router /sessions/{id}/applications/{appId}/select [post]
func (h *WorkflowHandler) ToggleSelect(c *gin.Context) {
	sess, ok := h.session(c)
	if !ok {
		return
	}
	if !sess.Coordinator.ToggleSelect(c.Param("appId")) {
		respondError(c, "Application not found", appNotFound(c.Param("appId")))
		return
	}
	c.Status(http.StatusNoContent)
}

// GenerateLetter drafts the cover letter of one application in the background
// @Summary Generate cover letter
// @Tags Workflow
// @Produce json
// @Param id path string true "Session ID"
// @Param appId path string true "Application ID"
// @Success 202 {object} models.AcceptedResponse "Generation started"
// @Failure 404 {object} models.ErrorResponse "Application not found"
// @Failure 409 {object} models.ErrorResponse "Invalid state"
// @Router /sessions/{id}/applications/{appId}/letter [post]
func (h *WorkflowHandler) GenerateLetter(c *gin.Context) {
	sess, ok := h.session(c)
	if !ok {
		return
	}

	id := c.Param("appId")
	store := sess.Controller.Store()
	app, found := store.Find(id)
	if !found {
		respondError(c, "Application not found", appNotFound(id))
		return
	}
	if !workflow.CanTransition(app.Status, models.StatusGeneratingLetter) {
		respondError(c, "Cannot generate a letter now",
			fmt.Errorf("%w: %s -> %s", workflow.ErrInvalidTransition, app.Status, models.StatusGeneratingLetter))
		return
	}
	if cv, _ := store.CV(); cv == nil {
		// records the error phase
		respondError(c, "Run an analysis first", sess.Controller.GenerateLetter(c.Request.Context(), id))
		return
	}

	ctx := context.WithoutCancel(c.Request.Context())
	go func() {
		logAsync("Letter generation", sess.ID, sess.Controller.GenerateLetter(ctx, id))
	}()

	c.JSON(http.StatusAccepted, models.AcceptedResponse{Message: "letter generation started"})
}

// Apply opens the job posting and waits for confirmation
// @Summary Apply
// @Tags Workflow
// @Param id path string true "Session ID"
// @Param appId path string true "Application ID"
// @Success 204
// @Failure 404 {object} models.ErrorResponse "Application not found"
// @Failure 409 {object} models.ErrorResponse "No letter yet"
// @Router /sessions/{id}/applications/{appId}/apply [post]
func (h *WorkflowHandler) Apply(c *gin.Context) {
	h.applicationOp(c, "Cannot apply", (*workflow.Controller).Apply)
}

// ConfirmSent records that the application was sent
// @Summary Confirm sent
// @Tags Workflow
// @Param id path string true "Session ID"
// @Param appId path string true "Application ID"
// @Success 204
// @Failure 404 {object} models.ErrorResponse "Application not found"
// @Failure 409 {object} models.ErrorResponse "Not awaiting confirmation"
// @Router /sessions/{id}/applications/{appId}/confirm [post]
func (h *WorkflowHandler) ConfirmSent(c *gin.Context) {
	h.applicationOp(c, "Cannot confirm", (*workflow.Controller).ConfirmSent)
}

// CancelConfirmation returns the application to LetterGenerated
// @Summary Cancel confirmation
// @Tags Workflow
// @Param id path string true "Session ID"
// @Param appId path string true "Application ID"
// @Success 204
// @Failure 404 {object} models.ErrorResponse "Application not found"
// @Failure 409 {object} models.ErrorResponse "Not awaiting confirmation"
// @Router /sessions/{id}/applications/{appId}/cancel [post]
func (h *WorkflowHandler) CancelConfirmation(c *gin.Context) {
	h.applicationOp(c, "Cannot cancel", (*workflow.Controller).CancelConfirmation)
}

func (h *WorkflowHandler) applicationOp(c *gin.Context, message string, op func(*workflow.Controller, string) error) {
	sess, ok := h.session(c)
	if !ok {
		return
	}
	if err := op(sess.Controller, c.Param("appId")); err != nil {
		respondError(c, message, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func appNotFound(id string) error {
	return fmt.Errorf("application %s: %w", id, models.ErrNotFound)
}
