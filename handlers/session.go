package handlers

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/jobpilot/backend/auth"
	"github.com/jobpilot/backend/events"
	"github.com/jobpilot/backend/models"
	"github.com/jobpilot/backend/recruiter"
	"github.com/jobpilot/backend/workflow"
)

const pingInterval = 25 * time.Second

// CVArchiver stores the original CV files of signed-in users
type CVArchiver interface {
	Archive(ctx context.Context, owner, filename string, content []byte) (string, error)
}

// SessionView is the full state of a workflow session
type SessionView struct {
	SessionID string            `json:"sessionId"`
	Workflow  workflow.Snapshot `json:"workflow"`
	Recruiter recruiter.State   `json:"recruiter"`
}

// WorkflowHandler serves the candidate and recruiter workflows of the
// sessions held in the registry.
type WorkflowHandler struct {
	registry *workflow.Registry
	hub      *events.Hub
	creds    *auth.CredentialStore
	archive  CVArchiver
}

// NewWorkflowHandler creates the workflow handler. archive may be nil.
func NewWorkflowHandler(registry *workflow.Registry, hub *events.Hub, creds *auth.CredentialStore, archive CVArchiver) *WorkflowHandler {
	return &WorkflowHandler{
		registry: registry,
		hub:      hub,
		creds:    creds,
		archive:  archive,
	}
}

// CreateSession opens a new workflow session
// @Summary Create session
// @Description Open a workflow session. Signed-in users get it recorded as their current session.
// @Tags Sessions
// @Produce json
// @Success 201 {object} models.SessionResponse "Session created"
// @Router /sessions [post]
func (h *WorkflowHandler) CreateSession(c *gin.Context) {
	owner := auth.CurrentEmail(c)
	sess := h.registry.Create(owner)

	topic := sess.ID
	sess.Controller.Store().Subscribe(func(s workflow.Snapshot) {
		h.hub.PublishLatest(topic, events.TypeSnapshot, events.MakeEvent(events.TypeSnapshot, s))
	})

	if owner != "" {
		if err := h.creds.SetCurrentSession(c.Request.Context(), owner, sess.ID); err != nil {
			log.Printf("[Handler] Failed to record current session for %s: %v", owner, err)
		}
	}

	c.JSON(http.StatusCreated, models.SessionResponse{SessionID: sess.ID})
}

// CurrentSession returns the session recorded for the signed-in user
// @Summary Current session
// @Tags Sessions
// @Produce json
// @Security BearerAuth
// @Success 200 {object} models.SessionResponse
// @Failure 404 {object} models.ErrorResponse "No live session"
// @Router /sessions/current [get]
func (h *WorkflowHandler) CurrentSession(c *gin.Context) {
	email := auth.CurrentEmail(c)
	id, err := h.creds.CurrentSession(c.Request.Context(), email)
	if err != nil {
		respondError(c, "No current session", err)
		return
	}
	if _, ok := h.registry.Get(id); !ok {
		// expired since it was recorded
		_ = h.creds.ClearCurrentSession(c.Request.Context(), email)
		respondError(c, "No current session", fmt.Errorf("%w: session %s", models.ErrNotFound, id))
		return
	}
	c.JSON(http.StatusOK, models.SessionResponse{SessionID: id})
}

// GetSession returns the state of a session
// @Summary Get session state
// @Tags Sessions
// @Produce json
// @Param id path string true "Session ID"
// @Success 200 {object} SessionView
// @Failure 404 {object} models.ErrorResponse "Session not found"
// @Router /sessions/{id} [get]
func (h *WorkflowHandler) GetSession(c *gin.Context) {
	sess, ok := h.session(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, SessionView{
		SessionID: sess.ID,
		Workflow:  sess.Controller.Store().Snapshot(),
		Recruiter: sess.Recruiter.State(),
	})
}

// Events streams session events
// @Summary Session events
// @Description Server-sent events: snapshot, open_url, recruiter and ping
// @Tags Sessions
// @Produce text/event-stream
// @Param id path string true "Session ID"
// @Param token query string false "JWT for EventSource clients"
// @Success 200 {string} string "event stream"
// @Router /sessions/{id}/events [get]
func (h *WorkflowHandler) Events(c *gin.Context) {
	sess, ok := h.session(c)
	if !ok {
		return
	}

	sub := h.hub.Subscribe(sess.ID)
	defer h.hub.Unsubscribe(sess.ID, sub)
	log.Printf("[Handler] Event stream opened for session %s (%d open)", sess.ID, h.hub.Subscribers(sess.ID))

	c.Writer.Header().Set("Content-Type", "text/event-stream")
	c.Writer.Header().Set("Cache-Control", "no-cache")
	c.Writer.Header().Set("Connection", "keep-alive")
	c.Writer.Header().Set("X-Accel-Buffering", "no")
	c.Status(http.StatusOK)

	ping := time.NewTicker(pingInterval)
	defer ping.Stop()

	write := func(evt string) bool {
		if _, err := fmt.Fprintf(c.Writer, "data: %s\n\n", evt); err != nil {
			return false
		}
		c.Writer.Flush()
		return true
	}

	if !write(events.MakeEvent(events.TypeSnapshot, sess.Controller.Store().Snapshot())) {
		return
	}

	ctx := c.Request.Context()
	for {
		select {
		case <-ctx.Done():
			return
		case _, ok := <-sub.Ready():
			if !ok {
				return
			}
			for _, evt := range sub.Drain() {
				if !write(evt) {
					return
				}
			}
			sess.Touch()
		case <-ping.C:
			if !write(events.MakeEvent(events.TypePing, nil)) {
				return
			}
		}
	}
}

// Reset clears the session back to idle
// @Summary Reset session
// @Tags Sessions
// @Param id path string true "Session ID"
// @Success 204
// @Router /sessions/{id}/reset [post]
func (h *WorkflowHandler) Reset(c *gin.Context) {
	sess, ok := h.session(c)
	if !ok {
		return
	}
	sess.Controller.Reset()
	c.Status(http.StatusNoContent)
}

// Retry leaves the error phase
// @Summary Retry after an error
// @Tags Sessions
// @Param id path string true "Session ID"
// @Success 204
// @Router /sessions/{id}/retry [post]
func (h *WorkflowHandler) Retry(c *gin.Context) {
	sess, ok := h.session(c)
	if !ok {
		return
	}
	sess.Controller.Retry()
	c.Status(http.StatusNoContent)
}

// session resolves the :id session and checks that the caller may use it
func (h *WorkflowHandler) session(c *gin.Context) (*workflow.Session, bool) {
	id := c.Param("id")
	sess, ok := h.registry.Get(id)
	if !ok {
		respondError(c, "Session not found", fmt.Errorf("%w: session %s", models.ErrNotFound, id))
		return nil, false
	}
	if sess.Owner != "" && sess.Owner != auth.CurrentEmail(c) {
		c.JSON(http.StatusForbidden, models.ErrorResponse{
			Error: "Session belongs to another user",
			Code:  http.StatusForbidden,
		})
		return nil, false
	}
	return sess, true
}

// readUpload reads at most limit bytes of a multipart file field
func readUpload(c *gin.Context, field string, limit int64) (string, string, []byte, error) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, limit+1<<20)
	file, header, err := c.Request.FormFile(field)
	if err != nil {
		return "", "", nil, fmt.Errorf("%w: %s file is required: %v", models.ErrInvalidInput, field, err)
	}
	defer file.Close()

	content, err := io.ReadAll(io.LimitReader(file, limit+1))
	if err != nil {
		return "", "", nil, fmt.Errorf("%w: failed to read upload: %v", models.ErrInvalidInput, err)
	}
	if int64(len(content)) > limit {
		return "", "", nil, fmt.Errorf("%w: file exceeds %d bytes", models.ErrInvalidInput, limit)
	}
	return header.Filename, header.Header.Get("Content-Type"), content, nil
}

// logAsync logs the outcome of a background operation
func logAsync(op, sessionID string, err error) {
	switch {
	case err == nil:
	case errors.Is(err, workflow.ErrSuperseded):
		log.Printf("[Handler] %s in session %s superseded", op, sessionID)
	case workflow.IsPipelineError(err):
		// the store already carries the failure to the client
		log.Printf("[Handler] %s in session %s stopped: %v", op, sessionID, err)
	default:
		log.Printf("[Handler] %s in session %s failed: %v", op, sessionID, err)
	}
}
