package handlers

import (
	"context"
	"log"
	"net/http"
	"slices"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/jobpilot/backend/interview"
)

// InterviewHandler runs live mock interviews over WebSocket
type InterviewHandler struct {
	workflow *WorkflowHandler
	dialer   interview.Dialer
	voice    string
	upgrader websocket.Upgrader
}

// NewInterviewHandler creates the interview handler. Browsers from
// allowedOrigins may connect; "*" allows any origin.
func NewInterviewHandler(workflow *WorkflowHandler, dialer interview.Dialer, voice string, allowedOrigins []string) *InterviewHandler {
	return &InterviewHandler{
		workflow: workflow,
		dialer:   dialer,
		voice:    voice,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  64 << 10,
			WriteBufferSize: 64 << 10,
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				return origin == "" || slices.Contains(allowedOrigins, "*") || slices.Contains(allowedOrigins, origin)
			},
		},
	}
}

// Interview streams a mock interview for one application
// @Summary Live mock interview
// @Description WebSocket. Binary frames carry float32 microphone samples; JSON frames carry control, audio, status and transcript messages.
// @Tags Interview
// @Param id path string true "Session ID"
// @Param appId path string true "Application ID"
// @Param token query string false "JWT for browser WebSocket clients"
// @Success 101
// @Failure 404 {object} models.ErrorResponse "Application not found"
// @Failure 409 {object} models.ErrorResponse "Interview already running"
// @Router /sessions/{id}/applications/{appId}/interview [get]
func (h *InterviewHandler) Interview(c *gin.Context) {
	sess, ok := h.workflow.session(c)
	if !ok {
		return
	}

	store := sess.Controller.Store()
	app, found := store.Find(c.Param("appId"))
	if !found {
		respondError(c, "Application not found", appNotFound(c.Param("appId")))
		return
	}

	release, err := sess.AcquireInterview()
	if err != nil {
		respondError(c, "Interview already running", err)
		return
	}
	defer release()

	cv, _ := store.CV()
	cfg := interview.SessionConfig{
		SystemInstruction:   interview.BuildSystemInstruction(app.Job, cv, sess.Controller.Language()),
		Voice:               h.voice,
		AudioResponses:      true,
		InputTranscription:  true,
		OutputTranscription: true,
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		// the upgrader already wrote the response
		log.Printf("[Interview] Upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	r := newRelay(conn, sess.Touch)
	mgr := interview.NewManager(h.dialer, r, r, interview.NewClock(), r, cfg, func() {
		r.send(relayMessage{Type: "ended"})
	})
	r.mgr = mgr
	go r.readLoop()

	ctx, cancel := context.WithCancel(context.WithoutCancel(c.Request.Context()))
	defer cancel()
	go func() {
		<-r.done
		cancel()
	}()

	log.Printf("[Interview] Starting interview for %s at %s (session %s)", app.Job.Title, app.Job.Company, sess.ID)
	if err := mgr.Start(ctx); err != nil {
		log.Printf("[Interview] Start failed: %v", err)
	}

	<-r.done
	mgr.Close()
	log.Printf("[Interview] Interview ended (session %s, %d turns)", sess.ID, len(mgr.Transcript()))
}

var (
	_ interview.Microphone    = (*relay)(nil)
	_ interview.CaptureStream = (*relayCapture)(nil)
	_ interview.Sink          = (*relay)(nil)
	_ interview.Observer      = (*relay)(nil)
)
