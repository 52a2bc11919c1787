package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jobpilot/backend/auth"
	"github.com/jobpilot/backend/config"
	"github.com/jobpilot/backend/events"
	"github.com/jobpilot/backend/interview"
	"github.com/jobpilot/backend/models"
	"github.com/jobpilot/backend/storage"
	"github.com/jobpilot/backend/workflow"
)

type fakeGateway struct {
	mu      sync.Mutex
	letters int
}

func (g *fakeGateway) ExtractCV(ctx context.Context, text string) (*models.CvData, error) {
	return &models.CvData{
		PersonalInfo: models.PersonalInfo{Name: "Jane Doe"},
		Skills:       []string{"Go", "React"},
	}, nil
}

func (g *fakeGateway) GenerateCVFromProfile(ctx context.Context, profileURL string) (*models.CvData, error) {
	return &models.CvData{PersonalInfo: models.PersonalInfo{Name: "Jane Doe"}, LinkedIn: profileURL}, nil
}

func (g *fakeGateway) SearchJobs(ctx context.Context, query models.JobQuery) (*models.JobSearchResult, error) {
	return &models.JobSearchResult{Jobs: []models.Job{
		{Title: "Go developer", Company: "Acme", URL: "https://jobs.example.com/1"},
		{Title: "Frontend developer", Company: "Globex", URL: "https://jobs.example.com/2"},
	}}, nil
}

func (g *fakeGateway) GenerateCoverLetter(ctx context.Context, cv *models.CvData, job models.Job, language string) (string, error) {
	g.mu.Lock()
	g.letters++
	g.mu.Unlock()
	return "Dear " + job.Company, nil
}

func (g *fakeGateway) SearchCandidates(ctx context.Context, description, location string) ([]models.Candidate, error) {
	if description == "fail" {
		return nil, fmt.Errorf("%w: upstream unavailable", models.ErrTransportFailure)
	}
	return []models.Candidate{{Name: "Ada", JobTitle: "Engineer"}}, nil
}

type fakeArchive struct {
	owner string
}

func (a *fakeArchive) Archive(ctx context.Context, owner, filename string, content []byte) (string, error) {
	a.owner = owner
	return "https://storage.example.com/" + filename, nil
}

type testServer struct {
	router   *gin.Engine
	workflow *WorkflowHandler
	registry *workflow.Registry
	hub      *events.Hub
	jwt      *auth.JWTService
	archive  *fakeArchive
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	cfg := config.Default()
	cfg.JWTSecret = "test-secret"
	jwtService := auth.NewJWTService(cfg)
	creds := auth.NewCredentialStore(storage.NewMemoryKV())
	hub := events.NewHub()
	gw := &fakeGateway{}
	registry := workflow.NewRegistry(gw, gw, func(id string) workflow.URLOpener { return hub.Opener(id) }, "fr")
	archive := &fakeArchive{}

	wh := NewWorkflowHandler(registry, hub, creds, archive)
	ah := NewAuthHandler(creds, jwtService, nil)

	router := gin.New()
	router.GET("/health", HealthCheck(registry))
	api := router.Group("/api")
	api.POST("/auth/register", ah.Register)
	api.POST("/auth/login", ah.Login)
	api.POST("/auth/google", ah.GoogleLogin)
	api.GET("/auth/me", auth.AuthMiddleware(jwtService), ah.Me)
	api.POST("/sessions", auth.OptionalAuthMiddleware(jwtService), wh.CreateSession)
	api.GET("/sessions/current", auth.AuthMiddleware(jwtService), wh.CurrentSession)

	sessions := api.Group("/sessions/:id")
	sessions.Use(auth.OptionalAuthMiddleware(jwtService))
	sessions.GET("", wh.GetSession)
	sessions.POST("/cv/upload", wh.UploadCV)
	sessions.POST("/analysis", wh.StartAnalysis)
	sessions.POST("/reset", wh.Reset)
	sessions.POST("/applications/select-all", wh.ToggleSelectAll)
	sessions.POST("/applications/:appId/select", wh.ToggleSelect)
	sessions.POST("/applications/:appId/letter", wh.GenerateLetter)
	sessions.POST("/applications/:appId/apply", wh.Apply)
	sessions.POST("/applications/:appId/confirm", wh.ConfirmSent)
	sessions.POST("/applications/:appId/cancel", wh.CancelConfirmation)
	sessions.POST("/bulk/generate", wh.BulkGenerate)
	sessions.POST("/bulk/apply", wh.BulkApply)
	sessions.POST("/bulk/confirm", wh.ConfirmBulkSent)
	sessions.POST("/recruiter/search", wh.SearchCandidates)

	return &testServer{router: router, workflow: wh, registry: registry, hub: hub, jwt: jwtService, archive: archive}
}

func (s *testServer) do(method, path, body, token string) *httptest.ResponseRecorder {
	var reader *bytes.Buffer
	if body != "" {
		reader = bytes.NewBufferString(body)
	} else {
		reader = &bytes.Buffer{}
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func (s *testServer) createSession(t *testing.T, token string) *workflow.Session {
	t.Helper()
	w := s.do(http.MethodPost, "/api/sessions", "", token)
	require.Equal(t, http.StatusCreated, w.Code)

	var resp models.SessionResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	sess, ok := s.registry.Get(resp.SessionID)
	require.True(t, ok)
	return sess
}

// seed puts the session in the results phase with the given application statuses
func seed(sess *workflow.Session, withCV bool, statuses ...models.ApplicationStatus) []string {
	store := sess.Controller.Store()
	epoch := store.Begin()
	if withCV {
		store.SetCV(epoch, &models.CvData{PersonalInfo: models.PersonalInfo{Name: "Jane Doe"}})
	}
	apps := make([]models.Application, len(statuses))
	ids := make([]string, len(statuses))
	for i, st := range statuses {
		ids[i] = fmt.Sprintf("app-%d", i+1)
		apps[i] = models.Application{
			ID:     ids[i],
			Job:    models.Job{Title: "Job", Company: fmt.Sprintf("Co%d", i+1), URL: fmt.Sprintf("https://jobs.example.com/%d", i+1)},
			Status: st,
		}
	}
	store.SetResults(epoch, apps, nil)
	return ids
}

func appStatus(sess *workflow.Session, id string) models.ApplicationStatus {
	app, _ := sess.Controller.Store().Find(id)
	return app.Status
}

func TestHealthCheck_ReportsLiveSessions(t *testing.T) {
	s := newTestServer(t)
	s.createSession(t, "")
	s.createSession(t, "")

	w := s.do(http.MethodGet, "/health", "", "")
	require.Equal(t, http.StatusOK, w.Code)
	var resp models.HealthResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "healthy", resp.Status)
	assert.Equal(t, 2, resp.Sessions)
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{fmt.Errorf("x: %w", models.ErrInvalidInput), http.StatusBadRequest},
		{models.ErrInvalidFormat, http.StatusBadRequest},
		{models.ErrUnsupportedFileType, http.StatusUnsupportedMediaType},
		{appNotFound("a1"), http.StatusNotFound},
		{auth.ErrInvalidCredentials, http.StatusUnauthorized},
		{auth.ErrEmailTaken, http.StatusConflict},
		{workflow.ErrInvalidTransition, http.StatusConflict},
		{workflow.ErrMissingCV, http.StatusConflict},
		{workflow.ErrInterviewActive, http.StatusConflict},
		{interview.ErrBusy, http.StatusConflict},
		{models.ErrTransportFailure, http.StatusBadGateway},
		{errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, statusFor(tt.err), tt.err.Error())
	}
}

func TestSession_NotFoundAndOwnership(t *testing.T) {
	s := newTestServer(t)

	w := s.do(http.MethodGet, "/api/sessions/missing", "", "")
	assert.Equal(t, http.StatusNotFound, w.Code)

	token, err := s.jwt.GenerateToken(&models.User{Email: "jane@example.com"})
	require.NoError(t, err)
	sess := s.createSession(t, token)
	assert.Equal(t, "jane@example.com", sess.Owner)

	w = s.do(http.MethodGet, "/api/sessions/"+sess.ID, "", "")
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = s.do(http.MethodGet, "/api/sessions/"+sess.ID, "", token)
	require.Equal(t, http.StatusOK, w.Code)
	var view SessionView
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &view))
	assert.Equal(t, sess.ID, view.SessionID)
	assert.Equal(t, workflow.PhaseIdle, view.Workflow.Phase)

	w = s.do(http.MethodGet, "/api/sessions/current", "", token)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), sess.ID)

	s.registry.Remove(sess.ID)
	w = s.do(http.MethodGet, "/api/sessions/current", "", token)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestStartAnalysis(t *testing.T) {
	s := newTestServer(t)
	sess := s.createSession(t, "")
	updates := s.hub.Subscribe(sess.ID)
	defer s.hub.Unsubscribe(sess.ID, updates)

	body := `{"cvInput":{"type":"text","content":"Jane Doe, Go developer"},"options":{"location":"Paris"},"language":"en"}`
	w := s.do(http.MethodPost, "/api/sessions/"+sess.ID+"/analysis", body, "")
	require.Equal(t, http.StatusAccepted, w.Code)

	assert.Eventually(t, func() bool {
		return sess.Controller.Store().Snapshot().Phase == workflow.PhaseResults
	}, 2*time.Second, 10*time.Millisecond)

	snap := sess.Controller.Store().Snapshot()
	assert.Len(t, snap.Applications, 2)
	assert.Equal(t, "Jane Doe", snap.CV.PersonalInfo.Name)
	assert.Equal(t, "en", sess.Controller.Language())

	var last workflow.Snapshot
	assert.Eventually(t, func() bool {
		for _, raw := range updates.Drain() {
			if got, ok := snapshotOf(raw); ok {
				last = got
			}
		}
		return last.Phase == workflow.PhaseResults
	}, 2*time.Second, 10*time.Millisecond)
	assert.Equal(t, snap.Version, last.Version)
}

func snapshotOf(raw string) (workflow.Snapshot, bool) {
	var evt events.Event
	var snap workflow.Snapshot
	if json.Unmarshal([]byte(raw), &evt) != nil || evt.Type != events.TypeSnapshot {
		return snap, false
	}
	return snap, json.Unmarshal(evt.Data, &snap) == nil
}

func TestSnapshots_SlowSubscriberGetsFinalState(t *testing.T) {
	s := newTestServer(t)
	sess := s.createSession(t, "")
	statuses := make([]models.ApplicationStatus, 20)
	for i := range statuses {
		statuses[i] = models.StatusReady
	}
	ids := seed(sess, true, statuses...)

	sub := s.hub.Subscribe(sess.ID)
	defer s.hub.Unsubscribe(sess.ID, sub)

	base := "/api/sessions/" + sess.ID + "/applications/"
	for _, id := range ids {
		require.Equal(t, http.StatusNoContent, s.do(http.MethodPost, base+id+"/select", "", "").Code)
		require.Equal(t, http.StatusNoContent, s.do(http.MethodPost, base+id+"/select", "", "").Code)
	}

	pending := sub.Drain()
	require.Len(t, pending, 1)
	last, ok := snapshotOf(pending[0])
	require.True(t, ok)
	assert.Equal(t, sess.Controller.Store().Snapshot().Version, last.Version)
}

func TestStartAnalysis_RejectsInvalidInput(t *testing.T) {
	s := newTestServer(t)
	sess := s.createSession(t, "")
	path := "/api/sessions/" + sess.ID + "/analysis"

	tests := []struct {
		name string
		body string
	}{
		{"bad json", `{`},
		{"empty text", `{"cvInput":{"type":"text","content":"  "},"options":{"location":"Paris"}}`},
		{"unknown type", `{"cvInput":{"type":"fax"},"options":{"location":"Paris"}}`},
		{"no location", `{"cvInput":{"type":"text","content":"Jane"},"options":{}}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := s.do(http.MethodPost, path, tt.body, "")
			assert.Equal(t, http.StatusBadRequest, w.Code)
		})
	}
	assert.Equal(t, workflow.PhaseIdle, sess.Controller.Store().Snapshot().Phase)
}

func TestGenerateLetter(t *testing.T) {
	s := newTestServer(t)
	sess := s.createSession(t, "")
	ids := seed(sess, true, models.StatusReady, models.StatusSent)
	base := "/api/sessions/" + sess.ID + "/applications/"

	w := s.do(http.MethodPost, base+"unknown/letter", "", "")
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = s.do(http.MethodPost, base+ids[1]+"/letter", "", "")
	assert.Equal(t, http.StatusConflict, w.Code)

	w = s.do(http.MethodPost, base+ids[0]+"/letter", "", "")
	require.Equal(t, http.StatusAccepted, w.Code)
	assert.Eventually(t, func() bool {
		return appStatus(sess, ids[0]) == models.StatusLetterGenerated
	}, 2*time.Second, 10*time.Millisecond)

	app, _ := sess.Controller.Store().Find(ids[0])
	assert.Equal(t, "Dear Co1", app.CoverLetter)
}

func TestGenerateLetter_WithoutCV(t *testing.T) {
	s := newTestServer(t)
	sess := s.createSession(t, "")
	ids := seed(sess, false, models.StatusReady)

	w := s.do(http.MethodPost, "/api/sessions/"+sess.ID+"/applications/"+ids[0]+"/letter", "", "")
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, workflow.PhaseError, sess.Controller.Store().Snapshot().Phase)
	assert.Equal(t, models.StatusReady, appStatus(sess, ids[0]))
}

func TestApplyConfirmCancel(t *testing.T) {
	s := newTestServer(t)
	sess := s.createSession(t, "")
	ids := seed(sess, true, models.StatusLetterGenerated, models.StatusReady)
	base := "/api/sessions/" + sess.ID + "/applications/"
	opened := s.hub.Subscribe(sess.ID)
	defer s.hub.Unsubscribe(sess.ID, opened)

	w := s.do(http.MethodPost, base+ids[1]+"/apply", "", "")
	assert.Equal(t, http.StatusConflict, w.Code)

	w = s.do(http.MethodPost, base+"unknown/apply", "", "")
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = s.do(http.MethodPost, base+ids[0]+"/apply", "", "")
	require.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, models.StatusAwaitingConfirmation, appStatus(sess, ids[0]))

	var sawOpen bool
	for _, evt := range opened.Drain() {
		if bytes.Contains([]byte(evt), []byte(`"type":"open_url"`)) {
			sawOpen = true
			assert.Contains(t, evt, "https://jobs.example.com/1")
		}
	}
	assert.True(t, sawOpen)

	w = s.do(http.MethodPost, base+ids[0]+"/cancel", "", "")
	require.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, models.StatusLetterGenerated, appStatus(sess, ids[0]))

	require.Equal(t, http.StatusNoContent, s.do(http.MethodPost, base+ids[0]+"/apply", "", "").Code)
	require.Equal(t, http.StatusNoContent, s.do(http.MethodPost, base+ids[0]+"/confirm", "", "").Code)
	assert.Equal(t, models.StatusSent, appStatus(sess, ids[0]))

	w = s.do(http.MethodPost, base+ids[0]+"/confirm", "", "")
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestBulkFlow(t *testing.T) {
	s := newTestServer(t)
	sess := s.createSession(t, "")
	ids := seed(sess, true, models.StatusReady, models.StatusReady, models.StatusSent)
	base := "/api/sessions/" + sess.ID

	require.Equal(t, http.StatusNoContent, s.do(http.MethodPost, base+"/applications/select-all", "", "").Code)
	w := s.do(http.MethodPost, base+"/applications/unknown/select", "", "")
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = s.do(http.MethodPost, base+"/bulk/generate", "", "")
	require.Equal(t, http.StatusAccepted, w.Code)
	var accepted models.AcceptedResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &accepted))
	assert.Equal(t, 2, accepted.Count)

	assert.Eventually(t, func() bool {
		return appStatus(sess, ids[0]) == models.StatusLetterGenerated &&
			appStatus(sess, ids[1]) == models.StatusLetterGenerated
	}, 2*time.Second, 10*time.Millisecond)

	w = s.do(http.MethodPost, base+"/bulk/apply", "", "")
	require.Equal(t, http.StatusOK, w.Code)
	var batch BulkResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &batch))
	assert.Equal(t, 2, batch.Count)
	assert.Equal(t, []string{ids[0], ids[1]}, sess.Controller.Store().Snapshot().PendingConfirmation)

	w = s.do(http.MethodPost, base+"/bulk/confirm", "", "")
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &batch))
	assert.Equal(t, 2, batch.Count)
	assert.Equal(t, models.StatusSent, appStatus(sess, ids[1]))
	assert.Empty(t, sess.Controller.Store().Snapshot().PendingConfirmation)
}

func TestBulkApply_WithoutCV(t *testing.T) {
	s := newTestServer(t)
	sess := s.createSession(t, "")
	seed(sess, false, models.StatusLetterGenerated)

	w := s.do(http.MethodPost, "/api/sessions/"+sess.ID+"/bulk/apply", "", "")
	assert.Equal(t, http.StatusConflict, w.Code)
}

func upload(t *testing.T, s *testServer, sessionID, filename string, content []byte, token string) *httptest.ResponseRecorder {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("cv_file", filename)
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/sessions/"+sessionID+"/cv/upload", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func TestUploadCV(t *testing.T) {
	s := newTestServer(t)
	token, err := s.jwt.GenerateToken(&models.User{Email: "jane@example.com"})
	require.NoError(t, err)
	sess := s.createSession(t, token)

	w := upload(t, s, sess.ID, "cv.txt", []byte("Jane Doe\nGo developer\n"), token)
	require.Equal(t, http.StatusOK, w.Code)
	var resp models.UploadResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "cv.txt", resp.FileName)
	assert.Equal(t, "Jane Doe\nGo developer", resp.Text)
	assert.Equal(t, "https://storage.example.com/cv.txt", resp.CVUrl)
	assert.Equal(t, "jane@example.com", s.archive.owner)

	w = upload(t, s, sess.ID, "cv.docx", []byte("PK\x03\x04"), token)
	assert.Equal(t, http.StatusUnsupportedMediaType, w.Code)
}

func TestUploadCV_Anonymous(t *testing.T) {
	s := newTestServer(t)
	sess := s.createSession(t, "")

	w := upload(t, s, sess.ID, "cv.txt", []byte("Jane Doe"), "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, s.archive.owner)

	w = s.do(http.MethodPost, "/api/sessions/"+sess.ID+"/cv/upload", "", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestRecruiterSearch(t *testing.T) {
	s := newTestServer(t)
	sess := s.createSession(t, "")
	path := "/api/sessions/" + sess.ID + "/recruiter/search"

	w := s.do(http.MethodPost, path, `{"description":"Go engineer","location":"Lyon"}`, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Ada")

	w = s.do(http.MethodPost, path, `{"description":"  "}`, "")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.do(http.MethodPost, path, `{"description":"fail"}`, "")
	assert.Equal(t, http.StatusBadGateway, w.Code)
	assert.NotEmpty(t, sess.Recruiter.State().Error)
}

func TestAuthFlow(t *testing.T) {
	s := newTestServer(t)

	register := `{"email":"jane@example.com","password":"secret123","confirmPassword":"secret123","name":"Jane"}`
	w := s.do(http.MethodPost, "/api/auth/register", register, "")
	require.Equal(t, http.StatusCreated, w.Code)

	w = s.do(http.MethodPost, "/api/auth/register", register, "")
	assert.Equal(t, http.StatusConflict, w.Code)

	w = s.do(http.MethodPost, "/api/auth/login", `{"email":"jane@example.com","password":"wrong"}`, "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = s.do(http.MethodPost, "/api/auth/login", `{"email":"jane@example.com","password":"secret123"}`, "")
	require.Equal(t, http.StatusOK, w.Code)
	var resp models.AuthResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.NotEmpty(t, resp.Token)

	w = s.do(http.MethodGet, "/api/auth/me", "", resp.Token)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"name":"Jane"`)
	assert.NotContains(t, w.Body.String(), "secret123")

	w = s.do(http.MethodPost, "/api/auth/google", `{"idToken":"abc"}`, "")
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}
