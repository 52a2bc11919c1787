package workflow

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jobpilot/backend/models"
)

func runAnalysis(t *testing.T, ctrl *Controller) []models.Application {
	t.Helper()
	err := ctrl.RunAnalysis(context.Background(), TextInput{Text: "Jane Doe, React"}, analysisOptions())
	require.NoError(t, err)
	return ctrl.Store().Snapshot().Applications
}

func TestRunAnalysis_PhasesAndApplications(t *testing.T) {
	gw := &fakeGateway{cv: sampleCV(), jobs: sampleJobs(), sources: []models.SourceRef{{URI: "https://jobs.example.com"}}}
	ctrl, _ := newTestController(gw)

	var (
		mu     sync.Mutex
		phases []Phase
	)
	ctrl.Store().Subscribe(func(s Snapshot) {
		mu.Lock()
		defer mu.Unlock()
		if len(phases) == 0 || phases[len(phases)-1] != s.Phase {
			phases = append(phases, s.Phase)
		}
	})

	apps := runAnalysis(t, ctrl)

	assert.Equal(t, []Phase{PhaseParsing, PhaseFindingJobs, PhaseResults}, phases)
	require.Len(t, apps, 3)
	ids := map[string]bool{}
	for _, app := range apps {
		assert.Equal(t, models.StatusReady, app.Status)
		assert.False(t, app.IsSelected)
		assert.Empty(t, app.CoverLetter)
		assert.NotEmpty(t, app.ID)
		ids[app.ID] = true
	}
	assert.Len(t, ids, 3, "application ids must be unique")

	snap := ctrl.Store().Snapshot()
	assert.Equal(t, "Jane Doe", snap.CV.PersonalInfo.Name)
	assert.Len(t, snap.Sources, 1)

	require.Len(t, gw.queries, 1)
	assert.Equal(t, []string{"React", "TypeScript"}, gw.queries[0].Skills)
	assert.Equal(t, "Paris", gw.queries[0].Location)
}

func TestRunAnalysis_ExtractionFailure(t *testing.T) {
	gw := &fakeGateway{cvErr: models.ErrTransportFailure}
	ctrl, _ := newTestController(gw)

	err := ctrl.RunAnalysis(context.Background(), TextInput{Text: "cv"}, analysisOptions())

	require.Error(t, err)
	assert.True(t, IsPipelineError(err))
	var perr *PipelineError
	require.True(t, errors.As(err, &perr))
	assert.Equal(t, PhaseParsing, perr.Step)
	assert.ErrorIs(t, err, models.ErrTransportFailure)

	snap := ctrl.Store().Snapshot()
	assert.Equal(t, PhaseError, snap.Phase)
	assert.Contains(t, snap.Error, "parsing")
	assert.Empty(t, gw.queries)
}

func TestRunAnalysis_SearchFailureKeepsCV(t *testing.T) {
	gw := &fakeGateway{cv: sampleCV(), searchErr: errors.New("quota exceeded")}
	ctrl, _ := newTestController(gw)

	err := ctrl.RunAnalysis(context.Background(), TextInput{Text: "cv"}, analysisOptions())

	var perr *PipelineError
	require.True(t, errors.As(err, &perr))
	assert.Equal(t, PhaseFindingJobs, perr.Step)

	snap := ctrl.Store().Snapshot()
	assert.Equal(t, PhaseError, snap.Phase)
	assert.Contains(t, snap.Error, "quota exceeded")
	assert.NotNil(t, snap.CV)

	ctrl.Retry()
	snap = ctrl.Store().Snapshot()
	assert.Equal(t, PhaseIdle, snap.Phase)
	assert.NotNil(t, snap.CV)
}

func TestRunAnalysis_ManualInputSkipsExtraction(t *testing.T) {
	gw := &fakeGateway{cvErr: errors.New("must not be called"), jobs: sampleJobs()}
	ctrl, _ := newTestController(gw)

	err := ctrl.RunAnalysis(context.Background(), ManualInput{Data: models.CvData{
		PersonalInfo: models.PersonalInfo{Name: "Manual Person"},
		Skills:       []string{"Go"},
	}}, analysisOptions())

	require.NoError(t, err)
	snap := ctrl.Store().Snapshot()
	assert.Equal(t, "Manual Person", snap.CV.PersonalInfo.Name)
	assert.NotNil(t, snap.CV.Experience)
}

func TestRunAnalysis_LinkedInProfile(t *testing.T) {
	gw := &fakeGateway{cv: sampleCV(), jobs: sampleJobs()}
	ctrl, _ := newTestController(gw)

	err := ctrl.RunAnalysis(context.Background(), LinkedInInput{URL: "https://www.linkedin.com/in/jane"}, analysisOptions())

	require.NoError(t, err)
	assert.Equal(t, "https://www.linkedin.com/in/jane", ctrl.Store().Snapshot().CV.LinkedIn)
}

func TestRunAnalysis_ResetDiscardsLateResults(t *testing.T) {
	gate := make(chan struct{})
	gw := &blockingSearchGateway{fakeGateway: fakeGateway{cv: sampleCV(), jobs: sampleJobs()}, gate: gate, started: make(chan struct{})}
	ctrl := NewController(NewStore(), gw, &recordingOpener{}, "fr")

	done := make(chan error, 1)
	go func() {
		done <- ctrl.RunAnalysis(context.Background(), TextInput{Text: "cv"}, analysisOptions())
	}()

	<-gw.started
	ctrl.Reset()
	close(gate)

	assert.ErrorIs(t, <-done, ErrSuperseded)
	snap := ctrl.Store().Snapshot()
	assert.Equal(t, PhaseIdle, snap.Phase)
	assert.Empty(t, snap.Applications)
}

type blockingSearchGateway struct {
	fakeGateway
	gate    chan struct{}
	started chan struct{}
}

func (g *blockingSearchGateway) SearchJobs(ctx context.Context, query models.JobQuery) (*models.JobSearchResult, error) {
	close(g.started)
	<-g.gate
	return g.fakeGateway.SearchJobs(ctx, query)
}

func TestGenerateLetter_Success(t *testing.T) {
	gw := &fakeGateway{cv: sampleCV(), jobs: sampleJobs(), letter: "Madame, Monsieur,"}
	ctrl, _ := newTestController(gw)
	apps := runAnalysis(t, ctrl)

	require.NoError(t, ctrl.GenerateLetter(context.Background(), apps[0].ID))

	app, ok := ctrl.Store().Find(apps[0].ID)
	require.True(t, ok)
	assert.Equal(t, models.StatusLetterGenerated, app.Status)
	assert.Equal(t, "Madame, Monsieur, Frontend Developer", app.CoverLetter)
	assert.Equal(t, []string{"fr"}, gw.langs)

	other, _ := ctrl.Store().Find(apps[1].ID)
	assert.Equal(t, models.StatusReady, other.Status)
}

func TestGenerateLetter_FailureOnlyAffectsThatApplication(t *testing.T) {
	gw := &fakeGateway{cv: sampleCV(), jobs: sampleJobs(), letterErr: models.ErrTransportFailure}
	ctrl, _ := newTestController(gw)
	apps := runAnalysis(t, ctrl)

	err := ctrl.GenerateLetter(context.Background(), apps[0].ID)
	assert.ErrorIs(t, err, models.ErrTransportFailure)

	app, _ := ctrl.Store().Find(apps[0].ID)
	assert.Equal(t, models.StatusError, app.Status)
	assert.Empty(t, app.CoverLetter)
	assert.Equal(t, PhaseResults, ctrl.Store().Snapshot().Phase)

	// an errored application can be retried
	gw.letterErr = nil
	gw.letter = "Hello"
	require.NoError(t, ctrl.GenerateLetter(context.Background(), apps[0].ID))
	app, _ = ctrl.Store().Find(apps[0].ID)
	assert.Equal(t, models.StatusLetterGenerated, app.Status)
}

func TestGenerateLetter_FailedRegenerationKeepsPreviousLetter(t *testing.T) {
	gw := &fakeGateway{cv: sampleCV(), jobs: sampleJobs(), letter: "First"}
	ctrl, _ := newTestController(gw)
	apps := runAnalysis(t, ctrl)
	require.NoError(t, ctrl.GenerateLetter(context.Background(), apps[0].ID))

	gw.letterErr = errors.New("boom")
	require.Error(t, ctrl.GenerateLetter(context.Background(), apps[0].ID))

	app, _ := ctrl.Store().Find(apps[0].ID)
	assert.Equal(t, models.StatusError, app.Status)
	assert.Equal(t, "First Frontend Developer", app.CoverLetter)
}

func TestGenerateLetter_MissingCV(t *testing.T) {
	ctrl, _ := newTestController(&fakeGateway{})

	err := ctrl.GenerateLetter(context.Background(), "whatever")

	assert.ErrorIs(t, err, ErrMissingCV)
	snap := ctrl.Store().Snapshot()
	assert.Equal(t, PhaseError, snap.Phase)
	assert.Equal(t, ErrMissingCV.Error(), snap.Error)
}

func TestGenerateLetter_UnknownIDIsNoop(t *testing.T) {
	gw := &fakeGateway{cv: sampleCV(), jobs: sampleJobs()}
	ctrl, _ := newTestController(gw)
	runAnalysis(t, ctrl)
	before := ctrl.Store().Snapshot()

	assert.NoError(t, ctrl.GenerateLetter(context.Background(), "missing"))
	assert.Equal(t, before.Applications, ctrl.Store().Snapshot().Applications)
	assert.Empty(t, gw.langs)
}

func TestGenerateLetter_WhileGeneratingIsRejected(t *testing.T) {
	gate := make(chan struct{})
	gw := &fakeGateway{cv: sampleCV(), jobs: sampleJobs(), letter: "L"}
	ctrl, _ := newTestController(gw)
	apps := runAnalysis(t, ctrl)
	gw.letterGate = gate

	done := make(chan error, 1)
	go func() { done <- ctrl.GenerateLetter(context.Background(), apps[0].ID) }()

	require.Eventually(t, func() bool {
		app, _ := ctrl.Store().Find(apps[0].ID)
		return app.Status == models.StatusGeneratingLetter
	}, time.Second, 5*time.Millisecond)

	err := ctrl.GenerateLetter(context.Background(), apps[0].ID)
	assert.ErrorIs(t, err, ErrInvalidTransition)

	close(gate)
	assert.NoError(t, <-done)
}

func TestGenerateLetter_ResetDiscardsLateLetter(t *testing.T) {
	gate := make(chan struct{})
	gw := &fakeGateway{cv: sampleCV(), jobs: sampleJobs(), letter: "L"}
	ctrl, _ := newTestController(gw)
	apps := runAnalysis(t, ctrl)
	gw.letterGate = gate

	done := make(chan error, 1)
	go func() { done <- ctrl.GenerateLetter(context.Background(), apps[0].ID) }()
	require.Eventually(t, func() bool {
		app, _ := ctrl.Store().Find(apps[0].ID)
		return app.Status == models.StatusGeneratingLetter
	}, time.Second, 5*time.Millisecond)

	ctrl.Reset()
	close(gate)

	assert.ErrorIs(t, <-done, ErrSuperseded)
	assert.Empty(t, ctrl.Store().Snapshot().Applications)
}

func TestApplyConfirmCancel(t *testing.T) {
	gw := &fakeGateway{cv: sampleCV(), jobs: sampleJobs(), letter: "L"}
	ctrl, opener := newTestController(gw)
	apps := runAnalysis(t, ctrl)
	id := apps[0].ID

	// no letter yet
	assert.ErrorIs(t, ctrl.Apply(id), ErrInvalidTransition)
	assert.Empty(t, opener.opened())

	require.NoError(t, ctrl.GenerateLetter(context.Background(), id))
	require.NoError(t, ctrl.Apply(id))
	assert.Equal(t, []string{"https://jobs.example.com/1"}, opener.opened())

	snap := ctrl.Store().Snapshot()
	assert.Equal(t, []string{id}, snap.PendingConfirmation)

	require.NoError(t, ctrl.CancelConfirmation(id))
	app, _ := ctrl.Store().Find(id)
	assert.Equal(t, models.StatusLetterGenerated, app.Status)
	assert.Equal(t, "L Frontend Developer", app.CoverLetter)

	require.NoError(t, ctrl.Apply(id))
	require.NoError(t, ctrl.ConfirmSent(id))
	app, _ = ctrl.Store().Find(id)
	assert.Equal(t, models.StatusSent, app.Status)

	// Sent is final
	assert.ErrorIs(t, ctrl.Apply(id), ErrInvalidTransition)
	assert.ErrorIs(t, ctrl.GenerateLetter(context.Background(), id), ErrInvalidTransition)
}

func TestApply_UnknownID(t *testing.T) {
	ctrl, _ := newTestController(&fakeGateway{})
	assert.ErrorIs(t, ctrl.Apply("missing"), models.ErrNotFound)
}

func TestSetLanguage(t *testing.T) {
	gw := &fakeGateway{cv: sampleCV(), jobs: sampleJobs()}
	ctrl, _ := newTestController(gw)
	apps := runAnalysis(t, ctrl)

	ctrl.SetLanguage("en")
	ctrl.SetLanguage("")
	require.NoError(t, ctrl.GenerateLetter(context.Background(), apps[0].ID))

	assert.Equal(t, "en", ctrl.Language())
	assert.Equal(t, []string{"en"}, gw.langs)
}
