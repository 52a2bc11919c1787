package workflow

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"

	"github.com/google/uuid"

	"github.com/jobpilot/backend/models"
)

// Gateway is the subset of the AI backend the candidate workflow needs
type Gateway interface {
	ExtractCV(ctx context.Context, text string) (*models.CvData, error)
	GenerateCVFromProfile(ctx context.Context, profileURL string) (*models.CvData, error)
	SearchJobs(ctx context.Context, query models.JobQuery) (*models.JobSearchResult, error)
	GenerateCoverLetter(ctx context.Context, cv *models.CvData, job models.Job, language string) (string, error)
}

// URLOpener opens a job posting for the user. Calls are fire-and-forget.
type URLOpener interface {
	OpenURL(url string)
}

// Controller drives the analysis pipeline and the per-application lifecycle
type Controller struct {
	store   *Store
	gateway Gateway
	opener  URLOpener
	newID   func() string

	mu       sync.RWMutex
	language string
}

// NewController creates a controller over store
func NewController(store *Store, gateway Gateway, opener URLOpener, language string) *Controller {
	return &Controller{
		store:    store,
		gateway:  gateway,
		opener:   opener,
		newID:    uuid.NewString,
		language: language,
	}
}

// Store returns the application store driven by this controller
func (c *Controller) Store() *Store {
	return c.store
}

// Language returns the cover letter language
func (c *Controller) Language() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.language
}

// SetLanguage changes the cover letter language for later generations
func (c *Controller) SetLanguage(language string) {
	if language == "" {
		return
	}
	c.mu.Lock()
	c.language = language
	c.mu.Unlock()
}

// RunAnalysis resolves the CV, searches matching jobs and publishes one Ready
// application per job. Any previous CV, applications and error are discarded
// when it starts.
func (c *Controller) RunAnalysis(ctx context.Context, input CvInput, opts models.SearchOptions) error {
	epoch := c.store.Begin()
	log.Printf("[Workflow] Analysis started (epoch %d, location=%s)", epoch, opts.Location)

	cv, err := c.resolveCV(ctx, input)
	if err != nil {
		return c.fail(epoch, PhaseParsing, err)
	}
	cv.Normalize()

	if !c.store.SetCV(epoch, cv) || !c.store.SetPhase(epoch, PhaseFindingJobs) {
		return ErrSuperseded
	}

	result, err := c.gateway.SearchJobs(ctx, models.JobQuery{
		Skills:        cv.Skills,
		Location:      opts.Location,
		ContractTypes: opts.ContractTypes,
		DatePosted:    opts.DatePosted,
	})
	if err != nil {
		return c.fail(epoch, PhaseFindingJobs, err)
	}
	if result == nil {
		result = &models.JobSearchResult{}
	}

	apps := make([]models.Application, 0, len(result.Jobs))
	for _, job := range result.Jobs {
		apps = append(apps, models.Application{
			ID:     c.newID(),
			Job:    job,
			Status: models.StatusReady,
		})
	}

	if !c.store.SetResults(epoch, apps, result.Sources) {
		log.Printf("[Workflow] Discarding search results of superseded epoch %d", epoch)
		return ErrSuperseded
	}

	log.Printf("[Workflow] Analysis done (epoch %d): %d applications, %d sources", epoch, len(apps), len(result.Sources))
	return nil
}

func (c *Controller) resolveCV(ctx context.Context, input CvInput) (*models.CvData, error) {
	var (
		cv  *models.CvData
		err error
	)
	switch in := input.(type) {
	case ManualInput:
		data := in.Data
		cv = data.Clone()
	case TextInput:
		cv, err = c.gateway.ExtractCV(ctx, in.Text)
	case LinkedInInput:
		cv, err = c.gateway.GenerateCVFromProfile(ctx, in.URL)
	default:
		return nil, fmt.Errorf("%w: unsupported CV input %T", models.ErrInvalidInput, input)
	}
	if err != nil {
		return nil, err
	}
	if cv == nil {
		return nil, fmt.Errorf("%w: empty CV payload", models.ErrInvalidFormat)
	}
	return cv, nil
}

func (c *Controller) fail(epoch uint64, step Phase, err error) error {
	perr := &PipelineError{Step: step, Err: err}
	if !c.store.Fail(epoch, perr.Error()) {
		return ErrSuperseded
	}
	log.Printf("[Workflow] Analysis failed (epoch %d): %v", epoch, perr)
	return perr
}

// GenerateLetter drafts the cover letter of one application. An unknown id is
// a no-op. A failure only affects that application.
func (c *Controller) GenerateLetter(ctx context.Context, id string) error {
	cv, epoch := c.store.CV()
	if cv == nil {
		c.store.Fail(epoch, ErrMissingCV.Error())
		return ErrMissingCV
	}

	var (
		job      models.Job
		startErr error
	)
	started := c.store.UpdateApp(epoch, id, func(app *models.Application) bool {
		if err := transition(app, models.StatusGeneratingLetter); err != nil {
			startErr = err
			return false
		}
		job = app.Job
		return true
	})
	if startErr != nil {
		return startErr
	}
	if !started {
		return nil
	}

	letter, genErr := c.gateway.GenerateCoverLetter(ctx, cv, job, c.Language())

	applied := c.store.UpdateApp(epoch, id, func(app *models.Application) bool {
		if app.Status != models.StatusGeneratingLetter {
			return false
		}
		if genErr != nil {
			app.Status = models.StatusError
			return true
		}
		app.CoverLetter = letter
		app.Status = models.StatusLetterGenerated
		return true
	})
	if !applied {
		log.Printf("[Workflow] Discarding stale letter for application %s", id)
		return ErrSuperseded
	}
	if genErr != nil {
		log.Printf("[Workflow] Letter generation failed for application %s: %v", id, genErr)
		return fmt.Errorf("generate letter for %s: %w", id, genErr)
	}
	return nil
}

// Apply opens the job posting and waits for the user to confirm the sending
func (c *Controller) Apply(id string) error {
	var url string
	err := c.move(id, models.StatusAwaitingConfirmation, func(app *models.Application) {
		url = app.Job.URL
	})
	if err != nil {
		return err
	}
	if url != "" {
		c.opener.OpenURL(url)
	}
	return nil
}

// ConfirmSent records that the application was sent
func (c *Controller) ConfirmSent(id string) error {
	return c.move(id, models.StatusSent, nil)
}

// CancelConfirmation returns a pending application to LetterGenerated
func (c *Controller) CancelConfirmation(id string) error {
	return c.move(id, models.StatusLetterGenerated, nil)
}

func (c *Controller) move(id string, to models.ApplicationStatus, onMove func(app *models.Application)) error {
	var moveErr error
	found := false
	c.store.UpdateApp(c.store.Epoch(), id, func(app *models.Application) bool {
		found = true
		if err := transition(app, to); err != nil {
			moveErr = err
			return false
		}
		if onMove != nil {
			onMove(app)
		}
		return true
	})
	if !found {
		return fmt.Errorf("application %s: %w", id, models.ErrNotFound)
	}
	return moveErr
}

// Reset discards the CV, the applications and any error
func (c *Controller) Reset() {
	epoch := c.store.Reset()
	log.Printf("[Workflow] Session reset (epoch %d)", epoch)
}

// Retry leaves the error phase for idle and keeps what was already resolved
func (c *Controller) Retry() {
	c.store.ClearError()
}

// IsPipelineError reports whether err is an analysis step failure
func IsPipelineError(err error) bool {
	var perr *PipelineError
	return errors.As(err, &perr)
}
