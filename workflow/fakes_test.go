package workflow

import (
	"context"
	"sync"

	"github.com/jobpilot/backend/models"
)

type fakeGateway struct {
	mu sync.Mutex

	cv        *models.CvData
	cvErr     error
	jobs      []models.Job
	sources   []models.SourceRef
	searchErr error
	letter    string
	letterErr error

	// when set, cover letter calls block until it is closed
	letterGate chan struct{}

	queries []models.JobQuery
	langs   []string
}

func (g *fakeGateway) ExtractCV(ctx context.Context, text string) (*models.CvData, error) {
	return g.cv.Clone(), g.cvErr
}

func (g *fakeGateway) GenerateCVFromProfile(ctx context.Context, profileURL string) (*models.CvData, error) {
	cv := g.cv.Clone()
	if cv != nil {
		cv.LinkedIn = profileURL
	}
	return cv, g.cvErr
}

func (g *fakeGateway) SearchJobs(ctx context.Context, query models.JobQuery) (*models.JobSearchResult, error) {
	g.mu.Lock()
	g.queries = append(g.queries, query)
	g.mu.Unlock()
	if g.searchErr != nil {
		return nil, g.searchErr
	}
	return &models.JobSearchResult{Jobs: g.jobs, Sources: g.sources}, nil
}

func (g *fakeGateway) GenerateCoverLetter(ctx context.Context, cv *models.CvData, job models.Job, language string) (string, error) {
	g.mu.Lock()
	g.langs = append(g.langs, language)
	gate := g.letterGate
	g.mu.Unlock()
	if gate != nil {
		<-gate
	}
	if g.letterErr != nil {
		return "", g.letterErr
	}
	return g.letter + " " + job.Title, nil
}

type recordingOpener struct {
	mu   sync.Mutex
	urls []string
}

func (o *recordingOpener) OpenURL(url string) {
	o.mu.Lock()
	o.urls = append(o.urls, url)
	o.mu.Unlock()
}

func (o *recordingOpener) opened() []string {
	o.mu.Lock()
	defer o.mu.Unlock()
	return append([]string{}, o.urls...)
}

func sampleCV() *models.CvData {
	return &models.CvData{
		PersonalInfo: models.PersonalInfo{Name: "Jane Doe", Email: "jane@example.com"},
		Skills:       []string{"React", "TypeScript"},
	}
}

func sampleJobs() []models.Job {
	return []models.Job{
		{Title: "Frontend Developer", Company: "Acme", Location: "Paris", URL: "https://jobs.example.com/1"},
		{Title: "React Engineer", Company: "Globex", Location: "Paris", URL: "https://jobs.example.com/2"},
		{Title: "UI Engineer", Company: "Initech", Location: "Paris", URL: "https://jobs.example.com/3"},
	}
}

func newTestController(gw *fakeGateway) (*Controller, *recordingOpener) {
	opener := &recordingOpener{}
	return NewController(NewStore(), gw, opener, "fr"), opener
}

func analysisOptions() models.SearchOptions {
	return models.SearchOptions{Location: "Paris", ContractTypes: []string{"CDI"}, DatePosted: models.DatePostedAny}
}
