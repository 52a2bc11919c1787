// Package recruiter implements the candidate search used in recruiter mode.
package recruiter

import (
	"context"
	"fmt"
	"log"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/jobpilot/backend/models"
)

// Searcher finds candidate profiles matching a job description
type Searcher interface {
	SearchCandidates(ctx context.Context, description, location string) ([]models.Candidate, error)
}

// State is what the recruiter view renders
type State struct {
	Loading    bool               `json:"loading"`
	Searched   bool               `json:"searched"`
	Error      string             `json:"error,omitempty"`
	Candidates []models.Candidate `json:"candidates"`
}

// Controller keeps the state of the latest candidate search
type Controller struct {
	searcher Searcher
	newID    func() string

	mu    sync.Mutex
	seq   uint64
	state State
}

// NewController creates a recruiter controller
func NewController(searcher Searcher) *Controller {
	return &Controller{
		searcher: searcher,
		newID:    uuid.NewString,
		state:    State{Candidates: []models.Candidate{}},
	}
}

// State returns a copy of the current state
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.copyLocked()
}

func (c *Controller) copyLocked() State {
	out := c.state
	out.Candidates = append([]models.Candidate{}, c.state.Candidates...)
	return out
}

// Search replaces the candidate list with the profiles matching description.
// A response that arrives after a newer search started is dropped.
func (c *Controller) Search(ctx context.Context, description, location string) error {
	description = strings.TrimSpace(description)
	if description == "" {
		return fmt.Errorf("%w: job description is required", models.ErrInvalidInput)
	}
	location = strings.TrimSpace(location)

	c.mu.Lock()
	c.seq++
	seq := c.seq
	c.state = State{Loading: true, Searched: true, Candidates: []models.Candidate{}}
	c.mu.Unlock()

	candidates, err := c.searcher.SearchCandidates(ctx, description, location)

	c.mu.Lock()
	defer c.mu.Unlock()
	if seq != c.seq {
		log.Printf("[Recruiter] Dropping superseded search #%d", seq)
		return nil
	}
	c.state.Loading = false
	if err != nil {
		c.state.Error = err.Error()
		log.Printf("[Recruiter] Candidate search failed: %v", err)
		return err
	}

	list := make([]models.Candidate, 0, len(candidates))
	for _, cand := range candidates {
		cand.ID = c.newID()
		list = append(list, cand)
	}
	c.state.Candidates = list
	log.Printf("[Recruiter] Found %d candidates", len(list))
	return nil
}
