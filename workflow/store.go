package workflow

import (
	"sync"

	"github.com/jobpilot/backend/models"
)

// Phase is the coarse progress of the analysis pipeline
type Phase string

const (
	PhaseIdle        Phase = "idle"
	PhaseParsing     Phase = "parsing"
	PhaseFindingJobs Phase = "findingJobs"
	PhaseResults     Phase = "results"
	PhaseError       Phase = "error"
)

// Snapshot is an immutable copy of the session state
type Snapshot struct {
	Version      uint64               `json:"version"`
	Epoch        uint64               `json:"epoch"`
	Phase        Phase                `json:"phase"`
	Error        string               `json:"error,omitempty"`
	CV           *models.CvData       `json:"cv,omitempty"`
	Applications []models.Application `json:"applications"`
	Sources      []models.SourceRef   `json:"sources"`
	// PendingConfirmation lists the applications currently awaiting confirmation,
	// whether they got there through a single or a bulk apply.
	PendingConfirmation []string `json:"pendingConfirmation"`
}

// Store holds the applications of one workflow session. Every mutation is a
// functional update over the latest state, applied under the lock, and is
// tagged with the epoch it was issued in: a write from a superseded epoch is
// dropped.
type Store struct {
	mu        sync.Mutex
	version   uint64
	epoch     uint64
	phase     Phase
	err       string
	cv        *models.CvData
	apps      []models.Application
	sources   []models.SourceRef
	listeners map[int]func(Snapshot)
	nextID    int

	// notifyMu orders listener calls by version
	notifyMu sync.Mutex
	notified uint64
}

// NewStore creates an idle store
func NewStore() *Store {
	return &Store{
		phase:     PhaseIdle,
		apps:      []models.Application{},
		sources:   []models.SourceRef{},
		listeners: make(map[int]func(Snapshot)),
	}
}

// Subscribe registers fn to receive a snapshot after every change and returns
// a function that removes it. Snapshots arrive in version order; one that is
// already superseded when its turn comes is skipped.
func (s *Store) Subscribe(fn func(Snapshot)) func() {
	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.listeners[id] = fn
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		delete(s.listeners, id)
		s.mu.Unlock()
	}
}

// Snapshot returns a copy of the current state
func (s *Store) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

// Epoch returns the current session epoch
func (s *Store) Epoch() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.epoch
}

// CV returns the current CV data and the epoch it belongs to
func (s *Store) CV() (*models.CvData, uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cv.Clone(), s.epoch
}

// Find returns a copy of the application with the given id
func (s *Store) Find(id string) (models.Application, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, app := range s.apps {
		if app.ID == id {
			return app, true
		}
	}
	return models.Application{}, false
}

// Begin starts a fresh session: previous CV, applications and error are
// discarded and the phase moves to parsing. It returns the new epoch.
func (s *Store) Begin() uint64 {
	return s.restart(PhaseParsing)
}

// Reset discards everything and returns to idle
func (s *Store) Reset() uint64 {
	return s.restart(PhaseIdle)
}

func (s *Store) restart(phase Phase) uint64 {
	s.mu.Lock()
	s.epoch++
	s.phase = phase
	s.err = ""
	s.cv = nil
	s.apps = []models.Application{}
	s.sources = []models.SourceRef{}
	epoch := s.epoch
	snap, listeners := s.commitLocked()
	s.mu.Unlock()

	s.notify(listeners, snap)
	return epoch
}

// ClearError leaves the error phase for idle while keeping the CV and applications
func (s *Store) ClearError() {
	s.mutate(func() bool {
		if s.phase != PhaseError {
			return false
		}
		s.phase = PhaseIdle
		s.err = ""
		return true
	})
}

// SetPhase moves the pipeline phase if epoch is still current
func (s *Store) SetPhase(epoch uint64, phase Phase) bool {
	return s.mutateEpoch(epoch, func() bool {
		s.phase = phase
		return true
	})
}

// SetCV replaces the CV data wholesale
func (s *Store) SetCV(epoch uint64, cv *models.CvData) bool {
	return s.mutateEpoch(epoch, func() bool {
		s.cv = cv.Clone()
		return true
	})
}

// SetResults publishes the application list and moves to the results phase
func (s *Store) SetResults(epoch uint64, apps []models.Application, sources []models.SourceRef) bool {
	return s.mutateEpoch(epoch, func() bool {
		s.apps = append([]models.Application{}, apps...)
		s.sources = append([]models.SourceRef{}, sources...)
		s.phase = PhaseResults
		return true
	})
}

// Fail moves the pipeline to the error phase with msg
func (s *Store) Fail(epoch uint64, msg string) bool {
	return s.mutateEpoch(epoch, func() bool {
		s.phase = PhaseError
		s.err = msg
		return true
	})
}

// Update applies fn to a copy of the application list and stores the result.
// fn always sees the latest list.
func (s *Store) Update(epoch uint64, fn func(apps []models.Application) []models.Application) bool {
	return s.mutateEpoch(epoch, func() bool {
		next := fn(append([]models.Application(nil), s.apps...))
		if next == nil {
			next = []models.Application{}
		}
		s.apps = next
		return true
	})
}

// UpdateApp applies fn to the application with the given id. fn returns false
// to leave the application untouched.
func (s *Store) UpdateApp(epoch uint64, id string, fn func(app *models.Application) bool) bool {
	return s.mutateEpoch(epoch, func() bool {
		for i := range s.apps {
			if s.apps[i].ID != id {
				continue
			}
			app := s.apps[i]
			if !fn(&app) {
				return false
			}
			next := append([]models.Application(nil), s.apps...)
			next[i] = app
			s.apps = next
			return true
		}
		return false
	})
}

func (s *Store) mutateEpoch(epoch uint64, fn func() bool) bool {
	applied := false
	s.mutate(func() bool {
		if epoch != s.epoch {
			return false
		}
		applied = fn()
		return applied
	})
	return applied
}

func (s *Store) mutate(fn func() bool) {
	s.mu.Lock()
	if !fn() {
		s.mu.Unlock()
		return
	}
	snap, listeners := s.commitLocked()
	s.mu.Unlock()

	s.notify(listeners, snap)
}

func (s *Store) commitLocked() (Snapshot, []func(Snapshot)) {
	s.version++
	listeners := make([]func(Snapshot), 0, len(s.listeners))
	for _, fn := range s.listeners {
		listeners = append(listeners, fn)
	}
	return s.snapshotLocked(), listeners
}

func (s *Store) snapshotLocked() Snapshot {
	apps := append([]models.Application{}, s.apps...)
	pending := []string{}
	for _, app := range apps {
		if app.Status == models.StatusAwaitingConfirmation {
			pending = append(pending, app.ID)
		}
	}
	return Snapshot{
		Version:             s.version,
		Epoch:               s.epoch,
		Phase:               s.phase,
		Error:               s.err,
		CV:                  s.cv.Clone(),
		Applications:        apps,
		Sources:             append([]models.SourceRef{}, s.sources...),
		PendingConfirmation: pending,
	}
}

// notify hands snap to the listeners unless a newer snapshot already went
// out. Listeners run one at a time and must not mutate the store.
func (s *Store) notify(listeners []func(Snapshot), snap Snapshot) {
	s.notifyMu.Lock()
	defer s.notifyMu.Unlock()
	if snap.Version <= s.notified {
		return
	}
	s.notified = snap.Version
	for _, fn := range listeners {
		fn(snap)
	}
}
