package workflow

import (
	"errors"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/jobpilot/backend/recruiter"
)

// ErrInterviewActive is returned when a second interview is started in the same session
var ErrInterviewActive = errors.New("an interview is already running in this session")

// Session is one browser tab worth of state: the candidate workflow, the
// recruiter search and at most one interview.
type Session struct {
	ID          string
	Owner       string
	CreatedAt   time.Time
	Controller  *Controller
	Coordinator *Coordinator
	Recruiter   *recruiter.Controller

	mu        sync.Mutex
	lastSeen  time.Time
	interview bool
}

// Touch records activity on the session
func (s *Session) Touch() {
	s.mu.Lock()
	s.lastSeen = time.Now()
	s.mu.Unlock()
}

// LastSeen returns the time of the latest activity
func (s *Session) LastSeen() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastSeen
}

// AcquireInterview reserves the interview slot. The returned function releases it.
func (s *Session) AcquireInterview() (func(), error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.interview {
		return nil, ErrInterviewActive
	}
	s.interview = true

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			s.interview = false
			s.lastSeen = time.Now()
			s.mu.Unlock()
		})
	}, nil
}

// idleSince reports whether the session saw no activity after cutoff. A
// session with a running interview is never idle.
func (s *Session) idleSince(cutoff time.Time) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return !s.interview && s.lastSeen.Before(cutoff)
}

// OpenerFactory builds the URL opener of a session
type OpenerFactory func(sessionID string) URLOpener

// Registry holds the live sessions
type Registry struct {
	gateway   Gateway
	searcher  recruiter.Searcher
	newOpener OpenerFactory
	language  string

	mu       sync.RWMutex
	sessions map[string]*Session
}

// NewRegistry creates an empty registry
func NewRegistry(gateway Gateway, searcher recruiter.Searcher, newOpener OpenerFactory, language string) *Registry {
	return &Registry{
		gateway:   gateway,
		searcher:  searcher,
		newOpener: newOpener,
		language:  language,
		sessions:  make(map[string]*Session),
	}
}

// Create opens a new session for owner, which may be empty for anonymous users
func (r *Registry) Create(owner string) *Session {
	id := uuid.NewString()
	ctrl := NewController(NewStore(), r.gateway, r.newOpener(id), r.language)
	now := time.Now()
	sess := &Session{
		ID:          id,
		Owner:       owner,
		CreatedAt:   now,
		Controller:  ctrl,
		Coordinator: NewCoordinator(ctrl),
		Recruiter:   recruiter.NewController(r.searcher),
		lastSeen:    now,
	}

	r.mu.Lock()
	r.sessions[id] = sess
	r.mu.Unlock()

	log.Printf("[Workflow] Session %s created (owner=%q)", id, owner)
	return sess
}

// Get returns the session with the given id
func (r *Registry) Get(id string) (*Session, bool) {
	r.mu.RLock()
	sess, ok := r.sessions[id]
	r.mu.RUnlock()
	if ok {
		sess.Touch()
	}
	return sess, ok
}

// Remove drops a session
func (r *Registry) Remove(id string) {
	r.mu.Lock()
	delete(r.sessions, id)
	r.mu.Unlock()
}

// Len returns the number of live sessions
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}

// Sweep removes the sessions idle for longer than maxIdle and returns how
// many were removed. Sessions running an interview are kept.
func (r *Registry) Sweep(maxIdle time.Duration) int {
	cutoff := time.Now().Add(-maxIdle)

	r.mu.Lock()
	defer r.mu.Unlock()
	removed := 0
	for id, sess := range r.sessions {
		if sess.idleSince(cutoff) {
			delete(r.sessions, id)
			removed++
		}
	}
	if removed > 0 {
		log.Printf("[Workflow] Swept %d idle sessions, %d live", removed, len(r.sessions))
	}
	return removed
}
