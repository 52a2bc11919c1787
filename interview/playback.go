package interview

import (
	"sort"
	"sync"
	"time"
)

// Buffer is a chunk of model audio placed on the playback timeline
type Buffer struct {
	ID         uint64        `json:"id"`
	Samples    []float32     `json:"-"`
	SampleRate int           `json:"sampleRate"`
	StartAt    time.Duration `json:"startAt"`
	Duration   time.Duration `json:"duration"`
}

// End is the time at which the buffer finishes playing
func (b Buffer) End() time.Duration {
	return b.StartAt + b.Duration
}

// Sink plays scheduled buffers
type Sink interface {
	Play(buf Buffer) error
	Stop(id uint64)
	Close() error
}

// Clock measures time on the playback timeline
type Clock interface {
	Now() time.Duration
}

type monotonicClock struct {
	origin time.Time
}

// NewClock returns a clock starting at zero now
func NewClock() Clock {
	return monotonicClock{origin: time.Now()}
}

func (c monotonicClock) Now() time.Duration {
	return time.Since(c.origin)
}

// Scheduler queues buffers back to back. Each buffer starts at the later of
// the watermark and now, and the watermark moves to its end, so buffers never
// overlap and keep their arrival order.
type Scheduler struct {
	sink  Sink
	clock Clock

	mu        sync.Mutex
	watermark time.Duration
	nextID    uint64
	scheduled map[uint64]Buffer
}

// NewScheduler creates a scheduler playing into sink
func NewScheduler(sink Sink, clock Clock) *Scheduler {
	return &Scheduler{
		sink:      sink,
		clock:     clock,
		scheduled: make(map[uint64]Buffer),
	}
}

// Schedule places samples after everything already queued
func (s *Scheduler) Schedule(samples []float32, rate int) (Buffer, error) {
	s.mu.Lock()
	now := s.clock.Now()
	s.pruneLocked(now)

	start := s.watermark
	if now > start {
		start = now
	}
	s.nextID++
	buf := Buffer{
		ID:         s.nextID,
		Samples:    samples,
		SampleRate: rate,
		StartAt:    start,
		Duration:   SamplesDuration(len(samples), rate),
	}
	s.watermark = buf.End()
	s.scheduled[buf.ID] = buf
	s.mu.Unlock()

	return buf, s.sink.Play(buf)
}

// Interrupt stops every queued buffer and moves the watermark back to now
func (s *Scheduler) Interrupt() {
	s.mu.Lock()
	ids := make([]uint64, 0, len(s.scheduled))
	for id := range s.scheduled {
		ids = append(ids, id)
	}
	s.scheduled = make(map[uint64]Buffer)
	s.watermark = s.clock.Now()
	s.mu.Unlock()

	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	for _, id := range ids {
		s.sink.Stop(id)
	}
}

// Ended forgets a buffer the sink finished playing
func (s *Scheduler) Ended(id uint64) {
	s.mu.Lock()
	delete(s.scheduled, id)
	s.mu.Unlock()
}

// Pending returns the buffers that have not finished playing, in start order
func (s *Scheduler) Pending() []Buffer {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pruneLocked(s.clock.Now())

	out := make([]Buffer, 0, len(s.scheduled))
	for _, buf := range s.scheduled {
		out = append(out, buf)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartAt < out[j].StartAt })
	return out
}

// Watermark is the time at which the next buffer would start
func (s *Scheduler) Watermark() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.watermark
}

func (s *Scheduler) pruneLocked(now time.Duration) {
	for id, buf := range s.scheduled {
		if buf.End() <= now {
			delete(s.scheduled, id)
		}
	}
}
