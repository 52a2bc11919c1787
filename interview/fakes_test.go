package interview

import (
	"context"
	"errors"
	"io"
	"sync"
	"time"

	"github.com/jobpilot/backend/models"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Duration
}

func (c *fakeClock) Now() time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Set(d time.Duration) {
	c.mu.Lock()
	c.now = d
	c.mu.Unlock()
}

type fakeSink struct {
	mu      sync.Mutex
	played  []Buffer
	stopped []uint64
	closed  int
}

func (s *fakeSink) Play(buf Buffer) error {
	s.mu.Lock()
	s.played = append(s.played, buf)
	s.mu.Unlock()
	return nil
}

func (s *fakeSink) Stop(id uint64) {
	s.mu.Lock()
	s.stopped = append(s.stopped, id)
	s.mu.Unlock()
}

func (s *fakeSink) Close() error {
	s.mu.Lock()
	s.closed++
	s.mu.Unlock()
	return nil
}

func (s *fakeSink) snapshot() ([]Buffer, []uint64, int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Buffer{}, s.played...), append([]uint64{}, s.stopped...), s.closed
}

// fakeConn delivers the events pushed by the test. Closing the events channel
// simulates a remote close.
type fakeConn struct {
	events chan Event

	mu     sync.Mutex
	sent   []string
	closed chan struct{}
	once   sync.Once
}

func newFakeConn() *fakeConn {
	return &fakeConn{events: make(chan Event, 16), closed: make(chan struct{})}
}

func (c *fakeConn) SendAudio(ctx context.Context, data, mimeType string) error {
	c.mu.Lock()
	c.sent = append(c.sent, data)
	c.mu.Unlock()
	return nil
}

func (c *fakeConn) Recv(ctx context.Context) (Event, error) {
	select {
	case ev, ok := <-c.events:
		if !ok {
			return Event{}, io.EOF
		}
		return ev, nil
	case <-c.closed:
		return Event{}, errors.New("use of closed connection")
	case <-ctx.Done():
		return Event{}, ctx.Err()
	}
}

func (c *fakeConn) Close() error {
	c.once.Do(func() { close(c.closed) })
	return nil
}

func (c *fakeConn) isClosed() bool {
	select {
	case <-c.closed:
		return true
	default:
		return false
	}
}

func (c *fakeConn) frames() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string{}, c.sent...)
}

type fakeDialer struct {
	conn *fakeConn
	err  error
	cfg  SessionConfig
}

func (d *fakeDialer) Dial(ctx context.Context, cfg SessionConfig) (Conn, error) {
	d.cfg = cfg
	if d.err != nil {
		return nil, d.err
	}
	return d.conn, nil
}

type fakeMic struct {
	err    error
	stream *fakeStream
}

func (m *fakeMic) Open(ctx context.Context) (CaptureStream, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.stream, nil
}

type fakeStream struct {
	samples chan []float32
	closed  chan struct{}
	once    sync.Once
}

func newFakeStream() *fakeStream {
	return &fakeStream{samples: make(chan []float32, 16), closed: make(chan struct{})}
}

func (s *fakeStream) Read(ctx context.Context) ([]float32, error) {
	select {
	case samples := <-s.samples:
		return samples, nil
	case <-s.closed:
		return nil, io.ErrClosedPipe
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (s *fakeStream) Close() error {
	s.once.Do(func() { close(s.closed) })
	return nil
}

func (s *fakeStream) isClosed() bool {
	select {
	case <-s.closed:
		return true
	default:
		return false
	}
}

type recordingObserver struct {
	mu         sync.Mutex
	statuses   []Status
	transcript []models.TranscriptItem
}

func (o *recordingObserver) StatusChanged(status Status, message string) {
	o.mu.Lock()
	o.statuses = append(o.statuses, status)
	o.mu.Unlock()
}

func (o *recordingObserver) TranscriptAppended(item models.TranscriptItem) {
	o.mu.Lock()
	o.transcript = append(o.transcript, item)
	o.mu.Unlock()
}

func (o *recordingObserver) items() []models.TranscriptItem {
	o.mu.Lock()
	defer o.mu.Unlock()
	return append([]models.TranscriptItem{}, o.transcript...)
}

func (o *recordingObserver) seen() []Status {
	o.mu.Lock()
	defer o.mu.Unlock()
	return append([]Status{}, o.statuses...)
}
