// Package interview runs the live voice mock interview.
package interview

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/jobpilot/backend/models"
)

// Status is the connection state of an interview
type Status string

const (
	StatusIdle       Status = "idle"
	StatusConnecting Status = "connecting"
	StatusActive     Status = "active"
	StatusError      Status = "error"
)

var (
	// ErrBusy is returned by Start when the manager is not idle
	ErrBusy = errors.New("interview already started")
	// ErrFailed is returned by Start after the manager entered the error state
	ErrFailed = errors.New("interview session failed")
	// ErrClosed is returned by Start after Close
	ErrClosed = errors.New("interview manager closed")
	// ErrStopped is returned by Start when Stop interrupted the connection
	ErrStopped = errors.New("interview stopped while connecting")

	errCapture = errors.New("microphone stream failed")
)

// Observer is told about state and transcript changes. It is called from
// several goroutines.
type Observer interface {
	StatusChanged(status Status, message string)
	TranscriptAppended(item models.TranscriptItem)
}

// Manager owns one live interview: the microphone, the model connection and
// the playback timeline.
type Manager struct {
	dialer    Dialer
	mic       Microphone
	sink      Sink
	observer  Observer
	scheduler *Scheduler
	cfg       SessionConfig
	onEnd     func()

	endOnce   sync.Once
	closeOnce sync.Once

	mu         sync.Mutex
	status     Status
	message    string
	closed     bool
	transcript []models.TranscriptItem
	conn       Conn
	capture    CaptureStream
	cancel     context.CancelFunc
	done       chan struct{}

	// owned by the event loop
	input  strings.Builder
	output strings.Builder
}

// NewManager creates an idle manager. onEnd runs at most once, when the
// session ends through Stop or a remote close.
func NewManager(dialer Dialer, mic Microphone, sink Sink, clock Clock, observer Observer, cfg SessionConfig, onEnd func()) *Manager {
	return &Manager{
		dialer:    dialer,
		mic:       mic,
		sink:      sink,
		observer:  observer,
		scheduler: NewScheduler(sink, clock),
		cfg:       cfg,
		onEnd:     onEnd,
		status:    StatusIdle,
	}
}

// Status returns the current state and error message
func (m *Manager) Status() (Status, string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.status, m.message
}

// Transcript returns the completed turns so far
func (m *Manager) Transcript() []models.TranscriptItem {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]models.TranscriptItem{}, m.transcript...)
}

// Scheduler exposes the playback timeline
func (m *Manager) Scheduler() *Scheduler {
	return m.scheduler
}

// Start opens the microphone and the model session, then streams audio both
// ways until Stop, Close or the end of the session.
func (m *Manager) Start(ctx context.Context) error {
	m.mu.Lock()
	switch {
	case m.closed:
		m.mu.Unlock()
		return ErrClosed
	case m.status == StatusError:
		m.mu.Unlock()
		return ErrFailed
	case m.status != StatusIdle:
		m.mu.Unlock()
		return ErrBusy
	}
	m.status = StatusConnecting
	m.message = ""
	m.transcript = nil
	m.mu.Unlock()
	m.notifyStatus(StatusConnecting, "")

	capture, err := m.mic.Open(ctx)
	if err != nil {
		err = fmt.Errorf("%w: %v", models.ErrDeviceAccessDenied, err)
		m.failConnecting(err)
		return err
	}

	m.mu.Lock()
	if m.status != StatusConnecting {
		m.mu.Unlock()
		capture.Close()
		return ErrStopped
	}
	m.capture = capture
	m.mu.Unlock()

	conn, err := m.dialer.Dial(ctx, m.cfg)
	if err != nil {
		err = fmt.Errorf("%w: %v", models.ErrTransportFailure, err)
		m.failConnecting(err)
		return err
	}

	runCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	done := make(chan struct{})

	m.mu.Lock()
	if m.status != StatusConnecting {
		m.mu.Unlock()
		cancel()
		conn.Close()
		return ErrStopped
	}
	m.conn = conn
	m.cancel = cancel
	m.done = done
	m.status = StatusActive
	m.mu.Unlock()

	log.Printf("[Interview] Session active")
	m.notifyStatus(StatusActive, "")

	go m.run(runCtx, conn, capture, done)
	return nil
}

func (m *Manager) failConnecting(err error) {
	m.mu.Lock()
	if m.status != StatusConnecting {
		m.mu.Unlock()
		return
	}
	capture := m.capture
	m.capture = nil
	m.status = StatusError
	m.message = err.Error()
	m.mu.Unlock()

	if capture != nil {
		capture.Close()
	}
	log.Printf("[Interview] Failed to start: %v", err)
	m.notifyStatus(StatusError, err.Error())
}

func (m *Manager) run(ctx context.Context, conn Conn, capture CaptureStream, done chan struct{}) {
	defer close(done)

	// a turn left open by the previous session must not leak into this one
	m.input.Reset()
	m.output.Reset()

	events := make(chan Event, 64)
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return m.pumpUplink(gctx, conn, capture)
	})
	g.Go(func() error {
		defer close(events)
		for {
			ev, err := conn.Recv(gctx)
			if err != nil {
				return err
			}
			select {
			case events <- ev:
			case <-gctx.Done():
				return gctx.Err()
			}
		}
	})
	g.Go(func() error {
		for ev := range events {
			m.handle(ev)
		}
		return nil
	})

	err := g.Wait()

	m.mu.Lock()
	current := m.conn == conn
	m.mu.Unlock()
	if !current {
		// torn down by Stop or Close
		return
	}

	switch {
	case err == nil, errors.Is(err, io.EOF):
		log.Printf("[Interview] Session closed by remote")
		m.teardown(StatusIdle, "", true, false)
	case errors.Is(err, errCapture):
		log.Printf("[Interview] %v", err)
		m.teardown(StatusError, err.Error(), false, false)
	default:
		msg := fmt.Sprintf("%v: %v", models.ErrTransportFailure, err)
		log.Printf("[Interview] Session error: %s", msg)
		m.teardown(StatusError, msg, false, false)
	}
}

func (m *Manager) pumpUplink(ctx context.Context, conn Conn, capture CaptureStream) error {
	var pending []float32
	for {
		samples, err := capture.Read(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return fmt.Errorf("%w: %v", errCapture, err)
		}
		pending = append(pending, samples...)
		for len(pending) >= FrameSize {
			frame := pending[:FrameSize]
			if err := conn.SendAudio(ctx, EncodePCM16(frame), InputMIMEType); err != nil {
				return err
			}
			pending = append([]float32(nil), pending[FrameSize:]...)
		}
	}
}

// handle applies one inbound event. Only the event loop calls it.
func (m *Manager) handle(ev Event) {
	if ev.InputTranscript != "" {
		m.input.WriteString(ev.InputTranscript)
	}
	if ev.OutputTranscript != "" {
		m.output.WriteString(ev.OutputTranscript)
	}
	if ev.TurnComplete {
		m.flushTurn()
	}
	if ev.Audio != "" {
		samples, err := DecodePCM16(ev.Audio)
		if err != nil {
			log.Printf("[Interview] Dropping audio chunk: %v", err)
		} else if _, err := m.scheduler.Schedule(samples, OutputSampleRate); err != nil {
			log.Printf("[Interview] Playback failed: %v", err)
		}
	}
	if ev.Interrupted {
		m.scheduler.Interrupt()
	}
}

func (m *Manager) flushTurn() {
	var items []models.TranscriptItem
	if text := strings.TrimSpace(m.input.String()); text != "" {
		items = append(items, models.TranscriptItem{Speaker: models.SpeakerUser, Text: text})
	}
	if text := strings.TrimSpace(m.output.String()); text != "" {
		items = append(items, models.TranscriptItem{Speaker: models.SpeakerModel, Text: text})
	}
	m.input.Reset()
	m.output.Reset()
	if len(items) == 0 {
		return
	}

	m.mu.Lock()
	m.transcript = append(m.transcript, items...)
	m.mu.Unlock()

	if m.observer != nil {
		for _, item := range items {
			m.observer.TranscriptAppended(item)
		}
	}
}

// Stop ends the session and returns to idle. It is safe to call in any state.
func (m *Manager) Stop() {
	m.teardown(StatusIdle, "", true, true)
}

// Close releases everything, including the playback sink. It never runs the
// end callback and the manager cannot be started again.
func (m *Manager) Close() {
	m.mu.Lock()
	m.closed = true
	m.mu.Unlock()

	m.teardown(StatusIdle, "", false, true)
	m.closeOnce.Do(func() {
		if err := m.sink.Close(); err != nil {
			log.Printf("[Interview] Closing sink: %v", err)
		}
	})
}

// teardown releases the connection, the microphone and scheduled playback.
// wait must be false when called from the run goroutine.
func (m *Manager) teardown(final Status, message string, fireEnd, wait bool) {
	m.mu.Lock()
	if m.conn == nil && m.capture == nil && m.status != StatusConnecting {
		m.mu.Unlock()
		return
	}
	conn, capture, cancel, done := m.conn, m.capture, m.cancel, m.done
	m.conn, m.capture, m.cancel, m.done = nil, nil, nil, nil
	if m.status == StatusError && final == StatusIdle {
		final, message = StatusError, m.message
	}
	m.status = final
	m.message = message
	m.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	if conn != nil {
		if err := conn.Close(); err != nil {
			log.Printf("[Interview] Closing connection: %v", err)
		}
	}
	if capture != nil {
		if err := capture.Close(); err != nil {
			log.Printf("[Interview] Closing microphone: %v", err)
		}
	}
	if wait && done != nil {
		<-done
	}
	m.scheduler.Interrupt()

	m.notifyStatus(final, message)
	if fireEnd && m.onEnd != nil {
		m.endOnce.Do(m.onEnd)
	}
}

func (m *Manager) notifyStatus(status Status, message string) {
	if m.observer != nil {
		m.observer.StatusChanged(status, message)
	}
}
