package handlers

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"math"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"github.com/jobpilot/backend/interview"
	"github.com/jobpilot/backend/models"
)

const (
	relayWriteTimeout = 10 * time.Second
	// frames buffered between the socket and the uplink pump
	relayFrameBuffer  = 64
)

// relayMessage is a JSON frame exchanged with the browser. Binary frames
// carry microphone samples as little-endian float32.
type relayMessage struct {
	Type       string `json:"type"`
	ID         uint64 `json:"id,omitempty"`
	StartAt    int64  `json:"startAt,omitempty"` // ms on the session clock
	SampleRate int    `json:"sampleRate,omitempty"`
	Data       string `json:"data,omitempty"`
	Status     string `json:"status,omitempty"`
	Message    string `json:"message,omitempty"`
	Speaker    string `json:"speaker,omitempty"`
	Text       string `json:"text,omitempty"`
}

// relay bridges an interview.Manager to a browser tab over a WebSocket. The
// browser owns the microphone and the speakers: it implements the
// microphone, the playback sink and the observer.
type relay struct {
	conn  *websocket.Conn
	mgr   *interview.Manager
	touch func()

	writeMu sync.Mutex

	micReady chan error

	captureMu sync.Mutex
	capture   *relayCapture // nil while no capture is open

	done     chan struct{}
	doneOnce sync.Once
}

func newRelay(conn *websocket.Conn, touch func()) *relay {
	return &relay{
		conn:     conn,
		touch:    touch,
		micReady: make(chan error, 1),
		done:     make(chan struct{}),
	}
}

func (r *relay) finish() {
	r.doneOnce.Do(func() { close(r.done) })
}

func (r *relay) send(msg relayMessage) {
	r.writeMu.Lock()
	defer r.writeMu.Unlock()
	r.conn.SetWriteDeadline(time.Now().Add(relayWriteTimeout))
	if err := r.conn.WriteJSON(msg); err != nil {
		log.Printf("[Interview] Relay write failed: %v", err)
		r.finish()
	}
}

// readLoop dispatches browser frames until the socket closes. It never
// blocks on the uplink so control and close frames are always seen.
func (r *relay) readLoop() {
	defer r.finish()
	for {
		typ, data, err := r.conn.ReadMessage()
		if err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				log.Printf("[Interview] Relay read ended: %v", err)
			}
			return
		}
		if r.touch != nil {
			r.touch()
		}

		if typ == websocket.BinaryMessage {
			samples, err := decodeFloat32LE(data)
			if err != nil {
				log.Printf("[Interview] Dropping microphone frame: %v", err)
				continue
			}
			r.captureMu.Lock()
			capture := r.capture
			r.captureMu.Unlock()
			if capture != nil {
				capture.offer(samples)
			}
			continue
		}

		var msg relayMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			log.Printf("[Interview] Ignoring malformed control frame: %v", err)
			continue
		}
		switch msg.Type {
		case "mic_ready":
			r.resolveMic(nil)
		case "mic_denied":
			r.resolveMic(errors.New(msg.Message))
		case "ended":
			r.mgr.Scheduler().Ended(msg.ID)
		case "stop":
			r.mgr.Stop()
		}
	}
}

func (r *relay) resolveMic(err error) {
	select {
	case r.micReady <- err:
	default:
	}
}

// Open waits for the browser to report whether it got the microphone
func (r *relay) Open(ctx context.Context) (interview.CaptureStream, error) {
	select {
	case err := <-r.micReady:
		if err != nil {
			return nil, err
		}
	case <-r.done:
		return nil, io.ErrClosedPipe
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	capture := &relayCapture{
		relay:  r,
		frames: make(chan []float32, relayFrameBuffer),
		closed: make(chan struct{}),
	}
	r.captureMu.Lock()
	if r.capture != nil {
		r.capture.close()
	}
	r.capture = capture
	r.captureMu.Unlock()
	return capture, nil
}

func (r *relay) Play(buf interview.Buffer) error {
	r.send(relayMessage{
		Type:       "audio",
		ID:         buf.ID,
		StartAt:    buf.StartAt.Milliseconds(),
		SampleRate: buf.SampleRate,
		Data:       interview.EncodePCM16(buf.Samples),
	})
	return nil
}

func (r *relay) Stop(id uint64) {
	r.send(relayMessage{Type: "stop", ID: id})
}

// Close releases the sink. The socket itself is closed by the handler.
func (r *relay) Close() error {
	return nil
}

// relayCapture is one open capture stream fed by the read loop
type relayCapture struct {
	relay  *relay
	frames chan []float32

	closed    chan struct{}
	closeOnce sync.Once
	dropped   atomic.Int64
}

// offer hands samples to the reader. A full buffer or a closed stream drops them.
func (c *relayCapture) offer(samples []float32) {
	select {
	case <-c.closed:
		return
	default:
	}
	select {
	case c.frames <- samples:
	default:
		if c.dropped.Add(1) == 1 {
			log.Printf("[Interview] Uplink is behind, dropping microphone frames")
		}
	}
}

func (c *relayCapture) Read(ctx context.Context) ([]float32, error) {
	select {
	case samples := <-c.frames:
		return samples, nil
	case <-c.closed:
		return nil, io.EOF
	case <-c.relay.done:
		return nil, io.EOF
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (c *relayCapture) Close() error {
	c.close()
	r := c.relay
	r.captureMu.Lock()
	if r.capture == c {
		r.capture = nil
	}
	r.captureMu.Unlock()
	return nil
}

func (c *relayCapture) close() {
	c.closeOnce.Do(func() { close(c.closed) })
}

func (r *relay) StatusChanged(status interview.Status, message string) {
	r.send(relayMessage{Type: "status", Status: string(status), Message: message})
}

func (r *relay) TranscriptAppended(item models.TranscriptItem) {
	r.send(relayMessage{Type: "transcript", Speaker: string(item.Speaker), Text: item.Text})
}

func decodeFloat32LE(data []byte) ([]float32, error) {
	if len(data)%4 != 0 {
		return nil, fmt.Errorf("%w: frame of %d bytes", models.ErrInvalidFormat, len(data))
	}
	samples := make([]float32, len(data)/4)
	for i := range samples {
		samples[i] = math.Float32frombits(binary.LittleEndian.Uint32(data[i*4:]))
	}
	return samples, nil
}
