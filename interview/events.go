package interview

import "context"

// Event is one message received from the live model session. A single
// message may carry several of these fields at once.
type Event struct {
	InputTranscript  string
	OutputTranscript string
	// Audio is base64 PCM16 at OutputSampleRate
	Audio        string
	TurnComplete bool
	Interrupted  bool
}

// SessionConfig is sent when the live session is opened
type SessionConfig struct {
	SystemInstruction   string
	Voice               string
	AudioResponses      bool
	InputTranscription  bool
	OutputTranscription bool
}

// Conn is an open duplex session with the model. Recv returns io.EOF once the
// remote side closed the session.
type Conn interface {
	SendAudio(ctx context.Context, data, mimeType string) error
	Recv(ctx context.Context) (Event, error)
	Close() error
}

// Dialer opens live model sessions
type Dialer interface {
	Dial(ctx context.Context, cfg SessionConfig) (Conn, error)
}

// Microphone hands out capture streams
type Microphone interface {
	Open(ctx context.Context) (CaptureStream, error)
}

// CaptureStream yields microphone samples at InputSampleRate
type CaptureStream interface {
	Read(ctx context.Context) ([]float32, error)
	Close() error
}
