package gemini

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/jobpilot/backend/config"
	"github.com/jobpilot/backend/interview"
	"github.com/jobpilot/backend/models"
)

const liveEndpoint = "wss://generativelanguage.googleapis.com/ws/google.ai.generativelanguage.v1beta.GenerativeService.BidiGenerateContent"

// LiveDialer opens realtime audio sessions with the Gemini Live API
type LiveDialer struct {
	endpoint string
	apiKey   string
	model    string
	dialer   *websocket.Dialer
}

// NewLiveDialer creates a dialer from the configuration
func NewLiveDialer(cfg *config.Config) *LiveDialer {
	return &LiveDialer{
		endpoint: liveEndpoint,
		apiKey:   cfg.GeminiAPIKey,
		model:    cfg.LiveModel,
		dialer: &websocket.Dialer{
			Proxy:            http.ProxyFromEnvironment,
			HandshakeTimeout: 15 * time.Second,
		},
	}
}

type liveSetup struct {
	Setup liveSetupBody `json:"setup"`
}

type liveSetupBody struct {
	Model                    string               `json:"model"`
	GenerationConfig         liveGenerationConfig `json:"generationConfig"`
	SystemInstruction        *liveContent         `json:"systemInstruction,omitempty"`
	InputAudioTranscription  *struct{}            `json:"inputAudioTranscription,omitempty"`
	OutputAudioTranscription *struct{}            `json:"outputAudioTranscription,omitempty"`
}

type liveGenerationConfig struct {
	ResponseModalities []string          `json:"responseModalities,omitempty"`
	SpeechConfig       *liveSpeechConfig `json:"speechConfig,omitempty"`
}

type liveSpeechConfig struct {
	VoiceConfig struct {
		PrebuiltVoiceConfig struct {
			VoiceName string `json:"voiceName"`
		} `json:"prebuiltVoiceConfig"`
	} `json:"voiceConfig"`
}

type liveContent struct {
	Parts []livePart `json:"parts"`
}

type livePart struct {
	Text       string      `json:"text,omitempty"`
	InlineData *liveInline `json:"inlineData,omitempty"`
}

type liveInline struct {
	MIMEType string `json:"mimeType"`
	Data     string `json:"data"`
}

type liveRealtimeInput struct {
	RealtimeInput struct {
		Audio liveInline `json:"audio"`
	} `json:"realtimeInput"`
}

type liveServerMessage struct {
	SetupComplete *struct{}          `json:"setupComplete,omitempty"`
	ServerContent *liveServerContent `json:"serverContent,omitempty"`
	GoAway        *struct {
		TimeLeft string `json:"timeLeft"`
	} `json:"goAway,omitempty"`
}

type liveServerContent struct {
	ModelTurn           *liveContent       `json:"modelTurn,omitempty"`
	TurnComplete        bool               `json:"turnComplete,omitempty"`
	Interrupted         bool               `json:"interrupted,omitempty"`
	InputTranscription  *liveTranscription `json:"inputTranscription,omitempty"`
	OutputTranscription *liveTranscription `json:"outputTranscription,omitempty"`
}

type liveTranscription struct {
	Text string `json:"text"`
}

func buildSetup(model string, cfg interview.SessionConfig) liveSetup {
	body := liveSetupBody{Model: "models/" + model}
	if cfg.AudioResponses {
		body.GenerationConfig.ResponseModalities = []string{"AUDIO"}
	}
	if cfg.Voice != "" {
		speech := &liveSpeechConfig{}
		speech.VoiceConfig.PrebuiltVoiceConfig.VoiceName = cfg.Voice
		body.GenerationConfig.SpeechConfig = speech
	}
	if cfg.SystemInstruction != "" {
		body.SystemInstruction = &liveContent{Parts: []livePart{{Text: cfg.SystemInstruction}}}
	}
	if cfg.InputTranscription {
		body.InputAudioTranscription = &struct{}{}
	}
	if cfg.OutputTranscription {
		body.OutputAudioTranscription = &struct{}{}
	}
	return liveSetup{Setup: body}
}

// toEvent flattens a server message. ok is false for messages that carry
// nothing the interview cares about.
func toEvent(msg liveServerMessage) (interview.Event, bool) {
	sc := msg.ServerContent
	if sc == nil {
		return interview.Event{}, false
	}
	ev := interview.Event{
		TurnComplete: sc.TurnComplete,
		Interrupted:  sc.Interrupted,
	}
	if sc.InputTranscription != nil {
		ev.InputTranscript = sc.InputTranscription.Text
	}
	if sc.OutputTranscription != nil {
		ev.OutputTranscript = sc.OutputTranscription.Text
	}
	if sc.ModelTurn != nil {
		for _, part := range sc.ModelTurn.Parts {
			if part.InlineData != nil && part.InlineData.Data != "" {
				ev.Audio = part.InlineData.Data
				break
			}
		}
	}
	return ev, true
}

// Dial opens the session and waits for the setup acknowledgement
func (d *LiveDialer) Dial(ctx context.Context, cfg interview.SessionConfig) (interview.Conn, error) {
	if d.apiKey == "" {
		return nil, errors.New("GEMINI_API_KEY is not configured")
	}
	u := d.endpoint + "?" + url.Values{"key": {d.apiKey}}.Encode()

	ws, _, err := d.dialer.DialContext(ctx, u, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to live API: %w", err)
	}

	if err := ws.WriteJSON(buildSetup(d.model, cfg)); err != nil {
		ws.Close()
		return nil, fmt.Errorf("failed to send setup: %w", err)
	}

	if deadline, ok := ctx.Deadline(); ok {
		ws.SetReadDeadline(deadline)
	}
	var ack liveServerMessage
	if err := ws.ReadJSON(&ack); err != nil {
		ws.Close()
		return nil, fmt.Errorf("failed to read setup response: %w", err)
	}
	if ack.SetupComplete == nil {
		ws.Close()
		return nil, fmt.Errorf("%w: unexpected first live message", models.ErrInvalidFormat)
	}
	ws.SetReadDeadline(time.Time{})

	log.Printf("[Gemini] Live session opened (model=%s, voice=%s)", d.model, cfg.Voice)
	return &liveConn{ws: ws}, nil
}

type liveConn struct {
	ws      *websocket.Conn
	writeMu sync.Mutex
	once    sync.Once
}

func (c *liveConn) SendAudio(ctx context.Context, data, mimeType string) error {
	var msg liveRealtimeInput
	msg.RealtimeInput.Audio = liveInline{MIMEType: mimeType, Data: data}

	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	if deadline, ok := ctx.Deadline(); ok {
		c.ws.SetWriteDeadline(deadline)
	}
	return c.ws.WriteJSON(msg)
}

func (c *liveConn) Recv(ctx context.Context) (interview.Event, error) {
	for {
		if err := ctx.Err(); err != nil {
			return interview.Event{}, err
		}
		_, data, err := c.ws.ReadMessage()
		if err != nil {
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				return interview.Event{}, io.EOF
			}
			return interview.Event{}, err
		}

		var msg liveServerMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			return interview.Event{}, fmt.Errorf("%w: %v", models.ErrInvalidFormat, err)
		}
		if msg.GoAway != nil {
			log.Printf("[Gemini] Live session ending in %s", msg.GoAway.TimeLeft)
		}
		if ev, ok := toEvent(msg); ok {
			return ev, nil
		}
	}
}

func (c *liveConn) Close() error {
	var err error
	c.once.Do(func() {
		c.writeMu.Lock()
		c.ws.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			time.Now().Add(time.Second))
		c.writeMu.Unlock()
		err = c.ws.Close()
	})
	return err
}
