// Package events fans session events out to server-sent-event subscribers.
package events

import (
	"encoding/json"
	"time"
)

const (
	TypeSnapshot  = "snapshot"
	TypeOpenURL   = "open_url"
	TypeRecruiter = "recruiter"
	TypePing      = "ping"
)

type Event struct {
	Type    string          `json:"type"`
	Version int             `json:"v"`
	At      time.Time       `json:"at"`
	Data    json.RawMessage `json:"data,omitempty"`
}

// MakeEvent encodes an event envelope
func MakeEvent(typ string, data any) string {
	var raw json.RawMessage
	if data != nil {
		b, _ := json.Marshal(data)
		raw = b
	}
	e := Event{
		Type:    typ,
		Version: 1,
		At:      time.Now().UTC(),
		Data:    raw,
	}
	b, _ := json.Marshal(e)
	return string(b)
}

// OpenURLData is the payload of an open_url event
type OpenURLData struct {
	URL string `json:"url"`
}
