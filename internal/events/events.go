// Package events carries refresh and config notifications to dashboard
// clients over SSE.
package events

import (
	"encoding/json"
	"time"
)

// SchemaVersion is the "v" field of every event.
const SchemaVersion = 1

const (
	TypePing           = "ping"
	TypeRefreshStarted = "refresh_started"
	TypeDataRefreshed  = "data_refreshed"
	TypeRefreshFailed  = "refresh_failed"
	TypeConfigUpdated  = "config_updated"
)

type Event struct {
	Type      string          `json:"type"`
	Version   int             `json:"v"`
	At        time.Time       `json:"at"`
	RequestID string          `json:"request_id,omitempty"`
	Data      json.RawMessage `json:"data,omitempty"`
}

// MakeEvent serializes an event of type typ. Data that fails to encode is
// left out.
func MakeEvent(reqID, typ string, data any) string {
	e := Event{
		Type:      typ,
		Version:   SchemaVersion,
		At:        time.Now().UTC(),
		RequestID: reqID,
	}
	if data != nil {
		if b, err := json.Marshal(data); err == nil {
			e.Data = b
		}
	}
	b, _ := json.Marshal(e)
	return string(b)
}

// Parse decodes a serialized event.
func Parse(msg string) (Event, error) {
	var e Event
	err := json.Unmarshal([]byte(msg), &e)
	return e, err
}

// Publisher receives serialized events.
type Publisher interface {
	Publish(evt string)
}
