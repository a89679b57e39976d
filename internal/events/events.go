// internal/events/events.go

// Package events carries lobby lifecycle records off the request path so an
// external historian can archive them.
package events

import (
	"time"

	"github.com/google/uuid"
)

// Type names a lobby lifecycle event.
type Type string

const (
	LobbyCreated       Type = "lobby_created"
	PlayerJoined       Type = "player_joined"
	JoinFailed         Type = "join_failed"
	PlayerLeft         Type = "player_left"
	PlayerDisconnected Type = "player_disconnected"
	LobbyClosed        Type = "lobby_closed"
	LobbyExpired       Type = "lobby_expired"
	StatusUpdated      Type = "status_updated"
)

// Event is one lifecycle record.
type Event struct {
	ID        uuid.UUID         `json:"id"`
	Type      Type              `json:"type"`
	Code      string            `json:"code,omitempty"`
	PlayerID  string            `json:"player_id,omitempty"`
	Detail    map[string]string `json:"detail,omitempty"`
	Timestamp int64             `json:"timestamp"` // epoch millis
}

// New stamps an event with a fresh ID and the given time.
func New(typ Type, code, playerID string, at time.Time) Event {
	return Event{
		ID:        uuid.New(),
		Type:      typ,
		Code:      code,
		PlayerID:  playerID,
		Timestamp: at.UnixMilli(),
	}
}

// WithDetail returns a copy of e with key set in Detail.
func (e Event) WithDetail(key, value string) Event {
	detail := make(map[string]string, len(e.Detail)+1)
	for k, v := range e.Detail {
		detail[k] = v
	}
	detail[key] = value
	e.Detail = detail
	return e
}

// Publisher accepts events. Publish must not block the caller.
type Publisher interface {
	Publish(ev Event)
}

// Nop discards every event.
type Nop struct{}

// Publish implements Publisher.
func (Nop) Publish(Event) {}
