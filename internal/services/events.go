package services

import "pawmatch-backend/internal/models"

// EventType tags a realtime event. The set is closed: handlers switch on the
// tag instead of probing optional fields.
type EventType string

const (
	EventNewMatch   EventType = "new_match"
	EventNewMessage EventType = "new_message"
	EventError      EventType = "error"
)

// Event is the payload delivered over a realtime connection. Exactly one of
// the payload fields is set, according to Type.
type Event struct {
	Type    EventType       `json:"type"`
	Match   *models.Match   `json:"match,omitempty"`
	Message *models.Message `json:"message,omitempty"`
	MatchID string          `json:"match_id,omitempty"`
	Error   string          `json:"error,omitempty"`
}

// NewMatchEvent builds a new_match event
func NewMatchEvent(match *models.Match) Event {
	return Event{Type: EventNewMatch, Match: match}
}

// NewMessageEvent builds a new_message event for a match room
func NewMessageEvent(matchID string, msg *models.Message) Event {
	return Event{Type: EventNewMessage, MatchID: matchID, Message: msg}
}

// NewErrorEvent builds an error event
func NewErrorEvent(reason string) Event {
	return Event{Type: EventError, Error: reason}
}
