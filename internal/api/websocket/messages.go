package websocket

import (
	"encoding/json"
	"time"
)

// Message types exchanged with clients.
const (
	MessageTypeGameProcessed = "game_processed"
	MessageTypeSubscribe     = "subscribe"
	MessageTypeUnsubscribe   = "unsubscribe"
	MessageTypeHeartbeat     = "heartbeat"
	MessageTypeError         = "error"
)

// ServerMessage is written to clients.
type ServerMessage struct {
	Type      string      `json:"type"`
	Payload   interface{} `json:"payload"`
	Timestamp time.Time   `json:"timestamp"`
}

// ClientMessage is read from clients.
type ClientMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// SubscriptionFilter limits broadcasts to games involving the named teams or
// carrying the listed ids. An empty filter receives everything.
type SubscriptionFilter struct {
	Teams   []string `json:"teams,omitempty"`
	GameIDs []string `json:"game_ids,omitempty"`
}

// GameUpdate is the part of a processed-game record the hub routes on. Raw is
// forwarded to clients unchanged.
type GameUpdate struct {
	GameID string
	Teams  []string
	Raw    json.RawMessage
}

// Matches reports whether an update passes the filter.
func (f SubscriptionFilter) Matches(u GameUpdate) bool {
	if len(f.Teams) == 0 && len(f.GameIDs) == 0 {
		return true
	}
	if len(f.GameIDs) > 0 && contains(f.GameIDs, u.GameID) {
		return true
	}
	for _, team := range u.Teams {
		if contains(f.Teams, team) {
			return true
		}
	}
	return false
}

type errorPayload struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func contains(slice []string, item string) bool {
	for _, s := range slice {
		if s == item {
			return true
		}
	}
	return false
}
