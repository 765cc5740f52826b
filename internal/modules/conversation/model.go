// README: Conversation session and turn records.
package conversation

import (
	"time"

	"atlas/internal/trip"
)

// Session pairs a session ID with its dialogue state.
type Session struct {
	ID    string      `json:"id"`
	State *trip.State `json:"state"`
}

// Role of a recorded turn.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Turn is one logged message of a session.
type Turn struct {
	ID        int64     `json:"id"`
	SessionID string    `json:"session_id"`
	Role      string    `json:"role"`
	Message   string    `json:"message"`
	CreatedAt time.Time `json:"created_at"`
}
