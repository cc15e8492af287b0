package chat

import (
	"context"
	"encoding/json"
	"time"
)

// Sender identifies who produced a turn.
type Sender string

const (
	SenderUser      Sender = "user"
	SenderAssistant Sender = "assistant"
)

// Turn is one message of a conversation. Payload carries the structured plan
// or recommendation attached to assistant turns.
type Turn struct {
	ID        string          `json:"id"`
	Sender    Sender          `json:"sender"`
	Text      string          `json:"text"`
	Payload   json.RawMessage `json:"payload,omitempty"`
	CreatedAt time.Time       `json:"created_at"`
}

// Session is an ordered conversation thread owned by one user. Turns are
// oldest first and only ever appended.
type Session struct {
	UserID    string    `json:"user_id"`
	SessionID string    `json:"session_id"`
	Turns     []Turn    `json:"turns"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// SessionSummary is a listing row for a user's sessions.
type SessionSummary struct {
	SessionID    string    `json:"session_id"`
	LastActivity time.Time `json:"last_activity"`
}

// ConversationStore is the persistence boundary for chat history. All methods
// surface backend errors wrapped with ErrStorage; retry policy, if any,
// belongs to the backend.
type ConversationStore interface {
	// GetOrCreateSession is idempotent; a missing (userID, sessionID) pair is
	// created with an empty turn sequence and current timestamps.
	GetOrCreateSession(ctx context.Context, userID, sessionID string) (Session, error)

	// AppendTurn stores one turn with a server-assigned ID and timestamp and
	// bumps the session's updated_at.
	AppendTurn(ctx context.Context, userID, sessionID string, turn Turn) (Turn, error)

	// ListSessions returns up to limit summaries sorted by last activity
	// descending.
	ListSessions(ctx context.Context, userID string, limit int) ([]SessionSummary, error)

	// GetSession returns the full transcript, or nil when absent.
	GetSession(ctx context.Context, userID, sessionID string) (*Session, error)

	// DeleteSession removes a session and reports whether it existed.
	DeleteSession(ctx context.Context, userID, sessionID string) (bool, error)

	// PurgeOlderThan deletes sessions whose updated_at predates the cutoff
	// and returns the number removed. Administrative; never on the request
	// path.
	PurgeOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}
