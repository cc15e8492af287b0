package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "github.com/lib/pq"

	"github.com/mohammad-safakhou/wayfarer/internal/chat"
)

// Store implements chat.ConversationStore on Postgres. Sessions are keyed by
// (user_id, session_id); turns are append-only and cascade on session delete.
type Store struct {
	DB *sql.DB
}

// NewWithDSN constructs the Store using an explicit Postgres DSN
func NewWithDSN(ctx context.Context, dsn string) (*Store, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, err
	}
	if err := db.PingContext(ctx); err != nil {
		return nil, err
	}
	return &Store{DB: db}, nil
}

func storageErr(op string, err error) error {
	return fmt.Errorf("%w: %s: %v", chat.ErrStorage, op, err)
}

func (s *Store) GetOrCreateSession(ctx context.Context, userID, sessionID string) (chat.Session, error) {
	_, err := s.DB.ExecContext(ctx,
		`INSERT INTO chat_sessions (user_id, session_id) VALUES ($1,$2) ON CONFLICT (user_id, session_id) DO NOTHING`,
		userID, sessionID)
	if err != nil {
		return chat.Session{}, storageErr("create session", err)
	}
	sess, err := s.GetSession(ctx, userID, sessionID)
	if err != nil {
		return chat.Session{}, err
	}
	if sess == nil {
		return chat.Session{}, storageErr("create session", errors.New("session missing after insert"))
	}
	return *sess, nil
}

func (s *Store) AppendTurn(ctx context.Context, userID, sessionID string, turn chat.Turn) (chat.Turn, error) {
	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return chat.Turn{}, storageErr("append turn", err)
	}
	defer tx.Rollback()

	turn.ID = uuid.NewString()
	var payload interface{}
	if len(turn.Payload) > 0 {
		payload = []byte(turn.Payload)
	}
	err = tx.QueryRowContext(ctx,
		`INSERT INTO chat_turns (id, user_id, session_id, sender, content, payload) VALUES ($1,$2,$3,$4,$5,$6) RETURNING created_at`,
		turn.ID, userID, sessionID, string(turn.Sender), turn.Text, payload).Scan(&turn.CreatedAt)
	if err != nil {
		return chat.Turn{}, storageErr("append turn", err)
	}
	if _, err := tx.ExecContext(ctx,
		`UPDATE chat_sessions SET updated_at = now() WHERE user_id=$1 AND session_id=$2`,
		userID, sessionID); err != nil {
		return chat.Turn{}, storageErr("append turn", err)
	}
	if err := tx.Commit(); err != nil {
		return chat.Turn{}, storageErr("append turn", err)
	}
	return turn, nil
}

func (s *Store) ListSessions(ctx context.Context, userID string, limit int) ([]chat.SessionSummary, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.DB.QueryContext(ctx,
		`SELECT session_id, updated_at FROM chat_sessions WHERE user_id=$1 ORDER BY updated_at DESC LIMIT $2`,
		userID, limit)
	if err != nil {
		return nil, storageErr("list sessions", err)
	}
	defer rows.Close()
	var out []chat.SessionSummary
	for rows.Next() {
		var sm chat.SessionSummary
		if err := rows.Scan(&sm.SessionID, &sm.LastActivity); err != nil {
			return nil, storageErr("list sessions", err)
		}
		out = append(out, sm)
	}
	if err := rows.Err(); err != nil {
		return nil, storageErr("list sessions", err)
	}
	return out, nil
}

func (s *Store) GetSession(ctx context.Context, userID, sessionID string) (*chat.Session, error) {
	sess := chat.Session{UserID: userID, SessionID: sessionID}
	err := s.DB.QueryRowContext(ctx,
		`SELECT created_at, updated_at FROM chat_sessions WHERE user_id=$1 AND session_id=$2`,
		userID, sessionID).Scan(&sess.CreatedAt, &sess.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, storageErr("get session", err)
	}

	rows, err := s.DB.QueryContext(ctx,
		`SELECT id, sender, content, payload, created_at FROM chat_turns WHERE user_id=$1 AND session_id=$2 ORDER BY created_at, id`,
		userID, sessionID)
	if err != nil {
		return nil, storageErr("get session", err)
	}
	defer rows.Close()
	for rows.Next() {
		var t chat.Turn
		var sender string
		var payload []byte
		if err := rows.Scan(&t.ID, &sender, &t.Text, &payload, &t.CreatedAt); err != nil {
			return nil, storageErr("get session", err)
		}
		t.Sender = chat.Sender(sender)
		if len(payload) > 0 {
			t.Payload = payload
		}
		sess.Turns = append(sess.Turns, t)
	}
	if err := rows.Err(); err != nil {
		return nil, storageErr("get session", err)
	}
	return &sess, nil
}

func (s *Store) DeleteSession(ctx context.Context, userID, sessionID string) (bool, error) {
	res, err := s.DB.ExecContext(ctx,
		`DELETE FROM chat_sessions WHERE user_id=$1 AND session_id=$2`, userID, sessionID)
	if err != nil {
		return false, storageErr("delete session", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, storageErr("delete session", err)
	}
	return n > 0, nil
}

func (s *Store) PurgeOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := s.DB.ExecContext(ctx, `DELETE FROM chat_sessions WHERE updated_at < $1`, cutoff)
	if err != nil {
		return 0, storageErr("purge sessions", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, storageErr("purge sessions", err)
	}
	return n, nil
}
