package redisstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/mohammad-safakhou/wayfarer/internal/chat"
)

// Store implements chat.ConversationStore on Redis. Turns live in a list per
// session, session metadata in a JSON value, and two sorted sets track last
// activity: one per user for recency-ordered listing and one global for the
// retention sweep.
type Store struct {
	rdb *redis.Client
}

// Conn connects to Redis and verifies the connection with a ping.
func Conn(ctx context.Context, host, port, pass string, db int, timeout time.Duration) (*Store, error) {
	client := redis.NewClient(&redis.Options{
		Addr:        fmt.Sprintf("%s:%s", host, port),
		DialTimeout: timeout,
		Password:    pass,
		DB:          db,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return &Store{rdb: client}, nil
}

// New wraps an existing client, mainly for tests.
func New(client *redis.Client) *Store { return &Store{rdb: client} }

type sessionMeta struct {
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func metaKey(userID, sessionID string) string  { return "chat:meta:" + userID + ":" + sessionID }
func turnsKey(userID, sessionID string) string { return "chat:turns:" + userID + ":" + sessionID }
func userIndexKey(userID string) string        { return "chat:index:" + userID }

const globalIndexKey = "chat:sessions"

func storageErr(op string, err error) error {
	return fmt.Errorf("%w: %s: %v", chat.ErrStorage, op, err)
}

func (s *Store) GetOrCreateSession(ctx context.Context, userID, sessionID string) (chat.Session, error) {
	sess, err := s.GetSession(ctx, userID, sessionID)
	if err != nil {
		return chat.Session{}, err
	}
	if sess != nil {
		return *sess, nil
	}

	now := time.Now().UTC()
	meta, _ := json.Marshal(sessionMeta{CreatedAt: now, UpdatedAt: now})
	pipe := s.rdb.TxPipeline()
	// NX keeps a concurrent creator's metadata intact.
	pipe.SetNX(ctx, metaKey(userID, sessionID), meta, 0)
	pipe.ZAdd(ctx, userIndexKey(userID), redis.Z{Score: float64(now.UnixNano()), Member: sessionID})
	pipe.ZAdd(ctx, globalIndexKey, redis.Z{Score: float64(now.UnixNano()), Member: userID + "|" + sessionID})
	if _, err := pipe.Exec(ctx); err != nil {
		return chat.Session{}, storageErr("create session", err)
	}
	return chat.Session{UserID: userID, SessionID: sessionID, CreatedAt: now, UpdatedAt: now}, nil
}

func (s *Store) AppendTurn(ctx context.Context, userID, sessionID string, turn chat.Turn) (chat.Turn, error) {
	now := time.Now().UTC()
	turn.ID = uuid.NewString()
	turn.CreatedAt = now
	enc, err := json.Marshal(turn)
	if err != nil {
		return chat.Turn{}, storageErr("append turn", err)
	}

	metaRaw, err := s.rdb.Get(ctx, metaKey(userID, sessionID)).Bytes()
	if err != nil && !errors.Is(err, redis.Nil) {
		return chat.Turn{}, storageErr("append turn", err)
	}
	var meta sessionMeta
	if len(metaRaw) > 0 {
		_ = json.Unmarshal(metaRaw, &meta)
	}
	if meta.CreatedAt.IsZero() {
		meta.CreatedAt = now
	}
	meta.UpdatedAt = now
	newMeta, _ := json.Marshal(meta)

	pipe := s.rdb.TxPipeline()
	pipe.RPush(ctx, turnsKey(userID, sessionID), enc)
	pipe.Set(ctx, metaKey(userID, sessionID), newMeta, 0)
	pipe.ZAdd(ctx, userIndexKey(userID), redis.Z{Score: float64(now.UnixNano()), Member: sessionID})
	pipe.ZAdd(ctx, globalIndexKey, redis.Z{Score: float64(now.UnixNano()), Member: userID + "|" + sessionID})
	if _, err := pipe.Exec(ctx); err != nil {
		return chat.Turn{}, storageErr("append turn", err)
	}
	return turn, nil
}

func (s *Store) ListSessions(ctx context.Context, userID string, limit int) ([]chat.SessionSummary, error) {
	if limit <= 0 {
		limit = 50
	}
	zs, err := s.rdb.ZRevRangeWithScores(ctx, userIndexKey(userID), 0, int64(limit-1)).Result()
	if err != nil {
		return nil, storageErr("list sessions", err)
	}
	out := make([]chat.SessionSummary, 0, len(zs))
	for _, z := range zs {
		id, _ := z.Member.(string)
		out = append(out, chat.SessionSummary{
			SessionID:    id,
			LastActivity: time.Unix(0, int64(z.Score)).UTC(),
		})
	}
	return out, nil
}

func (s *Store) GetSession(ctx context.Context, userID, sessionID string) (*chat.Session, error) {
	metaRaw, err := s.rdb.Get(ctx, metaKey(userID, sessionID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, storageErr("get session", err)
	}
	var meta sessionMeta
	if err := json.Unmarshal(metaRaw, &meta); err != nil {
		return nil, storageErr("get session", err)
	}

	items, err := s.rdb.LRange(ctx, turnsKey(userID, sessionID), 0, -1).Result()
	if err != nil {
		return nil, storageErr("get session", err)
	}
	sess := &chat.Session{UserID: userID, SessionID: sessionID, CreatedAt: meta.CreatedAt, UpdatedAt: meta.UpdatedAt}
	for _, raw := range items {
		var t chat.Turn
		if err := json.Unmarshal([]byte(raw), &t); err != nil {
			return nil, storageErr("get session", err)
		}
		sess.Turns = append(sess.Turns, t)
	}
	return sess, nil
}

func (s *Store) DeleteSession(ctx context.Context, userID, sessionID string) (bool, error) {
	deleted, err := s.rdb.Del(ctx, metaKey(userID, sessionID), turnsKey(userID, sessionID)).Result()
	if err != nil {
		return false, storageErr("delete session", err)
	}
	pipe := s.rdb.TxPipeline()
	pipe.ZRem(ctx, userIndexKey(userID), sessionID)
	pipe.ZRem(ctx, globalIndexKey, userID+"|"+sessionID)
	if _, err := pipe.Exec(ctx); err != nil {
		return false, storageErr("delete session", err)
	}
	return deleted > 0, nil
}

func (s *Store) PurgeOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	max := fmt.Sprintf("%d", cutoff.UnixNano())
	members, err := s.rdb.ZRangeByScore(ctx, globalIndexKey, &redis.ZRangeBy{Min: "-inf", Max: max}).Result()
	if err != nil {
		return 0, storageErr("purge sessions", err)
	}
	var count int64
	for _, member := range members {
		parts := strings.SplitN(member, "|", 2)
		if len(parts) != 2 {
			continue
		}
		ok, err := s.DeleteSession(ctx, parts[0], parts[1])
		if err != nil {
			return count, err
		}
		if ok {
			count++
		}
	}
	return count, nil
}
