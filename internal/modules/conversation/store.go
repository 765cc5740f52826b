// README: Session state in Redis (or memory) with turn history in Postgres.
package conversation

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"atlas/internal/trip"
)

// ErrSessionNotFound is returned when no state exists for a session ID.
var ErrSessionNotFound = errors.New("session not found")

// Sessions are kept alive for a day of inactivity before expiring.
const sessionTTL = 24 * time.Hour

// StateBackend holds serialized dialogue state keyed by session ID.
type StateBackend interface {
	Get(ctx context.Context, sessionID string) ([]byte, error)
	Set(ctx context.Context, sessionID string, data []byte) error
	Delete(ctx context.Context, sessionID string) error
}

// RedisBackend stores session state in Redis with a sliding TTL.
type RedisBackend struct {
	client *redis.Client
}

func NewRedisBackend(client *redis.Client) *RedisBackend {
	return &RedisBackend{client: client}
}

func sessionKey(id string) string {
	return "session:" + id
}

func (b *RedisBackend) Get(ctx context.Context, sessionID string) ([]byte, error) {
	data, err := b.client.Get(ctx, sessionKey(sessionID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrSessionNotFound
	}
	if err != nil {
		return nil, err
	}
	return data, nil
}

func (b *RedisBackend) Set(ctx context.Context, sessionID string, data []byte) error {
	return b.client.Set(ctx, sessionKey(sessionID), data, sessionTTL).Err()
}

func (b *RedisBackend) Delete(ctx context.Context, sessionID string) error {
	return b.client.Del(ctx, sessionKey(sessionID)).Err()
}

// MemoryBackend keeps session state in process memory. Used by the CLI and
// in tests; state is lost on restart.
type MemoryBackend struct {
	mu       sync.RWMutex
	sessions map[string][]byte
}

func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{sessions: make(map[string][]byte)}
}

func (b *MemoryBackend) Get(_ context.Context, sessionID string) ([]byte, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	data, ok := b.sessions[sessionID]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return data, nil
}

func (b *MemoryBackend) Set(_ context.Context, sessionID string, data []byte) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.sessions[sessionID] = data
	return nil
}

func (b *MemoryBackend) Delete(_ context.Context, sessionID string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.sessions, sessionID)
	return nil
}

// Store combines the state backend with an optional Postgres turn log.
// A nil pool disables history without failing the conversation flow.
type Store struct {
	backend StateBackend
	db      *pgxpool.Pool
}

func NewStore(backend StateBackend, db *pgxpool.Pool) *Store {
	return &Store{backend: backend, db: db}
}

func (s *Store) LoadState(ctx context.Context, sessionID string) (*trip.State, error) {
	data, err := s.backend.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	var state trip.State
	if err := json.Unmarshal(data, &state); err != nil {
		return nil, err
	}
	return &state, nil
}

func (s *Store) SaveState(ctx context.Context, sessionID string, state *trip.State) error {
	data, err := json.Marshal(state)
	if err != nil {
		return err
	}
	return s.backend.Set(ctx, sessionID, data)
}

func (s *Store) DeleteState(ctx context.Context, sessionID string) error {
	return s.backend.Delete(ctx, sessionID)
}

func (s *Store) AppendTurn(ctx context.Context, t Turn) error {
	if s.db == nil {
		return nil
	}
	_, err := s.db.Exec(ctx,
		`INSERT INTO conversation_turns (session_id, role, message, created_at)
		 VALUES ($1, $2, $3, $4)`,
		t.SessionID, t.Role, t.Message, t.CreatedAt)
	return err
}

func (s *Store) ListTurns(ctx context.Context, sessionID string, limit int) ([]Turn, error) {
	if s.db == nil {
		return nil, nil
	}
	rows, err := s.db.Query(ctx,
		`SELECT id, session_id, role, message, created_at
		 FROM conversation_turns
		 WHERE session_id = $1
		 ORDER BY created_at ASC
		 LIMIT $2`,
		sessionID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var turns []Turn
	for rows.Next() {
		var t Turn
		if err := rows.Scan(&t.ID, &t.SessionID, &t.Role, &t.Message, &t.CreatedAt); err != nil {
			return nil, err
		}
		turns = append(turns, t)
	}
	return turns, rows.Err()
}
