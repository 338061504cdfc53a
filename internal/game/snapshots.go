package game

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// ErrSessionNotFound is returned for unknown or expired session ids.
var ErrSessionNotFound = errors.New("session not found")

// StoredSnapshot is a session snapshot persisted after the runner is gone.
type StoredSnapshot struct {
	SessionID string    `json:"session_id"`
	PlayerID  string    `json:"player_id"`
	Live      bool      `json:"live"`
	SavedAt   time.Time `json:"saved_at"`
	Snapshot
}

// SnapshotStore keeps snapshots of finished or reaped sessions.
type SnapshotStore interface {
	Save(ctx context.Context, snap StoredSnapshot) error
	Load(ctx context.Context, sessionID string) (StoredSnapshot, error)
}

// RedisSnapshots stores snapshots as JSON strings with an expiry.
type RedisSnapshots struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewRedisSnapshots(rdb *redis.Client, ttl time.Duration) *RedisSnapshots {
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &RedisSnapshots{rdb: rdb, ttl: ttl}
}

func snapshotKey(sessionID string) string {
	return "session:" + sessionID + ":snapshot"
}

func (s *RedisSnapshots) Save(ctx context.Context, snap StoredSnapshot) error {
	data, err := json.Marshal(snap)
	if err != nil {
		return err
	}
	return s.rdb.SetEx(ctx, snapshotKey(snap.SessionID), data, s.ttl).Err()
}

func (s *RedisSnapshots) Load(ctx context.Context, sessionID string) (StoredSnapshot, error) {
	data, err := s.rdb.Get(ctx, snapshotKey(sessionID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return StoredSnapshot{}, ErrSessionNotFound
	}
	if err != nil {
		return StoredSnapshot{}, err
	}
	var snap StoredSnapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return StoredSnapshot{}, err
	}
	return snap, nil
}

// MemorySnapshots is a process-local SnapshotStore without expiry.
type MemorySnapshots struct {
	mu    sync.RWMutex
	snaps map[string]StoredSnapshot
}

func NewMemorySnapshots() *MemorySnapshots {
	return &MemorySnapshots{snaps: make(map[string]StoredSnapshot)}
}

func (s *MemorySnapshots) Save(_ context.Context, snap StoredSnapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snaps[snap.SessionID] = snap
	return nil
}

func (s *MemorySnapshots) Load(_ context.Context, sessionID string) (StoredSnapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	snap, ok := s.snaps[sessionID]
	if !ok {
		return StoredSnapshot{}, ErrSessionNotFound
	}
	return snap, nil
}
