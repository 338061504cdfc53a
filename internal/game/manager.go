package game

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

// ErrTooManySessions is returned when the manager is at capacity.
var ErrTooManySessions = errors.New("too many active sessions")

// GameOver summarises a round that ended in LOSE.
type GameOver struct {
	SessionID string
	PlayerID  string
	Round     uint64
	Score     int
	Counts    []int
	Reason    LossReason
	At        time.Time
}

// ManagerConfig configures a Manager.
type ManagerConfig struct {
	Settings       Settings
	TickRate       time.Duration
	IdleTimeout    time.Duration // sessions without input for this long are reaped
	ExpiryInterval time.Duration
	MaxSessions    int // 0 means unlimited
	NewEngine      func() PhysicsEngine
	Snapshots      SnapshotStore
	// OnGameOver runs on the session goroutine and must not block.
	OnGameOver func(GameOver)
}

// Manager owns every live session runner.
type Manager struct {
	cfg          ManagerConfig
	runners      map[string]*Runner // keyed by session ID
	playerToGame map[string]string  // player ID -> session ID
	baseCtx      context.Context
	cancel       context.CancelFunc
	mu           sync.RWMutex
}

// NewManager creates a manager. cfg.NewEngine is required.
func NewManager(cfg ManagerConfig) *Manager {
	if cfg.IdleTimeout <= 0 {
		cfg.IdleTimeout = 15 * time.Minute
	}
	if cfg.ExpiryInterval <= 0 {
		cfg.ExpiryInterval = 30 * time.Second
	}
	if cfg.Snapshots == nil {
		cfg.Snapshots = NewMemorySnapshots()
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Manager{
		cfg:          cfg,
		runners:      make(map[string]*Runner),
		playerToGame: make(map[string]string),
		baseCtx:      ctx,
		cancel:       cancel,
	}
}

// generateSessionID returns "session_" followed by 16 random hex digits.
func generateSessionID() (string, error) {
	b := make([]byte, 8)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("session id: %w", err)
	}
	return "session_" + hex.EncodeToString(b), nil
}

// Open returns the player's live session, creating and starting one if needed.
func (gm *Manager) Open(playerID string) (*Runner, error) {
	gm.mu.Lock()
	defer gm.mu.Unlock()

	if id, ok := gm.playerToGame[playerID]; ok {
		if r, ok := gm.runners[id]; ok {
			return r, nil
		}
	}
	if gm.cfg.MaxSessions > 0 && len(gm.runners) >= gm.cfg.MaxSessions {
		return nil, ErrTooManySessions
	}

	id, err := generateSessionID()
	if err != nil {
		return nil, err
	}
	r := NewRunner(id, playerID, gm.cfg.Settings, gm.cfg.NewEngine(), gm.cfg.TickRate, gm.onEvent)
	gm.runners[id] = r
	gm.playerToGame[playerID] = id
	r.Start(gm.baseCtx)

	log.Info().Str("component", "session").Str("session", id).Str("player", playerID).Msg("session opened")
	return r, nil
}

// Get returns a live runner by session ID.
func (gm *Manager) Get(sessionID string) (*Runner, error) {
	gm.mu.RLock()
	defer gm.mu.RUnlock()
	r, ok := gm.runners[sessionID]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return r, nil
}

// ForPlayer returns the player's live runner.
func (gm *Manager) ForPlayer(playerID string) (*Runner, error) {
	gm.mu.RLock()
	defer gm.mu.RUnlock()
	id, ok := gm.playerToGame[playerID]
	if !ok {
		return nil, ErrSessionNotFound
	}
	r, ok := gm.runners[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return r, nil
}

// Snapshot returns a live snapshot, falling back to the persisted one.
func (gm *Manager) Snapshot(ctx context.Context, sessionID string) (StoredSnapshot, error) {
	if r, err := gm.Get(sessionID); err == nil {
		snap, err := r.Snapshot(ctx)
		if err == nil {
			return StoredSnapshot{SessionID: r.ID, PlayerID: r.PlayerID, Live: true, SavedAt: time.Now(), Snapshot: snap}, nil
		}
		if !errors.Is(err, ErrRunnerStopped) {
			return StoredSnapshot{}, err
		}
	}
	return gm.cfg.Snapshots.Load(ctx, sessionID)
}

// Close stops the session and persists its final snapshot.
func (gm *Manager) Close(ctx context.Context, sessionID string) error {
	gm.mu.Lock()
	r, ok := gm.runners[sessionID]
	if ok {
		delete(gm.runners, sessionID)
		if gm.playerToGame[r.PlayerID] == sessionID {
			delete(gm.playerToGame, r.PlayerID)
		}
	}
	gm.mu.Unlock()
	if !ok {
		return ErrSessionNotFound
	}

	r.Stop()
	// The loop has exited; the session is no longer shared.
	snap := StoredSnapshot{SessionID: r.ID, PlayerID: r.PlayerID, SavedAt: time.Now(), Snapshot: r.session.Snapshot()}
	if err := gm.cfg.Snapshots.Save(ctx, snap); err != nil {
		log.Warn().Err(err).Str("component", "session").Str("session", sessionID).Msg("save snapshot")
		return err
	}
	log.Info().Str("component", "session").Str("session", sessionID).Msg("session closed")
	return nil
}

// ActiveCount returns the number of live sessions.
func (gm *Manager) ActiveCount() int {
	gm.mu.RLock()
	defer gm.mu.RUnlock()
	return len(gm.runners)
}

// StartExpiryChecker reaps idle sessions in the background until ctx is done.
func (gm *Manager) StartExpiryChecker(ctx context.Context) {
	go func() {
		ticker := time.NewTicker(gm.cfg.ExpiryInterval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case now := <-ticker.C:
				gm.checkIdleSessions(ctx, now)
			}
		}
	}()
}

// checkIdleSessions closes sessions without input for longer than IdleTimeout.
func (gm *Manager) checkIdleSessions(ctx context.Context, now time.Time) int {
	gm.mu.RLock()
	var idle []string
	for id, r := range gm.runners {
		if now.Sub(r.LastActivity()) > gm.cfg.IdleTimeout {
			idle = append(idle, id)
		}
	}
	gm.mu.RUnlock()

	for _, id := range idle {
		log.Info().Str("component", "expiry").Str("session", id).Msg("session idle; closing")
		if err := gm.Close(ctx, id); err != nil && !errors.Is(err, ErrSessionNotFound) {
			log.Warn().Err(err).Str("component", "expiry").Str("session", id).Msg("close idle session")
		}
	}
	return len(idle)
}

// Shutdown closes every session.
func (gm *Manager) Shutdown(ctx context.Context) {
	gm.mu.RLock()
	ids := make([]string, 0, len(gm.runners))
	for id := range gm.runners {
		ids = append(ids, id)
	}
	gm.mu.RUnlock()

	for _, id := range ids {
		_ = gm.Close(ctx, id)
	}
	gm.cancel()
}

func (gm *Manager) onEvent(r *Runner, e Event, s *Session) {
	if e.Kind != EventLost {
		return
	}
	over := GameOver{
		SessionID: r.ID,
		PlayerID:  r.PlayerID,
		Round:     e.Round,
		Score:     e.Score,
		Counts:    e.Counts,
		Reason:    e.Reason,
		At:        time.Now(),
	}
	log.Info().Str("component", "session").Str("session", r.ID).Int("score", e.Score).Str("reason", string(e.Reason)).Msg("round lost")

	snap := StoredSnapshot{SessionID: r.ID, PlayerID: r.PlayerID, SavedAt: over.At, Snapshot: s.Snapshot()}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := gm.cfg.Snapshots.Save(ctx, snap); err != nil {
			log.Warn().Err(err).Str("component", "session").Str("session", snap.SessionID).Msg("save snapshot")
		}
	}()

	if gm.cfg.OnGameOver != nil {
		gm.cfg.OnGameOver(over)
	}
}
