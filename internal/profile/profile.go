// Package profile keeps each player's username, highscore and games played.
package profile

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"hash/fnv"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/pokestack/backend/internal/models"
)

var (
	// ErrNotFound means the player has no usable profile yet and must onboard.
	ErrNotFound        = errors.New("profile not found")
	ErrInvalidUsername = errors.New("invalid username")
)

const (
	KeyPrefix      = "pokestack-profile"
	MinUsernameLen = 2
	MaxUsernameLen = 24
)

// Key is the storage key of a player's profile.
func Key(playerID string) string {
	return KeyPrefix + ":" + playerID
}

// Store loads and saves whole profiles.
type Store interface {
	Get(ctx context.Context, playerID string) (models.Profile, error)
	Put(ctx context.Context, p models.Profile) error
}

// GameResult is the outcome of recording a finished round.
type GameResult struct {
	Profile   models.Profile `json:"profile"`
	Score     int            `json:"score"`
	NewRecord bool           `json:"new_record"`
}

// Service applies the profile rules on top of a Store. Updates to one player
// are serialized within the process.
type Service struct {
	store Store
	now   func() time.Time
	locks [32]sync.Mutex
}

func NewService(store Store) *Service {
	return &Service{store: store, now: time.Now}
}

func (s *Service) lock(playerID string) func() {
	h := fnv.New32a()
	h.Write([]byte(playerID))
	mu := &s.locks[h.Sum32()%uint32(len(s.locks))]
	mu.Lock()
	return mu.Unlock
}

// ValidateUsername trims name and checks its length in characters.
func ValidateUsername(name string) (string, error) {
	name = strings.TrimSpace(name)
	n := utf8.RuneCountInString(name)
	if n < MinUsernameLen {
		return "", fmt.Errorf("%w: at least %d characters", ErrInvalidUsername, MinUsernameLen)
	}
	if n > MaxUsernameLen {
		return "", fmt.Errorf("%w: at most %d characters", ErrInvalidUsername, MaxUsernameLen)
	}
	return name, nil
}

func newPlayerID() (string, error) {
	b := make([]byte, 12)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("player id: %w", err)
	}
	return "player_" + hex.EncodeToString(b), nil
}

// Create onboards a new player.
func (s *Service) Create(ctx context.Context, username string) (models.Profile, error) {
	name, err := ValidateUsername(username)
	if err != nil {
		return models.Profile{}, err
	}
	id, err := newPlayerID()
	if err != nil {
		return models.Profile{}, err
	}
	now := s.now()
	p := models.Profile{
		PlayerID:  id,
		Username:  name,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.store.Put(ctx, p); err != nil {
		return models.Profile{}, fmt.Errorf("save profile: %w", err)
	}
	return p, nil
}

// Load returns the player's profile or ErrNotFound.
func (s *Service) Load(ctx context.Context, playerID string) (models.Profile, error) {
	return s.store.Get(ctx, playerID)
}

// SetUsername renames an existing player.
func (s *Service) SetUsername(ctx context.Context, playerID, username string) (models.Profile, error) {
	name, err := ValidateUsername(username)
	if err != nil {
		return models.Profile{}, err
	}
	defer s.lock(playerID)()
	p, err := s.store.Get(ctx, playerID)
	if err != nil {
		return models.Profile{}, err
	}
	p.Username = name
	p.UpdatedAt = s.now()
	if err := s.store.Put(ctx, p); err != nil {
		return models.Profile{}, fmt.Errorf("save profile: %w", err)
	}
	return p, nil
}

// RecordGame counts a finished round and raises the highscore when beaten.
func (s *Service) RecordGame(ctx context.Context, playerID string, score int) (GameResult, error) {
	defer s.lock(playerID)()
	p, err := s.store.Get(ctx, playerID)
	if err != nil {
		return GameResult{}, err
	}
	p.GamesPlayed++
	res := GameResult{Score: score}
	if score > p.Highscore {
		p.Highscore = score
		res.NewRecord = true
	}
	p.UpdatedAt = s.now()
	if err := s.store.Put(ctx, p); err != nil {
		return GameResult{}, fmt.Errorf("save profile: %w", err)
	}
	res.Profile = p
	return res, nil
}
