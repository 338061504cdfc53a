// Package leaderboard keeps the global top scores.
//
// Reads and writes go through a Service with a bounded timeout. A failing
// store surfaces as ErrUnavailable and never blocks a running game.
package leaderboard

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/pokestack/backend/internal/models"
)

var (
	ErrUnavailable   = errors.New("leaderboard unavailable")
	ErrEntryNotFound = errors.New("leaderboard entry not found")
)

// EventsChannel is the pub/sub channel carrying leaderboard updates.
const EventsChannel = "leaderboard_events"

// Store persists entries. Top returns entries ordered by score descending,
// earlier entries first among equal scores.
type Store interface {
	Submit(ctx context.Context, e models.LeaderboardEntry) (models.LeaderboardEntry, error)
	Top(ctx context.Context, limit int) ([]models.LeaderboardEntry, error)
	Remove(ctx context.Context, id int64) error
}

// Publisher fans a payload out to other server instances.
type Publisher interface {
	Publish(ctx context.Context, channel string, payload []byte) error
}

// Update is the payload sent on EventsChannel.
type Update struct {
	Type      string                   `json:"type"`
	Entry     *models.LeaderboardEntry `json:"entry,omitempty"`
	RemovedID int64                    `json:"removed_id,omitempty"`
}

const (
	UpdateSubmitted = "leaderboard_updated"
	UpdateRemoved   = "leaderboard_entry_removed"
)

type Options struct {
	Limit    int
	FetchMax int
	Timeout  time.Duration
}

type Service struct {
	store     Store
	publisher Publisher
	opts      Options
	now       func() time.Time
	wg        sync.WaitGroup
}

// NewService wraps store. publisher may be nil.
func NewService(store Store, publisher Publisher, opts Options) *Service {
	if opts.Limit <= 0 {
		opts.Limit = 10
	}
	if opts.FetchMax <= 0 {
		opts.FetchMax = 100
	}
	if opts.FetchMax < opts.Limit {
		opts.FetchMax = opts.Limit
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 3 * time.Second
	}
	return &Service{store: store, publisher: publisher, opts: opts, now: time.Now}
}

// Limit is the default number of entries shown.
func (s *Service) Limit() int {
	return s.opts.Limit
}

func (s *Service) clamp(limit int) int {
	if limit <= 0 {
		return s.opts.Limit
	}
	if limit > s.opts.FetchMax {
		return s.opts.FetchMax
	}
	return limit
}

// Top returns up to limit entries. limit <= 0 means the default.
func (s *Service) Top(ctx context.Context, limit int) ([]models.LeaderboardEntry, error) {
	ctx, cancel := context.WithTimeout(ctx, s.opts.Timeout)
	defer cancel()

	entries, err := s.store.Top(ctx, s.clamp(limit))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return entries, nil
}

// Submit stores a score and announces it.
func (s *Service) Submit(ctx context.Context, playerID, username string, score int) (models.LeaderboardEntry, error) {
	ctx, cancel := context.WithTimeout(ctx, s.opts.Timeout)
	defer cancel()

	saved, err := s.store.Submit(ctx, models.LeaderboardEntry{
		PlayerID:  playerID,
		Username:  username,
		Score:     score,
		CreatedAt: s.now(),
	})
	if err != nil {
		return models.LeaderboardEntry{}, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	s.publish(ctx, Update{Type: UpdateSubmitted, Entry: &saved})
	return saved, nil
}

// SubmitAsync submits in the background. Failures are logged only.
func (s *Service) SubmitAsync(playerID, username string, score int) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		if _, err := s.Submit(context.Background(), playerID, username, score); err != nil {
			log.Warn().Err(err).Str("component", "leaderboard").
				Str("player_id", playerID).Int("score", score).
				Msg("score submission failed")
		}
	}()
}

// Wait blocks until pending async submissions finish.
func (s *Service) Wait() {
	s.wg.Wait()
}

// Rank is the 1-based position of the first entry matching username and
// score within the default top list, or 0 when it is not listed.
func (s *Service) Rank(ctx context.Context, username string, score int) (int, error) {
	entries, err := s.Top(ctx, s.opts.Limit)
	if err != nil {
		return 0, err
	}
	for i, e := range entries {
		if e.Username == username && e.Score == score {
			return i + 1, nil
		}
	}
	return 0, nil
}

// IsTopScore reports whether score would enter the default top list.
func (s *Service) IsTopScore(ctx context.Context, score int) (bool, error) {
	entries, err := s.Top(ctx, s.opts.Limit)
	if err != nil {
		return false, err
	}
	if len(entries) < s.opts.Limit {
		return true, nil
	}
	return score > entries[len(entries)-1].Score, nil
}

// Remove deletes an entry by id.
func (s *Service) Remove(ctx context.Context, id int64) error {
	ctx, cancel := context.WithTimeout(ctx, s.opts.Timeout)
	defer cancel()

	if err := s.store.Remove(ctx, id); err != nil {
		if errors.Is(err, ErrEntryNotFound) {
			return err
		}
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	s.publish(ctx, Update{Type: UpdateRemoved, RemovedID: id})
	return nil
}

func (s *Service) publish(ctx context.Context, u Update) {
	if s.publisher == nil {
		return
	}
	data, err := json.Marshal(u)
	if err != nil {
		return
	}
	if err := s.publisher.Publish(ctx, EventsChannel, data); err != nil {
		log.Warn().Err(err).Str("component", "leaderboard").Str("type", u.Type).Msg("publish failed")
	}
}
