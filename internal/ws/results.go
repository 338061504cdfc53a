package ws

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/pokestack/backend/internal/game"
	"github.com/pokestack/backend/internal/leaderboard"
	"github.com/pokestack/backend/internal/profile"
)

// Results records finished rounds and tells the player how they did.
type Results struct {
	profiles *profile.Service
	board    *leaderboard.Service
	hub      *Hub
	timeout  time.Duration
}

func NewResults(profiles *profile.Service, board *leaderboard.Service, hub *Hub, timeout time.Duration) *Results {
	if timeout <= 0 {
		timeout = 3 * time.Second
	}
	return &Results{profiles: profiles, board: board, hub: hub, timeout: timeout}
}

// OnGameOver handles a lost round in the background. It fits
// game.ManagerConfig.OnGameOver.
func (r *Results) OnGameOver(over game.GameOver) {
	go r.Record(context.Background(), over)
}

// Record updates the profile, submits qualifying scores and sends game_over.
// Tampered rounds count as played but never reach the leaderboard.
func (r *Results) Record(ctx context.Context, over game.GameOver) GameOverMessage {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	msg := GameOverMessage{
		Type:      "game_over",
		SessionID: over.SessionID,
		Score:     over.Score,
		Reason:    string(over.Reason),
	}

	res, err := r.profiles.RecordGame(ctx, over.PlayerID, over.Score)
	if err != nil {
		log.Warn().Err(err).Str("component", "results").Str("player", over.PlayerID).Msg("record game")
	} else {
		msg.Available = true
		msg.Highscore = res.Profile.Highscore
		msg.NewRecord = res.NewRecord
		msg.GamesPlayed = res.Profile.GamesPlayed
	}

	top, err := r.board.IsTopScore(ctx, over.Score)
	if err != nil {
		log.Warn().Err(err).Str("component", "results").Msg("leaderboard check")
	} else {
		msg.LeaderboardAvailable = true
		msg.TopScore = top && over.Score > 0 && over.Reason != game.ReasonTampered
	}
	if msg.TopScore && msg.Available {
		r.board.SubmitAsync(over.PlayerID, res.Profile.Username, over.Score)
	}

	r.hub.SendToPlayer(over.PlayerID, msg)
	log.Info().Str("component", "results").Str("player", over.PlayerID).Int("score", over.Score).
		Bool("new_record", msg.NewRecord).Bool("top_score", msg.TopScore).Msg("round recorded")
	return msg
}
