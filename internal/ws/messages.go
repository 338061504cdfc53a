package ws

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/pokestack/backend/internal/game"
)

var ErrUnknownMessage = errors.New("unknown message type")

// WSMessage is a client message.
type WSMessage struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

type positionData struct {
	X *float64 `json:"x"`
}

type fieldData struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// decodeInput maps a client message onto a session input.
func decodeInput(raw []byte) (game.Input, error) {
	var msg WSMessage
	if err := json.Unmarshal(raw, &msg); err != nil {
		return game.Input{}, fmt.Errorf("decode message: %w", err)
	}

	switch msg.Type {
	case "start":
		return game.Input{Kind: game.InputStart}, nil
	case "restart":
		return game.Input{Kind: game.InputRestart}, nil
	case "drop", "move":
		var d positionData
		if err := json.Unmarshal(msg.Data, &d); err != nil || d.X == nil {
			return game.Input{}, fmt.Errorf("%s: x required", msg.Type)
		}
		kind := game.InputDrop
		if msg.Type == "move" {
			kind = game.InputMove
		}
		return game.Input{Kind: kind, X: *d.X}, nil
	case "field":
		var d fieldData
		if err := json.Unmarshal(msg.Data, &d); err != nil {
			return game.Input{}, fmt.Errorf("field: %w", err)
		}
		return game.Input{Kind: game.InputField, Width: d.Width, Height: d.Height}, nil
	}
	return game.Input{}, fmt.Errorf("%w: %q", ErrUnknownMessage, msg.Type)
}

// GameOverMessage tells a player their round result.
type GameOverMessage struct {
	Type        string `json:"type"`
	SessionID   string `json:"session_id"`
	Score       int    `json:"score"`
	Reason      string `json:"reason"`
	Highscore   int    `json:"highscore"`
	NewRecord   bool   `json:"new_record"`
	GamesPlayed int    `json:"games_played"`
	// Available is false when the profile could not be updated.
	Available            bool `json:"available"`
	LeaderboardAvailable bool `json:"leaderboard_available"`
	TopScore             bool `json:"top_score"`
}
