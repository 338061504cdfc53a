package models

import (
	"encoding/json"
	"time"

	"github.com/lib/pq"
)

// Profile is a player's locally persisted record.
type Profile struct {
	PlayerID    string    `db:"player_id" json:"player_id"`
	Username    string    `db:"username" json:"username"`
	Highscore   int       `db:"highscore" json:"highscore"`
	GamesPlayed int       `db:"games_played" json:"games_played"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time `db:"updated_at" json:"updated_at"`
}

// LeaderboardEntry is one submitted score.
type LeaderboardEntry struct {
	ID        int64     `db:"id" json:"id"`
	PlayerID  string    `db:"player_id" json:"player_id"`
	Username  string    `db:"username" json:"username"`
	Score     int       `db:"score" json:"score"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// AdminAccount is an operator allowed to moderate the leaderboard.
type AdminAccount struct {
	ID          int64          `db:"id" json:"id"`
	Phone       string         `db:"phone" json:"phone"`
	DisplayName string         `db:"display_name" json:"display_name"`
	TokenHash   string         `db:"token_hash" json:"-"`
	Roles       pq.StringArray `db:"roles" json:"roles"`
	AllowedIPs  pq.StringArray `db:"allowed_ips" json:"allowed_ips"`
	CreatedAt   time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time      `db:"updated_at" json:"updated_at"`
}

// HasRole reports whether the account carries role.
func (a *AdminAccount) HasRole(role string) bool {
	for _, r := range a.Roles {
		if r == role {
			return true
		}
	}
	return false
}

// AdminAudit is one recorded admin action.
type AdminAudit struct {
	ID         int64           `db:"id" json:"id"`
	AdminPhone string          `db:"admin_phone" json:"admin_phone"`
	IP         string          `db:"ip" json:"ip"`
	Route      string          `db:"route" json:"route"`
	Action     string          `db:"action" json:"action"`
	Details    json.RawMessage `db:"details" json:"details"`
	Success    bool            `db:"success" json:"success"`
	CreatedAt  time.Time       `db:"created_at" json:"created_at"`
}
