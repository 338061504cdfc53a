package profile

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"

	"github.com/pokestack/backend/internal/models"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS profiles (
	player_id    TEXT PRIMARY KEY,
	username     TEXT NOT NULL,
	highscore    INTEGER NOT NULL DEFAULT 0,
	games_played INTEGER NOT NULL DEFAULT 0,
	created_at   TIMESTAMP NOT NULL,
	updated_at   TIMESTAMP NOT NULL
);`

// SQLiteStore keeps profiles in a local SQLite file.
type SQLiteStore struct {
	db *sqlx.DB
}

// NewSQLiteStore creates the profiles table if needed.
func NewSQLiteStore(ctx context.Context, db *sqlx.DB) (*SQLiteStore, error) {
	if _, err := db.ExecContext(ctx, sqliteSchema); err != nil {
		return nil, err
	}
	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) Get(ctx context.Context, playerID string) (models.Profile, error) {
	var p models.Profile
	err := s.db.GetContext(ctx, &p, `SELECT player_id, username, highscore, games_played, created_at, updated_at FROM profiles WHERE player_id = ?`, playerID)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Profile{}, ErrNotFound
	}
	return p, err
}

func (s *SQLiteStore) Put(ctx context.Context, p models.Profile) error {
	_, err := s.db.NamedExecContext(ctx, `
		INSERT INTO profiles (player_id, username, highscore, games_played, created_at, updated_at)
		VALUES (:player_id, :username, :highscore, :games_played, :created_at, :updated_at)
		ON CONFLICT(player_id) DO UPDATE SET
			username = excluded.username,
			highscore = excluded.highscore,
			games_played = excluded.games_played,
			updated_at = excluded.updated_at
	`, p)
	return err
}
