package leaderboard

import (
	"context"

	"github.com/jmoiron/sqlx"

	"github.com/pokestack/backend/internal/models"
)

// PostgresStore keeps entries in the leaderboard_entries table.
type PostgresStore struct {
	db *sqlx.DB
}

func NewPostgresStore(db *sqlx.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Submit(ctx context.Context, e models.LeaderboardEntry) (models.LeaderboardEntry, error) {
	err := s.db.QueryRowxContext(ctx, `
		INSERT INTO leaderboard_entries (player_id, username, score, created_at)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at`,
		e.PlayerID, e.Username, e.Score, e.CreatedAt,
	).Scan(&e.ID, &e.CreatedAt)
	if err != nil {
		return models.LeaderboardEntry{}, err
	}
	return e, nil
}

func (s *PostgresStore) Top(ctx context.Context, limit int) ([]models.LeaderboardEntry, error) {
	entries := []models.LeaderboardEntry{}
	err := s.db.SelectContext(ctx, &entries, `
		SELECT id, player_id, username, score, created_at
		FROM leaderboard_entries
		ORDER BY score DESC, created_at ASC, id ASC
		LIMIT $1`, limit)
	return entries, err
}

func (s *PostgresStore) Remove(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM leaderboard_entries WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrEntryNotFound
	}
	return nil
}
