package profile

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/pokestack/backend/internal/models"
)

// RedisStore keeps each profile as a JSON string under Key(playerID).
type RedisStore struct {
	rdb *redis.Client
}

func NewRedisStore(rdb *redis.Client) *RedisStore {
	return &RedisStore{rdb: rdb}
}

func (s *RedisStore) Get(ctx context.Context, playerID string) (models.Profile, error) {
	data, err := s.rdb.Get(ctx, Key(playerID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return models.Profile{}, ErrNotFound
	}
	if err != nil {
		return models.Profile{}, err
	}
	var p models.Profile
	if err := json.Unmarshal(data, &p); err != nil {
		// A corrupt record is treated like a missing one.
		return models.Profile{}, fmt.Errorf("decode %s: %w", Key(playerID), ErrNotFound)
	}
	return p, nil
}

func (s *RedisStore) Put(ctx context.Context, p models.Profile) error {
	data, err := json.Marshal(p)
	if err != nil {
		return err
	}
	return s.rdb.Set(ctx, Key(p.PlayerID), data, 0).Err()
}
