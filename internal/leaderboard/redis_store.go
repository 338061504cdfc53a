package leaderboard

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/redis/go-redis/v9"

	"github.com/pokestack/backend/internal/models"
)

const (
	scoresKey  = "leaderboard:scores"
	entriesKey = "leaderboard:entries"
	nextIDKey  = "leaderboard:next_id"
)

// RedisStore ranks entries in a sorted set and keeps their bodies in a hash.
//
// Sorted set scores are negated and members are zero-padded ids, so an
// ascending range yields the highest score first and, among equal scores,
// the entry submitted first.
type RedisStore struct {
	rdb *redis.Client
}

func NewRedisStore(rdb *redis.Client) *RedisStore {
	return &RedisStore{rdb: rdb}
}

func member(id int64) string {
	return fmt.Sprintf("%020d", id)
}

func (s *RedisStore) Submit(ctx context.Context, e models.LeaderboardEntry) (models.LeaderboardEntry, error) {
	id, err := s.rdb.Incr(ctx, nextIDKey).Result()
	if err != nil {
		return models.LeaderboardEntry{}, err
	}
	e.ID = id
	data, err := json.Marshal(e)
	if err != nil {
		return models.LeaderboardEntry{}, err
	}

	pipe := s.rdb.TxPipeline()
	pipe.HSet(ctx, entriesKey, member(id), data)
	pipe.ZAdd(ctx, scoresKey, redis.Z{Score: -float64(e.Score), Member: member(id)})
	if _, err := pipe.Exec(ctx); err != nil {
		return models.LeaderboardEntry{}, err
	}
	return e, nil
}

func (s *RedisStore) Top(ctx context.Context, limit int) ([]models.LeaderboardEntry, error) {
	ids, err := s.rdb.ZRange(ctx, scoresKey, 0, int64(limit-1)).Result()
	if err != nil {
		return nil, err
	}
	entries := make([]models.LeaderboardEntry, 0, len(ids))
	if len(ids) == 0 {
		return entries, nil
	}
	raw, err := s.rdb.HMGet(ctx, entriesKey, ids...).Result()
	if err != nil {
		return nil, err
	}
	for i, v := range raw {
		str, ok := v.(string)
		if !ok {
			continue
		}
		var e models.LeaderboardEntry
		if err := json.Unmarshal([]byte(str), &e); err != nil {
			continue
		}
		if e.ID == 0 {
			e.ID, _ = strconv.ParseInt(ids[i], 10, 64)
		}
		entries = append(entries, e)
	}
	return entries, nil
}

func (s *RedisStore) Remove(ctx context.Context, id int64) error {
	removed, err := s.rdb.ZRem(ctx, scoresKey, member(id)).Result()
	if err != nil {
		return err
	}
	if removed == 0 {
		return ErrEntryNotFound
	}
	return s.rdb.HDel(ctx, entriesKey, member(id)).Err()
}

// RedisPublisher publishes updates with PUBLISH.
type RedisPublisher struct {
	rdb *redis.Client
}

func NewRedisPublisher(rdb *redis.Client) *RedisPublisher {
	return &RedisPublisher{rdb: rdb}
}

func (p *RedisPublisher) Publish(ctx context.Context, channel string, payload []byte) error {
	return p.rdb.Publish(ctx, channel, payload).Err()
}
