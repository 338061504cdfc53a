package ws

import (
	"context"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"github.com/pokestack/backend/internal/leaderboard"
)

// StartLeaderboardSubscriber relays leaderboard updates published by any
// server instance to every connected client. It returns when ctx is done.
func StartLeaderboardSubscriber(ctx context.Context, rdb *redis.Client, hub *Hub) {
	if rdb == nil {
		log.Warn().Str("component", "ws").Msg("redis client not set; leaderboard subscriber not started")
		return
	}

	pubsub := rdb.Subscribe(ctx, leaderboard.EventsChannel)
	ch := pubsub.Channel()
	go func() {
		defer pubsub.Close()
		log.Info().Str("component", "ws").Str("channel", leaderboard.EventsChannel).Msg("subscriber started")
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}
				n := hub.Broadcast([]byte(msg.Payload))
				log.Debug().Str("component", "ws").Int("clients", n).Msg("leaderboard update relayed")
			}
		}
	}()
}
