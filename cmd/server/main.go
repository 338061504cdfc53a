package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"
	goredis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/pokestack/backend/internal/admin"
	"github.com/pokestack/backend/internal/api"
	"github.com/pokestack/backend/internal/auth"
	"github.com/pokestack/backend/internal/config"
	"github.com/pokestack/backend/internal/database"
	"github.com/pokestack/backend/internal/game"
	"github.com/pokestack/backend/internal/leaderboard"
	"github.com/pokestack/backend/internal/migrations"
	"github.com/pokestack/backend/internal/physics"
	"github.com/pokestack/backend/internal/profile"
	"github.com/pokestack/backend/internal/redis"
	"github.com/pokestack/backend/internal/ws"
)

func setupLogging(cfg *config.Config) {
	if lvl, err := zerolog.ParseLevel(cfg.LogLevel); err == nil {
		zerolog.SetGlobalLevel(lvl)
	}
	if !cfg.IsProduction() {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})
	}
}

func main() {
	cfg := config.Load()
	setupLogging(cfg)

	// Postgres backs the leaderboard and admin accounts when configured.
	var db *sqlx.DB
	if cfg.DatabaseURL != "" {
		var err error
		db, err = database.Connect(cfg.DatabaseURL)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to connect to database")
		}
		defer db.Close()

		if cfg.MigrateOnStart {
			log.Info().Str("component", "migrate").Msg("running DB migrations on startup")
			if err := migrations.RunMigrations(cfg.DatabaseURL, "migrations"); err != nil {
				log.Fatal().Err(err).Msg("failed to run migrations")
			}
		}
	}

	var rdb *goredis.Client
	if cfg.RedisURL != "" {
		var err error
		rdb, err = redis.Connect(cfg.RedisURL)
		if err != nil {
			if needsRedis(cfg) {
				log.Fatal().Err(err).Msg("failed to connect to Redis")
			}
			log.Warn().Err(err).Msg("Redis unavailable; snapshots and leaderboard events stay in process")
			rdb = nil
		} else {
			defer rdb.Close()
		}
	}

	profileStore, closeProfiles, err := openProfileStore(cfg, rdb)
	if err != nil {
		log.Fatal().Err(err).Str("store", cfg.ProfileStore).Msg("failed to open profile store")
	}
	defer closeProfiles()
	profiles := profile.NewService(profileStore)

	boardStore, err := openLeaderboardStore(cfg, db, rdb)
	if err != nil {
		log.Fatal().Err(err).Str("store", cfg.LeaderboardStore).Msg("failed to open leaderboard store")
	}
	var publisher leaderboard.Publisher
	if rdb != nil {
		publisher = leaderboard.NewRedisPublisher(rdb)
	}
	board := leaderboard.NewService(boardStore, publisher, leaderboard.Options{
		Limit:    cfg.LeaderboardLimit,
		FetchMax: cfg.LeaderboardFetchMax,
		Timeout:  cfg.LeaderboardTimeout,
	})

	var adminStore admin.Store = admin.NewMemoryStore()
	if db != nil {
		adminStore = admin.NewSQLStore(db)
	}
	admins := admin.NewService(adminStore)

	var snapshots game.SnapshotStore = game.NewMemorySnapshots()
	if rdb != nil {
		snapshots = game.NewRedisSnapshots(rdb, time.Duration(cfg.SnapshotTTLMinutes)*time.Minute)
	}

	hub := ws.NewHub()
	results := ws.NewResults(profiles, board, hub, cfg.LeaderboardTimeout)

	gravity := physics.DefaultGravity * cfg.GravityScale
	manager := game.NewManager(game.ManagerConfig{
		Settings:    cfg.GameSettings(),
		TickRate:    cfg.TickInterval(),
		IdleTimeout: time.Duration(cfg.SessionIdleMinutes) * time.Minute,
		MaxSessions: cfg.MaxSessions,
		NewEngine: func() game.PhysicsEngine {
			w := physics.NewWorld()
			w.Gravity = game.NewVec2(0, gravity)
			return w
		},
		Snapshots:  snapshots,
		OnGameOver: results.OnGameOver,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	manager.StartExpiryChecker(ctx)
	ws.StartLeaderboardSubscriber(ctx, rdb, hub)

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery(), requestLogger())

	api.SetupRoutes(router, api.Deps{
		Profiles:    profiles,
		Leaderboard: board,
		Tokens:      auth.NewTokens(cfg.JWTSecret, time.Duration(cfg.PlayerTokenTTLHours)*time.Hour),
		Sessions:    manager,
		Hub:         hub,
		Admins:      admins,
	}, cfg)

	srv := &http.Server{Addr: ":" + cfg.Port, Handler: router}
	go func() {
		log.Info().Str("port", cfg.Port).Str("env", cfg.Environment).Msg("starting PokeStack server")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server exited")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Warn().Err(err).Msg("http shutdown")
	}
	manager.Shutdown(shutdownCtx)
	board.Wait()
}

func needsRedis(cfg *config.Config) bool {
	return cfg.ProfileStore == "redis" || cfg.LeaderboardStore == "redis"
}

func openProfileStore(cfg *config.Config, rdb *goredis.Client) (profile.Store, func(), error) {
	noop := func() {}
	switch cfg.ProfileStore {
	case "redis":
		if rdb == nil {
			return nil, noop, errors.New("REDIS_URL is required for the redis profile store")
		}
		return profile.NewRedisStore(rdb), noop, nil
	case "sqlite":
		sdb, err := database.OpenSQLite(cfg.SQLitePath)
		if err != nil {
			return nil, noop, err
		}
		store, err := profile.NewSQLiteStore(context.Background(), sdb)
		if err != nil {
			sdb.Close()
			return nil, noop, err
		}
		return store, func() { sdb.Close() }, nil
	case "memory":
		return profile.NewMemoryStore(), noop, nil
	}
	return nil, noop, errors.New("unknown PROFILE_STORE " + cfg.ProfileStore)
}

func openLeaderboardStore(cfg *config.Config, db *sqlx.DB, rdb *goredis.Client) (leaderboard.Store, error) {
	switch cfg.LeaderboardStore {
	case "postgres":
		if db == nil {
			return nil, errors.New("DATABASE_URL is required for the postgres leaderboard store")
		}
		return leaderboard.NewPostgresStore(db), nil
	case "redis":
		if rdb == nil {
			return nil, errors.New("REDIS_URL is required for the redis leaderboard store")
		}
		return leaderboard.NewRedisStore(rdb), nil
	case "memory":
		return leaderboard.NewMemoryStore(), nil
	}
	return nil, errors.New("unknown LEADERBOARD_STORE " + cfg.LeaderboardStore)
}

// requestLogger logs each request through zerolog.
func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		log.Debug().Str("component", "http").
			Str("method", c.Request.Method).
			Str("path", c.FullPath()).
			Int("status", c.Writer.Status()).
			Dur("latency", time.Since(start)).
			Msg("request")
	}
}
