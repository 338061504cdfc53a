package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/pokestack/backend/internal/game"
)

type Config struct {
	// Environment
	Environment string
	LogLevel    string

	// Database
	DatabaseURL    string
	MigrateOnStart bool

	// Redis
	RedisURL string

	// SQLite (local profile store)
	SQLitePath string

	// Storage backends
	ProfileStore     string // redis | sqlite | memory
	LeaderboardStore string // postgres | redis | memory

	// Server
	Port        string
	FrontendURL string

	// Play field
	FieldWidth      float64
	FieldHeight     float64
	WallPad         float64
	StatusBarHeight float64
	DangerLine      float64
	PreviewHeight   float64

	// Game timings
	DropCooldown  time.Duration
	StartSettle   time.Duration
	OverflowDelay time.Duration
	PopDuration   time.Duration

	// Game rules
	NextTierSpan int
	TopTierRule  string

	// Simulation
	TickRate     int     // ticks per second
	GravityScale float64 // multiplier on the default gravity

	// Sessions
	SessionIdleMinutes int
	SnapshotTTLMinutes int
	MaxSessions        int

	// Leaderboard
	LeaderboardLimit    int
	LeaderboardFetchMax int
	LeaderboardTimeout  time.Duration

	// Security
	JWTSecret           string
	PlayerTokenTTLHours int
}

func Load() *Config {
	// Load .env file if it exists
	godotenv.Load()

	return &Config{
		// Environment
		Environment: getEnv("APP_ENV", "development"),
		LogLevel:    getEnv("LOG_LEVEL", "info"),

		// Database
		DatabaseURL:    getEnv("DATABASE_URL", "postgres://localhost:5432/pokestack?sslmode=disable"),
		MigrateOnStart: getEnvBool("MIGRATE_ON_START", true),

		// Redis
		RedisURL: getEnv("REDIS_URL", "redis://localhost:6379/0"),

		SQLitePath: getEnv("SQLITE_PATH", "pokestack.db"),

		ProfileStore:     strings.ToLower(getEnv("PROFILE_STORE", "redis")),
		LeaderboardStore: strings.ToLower(getEnv("LEADERBOARD_STORE", "postgres")),

		// Server
		Port:        getEnv("APP_PORT", "8080"),
		FrontendURL: getEnv("FRONTEND_URL", "http://localhost:5173"),

		// Play field
		FieldWidth:      getEnvFloat("FIELD_WIDTH", game.FieldWidth),
		FieldHeight:     getEnvFloat("FIELD_HEIGHT", game.FieldHeight),
		WallPad:         getEnvFloat("WALL_PAD", game.WallPad),
		StatusBarHeight: getEnvFloat("STATUS_BAR_HEIGHT", game.StatusBarHeight),
		DangerLine:      getEnvFloat("DANGER_LINE", game.DangerLine),
		PreviewHeight:   getEnvFloat("PREVIEW_HEIGHT", game.PreviewHeight),

		// Game timings
		DropCooldown:  getEnvMillis("DROP_COOLDOWN_MS", game.DropCooldown),
		StartSettle:   getEnvMillis("START_SETTLE_MS", game.StartSettle),
		OverflowDelay: getEnvMillis("OVERFLOW_DELAY_MS", game.OverflowDelay),
		PopDuration:   getEnvMillis("POP_DURATION_MS", game.PopDuration),

		// Game rules
		NextTierSpan: getEnvInt("NEXT_TIER_SPAN", game.NextTierSpan),
		TopTierRule:  getEnv("TOP_TIER_RULE", string(game.TopTierWrap)),

		// Simulation
		TickRate:     getEnvInt("TICK_RATE", 60),
		GravityScale: getEnvFloat("GRAVITY", 1.0),

		// Sessions
		SessionIdleMinutes: getEnvInt("SESSION_IDLE_MINUTES", 30),
		SnapshotTTLMinutes: getEnvInt("SNAPSHOT_TTL_MINUTES", 60),
		MaxSessions:        getEnvInt("MAX_SESSIONS", 0),

		// Leaderboard
		LeaderboardLimit:    getEnvInt("LEADERBOARD_LIMIT", 10),
		LeaderboardFetchMax: getEnvInt("LEADERBOARD_FETCH_MAX", 100),
		LeaderboardTimeout:  getEnvMillis("LEADERBOARD_TIMEOUT_MS", 3*time.Second),

		// Security
		JWTSecret:           getEnv("JWT_SECRET", "change-me-in-production"),
		PlayerTokenTTLHours: getEnvInt("PLAYER_TOKEN_TTL_HOURS", 24*30),
	}
}

// IsProduction reports whether APP_ENV is production.
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// GameSettings builds the session settings from the configured field and rules.
func (c *Config) GameSettings() game.Settings {
	s := game.DefaultSettings()
	s.Width = c.FieldWidth
	s.Height = c.FieldHeight
	s.WallPad = c.WallPad
	s.StatusBarHeight = c.StatusBarHeight
	s.DangerLine = c.DangerLine
	s.PreviewHeight = c.PreviewHeight
	s.DropCooldown = c.DropCooldown
	s.StartSettle = c.StartSettle
	s.OverflowDelay = c.OverflowDelay
	s.PopDuration = c.PopDuration
	s.NextTierSpan = c.NextTierSpan
	s.TopTierRule = game.ParseTopTierRule(c.TopTierRule)
	return s
}

// TickInterval converts TickRate to a ticker period.
func (c *Config) TickInterval() time.Duration {
	if c.TickRate <= 0 {
		return game.DefaultTickRate
	}
	return time.Second / time.Duration(c.TickRate)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

// getEnvMillis reads a whole number of milliseconds.
func getEnvMillis(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if ms, err := strconv.Atoi(value); err == nil && ms >= 0 {
			return time.Duration(ms) * time.Millisecond
		}
	}
	return defaultValue
}
