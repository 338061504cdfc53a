package main

import (
	"context"
	"os"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/pokestack/backend/internal/admin"
	"github.com/pokestack/backend/internal/config"
	"github.com/pokestack/backend/internal/database"
)

func main() {
	cfg := config.Load()

	db, err := database.Connect(cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer db.Close()

	phone := os.Getenv("ADMIN_PHONE")
	if phone == "" {
		phone = "256700000000"
		log.Info().Str("phone", phone).Msg("using default admin phone")
	}

	adminToken := os.Getenv("ADMIN_TOKEN")
	if adminToken == "" {
		adminToken = "change-me-in-production"
		log.Warn().Msg("using default admin token; set ADMIN_TOKEN in production")
	}

	displayName := "Admin"
	roles := []string{admin.RoleModerator}
	// Empty means any IP.
	var allowedIPs []string
	if ips := os.Getenv("ADMIN_ALLOWED_IPS"); ips != "" {
		for _, ip := range strings.Split(ips, ",") {
			if ip = strings.TrimSpace(ip); ip != "" {
				allowedIPs = append(allowedIPs, ip)
			}
		}
	}

	svc := admin.NewService(admin.NewSQLStore(db))
	if err := svc.CreateAccount(context.Background(), phone, displayName, adminToken, roles, allowedIPs); err != nil {
		log.Fatal().Err(err).Msg("failed to create admin account")
	}

	log.Info().
		Str("phone", phone).
		Str("display_name", displayName).
		Strs("roles", roles).
		Strs("allowed_ips", allowedIPs).
		Msg("admin account created/updated; send X-Admin-Phone and X-Admin-Token on /api/v1/admin requests")
}
