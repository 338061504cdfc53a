package admin

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/rs/zerolog/log"
	"golang.org/x/crypto/bcrypt"

	"github.com/pokestack/backend/internal/models"
)

var (
	ErrAccountNotFound = errors.New("admin account not found")
	ErrInvalidToken    = errors.New("invalid admin token")
	ErrIPNotAllowed    = errors.New("admin IP not allowed")
)

// RoleModerator may remove leaderboard entries.
const RoleModerator = "moderator"

// Store persists admin accounts and their audit trail.
type Store interface {
	GetAccount(ctx context.Context, phone string) (*models.AdminAccount, error)
	UpsertAccount(ctx context.Context, acc models.AdminAccount) error
	LogAction(ctx context.Context, entry models.AdminAudit) error
	AuditLogs(ctx context.Context, limit, offset int) ([]models.AdminAudit, error)
}

// SQLStore is the Postgres Store.
type SQLStore struct {
	db *sqlx.DB
}

func NewSQLStore(db *sqlx.DB) *SQLStore {
	return &SQLStore{db: db}
}

// GetAccount retrieves an admin account by phone
func (s *SQLStore) GetAccount(ctx context.Context, phone string) (*models.AdminAccount, error) {
	var acc models.AdminAccount
	err := s.db.GetContext(ctx, &acc, `SELECT id, phone, display_name, token_hash, roles, allowed_ips, created_at, updated_at FROM admin_accounts WHERE phone=$1`, phone)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrAccountNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get admin account: %w", err)
	}
	return &acc, nil
}

// UpsertAccount creates or replaces an admin account (used for seeding)
func (s *SQLStore) UpsertAccount(ctx context.Context, acc models.AdminAccount) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO admin_accounts (phone, display_name, token_hash, roles, allowed_ips, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, NOW(), NOW())
		ON CONFLICT (phone) DO UPDATE SET
			display_name = EXCLUDED.display_name,
			token_hash = EXCLUDED.token_hash,
			roles = EXCLUDED.roles,
			allowed_ips = EXCLUDED.allowed_ips,
			updated_at = NOW()
	`, acc.Phone, acc.DisplayName, acc.TokenHash, pq.Array([]string(acc.Roles)), pq.Array([]string(acc.AllowedIPs)))
	return err
}

// LogAction records an admin action in the audit log
func (s *SQLStore) LogAction(ctx context.Context, e models.AdminAudit) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO admin_audit (admin_phone, ip, route, action, details, success, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, NOW())
	`, e.AdminPhone, e.IP, e.Route, e.Action, []byte(e.Details), e.Success)
	return err
}

// AuditLogs retrieves recent admin audit logs with pagination
func (s *SQLStore) AuditLogs(ctx context.Context, limit, offset int) ([]models.AdminAudit, error) {
	var logs []models.AdminAudit
	err := s.db.SelectContext(ctx, &logs, `
		SELECT id, admin_phone, ip, route, action, details, success, created_at
		FROM admin_audit
		ORDER BY created_at DESC
		LIMIT $1 OFFSET $2
	`, limit, offset)
	return logs, err
}

// HashToken bcrypt-hashes a plain admin token.
func HashToken(plain string) (string, error) {
	h, err := bcrypt.GenerateFromPassword([]byte(plain), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash token: %w", err)
	}
	return string(h), nil
}

// VerifyToken checks if the provided token matches the stored hash
func VerifyToken(hashedToken, plainToken string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hashedToken), []byte(plainToken)) == nil
}

// Service validates admin credentials and records what admins do.
type Service struct {
	store Store
}

func NewService(store Store) *Service {
	return &Service{store: store}
}

// CreateAccount hashes token and stores the account.
func (s *Service) CreateAccount(ctx context.Context, phone, displayName, token string, roles, allowedIPs []string) error {
	hash, err := HashToken(token)
	if err != nil {
		return err
	}
	return s.store.UpsertAccount(ctx, models.AdminAccount{
		Phone:       phone,
		DisplayName: displayName,
		TokenHash:   hash,
		Roles:       roles,
		AllowedIPs:  allowedIPs,
	})
}

// Validate validates phone + token and, when the account restricts them, the caller IP.
func (s *Service) Validate(ctx context.Context, phone, token, ip string) (*models.AdminAccount, error) {
	acc, err := s.store.GetAccount(ctx, phone)
	if err != nil {
		log.Warn().Err(err).Str("component", "admin").Str("phone", phone).Msg("admin lookup failed")
		return nil, err
	}
	if !VerifyToken(acc.TokenHash, token) {
		log.Warn().Str("component", "admin").Str("phone", phone).Msg("token verification failed")
		return nil, ErrInvalidToken
	}
	if len(acc.AllowedIPs) > 0 && !contains(acc.AllowedIPs, ip) {
		log.Warn().Str("component", "admin").Str("phone", phone).Str("ip", ip).Msg("ip not allowed")
		return nil, ErrIPNotAllowed
	}
	return acc, nil
}

// Audit records an admin action. Failures are logged, never returned.
func (s *Service) Audit(ctx context.Context, phone, ip, route, action string, details map[string]any, success bool) {
	detailsJSON, err := json.Marshal(details)
	if err != nil {
		detailsJSON = []byte("{}")
	}
	entry := models.AdminAudit{
		AdminPhone: phone,
		IP:         ip,
		Route:      route,
		Action:     action,
		Details:    detailsJSON,
		Success:    success,
		CreatedAt:  time.Now(),
	}
	if err := s.store.LogAction(ctx, entry); err != nil {
		log.Warn().Err(err).Str("component", "admin").Str("action", action).Msg("failed to log admin action")
	}
}

// AuditLogs lists recent actions.
func (s *Service) AuditLogs(ctx context.Context, limit, offset int) ([]models.AdminAudit, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	return s.store.AuditLogs(ctx, limit, offset)
}

func contains(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}
