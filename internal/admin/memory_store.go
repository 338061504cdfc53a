package admin

import (
	"context"
	"sync"

	"github.com/pokestack/backend/internal/models"
)

// MemoryStore keeps accounts and audit entries in process, for development
// without Postgres.
type MemoryStore struct {
	mu       sync.Mutex
	accounts map[string]models.AdminAccount
	audit    []models.AdminAudit
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{accounts: make(map[string]models.AdminAccount)}
}

func (m *MemoryStore) GetAccount(_ context.Context, phone string) (*models.AdminAccount, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	acc, ok := m.accounts[phone]
	if !ok {
		return nil, ErrAccountNotFound
	}
	return &acc, nil
}

func (m *MemoryStore) UpsertAccount(_ context.Context, acc models.AdminAccount) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.accounts[acc.Phone] = acc
	return nil
}

func (m *MemoryStore) LogAction(_ context.Context, e models.AdminAudit) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	e.ID = int64(len(m.audit) + 1)
	// newest first, like SQLStore
	m.audit = append([]models.AdminAudit{e}, m.audit...)
	return nil
}

func (m *MemoryStore) AuditLogs(_ context.Context, limit, offset int) ([]models.AdminAudit, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if offset >= len(m.audit) {
		return nil, nil
	}
	end := min(offset+limit, len(m.audit))
	return m.audit[offset:end], nil
}
