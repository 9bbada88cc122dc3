package repomanager

import (
	"context"

	"github.com/dmitrijs2005/chatbook/internal/server/repositories/memory"
	"github.com/dmitrijs2005/chatbook/internal/server/repositories/messages"
	"github.com/dmitrijs2005/chatbook/internal/server/repositories/revokedtokens"
	"github.com/dmitrijs2005/chatbook/internal/server/repositories/users"
)

// MemoryRepositoryManager serves every repository from one memory.DB.
// Each call is atomic on its own; InTx gives no isolation beyond that.
type MemoryRepositoryManager struct {
	db *memory.DB
}

func NewMemoryRepositoryManager() *MemoryRepositoryManager {
	return &MemoryRepositoryManager{db: memory.New()}
}

func (m *MemoryRepositoryManager) RunMigrations(context.Context) error { return nil }

func (m *MemoryRepositoryManager) Users() users.Repository { return m.db }

func (m *MemoryRepositoryManager) Messages() messages.Repository { return m.db.Messages() }

func (m *MemoryRepositoryManager) RevokedTokens() revokedtokens.Repository { return m.db }

func (m *MemoryRepositoryManager) InTx(ctx context.Context, fn func(ctx context.Context, m RepositoryManager) error) error {
	return fn(ctx, m)
}

func (m *MemoryRepositoryManager) Close() error { return nil }
