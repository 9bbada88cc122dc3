// Package repomanager vends the repositories the services work with and
// hides whether they are backed by PostgreSQL or process memory.
package repomanager

import (
	"context"

	"github.com/dmitrijs2005/chatbook/internal/server/repositories/messages"
	"github.com/dmitrijs2005/chatbook/internal/server/repositories/revokedtokens"
	"github.com/dmitrijs2005/chatbook/internal/server/repositories/users"
)

type RepositoryManager interface {
	RunMigrations(ctx context.Context) error
	Users() users.Repository
	Messages() messages.Repository
	RevokedTokens() revokedtokens.Repository
	// InTx runs fn with a manager whose repositories share one transaction.
	InTx(ctx context.Context, fn func(ctx context.Context, m RepositoryManager) error) error
	Close() error
}
