// Package users declares the Credential Store contract and its PostgreSQL
// implementation.
package users

import (
	"context"

	"github.com/dmitrijs2005/chatbook/internal/server/models"
)

type Repository interface {
	// Create stores a new user and fills in ID and CreatedAt.
	// A taken username yields common.ErrorAlreadyExists.
	Create(ctx context.Context, user *models.User) (*models.User, error)
	// GetUserByLogin returns common.ErrorNotFound for unknown usernames.
	GetUserByLogin(ctx context.Context, login string) (*models.User, error)
	// List returns all users ordered by username.
	List(ctx context.Context) ([]*models.User, error)
}
