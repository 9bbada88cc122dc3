// Package messages declares the Message Store contract and its PostgreSQL
// implementation. The store is append-only.
package messages

import (
	"context"

	"github.com/dmitrijs2005/chatbook/internal/server/models"
)

// Repository persists and retrieves direct messages.
type Repository interface {
	// Create appends msg, assigning ID and a server-side UTC Timestamp.
	// Sender and Receiver must both exist at insert time, otherwise
	// common.ErrorNotFound is returned and nothing is stored.
	Create(ctx context.Context, msg *models.Message) (*models.Message, error)

	// Conversation returns every message exchanged between userA and userB,
	// in both directions, ordered by timestamp then id.
	Conversation(ctx context.Context, userA, userB string) ([]*models.Message, error)
}
