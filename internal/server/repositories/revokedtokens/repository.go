// Package revokedtokens declares the refresh-token revocation list used when
// rotated refresh tokens must stop working before they expire.
package revokedtokens

import (
	"context"
	"time"

	"github.com/dmitrijs2005/chatbook/internal/server/models"
)

// Repository stores revoked refresh-token ids.
type Repository interface {
	// Revoke records token.TokenID and reports whether this call inserted it.
	// A second revocation of the same id returns false without error.
	Revoke(ctx context.Context, token *models.RevokedToken) (bool, error)

	// DeleteExpired drops entries whose token expired before now and returns how many were removed.
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}
