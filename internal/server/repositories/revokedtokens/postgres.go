package revokedtokens

import (
	"context"
	"fmt"
	"time"

	"github.com/dmitrijs2005/chatbook/internal/dbx"
	"github.com/dmitrijs2005/chatbook/internal/server/models"
)

// PostgresRepository keeps the revocation list in the revoked_tokens table
// over dbx.DBTX (satisfied by *sql.DB or *sql.Tx).
type PostgresRepository struct {
	db dbx.DBTX
}

// NewPostgresRepository constructs a repository bound to the given DBTX.
func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Revoke inserts the id; the conflict clause turns a concurrent or repeated
// revocation into zero affected rows, so the insert itself is the check.
func (r *PostgresRepository) Revoke(ctx context.Context, token *models.RevokedToken) (bool, error) {
	query := `
		INSERT INTO revoked_tokens (token_id, username, expires_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (token_id) DO NOTHING
	`
	res, err := r.db.ExecContext(ctx, query, token.TokenID, token.UserName, token.ExpiresAt)
	if err != nil {
		return false, fmt.Errorf("error performing sql request: %v", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected error: %w", err)
	}
	return n == 1, nil
}

func (r *PostgresRepository) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	query := `
		DELETE FROM revoked_tokens
		WHERE expires_at < $1
	`
	res, err := r.db.ExecContext(ctx, query, now)
	if err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rows affected error: %w", err)
	}
	return n, nil
}
