package messages

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/chatbook/internal/common"
	"github.com/dmitrijs2005/chatbook/internal/dbx"
	"github.com/dmitrijs2005/chatbook/internal/server/models"
)

// PostgresRepository stores messages in the messages table, resolving
// usernames to user ids inside the same statement.
type PostgresRepository struct {
	db dbx.DBTX
}

// NewPostgresRepository constructs a repository bound to the given DBTX.
func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Create inserts msg. The INSERT ... SELECT produces no row when either
// username is unknown, which is reported as common.ErrorNotFound.
func (r *PostgresRepository) Create(ctx context.Context, msg *models.Message) (*models.Message, error) {
	query := `
		INSERT INTO messages (sender_id, receiver_id, content, status)
		SELECT s.id, r.id, $3, $4
		FROM users s, users r
		WHERE s.username = $1 AND r.username = $2
		RETURNING id, timestamp
	`

	if msg.Status == "" {
		msg.Status = models.StatusSent
	}

	err := r.db.QueryRowContext(ctx, query, msg.Sender, msg.Receiver, msg.Content, string(msg.Status)).
		Scan(&msg.ID, &msg.Timestamp)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	msg.Timestamp = msg.Timestamp.UTC()
	return msg, nil
}

// Conversation returns both directions of the userA/userB exchange.
func (r *PostgresRepository) Conversation(ctx context.Context, userA, userB string) ([]*models.Message, error) {
	query := `
		SELECT m.id, s.username, r.username, m.content, m.status, m.timestamp
		FROM messages m
		JOIN users s ON s.id = m.sender_id
		JOIN users r ON r.id = m.receiver_id
		WHERE (s.username = $1 AND r.username = $2)
		   OR (s.username = $2 AND r.username = $1)
		ORDER BY m.timestamp ASC, m.id ASC
	`

	rows, err := r.db.QueryContext(ctx, query, userA, userB)
	if err != nil {
		return nil, fmt.Errorf("failed to select messages: %w", err)
	}
	defer rows.Close()

	result := make([]*models.Message, 0)
	for rows.Next() {
		var (
			item   models.Message
			status string
		)
		if err := rows.Scan(&item.ID, &item.Sender, &item.Receiver, &item.Content, &status, &item.Timestamp); err != nil {
			return nil, fmt.Errorf("scan message: %w", err)
		}
		item.Status = models.MessageStatus(status)
		item.Timestamp = item.Timestamp.UTC()
		result = append(result, &item)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}
