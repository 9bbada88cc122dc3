package repomanager

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/chatbook/internal/server/models"
	"github.com/pressly/goose/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db, mock
}

func TestPostgres_ImplementsInterface(t *testing.T) {
	db, _ := newDB(t)
	var m RepositoryManager = NewPostgresRepositoryManager(db)

	assert.NotNil(t, m.Users())
	assert.NotNil(t, m.Messages())
	assert.NotNil(t, m.RevokedTokens())
}

func TestPostgres_InTxCommitsThroughTransaction(t *testing.T) {
	db, mock := newDB(t)
	m := NewPostgresRepositoryManager(db)

	mock.ExpectBegin()
	mock.ExpectExec(`INSERT INTO revoked_tokens`).
		WithArgs("jti-1", "alice", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err := m.InTx(context.Background(), func(ctx context.Context, tx RepositoryManager) error {
		_, err := tx.RevokedTokens().Revoke(ctx, &models.RevokedToken{
			TokenID: "jti-1", UserName: "alice", ExpiresAt: time.Now().Add(time.Hour),
		})
		return err
	})
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgres_InTxRollsBackOnError(t *testing.T) {
	db, mock := newDB(t)
	m := NewPostgresRepositoryManager(db)

	boom := errors.New("boom")
	mock.ExpectBegin()
	mock.ExpectRollback()

	err := m.InTx(context.Background(), func(ctx context.Context, tx RepositoryManager) error {
		return boom
	})
	assert.ErrorIs(t, err, boom)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRunMigrations_Success(t *testing.T) {
	db, _ := newDB(t)

	orig := gooseUpContext
	gooseUpContext = func(ctx context.Context, db *sql.DB, dir string, opts ...goose.OptionsFunc) error {
		if dir != "." {
			return errors.New("unexpected dir")
		}
		return nil
	}
	defer func() { gooseUpContext = orig }()

	require.NoError(t, NewPostgresRepositoryManager(db).RunMigrations(context.Background()))
}

func TestRunMigrations_Error(t *testing.T) {
	db, _ := newDB(t)

	orig := gooseUpContext
	gooseUpContext = func(ctx context.Context, db *sql.DB, dir string, opts ...goose.OptionsFunc) error {
		return errors.New("boom")
	}
	defer func() { gooseUpContext = orig }()

	err := NewPostgresRepositoryManager(db).RunMigrations(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "boom")
}

func TestMemory_SharesOneStore(t *testing.T) {
	var m RepositoryManager = NewMemoryRepositoryManager()
	ctx := context.Background()

	require.NoError(t, m.RunMigrations(ctx))
	err := m.InTx(ctx, func(ctx context.Context, tx RepositoryManager) error {
		_, err := tx.Users().Create(ctx, &models.User{UserName: "alice"})
		return err
	})
	require.NoError(t, err)

	u, err := m.Users().GetUserByLogin(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, "alice", u.UserName)
	assert.NoError(t, m.Close())
}
