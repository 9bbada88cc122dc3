// Package memory implements the repositories in process memory, for
// development runs without a database and for tests.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/dmitrijs2005/chatbook/internal/common"
	"github.com/dmitrijs2005/chatbook/internal/server/models"
	"github.com/dmitrijs2005/chatbook/internal/server/repositories/messages"
	"github.com/dmitrijs2005/chatbook/internal/server/repositories/revokedtokens"
	"github.com/dmitrijs2005/chatbook/internal/server/repositories/users"
)

// DB holds users, messages and revoked tokens behind one mutex.
type DB struct {
	mu       sync.Mutex
	users    map[string]*models.User
	messages []models.Message
	revoked  map[string]models.RevokedToken

	userIDCounter    int64
	messageIDCounter int64
	lastMessageAt    time.Time

	now func() time.Time
}

// New creates an empty in-memory database.
func New() *DB {
	return &DB{
		users:   make(map[string]*models.User),
		revoked: make(map[string]models.RevokedToken),
		now:     time.Now,
	}
}

var (
	_ users.Repository         = (*DB)(nil)
	_ messages.Repository      = messageRepo{}
	_ revokedtokens.Repository = (*DB)(nil)
)

// --- users.Repository ---

func (db *DB) Create(ctx context.Context, user *models.User) (*models.User, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	if _, ok := db.users[user.UserName]; ok {
		return nil, common.ErrorAlreadyExists
	}

	db.userIDCounter++
	stored := *user
	stored.ID = db.userIDCounter
	stored.CreatedAt = db.now().UTC()
	db.users[stored.UserName] = &stored

	out := stored
	return &out, nil
}

func (db *DB) GetUserByLogin(ctx context.Context, login string) (*models.User, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	u, ok := db.users[login]
	if !ok {
		return nil, common.ErrorNotFound
	}
	out := *u
	return &out, nil
}

func (db *DB) List(ctx context.Context) ([]*models.User, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	out := make([]*models.User, 0, len(db.users))
	for _, u := range db.users {
		c := *u
		out = append(out, &c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UserName < out[j].UserName })
	return out, nil
}

// --- messages.Repository ---

// CreateMessage is the messages.Repository Create; see Messages.
func (db *DB) CreateMessage(ctx context.Context, msg *models.Message) (*models.Message, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	_, okSender := db.users[msg.Sender]
	_, okReceiver := db.users[msg.Receiver]
	if !okSender || !okReceiver {
		return nil, common.ErrorNotFound
	}

	db.messageIDCounter++
	stored := *msg
	stored.ID = db.messageIDCounter
	if stored.Status == "" {
		stored.Status = models.StatusSent
	}
	// keep timestamps non-decreasing in insertion order even if the wall clock steps back
	ts := db.now().UTC()
	if ts.Before(db.lastMessageAt) {
		ts = db.lastMessageAt
	}
	db.lastMessageAt = ts
	stored.Timestamp = ts
	db.messages = append(db.messages, stored)

	out := stored
	return &out, nil
}

func (db *DB) Conversation(ctx context.Context, userA, userB string) ([]*models.Message, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	out := make([]*models.Message, 0)
	for _, m := range db.messages {
		if (m.Sender == userA && m.Receiver == userB) || (m.Sender == userB && m.Receiver == userA) {
			c := m
			out = append(out, &c)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].Timestamp.Equal(out[j].Timestamp) {
			return out[i].Timestamp.Before(out[j].Timestamp)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

// --- revokedtokens.Repository ---

func (db *DB) Revoke(ctx context.Context, token *models.RevokedToken) (bool, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	if _, ok := db.revoked[token.TokenID]; ok {
		return false, nil
	}
	stored := *token
	stored.RevokedAt = db.now().UTC()
	db.revoked[token.TokenID] = stored
	return true, nil
}

func (db *DB) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	var n int64
	for id, tok := range db.revoked {
		if tok.ExpiresAt.Before(now) {
			delete(db.revoked, id)
			n++
		}
	}
	return n, nil
}

// Messages adapts DB to messages.Repository; users.Repository already owns
// the Create name on DB.
func (db *DB) Messages() messages.Repository {
	return messageRepo{db: db}
}

type messageRepo struct {
	db *DB
}

func (r messageRepo) Create(ctx context.Context, msg *models.Message) (*models.Message, error) {
	return r.db.CreateMessage(ctx, msg)
}

func (r messageRepo) Conversation(ctx context.Context, userA, userB string) ([]*models.Message, error) {
	return r.db.Conversation(ctx, userA, userB)
}
