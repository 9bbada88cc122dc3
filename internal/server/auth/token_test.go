package auth

import (
	"testing"
	"time"

	"github.com/dmitrijs2005/chatbook/internal/common"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestService(now time.Time) *TokenService {
	s := NewTokenService("secret", 30*time.Minute, 7*24*time.Hour)
	s.now = func() time.Time { return now }
	return s
}

func TestIssueAccess_RoundTrip(t *testing.T) {
	now := time.Now()
	s := newTestService(now)

	tok, err := s.IssueAccess("alice")
	require.NoError(t, err)

	id, err := s.ValidateAccess(tok)
	require.NoError(t, err)
	assert.Equal(t, "alice", id)
}

func TestIssueRefresh_Claims(t *testing.T) {
	now := time.Now().Truncate(time.Second)
	s := newTestService(now)

	tok, claims, err := s.IssueRefresh("alice")
	require.NoError(t, err)
	assert.Equal(t, TokenTypeRefresh, claims.Type)
	assert.NotEmpty(t, claims.ID)
	assert.Equal(t, now.Add(7*24*time.Hour), claims.ExpiresAt.Time)

	parsed, err := s.ValidateRefresh(tok)
	require.NoError(t, err)
	assert.Equal(t, "alice", parsed.Identity())
	assert.Equal(t, claims.ID, parsed.ID)
}

func TestValidate_WrongTypeRejected(t *testing.T) {
	s := newTestService(time.Now())

	access, err := s.IssueAccess("alice")
	require.NoError(t, err)
	_, err = s.ValidateRefresh(access)
	assert.ErrorIs(t, err, common.ErrInvalidToken)

	refresh, _, err := s.IssueRefresh("alice")
	require.NoError(t, err)
	_, err = s.ValidateAccess(refresh)
	assert.ErrorIs(t, err, common.ErrInvalidToken)
}

func TestValidate_MissingTypeRejected(t *testing.T) {
	s := newTestService(time.Now())

	raw := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": "alice",
		"exp": time.Now().Add(time.Hour).Unix(),
	})
	tok, err := raw.SignedString([]byte("secret"))
	require.NoError(t, err)

	_, err = s.ValidateRefresh(tok)
	assert.ErrorIs(t, err, common.ErrInvalidToken)
}

func TestValidate_MissingSubjectRejected(t *testing.T) {
	s := newTestService(time.Now())

	raw := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"type": "access",
		"exp":  time.Now().Add(time.Hour).Unix(),
	})
	tok, err := raw.SignedString([]byte("secret"))
	require.NoError(t, err)

	_, err = s.ValidateAccess(tok)
	assert.ErrorIs(t, err, common.ErrInvalidToken)
}

func TestValidate_Expired(t *testing.T) {
	issued := time.Now().Add(-time.Hour)
	s := newTestService(issued)
	tok, err := s.IssueAccess("alice")
	require.NoError(t, err)

	s.now = time.Now
	_, err = s.ValidateAccess(tok)
	assert.ErrorIs(t, err, common.ErrTokenExpired)
}

func TestValidate_BadSignature(t *testing.T) {
	s := newTestService(time.Now())
	tok, err := s.IssueAccess("alice")
	require.NoError(t, err)

	other := NewTokenService("other", time.Minute, time.Minute)
	_, err = other.ValidateAccess(tok)
	assert.ErrorIs(t, err, common.ErrInvalidToken)

	_, err = s.ValidateAccess("not-a-jwt")
	assert.ErrorIs(t, err, common.ErrInvalidToken)
}

func TestValidate_OnlyHS256(t *testing.T) {
	s := newTestService(time.Now())

	raw := jwt.NewWithClaims(jwt.SigningMethodHS512, jwt.MapClaims{
		"sub":  "alice",
		"type": "access",
		"exp":  time.Now().Add(time.Hour).Unix(),
	})
	tok, err := raw.SignedString([]byte("secret"))
	require.NoError(t, err)

	_, err = s.ValidateAccess(tok)
	assert.ErrorIs(t, err, common.ErrInvalidToken)
}

func TestIssue_EmptyIdentity(t *testing.T) {
	s := newTestService(time.Now())
	_, err := s.IssueAccess("")
	assert.ErrorIs(t, err, common.ErrInvalidToken)
}
