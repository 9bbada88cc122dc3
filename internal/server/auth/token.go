// Package auth issues and validates the signed access and refresh tokens
// that gate the HTTP API and the chat endpoint, and hashes passwords.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/chatbook/internal/common"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

type TokenType string

const (
	TokenTypeAccess  TokenType = "access"
	TokenTypeRefresh TokenType = "refresh"
)

// Claims is the payload of both token kinds. Subject holds the identity.
type Claims struct {
	jwt.RegisteredClaims
	Type TokenType `json:"type"`
}

// Identity returns the username the token was issued to.
func (c *Claims) Identity() string { return c.Subject }

type TokenService struct {
	secret     []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
	now        func() time.Time
}

func NewTokenService(secret string, accessTTL, refreshTTL time.Duration) *TokenService {
	return &TokenService{
		secret:     []byte(secret),
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
		now:        time.Now,
	}
}

func (s *TokenService) IssueAccess(identity string) (string, error) {
	token, _, err := s.issue(identity, TokenTypeAccess, s.accessTTL)
	return token, err
}

// IssueRefresh also returns the claims so callers can record the jti.
func (s *TokenService) IssueRefresh(identity string) (string, *Claims, error) {
	return s.issue(identity, TokenTypeRefresh, s.refreshTTL)
}

func (s *TokenService) issue(identity string, typ TokenType, ttl time.Duration) (string, *Claims, error) {
	if identity == "" {
		return "", nil, fmt.Errorf("%w: empty identity", common.ErrInvalidToken)
	}
	now := s.now()
	claims := &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   identity,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			ID:        uuid.NewString(),
		},
		Type: typ,
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", nil, fmt.Errorf("sign token: %w", err)
	}
	return signed, claims, nil
}

// ValidateAccess returns the identity carried by an access token.
// Refresh tokens are not accepted here.
func (s *TokenService) ValidateAccess(token string) (string, error) {
	claims, err := s.parse(token, TokenTypeAccess)
	if err != nil {
		return "", err
	}
	return claims.Identity(), nil
}

// ValidateRefresh requires the type marker to be "refresh".
func (s *TokenService) ValidateRefresh(token string) (*Claims, error) {
	return s.parse(token, TokenTypeRefresh)
}

func (s *TokenService) parse(token string, want TokenType) (*Claims, error) {
	claims := &Claims{}
	_, err := jwt.ParseWithClaims(token, claims,
		func(t *jwt.Token) (any, error) { return s.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(s.now),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, common.ErrTokenExpired
		}
		return nil, fmt.Errorf("%w: %v", common.ErrInvalidToken, err)
	}
	if claims.Type != want {
		return nil, fmt.Errorf("%w: token type %q", common.ErrInvalidToken, claims.Type)
	}
	if claims.Subject == "" {
		return nil, fmt.Errorf("%w: missing subject", common.ErrInvalidToken)
	}
	return claims, nil
}
