// Package services contains server-side business logic. UserService covers
// registration, login and the token lifecycle; MessageService persists
// direct messages and serves conversation history.
package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/chatbook/internal/common"
	"github.com/dmitrijs2005/chatbook/internal/server/auth"
	"github.com/dmitrijs2005/chatbook/internal/server/models"
	"github.com/dmitrijs2005/chatbook/internal/server/repositories/repomanager"
	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// Credentials is what a client submits to register or log in.
type Credentials struct {
	Username string `json:"username" validate:"required,max=64,excludesall=/?#"`
	Password string `json:"password" validate:"required,max=72"`
}

// TokenPair bundles a short-lived access token and a long-lived refresh token.
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type"`
}

type UserService struct {
	repos          repomanager.RepositoryManager
	tokens         *auth.TokenService
	revokeRotated  bool
	now            func() time.Time
	hashPassword   func(string) (string, error)
	verifyPassword func(hash, password string) bool
}

// NewUserService wires the service. With revokeRotated set, refresh tokens
// are single use: rotation and logout put their jti on the revocation list.
func NewUserService(m repomanager.RepositoryManager, tokens *auth.TokenService, revokeRotated bool) *UserService {
	return &UserService{
		repos:          m,
		tokens:         tokens,
		revokeRotated:  revokeRotated,
		now:            time.Now,
		hashPassword:   auth.HashPassword,
		verifyPassword: auth.CheckPassword,
	}
}

// Register creates a user. Invalid input yields ErrValidation and a taken
// username ErrorAlreadyExists.
func (s *UserService) Register(ctx context.Context, c Credentials) (*models.User, error) {
	if err := validate.Struct(c); err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrValidation, err)
	}

	hash, err := s.hashPassword(c.Password)
	if err != nil {
		return nil, common.ErrorInternal
	}

	u, err := s.repos.Users().Create(ctx, &models.User{UserName: c.Username, PasswordHash: hash})
	if err != nil {
		if errors.Is(err, common.ErrorAlreadyExists) {
			return nil, err
		}
		return nil, fmt.Errorf("error creating user: %w", err)
	}
	return u, nil
}

// Login checks the password and issues a fresh TokenPair.
// Unknown users and wrong passwords both give ErrorUnauthorized.
func (s *UserService) Login(ctx context.Context, c Credentials) (*TokenPair, error) {
	user, err := s.repos.Users().GetUserByLogin(ctx, c.Username)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrorUnauthorized
		}
		return nil, common.ErrorInternal
	}
	if !s.verifyPassword(user.PasswordHash, c.Password) {
		return nil, common.ErrorUnauthorized
	}
	return s.generateTokenPair(user.UserName)
}

// RefreshToken validates a refresh token and returns a new pair for the same
// identity. The identity must still exist.
func (s *UserService) RefreshToken(ctx context.Context, refreshToken string) (*TokenPair, error) {
	claims, err := s.tokens.ValidateRefresh(refreshToken)
	if err != nil {
		return nil, err
	}

	if _, err := s.repos.Users().GetUserByLogin(ctx, claims.Identity()); err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrorUnauthorized
		}
		return nil, common.ErrorInternal
	}

	if s.revokeRotated {
		if err := s.revoke(ctx, claims); err != nil {
			return nil, err
		}
	}

	return s.generateTokenPair(claims.Identity())
}

// Logout is an acknowledgement for stateless tokens. With revocation on, a
// valid refresh token passed in is revoked; anything else is ignored.
func (s *UserService) Logout(ctx context.Context, refreshToken string) error {
	if !s.revokeRotated || refreshToken == "" {
		return nil
	}
	claims, err := s.tokens.ValidateRefresh(refreshToken)
	if err != nil {
		return nil
	}
	if err := s.revoke(ctx, claims); err != nil && !errors.Is(err, common.ErrTokenRevoked) {
		return err
	}
	return nil
}

// Authenticate returns the identity behind an access token.
func (s *UserService) Authenticate(accessToken string) (string, error) {
	return s.tokens.ValidateAccess(accessToken)
}

func (s *UserService) ListUsers(ctx context.Context) ([]*models.User, error) {
	users, err := s.repos.Users().List(ctx)
	if err != nil {
		return nil, fmt.Errorf("error listing users: %w", err)
	}
	return users, nil
}

// CleanupRevokedTokens drops revocation entries for tokens that have expired anyway.
func (s *UserService) CleanupRevokedTokens(ctx context.Context) (int64, error) {
	return s.repos.RevokedTokens().DeleteExpired(ctx, s.now())
}

func (s *UserService) revoke(ctx context.Context, claims *auth.Claims) error {
	return s.repos.InTx(ctx, func(ctx context.Context, tx repomanager.RepositoryManager) error {
		var expires time.Time
		if claims.ExpiresAt != nil {
			expires = claims.ExpiresAt.Time
		}
		inserted, err := tx.RevokedTokens().Revoke(ctx, &models.RevokedToken{
			TokenID:   claims.ID,
			UserName:  claims.Identity(),
			ExpiresAt: expires,
		})
		if err != nil {
			return common.ErrorInternal
		}
		if !inserted {
			return common.ErrTokenRevoked
		}
		return nil
	})
}

func (s *UserService) generateTokenPair(identity string) (*TokenPair, error) {
	access, err := s.tokens.IssueAccess(identity)
	if err != nil {
		return nil, common.ErrorInternal
	}
	refresh, _, err := s.tokens.IssueRefresh(identity)
	if err != nil {
		return nil, common.ErrorInternal
	}
	return &TokenPair{AccessToken: access, RefreshToken: refresh, TokenType: common.TokenTypeBearer}, nil
}
