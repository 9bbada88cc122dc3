package models

import "time"

// RevokedToken marks a refresh token id (jti) that must no longer be
// accepted. Rows can be dropped once ExpiresAt has passed, because the
// token would be rejected on expiry anyway.
type RevokedToken struct {
	TokenID   string
	UserName  string
	ExpiresAt time.Time
	RevokedAt time.Time
}
