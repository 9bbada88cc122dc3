// Package models defines server-side data models persisted in the database.
package models

import "time"

// User is a Credential Store record. UserName is the identity handle used
// everywhere else in the server and never changes after creation.
type User struct {
	ID           int64
	UserName     string
	PasswordHash string
	CreatedAt    time.Time
}
