package models

import "time"

// User represents a registered account. Admins bypass ownership checks.
type User struct {
	ID           int64
	Email        string
	PasswordHash string
	IsAdmin      bool
	CreatedAt    time.Time
}
