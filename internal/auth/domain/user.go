package domain

import "time"

// User is a row in the user store. The auth core never mutates users; they
// are owned by whatever provisions accounts (see cmd/gatekeep-init).
type User struct {
	ID           string
	Username     string
	PasswordHash string // argon2id PHC encoded
	Role         Role
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
