// Package store defines the user store the auth core consumes. Credential
// hashes live here; the core only ever reads them and compares via
// cryptox.VerifyPassword.
package store

import (
	"context"
	"errors"

	"github.com/sentinelhq/gatekeep/internal/auth/domain"
)

var (
	ErrNotFound      = errors.New("store: not found")
	ErrAlreadyExists = errors.New("store: already exists")
)

// Store is the root data access interface. Concrete drivers (sqlite today)
// implement this.
type Store interface {
	Users() Users

	ApplyMigrations() error

	// Close releases any underlying resources.
	Close() error

	// Ping verifies the database connection is still alive.
	Ping(ctx context.Context) error
}

type Users interface {
	// GetUserByUsername is the lookup used during login and refresh. The
	// refresh path re-reads the user every time so role changes and
	// deactivation take effect on the next rotation.
	GetUserByUsername(ctx context.Context, username string) (domain.User, error)

	// CreateUser inserts a new user (id is provided by the app via ULID).
	CreateUser(ctx context.Context, u domain.User) error

	// UpdateUserRole changes a user's role and bumps updated_at.
	UpdateUserRole(ctx context.Context, username string, role domain.Role) error

	// DeleteUser removes a user. Outstanding refresh registry entries are
	// not cascaded here; the refresh path discovers the missing user and
	// rejects the token.
	DeleteUser(ctx context.Context, username string) error

	// IsEmpty returns true if there are no users.
	IsEmpty(ctx context.Context) (bool, error)
}
