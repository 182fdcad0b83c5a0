package service

import (
	"context"
	"time"

	"github.com/sentinelhq/gatekeep/internal/auth/domain"
	"github.com/sentinelhq/gatekeep/internal/auth/store"
	"github.com/sentinelhq/gatekeep/pkg/cryptox"
	"github.com/sentinelhq/gatekeep/pkg/idx"
)

type UserService struct {
	Store store.Store
}

// GetUserByUsername fetches a user by username.
func (s *UserService) GetUserByUsername(ctx context.Context, username string) (domain.User, error) {
	return s.Store.Users().GetUserByUsername(ctx, username)
}

// CreateUser hashes the password and inserts a new user record.
func (s *UserService) CreateUser(ctx context.Context, username, password string, role domain.Role) (domain.User, error) {
	hash, err := cryptox.HashPassword(password)
	if err != nil {
		return domain.User{}, err
	}

	now := time.Now().UTC()
	u := domain.User{
		ID:           idx.New().String(),
		Username:     username,
		PasswordHash: hash,
		Role:         role,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.Store.Users().CreateUser(ctx, u); err != nil {
		return domain.User{}, err
	}
	return u, nil
}

// SetRole changes a user's role. Tokens already issued keep their old role
// claim until they expire or rotate.
func (s *UserService) SetRole(ctx context.Context, username string, role domain.Role) error {
	return s.Store.Users().UpdateUserRole(ctx, username, role)
}
