package users

import (
	"context"
	"errors"
)

var (
	// ErrNotFound is returned when no account matches a lookup
	ErrNotFound = errors.New("account not found")
	// ErrDuplicate is returned when a write violates a uniqueness constraint
	// (username, email, or the single-superuser rule)
	ErrDuplicate = errors.New("account already exists")
)

// Repo is the credential store. Implementations enforce unique usernames, unique
// emails and at most one superuser, returning ErrDuplicate on violation.
type Repo interface {
	Create(ctx context.Context, account *Account) error
	Update(ctx context.Context, account *Account) error
	GetByID(ctx context.Context, id string) (*Account, error)
	// FindByLogin finds the account whose username or email equals identifier and whose role matches
	FindByLogin(ctx context.Context, identifier string, role Role) (*Account, error)
	// ExistsByUsernameOrEmail reports whether either value is already taken by any account
	ExistsByUsernameOrEmail(ctx context.Context, username, email string) (bool, error)
	GetByEmail(ctx context.Context, email string) (*Account, error)
	FindByRole(ctx context.Context, role Role) ([]*Account, error)
	FindByRefreshTokenHash(ctx context.Context, hash string) (*Account, error)
	List(ctx context.Context) ([]*Account, error)
	Ping(ctx context.Context) error
}
