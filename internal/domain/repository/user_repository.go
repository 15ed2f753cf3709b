package repository

import (
	"context"
	"errors"
	"time"

	"github.com/oksasatya/tourguide-auth/internal/domain/entity"
)

var (
	// ErrNotFound is returned when no active user matches a lookup or update.
	ErrNotFound = errors.New("user not found")
	// ErrDuplicateEmail is returned when the email is already registered.
	ErrDuplicateEmail = errors.New("email already registered")
)

// SaveOptions controls how Save persists a user.
type SaveOptions struct {
	// SkipValidation persists without running User.Validate, used for reset-challenge bookkeeping.
	SkipValidation bool
	// ExpectResetHash makes the write conditional on the stored reset digest still equalling this
	// value with an expiry after ExpectResetLiveAt. A lost race yields ErrNotFound.
	ExpectResetHash   string
	ExpectResetLiveAt time.Time
}

// ListOptions pages through active users.
type ListOptions struct {
	Limit  int
	Offset int
}

// UserRepository is the user directory. Every method only sees active accounts.
type UserRepository interface {
	Create(ctx context.Context, u *entity.User) error
	FindByID(ctx context.Context, id string) (*entity.User, error)
	FindByEmail(ctx context.Context, email string) (*entity.User, error)
	// FindByResetTokenHash matches the stored digest and requires the expiry to be after notExpiredBefore.
	FindByResetTokenHash(ctx context.Context, hash string, notExpiredBefore time.Time) (*entity.User, error)
	// Save writes every mutable column of u in one statement.
	Save(ctx context.Context, u *entity.User, opts SaveOptions) error
	List(ctx context.Context, opts ListOptions) ([]*entity.User, error)
}
