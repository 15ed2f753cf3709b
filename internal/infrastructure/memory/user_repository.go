// Package memory provides an in-process user directory for local development and tests.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/oksasatya/tourguide-auth/internal/domain/entity"
	"github.com/oksasatya/tourguide-auth/internal/domain/repository"
)

// UserRepository keeps users in a map guarded by a mutex. Values are copied on the way in and out
// so callers never share a *entity.User with the store.
type UserRepository struct {
	mu    sync.RWMutex
	users map[string]*entity.User
	now   func() time.Time
}

func NewUserRepository() *UserRepository {
	return &UserRepository{users: make(map[string]*entity.User), now: time.Now}
}

func clone(u *entity.User) *entity.User {
	cp := *u
	if u.PasswordChangedAt != nil {
		t := *u.PasswordChangedAt
		cp.PasswordChangedAt = &t
	}
	if u.PasswordResetExpiresAt != nil {
		t := *u.PasswordResetExpiresAt
		cp.PasswordResetExpiresAt = &t
	}
	return &cp
}

func (r *UserRepository) Create(ctx context.Context, u *entity.User) error {
	if err := u.Validate(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.users {
		if existing.Email == u.Email {
			return repository.ErrDuplicateEmail
		}
	}
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	now := r.now()
	u.CreatedAt, u.UpdatedAt = now, now
	u.Active = true
	r.users[u.ID] = clone(u)
	return nil
}

func (r *UserRepository) FindByID(ctx context.Context, id string) (*entity.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	u, ok := r.users[id]
	if !ok || !u.Active {
		return nil, repository.ErrNotFound
	}
	return clone(u), nil
}

func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*entity.User, error) {
	return r.findFirst(func(u *entity.User) bool { return u.Email == email })
}

func (r *UserRepository) FindByResetTokenHash(ctx context.Context, hash string, notExpiredBefore time.Time) (*entity.User, error) {
	if hash == "" {
		return nil, repository.ErrNotFound
	}
	return r.findFirst(func(u *entity.User) bool {
		return u.PasswordResetTokenHash == hash && u.HasLiveResetChallenge(notExpiredBefore)
	})
}

func (r *UserRepository) findFirst(match func(u *entity.User) bool) (*entity.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, u := range r.users {
		if u.Active && match(u) {
			return clone(u), nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *UserRepository) Save(ctx context.Context, u *entity.User, opts repository.SaveOptions) error {
	if !opts.SkipValidation {
		if err := u.Validate(); err != nil {
			return err
		}
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	existing, ok := r.users[u.ID]
	if !ok || !existing.Active {
		return repository.ErrNotFound
	}
	if opts.ExpectResetHash != "" &&
		(existing.PasswordResetTokenHash != opts.ExpectResetHash || !existing.HasLiveResetChallenge(opts.ExpectResetLiveAt)) {
		return repository.ErrNotFound
	}
	for id, other := range r.users {
		if id != u.ID && other.Email == u.Email {
			return repository.ErrDuplicateEmail
		}
	}
	u.CreatedAt = existing.CreatedAt
	u.UpdatedAt = r.now()
	r.users[u.ID] = clone(u)
	return nil
}

func (r *UserRepository) List(ctx context.Context, opts repository.ListOptions) ([]*entity.User, error) {
	r.mu.RLock()
	out := make([]*entity.User, 0, len(r.users))
	for _, u := range r.users {
		if u.Active {
			out = append(out, clone(u))
		}
	}
	r.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	offset := max(opts.Offset, 0)
	if offset >= len(out) {
		return []*entity.User{}, nil
	}
	out = out[offset:]
	if opts.Limit > 0 && opts.Limit < len(out) {
		out = out[:opts.Limit]
	}
	return out, nil
}

var _ repository.UserRepository = (*UserRepository)(nil)
