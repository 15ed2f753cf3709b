package application

import (
	"context"

	"github.com/oksasatya/tourguide-auth/internal/domain/entity"
)

type currentUserKey struct{}

// WithUser returns a copy of ctx carrying the authenticated user.
func WithUser(ctx context.Context, u *entity.User) context.Context {
	return context.WithValue(ctx, currentUserKey{}, u)
}

// UserFromContext returns the user attached by WithUser.
func UserFromContext(ctx context.Context) (*entity.User, bool) {
	u, ok := ctx.Value(currentUserKey{}).(*entity.User)
	return u, ok && u != nil
}
