package middleware

import (
	"context"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/tourguide-auth/internal/application"
	"github.com/oksasatya/tourguide-auth/internal/domain/entity"
	"github.com/oksasatya/tourguide-auth/internal/interface/httperr"
)

const (
	CtxUserIDKey      = "userID"
	CtxCurrentUserKey = "currentUser"
)

// Authenticator verifies a bearer token and resolves the active user behind it.
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (*entity.User, error)
}

// Protect requires `Authorization: Bearer <token>`. On success the user is attached to the Gin
// context and to the request context; any failure aborts with 401 before the handler runs.
func Protect(auth Authenticator, logger *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := bearerToken(c.GetHeader("Authorization"))
		if !ok {
			httperr.Write(c, logger, application.ErrUnauthenticated)
			return
		}

		u, err := auth.Authenticate(c.Request.Context(), token)
		if err != nil {
			httperr.Write(c, logger, err)
			return
		}

		c.Set(CtxCurrentUserKey, u)
		c.Set(CtxUserIDKey, u.ID)
		c.Request = c.Request.WithContext(application.WithUser(c.Request.Context(), u))
		c.Next()
	}
}

// CurrentUser returns the user attached by Protect.
func CurrentUser(c *gin.Context) (*entity.User, bool) {
	v, ok := c.Get(CtxCurrentUserKey)
	if !ok {
		return nil, false
	}
	u, ok := v.(*entity.User)
	return u, ok && u != nil
}

func bearerToken(header string) (string, bool) {
	parts := strings.SplitN(strings.TrimSpace(header), " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", false
	}
	token := strings.TrimSpace(parts[1])
	return token, token != ""
}
