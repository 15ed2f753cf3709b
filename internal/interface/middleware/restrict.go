package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/tourguide-auth/internal/application"
	"github.com/oksasatya/tourguide-auth/internal/domain/entity"
	"github.com/oksasatya/tourguide-auth/internal/interface/httperr"
)

// RequireRole lets the request through only when the user attached by Protect holds one of allowed.
// It must be mounted after Protect.
func RequireRole(allowed entity.RoleSet, logger *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		u, ok := CurrentUser(c)
		if !ok {
			httperr.Write(c, logger, application.ErrUnauthenticated)
			return
		}
		if !allowed.Contains(u.Role) {
			httperr.Write(c, logger, application.ErrForbidden)
			return
		}
		c.Next()
	}
}
