package modules

import (
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	handlers "github.com/oksasatya/tourguide-auth/internal/interface/http"
	"github.com/oksasatya/tourguide-auth/internal/interface/middleware"
)

// AuthModule registers signup, login and the password lifecycle under /users.
type AuthModule struct {
	Handler *handlers.AuthHandler
	Protect gin.HandlerFunc
	RDB     *redis.Client
	Limit   RateLimit
}

func NewAuthModule(h *handlers.AuthHandler, protect gin.HandlerFunc, rdb *redis.Client, limit RateLimit) *AuthModule {
	return &AuthModule{Handler: h, Protect: protect, RDB: rdb, Limit: limit}
}

func (m *AuthModule) Register(rg *gin.RouterGroup) {
	users := rg.Group("/users")

	// Public endpoints share one per-IP budget, so guessing passwords and reset tokens is throttled together.
	limiter := middleware.RateLimit(m.RDB, m.Limit.Max, m.Limit.Window, middleware.KeyByIP(), m.Limit.Allow)

	users.POST("/signup", m.Handler.Signup)
	users.POST("/login", limiter, m.Handler.Login)
	users.POST("/forgotPassword", limiter, m.Handler.ForgotPassword)
	users.PATCH("/resetPassword/:resetToken", limiter, m.Handler.ResetPassword)

	// Re-verifying the current password is a guessing surface too, so it is budgeted per user.
	perUser := middleware.RateLimit(m.RDB, m.Limit.Max, m.Limit.Window, middleware.KeyByUserID(), nil)
	users.PATCH("/updatePassword", m.Protect, perUser, m.Handler.UpdatePassword)
}
