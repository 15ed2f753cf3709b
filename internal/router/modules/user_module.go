package modules

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/tourguide-auth/internal/domain/entity"
	handlers "github.com/oksasatya/tourguide-auth/internal/interface/http"
	"github.com/oksasatya/tourguide-auth/internal/interface/middleware"
)

// RateLimit is the fixed-window budget applied to a group of routes.
type RateLimit struct {
	Max    int
	Window time.Duration
	Allow  middleware.AllowFunc
}

// UserModule wires profile self-service and the admin user routes.
// Protected: GET /users/me, PATCH /users/updateMe, POST /users/me/photo, DELETE /users/deleteMe
// Admin: GET /users, GET|PATCH|DELETE /users/:id
type UserModule struct {
	Handler *handlers.UserHandler
	Protect gin.HandlerFunc
	Logger  *logrus.Logger
}

func NewUserModule(h *handlers.UserHandler, protect gin.HandlerFunc, logger *logrus.Logger) *UserModule {
	return &UserModule{Handler: h, Protect: protect, Logger: logger}
}

func (m *UserModule) Register(rg *gin.RouterGroup) {
	me := rg.Group("/users")
	me.Use(m.Protect)
	{
		me.GET("/me", m.Handler.Me)
		me.PATCH("/updateMe", m.Handler.UpdateMe)
		me.POST("/me/photo", m.Handler.UploadPhoto)
		me.DELETE("/deleteMe", m.Handler.DeleteMe)
	}

	admin := rg.Group("/users")
	admin.Use(m.Protect, middleware.RequireRole(entity.NewRoleSet(entity.RoleAdmin), m.Logger))
	{
		admin.GET("", m.Handler.List)
		admin.GET("/:id", m.Handler.Get)
		admin.PATCH("/:id", m.Handler.Update)
		admin.DELETE("/:id", m.Handler.Delete)
	}
}
