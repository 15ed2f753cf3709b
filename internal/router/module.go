package router

import (
	"github.com/gin-gonic/gin"

	"github.com/oksasatya/tourguide-auth/internal/router/modules"
)

// Module is a feature module that registers its routes on the APIPrefix group.
type Module interface {
	Register(rg *gin.RouterGroup)
}

var (
	_ Module = (*modules.AuthModule)(nil)
	_ Module = (*modules.UserModule)(nil)
	_ Module = (*modules.DebugModule)(nil)
)
