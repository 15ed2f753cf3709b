package modules

import (
	"expvar"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"github.com/oksasatya/tourguide-auth/internal/interface/middleware"
)

// DebugModule exposes expvar counters, including the "auth" map.
type DebugModule struct {
	RDB   *redis.Client
	Limit RateLimit
}

func NewDebugModule(rdb *redis.Client, limit RateLimit) *DebugModule {
	return &DebugModule{RDB: rdb, Limit: limit}
}

func (m *DebugModule) Register(rg *gin.RouterGroup) {
	rl := middleware.RateLimit(m.RDB, m.Limit.Max, m.Limit.Window, middleware.KeyByIPAndPath(), m.Limit.Allow)
	rg.GET("/debug/vars", rl, gin.WrapH(expvar.Handler()))
}
