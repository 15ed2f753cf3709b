package router

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/oksasatya/tourguide-auth/pkg/response"
)

// APIPrefix is the group every module registers under.
const APIPrefix = "/api/v1"

// Registry collects modules and shared API middleware, then mounts them in one pass.
type Registry struct {
	Engine *gin.Engine
	API    *gin.RouterGroup

	shared  []gin.HandlerFunc
	modules []Module
	mounted bool
}

func NewRegistry(engine *gin.Engine) *Registry {
	return &Registry{Engine: engine, API: engine.Group(APIPrefix)}
}

// Use queues middleware that runs for every route under APIPrefix.
func (r *Registry) Use(mw ...gin.HandlerFunc) *Registry {
	r.shared = append(r.shared, mw...)
	return r
}

func (r *Registry) Add(mods ...Module) *Registry {
	r.modules = append(r.modules, mods...)
	return r
}

// RegisterAll mounts the queued middleware and modules. Calling it twice is a no-op since gin
// panics on duplicate routes.
func (r *Registry) RegisterAll() {
	if r.mounted {
		return
	}
	r.mounted = true

	r.API.Use(r.shared...)
	for _, m := range r.modules {
		m.Register(r.API)
	}
	r.Engine.NoRoute(notFound)
}

func notFound(c *gin.Context) {
	response.Error(c, http.StatusNotFound, fmt.Sprintf("can't find %s on this server", c.Request.URL.Path), nil)
}
