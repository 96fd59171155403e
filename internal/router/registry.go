package router

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// HealthCheck reports whether one dependency is reachable.
type HealthCheck func(ctx context.Context) error

type Registry struct {
	Engine      *gin.Engine
	API         *gin.RouterGroup
	middlewares []gin.HandlerFunc
	modules     []Module
	checks      map[string]HealthCheck
}

func NewRegistry(engine *gin.Engine) *Registry {
	api := engine.Group("/api")
	return &Registry{Engine: engine, API: api, checks: map[string]HealthCheck{}}
}

func (r *Registry) Use(mw ...gin.HandlerFunc) {
	r.middlewares = append(r.middlewares, mw...)
}

func (r *Registry) Add(mod Module) {
	r.modules = append(r.modules, mod)
}

// AddHealthCheck adds a dependency probed by GET /healthz.
func (r *Registry) AddHealthCheck(name string, check HealthCheck) {
	r.checks[name] = check
}

func (r *Registry) RegisterAll() {
	if len(r.middlewares) > 0 {
		r.API.Use(r.middlewares...)
	}
	for _, m := range r.modules {
		m.Register(r.API)
	}
	r.Engine.GET("/healthz", r.health)
}

// health answers 200 when every check passes and 503 otherwise, listing each
// dependency's state.
func (r *Registry) health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 3*time.Second)
	defer cancel()

	status := http.StatusOK
	report := make(map[string]string, len(r.checks))
	for name, check := range r.checks {
		if err := check(ctx); err != nil {
			report[name] = err.Error()
			status = http.StatusServiceUnavailable
			continue
		}
		report[name] = "ok"
	}
	c.JSON(status, gin.H{"status": http.StatusText(status), "checks": report})
}
