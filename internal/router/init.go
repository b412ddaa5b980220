package router

import (
	"github.com/oksasatya/go-task-manager/internal/container"
	handlers "github.com/oksasatya/go-task-manager/internal/interface/http"
	"github.com/oksasatya/go-task-manager/internal/interface/middleware"
	"github.com/oksasatya/go-task-manager/internal/router/modules"
)

// InitModules builds handlers from c and adds every feature module to r.
func InitModules(r *Registry, c *container.Container) {
	limiter := middleware.NewLimiter(c.Redis, c.Config.RateLimitEnabled, c.Logger)
	auth := middleware.Auth(c.Sessions)

	r.Add(modules.NewUserModule(handlers.NewUserHandler(c.Users, c.Sessions, c.Logger), auth, limiter))
	r.Add(modules.NewTaskModule(handlers.NewTaskHandler(c.Tasks, c.Logger), auth, limiter))
	if c.Config.DebugMetricsEnabled {
		r.Add(modules.NewDebugModule(limiter))
	}
}
