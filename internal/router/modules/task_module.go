package modules

import (
	"time"

	"github.com/gin-gonic/gin"

	handlers "github.com/oksasatya/go-task-manager/internal/interface/http"
	"github.com/oksasatya/go-task-manager/internal/interface/middleware"
)

// TaskModule routes the owner-scoped task endpoints; all require a bearer token.
type TaskModule struct {
	Handler *handlers.TaskHandler
	Auth    gin.HandlerFunc
	Limiter *middleware.Limiter
}

func NewTaskModule(h *handlers.TaskHandler, auth gin.HandlerFunc, limiter *middleware.Limiter) *TaskModule {
	return &TaskModule{Handler: h, Auth: auth, Limiter: limiter}
}

func (m *TaskModule) Register(rg *gin.RouterGroup) {
	tasks := rg.Group("/tasks", m.Auth, m.Limiter.Limit(300, time.Minute, middleware.KeyByUser(), nil))
	{
		tasks.POST("", m.Handler.Create)
		tasks.GET("", m.Handler.List)
		tasks.GET("/search", m.Limiter.Limit(60, time.Minute, middleware.KeyByUser(), nil), m.Handler.Search)
		tasks.GET("/:id", m.Handler.Get)
		tasks.PATCH("/:id", m.Handler.Update)
		tasks.DELETE("/:id", m.Handler.Delete)
	}
}
