package modules

import (
	"time"

	"github.com/gin-gonic/gin"

	handlers "github.com/oksasatya/go-task-manager/internal/interface/http"
	"github.com/oksasatya/go-task-manager/internal/interface/middleware"
)

// UserModule routes account, session and avatar endpoints.
// Public: POST /users, POST /login, GET /users/:id/avatar
// Protected: /users/me, /users/logout, /users/logoutAll, /users/me/avatar
type UserModule struct {
	Handler *handlers.UserHandler
	Auth    gin.HandlerFunc
	Limiter *middleware.Limiter
}

func NewUserModule(h *handlers.UserHandler, auth gin.HandlerFunc, limiter *middleware.Limiter) *UserModule {
	return &UserModule{Handler: h, Auth: auth, Limiter: limiter}
}

func (m *UserModule) Register(rg *gin.RouterGroup) {
	signup := m.Limiter.Limit(10, time.Minute, middleware.KeyByIPAndPath(), nil)
	login := m.Limiter.Limit(10, time.Minute, middleware.KeyByIPAndPath(), nil)
	avatars := m.Limiter.Limit(300, time.Minute, middleware.KeyByIP(), nil)

	rg.POST("/users", signup, m.Handler.Register)
	rg.POST("/login", login, m.Handler.Login)
	rg.GET("/users/:id/avatar", avatars, m.Handler.Avatar)

	auth := rg.Group("/users", m.Auth, m.Limiter.Limit(120, time.Minute, middleware.KeyByUser(), nil))
	{
		auth.GET("/me", m.Handler.Me)
		auth.PATCH("/me", m.Handler.UpdateMe)
		auth.DELETE("/me", m.Handler.DeleteMe)
		auth.POST("/logout", m.Handler.Logout)
		auth.POST("/logoutAll", m.Handler.LogoutAll)
		auth.POST("/me/avatar", m.Handler.UploadAvatar)
		auth.DELETE("/me/avatar", m.Handler.DeleteAvatar)
	}
}
