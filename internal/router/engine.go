package router

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/oksasatya/go-task-manager/internal/container"
	"github.com/oksasatya/go-task-manager/internal/interface/middleware"
	"github.com/oksasatya/go-task-manager/pkg/validation"
)

// NewEngine returns a Gin engine with global middleware and every module
// mounted at the root.
func NewEngine(c *container.Container) *gin.Engine {
	validation.Init()

	r := gin.New()
	if err := middleware.TrustProxies(r, c.Config.TrustedProxyList()); err != nil {
		c.Logger.WithError(err).Warn("invalid TRUSTED_PROXIES, forwarded headers ignored")
		_ = middleware.TrustProxies(r, nil)
	}
	r.Use(gin.Recovery())
	r.Use(middleware.RequestIDMiddleware())
	r.Use(middleware.RealIP())

	if origins := c.Config.CORSOrigins(); len(origins) > 0 {
		r.Use(cors.New(cors.Config{
			AllowOrigins:     origins,
			AllowMethods:     []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
			AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", middleware.RequestIDHeader},
			ExposeHeaders:    []string{"Content-Length", middleware.RequestIDHeader, "X-RateLimit-Remaining", "Retry-After"},
			AllowCredentials: false,
			MaxAge:           12 * time.Hour,
		}))
	}
	if c.Config.HTTPLogEnabled {
		r.Use(gin.Logger())
	}

	reg := NewRegistry(r)
	InitModules(reg, c)
	reg.RegisterAll()
	return r
}
