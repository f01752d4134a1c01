// Package server assembles the gin router and the HTTP server.
package server

import (
	"net/http"

	"bugtrack/config"
	"bugtrack/handlers"
	"bugtrack/middleware"
	"bugtrack/ratelimit"
	"bugtrack/service"
	"bugtrack/store"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

type Deps struct {
	Service     *service.Service
	Store       store.Store
	AuthLimiter ratelimit.Limiter
	Logger      *zap.Logger
}

func NewRouter(deps Deps) *gin.Engine {
	r := gin.New()
	r.Use(
		middleware.RequestID(deps.Logger),
		middleware.AccessLog(),
		gin.Recovery(),
		middleware.Metrics(),
	)

	svc := deps.Service

	r.GET("/health", handlers.HealthCheck(deps.Store))
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	authGroup := r.Group("/auth")
	{
		limited := authGroup.Group("", middleware.RateLimit(deps.AuthLimiter, "auth"))
		limited.POST("/signup", handlers.Signup(svc))
		limited.POST("/login", handlers.Login(svc))

		authGroup.GET("/profile", middleware.AuthRequired(svc), handlers.Profile(svc))
		authGroup.PATCH("/password", middleware.AuthRequired(svc), handlers.ChangePassword(svc))
	}

	projects := r.Group("/projects", middleware.AuthRequired(svc))
	{
		projects.GET("", handlers.ListProjects(svc))
		projects.POST("", handlers.CreateProject(svc))
		projects.GET("/:id", handlers.GetProject(svc))
		projects.PATCH("/:id", handlers.UpdateProject(svc))
		projects.PATCH("/:id/archive", handlers.ArchiveProject(svc))
		projects.DELETE("/:id", handlers.DeleteProject(svc))
		projects.GET("/:id/stats", handlers.ProjectStats(svc))
	}

	bugs := r.Group("/bugs", middleware.AuthRequired(svc))
	{
		bugs.GET("", handlers.ListBugs(svc))
		bugs.POST("", handlers.CreateBug(svc))
		bugs.GET("/:id", handlers.GetBug(svc))
		bugs.PATCH("/:id", handlers.UpdateBug(svc))
		bugs.DELETE("/:id", handlers.DeleteBug(svc))
	}

	return r
}

// New wraps the router in an http.Server with the configured timeouts.
func New(cfg config.ServerConfig, router http.Handler) *http.Server {
	return &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}
}
