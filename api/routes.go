package api

import (
	"github.com/gin-gonic/gin"
	"github.com/opentracing/opentracing-go"

	"github.com/suaiden-dev/matriculausa-mvp-sub011/api/handlers"
	"github.com/suaiden-dev/matriculausa-mvp-sub011/api/middleware"
	"github.com/suaiden-dev/matriculausa-mvp-sub011/interfaces"
	"github.com/suaiden-dev/matriculausa-mvp-sub011/internal/logger"
	"github.com/suaiden-dev/matriculausa-mvp-sub011/internal/repository"
	"github.com/suaiden-dev/matriculausa-mvp-sub011/internal/tracing"
)

const AppSource = "mailrelay"

// RegisterRoutes sets up all API endpoints
func RegisterRoutes(r *gin.Engine, poller interfaces.MailboxPoller, repos *repository.Repositories, jwtSecret string, log logger.Logger) {
	if poller == nil {
		panic("Poller cannot be nil")
	}
	if repos == nil {
		panic("Repositories cannot be nil")
	}

	// Add recovery middlewares
	r.Use(gin.Recovery())                                         // Gin's built-in recovery
	r.Use(tracing.RecoveryWithJaeger(opentracing.GlobalTracer())) // Our custom Jaeger recovery

	r.GET("/health", handlers.HealthCheck)

	api := r.Group("/v1")
	api.Use(middleware.JWTAuthMiddleware(jwtSecret))
	api.Use(middleware.CustomContextMiddleware(AppSource))
	api.Use(middleware.TracingMiddleware())
	{
		poll := handlers.PollMailbox(repos.MailboxConnectionRepository, poller, log)
		api.GET("/poll", poll)
		api.POST("/poll", poll)
	}
}
