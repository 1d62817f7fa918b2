package server

import (
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/sundale/projectcoach-backend/internal/handlers"
	"github.com/sundale/projectcoach-backend/internal/middleware"
)

type RouterConfig struct {
	ConversationHandler *handlers.ConversationHandler
	AuthMiddleware      *middleware.AuthMiddleware
	AllowOrigins        []string
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	router := gin.New()
	router.Use(gin.Logger(), gin.Recovery())
	router.Use(otelgin.Middleware("projectcoach-backend"))

	origins := cfg.AllowOrigins
	if len(origins) == 0 {
		origins = []string{
			"http://localhost:80",
			"http://localhost:3000",
			"http://localhost:5174",
		}
	}
	router.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "PATCH", "OPTIONS"},
		AllowHeaders:     []string{"Authorization", "Content-Type", "X-Requested-With"},
		AllowCredentials: true,
	}))

	// Public
	router.GET("/healthcheck", handlers.HealthCheck)

	// Protected
	api := router.Group("/api")
	api.Use(cfg.AuthMiddleware.RequireAuth())
	{
		api.POST("/sessions", cfg.ConversationHandler.CreateSession)
		api.GET("/sessions/:id", cfg.ConversationHandler.GetSession)
		api.POST("/sessions/:id/turns", cfg.ConversationHandler.PostTurn)
	}

	return router
}
