package server

import (
	"strings"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/draftline/draftline-backend/internal/handlers"
	"github.com/draftline/draftline-backend/internal/middleware"
)

type RouterConfig struct {
	ServiceName        string
	AllowedOrigins     []string
	AuthHandler        *handlers.AuthHandler
	AuthMiddleware     *middleware.AuthMiddleware
	ProfileHandler     *handlers.ProfileHandler
	TranscribeHandler  *handlers.TranscribeHandler
	IngestHandler      *handlers.IngestHandler
	SuggestionsHandler *handlers.SuggestionsHandler
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	router := gin.Default()

	serviceName := strings.TrimSpace(cfg.ServiceName)
	if serviceName == "" {
		serviceName = "draftline-backend"
	}
	router.Use(otelgin.Middleware(serviceName))

	origins := cfg.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"http://localhost:3000", "http://localhost:5173"}
	}
	router.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "PATCH", "OPTIONS"},
		AllowHeaders:     []string{"Authorization", "Content-Type", "X-Requested-With"},
		AllowCredentials: true,
	}))

	// ===============
	// || Public    ||
	// ===============
	router.GET("/healthcheck", handlers.HealthCheck)
	api := router.Group("/api")
	{
		api.POST("/register", cfg.AuthHandler.Register)
		api.POST("/login", cfg.AuthHandler.Login)
	}

	// ===============
	// || Protected ||
	// ===============
	protected := router.Group("/api")
	protected.Use(cfg.AuthMiddleware.RequireAuth())
	// Auth
	protected.POST("/refresh", cfg.AuthHandler.Refresh)
	protected.POST("/logout", cfg.AuthHandler.Logout)
	// Profile
	protected.GET("/profile", cfg.ProfileHandler.GetOwn)
	protected.POST("/profile", cfg.ProfileHandler.Upsert)
	protected.GET("/profile/:userId", cfg.ProfileHandler.GetByUserID)
	protected.GET("/users", cfg.ProfileHandler.ListUsers)
	// Transcription
	protected.POST("/transcribe", cfg.TranscribeHandler.Transcribe)
	// Vector ingestion
	protected.POST("/ingest", cfg.IngestHandler.Ingest)
	// Suggestions
	protected.GET("/suggestions", cfg.SuggestionsHandler.Stream)
	protected.GET("/suggestions/recent", cfg.SuggestionsHandler.Recent)

	return router
}
