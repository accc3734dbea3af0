package server

import (
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/skillloop/skillloop-backend/internal/handlers"
	"github.com/skillloop/skillloop-backend/internal/middleware"
)

type RouterConfig struct {
	AuthHandler      *handlers.AuthHandler
	AuthMiddleware   *middleware.AuthMiddleware
	ChatHandler      *handlers.ChatHandler
	QuizHandler      *handlers.QuizHandler
	TelemetryHandler *handlers.TelemetryHandler
	AnalyticsHandler *handlers.AnalyticsHandler
	ProfileHandler   *handlers.ProfileHandler
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	router := gin.Default()

	router.Use(otelgin.Middleware("skillloop-backend"))

	router.Use(cors.New(cors.Config{
		AllowOrigins: []string{
			"http://localhost:80",
			"http://localhost:3000",
			"http://localhost:5174",
		},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "PATCH", "OPTIONS"},
		AllowHeaders:     []string{"Authorization", "Content-Type", "X-Requested-With"},
		AllowCredentials: true,
	}))

	// ===============
	// || Public    ||
	// ===============
	router.GET("/healthcheck", handlers.HealthCheck)
	router.POST("/register", cfg.AuthHandler.Register)
	router.POST("/login", cfg.AuthHandler.Login)

	// ===============
	// || Protected ||
	// ===============
	protected := router.Group("/")
	protected.Use(cfg.AuthMiddleware.RequireAuth())
	// Auth
	protected.POST("/refresh", cfg.AuthHandler.Refresh)
	protected.POST("/logout", cfg.AuthHandler.Logout)
	// Chat
	protected.POST("/chat/message", cfg.ChatHandler.SendMessage)
	protected.GET("/chat/sessions", cfg.ChatHandler.ListSessions)
	protected.GET("/chat/history", cfg.ChatHandler.ListHistory)
	protected.GET("/chat/history/:sessionID", cfg.ChatHandler.GetHistory)
	protected.DELETE("/chat/session/:sessionID", cfg.ChatHandler.DeleteSession)
	protected.DELETE("/chat/turn/:turnID", cfg.ChatHandler.DeleteTurn)
	// Quiz
	protected.POST("/quiz/generate", cfg.QuizHandler.Generate)
	protected.POST("/quiz/submit", cfg.QuizHandler.Submit)
	// Telemetry
	protected.POST("/telemetry/events", cfg.TelemetryHandler.IngestEvents)
	// Analytics
	protected.GET("/analytics/retention", cfg.AnalyticsHandler.Retention)
	protected.GET("/analytics/weaknesses", cfg.AnalyticsHandler.Weaknesses)
	// Profile
	protected.GET("/user", cfg.ProfileHandler.GetMe)
	protected.GET("/profile/skill", cfg.ProfileHandler.GetSkill)
	protected.GET("/profile/path", cfg.ProfileHandler.GetPath)
	protected.GET("/profile/mastery", cfg.ProfileHandler.GetMastery)

	return router
}
