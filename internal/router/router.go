package router

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/bpcprep/examportal-backend/internal/config"
	"github.com/bpcprep/examportal-backend/internal/handler"
	"github.com/bpcprep/examportal-backend/internal/middleware"
	"github.com/bpcprep/examportal-backend/internal/response"
	"github.com/bpcprep/examportal-backend/internal/service"
)

// Handlers groups all handler instances for route setup.
type Handlers struct {
	Auth    *handler.AuthHandler
	Exam    *handler.ExamHandler
	Attempt *handler.AttemptHandler
	WS      *handler.WSHandler
}

// SetupRouter configures all Gin route groups with appropriate middlewares.
func SetupRouter(
	authService *service.AuthService,
	handlers *Handlers,
	cfg *config.Config,
) *gin.Engine {
	gin.SetMode(cfg.GinMode)
	router := gin.Default()

	// ─── CORS ──────────────────────────────────────────────────────────
	// If AllowedOrigins is set in config, restrict to that list;
	// otherwise allow all (*) so dev works without extra config.
	corsConfig := cors.DefaultConfig()
	if len(cfg.AllowedOrigins) > 0 {
		corsConfig.AllowOrigins = cfg.AllowedOrigins
	} else {
		corsConfig.AllowAllOrigins = true
	}
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Authorization", "X-Request-ID"}
	corsConfig.ExposeHeaders = []string{"X-Request-ID"}
	corsConfig.MaxAge = 12 * time.Hour
	router.Use(cors.New(corsConfig))

	// Apply request ID middleware globally so every response includes metadata.
	router.Use(response.RequestIDMiddleware())

	// Health check.
	router.GET("/health", func(c *gin.Context) {
		response.Success(c, http.StatusOK, gin.H{"status": "ok"})
	})

	// Rate limiter for auth routes (30 requests per minute per IP).
	authLimiter := middleware.NewRateLimiter(30, time.Minute)

	// ─── 1. Auth Group (Public, Rate Limited) ──────────────────────────
	auth := router.Group("/api/v1/auth")
	auth.Use(authLimiter.Middleware())
	{
		auth.POST("/register", handlers.Auth.Register)
		auth.POST("/login", handlers.Auth.Login)

		// Authenticated profile routes
		auth.POST("/logout", middleware.RequireJWT(authService), handlers.Auth.Logout)
		auth.GET("/me", middleware.RequireJWT(authService), handlers.Auth.GetProfile)
	}

	// ─── 2. Exam Group ─────────────────────────────────────────────────
	examGroup := router.Group("/api/v1/exam")
	{
		// Format summary is public (shown on the landing page).
		examGroup.GET("/config", handlers.Exam.GetConfig)

		authed := examGroup.Group("")
		authed.Use(middleware.RequireJWT(authService))
		{
			authed.POST("/session", handlers.Exam.StartSession)
			authed.GET("/session", handlers.Exam.GetSession)
			authed.DELETE("/session", handlers.Exam.Abandon)
			authed.GET("/questions", handlers.Exam.GetQuestions)
			authed.PUT("/answer", handlers.Exam.SaveAnswer)
			authed.POST("/flag/:question_id", handlers.Exam.ToggleFlag)
			authed.POST("/submit", handlers.Exam.Submit)
			authed.GET("/results", handlers.Exam.GetResults)
		}
	}

	// ─── 3. Attempt History ────────────────────────────────────────────
	attempts := router.Group("/api/v1/attempts")
	attempts.Use(middleware.RequireJWT(authService))
	{
		attempts.GET("", handlers.Attempt.ListAttempts)
	}

	// ─── 4. WebSocket (token via query param) ──────────────────────────
	ws := router.Group("/ws/v1")
	ws.Use(middleware.RequireWSAuth(authService))
	{
		ws.GET("/exam/clock", handlers.WS.ExamClockStream)
	}

	return router
}
