package router

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/linguaprep/linguaprep-backend/internal/config"
	"github.com/linguaprep/linguaprep-backend/internal/handler"
	"github.com/linguaprep/linguaprep-backend/internal/middleware"
	"github.com/linguaprep/linguaprep-backend/internal/response"
	"github.com/linguaprep/linguaprep-backend/internal/service"
)

// Handlers groups all handler instances for route setup.
type Handlers struct {
	Auth    *handler.AuthHandler
	Attempt *handler.AttemptHandler
	Media   *handler.MediaHandler
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
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Authorization", "X-Request-ID"}
	corsConfig.ExposeHeaders = []string{"X-Request-ID"}
	corsConfig.MaxAge = 12 * time.Hour
	router.Use(cors.New(corsConfig))

	// Apply request ID middleware globally so every response includes metadata.
	router.Use(response.RequestIDMiddleware())

	// Apply brotli middleware globally.
	router.Use(middleware.Brotli())

	// Serve stored speaking audio statically with aggressive caching.
	// Immutable: an object key is never reused.
	uploadsGroup := router.Group("/uploads")
	uploadsGroup.Use(middleware.CacheControl(31536000))
	{
		uploadsGroup.Static("/", cfg.UploadDir)
	}

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
		auth.POST("/login", handlers.Auth.Login)

		// Authenticated profile routes
		auth.POST("/logout", middleware.RequireCandidateJWT(authService), handlers.Auth.Logout)
		auth.GET("/me", middleware.RequireCandidateJWT(authService), handlers.Auth.GetProfile)
	}

	// ─── 2. Candidate Group (JWT + Single Device) ──────────────────────
	api := router.Group("/api/v1")
	api.Use(
		middleware.RequireCandidateJWT(authService),
		middleware.CheckSingleDeviceSession(authService),
	)
	{
		api.GET("/exams", handlers.Attempt.ListExams)

		api.POST("/attempts", handlers.Attempt.StartAttempt)
		api.GET("/attempts", handlers.Attempt.ListAttempts)
		api.GET("/attempts/:attempt_id/paper", handlers.Attempt.GetPaper)
		api.GET("/attempts/:attempt_id/state", handlers.Attempt.GetState)
		api.PUT("/attempts/:attempt_id/answers/:question_id", handlers.Attempt.SetAnswer)
		api.POST("/attempts/:attempt_id/submit", handlers.Attempt.Submit)
		api.GET("/attempts/:attempt_id/result", handlers.Attempt.GetResult)

		// Speaking recorder
		api.GET("/attempts/:attempt_id/questions/:question_id/recorder", handlers.Media.GetRecorder)
		api.POST("/attempts/:attempt_id/questions/:question_id/recording/start", handlers.Media.StartRecording)
		api.POST("/attempts/:attempt_id/questions/:question_id/recording/stop", handlers.Media.StopRecording)
		api.POST("/attempts/:attempt_id/questions/:question_id/recording/save", handlers.Media.SaveRecording)
		api.POST("/attempts/:attempt_id/questions/:question_id/file", handlers.Media.UploadFile)
		api.POST("/attempts/:attempt_id/questions/:question_id/reset", handlers.Media.Reset)
	}

	// ─── 3. WebSocket Group (Candidate WS Auth) ────────────────────────
	ws := router.Group("/ws/v1")
	ws.Use(
		middleware.RequireCandidateWSAuth(authService),
		middleware.CheckSingleDeviceSession(authService),
	)
	{
		ws.GET("/attempts/:attempt_id/stream", handlers.WS.AttemptStream)
	}

	return router
}
