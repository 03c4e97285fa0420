package router

import (
	"context"
	"time"

	"github.com/boqueria/training-api/internal/config"
	"github.com/boqueria/training-api/internal/handler"
	"github.com/boqueria/training-api/internal/middleware"
	"github.com/boqueria/training-api/internal/response"
	"github.com/boqueria/training-api/internal/service"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// Handlers groups all handler instances for route setup.
type Handlers struct {
	Training *handler.TrainingHandler
	Question *handler.QuestionHandler
	System   *handler.SystemHandler
}

// SetupRouter configures the training API. ctx bounds background work of
// the middlewares, such as the rate limiter sweep.
func SetupRouter(
	ctx context.Context,
	authService *service.AuthService,
	handlers *Handlers,
	cfg *config.Config,
) *gin.Engine {
	router := newEngine(cfg)

	// Health check.
	router.GET("/health", handlers.System.Health)

	// ─── Training API (x-api-key) ──────────────────────────────────────
	api := router.Group("/api/v1")
	api.Use(
		middleware.NewRateLimiter(ctx, cfg.RateLimitPerMinute, time.Minute).Middleware(),
		middleware.RequireAPIKey(authService),
		middleware.NoStore(),
	)
	{
		api.POST("/start_training", handlers.Training.StartTraining)
		api.POST("/get_question", handlers.Training.GetQuestion)
		api.POST("/submit_answer", handlers.Training.SubmitAnswer)
		api.POST("/get_category_list", handlers.Training.GetCategoryList)
		api.POST("/reset_training", handlers.Training.ResetTraining)

		// Debug: raw rows of one level.
		api.GET("/sheet_data", handlers.Question.SheetData)
	}

	return router
}

// SetupProxyRouter configures the forwarding proxy. The proxy checks the
// api key itself so its error bodies match the upstream's.
func SetupProxyRouter(
	ctx context.Context,
	proxy *handler.ProxyHandler,
	system *handler.SystemHandler,
	cfg *config.Config,
) *gin.Engine {
	router := newEngine(cfg)

	router.GET("/health", system.Health)
	router.POST("/quiz-api",
		middleware.NewRateLimiter(ctx, cfg.RateLimitPerMinute, time.Minute).Middleware(),
		middleware.NoStore(),
		proxy.Forward,
	)

	return router
}

func newEngine(cfg *config.Config) *gin.Engine {
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
	corsConfig.AllowMethods = []string{"GET", "POST", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", middleware.HeaderAPIKey, response.HeaderRequestID}
	corsConfig.ExposeHeaders = []string{response.HeaderRequestID}
	corsConfig.MaxAge = 12 * time.Hour
	router.Use(cors.New(corsConfig))

	// Apply request ID middleware globally so every response includes metadata.
	router.Use(response.RequestIDMiddleware())

	router.Use(middleware.Brotli())

	return router
}
