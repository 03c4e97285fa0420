package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/boqueria/training-api/internal/config"
	"github.com/boqueria/training-api/internal/database"
	"github.com/boqueria/training-api/internal/handler"
	"github.com/boqueria/training-api/internal/logger"
	"github.com/boqueria/training-api/internal/repository"
	"github.com/boqueria/training-api/internal/router"
	"github.com/boqueria/training-api/internal/service"
	"github.com/boqueria/training-api/internal/validator"
	"github.com/boqueria/training-api/internal/worker"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

func main() {
	// ─── Load Configuration ────────────────────────────────────────────
	cfg := config.Load()

	// ─── Initialize Logger ─────────────────────────────────────────────
	log := logger.Setup(cfg.LogLevel, cfg.LogFormat)
	log.Info().
		Str("port", cfg.ServerPort).
		Str("mode", cfg.GinMode).
		Str("log_level", cfg.LogLevel).
		Str("source", cfg.QuestionSource).
		Str("session_store", cfg.SessionStore).
		Int("levels", len(cfg.Levels)).
		Msg("Starting training API")

	if len(cfg.Levels) == 0 {
		log.Fatal().Msg("LEVELS must name at least one level")
	}
	if cfg.InternalAPIKey == "" && cfg.InternalAPIKeyHash == "" {
		log.Warn().Msg("No INTERNAL_API_KEY configured, every API request will be rejected")
	}

	// ─── Initialize Validator ──────────────────────────────────────────
	validator.Setup()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// ─── Connect to PostgreSQL (optional) ──────────────────────────────
	pool, err := database.NewPostgresPool(ctx, cfg, log)
	switch {
	case errors.Is(err, database.ErrNotConfigured):
		pool = nil
	case err != nil:
		log.Fatal().Err(err).Msg("Failed to connect to PostgreSQL")
	default:
		defer pool.Close()
	}

	// ─── Connect to Redis (optional) ───────────────────────────────────
	rdb, err := database.NewRedisClient(ctx, cfg, log)
	switch {
	case errors.Is(err, database.ErrNotConfigured):
		rdb = nil
	case err != nil:
		log.Fatal().Err(err).Msg("Failed to connect to Redis")
	default:
		defer rdb.Close()
	}

	// ─── Initialize Repositories ───────────────────────────────────────
	source, err := newQuestionSource(cfg, pool, rdb, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to set up question source")
	}
	sessions, err := newSessionStore(cfg, rdb)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to set up session store")
	}

	var answerLog service.AnswerLogPusher
	logAnswers := cfg.AnswerLogEnabled && pool != nil && rdb != nil
	if logAnswers {
		answerLog = repository.NewAnswerLogQueue(rdb)
	} else if cfg.AnswerLogEnabled {
		log.Warn().Msg("ANSWER_LOG_ENABLED needs both DATABASE_URL and REDIS_URL, answer log disabled")
	}

	// ─── Initialize Services ──────────────────────────────────────────
	authService := service.NewAuthService(cfg)
	trainingService := service.NewTrainingService(sessions, source, cfg.Levels, answerLog, log)
	questionService := service.NewQuestionService(source)

	// ─── Initialize Handlers ──────────────────────────────────────────
	handlers := &router.Handlers{
		Training: handler.NewTrainingHandler(trainingService, log),
		Question: handler.NewQuestionHandler(questionService, log),
		System:   handler.NewSystemHandler(rdb, log),
	}

	// ─── Start Background Workers ─────────────────────────────────────
	workerCtx, workerCancel := context.WithCancel(context.Background())
	var workers sync.WaitGroup

	if logAnswers {
		answerLogWorker := worker.NewAnswerLogWorker(pool, rdb, log)
		workers.Add(1)
		go func() {
			defer workers.Done()
			answerLogWorker.Start(workerCtx)
		}()
	}

	// ─── Setup Router ──────────────────────────────────────────────────
	r := router.SetupRouter(ctx, authService, handlers, cfg)

	// ─── Create HTTP Server ────────────────────────────────────────────
	srv := &http.Server{
		Addr:              ":" + cfg.ServerPort,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// ─── Start Server in Goroutine ─────────────────────────────────────
	go func() {
		log.Info().Str("addr", ":"+cfg.ServerPort).Msg("Server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("Server error")
		}
	}()

	// ─── Graceful Shutdown ─────────────────────────────────────────────
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit

	log.Info().Str("signal", sig.String()).Msg("Shutting down gracefully...")

	// 1. Stop accepting new HTTP requests (5s timeout).
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("HTTP server shutdown error")
	}

	// 2. Stop background workers and wait for the last batch to flush.
	workerCancel()
	workers.Wait()

	log.Info().Msg("Shutdown complete")
}

// newQuestionSource builds the configured source, wrapped with the Redis row
// cache when Redis is available.
func newQuestionSource(cfg *config.Config, pool *pgxpool.Pool, rdb *redis.Client, log zerolog.Logger) (repository.QuestionSource, error) {
	var source repository.QuestionSource
	switch cfg.QuestionSource {
	case config.SourceXLSX:
		source = repository.NewXLSXQuestionSource(cfg.XLSXPath)
	case config.SourceGSheet:
		if cfg.SpreadsheetID == "" {
			return nil, fmt.Errorf("QUESTION_SOURCE=%s requires SPREADSHEET_ID", cfg.QuestionSource)
		}
		source = repository.NewSheetQuestionSource(cfg.SheetsBaseURL, cfg.SpreadsheetID, cfg.SourceTimeout).
			WithSheetGIDs(cfg.SheetGIDs)
	case config.SourcePostgres:
		if pool == nil {
			return nil, fmt.Errorf("QUESTION_SOURCE=%s requires DATABASE_URL", cfg.QuestionSource)
		}
		source = repository.NewPostgresQuestionSource(pool)
	default:
		return nil, fmt.Errorf("unknown QUESTION_SOURCE %q", cfg.QuestionSource)
	}

	if rdb != nil && cfg.RowCacheTTL > 0 {
		source = repository.NewCachedQuestionSource(source, rdb, cfg.RowCacheTTL, log)
	}
	return source, nil
}

func newSessionStore(cfg *config.Config, rdb *redis.Client) (repository.SessionStore, error) {
	switch cfg.SessionStore {
	case config.SessionStoreMemory:
		return repository.NewMemorySessionStore(), nil
	case config.SessionStoreRedis:
		if rdb == nil {
			return nil, fmt.Errorf("SESSION_STORE=%s requires REDIS_URL", cfg.SessionStore)
		}
		return repository.NewRedisSessionStore(rdb, cfg.SessionTTL), nil
	default:
		return nil, fmt.Errorf("unknown SESSION_STORE %q", cfg.SessionStore)
	}
}

// init sets zerolog global defaults before main runs.
func init() {
	zerolog.TimeFieldFormat = time.RFC3339
}
