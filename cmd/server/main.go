package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/codepractice/codepractice-backend/internal/cache"
	"github.com/codepractice/codepractice-backend/internal/config"
	"github.com/codepractice/codepractice-backend/internal/database"
	"github.com/codepractice/codepractice-backend/internal/executor"
	"github.com/codepractice/codepractice-backend/internal/handler"
	"github.com/codepractice/codepractice-backend/internal/logger"
	"github.com/codepractice/codepractice-backend/internal/middleware"
	"github.com/codepractice/codepractice-backend/internal/model"
	"github.com/codepractice/codepractice-backend/internal/repository"
	"github.com/codepractice/codepractice-backend/internal/router"
	"github.com/codepractice/codepractice-backend/internal/service"
	"github.com/codepractice/codepractice-backend/internal/validator"
	"github.com/codepractice/codepractice-backend/internal/worker"
	"github.com/rs/zerolog"
)

// lockWait is how long a structural change waits for a concurrent one.
const lockWait = 5 * time.Second

func main() {
	// ─── Load Configuration ────────────────────────────────────────────
	cfg := config.Load()

	// ─── Initialize Logger ─────────────────────────────────────────────
	log := logger.Setup(cfg.LogLevel, cfg.LogFormat)
	log.Info().
		Str("port", cfg.ServerPort).
		Str("mode", cfg.GinMode).
		Str("log_level", cfg.LogLevel).
		Str("executor", cfg.ExecutorBaseURL).
		Msg("Starting CodePractice Backend")

	if len(cfg.AdminEmails) == 0 {
		log.Warn().Msg("ADMIN_EMAILS is empty; problem management endpoints are unreachable")
	}

	// ─── Initialize Validator ──────────────────────────────────────────
	validator.Setup()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// ─── Connect to PostgreSQL ─────────────────────────────────────────
	pool, err := database.NewPostgresPool(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to PostgreSQL")
	}
	defer pool.Close()

	// ─── Connect to Redis ──────────────────────────────────────────────
	rdb, err := database.NewRedisClient(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to Redis")
	}
	defer rdb.Close()

	// ─── Initialize Repositories ───────────────────────────────────────
	problemRepo := repository.NewProblemRepository(pool)
	userRepo := repository.NewUserRepository(pool)
	codeRunRepo := repository.NewCodeRunRepository(pool)

	// ─── Initialize Redis Helpers ──────────────────────────────────────
	problemCache := cache.NewProblemCache(rdb, cfg.ProblemCacheTTL)
	events := cache.NewEventPublisher(rdb)
	mutationLock := cache.NewMutationLock(rdb, cfg.ResequenceLockTTL, lockWait)

	// ─── Initialize Services ──────────────────────────────────────────
	authService := service.NewAuthService(cfg, rdb, userRepo, log)
	problemService := service.NewProblemService(problemRepo, problemCache, events, mutationLock, log)
	runner := executor.NewClient(cfg.ExecutorBaseURL, cfg.ExecutorTimeout, log)
	runService := service.NewRunService(runner, codeRunRepo, rdb, log)

	// ─── Initialize Handlers ──────────────────────────────────────────
	handlers := &router.Handlers{
		Auth:    handler.NewAuthHandler(authService, log),
		Problem: handler.NewProblemHandler(problemService, log),
		Admin:   handler.NewAdminHandler(problemService, log),
		Run:     handler.NewRunHandler(problemService, runService, log),
		WS:      handler.NewWSHandler(events, log, cfg.AllowedOrigins),
		System:  handler.NewSystemHandler(pool, rdb, log),
	}

	// ─── Start Background Workers ─────────────────────────────────────
	workerCtx, workerCancel := context.WithCancel(context.Background())
	workerDone := make(chan struct{})

	codeRunWorker := worker.NewCodeRunWorker(codeRunRepo, rdb, cfg.CodeRunBatchSize, cfg.CodeRunFlushPeriod, log)
	go func() {
		codeRunWorker.Start(workerCtx)
		close(workerDone)
	}()

	// ─── Prewarm Problem Snapshot ─────────────────────────────────────
	if _, err := problemService.List(ctx, model.ProblemFilter{}); err != nil {
		log.Warn().Err(err).Msg("Problem snapshot prewarm failed")
	}

	// ─── Setup Router ──────────────────────────────────────────────────
	runLimiter := middleware.NewRateLimiter(ctx, cfg.RunRatePerMinute, time.Minute)
	r := router.SetupRouter(authService, handlers, runLimiter, cfg)

	// ─── Create HTTP Server ────────────────────────────────────────────
	srv := &http.Server{
		Addr:    ":" + cfg.ServerPort,
		Handler: r,
	}

	// ─── Start Server in Goroutine ─────────────────────────────────────
	go func() {
		log.Info().Str("addr", ":"+cfg.ServerPort).Msg("Server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
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

	// 2. Stop the code run worker and wait for its final flush.
	workerCancel()
	select {
	case <-workerDone:
	case <-time.After(5 * time.Second):
		log.Warn().Msg("Code run worker did not finish flushing")
	}

	log.Info().Msg("Shutdown complete")
}

// init sets zerolog global defaults before main runs.
func init() {
	zerolog.TimeFieldFormat = time.RFC3339
}
