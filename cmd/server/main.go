package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/bpcprep/examportal-backend/internal/bank"
	"github.com/bpcprep/examportal-backend/internal/config"
	"github.com/bpcprep/examportal-backend/internal/database"
	"github.com/bpcprep/examportal-backend/internal/exam"
	"github.com/bpcprep/examportal-backend/internal/handler"
	"github.com/bpcprep/examportal-backend/internal/logger"
	"github.com/bpcprep/examportal-backend/internal/repository"
	"github.com/bpcprep/examportal-backend/internal/router"
	"github.com/bpcprep/examportal-backend/internal/service"
	"github.com/bpcprep/examportal-backend/internal/store"
	"github.com/bpcprep/examportal-backend/internal/validator"
	"github.com/bpcprep/examportal-backend/internal/worker"
)

// Abandoned session blobs expire after this long.
const sessionTTL = 7 * 24 * time.Hour

func main() {
	// ─── Load Configuration ────────────────────────────────────────────
	cfg := config.Load()

	// ─── Initialize Logger ─────────────────────────────────────────────
	log := logger.Setup(cfg.LogLevel, cfg.LogFormat)
	log.Info().
		Str("port", cfg.ServerPort).
		Str("mode", cfg.GinMode).
		Str("exam_code", cfg.Exam.ExamCode).
		Msg("Starting Exam Portal Backend")

	// ─── Initialize Validator ──────────────────────────────────────────
	validator.Setup()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// ─── Load Question Bank ────────────────────────────────────────────
	// A bad bank is fatal: a truncated or inconsistent bank must never
	// reach the sampler.
	qBank, report, err := bank.LoadAndValidate(cfg.QuestionBank)
	if err != nil {
		log.Fatal().Err(err).Str("path", cfg.QuestionBank).Msg("Question bank rejected")
	}
	report.CheckCoverage(cfg.Exam.NumMCQ, cfg.Exam.NumPractical)
	for _, w := range report.Warnings {
		log.Warn().Str("warning", w).Msg("Question bank warning")
	}
	log.Info().
		Int("total", qBank.Len()).
		Int("mcq", report.MCQCount).
		Int("practical", report.PracticalCount).
		Msg("Question bank loaded")

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
	userRepo := repository.NewUserRepository(pool)
	attemptRepo := repository.NewAttemptRepository(pool)

	// ─── Initialize Core ───────────────────────────────────────────────
	sessionStore := store.NewRedisStore(rdb, sessionTTL)
	engine := exam.NewEngine(sessionStore, log)
	scheduler := exam.NewAutoSubmitScheduler()

	// ─── Initialize Workers ────────────────────────────────────────────
	attemptWorker := worker.NewAttemptWorker(attemptRepo, rdb, log)

	// ─── Initialize Services ──────────────────────────────────────────
	authService := service.NewAuthService(cfg, userRepo, rdb)
	examService := service.NewExamService(qBank, engine, scheduler, attemptWorker, cfg.Exam, log)
	attemptService := service.NewAttemptService(attemptRepo)

	// ─── Initialize Handlers ──────────────────────────────────────────
	handlers := &router.Handlers{
		Auth:    handler.NewAuthHandler(authService),
		Exam:    handler.NewExamHandler(examService, cfg.Exam),
		Attempt: handler.NewAttemptHandler(attemptService),
		WS:      handler.NewWSHandler(examService, log, cfg.AllowedOrigins),
	}

	// ─── Start Background Workers ─────────────────────────────────────
	workerCtx, workerCancel := context.WithCancel(context.Background())
	go attemptWorker.Start(workerCtx)

	// ─── Setup Router ──────────────────────────────────────────────────
	r := router.SetupRouter(authService, handlers, cfg)

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

	// 2. Disarm auto-submit timers; sessions resume from Redis on restart.
	examService.Shutdown()

	// 3. Stop the attempt worker and wait for the queue to drain.
	workerCancel()
	time.Sleep(2 * time.Second) // Allow the worker to drain.

	log.Info().Msg("Shutdown complete")
}

// init sets zerolog global defaults before main runs.
func init() {
	zerolog.TimeFieldFormat = time.RFC3339
}
