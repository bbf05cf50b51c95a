package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/classpoint/cbt-backend/internal/config"
	"github.com/classpoint/cbt-backend/internal/database"
	"github.com/classpoint/cbt-backend/internal/handler"
	"github.com/classpoint/cbt-backend/internal/logger"
	"github.com/classpoint/cbt-backend/internal/repository"
	"github.com/classpoint/cbt-backend/internal/router"
	"github.com/classpoint/cbt-backend/internal/service"
	"github.com/classpoint/cbt-backend/internal/validator"
	"github.com/classpoint/cbt-backend/internal/worker"
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
		Msg("Starting ClassPoint CBT Backend")

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
	studentRepo := repository.NewStudentRepository(pool)
	proctorRepo := repository.NewProctorRepository(pool)
	passcodeRepo := repository.NewPasscodeRepository(pool)
	hallRepo := repository.NewExamHallRepository(pool)
	examRepo := repository.NewExamRepository(pool)
	questionRepo := repository.NewQuestionRepository(pool)
	sessionRepo := repository.NewExamSessionRepository(pool)

	// ─── Initialize Services ──────────────────────────────────────────
	authService := service.NewAuthService(cfg)
	proctorService := service.NewProctorService(proctorRepo, authService)
	passcodeService := service.NewPasscodeService(passcodeRepo, studentRepo, hallRepo, rdb, cfg, log)
	sessionService := service.NewSessionService(rdb, cfg, log)
	assemblerService := service.NewAssemblerService(sessionRepo, examRepo, questionRepo, log)
	scoringService := service.NewScoringService(sessionRepo, examRepo, questionRepo, rdb, log)
	monitorService := service.NewMonitorService(passcodeRepo, studentRepo, hallRepo, rdb, log)

	// ─── Initialize Handlers ──────────────────────────────────────────
	handlers := &router.Handlers{
		Auth:       handler.NewAuthHandler(authService, proctorService),
		Proctor:    handler.NewProctorHandler(passcodeService, monitorService, sessionRepo),
		Gate:       handler.NewGateHandler(passcodeService, sessionService, studentRepo),
		ExamPortal: handler.NewExamPortalHandler(assemblerService, scoringService),
		MonitorWS:  handler.NewMonitorWSHandler(monitorService, log, cfg.AllowedOrigins),
	}

	// ─── Start Background Workers ─────────────────────────────────────
	workerCtx, workerCancel := context.WithCancel(context.Background())

	auditWorker := worker.NewAuditWorker(pool, rdb, log)
	reaperWorker := worker.NewReaperWorker(pool, rdb, log)

	go auditWorker.Start(workerCtx)
	go reaperWorker.Start(workerCtx)

	// ─── Setup Router ──────────────────────────────────────────────────
	r := router.SetupRouter(authService, sessionService, handlers, cfg)

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

	// 2. Stop background workers and wait for the event queue to drain.
	workerCancel()
	time.Sleep(2 * time.Second) // Allow workers to drain.

	log.Info().Msg("Shutdown complete")
}

// init sets zerolog global defaults before main runs.
func init() {
	zerolog.TimeFieldFormat = time.RFC3339
}
