package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/lib/pq"

	"github.com/dimas292/caturnawa2025-sub004/config"
	"github.com/dimas292/caturnawa2025-sub004/db"
	"github.com/dimas292/caturnawa2025-sub004/handlers"
	"github.com/dimas292/caturnawa2025-sub004/middleware"
	"github.com/dimas292/caturnawa2025-sub004/observability"
	"github.com/dimas292/caturnawa2025-sub004/repositories"
	api "github.com/dimas292/caturnawa2025-sub004/routes"
	"github.com/dimas292/caturnawa2025-sub004/services"
)

const release = "caturnawa-debate@1.0.0"

func main() {
	// Настройка логгера
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))

	// Загрузка конфигурации
	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load configuration", slog.Any("error", err))
		os.Exit(1)
	}
	logger.Info("configuration loaded", slog.Int("port", cfg.ServerPort))

	flushSentry, err := observability.InitSentry(cfg.SentryDSN, cfg.Environment, release)
	if err != nil {
		logger.Error("failed to initialize sentry", slog.Any("error", err))
		os.Exit(1)
	}
	defer flushSentry()

	// Подключение к базе данных
	dbConn, err := db.Connect(cfg.DatabaseURL, 5*time.Second)
	if err != nil {
		logger.Error("failed to connect to database", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := dbConn.Close(); err != nil {
			logger.Error("failed to close database connection", slog.Any("error", err))
		} else {
			logger.Info("database connection closed")
		}
	}()
	logger.Info("database connection established")

	if err := db.Migrate(dbConn); err != nil {
		logger.Error("failed to apply migrations", slog.Any("error", err))
		os.Exit(1)
	}
	logger.Info("migrations applied")

	// Инициализация репозиториев
	competitionRepo := repositories.NewPostgresCompetitionRepository(dbConn)
	roundRepo := repositories.NewPostgresRoundRepository(dbConn)
	matchRepo := repositories.NewPostgresMatchRepository(dbConn)
	registrationRepo := repositories.NewPostgresRegistrationRepository(dbConn)
	scoreRepo := repositories.NewPostgresScoreRepository(dbConn)
	standingRepo := repositories.NewPostgresStandingRepository(dbConn)
	logger.Info("repositories initialized")

	// Инициализация сервисов
	competitionService := services.NewCompetitionService(competitionRepo)
	structureService := services.NewStructureService(
		dbConn, // Pass dbConn for transaction management
		competitionRepo,
		roundRepo,
		matchRepo,
		scoreRepo,
		registrationRepo,
		logger,
	)
	assignmentService := services.NewAssignmentService(dbConn, matchRepo, roundRepo, registrationRepo, logger)
	standingsService := services.NewStandingsService(
		dbConn,
		competitionRepo,
		scoreRepo,
		standingRepo,
		registrationRepo,
		logger,
	)
	scoringService := services.NewScoringService(
		dbConn,
		matchRepo,
		roundRepo,
		registrationRepo,
		scoreRepo,
		standingsService,
		logger,
	)
	logger.Info("services initialized")

	// Инициализация обработчиков HTTP
	h := api.Handlers{
		Competition: handlers.NewCompetitionHandler(competitionService),
		Structure:   handlers.NewStructureHandler(structureService),
		Match:       handlers.NewMatchHandler(structureService, assignmentService, scoringService),
		Standings:   handlers.NewStandingsHandler(standingsService),
	}
	auth := middleware.NewAuthenticator(cfg.JWTSecretKey)
	router := api.InitRoutes(h, auth)
	logger.Info("routes configured")

	// Настройка и запуск HTTP-сервера
	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.ServerPort),
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
		ErrorLog:     slog.NewLogLogger(logger.Handler(), slog.LevelError),
	}

	serverErrors := make(chan error, 1)
	go func() {
		logger.Info("starting server", slog.String("address", server.Addr))
		serverErrors <- server.ListenAndServe()
	}()

	// Ожидание сигнала завершения
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		if !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", slog.Any("error", err))
			os.Exit(1)
		} else {
			logger.Info("server stopped gracefully")
		}
	case sig := <-quit:
		logger.Info("shutdown signal received", slog.String("signal", sig.String()))
		shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancelShutdown()

		logger.Info("shutting down server", slog.Duration("timeout", 15*time.Second))
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("graceful shutdown failed", slog.Any("error", err))
			if closeErr := server.Close(); closeErr != nil {
				logger.Error("failed to force close server", slog.Any("error", closeErr))
			}
			os.Exit(1)
		} else {
			logger.Info("server shutdown complete")
		}
	}
	logger.Info("application exited")
}
