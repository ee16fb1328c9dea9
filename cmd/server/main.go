package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/cors"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"casetrack/internal/config"
	"casetrack/internal/database"
	"casetrack/internal/handlers"
	"casetrack/internal/logger"
	"casetrack/internal/metrics"
	"casetrack/internal/prediction"
	"casetrack/internal/security"
	"casetrack/internal/service"
	"casetrack/migrations"
)

const shutdownTimeout = 15 * time.Second

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "server: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	log, err := logger.New(cfg.LogLevel, cfg.LogFormat, "casetrack")
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	defer func() { _ = log.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Initialize database with config (supports sqlite, postgres, mysql)
	db, err := database.InitializeWithConfig(cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer db.Close()
	log.Info("database connection established", zap.String("type", cfg.DatabaseType))

	if err := db.RunMigrations(ctx, migrations.Source(cfg.MigrationsPath), log); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	registry := prediction.NewRegistry(cfg.ModelsPath, log.Named("models"))
	if _, err := registry.Swap(cfg.DefaultModel); err != nil {
		// predictions answer 500 until an admin activates a model
		log.Warn("default model not loaded", zap.String("model", cfg.DefaultModel), zap.Error(err))
	}

	email, err := service.NewEmailService(ctx, cfg.AWSRegion, cfg.SESFromEmail, cfg.SESFromName, cfg.AppBaseURL, cfg.EmailDebug, log)
	if err != nil {
		return err
	}
	var notifier service.CaseNotifier
	if email.IsEnabled() {
		notifier = email
	}

	m := metrics.New()
	loginLimiter := security.NewRateLimiter(cfg.LoginRateLimit, cfg.LoginRateWindow)
	defer loginLimiter.Close()
	if err := loginLimiter.TrustProxies(cfg.TrustedProxies); err != nil {
		return err
	}

	router := handlers.NewRouter(handlers.Deps{
		DB:           db,
		Clients:      service.NewClientService(db, notifier, m, log),
		Auth:         service.NewAuthService(db, security.NewTokenIssuer(cfg.JWTSecret, cfg.TokenTTL), log),
		Registry:     registry,
		Metrics:      m,
		LoginLimiter: loginLimiter,
		Logger:       log,
	})

	var handler http.Handler = router
	if len(cfg.CORSAllowedOrigins) > 0 {
		handler = cors.New(cors.Options{
			AllowedOrigins:   cfg.CORSAllowedOrigins,
			AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete},
			AllowedHeaders:   []string{"Authorization", "Content-Type", handlers.RequestIDHeader},
			ExposedHeaders:   []string{handlers.RequestIDHeader},
			AllowCredentials: true,
		}).Handler(router)
	}

	server := &http.Server{
		Addr:         ":" + cfg.ServerPort,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("server starting", zap.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info("server shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	return g.Wait()
}
