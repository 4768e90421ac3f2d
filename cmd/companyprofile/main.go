package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"

	"github.com/odyssey-erp/companyprofile/internal/app"
	"github.com/odyssey-erp/companyprofile/internal/auth"
	"github.com/odyssey-erp/companyprofile/internal/blob"
	"github.com/odyssey-erp/companyprofile/internal/company"
	"github.com/odyssey-erp/companyprofile/internal/observability"
	"github.com/odyssey-erp/companyprofile/internal/platform/cache"
	"github.com/odyssey-erp/companyprofile/internal/platform/db"
	"github.com/odyssey-erp/companyprofile/internal/shared"
	"github.com/odyssey-erp/companyprofile/internal/view"
	"github.com/odyssey-erp/companyprofile/jobs"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping runtime startup")
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := app.NewLogger(cfg)

	dbpool, err := db.New(ctx, cfg.PGDSN)
	if err != nil {
		logger.Error("connect postgres", slog.Any("error", err))
		os.Exit(1)
	}
	defer dbpool.Close()

	repo := company.NewRepository(dbpool, cfg.CompanyID)
	if err := repo.EnsureSchema(ctx); err != nil {
		logger.Error("ensure schema", slog.Any("error", err))
		os.Exit(1)
	}

	redisClient, err := cache.New(ctx, cfg.RedisAddr)
	if err != nil {
		logger.Warn("redis ping", slog.Any("error", err))
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()

	sessionManager := shared.NewSessionManager(redisClient, "company_session", cfg.SessionSecret, cfg.SessionTTL, cfg.IsProduction())
	csrfManager := shared.NewCSRFManager(cfg.CSRFSecret)

	templates, err := view.NewEngine()
	if err != nil {
		logger.Error("parse templates", slog.Any("error", err))
		os.Exit(1)
	}

	blobs, err := blob.NewDiskStore(cfg.UploadDir)
	if err != nil {
		logger.Error("open upload store", slog.Any("error", err))
		os.Exit(1)
	}

	hasher, err := company.NewPasswordHasher(cfg.PasswordMode)
	if err != nil {
		logger.Error("password mode", slog.Any("error", err))
		os.Exit(1)
	}
	if cfg.PasswordMode == company.PasswordModePlaintext {
		logger.Warn("passwords are stored in plaintext; use PASSWORD_MODE=bcrypt outside of testing")
	}

	redisOpts := asynq.RedisClientOpt{Addr: cfg.RedisAddr}
	jobClient := jobs.NewClient(redisOpts)
	defer func() {
		if err := jobClient.Close(); err != nil {
			logger.Warn("job client close", slog.Any("error", err))
		}
	}()
	inspector := asynq.NewInspector(redisOpts)
	defer func() {
		if err := inspector.Close(); err != nil {
			logger.Warn("inspector close", slog.Any("error", err))
		}
	}()

	metrics := observability.NewMetrics()

	companyService := company.NewService(repo, blobs, company.ServiceConfig{
		Hasher:   hasher,
		Notifier: jobClient,
		Logger:   logger,
	})
	companyHandler := company.NewHandler(logger, companyService, templates, csrfManager, company.HandlerConfig{
		Metrics:   metrics,
		MaxMemory: cfg.UploadMaxMemory,
	})
	authHandler := auth.NewHandler(logger, templates, sessionManager, csrfManager)

	router := app.NewRouter(app.RouterParams{
		Logger:         logger,
		Config:         cfg,
		Templates:      templates,
		SessionManager: sessionManager,
		CSRFManager:    csrfManager,
		AuthHandler:    authHandler,
		CompanyHandler: companyHandler,
		JobHandler:     jobs.NewHandler(inspector, logger),
		Metrics:        metrics,
		Uploads:        blobs.Handler(),
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	go func() {
		logger.Info("starting http server", slog.String("addr", cfg.AppAddr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("http server", slog.Any("error", err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown", slog.Any("error", err))
	}
}
