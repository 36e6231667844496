package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"

	"github.com/Snowtype/Tesla-Portfolio-Analytics-Platform/internal/admin"
	"github.com/Snowtype/Tesla-Portfolio-Analytics-Platform/internal/app"
	"github.com/Snowtype/Tesla-Portfolio-Analytics-Platform/internal/audit"
	"github.com/Snowtype/Tesla-Portfolio-Analytics-Platform/internal/auth"
	"github.com/Snowtype/Tesla-Portfolio-Analytics-Platform/internal/creds"
	"github.com/Snowtype/Tesla-Portfolio-Analytics-Platform/internal/observability"
	"github.com/Snowtype/Tesla-Portfolio-Analytics-Platform/internal/reports"
	"github.com/Snowtype/Tesla-Portfolio-Analytics-Platform/internal/session"
	"github.com/Snowtype/Tesla-Portfolio-Analytics-Platform/internal/shared"
	"github.com/Snowtype/Tesla-Portfolio-Analytics-Platform/internal/view"
	"github.com/Snowtype/Tesla-Portfolio-Analytics-Platform/internal/warehouse"
	"github.com/Snowtype/Tesla-Portfolio-Analytics-Platform/jobs"
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

	var runner warehouse.Runner
	if cfg.WarehouseDSN != "" {
		pg, err := warehouse.NewPGRunner(ctx, cfg.WarehouseDSN)
		if err != nil {
			logger.Warn("warehouse unavailable, serving empty reports", slog.Any("error", err))
			runner = warehouse.NewStubRunner(logger)
		} else {
			defer pg.Close()
			runner = pg
		}
	} else {
		logger.Warn("no warehouse dsn configured, serving empty reports")
		runner = warehouse.NewStubRunner(logger)
	}

	redisClient := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()
	cacheClient := redisClient
	if err := redisClient.Ping(ctx).Err(); err != nil {
		logger.Warn("redis ping, report memo disabled", slog.Any("error", err))
		cacheClient = nil
	}

	credStore, err := creds.NewSeededStore(creds.DemoSeeds(cfg.BrandAPassword, cfg.BrandBPassword, cfg.AdminPassword)...)
	if err != nil {
		logger.Error("seed credentials", slog.Any("error", err))
		os.Exit(1)
	}

	fileStore := session.NewFileStore(cfg.SessionFile, cfg.SessionTTL)
	recorder, err := audit.NewRecorder(cfg.AuditLogDir, cfg.Port(), logger)
	if err != nil {
		logger.Error("init audit log", slog.Any("error", err))
		os.Exit(1)
	}

	gate := auth.NewGate(credStore, fileStore, recorder, logger)
	csrfManager := shared.NewCSRFManager(cfg.CSRFSecret)

	templates, err := view.NewEngine()
	if err != nil {
		logger.Error("parse templates", slog.Any("error", err))
		os.Exit(1)
	}

	metrics := observability.NewMetrics()

	cache := warehouse.NewCache(cacheClient, cfg.CacheTTL)
	reportService := reports.NewService(runner, cache, recorder, logger)
	reportService.WithMeter(metrics)

	registry := reports.NewRegistry()
	reports.RegisterReportPages(registry, reportService)

	retention := time.Duration(cfg.AuditRetentionDays) * 24 * time.Hour
	adminHandler := admin.NewHandler(logger, credStore, fileStore, recorder, registry, csrfManager, retention)
	registry.Register(adminHandler.Page())

	authHandler := auth.NewHandler(logger, gate, templates, csrfManager, registry)
	reportsHandler := reports.NewHandler(logger, registry, templates, csrfManager)

	router := app.NewRouter(app.RouterParams{
		Logger:         logger,
		Config:         cfg,
		Gate:           gate,
		CSRFManager:    csrfManager,
		AuthHandler:    authHandler,
		ReportsHandler: reportsHandler,
		AdminHandler:   adminHandler,
		Metrics:        metrics,
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	cleanupTask, err := jobs.NewAuditCleanupTask(jobs.AuditCleanupPayload{RetentionDays: cfg.AuditRetentionDays})
	if err != nil {
		logger.Error("build cleanup task", slog.Any("error", err))
		os.Exit(1)
	}
	worker, err := jobs.NewWorker(jobs.WorkerConfig{
		RedisOpts: asynq.RedisClientOpt{Addr: cfg.RedisAddr},
		Logger:    logger,
		Handlers: []jobs.TaskHandler{
			{Type: jobs.TaskTypeAuditCleanup, Handler: jobs.AuditCleanupHandler(recorder, logger)},
		},
		Cron: []jobs.CronRegistration{
			{Spec: "30 3 * * *", Task: cleanupTask, Options: []asynq.Option{asynq.MaxRetry(3)}},
		},
	})
	if err != nil {
		logger.Error("init worker", slog.Any("error", err))
		os.Exit(1)
	}

	group, groupCtx := errgroup.WithContext(ctx)
	group.Go(func() error {
		logger.Info("starting http server", slog.String("addr", cfg.AppAddr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	group.Go(func() error {
		if err := worker.Run(groupCtx); err != nil && !errors.Is(err, context.Canceled) {
			// The worker needs Redis; the dashboard itself does not.
			logger.Warn("job worker stopped", slog.Any("error", err))
		}
		return nil
	})
	group.Go(func() error {
		<-groupCtx.Done()
		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	if err := group.Wait(); err != nil {
		logger.Error("shutdown", slog.Any("error", err))
		os.Exit(1)
	}
}
