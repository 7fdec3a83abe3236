package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/contrib/otelfiber"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	_ "github.com/joho/godotenv/autoload"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"printdesk/internal/auth"
	"printdesk/internal/config"
	"printdesk/internal/database"
	"printdesk/internal/database/migration"
	handlers "printdesk/internal/http/handler"
	"printdesk/internal/http/middleware"
	"printdesk/internal/logger"
	"printdesk/internal/metrics"
	"printdesk/internal/otel"
	"printdesk/internal/printlink"
	"printdesk/internal/repository/postgres"
	"printdesk/internal/service"
	"printdesk/internal/storage"
)

// @title printdesk API
// @version 1.0
// @BasePath /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "printdesk: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	// Load configuration from environment variables (.env auto-loaded if present)
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	log := logger.New(logger.Config{
		Level:    cfg.Log.Level,
		Format:   cfg.Log.Format,
		Location: cfg.Location(),
	})
	defer func() { _ = log.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := otel.Init(ctx, log)
	if err != nil {
		return fmt.Errorf("init tracing: %w", err)
	}

	db, err := database.NewPostgres(ctx, cfg.Database)
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	defer db.Close()

	if err := migration.EnsureMigrated(ctx, db, log); err != nil {
		return fmt.Errorf("migrate database: %w", err)
	}

	objStore, err := storage.NewMinIO(ctx, cfg.MinIO)
	if err != nil {
		return fmt.Errorf("init object storage: %w", err)
	}

	links, closeLinks, err := newLinkStore(ctx, cfg.Redis, log)
	if err != nil {
		return fmt.Errorf("init print link store: %w", err)
	}
	defer closeLinks()

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	httpMetrics, err := middleware.NewPrometheusMiddleware(reg)
	if err != nil {
		return fmt.Errorf("register http metrics: %w", err)
	}
	printMetrics, err := metrics.NewPrintMetrics(reg)
	if err != nil {
		return fmt.Errorf("register print metrics: %w", err)
	}

	docRepo := postgres.NewDocumentPostgres(db)
	docSvc := service.NewDocumentService(objStore, docRepo)
	printSvc := service.NewPrintService(links, docRepo, objStore, printMetrics, service.PrintConfig{
		LinkTTL: cfg.Print.LinkTTL,
		URLTTL:  cfg.Print.URLTTL,
	})

	app := fiber.New(fiber.Config{
		AppName:               "printdesk",
		ErrorHandler:          handlers.ErrorHandler(),
		DisableStartupMessage: cfg.IsProduction(),
	})

	app.Use(otelfiber.Middleware())
	// RequestID adds/propagates X-Request-ID and a request-scoped logger
	app.Use(middleware.RequestID(log))
	app.Use(middleware.Logger(log))
	app.Use(httpMetrics.Handler())

	app.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg})))

	if err := handlers.RegisterRoutes(app, handlers.Deps{
		DB:            db,
		Links:         links,
		Tokens:        auth.NewTokenService(cfg.Auth),
		Documents:     docSvc,
		Prints:        printSvc,
		DashboardPath: cfg.Print.DashboardPath,
	}); err != nil {
		return fmt.Errorf("register routes: %w", err)
	}

	addr := ":" + cfg.Port
	errCh := make(chan error, 1)
	go func() {
		log.Info("server_starting", zap.String("addr", addr), zap.String("env", cfg.Env))
		errCh <- app.Listen(addr)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("listen: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	log.Info("server_stopping", zap.Duration("timeout", cfg.ShutdownTimeout))
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	var errs []error
	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		errs = append(errs, fmt.Errorf("shutdown server: %w", err))
	}
	if err := shutdownTracing(shutdownCtx); err != nil {
		errs = append(errs, fmt.Errorf("shutdown tracing: %w", err))
	}
	return errors.Join(errs...)
}

// newLinkStore picks Redis when an address is configured, the in-process store otherwise.
func newLinkStore(ctx context.Context, cfg config.RedisConfig, log *zap.Logger) (printlink.Store, func(), error) {
	if cfg.Addr == "" {
		log.Warn("print_link_store_memory", zap.String("reason", "REDIS_ADDR not set; links do not survive restarts or span instances"))
		return printlink.NewMemoryStore(), func() {}, nil
	}

	store, err := printlink.NewRedisStore(ctx, cfg)
	if err != nil {
		return nil, nil, err
	}
	log.Info("print_link_store_redis", zap.String("addr", cfg.Addr), zap.Int("db", cfg.DB))
	return store, func() {
		if err := store.Close(); err != nil {
			log.Warn("print_link_store_close_failed", zap.Error(err))
		}
	}, nil
}
