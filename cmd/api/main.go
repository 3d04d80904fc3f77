package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"stolik/internal/api"
	"stolik/internal/config"
	"stolik/internal/database"
	"stolik/internal/domain"
	"stolik/internal/events"
	"stolik/internal/export"
	"stolik/internal/logging"
	"stolik/internal/metrics"
	"stolik/internal/repository"
	"stolik/internal/reservation"
	"stolik/internal/worker"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
)

func main() {
	if err := run(); err != nil {
		log.Fatalf("Fatal error: %v", err)
	}
}

func run() error {
	cfg, logger, closer, err := loadConfigAndLogger()
	if err != nil {
		return err
	}
	if closer != nil {
		defer func() { _ = closer.Close() }()
	}

	db, err := database.NewDB(cfg.Database.Path, &logger)
	if err != nil {
		return fmt.Errorf("init database: %w", err)
	}
	defer db.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := db.SeedTables(ctx, cfg.Tables); err != nil {
		return fmt.Errorf("seed tables: %w", err)
	}

	cache := initSlotCache(cfg, &logger)
	bus := events.NewEventBus()

	hours, err := cfg.OperatingHours()
	if err != nil {
		return err
	}
	lockTimeout, err := cfg.LockTimeout()
	if err != nil {
		return err
	}

	coordinator := reservation.NewCoordinator(db, bus, cache, reservation.Options{
		LockTimeout:   lockTimeout,
		CancelRetries: cfg.Engine.CancelRetries,
		Hours:         hours,
	}, &logger)

	if err := coordinator.Hydrate(ctx); err != nil {
		return err
	}

	if cfg.Backup.Enabled {
		backupLogger := logger.With().Str("component", "backup").Logger()
		backup := database.NewBackupService(cfg.Database.Path, cfg.Backup, &backupLogger)
		go backup.Start(ctx)
	}

	if cfg.Notifications.Enabled {
		notifierLogger := logger.With().Str("component", "notifier").Logger()
		sender := worker.NewSMSSender(cfg.Notifications, &notifierLogger)
		notifier := worker.NewNotifier(sender, db, worker.DefaultRetryPolicy(), &notifierLogger)
		bus.Subscribe(events.EventBookingAdmitted, notifier.HandleEvent)
		bus.Subscribe(events.EventBookingCancelled, notifier.HandleEvent)
		go notifier.Start(ctx)
	}

	exporter := export.NewExporter(db, cfg.Exports.Path)
	httpServer := api.NewHTTPServer(&cfg.API, coordinator, db, cache, exporter, &logger)

	startMetrics(ctx, cfg, &logger)

	return serve(ctx, httpServer, &logger)
}

func loadConfigAndLogger() (*config.Config, zerolog.Logger, io.Closer, error) {
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "configs/config.yaml"
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, zerolog.Logger{}, nil, fmt.Errorf("load config: %w", err)
	}

	baseLogger, closer, err := logging.New(cfg.Logging, cfg.App)
	if err != nil {
		return nil, zerolog.Logger{}, nil, fmt.Errorf("init logger: %w", err)
	}
	logger := baseLogger.With().Str("component", "api-main").Logger()

	return cfg, logger, closer, nil
}

func initSlotCache(cfg *config.Config, logger *zerolog.Logger) domain.SlotCache {
	memory := repository.NewMemorySlotCache(cfg.SlotCacheTTL())
	if !cfg.Redis.Enabled {
		return memory
	}

	client := repository.NewRedisClient(cfg.Redis)
	pingCtx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		logger.Warn().Err(err).Msg("redis unavailable at startup, continuing with failover cache")
	}

	primary := repository.NewRedisSlotCache(client, cfg.SlotCacheTTL())
	return repository.NewFailoverSlotCache(primary, memory, logger)
}

func startMetrics(ctx context.Context, cfg *config.Config, logger *zerolog.Logger) {
	if !cfg.Monitoring.PrometheusEnabled {
		return
	}
	metrics.Register()

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Monitoring.PrometheusPort),
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		logger.Info().Str("addr", server.Addr).Msg("metrics endpoint listening")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error().Err(err).Msg("metrics server failed")
		}
	}()
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = server.Shutdown(shutdownCtx)
	}()
}

func serve(ctx context.Context, httpServer *api.HTTPServer, logger *zerolog.Logger) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- httpServer.Start()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown http server: %w", err)
	}
	return nil
}
