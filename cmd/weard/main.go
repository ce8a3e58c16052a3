package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/SherClockHolmes/webpush-go"

	"wear-and-tear-backend/config"
	"wear-and-tear-backend/internal/api"
	"wear-and-tear-backend/internal/db"
	"wear-and-tear-backend/internal/i18n"
	"wear-and-tear-backend/internal/influx"
	"wear-and-tear-backend/internal/ixapi"
	"wear-and-tear-backend/internal/metrics"
	"wear-and-tear-backend/internal/monitor"
	"wear-and-tear-backend/internal/notification"
	"wear-and-tear-backend/internal/service"
	"wear-and-tear-backend/internal/store"
	"wear-and-tear-backend/internal/wear"
)

func main() {
	// Setup logger
	logger := log.New(os.Stdout, "wear-backend ", log.LstdFlags)

	// Load configuration
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "./config/config.yaml" // Default path for local development
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		logger.Fatalf("failed to load configuration from %s: %v", configPath, err)
	}
	logger.Printf("configuration loaded successfully from %s", configPath)

	if cfg.Push.PublicKey == "" || cfg.Push.PrivateKey == "" {
		logger.Println("VAPID keys are not configured; push alerts are disabled")
	}

	webpushOptions := webpush.Options{
		VAPIDPublicKey:  cfg.Push.PublicKey,
		VAPIDPrivateKey: cfg.Push.PrivateKey,
		Subscriber:      cfg.Push.Subject,
		TTL:             cfg.Push.TTL,
	}

	// Initialize database
	gormDB, err := db.Init(&cfg.Database)
	if err != nil {
		logger.Fatalf("failed to initialize database: %v", err)
	}
	logger.Println("database initialized successfully")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	appStore := store.NewGormStore(gormDB)
	logger.Println("data store initialized")

	creds := ixapi.Credentials{
		AppID:       cfg.Platform.AppID,
		APIVersion:  cfg.Platform.APIVersion,
		CompanyID:   cfg.Platform.CompanyID,
		AccessToken: cfg.Platform.AccessToken,
	}
	timeout := time.Duration(cfg.Platform.TimeoutSeconds) * time.Second

	platform, err := ixapi.NewClient(cfg.Platform.BaseURL, creds, cfg.Platform.HTTPProxy, timeout)
	if err != nil {
		logger.Fatalf("failed to create platform client: %v", err)
	}

	source, closeSource, err := newSampleSource(cfg, creds, timeout)
	if err != nil {
		logger.Fatalf("failed to create %s sample source: %v", cfg.Monitor.Source, err)
	}
	defer closeSource()
	logger.Printf("metric samples are read from %s", cfg.Monitor.Source)

	catalog := i18n.NewCatalog(cfg.Translations)
	appMetrics := metrics.New()
	items := service.New(appStore, platform, source, catalog, appMetrics)

	// Run the monitor in the background; it owns the notification workers.
	workerPool := notification.NewWorkerPool(cfg.WorkerPool.Size, gormDB, &webpushOptions, catalog, appMetrics)
	monitorSvc := monitor.NewService(cfg, appStore, items, workerPool, appMetrics)
	go monitorSvc.Run(ctx)

	// Initialize router
	router := api.NewRouter(cfg, appStore, items, catalog, &webpushOptions, appMetrics)
	server := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: router,
	}

	go func() {
		logger.Printf("HTTP server starting on port %d", cfg.Server.Port)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatalf("HTTP server ListenAndServe: %v", err)
		}
	}()

	// Setup signal handling for graceful shutdown
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	<-stop
	logger.Println("Shutdown signal received, stopping services...")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Fatalf("HTTP server Shutdown: %v", err)
	}

	logger.Println("Server gracefully stopped")
}

// newSampleSource builds the metric source selected by monitor.source.
func newSampleSource(cfg *config.Config, creds ixapi.Credentials, timeout time.Duration) (wear.SampleSource, func(), error) {
	switch cfg.Monitor.Source {
	case "influx":
		src, err := influx.New(cfg.Influx)
		if err != nil {
			return nil, nil, err
		}
		return src, src.Close, nil
	case "platform":
		src, err := ixapi.NewLoggingData(cfg.Platform.LoggingDataURL, creds, cfg.Platform.HTTPProxy, timeout)
		if err != nil {
			return nil, nil, err
		}
		return src, func() {}, nil
	default:
		return nil, nil, fmt.Errorf("unknown sample source %q", cfg.Monitor.Source)
	}
}
