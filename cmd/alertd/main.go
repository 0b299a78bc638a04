package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"nids-alert-engine/internal/alert"
	"nids-alert-engine/internal/api"
	"nids-alert-engine/internal/behavior"
	"nids-alert-engine/internal/confidence"
	"nids-alert-engine/internal/engine"
	"nids-alert-engine/internal/rules"
	"nids-alert-engine/internal/storage"
	"nids-alert-engine/internal/utils"
)

func main() {
	var (
		configFile  = flag.String("config", "configs/alertd.yaml", "Configuration file path (YAML)")
		showVersion = flag.Bool("version", false, "Show version information")
	)
	flag.Parse()

	if *showVersion {
		fmt.Println("NIDS Alert Engine v1.0.0")
		return
	}

	config, err := utils.LoadConfig(*configFile)
	if err != nil {
		fmt.Printf("Failed to load config %s: %v\n", *configFile, err)
		fmt.Println("Using default configuration...")
		config = utils.DefaultConfig()
	} else {
		fmt.Printf("Loaded configuration from %s\n", *configFile)
	}

	logger := utils.NewLogger(config.Logging.Level, config.Logging.Format)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Storage backend
	var store storage.Store
	switch config.Storage.Backend {
	case "redis":
		redisStore, err := storage.NewRedisStore(
			config.Storage.Redis.Addr,
			config.Storage.Redis.Password,
			config.Storage.Redis.DB,
			logger,
		)
		if err != nil {
			logger.Errorf("Failed to connect to Redis at %s: %v", config.Storage.Redis.Addr, err)
			logger.Warn("Falling back to in-memory storage")
			store = storage.NewMemoryStore(0, logger)
		} else {
			store = redisStore
		}
	default:
		store = storage.NewMemoryStore(0, logger)
	}
	defer store.Close()

	// Rule cache, seeded with defaults when storage is empty
	ruleStore := rules.NewStore(store, logger)
	if err := ruleStore.Load(ctx); err != nil {
		logger.Errorf("Failed to load alert rules: %v", err)
		os.Exit(1)
	}

	metrics := alert.NewMetrics()
	hub := alert.NewHub(logger, metrics)

	tracker := behavior.NewTracker(
		config.Engine.PortHistoryCapacity,
		time.Duration(config.Engine.ResetIntervalMins)*time.Minute,
		logger,
	)
	normalizer := confidence.NewNormalizer(config.ModelThresholds)

	dispatcher := engine.NewDispatcher(engine.DispatcherConfig{
		RecentBufferSize: config.Engine.RecentBufferSize,
		DedupWindow:      time.Duration(config.Engine.DedupWindowSeconds) * time.Second,
		DedupScanDepth:   config.Engine.DedupScanDepth,
		QueueSize:        config.Engine.QueueSize,
	}, store, metrics, logger)

	if config.Alerting.Channels.Websocket {
		dispatcher.RegisterNotifier("websocket", hub)
	}
	if config.Alerting.Channels.Log {
		dispatcher.RegisterNotifier("log", alert.NewLogAlertNotifier(logger))
	}
	if config.Alerting.Channels.Email {
		dispatcher.RegisterNotifier("email", alert.NewEmailNotifier(logger))
	}

	eng := engine.NewAlertEngine(tracker, normalizer, ruleStore, dispatcher, engine.PortScanConfig{
		Window:        time.Duration(config.Engine.PortScan.WindowSeconds) * time.Second,
		PortThreshold: config.Engine.PortScan.PortThreshold,
	}, metrics, logger)
	eng.Start(ctx)

	// Metrics exporter on its own port
	exporter := alert.NewMetricsExporter(config.Application.MetricsPort, metrics, logger)
	go func() {
		if err := exporter.Start(ctx); err != nil {
			logger.Errorf("Metrics exporter error: %v", err)
		}
	}()

	// HTTP API
	handlers := api.NewHandlers(store, ruleStore, eng, hub, logger)
	server := &http.Server{
		Addr:    config.Application.ListenAddr,
		Handler: api.NewRouter(handlers),
	}

	go func() {
		logger.Infof("API server listening on %s", config.Application.ListenAddr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Errorf("API server error: %v", err)
			cancel()
		}
	}()

	// Wait for shutdown signal
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	select {
	case sig := <-sigCh:
		logger.Infof("Received signal %v, shutting down...", sig)
	case <-ctx.Done():
	}

	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Errorf("API server shutdown error: %v", err)
	}
	logger.Info("Shutdown complete")
}
