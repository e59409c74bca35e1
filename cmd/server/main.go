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

	"github.com/nats-io/nats.go"
	"github.com/shopsmart/backend/config"
	httpDelivery "github.com/shopsmart/backend/internal/delivery/http"
	"github.com/shopsmart/backend/internal/delivery/messaging"
	"github.com/shopsmart/backend/internal/domain"
	"github.com/shopsmart/backend/internal/infrastructure/cache"
	"github.com/shopsmart/backend/internal/infrastructure/extract"
	"github.com/shopsmart/backend/internal/infrastructure/ollama"
	"github.com/shopsmart/backend/internal/logging"
	"github.com/shopsmart/backend/internal/usecase"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
)

type closableStore interface {
	domain.KeyValueStore
	Close() error
}

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	logger := logging.New(cfg.Log.Level, cfg.Log.Format)
	slog.SetDefault(logger)

	if err := run(cfg, logger); err != nil {
		logger.Error("server stopped with error", "error", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger.Info("starting ShopSmart backend",
		"version", "1.0.0",
		"environment", cfg.Server.Environment,
		"port", cfg.Server.Port,
		"cache", cfg.Cache.Type,
	)

	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(propagation.TraceContext{}, propagation.Baggage{}))

	// Initialize infrastructure dependencies
	store, err := openStore(cfg.Cache)
	if err != nil {
		return err
	}
	defer store.Close()

	client := ollama.NewClient(ollama.ClientConfig{
		BaseURL:           cfg.AI.BaseURL,
		Timeout:           cfg.AI.Timeout,
		RequestsPerMinute: cfg.AI.RequestsPerMinute,
	}, logger)

	// Enable debug mode in development environment
	if cfg.AI.Debug || cfg.Server.Environment == "development" {
		client.SetDebug(true)
		logger.Debug("model client debug mode enabled")
	}

	provider := ollama.NewProvider(client, ollama.Models{
		Prompt:     cfg.AI.PromptModel,
		Summarizer: cfg.AI.SummarizerModel,
		Writer:     cfg.AI.WriterModel,
		Rewriter:   cfg.AI.RewriterModel,
	})

	// Initialize usecase layer
	runtime := usecase.NewRuntime(domain.CapabilityStatus{})
	prober := usecase.NewCapabilityProber(provider, logger)
	prober.Run(ctx, runtime, store)

	analysisService := usecase.NewAnalysisService(provider, usecase.AnalysisServiceConfig{
		SummarizeThreshold: cfg.Analysis.SummarizeThreshold,
	}, logger)

	coordinator := usecase.NewCoordinator(store, analysisService, runtime, usecase.CoordinatorConfig{
		DedupeInFlight: cfg.Analysis.DedupeInFlight,
		DefaultMode:    domain.Mode(cfg.Analysis.DefaultMode),
	}, logger)
	if err := coordinator.Initialize(ctx); err != nil {
		return fmt.Errorf("initialize coordinator: %w", err)
	}

	// Optional NATS transport
	if cfg.NATS.URL != "" {
		nc, err := nats.Connect(cfg.NATS.URL, nats.Name("shopsmart-backend"))
		if err != nil {
			return fmt.Errorf("connect to NATS: %w", err)
		}
		defer nc.Close()

		natsServer := messaging.NewServer(nc, coordinator, store, cfg.NATS.SubjectPrefix, logger)
		if err := natsServer.Start(); err != nil {
			return err
		}
		defer natsServer.Stop()
	}

	// Create HTTP handler with dependencies
	handler := httpDelivery.NewHandler(coordinator, prober, store, extract.NewExtractor(), logger)
	router := httpDelivery.SetupRouter(cfg, handler, logger)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%s", cfg.Server.Port),
		Handler:           otelhttp.NewHandler(router, "shopsmart-backend"),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func openStore(cfg config.CacheConfig) (closableStore, error) {
	switch cfg.Type {
	case "sqlite":
		store, err := cache.NewSQLiteStore(cfg.SQLitePath)
		if err != nil {
			return nil, fmt.Errorf("open sqlite store: %w", err)
		}
		return store, nil
	default:
		return cache.NewMemoryStore(), nil
	}
}
