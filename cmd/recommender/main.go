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

	"go.uber.org/zap"

	"github.com/kailas-cloud/assessrec/internal/app"
	"github.com/kailas-cloud/assessrec/internal/artifact"
	"github.com/kailas-cloud/assessrec/internal/config"
	logpkg "github.com/kailas-cloud/assessrec/internal/logger"
	"github.com/kailas-cloud/assessrec/internal/metrics"
	chiTransport "github.com/kailas-cloud/assessrec/internal/transport/chi"
	healthuc "github.com/kailas-cloud/assessrec/internal/usecase/health"
	recommenduc "github.com/kailas-cloud/assessrec/internal/usecase/recommend"
	"github.com/kailas-cloud/assessrec/internal/version"
)

func main() {
	// Load configuration based on ENV
	env := config.GetEnv()

	cfg, err := config.Load(env)
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	logger, err := logpkg.NewLogger(env, cfg.Logging.Level)
	if err != nil {
		panic("failed to create logger: " + err.Error())
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Starting assessment recommender",
		append(version.Fields(),
			zap.String("env", env),
			zap.Int("http_port", cfg.HTTP.Port),
			zap.String("cache_driver", cfg.Cache.Driver),
		)...,
	)

	// Artifacts are immutable for the process lifetime.
	idx, catalog, err := artifact.Load(artifact.Paths{
		Index:    cfg.Artifacts.IndexPath,
		Snapshot: cfg.Artifacts.SnapshotPath,
	})
	if err != nil {
		logger.Fatal("Failed to load index artifacts",
			zap.String("index_path", cfg.Artifacts.IndexPath),
			zap.String("snapshot_path", cfg.Artifacts.SnapshotPath),
			zap.Error(err),
		)
	}
	if idx.Dim() != cfg.Embedding.Dimensions {
		logger.Fatal("Index dimension does not match embedding config",
			zap.Int("index_dim", idx.Dim()),
			zap.Int("config_dim", cfg.Embedding.Dimensions),
		)
	}
	logger.Info("Loaded catalog", zap.Int("entries", catalog.Len()), zap.Int("dimensions", idx.Dim()))

	cache, err := app.OpenCache(cfg.Cache, logger)
	if err != nil {
		logger.Fatal("Failed to open embedding cache", zap.Error(err))
	}
	// Pass nil interface (not typed nil pointer!) when the cache is disabled.
	var cachePinger healthuc.CachePinger
	if cache != nil {
		defer cache.Close()

		ctx := context.Background()
		if err := cache.WaitForReady(ctx, time.Duration(cfg.Cache.ReadinessTimeout)*time.Second); err != nil {
			logger.Fatal("Embedding cache not ready", zap.Error(err))
		}
		cachePinger = cache
		logger.Info("Connected to embedding cache")
	}

	// Register metrics explicitly (no init())
	metrics.RegisterHTTPMetrics()
	metrics.RegisterEmbeddingMetrics()
	metrics.RegisterRecommendMetrics()
	metrics.CatalogEntries.Set(float64(catalog.Len()))

	queryEmbedder := app.BuildEmbedder(cfg.Embedding, cfg.Embedding.QueryInstruction, cache, logger)
	logger.Info("Embedder created",
		zap.String("provider", cfg.Embedding.Provider),
		zap.String("model", cfg.Embedding.Model),
		zap.Int("dimensions", cfg.Embedding.Dimensions),
	)

	recommendSvc := recommenduc.New(queryEmbedder, idx, catalog, recommenduc.Options{
		DefaultTopK:   cfg.Recommend.DefaultTopK,
		MaxTopK:       cfg.Recommend.MaxTopK,
		EvidenceChars: cfg.Recommend.EvidenceChars,
	})
	healthSvc := healthuc.New(idx, cachePinger, queryEmbedder)

	server := chiTransport.NewServer(recommendSvc, healthSvc, logger)
	handler := chiTransport.NewRouter(server, cfg.Auth.APIKeys, logger)

	addr := fmt.Sprintf(":%d", cfg.HTTP.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  time.Duration(cfg.HTTP.ReadTimeoutSec) * time.Second,
		WriteTimeout: time.Duration(cfg.HTTP.WriteTimeoutSec) * time.Second,
	}

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	go func() {
		logger.Info("Starting HTTP server", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("HTTP server error", zap.Error(err))
		}
	}()

	<-quit
	logger.Info("Received shutdown signal")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.HTTP.ShutdownSec)*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Error during shutdown", zap.Error(err))
	}

	logger.Info("Server stopped gracefully")
}
