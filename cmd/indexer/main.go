package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/urfave/cli/v2"
	"go.uber.org/zap"

	"github.com/kailas-cloud/assessrec/internal/app"
	"github.com/kailas-cloud/assessrec/internal/artifact"
	"github.com/kailas-cloud/assessrec/internal/config"
	logpkg "github.com/kailas-cloud/assessrec/internal/logger"
	"github.com/kailas-cloud/assessrec/internal/metrics"
	catrepo "github.com/kailas-cloud/assessrec/internal/repository/catalog"
	builduc "github.com/kailas-cloud/assessrec/internal/usecase/build"
	"github.com/kailas-cloud/assessrec/internal/version"
)

func main() {
	if err := newApp().Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:    "indexer",
		Usage:   "Build and inspect the assessment catalog vector index",
		Version: version.String(),
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "env",
				Aliases: []string{"e"},
				Usage:   "Config environment (config/<env>.yaml)",
				Value:   config.GetEnv(),
			},
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Explicit config file path (overrides --env)",
			},
			&cli.StringFlag{
				Name:    "log-level",
				Aliases: []string{"l"},
				Usage:   "Set logging level (debug, info, warn, error)",
			},
		},
		Commands: []*cli.Command{
			{
				Name:   "build",
				Usage:  "Embed a source catalog and publish the index artifacts",
				Action: buildCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "source",
						Aliases:  []string{"s"},
						Usage:    "Source catalog file (.csv or .parquet)",
						Required: true,
					},
					&cli.BoolFlag{
						Name:  "dry-run",
						Usage: "Embed and validate without publishing artifacts",
					},
					&cli.IntFlag{
						Name:  "workers",
						Usage: "Concurrent embedding batches (overrides build.workers)",
					},
					&cli.IntFlag{
						Name:  "batch-size",
						Usage: "Documents per embedding request (overrides build.batch_size)",
					},
					&cli.DurationFlag{
						Name:  "retry-delay",
						Usage: "Base delay for exponential backoff",
						Value: 500 * time.Millisecond,
					},
					&cli.StringFlag{
						Name:  "metrics-out",
						Usage: "Write build metrics to this Prometheus textfile",
					},
				},
			},
			{
				Name:   "inspect",
				Usage:  "Print statistics about the published artifacts",
				Action: inspectCommand,
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:  "limit",
						Usage: "Number of catalog rows to list",
						Value: 5,
					},
				},
			},
		},
	}
}

// setup loads configuration and a logger from the global flags.
func setup(c *cli.Context) (config.Config, *zap.Logger, error) {
	var (
		cfg config.Config
		err error
	)
	if path := c.String("config"); path != "" {
		cfg, err = config.LoadFile(path)
	} else {
		cfg, err = config.Load(c.String("env"))
	}
	if err != nil {
		return config.Config{}, nil, err //nolint:wrapcheck // already descriptive
	}

	level := c.String("log-level")
	if level == "" {
		level = cfg.Logging.Level
	}
	logger, err := logpkg.NewLogger("cli", level)
	if err != nil {
		return config.Config{}, nil, err //nolint:wrapcheck // already descriptive
	}
	return cfg, logger, nil
}

func artifactPaths(cfg config.Config) artifact.Paths {
	return artifact.Paths{Index: cfg.Artifacts.IndexPath, Snapshot: cfg.Artifacts.SnapshotPath}
}

func buildCommand(c *cli.Context) error {
	cfg, logger, err := setup(c)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	entries, err := catrepo.ImportFile(c.String("source"))
	if err != nil {
		return fmt.Errorf("import catalog: %w", err)
	}
	logger.Info("Imported source catalog",
		zap.String("source", c.String("source")),
		zap.Int("entries", len(entries)),
	)

	cache, err := app.OpenCache(cfg.Cache, logger)
	if err != nil {
		return err //nolint:wrapcheck // already descriptive
	}
	if cache != nil {
		defer cache.Close()
		if err := cache.WaitForReady(ctx, time.Duration(cfg.Cache.ReadinessTimeout)*time.Second); err != nil {
			return fmt.Errorf("embedding cache not ready: %w", err)
		}
	}

	reg := prometheus.NewRegistry()
	if err := metrics.RegisterBuildMetrics(reg); err != nil {
		return fmt.Errorf("register build metrics: %w", err)
	}

	opts := builduc.Options{
		Workers:       cfg.Build.Workers,
		BatchSize:     cfg.Build.BatchSize,
		RetryAttempts: cfg.Build.RetryAttempts,
		RetryDelay:    c.Duration("retry-delay"),
	}
	if n := c.Int("workers"); n > 0 {
		opts.Workers = n
	}
	if n := c.Int("batch-size"); n > 0 {
		opts.BatchSize = n
	}

	embedder := app.BuildEmbedder(cfg.Embedding, cfg.Embedding.DocumentInstruction, cache, logger)
	svc := builduc.New(embedder, artifact.Writer{Paths: artifactPaths(cfg)}, cfg.Embedding.Dimensions, opts, logger)

	stats, err := svc.Run(ctx, entries, c.Bool("dry-run"))
	if out := c.String("metrics-out"); out != "" {
		if werr := prometheus.WriteToTextfile(out, reg); werr != nil {
			logger.Warn("Failed to write metrics textfile", zap.String("path", out), zap.Error(werr))
		}
	}
	if err != nil {
		return fmt.Errorf("build index: %w", err)
	}

	logger.Info("Index build finished",
		zap.Int("documents", stats.Documents),
		zap.Int("batches", stats.Batches),
		zap.Int("dimensions", stats.Dimensions),
		zap.Int("total_tokens", stats.TotalTokens),
		zap.Duration("duration", stats.Duration),
		zap.Bool("published", stats.Published),
		zap.String("index_path", cfg.Artifacts.IndexPath),
		zap.String("snapshot_path", cfg.Artifacts.SnapshotPath),
	)
	return nil
}

func inspectCommand(c *cli.Context) error {
	cfg, _, err := setup(c)
	if err != nil {
		return err
	}

	idx, catalog, err := artifact.Load(artifactPaths(cfg))
	if err != nil {
		return fmt.Errorf("load artifacts: %w", err)
	}

	w := c.App.Writer
	fmt.Fprintf(w, "index:      %s\n", cfg.Artifacts.IndexPath)
	fmt.Fprintf(w, "snapshot:   %s\n", cfg.Artifacts.SnapshotPath)
	fmt.Fprintf(w, "entries:    %d\n", catalog.Len())
	fmt.Fprintf(w, "dimensions: %d\n", idx.Dim())
	if idx.Dim() != cfg.Embedding.Dimensions {
		fmt.Fprintf(w, "warning:    config expects %d dimensions\n", cfg.Embedding.Dimensions)
	}

	limit := min(c.Int("limit"), catalog.Len())
	for i := range limit {
		e, _ := catalog.At(i)
		fmt.Fprintf(w, "%4d  %-12s %s (%s | %s)\n", i, e.AssessmentID, e.Name, e.Category, e.JobLevels)
	}
	return nil
}
