package main

import (
	"context"
	"flag"
	"log"
	"os"

	"go.uber.org/zap"

	"github.com/justyntemme/bookcache/internal/config"
	"github.com/justyntemme/bookcache/internal/logging"
	"github.com/justyntemme/bookcache/internal/metadata"
	"github.com/justyntemme/bookcache/internal/pipeline"
	"github.com/justyntemme/bookcache/internal/report"
	"github.com/justyntemme/bookcache/internal/storage"
)

func main() {
	// Command-line flags
	configPath := flag.String("config", config.DefaultPath, "Path to the YAML configuration file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	baseLogger, err := logging.New(logging.Options{Level: cfg.Log.Level, File: cfg.Log.File})
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer baseLogger.Sync()

	logger, _ := logging.WithRunID(baseLogger)
	logger.Info("Run starting",
		zap.Int("isbns", len(cfg.ISBN.Numbers)),
		zap.String("retention", cfg.Fetch.Retention),
		zap.String("backend", cfg.Store.Backend))

	provider := metadata.NewGoogleBooksProvider(cfg.APIKey.Key, cfg.Fetch.BaseURL, cfg.Timeout())
	service := metadata.NewService(provider, cfg.Retention(), cfg.Fetch.RequestsPerSecond, logger)

	storeOpts := cfg.StoreOptions()
	open := func(ctx context.Context) (storage.DocumentStore, error) {
		return storage.Open(ctx, storeOpts)
	}

	p := pipeline.New(service, open, cfg.Store.Key, report.NewReporter(os.Stdout, logger), logger)
	res := p.Run(context.Background(), cfg.ISBN.Numbers)

	// Failures are reported, never turned into a non-zero exit
	if res.Err != nil {
		logger.Warn("Run finished with errors", zap.String("stage", string(res.Stage)), zap.Error(res.Err))
		return
	}
	logger.Info("Run finished", zap.Int("rows", len(res.Table.Rows)))
}
