// Command enrich runs a single refresh cycle: it reads the configured provider
// exports, resolves missing elevations, and writes the enriched artifacts.
//
// Usage:
//
//	PROVIDER_FILES=Caltrans=data/cctv.csv,HPWREN=data/hpwren.csv \
//	ARTIFACT_DIR=data/enriched \
//	  go run ./cmd/enrich
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	sharedobs "github.com/couchcryptid/storm-data-shared/observability"
	"github.com/joho/godotenv"

	"github.com/couchcryptid/hnx-camera-etl/internal/app"
	"github.com/couchcryptid/hnx-camera-etl/internal/config"
	"github.com/couchcryptid/hnx-camera-etl/internal/observability"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "enrich: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("load .env: %w", err)
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger := sharedobs.NewLogger(cfg.LogLevel, cfg.LogFormat)
	metrics := observability.NewMetrics()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := app.Build(ctx, cfg, logger, metrics)
	if err != nil {
		return err
	}
	defer func() {
		if err := a.Close(); err != nil {
			logger.Error("kafka writer close error", "error", err)
		}
	}()

	snap, err := a.Pipeline.Refresh(ctx)
	if err != nil {
		return fmt.Errorf("refresh: %w", err)
	}

	logger.Info("enrichment complete",
		"cameras", len(snap.Cameras),
		"groups", len(snap.Groups),
		"sources", snap.Sources,
		"artifact_dir", cfg.ArtifactDir,
	)
	return nil
}
