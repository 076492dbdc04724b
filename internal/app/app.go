// Package app wires configuration into a ready-to-run refresh pipeline. The
// serve and enrich commands share it.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/couchcryptid/hnx-camera-etl/internal/adapter/arcgis"
	"github.com/couchcryptid/hnx-camera-etl/internal/adapter/csvfile"
	"github.com/couchcryptid/hnx-camera-etl/internal/adapter/epqs"
	kafkaadapter "github.com/couchcryptid/hnx-camera-etl/internal/adapter/kafka"
	"github.com/couchcryptid/hnx-camera-etl/internal/adapter/objectstore"
	"github.com/couchcryptid/hnx-camera-etl/internal/config"
	"github.com/couchcryptid/hnx-camera-etl/internal/domain"
	"github.com/couchcryptid/hnx-camera-etl/internal/observability"
	"github.com/couchcryptid/hnx-camera-etl/internal/pipeline"
)

// App holds the pipeline and the resources that must be released on exit.
type App struct {
	Registry *domain.Registry
	Pipeline *pipeline.Pipeline

	kafka *kafkaadapter.Writer
}

// Build constructs the sources, sinks, and elevation resolver described by cfg.
func Build(ctx context.Context, cfg *config.Config, logger *slog.Logger, metrics *observability.Metrics) (*App, error) {
	reg := domain.DefaultRegistry(cfg.CaltransDefaultDistrict)
	a := &App{Registry: reg}

	sources, err := buildSources(cfg, reg, logger)
	if err != nil {
		return nil, err
	}

	sinks := []pipeline.Sink{csvfile.NewArtifactWriter(cfg.ArtifactDir)}
	if cfg.MinioEnabled() {
		up, err := objectstore.NewUploader(cfg, logger)
		if err != nil {
			return nil, err
		}
		if err := up.EnsureBucket(ctx); err != nil {
			return nil, err
		}
		sinks = append(sinks, up)
		logger.Info("minio artifact upload enabled", "endpoint", cfg.MinioEndpoint, "bucket", cfg.MinioBucket)
	}
	if cfg.KafkaEnabled {
		a.kafka = kafkaadapter.NewWriter(cfg, logger)
		sinks = append(sinks, a.kafka)
		logger.Info("kafka publishing enabled", "brokers", cfg.KafkaBrokers, "topic", cfg.KafkaTopic)
	}

	grouper := domain.NewGrouper(cfg.GroupPrecision, cfg.GroupTolerance, reg)
	opts := pipeline.Options{
		Registry: reg,
		Grouper:  &grouper,
		Resolver: buildResolver(cfg, reg, logger, metrics),
		Interval: cfg.RefreshInterval,
	}
	if cfg.RegionEnabled {
		region := cfg.Region
		opts.Region = &region
	}

	a.Pipeline = pipeline.New(sources, sinks, opts, logger, metrics)
	return a, nil
}

func buildSources(cfg *config.Config, reg *domain.Registry, logger *slog.Logger) ([]pipeline.RowSource, error) {
	var sources []pipeline.RowSource
	for _, f := range cfg.ProviderFiles {
		p, err := reg.Get(f.Source)
		if err != nil {
			return nil, fmt.Errorf("provider file %s: %w", f.Path, err)
		}
		sources = append(sources, csvfile.NewSource(f.Path, p))
	}
	if cfg.ALERTCAEnabled {
		sources = append(sources, arcgis.NewClient(cfg.ALERTCAURL, cfg.Region, cfg.ALERTCATimeout, logger))
		logger.Info("alertca feature service enabled", "url", cfg.ALERTCAURL)
	}
	if len(sources) == 0 {
		return nil, errors.New("no camera sources configured: set PROVIDER_FILES or ALERTCA_ENABLED")
	}
	return sources, nil
}

// buildResolver returns nil when elevation lookups are disabled. The cache is
// seeded from existing artifacts so a restart does not repeat known lookups.
func buildResolver(cfg *config.Config, reg *domain.Registry, logger *slog.Logger, metrics *observability.Metrics) pipeline.ElevationResolver {
	if !cfg.ElevationEnabled {
		metrics.ElevationEnabled.Set(0)
		logger.Info("elevation lookup disabled")
		return nil
	}
	metrics.ElevationEnabled.Set(1)

	client := epqs.NewClient(cfg.ElevationURL, cfg.ElevationTimeout, cfg.ElevationRateLimit, metrics, logger)
	cache := epqs.NewCache(cfg.ElevationCacheTTL, metrics)

	records, rejected, err := csvfile.ReadArtifacts(cfg.ArtifactDir, reg)
	if err != nil {
		logger.Warn("could not seed elevation cache from artifacts", "dir", cfg.ArtifactDir, "error", err)
	} else {
		seeded := cache.Seed(records)
		logger.Info("elevation cache seeded", "entries", seeded, "rejected_rows", len(rejected))
	}

	logger.Info("elevation lookup enabled",
		"url", cfg.ElevationURL,
		"workers", cfg.ElevationWorkers,
		"rate_limit", cfg.ElevationRateLimit,
		"cache_ttl", cfg.ElevationCacheTTL,
	)
	return domain.NewElevationResolver(client, cache, domain.ResolverConfig{
		Workers:        cfg.ElevationWorkers,
		RequestTimeout: cfg.ElevationTimeout,
		BatchTimeout:   cfg.ElevationBatchTimeout,
	}, logger)
}

// Close releases the Kafka writer, if any.
func (a *App) Close() error {
	if a.kafka == nil {
		return nil
	}
	return a.kafka.Close()
}
