package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	sharedcfg "github.com/couchcryptid/storm-data-shared/config"

	"github.com/couchcryptid/hnx-camera-etl/internal/domain"
)

const defaultALERTCAURL = "https://services8.arcgis.com/X84q166Srnyl4JMV/ArcGIS/rest/services/ALERTCalifornia_Camera_Feed/FeatureServer/0/query"

// ProviderFile is one provider export on disk.
type ProviderFile struct {
	Source domain.Source
	Path   string
}

// Config holds all service settings, populated from environment variables.
type Config struct {
	HTTPAddr        string
	LogLevel        string
	LogFormat       string
	ShutdownTimeout time.Duration

	ProviderFiles   []ProviderFile
	ArtifactDir     string
	RefreshInterval time.Duration

	ALERTCAEnabled bool
	ALERTCAURL     string
	ALERTCATimeout time.Duration

	// Elevation lookup configuration.
	ElevationEnabled      bool
	ElevationURL          string
	ElevationTimeout      time.Duration
	ElevationBatchTimeout time.Duration
	ElevationWorkers      int
	ElevationRateLimit    float64
	ElevationCacheTTL     time.Duration

	GroupPrecision int
	GroupTolerance int

	RegionEnabled bool
	Region        domain.BoundingBox

	CaltransDefaultDistrict string

	KafkaEnabled bool
	KafkaBrokers []string
	KafkaTopic   string

	MinioEndpoint  string
	MinioAccessKey string
	MinioSecretKey string
	MinioBucket    string
	MinioUseSSL    bool
}

// MinioEnabled reports whether artifacts should be uploaded to object storage.
func (c *Config) MinioEnabled() bool {
	return c.MinioEndpoint != ""
}

// Load reads configuration from environment variables, applying defaults where unset.
func Load() (*Config, error) {
	shutdownTimeout, err := sharedcfg.ParseShutdownTimeout()
	if err != nil {
		return nil, err
	}

	providerFiles, err := parseProviderFiles(sharedcfg.EnvOrDefault("PROVIDER_FILES", "Caltrans=data/cctv.csv"))
	if err != nil {
		return nil, err
	}

	refreshInterval, err := parsePositiveDuration("REFRESH_INTERVAL", "10m")
	if err != nil {
		return nil, err
	}
	alertcaTimeout, err := parsePositiveDuration("ALERTCA_TIMEOUT", "30s")
	if err != nil {
		return nil, err
	}
	elevationTimeout, err := parsePositiveDuration("ELEVATION_TIMEOUT", "10s")
	if err != nil {
		return nil, err
	}
	elevationBatchTimeout, err := parsePositiveDuration("ELEVATION_BATCH_TIMEOUT", "2m")
	if err != nil {
		return nil, err
	}
	elevationCacheTTL, err := parsePositiveDuration("ELEVATION_CACHE_TTL", "24h")
	if err != nil {
		return nil, err
	}

	workers, err := parseIntInRange("ELEVATION_WORKERS", 10, 1, 100)
	if err != nil {
		return nil, err
	}
	precision, err := parseIntInRange("GROUP_PRECISION", domain.DefaultGroupPrecision, 0, 8)
	if err != nil {
		return nil, err
	}
	tolerance, err := parseIntInRange("GROUP_TOLERANCE", 1, 0, 10)
	if err != nil {
		return nil, err
	}

	rateLimit, err := strconv.ParseFloat(sharedcfg.EnvOrDefault("ELEVATION_RATE_LIMIT", "0"), 64)
	if err != nil || rateLimit < 0 {
		return nil, errors.New("invalid ELEVATION_RATE_LIMIT")
	}

	region, err := parseRegion()
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		HTTPAddr:        sharedcfg.EnvOrDefault("HTTP_ADDR", ":8080"),
		LogLevel:        sharedcfg.EnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:       sharedcfg.EnvOrDefault("LOG_FORMAT", "json"),
		ShutdownTimeout: shutdownTimeout,

		ProviderFiles:   providerFiles,
		ArtifactDir:     sharedcfg.EnvOrDefault("ARTIFACT_DIR", "data/enriched"),
		RefreshInterval: refreshInterval,

		ALERTCAEnabled: parseBool("ALERTCA_ENABLED", false),
		ALERTCAURL:     sharedcfg.EnvOrDefault("ALERTCA_URL", defaultALERTCAURL),
		ALERTCATimeout: alertcaTimeout,

		ElevationEnabled:      parseBool("ELEVATION_ENABLED", true),
		ElevationURL:          sharedcfg.EnvOrDefault("ELEVATION_URL", "https://epqs.nationalmap.gov/v1/json"),
		ElevationTimeout:      elevationTimeout,
		ElevationBatchTimeout: elevationBatchTimeout,
		ElevationWorkers:      workers,
		ElevationRateLimit:    rateLimit,
		ElevationCacheTTL:     elevationCacheTTL,

		GroupPrecision: precision,
		GroupTolerance: tolerance,

		RegionEnabled: parseBool("REGION_ENABLED", true),
		Region:        region,

		CaltransDefaultDistrict: sharedcfg.EnvOrDefault("CALTRANS_DEFAULT_DISTRICT", domain.DefaultCaltransDistrict),

		KafkaEnabled: parseBool("KAFKA_ENABLED", false),
		KafkaBrokers: sharedcfg.ParseBrokers(sharedcfg.EnvOrDefault("KAFKA_BROKERS", "localhost:9092")),
		KafkaTopic:   sharedcfg.EnvOrDefault("KAFKA_TOPIC", "enriched-cameras"),

		MinioEndpoint:  os.Getenv("MINIO_ENDPOINT"),
		MinioAccessKey: os.Getenv("MINIO_ACCESS_KEY"),
		MinioSecretKey: os.Getenv("MINIO_SECRET_KEY"),
		MinioBucket:    sharedcfg.EnvOrDefault("MINIO_BUCKET", "camera-artifacts"),
		MinioUseSSL:    parseBool("MINIO_USE_SSL", false),
	}

	if cfg.ArtifactDir == "" {
		return nil, errors.New("ARTIFACT_DIR is required")
	}
	if cfg.ALERTCAEnabled && cfg.ALERTCAURL == "" {
		return nil, errors.New("ALERTCA_ENABLED is true but ALERTCA_URL is not set")
	}
	if cfg.ElevationEnabled && cfg.ElevationURL == "" {
		return nil, errors.New("ELEVATION_ENABLED is true but ELEVATION_URL is not set")
	}
	if cfg.KafkaEnabled && len(cfg.KafkaBrokers) == 0 {
		return nil, errors.New("KAFKA_BROKERS is required when KAFKA_ENABLED is true")
	}
	if cfg.KafkaEnabled && cfg.KafkaTopic == "" {
		return nil, errors.New("KAFKA_TOPIC is required when KAFKA_ENABLED is true")
	}
	if cfg.MinioEnabled() && (cfg.MinioAccessKey == "" || cfg.MinioSecretKey == "") {
		return nil, errors.New("MINIO_ENDPOINT is set but MINIO_ACCESS_KEY or MINIO_SECRET_KEY is missing")
	}

	return cfg, nil
}

// parseProviderFiles reads "Source=path,Source=path". Source names are
// matched case-insensitively against the known providers.
func parseProviderFiles(s string) ([]ProviderFile, error) {
	reg := domain.DefaultRegistry("")
	var files []ProviderFile
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		name, path, ok := strings.Cut(part, "=")
		if !ok || strings.TrimSpace(path) == "" {
			return nil, fmt.Errorf("invalid PROVIDER_FILES entry %q: want Source=path", part)
		}
		src, err := reg.ParseSource(name)
		if err != nil {
			return nil, fmt.Errorf("invalid PROVIDER_FILES entry %q: %w", part, err)
		}
		files = append(files, ProviderFile{Source: src, Path: strings.TrimSpace(path)})
	}
	return files, nil
}

func parsePositiveDuration(key, def string) (time.Duration, error) {
	d, err := time.ParseDuration(sharedcfg.EnvOrDefault(key, def))
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("invalid %s", key)
	}
	return d, nil
}

func parseIntInRange(key string, def, lo, hi int) (int, error) {
	s := os.Getenv(key)
	if s == "" {
		return def, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < lo || n > hi {
		return 0, fmt.Errorf("invalid %s: must be an integer between %d and %d", key, lo, hi)
	}
	return n, nil
}

func parseBool(key string, def bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	return v == "true"
}

func parseRegion() (domain.BoundingBox, error) {
	b := domain.HanfordCWA
	fields := []struct {
		key string
		dst *float64
	}{
		{"REGION_LAT_MIN", &b.LatMin},
		{"REGION_LAT_MAX", &b.LatMax},
		{"REGION_LON_MIN", &b.LonMin},
		{"REGION_LON_MAX", &b.LonMax},
	}
	for _, f := range fields {
		s := os.Getenv(f.key)
		if s == "" {
			continue
		}
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return domain.BoundingBox{}, fmt.Errorf("invalid %s", f.key)
		}
		*f.dst = v
	}
	if !b.Valid() {
		return domain.BoundingBox{}, errors.New("invalid region: REGION_LAT_MIN/MAX and REGION_LON_MIN/MAX must form a box")
	}
	return b, nil
}
