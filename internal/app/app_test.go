package app

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/hnx-camera-etl/internal/adapter/csvfile"
	"github.com/couchcryptid/hnx-camera-etl/internal/config"
	"github.com/couchcryptid/hnx-camera-etl/internal/domain"
	"github.com/couchcryptid/hnx-camera-etl/internal/observability"
)

var fixture = filepath.Join("..", "pipeline", "testdata", "cctv.csv")

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func loadConfig(t *testing.T, env map[string]string) *config.Config {
	t.Helper()
	for k, v := range env {
		t.Setenv(k, v)
	}
	cfg, err := config.Load()
	require.NoError(t, err)
	return cfg
}

func TestBuild_NoSources(t *testing.T) {
	cfg := loadConfig(t, map[string]string{"PROVIDER_FILES": " ", "ARTIFACT_DIR": t.TempDir()})

	_, err := Build(context.Background(), cfg, discardLogger(), observability.NewMetricsForTesting())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no camera sources")
}

func TestBuild_RefreshWritesArtifacts(t *testing.T) {
	dir := t.TempDir()
	cfg := loadConfig(t, map[string]string{
		"PROVIDER_FILES":    "Caltrans=" + fixture,
		"ARTIFACT_DIR":      dir,
		"ELEVATION_ENABLED": "false",
	})
	metrics := observability.NewMetricsForTesting()

	a, err := Build(context.Background(), cfg, discardLogger(), metrics)
	require.NoError(t, err)
	defer func() { require.NoError(t, a.Close()) }()

	snap, err := a.Pipeline.Refresh(context.Background())
	require.NoError(t, err)
	assert.Len(t, snap.Cameras, 3, "Sacramento lies outside the default region")
	assert.Zero(t, testutil.ToFloat64(metrics.ElevationEnabled))

	recs, rejected, err := csvfile.ReadArtifacts(dir, a.Registry)
	require.NoError(t, err)
	assert.Empty(t, rejected)
	assert.Len(t, recs, 3)
	for _, r := range recs {
		assert.False(t, r.Elevation.Resolved(), r.Name)
	}
}

func TestBuild_RegionDisabled(t *testing.T) {
	cfg := loadConfig(t, map[string]string{
		"PROVIDER_FILES":    "caltrans=" + fixture,
		"ARTIFACT_DIR":      t.TempDir(),
		"ELEVATION_ENABLED": "false",
		"REGION_ENABLED":    "false",
	})

	a, err := Build(context.Background(), cfg, discardLogger(), observability.NewMetricsForTesting())
	require.NoError(t, err)

	snap, err := a.Pipeline.Refresh(context.Background())
	require.NoError(t, err)
	assert.Len(t, snap.Cameras, 4)
}

func TestBuild_ElevationCacheSeededFromArtifacts(t *testing.T) {
	dir := t.TempDir()
	seed := []domain.CameraRecord{{
		Name:      "SR-198 : Hanford",
		Lat:       36.3275,
		Lon:       -119.6457,
		Source:    domain.SourceCaltrans,
		Elevation: domain.ElevationFeet(246),
	}}
	f, err := os.Create(filepath.Join(dir, csvfile.ArtifactName(domain.SourceCaltrans)))
	require.NoError(t, err)
	require.NoError(t, csvfile.WriteArtifact(f, seed))
	require.NoError(t, f.Close())

	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"value": "1000.4"}`))
	}))
	defer srv.Close()

	cfg := loadConfig(t, map[string]string{
		"PROVIDER_FILES": "Caltrans=" + fixture,
		"ARTIFACT_DIR":   dir,
		"ELEVATION_URL":  srv.URL,
	})
	metrics := observability.NewMetricsForTesting()

	a, err := Build(context.Background(), cfg, discardLogger(), metrics)
	require.NoError(t, err)
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.ElevationEnabled))

	snap, err := a.Pipeline.Refresh(context.Background())
	require.NoError(t, err)

	got := map[string]domain.Elevation{}
	for _, c := range snap.Cameras {
		got[c.Name] = c.Elevation
	}
	assert.Equal(t, domain.ElevationFeet(246), got["SR-198 : Hanford"])
	assert.Equal(t, domain.ElevationFeet(1000), got["SR-41 : Mariposa"])
	assert.Equal(t, domain.ElevationFeet(1000), got["SR-99 : Tulare"])
	assert.Equal(t, int32(2), calls.Load(), "the seeded coordinate is not looked up again")
}
