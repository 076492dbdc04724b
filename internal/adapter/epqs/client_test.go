package epqs

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"

	"github.com/couchcryptid/hnx-camera-etl/internal/domain"
	"github.com/couchcryptid/hnx-camera-etl/internal/observability"
)

const (
	contentTypeJSON   = "application/json"
	headerContentType = "Content-Type"
)

func testClient(baseURL string) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: 5 * time.Second},
		baseURL:    baseURL,
		limiter:    rate.NewLimiter(rate.Inf, 1),
		metrics:    observability.NewMetricsForTesting(),
		logger:     slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
}

func serveJSON(t *testing.T, body string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set(headerContentType, contentTypeJSON)
		_, err := io.WriteString(w, body)
		require.NoError(t, err)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestClient_LookupElevation_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		assert.Equal(t, "-119.640000", q.Get("x"))
		assert.Equal(t, "36.320000", q.Get("y"))
		assert.Equal(t, "Feet", q.Get("units"))
		assert.Equal(t, "json", q.Get("output"))

		w.Header().Set(headerContentType, contentTypeJSON)
		_, _ = io.WriteString(w, `{"location":{"x":-119.64,"y":36.32},"value":"4102.37","units":"Feet"}`)
	}))
	defer srv.Close()

	c := testClient(srv.URL)
	elev, err := c.LookupElevation(context.Background(), domain.Coordinate{Lat: 36.32, Lon: -119.64})
	require.NoError(t, err)

	assert.Equal(t, domain.ElevationFeet(4102), elev)
	assert.Equal(t, 1.0, testutil.ToFloat64(c.metrics.ElevationRequests.WithLabelValues("success")))
}

func TestClient_LookupElevation_NumericValue(t *testing.T) {
	c := testClient(serveJSON(t, `{"value": 287.9}`).URL)

	elev, err := c.LookupElevation(context.Background(), domain.Coordinate{Lat: 36.3, Lon: -119.3})
	require.NoError(t, err)
	assert.Equal(t, domain.ElevationFeet(287), elev)
}

func TestClient_LookupElevation_NoData(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"missing value", `{"location":{}}`},
		{"null value", `{"value":null}`},
		{"outside coverage", `{"value":-1000000}`},
		{"not a number", `{"value":"n/a"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := testClient(serveJSON(t, tt.body).URL)

			elev, err := c.LookupElevation(context.Background(), domain.Coordinate{Lat: 36, Lon: -119})
			require.ErrorIs(t, err, ErrNoData)
			assert.False(t, elev.Resolved())
			assert.Equal(t, 1.0, testutil.ToFloat64(c.metrics.ElevationRequests.WithLabelValues("no_data")))
		})
	}
}

func TestClient_LookupElevation_APIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		_, _ = io.WriteString(w, "upstream unavailable")
	}))
	defer srv.Close()

	c := testClient(srv.URL)
	_, err := c.LookupElevation(context.Background(), domain.Coordinate{Lat: 36, Lon: -119})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 502")
	assert.Equal(t, 1.0, testutil.ToFloat64(c.metrics.ElevationRequests.WithLabelValues("error")))
}

func TestClient_LookupElevation_InvalidJSON(t *testing.T) {
	c := testClient(serveJSON(t, `not json`).URL)

	_, err := c.LookupElevation(context.Background(), domain.Coordinate{Lat: 36, Lon: -119})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "decode response")
}

func TestClient_LookupElevation_ContextCancelled(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	c := testClient(srv.URL)
	_, err := c.LookupElevation(ctx, domain.Coordinate{Lat: 36, Lon: -119})
	require.Error(t, err)
}

func TestClient_RateLimited(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		_, _ = io.WriteString(w, `{"value":"100"}`)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, time.Second, 20, observability.NewMetricsForTesting(), slog.New(slog.NewTextHandler(io.Discard, nil)))

	start := time.Now()
	for i := 0; i < 3; i++ {
		_, err := c.LookupElevation(context.Background(), domain.Coordinate{Lat: 36, Lon: -119})
		require.NoError(t, err)
	}

	assert.Equal(t, int32(3), calls.Load())
	assert.GreaterOrEqual(t, time.Since(start), 90*time.Millisecond, "three requests at 20/s need two 50ms waits")
}

func TestNewClient_Defaults(t *testing.T) {
	c := NewClient("", 10*time.Second, 0, observability.NewMetricsForTesting(), slog.New(slog.NewTextHandler(io.Discard, nil)))
	assert.Equal(t, DefaultBaseURL, c.baseURL)
	assert.Equal(t, 10*time.Second, c.httpClient.Timeout)
	assert.Equal(t, rate.Inf, c.limiter.Limit())
}
