package epqs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"golang.org/x/time/rate"

	"github.com/couchcryptid/hnx-camera-etl/internal/domain"
	"github.com/couchcryptid/hnx-camera-etl/internal/observability"
)

// DefaultBaseURL is the USGS Elevation Point Query Service endpoint.
const DefaultBaseURL = "https://epqs.nationalmap.gov/v1/json"

// ErrNoData is returned when the service answers without a usable value,
// including its -1000000 "outside coverage" marker.
var ErrNoData = errors.New("epqs: no elevation data")

// Client implements domain.ElevationService using the USGS EPQS API.
type Client struct {
	httpClient *http.Client
	baseURL    string
	limiter    *rate.Limiter
	metrics    *observability.Metrics
	logger     *slog.Logger
}

// NewClient creates an EPQS client. ratePerSecond <= 0 disables pacing.
func NewClient(baseURL string, timeout time.Duration, ratePerSecond float64, metrics *observability.Metrics, logger *slog.Logger) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	limit := rate.Inf
	if ratePerSecond > 0 {
		limit = rate.Limit(ratePerSecond)
	}
	return &Client{
		httpClient: &http.Client{
			Timeout: timeout,
		},
		baseURL: baseURL,
		limiter: rate.NewLimiter(limit, 1),
		metrics: metrics,
		logger:  logger,
	}
}

// LookupElevation returns the ground elevation in feet at c.
func (c *Client) LookupElevation(ctx context.Context, coord domain.Coordinate) (domain.Elevation, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return domain.Unresolved, fmt.Errorf("rate limit wait: %w", err)
	}

	params := url.Values{
		"x":      {strconv.FormatFloat(coord.Lon, 'f', 6, 64)},
		"y":      {strconv.FormatFloat(coord.Lat, 'f', 6, 64)},
		"units":  {"Feet"},
		"output": {"json"},
	}

	start := time.Now()
	elev, err := c.doRequest(ctx, c.baseURL+"?"+params.Encode())
	c.metrics.ElevationAPIDuration.Observe(time.Since(start).Seconds())

	switch {
	case errors.Is(err, ErrNoData):
		c.metrics.ElevationRequests.WithLabelValues("no_data").Inc()
	case err != nil:
		c.metrics.ElevationRequests.WithLabelValues("error").Inc()
	default:
		c.metrics.ElevationRequests.WithLabelValues("success").Inc()
		c.logger.Debug("elevation resolved", "coord", coord.String(), "feet", elev.String())
	}
	return elev, err
}

func (c *Client) doRequest(ctx context.Context, fullURL string) (domain.Elevation, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return domain.Unresolved, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return domain.Unresolved, fmt.Errorf("elevation request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return domain.Unresolved, fmt.Errorf("epqs API error: status %d: %s", resp.StatusCode, body)
	}

	var epqsResp response
	if err := json.NewDecoder(resp.Body).Decode(&epqsResp); err != nil {
		return domain.Unresolved, fmt.Errorf("decode response: %w", err)
	}
	if epqsResp.Value == nil {
		return domain.Unresolved, ErrNoData
	}

	elev := domain.CoerceFeet(epqsResp.Value)
	if !elev.Resolved() {
		return domain.Unresolved, fmt.Errorf("%w: value %v", ErrNoData, epqsResp.Value)
	}
	return elev, nil
}

// EPQS API response types. The value arrives as a number or a numeric string
// depending on the service revision.

type response struct {
	Value any `json:"value"`
}
