package arcgis

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/couchcryptid/hnx-camera-etl/internal/domain"
)

// Client fetches ALERTCalifornia cameras from an ArcGIS FeatureServer layer.
type Client struct {
	httpClient *http.Client
	queryURL   string
	bbox       domain.BoundingBox
	logger     *slog.Logger
}

// NewClient creates a FeatureServer client limited to bbox.
func NewClient(queryURL string, bbox domain.BoundingBox, timeout time.Duration, logger *slog.Logger) *Client {
	return &Client{
		httpClient: &http.Client{
			Timeout: timeout,
		},
		queryURL: queryURL,
		bbox:     bbox,
		logger:   logger,
	}
}

func (c *Client) Source() domain.Source { return domain.SourceALERTCalifornia }

func (c *Client) Name() string { return "arcgis" }

// FetchRows queries every feature intersecting the bounding box and projects
// each one onto a raw row keyed like the ALERTCalifornia export.
func (c *Client) FetchRows(ctx context.Context) ([]domain.RawRow, error) {
	params := url.Values{
		"f":              {"json"},
		"where":          {"1=1"},
		"outFields":      {"*"},
		"geometry":       {c.envelope()},
		"geometryType":   {"esriGeometryEnvelope"},
		"spatialRel":     {"esriSpatialRelIntersects"},
		"inSR":           {"4326"},
		"outSR":          {"4326"},
		"returnGeometry": {"true"},
		"resultType":     {"standard"},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.queryURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("arcgis query: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("arcgis API error: status %d: %s", resp.StatusCode, body)
	}

	var qr queryResponse
	if err := json.NewDecoder(resp.Body).Decode(&qr); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	// FeatureServer reports query failures in a 200 body.
	if qr.Error != nil {
		return nil, fmt.Errorf("arcgis API error: code %d: %s", qr.Error.Code, qr.Error.Message)
	}

	rows := make([]domain.RawRow, 0, len(qr.Features))
	for _, f := range qr.Features {
		if f.Geometry == nil {
			c.logger.Warn("arcgis feature without geometry", "name", f.Attributes.str("cameraName"))
			continue
		}
		rows = append(rows, domain.RawRow{
			"lon":        strconv.FormatFloat(f.Geometry.X, 'f', -1, 64),
			"lat":        strconv.FormatFloat(f.Geometry.Y, 'f', -1, 64),
			"cameraname": f.Attributes.str("cameraName"),
			"name":       f.Attributes.str("name"),
			"imageurl":   f.Attributes.str("imageURL"),
			"networkurl": f.Attributes.str("networkURL"),
		})
	}
	if qr.ExceededTransferLimit {
		c.logger.Warn("arcgis result truncated by server transfer limit", "features", len(rows))
	}
	return rows, nil
}

// envelope renders the box as xmin,ymin,xmax,ymax.
func (c *Client) envelope() string {
	f := func(v float64) string { return strconv.FormatFloat(v, 'f', -1, 64) }
	return f(c.bbox.LonMin) + "," + f(c.bbox.LatMin) + "," + f(c.bbox.LonMax) + "," + f(c.bbox.LatMax)
}

// FeatureServer query response types.

type queryResponse struct {
	Features              []feature  `json:"features"`
	ExceededTransferLimit bool       `json:"exceededTransferLimit"`
	Error                 *errorBody `json:"error"`
}

type feature struct {
	Attributes attributes `json:"attributes"`
	Geometry   *point     `json:"geometry"`
}

type point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

type errorBody struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

type attributes map[string]any

// str renders an attribute as text; missing and null attributes are empty.
func (a attributes) str(key string) string {
	switch v := a[key].(type) {
	case nil:
		return ""
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	default:
		return fmt.Sprint(v)
	}
}
