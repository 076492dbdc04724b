package domain

import (
	"errors"
	"fmt"
	"math"
)

// ErrNoData is returned when a refresh produced no camera records at all.
// Callers use it to tell "nothing matches the filter" apart from "the
// enrichment run produced nothing".
var ErrNoData = errors.New("no camera data")

// ErrUnknownSource is returned when a source tag has no registered provider.
var ErrUnknownSource = errors.New("unknown camera source")

// Source identifies the camera network that owns a record.
type Source string

const (
	SourceCaltrans        Source = "Caltrans"
	SourceALERTCalifornia Source = "ALERTCalifornia"
	SourceHPWREN          Source = "HPWREN"
)

// Coordinate is a WGS-84 latitude/longitude pair in degrees.
type Coordinate struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// Valid reports whether both components are finite and inside the WGS-84 range.
func (c Coordinate) Valid() bool {
	if math.IsNaN(c.Lat) || math.IsNaN(c.Lon) || math.IsInf(c.Lat, 0) || math.IsInf(c.Lon, 0) {
		return false
	}
	return c.Lat >= -90 && c.Lat <= 90 && c.Lon >= -180 && c.Lon <= 180
}

func (c Coordinate) String() string {
	return fmt.Sprintf("%.6f,%.6f", c.Lat, c.Lon)
}

// RawRow is one provider export row keyed by column name.
type RawRow map[string]string

// CameraRecord is the canonical, provider-agnostic camera listing.
type CameraRecord struct {
	Name      string    `json:"name"`
	Lat       float64   `json:"lat"`
	Lon       float64   `json:"lon"`
	Source    Source    `json:"source"`
	RawURL    string    `json:"url"`
	Elevation Elevation `json:"elevation_ft"`
}

// Coordinate returns the record's position.
func (r CameraRecord) Coordinate() Coordinate {
	return Coordinate{Lat: r.Lat, Lon: r.Lon}
}

// Key returns the natural identity of a record within one refresh cycle.
func (r CameraRecord) Key() string {
	return string(r.Source) + "|" + r.Name
}

// Camera is a record with its resolved feed descriptor attached.
type Camera struct {
	CameraRecord
	Feed FeedDescriptor `json:"feed"`
}
