package domain

// BoundingBox is an inclusive latitude/longitude rectangle.
type BoundingBox struct {
	LatMin float64 `json:"lat_min"`
	LatMax float64 `json:"lat_max"`
	LonMin float64 `json:"lon_min"`
	LonMax float64 `json:"lon_max"`
}

// HanfordCWA covers the NWS Hanford county warning area, Yosemite to the
// Tehachapis.
var HanfordCWA = BoundingBox{LatMin: 34.75, LatMax: 38.20, LonMin: -121.20, LonMax: -117.60}

// Contains reports whether c lies inside the box.
func (b BoundingBox) Contains(c Coordinate) bool {
	return c.Lat >= b.LatMin && c.Lat <= b.LatMax && c.Lon >= b.LonMin && c.Lon <= b.LonMax
}

// Valid reports whether the box has a positive extent inside WGS-84.
func (b BoundingBox) Valid() bool {
	return b.LatMin < b.LatMax && b.LonMin < b.LonMax &&
		Coordinate{Lat: b.LatMin, Lon: b.LonMin}.Valid() &&
		Coordinate{Lat: b.LatMax, Lon: b.LonMax}.Valid()
}

// WithinRegion returns the records inside b, preserving order.
func WithinRegion(records []CameraRecord, b BoundingBox) []CameraRecord {
	out := make([]CameraRecord, 0, len(records))
	for _, rec := range records {
		if b.Contains(rec.Coordinate()) {
			out = append(out, rec)
		}
	}
	return out
}
