package domain

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// CanonicalColumns is the column contract of enriched artifacts.
var CanonicalColumns = []string{"lon", "lat", "name", "url", "elevation", "source"}

var (
	// embeddedSrcRe pulls the first src="..." (or src='...') attribute out of
	// an HTML fragment, e.g. `<img src="https://.../d10/cctv/x.jpg">`.
	embeddedSrcRe = regexp.MustCompile(`src\s*=\s*["']([^"']+)["']`)

	errMissingCoordinate = errors.New("missing coordinate")
	errInvalidCoordinate = errors.New("coordinate out of range")
)

// RowError describes a rejected export row.
type RowError struct {
	Source Source
	Index  int
	Err    error
}

func (e RowError) Error() string {
	return fmt.Sprintf("%s row %d: %v", e.Source, e.Index, e.Err)
}

func (e RowError) Unwrap() error { return e.Err }

// Normalize projects a provider's rows onto canonical records. Rows that
// cannot be placed are returned as RowErrors; every other row survives with
// defaults filled in. Normalize never performs I/O.
func Normalize(p Provider, rows []RawRow) ([]CameraRecord, []RowError) {
	records := make([]CameraRecord, 0, len(rows))
	var rejected []RowError
	for i, row := range rows {
		rec, err := p.Normalize(row)
		if err != nil {
			rejected = append(rejected, RowError{Source: p.Source(), Index: i, Err: err})
			continue
		}
		rec.Source = p.Source()
		records = append(records, rec)
	}
	return records, rejected
}

// NormalizeCanonical normalizes artifact rows, dispatching each row on its
// own source column. fallback is used for rows without one.
func NormalizeCanonical(reg *Registry, fallback Source, rows []RawRow) ([]CameraRecord, []RowError) {
	records := make([]CameraRecord, 0, len(rows))
	var rejected []RowError
	for i, row := range rows {
		src := fallback
		if tag := field(row, "source"); tag != "" {
			parsed, err := reg.ParseSource(tag)
			if err != nil {
				rejected = append(rejected, RowError{Source: Source(tag), Index: i, Err: err})
				continue
			}
			src = parsed
		}
		p, err := reg.Get(src)
		if err != nil {
			rejected = append(rejected, RowError{Source: src, Index: i, Err: err})
			continue
		}
		rec, err := p.Normalize(row)
		if err != nil {
			rejected = append(rejected, RowError{Source: src, Index: i, Err: err})
			continue
		}
		rec.Source = src
		records = append(records, rec)
	}
	return records, rejected
}

// CanonicalRow renders a record in the artifact column order.
func CanonicalRow(rec CameraRecord) []string {
	return []string{
		strconv.FormatFloat(rec.Lon, 'f', -1, 64),
		strconv.FormatFloat(rec.Lat, 'f', -1, 64),
		rec.Name,
		rec.RawURL,
		rec.Elevation.String(),
		string(rec.Source),
	}
}

// ToRawRow renders a record as a keyed row with the canonical columns.
func ToRawRow(rec CameraRecord) RawRow {
	cells := CanonicalRow(rec)
	row := make(RawRow, len(CanonicalColumns))
	for i, col := range CanonicalColumns {
		row[col] = cells[i]
	}
	return row
}

// displayPrefixes are the name prefixes providers add for display. Labels
// such as "SR99: Goshen" are not provider prefixes and are left alone.
var displayPrefixes = []string{alertCAPrefix}

// DisplayName strips a known provider display prefix from a camera name.
func DisplayName(name string) string {
	name = strings.TrimSpace(name)
	for _, prefix := range displayPrefixes {
		if rest, ok := strings.CutPrefix(name, prefix); ok {
			if rest = strings.TrimSpace(rest); rest != "" {
				return rest
			}
		}
	}
	return name
}

// ExtractEmbeddedURL returns the src attribute inside an HTML fragment, or
// "" when there is none.
func ExtractEmbeddedURL(markup string) string {
	m := embeddedSrcRe.FindStringSubmatch(markup)
	if len(m) != 2 {
		return ""
	}
	return strings.TrimSpace(m[1])
}

// field returns the first non-empty value among keys, in key order. Each key
// is matched exactly first and then case-insensitively, so "Lat" and "lat"
// columns behave the same without letting a later key win over an earlier one.
func field(row RawRow, keys ...string) string {
	for _, k := range keys {
		if v, ok := row[k]; ok {
			if v = strings.TrimSpace(v); v != "" {
				return v
			}
		}
		for col, v := range row {
			if col != k && strings.EqualFold(col, k) {
				if v = strings.TrimSpace(v); v != "" {
					return v
				}
			}
		}
	}
	return ""
}

// rowCoordinate reads lat/lon from the usual column spellings.
func rowCoordinate(row RawRow) (Coordinate, error) {
	latStr := field(row, "lat", "latitude", "y")
	lonStr := field(row, "lon", "longitude", "x")
	if latStr == "" || lonStr == "" {
		return Coordinate{}, errMissingCoordinate
	}
	lat, err := strconv.ParseFloat(latStr, 64)
	if err != nil {
		return Coordinate{}, fmt.Errorf("parse lat %q: %w", latStr, err)
	}
	lon, err := strconv.ParseFloat(lonStr, 64)
	if err != nil {
		return Coordinate{}, fmt.Errorf("parse lon %q: %w", lonStr, err)
	}
	c := Coordinate{Lat: lat, Lon: lon}
	if !c.Valid() {
		return Coordinate{}, fmt.Errorf("%w: %s", errInvalidCoordinate, c)
	}
	return c, nil
}
