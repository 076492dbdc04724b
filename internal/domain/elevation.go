package domain

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// epqsNoData is the value the USGS point service returns outside its coverage.
const epqsNoData = -1000000

// Elevation is an elevation in whole feet or the unresolved marker.
// The zero value is unresolved, which keeps a legitimate 0 ft reading
// distinguishable from a failed lookup.
type Elevation struct {
	feet     int
	resolved bool
}

// Unresolved marks an elevation that was never looked up or whose lookup failed.
var Unresolved = Elevation{}

// ElevationFeet returns a resolved elevation.
func ElevationFeet(ft int) Elevation {
	return Elevation{feet: ft, resolved: true}
}

// Feet returns the elevation and whether it is resolved.
func (e Elevation) Feet() (int, bool) {
	return e.feet, e.resolved
}

// Resolved reports whether the elevation holds a real value.
func (e Elevation) Resolved() bool {
	return e.resolved
}

// String renders the CSV cell form: the integer, or "" when unresolved.
func (e Elevation) String() string {
	if !e.resolved {
		return ""
	}
	return strconv.Itoa(e.feet)
}

func (e Elevation) MarshalJSON() ([]byte, error) {
	if !e.resolved {
		return []byte("null"), nil
	}
	return []byte(strconv.Itoa(e.feet)), nil
}

func (e *Elevation) UnmarshalJSON(data []byte) error {
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*e = CoerceFeet(v)
	return nil
}

// ParseElevation reads a CSV cell. Empty or non-numeric cells are unresolved.
func ParseElevation(s string) Elevation {
	return CoerceFeet(s)
}

// CoerceFeet converts a payload value into whole feet, truncating any
// fractional part. Strings are parsed; anything non-numeric, non-finite or
// the service's no-data value yields Unresolved.
func CoerceFeet(v any) Elevation {
	var f float64
	switch val := v.(type) {
	case float64:
		f = val
	case float32:
		f = float64(val)
	case int:
		f = float64(val)
	case int64:
		f = float64(val)
	case json.Number:
		parsed, err := val.Float64()
		if err != nil {
			return Unresolved
		}
		f = parsed
	case string:
		s := strings.TrimSpace(val)
		if s == "" {
			return Unresolved
		}
		parsed, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return Unresolved
		}
		f = parsed
	default:
		return Unresolved
	}

	if math.IsNaN(f) || math.IsInf(f, 0) || f <= epqsNoData {
		return Unresolved
	}
	if f > math.MaxInt32 || f < math.MinInt32 {
		return Unresolved
	}
	return ElevationFeet(int(f))
}
