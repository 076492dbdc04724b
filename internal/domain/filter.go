package domain

import "strings"

// ElevationRange is an inclusive [Min, Max] range in feet. Records whose
// elevation is unresolved only pass when IncludeUnresolved is set.
type ElevationRange struct {
	Min               int  `json:"min"`
	Max               int  `json:"max"`
	IncludeUnresolved bool `json:"include_unresolved"`
}

// Contains reports whether e satisfies the range.
func (r ElevationRange) Contains(e Elevation) bool {
	ft, ok := e.Feet()
	if !ok {
		return r.IncludeUnresolved
	}
	return ft >= r.Min && ft <= r.Max
}

// SourceSet is a set of providers. A nil set matches every source; an empty
// non-nil set matches none.
type SourceSet map[Source]struct{}

// NewSourceSet builds a set from the given sources.
func NewSourceSet(sources ...Source) SourceSet {
	s := make(SourceSet, len(sources))
	for _, src := range sources {
		s[src] = struct{}{}
	}
	return s
}

// Contains reports whether src is in the set.
func (s SourceSet) Contains(src Source) bool {
	if s == nil {
		return true
	}
	_, ok := s[src]
	return ok
}

// Query combines the visible-subset predicates with logical AND.
type Query struct {
	Elevation ElevationRange
	Sources   SourceSet
	Search    string
}

// Matches reports whether rec passes every predicate.
func (q Query) Matches(rec CameraRecord) bool {
	if !q.Elevation.Contains(rec.Elevation) {
		return false
	}
	if !q.Sources.Contains(rec.Source) {
		return false
	}
	if q.Search == "" {
		return true
	}
	return strings.Contains(strings.ToLower(rec.Name), strings.ToLower(q.Search))
}

// ElevationBounds derives the full range of the current data set. The range
// includes unresolved records so a default query hides nothing. With no
// resolved elevations the bounds are [0, 0].
func ElevationBounds(records []CameraRecord) ElevationRange {
	r := ElevationRange{IncludeUnresolved: true}
	first := true
	for _, rec := range records {
		ft, ok := rec.Elevation.Feet()
		if !ok {
			continue
		}
		if first {
			r.Min, r.Max = ft, ft
			first = false
			continue
		}
		r.Min = min(r.Min, ft)
		r.Max = max(r.Max, ft)
	}
	return r
}

// DefaultQuery is the identity query for records.
func DefaultQuery(records []CameraRecord) Query {
	return Query{Elevation: ElevationBounds(records)}
}

// Filter returns the records matching q in their original order.
func Filter(records []CameraRecord, q Query) []CameraRecord {
	out := make([]CameraRecord, 0, len(records))
	for _, rec := range records {
		if q.Matches(rec) {
			out = append(out, rec)
		}
	}
	return out
}

// FilterCameras is Filter for cameras with feeds attached.
func FilterCameras(cameras []Camera, q Query) []Camera {
	out := make([]Camera, 0, len(cameras))
	for _, cam := range cameras {
		if q.Matches(cam.CameraRecord) {
			out = append(out, cam)
		}
	}
	return out
}

// FilterGroups keeps the matching members of every group and drops groups
// left empty. Title, classification and color are recomputed from the
// surviving members; the group position is kept.
func (g Grouper) FilterGroups(groups []LocationGroup, q Query) []LocationGroup {
	out := make([]LocationGroup, 0, len(groups))
	for _, grp := range groups {
		members := FilterCameras(grp.Cameras, q)
		if len(members) == 0 {
			continue
		}
		out = append(out, g.build(grp.Lat, grp.Lon, members))
	}
	return out
}

// Records unwraps the canonical records of cameras.
func Records(cameras []Camera) []CameraRecord {
	out := make([]CameraRecord, len(cameras))
	for i, c := range cameras {
		out[i] = c.CameraRecord
	}
	return out
}
