package domain

import "math"

// Classification describes which providers a location group spans.
type Classification string

const (
	SingleSource Classification = "single-source"
	MixedSource  Classification = "mixed-source"
)

// DefaultGroupPrecision rounds to 4 decimal degrees, roughly 11 m.
const DefaultGroupPrecision = 4

// LocationGroup is one physical site and the cameras reported there.
type LocationGroup struct {
	Lat            float64        `json:"lat"`
	Lon            float64        `json:"lon"`
	Title          string         `json:"title"`
	Classification Classification `json:"classification"`
	MarkerColor    string         `json:"marker_color"`
	Sources        []Source       `json:"sources"`
	Cameras        []Camera       `json:"cameras"`
}

// gridKey is a coordinate snapped to the group grid, in grid units.
type gridKey struct {
	lat int64
	lon int64
}

// Grouper clusters cameras by approximate coordinate equality.
type Grouper struct {
	precision int
	tolerance int64
	registry  *Registry
}

// NewGrouper creates a Grouper snapping to precision decimals. A record
// joins an existing group whose cell lies within tolerance cells on both
// axes; tolerance 0 requires an exact rounded match. reg supplies marker
// colors and may be nil.
func NewGrouper(precision, tolerance int, reg *Registry) Grouper {
	if precision < 0 {
		precision = DefaultGroupPrecision
	}
	if tolerance < 0 {
		tolerance = 0
	}
	return Grouper{precision: precision, tolerance: int64(tolerance), registry: reg}
}

func (g Grouper) key(lat, lon float64) gridKey {
	scale := math.Pow10(g.precision)
	return gridKey{
		lat: int64(math.Round(lat * scale)),
		lon: int64(math.Round(lon * scale)),
	}
}

// Group clusters cameras into location groups. Groups come out in the order
// their first member was seen and members keep input order, so the result is
// a pure function of the input. Cameras with invalid coordinates are skipped.
func (g Grouper) Group(cameras []Camera) []LocationGroup {
	type bucket struct {
		key     gridKey
		members []Camera
	}
	var buckets []*bucket
	index := make(map[gridKey]int)

	for _, cam := range cameras {
		if !cam.Coordinate().Valid() {
			continue
		}
		k := g.key(cam.Lat, cam.Lon)
		if i, ok := g.find(index, k); ok {
			buckets[i].members = append(buckets[i].members, cam)
			continue
		}
		index[k] = len(buckets)
		buckets = append(buckets, &bucket{key: k, members: []Camera{cam}})
	}

	groups := make([]LocationGroup, 0, len(buckets))
	scale := math.Pow10(g.precision)
	for _, b := range buckets {
		groups = append(groups, g.build(float64(b.key.lat)/scale, float64(b.key.lon)/scale, b.members))
	}
	return groups
}

// find returns the earliest-created group whose cell is within tolerance of k.
func (g Grouper) find(index map[gridKey]int, k gridKey) (int, bool) {
	if i, ok := index[k]; ok && g.tolerance == 0 {
		return i, true
	}
	best, found := 0, false
	for dLat := -g.tolerance; dLat <= g.tolerance; dLat++ {
		for dLon := -g.tolerance; dLon <= g.tolerance; dLon++ {
			i, ok := index[gridKey{lat: k.lat + dLat, lon: k.lon + dLon}]
			if ok && (!found || i < best) {
				best, found = i, true
			}
		}
	}
	return best, found
}

func (g Grouper) build(lat, lon float64, members []Camera) LocationGroup {
	var sources []Source
	seen := make(map[Source]bool)
	for _, m := range members {
		if !seen[m.Source] {
			seen[m.Source] = true
			sources = append(sources, m.Source)
		}
	}

	group := LocationGroup{
		Lat:            lat,
		Lon:            lon,
		Title:          DisplayName(members[0].Name),
		Classification: SingleSource,
		Sources:        sources,
		Cameras:        members,
	}
	if len(sources) > 1 {
		group.Classification = MixedSource
		group.MarkerColor = MixedSourceColor
	} else if g.registry != nil {
		group.MarkerColor = g.registry.MarkerColor(sources[0])
	}
	return group
}
