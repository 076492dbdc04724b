package domain

import (
	"fmt"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// tenRecords returns five records with elevations 500..4500 and five without.
func tenRecords() []CameraRecord {
	var recs []CameraRecord
	for i := 0; i < 5; i++ {
		recs = append(recs, CameraRecord{
			Name:      fmt.Sprintf("SR-%d : Resolved", 100+i),
			Lat:       36 + float64(i)/10,
			Lon:       -119,
			Source:    SourceCaltrans,
			Elevation: ElevationFeet(500 + i*1000),
		})
		recs = append(recs, CameraRecord{
			Name:   fmt.Sprintf("ALERTCA: Unresolved %d", i),
			Lat:    36 + float64(i)/10,
			Lon:    -118,
			Source: SourceALERTCalifornia,
		})
	}
	return recs
}

var elevationCmp = cmp.AllowUnexported(Elevation{})

func TestFilter_UnresolvedExcludedFromExplicitRange(t *testing.T) {
	recs := tenRecords()

	got := Filter(recs, Query{Elevation: ElevationRange{Min: 1000, Max: 8000}})

	require.Len(t, got, 4)
	for _, r := range got {
		assert.True(t, r.Elevation.Resolved(), r.Name)
	}

	got = Filter(recs, Query{Elevation: ElevationRange{Min: 1000, Max: 8000, IncludeUnresolved: true}})
	assert.Len(t, got, 9)
}

func TestFilter_IdentityWithDefaultQuery(t *testing.T) {
	recs := tenRecords()

	got := Filter(recs, DefaultQuery(recs))

	if diff := cmp.Diff(recs, got, elevationCmp); diff != "" {
		t.Errorf("default query changed the record set (-want +got):\n%s", diff)
	}

	full := Query{Elevation: ElevationBounds(recs), Sources: NewSourceSet(SourceCaltrans, SourceALERTCalifornia, SourceHPWREN)}
	assert.Len(t, Filter(recs, full), len(recs))
}

func TestFilter_IsOrderPreservingSubset(t *testing.T) {
	recs := tenRecords()
	queries := []Query{
		{Elevation: ElevationRange{Min: 0, Max: 2000}},
		{Elevation: ElevationRange{Min: 0, Max: 10000, IncludeUnresolved: true}, Search: "unresolved"},
		{Elevation: ElevationRange{Min: 4000, Max: 4000}, Sources: NewSourceSet(SourceCaltrans)},
		{Elevation: ElevationBounds(recs), Sources: NewSourceSet()},
	}

	for i, q := range queries {
		got := Filter(recs, q)
		j := 0
		for _, r := range got {
			for j < len(recs) && recs[j].Name != r.Name {
				j++
			}
			require.Less(t, j, len(recs), "query %d returned a record out of order or not in input", i)
			j++
		}
	}
}

func TestFilter_Predicates(t *testing.T) {
	recs := tenRecords()
	bounds := ElevationBounds(recs)

	t.Run("search is case-insensitive", func(t *testing.T) {
		got := Filter(recs, Query{Elevation: bounds, Search: "sr-10"})
		assert.Len(t, got, 5)
		got = Filter(recs, Query{Elevation: bounds, Search: "ALERTca"})
		assert.Len(t, got, 5)
	})

	t.Run("source set", func(t *testing.T) {
		got := Filter(recs, Query{Elevation: bounds, Sources: NewSourceSet(SourceALERTCalifornia)})
		assert.Len(t, got, 5)
		for _, r := range got {
			assert.Equal(t, SourceALERTCalifornia, r.Source)
		}
	})

	t.Run("empty source set matches nothing", func(t *testing.T) {
		assert.Empty(t, Filter(recs, Query{Elevation: bounds, Sources: NewSourceSet()}))
	})

	t.Run("inclusive bounds", func(t *testing.T) {
		got := Filter(recs, Query{Elevation: ElevationRange{Min: 1500, Max: 2000}})
		require.Len(t, got, 1)
		assert.Equal(t, ElevationFeet(1500), got[0].Elevation)
	})

	t.Run("predicates combine with AND", func(t *testing.T) {
		got := Filter(recs, Query{Elevation: ElevationRange{Min: 0, Max: 9000, IncludeUnresolved: true}, Sources: NewSourceSet(SourceCaltrans), Search: "103"})
		require.Len(t, got, 1)
		assert.Equal(t, "SR-103 : Resolved", got[0].Name)
	})
}

func TestElevationBounds(t *testing.T) {
	b := ElevationBounds(tenRecords())
	assert.Equal(t, ElevationRange{Min: 500, Max: 4500, IncludeUnresolved: true}, b)

	b = ElevationBounds([]CameraRecord{{Name: "x"}})
	assert.Equal(t, ElevationRange{IncludeUnresolved: true}, b)

	b = ElevationBounds(append(tenRecords(), CameraRecord{Name: "sea level", Elevation: ElevationFeet(0)}))
	assert.Equal(t, 0, b.Min, "recomputed when the record set changes")
}

func TestGrouper_FilterGroups(t *testing.T) {
	g := NewGrouper(DefaultGroupPrecision, 1, DefaultRegistry(""))
	groups := g.Group(camerasOf(
		CameraRecord{Name: "ALERTCA: Kings Peak", Lat: 36.3201, Lon: -119.6401, Source: SourceALERTCalifornia},
		CameraRecord{Name: "Kings Peak", Lat: 36.3200, Lon: -119.6402, Source: SourceHPWREN, Elevation: ElevationFeet(4100)},
		CameraRecord{Name: "SR-41 : Mariposa", Lat: 37.485, Lon: -119.966, Source: SourceCaltrans, Elevation: ElevationFeet(1950)},
	))
	require.Len(t, groups, 2)

	got := g.FilterGroups(groups, Query{Elevation: ElevationRange{Min: 3000, Max: 5000}})

	require.Len(t, got, 1)
	assert.Equal(t, SingleSource, got[0].Classification)
	assert.Equal(t, "orange", got[0].MarkerColor)
	assert.Equal(t, "Kings Peak", got[0].Title)
	assert.Len(t, got[0].Cameras, 1)
	assert.Equal(t, groups[0].Lat, got[0].Lat)

	all := g.FilterGroups(groups, Query{Elevation: ElevationRange{Min: 0, Max: 5000, IncludeUnresolved: true}})
	if diff := cmp.Diff(groups, all, elevationCmp); diff != "" {
		t.Errorf("full query changed groups (-want +got):\n%s", diff)
	}
}

func TestBoundingBox(t *testing.T) {
	assert.True(t, HanfordCWA.Valid())
	assert.True(t, HanfordCWA.Contains(Coordinate{Lat: 36.32, Lon: -119.64}))
	assert.True(t, HanfordCWA.Contains(Coordinate{Lat: 34.75, Lon: -117.60}), "edges are inclusive")
	assert.False(t, HanfordCWA.Contains(Coordinate{Lat: 38.58, Lon: -121.49}))

	recs := []CameraRecord{
		{Name: "Visalia", Lat: 36.33, Lon: -119.29},
		{Name: "Sacramento", Lat: 38.58, Lon: -121.49},
	}
	got := WithinRegion(recs, HanfordCWA)
	require.Len(t, got, 1)
	assert.Equal(t, "Visalia", got[0].Name)

	assert.False(t, BoundingBox{LatMin: 1, LatMax: 0, LonMin: 0, LonMax: 1}.Valid())
}
