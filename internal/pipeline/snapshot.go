package pipeline

import (
	"time"

	"github.com/couchcryptid/hnx-camera-etl/internal/domain"
)

// Snapshot is one immutable refresh result. Query methods never modify it.
type Snapshot struct {
	Cameras     []domain.Camera
	Groups      []domain.LocationGroup
	Bounds      domain.ElevationRange
	Sources     []domain.Source
	GeneratedAt time.Time

	grouper domain.Grouper
}

// DefaultQuery selects every camera in the snapshot.
func (s *Snapshot) DefaultQuery() domain.Query {
	return domain.Query{Elevation: s.Bounds}
}

// FilterCameras returns the cameras matching q in snapshot order.
func (s *Snapshot) FilterCameras(q domain.Query) []domain.Camera {
	return domain.FilterCameras(s.Cameras, q)
}

// FilterGroups returns the groups that keep at least one matching camera.
func (s *Snapshot) FilterGroups(q domain.Query) []domain.LocationGroup {
	return s.grouper.FilterGroups(s.Groups, q)
}
