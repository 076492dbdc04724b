package httpadapter

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	sharedobs "github.com/couchcryptid/storm-data-shared/observability"

	"github.com/couchcryptid/hnx-camera-etl/internal/domain"
	"github.com/couchcryptid/hnx-camera-etl/internal/pipeline"
)

type camerasResponse struct {
	GeneratedAt time.Time       `json:"generated_at"`
	Count       int             `json:"count"`
	Cameras     []domain.Camera `json:"cameras"`
}

type groupsResponse struct {
	GeneratedAt time.Time              `json:"generated_at"`
	Count       int                    `json:"count"`
	Groups      []domain.LocationGroup `json:"groups"`
}

type boundsResponse struct {
	GeneratedAt time.Time       `json:"generated_at"`
	Min         int             `json:"min"`
	Max         int             `json:"max"`
	Sources     []domain.Source `json:"sources"`
}

type errorResponse struct {
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
}

func (s *Server) handleCameras(w http.ResponseWriter, r *http.Request) {
	snap, q, ok := s.prepare(w, r)
	if !ok {
		return
	}
	cams := snap.FilterCameras(q)
	if cams == nil {
		cams = []domain.Camera{}
	}
	sharedobs.WriteJSON(w, http.StatusOK, camerasResponse{
		GeneratedAt: snap.GeneratedAt,
		Count:       len(cams),
		Cameras:     cams,
	})
}

func (s *Server) handleGroups(w http.ResponseWriter, r *http.Request) {
	snap, q, ok := s.prepare(w, r)
	if !ok {
		return
	}
	groups := snap.FilterGroups(q)
	if groups == nil {
		groups = []domain.LocationGroup{}
	}
	sharedobs.WriteJSON(w, http.StatusOK, groupsResponse{
		GeneratedAt: snap.GeneratedAt,
		Count:       len(groups),
		Groups:      groups,
	})
}

func (s *Server) handleBounds(w http.ResponseWriter, _ *http.Request) {
	snap := s.snapshots.Snapshot()
	if snap == nil {
		sharedobs.WriteJSON(w, http.StatusServiceUnavailable, errorResponse{Status: "no data"})
		return
	}
	sources := snap.Sources
	if sources == nil {
		sources = []domain.Source{}
	}
	sharedobs.WriteJSON(w, http.StatusOK, boundsResponse{
		GeneratedAt: snap.GeneratedAt,
		Min:         snap.Bounds.Min,
		Max:         snap.Bounds.Max,
		Sources:     sources,
	})
}

// prepare loads the current snapshot and parses the query parameters,
// writing the error response itself when either step fails.
func (s *Server) prepare(w http.ResponseWriter, r *http.Request) (*pipeline.Snapshot, domain.Query, bool) {
	snap := s.snapshots.Snapshot()
	if snap == nil {
		sharedobs.WriteJSON(w, http.StatusServiceUnavailable, errorResponse{Status: "no data"})
		return nil, domain.Query{}, false
	}
	q, err := s.parseQuery(r.URL.Query(), snap)
	if err != nil {
		s.logger.Debug("rejected query", "path", r.URL.Path, "error", err)
		sharedobs.WriteJSON(w, http.StatusBadRequest, errorResponse{Status: "bad request", Error: err.Error()})
		return nil, domain.Query{}, false
	}
	return snap, q, true
}

// parseQuery builds a query from min, max, unresolved, source, and q.
// Omitted bounds default to the snapshot's bounds. Unresolved records are
// included only while the range is the default one, unless unresolved says
// otherwise. A present but empty source parameter selects nothing.
func (s *Server) parseQuery(v url.Values, snap *pipeline.Snapshot) (domain.Query, error) {
	q := snap.DefaultQuery()

	explicit := false
	for _, p := range []struct {
		key string
		dst *int
	}{
		{"min", &q.Elevation.Min},
		{"max", &q.Elevation.Max},
	} {
		raw := strings.TrimSpace(v.Get(p.key))
		if raw == "" {
			continue
		}
		n, err := strconv.Atoi(raw)
		if err != nil {
			return domain.Query{}, fmt.Errorf("invalid %s: %q", p.key, raw)
		}
		*p.dst = n
		explicit = true
	}
	if q.Elevation.Min > q.Elevation.Max {
		return domain.Query{}, errors.New("min must not exceed max")
	}
	if explicit {
		q.Elevation.IncludeUnresolved = false
	}

	if raw := strings.TrimSpace(v.Get("unresolved")); raw != "" {
		b, err := strconv.ParseBool(raw)
		if err != nil {
			return domain.Query{}, fmt.Errorf("invalid unresolved: %q", raw)
		}
		q.Elevation.IncludeUnresolved = b
	}

	if v.Has("source") {
		set := domain.NewSourceSet()
		for _, name := range strings.Split(v.Get("source"), ",") {
			name = strings.TrimSpace(name)
			if name == "" {
				continue
			}
			src, err := s.registry.ParseSource(name)
			if err != nil {
				return domain.Query{}, err
			}
			set[src] = struct{}{}
		}
		q.Sources = set
	}

	q.Search = strings.TrimSpace(v.Get("q"))
	return q, nil
}
