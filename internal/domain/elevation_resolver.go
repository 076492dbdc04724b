package domain

import (
	"context"
	"log/slog"
	"time"

	"github.com/jonboulle/clockwork"
	"golang.org/x/sync/errgroup"
)

// ElevationService looks up the ground elevation of a single point.
type ElevationService interface {
	LookupElevation(ctx context.Context, c Coordinate) (Elevation, error)
}

// ElevationCache remembers resolved elevations across refresh cycles.
type ElevationCache interface {
	Get(c Coordinate) (Elevation, bool)
	Set(c Coordinate, e Elevation)
}

// ResolverConfig bounds how an ElevationResolver talks to its service.
type ResolverConfig struct {
	Workers        int
	RequestTimeout time.Duration
	BatchTimeout   time.Duration
}

// DefaultResolverConfig mirrors what the USGS service tolerates: ten
// concurrent requests with a ten second budget each.
func DefaultResolverConfig() ResolverConfig {
	return ResolverConfig{
		Workers:        10,
		RequestTimeout: 10 * time.Second,
		BatchTimeout:   2 * time.Minute,
	}
}

// ElevationResults maps every requested coordinate to its outcome.
type ElevationResults struct {
	Values     map[Coordinate]Elevation
	Requested  int
	CacheHits  int
	Resolved   int
	Unresolved int
	TimedOut   bool
}

// Lookup returns the elevation for c, or Unresolved when c was not requested
// or its lookup failed.
func (r ElevationResults) Lookup(c Coordinate) Elevation {
	return r.Values[c]
}

// ElevationResolver resolves batches of coordinates with a bounded worker
// pool. Individual failures degrade to Unresolved; the batch never fails.
type ElevationResolver struct {
	service ElevationService
	cache   ElevationCache
	cfg     ResolverConfig
	clock   clockwork.Clock
	logger  *slog.Logger
}

// NewElevationResolver creates a resolver. cache may be nil to disable reuse
// across batches; a nil service leaves every coordinate unresolved.
func NewElevationResolver(service ElevationService, cache ElevationCache, cfg ResolverConfig, logger *slog.Logger) *ElevationResolver {
	def := DefaultResolverConfig()
	if cfg.Workers <= 0 {
		cfg.Workers = def.Workers
	}
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = def.RequestTimeout
	}
	if cfg.BatchTimeout <= 0 {
		cfg.BatchTimeout = def.BatchTimeout
	}
	return &ElevationResolver{
		service: service,
		cache:   cache,
		cfg:     cfg,
		clock:   clockwork.NewRealClock(),
		logger:  logger,
	}
}

// WithClock swaps the time source used for the batch deadline.
func (r *ElevationResolver) WithClock(c clockwork.Clock) *ElevationResolver {
	r.clock = c
	return r
}

type lookupResult struct {
	index int
	elev  Elevation
}

// Resolve looks up every distinct coordinate once. Cached values are reused;
// the rest are fetched concurrently. When the batch deadline passes or ctx is
// cancelled, Resolve returns whatever has completed and abandons the rest.
func (r *ElevationResolver) Resolve(ctx context.Context, coords []Coordinate) ElevationResults {
	res := ElevationResults{Values: make(map[Coordinate]Elevation, len(coords))}

	var pending []Coordinate
	for _, c := range coords {
		if _, seen := res.Values[c]; seen {
			continue
		}
		res.Requested++
		if r.cache != nil {
			if e, ok := r.cache.Get(c); ok {
				res.Values[c] = e
				res.CacheHits++
				res.Resolved++
				continue
			}
		}
		res.Values[c] = Unresolved
		pending = append(pending, c)
	}

	if len(pending) == 0 || r.service == nil {
		res.Unresolved = len(pending)
		return res
	}

	batchCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	// Buffered to len(pending) so abandoned workers never block on send.
	out := make(chan lookupResult, len(pending))

	go func() {
		g := new(errgroup.Group)
		g.SetLimit(r.cfg.Workers)
		for i, c := range pending {
			g.Go(func() error {
				out <- lookupResult{index: i, elev: r.lookup(batchCtx, c)}
				return nil
			})
		}
		_ = g.Wait()
	}()

	timer := r.clock.NewTimer(r.cfg.BatchTimeout)
	defer timer.Stop()

	received := 0
collect:
	for received < len(pending) {
		select {
		case lr := <-out:
			received++
			c := pending[lr.index]
			res.Values[c] = lr.elev
			if lr.elev.Resolved() {
				res.Resolved++
				if r.cache != nil {
					r.cache.Set(c, lr.elev)
				}
			}
		case <-timer.Chan():
			res.TimedOut = true
			break collect
		case <-ctx.Done():
			res.TimedOut = true
			break collect
		}
	}

	res.Unresolved = res.Requested - res.Resolved
	if res.TimedOut {
		r.logger.Warn("elevation batch deadline reached, returning partial results",
			"requested", res.Requested,
			"completed", received,
			"pending", len(pending)-received,
		)
	}
	return res
}

func (r *ElevationResolver) lookup(ctx context.Context, c Coordinate) Elevation {
	if ctx.Err() != nil {
		return Unresolved
	}
	reqCtx, cancel := context.WithTimeout(ctx, r.cfg.RequestTimeout)
	defer cancel()

	e, err := r.service.LookupElevation(reqCtx, c)
	if err != nil {
		r.logger.Warn("elevation lookup failed",
			"lat", c.Lat,
			"lon", c.Lon,
			"error", err,
		)
		return Unresolved
	}
	return e
}

// ApplyElevations fills unresolved record elevations from res. Records that
// already carry a resolved value keep it.
func ApplyElevations(records []CameraRecord, res ElevationResults) []CameraRecord {
	out := make([]CameraRecord, len(records))
	for i, rec := range records {
		if !rec.Elevation.Resolved() {
			rec.Elevation = res.Lookup(rec.Coordinate())
		}
		out[i] = rec
	}
	return out
}

// MissingElevations returns the coordinates of records without an elevation.
func MissingElevations(records []CameraRecord) []Coordinate {
	var coords []Coordinate
	for _, rec := range records {
		if !rec.Elevation.Resolved() {
			coords = append(coords, rec.Coordinate())
		}
	}
	return coords
}
