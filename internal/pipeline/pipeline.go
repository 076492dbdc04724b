package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/couchcryptid/storm-data-shared/retry"
	"github.com/jonboulle/clockwork"

	"github.com/couchcryptid/hnx-camera-etl/internal/domain"
	"github.com/couchcryptid/hnx-camera-etl/internal/observability"
)

const (
	initialBackoff = 200 * time.Millisecond
	maxBackoff     = 5 * time.Second

	// DefaultInterval matches the map's ten minute auto-refresh.
	DefaultInterval = 10 * time.Minute
)

// RowSource yields the raw export rows of one provider.
type RowSource interface {
	Source() domain.Source
	Name() string
	FetchRows(ctx context.Context) ([]domain.RawRow, error)
}

// Sink persists the enriched records of one provider.
type Sink interface {
	Name() string
	WriteArtifacts(ctx context.Context, src domain.Source, records []domain.CameraRecord) error
}

// ElevationResolver fills in elevations for a batch of coordinates.
type ElevationResolver interface {
	Resolve(ctx context.Context, coords []domain.Coordinate) domain.ElevationResults
}

// Options configures a Pipeline. Zero values select the defaults.
type Options struct {
	Registry *domain.Registry
	Grouper  *domain.Grouper
	// Resolver may be nil to skip elevation lookups.
	Resolver ElevationResolver
	// Region limits records to a bounding box; nil keeps everything.
	Region   *domain.BoundingBox
	Interval time.Duration
	Clock    clockwork.Clock
}

// Pipeline loads provider exports, enriches them, writes artifacts, and
// publishes an immutable snapshot for queries.
type Pipeline struct {
	sources  []RowSource
	sinks    []Sink
	registry *domain.Registry
	grouper  domain.Grouper
	resolver ElevationResolver
	region   *domain.BoundingBox
	interval time.Duration
	clock    clockwork.Clock
	logger   *slog.Logger
	metrics  *observability.Metrics

	refreshMu sync.Mutex
	snapshot  atomic.Pointer[Snapshot]
}

// New creates a Pipeline over the given sources and sinks.
func New(sources []RowSource, sinks []Sink, opts Options, logger *slog.Logger, metrics *observability.Metrics) *Pipeline {
	if opts.Registry == nil {
		opts.Registry = domain.DefaultRegistry("")
	}
	grouper := domain.NewGrouper(domain.DefaultGroupPrecision, 1, opts.Registry)
	if opts.Grouper != nil {
		grouper = *opts.Grouper
	}
	if opts.Interval <= 0 {
		opts.Interval = DefaultInterval
	}
	if opts.Clock == nil {
		opts.Clock = clockwork.NewRealClock()
	}
	return &Pipeline{
		sources:  sources,
		sinks:    sinks,
		registry: opts.Registry,
		grouper:  grouper,
		resolver: opts.Resolver,
		region:   opts.Region,
		interval: opts.Interval,
		clock:    opts.Clock,
		logger:   logger,
		metrics:  metrics,
	}
}

// Snapshot returns the most recent published snapshot, or nil before the
// first successful refresh.
func (p *Pipeline) Snapshot() *Snapshot {
	return p.snapshot.Load()
}

// CheckReadiness returns nil once a snapshot has been published.
func (p *Pipeline) CheckReadiness(_ context.Context) error {
	if p.snapshot.Load() == nil {
		return errors.New("no camera snapshot published yet")
	}
	return nil
}

// Run refreshes on the configured interval until the context is cancelled.
// Failed refreshes are retried with exponential backoff; an empty result
// waits for the next interval.
func (p *Pipeline) Run(ctx context.Context) error {
	p.logger.Info("pipeline started", "interval", p.interval, "sources", len(p.sources), "sinks", len(p.sinks))
	p.metrics.PipelineRunning.Set(1)
	defer p.metrics.PipelineRunning.Set(0)

	backoff := initialBackoff
	for {
		_, err := p.Refresh(ctx)
		if ctx.Err() != nil {
			p.logger.Info("pipeline stopping", "reason", ctx.Err())
			return nil
		}

		wait := p.interval
		switch {
		case errors.Is(err, domain.ErrNoData):
			p.logger.Warn("refresh produced no cameras", "next_attempt", wait)
			backoff = initialBackoff
		case err != nil:
			p.logger.Error("refresh failed", "error", err, "retry_in", backoff)
			wait = backoff
			backoff = retry.NextBackoff(backoff, maxBackoff)
		default:
			backoff = initialBackoff
		}

		if !p.sleep(ctx, wait) {
			p.logger.Info("pipeline stopping", "reason", ctx.Err())
			return nil
		}
	}
}

func (p *Pipeline) sleep(ctx context.Context, d time.Duration) bool {
	select {
	case <-ctx.Done():
		return false
	case <-p.clock.After(d):
		return true
	}
}

// Refresh runs one load-normalize-enrich-publish cycle. Individual sources,
// rows, lookups, and sinks degrade without failing the cycle. It returns
// domain.ErrNoData when no camera survives normalization and the region
// filter; the previous snapshot is kept in that case.
func (p *Pipeline) Refresh(ctx context.Context) (*Snapshot, error) {
	p.refreshMu.Lock()
	defer p.refreshMu.Unlock()

	start := p.clock.Now()
	snap, err := p.refresh(ctx)
	p.metrics.RefreshDuration.Observe(p.clock.Since(start).Seconds())
	if err != nil {
		p.metrics.RefreshesTotal.WithLabelValues("error").Inc()
		return nil, err
	}
	p.metrics.RefreshesTotal.WithLabelValues("success").Inc()
	p.snapshot.Store(snap)
	p.logger.Info("refresh complete",
		"cameras", len(snap.Cameras),
		"groups", len(snap.Groups),
		"duration", p.clock.Since(start),
	)
	return snap, nil
}

func (p *Pipeline) refresh(ctx context.Context) (*Snapshot, error) {
	batches, err := p.load(ctx)
	if err != nil {
		return nil, err
	}

	total := 0
	for _, b := range batches {
		total += len(b.records)
	}
	if total == 0 {
		return nil, domain.ErrNoData
	}

	if err := p.enrich(ctx, batches); err != nil {
		return nil, err
	}

	for _, sink := range p.sinks {
		for _, b := range batches {
			if err := sink.WriteArtifacts(ctx, b.source, b.records); err != nil {
				p.logger.Error("write artifacts failed", "sink", sink.Name(), "source", b.source, "error", err)
				p.metrics.SinkErrors.WithLabelValues(sink.Name()).Inc()
			}
		}
	}

	records := make([]domain.CameraRecord, 0, total)
	for _, b := range batches {
		records = append(records, b.records...)
	}
	return p.publish(records), nil
}

// sourceBatch is the normalized output of every RowSource sharing a provider.
type sourceBatch struct {
	source  domain.Source
	records []domain.CameraRecord
}

// load fetches and normalizes every source. A failing source is skipped; the
// cycle fails only when every source failed.
func (p *Pipeline) load(ctx context.Context) ([]*sourceBatch, error) {
	var (
		batches []*sourceBatch
		index   = make(map[domain.Source]*sourceBatch)
		errs    []error
	)
	for _, src := range p.sources {
		records, err := p.loadSource(ctx, src)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			p.logger.Error("source failed, skipping", "source", src.Source(), "name", src.Name(), "error", err)
			errs = append(errs, err)
			continue
		}
		b, ok := index[src.Source()]
		if !ok {
			b = &sourceBatch{source: src.Source()}
			index[src.Source()] = b
			batches = append(batches, b)
		}
		b.records = append(b.records, records...)
	}
	if len(p.sources) > 0 && len(errs) == len(p.sources) {
		return nil, fmt.Errorf("all sources failed: %w", errors.Join(errs...))
	}
	return batches, nil
}

func (p *Pipeline) loadSource(ctx context.Context, src RowSource) ([]domain.CameraRecord, error) {
	provider, err := p.registry.Get(src.Source())
	if err != nil {
		return nil, err
	}
	rows, err := src.FetchRows(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", src.Name(), err)
	}

	records, rejected := domain.Normalize(provider, rows)
	label := string(src.Source())
	p.metrics.RecordsNormalized.WithLabelValues(label).Add(float64(len(records)))
	p.metrics.RecordsRejected.WithLabelValues(label).Add(float64(len(rejected)))
	for _, re := range rejected {
		p.logger.Debug("row rejected", "source", re.Source, "row", re.Index, "error", re.Err)
	}
	if len(rejected) > 0 {
		p.logger.Warn("rows rejected during normalization", "source", src.Source(), "name", src.Name(), "rejected", len(rejected))
	}

	if p.region != nil {
		before := len(records)
		records = domain.WithinRegion(records, *p.region)
		p.logger.Debug("region filter applied", "source", src.Source(), "kept", len(records), "dropped", before-len(records))
	}
	return records, nil
}

// enrich resolves missing elevations across all batches in one resolver call.
func (p *Pipeline) enrich(ctx context.Context, batches []*sourceBatch) error {
	if p.resolver == nil {
		return nil
	}
	var all []domain.CameraRecord
	for _, b := range batches {
		all = append(all, b.records...)
	}
	coords := domain.MissingElevations(all)
	if len(coords) == 0 {
		return nil
	}

	res := p.resolver.Resolve(ctx, coords)
	if err := ctx.Err(); err != nil {
		return err
	}
	p.metrics.ElevationUnresolved.Add(float64(res.Unresolved))
	p.logger.Info("elevations resolved",
		"requested", res.Requested,
		"cache_hits", res.CacheHits,
		"resolved", res.Resolved,
		"unresolved", res.Unresolved,
		"timed_out", res.TimedOut,
	)
	for _, b := range batches {
		b.records = domain.ApplyElevations(b.records, res)
	}
	return nil
}

func (p *Pipeline) publish(records []domain.CameraRecord) *Snapshot {
	cameras, _ := domain.AttachFeeds(records, p.registry)
	for _, c := range cameras {
		if c.Feed.Degraded {
			p.metrics.FeedsDegraded.WithLabelValues(string(c.Source)).Inc()
		}
	}

	groups := p.grouper.Group(cameras)
	counts := map[domain.Classification]int{}
	for _, g := range groups {
		counts[g.Classification]++
	}
	p.metrics.Groups.WithLabelValues(string(domain.SingleSource)).Set(float64(counts[domain.SingleSource]))
	p.metrics.Groups.WithLabelValues(string(domain.MixedSource)).Set(float64(counts[domain.MixedSource]))

	return &Snapshot{
		Cameras:     cameras,
		Groups:      groups,
		Bounds:      domain.ElevationBounds(records),
		Sources:     presentSources(p.registry, records),
		GeneratedAt: p.clock.Now().UTC(),
		grouper:     p.grouper,
	}
}

func presentSources(reg *domain.Registry, records []domain.CameraRecord) []domain.Source {
	seen := make(map[domain.Source]bool)
	for _, r := range records {
		seen[r.Source] = true
	}
	var out []domain.Source
	for _, s := range reg.Sources() {
		if seen[s] {
			out = append(out, s)
		}
	}
	return out
}
