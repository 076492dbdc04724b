package domain

import (
	"fmt"
	"strings"
)

// Provider is one camera network. Each variant owns the rules that differ
// between networks so that the rest of the pipeline never branches on Source.
type Provider interface {
	// Source is the tag stamped on every record the provider produces.
	Source() Source

	// Columns renames the export's header positionally. Nil keeps the
	// header as written.
	Columns() []string

	// Normalize projects one export row onto the canonical record. It
	// returns an error only when the row cannot be placed on a map.
	Normalize(row RawRow) (CameraRecord, error)

	// ResolveFeed derives the viewing descriptor. It never performs I/O.
	ResolveFeed(rec CameraRecord) FeedDescriptor

	// MarkerColor is the map marker color for single-source groups.
	MarkerColor() string
}

// MixedSourceColor is the marker color of groups spanning several providers.
const MixedSourceColor = "gray"

// Registry is the closed set of known providers.
type Registry struct {
	providers map[Source]Provider
	order     []Source
}

// NewRegistry registers providers in the given order. A later provider with
// the same source replaces an earlier one.
func NewRegistry(providers ...Provider) *Registry {
	r := &Registry{providers: make(map[Source]Provider, len(providers))}
	for _, p := range providers {
		if _, ok := r.providers[p.Source()]; !ok {
			r.order = append(r.order, p.Source())
		}
		r.providers[p.Source()] = p
	}
	return r
}

// DefaultRegistry returns every supported provider. defaultDistrict is the
// Caltrans district used when a record's URL carries none.
func DefaultRegistry(defaultDistrict string) *Registry {
	return NewRegistry(
		NewCaltrans(defaultDistrict),
		ALERTCalifornia{},
		HPWREN{},
	)
}

// Get returns the provider for s.
func (r *Registry) Get(s Source) (Provider, error) {
	p, ok := r.providers[s]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownSource, s)
	}
	return p, nil
}

// Sources lists registered sources in registration order.
func (r *Registry) Sources() []Source {
	out := make([]Source, len(r.order))
	copy(out, r.order)
	return out
}

// ParseSource matches a tag case-insensitively against the registry.
func (r *Registry) ParseSource(s string) (Source, error) {
	s = strings.TrimSpace(s)
	for _, src := range r.order {
		if strings.EqualFold(string(src), s) {
			return src, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownSource, s)
}

// MarkerColor returns the color of a single-source group for s.
func (r *Registry) MarkerColor(s Source) string {
	p, ok := r.providers[s]
	if !ok {
		return MixedSourceColor
	}
	return p.MarkerColor()
}
