package epqs

import (
	"fmt"
	"time"

	"github.com/patrickmn/go-cache"

	"github.com/couchcryptid/hnx-camera-etl/internal/domain"
	"github.com/couchcryptid/hnx-camera-etl/internal/observability"
)

// Cache implements domain.ElevationCache on an in-memory TTL store keyed by
// coordinates rounded to six decimals.
type Cache struct {
	store   *cache.Cache
	metrics *observability.Metrics
}

// NewCache creates a cache whose entries expire after ttl.
func NewCache(ttl time.Duration, metrics *observability.Metrics) *Cache {
	return &Cache{
		store:   cache.New(ttl, 2*ttl),
		metrics: metrics,
	}
}

func key(c domain.Coordinate) string {
	return fmt.Sprintf("%.6f,%.6f", c.Lat, c.Lon)
}

func (c *Cache) Get(coord domain.Coordinate) (domain.Elevation, bool) {
	v, ok := c.store.Get(key(coord))
	if !ok {
		c.metrics.ElevationCache.WithLabelValues("miss").Inc()
		return domain.Unresolved, false
	}
	c.metrics.ElevationCache.WithLabelValues("hit").Inc()
	return v.(domain.Elevation), true
}

// Set stores e. Unresolved values are ignored so failed lookups are retried
// on the next batch.
func (c *Cache) Set(coord domain.Coordinate, e domain.Elevation) {
	if !e.Resolved() {
		return
	}
	c.store.SetDefault(key(coord), e)
}

// Seed loads resolved elevations from previously written artifacts and
// returns how many entries were added.
func (c *Cache) Seed(records []domain.CameraRecord) int {
	n := 0
	for _, r := range records {
		if !r.Elevation.Resolved() || !r.Coordinate().Valid() {
			continue
		}
		c.Set(r.Coordinate(), r.Elevation)
		n++
	}
	return n
}

// Invalidate drops the entry for coord.
func (c *Cache) Invalidate(coord domain.Coordinate) {
	c.store.Delete(key(coord))
}

// Flush drops every entry.
func (c *Cache) Flush() {
	c.store.Flush()
}

// Len reports the number of unexpired entries.
func (c *Cache) Len() int {
	return c.store.ItemCount()
}
