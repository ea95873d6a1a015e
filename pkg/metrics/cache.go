package metrics

import "sync/atomic"

// CacheMetric tracks hit/miss counts for a named cache.
// All methods are thread-safe using atomic operations.
type CacheMetric struct {
	name   string
	hits   int64
	misses int64
}

func newCacheMetric(name string) *CacheMetric {
	return &CacheMetric{name: name}
}

// Hit records a cache hit.
func (m *CacheMetric) Hit() {
	if !enabled {
		return
	}
	atomic.AddInt64(&m.hits, 1)
}

// Miss records a cache miss.
func (m *CacheMetric) Miss() {
	if !enabled {
		return
	}
	atomic.AddInt64(&m.misses, 1)
}

// Name returns the metric name.
func (m *CacheMetric) Name() string {
	return m.name
}

// Hits returns the recorded hit count.
func (m *CacheMetric) Hits() int64 {
	return atomic.LoadInt64(&m.hits)
}

// Misses returns the recorded miss count.
func (m *CacheMetric) Misses() int64 {
	return atomic.LoadInt64(&m.misses)
}

// HitRate returns hits/(hits+misses), or 0 with no data.
func (m *CacheMetric) HitRate() float64 {
	hits := atomic.LoadInt64(&m.hits)
	misses := atomic.LoadInt64(&m.misses)
	total := hits + misses
	if total == 0 {
		return 0
	}
	return float64(hits) / float64(total)
}

// Reset clears the counters.
func (m *CacheMetric) Reset() {
	atomic.StoreInt64(&m.hits, 0)
	atomic.StoreInt64(&m.misses, 0)
}

// CacheStats holds a snapshot of cache statistics.
type CacheStats struct {
	Name    string  `json:"name"`
	Hits    int64   `json:"hits"`
	Misses  int64   `json:"misses"`
	HitRate float64 `json:"hit_rate"`
}

// Stats returns a snapshot of the cache counters.
func (m *CacheMetric) Stats() CacheStats {
	return CacheStats{
		Name:    m.name,
		Hits:    m.Hits(),
		Misses:  m.Misses(),
		HitRate: m.HitRate(),
	}
}

// Global cache metrics.
var (
	LayoutCache = newCacheMetric("layout_cache")
	SourceCache = newCacheMetric("source_cache")
)

// AllCacheMetrics returns all registered cache metrics.
func AllCacheMetrics() []*CacheMetric {
	return []*CacheMetric{
		LayoutCache,
		SourceCache,
	}
}

// AllCacheStats returns stats for all cache metrics with data.
func AllCacheStats() []CacheStats {
	all := AllCacheMetrics()
	stats := make([]CacheStats, 0, len(all))
	for _, m := range all {
		if m.Hits()+m.Misses() > 0 {
			stats = append(stats, m.Stats())
		}
	}
	return stats
}
