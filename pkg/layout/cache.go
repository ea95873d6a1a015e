package layout

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/vanderheijden86/questwork/pkg/metrics"
	"github.com/vanderheijden86/questwork/pkg/taskgraph"
)

// DefaultCacheTTL bounds how long a memoised layout stays valid even
// when the fingerprint has not changed.
const DefaultCacheTTL = 5 * time.Minute

// Cache memoises the most recent layout, keyed by a graph fingerprint.
// A single entry is enough: the viewer lays out one graph at a time and
// recomputes only when the task data or the options change.
type Cache struct {
	mu          sync.RWMutex
	fingerprint string
	result      *Result
	computedAt  time.Time
	ttl         time.Duration
}

// NewCache creates a cache with the given TTL. Zero or negative falls
// back to DefaultCacheTTL.
func NewCache(ttl time.Duration) *Cache {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	return &Cache{ttl: ttl}
}

// Get returns the cached result when the fingerprint matches and the
// entry has not expired.
func (c *Cache) Get(fingerprint string) (*Result, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.result == nil || c.fingerprint != fingerprint {
		metrics.LayoutCache.Miss()
		return nil, false
	}
	if time.Since(c.computedAt) > c.ttl {
		metrics.LayoutCache.Miss()
		return nil, false
	}
	metrics.LayoutCache.Hit()
	return c.result, true
}

// Set stores a result under the given fingerprint, replacing whatever
// was cached before.
func (c *Cache) Set(fingerprint string, res *Result) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.fingerprint = fingerprint
	c.result = res
	c.computedAt = time.Now()
}

// Invalidate drops the cached result.
func (c *Cache) Invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.fingerprint = ""
	c.result = nil
}

// Compute returns the cached layout when it is still valid, otherwise
// computes, stores and returns a fresh one.
func (c *Cache) Compute(g *taskgraph.Graph, opts Options) *Result {
	fp := Fingerprint(g, opts)
	if res, ok := c.Get(fp); ok {
		return res
	}
	res := Compute(g, opts)
	c.Set(fp, res)
	return res
}

// Fingerprint folds node identity, edges and options into a short key.
// Tasks in a different input order hash the same: the key tracks graph
// semantics, not file layout.
func Fingerprint(g *taskgraph.Graph, opts Options) string {
	opts = opts.withDefaults()

	ids := make([]string, 0, len(g.Nodes()))
	for _, n := range g.Nodes() {
		ids = append(ids, n.Task.ID)
	}
	sort.Strings(ids)

	h := sha256.New()
	for _, id := range ids {
		h.Write([]byte(id))
		h.Write([]byte{0})
	}
	for _, e := range g.Edges() {
		h.Write([]byte(e.From))
		h.Write([]byte{'>'})
		h.Write([]byte(e.To))
		h.Write([]byte{0})
	}
	fmt.Fprintf(h, "%s:%g:%g:%g:%g:%g:%d",
		opts.Direction, opts.NodeWidth, opts.NodeHeight,
		opts.RankGap, opts.NodeGap, opts.Margin, opts.OrderPasses)

	return hex.EncodeToString(h.Sum(nil))[:16]
}
