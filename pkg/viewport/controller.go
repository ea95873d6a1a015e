// Package viewport navigates a rendered task graph: smooth pan/zoom to
// a node and transient highlight markers. The controller is decoupled
// from any concrete canvas through the Surface interface so the
// navigation rules are testable without a terminal.
package viewport

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/vanderheijden86/questwork/pkg/layout"
	"github.com/vanderheijden86/questwork/pkg/selection"
	"github.com/vanderheijden86/questwork/pkg/taskgraph"
)

const (
	DefaultPanDuration       = 300 * time.Millisecond
	DefaultZoom              = 1.5
	DefaultHighlightDuration = 1500 * time.Millisecond
)

// Surface is the minimal canvas contract the controller drives.
type Surface interface {
	// NodePosition returns the top-left corner of a rendered node.
	// ok is false when the node is not in the rendered graph.
	NodePosition(id string) (taskgraph.Point, bool)
	// PanZoom smoothly moves the view centre to the point at the given
	// zoom level over the duration.
	PanZoom(center taskgraph.Point, zoom float64, duration time.Duration)
	// SetHighlighted toggles the highlight marker on a node. Calls for
	// nodes that are gone must be ignored.
	SetHighlighted(id string, on bool)
}

type config struct {
	nodeWidth         float64
	nodeHeight        float64
	panDuration       time.Duration
	zoom              float64
	highlightDuration time.Duration
}

// Option adjusts controller defaults, or a single call when passed to
// one of the navigation methods.
type Option func(*config)

// WithNodeSize overrides the node dimensions used to find centres.
func WithNodeSize(w, h float64) Option {
	return func(c *config) {
		if w > 0 {
			c.nodeWidth = w
		}
		if h > 0 {
			c.nodeHeight = h
		}
	}
}

// WithPanDuration sets how long a pan takes.
func WithPanDuration(d time.Duration) Option {
	return func(c *config) {
		if d > 0 {
			c.panDuration = d
		}
	}
}

// WithZoom sets the zoom level a pan settles at.
func WithZoom(z float64) Option {
	return func(c *config) {
		if z > 0 {
			c.zoom = z
		}
	}
}

// WithHighlightDuration sets how long a highlight stays visible.
func WithHighlightDuration(d time.Duration) Option {
	return func(c *config) {
		if d > 0 {
			c.highlightDuration = d
		}
	}
}

// Controller issues pan and highlight commands against a Surface. The
// surface may be attached late (the canvas exists only after data
// loads) and swapped on reload.
type Controller struct {
	mu      sync.Mutex
	surface Surface
	base    config
	closed  atomic.Bool
}

// NewController creates a controller. A nil surface is allowed; all
// navigation is refused until one is attached.
func NewController(s Surface, opts ...Option) *Controller {
	c := &Controller{
		surface: s,
		base: config{
			nodeWidth:         float64(layout.DefaultNodeWidth),
			nodeHeight:        float64(layout.DefaultNodeHeight),
			panDuration:       DefaultPanDuration,
			zoom:              DefaultZoom,
			highlightDuration: DefaultHighlightDuration,
		},
	}
	for _, opt := range opts {
		opt(&c.base)
	}
	return c
}

// SetSurface attaches or replaces the canvas. Nil detaches.
func (c *Controller) SetSurface(s Surface) {
	c.mu.Lock()
	c.surface = s
	c.mu.Unlock()
}

// Close mutes all pending timers. Late-firing highlights become no-ops
// instead of poking a torn-down canvas.
func (c *Controller) Close() {
	c.closed.Store(true)
}

func (c *Controller) configFor(opts []Option) config {
	cfg := c.base
	for _, opt := range opts {
		opt(&cfg)
	}
	return cfg
}

func (c *Controller) currentSurface() Surface {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.surface
}

// PanToNode centres the view on a node. It reports false and does
// nothing when no surface is attached or the node is not rendered.
// The target centre is the node's top-left position plus half a node.
func (c *Controller) PanToNode(id string, opts ...Option) bool {
	cfg := c.configFor(opts)
	s := c.currentSurface()
	if s == nil {
		return false
	}
	pos, ok := s.NodePosition(id)
	if !ok {
		return false
	}
	center := taskgraph.Point{
		X: pos.X + cfg.nodeWidth/2,
		Y: pos.Y + cfg.nodeHeight/2,
	}
	s.PanZoom(center, cfg.zoom, cfg.panDuration)
	return true
}

// HighlightNode marks a node and schedules the marker's removal. A
// missing node is not an error; nothing happens. Overlapping calls on
// the same node each schedule their own removal, so the last-expiring
// timer decides when the marker finally goes.
func (c *Controller) HighlightNode(id string, opts ...Option) {
	cfg := c.configFor(opts)
	s := c.currentSurface()
	if s == nil {
		return
	}
	if _, ok := s.NodePosition(id); !ok {
		return
	}
	s.SetHighlighted(id, true)
	time.AfterFunc(cfg.highlightDuration, func() {
		if c.closed.Load() {
			return
		}
		if s := c.currentSurface(); s != nil {
			s.SetHighlighted(id, false)
		}
	})
}

// PanToNodeAndHighlight pans to the node and, only if the pan was
// issued, highlights it once the pan has settled. Returns the pan
// result.
func (c *Controller) PanToNodeAndHighlight(id string, opts ...Option) bool {
	cfg := c.configFor(opts)
	if !c.PanToNode(id, opts...) {
		return false
	}
	time.AfterFunc(cfg.panDuration, func() {
		if c.closed.Load() {
			return
		}
		c.HighlightNode(id, opts...)
	})
	return true
}

// ConsumeFocus drains a pending focus request from the store and runs
// the pan+highlight sequence for it. Exactly one sequence fires per
// request; with nothing pending it reports false. The request is
// consumed even when the pan is refused, otherwise a dead id would
// block the field forever.
func (c *Controller) ConsumeFocus(store *selection.Store) bool {
	id, ok := store.TakeFocus()
	if !ok {
		return false
	}
	return c.PanToNodeAndHighlight(id)
}
