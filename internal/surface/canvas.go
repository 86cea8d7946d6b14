package surface

import (
	"sync"

	"github.com/paulmach/orb"
)

// Canvas is an in-memory Surface. It stands in for a browser map when the
// engine runs headless behind the HTTP API or the CLI. Safe for concurrent use.
type Canvas struct {
	mu     sync.Mutex
	next   Handle
	layers []*shape
}

var _ Surface = (*Canvas)(nil)

// NewCanvas returns an empty canvas.
func NewCanvas() *Canvas {
	return &Canvas{}
}

func (c *Canvas) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.layers = nil
}

// Add attaches l. Layers not produced by this canvas's Render are ignored.
// Adding an attached layer again is a no-op.
func (c *Canvas) Add(l Layer) {
	s, ok := l.(*shape)
	if !ok || s.owner != c {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, existing := range c.layers {
		if existing == s {
			return
		}
	}
	c.layers = append(c.layers, s)
}

func (c *Canvas) Remove(h Handle) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i, s := range c.layers {
		if s.handle == h {
			c.layers = append(c.layers[:i], c.layers[i+1:]...)
			return true
		}
	}
	return false
}

func (c *Canvas) Layers() []Layer {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Layer, len(c.layers))
	for i, s := range c.layers {
		out[i] = s
	}
	return out
}

func (c *Canvas) Layer(h Handle) (Layer, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, s := range c.layers {
		if s.handle == h {
			return s, true
		}
	}
	return nil, false
}

func (c *Canvas) Render(g orb.Geometry) []Layer {
	if g == nil {
		return nil
	}
	if coll, ok := g.(orb.Collection); ok {
		var out []Layer
		for _, member := range coll {
			out = append(out, c.Render(member)...)
		}
		return out
	}

	c.mu.Lock()
	c.next++
	h := c.next
	c.mu.Unlock()

	return []Layer{&shape{owner: c, handle: h, geometry: orb.Clone(g)}}
}

// shape is a Canvas layer.
type shape struct {
	owner  *Canvas
	handle Handle

	mu       sync.Mutex
	geometry orb.Geometry
	tag      string
	style    Style
}

func (s *shape) Handle() Handle { return s.handle }

func (s *shape) Geometry() orb.Geometry {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.geometry == nil {
		return nil
	}
	return orb.Clone(s.geometry)
}

func (s *shape) SetGeometry(g orb.Geometry) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if g == nil {
		s.geometry = nil
		return
	}
	s.geometry = orb.Clone(g)
}

func (s *shape) Tag() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tag
}

func (s *shape) SetTag(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tag = id
}

func (s *shape) Style() Style {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.style
}

func (s *shape) SetStyle(st Style) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.style = st
}

// Tagged returns the layers on sf tagged with id.
func Tagged(sf Surface, id string) []Layer {
	var out []Layer
	for _, l := range sf.Layers() {
		if l.Tag() == id {
			out = append(out, l)
		}
	}
	return out
}
