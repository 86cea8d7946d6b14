// Package reconcile projects store contents onto the drawing surface.
//
// Data flows one way: store to surface. Geometry edits travel the other
// direction through the draw package.
package reconcile

import (
	"log/slog"

	"github.com/alfredjeanlab/agritag/internal/store"
	"github.com/alfredjeanlab/agritag/internal/surface"
)

// Reconciler keeps surface layers in line with the store.
type Reconciler struct {
	store   store.Store
	surface surface.Surface
	color   func() string
	logger  *slog.Logger
}

// New creates a reconciler. fallback supplies the color for features
// stored without one.
func New(s store.Store, sf surface.Surface, fallback func() string, logger *slog.Logger) *Reconciler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Reconciler{store: s, surface: sf, color: fallback, logger: logger}
}

// Rebuild tears the surface down and renders every feature in store order,
// tagging each layer with its feature's ID. It returns the number of layers
// created.
func (r *Reconciler) Rebuild() int {
	r.surface.Clear()
	n := 0
	for _, f := range r.store.List() {
		style := surface.Style{Color: r.colorOf(f.Attributes.Color)}
		layers := r.surface.Render(f.Geometry)
		if len(layers) == 0 {
			r.logger.Debug("feature has nothing to render", "id", f.ID)
			continue
		}
		for _, l := range layers {
			l.SetTag(f.ID)
			l.SetStyle(style)
			r.surface.Add(l)
			n++
		}
	}
	return n
}

// RepairStyles reapplies each tagged layer's feature color. Layers whose tag
// no longer resolves are left alone. It returns the number of layers whose
// style changed.
func (r *Reconciler) RepairStyles() int {
	n := 0
	for _, l := range r.surface.Layers() {
		id := l.Tag()
		if id == "" {
			continue
		}
		f, ok := r.store.Get(id)
		if !ok {
			continue
		}
		want := surface.Style{Color: r.colorOf(f.Attributes.Color)}
		if l.Style() != want {
			l.SetStyle(want)
			n++
		}
	}
	return n
}

func (r *Reconciler) colorOf(c string) string {
	if c == "" && r.color != nil {
		return r.color()
	}
	return c
}
