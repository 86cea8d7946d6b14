package workspace

import (
	"context"
	"fmt"

	"github.com/paulmach/orb"

	"github.com/alfredjeanlab/agritag/internal/draw"
	"github.com/alfredjeanlab/agritag/internal/events"
	"github.com/alfredjeanlab/agritag/internal/metrics"
	"github.com/alfredjeanlab/agritag/internal/model"
	"github.com/alfredjeanlab/agritag/internal/surface"
)

// HandleDrawEvent applies one drawing-surface event. Stale references are
// ignored, not reported.
func (w *Workspace) HandleDrawEvent(ctx context.Context, ev draw.Event) (draw.Outcome, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.handle(ctx, ev)
}

func (w *Workspace) handle(ctx context.Context, ev draw.Event) (draw.Outcome, error) {
	out, err := w.adapter.Handle(ev)
	if err != nil {
		return out, err
	}
	metrics.DrawEventsTotal.WithLabelValues(ev.Kind()).Inc()
	if out.Ignored > 0 {
		w.logger.Debug("stale layers ignored", "event", ev.Kind(), "count", out.Ignored)
	}
	if !out.Changed() {
		return out, nil
	}

	var notices []notice
	if out.Created != "" {
		f, _ := w.store.Get(out.Created)
		notices = append(notices, notice{events.TopicFeatureCreated, events.FeatureCreated{Feature: f}})
	}
	for _, id := range out.Edited {
		f, _ := w.store.Get(id)
		notices = append(notices, notice{events.TopicFeatureUpdated, events.FeatureUpdated{Feature: f, Changes: []string{"geometry"}}})
	}
	for _, id := range out.Deleted {
		notices = append(notices, notice{events.TopicFeatureDeleted, events.FeatureDeleted{FeatureID: id}})
	}
	w.commit(ctx, notices...)
	return out, nil
}

// LayerEdit is a reshaped layer.
type LayerEdit struct {
	Handle   surface.Handle
	Geometry orb.Geometry
}

// DrawShape plays the toolkit's part for a freshly drawn shape: it puts a
// layer on the surface and fires a create event. It returns the new feature.
func (w *Workspace) DrawShape(ctx context.Context, shape model.ShapeKind, g orb.Geometry) (*model.Feature, error) {
	if !shape.Accepts(g) {
		return nil, &model.ValidationError{Errors: []model.FieldError{
			{Field: "geometry", Message: fmt.Sprintf("a %s cannot draw %s", shape, geometryType(g))},
		}}
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	layers := w.surface.Render(g)
	if len(layers) != 1 {
		return nil, &model.ValidationError{Errors: []model.FieldError{
			{Field: "geometry", Message: "must be a single shape"},
		}}
	}
	layer := layers[0]
	layer.SetStyle(surface.Style{Color: w.drawColor})
	w.surface.Add(layer)

	out, err := w.handle(ctx, draw.Create{Shape: shape, Layer: layer, At: w.now().UTC()})
	if err != nil {
		w.surface.Remove(layer.Handle())
		return nil, err
	}
	f, _ := w.store.Get(out.Created)
	return f, nil
}

// EditLayers plays the toolkit's part for reshaped layers: it updates each
// layer's geometry and fires one edit event. Unknown handles are skipped.
// A kind change rejects the whole edit before anything is touched.
func (w *Workspace) EditLayers(ctx context.Context, edits []LayerEdit) (draw.Outcome, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	var (
		layers  []surface.Layer
		shapes  []orb.Geometry
		skipped int
	)
	for _, e := range edits {
		l, ok := w.surface.Layer(e.Handle)
		if !ok {
			skipped++
			continue
		}
		if e.Geometry == nil || geometryType(l.Geometry()) != geometryType(e.Geometry) {
			return draw.Outcome{}, &model.ValidationError{Errors: []model.FieldError{
				{Field: "geometry", Message: fmt.Sprintf("layer %d is a %s, got %s", e.Handle, geometryType(l.Geometry()), geometryType(e.Geometry))},
			}}
		}
		layers = append(layers, l)
		shapes = append(shapes, e.Geometry)
	}
	prev := make([]orb.Geometry, len(layers))
	for i, l := range layers {
		prev[i] = l.Geometry()
		l.SetGeometry(shapes[i])
	}

	out, err := w.handle(ctx, draw.Edit{Layers: layers})
	out.Ignored += skipped

	// Layers whose feature did not take the new shape, such as one member of
	// a collection, go back to what the store holds.
	accepted := make(map[string]bool, len(out.Edited))
	for _, id := range out.Edited {
		accepted[id] = true
	}
	for i, l := range layers {
		if !accepted[l.Tag()] {
			l.SetGeometry(prev[i])
		}
	}
	return out, err
}

// DeleteLayers plays the toolkit's part for removed layers: it takes them
// off the surface and fires one delete event. Unknown handles are skipped.
func (w *Workspace) DeleteLayers(ctx context.Context, handles []surface.Handle) (draw.Outcome, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	var layers []surface.Layer
	var skipped int
	for _, h := range handles {
		l, ok := w.surface.Layer(h)
		if !ok {
			skipped++
			continue
		}
		w.surface.Remove(h)
		layers = append(layers, l)
	}

	out, err := w.handle(ctx, draw.Delete{Layers: layers})
	out.Ignored += skipped

	// A feature rendered as several layers is gone once any of them is
	// deleted; its remaining layers leave with it.
	for _, id := range out.Deleted {
		for _, l := range surface.Tagged(w.surface, id) {
			w.surface.Remove(l.Handle())
		}
	}
	return out, err
}

func geometryType(g orb.Geometry) string {
	if g == nil {
		return "nothing"
	}
	return g.GeoJSONType()
}
