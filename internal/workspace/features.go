package workspace

import (
	"context"
	"fmt"

	"github.com/paulmach/orb"

	"github.com/alfredjeanlab/agritag/internal/events"
	"github.com/alfredjeanlab/agritag/internal/geo"
	"github.com/alfredjeanlab/agritag/internal/model"
	"github.com/alfredjeanlab/agritag/internal/query"
	"github.com/alfredjeanlab/agritag/internal/surface"
)

// Features returns every feature in store order.
func (w *Workspace) Features() []*model.Feature {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.store.List()
}

// Query returns the filtered view in store order.
func (w *Workspace) Query(filter model.FeatureFilter) []*model.Feature {
	w.mu.Lock()
	defer w.mu.Unlock()
	return query.Run(w.store, filter)
}

// Feature returns the feature with the given ID.
func (w *Workspace) Feature(id string) (*model.Feature, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.get(id)
}

func (w *Workspace) get(id string) (*model.Feature, error) {
	f, ok := w.store.Get(id)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return f, nil
}

// AreaHa returns the feature's area in hectares; zero for non-polygons.
func (w *Workspace) AreaHa(id string) (float64, error) {
	f, err := w.Feature(id)
	if err != nil {
		return 0, err
	}
	return geo.AreaHa(f.Geometry), nil
}

// ZoomBounds returns the box a map should frame to show the feature, padded
// by geo.ZoomPadding. ok is false for features with an empty geometry.
func (w *Workspace) ZoomBounds(id string) (b orb.Bound, ok bool, err error) {
	f, err := w.Feature(id)
	if err != nil {
		return orb.Bound{}, false, err
	}
	b, ok = geo.ZoomBounds(f.Geometry, geo.ZoomPadding)
	return b, ok, nil
}

// UpdateAttributes validates and merges patch into the feature's attributes.
func (w *Workspace) UpdateAttributes(ctx context.Context, id string, patch model.AttributePatch) (*model.Feature, error) {
	if err := model.ValidatePatch(patch); err != nil {
		return nil, err
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.update(ctx, id, patch)
}

// UpdateSelected applies patch to the selected feature.
func (w *Workspace) UpdateSelected(ctx context.Context, patch model.AttributePatch) (*model.Feature, error) {
	if err := model.ValidatePatch(patch); err != nil {
		return nil, err
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	id := w.selection.ID()
	if id == "" {
		return nil, ErrNoSelection
	}
	return w.update(ctx, id, patch)
}

// update applies a validated patch. The caller holds w.mu.
func (w *Workspace) update(ctx context.Context, id string, patch model.AttributePatch) (*model.Feature, error) {
	if patch.IsEmpty() {
		return w.get(id)
	}
	if !w.store.UpdateAttributes(id, patch) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	f, _ := w.store.Get(id)
	w.commit(ctx, notice{events.TopicFeatureUpdated, events.FeatureUpdated{Feature: f, Changes: changedFields(patch)}})
	return f, nil
}

func changedFields(p model.AttributePatch) []string {
	var out []string
	if p.Name != nil {
		out = append(out, "name")
	}
	if p.Crop != nil {
		out = append(out, "crop")
	}
	if p.Season != nil {
		out = append(out, "season")
	}
	if p.Color != nil {
		out = append(out, "color")
	}
	if p.Notes != nil {
		out = append(out, "notes")
	}
	return out
}

// Select makes id the selected feature. An empty id clears the selection.
func (w *Workspace) Select(id string) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if id == "" {
		w.selection.Clear()
		return nil
	}
	if _, ok := w.store.Get(id); !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	w.selection.Set(id)
	return nil
}

// Selected returns the selected feature, if any.
func (w *Workspace) Selected() (*model.Feature, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	id := w.selection.ID()
	if id == "" {
		return nil, false
	}
	return w.store.Get(id)
}

// DeleteFeature removes a feature from the editor panel: its layers come
// off the surface, then the feature leaves the store.
func (w *Workspace) DeleteFeature(ctx context.Context, id string) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if _, ok := w.store.Get(id); !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	for _, l := range surface.Tagged(w.surface, id) {
		w.surface.Remove(l.Handle())
	}
	w.store.Delete(id)
	w.selection.ClearIf(id)
	w.commit(ctx, notice{events.TopicFeatureDeleted, events.FeatureDeleted{FeatureID: id}})
	return nil
}
