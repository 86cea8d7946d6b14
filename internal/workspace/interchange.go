package workspace

import (
	"context"
	"fmt"

	"github.com/alfredjeanlab/agritag/internal/events"
	"github.com/alfredjeanlab/agritag/internal/interchange"
	"github.com/alfredjeanlab/agritag/internal/metrics"
	"github.com/alfredjeanlab/agritag/internal/model"
)

// ImportResult describes a completed import.
type ImportResult struct {
	Features []*model.Feature   `json:"features"`
	Skipped  []interchange.Skip `json:"skipped,omitempty"`
}

// Import appends the document's features with fresh IDs, selects the first
// one and rebuilds the surface. A rejected document leaves the store
// untouched and returns an *interchange.ImportError.
func (w *Workspace) Import(ctx context.Context, data []byte) (*ImportResult, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	batch, err := interchange.Import(data, interchange.ImportOptions{
		Vocab:    w.vocab,
		Color:    w.drawColor,
		Now:      w.now().UTC(),
		Existing: w.store.Len(),
	})
	if err != nil {
		metrics.ImportsTotal.WithLabelValues(metrics.ResultRejected).Inc()
		return nil, err
	}

	ids := make([]string, 0, len(batch.Drafts))
	for _, d := range batch.Drafts {
		id, err := w.store.Create(d.Geometry, d.Attributes)
		if err != nil {
			for _, created := range ids {
				w.store.Delete(created)
			}
			metrics.ImportsTotal.WithLabelValues(metrics.ResultRejected).Inc()
			return nil, &interchange.ImportError{Reason: "could not allocate feature ids", Err: err}
		}
		ids = append(ids, id)
	}
	metrics.ImportsTotal.WithLabelValues(metrics.ResultOK).Inc()

	res := &ImportResult{Skipped: batch.Skipped}
	for _, id := range ids {
		f, _ := w.store.Get(id)
		res.Features = append(res.Features, f)
	}
	if len(ids) > 0 {
		w.selection.Set(ids[0])
	}
	w.recon.Rebuild()
	w.commit(ctx, notice{events.TopicStoreImported, events.StoreImported{FeatureIDs: ids, Skipped: len(batch.Skipped)}})

	w.logger.Info("features imported", "imported", len(ids), "skipped", len(batch.Skipped))
	for _, s := range batch.Skipped {
		w.logger.Debug("import entry skipped", "index", s.Index, "reason", s.Reason)
	}
	return res, nil
}

// Export renders the store as an interchange document.
func (w *Workspace) Export() ([]byte, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	data, err := interchange.Export(w.store.List())
	if err != nil {
		return nil, fmt.Errorf("export features: %w", err)
	}
	return data, nil
}

// ExportFilename is the dated download name for an export made now.
func (w *Workspace) ExportFilename() string {
	return interchange.Filename(w.now())
}
