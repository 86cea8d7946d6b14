// Package workspace owns the feature store and wires the drawing adapter,
// the reconciler, persistence and event publishing around it.
//
// Every exported method takes the workspace lock, so each call is one
// atomic store update even when driven by concurrent HTTP requests.
package workspace

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/alfredjeanlab/agritag/internal/draw"
	"github.com/alfredjeanlab/agritag/internal/events"
	"github.com/alfredjeanlab/agritag/internal/metrics"
	"github.com/alfredjeanlab/agritag/internal/model"
	"github.com/alfredjeanlab/agritag/internal/persist"
	"github.com/alfredjeanlab/agritag/internal/reconcile"
	"github.com/alfredjeanlab/agritag/internal/store"
	"github.com/alfredjeanlab/agritag/internal/store/memory"
	"github.com/alfredjeanlab/agritag/internal/surface"
)

var (
	// ErrNotFound is returned for UI-initiated operations on absent IDs.
	ErrNotFound = errors.New("feature not found")
	// ErrNoSelection is returned when an operation needs a selected feature.
	ErrNoSelection = errors.New("no feature selected")
)

// Options configures a Workspace. Zero fields get in-memory defaults.
type Options struct {
	Store     store.Store
	Surface   surface.Surface
	Persist   *persist.Adapter
	Publisher events.Publisher
	Vocab     *model.Vocabulary
	DrawColor string
	Logger    *slog.Logger
	Clock     func() time.Time
}

// Workspace is the single owner of the feature store.
type Workspace struct {
	mu sync.Mutex

	store     store.Store
	surface   surface.Surface
	persist   *persist.Adapter
	publisher events.Publisher
	vocab     model.Vocabulary
	drawColor string
	logger    *slog.Logger
	now       func() time.Time

	selection *draw.Selection
	adapter   *draw.Adapter
	recon     *reconcile.Reconciler
}

// New validates opts and assembles a workspace. Call Open to hydrate it.
func New(opts Options) (*Workspace, error) {
	vocab := model.DefaultVocabulary()
	if opts.Vocab != nil {
		vocab = opts.Vocab.WithDefaults()
	}
	if err := vocab.Validate(); err != nil {
		return nil, fmt.Errorf("vocabulary: %w", err)
	}
	color := opts.DrawColor
	if color == "" {
		color = model.DefaultDrawColor
	}
	if !model.IsHexColor(color) {
		return nil, fmt.Errorf("draw color must be #RRGGBB, got %q", color)
	}

	w := &Workspace{
		store:     opts.Store,
		surface:   opts.Surface,
		persist:   opts.Persist,
		publisher: opts.Publisher,
		vocab:     vocab,
		drawColor: color,
		logger:    opts.Logger,
		now:       opts.Clock,
		selection: &draw.Selection{},
	}
	if w.store == nil {
		w.store = memory.New()
	}
	if w.surface == nil {
		w.surface = surface.NewCanvas()
	}
	if w.logger == nil {
		w.logger = slog.Default()
	}
	if w.persist == nil {
		w.persist = persist.NewAdapter(persist.NewMemorySlot(nil), w.logger)
	}
	if w.publisher == nil {
		w.publisher = &events.NoopPublisher{}
	}
	if w.now == nil {
		w.now = time.Now
	}

	// Both read the color under the workspace lock held by their callers.
	currentColor := func() string { return w.drawColor }
	w.adapter = draw.NewAdapter(w.store, w.vocab, currentColor, w.selection, w.logger)
	w.recon = reconcile.New(w.store, w.surface, currentColor, w.logger)
	return w, nil
}

// Open hydrates the store from persistence and rebuilds the surface. It
// returns the number of features loaded. Unreadable state yields an empty
// store.
func (w *Workspace) Open(ctx context.Context) int {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.store.Replace(w.persist.Load(ctx))
	w.selection.Clear()
	layers := w.recon.Rebuild()
	n := w.store.Len()
	metrics.Features.Set(float64(n))

	w.logger.Info("workspace hydrated", "features", n, "layers", layers)
	w.publish(ctx, notice{events.TopicStoreHydrated, events.StoreHydrated{Count: n}})
	return n
}

// notice is an event queued for publishing after a commit.
type notice struct {
	topic string
	event any
}

// commit runs the post-mutation pipeline: style repair, snapshot save,
// event publishing and the feature gauge.
func (w *Workspace) commit(ctx context.Context, notices ...notice) {
	if n := w.recon.RepairStyles(); n > 0 {
		w.logger.Debug("layer styles repaired", "layers", n)
	}

	if err := w.persist.Save(ctx, w.store.List()); err != nil {
		metrics.PersistSavesTotal.WithLabelValues(metrics.ResultError).Inc()
		w.logger.Error("saving features failed", "error", err)
	} else {
		metrics.PersistSavesTotal.WithLabelValues(metrics.ResultOK).Inc()
	}

	w.publish(ctx, notices...)
	metrics.Features.Set(float64(w.store.Len()))
}

func (w *Workspace) publish(ctx context.Context, notices ...notice) {
	for _, n := range notices {
		if err := w.publisher.Publish(ctx, n.topic, n.event); err != nil {
			w.logger.Warn("publishing event failed", "topic", n.topic, "error", err)
		}
	}
}

// Vocabulary returns the injected crop and season lists.
func (w *Workspace) Vocabulary() model.Vocabulary {
	return w.vocab
}

// Surface returns the drawing surface the workspace projects onto.
func (w *Workspace) Surface() surface.Surface {
	return w.surface
}

// DrawColor returns the color applied to newly drawn shapes.
func (w *Workspace) DrawColor() string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.drawColor
}

// SetDrawColor changes the color for subsequent drawings. Existing features
// keep theirs.
func (w *Workspace) SetDrawColor(color string) error {
	if !model.IsHexColor(color) {
		return &model.ValidationError{Errors: []model.FieldError{
			{Field: "color", Message: fmt.Sprintf("must be #RRGGBB, got %q", color)},
		}}
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	w.drawColor = color
	return nil
}
