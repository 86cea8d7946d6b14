package draw

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/alfredjeanlab/agritag/internal/model"
	"github.com/alfredjeanlab/agritag/internal/store"
)

// ErrNoGeometry is returned for a Create event whose layer has no shape.
var ErrNoGeometry = errors.New("drawn layer has no geometry")

// Outcome lists the feature IDs an event touched. Stale references are
// counted in Ignored rather than reported as errors.
type Outcome struct {
	Created string
	Edited  []string
	Deleted []string
	Ignored int
}

// Changed reports whether the store was mutated.
func (o Outcome) Changed() bool {
	return o.Created != "" || len(o.Edited) > 0 || len(o.Deleted) > 0
}

// Adapter applies drawing events to a store. Events must be handled one at
// a time in arrival order.
type Adapter struct {
	store     store.Store
	vocab     model.Vocabulary
	color     func() string
	selection *Selection
	logger    *slog.Logger
}

// NewAdapter creates an adapter. color returns the current drawing color
// each time a shape is created.
func NewAdapter(s store.Store, vocab model.Vocabulary, color func() string, sel *Selection, logger *slog.Logger) *Adapter {
	if logger == nil {
		logger = slog.Default()
	}
	if sel == nil {
		sel = &Selection{}
	}
	return &Adapter{
		store:     s,
		vocab:     vocab,
		color:     color,
		selection: sel,
		logger:    logger,
	}
}

// Selection returns the selection the adapter updates.
func (a *Adapter) Selection() *Selection {
	return a.selection
}

// Handle is the single entry point for drawing events.
func (a *Adapter) Handle(ev Event) (Outcome, error) {
	switch ev := ev.(type) {
	case Create:
		return a.create(ev)
	case *Create:
		return a.create(*ev)
	case Edit:
		return a.edit(ev), nil
	case *Edit:
		return a.edit(*ev), nil
	case Delete:
		return a.delete(ev), nil
	case *Delete:
		return a.delete(*ev), nil
	default:
		return Outcome{}, fmt.Errorf("unsupported draw event %T", ev)
	}
}

func (a *Adapter) create(ev Create) (Outcome, error) {
	if ev.Layer == nil {
		return Outcome{}, ErrNoGeometry
	}
	geometry := ev.Layer.Geometry()
	if geometry == nil {
		return Outcome{}, ErrNoGeometry
	}

	attrs := model.Attributes{
		Name:      model.PlaceholderName(a.vocab.LabelFor(ev.Shape), a.store.Len()+1),
		Crop:      a.vocab.DefaultCrop(),
		Season:    a.vocab.DefaultSeason(),
		Color:     a.color(),
		CreatedAt: ev.At,
	}
	id, err := a.store.Create(geometry, attrs)
	if err != nil {
		return Outcome{}, fmt.Errorf("create %s feature: %w", ev.Shape, err)
	}
	ev.Layer.SetTag(id)
	a.selection.Set(id)

	a.logger.Debug("feature drawn", "id", id, "shape", ev.Shape, "name", attrs.Name)
	return Outcome{Created: id}, nil
}

func (a *Adapter) edit(ev Edit) Outcome {
	var out Outcome
	for _, l := range ev.Layers {
		if l == nil || l.Tag() == "" {
			out.Ignored++
			continue
		}
		id := l.Tag()
		if !a.store.UpdateGeometry(id, l.Geometry()) {
			a.logger.Debug("ignoring edit of unknown feature", "id", id)
			out.Ignored++
			continue
		}
		out.Edited = append(out.Edited, id)
	}
	return out
}

func (a *Adapter) delete(ev Delete) Outcome {
	var out Outcome
	for _, l := range ev.Layers {
		if l == nil || l.Tag() == "" {
			out.Ignored++
			continue
		}
		id := l.Tag()
		if !a.store.Delete(id) {
			a.logger.Debug("ignoring delete of unknown feature", "id", id)
			out.Ignored++
			continue
		}
		a.selection.ClearIf(id)
		out.Deleted = append(out.Deleted, id)
	}
	return out
}
