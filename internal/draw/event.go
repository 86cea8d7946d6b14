// Package draw translates drawing-surface events into store mutations.
package draw

import (
	"time"

	"github.com/alfredjeanlab/agritag/internal/model"
	"github.com/alfredjeanlab/agritag/internal/surface"
)

// Event is one of Create, Edit or Delete.
type Event interface {
	// Kind returns "create", "edit" or "delete".
	Kind() string
	isEvent()
}

// Create reports a freshly drawn shape. Layer is already on the surface and
// is untagged until the adapter handles the event.
type Create struct {
	Shape model.ShapeKind
	Layer surface.Layer
	At    time.Time
}

// Edit reports layers whose geometry the user reshaped.
type Edit struct {
	Layers []surface.Layer
}

// Delete reports layers the user removed from the surface.
type Delete struct {
	Layers []surface.Layer
}

func (Create) Kind() string { return "create" }
func (Edit) Kind() string   { return "edit" }
func (Delete) Kind() string { return "delete" }

func (Create) isEvent() {}
func (Edit) isEvent()   {}
func (Delete) isEvent() {}

// Selection tracks the feature the editor panel is showing.
type Selection struct {
	id string
}

// ID returns the selected feature ID, or "" when nothing is selected.
func (s *Selection) ID() string { return s.id }

func (s *Selection) Set(id string) { s.id = id }

func (s *Selection) Clear() { s.id = "" }

// ClearIf clears the selection when it is id.
func (s *Selection) ClearIf(id string) bool {
	if id == "" || s.id != id {
		return false
	}
	s.id = ""
	return true
}
