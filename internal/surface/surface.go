// Package surface models the drawing surface: a set of interactive layers
// that the map toolkit owns and the feature store projects onto.
//
// Layers carry only a weak back-reference to a feature (the tag, a feature
// ID). The store never holds layers and layers never hold features.
package surface

import "github.com/paulmach/orb"

// Handle identifies a layer on its surface for the layer's lifetime.
type Handle uint64

// Style is the presentation applied to a layer.
type Style struct {
	Color string `json:"color"`
}

// Layer is one interactive shape on the surface.
type Layer interface {
	Handle() Handle
	// Geometry returns a copy of the layer's current shape.
	Geometry() orb.Geometry
	SetGeometry(g orb.Geometry)
	// Tag is the ID of the feature this layer renders, or "" when untagged.
	Tag() string
	SetTag(id string)
	Style() Style
	SetStyle(s Style)
}

// Surface is the layer set of a drawing surface.
type Surface interface {
	// Clear removes every layer.
	Clear()
	Add(l Layer)
	// Remove detaches the layer with handle h, reporting whether it existed.
	Remove(h Handle) bool
	// Layers returns the current layers in the order they were added.
	Layers() []Layer
	Layer(h Handle) (Layer, bool)
	// Render builds detached layers for g. Collections yield one layer per
	// member; a nil geometry yields none.
	Render(g orb.Geometry) []Layer
}
