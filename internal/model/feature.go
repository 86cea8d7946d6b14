package model

import (
	"encoding/json"
	"time"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
)

// ShapeKind names the drawing tool that produced a feature.
// Well-known kinds are listed below; the set is extensible.
type ShapeKind string

const (
	ShapePolygon   ShapeKind = "polygon"
	ShapeRectangle ShapeKind = "rectangle"
	ShapeMarker    ShapeKind = "marker"
)

// String returns the string representation of the shape kind.
func (k ShapeKind) String() string {
	return string(k)
}

// IsPoint reports whether the shape kind draws a single location.
func (k ShapeKind) IsPoint() bool {
	return k == ShapeMarker
}

// Accepts reports whether the tool can have produced g. Markers draw
// points; polygon and rectangle tools draw polygons. Unknown kinds accept
// any non-nil geometry.
func (k ShapeKind) Accepts(g orb.Geometry) bool {
	if g == nil {
		return false
	}
	switch k {
	case ShapeMarker:
		_, ok := g.(orb.Point)
		return ok
	case ShapePolygon, ShapeRectangle:
		switch g.(type) {
		case orb.Polygon, orb.MultiPolygon:
			return true
		}
		return false
	}
	return true
}

// Attributes is the descriptive metadata attached to a feature.
// Field order is the serialized property order.
type Attributes struct {
	Name      string    `json:"name"`
	Crop      string    `json:"crop"`
	Season    string    `json:"season"`
	Color     string    `json:"color"`
	Notes     string    `json:"notes"`
	CreatedAt time.Time `json:"createdAt"`
}

// AttributePatch carries a partial attribute update. Nil fields are left
// untouched. CreatedAt is immutable and therefore absent.
type AttributePatch struct {
	Name   *string `json:"name,omitempty"`
	Crop   *string `json:"crop,omitempty"`
	Season *string `json:"season,omitempty"`
	Color  *string `json:"color,omitempty"`
	Notes  *string `json:"notes,omitempty"`
}

// IsEmpty reports whether the patch changes nothing.
func (p AttributePatch) IsEmpty() bool {
	return p.Name == nil && p.Crop == nil && p.Season == nil && p.Color == nil && p.Notes == nil
}

// Apply returns a copy of a with the patch merged in.
func (p AttributePatch) Apply(a Attributes) Attributes {
	if p.Name != nil {
		a.Name = *p.Name
	}
	if p.Crop != nil {
		a.Crop = *p.Crop
	}
	if p.Season != nil {
		a.Season = *p.Season
	}
	if p.Color != nil {
		a.Color = *p.Color
	}
	if p.Notes != nil {
		a.Notes = *p.Notes
	}
	return a
}

// Feature is one tagged geographic shape.
type Feature struct {
	ID         string
	Geometry   orb.Geometry
	Attributes Attributes
}

// featureJSON is the persisted shape: {id, geometry, properties}.
type featureJSON struct {
	ID         string            `json:"id"`
	Geometry   *geojson.Geometry `json:"geometry"`
	Attributes Attributes        `json:"properties"`
}

// MarshalJSON encodes the geometry as a GeoJSON geometry object.
func (f Feature) MarshalJSON() ([]byte, error) {
	var g *geojson.Geometry
	if f.Geometry != nil {
		g = geojson.NewGeometry(f.Geometry)
	}
	return json.Marshal(featureJSON{ID: f.ID, Geometry: g, Attributes: f.Attributes})
}

// UnmarshalJSON decodes the persisted shape.
func (f *Feature) UnmarshalJSON(data []byte) error {
	var raw featureJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*f = Feature{ID: raw.ID, Attributes: raw.Attributes}
	if raw.Geometry != nil {
		f.Geometry = raw.Geometry.Geometry()
	}
	return nil
}

// Kind returns the GeoJSON type of the feature's geometry, or "" if absent.
func (f *Feature) Kind() string {
	if f == nil || f.Geometry == nil {
		return ""
	}
	return f.Geometry.GeoJSONType()
}

// Clone returns a deep copy; the geometry is never shared.
func (f *Feature) Clone() *Feature {
	if f == nil {
		return nil
	}
	c := *f
	if f.Geometry != nil {
		c.Geometry = orb.Clone(f.Geometry)
	}
	return &c
}
