// Package interchange converts between the feature store and GeoJSON
// FeatureCollection documents.
package interchange

import (
	"encoding/json"
	"time"

	"github.com/paulmach/orb/geojson"

	"github.com/alfredjeanlab/agritag/internal/model"
)

// MediaType is the registered GeoJSON media type.
const MediaType = "application/geo+json"

const (
	typeFeatureCollection = "FeatureCollection"
	typeFeature           = "Feature"
)

type document struct {
	Type     string  `json:"type"`
	Features []entry `json:"features"`
}

// entry omits the feature ID; IDs are store-internal.
type entry struct {
	Type       string            `json:"type"`
	Geometry   *geojson.Geometry `json:"geometry"`
	Properties model.Attributes  `json:"properties"`
}

// Export renders features as an indented FeatureCollection, in the order
// given.
func Export(features []*model.Feature) ([]byte, error) {
	doc := document{Type: typeFeatureCollection, Features: make([]entry, 0, len(features))}
	for _, f := range features {
		if f == nil {
			continue
		}
		e := entry{Type: typeFeature, Properties: f.Attributes}
		if f.Geometry != nil {
			e.Geometry = geojson.NewGeometry(f.Geometry)
		}
		doc.Features = append(doc.Features, e)
	}
	return json.MarshalIndent(doc, "", "  ")
}

// Filename returns the dated download name for an export made at t.
func Filename(t time.Time) string {
	return "agritag_" + t.Format("2006-01-02") + ".geojson"
}
