// Package client provides a transport-agnostic interface for agritag and
// two implementations: HTTPClient talks to a running server, LocalClient
// opens the workspace in-process.
package client

import (
	"context"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"

	"github.com/alfredjeanlab/agritag/internal/geo"
	"github.com/alfredjeanlab/agritag/internal/interchange"
	"github.com/alfredjeanlab/agritag/internal/model"
)

// Client is the interface that all agt CLI commands use.
type Client interface {
	// Features
	ListFeatures(ctx context.Context, filter model.FeatureFilter) (*FeatureList, error)
	GetFeature(ctx context.Context, id string) (*Feature, error)
	UpdateFeature(ctx context.Context, id string, patch model.AttributePatch) (*Feature, error)
	DeleteFeature(ctx context.Context, id string) error

	// Drawing
	Draw(ctx context.Context, shape model.ShapeKind, g orb.Geometry) (*Feature, error)

	// Interchange
	Import(ctx context.Context, data []byte) (*ImportResult, error)
	Export(ctx context.Context) (data []byte, filename string, err error)

	Vocabulary(ctx context.Context) (model.Vocabulary, error)
	Health(ctx context.Context) (string, error)

	// Lifecycle
	Close() error
}

// Feature is a feature with its computed area.
type Feature struct {
	ID         string            `json:"id"`
	Kind       string            `json:"kind"`
	Geometry   *geojson.Geometry `json:"geometry"`
	Properties model.Attributes  `json:"properties"`
	AreaHa     float64           `json:"area_ha"`
}

// FromModel converts a stored feature.
func FromModel(f *model.Feature) *Feature {
	out := &Feature{
		ID:         f.ID,
		Kind:       f.Kind(),
		Properties: f.Attributes,
		AreaHa:     geo.AreaHa(f.Geometry),
	}
	if f.Geometry != nil {
		out.Geometry = geojson.NewGeometry(f.Geometry)
	}
	return out
}

// FeatureList is a filtered view. Total and Crops describe the whole store.
type FeatureList struct {
	Features []*Feature `json:"features"`
	Total    int        `json:"total"`
	Crops    []string   `json:"crops"`
}

// ImportResult is the response from Import.
type ImportResult struct {
	Features []*model.Feature   `json:"features"`
	Skipped  []interchange.Skip `json:"skipped,omitempty"`
}
