// Package store defines the canonical feature collection.
package store

import (
	"github.com/paulmach/orb"

	"github.com/alfredjeanlab/agritag/internal/model"
)

// Store maps stable feature IDs to features, preserving insertion order.
// It is the only writer of feature geometry and attributes. Returned
// features are copies; mutating them never changes the store.
//
// Implementations are not required to be safe for concurrent use; the
// owning workspace serializes access.
type Store interface {
	// Create allocates a fresh ID, appends the feature and returns the ID.
	Create(geometry orb.Geometry, attrs model.Attributes) (string, error)
	// UpdateGeometry replaces a feature's geometry. It reports false and
	// changes nothing when the ID is absent or the geometry kind would change.
	UpdateGeometry(id string, geometry orb.Geometry) bool
	// UpdateAttributes merges patch into a feature's attributes. It reports
	// false and changes nothing when the ID is absent.
	UpdateAttributes(id string, patch model.AttributePatch) bool
	// Delete removes a feature. Deleting an absent ID is a no-op that
	// reports false.
	Delete(id string) bool

	Get(id string) (*model.Feature, bool)
	List() []*model.Feature
	Len() int

	// Replace swaps the whole contents for features, in order. Used when
	// hydrating from persistence.
	Replace(features []*model.Feature)
}
