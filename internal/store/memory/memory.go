// Package memory implements store.Store as an in-process ordered map.
package memory

import (
	"fmt"

	"github.com/paulmach/orb"

	"github.com/alfredjeanlab/agritag/internal/idgen"
	"github.com/alfredjeanlab/agritag/internal/model"
	"github.com/alfredjeanlab/agritag/internal/store"
)

// maxIDAttempts bounds retries when a generated ID is already taken.
const maxIDAttempts = 5

// Store is an arena of features keyed by ID with a parallel order slice.
type Store struct {
	features map[string]*model.Feature
	order    []string

	// newID is swappable in tests.
	newID func() (string, error)
}

// Compile-time check that Store implements store.Store.
var _ store.Store = (*Store)(nil)

// New returns an empty store.
func New() *Store {
	return &Store{
		features: make(map[string]*model.Feature),
		newID:    idgen.Generate,
	}
}

func (s *Store) Create(geometry orb.Geometry, attrs model.Attributes) (string, error) {
	var id string
	for attempt := 0; ; attempt++ {
		if attempt == maxIDAttempts {
			return "", fmt.Errorf("allocate feature id: %d collisions in a row", maxIDAttempts)
		}
		candidate, err := s.newID()
		if err != nil {
			return "", fmt.Errorf("allocate feature id: %w", err)
		}
		if _, taken := s.features[candidate]; !taken {
			id = candidate
			break
		}
	}

	f := &model.Feature{ID: id, Geometry: geometry, Attributes: attrs}
	s.features[id] = f.Clone()
	s.order = append(s.order, id)
	return id, nil
}

func (s *Store) UpdateGeometry(id string, geometry orb.Geometry) bool {
	f, ok := s.features[id]
	if !ok || geometry == nil {
		return false
	}
	if f.Geometry != nil && f.Geometry.GeoJSONType() != geometry.GeoJSONType() {
		return false
	}
	f.Geometry = orb.Clone(geometry)
	return true
}

func (s *Store) UpdateAttributes(id string, patch model.AttributePatch) bool {
	f, ok := s.features[id]
	if !ok {
		return false
	}
	f.Attributes = patch.Apply(f.Attributes)
	return true
}

func (s *Store) Delete(id string) bool {
	if _, ok := s.features[id]; !ok {
		return false
	}
	delete(s.features, id)
	for i, oid := range s.order {
		if oid == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	return true
}

func (s *Store) Get(id string) (*model.Feature, bool) {
	f, ok := s.features[id]
	if !ok {
		return nil, false
	}
	return f.Clone(), true
}

func (s *Store) List() []*model.Feature {
	out := make([]*model.Feature, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.features[id].Clone())
	}
	return out
}

func (s *Store) Len() int {
	return len(s.order)
}

// Replace keeps the first occurrence of any duplicated ID and skips
// features without one.
func (s *Store) Replace(features []*model.Feature) {
	s.features = make(map[string]*model.Feature, len(features))
	s.order = make([]string, 0, len(features))
	for _, f := range features {
		if f == nil || f.ID == "" {
			continue
		}
		if _, dup := s.features[f.ID]; dup {
			continue
		}
		s.features[f.ID] = f.Clone()
		s.order = append(s.order, f.ID)
	}
}
