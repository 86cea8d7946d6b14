// Package query computes the filtered feature list. It owns nothing and is
// recomputed on every change.
package query

import (
	"github.com/alfredjeanlab/agritag/internal/model"
	"github.com/alfredjeanlab/agritag/internal/store"
)

// Features returns the features matching filter, preserving input order.
func Features(features []*model.Feature, filter model.FeatureFilter) []*model.Feature {
	out := make([]*model.Feature, 0, len(features))
	for _, f := range features {
		if filter.Matches(f) {
			out = append(out, f)
		}
	}
	return out
}

// Run filters the store's features in store order.
func Run(s store.Store, filter model.FeatureFilter) []*model.Feature {
	return Features(s.List(), filter)
}

// Crops lists the distinct crops in use, in first-seen order.
func Crops(features []*model.Feature) []string {
	seen := make(map[string]bool)
	var out []string
	for _, f := range features {
		c := f.Attributes.Crop
		if c == "" || seen[c] {
			continue
		}
		seen[c] = true
		out = append(out, c)
	}
	return out
}
