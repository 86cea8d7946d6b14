package model

import "strings"

// AllCrops is the crop filter sentinel that matches every feature.
const AllCrops = "all"

// FeatureFilter holds criteria for the filtered feature view.
type FeatureFilter struct {
	Search string `json:"search,omitempty"` // case-insensitive substring of name or notes
	Crop   string `json:"crop,omitempty"`   // exact crop, or AllCrops / "" for any
}

// Matches reports whether f satisfies the filter.
func (flt FeatureFilter) Matches(f *Feature) bool {
	if f == nil {
		return false
	}
	if flt.Crop != "" && flt.Crop != AllCrops && flt.Crop != f.Attributes.Crop {
		return false
	}
	term := strings.ToLower(strings.TrimSpace(flt.Search))
	if term == "" {
		return true
	}
	return strings.Contains(strings.ToLower(f.Attributes.Name), term) ||
		strings.Contains(strings.ToLower(f.Attributes.Notes), term)
}
