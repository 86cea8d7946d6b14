package model

import (
	"fmt"
	"strings"

	"github.com/paulmach/orb"
)

// DefaultDrawColor is the stroke color used until the user picks another one.
const DefaultDrawColor = "#10b981"

// Vocabulary is the injected configuration for categorical attributes and
// the labels used for generated feature names.
type Vocabulary struct {
	Crops      []string `toml:"crops" json:"crops"`
	Seasons    []string `toml:"seasons" json:"seasons"`
	PlotLabel  string   `toml:"plot_label" json:"plot_label"`
	PointLabel string   `toml:"point_label" json:"point_label"`
}

// DefaultVocabulary returns the built-in crop and season lists.
func DefaultVocabulary() Vocabulary {
	return Vocabulary{
		Crops: []string{
			"Rice",
			"Corn",
			"Soybean",
			"Sugarcane",
			"Coffee",
			"Oil Palm",
			"Mixed Vegetables",
			"Other",
		},
		Seasons: []string{
			"Planting Season 1",
			"Planting Season 2",
			"Planting Season 3",
			"Dry Season",
			"Wet Season",
		},
		PlotLabel:  "Plot",
		PointLabel: "Point",
	}
}

// Validate checks that defaults can be derived from the vocabulary.
func (v Vocabulary) Validate() error {
	var ve ValidationError
	if len(v.Crops) == 0 {
		ve.Errors = append(ve.Errors, FieldError{Field: "crops", Message: "must list at least one crop"})
	}
	if len(v.Seasons) == 0 {
		ve.Errors = append(ve.Errors, FieldError{Field: "seasons", Message: "must list at least one season"})
	}
	for i, c := range v.Crops {
		if strings.TrimSpace(c) == "" {
			ve.Errors = append(ve.Errors, FieldError{Field: "crops", Message: fmt.Sprintf("entry %d is empty", i)})
		}
		if c == AllCrops {
			ve.Errors = append(ve.Errors, FieldError{Field: "crops", Message: fmt.Sprintf("%q is reserved", AllCrops)})
		}
	}
	if ve.HasErrors() {
		return &ve
	}
	return nil
}

// WithDefaults fills empty labels with the built-in ones.
func (v Vocabulary) WithDefaults() Vocabulary {
	def := DefaultVocabulary()
	if v.PlotLabel == "" {
		v.PlotLabel = def.PlotLabel
	}
	if v.PointLabel == "" {
		v.PointLabel = def.PointLabel
	}
	return v
}

// DefaultCrop is the first configured crop.
func (v Vocabulary) DefaultCrop() string {
	if len(v.Crops) == 0 {
		return ""
	}
	return v.Crops[0]
}

// DefaultSeason is the first configured season.
func (v Vocabulary) DefaultSeason() string {
	if len(v.Seasons) == 0 {
		return ""
	}
	return v.Seasons[0]
}

// HasCrop reports whether crop is one of the configured entries.
func (v Vocabulary) HasCrop(crop string) bool {
	for _, c := range v.Crops {
		if c == crop {
			return true
		}
	}
	return false
}

// HasSeason reports whether season is one of the configured entries.
func (v Vocabulary) HasSeason(season string) bool {
	for _, s := range v.Seasons {
		if s == season {
			return true
		}
	}
	return false
}

// LabelFor returns the name label for features drawn with the given tool.
func (v Vocabulary) LabelFor(kind ShapeKind) string {
	if kind.IsPoint() {
		return v.PointLabel
	}
	return v.PlotLabel
}

// LabelForGeometry picks the name label from a geometry's kind, for features
// that did not come from a drawing tool.
func (v Vocabulary) LabelForGeometry(g orb.Geometry) string {
	switch g.(type) {
	case orb.Point, orb.MultiPoint:
		return v.PointLabel
	}
	return v.PlotLabel
}

// PlaceholderName formats the generated "<label> N" name.
func PlaceholderName(label string, n int) string {
	return fmt.Sprintf("%s %d", label, n)
}
