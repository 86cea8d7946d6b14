// Package geo derives advisory measurements from feature geometry.
package geo

import (
	"math"

	"github.com/paulmach/orb"
	orbgeo "github.com/paulmach/orb/geo"
)

// SquareMetersPerHectare converts geodesic area to hectares.
const SquareMetersPerHectare = 10_000.0

// AreaHa returns the surface area of a Polygon or MultiPolygon in hectares.
// Every other geometry kind, an absent geometry, or a geometry the area
// computation chokes on yields 0. It never panics.
func AreaHa(g orb.Geometry) (ha float64) {
	defer func() {
		if recover() != nil {
			ha = 0
		}
	}()

	switch g := g.(type) {
	case orb.Polygon:
		if len(g) == 0 {
			return 0
		}
	case orb.MultiPolygon:
		if len(g) == 0 {
			return 0
		}
	default:
		return 0
	}

	m2 := orbgeo.Area(g)
	if math.IsNaN(m2) || math.IsInf(m2, 0) || m2 < 0 {
		return 0
	}
	return m2 / SquareMetersPerHectare
}
