package geo

import "github.com/paulmach/orb"

// ZoomPadding is the fraction of a feature's extent added on every side when
// framing it.
const ZoomPadding = 0.4

// ZoomBounds returns the bounding box of g grown by ratio of its width and
// height on each side. A point yields a degenerate bound at the point.
// ok is false when g is nil or empty.
func ZoomBounds(g orb.Geometry, ratio float64) (b orb.Bound, ok bool) {
	if g == nil {
		return orb.Bound{}, false
	}
	defer func() {
		if recover() != nil {
			b, ok = orb.Bound{}, false
		}
	}()
	if isEmpty(g) {
		return orb.Bound{}, false
	}

	b = g.Bound()
	dx := (b.Max[0] - b.Min[0]) * ratio
	dy := (b.Max[1] - b.Min[1]) * ratio
	b.Min = orb.Point{b.Min[0] - dx, b.Min[1] - dy}
	b.Max = orb.Point{b.Max[0] + dx, b.Max[1] + dy}
	return b, true
}

func isEmpty(g orb.Geometry) bool {
	switch g := g.(type) {
	case orb.Point:
		return false
	case orb.MultiPoint:
		return len(g) == 0
	case orb.LineString:
		return len(g) == 0
	case orb.MultiLineString:
		return len(g) == 0
	case orb.Ring:
		return len(g) == 0
	case orb.Polygon:
		return len(g) == 0 || len(g[0]) == 0
	case orb.MultiPolygon:
		return len(g) == 0
	case orb.Collection:
		return len(g) == 0
	case orb.Bound:
		return false
	}
	return true
}
