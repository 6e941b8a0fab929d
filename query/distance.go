package query

import (
	"math"

	"github.com/grailbio/spatialjoin/geometry"
)

// PointDistance is the Euclidean distance from pt to the nearest vertex of
// s. Exact for Point shapes (spec.md §8 Scenario 4's kNN-on-points case);
// an approximation (nearest sample vertex, not nearest boundary point) for
// LineString/Rectangle/Polygon, consistent with this system's thin
// geometry abstraction (spec.md §4.6) not offering an exact point-to-area
// distance primitive.
func PointDistance(pt geometry.Vertex, s *geometry.Shape) float64 {
	best := math.Inf(1)
	for _, v := range s.Vertices {
		if d := hypot(pt, v); d < best {
			best = d
		}
	}
	return best
}

// ShapeDistance is the minimum pairwise vertex distance between a and b,
// the same approximation PointDistance uses, generalized to two shapes for
// the ModeDistance join (spec.md §3 "distance" predicate).
func ShapeDistance(a, b *geometry.Shape) float64 {
	best := math.Inf(1)
	for _, va := range a.Vertices {
		for _, vb := range b.Vertices {
			if d := hypot(va, vb); d < best {
				best = d
			}
		}
	}
	return best
}

func hypot(a, b geometry.Vertex) float64 {
	return math.Hypot(a.X-b.X, a.Y-b.Y)
}
