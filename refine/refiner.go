// Package refine provides the minimal internal stand-in for spec.md §1's
// excluded external collaborator, "the exact geometric refinement library
// (DE-9IM mask evaluation on full geometry)". The spec specifies this
// collaborator only by the interface it offers (geometry.Refiner); refine
// implements a small, honestly-incomplete version of it — Point,
// Rectangle, and Polygon combinations, computed via ray-casting and segment
// intersection — so the rest of the tree, and its tests, have something
// real to call. LineString combinations report ErrUnsupported. A
// production deployment would replace DefaultRefiner with a binding to an
// actual geometry library; see DESIGN.md.
package refine

import (
	"github.com/pkg/errors"

	"github.com/grailbio/spatialjoin/geometry"
)

// ErrUnsupported is returned for a variant pair DefaultRefiner does not
// implement, per spec.md §4.6's requirement that unsupported combinations
// "report a specific error and not fall back to default behaviour."
var ErrUnsupported = errors.New("refine: unsupported shape variant combination")

// DefaultRefiner is the package's concrete geometry.Refiner.
type DefaultRefiner struct{}

// PointInPolygon classifies pt against shape's area (Rectangle or Polygon):
// -1 outside, 0 on the boundary, 1 strictly inside. It is exported for
// april/'s rasterization corner/edge test (spec.md §4.3: "classify each
// such cell as full ... tested by point-in-area of the four corners plus
// edge test"), which needs the same primitive this package already uses
// for DE-9IM evaluation.
func PointInPolygon(pt geometry.Vertex, shape *geometry.Shape) int {
	return pointPosition(pt, ring(shape))
}

// Relate computes the DE-9IM mask of a with respect to b.
func (DefaultRefiner) Relate(a, b *geometry.Shape) (geometry.Mask, error) {
	switch {
	case a.DataType == geometry.LineString || b.DataType == geometry.LineString:
		return geometry.Mask{}, errors.Wrapf(ErrUnsupported, "%s vs %s", a.DataType, b.DataType)
	default:
		return relateAreal(a, b), nil
	}
}

// ring returns the closed polygon ring to test point membership and
// boundary crossing against: a Rectangle's four corners, a Polygon's
// vertex list (assumed already closed or implicitly closed edge n-1 -> 0),
// or a degenerate single point for Point.
func ring(s *geometry.Shape) []geometry.Vertex {
	switch s.DataType {
	case geometry.Point:
		return s.Vertices
	case geometry.Rectangle:
		if len(s.Vertices) < 2 {
			return nil
		}
		lo, hi := s.Vertices[0], s.Vertices[1]
		return []geometry.Vertex{
			{X: lo.X, Y: lo.Y}, {X: hi.X, Y: lo.Y}, {X: hi.X, Y: hi.Y}, {X: lo.X, Y: hi.Y},
		}
	default: // Polygon
		return s.Vertices
	}
}

// pointPosition classifies pt against the closed ring via ray casting:
// -1 outside, 0 on boundary, 1 strictly inside.
func pointPosition(pt geometry.Vertex, ringPts []geometry.Vertex) int {
	if len(ringPts) == 0 {
		return -1
	}
	if len(ringPts) == 1 {
		if pt == ringPts[0] {
			return 0
		}
		return -1
	}
	inside := false
	n := len(ringPts)
	for i := 0; i < n; i++ {
		p1 := ringPts[i]
		p2 := ringPts[(i+1)%n]
		if onSegment(pt, p1, p2) {
			return 0
		}
		if (p1.Y > pt.Y) != (p2.Y > pt.Y) {
			xCross := p1.X + (pt.Y-p1.Y)*(p2.X-p1.X)/(p2.Y-p1.Y)
			if pt.X < xCross {
				inside = !inside
			}
		}
	}
	if inside {
		return 1
	}
	return -1
}

func onSegment(pt, p1, p2 geometry.Vertex) bool {
	cross := (p2.X-p1.X)*(pt.Y-p1.Y) - (p2.Y-p1.Y)*(pt.X-p1.X)
	if abs(cross) > geometry.Epsilon {
		return false
	}
	return pt.X >= minF(p1.X, p2.X)-geometry.Epsilon && pt.X <= maxF(p1.X, p2.X)+geometry.Epsilon &&
		pt.Y >= minF(p1.Y, p2.Y)-geometry.Epsilon && pt.Y <= maxF(p1.Y, p2.Y)+geometry.Epsilon
}

func segmentsIntersect(p1, p2, q1, q2 geometry.Vertex) bool {
	d1 := orient(q1, q2, p1)
	d2 := orient(q1, q2, p2)
	d3 := orient(p1, p2, q1)
	d4 := orient(p1, p2, q2)
	if ((d1 > 0) != (d2 > 0)) && ((d3 > 0) != (d4 > 0)) {
		return true
	}
	return onSegment(p1, q1, q2) || onSegment(p2, q1, q2) || onSegment(q1, p1, p2) || onSegment(q2, p1, p2)
}

func orient(a, b, c geometry.Vertex) float64 {
	return (b.X-a.X)*(c.Y-a.Y) - (b.Y-a.Y)*(c.X-a.X)
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}

func minF(a, b float64) float64 {
	if a < b {
		return a
	}
	return b
}

func maxF(a, b float64) float64 {
	if a > b {
		return a
	}
	return b
}

func isArea(s *geometry.Shape) bool {
	return s.DataType == geometry.Rectangle || s.DataType == geometry.Polygon
}

const (
	dimInterior = 0
	dimBoundary = 1
	dimExterior = 2
)

// contactRow maps a pointPosition() result against region's ring to the
// mask row/column it represents. A Point region has no boundary, so any
// contact with it (position 0, the only non-exterior result a degenerate
// single-vertex ring can return) is interior contact; an area region's
// ring is its boundary, so position 0 there means boundary contact and
// position 1 means interior containment.
func contactRow(position int, region *geometry.Shape) int {
	if !isArea(region) {
		return dimInterior
	}
	if position == 1 {
		return dimInterior
	}
	return dimBoundary
}

// relateAreal computes the Mask between any pair of Point/Rectangle/Polygon
// shapes by classifying each shape's vertices against the other's ring,
// testing ring-to-ring edge crossings for boundary/boundary contact, and
// checking whole-shape interior containment.
func relateAreal(a, b *geometry.Shape) geometry.Mask {
	ringA, ringB := ring(a), ring(b)
	var m geometry.Mask

	// a's ring vertices against b's region: position classifies the contact
	// on b's side (column); a's own row is always dimBoundary for an area
	// shape's ring sample, dimInterior for a Point's sole vertex.
	aRow := dimInterior
	if isArea(a) {
		aRow = dimBoundary
	}
	for _, v := range ringA {
		position := pointPosition(v, ringB)
		if position < 0 {
			continue
		}
		m.Present[aRow][contactRow(position, b)] = true
	}
	// b's ring vertices against a's region, symmetric to the above.
	bCol := dimInterior
	if isArea(b) {
		bCol = dimBoundary
	}
	for _, v := range ringB {
		position := pointPosition(v, ringA)
		if position < 0 {
			continue
		}
		m.Present[contactRow(position, a)][bCol] = true
	}

	// Boundary/boundary edge crossings, relevant only when both shapes have
	// a real boundary (area shapes); a Point has no edges to cross.
	if isArea(a) && isArea(b) && len(ringA) > 1 && len(ringB) > 1 {
		for i := 0; i < len(ringA); i++ {
			pa1, pa2 := ringA[i], ringA[(i+1)%len(ringA)]
			for j := 0; j < len(ringB); j++ {
				pb1, pb2 := ringB[j], ringB[(j+1)%len(ringB)]
				if segmentsIntersect(pa1, pa2, pb1, pb2) {
					m.Present[dimBoundary][dimBoundary] = true
				}
			}
		}
	}

	// Whole-shape interior containment when one area shape's ring lies
	// entirely inside the other with no boundary contact detected above
	// (e.g. a small polygon wholly inside a larger one).
	if isArea(a) && isArea(b) && !m.Present[dimBoundary][dimBoundary] {
		if len(ringB) > 0 && pointPosition(ringB[0], ringA) == 1 {
			m.Present[dimInterior][dimInterior] = true
		}
		if len(ringA) > 0 && pointPosition(ringA[0], ringB) == 1 {
			m.Present[dimInterior][dimInterior] = true
		}
	}

	// Exterior rows/columns are the complement of interior+boundary contact,
	// but only along dimensions that actually exist: a Point has no
	// boundary, so its boundary row/column is never "exterior-adjacent" —
	// it simply does not exist, and must stay false rather than default to
	// true by complement.
	m.Present[dimExterior][dimInterior] = !m.Present[dimInterior][dimInterior] && !m.Present[dimBoundary][dimInterior]
	m.Present[dimInterior][dimExterior] = !m.Present[dimInterior][dimInterior] && !m.Present[dimInterior][dimBoundary]
	if isArea(b) {
		m.Present[dimExterior][dimBoundary] = !m.Present[dimInterior][dimBoundary] && !m.Present[dimBoundary][dimBoundary]
	}
	if isArea(a) {
		m.Present[dimBoundary][dimExterior] = !m.Present[dimBoundary][dimInterior] && !m.Present[dimBoundary][dimBoundary]
	}

	return m
}
