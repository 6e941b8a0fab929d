// Package geometry implements the thin Shape abstraction of spec.md §4.6: a
// discriminated union over Point/LineString/Rectangle/Polygon, MBR
// computation, and the binary topological predicates built on top of a
// refine.Refiner (the spec's excluded-external-collaborator "exact
// geometric refinement library").
package geometry

import "fmt"

// DataType is the geometry variant discriminator. Its numeric encoding is
// fixed by wire.BatchTagForDataType (point=0, line=1, rectangle=2,
// polygon=3) and must not be reordered.
type DataType int32

const (
	Point DataType = iota
	LineString
	Rectangle
	Polygon
)

func (d DataType) String() string {
	switch d {
	case Point:
		return "point"
	case LineString:
		return "linestring"
	case Rectangle:
		return "rectangle"
	case Polygon:
		return "polygon"
	default:
		return "invalid"
	}
}

// Epsilon is the fixed tolerance spec.md §3 requires for MBR-equality
// comparisons; Classify and refine's on-segment test use it. ClassifyCell
// compares class boundaries exactly, without it.
const Epsilon = 1e-8

// MBR is an axis-aligned minimum bounding rectangle.
type MBR struct {
	XMin, YMin, XMax, YMax float64
}

// Empty reports whether m has no area and no extent, the sentinel used by a
// Range query's empty window (spec.md §8 edge cases: "Query with empty
// window MBR: returns zero").
func (m MBR) Empty() bool { return m.XMax <= m.XMin && m.YMax <= m.YMin }

// Intersects reports whether m and o overlap, using the half-open,
// closed-interval convention of spec.md §8 invariant 4: maxX_R >= minX_S &&
// maxX_S >= minX_R && maxY_R >= minY_S && maxY_S >= minY_R.
func (m MBR) Intersects(o MBR) bool {
	return m.XMax >= o.XMin && o.XMax >= m.XMin && m.YMax >= o.YMin && o.YMax >= m.YMin
}

// Union returns the smallest MBR covering both m and o.
func (m MBR) Union(o MBR) MBR {
	return MBR{
		XMin: minF(m.XMin, o.XMin),
		YMin: minF(m.YMin, o.YMin),
		XMax: maxF(m.XMax, o.XMax),
		YMax: maxF(m.YMax, o.YMax),
	}
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

// nearlyEqual reports whether a and b differ by no more than Epsilon.
func nearlyEqual(a, b float64) bool {
	d := a - b
	if d < 0 {
		d = -d
	}
	return d <= Epsilon
}

// Relation is the MBR relationship tag of spec.md §3 ("MBR relationship
// tag"), computed from the four deltas (dxMin, dyMin, dxMax, dyMax) between
// two MBRs, not stored.
type Relation int32

const (
	RelationDisjoint Relation = iota
	RelationRInS
	RelationSInR
	RelationEqual
	RelationCross
	RelationIntersect
)

func (r Relation) String() string {
	switch r {
	case RelationRInS:
		return "R-in-S"
	case RelationSInR:
		return "S-in-R"
	case RelationEqual:
		return "EQUAL"
	case RelationCross:
		return "CROSS"
	case RelationIntersect:
		return "INTERSECT"
	default:
		return "DISJOINT"
	}
}

// Classify computes r's MBR relationship to s per spec.md §4.2's "Topology
// MBR filter": four deltas with an epsilon for equality. r and s must
// already be known to intersect; Classify does not itself test disjointness.
func Classify(r, s MBR) Relation {
	dxMin := r.XMin - s.XMin
	dyMin := r.YMin - s.YMin
	dxMax := r.XMax - s.XMax
	dyMax := r.YMax - s.YMax

	if nearlyEqual(dxMin, 0) && nearlyEqual(dyMin, 0) && nearlyEqual(dxMax, 0) && nearlyEqual(dyMax, 0) {
		return RelationEqual
	}
	rInS := dxMin >= -Epsilon && dyMin >= -Epsilon && dxMax <= Epsilon && dyMax <= Epsilon
	sInR := dxMin <= Epsilon && dyMin <= Epsilon && dxMax >= -Epsilon && dyMax >= -Epsilon
	switch {
	case rInS:
		return RelationRInS
	case sInR:
		return RelationSInR
	case (dxMin > 0) != (dxMax > 0) || (dyMin > 0) != (dyMax > 0):
		return RelationCross
	default:
		return RelationIntersect
	}
}

// Vertex is a single (x,y) coordinate.
type Vertex struct {
	X, Y float64
}

// PartitionRef is one (partitionId, class) assignment a Shape carries once
// it has been through the partitioning engine (spec.md §3 Shape invariant).
type PartitionRef struct {
	PartitionID int32
	Class       Class
}

// Shape is the spec's polymorphic geometry record: an opaque record id, a
// DataType-tagged vertex list, its MBR, and the ordered partition
// assignments produced by partition/.
type Shape struct {
	RecID      uint64
	DataType   DataType
	MBR        MBR
	Vertices   []Vertex
	Partitions []PartitionRef
}

// New constructs an empty Shape of the given variant (spec.md §4.6
// "construct-empty-of-type").
func New(recID uint64, dataType DataType) *Shape {
	return &Shape{RecID: recID, DataType: dataType}
}

// AppendVertex appends v to the shape and widens its MBR to cover it
// (spec.md §4.6 "append-vertex").
func (s *Shape) AppendVertex(v Vertex) error {
	if s.DataType == Point && len(s.Vertices) >= 1 {
		return fmt.Errorf("geometry: point shape %d already has a vertex", s.RecID)
	}
	if s.DataType == Rectangle && len(s.Vertices) >= 2 {
		return fmt.Errorf("geometry: rectangle shape %d takes exactly two corner vertices", s.RecID)
	}
	if len(s.Vertices) == 0 {
		s.MBR = MBR{XMin: v.X, YMin: v.Y, XMax: v.X, YMax: v.Y}
	} else {
		s.MBR = s.MBR.Union(MBR{XMin: v.X, YMin: v.Y, XMax: v.X, YMax: v.Y})
	}
	s.Vertices = append(s.Vertices, v)
	return nil
}

// RecomputeMBR recomputes the MBR from the current vertex list (spec.md
// §4.6 "compute-MBR-from-envelope"), used after SetFromWKT or any bulk
// vertex replacement.
func (s *Shape) RecomputeMBR() {
	if len(s.Vertices) == 0 {
		s.MBR = MBR{}
		return
	}
	m := MBR{XMin: s.Vertices[0].X, YMin: s.Vertices[0].Y, XMax: s.Vertices[0].X, YMax: s.Vertices[0].Y}
	for _, v := range s.Vertices[1:] {
		m = m.Union(MBR{XMin: v.X, YMin: v.Y, XMax: v.X, YMax: v.Y})
	}
	s.MBR = m
}

// SerialiseVertices returns the vertex list as a flat (x0,y0,x1,y1,...)
// slice, the form wire.Batch transmits (spec.md §4.6 "serialise vertices").
func (s *Shape) SerialiseVertices() []float64 {
	out := make([]float64, 0, len(s.Vertices)*2)
	for _, v := range s.Vertices {
		out = append(out, v.X, v.Y)
	}
	return out
}

// SetFromFlatCoords replaces the vertex list from a flat (x,y,x,y,...)
// slice and recomputes the MBR, the inverse of SerialiseVertices, used when
// deserialising a wire.Batch.
func (s *Shape) SetFromFlatCoords(coords []float64) error {
	if len(coords)%2 != 0 {
		return fmt.Errorf("geometry: odd coordinate count %d", len(coords))
	}
	s.Vertices = s.Vertices[:0]
	for i := 0; i < len(coords); i += 2 {
		s.Vertices = append(s.Vertices, Vertex{X: coords[i], Y: coords[i+1]})
	}
	s.RecomputeMBR()
	return nil
}

// AddPartition records a (partitionId, class) assignment, enforcing
// spec.md §3's "each partitionId appears at most once" invariant.
func (s *Shape) AddPartition(ref PartitionRef) error {
	for _, p := range s.Partitions {
		if p.PartitionID == ref.PartitionID {
			return fmt.Errorf("geometry: shape %d already assigned to partition %d", s.RecID, ref.PartitionID)
		}
	}
	s.Partitions = append(s.Partitions, ref)
	return nil
}
