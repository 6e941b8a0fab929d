package geometry

// Class is the two-layer class assigned to a (shape, partition) pair,
// per spec.md §3: one of {A, B, C, D}, determined by where the shape's
// bottom-left MBR corner lies relative to the partition cell boundary.
type Class int32

const (
	// ClassA: the shape's MBR bottom-left lies inside the partition's cell.
	ClassA Class = iota
	// ClassB: bottom-left is outside the cell on the left only (sx<px, sy>=py).
	ClassB
	// ClassC: outside below only (sx>=px, sy<py).
	ClassC
	// ClassD: outside in both dimensions (sx<px, sy<py).
	ClassD
)

func (c Class) String() string {
	switch c {
	case ClassA:
		return "A"
	case ClassB:
		return "B"
	case ClassC:
		return "C"
	case ClassD:
		return "D"
	default:
		return "?"
	}
}

// ClassifyCell computes the two-layer class of shapeMBR relative to the
// partition cell (px,py,px',py'), per spec.md §3's four-way rule. The
// caller must already have confirmed shapeMBR intersects the cell; classify
// does not check that.
//
// Cell edges use a half-open, lower-left-inclusive convention (spec.md §8
// edge case: "MBRs exactly on a cell edge classify into the lower-left
// cell, consistent with the maxY >= otherMinY half-open rule"), so the
// comparisons below use >= on the low edges.
func ClassifyCell(shapeMBR, cell MBR) Class {
	left := shapeMBR.XMin < cell.XMin
	below := shapeMBR.YMin < cell.YMin
	switch {
	case !left && !below:
		return ClassA
	case left && !below:
		return ClassB
	case !left && below:
		return ClassC
	default:
		return ClassD
	}
}
