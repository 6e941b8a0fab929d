package geometry

// Mask is a simplified DE-9IM intersection matrix: Present[r][c] reports
// whether dimension r (Interior=0, Boundary=1, Exterior=2) of the subject
// shape has nonempty intersection with dimension c of the other shape. This
// tracks presence/absence only, not the OGC-standard intersection
// dimension (0/1/2), which is sufficient for every predicate spec.md §4.6
// names.
type Mask struct {
	Present [3][3]bool
}

const (
	dimInterior = 0
	dimBoundary = 1
	dimExterior = 2
)

// Equals reports whether the two shapes occupy exactly the same point set.
func (m Mask) Equals() bool {
	return m.Present[dimInterior][dimInterior] &&
		!m.Present[dimExterior][dimInterior] && !m.Present[dimInterior][dimExterior] &&
		!m.Present[dimExterior][dimBoundary] && !m.Present[dimBoundary][dimExterior]
}

// Disjoint reports whether the shapes share no interior or boundary point.
func (m Mask) Disjoint() bool {
	return !m.Present[dimInterior][dimInterior] && !m.Present[dimInterior][dimBoundary] &&
		!m.Present[dimBoundary][dimInterior] && !m.Present[dimBoundary][dimBoundary]
}

// Intersects is the complement of Disjoint.
func (m Mask) Intersects() bool { return !m.Disjoint() }

// Contains reports whether the subject shape contains the other: the
// other's every point lies in the subject's interior or boundary, and the
// subject's interior meets the other's interior.
func (m Mask) Contains() bool {
	return m.Present[dimInterior][dimInterior] &&
		!m.Present[dimExterior][dimInterior] && !m.Present[dimExterior][dimBoundary]
}

// Within is Contains with subject and other swapped.
func (m Mask) Within() bool {
	return m.Present[dimInterior][dimInterior] &&
		!m.Present[dimInterior][dimExterior] && !m.Present[dimBoundary][dimExterior]
}

// Covers relaxes Contains to allow the subject's boundary to carry the
// shared interior-ish contact (OGC's Covers vs Contains distinction).
func (m Mask) Covers() bool {
	anyContact := m.Present[dimInterior][dimInterior] || m.Present[dimBoundary][dimInterior] ||
		m.Present[dimInterior][dimBoundary] || m.Present[dimBoundary][dimBoundary]
	return anyContact && !m.Present[dimExterior][dimInterior] && !m.Present[dimExterior][dimBoundary]
}

// CoveredBy is Covers with subject and other swapped.
func (m Mask) CoveredBy() bool {
	anyContact := m.Present[dimInterior][dimInterior] || m.Present[dimBoundary][dimInterior] ||
		m.Present[dimInterior][dimBoundary] || m.Present[dimBoundary][dimBoundary]
	return anyContact && !m.Present[dimInterior][dimExterior] && !m.Present[dimBoundary][dimExterior]
}

// Meets (spec.md's "meet" predicate, OGC "Touches"): the shapes' boundaries
// or one's boundary and the other's interior make contact, but their
// interiors do not.
func (m Mask) Meets() bool {
	return !m.Present[dimInterior][dimInterior] &&
		(m.Present[dimBoundary][dimInterior] || m.Present[dimInterior][dimBoundary] || m.Present[dimBoundary][dimBoundary])
}

// Refiner is the interface spec.md §1 describes as an excluded external
// collaborator: "the exact geometric refinement library (DE-9IM mask
// evaluation on full geometry)". geometry depends only on this interface;
// package refine provides a concrete (deliberately partial) implementation.
type Refiner interface {
	// Relate computes the DE-9IM mask of a with respect to b. Combinations
	// the implementation does not support must return a non-nil error
	// rather than an approximate Mask (spec.md §4.6: "unsupported
	// combinations must report a specific error and not fall back to
	// default behaviour").
	Relate(a, b *Shape) (Mask, error)
}
