package geometry

import "fmt"

// Predicate is one of the join/topology predicates spec.md §3 names for a
// Query. Distance and FindRelation are handled by query/ directly (Distance
// is numeric, FindRelation wants the full Mask rather than a bool), so they
// are not in this set.
type Predicate int32

const (
	PredicateIntersects Predicate = iota
	PredicateDisjoint
	PredicateInside
	PredicateContains
	PredicateCoveredBy
	PredicateCovers
	PredicateMeets
	PredicateEquals
)

func (p Predicate) String() string {
	switch p {
	case PredicateIntersects:
		return "intersects"
	case PredicateDisjoint:
		return "disjoint"
	case PredicateInside:
		return "inside"
	case PredicateContains:
		return "contains"
	case PredicateCoveredBy:
		return "coveredBy"
	case PredicateCovers:
		return "covers"
	case PredicateMeets:
		return "meets"
	case PredicateEquals:
		return "equals"
	default:
		return "invalid"
	}
}

// Evaluate decides whether a and b satisfy p, using r only when the MBR
// test alone cannot decide (disjoint MBRs settle every predicate except
// "disjoint" trivially; spec.md §4.3 exists precisely to avoid this full
// Relate call in the common case — Evaluate is the ungated, always-correct
// path used outside the APRIL-accelerated join).
func Evaluate(a, b *Shape, p Predicate, r Refiner) (bool, error) {
	if !a.MBR.Intersects(b.MBR) {
		return p == PredicateDisjoint, nil
	}
	mask, err := r.Relate(a, b)
	if err != nil {
		return false, err
	}
	switch p {
	case PredicateIntersects:
		return mask.Intersects(), nil
	case PredicateDisjoint:
		return mask.Disjoint(), nil
	case PredicateInside:
		return mask.Within(), nil
	case PredicateContains:
		return mask.Contains(), nil
	case PredicateCoveredBy:
		return mask.CoveredBy(), nil
	case PredicateCovers:
		return mask.Covers(), nil
	case PredicateMeets:
		return mask.Meets(), nil
	case PredicateEquals:
		return mask.Equals(), nil
	default:
		return false, fmt.Errorf("geometry: invalid predicate %d", p)
	}
}
