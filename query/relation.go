package query

import "github.com/grailbio/spatialjoin/geometry"

// classifyRelation picks the single most specific relation m satisfies,
// for find-relation's per-pair tag (SPEC_FULL.md supplemented feature 3).
// The eight boolean predicates are not mutually exclusive (Contains implies
// Covers implies Intersects), so find-relation reports the most specific
// one that holds, in this priority order: Equals, Contains, Covers,
// Inside, CoveredBy, Meets, and Intersects as the catch-all. Disjoint pairs
// never reach this function — the caller skips them.
//
// rel, the MBR relationship tag spec.md §4.2's Topology MBR filter
// computes, narrows which of these checks can possibly hold: an R-in-S MBR
// relation rules out Contains/Covers (R's MBR can't contain S's), and
// symmetrically for S-in-R. This internal refiner always computes every
// Mask entry in one pass rather than offering a partial-mask API, so rel
// is used to skip irrelevant boolean checks, not to skip computing the
// underlying mask itself.
func classifyRelation(m geometry.Mask, rel geometry.Relation) geometry.Predicate {
	switch rel {
	case geometry.RelationEqual:
		if m.Equals() {
			return geometry.PredicateEquals
		}
	case geometry.RelationSInR:
		if m.Contains() {
			return geometry.PredicateContains
		}
		if m.Covers() {
			return geometry.PredicateCovers
		}
	case geometry.RelationRInS:
		if m.Within() {
			return geometry.PredicateInside
		}
		if m.CoveredBy() {
			return geometry.PredicateCoveredBy
		}
	}
	if m.Meets() {
		return geometry.PredicateMeets
	}
	return geometry.PredicateIntersects
}
