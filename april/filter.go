package april

import "github.com/grailbio/spatialjoin/geometry"

// Verdict is the three-way classification the APRIL filter emits for a
// candidate pair (spec.md §4.3 "Decision tables").
type Verdict int32

const (
	Inconclusive Verdict = iota
	TrueHit
	TrueNegative
)

func (v Verdict) String() string {
	switch v {
	case TrueHit:
		return "TRUE_HIT"
	case TrueNegative:
		return "TRUE_NEGATIVE"
	default:
		return "INCONCLUSIVE"
	}
}

// Classify applies spec.md §4.3's per-predicate decision table to a and b,
// the rasterized Data of the two candidate objects. Predicates this filter
// does not accelerate (it accelerates every geometry.Predicate) always
// return Inconclusive for an unrecognized value, pushing the pair to
// refinement rather than risking an unsound verdict.
func Classify(a, b Data, p geometry.Predicate) Verdict {
	switch p {
	case geometry.PredicateIntersects:
		return classifyIntersects(a, b)
	case geometry.PredicateDisjoint:
		return classifyDisjoint(a, b)
	case geometry.PredicateInside, geometry.PredicateCoveredBy:
		return classifyInside(a, b)
	case geometry.PredicateContains, geometry.PredicateCovers:
		return classifyContains(a, b)
	case geometry.PredicateEquals:
		return classifyEquals(a, b)
	case geometry.PredicateMeets:
		return classifyMeets(a, b)
	default:
		return Inconclusive
	}
}

func classifyIntersects(a, b Data) Verdict {
	test1 := a.A.AnyOverlap(b.A)
	if !test1 {
		return TrueNegative
	}
	if a.A.AnyOverlap(b.F) || a.F.AnyOverlap(b.A) {
		return TrueHit
	}
	return Inconclusive
}

func classifyDisjoint(a, b Data) Verdict {
	test1 := a.A.AnyOverlap(b.A)
	if !test1 {
		return TrueHit
	}
	if a.A.AnyOverlap(b.F) || a.F.AnyOverlap(b.A) {
		return TrueNegative
	}
	return Inconclusive
}

// classifyInside handles "a inside b" / "a coveredBy b": a's touched cells
// fully covered by b's fully-covered cells settles it; if a and b don't
// even touch a common cell it is a definite negative.
func classifyInside(a, b Data) Verdict {
	if b.F.Contains(a.A) {
		return TrueHit
	}
	if !a.A.AnyOverlap(b.A) {
		return TrueNegative
	}
	return Inconclusive
}

// classifyContains handles "a contains b" / "a covers b", symmetric to
// classifyInside with the subset test spec.md §4.3 states explicitly as
// B.A⊆A.A for the negative branch, rather than a plain overlap test.
func classifyContains(a, b Data) Verdict {
	if a.F.Contains(b.A) {
		return TrueHit
	}
	if !a.A.Contains(b.A) {
		return TrueNegative
	}
	return Inconclusive
}

func classifyEquals(a, b Data) Verdict {
	if !a.A.Equal(b.A) {
		return TrueNegative
	}
	return Inconclusive
}

// classifyMeets handles the "meet" (touches) predicate: the two shapes
// must share no interior area, only a boundary. Any F/A overlap means they
// share more than a boundary (a definite negative for "meet"); no A/A
// overlap at all means they don't even touch.
func classifyMeets(a, b Data) Verdict {
	if !a.A.AnyOverlap(b.A) {
		return TrueNegative
	}
	if a.A.AnyOverlap(b.F) || a.F.AnyOverlap(b.A) {
		return TrueNegative
	}
	return Inconclusive
}
