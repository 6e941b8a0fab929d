package interval

import "sort"

// PosType is the integer type used to index Hilbert-ordered cells. AprilData
// (spec.md §3) stores 32-bit unsigned cell indices, so unlike the teacher's
// signed genomic PosType we use an unsigned type here.
type PosType = uint32

// PosTypeMax is the maximum cell index representable by an order-16 Hilbert
// curve (2^16 x 2^16 grid has 2^32 cells, i.e. the full uint32 range).
const PosTypeMax PosType = 1<<32 - 1

// Set is a disjoint, ascending, half-open interval-list, represented as a
// flat sequence of alternating start/end values: bounds[2k] is the start of
// interval k and bounds[2k+1] is its end. This mirrors the teacher's
// BEDUnion representation, which stores a chromosome's covered bases the
// same way; the spec (§3 AprilData) requires exactly this shape for the
// A-list and F-list.
//
// Invariant: len(bounds) is even; bounds is strictly ascending; consecutive
// intervals do not touch (bounds[2k+1] < bounds[2k+2]) since touching
// intervals are merged on insert.
type Set struct {
	bounds []PosType
}

// FromSortedPairs builds a Set from intervals already sorted ascending by
// start, merging any that touch or overlap. It panics if the input is not
// sorted or contains an inverted interval, matching the teacher's
// fail-fast-on-unsorted-input behavior in scanBEDUnion.
func FromSortedPairs(pairs [][2]PosType) Set {
	var bounds []PosType
	var haveOpen bool
	var curStart, curEnd PosType
	for _, p := range pairs {
		start, end := p[0], p[1]
		if end < start {
			panic("interval: inverted interval")
		}
		if end == start {
			continue
		}
		if !haveOpen {
			curStart, curEnd = start, end
			haveOpen = true
			continue
		}
		if start < curStart {
			panic("interval: unsorted input")
		}
		if start > curEnd {
			bounds = append(bounds, curStart, curEnd)
			curStart, curEnd = start, end
		} else if end > curEnd {
			curEnd = end
		}
	}
	if haveOpen {
		bounds = append(bounds, curStart, curEnd)
	}
	return Set{bounds: bounds}
}

// Builder accumulates run-length-encoded cells (spec §4.3 rasterisation:
// "append to the F-list or flag-only for the A-list, then
// run-length-encode into intervals") in increasing cell order and produces a
// Set. Cells must be appended in non-decreasing order.
type Builder struct {
	pairs        [][2]PosType
	haveOpen     bool
	start, limit PosType
}

// Add appends a single cell index, which must be >= any previously added
// cell. Adjacent cells are coalesced into one interval.
func (b *Builder) Add(cell PosType) {
	if b.haveOpen && cell == b.limit {
		b.limit++
		return
	}
	if b.haveOpen {
		b.pairs = append(b.pairs, [2]PosType{b.start, b.limit})
	}
	b.start, b.limit = cell, cell+1
	b.haveOpen = true
}

// Build finalizes the accumulated cells into a Set.
func (b *Builder) Build() Set {
	if b.haveOpen {
		b.pairs = append(b.pairs, [2]PosType{b.start, b.limit})
	}
	return FromSortedPairs(b.pairs)
}

// Len returns the number of intervals.
func (s Set) Len() int { return len(s.bounds) / 2 }

// Empty reports whether the set has no intervals.
func (s Set) Empty() bool { return len(s.bounds) == 0 }

// Intervals returns the [start,end) pairs in ascending order. The returned
// slice must not be mutated.
func (s Set) Intervals() [][2]PosType {
	out := make([][2]PosType, 0, s.Len())
	for i := 0; i < len(s.bounds); i += 2 {
		out = append(out, [2]PosType{s.bounds[i], s.bounds[i+1]})
	}
	return out
}

// Bounds exposes the raw flat encoding, used by wire/ to serialize AprilData
// per spec.md §3/§6 without an intermediate allocation.
func (s Set) Bounds() []PosType { return s.bounds }

// FromBounds wraps an already-valid flat bounds slice (e.g. one just
// deserialized off the wire) as a Set without re-validating it, mirroring
// how the teacher treats a freshly-parsed []PosType as trusted.
func FromBounds(bounds []PosType) Set { return Set{bounds: bounds} }

// AnyOverlap reports whether any interval of s overlaps any interval of o.
// Implements spec.md §4.3 "Any-overlap": walk both lists with two cursors;
// whenever min(end1,end2) > max(start1,start2), report overlap; otherwise
// advance the list with the smaller end.
func (s Set) AnyOverlap(o Set) bool {
	i, j := 0, 0
	a, b := s.bounds, o.bounds
	for i < len(a) && j < len(b) {
		aStart, aEnd := a[i], a[i+1]
		bStart, bEnd := b[j], b[j+1]
		start := aStart
		if bStart > start {
			start = bStart
		}
		end := aEnd
		if bEnd < end {
			end = bEnd
		}
		if end > start {
			return true
		}
		if aEnd <= bEnd {
			i += 2
		} else {
			j += 2
		}
	}
	return false
}

// Contains reports whether every interval of s is fully covered by some
// single interval of o (spec.md §4.3 "Containment"): a two-cursor walk that
// advances o past s's start and checks s's end <= o's end.
func (s Set) Contains(o Set) bool {
	j := 0
	b := o.bounds
	for i := 0; i < len(s.bounds); i += 2 {
		start, end := s.bounds[i], s.bounds[i+1]
		for j < len(b) && b[j+1] <= start {
			j += 2
		}
		if j >= len(b) || b[j] > start || b[j+1] < end {
			return false
		}
	}
	return true
}

// Equal reports element-wise identity of the two interval lists (spec.md
// §4.3 "Equality").
func (s Set) Equal(o Set) bool {
	if len(s.bounds) != len(o.bounds) {
		return false
	}
	for i := range s.bounds {
		if s.bounds[i] != o.bounds[i] {
			return false
		}
	}
	return true
}

// search returns the index of the first endpoint >= x, or len(a) if none.
// Direct port of the teacher's searchPosType.
func search(a []PosType, x PosType) int {
	return sort.Search(len(a), func(i int) bool { return a[i] >= x })
}

// Endpoint is the result of locating a position relative to a Set: whether
// it falls inside an interval and which interval index that is. Mirrors the
// teacher's EndpointIndex trick of using the parity of the search result to
// answer "am I inside an interval" without a second pass.
type Endpoint struct {
	idx int
}

// Locate returns the Endpoint for pos: Contained() is true iff pos is
// covered by some interval of s.
func (s Set) Locate(pos PosType) Endpoint {
	return Endpoint{idx: search(s.bounds, pos+1)}
}

// Contained reports whether the located position falls inside an interval.
func (e Endpoint) Contained() bool { return e.idx&1 == 1 }
