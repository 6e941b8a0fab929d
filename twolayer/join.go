package twolayer

import (
	"sort"

	"github.com/grailbio/spatialjoin/geometry"
)

// PairFunc receives one candidate pair surviving the MBR filter. r is always
// drawn from the R-side index, s from the S-side index.
type PairFunc func(r, s *geometry.Shape)

// Join runs the nine-way directed plane-sweep join of spec.md §4.2 between
// rIdx and sIdx, invoking fn once for every (r, s) pair whose MBRs overlap.
// Every R×S pair whose MBRs overlap and that share a common partition id is
// emitted exactly once (spec.md §8 property 5); the class decomposition is
// what makes this true without an explicit de-duplication set.
func Join(rIdx, sIdx *Index, fn PairFunc) {
	for _, id := range rIdx.CommonPartitionIDs(sIdx) {
		r := rIdx.Get(id)
		s := sIdx.Get(id)
		joinPartition(r, s, fn)
	}
}

// joinPartition runs the nine sweeps of spec.md §4.2 for one shared
// partition. Each sweep pairs a sorted class (A or C, sorted by BuildIndex)
// against either the other dataset's matching sorted class (a merge sweep)
// or its unsorted B/D class (a one-sorted sweep).
func joinPartition(r, s *Partition, fn PairFunc) {
	mergeSweep(r.A, s.A, fn)
	oneSortedSweep(s.B, r.A, false, fn)
	mergeSweep(r.A, s.C, fn)
	oneSortedSweep(s.D, r.A, false, fn)
	oneSortedSweep(r.B, s.A, true, fn)
	oneSortedSweep(r.B, s.C, true, fn)
	mergeSweep(s.A, r.C, swapFn(fn))
	oneSortedSweep(s.B, r.C, false, fn)
	oneSortedSweep(r.D, s.A, true, fn)
}

func swapFn(fn PairFunc) PairFunc {
	return func(a, b *geometry.Shape) { fn(b, a) }
}

// mergeSweep performs the classic two-sorted-list plane sweep between rSeq
// and sSeq (both sorted ascending by MBR.YMin): advance whichever element
// has the smaller YMin, and for the advanced element run an inner sweep
// forward through the other sequence until its YMin exceeds the advanced
// element's YMax (spec.md §4.2 "Join algorithm"). Ties in YMin are broken by
// advancing R first.
func mergeSweep(rSeq, sSeq []*geometry.Shape, fn PairFunc) {
	if len(rSeq) == 0 || len(sSeq) == 0 {
		return
	}
	i, j := 0, 0
	for i < len(rSeq) && j < len(sSeq) {
		r, s := rSeq[i], sSeq[j]
		if r.MBR.YMin <= s.MBR.YMin {
			innerSweep(r, sSeq, j, fn, false)
			i++
		} else {
			innerSweep(s, rSeq, i, fn, true)
			j++
		}
	}
}

// innerSweep walks seq forward starting at idx, emitting a candidate pair
// for every element whose MBR overlaps anchor's, until an element's YMin
// exceeds anchor's YMax (seq is sorted ascending by YMin, so every later
// element also fails). seqIsR indicates whether seq holds the R-side
// shapes, so fn is always called as fn(r, s).
func innerSweep(anchor *geometry.Shape, seq []*geometry.Shape, idx int, fn PairFunc, seqIsR bool) {
	for k := idx; k < len(seq); k++ {
		other := seq[k]
		if other.MBR.YMin > anchor.MBR.YMax {
			break
		}
		if !xOverlap(anchor.MBR, other.MBR) {
			continue
		}
		if seqIsR {
			fn(other, anchor)
		} else {
			fn(anchor, other)
		}
	}
}

// oneSortedSweep pairs unsorted against sorted (ascending by MBR.YMin),
// narrowing candidates with a binary search on the sorted prefix whose YMin
// does not exceed the unsorted element's YMax, then filtering the prefix by
// y-overlap and x-disjointness. unsortedIsR indicates whether unsorted holds
// the R-side shapes, so fn is always called as fn(r, s).
func oneSortedSweep(unsorted, sorted []*geometry.Shape, unsortedIsR bool, fn PairFunc) {
	if len(unsorted) == 0 || len(sorted) == 0 {
		return
	}
	for _, u := range unsorted {
		limit := sort.Search(len(sorted), func(i int) bool { return sorted[i].MBR.YMin > u.MBR.YMax })
		for i := 0; i < limit; i++ {
			o := sorted[i]
			if o.MBR.YMax < u.MBR.YMin {
				continue
			}
			if !xOverlap(u.MBR, o.MBR) {
				continue
			}
			if unsortedIsR {
				fn(u, o)
			} else {
				fn(o, u)
			}
		}
	}
}

// xOverlap is the half-open x-disjointness test of spec.md §4.2's edge
// cases: "maxX >= otherMinX" on both sides means overlap.
func xOverlap(a, b geometry.MBR) bool {
	return a.XMax >= b.XMin && b.XMax >= a.XMin
}

// TopologyPairFunc receives a candidate pair together with the MBR
// relationship classification spec.md §4.2's "Topology MBR filter" computes
// for it.
type TopologyPairFunc func(r, s *geometry.Shape, rel geometry.Relation)

// JoinTopology runs the same nine-way plane sweep as Join, but additionally
// classifies each surviving pair's MBR relationship via geometry.Classify
// so topology/find-relation queries can route to the cheapest applicable
// refinement path (spec.md §4.2 "Topology MBR filter").
func JoinTopology(rIdx, sIdx *Index, fn TopologyPairFunc) {
	Join(rIdx, sIdx, func(r, s *geometry.Shape) {
		fn(r, s, geometry.Classify(r.MBR, s.MBR))
	})
}
