package query

import (
	"sort"

	"github.com/grailbio/base/log"

	"github.com/grailbio/spatialjoin/wire"
)

// AllowTopologyCollectMerge gates whether a TopologyCollect QueryResult's
// per-relation pair lists are concatenated across threads/workers during
// merge, versus only counted. Default false: a find-relation query with
// ResultType=TopologyCollect still reports correct per-relation counts,
// but its (potentially large) pair lists are suppressed and logged rather
// than merged, until an operator opts in after confirming memory budgets
// (see DESIGN.md's Open Question decision; SPEC_FULL.md supplemented
// feature 3).
var AllowTopologyCollectMerge = false

// MergeResults merges o into acc, the single join point spec.md §4.5
// describes for combining thread-private (Agent-internal) or per-worker
// (Host-side) partial results: COUNT sums, COLLECT concatenates,
// TOPOLOGY_COUNT sums per relation, TOPOLOGY_COLLECT concatenates per
// relation subject to AllowTopologyCollectMerge. kNN is never merged here —
// its bounded max-heap merge needs MergeKNN, called separately since a kNN
// QueryResult's KNN field is keyed per query object rather than a single
// accumulator.
func MergeResults(acc *wire.QueryResult, o wire.QueryResult) {
	if acc.ResultType == wire.ResultTopologyCollect && !AllowTopologyCollectMerge {
		log.Debug.Printf("query: find-relation COLLECT merge suppressed (AllowTopologyCollectMerge=false); counting only")
		for i := range acc.TopologyCounts {
			acc.TopologyCounts[i] += uint64(len(o.TopologyPairs[i]))
		}
		mergeStats(acc, o)
		return
	}
	acc.Merge(o)
}

func mergeStats(acc *wire.QueryResult, o wire.QueryResult) {
	acc.Stats.MBRFilterNanos += o.Stats.MBRFilterNanos
	acc.Stats.AprilFilterNanos += o.Stats.AprilFilterNanos
	acc.Stats.RefineNanos += o.Stats.RefineNanos
	acc.Stats.MBRCandidates += o.Stats.MBRCandidates
	acc.Stats.AprilCandidates += o.Stats.AprilCandidates
}

// MergeKNN merges b's per-object neighbor lists into a, keeping the k
// closest neighbors per object (spec.md §4.5 "kNN merges two heaps by
// pushing elements of the smaller into the larger and evicting when size
// exceeds k"). Results are keyed by ObjectID so a batched kNN query (spec.md
// §6 queryBatch) merges each reference object's neighbors independently.
func MergeKNN(a, b []wire.KNNResult, k int) []wire.KNNResult {
	byObject := make(map[uint64][]wire.Neighbor, len(a))
	order := make([]uint64, 0, len(a))
	for _, r := range a {
		if _, seen := byObject[r.ObjectID]; !seen {
			order = append(order, r.ObjectID)
		}
		byObject[r.ObjectID] = append(byObject[r.ObjectID], r.Neighbors...)
	}
	for _, r := range b {
		if _, seen := byObject[r.ObjectID]; !seen {
			order = append(order, r.ObjectID)
		}
		byObject[r.ObjectID] = append(byObject[r.ObjectID], r.Neighbors...)
	}

	merged := make([]wire.KNNResult, 0, len(order))
	for _, id := range order {
		neighbors := byObject[id]
		sort.Slice(neighbors, func(i, j int) bool { return neighbors[i].Distance < neighbors[j].Distance })
		if len(neighbors) > k {
			neighbors = neighbors[:k]
		}
		merged = append(merged, wire.KNNResult{ObjectID: id, Neighbors: neighbors})
	}
	return merged
}
