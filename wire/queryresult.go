package wire

// QueryType enumerates the three shapes of query a client may submit
// (spec.md §6 Query types): Range (one dataset, one window/predicate),
// Join (two datasets, a predicate), kNN (one dataset, a reference object,
// k).
type QueryType int32

const (
	QueryRange QueryType = iota
	QueryJoin
	QueryKNN
)

// ResultType enumerates the five result shapes a QueryResult may carry
// (spec.md §6 Result types). TopologyCount/TopologyCollect additionally
// break results down by DE-9IM relation, per the eight named binary
// predicates of geometry/ (intersects, disjoint, inside, contains,
// coveredBy, covers, meets, equals).
type ResultType int32

const (
	ResultCount ResultType = iota
	ResultCollect
	ResultTopologyCount
	ResultTopologyCollect
	ResultKNN
)

// relationCount is the number of DE-9IM relation buckets tracked by
// topology-shaped results.
const relationCount = 8

// Pair is one matched (left, right) record-id pair of a Join result.
type Pair struct {
	LeftRecID, RightRecID uint64
}

// Neighbor is one result of a kNN query: the matched record and its
// distance from the reference object.
type Neighbor struct {
	RecID    uint64
	Distance float64
}

// KNNResult is the neighbor list for a single query object. A kNN query
// (spec.md §6) may be issued for a batch of reference objects at once, so
// QueryResult.KNN is a slice of these.
type KNNResult struct {
	ObjectID  uint64
	Neighbors []Neighbor
}

// Stats carries the supplemented per-stage diagnostics (SPEC_FULL.md
// "Supplemented features": per-stage timers and dual MBR/APRIL candidate
// counters), grounded in the original implementation's find-relation
// instrumentation. Always present on the wire. query.Evaluator fills the
// two candidate counters; no evaluation path records the three *Nanos
// timers, so they are carried and summed but stay zero.
type Stats struct {
	MBRFilterNanos   int64
	AprilFilterNanos int64
	RefineNanos      int64
	MBRCandidates    uint64
	AprilCandidates  uint64
}

// QueryResult is the unified result envelope of spec.md §6, carrying
// exactly one of its variant fields depending on ResultType.
//
// Payload layout:
//
//	queryId    int32
//	queryType  int32
//	resultType int32
//	<variant, selected by resultType>
//	stats: mbrFilterNanos, aprilFilterNanos, refineNanos int64;
//	       mbrCandidates, aprilCandidates uint64
type QueryResult struct {
	QueryID    int32
	QueryType  QueryType
	ResultType ResultType

	Count           uint64
	RecIDs          []uint64
	TopologyCounts  [relationCount]uint64
	TopologyPairs   [relationCount][]Pair
	KNN             []KNNResult

	Stats Stats
}

// Marshal encodes r into the spec.md §6 payload layout.
func (r QueryResult) Marshal() []byte {
	buf := newWriteBuffer(64)
	buf.PutInt32(r.QueryID)
	buf.PutInt32(int32(r.QueryType))
	buf.PutInt32(int32(r.ResultType))

	switch r.ResultType {
	case ResultCount:
		buf.PutUint64(r.Count)
	case ResultCollect:
		buf.PutUint64(uint64(len(r.RecIDs)))
		for _, id := range r.RecIDs {
			buf.PutUint64(id)
		}
	case ResultTopologyCount:
		for _, c := range r.TopologyCounts {
			buf.PutUint64(c)
		}
	case ResultTopologyCollect:
		for _, pairs := range r.TopologyPairs {
			buf.PutUint64(uint64(len(pairs)))
			for _, p := range pairs {
				buf.PutUint64(p.LeftRecID)
				buf.PutUint64(p.RightRecID)
			}
		}
	case ResultKNN:
		buf.PutUint64(uint64(len(r.KNN)))
		for _, kr := range r.KNN {
			buf.PutUint64(kr.ObjectID)
			buf.PutUint64(uint64(len(kr.Neighbors)))
			for _, n := range kr.Neighbors {
				buf.PutUint64(n.RecID)
				buf.PutFloat64(n.Distance)
			}
		}
	}

	buf.PutUint64(uint64(r.Stats.MBRFilterNanos))
	buf.PutUint64(uint64(r.Stats.AprilFilterNanos))
	buf.PutUint64(uint64(r.Stats.RefineNanos))
	buf.PutUint64(r.Stats.MBRCandidates)
	buf.PutUint64(r.Stats.AprilCandidates)
	return buf.Finish()
}

// UnmarshalQueryResult decodes a QueryResult payload produced by
// QueryResult.Marshal.
func UnmarshalQueryResult(data []byte) QueryResult {
	buf := newBuffer(data)
	r := QueryResult{
		QueryID:    buf.Int32(),
		QueryType:  QueryType(buf.Int32()),
		ResultType: ResultType(buf.Int32()),
	}

	switch r.ResultType {
	case ResultCount:
		r.Count = buf.Uint64()
	case ResultCollect:
		n := buf.Uint64()
		r.RecIDs = make([]uint64, n)
		for i := range r.RecIDs {
			r.RecIDs[i] = buf.Uint64()
		}
	case ResultTopologyCount:
		for i := range r.TopologyCounts {
			r.TopologyCounts[i] = buf.Uint64()
		}
	case ResultTopologyCollect:
		for i := range r.TopologyPairs {
			n := buf.Uint64()
			if n == 0 {
				continue
			}
			pairs := make([]Pair, n)
			for j := range pairs {
				pairs[j] = Pair{LeftRecID: buf.Uint64(), RightRecID: buf.Uint64()}
			}
			r.TopologyPairs[i] = pairs
		}
	case ResultKNN:
		n := buf.Uint64()
		r.KNN = make([]KNNResult, n)
		for i := range r.KNN {
			r.KNN[i].ObjectID = buf.Uint64()
			neighborCount := buf.Uint64()
			r.KNN[i].Neighbors = make([]Neighbor, neighborCount)
			for j := range r.KNN[i].Neighbors {
				r.KNN[i].Neighbors[j] = Neighbor{RecID: buf.Uint64(), Distance: buf.Float64()}
			}
		}
	}

	r.Stats = Stats{
		MBRFilterNanos:   int64(buf.Uint64()),
		AprilFilterNanos: int64(buf.Uint64()),
		RefineNanos:      int64(buf.Uint64()),
		MBRCandidates:    buf.Uint64(),
		AprilCandidates:  buf.Uint64(),
	}
	return r
}

// Merge combines o into r according to spec.md §8's merge semantics:
// COUNT sums, COLLECT concatenates, TOPOLOGY_COUNT sums per relation,
// TOPOLOGY_COLLECT concatenates per relation (gated behind
// query.AllowTopologyCollectMerge at the call site — see DESIGN.md), kNN is
// never merged here since it requires a heap-merge keyed on Distance (see
// query.MergeKNN).
func (r *QueryResult) Merge(o QueryResult) {
	switch r.ResultType {
	case ResultCount:
		r.Count += o.Count
	case ResultCollect:
		r.RecIDs = append(r.RecIDs, o.RecIDs...)
	case ResultTopologyCount:
		for i := range r.TopologyCounts {
			r.TopologyCounts[i] += o.TopologyCounts[i]
		}
	case ResultTopologyCollect:
		for i := range r.TopologyPairs {
			r.TopologyPairs[i] = append(r.TopologyPairs[i], o.TopologyPairs[i]...)
		}
	}
	r.Stats.MBRFilterNanos += o.Stats.MBRFilterNanos
	r.Stats.AprilFilterNanos += o.Stats.AprilFilterNanos
	r.Stats.RefineNanos += o.Stats.RefineNanos
	r.Stats.MBRCandidates += o.Stats.MBRCandidates
	r.Stats.AprilCandidates += o.Stats.AprilCandidates
}
