package query

import (
	"sort"

	"github.com/grailbio/base/log"

	"github.com/grailbio/spatialjoin/april"
	"github.com/grailbio/spatialjoin/dataset"
	"github.com/grailbio/spatialjoin/geometry"
	"github.com/grailbio/spatialjoin/refine"
	"github.com/grailbio/spatialjoin/status"
	"github.com/grailbio/spatialjoin/twolayer"
	"github.com/grailbio/spatialjoin/wire"
)

// Evaluator runs the local, single-Agent evaluation pipeline of spec.md
// §4.5 over a Dataset's already-built indices. Refiner is exported so
// tests (and, eventually, a production deployment) can substitute a
// different geometry.Refiner without touching the pipeline itself.
type Evaluator struct {
	Refiner geometry.Refiner
}

// NewEvaluator constructs an Evaluator backed by refine.DefaultRefiner.
func NewEvaluator() *Evaluator {
	return &Evaluator{Refiner: refine.DefaultRefiner{}}
}

// EvaluateRange answers a RangeQuery against a single, already-indexed
// dataset (spec.md §4.5 "Range queries"). The Host-side decision of which
// workers even receive the query (only those owning partitions overlapping
// the window) happens above this package, in cluster/; EvaluateRange
// assumes it has already been asked because its shard is relevant.
func (e *Evaluator) EvaluateRange(q Query, d *dataset.Dataset) (wire.QueryResult, error) {
	if !d.Ready() {
		return wire.QueryResult{}, status.New(status.Query, "query: range against unindexed dataset", d.InternalID)
	}
	result := wire.QueryResult{QueryID: q.QueryID, QueryType: wire.QueryRange, ResultType: q.ResultType}
	if q.Window.Empty() {
		return result, nil
	}

	win := windowShape(q.Window)
	for _, shape := range d.Objects {
		if !shape.MBR.Intersects(q.Window) {
			continue
		}
		result.Stats.MBRCandidates++
		ok, err := geometry.Evaluate(shape, win, geometry.PredicateIntersects, e.Refiner)
		if err != nil {
			log.Error.Printf("query: range refine error for object %d, skipping: %v", shape.RecID, err)
			continue
		}
		if !ok {
			continue
		}
		switch q.ResultType {
		case wire.ResultCount:
			result.Count++
		case wire.ResultCollect:
			result.RecIDs = append(result.RecIDs, shape.RecID)
		}
	}
	return result, nil
}

// windowShape adapts a query window MBR into the Rectangle shape
// geometry.Evaluate expects as its second argument.
func windowShape(w geometry.MBR) *geometry.Shape {
	s := geometry.New(0, geometry.Rectangle)
	_ = s.AppendVertex(geometry.Vertex{X: w.XMin, Y: w.YMin})
	_ = s.AppendVertex(geometry.Vertex{X: w.XMax, Y: w.YMax})
	return s
}

// EvaluateKNN answers a KNNQuery against a single, already-indexed dataset
// (spec.md §4.5 "kNN: ... each Agent returns its local top-k").
func (e *Evaluator) EvaluateKNN(q Query, d *dataset.Dataset) (wire.QueryResult, error) {
	if !d.Ready() {
		return wire.QueryResult{}, status.New(status.Query, "query: kNN against unindexed dataset", d.InternalID)
	}
	type candidate struct {
		id   uint64
		dist float64
	}
	candidates := make([]candidate, 0, len(d.Objects))
	for _, shape := range d.Objects {
		candidates = append(candidates, candidate{id: shape.RecID, dist: PointDistance(q.Point, shape)})
	}
	sort.Slice(candidates, func(i, j int) bool { return candidates[i].dist < candidates[j].dist })
	if len(candidates) > q.K {
		candidates = candidates[:q.K]
	}
	neighbors := make([]wire.Neighbor, len(candidates))
	for i, c := range candidates {
		neighbors[i] = wire.Neighbor{RecID: c.id, Distance: c.dist}
	}
	return wire.QueryResult{
		QueryID:    q.QueryID,
		QueryType:  wire.QueryKNN,
		ResultType: wire.ResultKNN,
		KNN:        []wire.KNNResult{{Neighbors: neighbors}},
	}, nil
}

// EvaluateJoin answers a JoinQuery between two already-indexed datasets
// (spec.md §4.5 "Join predicates"), dispatching on q.JoinMode.
func (e *Evaluator) EvaluateJoin(q Query, r, s *dataset.Dataset) (wire.QueryResult, error) {
	if !r.Ready() || !s.Ready() {
		return wire.QueryResult{}, status.New(status.Query, "query: join against unindexed dataset", r.InternalID, s.InternalID)
	}
	result := wire.QueryResult{QueryID: q.QueryID, QueryType: wire.QueryJoin, ResultType: q.ResultType}
	sectionIDs := r.CommonSectionIDs(s)

	switch q.JoinMode {
	case ModeFindRelation:
		twolayer.JoinTopology(r.Index, s.Index, func(rs, ss *geometry.Shape, rel geometry.Relation) {
			pred, matched, err := e.relate(rs, ss, rel, r, s, sectionIDs, &result)
			if err != nil {
				log.Error.Printf("query: find-relation refine error for (%d,%d), skipping pair: %v", rs.RecID, ss.RecID, err)
				return
			}
			if !matched {
				return
			}
			result.TopologyCounts[pred]++
			if q.ResultType == wire.ResultTopologyCollect {
				result.TopologyPairs[pred] = append(result.TopologyPairs[pred], wire.Pair{LeftRecID: rs.RecID, RightRecID: ss.RecID})
			}
		})
	case ModeDistance:
		twolayer.Join(r.Index, s.Index, func(rs, ss *geometry.Shape) {
			result.Stats.MBRCandidates++
			if ShapeDistance(rs, ss) > q.Threshold {
				return
			}
			appendPair(&result, q.ResultType, rs.RecID, ss.RecID)
		})
	default: // ModePredicate
		twolayer.Join(r.Index, s.Index, func(rs, ss *geometry.Shape) {
			ok, err := e.evaluatePredicatePair(rs, ss, q.Predicate, r, s, sectionIDs, &result)
			if err != nil {
				log.Error.Printf("query: join refine error for (%d,%d), skipping pair: %v", rs.RecID, ss.RecID, err)
				return
			}
			if !ok {
				return
			}
			appendPair(&result, q.ResultType, rs.RecID, ss.RecID)
		})
	}
	return result, nil
}

// appendPair records a matched join pair in result per its ResultType.
// ResultCollect for a Join stores id-pairs flattened into RecIDs
// (left,right,left,right,...) since wire.QueryResult's single RecIDs slice
// is the one "sequence of ids or id-pairs" spec.md §3 describes.
func appendPair(result *wire.QueryResult, resultType wire.ResultType, left, right uint64) {
	switch resultType {
	case wire.ResultCount:
		result.Count++
	case wire.ResultCollect:
		result.RecIDs = append(result.RecIDs, left, right)
	}
}

// evaluatePredicatePair runs spec.md §4.5's per-candidate pipeline for a
// single boolean predicate: increment the MBR-filter counter, try APRIL if
// both datasets built a store, and fall back to refinement when APRIL is
// unavailable or inconclusive.
func (e *Evaluator) evaluatePredicatePair(r, s *geometry.Shape, p geometry.Predicate, rd, sd *dataset.Dataset, sectionIDs []int32, result *wire.QueryResult) (bool, error) {
	result.Stats.MBRCandidates++
	if verdict, ok := e.classifyWithAPRIL(r, s, p, rd, sd, sectionIDs, result); ok {
		return verdict == april.TrueHit, nil
	}
	return geometry.Evaluate(r, s, p, e.Refiner)
}

// relate runs the find-relation pipeline for a single candidate pair:
// APRIL's intersects decision table settles definite negatives cheaply;
// anything else goes to refinement, whose Mask is classified into a single
// relation bucket with rel's help (see classifyRelation).
func (e *Evaluator) relate(r, s *geometry.Shape, rel geometry.Relation, rd, sd *dataset.Dataset, sectionIDs []int32, result *wire.QueryResult) (geometry.Predicate, bool, error) {
	result.Stats.MBRCandidates++
	if verdict, ok := e.classifyWithAPRIL(r, s, geometry.PredicateIntersects, rd, sd, sectionIDs, result); ok && verdict == april.TrueNegative {
		return 0, false, nil
	}
	mask, err := e.Refiner.Relate(r, s)
	if err != nil {
		return 0, false, err
	}
	if mask.Disjoint() {
		return 0, false, nil
	}
	return classifyRelation(mask, rel), true, nil
}

// classifyWithAPRIL attempts an APRIL decision-table classification for
// (r,s) under predicate p, trying every section id common to rd and sd
// until one is decisive or all are exhausted. ok is false when either
// dataset lacks an APRIL store, or no shared section yielded a verdict
// (both signal "go straight to refinement"). A pair that had APRIL data but
// stayed inconclusive is counted in Stats.AprilCandidates.
func (e *Evaluator) classifyWithAPRIL(r, s *geometry.Shape, p geometry.Predicate, rd, sd *dataset.Dataset, sectionIDs []int32, result *wire.QueryResult) (april.Verdict, bool) {
	if rd.AprilStore == nil || sd.AprilStore == nil {
		return april.Inconclusive, false
	}
	tried := false
	for _, sec := range sectionIDs {
		rData, rOK := rd.AprilStore.Get(april.StoreKey{SectionID: sec, ObjectID: r.RecID})
		sData, sOK := sd.AprilStore.Get(april.StoreKey{SectionID: sec, ObjectID: s.RecID})
		if !rOK || !sOK {
			continue
		}
		tried = true
		if verdict := april.Classify(rData, sData, p); verdict != april.Inconclusive {
			return verdict, true
		}
	}
	if tried {
		result.Stats.AprilCandidates++
	}
	return april.Inconclusive, false
}

