// Package query implements the Query/QueryResult data model and the
// Agent-local evaluation and merge semantics of spec.md §4.5: the plane
// sweep is the only source of candidate pairs, APRIL narrows what reaches
// refinement, and refinement is the final arbiter.
package query

import (
	"github.com/grailbio/spatialjoin/geometry"
	"github.com/grailbio/spatialjoin/status"
	"github.com/grailbio/spatialjoin/wire"
)

// JoinMode distinguishes the three ways a JoinQuery's predicate slot is
// interpreted. spec.md §3 lists "distance" and "find-relation" alongside
// the eight boolean predicates as if they were values of the same
// enumeration; they need materially different evaluation paths (a
// threshold test and a full relation classification, respectively), so
// JoinMode makes that a type-level distinction instead of overloading
// geometry.Predicate with values it was never meant to hold.
type JoinMode int32

const (
	// ModePredicate evaluates one of the eight named boolean predicates
	// (Query.Predicate) per candidate pair.
	ModePredicate JoinMode = iota
	// ModeFindRelation classifies every candidate pair into exactly one of
	// the eight relation buckets (SPEC_FULL.md supplemented feature 3).
	ModeFindRelation
	// ModeDistance reports pairs whose ShapeDistance (the minimum
	// vertex-to-vertex distance, an approximation of the exact distance) is
	// within Query.Threshold. Scoped to pairs the MBR plane sweep already
	// surfaces (overlapping MBRs) rather than a distance-expanded spatial
	// search — see DESIGN.md's query/ scope decisions.
	ModeDistance
)

// Query is the discriminated union of spec.md §3 "Query": RangeQuery,
// JoinQuery, and KNNQuery, distinguished by Kind. Not every field applies
// to every Kind; Validate checks the ones that do.
type Query struct {
	QueryID    int32
	Kind       wire.QueryType
	ResultType wire.ResultType

	// DatasetID is the sole dataset for Range and KNN, and the left-hand
	// ("R-side") dataset for Join.
	DatasetID int32
	// OtherDatasetID is the right-hand ("S-side") dataset for Join only.
	OtherDatasetID int32

	// Window is the query rectangle for Range.
	Window geometry.MBR

	// JoinMode, Predicate, and Threshold apply to Join only.
	JoinMode  JoinMode
	Predicate geometry.Predicate
	Threshold float64

	// Point and K apply to KNN only.
	Point geometry.Vertex
	K     int
}

// NewRangeQuery builds a RangeQuery (spec.md §3): one dataset, a window,
// a result type.
func NewRangeQuery(id, datasetID int32, window geometry.MBR, resultType wire.ResultType) Query {
	return Query{QueryID: id, Kind: wire.QueryRange, ResultType: resultType, DatasetID: datasetID, Window: window}
}

// NewJoinQuery builds a JoinQuery evaluating one of the eight boolean
// predicates.
func NewJoinQuery(id, left, right int32, p geometry.Predicate, resultType wire.ResultType) Query {
	return Query{QueryID: id, Kind: wire.QueryJoin, ResultType: resultType, DatasetID: left, OtherDatasetID: right, JoinMode: ModePredicate, Predicate: p}
}

// NewFindRelationQuery builds a JoinQuery that classifies every candidate
// pair by its discovered DE-9IM-derived relation rather than testing a
// single predicate.
func NewFindRelationQuery(id, left, right int32, resultType wire.ResultType) Query {
	return Query{QueryID: id, Kind: wire.QueryJoin, ResultType: resultType, DatasetID: left, OtherDatasetID: right, JoinMode: ModeFindRelation}
}

// NewDistanceJoinQuery builds a JoinQuery reporting pairs within threshold
// of each other.
func NewDistanceJoinQuery(id, left, right int32, threshold float64, resultType wire.ResultType) Query {
	return Query{QueryID: id, Kind: wire.QueryJoin, ResultType: resultType, DatasetID: left, OtherDatasetID: right, JoinMode: ModeDistance, Threshold: threshold}
}

// NewKNNQuery builds a KNNQuery: one dataset, a reference point, k.
func NewKNNQuery(id, datasetID int32, point geometry.Vertex, k int) Query {
	return Query{QueryID: id, Kind: wire.QueryKNN, ResultType: wire.ResultKNN, DatasetID: datasetID, Point: point, K: k}
}

// Validate reports whether q's fields are internally consistent for its
// Kind, per spec.md §7's "query: invalid type, invalid result type,
// invalid input" taxonomy entries.
func (q Query) Validate() error {
	switch q.Kind {
	case wire.QueryRange:
		return nil
	case wire.QueryJoin:
		if q.DatasetID == q.OtherDatasetID {
			return status.New(status.Query, "query: join requires two distinct datasets", q.DatasetID)
		}
		if q.JoinMode == ModeDistance && q.Threshold < 0 {
			return status.New(status.Query, "query: distance predicate requires a non-negative threshold", q.Threshold)
		}
		return nil
	case wire.QueryKNN:
		if q.K <= 0 {
			return status.New(status.Query, "query: kNN requires k > 0", q.K)
		}
		return nil
	default:
		return status.New(status.Query, "query: invalid query kind", q.Kind)
	}
}
