package wire

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestQueryResultRoundTripCount(t *testing.T) {
	r := QueryResult{
		QueryID:    1,
		QueryType:  QueryRange,
		ResultType: ResultCount,
		Count:      17,
		Stats:      Stats{MBRCandidates: 100, AprilCandidates: 4},
	}
	assert.Equal(t, r, UnmarshalQueryResult(r.Marshal()))
}

func TestQueryResultRoundTripCollect(t *testing.T) {
	r := QueryResult{
		QueryID:    2,
		QueryType:  QueryJoin,
		ResultType: ResultCollect,
		RecIDs:     []uint64{5, 9, 100},
	}
	assert.Equal(t, r, UnmarshalQueryResult(r.Marshal()))
}

func TestQueryResultRoundTripTopologyCollect(t *testing.T) {
	r := QueryResult{
		QueryID:    3,
		QueryType:  QueryJoin,
		ResultType: ResultTopologyCollect,
	}
	r.TopologyPairs[0] = []Pair{{LeftRecID: 1, RightRecID: 2}}
	r.TopologyPairs[5] = []Pair{{LeftRecID: 3, RightRecID: 4}, {LeftRecID: 5, RightRecID: 6}}
	assert.Equal(t, r, UnmarshalQueryResult(r.Marshal()))
}

func TestQueryResultRoundTripKNN(t *testing.T) {
	r := QueryResult{
		QueryID:    4,
		QueryType:  QueryKNN,
		ResultType: ResultKNN,
		KNN: []KNNResult{
			{ObjectID: 1, Neighbors: []Neighbor{{RecID: 9, Distance: 1.25}, {RecID: 10, Distance: 3.5}}},
		},
	}
	assert.Equal(t, r, UnmarshalQueryResult(r.Marshal()))
}

func TestQueryResultMergeCount(t *testing.T) {
	a := QueryResult{ResultType: ResultCount, Count: 3, Stats: Stats{MBRCandidates: 1}}
	b := QueryResult{ResultType: ResultCount, Count: 4, Stats: Stats{MBRCandidates: 2}}
	a.Merge(b)
	assert.Equal(t, uint64(7), a.Count)
	assert.Equal(t, uint64(3), a.Stats.MBRCandidates)
}
