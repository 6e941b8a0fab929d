package query

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/grailbio/spatialjoin/wire"
)

func TestMergeResultsSumsCount(t *testing.T) {
	acc := wire.QueryResult{ResultType: wire.ResultCount, Count: 3}
	MergeResults(&acc, wire.QueryResult{ResultType: wire.ResultCount, Count: 4})
	assert.Equal(t, uint64(7), acc.Count)
}

func TestMergeResultsConcatenatesCollect(t *testing.T) {
	acc := wire.QueryResult{ResultType: wire.ResultCollect, RecIDs: []uint64{1, 2}}
	MergeResults(&acc, wire.QueryResult{ResultType: wire.ResultCollect, RecIDs: []uint64{3, 4}})
	assert.Equal(t, []uint64{1, 2, 3, 4}, acc.RecIDs)
}

func TestMergeResultsSuppressesTopologyCollectByDefault(t *testing.T) {
	AllowTopologyCollectMerge = false
	acc := wire.QueryResult{ResultType: wire.ResultTopologyCollect}
	o := wire.QueryResult{ResultType: wire.ResultTopologyCollect}
	o.TopologyPairs[0] = []wire.Pair{{LeftRecID: 1, RightRecID: 2}, {LeftRecID: 3, RightRecID: 4}}
	MergeResults(&acc, o)
	assert.Equal(t, uint64(2), acc.TopologyCounts[0])
	assert.Empty(t, acc.TopologyPairs[0])
}

func TestMergeResultsConcatenatesTopologyCollectWhenAllowed(t *testing.T) {
	AllowTopologyCollectMerge = true
	defer func() { AllowTopologyCollectMerge = false }()

	acc := wire.QueryResult{ResultType: wire.ResultTopologyCollect}
	o := wire.QueryResult{ResultType: wire.ResultTopologyCollect}
	o.TopologyPairs[0] = []wire.Pair{{LeftRecID: 1, RightRecID: 2}}
	MergeResults(&acc, o)
	assert.Equal(t, []wire.Pair{{LeftRecID: 1, RightRecID: 2}}, acc.TopologyPairs[0])
}

func TestMergeKNNKeepsClosestKPerObject(t *testing.T) {
	a := []wire.KNNResult{{ObjectID: 1, Neighbors: []wire.Neighbor{{RecID: 10, Distance: 5}, {RecID: 11, Distance: 1}}}}
	b := []wire.KNNResult{{ObjectID: 1, Neighbors: []wire.Neighbor{{RecID: 12, Distance: 3}}}}

	merged := MergeKNN(a, b, 2)
	require.Len(t, merged, 1)
	assert.Equal(t, uint64(1), merged[0].ObjectID)
	require.Len(t, merged[0].Neighbors, 2)
	assert.Equal(t, uint64(11), merged[0].Neighbors[0].RecID)
	assert.Equal(t, uint64(12), merged[0].Neighbors[1].RecID)
}

func TestMergeKNNKeepsObjectsIndependent(t *testing.T) {
	a := []wire.KNNResult{{ObjectID: 1, Neighbors: []wire.Neighbor{{RecID: 10, Distance: 1}}}}
	b := []wire.KNNResult{{ObjectID: 2, Neighbors: []wire.Neighbor{{RecID: 20, Distance: 2}}}}

	merged := MergeKNN(a, b, 5)
	require.Len(t, merged, 2)
}
