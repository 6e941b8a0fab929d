package query

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/grailbio/spatialjoin/dataset"
	"github.com/grailbio/spatialjoin/geometry"
	"github.com/grailbio/spatialjoin/partition"
	"github.com/grailbio/spatialjoin/wire"
)

func newIndexedDataset(t *testing.T, id int32, dt geometry.DataType, bounds geometry.MBR, shapes ...*geometry.Shape) *dataset.Dataset {
	t.Helper()
	d := dataset.New(id, "", dt, dataset.WKT, "", false, bounds)
	for _, s := range shapes {
		require.NoError(t, d.Ingest(s))
	}
	grid := partition.Grid{Method: partition.RoundRobin, Bounds: bounds, DistPPD: 1, WorldSize: 1}
	require.NoError(t, d.Partition(grid))
	require.NoError(t, d.BuildIndex())
	return d
}

func rectShape(id uint64, x0, y0, x1, y1 float64) *geometry.Shape {
	s := geometry.New(id, geometry.Rectangle)
	_ = s.AppendVertex(geometry.Vertex{X: x0, Y: y0})
	_ = s.AppendVertex(geometry.Vertex{X: x1, Y: y1})
	return s
}

func pointShape(id uint64, x, y float64) *geometry.Shape {
	s := geometry.New(id, geometry.Point)
	_ = s.AppendVertex(geometry.Vertex{X: x, Y: y})
	return s
}

func polyShape(id uint64, pts ...[2]float64) *geometry.Shape {
	s := geometry.New(id, geometry.Polygon)
	for _, p := range pts {
		_ = s.AppendVertex(geometry.Vertex{X: p[0], Y: p[1]})
	}
	return s
}

// Scenario 1 of spec.md §8: overlapping MBRs intersect once, disjoint
// predicate reports zero.
func TestScenario1IntersectAndDisjointCounts(t *testing.T) {
	bounds := geometry.MBR{XMin: 0, YMin: 0, XMax: 20, YMax: 20}
	r := newIndexedDataset(t, 1, geometry.Rectangle, bounds, rectShape(1, 0, 0, 10, 10))
	s := newIndexedDataset(t, 2, geometry.Rectangle, bounds, rectShape(2, 5, 5, 15, 15))
	e := NewEvaluator()

	inter, err := e.EvaluateJoin(NewJoinQuery(1, 1, 2, geometry.PredicateIntersects, wire.ResultCount), r, s)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), inter.Count)

	disj, err := e.EvaluateJoin(NewJoinQuery(2, 1, 2, geometry.PredicateDisjoint, wire.ResultCount), r, s)
	require.NoError(t, err)
	assert.Equal(t, uint64(0), disj.Count)
}

// Scenario 2's shape: one rectangle fully inside S, one only overlapping,
// one disjoint.
func TestIntersectAndInsideCounts(t *testing.T) {
	bounds := geometry.MBR{XMin: -5, YMin: -5, XMax: 30, YMax: 30}
	r := newIndexedDataset(t, 1, geometry.Rectangle, bounds,
		rectShape(1, 0, 0, 2, 2),
		rectShape(2, 8, 8, 12, 12),
		rectShape(3, 20, 20, 21, 21),
	)
	s := newIndexedDataset(t, 2, geometry.Rectangle, bounds, rectShape(10, -1, -1, 10, 10))
	e := NewEvaluator()

	inter, err := e.EvaluateJoin(NewJoinQuery(1, 1, 2, geometry.PredicateIntersects, wire.ResultCount), r, s)
	require.NoError(t, err)
	assert.Equal(t, uint64(2), inter.Count)

	inside, err := e.EvaluateJoin(NewJoinQuery(2, 1, 2, geometry.PredicateInside, wire.ResultCount), r, s)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), inside.Count)
}

// Scenario 3: two overlapping unit squares classify as INTERSECT, not
// COVERS/CONTAINS/EQUAL.
func TestScenario3FindRelationClassifiesIntersect(t *testing.T) {
	bounds := geometry.MBR{XMin: -5, YMin: -5, XMax: 5, YMax: 5}
	r := newIndexedDataset(t, 1, geometry.Polygon, bounds,
		polyShape(1, [2]float64{0, 0}, [2]float64{1, 0}, [2]float64{1, 1}, [2]float64{0, 1}))
	s := newIndexedDataset(t, 2, geometry.Polygon, bounds,
		polyShape(2, [2]float64{0.5, 0}, [2]float64{1.5, 0}, [2]float64{1.5, 1}, [2]float64{0.5, 1}))
	e := NewEvaluator()

	res, err := e.EvaluateJoin(NewFindRelationQuery(1, 1, 2, wire.ResultTopologyCollect), r, s)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), res.TopologyCounts[geometry.PredicateIntersects])
	assert.Equal(t, uint64(0), res.TopologyCounts[geometry.PredicateCovers])
	assert.Equal(t, uint64(0), res.TopologyCounts[geometry.PredicateContains])
	assert.Equal(t, uint64(0), res.TopologyCounts[geometry.PredicateEquals])
	require.Len(t, res.TopologyPairs[geometry.PredicateIntersects], 1)
	assert.Equal(t, wire.Pair{LeftRecID: 1, RightRecID: 2}, res.TopologyPairs[geometry.PredicateIntersects][0])
}

// Scenario 4: kNN returns the three closest points sorted by distance.
func TestScenario4KNNReturnsClosestKSorted(t *testing.T) {
	bounds := geometry.MBR{XMin: -10, YMin: -10, XMax: 10, YMax: 10}
	d := newIndexedDataset(t, 1, geometry.Point, bounds,
		pointShape(1, 1, 0),
		pointShape(2, 0, 2),
		pointShape(3, 3, 0),
		pointShape(4, 4, 0),
		pointShape(5, 5, 0),
	)
	e := NewEvaluator()

	res, err := e.EvaluateKNN(NewKNNQuery(1, 1, geometry.Vertex{X: 0, Y: 0}, 3), d)
	require.NoError(t, err)
	require.Len(t, res.KNN, 1)
	neighbors := res.KNN[0].Neighbors
	require.Len(t, neighbors, 3)
	assert.Equal(t, []uint64{1, 2, 3}, []uint64{neighbors[0].RecID, neighbors[1].RecID, neighbors[2].RecID})
	assert.InDelta(t, 1.0, neighbors[0].Distance, 1e-9)
	assert.InDelta(t, 2.0, neighbors[1].Distance, 1e-9)
	assert.InDelta(t, 3.0, neighbors[2].Distance, 1e-9)
}

// Scenario 5: a range query counts only the points whose coordinates fall
// within the closed window.
func TestScenario5RangeQueryCountsPointsInWindow(t *testing.T) {
	bounds := geometry.MBR{XMin: 0, YMin: 0, XMax: 10, YMax: 10}
	d := newIndexedDataset(t, 1, geometry.Point, bounds,
		pointShape(1, 1, 1),
		pointShape(2, 4, 4),
		pointShape(3, 5, 5),
		pointShape(4, 6, 6),
		pointShape(5, 9, 9),
	)
	e := NewEvaluator()

	res, err := e.EvaluateRange(NewRangeQuery(1, 1, geometry.MBR{XMin: 0, YMin: 0, XMax: 5, YMax: 5}, wire.ResultCount), d)
	require.NoError(t, err)
	assert.Equal(t, uint64(3), res.Count)
}

func TestRangeQueryWithEmptyWindowReturnsZero(t *testing.T) {
	bounds := geometry.MBR{XMin: 0, YMin: 0, XMax: 10, YMax: 10}
	d := newIndexedDataset(t, 1, geometry.Point, bounds, pointShape(1, 1, 1))
	e := NewEvaluator()

	res, err := e.EvaluateRange(NewRangeQuery(1, 1, geometry.MBR{}, wire.ResultCount), d)
	require.NoError(t, err)
	assert.Equal(t, uint64(0), res.Count)
}

func TestDistanceJoinReportsPairsWithinThreshold(t *testing.T) {
	bounds := geometry.MBR{XMin: -5, YMin: -5, XMax: 200, YMax: 200}
	r := newIndexedDataset(t, 1, geometry.Rectangle, bounds, rectShape(1, 0, 0, 2, 2))
	s := newIndexedDataset(t, 2, geometry.Rectangle, bounds,
		rectShape(2, 1, 1, 5, 5),
		rectShape(3, 100, 100, 101, 101),
	)
	e := NewEvaluator()

	res, err := e.EvaluateJoin(NewDistanceJoinQuery(1, 1, 2, 2.0, wire.ResultCount), r, s)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), res.Count)
}

func TestEvaluateJoinFailsOnUnindexedDataset(t *testing.T) {
	bounds := geometry.MBR{XMin: 0, YMin: 0, XMax: 10, YMax: 10}
	r := dataset.New(1, "", geometry.Point, dataset.WKT, "", false, bounds)
	s := newIndexedDataset(t, 2, geometry.Point, bounds, pointShape(1, 1, 1))
	e := NewEvaluator()
	_, err := e.EvaluateJoin(NewJoinQuery(1, 1, 2, geometry.PredicateIntersects, wire.ResultCount), r, s)
	assert.Error(t, err)
}
