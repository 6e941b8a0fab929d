package cluster

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/grailbio/spatialjoin/dataset"
	"github.com/grailbio/spatialjoin/geometry"
	"github.com/grailbio/spatialjoin/partition"
	"github.com/grailbio/spatialjoin/query"
	"github.com/grailbio/spatialjoin/wire"
)

func point(id uint64, x, y float64) *geometry.Shape {
	s := geometry.New(id, geometry.Point)
	_ = s.AppendVertex(geometry.Vertex{X: x, Y: y})
	return s
}

func TestDriverRangeQueryEndToEnd(t *testing.T) {
	d := NewDriver(3)

	bounds := geometry.MBR{XMin: 0, YMin: 0, XMax: 100, YMax: 100}
	id, err := d.PrepareDataset("pts", geometry.Point, dataset.WKT, "", false, bounds)
	require.NoError(t, err)

	objects := []*geometry.Shape{
		point(1, 5, 5),
		point(2, 50, 50),
		point(3, 90, 90),
	}
	grid := partition.Grid{Method: partition.RoundRobin, Bounds: bounds, DistPPD: 10}
	require.NoError(t, d.Partition(id, grid, dataset.AprilConfig{}, objects, geometry.Point))
	require.NoError(t, d.BuildIndex([]int32{id}))

	q := query.NewRangeQuery(1, id, geometry.MBR{XMin: 0, YMin: 0, XMax: 100, YMax: 100}, wire.ResultCount)
	result, err := d.Query(q)
	require.NoError(t, err)
	assert.Equal(t, uint64(3), result.Count)

	require.NoError(t, d.UnloadDataset([]int32{id}))
	require.NoError(t, d.Finalize())

	assert.Equal(t, 1, d.Report.Count(StagePrepare))
	assert.Equal(t, 1, d.Report.Count(StagePartition))
	assert.Equal(t, 1, d.Report.Count(StageBuildIndex))
	assert.Equal(t, 1, d.Report.Count(StageQuery))
}

func TestDriverJoinQueryEndToEnd(t *testing.T) {
	d := NewDriver(2)
	bounds := geometry.MBR{XMin: 0, YMin: 0, XMax: 10, YMax: 10}

	leftID, err := d.PrepareDataset("left", geometry.Point, dataset.WKT, "", false, bounds)
	require.NoError(t, err)
	rightID, err := d.PrepareDataset("right", geometry.Point, dataset.WKT, "", false, bounds)
	require.NoError(t, err)

	grid := partition.Grid{Method: partition.RoundRobin, Bounds: bounds, DistPPD: 4}
	left := []*geometry.Shape{point(1, 1, 1), point(2, 9, 9)}
	right := []*geometry.Shape{point(10, 1, 1), point(11, 2, 2)}
	require.NoError(t, d.Partition(leftID, grid, dataset.AprilConfig{}, left, geometry.Point))
	require.NoError(t, d.Partition(rightID, grid, dataset.AprilConfig{}, right, geometry.Point))
	require.NoError(t, d.BuildIndex([]int32{leftID, rightID}))

	q := query.NewJoinQuery(2, leftID, rightID, geometry.PredicateEquals, wire.ResultCount)
	result, err := d.Query(q)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), result.Count)

	require.NoError(t, d.Finalize())
}

func TestDriverKNNQueryEndToEnd(t *testing.T) {
	d := NewDriver(2)
	bounds := geometry.MBR{XMin: 0, YMin: 0, XMax: 10, YMax: 10}
	id, err := d.PrepareDataset("pts", geometry.Point, dataset.WKT, "", false, bounds)
	require.NoError(t, err)

	grid := partition.Grid{Method: partition.RoundRobin, Bounds: bounds, DistPPD: 4}
	objects := []*geometry.Shape{point(1, 1, 1), point(2, 2, 2), point(3, 9, 9)}
	require.NoError(t, d.Partition(id, grid, dataset.AprilConfig{}, objects, geometry.Point))
	require.NoError(t, d.BuildIndex([]int32{id}))

	q := query.NewKNNQuery(3, id, geometry.Vertex{X: 0, Y: 0}, 2)
	result, err := d.Query(q)
	require.NoError(t, err)
	require.Len(t, result.KNN, 1)
	require.Len(t, result.KNN[0].Neighbors, 2)
	assert.Equal(t, uint64(1), result.KNN[0].Neighbors[0].RecID)

	require.NoError(t, d.Finalize())
}

func TestQueryBatchPropagatesValidationError(t *testing.T) {
	d := NewDriver(2)
	_, err := d.QueryBatch([]query.Query{query.NewKNNQuery(1, 99, geometry.Vertex{}, 0)})
	assert.Error(t, err)
}

func TestQueryUnknownDatasetReturnsError(t *testing.T) {
	d := NewDriver(2)
	q := query.NewRangeQuery(1, 99, geometry.MBR{XMin: 0, YMin: 0, XMax: 1, YMax: 1}, wire.ResultCount)
	_, err := d.Query(q)
	assert.Error(t, err)
}

func TestDatasetRegistryResolve(t *testing.T) {
	r := NewDatasetRegistry()
	id := r.Assign("roads")
	got, err := r.Resolve("roads")
	require.NoError(t, err)
	assert.Equal(t, id, got)

	r.Forget("roads")
	_, err = r.Resolve("roads")
	assert.Error(t, err)
}

func TestReportAccumulatesAcrossCalls(t *testing.T) {
	r := NewReport()
	require.NoError(t, r.Time(StageQuery, func() error { return nil }))
	require.NoError(t, r.Time(StageQuery, func() error { return nil }))
	assert.Equal(t, 2, r.Count(StageQuery))
	assert.Contains(t, r.String(), "query")
}
