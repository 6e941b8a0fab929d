package dataset

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/grailbio/spatialjoin/april"
	"github.com/grailbio/spatialjoin/geometry"
	"github.com/grailbio/spatialjoin/partition"
)

func point(id uint64, x, y float64) *geometry.Shape {
	s := geometry.New(id, geometry.Point)
	_ = s.AppendVertex(geometry.Vertex{X: x, Y: y})
	return s
}

func TestIngestInfersBounds(t *testing.T) {
	d := New(1, "pts", geometry.Point, WKT, "", false, geometry.MBR{})
	require.NoError(t, d.Ingest(point(1, 1, 1)))
	require.NoError(t, d.Ingest(point(2, 5, 9)))
	assert.Equal(t, geometry.MBR{XMin: 1, YMin: 1, XMax: 5, YMax: 9}, d.Bounds)
	assert.Equal(t, 2, d.TotalObjects())
}

func TestIngestRejectsDuplicateID(t *testing.T) {
	d := New(1, "pts", geometry.Point, WKT, "", false, geometry.MBR{})
	require.NoError(t, d.Ingest(point(1, 1, 1)))
	assert.Error(t, d.Ingest(point(1, 2, 2)))
}

func TestPartitionThenBuildIndexLifecycle(t *testing.T) {
	d := New(1, "pts", geometry.Point, WKT, "", false, geometry.MBR{})
	require.NoError(t, d.Ingest(point(1, 5, 5)))
	require.NoError(t, d.Ingest(point(2, 50, 50)))

	grid := partition.Grid{Method: partition.RoundRobin, Bounds: d.Bounds, DistPPD: 10, WorldSize: 1}
	require.NoError(t, d.Partition(grid))
	assert.False(t, d.Ready())

	require.NoError(t, d.BuildIndex())
	assert.True(t, d.Ready())

	for id := range d.Objects {
		assert.NotEmpty(t, d.Objects[id].Partitions)
	}
}

func TestBuildIndexBeforePartitionFails(t *testing.T) {
	d := New(1, "pts", geometry.Point, WKT, "", false, geometry.MBR{})
	assert.Error(t, d.BuildIndex())
}

func TestAprilStoreOnlyForApplicableTypes(t *testing.T) {
	d := New(1, "poly", geometry.Polygon, WKT, "", false, geometry.MBR{})
	d.April = AprilConfig{Enabled: true, Order: 4}
	s := geometry.New(1, geometry.Polygon)
	for _, v := range []geometry.Vertex{{X: 0, Y: 0}, {X: 4, Y: 0}, {X: 4, Y: 4}, {X: 0, Y: 4}} {
		require.NoError(t, s.AppendVertex(v))
	}
	require.NoError(t, d.Ingest(s))

	grid := partition.Grid{Method: partition.RoundRobin, Bounds: d.Bounds, DistPPD: 1, WorldSize: 1}
	require.NoError(t, d.Partition(grid))
	require.NoError(t, d.BuildIndex())
	require.NotNil(t, d.AprilStore)
	_, ok := d.AprilStore.Get(april.StoreKey{SectionID: 0, ObjectID: 1})
	assert.True(t, ok)
}

func TestUnloadClearsState(t *testing.T) {
	d := New(1, "pts", geometry.Point, WKT, "", false, geometry.MBR{})
	require.NoError(t, d.Ingest(point(1, 1, 1)))
	d.Unload()
	assert.Nil(t, d.Objects)
	assert.False(t, d.Ready())
}
