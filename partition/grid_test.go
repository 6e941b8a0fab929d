package partition

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/grailbio/spatialjoin/geometry"
)

func testGrid(method Method) Grid {
	return Grid{
		Method:    method,
		Bounds:    geometry.MBR{XMin: 0, YMin: 0, XMax: 100, YMax: 100},
		DistPPD:   10,
		PartPPD:   4,
		WorldSize: 3,
	}
}

func TestDistCellIDFlattening(t *testing.T) {
	g := testGrid(RoundRobin)
	i, j := g.DistCell(25, 45)
	assert.Equal(t, int32(2), i)
	assert.Equal(t, int32(4), j)
	assert.Equal(t, int32(4*10+2), g.DistCellID(i, j))
}

func TestOwnerIsModuloWorldSize(t *testing.T) {
	g := testGrid(RoundRobin)
	for id := int32(0); id < 20; id++ {
		owner := g.Owner(CellID{DistCellID: id})
		assert.Equal(t, id%g.WorldSize, owner)
	}
}

func TestRoundRobinFlattenIsDistinctPerCell(t *testing.T) {
	seen := make(map[int32]bool)
	for id := int32(0); id < 50; id++ {
		f := CellID{DistCellID: id}.Flatten(0)
		assert.False(t, seen[f], "collision at dist cell %d", id)
		seen[f] = true
	}
}

func TestTwoGridFlattenUnflattenRoundTrip(t *testing.T) {
	c := CellID{DistCellID: 7, FineLocalID: 5}
	f := c.Flatten(4)
	got := Unflatten(f, 4)
	assert.Equal(t, c, got)
}

func TestCellsRoundRobinSingleCell(t *testing.T) {
	g := testGrid(RoundRobin)
	m := geometry.MBR{XMin: 22, YMin: 22, XMax: 24, YMax: 24}
	cells := g.Cells(m)
	assert.Len(t, cells, 1)
	assert.Equal(t, int32(2*10+2), cells[0].Cell.DistCellID)
}

func TestCellsRoundRobinSpansMultipleCells(t *testing.T) {
	g := testGrid(RoundRobin)
	m := geometry.MBR{XMin: 9, YMin: 9, XMax: 11, YMax: 11}
	cells := g.Cells(m)
	assert.Len(t, cells, 4)
}

func TestCellsTwoGridNestsFineCells(t *testing.T) {
	g := testGrid(TwoGrid)
	m := geometry.MBR{XMin: 1, YMin: 1, XMax: 2, YMax: 2}
	cells := g.Cells(m)
	assert.Len(t, cells, 1)
	assert.Equal(t, int32(0), cells[0].Cell.DistCellID)
}

func TestClassifyObjectAssignsPerCell(t *testing.T) {
	g := testGrid(RoundRobin)
	s := geometry.New(1, geometry.Rectangle)
	_ = s.AppendVertex(geometry.Vertex{X: 9, Y: 9})
	_ = s.AppendVertex(geometry.Vertex{X: 11, Y: 11})

	ocs := ClassifyObject(g, s)
	assert.Len(t, ocs, 4)
	seen := make(map[int32]bool)
	for _, oc := range ocs {
		assert.False(t, seen[oc.Cell.DistCellID])
		seen[oc.Cell.DistCellID] = true
	}
}

func TestAssignIsUniqueAndNonEmpty(t *testing.T) {
	g := testGrid(RoundRobin)
	s := geometry.New(1, geometry.Point)
	_ = s.AppendVertex(geometry.Vertex{X: 50, Y: 50})

	require := assert.New(t)
	err := Assign(g, s)
	require.NoError(err)
	require.NotEmpty(s.Partitions)

	seen := make(map[int32]bool)
	for _, p := range s.Partitions {
		require.False(seen[p.PartitionID])
		seen[p.PartitionID] = true
	}
}
