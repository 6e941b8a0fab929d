package geometry

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAppendVertexGrowsMBR(t *testing.T) {
	s := New(1, Polygon)
	require.NoError(t, s.AppendVertex(Vertex{X: 0, Y: 0}))
	require.NoError(t, s.AppendVertex(Vertex{X: 10, Y: 5}))
	require.NoError(t, s.AppendVertex(Vertex{X: -2, Y: 7}))
	assert.Equal(t, MBR{XMin: -2, YMin: 0, XMax: 10, YMax: 7}, s.MBR)
}

func TestAppendVertexRejectsExtraPointVertex(t *testing.T) {
	s := New(1, Point)
	require.NoError(t, s.AppendVertex(Vertex{X: 1, Y: 1}))
	assert.Error(t, s.AppendVertex(Vertex{X: 2, Y: 2}))
}

func TestSerialiseRoundTrip(t *testing.T) {
	s := New(1, Polygon)
	for _, v := range []Vertex{{X: 0, Y: 0}, {X: 1, Y: 0}, {X: 1, Y: 1}} {
		require.NoError(t, s.AppendVertex(v))
	}
	flat := s.SerialiseVertices()
	got := New(1, Polygon)
	require.NoError(t, got.SetFromFlatCoords(flat))
	assert.Equal(t, s.Vertices, got.Vertices)
	assert.Equal(t, s.MBR, got.MBR)
}

func TestAddPartitionRejectsDuplicate(t *testing.T) {
	s := New(1, Point)
	require.NoError(t, s.AddPartition(PartitionRef{PartitionID: 4, Class: ClassA}))
	assert.Error(t, s.AddPartition(PartitionRef{PartitionID: 4, Class: ClassB}))
}

func TestMBRIntersects(t *testing.T) {
	a := MBR{XMin: 0, YMin: 0, XMax: 10, YMax: 10}
	b := MBR{XMin: 5, YMin: 5, XMax: 15, YMax: 15}
	c := MBR{XMin: 20, YMin: 20, XMax: 30, YMax: 30}
	assert.True(t, a.Intersects(b))
	assert.False(t, a.Intersects(c))
}

func TestClassify(t *testing.T) {
	r := MBR{XMin: 0, YMin: 0, XMax: 10, YMax: 10}
	assert.Equal(t, RelationEqual, Classify(r, r))

	s := MBR{XMin: 2, YMin: 2, XMax: 8, YMax: 8}
	assert.Equal(t, RelationSInR, Classify(r, s))
	assert.Equal(t, RelationRInS, Classify(s, r))

	cross := MBR{XMin: 5, YMin: -5, XMax: 15, YMax: 5}
	assert.Equal(t, RelationIntersect, Classify(r, cross))
}

func TestClassifyCell(t *testing.T) {
	cell := MBR{XMin: 0, YMin: 0, XMax: 10, YMax: 10}
	assert.Equal(t, ClassA, ClassifyCell(MBR{XMin: 1, YMin: 1, XMax: 2, YMax: 2}, cell))
	assert.Equal(t, ClassB, ClassifyCell(MBR{XMin: -1, YMin: 1, XMax: 2, YMax: 2}, cell))
	assert.Equal(t, ClassC, ClassifyCell(MBR{XMin: 1, YMin: -1, XMax: 2, YMax: 2}, cell))
	assert.Equal(t, ClassD, ClassifyCell(MBR{XMin: -1, YMin: -1, XMax: 2, YMax: 2}, cell))
}
