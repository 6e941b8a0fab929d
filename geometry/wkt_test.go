package geometry

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetFromWKTPoint(t *testing.T) {
	s := New(1, Point)
	require.NoError(t, s.SetFromWKT("POINT(3 4)"))
	assert.Equal(t, []Vertex{{X: 3, Y: 4}}, s.Vertices)
	assert.Equal(t, MBR{XMin: 3, YMin: 4, XMax: 3, YMax: 4}, s.MBR)
}

func TestSetFromWKTLineString(t *testing.T) {
	s := New(1, LineString)
	require.NoError(t, s.SetFromWKT("LINESTRING(0 0, 1 1, 2 0)"))
	assert.Len(t, s.Vertices, 3)
	assert.Equal(t, MBR{XMin: 0, YMin: 0, XMax: 2, YMax: 1}, s.MBR)
}

func TestSetFromWKTPolygon(t *testing.T) {
	s := New(1, Polygon)
	require.NoError(t, s.SetFromWKT("POLYGON((0 0, 4 0, 4 4, 0 4, 0 0))"))
	assert.Len(t, s.Vertices, 5)
	assert.Equal(t, MBR{XMin: 0, YMin: 0, XMax: 4, YMax: 4}, s.MBR)
}

func TestSetFromWKTBox(t *testing.T) {
	s := New(1, Rectangle)
	require.NoError(t, s.SetFromWKT("BOX(1 1, 5 5)"))
	assert.Equal(t, MBR{XMin: 1, YMin: 1, XMax: 5, YMax: 5}, s.MBR)
}

func TestSetFromWKTRejectsTypeMismatch(t *testing.T) {
	s := New(1, Point)
	assert.Error(t, s.SetFromWKT("LINESTRING(0 0, 1 1)"))
}

func TestSetFromWKTRejectsMalformed(t *testing.T) {
	s := New(1, Point)
	assert.Error(t, s.SetFromWKT("POINT 3 4"))
}
