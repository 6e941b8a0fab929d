package refine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/grailbio/spatialjoin/geometry"
)

func rect(id uint64, x0, y0, x1, y1 float64) *geometry.Shape {
	s := geometry.New(id, geometry.Rectangle)
	_ = s.AppendVertex(geometry.Vertex{X: x0, Y: y0})
	_ = s.AppendVertex(geometry.Vertex{X: x1, Y: y1})
	return s
}

func point(id uint64, x, y float64) *geometry.Shape {
	s := geometry.New(id, geometry.Point)
	_ = s.AppendVertex(geometry.Vertex{X: x, Y: y})
	return s
}

func TestRelateDisjointRectangles(t *testing.T) {
	a := rect(1, 0, 0, 10, 10)
	b := rect(2, 20, 20, 30, 30)
	var r DefaultRefiner
	mask, err := r.Relate(a, b)
	require.NoError(t, err)
	assert.True(t, mask.Disjoint())
}

func TestRelateOverlappingRectangles(t *testing.T) {
	a := rect(1, 0, 0, 10, 10)
	b := rect(2, 5, 5, 15, 15)
	var r DefaultRefiner
	mask, err := r.Relate(a, b)
	require.NoError(t, err)
	assert.True(t, mask.Intersects())
	assert.False(t, mask.Contains())
}

func TestRelateContainsRectangle(t *testing.T) {
	outer := rect(1, 0, 0, 10, 10)
	inner := rect(2, 2, 2, 8, 8)
	var r DefaultRefiner
	mask, err := r.Relate(outer, inner)
	require.NoError(t, err)
	assert.True(t, mask.Contains())

	mask2, err := r.Relate(inner, outer)
	require.NoError(t, err)
	assert.True(t, mask2.Within())
}

func TestRelatePointInsideRectangle(t *testing.T) {
	p := point(1, 5, 5)
	box := rect(2, 0, 0, 10, 10)
	var r DefaultRefiner
	mask, err := r.Relate(box, p)
	require.NoError(t, err)
	assert.True(t, mask.Contains())
}

func TestRelateRectangleCoversPointOnBoundary(t *testing.T) {
	p := point(1, 0, 5)
	box := rect(2, 0, 0, 10, 10)
	var r DefaultRefiner
	mask, err := r.Relate(box, p)
	require.NoError(t, err)
	assert.True(t, mask.Covers())
}

func TestRelateLineStringUnsupported(t *testing.T) {
	line := geometry.New(1, geometry.LineString)
	_ = line.AppendVertex(geometry.Vertex{X: 0, Y: 0})
	_ = line.AppendVertex(geometry.Vertex{X: 1, Y: 1})
	box := rect(2, 0, 0, 10, 10)
	var r DefaultRefiner
	_, err := r.Relate(line, box)
	assert.ErrorIs(t, err, ErrUnsupported)
}
