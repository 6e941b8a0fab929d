package april

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/grailbio/spatialjoin/geometry"
)

func square(id uint64, x0, y0, x1, y1 float64) *geometry.Shape {
	s := geometry.New(id, geometry.Polygon)
	for _, v := range []geometry.Vertex{{X: x0, Y: y0}, {X: x1, Y: y0}, {X: x1, Y: y1}, {X: x0, Y: y1}} {
		_ = s.AppendVertex(v)
	}
	return s
}

func testConfig() Config {
	return Config{Order: 6, MinX: 0, MinY: 0, MaxX: 64, MaxY: 64}
}

func TestRasterizeTouchesAndCoversCells(t *testing.T) {
	s := square(1, 4, 4, 12, 12)
	d := Rasterize(testConfig(), s)
	require.False(t, d.A.Empty())
	require.False(t, d.F.Empty())
	// Every fully-covered cell must also be a touched cell.
	assert.True(t, d.A.Contains(d.F))
}

func TestRasterizePointIsFullEverywhereItTouches(t *testing.T) {
	p := geometry.New(1, geometry.Point)
	require.NoError(t, p.AppendVertex(geometry.Vertex{X: 5, Y: 5}))
	d := Rasterize(testConfig(), p)
	assert.Equal(t, d.A.Intervals(), d.F.Intervals())
}

func TestClassifyDisjointRasters(t *testing.T) {
	cfg := testConfig()
	a := Rasterize(cfg, square(1, 0, 0, 4, 4))
	b := Rasterize(cfg, square(2, 40, 40, 50, 50))
	assert.Equal(t, TrueHit, Classify(a, b, geometry.PredicateDisjoint))
	assert.Equal(t, TrueNegative, Classify(a, b, geometry.PredicateIntersects))
}

func TestClassifyContainment(t *testing.T) {
	cfg := testConfig()
	outer := Rasterize(cfg, square(1, 0, 0, 32, 32))
	inner := Rasterize(cfg, square(2, 8, 8, 16, 16))
	assert.Equal(t, TrueHit, Classify(inner, outer, geometry.PredicateInside))
	assert.Equal(t, TrueHit, Classify(outer, inner, geometry.PredicateContains))
}

func TestClassifyEquals(t *testing.T) {
	cfg := testConfig()
	a := Rasterize(cfg, square(1, 0, 0, 16, 16))
	b := Rasterize(cfg, square(2, 32, 32, 48, 48))
	assert.Equal(t, TrueNegative, Classify(a, b, geometry.PredicateEquals))
}

func TestStorePutGet(t *testing.T) {
	store := NewStore()
	key := StoreKey{SectionID: 0, ObjectID: 42}
	d := Rasterize(testConfig(), square(1, 0, 0, 1, 1))
	store.Put(key, d)
	got, ok := store.Get(key)
	require.True(t, ok)
	assert.Equal(t, d, got)

	_, ok = store.Get(StoreKey{SectionID: 0, ObjectID: 43})
	assert.False(t, ok)
}
