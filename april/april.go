// Package april implements the APRIL intermediate filter of spec.md §4.3:
// a rasterized, Hilbert-ordered interval-list approximation of a geometry's
// footprint that classifies a candidate pair as TRUE_HIT, TRUE_NEGATIVE, or
// INCONCLUSIVE using only integer-interval arithmetic, before falling back
// to the (expensive) exact refinement library.
package april

import (
	"sort"
	"sync"

	"blainsmith.com/go/seahash"

	"github.com/grailbio/spatialjoin/geometry"
	"github.com/grailbio/spatialjoin/hilbert"
	"github.com/grailbio/spatialjoin/interval"
	"github.com/grailbio/spatialjoin/refine"
)

// Config fixes the rasterization grid for a dataset (spec.md §4.3:
// "Hilbert index ... N is fixed per dataset (default 16, yielding a 65536^2
// grid)").
type Config struct {
	Order              uint
	MinX, MinY         float64
	MaxX, MaxY         float64
}

// DefaultOrder is the spec's default curve order.
const DefaultOrder = 16

// Data is the rasterized approximation of one geometry: the cells it
// touches (A-list) and the cells it fully covers (F-list), each a disjoint
// sorted interval.Set over Hilbert indices (spec.md §4.3 "Representation").
type Data struct {
	A interval.Set
	F interval.Set
}

func (c Config) curve() hilbert.Curve { return hilbert.New(c.Order) }

func (c Config) cellSize() (w, h float64) {
	side := float64(c.curve().Side())
	return (c.MaxX - c.MinX) / side, (c.MaxY - c.MinY) / side
}

// gridRange returns the inclusive [gx0,gx1]x[gy0,gy1] grid-cell range a's
// MBR overlaps, clamped to the dataspace grid.
func (c Config) gridRange(m geometry.MBR) (gx0, gy0, gx1, gy1 uint32) {
	w, h := c.cellSize()
	side := c.curve().Side()
	clamp := func(v int64) uint32 {
		if v < 0 {
			return 0
		}
		if v >= int64(side) {
			return side - 1
		}
		return uint32(v)
	}
	gx0 = clamp(int64((m.XMin - c.MinX) / w))
	gy0 = clamp(int64((m.YMin - c.MinY) / h))
	gx1 = clamp(int64((m.XMax - c.MinX) / w))
	gy1 = clamp(int64((m.YMax - c.MinY) / h))
	return
}

func (c Config) cellBounds(gx, gy uint32) geometry.MBR {
	w, h := c.cellSize()
	x0 := c.MinX + float64(gx)*w
	y0 := c.MinY + float64(gy)*h
	return geometry.MBR{XMin: x0, YMin: y0, XMax: x0 + w, YMax: y0 + h}
}

// Rasterize computes the Data for shape per spec.md §4.3's rasterization
// algorithm. Only Polygon and LineString shapes are approximated this way
// (spec.md §4.5: "If APRIL is configured and applicable (polygon or
// line)"); for Point and Rectangle shapes every cell their MBR overlaps
// goes into both the A-list and the F-list, with no coverage test, since
// their exact shape already is their MBR-like extent for the cells they
// occupy.
func Rasterize(cfg Config, shape *geometry.Shape) Data {
	gx0, gy0, gx1, gy1 := cfg.gridRange(shape.MBR)
	curve := cfg.curve()

	var aCells, fCells []uint32
	trivialFull := shape.DataType == geometry.Point || shape.DataType == geometry.Rectangle

	for gy := gy0; gy <= gy1; gy++ {
		for gx := gx0; gx <= gx1; gx++ {
			d := curve.XYToD(gx, gy)
			aCells = append(aCells, d)
			if trivialFull {
				fCells = append(fCells, d)
				continue
			}
			if cellFullyCovered(shape, cfg.cellBounds(gx, gy)) {
				fCells = append(fCells, d)
			}
		}
	}

	return Data{A: buildSet(aCells), F: buildSet(fCells)}
}

// cellFullyCovered tests whether cell lies entirely inside shape's area, by
// point-in-area testing the four corners and the cell's diagonal midpoint
// as a cheap edge-crossing proxy (spec.md §4.3: "tested by point-in-area of
// the four corners plus edge test").
func cellFullyCovered(shape *geometry.Shape, cell geometry.MBR) bool {
	corners := []geometry.Vertex{
		{X: cell.XMin, Y: cell.YMin}, {X: cell.XMax, Y: cell.YMin},
		{X: cell.XMax, Y: cell.YMax}, {X: cell.XMin, Y: cell.YMax},
	}
	for _, c := range corners {
		if refine.PointInPolygon(c, shape) < 1 {
			return false
		}
	}
	mid := geometry.Vertex{X: (cell.XMin + cell.XMax) / 2, Y: (cell.YMin + cell.YMax) / 2}
	return refine.PointInPolygon(mid, shape) >= 0
}

func buildSet(cells []uint32) interval.Set {
	if len(cells) == 0 {
		return interval.Set{}
	}
	sorted := append([]uint32(nil), cells...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })
	var b interval.Builder
	prev := sorted[0] - 1 // sentinel that never equals a real first cell
	first := true
	for _, c := range sorted {
		if !first && c == prev {
			continue
		}
		b.Add(c)
		prev = c
		first = false
	}
	return b.Build()
}

// StoreKey is the (sectionId, objectId) composite key april.Store indexes
// by, matching spec.md §4.3's "the filter iterates the common section ids
// between R and S object". Only sectionId=0 is populated in the current
// single-section design (see DESIGN.md Open Question decisions); the key
// is still composite so adding sections later is a config change, not a
// rewrite.
type StoreKey struct {
	SectionID int32
	ObjectID  uint64
}

// hashKey produces a fast, non-cryptographic map-sharding hash for
// StoreKey, the same blainsmith.com/go/seahash swap-in the teacher uses in
// encoding/bamprovider/concurrentMap to pick a shard for a hot map key.
func hashKey(k StoreKey) uint64 {
	var buf [12]byte
	buf[0] = byte(k.SectionID)
	buf[1] = byte(k.SectionID >> 8)
	buf[2] = byte(k.SectionID >> 16)
	buf[3] = byte(k.SectionID >> 24)
	for i := 0; i < 8; i++ {
		buf[4+i] = byte(k.ObjectID >> (8 * i))
	}
	return seahash.Sum64(buf[:])
}

// numStoreShards matches the teacher's concurrentMap shard count.
const numStoreShards = 1024

// shard buckets key into one of n shards using hashKey.
func shard(key StoreKey, n int) int {
	return int(hashKey(key) % uint64(n))
}

type storeShard struct {
	mu   sync.Mutex
	data map[StoreKey]Data
}

// Store holds the rasterized Data for every object of a dataset, keyed by
// (sectionId, objectId). It is sharded and safe for concurrent Put/Get,
// grounded on the teacher's concurrentMap
// (encoding/bamprovider/concurrentmap.go): Rasterize is CPU-bound per
// object, so dataset.Dataset.BuildIndex fans the rasterization loop out
// across goroutines with traverse.Each and needs a Store that tolerates
// concurrent writers.
type Store struct {
	shards [numStoreShards]storeShard
}

// NewStore constructs an empty Store.
func NewStore() *Store {
	s := &Store{}
	for i := range s.shards {
		s.shards[i].data = make(map[StoreKey]Data)
	}
	return s
}

// Put records the Data for key.
func (s *Store) Put(key StoreKey, d Data) {
	sh := &s.shards[shard(key, numStoreShards)]
	sh.mu.Lock()
	sh.data[key] = d
	sh.mu.Unlock()
}

// Get returns the Data for key and whether it was present.
func (s *Store) Get(key StoreKey) (Data, bool) {
	sh := &s.shards[shard(key, numStoreShards)]
	sh.mu.Lock()
	d, ok := sh.data[key]
	sh.mu.Unlock()
	return d, ok
}
