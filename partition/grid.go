// Package partition implements the partitioning grid & distributor of
// spec.md §4.4: the distribution/fine grid model, object-to-cell
// classification, and the per-worker Batch accumulator that flushes
// wire.Batch payloads to the cluster's channel transport.
package partition

import (
	"github.com/grailbio/spatialjoin/geometry"
)

// Method selects how the dataspace is tiled (spec.md §3 "PartitioningMethod").
type Method int32

const (
	RoundRobin Method = iota
	TwoGrid
)

func (m Method) String() string {
	if m == TwoGrid {
		return "TWO_GRID"
	}
	return "ROUND_ROBIN"
}

// Grid tiles a global dataspace bounding rectangle into dPPD × dPPD
// distribution cells and, for TwoGrid, further tiles each distribution cell
// into pPPD × pPPD fine cells (spec.md §4.4 "Grid model").
type Grid struct {
	Method     Method
	Bounds     geometry.MBR
	DistPPD    int32
	PartPPD    int32
	WorldSize  int32
}

func (g Grid) cellSize() (w, h float64) {
	return (g.Bounds.XMax - g.Bounds.XMin) / float64(g.DistPPD), (g.Bounds.YMax - g.Bounds.YMin) / float64(g.DistPPD)
}

func (g Grid) fineCellSize() (w, h float64) {
	dw, dh := g.cellSize()
	return dw / float64(g.PartPPD), dh / float64(g.PartPPD)
}

func clampIndex(v, n int32) int32 {
	if v < 0 {
		return 0
	}
	if v >= n {
		return n - 1
	}
	return v
}

// DistCell returns the (i,j) distribution-grid indices the point (x,y)
// falls into, clamped to the grid bounds.
func (g Grid) DistCell(x, y float64) (i, j int32) {
	w, h := g.cellSize()
	i = clampIndex(int32((x-g.Bounds.XMin)/w), g.DistPPD)
	j = clampIndex(int32((y-g.Bounds.YMin)/h), g.DistPPD)
	return
}

// DistCellID flattens distribution cell (i,j) per spec.md §4.4: `j*dPPD+i`.
func (g Grid) DistCellID(i, j int32) int32 { return j*g.DistPPD + i }

// DistCellBounds returns the MBR of distribution cell id.
func (g Grid) DistCellBounds(id int32) geometry.MBR {
	w, h := g.cellSize()
	i := id % g.DistPPD
	j := id / g.DistPPD
	x0 := g.Bounds.XMin + float64(i)*w
	y0 := g.Bounds.YMin + float64(j)*h
	return geometry.MBR{XMin: x0, YMin: y0, XMax: x0 + w, YMax: y0 + h}
}

// CellID is the (distCellID, fineLocalID) pair this implementation fixes as
// the TWO_GRID partition-id convention (spec.md §9 Open Question: "Leave
// both options ... documented, but mandate that the chosen convention is
// fixed at partition time and carried through the persisted batch format").
// For RoundRobin, FineLocalID is always 0 and DistCellID is the sole
// partition id.
type CellID struct {
	DistCellID  int32
	FineLocalID int32
}

// Flatten produces the single int32 partitionId carried on the wire
// (wire.Partition.CellID), combining the two components so a ROUND_ROBIN
// and a TWO_GRID dataset never collide on id space within one dataset.
// partPPD <= 0 means there is no fine grid (ROUND_ROBIN): the flattened id
// is just the distribution cell id.
func (c CellID) Flatten(partPPD int32) int32 {
	if partPPD <= 0 {
		return c.DistCellID
	}
	return c.DistCellID*partPPD*partPPD + c.FineLocalID
}

// Unflatten recovers a CellID from a flattened partitionId.
func Unflatten(id, partPPD int32) CellID {
	if partPPD <= 0 {
		return CellID{DistCellID: id}
	}
	n := partPPD * partPPD
	return CellID{DistCellID: id / n, FineLocalID: id % n}
}

// Cells returns every CellID whose cell intersects m, plus each cell's MBR,
// the set partition/'s Classification step assigns (object, cell, class)
// triples for (spec.md §4.4 "Classification").
func (g Grid) Cells(m geometry.MBR) []CellWithBounds {
	var out []CellWithBounds
	switch g.Method {
	case RoundRobin:
		i0, j0 := g.DistCell(m.XMin, m.YMin)
		i1, j1 := g.DistCell(m.XMax, m.YMax)
		for j := j0; j <= j1; j++ {
			for i := i0; i <= i1; i++ {
				id := g.DistCellID(i, j)
				out = append(out, CellWithBounds{
					Cell:   CellID{DistCellID: id},
					Bounds: g.DistCellBounds(id),
				})
			}
		}
	case TwoGrid:
		i0, j0 := g.DistCell(m.XMin, m.YMin)
		i1, j1 := g.DistCell(m.XMax, m.YMax)
		for j := j0; j <= j1; j++ {
			for i := i0; i <= i1; i++ {
				distID := g.DistCellID(i, j)
				distBounds := g.DistCellBounds(distID)
				out = append(out, g.fineCells(distID, distBounds, m)...)
			}
		}
	}
	return out
}

func (g Grid) fineCells(distID int32, distBounds geometry.MBR, m geometry.MBR) []CellWithBounds {
	fw, fh := g.fineCellSize()
	lo := func(v, base float64) int32 { return clampIndex(int32((v-base)/fw), g.PartPPD) }
	loY := func(v, base float64) int32 { return clampIndex(int32((v-base)/fh), g.PartPPD) }

	xMin := m.XMin
	if xMin < distBounds.XMin {
		xMin = distBounds.XMin
	}
	xMax := m.XMax
	if xMax > distBounds.XMax {
		xMax = distBounds.XMax
	}
	yMin := m.YMin
	if yMin < distBounds.YMin {
		yMin = distBounds.YMin
	}
	yMax := m.YMax
	if yMax > distBounds.YMax {
		yMax = distBounds.YMax
	}

	fi0 := lo(xMin, distBounds.XMin)
	fi1 := lo(xMax, distBounds.XMin)
	fj0 := loY(yMin, distBounds.YMin)
	fj1 := loY(yMax, distBounds.YMin)

	var out []CellWithBounds
	for fj := fj0; fj <= fj1; fj++ {
		for fi := fi0; fi <= fi1; fi++ {
			localID := fj*g.PartPPD + fi
			x0 := distBounds.XMin + float64(fi)*fw
			y0 := distBounds.YMin + float64(fj)*fh
			out = append(out, CellWithBounds{
				Cell:   CellID{DistCellID: distID, FineLocalID: localID},
				Bounds: geometry.MBR{XMin: x0, YMin: y0, XMax: x0 + fw, YMax: y0 + fh},
			})
		}
	}
	return out
}

// CellWithBounds pairs a CellID with its cell's MBR.
type CellWithBounds struct {
	Cell   CellID
	Bounds geometry.MBR
}

// Owner computes ownerRank = cellId mod worldSize (spec.md §4.4 "Ownership"),
// using the flattened partition id so TWO_GRID ownership still distributes
// evenly across the distribution-grid component.
func (g Grid) Owner(c CellID) int32 {
	if g.WorldSize <= 0 {
		return 0
	}
	id := c.DistCellID
	if g.Method == TwoGrid {
		id = c.Flatten(g.PartPPD)
	}
	owner := id % g.WorldSize
	if owner < 0 {
		owner += g.WorldSize
	}
	return owner
}
