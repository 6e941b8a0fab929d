package partition

import (
	"github.com/grailbio/spatialjoin/geometry"
)

// ClassifyObject computes the (cell, class) triples shape's MBR belongs to,
// per spec.md §4.4's "Classification": for each cell the MBR intersects,
// compute its two-layer class per §3 and emit one record per
// (object, cell, class) triple.
func ClassifyObject(g Grid, shape *geometry.Shape) []ObjectCell {
	cells := g.Cells(shape.MBR)
	out := make([]ObjectCell, 0, len(cells))
	for _, c := range cells {
		class := geometry.ClassifyCell(shape.MBR, c.Bounds)
		out = append(out, ObjectCell{Cell: c.Cell, Class: class})
	}
	return out
}

// ObjectCell is one (cell, class) assignment for an object.
type ObjectCell struct {
	Cell  CellID
	Class geometry.Class
}

// Assign mutates shape in place, recording every (partitionId, class)
// triple via geometry.Shape.AddPartition (spec.md §8 invariant 1: "every
// Shape has a non-empty partition list; every (cellId, class) is unique
// within that list").
func Assign(g Grid, shape *geometry.Shape) error {
	partPPD := g.PartPPD
	for _, oc := range ClassifyObject(g, shape) {
		ref := geometry.PartitionRef{PartitionID: oc.Cell.Flatten(partPPD), Class: oc.Class}
		if err := shape.AddPartition(ref); err != nil {
			return err
		}
	}
	return nil
}
