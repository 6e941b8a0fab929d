// Package twolayer implements the two-layer spatial index of spec.md §4.2:
// per-partition class buckets (A/B/C/D) of Shape references, and the
// nine-way directed plane-sweep join that enumerates every candidate pair
// whose MBRs overlap exactly once across the partitions two datasets share.
package twolayer

import (
	"sort"

	"github.com/grailbio/spatialjoin/geometry"
)

// Partition holds the four ordered class sequences for one partition cell
// (spec.md §3 "Partition"). After BuildIndex, A and C are sorted ascending
// by MBR.YMin (spec.md §4.2 "Structure"); B and D need not be sorted.
type Partition struct {
	ID   int32
	Cell geometry.MBR

	A, B, C, D []*geometry.Shape
}

// NewPartition constructs an empty Partition for the given cell.
func NewPartition(id int32, cell geometry.MBR) *Partition {
	return &Partition{ID: id, Cell: cell}
}

// Add appends s to the sequence for class, per spec.md §3's class
// assignment rule (geometry.ClassifyCell computes the class).
func (p *Partition) Add(s *geometry.Shape, class geometry.Class) {
	switch class {
	case geometry.ClassA:
		p.A = append(p.A, s)
	case geometry.ClassB:
		p.B = append(p.B, s)
	case geometry.ClassC:
		p.C = append(p.C, s)
	case geometry.ClassD:
		p.D = append(p.D, s)
	}
}

// BuildIndex sorts the A and C sequences ascending by MBR.YMin, the
// invariant spec.md §8 property 2 requires post-build-index.
func (p *Partition) BuildIndex() {
	sortByYMin(p.A)
	sortByYMin(p.C)
}

func sortByYMin(shapes []*geometry.Shape) {
	sort.Slice(shapes, func(i, j int) bool { return shapes[i].MBR.YMin < shapes[j].MBR.YMin })
}

// Index is a per-dataset hash of Partition by partitionId (spec.md §3:
// "Partitions are stored in a per-dataset hash-keyed by partitionId").
type Index struct {
	partitions map[int32]*Partition
}

// NewIndex constructs an empty Index.
func NewIndex() *Index { return &Index{partitions: make(map[int32]*Partition)} }

// GetOrCreate returns the Partition for id, creating it with the given cell
// bounds if absent.
func (idx *Index) GetOrCreate(id int32, cell geometry.MBR) *Partition {
	p, ok := idx.partitions[id]
	if !ok {
		p = NewPartition(id, cell)
		idx.partitions[id] = p
	}
	return p
}

// Get returns the Partition for id, or nil if absent.
func (idx *Index) Get(id int32) *Partition { return idx.partitions[id] }

// BuildIndex runs Partition.BuildIndex over every partition.
func (idx *Index) BuildIndex() {
	for _, p := range idx.partitions {
		p.BuildIndex()
	}
}

// CommonPartitionIDs returns the partition ids present in both idx and
// other, the set the plane-sweep join iterates (spec.md §4.2: "For each
// partition id common to both datasets' indices").
func (idx *Index) CommonPartitionIDs(other *Index) []int32 {
	var ids []int32
	for id := range idx.partitions {
		if _, ok := other.partitions[id]; ok {
			ids = append(ids, id)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// Len returns the number of partitions in the index.
func (idx *Index) Len() int { return len(idx.partitions) }
