package partition

import (
	"github.com/grailbio/spatialjoin/geometry"
	"github.com/grailbio/spatialjoin/wire"
)

// Distributor accumulates per-worker wire.Batch payloads during a dataset's
// partition phase, flushing each worker's batch once it reaches batchSize
// objects or the caller explicitly flushes at end-of-stream (spec.md §4.4
// "Classification": "accumulated into a per-worker Batch and flushed when
// it reaches the configured size or when the dataset is exhausted").
type Distributor struct {
	grid      Grid
	dataType  geometry.DataType
	batchSize int
	pending   map[int32][]wire.BatchObject
}

// NewDistributor constructs a Distributor for one dataset's partition pass.
func NewDistributor(grid Grid, dataType geometry.DataType, batchSize int) *Distributor {
	if batchSize <= 0 {
		batchSize = 1
	}
	return &Distributor{grid: grid, dataType: dataType, batchSize: batchSize, pending: make(map[int32][]wire.BatchObject)}
}

// Add classifies shape, records its partition assignments, and enqueues it
// onto every owner worker's pending batch. It returns the set of workers
// whose batch just reached batchSize and should be flushed.
func (d *Distributor) Add(shape *geometry.Shape) ([]int32, error) {
	if err := Assign(d.grid, shape); err != nil {
		return nil, err
	}
	owners := make(map[int32][]wire.Partition)
	for _, ref := range shape.Partitions {
		w := d.grid.Owner(Unflatten(ref.PartitionID, d.grid.PartPPD))
		owners[w] = append(owners[w], wire.Partition{CellID: ref.PartitionID, Class: int32(ref.Class)})
	}
	obj := wire.BatchObject{
		RecID:  shape.RecID,
		Coords: toCoords(shape.SerialiseVertices()),
	}
	var ready []int32
	for w, partitions := range owners {
		o := obj
		o.Partitions = partitions
		d.pending[w] = append(d.pending[w], o)
		if len(d.pending[w]) >= d.batchSize {
			ready = append(ready, w)
		}
	}
	return ready, nil
}

func toCoords(flat []float64) []wire.Coord {
	out := make([]wire.Coord, 0, len(flat)/2)
	for i := 0; i < len(flat); i += 2 {
		out = append(out, wire.Coord{X: flat[i], Y: flat[i+1]})
	}
	return out
}

// Flush returns the accumulated Batch for worker w and clears its pending
// queue. A worker with nothing pending gets the empty-batch end-of-stream
// sentinel (spec.md §4.4 "Batch": "An empty batch (objectCount = 0) is the
// end-of-stream sentinel to the receiving Agent").
func (d *Distributor) Flush(w int32) wire.Batch {
	objs := d.pending[w]
	delete(d.pending, w)
	return wire.Batch{DataType: int32(d.dataType), Objects: objs}
}

// Workers returns the set of worker ranks with a non-empty pending queue.
func (d *Distributor) Workers() []int32 {
	out := make([]int32, 0, len(d.pending))
	for w := range d.pending {
		out = append(out, w)
	}
	return out
}

// FlushAll drains every worker's pending queue, including workers with
// nothing pending in [0, worldSize). A worker with nothing pending gets the
// empty end-of-stream sentinel; a worker whose final batch is non-empty
// gets that batch, and the caller sends the sentinel after it.
func (d *Distributor) FlushAll() map[int32]wire.Batch {
	out := make(map[int32]wire.Batch, d.grid.WorldSize)
	for w := int32(0); w < d.grid.WorldSize; w++ {
		out[w] = d.Flush(w)
	}
	return out
}
