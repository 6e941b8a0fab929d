package cluster

import (
	"sync"

	"github.com/grailbio/spatialjoin/dataset"
	"github.com/grailbio/spatialjoin/geometry"
	"github.com/grailbio/spatialjoin/partition"
	"github.com/grailbio/spatialjoin/query"
	"github.com/grailbio/spatialjoin/status"
	"github.com/grailbio/spatialjoin/wire"
)

// Agent is spec.md §4.1's "worker that actually holds geometry and
// executes CPU-bound work (partitioning, index build, APRIL generation,
// query evaluation)". One Agent serves one Controller (Host or Worker); the
// Controller↔Agent edge is a direct method call here rather than a
// separate channel, since "one Agent per Controller; parent–child
// relationship" (§4.1) is tighter coupling than the Host↔Controller edge,
// which does cross a Transport (see worker.go, host.go); the
// Driver↔Host edge is a direct method call too (driver.go). This is a
// documented scope simplification: a
// production deployment could still put the agent-comm edge on its own
// Transport without changing Agent's interface.
type Agent struct {
	mu       sync.Mutex
	datasets map[int32]*dataset.Dataset
	grids    map[int32]partition.Grid
	evaluator *query.Evaluator
}

// NewAgent constructs an empty Agent, ready to receive PrepareDataset.
func NewAgent() *Agent {
	return &Agent{
		datasets:  make(map[int32]*dataset.Dataset),
		grids:     make(map[int32]partition.Grid),
		evaluator: query.NewEvaluator(),
	}
}

func (a *Agent) lookup(id int32) (*dataset.Dataset, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	d, ok := a.datasets[id]
	if !ok {
		return nil, status.New(status.Data, "cluster: unknown dataset id at agent", id)
	}
	return d, nil
}

// PrepareDataset records a new dataset's metadata (spec.md §4.1's
// PREPARE_DATASET row: "record metadata").
func (a *Agent) PrepareDataset(req wire.PrepareDatasetRequest) error {
	bounds := geometry.MBR{}
	if req.HasBounds {
		bounds = geometry.MBR{XMin: req.XMin, YMin: req.YMin, XMax: req.XMax, YMax: req.YMax}
	}
	d := dataset.New(req.DatasetID, req.Nickname, geometry.DataType(req.DataType), dataset.FileType(req.FileType), req.Path, req.Persist, bounds)
	a.mu.Lock()
	defer a.mu.Unlock()
	a.datasets[req.DatasetID] = d
	return nil
}

// SetGrid records the dataspace-wide grid and APRIL configuration a
// GLOBAL_DATASPACE message announces ahead of a dataset's batch stream.
func (a *Agent) SetGrid(datasetID int32, grid partition.Grid, april dataset.AprilConfig) error {
	d, err := a.lookup(datasetID)
	if err != nil {
		return err
	}
	d.April = april
	a.mu.Lock()
	a.grids[datasetID] = grid
	a.mu.Unlock()
	return nil
}

// IngestBatch stores every object of a streamed wire.Batch (spec.md §4.4
// "Streaming discipline": "the receiver deserialises and stores objects in
// its local two-layer index synchronously"). Classification into the
// two-layer index itself happens once at FinishPartition, against the same
// deterministic grid every Agent was given, rather than trusting the
// Batch's own Partitions field (computed host-side only to pick this
// object's owning worker, per partition.Distributor.Add).
func (a *Agent) IngestBatch(datasetID int32, batch wire.Batch) error {
	d, err := a.lookup(datasetID)
	if err != nil {
		return err
	}
	for _, obj := range batch.Objects {
		s := geometry.New(obj.RecID, d.DataType)
		flat := make([]float64, 0, len(obj.Coords)*2)
		for _, c := range obj.Coords {
			flat = append(flat, c.X, c.Y)
		}
		if err := s.SetFromFlatCoords(flat); err != nil {
			return status.Wrap(status.Data, err, "cluster: batch coordinates", obj.RecID)
		}
		if err := d.Ingest(s); err != nil {
			return err
		}
	}
	return nil
}

// FinishPartition runs spec.md §4.4's Classification step over every
// object IngestBatch has stored so far, triggered by the empty-batch
// end-of-stream sentinel.
func (a *Agent) FinishPartition(datasetID int32) error {
	d, err := a.lookup(datasetID)
	if err != nil {
		return err
	}
	a.mu.Lock()
	grid := a.grids[datasetID]
	a.mu.Unlock()
	return d.Partition(grid)
}

// BuildIndex runs spec.md §4.2/§4.3's index and APRIL build for datasetID.
func (a *Agent) BuildIndex(datasetID int32) error {
	d, err := a.lookup(datasetID)
	if err != nil {
		return err
	}
	return d.BuildIndex()
}

// Unload releases datasetID's in-memory state.
func (a *Agent) Unload(datasetID int32) error {
	d, err := a.lookup(datasetID)
	if err != nil {
		return err
	}
	d.Unload()
	a.mu.Lock()
	delete(a.datasets, datasetID)
	delete(a.grids, datasetID)
	a.mu.Unlock()
	return nil
}

// UnloadAll releases every dataset this Agent holds (spec.md §4.1
// Termination: "each Agent releases dataset resources").
func (a *Agent) UnloadAll() {
	a.mu.Lock()
	ids := make([]int32, 0, len(a.datasets))
	for id := range a.datasets {
		ids = append(ids, id)
	}
	a.mu.Unlock()
	for _, id := range ids {
		_ = a.Unload(id)
	}
}

// EvaluateRange, EvaluateJoin, and EvaluateKNN run the local evaluation
// pipeline of spec.md §4.5 against this Agent's own dataset shards.

func (a *Agent) EvaluateRange(q query.Query) (wire.QueryResult, error) {
	d, err := a.lookup(q.DatasetID)
	if err != nil {
		return wire.QueryResult{}, err
	}
	return a.evaluator.EvaluateRange(q, d)
}

func (a *Agent) EvaluateJoin(q query.Query) (wire.QueryResult, error) {
	r, err := a.lookup(q.DatasetID)
	if err != nil {
		return wire.QueryResult{}, err
	}
	s, err := a.lookup(q.OtherDatasetID)
	if err != nil {
		return wire.QueryResult{}, err
	}
	return a.evaluator.EvaluateJoin(q, r, s)
}

func (a *Agent) EvaluateKNN(q query.Query) (wire.QueryResult, error) {
	d, err := a.lookup(q.DatasetID)
	if err != nil {
		return wire.QueryResult{}, err
	}
	return a.evaluator.EvaluateKNN(q, d)
}
