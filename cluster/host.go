package cluster

import (
	"github.com/grailbio/base/log"
	"github.com/grailbio/base/sync/multierror"
	"github.com/grailbio/base/syncqueue"
	"github.com/grailbio/base/traverse"

	"github.com/grailbio/spatialjoin/dataset"
	"github.com/grailbio/spatialjoin/geometry"
	"github.com/grailbio/spatialjoin/partition"
	"github.com/grailbio/spatialjoin/query"
	"github.com/grailbio/spatialjoin/status"
	"github.com/grailbio/spatialjoin/wire"
)

// HostController is spec.md §4.1's rank-1 "sole recipient of Driver
// requests ... orchestrates cluster-wide actions by broadcasting to Worker
// Controllers and forwarding to its own Agent." It treats its own Agent
// (rank 1) exactly like any other worker rank — a WorkerController behind
// a Transport, run in its own goroutine — so broadcast/gather has no
// special case for the local rank.
type HostController struct {
	Registry *DatasetRegistry

	ranks       []int32
	transports  map[int32]Transport
	grids       map[int32]partition.Grid
	aprilCfg    map[int32]dataset.AprilConfig
	batchSize   int32
}

// NewHostController spins up worldSize ranks (rank 1 is the Host's own
// Agent; ranks 2..worldSize are Worker Controllers), each served by its own
// goroutine over an in-process ChanTransport pair (cluster/transport.go).
func NewHostController(worldSize int32) *HostController {
	h := &HostController{
		Registry:   NewDatasetRegistry(),
		transports: make(map[int32]Transport, worldSize),
		grids:      make(map[int32]partition.Grid),
		aprilCfg:   make(map[int32]dataset.AprilConfig),
		batchSize:  1000,
	}
	for rank := int32(1); rank <= worldSize; rank++ {
		hostSide, workerSide := NewChanTransportPair(64)
		h.ranks = append(h.ranks, rank)
		h.transports[rank] = hostSide
		wc := NewWorkerController(rank, workerSide)
		go func() {
			if err := wc.Serve(); err != nil {
				log.Debug.Printf("cluster: worker %d serve loop ended: %v", wc.Rank, err)
			}
		}()
	}
	return h
}

// broadcast sends build(rank) to every rank concurrently and gathers an
// ACK/NACK from each (spec.md §4.1 "Concurrent fan-out": "a thread pool
// whose size is min(worldSize, MAX_THREADS) ... a per-thread error set
// under cancellation semantics propagates the first failing rank's
// error"). traverse.Each supplies that bounded parallel-for with
// first-error cancellation directly.
func (h *HostController) broadcast(build func(rank int32) wire.Envelope) error {
	return traverse.Each(len(h.ranks), func(i int) error {
		rank := h.ranks[i]
		if err := h.transports[rank].Send(build(rank)); err != nil {
			return status.Wrap(status.Communication, err, "cluster: send to rank", rank)
		}
		resp, err := h.transports[rank].Recv()
		if err != nil {
			return status.Wrap(status.Communication, err, "cluster: recv from rank", rank)
		}
		if resp.Tag == wire.TagNack {
			return status.New(status.Communication, "cluster: NACK from rank", rank, string(resp.Payload))
		}
		return nil
	})
}

// gather is like broadcast but collects every rank's reply instead of
// short-circuiting on the first NACK (spec.md §4.1 "result-style ... Host
// gathers partial results, merges them"): a result-style operation still
// needs every successful rank's partial result even when another rank
// failed, so the Host can report which ranks failed rather than just the
// first. Replies are queued in rank order via syncqueue.OrderedQueue
// before merge, the same "producer writes out of order, consumer drains in
// order" discipline the teacher's ShardedBAMWriter uses for per-shard
// buffers.
func (h *HostController) gather(ranks []int32, build func(rank int32) wire.Envelope) ([]wire.Envelope, error) {
	errs := multierror.NewMultiError(len(ranks))
	queue := syncqueue.NewOrderedQueue(len(ranks))
	_ = traverse.Each(len(ranks), func(i int) error {
		rank := ranks[i]
		if err := h.transports[rank].Send(build(rank)); err != nil {
			errs.Add(status.Wrap(status.Communication, err, "cluster: send to rank", rank))
			_ = queue.Insert(i, wire.Envelope{})
			return nil
		}
		resp, err := h.transports[rank].Recv()
		if err != nil {
			errs.Add(status.Wrap(status.Communication, err, "cluster: recv from rank", rank))
			_ = queue.Insert(i, wire.Envelope{})
			return nil
		}
		if resp.Tag == wire.TagNack {
			errs.Add(status.New(status.Communication, "cluster: NACK from rank", rank, string(resp.Payload)))
		}
		_ = queue.Insert(i, resp)
		return nil
	})
	queue.Close(nil)
	replies := make([]wire.Envelope, 0, len(ranks))
	for {
		entry, ok, err := queue.Next()
		if err != nil || !ok {
			break
		}
		replies = append(replies, entry.(wire.Envelope))
	}
	return replies, errs.ErrorOrNil()
}

// PrepareDataset implements spec.md §6's prepareDataset: assign an id,
// broadcast PREPARE_DATASET, return the id on success.
func (h *HostController) PrepareDataset(nickname string, dataType geometry.DataType, fileType dataset.FileType, path string, persist bool, bounds geometry.MBR) (int32, error) {
	id := h.Registry.Assign(nickname)
	req := wire.PrepareDatasetRequest{
		DatasetID: id, Nickname: nickname, DataType: int32(dataType), FileType: int32(fileType),
		Path: path, Persist: persist, HasBounds: !bounds.Empty(),
		XMin: bounds.XMin, YMin: bounds.YMin, XMax: bounds.XMax, YMax: bounds.YMax,
	}
	if err := h.broadcast(func(int32) wire.Envelope {
		return wire.Envelope{Tag: wire.TagPrepareDataset, Payload: req.Marshal()}
	}); err != nil {
		h.Registry.Forget(nickname)
		return 0, err
	}
	return id, nil
}

// Partition implements spec.md §6's partition: compute (or accept) the
// dataspace grid for each dataset, announce it via GLOBAL_DATASPACE, then
// stream every object in flat, per-worker batches via a
// partition.Distributor, terminating each worker's stream with the
// empty-batch sentinel.
func (h *HostController) Partition(datasetID int32, grid partition.Grid, aprilCfg dataset.AprilConfig, objects []*geometry.Shape, dataType geometry.DataType) error {
	grid.WorldSize = int32(len(h.ranks))
	h.grids[datasetID] = grid
	h.aprilCfg[datasetID] = aprilCfg

	gd := wire.GlobalDataspace{
		DatasetID: datasetID, Method: int32(grid.Method),
		XMin: grid.Bounds.XMin, YMin: grid.Bounds.YMin, XMax: grid.Bounds.XMax, YMax: grid.Bounds.YMax,
		DistPPD: grid.DistPPD, PartPPD: grid.PartPPD, WorldSize: grid.WorldSize, BatchSize: h.batchSize,
		AprilEnabled: aprilCfg.Enabled, AprilOrder: int32(aprilCfg.Order),
	}
	for _, rank := range h.ranks {
		if err := h.transports[rank].Send(wire.Envelope{Tag: wire.TagGlobalDataspace, Payload: gd.Marshal()}); err != nil {
			return status.Wrap(status.Communication, err, "cluster: send GLOBAL_DATASPACE to rank", rank)
		}
	}

	dist := partition.NewDistributor(grid, dataType, int(h.batchSize))
	for _, shape := range objects {
		ready, err := dist.Add(shape)
		if err != nil {
			return status.Wrap(status.Partitioning, err, "cluster: classify object", shape.RecID)
		}
		for _, w := range ready {
			if err := h.sendBatch(w, dataType, dist.Flush(w)); err != nil {
				return err
			}
		}
	}
	for w, batch := range dist.FlushAll() {
		if err := h.sendBatch(w, dataType, batch); err != nil {
			return err
		}
		// A final flush that still carried objects is not the sentinel;
		// close that worker's stream with an explicit empty batch.
		if batch.Len() > 0 {
			if err := h.sendBatch(w, dataType, wire.Batch{DataType: int32(dataType)}); err != nil {
				return err
			}
		}
	}

	// Every worker already replied to its own stream's empty-batch sentinel
	// (wc.dispatch's BatchPoint/.../Polygon case); gather those ACK/NACKs
	// without sending anything further.
	return h.recvAcks()
}

// recvAcks reads one reply per rank concurrently, failing on the first
// NACK or transport error (spec.md §4.1 "Concurrent fan-out" cancellation
// semantics), used where the triggering message was sent earlier in the
// operation rather than immediately before the gather.
func (h *HostController) recvAcks() error {
	return traverse.Each(len(h.ranks), func(i int) error {
		rank := h.ranks[i]
		resp, err := h.transports[rank].Recv()
		if err != nil {
			return status.Wrap(status.Communication, err, "cluster: recv from rank", rank)
		}
		if resp.Tag == wire.TagNack {
			return status.New(status.Communication, "cluster: NACK from rank", rank, string(resp.Payload))
		}
		return nil
	})
}

// sendBatch delivers one flushed wire.Batch to worker rank w+1 (grid
// ownership ranks are 0-based per spec.md §4.4 "Ownership"; h.ranks is
// 1-based, the Host occupying rank 1).
func (h *HostController) sendBatch(w int32, dataType geometry.DataType, batch wire.Batch) error {
	rank := w + 1
	tag := wire.BatchTagForDataType(int32(dataType))
	return h.transports[rank].Send(wire.Envelope{Tag: tag, Payload: batch.Marshal()})
}

// BuildIndex implements spec.md §6's buildIndex: broadcast BUILD_INDEX for
// every named dataset id.
func (h *HostController) BuildIndex(datasetIDs []int32) error {
	payload := wire.IDList{IDs: datasetIDs}.Marshal()
	return h.broadcast(func(int32) wire.Envelope {
		return wire.Envelope{Tag: wire.TagBuildIndex, Payload: payload}
	})
}

// UnloadDataset implements spec.md §6's unloadDataset.
func (h *HostController) UnloadDataset(datasetIDs []int32) error {
	payload := wire.IDList{IDs: datasetIDs}.Marshal()
	return h.broadcast(func(int32) wire.Envelope {
		return wire.Envelope{Tag: wire.TagUnloadDataset, Payload: payload}
	})
}

// Query implements spec.md §6's query / §4.5's dispatch: join and kNN
// queries broadcast to every worker and merge partial results; range
// queries go only to workers owning a partition that intersects the
// window.
func (h *HostController) Query(q query.Query) (wire.QueryResult, error) {
	if err := q.Validate(); err != nil {
		return wire.QueryResult{}, err
	}
	qw := queryToWire(q)
	targets := h.queryTargets(q)
	if len(targets) == 0 {
		return wire.QueryResult{QueryID: q.QueryID, QueryType: q.Kind, ResultType: q.ResultType}, nil
	}

	replies, gatherErr := h.gather(targets, func(int32) wire.Envelope {
		return wire.Envelope{Tag: wire.TagQuery, Payload: qw.Marshal()}
	})

	merged := wire.QueryResult{QueryID: q.QueryID, QueryType: q.Kind, ResultType: q.ResultType}
	var knn []wire.KNNResult
	for _, e := range replies {
		if e.Tag != wire.TagQueryResult {
			continue
		}
		r := wire.UnmarshalQueryResult(e.Payload)
		if q.Kind == wire.QueryKNN {
			knn = query.MergeKNN(knn, r.KNN, q.K)
			continue
		}
		query.MergeResults(&merged, r)
	}
	if q.Kind == wire.QueryKNN {
		merged.KNN = knn
	}
	return merged, gatherErr
}

// queryTargets selects which ranks a Query is sent to (spec.md §4.5
// "Dispatch"): join and kNN broadcast to every rank; range goes only to
// ranks owning a cell the window intersects, using the grid the Host
// already holds for that dataset rather than asking each worker.
func (h *HostController) queryTargets(q query.Query) []int32 {
	if q.Kind != wire.QueryRange {
		return h.ranks
	}
	grid, ok := h.grids[q.DatasetID]
	if !ok {
		return h.ranks
	}
	owners := make(map[int32]bool)
	for _, c := range grid.Cells(q.Window) {
		owners[grid.Owner(c.Cell)+1] = true // ranks are 1-based; owners are 0-based
	}
	targets := make([]int32, 0, len(owners))
	for _, rank := range h.ranks {
		if owners[rank] {
			targets = append(targets, rank)
		}
	}
	return targets
}

// Finalize implements spec.md §4.1's Termination: broadcast FIN and close
// every rank's transport. Best-effort: any NACK is logged, not surfaced.
func (h *HostController) Finalize() error {
	for _, rank := range h.ranks {
		if err := h.transports[rank].Send(wire.Envelope{Tag: wire.TagFin}); err != nil {
			log.Error.Printf("cluster: FIN send to rank %d: %v", rank, err)
			continue
		}
		resp, err := h.transports[rank].Recv()
		if err != nil {
			log.Error.Printf("cluster: FIN recv from rank %d: %v", rank, err)
			continue
		}
		if resp.Tag == wire.TagNack {
			log.Error.Printf("cluster: FIN NACK from rank %d: %s", rank, string(resp.Payload))
		}
	}
	for _, rank := range h.ranks {
		_ = h.transports[rank].Close()
	}
	return nil
}
