package cluster

import (
	"bufio"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/grailbio/spatialjoin/dataset"
	"github.com/grailbio/spatialjoin/geometry"
	"github.com/grailbio/spatialjoin/partition"
	"github.com/grailbio/spatialjoin/query"
	"github.com/grailbio/spatialjoin/status"
	"github.com/grailbio/spatialjoin/wire"
)

// Driver is spec.md §4.1's "client-linked process. Issues top-level API
// calls, originates every request, consumes every final result. Holds no
// geometry." It talks to its HostController by direct Go method call
// rather than a serialized Transport hop — the Host↔Controller edge (one
// per rank, the Host's own Agent included) already exercises the
// wire.Envelope/Transport path (worker.go, host.go), and re-serializing the same typed calls here would
// not exercise any additional protocol logic, only add a needless copy.
// See DESIGN.md for the parallel choice on the Agent↔Controller edge.
type Driver struct {
	host   *HostController
	Report *Report
}

// NewDriver implements spec.md §6's init: spin up worldSize ranks' worth
// of Controller/Agent goroutines.
func NewDriver(workerCount int32) *Driver {
	return &Driver{host: NewHostController(workerCount), Report: NewReport()}
}

// PrepareDataset implements spec.md §6's prepareDataset.
func (d *Driver) PrepareDataset(nickname string, dataType geometry.DataType, fileType dataset.FileType, path string, persist bool, bounds geometry.MBR) (int32, error) {
	var id int32
	err := d.Report.Time(StagePrepare, func() error {
		var err error
		id, err = d.host.PrepareDataset(nickname, dataType, fileType, path, persist, bounds)
		return err
	})
	return id, err
}

// Partition implements spec.md §6's partition for a single dataset: grid
// and APRIL configuration are supplied by the caller (spec.md §6
// Configuration: partitioning.type/distPPD/partPPD/batchSize,
// april.N/compression), objects is the dataset's full object stream, read
// and classified Host-side per spec.md §4.4.
func (d *Driver) Partition(datasetID int32, grid partition.Grid, aprilCfg dataset.AprilConfig, objects []*geometry.Shape, dataType geometry.DataType) error {
	return d.Report.Time(StagePartition, func() error {
		return d.host.Partition(datasetID, grid, aprilCfg, objects, dataType)
	})
}

// BuildIndex implements spec.md §6's buildIndex.
func (d *Driver) BuildIndex(datasetIDs []int32) error {
	return d.Report.Time(StageBuildIndex, func() error {
		return d.host.BuildIndex(datasetIDs)
	})
}

// UnloadDataset implements spec.md §6's unloadDataset.
func (d *Driver) UnloadDataset(datasetIDs []int32) error {
	return d.Report.Time(StageUnload, func() error {
		return d.host.UnloadDataset(datasetIDs)
	})
}

// Query implements spec.md §6's query.
func (d *Driver) Query(q query.Query) (wire.QueryResult, error) {
	var r wire.QueryResult
	err := d.Report.Time(StageQuery, func() error {
		var err error
		r, err = d.host.Query(q)
		return err
	})
	return r, err
}

// QueryBatch implements spec.md §6's queryBatch: a homogeneous-predicate
// sequence of queries, run one at a time (the Host's own fan-out already
// parallelises each query's per-rank work; batching at this layer would
// only add cross-query interleaving with no benefit since queries don't
// share state), collected into a map keyed by QueryID.
func (d *Driver) QueryBatch(queries []query.Query) (map[int32]wire.QueryResult, error) {
	results := make(map[int32]wire.QueryResult, len(queries))
	for _, q := range queries {
		r, err := d.Query(q)
		if err != nil {
			return results, status.Wrap(status.Query, err, "cluster: queryBatch", q.QueryID)
		}
		results[q.QueryID] = r
	}
	return results, nil
}

// Finalize implements spec.md §6's finalize / §4.1's Termination.
func (d *Driver) Finalize() error {
	return d.host.Finalize()
}

// Now implements spec.md §6's time.now.
func (d *Driver) Now() float64 {
	return float64(time.Now().UnixNano()) / 1e9
}

// LoadRangeQueriesFromFile implements spec.md §6's loadRangeQueriesFromFile:
// one range window per line, `x0,y0,x1,y1`, the same flat-coordinate CSV
// convention dataset/persist.go's loadCSV already uses for object records.
func LoadRangeQueriesFromFile(r io.Reader, datasetID int32, resultType wire.ResultType) ([]query.Query, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), 16*1024*1024)
	var queries []query.Query
	var id int32
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		fields := strings.Split(line, ",")
		if len(fields) != 4 {
			return nil, status.New(status.Data, "cluster: malformed range query line", line)
		}
		vals, err := parseFloats(fields)
		if err != nil {
			return nil, err
		}
		window := geometry.MBR{XMin: vals[0], YMin: vals[1], XMax: vals[2], YMax: vals[3]}
		queries = append(queries, query.NewRangeQuery(id, datasetID, window, resultType))
		id++
	}
	if err := scanner.Err(); err != nil {
		return nil, status.Wrap(status.FileDisk, err, "cluster: read range queries")
	}
	return queries, nil
}

// LoadKNNQueriesFromFile implements spec.md §6's loadKNNQueriesFromFile:
// one reference point per line, `x,y`.
func LoadKNNQueriesFromFile(r io.Reader, datasetID int32, k int) ([]query.Query, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), 16*1024*1024)
	var queries []query.Query
	var id int32
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		fields := strings.Split(line, ",")
		if len(fields) != 2 {
			return nil, status.New(status.Data, "cluster: malformed kNN query line", line)
		}
		vals, err := parseFloats(fields)
		if err != nil {
			return nil, err
		}
		queries = append(queries, query.NewKNNQuery(id, datasetID, geometry.Vertex{X: vals[0], Y: vals[1]}, k))
		id++
	}
	if err := scanner.Err(); err != nil {
		return nil, status.Wrap(status.FileDisk, err, "cluster: read kNN queries")
	}
	return queries, nil
}

func parseFloats(fields []string) ([]float64, error) {
	vals := make([]float64, len(fields))
	for i, f := range fields {
		v, err := strconv.ParseFloat(strings.TrimSpace(f), 64)
		if err != nil {
			return nil, status.Wrap(status.Data, err, "cluster: parse coordinate", f)
		}
		vals[i] = v
	}
	return vals, nil
}
