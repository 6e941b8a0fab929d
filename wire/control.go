package wire

// control.go adds payload types for the instruction/data tags of spec.md §6
// that Batch and QueryResult don't already cover: PREPARE_DATASET,
// GLOBAL_DATASPACE, and the dataset-id list BUILD_INDEX/UNLOAD_DATASET
// carry, plus QUERY. Same fixed-width codec
// style as batch.go/queryresult.go.

// PrepareDatasetRequest is the PREPARE_DATASET payload (spec.md §6
// "prepareDataset ... path, fileType, dataType, persist flag, optional
// explicit MBR"). DatasetID is assigned by the Host before broadcast, so
// every Agent records metadata under the same id.
type PrepareDatasetRequest struct {
	DatasetID int32
	Nickname  string
	DataType  int32
	FileType  int32
	Path      string
	Persist   bool
	HasBounds bool
	XMin, YMin, XMax, YMax float64
}

func (r PrepareDatasetRequest) Marshal() []byte {
	buf := newWriteBuffer(64 + len(r.Nickname) + len(r.Path))
	buf.PutInt32(r.DatasetID)
	buf.PutString(r.Nickname)
	buf.PutInt32(r.DataType)
	buf.PutInt32(r.FileType)
	buf.PutString(r.Path)
	buf.PutBool(r.Persist)
	buf.PutBool(r.HasBounds)
	buf.PutFloat64(r.XMin)
	buf.PutFloat64(r.YMin)
	buf.PutFloat64(r.XMax)
	buf.PutFloat64(r.YMax)
	return buf.Finish()
}

func UnmarshalPrepareDatasetRequest(data []byte) PrepareDatasetRequest {
	buf := newBuffer(data)
	var r PrepareDatasetRequest
	r.DatasetID = buf.Int32()
	r.Nickname = buf.String()
	r.DataType = buf.Int32()
	r.FileType = buf.Int32()
	r.Path = buf.String()
	r.Persist = buf.Bool()
	r.HasBounds = buf.Bool()
	r.XMin = buf.Float64()
	r.YMin = buf.Float64()
	r.XMax = buf.Float64()
	r.YMax = buf.Float64()
	return r
}

// IDList is the payload of the instructions that name a set of dataset
// ids, BUILD_INDEX and UNLOAD_DATASET (spec.md §6 Driver API: "list of
// datasetIds"), and of a Worker's ACK to PREPARE_DATASET (the prepared id).
type IDList struct {
	IDs []int32
}

func (l IDList) Marshal() []byte {
	buf := newWriteBuffer(4 + 4*len(l.IDs))
	buf.PutInt32(int32(len(l.IDs)))
	for _, id := range l.IDs {
		buf.PutInt32(id)
	}
	return buf.Finish()
}

func UnmarshalIDList(data []byte) IDList {
	buf := newBuffer(data)
	n := buf.Int32()
	ids := make([]int32, n)
	for i := range ids {
		ids[i] = buf.Int32()
	}
	return IDList{IDs: ids}
}

// GlobalDataspace is the GLOBAL_DATASPACE payload: the dataspace-wide grid
// and APRIL configuration the Host computes once bounds are known for
// every dataset in a PARTITION/BUILD_INDEX batch (spec.md §4.1 "PARTITION
// | DATASET_META, PARTITION, then streamed batches").
type GlobalDataspace struct {
	DatasetID              int32
	Method                 int32
	XMin, YMin, XMax, YMax float64
	DistPPD, PartPPD       int32
	WorldSize              int32
	BatchSize              int32
	AprilEnabled           bool
	AprilOrder             int32
}

func (g GlobalDataspace) Marshal() []byte {
	buf := newWriteBuffer(52)
	buf.PutInt32(g.DatasetID)
	buf.PutInt32(g.Method)
	buf.PutFloat64(g.XMin)
	buf.PutFloat64(g.YMin)
	buf.PutFloat64(g.XMax)
	buf.PutFloat64(g.YMax)
	buf.PutInt32(g.DistPPD)
	buf.PutInt32(g.PartPPD)
	buf.PutInt32(g.WorldSize)
	buf.PutInt32(g.BatchSize)
	buf.PutBool(g.AprilEnabled)
	buf.PutInt32(g.AprilOrder)
	return buf.Finish()
}

func UnmarshalGlobalDataspace(data []byte) GlobalDataspace {
	buf := newBuffer(data)
	var g GlobalDataspace
	g.DatasetID = buf.Int32()
	g.Method = buf.Int32()
	g.XMin = buf.Float64()
	g.YMin = buf.Float64()
	g.XMax = buf.Float64()
	g.YMax = buf.Float64()
	g.DistPPD = buf.Int32()
	g.PartPPD = buf.Int32()
	g.WorldSize = buf.Int32()
	g.BatchSize = buf.Int32()
	g.AprilEnabled = buf.Bool()
	g.AprilOrder = buf.Int32()
	return g
}

// QueryWire is the QUERY payload: a flat encoding of query.Query's fields.
// It lives in wire/ rather than query/ because query/ already depends on
// wire/ for QueryResult/QueryType/ResultType, and wire/ must not depend
// back on query/ (cluster/ does the QueryWire<->query.Query conversion).
type QueryWire struct {
	QueryID        int32
	Kind           int32
	ResultType     int32
	DatasetID      int32
	OtherDatasetID int32
	XMin, YMin, XMax, YMax float64
	JoinMode  int32
	Predicate int32
	Threshold float64
	PointX, PointY float64
	K int32
}

func (q QueryWire) Marshal() []byte {
	buf := newWriteBuffer(96)
	buf.PutInt32(q.QueryID)
	buf.PutInt32(q.Kind)
	buf.PutInt32(q.ResultType)
	buf.PutInt32(q.DatasetID)
	buf.PutInt32(q.OtherDatasetID)
	buf.PutFloat64(q.XMin)
	buf.PutFloat64(q.YMin)
	buf.PutFloat64(q.XMax)
	buf.PutFloat64(q.YMax)
	buf.PutInt32(q.JoinMode)
	buf.PutInt32(q.Predicate)
	buf.PutFloat64(q.Threshold)
	buf.PutFloat64(q.PointX)
	buf.PutFloat64(q.PointY)
	buf.PutInt32(q.K)
	return buf.Finish()
}

func UnmarshalQueryWire(data []byte) QueryWire {
	buf := newBuffer(data)
	var q QueryWire
	q.QueryID = buf.Int32()
	q.Kind = buf.Int32()
	q.ResultType = buf.Int32()
	q.DatasetID = buf.Int32()
	q.OtherDatasetID = buf.Int32()
	q.XMin = buf.Float64()
	q.YMin = buf.Float64()
	q.XMax = buf.Float64()
	q.YMax = buf.Float64()
	q.JoinMode = buf.Int32()
	q.Predicate = buf.Int32()
	q.Threshold = buf.Float64()
	q.PointX = buf.Float64()
	q.PointY = buf.Float64()
	q.K = buf.Int32()
	return q
}
