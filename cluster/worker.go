package cluster

import (
	"github.com/grailbio/base/log"

	"github.com/grailbio/spatialjoin/dataset"
	"github.com/grailbio/spatialjoin/geometry"
	"github.com/grailbio/spatialjoin/partition"
	"github.com/grailbio/spatialjoin/query"
	"github.com/grailbio/spatialjoin/status"
	"github.com/grailbio/spatialjoin/wire"
)

// WorkerController is spec.md §4.1's "Worker Controller (ranks 2…N):
// receives broadcasts from the Host, forwards work to its local Agent,
// returns ACK/NACK or a partial result." Rank 1 (the Host's own Agent) is
// served the same way: HostController runs a WorkerController goroutine
// behind a ChanTransport for rank 1 too, since the Host "forwards to its own Agent"
// exactly like any other Controller (§4.1).
type WorkerController struct {
	Rank      int32
	Agent     *Agent
	transport Transport

	streamDatasetID int32
}

// NewWorkerController constructs a Controller at rank, forwarding to a
// fresh Agent over t (the Controller-comm or global-intra-comm endpoint
// this rank receives broadcasts on).
func NewWorkerController(rank int32, t Transport) *WorkerController {
	return &WorkerController{Rank: rank, Agent: NewAgent(), transport: t}
}

// Serve processes envelopes from the Controller's transport until FIN or a
// transport error, mirroring spec.md §4.1's three-phase protocol: an
// instruction or data tag triggers Agent work, and each operation's final
// message gets a single ACK/NACK or result reply.
func (wc *WorkerController) Serve() error {
	for {
		e, err := wc.transport.Recv()
		if err != nil {
			return err
		}
		fin, err := wc.dispatch(e)
		if err != nil {
			log.Error.Printf("cluster: worker %d: %v", wc.Rank, err)
		}
		if fin {
			return nil
		}
	}
}

// dispatch handles a single envelope, replying on wc.transport where the
// protocol calls for one. fin reports whether this was the FIN message.
func (wc *WorkerController) dispatch(e wire.Envelope) (fin bool, err error) {
	switch e.Tag {
	case wire.TagPrepareDataset:
		req := wire.UnmarshalPrepareDatasetRequest(e.Payload)
		err = wc.Agent.PrepareDataset(req)
		wc.reply(err, wire.IDList{IDs: []int32{req.DatasetID}}.Marshal())

	case wire.TagGlobalDataspace:
		gd := wire.UnmarshalGlobalDataspace(e.Payload)
		wc.streamDatasetID = gd.DatasetID
		grid := partition.Grid{
			Method:    partition.Method(gd.Method),
			Bounds:    geometry.MBR{XMin: gd.XMin, YMin: gd.YMin, XMax: gd.XMax, YMax: gd.YMax},
			DistPPD:   gd.DistPPD,
			PartPPD:   gd.PartPPD,
			WorldSize: gd.WorldSize,
		}
		april := dataset.AprilConfig{Enabled: gd.AprilEnabled, Order: uint(gd.AprilOrder)}
		if err = wc.Agent.SetGrid(gd.DatasetID, grid, april); err != nil {
			wc.reply(err, nil)
		}

	case wire.TagBatchPoint, wire.TagBatchLineString, wire.TagBatchRectangle, wire.TagBatchPolygon:
		batch := wire.UnmarshalBatch(e.Payload)
		if batch.Len() == 0 {
			err = wc.Agent.FinishPartition(wc.streamDatasetID)
			wc.reply(err, nil)
			break
		}
		if err = wc.Agent.IngestBatch(wc.streamDatasetID, batch); err != nil {
			wc.reply(err, nil)
		}

	case wire.TagBuildIndex:
		ids := wire.UnmarshalIDList(e.Payload)
		for _, id := range ids.IDs {
			if err = wc.Agent.BuildIndex(id); err != nil {
				break
			}
		}
		wc.reply(err, nil)

	case wire.TagUnloadDataset:
		ids := wire.UnmarshalIDList(e.Payload)
		for _, id := range ids.IDs {
			if e := wc.Agent.Unload(id); e != nil {
				err = e
			}
		}
		wc.reply(err, nil)

	case wire.TagQuery:
		var result wire.QueryResult
		qw := wire.UnmarshalQueryWire(e.Payload)
		q := queryFromWire(qw)
		switch q.Kind {
		case wire.QueryRange:
			result, err = wc.Agent.EvaluateRange(q)
		case wire.QueryJoin:
			result, err = wc.Agent.EvaluateJoin(q)
		case wire.QueryKNN:
			result, err = wc.Agent.EvaluateKNN(q)
		default:
			err = status.New(status.Query, "cluster: invalid query kind on wire", q.Kind)
		}
		if err != nil {
			wc.reply(err, nil)
		} else {
			_ = wc.transport.Send(wire.Envelope{SourceRank: wc.Rank, Tag: wire.TagQueryResult, Payload: result.Marshal()})
		}

	case wire.TagFin:
		wc.Agent.UnloadAll()
		wc.reply(nil, nil)
		return true, nil

	default:
		err = status.New(status.Communication, "cluster: unexpected tag at worker", e.Tag.String())
		wc.reply(err, nil)
	}
	return false, err
}

// reply sends ACK (payload, if any) or NACK (err's message) back over
// wc.transport, the uniform response-tag contract of spec.md §4.1.
func (wc *WorkerController) reply(err error, payload []byte) {
	if err != nil {
		_ = wc.transport.Send(wire.Envelope{SourceRank: wc.Rank, Tag: wire.TagNack, Payload: []byte(err.Error())})
		return
	}
	_ = wc.transport.Send(wire.Envelope{SourceRank: wc.Rank, Tag: wire.TagAck, Payload: payload})
}

// queryFromWire converts a wire.QueryWire into a query.Query. It lives here
// rather than in wire/ or query/ to avoid either package depending on the
// other beyond what they already need (see wire/control.go's QueryWire
// doc comment).
func queryFromWire(qw wire.QueryWire) query.Query {
	return query.Query{
		QueryID:        qw.QueryID,
		Kind:           wire.QueryType(qw.Kind),
		ResultType:     wire.ResultType(qw.ResultType),
		DatasetID:      qw.DatasetID,
		OtherDatasetID: qw.OtherDatasetID,
		Window:         geometry.MBR{XMin: qw.XMin, YMin: qw.YMin, XMax: qw.XMax, YMax: qw.YMax},
		JoinMode:       query.JoinMode(qw.JoinMode),
		Predicate:      geometry.Predicate(qw.Predicate),
		Threshold:      qw.Threshold,
		Point:          geometry.Vertex{X: qw.PointX, Y: qw.PointY},
		K:              int(qw.K),
	}
}

// queryToWire is the inverse conversion, used by Driver/Host to place a
// query.Query on the wire.
func queryToWire(q query.Query) wire.QueryWire {
	return wire.QueryWire{
		QueryID:        q.QueryID,
		Kind:           int32(q.Kind),
		ResultType:     int32(q.ResultType),
		DatasetID:      q.DatasetID,
		OtherDatasetID: q.OtherDatasetID,
		XMin:           q.Window.XMin,
		YMin:           q.Window.YMin,
		XMax:           q.Window.XMax,
		YMax:           q.Window.YMax,
		JoinMode:       int32(q.JoinMode),
		Predicate:      int32(q.Predicate),
		Threshold:      q.Threshold,
		PointX:         q.Point.X,
		PointY:         q.Point.Y,
		K:              int32(q.K),
	}
}
