package wire

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPrepareDatasetRequestRoundTrip(t *testing.T) {
	req := PrepareDatasetRequest{
		DatasetID: 3, Nickname: "roads", DataType: 3, FileType: 0,
		Path: "s3://bucket/roads.wkt", Persist: true, HasBounds: true,
		XMin: -1, YMin: -2, XMax: 10, YMax: 20,
	}
	got := UnmarshalPrepareDatasetRequest(req.Marshal())
	assert.Equal(t, req, got)
}

func TestIDListRoundTrip(t *testing.T) {
	l := IDList{IDs: []int32{1, 2, 3}}
	assert.Equal(t, l, UnmarshalIDList(l.Marshal()))
}

func TestIDListEmptyRoundTrip(t *testing.T) {
	l := IDList{}
	got := UnmarshalIDList(l.Marshal())
	assert.Empty(t, got.IDs)
}

func TestGlobalDataspaceRoundTrip(t *testing.T) {
	g := GlobalDataspace{
		DatasetID: 2, Method: 1, XMin: 0, YMin: 0, XMax: 100, YMax: 100,
		DistPPD: 4, PartPPD: 8, WorldSize: 3, BatchSize: 500,
		AprilEnabled: true, AprilOrder: 12,
	}
	assert.Equal(t, g, UnmarshalGlobalDataspace(g.Marshal()))
}

func TestQueryWireRoundTrip(t *testing.T) {
	q := QueryWire{
		QueryID: 7, Kind: 1, ResultType: 0, DatasetID: 1, OtherDatasetID: 2,
		XMin: 1, YMin: 2, XMax: 3, YMax: 4, JoinMode: 2, Predicate: 0,
		Threshold: 5.5, PointX: 9, PointY: 10, K: 3,
	}
	assert.Equal(t, q, UnmarshalQueryWire(q.Marshal()))
}
