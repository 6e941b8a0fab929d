package wire

import (
	"bytes"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBatchRoundTrip(t *testing.T) {
	b := Batch{
		DataType: 2,
		Objects: []BatchObject{
			{
				RecID:      42,
				Partitions: []Partition{{CellID: 7, Class: 0}, {CellID: 8, Class: 2}},
				Coords:     []Coord{{X: 1.5, Y: -2.5}, {X: 3, Y: 4}},
			},
			{
				RecID:      43,
				Partitions: nil,
				Coords:     []Coord{{X: 0, Y: 0}},
			},
		},
	}
	got := UnmarshalBatch(b.Marshal())
	assert.Equal(t, b, got)
}

func TestBatchEmpty(t *testing.T) {
	b := Batch{DataType: 0}
	got := UnmarshalBatch(b.Marshal())
	assert.Equal(t, 0, got.Len())
}

func TestEnvelopeRoundTrip(t *testing.T) {
	b := Batch{DataType: 1, Objects: []BatchObject{{RecID: 1, Coords: []Coord{{X: 5, Y: 6}}}}}
	var buf bytes.Buffer
	want := Envelope{SourceRank: 3, Tag: TagBatchLineString, Payload: b.Marshal()}
	require.NoError(t, WriteEnvelope(&buf, want))

	got, err := ReadEnvelope(&buf)
	require.NoError(t, err)
	assert.Equal(t, want, got)

	_, err = ReadEnvelope(&buf)
	assert.Equal(t, io.EOF, err)
}
