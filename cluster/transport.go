package cluster

import (
	"github.com/golang/snappy"

	"github.com/grailbio/spatialjoin/status"
	"github.com/grailbio/spatialjoin/wire"
)

// Transport is one endpoint of one of spec.md §4.1's three logical
// channels (global intra-comm, controller comm, agent comm). Every
// operation's messages cross a Transport as a uniform wire.Envelope;
// payload decoding is left to the caller per tag, matching the spec's "the
// envelope is uniform" framing.
//
// A production deployment would implement Transport over a net.Conn (the
// same io.Reader/io.Writer framing wire.WriteEnvelope/ReadEnvelope already
// use); this module only ships the in-process ChanTransport, since no
// component here actually spawns a second OS process.
type Transport interface {
	Send(e wire.Envelope) error
	Recv() (wire.Envelope, error)
	Close() error
}

// ChanTransport is an in-process, in-memory Transport backed by a pair of
// buffered Go channels, the natural analogue of the teacher's channel-based
// fan-out (pileup/snp/pileup.go's per-shard result channel) for a logical
// link that never leaves one address space.
type ChanTransport struct {
	send   chan<- wire.Envelope
	recv   <-chan wire.Envelope
	closed chan struct{}
}

// NewChanTransportPair returns two ChanTransports, a and b, wired so every
// Send on one is a Recv on the other: a models one end of a logical
// channel (e.g. the Host's side of Controller comm to rank r), b the
// other (that Worker Controller's side).
func NewChanTransportPair(bufSize int) (a, b *ChanTransport) {
	ab := make(chan wire.Envelope, bufSize)
	ba := make(chan wire.Envelope, bufSize)
	a = &ChanTransport{send: ab, recv: ba, closed: make(chan struct{})}
	b = &ChanTransport{send: ba, recv: ab, closed: make(chan struct{})}
	return a, b
}

// Send snappy-compresses the payload before handing the envelope to the
// channel: batch and query-result payloads are the bulk of what crosses
// this Transport, and snappy's block format carries its own length prefix,
// so Recv needs no separate uncompressed-size bookkeeping.
func (t *ChanTransport) Send(e wire.Envelope) error {
	if len(e.Payload) > 0 {
		e.Payload = snappy.Encode(nil, e.Payload)
	}
	select {
	case t.send <- e:
		return nil
	case <-t.closed:
		return status.New(status.Communication, "cluster: send on closed transport")
	}
}

func (t *ChanTransport) Recv() (wire.Envelope, error) {
	select {
	case e, ok := <-t.recv:
		if !ok {
			return wire.Envelope{}, status.New(status.Communication, "cluster: receive on closed transport")
		}
		if len(e.Payload) > 0 {
			payload, err := snappy.Decode(nil, e.Payload)
			if err != nil {
				return wire.Envelope{}, status.Wrap(status.Communication, err, "cluster: decompress payload")
			}
			e.Payload = payload
		}
		return e, nil
	case <-t.closed:
		return wire.Envelope{}, status.New(status.Communication, "cluster: receive on closed transport")
	}
}

func (t *ChanTransport) Close() error {
	select {
	case <-t.closed:
	default:
		close(t.closed)
	}
	return nil
}
