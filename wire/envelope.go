package wire

import (
	"encoding/binary"
	"fmt"
	"io"

	"github.com/grailbio/base/errors"
)

// Envelope is the uniform message header of spec.md §6: every message
// crossing a channel (Global intra-comm, Controller comm, Agent comm) is
// {sourceRank, tag, payload-length, payload-bytes}. Payload is left opaque
// here; callers decode it per Tag using Batch/QueryResult/etc.
type Envelope struct {
	SourceRank int32
	Tag        Tag
	Payload    []byte
}

// headerSize is the encoded size, in bytes, of the fixed portion of an
// Envelope preceding its payload: sourceRank(4) + tag(4) + payloadLen(4).
const headerSize = 12

// WriteEnvelope writes e to w in the wire format of spec.md §6.
func WriteEnvelope(w io.Writer, e Envelope) error {
	head := make([]byte, headerSize)
	binary.LittleEndian.PutUint32(head[0:4], uint32(e.SourceRank))
	binary.LittleEndian.PutUint32(head[4:8], uint32(e.Tag))
	binary.LittleEndian.PutUint32(head[8:12], uint32(len(e.Payload)))
	if _, err := w.Write(head); err != nil {
		return errors.E(err, "wire.WriteEnvelope: header")
	}
	if len(e.Payload) == 0 {
		return nil
	}
	if _, err := w.Write(e.Payload); err != nil {
		return errors.E(err, "wire.WriteEnvelope: payload")
	}
	return nil
}

// ReadEnvelope reads a single Envelope from r, blocking until the full
// message (header + payload) is available or an error/EOF occurs. A clean
// EOF at the very start of a message is returned as io.EOF so callers can
// distinguish "no more messages" from a truncated one, mirroring the
// teacher's convention in encoding/bgzf readers.
func ReadEnvelope(r io.Reader) (Envelope, error) {
	head := make([]byte, headerSize)
	if _, err := io.ReadFull(r, head); err != nil {
		if err == io.EOF {
			return Envelope{}, io.EOF
		}
		return Envelope{}, errors.E(err, "wire.ReadEnvelope: header")
	}
	e := Envelope{
		SourceRank: int32(binary.LittleEndian.Uint32(head[0:4])),
		Tag:        Tag(binary.LittleEndian.Uint32(head[4:8])),
	}
	n := binary.LittleEndian.Uint32(head[8:12])
	if n == 0 {
		return e, nil
	}
	e.Payload = make([]byte, n)
	if _, err := io.ReadFull(r, e.Payload); err != nil {
		return Envelope{}, errors.E(err, fmt.Sprintf("wire.ReadEnvelope: payload of %d bytes", n))
	}
	return e, nil
}
