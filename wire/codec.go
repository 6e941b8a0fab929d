package wire

import (
	"encoding/binary"
	"math"

	"github.com/grailbio/base/log"
)

// buffer is a wrapper around fixed-width binary encoding that grows
// automatically on write. It is a direct adaptation of the teacher's
// encoding/pam/fieldio.byteBuffer, restricted to the fixed-width field types
// spec.md §6 actually specifies on the wire (int32/uint32/uint64/float64),
// since unlike PAM's internal field format the control-plane wire format is
// not varint-encoded.
type buffer struct {
	n   int
	buf []byte
}

func newBuffer(data []byte) *buffer { return &buffer{buf: data} }

func newWriteBuffer(sizeHint int) *buffer { return &buffer{buf: make([]byte, 0, sizeHint)} }

// Reader functions.

func (b *buffer) Int32() int32 {
	return int32(b.Uint32())
}

func (b *buffer) Uint32() uint32 {
	value := binary.LittleEndian.Uint32(b.buf[b.n:])
	b.n += 4
	return value
}

func (b *buffer) Uint64() uint64 {
	value := binary.LittleEndian.Uint64(b.buf[b.n:])
	b.n += 8
	return value
}

func (b *buffer) Float64() float64 {
	return math.Float64frombits(b.Uint64())
}

func (b *buffer) Bytes(n int) []byte {
	value := b.buf[b.n : b.n+n]
	b.n += n
	return value
}

func (b *buffer) Remaining() int { return len(b.buf) - b.n }

// Writer functions.

func (b *buffer) ensure(extra int) {
	if cap(b.buf) >= b.n+extra {
		return
	}
	newCap := ((b.n+extra)/64 + 1) * 64
	if newCap < cap(b.buf)*2 {
		newCap = cap(b.buf) * 2
	}
	newBuf := make([]byte, newCap)
	copy(newBuf, b.buf[:b.n])
	b.buf = newBuf
}

func (b *buffer) PutInt32(v int32) { b.PutUint32(uint32(v)) }

func (b *buffer) PutUint32(v uint32) {
	b.ensure(4)
	b.buf = b.buf[:b.n+4]
	binary.LittleEndian.PutUint32(b.buf[b.n:], v)
	b.n += 4
}

func (b *buffer) PutUint64(v uint64) {
	b.ensure(8)
	b.buf = b.buf[:b.n+8]
	binary.LittleEndian.PutUint64(b.buf[b.n:], v)
	b.n += 8
}

func (b *buffer) PutFloat64(v float64) { b.PutUint64(math.Float64bits(v)) }

func (b *buffer) PutBytes(data []byte) {
	b.ensure(len(data))
	b.buf = b.buf[:b.n+len(data)]
	n := copy(b.buf[b.n:], data)
	if n != len(data) {
		log.Panicf("wire: short write, wanted %d got %d", len(data), n)
	}
	b.n += len(data)
}

func (b *buffer) Finish() []byte { return b.buf[:b.n] }

// Bool/PutBool and String/PutString extend the fixed-width primitives above
// for the control-plane payloads of wire/control.go (prepareDataset,
// GLOBAL_DATASPACE, Query), which unlike Batch/QueryResult carry a path or
// nickname string and the occasional flag.

func (b *buffer) Bool() bool { return b.Bytes(1)[0] != 0 }

func (b *buffer) PutBool(v bool) {
	if v {
		b.PutBytes([]byte{1})
	} else {
		b.PutBytes([]byte{0})
	}
}

func (b *buffer) String() string {
	n := int(b.Uint32())
	return string(b.Bytes(n))
}

func (b *buffer) PutString(s string) {
	b.PutUint32(uint32(len(s)))
	b.PutBytes([]byte(s))
}
