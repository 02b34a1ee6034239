// Package state implements the save-state sink and source shared by every
// stateful component. Fields are stored little-endian, in the order each
// component writes them, with no framing beyond what components add.
package state

import (
	"encoding/binary"
	"errors"
	"fmt"
)

var (
	ErrTruncated      = errors.New("state: unexpected end of data")
	ErrTrailingData   = errors.New("state: trailing data after last component")
	ErrBadMagic       = errors.New("state: not a save state")
	ErrLengthMismatch = errors.New("state: block length mismatch")
	ErrMapperMismatch = errors.New("state: save state belongs to a different mapper")
	ErrOutOfRange     = errors.New("state: field out of range")
)

// Stateful is implemented by every component holding mutable emulation
// state. ReadState must consume exactly what WriteState produced.
type Stateful interface {
	WriteState(w *Writer)
	ReadState(r *Reader)
}

// Writer appends fields to an in-memory buffer.
type Writer struct {
	buf []byte
}

func NewWriter() *Writer {
	return &Writer{buf: make([]byte, 0, 64*1024)}
}

func (w *Writer) Bytes() []byte { return w.buf }
func (w *Writer) Len() int      { return len(w.buf) }

func (w *Writer) U8(v uint8) { w.buf = append(w.buf, v) }

func (w *Writer) U16(v uint16) { w.buf = binary.LittleEndian.AppendUint16(w.buf, v) }

func (w *Writer) U32(v uint32) { w.buf = binary.LittleEndian.AppendUint32(w.buf, v) }

func (w *Writer) U64(v uint64) { w.buf = binary.LittleEndian.AppendUint64(w.buf, v) }

func (w *Writer) Int(v int) { w.U64(uint64(int64(v))) }

func (w *Writer) Bool(v bool) {
	if v {
		w.U8(1)
		return
	}
	w.U8(0)
}

// Raw appends b with no length prefix; the reader must know its size.
func (w *Writer) Raw(b []byte) { w.buf = append(w.buf, b...) }

// Block appends b prefixed by its length.
func (w *Writer) Block(b []byte) {
	w.U32(uint32(len(b)))
	w.Raw(b)
}

func (w *Writer) Component(c Stateful) { c.WriteState(w) }

// Reader consumes fields in order. The first failure sticks: further reads
// return zero values and Err reports the original cause.
type Reader struct {
	data []byte
	pos  int
	err  error
}

func NewReader(data []byte) *Reader {
	return &Reader{data: data}
}

func (r *Reader) Err() error { return r.err }

// Fail records err unless an earlier error is already set.
func (r *Reader) Fail(err error) {
	if r.err == nil {
		r.err = err
	}
}

// Finish reports the sticky error, or ErrTrailingData if input remains.
func (r *Reader) Finish() error {
	if r.err != nil {
		return r.err
	}
	if r.pos != len(r.data) {
		return fmt.Errorf("%w: %d bytes", ErrTrailingData, len(r.data)-r.pos)
	}
	return nil
}

func (r *Reader) take(n int) []byte {
	if r.err != nil {
		return nil
	}
	if len(r.data)-r.pos < n {
		r.err = fmt.Errorf("%w at offset %d (need %d bytes)", ErrTruncated, r.pos, n)
		return nil
	}
	b := r.data[r.pos : r.pos+n]
	r.pos += n
	return b
}

func (r *Reader) U8() uint8 {
	b := r.take(1)
	if b == nil {
		return 0
	}
	return b[0]
}

func (r *Reader) U16() uint16 {
	b := r.take(2)
	if b == nil {
		return 0
	}
	return binary.LittleEndian.Uint16(b)
}

func (r *Reader) U32() uint32 {
	b := r.take(4)
	if b == nil {
		return 0
	}
	return binary.LittleEndian.Uint32(b)
}

func (r *Reader) U64() uint64 {
	b := r.take(8)
	if b == nil {
		return 0
	}
	return binary.LittleEndian.Uint64(b)
}

func (r *Reader) Int() int { return int(int64(r.U64())) }

func (r *Reader) Bool() bool { return r.U8() != 0 }

// Raw fills dst completely.
func (r *Reader) Raw(dst []byte) {
	b := r.take(len(dst))
	if b != nil {
		copy(dst, b)
	}
}

// Block reads a length-prefixed block into dst, which must have the same
// length as the stored block.
func (r *Reader) Block(dst []byte) {
	n := int(r.U32())
	if r.err != nil {
		return
	}
	if n != len(dst) {
		r.Fail(fmt.Errorf("%w: stored %d, want %d", ErrLengthMismatch, n, len(dst)))
		return
	}
	r.Raw(dst)
}

func (r *Reader) Component(c Stateful) {
	if r.err == nil {
		c.ReadState(r)
	}
}
