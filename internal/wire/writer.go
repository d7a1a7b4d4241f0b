package wire

import (
	"fmt"
	"math"

	"github.com/arloliu/mtblock/errs"
	"github.com/arloliu/mtblock/internal/pool"
)

// Writer appends big-endian fields to a pooled buffer.
type Writer struct {
	bb *pool.ByteBuffer
}

// NewWriter returns a Writer appending to bb.
func NewWriter(bb *pool.ByteBuffer) *Writer {
	return &Writer{bb: bb}
}

// Len returns the number of bytes written.
func (w *Writer) Len() int {
	return w.bb.Len()
}

// Bytes returns the written bytes. The slice aliases the underlying buffer.
func (w *Writer) Bytes() []byte {
	return w.bb.Bytes()
}

// Grow reserves room for n more bytes.
func (w *Writer) Grow(n int) {
	w.bb.Grow(n)
}

// Uint8 appends one byte.
func (w *Writer) Uint8(v uint8) {
	w.bb.B = append(w.bb.B, v)
}

// Uint16 appends a big-endian uint16.
func (w *Writer) Uint16(v uint16) {
	w.bb.B = engine.AppendUint16(w.bb.B, v)
}

// Uint32 appends a big-endian uint32.
func (w *Writer) Uint32(v uint32) {
	w.bb.B = engine.AppendUint32(w.bb.B, v)
}

// Uint64 appends a big-endian uint64.
func (w *Writer) Uint64(v uint64) {
	w.bb.B = engine.AppendUint64(w.bb.B, v)
}

// Int32 appends a big-endian two's complement int32.
func (w *Writer) Int32(v int32) {
	w.bb.B = engine.AppendUint32(w.bb.B, uint32(v)) //nolint: gosec
}

// Raw appends b unchanged.
func (w *Writer) Raw(b []byte) {
	w.bb.MustWrite(b)
}

// Count16 writes n as a uint16 count, failing with errs.ErrFieldOverflow when
// it does not fit.
func (w *Writer) Count16(field string, n int) error {
	if n < 0 || n > math.MaxUint16 {
		return fmt.Errorf("%w: %s is %d, max %d", errs.ErrFieldOverflow, field, n, math.MaxUint16)
	}
	w.Uint16(uint16(n))

	return nil
}

// Count32 writes n as a uint32 count.
func (w *Writer) Count32(field string, n int) error {
	if n < 0 || uint64(n) > math.MaxUint32 {
		return fmt.Errorf("%w: %s is %d, max %d", errs.ErrFieldOverflow, field, n, uint64(math.MaxUint32))
	}
	w.Uint32(uint32(n))

	return nil
}

// Bytes16 writes a uint16 length prefix followed by b.
func (w *Writer) Bytes16(field string, b []byte) error {
	if err := w.Count16(field+" length", len(b)); err != nil {
		return err
	}
	w.Raw(b)

	return nil
}
