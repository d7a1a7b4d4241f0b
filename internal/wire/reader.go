// Package wire implements the big-endian primitives of the MapBlock format:
// a forward-only Reader that names the field it failed on, and an appending
// Writer.
package wire

import (
	"bytes"
	"encoding/binary"

	"github.com/arloliu/mtblock/errs"
)

var engine = binary.BigEndian

// Reader is a forward-only cursor over a byte slice. Each read consumes exactly
// the requested width or fails with *errs.TruncatedInputError; it never backtracks.
//
// Reader is not safe for concurrent use.
type Reader struct {
	data []byte
	off  int
}

// NewReader returns a Reader positioned at the start of data.
func NewReader(data []byte) *Reader {
	return &Reader{data: data}
}

// Len returns the number of unread bytes.
func (r *Reader) Len() int {
	return len(r.data) - r.off
}

// Offset returns the number of bytes consumed so far.
func (r *Reader) Offset() int {
	return r.off
}

// Rest consumes and returns every unread byte.
func (r *Reader) Rest() []byte {
	rest := r.data[r.off:]
	r.off = len(r.data)

	return rest
}

func (r *Reader) take(field string, n int) ([]byte, error) {
	if n < 0 || r.Len() < n {
		return nil, &errs.TruncatedInputError{Field: field, Need: n, Have: r.Len()}
	}
	b := r.data[r.off : r.off+n]
	r.off += n

	return b, nil
}

// Uint8 reads one byte.
func (r *Reader) Uint8(field string) (uint8, error) {
	b, err := r.take(field, 1)
	if err != nil {
		return 0, err
	}

	return b[0], nil
}

// Uint16 reads a big-endian uint16.
func (r *Reader) Uint16(field string) (uint16, error) {
	b, err := r.take(field, 2)
	if err != nil {
		return 0, err
	}

	return engine.Uint16(b), nil
}

// Uint32 reads a big-endian uint32.
func (r *Reader) Uint32(field string) (uint32, error) {
	b, err := r.take(field, 4)
	if err != nil {
		return 0, err
	}

	return engine.Uint32(b), nil
}

// Uint64 reads a big-endian uint64.
func (r *Reader) Uint64(field string) (uint64, error) {
	b, err := r.take(field, 8)
	if err != nil {
		return 0, err
	}

	return engine.Uint64(b), nil
}

// Int32 reads a big-endian two's complement int32.
func (r *Reader) Int32(field string) (int32, error) {
	v, err := r.Uint32(field)
	return int32(v), err //nolint: gosec
}

// UintN reads an n-byte big-endian unsigned integer. Widths above 8 keep the
// low 64 bits; a zero width consumes nothing and yields 0.
func (r *Reader) UintN(field string, n int) (uint64, error) {
	b, err := r.take(field, n)
	if err != nil {
		return 0, err
	}

	var v uint64
	for _, c := range b {
		v = v<<8 | uint64(c)
	}

	return v, nil
}

// Bytes reads n bytes and returns a copy the caller may retain.
func (r *Reader) Bytes(field string, n int) ([]byte, error) {
	b, err := r.take(field, n)
	if err != nil {
		return nil, err
	}

	return bytes.Clone(b), nil
}

// Bytes16 reads a uint16 length followed by that many bytes.
func (r *Reader) Bytes16(field string) ([]byte, error) {
	n, err := r.Uint16(field + " length")
	if err != nil {
		return nil, err
	}

	return r.Bytes(field, int(n))
}
