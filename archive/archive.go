// Package archive moves stored map blocks between worlds as a single stream.
//
// An archive starts with the magic "MTBA", a format version byte and the
// compression type of its payloads. Each record then holds one block:
//
//	s16 x, s16 y, s16 z     block position
//	u32 raw length          length of the stored blob
//	u32 payload length      length of the compressed blob
//	u64 checksum            xxHash64 of the stored blob
//	payload
//
// All integers are big-endian. Blobs are copied as stored and never decoded,
// so archives preserve blocks of every serialization version.
package archive

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/arloliu/mtblock/compress"
	"github.com/arloliu/mtblock/errs"
	"github.com/arloliu/mtblock/format"
	"github.com/arloliu/mtblock/internal/hash"
	"github.com/arloliu/mtblock/internal/pool"
	"github.com/arloliu/mtblock/internal/wire"
	"github.com/arloliu/mtblock/mapblock"
	"github.com/arloliu/mtblock/storage"
)

const (
	Magic   = "MTBA"
	Version = 1

	headerSize = len(Magic) + 2
	recordSize = 3*2 + 4 + 4 + 8

	// maxRecordLen bounds a single blob; stored blocks are far smaller.
	maxRecordLen = 64 << 20
)

// Record is one stored block.
type Record struct {
	Pos  mapblock.BlockPos
	Data []byte
}

// Writer appends records to an archive stream.
type Writer struct {
	w     *bufio.Writer
	codec compress.Codec
	count int
}

// NewWriter writes the archive header to w and returns a Writer whose
// payloads are compressed with ct. Call Flush when done.
func NewWriter(w io.Writer, ct format.CompressionType) (*Writer, error) {
	codec, err := compress.CreateCodec(ct, "archive")
	if err != nil {
		return nil, err
	}

	bw := bufio.NewWriter(w)
	header := append([]byte(Magic), Version, byte(ct))
	if _, err := bw.Write(header); err != nil {
		return nil, fmt.Errorf("write archive header: %w", err)
	}

	return &Writer{w: bw, codec: codec}, nil
}

// Write appends one record.
func (w *Writer) Write(rec Record) error {
	payload, err := w.codec.Compress(rec.Data)
	if err != nil {
		return fmt.Errorf("compress block %s: %w", rec.Pos, err)
	}

	bb := pool.GetBlockBuffer()
	defer pool.PutBlockBuffer(bb)

	hw := wire.NewWriter(bb)
	hw.Grow(recordSize + len(payload))
	hw.Uint16(uint16(rec.Pos.X)) //nolint: gosec
	hw.Uint16(uint16(rec.Pos.Y)) //nolint: gosec
	hw.Uint16(uint16(rec.Pos.Z)) //nolint: gosec
	if err := hw.Count32("raw length", len(rec.Data)); err != nil {
		return err
	}
	if err := hw.Count32("payload length", len(payload)); err != nil {
		return err
	}
	hw.Uint64(hash.Checksum(rec.Data))
	hw.Raw(payload)

	if _, err := bb.WriteTo(w.w); err != nil {
		return fmt.Errorf("write block %s: %w", rec.Pos, err)
	}
	w.count++

	return nil
}

// Count returns the number of records written.
func (w *Writer) Count() int {
	return w.count
}

// Flush writes buffered data to the underlying writer.
func (w *Writer) Flush() error {
	return w.w.Flush()
}

// Reader reads records from an archive stream.
type Reader struct {
	r           *bufio.Reader
	codec       compress.Codec
	compression format.CompressionType
}

// NewReader reads and checks the archive header.
func NewReader(r io.Reader) (*Reader, error) {
	br := bufio.NewReader(r)

	header := make([]byte, headerSize)
	if _, err := io.ReadFull(br, header); err != nil {
		return nil, fmt.Errorf("%w: %w", errs.ErrInvalidArchive, err)
	}
	if string(header[:len(Magic)]) != Magic {
		return nil, fmt.Errorf("%w: bad magic %q", errs.ErrInvalidArchive, header[:len(Magic)])
	}
	if v := header[len(Magic)]; v != Version {
		return nil, fmt.Errorf("%w: unsupported version %d", errs.ErrInvalidArchive, v)
	}

	ct := format.CompressionType(header[len(Magic)+1])
	codec, err := compress.CreateCodec(ct, "archive")
	if err != nil {
		return nil, fmt.Errorf("%w: %w", errs.ErrInvalidArchive, err)
	}

	return &Reader{r: br, codec: codec, compression: ct}, nil
}

// Compression returns the payload compression of the archive.
func (r *Reader) Compression() format.CompressionType {
	return r.compression
}

// Next returns the next record, or io.EOF after the last one.
func (r *Reader) Next() (Record, error) {
	head := make([]byte, recordSize)
	if _, err := io.ReadFull(r.r, head); err != nil {
		if errors.Is(err, io.EOF) {
			return Record{}, io.EOF
		}

		return Record{}, fmt.Errorf("%w: truncated record header: %w", errs.ErrInvalidArchive, err)
	}

	// the header is exactly recordSize bytes, so these reads cannot fail
	hr := wire.NewReader(head)
	x, _ := hr.Uint16("x")
	y, _ := hr.Uint16("y")
	z, _ := hr.Uint16("z")
	rawLen, _ := hr.Uint32("raw length")
	payloadLen, _ := hr.Uint32("payload length")
	checksum, _ := hr.Uint64("checksum")

	pos := mapblock.BlockPos{X: int16(x), Y: int16(y), Z: int16(z)} //nolint: gosec
	if rawLen > maxRecordLen || payloadLen > maxRecordLen {
		return Record{}, fmt.Errorf("%w: block %s: record of %d bytes too large", errs.ErrInvalidArchive, pos, max(rawLen, payloadLen))
	}

	payload := make([]byte, payloadLen)
	if _, err := io.ReadFull(r.r, payload); err != nil {
		return Record{}, fmt.Errorf("%w: block %s: truncated payload: %w", errs.ErrInvalidArchive, pos, err)
	}

	data, err := r.codec.Decompress(payload)
	if err != nil {
		return Record{}, fmt.Errorf("%w: block %s: %w", errs.ErrInvalidArchive, pos, err)
	}
	if len(data) != int(rawLen) || hash.Checksum(data) != checksum {
		return Record{}, fmt.Errorf("%w: block %s", errs.ErrChecksumMismatch, pos)
	}

	return Record{Pos: pos, Data: data}, nil
}

// Export writes every block of store to w and returns the number written.
func Export(ctx context.Context, store storage.Store, w io.Writer, ct format.CompressionType) (int, error) {
	aw, err := NewWriter(w, ct)
	if err != nil {
		return 0, err
	}

	positions, err := store.List(ctx)
	if err != nil {
		return 0, fmt.Errorf("export: %w", err)
	}

	for _, pos := range positions {
		if err := ctx.Err(); err != nil {
			return aw.Count(), err
		}

		data, err := store.Get(ctx, pos)
		if err != nil {
			return aw.Count(), fmt.Errorf("export block %s: %w", pos, err)
		}
		if err := aw.Write(Record{Pos: pos, Data: data}); err != nil {
			return aw.Count(), err
		}
	}

	if err := aw.Flush(); err != nil {
		return aw.Count(), fmt.Errorf("export: %w", err)
	}

	return aw.Count(), nil
}

// Import stores every record of the archive read from r and returns the
// number stored. Existing blocks at the same positions are replaced.
func Import(ctx context.Context, r io.Reader, store storage.Store) (int, error) {
	ar, err := NewReader(r)
	if err != nil {
		return 0, err
	}

	n := 0
	for {
		if err := ctx.Err(); err != nil {
			return n, err
		}

		rec, err := ar.Next()
		if errors.Is(err, io.EOF) {
			return n, nil
		}
		if err != nil {
			return n, err
		}

		if err := store.Set(ctx, rec.Pos, rec.Data); err != nil {
			return n, fmt.Errorf("import block %s: %w", rec.Pos, err)
		}
		n++
	}
}
