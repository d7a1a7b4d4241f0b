package wire

import (
	"bytes"
	"math"
	"testing"

	"github.com/arloliu/mtblock/errs"
	"github.com/arloliu/mtblock/internal/pool"
	"github.com/stretchr/testify/require"
)

func TestReader_Fields(t *testing.T) {
	data := []byte{
		0x1d,       // u8
		0x12, 0x34, // u16
		0xde, 0xad, 0xbe, 0xef, // u32
		0xff, 0xff, 0xff, 0xfe, // s32
		0x00, 0x03, 'a', 'b', 'c', // bytes16
		0x01, 0x02, 0x03, // uint24
		0x09,
	}
	r := NewReader(data)

	u8, err := r.Uint8("version")
	require.NoError(t, err)
	require.Equal(t, uint8(0x1d), u8)

	u16, err := r.Uint16("count")
	require.NoError(t, err)
	require.Equal(t, uint16(0x1234), u16)

	u32, err := r.Uint32("timestamp")
	require.NoError(t, err)
	require.Equal(t, uint32(0xdeadbeef), u32)

	s32, err := r.Int32("x")
	require.NoError(t, err)
	require.Equal(t, int32(-2), s32)

	b, err := r.Bytes16("name")
	require.NoError(t, err)
	require.Equal(t, []byte("abc"), b)

	n, err := r.UintN("content", 3)
	require.NoError(t, err)
	require.Equal(t, uint64(0x010203), n)

	require.Equal(t, 1, r.Len())
	require.Equal(t, len(data)-1, r.Offset())
	require.Equal(t, []byte{0x09}, r.Rest())
	require.Equal(t, 0, r.Len())
}

func TestReader_Truncated(t *testing.T) {
	r := NewReader([]byte{0x00})

	_, err := r.Uint32("timestamp")
	require.ErrorIs(t, err, errs.ErrTruncatedInput)

	var trunc *errs.TruncatedInputError
	require.ErrorAs(t, err, &trunc)
	require.Equal(t, "timestamp", trunc.Field)
	require.Equal(t, 4, trunc.Need)
	require.Equal(t, 1, trunc.Have)

	// failed reads do not consume
	require.Equal(t, 1, r.Len())
}

func TestReader_Bytes16TruncatedNamesPayload(t *testing.T) {
	r := NewReader([]byte{0x00, 0x05, 'a'})

	_, err := r.Bytes16("key")
	var trunc *errs.TruncatedInputError
	require.ErrorAs(t, err, &trunc)
	require.Equal(t, "key", trunc.Field)
	require.Equal(t, 4, trunc.Shortfall())
}

func TestReader_BytesIsCopy(t *testing.T) {
	data := []byte{1, 2, 3}
	b, err := NewReader(data).Bytes("data", 3)
	require.NoError(t, err)
	b[0] = 9
	require.Equal(t, byte(1), data[0])
}

func TestWriter(t *testing.T) {
	bb := pool.GetBlockBuffer()
	defer pool.PutBlockBuffer(bb)

	w := NewWriter(bb)
	w.Uint8(29)
	w.Uint16(0xfffe)
	w.Uint32(0xffffffff)
	w.Int32(-10000)
	require.NoError(t, w.Bytes16("name", []byte("air")))
	require.NoError(t, w.Count32("var count", 7))
	w.Uint64(0x0102030405060708)

	want := []byte{
		29,
		0xff, 0xfe,
		0xff, 0xff, 0xff, 0xff,
		0xff, 0xff, 0xd8, 0xf0,
		0x00, 0x03, 'a', 'i', 'r',
		0x00, 0x00, 0x00, 0x07,
		0x01, 0x02, 0x03, 0x04, 0x05, 0x06, 0x07, 0x08,
	}
	require.Equal(t, want, w.Bytes())
	require.Equal(t, len(want), w.Len())

	r := NewReader(want[len(want)-8:])
	u64, err := r.Uint64("checksum")
	require.NoError(t, err)
	require.Equal(t, uint64(0x0102030405060708), u64)
}

func TestWriter_Grow(t *testing.T) {
	bb := pool.NewByteBuffer(8)
	w := NewWriter(bb)
	w.Uint8(1)

	w.Grow(4096)
	require.GreaterOrEqual(t, cap(bb.B)-bb.Len(), 4096)
	require.Equal(t, []byte{1}, w.Bytes())

	before := cap(bb.B)
	for range 4096 {
		w.Uint8(0)
	}
	require.Equal(t, before, cap(bb.B), "no reallocation after Grow")
}

func TestReader_UintN(t *testing.T) {
	r := NewReader([]byte{0x01, 0x02, 0x03, 0xff})

	v, err := r.UintN("content_id", 0)
	require.NoError(t, err)
	require.Zero(t, v)

	v, err = r.UintN("content_id", 3)
	require.NoError(t, err)
	require.Equal(t, uint64(0x010203), v)
	require.Equal(t, 3, r.Offset())

	_, err = r.UintN("content_id", 2)
	require.ErrorIs(t, err, errs.ErrTruncatedInput)
}

func TestWriter_Overflow(t *testing.T) {
	bb := pool.GetBlockBuffer()
	defer pool.PutBlockBuffer(bb)

	w := NewWriter(bb)
	require.ErrorIs(t, w.Count16("mapping count", math.MaxUint16+1), errs.ErrFieldOverflow)
	require.ErrorIs(t, w.Bytes16("name", bytes.Repeat([]byte{'x'}, math.MaxUint16+1)), errs.ErrFieldOverflow)
	require.Equal(t, 0, w.Len())
}
