package mapblock

import (
	"bytes"
	"errors"
	"fmt"
	"testing"

	"github.com/arloliu/mtblock/compress"
	"github.com/arloliu/mtblock/errs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecode_Compressed(t *testing.T) {
	raw := newRawBlock(29)
	blob, err := Compress(raw.bytes(), compress.NewZstdCompressor())
	require.NoError(t, err)

	block, warnings, err := Decode(blob)
	require.NoError(t, err)
	require.Empty(t, warnings)

	assert.Equal(t, uint8(29), block.Version)
	assert.Equal(t, CompressionCompressed, block.WasCompressed)
	assert.Equal(t, Some(FlagGenerated), block.Flags)
	assert.Equal(t, Some(uint16(0xffff)), block.LightingComplete)
	assert.Equal(t, Some(uint32(1234)), block.Timestamp)
	assert.Equal(t, raw.mappings, block.NameIDMappings)
	assert.Equal(t, uint8(2), block.ContentWidth)
	assert.Equal(t, uint8(2), block.ParamsWidth)
	assert.False(t, block.NodeMetadata.Present())
	assert.True(t, block.StaticObjects.Present())
	assert.Equal(t, 0, block.StaticObjects.Len())
	assert.True(t, block.NodeTimers.Present())

	for i := range NodeCount {
		require.Equal(t, Voxel{Content: uint16(i % 2), Param1: uint8(i), Param2: uint8(i >> 8)}, block.Voxels[i], "voxel %d", i)
	}
}

func TestDecode_UncompressedFallback(t *testing.T) {
	raw := newRawBlock(29)

	block, warnings, err := Decode(raw.bytes())
	require.NoError(t, err)

	assert.Equal(t, CompressionUncompressed, block.WasCompressed)
	require.Len(t, warnings, 1)
	assert.Equal(t, WarnDecompress, warnings[0].Code)
	assert.Equal(t, raw.mappings, block.NameIDMappings)
	assert.Equal(t, Voxel{Content: 1, Param1: 3}, block.Voxels[3])
}

func TestDecode_Truncated(t *testing.T) {
	full := newRawBlock(28).bytes()

	tests := []struct {
		name  string
		cut   int
		field string
	}{
		{name: "empty", cut: 0, field: "version"},
		{name: "version only", cut: 1, field: "flags"},
		{name: "half lighting", cut: 3, field: "lighting_complete"},
		{name: "no widths", cut: 4, field: "content_width"},
		{name: "no params width", cut: 5, field: "params_width"},
		{name: "short content", cut: 6 + 100, field: "content_ids"},
		{name: "short param1", cut: 6 + 2*NodeCount + 10, field: "param1"},
		{name: "short param2", cut: 6 + 3*NodeCount + 10, field: "param2"},
		{name: "no metadata", cut: 6 + 4*NodeCount, field: "node_metadata_version"},
		{name: "no timers", cut: len(full) - 3, field: "timer_record_length"},
		{name: "half timer count", cut: len(full) - 1, field: "num_timers"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			block, _, err := Decode(full[:tt.cut])
			require.Nil(t, block)
			require.ErrorIs(t, err, errs.ErrTruncatedInput)

			var trunc *errs.TruncatedInputError
			require.ErrorAs(t, err, &trunc)
			assert.Equal(t, tt.field, trunc.Field)
			assert.Positive(t, trunc.Shortfall())
		})
	}
}

func TestDecode_EveryPrefixIsTruncated(t *testing.T) {
	full := fullRaw28(t)

	block, _, err := Decode(full)
	require.NoError(t, err)
	require.NotNil(t, block)

	for cut := 0; cut < len(full); cut += 37 {
		_, _, err := Decode(full[:cut])
		require.ErrorIs(t, err, errs.ErrTruncatedInput, "cut at %d", cut)
	}
	for cut := len(full) - 120; cut < len(full); cut++ {
		_, _, err := Decode(full[:cut])
		require.ErrorIs(t, err, errs.ErrTruncatedInput, "cut at %d", cut)
	}
}

// fullRaw28 is a version 28 block with metadata, objects, mappings and timers.
func fullRaw28(t *testing.T) []byte {
	t.Helper()

	raw := newRawBlock(28)
	raw.metadata = func(s *stream) {
		s.u8(2).u16(1)
		s.u16(42).u32(2)
		s.str16("formspec").str16("size[8,9]").u8(0)
		s.str16("owner").str16("celeron55").u8(1)
	}
	raw.statics = func(s *stream) {
		s.u8(0).u16(1)
		s.u8(7).s32(1).s32(2).s32(3).str16("luaentity")
	}
	raw.timers = func(s *stream) {
		s.u8(10).u16(2)
		s.u16(42).s32(1000).s32(0)
		s.u16(43).s32(2000).s32(500)
	}

	return raw.bytes()
}

func TestDecode_Version28(t *testing.T) {
	block, warnings, err := Decode(fullRaw28(t))
	require.NoError(t, err)
	require.Empty(t, warnings)

	assert.Equal(t, CompressionNotApplicable, block.WasCompressed)
	assert.Equal(t, Some(uint32(1234)), block.Timestamp)
	assert.Equal(t, []NameIDMapping{{ID: 0, Name: "air"}, {ID: 1, Name: "default:stone"}}, block.NameIDMappings)

	require.Equal(t, 1, block.NodeMetadata.Len())
	meta := block.NodeMetadata.Items()[0]
	assert.Equal(t, uint16(42), meta.Position)
	assert.Equal(t, uint16(2), meta.Version)
	assert.Equal(t, []MetadataVar{
		{Key: "formspec", Value: []byte("size[8,9]")},
		{Key: "owner", Value: []byte("celeron55"), Private: true},
	}, meta.Vars)

	assert.Equal(t, []StaticObject{{Type: 7, X: 1, Y: 2, Z: 3, Data: []byte("luaentity")}}, block.StaticObjects.Items())
	assert.Equal(t, []NodeTimer{
		{Position: 42, Timeout: 1000},
		{Position: 43, Timeout: 2000, Elapsed: 500},
	}, block.NodeTimers.Items())
}

func TestDecode_LegacyVersions(t *testing.T) {
	t.Run("22 legacy metadata", func(t *testing.T) {
		raw := newRawBlock(22)
		raw.metadata = func(s *stream) {
			s.u16(1).u16(1)
			s.u16(17).u16(14).str16("sign text")
		}

		block, warnings, err := Decode(raw.bytes())
		require.NoError(t, err)
		require.Empty(t, warnings)

		assert.False(t, block.LightingComplete.IsSet())
		assert.True(t, block.Timestamp.IsSet())
		assert.Equal(t, uint8(1), block.ContentWidth)
		assert.False(t, block.NodeTimers.Present())
		assert.Equal(t, Voxel{Content: 1, Param1: 5}, block.Voxels[5])
		assert.Equal(t, []NodeMetadata{{
			Position:   17,
			Version:    1,
			LegacyType: 14,
			LegacyData: []byte("sign text"),
		}}, block.NodeMetadata.Items())
	})

	t.Run("24 two byte content", func(t *testing.T) {
		raw := newRawBlock(24)
		raw.content = func(i int) uint64 { return uint64(i) }
		raw.metadata = func(s *stream) {
			s.u8(1).u16(1)
			s.u16(9).u32(1).str16("text").str16("hello")
		}

		block, warnings, err := Decode(raw.bytes())
		require.NoError(t, err)
		require.Empty(t, warnings)

		assert.Equal(t, uint16(4095), block.Voxels[4095].Content)
		assert.False(t, block.NodeTimers.Present())
		assert.Equal(t, []MetadataVar{{Key: "text", Value: []byte("hello")}}, block.NodeMetadata.Items()[0].Vars)
	})

	t.Run("25 timers", func(t *testing.T) {
		raw := newRawBlock(25)
		raw.timers = func(s *stream) {
			s.u8(10).u16(1).u16(7).s32(-1).s32(2)
		}

		block, warnings, err := Decode(raw.bytes())
		require.NoError(t, err)
		require.Empty(t, warnings)

		assert.False(t, block.LightingComplete.IsSet())
		assert.Equal(t, []NodeTimer{{Position: 7, Timeout: -1, Elapsed: 2}}, block.NodeTimers.Items())
	})

	t.Run("27 lighting", func(t *testing.T) {
		raw := newRawBlock(27)
		raw.lighting = 0x1234

		block, warnings, err := Decode(raw.bytes())
		require.NoError(t, err)
		require.Empty(t, warnings)

		assert.Equal(t, Some(uint16(0x1234)), block.LightingComplete)
	})
}

func TestDecode_MetadataVersionZeroIsAbsent(t *testing.T) {
	block, warnings, err := Decode(newRawBlock(28).bytes())
	require.NoError(t, err)
	require.Empty(t, warnings)
	assert.False(t, block.NodeMetadata.Present())
}

func TestDecode_Warnings(t *testing.T) {
	t.Run("timer record length", func(t *testing.T) {
		raw := newRawBlock(28)
		raw.timers = func(s *stream) {
			s.u8(12).u16(1).u16(1).s32(2).s32(3)
		}

		block, warnings, err := Decode(raw.bytes())
		require.NoError(t, err)
		require.Len(t, warnings, 1)
		assert.Equal(t, mismatch("timer_record_length", 10, 12), warnings[0])
		assert.Equal(t, []NodeTimer{{Position: 1, Timeout: 2, Elapsed: 3}}, block.NodeTimers.Items())
	})

	t.Run("metadata version for layout", func(t *testing.T) {
		raw := newRawBlock(26)
		raw.metadata = func(s *stream) {
			s.u8(2).u16(1).u16(3).u32(1).str16("k").str16("v").u8(1)
		}

		block, warnings, err := Decode(raw.bytes())
		require.NoError(t, err)
		assert.True(t, warnings.Has("node_metadata_version"))
		assert.Equal(t, []MetadataVar{{Key: "k", Value: []byte("v"), Private: true}}, block.NodeMetadata.Items()[0].Vars)
	})

	t.Run("private flag out of range", func(t *testing.T) {
		raw := newRawBlock(28)
		raw.metadata = func(s *stream) {
			s.u8(2).u16(1).u16(3).u32(1).str16("k").str16("v").u8(5)
		}

		block, warnings, err := Decode(raw.bytes())
		require.NoError(t, err)
		require.Len(t, warnings, 1)
		assert.Equal(t, "metadata_var.is_private", warnings[0].Field)
		assert.False(t, block.NodeMetadata.Items()[0].Vars[0].Private)
	})

	t.Run("unexpected widths", func(t *testing.T) {
		raw := newRawBlock(28)
		raw.contentWidth = 3
		raw.content = func(i int) uint64 { return 0x010000 | uint64(i) }

		block, warnings, err := Decode(raw.bytes())
		require.NoError(t, err)
		require.Len(t, warnings, 1)
		assert.Equal(t, mismatch("content_width", 2, 3), warnings[0])
		assert.Equal(t, uint16(17), block.Voxels[17].Content)
		assert.Equal(t, uint8(3), block.ContentWidth)
	})

	t.Run("mapping and object versions", func(t *testing.T) {
		raw := newRawBlock(28)
		raw.statics = func(s *stream) { s.u8(3).u16(0) }
		data := raw.bytes()

		// mapping version byte: before the count, both mappings and the timer header
		mapStart := len(data) - 3 - (2 + 2 + 13) - (2 + 2 + 3) - 2 - 1
		require.Equal(t, byte(0), data[mapStart])
		data[mapStart] = 9

		_, warnings, err := Decode(data)
		require.NoError(t, err)
		assert.True(t, warnings.Has("static_object_version"))
		assert.True(t, warnings.Has("name_id_mapping_version"))
	})

	t.Run("trailing bytes", func(t *testing.T) {
		clean := newRawBlock(28).bytes()
		data := append(clean, 0xde, 0xad)

		_, warnings, err := Decode(data)
		require.NoError(t, err)
		require.True(t, warnings.HasCode(WarnTrailingBytes))
		// the offset is counted from the end of the version byte
		assert.Equal(t, fmt.Sprintf("2 bytes after node timers at offset %d", len(clean)-1), warnings[len(warnings)-1].Message)
	})

	t.Run("duplicate mappings", func(t *testing.T) {
		raw := newRawBlock(28)
		raw.mappings = []NameIDMapping{{ID: 0, Name: "air"}, {ID: 0, Name: "air"}}

		block, warnings, err := Decode(raw.bytes())
		require.NoError(t, err)
		assert.Len(t, warnings, 2)
		assert.True(t, warnings.HasCode(WarnDuplicateMapping))
		assert.Len(t, block.NameIDMappings, 2)
	})
}

type failingDecompressor struct{}

func (failingDecompressor) Decompress([]byte) ([]byte, error) {
	return nil, errors.New("boom")
}

func TestDecode_WithDecompressor(t *testing.T) {
	block, warnings, err := Decode(newRawBlock(29).bytes(), WithDecompressor(failingDecompressor{}))
	require.NoError(t, err)
	assert.Equal(t, CompressionUncompressed, block.WasCompressed)
	require.Len(t, warnings, 1)
	assert.Equal(t, "boom", warnings[0].Message)

	_, _, err = Decode(nil, WithDecompressor(nil))
	require.Error(t, err)
	assert.NotErrorIs(t, err, errs.ErrTruncatedInput)
}

func TestDecode_DoesNotAliasInput(t *testing.T) {
	data := fullRaw28(t)
	block, _, err := Decode(data)
	require.NoError(t, err)

	clear(data)
	assert.Equal(t, []byte("size[8,9]"), block.NodeMetadata.Items()[0].Vars[0].Value)
	assert.True(t, bytes.Equal([]byte("luaentity"), block.StaticObjects.Items()[0].Data))
}

func BenchmarkDecode(b *testing.B) {
	blob, _, err := Marshal(fullBlock())
	require.NoError(b, err)

	b.SetBytes(int64(len(blob)))
	b.ResetTimer()
	for b.Loop() {
		_, _, _ = Decode(blob)
	}
}
