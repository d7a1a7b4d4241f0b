package mapblock

import (
	"encoding/binary"
)

// stream assembles raw block bytes field by field, independently of the encoder.
type stream struct {
	b []byte
}

func (s *stream) u8(v uint8) *stream {
	s.b = append(s.b, v)
	return s
}

func (s *stream) u16(v uint16) *stream {
	s.b = binary.BigEndian.AppendUint16(s.b, v)
	return s
}

func (s *stream) u32(v uint32) *stream {
	s.b = binary.BigEndian.AppendUint32(s.b, v)
	return s
}

func (s *stream) s32(v int32) *stream {
	return s.u32(uint32(v))
}

func (s *stream) str16(v string) *stream {
	s.u16(uint16(len(v)))
	s.b = append(s.b, v...)

	return s
}

// rawBlock describes a block to be written in an arbitrary version's layout.
type rawBlock struct {
	version      uint8
	flags        uint8
	lighting     uint16
	timestamp    uint32
	mappings     []NameIDMapping
	contentWidth uint8
	content      func(i int) uint64
	param1       func(i int) uint8
	param2       func(i int) uint8
	metadata     func(s *stream)
	statics      func(s *stream)
	timers       func(s *stream)
}

func newRawBlock(version uint8) rawBlock {
	width := uint8(2)
	if version < 24 {
		width = 1
	}

	return rawBlock{
		version:      version,
		flags:        uint8(FlagGenerated),
		lighting:     0xffff,
		timestamp:    1234,
		mappings:     []NameIDMapping{{ID: 0, Name: "air"}, {ID: 1, Name: "default:stone"}},
		contentWidth: width,
		content:      func(i int) uint64 { return uint64(i % 2) },
		param1:       func(i int) uint8 { return uint8(i) },
		param2:       func(i int) uint8 { return uint8(i >> 8) },
	}
}

// body returns every byte after the version byte.
func (r rawBlock) body() []byte {
	s := &stream{}
	s.u8(r.flags)
	if r.version >= 27 {
		s.u16(r.lighting)
	}
	if r.version >= 29 {
		s.u32(r.timestamp)
		r.writeMappings(s)
	}
	s.u8(r.contentWidth).u8(2)
	for i := range NodeCount {
		v := r.content(i)
		for shift := int(r.contentWidth) - 1; shift >= 0; shift-- {
			s.u8(uint8(v >> (8 * shift)))
		}
	}
	for i := range NodeCount {
		s.u8(r.param1(i))
	}
	for i := range NodeCount {
		s.u8(r.param2(i))
	}

	switch {
	case r.metadata != nil:
		r.metadata(s)
	case r.version < 23:
		s.u16(1).u16(0)
	default:
		s.u8(0)
	}

	if r.statics != nil {
		r.statics(s)
	} else {
		s.u8(0).u16(0)
	}

	if r.version < 29 {
		s.u32(r.timestamp)
		r.writeMappings(s)
	}

	if r.version >= 25 {
		if r.timers != nil {
			r.timers(s)
		} else {
			s.u8(10).u16(0)
		}
	}

	return s.b
}

func (r rawBlock) writeMappings(s *stream) {
	s.u8(0).u16(uint16(len(r.mappings)))
	for _, m := range r.mappings {
		s.u16(m.ID).str16(m.Name)
	}
}

// bytes returns the block without whole-body compression.
func (r rawBlock) bytes() []byte {
	return append([]byte{r.version}, r.body()...)
}

// fullBlock returns a version 29 block with every section populated.
func fullBlock() *Block {
	b := New("air")
	b.Flags = Some(FlagUnderground | FlagGenerated)
	b.LightingComplete = Some(uint16(0x0f0f))
	b.Timestamp = Some(uint32(987654))
	b.NameIDMappings = append(b.NameIDMappings,
		NameIDMapping{ID: 1, Name: "default:stone"},
		NameIDMapping{ID: 7, Name: "default:chest"},
	)
	for i := range NodeCount {
		b.Voxels[i] = Voxel{Content: uint16(i % 2), Param1: uint8(i), Param2: uint8(i / 16)}
	}
	b.Voxels[100] = Voxel{Content: 7, Param1: 0, Param2: 3}

	b.NodeMetadata = SectionOf(NodeMetadata{
		Position: 100,
		Version:  2,
		Vars: []MetadataVar{
			{Key: "infotext", Value: []byte("Chest"), Private: false},
			{Key: "owner", Value: []byte("singleplayer"), Private: true},
		},
	})
	b.StaticObjects = SectionOf(
		StaticObject{Type: 7, X: 10000, Y: -20000, Z: 155000, Data: []byte("__builtin:item")},
		StaticObject{Type: 7, X: -1, Y: 0, Z: 1, Data: []byte{0x00, 0xff}},
	)
	b.NodeTimers = SectionOf(NodeTimer{Position: 100, Timeout: 5000, Elapsed: 1200})

	return b
}
