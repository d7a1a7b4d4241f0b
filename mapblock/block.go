package mapblock

// Format constants of the newest serialization version this package writes.
const (
	// SerializationVersion is the only version Encode emits.
	SerializationVersion uint8 = 29

	// BlockSize is the edge length of a block in nodes.
	BlockSize = 16
	// NodeCount is the number of voxels in a block.
	NodeCount = BlockSize * BlockSize * BlockSize

	// ContentWidth and ParamsWidth are the per-voxel widths written on encode.
	ContentWidth uint8 = 2
	ParamsWidth  uint8 = 2

	// TimerRecordSize is the byte length of one node timer record.
	TimerRecordSize uint8 = 10

	// TimestampUnknown marks a block whose last-save time is unknown.
	TimestampUnknown uint32 = 0xFFFFFFFF

	// DefaultLightingComplete has every direction complete except bit 0.
	DefaultLightingComplete uint16 = 0xFFFE
)

// Flags is the block flag byte.
type Flags uint8

const (
	FlagUnderground     Flags = 1 << iota // block is underground
	FlagDayNightDiffers                   // day and night lighting differ
	FlagLightingExpired                   // legacy, no longer read by the engine
	FlagGenerated                         // mapgen has run for this block
)

// DefaultFlags are written when a block carries no flags of its own.
const DefaultFlags = FlagDayNightDiffers | FlagLightingExpired | FlagGenerated

// Has reports whether every bit of f2 is set in f.
func (f Flags) Has(f2 Flags) bool {
	return f&f2 == f2
}

// CompressionState records whether a block body was whole-block compressed
// when it was decoded. It is diagnostic only and never serialized.
type CompressionState uint8

const (
	// CompressionNotApplicable is used for versions before whole-block compression existed.
	CompressionNotApplicable CompressionState = iota
	// CompressionCompressed means the body decompressed successfully.
	CompressionCompressed
	// CompressionUncompressed means decompression failed and the raw bytes were parsed.
	CompressionUncompressed
)

func (s CompressionState) String() string {
	switch s {
	case CompressionCompressed:
		return "compressed"
	case CompressionUncompressed:
		return "uncompressed"
	default:
		return "n/a"
	}
}

// Voxel is one cell of the grid.
type Voxel struct {
	Content uint16
	Param1  uint8
	Param2  uint8
}

// NameIDMapping binds a block-local content id to a content name.
type NameIDMapping struct {
	ID   uint16
	Name string
}

// MetadataVar is one key/value pair of node metadata.
type MetadataVar struct {
	Key     string
	Value   []byte
	Private bool
}

// NodeMetadata holds the metadata of one node.
//
// Version is the metadata section version the entry was decoded from. Blocks
// older than format 23 store an opaque typed payload instead of variables;
// it is kept in LegacyType and LegacyData and cannot be re-encoded.
type NodeMetadata struct {
	Position   uint16
	Version    uint16
	Vars       []MetadataVar
	LegacyType uint16
	LegacyData []byte
}

// Legacy reports whether the entry carries a pre-23 payload.
func (m NodeMetadata) Legacy() bool {
	return m.LegacyData != nil
}

// StaticObject is an entity stored with the block. Positions are fixed-point
// node coordinates scaled by 10000. Data is not interpreted.
type StaticObject struct {
	Type uint8
	X    int32
	Y    int32
	Z    int32
	Data []byte
}

// NodeTimer is a pending timer of one node; Timeout and Elapsed are in milliseconds.
type NodeTimer struct {
	Position uint16
	Timeout  int32
	Elapsed  int32
}

// Block is the decoded form of one 16x16x16 map block.
//
// A Block is built by Decode, edited in place by SetVoxel and read by Encode.
// It has no internal locking; callers must not mutate one Block from several
// goroutines.
type Block struct {
	// Version is the format version the block was decoded from.
	Version uint8
	// WasCompressed records how the body was found on decode.
	WasCompressed CompressionState

	Flags            Optional[Flags]
	LightingComplete Optional[uint16]
	Timestamp        Optional[uint32]

	// NameIDMappings is kept in stream order. Ids and names are unique.
	NameIDMappings []NameIDMapping

	// ContentWidth and ParamsWidth are the widths found on decode.
	ContentWidth uint8
	ParamsWidth  uint8

	// Voxels is indexed by Pos.Index.
	Voxels [NodeCount]Voxel

	NodeMetadata  Section[NodeMetadata]
	StaticObjects Section[StaticObject]
	NodeTimers    Section[NodeTimer]
}

// New returns an empty current-version block in which every voxel is fill.
// Optional header fields and sections are absent and take their defaults on encode.
func New(fill string) *Block {
	return &Block{
		Version:        SerializationVersion,
		ContentWidth:   ContentWidth,
		ParamsWidth:    ParamsWidth,
		NameIDMappings: []NameIDMapping{{ID: 0, Name: fill}},
	}
}

// Optional holds a header field that may be missing from a block.
type Optional[T any] struct {
	value T
	set   bool
}

// Some returns a set Optional.
func Some[T any](v T) Optional[T] {
	return Optional[T]{value: v, set: true}
}

// Get returns the value and whether it is set.
func (o Optional[T]) Get() (T, bool) {
	return o.value, o.set
}

// IsSet reports whether a value is present.
func (o Optional[T]) IsSet() bool {
	return o.set
}

// Or returns the value, or def when unset.
func (o Optional[T]) Or(def T) T {
	if o.set {
		return o.value
	}

	return def
}

// Section is an optional list section of a block. The zero value is absent.
// Absent sections take their defaults on encode, present-but-empty sections
// are written with a zero count.
type Section[T any] struct {
	items   []T
	present bool
}

// SectionOf returns a present section holding items.
func SectionOf[T any](items ...T) Section[T] {
	return Section[T]{items: items, present: true}
}

// Present reports whether the section was found in the stream or set by the caller.
func (s Section[T]) Present() bool {
	return s.present
}

// Items returns the entries; nil for an absent section.
func (s Section[T]) Items() []T {
	return s.items
}

// Len returns the number of entries.
func (s Section[T]) Len() int {
	return len(s.items)
}
