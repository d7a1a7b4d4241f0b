package mapblock

// step is one section of the serialized stream.
type step uint8

const (
	stepFlags step = iota + 1
	stepLightingComplete
	stepTimestamp
	stepNameIDMappings
	stepContentWidth
	stepParamsWidth
	stepVoxels
	stepNodeMetadata
	stepStaticObjects
	stepNodeTimers
)

func (s step) String() string {
	switch s {
	case stepFlags:
		return "flags"
	case stepLightingComplete:
		return "lighting_complete"
	case stepTimestamp:
		return "timestamp"
	case stepNameIDMappings:
		return "name_id_mappings"
	case stepContentWidth:
		return "content_width"
	case stepParamsWidth:
		return "params_width"
	case stepVoxels:
		return "voxels"
	case stepNodeMetadata:
		return "node_metadata"
	case stepStaticObjects:
		return "static_objects"
	case stepNodeTimers:
		return "node_timers"
	default:
		return "unknown"
	}
}

type presence func(version uint8) bool

func always(uint8) bool { return true }

func since(min uint8) presence {
	return func(v uint8) bool { return v >= min }
}

func before(max uint8) presence {
	return func(v uint8) bool { return v < max }
}

// streamOrder lists every step in stream order with the versions it is present
// in. Timestamp and mappings moved ahead of the voxel data in version 29, so
// they appear twice with disjoint predicates.
var streamOrder = []struct {
	step    step
	present presence
}{
	{stepFlags, always},
	{stepLightingComplete, since(27)},
	{stepTimestamp, since(29)},
	{stepNameIDMappings, since(29)},
	{stepContentWidth, always},
	{stepParamsWidth, always},
	{stepVoxels, always},
	{stepNodeMetadata, always},
	{stepStaticObjects, always},
	{stepTimestamp, before(29)},
	{stepNameIDMappings, before(29)},
	{stepNodeTimers, since(25)},
}

// MetadataLayout is the shape of the node metadata section.
type MetadataLayout uint8

const (
	// MetadataLegacy: u16 version, entries carry a type id and an opaque payload.
	MetadataLegacy MetadataLayout = iota + 1
	// MetadataVars: u8 version, entries carry key/value variables.
	MetadataVars
	// MetadataVarsPrivate: like MetadataVars, variables carry a privacy flag.
	MetadataVarsPrivate
)

func (m MetadataLayout) String() string {
	switch m {
	case MetadataLegacy:
		return "legacy"
	case MetadataVars:
		return "vars"
	case MetadataVarsPrivate:
		return "vars+private"
	default:
		return "unknown"
	}
}

// ExpectedVersion is the metadata version byte a block of this layout should carry.
func (m MetadataLayout) ExpectedVersion() uint16 {
	if m == MetadataVarsPrivate {
		return 2
	}

	return 1
}

// Layout is the wire layout of one serialization version.
type Layout struct {
	Version uint8
	// Compressed is set when everything after the version byte is one zstd frame.
	Compressed bool
	// ContentWidth is the content id width the version is expected to use.
	ContentWidth uint8
	Metadata     MetadataLayout
	Timers       bool

	steps []step
}

// LayoutFor derives the layout of a serialization version.
func LayoutFor(version uint8) Layout {
	l := Layout{
		Version:      version,
		Compressed:   version >= 29,
		ContentWidth: 2,
		Metadata:     MetadataVarsPrivate,
		Timers:       version >= 25,
	}
	if version < 24 {
		l.ContentWidth = 1
	}
	switch {
	case version < 23:
		l.Metadata = MetadataLegacy
	case version < 28:
		l.Metadata = MetadataVars
	}

	for _, s := range streamOrder {
		if s.present(version) {
			l.steps = append(l.steps, s.step)
		}
	}

	return l
}

// Steps returns the section names in stream order.
func (l Layout) Steps() []string {
	out := make([]string, len(l.steps))
	for i, s := range l.steps {
		out[i] = s.String()
	}

	return out
}

var currentLayout = LayoutFor(SerializationVersion)
