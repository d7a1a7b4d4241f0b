package mapblock

import (
	"bytes"
	"fmt"

	"github.com/arloliu/mtblock/internal/pool"
	"github.com/arloliu/mtblock/internal/wire"
)

type encoder struct {
	w        *wire.Writer
	block    *Block
	warnings Warnings
}

// Encode serializes b in the current format, uncompressed.
//
// Absent header fields and sections are written with their defaults, so a
// block decoded from an older version is converted; a warning records that.
// Encode fails only when a length or count does not fit its wire field.
func Encode(b *Block) ([]byte, Warnings, error) {
	bb := pool.GetBlockBuffer()
	defer pool.PutBlockBuffer(bb)

	e := &encoder{w: wire.NewWriter(bb), block: b}
	if b.Version != SerializationVersion {
		e.warnings = append(e.warnings, Warning{
			Code:    WarnVersionConversion,
			Field:   "version",
			Message: fmt.Sprintf("converting block from version %d to %d", b.Version, SerializationVersion),
		})
	}

	e.w.Uint8(SerializationVersion)
	for _, s := range currentLayout.steps {
		if err := e.encodeStep(s); err != nil {
			return nil, e.warnings, fmt.Errorf("encode map block %s: %w", s, err)
		}
	}

	return bytes.Clone(e.w.Bytes()), e.warnings, nil
}

func (e *encoder) encodeStep(s step) error {
	b := e.block
	switch s {
	case stepFlags:
		e.w.Uint8(uint8(b.Flags.Or(DefaultFlags)))
	case stepLightingComplete:
		e.w.Uint16(b.LightingComplete.Or(DefaultLightingComplete))
	case stepTimestamp:
		e.w.Uint32(b.Timestamp.Or(TimestampUnknown))
	case stepNameIDMappings:
		return e.encodeMappings()
	case stepContentWidth:
		e.w.Uint8(ContentWidth)
	case stepParamsWidth:
		e.w.Uint8(ParamsWidth)
	case stepVoxels:
		e.encodeVoxels()
	case stepNodeMetadata:
		return e.encodeMetadata()
	case stepStaticObjects:
		return e.encodeStaticObjects()
	case stepNodeTimers:
		return e.encodeTimers()
	}

	return nil
}

func (e *encoder) encodeMappings() error {
	e.w.Uint8(0)
	if err := e.w.Count16("num_name_id_mappings", len(e.block.NameIDMappings)); err != nil {
		return err
	}
	for _, m := range e.block.NameIDMappings {
		e.w.Uint16(m.ID)
		if err := e.w.Bytes16("name_id_mapping.name", []byte(m.Name)); err != nil {
			return err
		}
	}

	return nil
}

func (e *encoder) encodeVoxels() {
	voxels := &e.block.Voxels
	e.w.Grow(NodeCount * (ContentWidth + ParamsWidth))
	for i := range voxels {
		e.w.Uint16(voxels[i].Content)
	}
	for i := range voxels {
		e.w.Uint8(voxels[i].Param1)
	}
	for i := range voxels {
		e.w.Uint8(voxels[i].Param2)
	}
}

func (e *encoder) encodeMetadata() error {
	items := e.block.NodeMetadata.Items()
	entries := make([]NodeMetadata, 0, len(items))
	for _, meta := range items {
		if meta.Legacy() {
			e.warnings = append(e.warnings, Warning{
				Code:    WarnLegacyMetadata,
				Field:   "node_metadata.data",
				Message: fmt.Sprintf("dropped %d byte type %d payload at position %d", len(meta.LegacyData), meta.LegacyType, meta.Position),
			})

			continue
		}
		entries = append(entries, meta)
	}
	if len(entries) == 0 {
		e.w.Uint8(0)
		return nil
	}

	e.w.Uint8(2)
	if err := e.w.Count16("num_node_metadata", len(entries)); err != nil {
		return err
	}
	for _, meta := range entries {
		e.w.Uint16(meta.Position)
		if err := e.w.Count32("node_metadata.num_vars", len(meta.Vars)); err != nil {
			return err
		}
		for _, v := range meta.Vars {
			if err := e.w.Bytes16("metadata_var.key", []byte(v.Key)); err != nil {
				return err
			}
			if err := e.w.Bytes16("metadata_var.value", v.Value); err != nil {
				return err
			}
			if v.Private {
				e.w.Uint8(1)
			} else {
				e.w.Uint8(0)
			}
		}
	}

	return nil
}

func (e *encoder) encodeStaticObjects() error {
	objects := e.block.StaticObjects.Items()
	e.w.Uint8(0)
	if err := e.w.Count16("static_object_count", len(objects)); err != nil {
		return err
	}
	for _, obj := range objects {
		e.w.Uint8(obj.Type)
		e.w.Int32(obj.X)
		e.w.Int32(obj.Y)
		e.w.Int32(obj.Z)
		if err := e.w.Bytes16("static_object.data", obj.Data); err != nil {
			return err
		}
	}

	return nil
}

func (e *encoder) encodeTimers() error {
	timers := e.block.NodeTimers.Items()
	e.w.Uint8(TimerRecordSize)
	if err := e.w.Count16("num_timers", len(timers)); err != nil {
		return err
	}
	for _, t := range timers {
		e.w.Uint16(t.Position)
		e.w.Int32(t.Timeout)
		e.w.Int32(t.Elapsed)
	}

	return nil
}
