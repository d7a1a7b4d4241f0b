package mapblock

import (
	"errors"
	"fmt"

	"github.com/arloliu/mtblock/compress"
	"github.com/arloliu/mtblock/internal/options"
	"github.com/arloliu/mtblock/internal/wire"
)

// DecoderConfig holds the settings of Decode.
type DecoderConfig struct {
	decompressor compress.Decompressor
}

// DecoderOption configures Decode.
type DecoderOption = options.Option[*DecoderConfig]

// WithDecompressor replaces the zstd decompressor used for version 29 bodies.
func WithDecompressor(d compress.Decompressor) DecoderOption {
	return options.New(func(cfg *DecoderConfig) error {
		if d == nil {
			return errors.New("nil decompressor")
		}
		cfg.decompressor = d

		return nil
	})
}

type decoder struct {
	r        *wire.Reader
	layout   Layout
	block    *Block
	warnings Warnings
}

// Decode parses a serialized map block of any supported version.
//
// Anomalies that do not prevent decoding are returned as warnings. The only
// error is a mandatory field running past the end of the input, reported as
// *errs.TruncatedInputError.
func Decode(data []byte, opts ...DecoderOption) (*Block, Warnings, error) {
	cfg, err := options.Build(&DecoderConfig{decompressor: compress.NewZstdCompressor()}, opts...)
	if err != nil {
		return nil, nil, err
	}

	d := &decoder{block: &Block{}}
	if err := d.decode(data, cfg.decompressor); err != nil {
		return nil, d.warnings, fmt.Errorf("decode map block: %w", err)
	}

	return d.block, d.warnings, nil
}

func (d *decoder) warn(w Warning) {
	d.warnings = append(d.warnings, w)
}

func (d *decoder) expect(field string, expected, got uint64) {
	if expected != got {
		d.warn(mismatch(field, expected, got))
	}
}

func (d *decoder) decode(data []byte, dec compress.Decompressor) error {
	head := wire.NewReader(data)
	version, err := head.Uint8("version")
	if err != nil {
		return err
	}
	d.block.Version = version
	d.layout = LayoutFor(version)

	body := head.Rest()
	if d.layout.Compressed {
		inflated, err := dec.Decompress(body)
		if err != nil {
			d.block.WasCompressed = CompressionUncompressed
			d.warn(Warning{Code: WarnDecompress, Field: "body", Message: err.Error()})
		} else {
			d.block.WasCompressed = CompressionCompressed
			body = inflated
		}
	}

	d.r = wire.NewReader(body)
	for _, s := range d.layout.steps {
		if err := d.decodeStep(s); err != nil {
			return err
		}
	}

	if n := d.r.Len(); n > 0 {
		d.warn(Warning{
			Code:    WarnTrailingBytes,
			Field:   "body",
			Message: fmt.Sprintf("%d bytes after node timers at offset %d", n, d.r.Offset()),
		})
	}

	return nil
}

func (d *decoder) decodeStep(s step) error {
	switch s {
	case stepFlags:
		v, err := d.r.Uint8("flags")
		if err != nil {
			return err
		}
		d.block.Flags = Some(Flags(v))
	case stepLightingComplete:
		v, err := d.r.Uint16("lighting_complete")
		if err != nil {
			return err
		}
		d.block.LightingComplete = Some(v)
	case stepTimestamp:
		v, err := d.r.Uint32("timestamp")
		if err != nil {
			return err
		}
		d.block.Timestamp = Some(v)
	case stepNameIDMappings:
		return d.decodeMappings()
	case stepContentWidth:
		v, err := d.r.Uint8("content_width")
		if err != nil {
			return err
		}
		d.expect("content_width", uint64(d.layout.ContentWidth), uint64(v))
		d.block.ContentWidth = v
	case stepParamsWidth:
		v, err := d.r.Uint8("params_width")
		if err != nil {
			return err
		}
		d.expect("params_width", uint64(ParamsWidth), uint64(v))
		d.block.ParamsWidth = v
	case stepVoxels:
		return d.decodeVoxels()
	case stepNodeMetadata:
		if d.layout.Metadata == MetadataLegacy {
			return d.decodeLegacyMetadata()
		}

		return d.decodeMetadata()
	case stepStaticObjects:
		return d.decodeStaticObjects()
	case stepNodeTimers:
		return d.decodeTimers()
	}

	return nil
}

func (d *decoder) decodeMappings() error {
	version, err := d.r.Uint8("name_id_mapping_version")
	if err != nil {
		return err
	}
	d.expect("name_id_mapping_version", 0, uint64(version))

	count, err := d.r.Uint16("num_name_id_mappings")
	if err != nil {
		return err
	}

	mappings := make([]NameIDMapping, 0, count)
	ids := make(map[uint16]struct{}, count)
	names := make(map[string]struct{}, count)
	for range count {
		id, err := d.r.Uint16("name_id_mapping.id")
		if err != nil {
			return err
		}
		name, err := d.r.Bytes16("name_id_mapping.name")
		if err != nil {
			return err
		}

		if _, dup := ids[id]; dup {
			d.warn(Warning{Code: WarnDuplicateMapping, Field: "name_id_mapping.id", Message: fmt.Sprintf("id %d mapped twice", id)})
		}
		if _, dup := names[string(name)]; dup {
			d.warn(Warning{Code: WarnDuplicateMapping, Field: "name_id_mapping.name", Message: fmt.Sprintf("name %q mapped twice", name)})
		}
		ids[id] = struct{}{}
		names[string(name)] = struct{}{}

		mappings = append(mappings, NameIDMapping{ID: id, Name: string(name)})
	}
	d.block.NameIDMappings = mappings

	return nil
}

func (d *decoder) decodeVoxels() error {
	width := int(d.block.ContentWidth)
	ids, err := d.r.Bytes("content_ids", NodeCount*width)
	if err != nil {
		return err
	}
	param1, err := d.r.Bytes("param1", NodeCount)
	if err != nil {
		return err
	}
	param2, err := d.r.Bytes("param2", NodeCount)
	if err != nil {
		return err
	}

	// ids holds exactly NodeCount*width bytes, so these reads cannot fail
	idr := wire.NewReader(ids)
	voxels := &d.block.Voxels
	for i := range NodeCount {
		id, _ := idr.UintN("content_id", width)
		voxels[i] = Voxel{Content: uint16(id), Param1: param1[i], Param2: param2[i]} //nolint: gosec
	}

	return nil
}

func (d *decoder) decodeLegacyMetadata() error {
	version, err := d.r.Uint16("node_metadata_version")
	if err != nil {
		return err
	}
	d.expect("node_metadata_version", uint64(MetadataLegacy.ExpectedVersion()), uint64(version))

	count, err := d.r.Uint16("num_node_metadata")
	if err != nil {
		return err
	}

	entries := make([]NodeMetadata, 0, count)
	for range count {
		pos, err := d.r.Uint16("node_metadata.position")
		if err != nil {
			return err
		}
		typeID, err := d.r.Uint16("node_metadata.type_id")
		if err != nil {
			return err
		}
		payload, err := d.r.Bytes16("node_metadata.data")
		if err != nil {
			return err
		}
		entries = append(entries, NodeMetadata{
			Position:   pos,
			Version:    version,
			LegacyType: typeID,
			LegacyData: payload,
		})
	}
	d.block.NodeMetadata = SectionOf(entries...)

	return nil
}

func (d *decoder) decodeMetadata() error {
	version, err := d.r.Uint8("node_metadata_version")
	if err != nil {
		return err
	}
	if version == 0 {
		return nil
	}
	d.expect("node_metadata_version", uint64(d.layout.Metadata.ExpectedVersion()), uint64(version))

	count, err := d.r.Uint16("num_node_metadata")
	if err != nil {
		return err
	}

	entries := make([]NodeMetadata, 0, count)
	for range count {
		pos, err := d.r.Uint16("node_metadata.position")
		if err != nil {
			return err
		}
		nvars, err := d.r.Uint32("node_metadata.num_vars")
		if err != nil {
			return err
		}

		meta := NodeMetadata{Position: pos, Version: uint16(version)}
		for range nvars {
			v, err := d.decodeVar(version)
			if err != nil {
				return err
			}
			meta.Vars = append(meta.Vars, v)
		}
		entries = append(entries, meta)
	}
	d.block.NodeMetadata = SectionOf(entries...)

	return nil
}

func (d *decoder) decodeVar(metaVersion uint8) (MetadataVar, error) {
	key, err := d.r.Bytes16("metadata_var.key")
	if err != nil {
		return MetadataVar{}, err
	}
	value, err := d.r.Bytes16("metadata_var.value")
	if err != nil {
		return MetadataVar{}, err
	}

	v := MetadataVar{Key: string(key), Value: value}
	if metaVersion == 2 {
		private, err := d.r.Uint8("metadata_var.is_private")
		if err != nil {
			return MetadataVar{}, err
		}
		if private > 1 {
			d.warn(Warning{
				Code:     WarnMismatch,
				Field:    "metadata_var.is_private",
				Expected: "0 or 1",
				Got:      fmt.Sprint(private),
			})
		}
		v.Private = private == 1
	}

	return v, nil
}

func (d *decoder) decodeStaticObjects() error {
	version, err := d.r.Uint8("static_object_version")
	if err != nil {
		return err
	}
	d.expect("static_object_version", 0, uint64(version))

	count, err := d.r.Uint16("static_object_count")
	if err != nil {
		return err
	}

	objects := make([]StaticObject, 0, count)
	for range count {
		var obj StaticObject
		if obj.Type, err = d.r.Uint8("static_object.type"); err != nil {
			return err
		}
		if obj.X, err = d.r.Int32("static_object.pos_x"); err != nil {
			return err
		}
		if obj.Y, err = d.r.Int32("static_object.pos_y"); err != nil {
			return err
		}
		if obj.Z, err = d.r.Int32("static_object.pos_z"); err != nil {
			return err
		}
		if obj.Data, err = d.r.Bytes16("static_object.data"); err != nil {
			return err
		}
		objects = append(objects, obj)
	}
	d.block.StaticObjects = SectionOf(objects...)

	return nil
}

func (d *decoder) decodeTimers() error {
	size, err := d.r.Uint8("timer_record_length")
	if err != nil {
		return err
	}
	d.expect("timer_record_length", uint64(TimerRecordSize), uint64(size))

	count, err := d.r.Uint16("num_timers")
	if err != nil {
		return err
	}

	timers := make([]NodeTimer, 0, count)
	for range count {
		var t NodeTimer
		if t.Position, err = d.r.Uint16("node_timer.position"); err != nil {
			return err
		}
		if t.Timeout, err = d.r.Int32("node_timer.timeout"); err != nil {
			return err
		}
		if t.Elapsed, err = d.r.Int32("node_timer.elapsed"); err != nil {
			return err
		}
		timers = append(timers, t)
	}
	d.block.NodeTimers = SectionOf(timers...)

	return nil
}
