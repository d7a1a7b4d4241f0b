// Package mapblock decodes, edits and encodes Luanti (Minetest) map blocks.
//
// A map block is a 16x16x16 cube of voxels as stored by the engine's map
// database. Each voxel holds a block-local content id, resolved to a node name
// through the block's name-id mappings, plus two parameter bytes. Blocks also
// carry node metadata, static objects and node timers.
//
// The package reads every serialization version from 22 through 29 and writes
// version 29 only:
//
//	block, warnings, err := mapblock.Decode(blob)
//	if err != nil {
//	    return err
//	}
//	for _, w := range warnings {
//	    log.Println(w)
//	}
//
//	block.SetVoxel(mapblock.Pos{X: 0, Y: 0, Z: 0}, "default:goldblock", 0, 0)
//
//	out, _, err := mapblock.Marshal(block)
//
// Decoding tolerates unexpected values: anything that does not stop the parse
// is returned as a Warning and the field keeps the value found in the stream.
// Only running out of input is an error.
//
// Version 29 blocks compress everything after the version byte as one zstd
// frame. Decode undoes this, and falls back to parsing the raw bytes when the
// frame is invalid. Encode produces the uncompressed form; Compress or
// Marshal produce the stored form.
package mapblock
