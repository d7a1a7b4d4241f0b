// Package mtblock reads, edits and writes Luanti (Minetest) map blocks.
//
// A map block is the 16x16x16 unit in which the engine stores its world. The
// stored form is a version byte followed by a zstd frame holding the header,
// the name-id mappings, three voxel arrays, node metadata, static objects and
// node timers.
//
// # Core Features
//
//   - Decodes every serialization version from 22 through 29
//   - Encodes the current version 29 with engine defaults for missing fields
//   - Tolerant decoding: anomalies become warnings, only truncation fails
//   - Voxel editing with automatic name-id mapping allocation
//   - Storage backends for sqlite3, leveldb and redis world databases
//
// # Basic Usage
//
// Replacing one node of a stored block:
//
//	import "github.com/arloliu/mtblock"
//
//	out, warnings, err := mtblock.SetNode(blob, mapblock.Pos{X: 0, Y: 0, Z: 0}, "default:goldblock", 0, 0)
//	if err != nil {
//	    return err
//	}
//	for _, w := range warnings {
//	    log.Println(w)
//	}
//
// Working with the decoded block directly:
//
//	block, _, err := mtblock.Unmarshal(blob)
//	name, _ := block.NodeName(mapblock.Pos{X: 1, Y: 2, Z: 3})
//
// # Package Structure
//
// This package provides convenient top-level wrappers around the mapblock
// package. The storage, world and archive packages work on whole worlds.
package mtblock

import (
	"github.com/arloliu/mtblock/mapblock"
)

// Unmarshal decodes a stored map block.
//
// It is mapblock.Decode with the default zstd decompressor.
func Unmarshal(blob []byte) (*mapblock.Block, mapblock.Warnings, error) {
	return mapblock.Decode(blob)
}

// Marshal encodes and compresses a block into its stored form.
func Marshal(block *mapblock.Block) ([]byte, mapblock.Warnings, error) {
	return mapblock.Marshal(block)
}

// SetNode decodes blob, places name at pos and returns the re-encoded block.
//
// Warnings of both the decode and the encode are returned in order. The input
// blob is not modified.
//
// Example:
//
//	out, _, err := mtblock.SetNode(blob, mapblock.Pos{X: 15, Y: 0, Z: 15}, "default:torch", 14, 1)
func SetNode(blob []byte, pos mapblock.Pos, name string, param1, param2 uint8) ([]byte, mapblock.Warnings, error) {
	block, warnings, err := mapblock.Decode(blob)
	if err != nil {
		return nil, warnings, err
	}

	if _, err := block.SetVoxel(pos, name, param1, param2); err != nil {
		return nil, warnings, err
	}

	out, encodeWarnings, err := mapblock.Marshal(block)
	warnings = append(warnings, encodeWarnings...)
	if err != nil {
		return nil, warnings, err
	}

	return out, warnings, nil
}

// NewBlock returns an empty stored block in which every node is fill.
func NewBlock(fill string) ([]byte, error) {
	out, _, err := mapblock.Marshal(mapblock.New(fill))
	return out, err
}
