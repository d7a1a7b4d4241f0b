package compress

import (
	"fmt"

	"github.com/arloliu/mtblock/format"
)

// Compressor compresses a complete payload.
//
// The returned slice is newly allocated and owned by the caller; the input is
// not modified.
type Compressor interface {
	Compress(data []byte) ([]byte, error)
}

// Decompressor reverses a Compressor.
//
// Decompress returns an error when data is corrupt or was produced by a
// different algorithm. Implementations must be safe for concurrent use.
//
// Example:
//
//	body, err := NewZstdCompressor().Decompress(blob[1:])
//	if err != nil {
//	    return fmt.Errorf("map block body is not zstd: %w", err)
//	}
type Decompressor interface {
	Decompress(data []byte) ([]byte, error)
}

// Codec combines both compression and decompression capabilities.
type Codec interface {
	Compressor
	Decompressor
}

// CreateCodec returns the codec for compressionType. target names the caller
// in the error for an unknown type.
func CreateCodec(compressionType format.CompressionType, target string) (Codec, error) {
	switch compressionType {
	case format.CompressionNone:
		return NewNoOpCompressor(), nil
	case format.CompressionZstd:
		return NewZstdCompressor(), nil
	case format.CompressionS2:
		return NewS2Compressor(), nil
	case format.CompressionLZ4:
		return NewLZ4Compressor(), nil
	default:
		return nil, fmt.Errorf("invalid %s compression: %s", target, compressionType)
	}
}
