package compress

import "errors"

// maxDecodedSize bounds what one block body or archive record may inflate
// to. Real bodies are around 20KiB.
const maxDecodedSize = 64 << 20

var errDecodedTooLarge = errors.New("decoded size exceeds 64MiB")

// ZstdCompressor is the codec of map format 29: the engine stores every block
// body as one Zstandard frame.
type ZstdCompressor struct{}

var _ Codec = (*ZstdCompressor)(nil)

// NewZstdCompressor creates a new Zstd compressor with default settings.
func NewZstdCompressor() ZstdCompressor {
	return ZstdCompressor{}
}
