// Package compress provides the compression codecs used around map blocks.
//
// Map format 29 compresses everything after the version byte as a single
// Zstandard frame, so ZstdCompressor is the codec the engine itself reads and
// writes. The other codecs never touch a stored block: they exist for the
// archive format, where exported blobs may be re-packed with a faster
// algorithm.
//
//   - None: NoOpCompressor, payload passed through unchanged
//   - Zstd: ZstdCompressor, klauspost/compress (or valyala/gozstd with the
//     gozstd build tag and cgo enabled)
//   - S2:   S2Compressor, klauspost/compress/s2
//   - LZ4:  LZ4Compressor, pierrec/lz4 block format
//
// # Failure
//
// Decompress never panics on hostile input. Corrupt or foreign data yields an
// error, which the map block decoder downgrades to a warning and then parses
// the raw bytes instead.
//
// # Thread Safety
//
// All codecs are stateless values and safe for concurrent use; pooled
// encoders and decoders are handed out per call.
package compress
