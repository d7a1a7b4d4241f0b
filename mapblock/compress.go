package mapblock

import (
	"errors"
	"fmt"

	"github.com/arloliu/mtblock/compress"
	"github.com/arloliu/mtblock/errs"
	"github.com/arloliu/mtblock/internal/options"
)

// Compress turns the output of Encode into the stored form: the version byte
// is kept and everything after it becomes one compressed frame.
func Compress(serialized []byte, c compress.Compressor) ([]byte, error) {
	if len(serialized) == 0 {
		return nil, errs.ErrEmptyBlob
	}

	body, err := c.Compress(serialized[1:])
	if err != nil {
		return nil, fmt.Errorf("compress map block body: %w", err)
	}

	out := make([]byte, 0, 1+len(body))
	out = append(out, serialized[0])

	return append(out, body...), nil
}

// MarshalConfig holds the settings of Marshal.
type MarshalConfig struct {
	compressor compress.Compressor
}

// MarshalOption configures Marshal.
type MarshalOption = options.Option[*MarshalConfig]

// WithCompressor replaces the zstd compressor used by Marshal.
func WithCompressor(c compress.Compressor) MarshalOption {
	return options.New(func(cfg *MarshalConfig) error {
		if c == nil {
			return errors.New("nil compressor")
		}
		cfg.compressor = c

		return nil
	})
}

// Marshal encodes b and compresses the result, producing the bytes a storage
// backend keeps for one block.
func Marshal(b *Block, opts ...MarshalOption) ([]byte, Warnings, error) {
	cfg, err := options.Build(&MarshalConfig{compressor: compress.NewZstdCompressor()}, opts...)
	if err != nil {
		return nil, nil, err
	}

	serialized, warnings, err := Encode(b)
	if err != nil {
		return nil, warnings, err
	}

	blob, err := Compress(serialized, cfg.compressor)
	if err != nil {
		return nil, warnings, err
	}

	return blob, warnings, nil
}
