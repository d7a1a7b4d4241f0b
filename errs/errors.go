// Package errs defines the sentinel errors shared by every mtblock package.
//
// Callers match them with errors.Is; wrapped context is added with fmt.Errorf
// and the %w verb at each layer.
package errs

import (
	"errors"
	"fmt"
)

var (
	// ErrTruncatedInput is matched by every TruncatedInputError.
	ErrTruncatedInput = errors.New("mapblock: truncated input")
	// ErrEmptyBlob is returned when a zero-length blob is handed to the compression layer.
	ErrEmptyBlob = errors.New("mapblock: empty blob")
	// ErrOutOfRange is returned when an intra-block position lies outside [0,16) on any axis.
	ErrOutOfRange = errors.New("mapblock: position out of range")
	// ErrIDOverflow is returned when no free content identifier is left in a block.
	ErrIDOverflow = errors.New("mapblock: content id space exhausted")
	// ErrFieldOverflow is returned when a length or count does not fit its wire field.
	ErrFieldOverflow = errors.New("mapblock: value does not fit its field")
	// ErrUnknownContent is returned when a content id has no name mapping.
	ErrUnknownContent = errors.New("mapblock: content id has no name mapping")

	// ErrBlockNotFound is returned by storage backends for missing block coordinates.
	ErrBlockNotFound = errors.New("storage: block not found")
	// ErrUnsupportedBackend is returned for a world.mt backend with no implementation.
	ErrUnsupportedBackend = errors.New("storage: unsupported backend")
	// ErrInvalidBlockKey is returned when a stored key cannot be parsed into a block position.
	ErrInvalidBlockKey = errors.New("storage: invalid block key")
	// ErrStoreClosed is returned when a closed store is used.
	ErrStoreClosed = errors.New("storage: store is closed")

	// ErrInvalidArchive is returned when an archive header is malformed.
	ErrInvalidArchive = errors.New("archive: invalid archive header")
	// ErrChecksumMismatch is returned when an archive record fails verification.
	ErrChecksumMismatch = errors.New("archive: checksum mismatch")
)

// TruncatedInputError reports a mandatory field that could not be read because
// the input ran out. Need is the field width and Have the bytes that remained.
type TruncatedInputError struct {
	Field string
	Need  int
	Have  int
}

func (e *TruncatedInputError) Error() string {
	return fmt.Sprintf("mapblock: truncated input reading %s: need %d bytes, have %d (short by %d)",
		e.Field, e.Need, e.Have, e.Shortfall())
}

// Shortfall returns how many more bytes the field needed.
func (e *TruncatedInputError) Shortfall() int {
	return e.Need - e.Have
}

// Is makes errors.Is(err, ErrTruncatedInput) hold for any TruncatedInputError.
func (e *TruncatedInputError) Is(target error) bool {
	return target == ErrTruncatedInput
}
