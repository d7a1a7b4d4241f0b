package mapblock

import (
	"fmt"
	"strings"
)

// WarningCode classifies a non-fatal anomaly.
type WarningCode uint8

const (
	// WarnMismatch is an unexpected value in a field with a known expected value.
	WarnMismatch WarningCode = iota + 1
	// WarnDecompress means the body was not a valid zstd frame and was parsed raw.
	WarnDecompress
	// WarnTrailingBytes means bytes were left after the last section.
	WarnTrailingBytes
	// WarnDuplicateMapping means a content id or name appears twice in the mappings.
	WarnDuplicateMapping
	// WarnVersionConversion means a block decoded from another version was re-encoded.
	WarnVersionConversion
	// WarnLegacyMetadata means pre-23 metadata payloads were dropped on encode.
	WarnLegacyMetadata
)

func (c WarningCode) String() string {
	switch c {
	case WarnMismatch:
		return "mismatch"
	case WarnDecompress:
		return "decompress"
	case WarnTrailingBytes:
		return "trailing-bytes"
	case WarnDuplicateMapping:
		return "duplicate-mapping"
	case WarnVersionConversion:
		return "version-conversion"
	case WarnLegacyMetadata:
		return "legacy-metadata"
	default:
		return fmt.Sprintf("WarningCode(%d)", uint8(c))
	}
}

// Warning describes a recoverable anomaly found while decoding or encoding.
// Expected and Got are set for WarnMismatch.
type Warning struct {
	Code     WarningCode
	Field    string
	Expected string
	Got      string
	Message  string
}

func (w Warning) String() string {
	var sb strings.Builder
	sb.WriteString(w.Code.String())
	if w.Field != "" {
		sb.WriteString(" ")
		sb.WriteString(w.Field)
	}
	if w.Code == WarnMismatch {
		fmt.Fprintf(&sb, ": expected %s, got %s", w.Expected, w.Got)
	}
	if w.Message != "" {
		sb.WriteString(": ")
		sb.WriteString(w.Message)
	}

	return sb.String()
}

// Warnings is the ordered list of warnings of one operation.
type Warnings []Warning

// Has reports whether any warning concerns field.
func (ws Warnings) Has(field string) bool {
	for _, w := range ws {
		if w.Field == field {
			return true
		}
	}

	return false
}

// HasCode reports whether any warning has the given code.
func (ws Warnings) HasCode(code WarningCode) bool {
	for _, w := range ws {
		if w.Code == code {
			return true
		}
	}

	return false
}

// Strings renders each warning with Warning.String, keeping order.
func (ws Warnings) Strings() []string {
	out := make([]string, len(ws))
	for i, w := range ws {
		out[i] = w.String()
	}

	return out
}

func mismatch[T any](field string, expected, got T) Warning {
	return Warning{
		Code:     WarnMismatch,
		Field:    field,
		Expected: fmt.Sprint(expected),
		Got:      fmt.Sprint(got),
	}
}
