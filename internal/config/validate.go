package config

import (
	"fmt"

	"github.com/jchantrell/shadearc/internal/archive"
)

// maxAlignment bounds payload alignment to something a cartridge image can
// afford.
const maxAlignment = 1 << 16

var validLogLevels = map[string]bool{
	"debug": true,
	"info":  true,
	"warn":  true,
	"error": true,
}

var validLogFormats = map[string]bool{
	"text": true,
	"json": true,
}

// validateLayout ensures the schema is known and the alignment is a power of
// two no larger than maxAlignment.
func validateLayout(l LayoutConfig) error {
	if _, err := archive.ParseSchema(l.Schema); err != nil {
		return fmt.Errorf("%w: supported schemas are %s, %s",
			err, archive.SchemaOffsetSize, archive.SchemaOffsetList)
	}

	if l.Alignment < 1 || l.Alignment > maxAlignment {
		return fmt.Errorf("alignment %d out of range 1..%d", l.Alignment, maxAlignment)
	}
	if l.Alignment&(l.Alignment-1) != 0 {
		return fmt.Errorf("alignment %d is not a power of two", l.Alignment)
	}

	switch l.Endian {
	case "little", "big":
	default:
		return fmt.Errorf("unsupported endian '%s': use little or big", l.Endian)
	}

	return nil
}

// validateWorkers rejects negative worker counts. Zero means one per CPU.
func validateWorkers(n int) error {
	if n < 0 {
		return fmt.Errorf("workers cannot be negative, got %d", n)
	}
	return nil
}

func validateLogging(level, format string) error {
	if !validLogLevels[level] {
		return fmt.Errorf("unsupported log level '%s': use debug, info, warn or error", level)
	}
	if !validLogFormats[format] {
		return fmt.Errorf("unsupported log format '%s': use text or json", format)
	}
	return nil
}
