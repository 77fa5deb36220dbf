// Package shade implements the Shade compression scheme used by the game's
// archive payloads. The stream is a sequence of control blocks (literal runs,
// repeated bytes and backreferences) terminated by a zero control byte, and
// is decoded on the console by a fixed routine, so every stream produced here
// must stay within the grammar that routine understands.
package shade

import "errors"

// Stream limits. These are properties of the on-disk format, not tuning knobs.
const (
	// MinMatch is the shortest backreference the format can express.
	MinMatch = 4

	// MaxBaseMatch is the longest backreference expressible without
	// extension bytes.
	MaxBaseMatch = MinMatch + 3

	// MaxExtension is the most bytes a single extension byte can add.
	MaxExtension = 0x1F

	// MaxDistance is the furthest a backreference can reach (13 bits).
	MaxDistance = 0x1FFF

	// MaxLiteral is the longest literal block (13-bit count).
	MaxLiteral = 0x1FFF

	// MaxShortLiteral is the longest literal block with a 1-byte header.
	MaxShortLiteral = 0x1F

	// MinRun is the shortest repeated-byte block.
	MinRun = 4

	// MaxShortRun is the longest repeated-byte block with a 1-byte header.
	MaxShortRun = MinRun + 0x0F

	// MaxRun caps how far the encoder extends a repeated-byte block.
	MaxRun = 499

	// Alignment is the boundary decoded payloads are padded to.
	Alignment = 16
)

// Control byte layout.
const (
	terminator = 0x00

	literalLong = 0x20
	literalMask = 0x1F

	runTag  = 0x40
	runLong = 0x10
	runMask = 0x0F

	backrefTag    = 0x80
	backrefLenBit = 0x60
	backrefDist   = 0x1F

	extensionTag  = 0x60
	extensionMask = 0xE0
)

// ErrCorruptStream is returned when a compressed stream references data it
// has not produced yet, is cut short, or never terminates.
var ErrCorruptStream = errors.New("shade: corrupt stream")
