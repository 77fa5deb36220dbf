package archive

import "errors"

// Sentinel errors for archive operations.
var (
	// ErrTruncatedArchive is returned when the table or a payload it
	// describes extends past the end of the buffer.
	ErrTruncatedArchive = errors.New("archive: truncated archive")

	// ErrMalformedTable is returned when table offsets point into the table
	// itself or when an entry starts before the previous one ends.
	ErrMalformedTable = errors.New("archive: malformed table")

	// ErrUnknownIndex is returned when an entry index does not exist.
	ErrUnknownIndex = errors.New("archive: unknown entry index")

	// ErrUnknownName is returned when no entry carries the requested name.
	ErrUnknownName = errors.New("archive: unknown entry name")

	// ErrOffsetMismatch is returned by Verify when a stored offset differs
	// from the recomputed one.
	ErrOffsetMismatch = errors.New("archive: offset mismatch")

	// ErrUnsavedEdits is returned by Verify when the archive has changed
	// since it was loaded or saved.
	ErrUnsavedEdits = errors.New("archive: unsaved edits")

	// ErrTooLarge is returned when a serialized archive cannot be addressed
	// with 32-bit offsets.
	ErrTooLarge = errors.New("archive: archive exceeds 32-bit addressing")
)
