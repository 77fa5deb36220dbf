package archive

import (
	"bytes"
	"encoding/binary"
	"fmt"
)

// Schema selects how the file table describes entry payloads.
type Schema int

const (
	// SchemaOffsetSize stores a count followed by one (offset, size) pair
	// per entry.
	SchemaOffsetSize Schema = iota

	// SchemaOffsetList stores a count followed by count+1 offsets. An
	// entry's size is the distance to the next offset and the final offset
	// marks the end of the archive.
	SchemaOffsetList
)

// String returns the configuration name of a schema.
func (s Schema) String() string {
	switch s {
	case SchemaOffsetSize:
		return "offset-size"
	case SchemaOffsetList:
		return "offset-list"
	default:
		return fmt.Sprintf("unknown(%d)", int(s))
	}
}

// ParseSchema parses a schema from its configuration name.
func ParseSchema(name string) (Schema, error) {
	switch name {
	case "offset-size":
		return SchemaOffsetSize, nil
	case "offset-list":
		return SchemaOffsetList, nil
	default:
		return 0, fmt.Errorf("unknown table schema: %q", name)
	}
}

// Layout describes the on-disk header and table of an archive.
type Layout struct {
	Schema Schema

	// Alignment rounds every payload offset up to a multiple of itself.
	// Values below 2 disable rounding.
	Alignment int

	// ByteOrder of the header and table words. Nil means little-endian.
	ByteOrder binary.ByteOrder
}

// DefaultLayout returns the offset-size schema, unaligned, little-endian.
func DefaultLayout() Layout {
	return Layout{
		Schema:    SchemaOffsetSize,
		Alignment: 1,
		ByteOrder: binary.LittleEndian,
	}
}

// archiveHead is the fixed part of the header.
type archiveHead struct {
	Count uint32
}

// tableEntry locates one payload.
type tableEntry struct {
	offset int
	size   int
}

func (l Layout) order() binary.ByteOrder {
	if l.ByteOrder == nil {
		return binary.LittleEndian
	}
	return l.ByteOrder
}

func (l Layout) align(n int) int {
	if l.Alignment < 2 {
		return n
	}
	return (n + l.Alignment - 1) / l.Alignment * l.Alignment
}

func (l Layout) tableWords(count int) int {
	if l.Schema == SchemaOffsetList {
		return count + 1
	}
	return count * 2
}

// TableSize returns the byte size of the header and table for count entries.
func (l Layout) TableSize(count int) int {
	return binary.Size(archiveHead{}) + 4*l.tableWords(count)
}

// FirstOffset returns where the first payload starts for count entries.
func (l Layout) FirstOffset(count int) int {
	return l.align(l.TableSize(count))
}

// place assigns an offset to each payload and returns the end of the last one.
func (l Layout) place(payloads [][]byte) ([]int, int) {
	offsets := make([]int, len(payloads))
	p := l.FirstOffset(len(payloads))
	for i, b := range payloads {
		offsets[i] = p
		p = l.align(p + len(b))
	}
	return offsets, p
}

func (l Layout) readTable(buf []byte) ([]tableEntry, error) {
	rs := bytes.NewReader(buf)

	var head archiveHead
	if err := binary.Read(rs, l.order(), &head); err != nil {
		return nil, fmt.Errorf("%w: reading header: %v", ErrTruncatedArchive, err)
	}

	count := int(head.Count)
	words := l.tableWords(count)
	if int64(words)*4 > int64(rs.Len()) {
		return nil, fmt.Errorf("%w: table of %d entries needs %d bytes, %d available",
			ErrTruncatedArchive, count, words*4, rs.Len())
	}

	table := make([]uint32, words)
	if err := binary.Read(rs, l.order(), table); err != nil {
		return nil, fmt.Errorf("%w: reading table (count=%d): %v", ErrTruncatedArchive, count, err)
	}

	entries := make([]tableEntry, count)
	for i := range entries {
		switch l.Schema {
		case SchemaOffsetList:
			if table[i+1] < table[i] {
				return nil, fmt.Errorf("%w: entry %d ends at 0x%X before it starts at 0x%X",
					ErrMalformedTable, i, table[i+1], table[i])
			}
			entries[i] = tableEntry{offset: int(table[i]), size: int(table[i+1] - table[i])}
		default:
			entries[i] = tableEntry{offset: int(table[2*i]), size: int(table[2*i+1])}
		}
	}

	tableEnd := l.TableSize(count)
	prevEnd := tableEnd
	for i, te := range entries {
		if te.offset < tableEnd {
			return nil, fmt.Errorf("%w: entry %d offset 0x%X lies inside the table ending at 0x%X",
				ErrMalformedTable, i, te.offset, tableEnd)
		}
		if te.offset < prevEnd {
			return nil, fmt.Errorf("%w: entry %d at 0x%X starts before entry %d ends at 0x%X",
				ErrMalformedTable, i, te.offset, i-1, prevEnd)
		}
		prevEnd = te.offset + te.size
		if te.offset+te.size > len(buf) {
			return nil, fmt.Errorf("%w: entry %d spans 0x%X-0x%X, archive is 0x%X bytes",
				ErrTruncatedArchive, i, te.offset, te.offset+te.size, len(buf))
		}
	}

	return entries, nil
}

func (l Layout) writeTable(dst []byte, entries []tableEntry, end int) {
	order := l.order()
	order.PutUint32(dst, uint32(len(entries)))
	p := binary.Size(archiveHead{})
	for _, te := range entries {
		order.PutUint32(dst[p:], uint32(te.offset))
		p += 4
		if l.Schema != SchemaOffsetList {
			order.PutUint32(dst[p:], uint32(te.size))
			p += 4
		}
	}
	if l.Schema == SchemaOffsetList {
		order.PutUint32(dst[p:], uint32(end))
	}
}
