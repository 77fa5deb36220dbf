package shade

import "fmt"

// Stats describes the blocks of a compressed stream.
type Stats struct {
	Literals    int // literal blocks
	LiteralSize int // bytes carried by literal blocks
	Runs        int // repeated-byte blocks
	Backrefs    int // backreference blocks
	Extensions  int // extension bytes following backreferences
	StreamSize  int // bytes consumed, terminator included
	DecodedSize int // bytes produced before padding
}

// Decode decompresses a stream and pads the result with zeros to a multiple
// of Alignment. The trailing sentinel written by Encode is dropped when it is
// the only byte spilling past a boundary, so Decode(Encode(d)) returns d
// unchanged whenever len(d) is already aligned.
func Decode(src []byte) ([]byte, error) {
	raw, err := decode(src, nil)
	if err != nil {
		return nil, err
	}
	if n := len(raw); n%Alignment == 1 && raw[n-1] == 0 {
		raw = raw[:n-1]
	}
	return Pad(raw), nil
}

// DecodeRaw decompresses a stream and returns exactly the bytes it describes.
func DecodeRaw(src []byte) ([]byte, error) {
	return decode(src, nil)
}

// Inspect walks a stream and reports its block composition.
func Inspect(src []byte) (Stats, error) {
	var st Stats
	if _, err := decode(src, &st); err != nil {
		return Stats{}, err
	}
	return st, nil
}

// Pad extends b with zeros up to the next multiple of Alignment. The
// returned slice may share memory with b.
func Pad(b []byte) []byte {
	rem := len(b) % Alignment
	if rem == 0 {
		return b
	}
	return append(b, make([]byte, Alignment-rem)...)
}

func decode(src []byte, st *Stats) ([]byte, error) {
	out := make([]byte, 0, len(src)*2)
	p := 0

	// next reads the byte following a control byte
	next := func(what string) (byte, error) {
		if p >= len(src) {
			return 0, fmt.Errorf("%w: stream ends inside %s at offset %d", ErrCorruptStream, what, p)
		}
		b := src[p]
		p++
		return b, nil
	}

	for {
		if p >= len(src) {
			return nil, fmt.Errorf("%w: missing terminator after %d bytes", ErrCorruptStream, len(src))
		}
		ctrl := src[p]
		p++

		switch {
		case ctrl == terminator:
			if st != nil {
				st.StreamSize = p
				st.DecodedSize = len(out)
			}
			return out, nil

		case ctrl&backrefTag != 0:
			lo, err := next("backreference")
			if err != nil {
				return nil, err
			}
			dist := int(lo) | int(ctrl&backrefDist)<<8
			length := int(ctrl&backrefLenBit)>>5 + MinMatch
			from := len(out) - dist
			if dist == 0 || from < 0 {
				return nil, fmt.Errorf("%w: backreference distance %d at output offset %d", ErrCorruptStream, dist, len(out))
			}
			out = copyBack(out, from, length)
			from += length
			if st != nil {
				st.Backrefs++
			}

			for p < len(src) && src[p]&extensionMask == extensionTag {
				extra := int(src[p] & MaxExtension)
				p++
				out = copyBack(out, from, extra)
				from += extra
				if st != nil {
					st.Extensions++
				}
			}

		case ctrl&0xC0 == runTag:
			count := int(ctrl&runMask) + MinRun
			if ctrl&runLong != 0 {
				lo, err := next("run header")
				if err != nil {
					return nil, err
				}
				count = int(lo) + int(ctrl&runMask)<<8 + MinRun
			}
			value, err := next("run value")
			if err != nil {
				return nil, err
			}
			for i := 0; i < count; i++ {
				out = append(out, value)
			}
			if st != nil {
				st.Runs++
			}

		default:
			count := int(ctrl & literalMask)
			if ctrl&literalLong != 0 {
				lo, err := next("literal header")
				if err != nil {
					return nil, err
				}
				count = int(lo) + int(ctrl&literalMask)<<8
			}
			if p+count > len(src) {
				return nil, fmt.Errorf("%w: literal of %d bytes at offset %d overruns stream of %d bytes", ErrCorruptStream, count, p, len(src))
			}
			out = append(out, src[p:p+count]...)
			p += count
			if st != nil {
				st.Literals++
				st.LiteralSize += count
			}
		}
	}
}

// copyBack appends n bytes read from out[from:], byte by byte so that the
// source may overlap what is being written.
func copyBack(out []byte, from, n int) []byte {
	for i := 0; i < n; i++ {
		out = append(out, out[from+i])
	}
	return out
}
