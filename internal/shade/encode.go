package shade

// Encode compresses src. A zero sentinel is appended before encoding so that
// a payload ending in 0x00 cannot be mistaken for the stream terminator.
//
// The encoder is greedy: at each position it prefers the longest
// backreference, then a repeated-byte run, then a literal. Output is not
// guaranteed to match the game's own packer byte for byte, only to decode to
// the same data.
func Encode(src []byte) []byte {
	buf := make([]byte, len(src)+1)
	copy(buf, src)
	return newEncoder(buf).encode()
}

type encoder struct {
	src []byte
	out []byte

	// dict maps each 4-byte window to the positions it was seen at, oldest
	// first. Positions further back than MaxDistance are evicted as the
	// cursor moves, which bounds the table to MaxDistance+1 positions.
	dict map[[4]byte][]int

	litStart int
	inserted int
}

func newEncoder(src []byte) *encoder {
	return &encoder{
		src:  src,
		out:  make([]byte, 0, len(src)/2+16),
		dict: make(map[[4]byte][]int),
	}
}

func (e *encoder) encode() []byte {
	n := len(e.src)
	pos := 0
	for pos < n {
		if dist, length := e.longestMatch(pos); length >= MinMatch {
			e.flushLiterals(pos)
			e.out = appendBackref(e.out, dist, length)
			pos = e.consume(pos, length)
			continue
		}

		if length := e.runLength(pos); length >= MinRun {
			e.flushLiterals(pos)
			e.out = appendRun(e.out, e.src[pos], length)
			pos = e.consume(pos, length)
			continue
		}

		if pos-e.litStart == MaxLiteral {
			e.flushLiterals(pos)
		}
		e.insertUpTo(pos + 1)
		pos++
	}
	e.flushLiterals(n)
	return append(e.out, terminator)
}

// consume indexes the n positions starting at pos as covered by a block and
// returns the position after them.
func (e *encoder) consume(pos, n int) int {
	end := pos + n
	e.insertUpTo(end)
	e.litStart = end
	return end
}

func (e *encoder) flushLiterals(pos int) {
	if pos > e.litStart {
		e.out = appendLiterals(e.out, e.src[e.litStart:pos])
	}
	e.litStart = pos
}

func (e *encoder) window(pos int) ([4]byte, bool) {
	var key [4]byte
	if pos+len(key) > len(e.src) {
		return key, false
	}
	copy(key[:], e.src[pos:])
	return key, true
}

// insertUpTo adds every position below end to the dictionary and evicts
// positions that fell out of reach.
func (e *encoder) insertUpTo(end int) {
	for ; e.inserted < end; e.inserted++ {
		if key, ok := e.window(e.inserted); ok {
			e.dict[key] = append(e.dict[key], e.inserted)
		}
		e.evict(e.inserted - MaxDistance - 1)
	}
}

func (e *encoder) evict(pos int) {
	if pos < 0 {
		return
	}
	key, ok := e.window(pos)
	if !ok {
		return
	}
	bucket := e.dict[key]
	if len(bucket) == 0 || bucket[0] != pos {
		return
	}
	if len(bucket) == 1 {
		delete(e.dict, key)
		return
	}
	e.dict[key] = bucket[1:]
}

// longestMatch returns the distance and length of the longest run of bytes
// at pos that also occurs within MaxDistance before it. Ties go to the
// earliest candidate.
func (e *encoder) longestMatch(pos int) (dist, length int) {
	key, ok := e.window(pos)
	if !ok {
		return 0, 0
	}
	limit := len(e.src) - pos
	for _, cand := range e.dict[key] {
		if pos-cand > MaxDistance {
			continue
		}
		l := e.matchLength(cand, pos, limit)
		if l > length {
			dist, length = pos-cand, l
			if l == limit {
				break
			}
		}
	}
	return dist, length
}

func (e *encoder) matchLength(cand, pos, limit int) int {
	l := 0
	for l < limit && e.src[cand+l] == e.src[pos+l] {
		l++
	}
	return l
}

// runLength reports how many copies of src[pos] start at pos, capped at
// MaxRun, or 0 when fewer than MinRun bytes repeat.
func (e *encoder) runLength(pos int) int {
	if pos+MinRun > len(e.src) {
		return 0
	}
	b := e.src[pos]
	l := 1
	for l < MaxRun && pos+l < len(e.src) && e.src[pos+l] == b {
		l++
	}
	if l < MinRun {
		return 0
	}
	return l
}

func appendLiterals(out, lits []byte) []byte {
	n := len(lits)
	if n <= MaxShortLiteral {
		out = append(out, byte(n))
	} else {
		out = append(out, literalLong|byte(n>>8), byte(n))
	}
	return append(out, lits...)
}

func appendRun(out []byte, value byte, count int) []byte {
	if count <= MaxShortRun {
		return append(out, runTag|byte(count-MinRun), value)
	}
	v := count - MinRun
	return append(out, runTag|runLong|byte(v>>8), byte(v), value)
}

func appendBackref(out []byte, dist, length int) []byte {
	base := min(length, MaxBaseMatch)
	out = append(out, backrefTag|byte(base-MinMatch)<<5|byte(dist>>8), byte(dist))
	for rest := length - base; rest > 0; {
		extra := min(rest, MaxExtension)
		out = append(out, extensionTag|byte(extra))
		rest -= extra
	}
	return out
}
