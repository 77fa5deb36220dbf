package view

import "fmt"

// View is an opened entry.
type View interface {
	Kind() Kind
}

// Predicate reports whether a source holds a format.
type Predicate func(Source) bool

// Parser opens a source that satisfied its predicate.
type Parser func(Source) (View, error)

type format struct {
	kind  Kind
	match Predicate
	parse Parser
}

// Registry holds the known formats in detection order.
type Registry struct {
	formats []format
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{}
}

// DefaultRegistry knows string tables and falls back to raw bytes.
func DefaultRegistry() *Registry {
	r := NewRegistry()
	r.Register(KindText, IsText, func(src Source) (View, error) { return OpenText(src) })
	r.Register(KindRaw, func(Source) bool { return true }, func(src Source) (View, error) { return OpenRaw(src), nil })
	return r
}

// Register adds a format. Formats registered earlier win detection.
func (r *Registry) Register(kind Kind, match Predicate, parse Parser) {
	r.formats = append(r.formats, format{kind: kind, match: match, parse: parse})
}

// Kinds lists the registered kinds in detection order.
func (r *Registry) Kinds() []Kind {
	out := make([]Kind, len(r.formats))
	for i, f := range r.formats {
		out[i] = f.kind
	}
	return out
}

// Detect returns the first registered kind whose predicate accepts src, or
// KindRaw when none does.
func (r *Registry) Detect(src Source) Kind {
	for _, f := range r.formats {
		if f.match(src) {
			return f.kind
		}
	}
	return KindRaw
}

// Open parses src as kind.
func (r *Registry) Open(kind Kind, src Source) (View, error) {
	for _, f := range r.formats {
		if f.kind != kind {
			continue
		}
		if !f.match(src) {
			return nil, fmt.Errorf("%w: entry %d is not %s", ErrKindMismatch, src.Index, kind)
		}
		return f.parse(src)
	}
	return nil, fmt.Errorf("%w: %s", ErrUnknownKind, kind)
}
