package archive

import (
	"errors"
	"fmt"
	"io"
	"sort"

	"gopkg.in/yaml.v3"
)

// Names maps entry indices to human-readable names. Archives carry no names
// of their own; translators keep them in a YAML file of "index: name" pairs.
type Names map[int]string

// LoadNames reads a name table. Names must be unique.
func LoadNames(r io.Reader) (Names, error) {
	names := Names{}
	if err := yaml.NewDecoder(r).Decode(&names); err != nil {
		if errors.Is(err, io.EOF) {
			return names, nil
		}
		return nil, fmt.Errorf("failed to parse name table: %w", err)
	}

	seen := make(map[string]int, len(names))
	for _, i := range names.Indices() {
		name := names[i]
		if i < 0 {
			return nil, fmt.Errorf("name table: negative index %d", i)
		}
		if name == "" {
			return nil, fmt.Errorf("name table: empty name for index %d", i)
		}
		if prev, ok := seen[name]; ok {
			return nil, fmt.Errorf("name table: %q used by both %d and %d", name, prev, i)
		}
		seen[name] = i
	}
	return names, nil
}

// Indices returns the named indices in ascending order.
func (n Names) Indices() []int {
	out := make([]int, 0, len(n))
	for i := range n {
		out = append(out, i)
	}
	sort.Ints(out)
	return out
}

// ApplyNames sets entry names from n and reports how many entries matched.
// Indices past the end of the archive are ignored.
func (a *Archive) ApplyNames(n Names) int {
	applied := 0
	for i, name := range n {
		if e, ok := a.Get(i); ok {
			e.Name = name
			applied++
		}
	}
	return applied
}

// Names returns the names currently set on the archive's entries.
func (a *Archive) Names() Names {
	out := Names{}
	for _, e := range a.entries {
		if e.Name != "" {
			out[e.Index] = e.Name
		}
	}
	return out
}
