// Package registry holds the set of municipal sources permitmap can query:
// where each lives, which wire family it speaks and how much it is trusted.
// A Registry is immutable once built and is passed explicitly to the
// aggregator.
package registry

import (
	_ "embed"
	"fmt"
	"os"
	"slices"
	"strings"

	"github.com/goccy/go-yaml"

	"github.com/agentstation/permitmap/internal/matcher"
	"github.com/agentstation/permitmap/pkg/errors"
)

//go:embed default.yaml
var defaultYAML []byte

// File is the on-disk registry layout.
type File struct {
	Cities []Entry `yaml:"cities" json:"cities"`
}

// Registry is an immutable, validated set of entries keyed by city.
type Registry struct {
	entries map[string]Entry
	keys    []string
}

// New validates entries and builds a registry.
func New(entries ...Entry) (*Registry, error) {
	r := &Registry{entries: make(map[string]Entry, len(entries))}
	for _, e := range entries {
		e.City = normalizeKey(e.City)
		if err := e.Validate(); err != nil {
			return nil, err
		}
		if _, dup := r.entries[e.City]; dup {
			return nil, errors.NewConfigError("registry", fmt.Sprintf("duplicate city %q", e.City), nil)
		}
		r.entries[e.City] = e
		r.keys = append(r.keys, e.City)
	}
	slices.Sort(r.keys)
	return r, nil
}

// Parse builds a registry from YAML.
func Parse(data []byte) (*Registry, error) {
	var f File
	if err := yaml.UnmarshalWithOptions(data, &f, yaml.DisallowUnknownField()); err != nil {
		return nil, errors.WrapConfig("registry", errors.WrapParse("yaml", "registry", err))
	}
	return New(f.Cities...)
}

// Load reads and parses a registry file.
func Load(path string) (*Registry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.NewConfigError("registry", "read "+path, err)
	}
	return Parse(data)
}

// Default returns the built-in registry.
func Default() *Registry {
	r, err := Parse(defaultYAML)
	if err != nil {
		panic(fmt.Sprintf("registry: invalid built-in registry: %v", err))
	}
	return r
}

// Get returns the entry for city.
func (r *Registry) Get(city string) (Entry, bool) {
	e, ok := r.entries[normalizeKey(city)]
	return e, ok
}

// Cities returns all keys in sorted order.
func (r *Registry) Cities() []string {
	return slices.Clone(r.keys)
}

// Entries returns all entries ordered by key.
func (r *Registry) Entries() []Entry {
	out := make([]Entry, len(r.keys))
	for i, k := range r.keys {
		out[i] = r.entries[k]
	}
	return out
}

// Len returns the number of entries.
func (r *Registry) Len() int {
	return len(r.keys)
}

// Select resolves a city filter. An empty filter selects every entry.
// Filter items may be glob patterns ("san_*") or regular expressions with a
// "re:" prefix; each expands to the keys it matches. Keys and patterns that
// match nothing are returned separately, sorted and deduplicated, so the
// caller can report them.
func (r *Registry) Select(cities []string) (selected []Entry, unknown []string) {
	if len(cities) == 0 {
		return r.Entries(), nil
	}
	seen := make(map[string]bool, len(cities))
	missing := make(map[string]bool)
	var keys []string
	add := func(k string) {
		if !seen[k] {
			seen[k] = true
			keys = append(keys, k)
		}
	}
	for _, c := range cities {
		k := normalizeKey(c)
		if k == "" {
			continue
		}
		if !matcher.IsPattern(k) {
			add(k)
			continue
		}
		m, err := matcher.New(matcher.Auto, k)
		if err != nil {
			missing[k] = true
			continue
		}
		matched := m.MatchAll(r.keys...)
		if len(matched) == 0 {
			missing[k] = true
		}
		for _, key := range matched {
			add(key)
		}
	}
	slices.Sort(keys)
	for _, k := range keys {
		if e, ok := r.entries[k]; ok {
			selected = append(selected, e)
		} else {
			missing[k] = true
		}
	}
	for k := range missing {
		unknown = append(unknown, k)
	}
	slices.Sort(unknown)
	return selected, unknown
}

// Marshal encodes the registry as YAML.
func (r *Registry) Marshal() ([]byte, error) {
	return yaml.MarshalWithOptions(File{Cities: r.Entries()}, yaml.Indent(2), yaml.IndentSequence(true))
}

func normalizeKey(city string) string {
	k := strings.ToLower(strings.TrimSpace(city))
	return strings.NewReplacer(" ", "_").Replace(k)
}
