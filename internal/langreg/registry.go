// Package langreg keeps language definitions and loads their configuration
// lazily, at most once per language.
package langreg

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"golang.org/x/sync/singleflight"
)

// ErrUnknownLanguage is returned for ids that were never registered.
var ErrUnknownLanguage = errors.New("langreg: unknown language")

// Loader produces the configuration of one language.
type Loader func(ctx context.Context) (*Language, error)

// Definition registers a language id and how to load it.
type Definition struct {
	ID         string   `json:"id"`
	Extensions []string `json:"extensions"`
	Aliases    []string `json:"aliases"`
	Loader     Loader   `json:"-"`
}

// Registry maps language ids to definitions and loaded configurations.
// It is safe for concurrent use.
type Registry struct {
	mu     sync.RWMutex
	defs   map[string]Definition
	loaded map[string]*Language
	group  singleflight.Group
}

// New returns an empty registry.
func New() *Registry {
	return &Registry{
		defs:   make(map[string]Definition),
		loaded: make(map[string]*Language),
	}
}

// NewDefault returns a registry with the built-in Markdown definition.
func NewDefault() *Registry {
	r := New()
	r.Register(Markdown())
	return r
}

// Register adds or replaces a definition. Replacing evicts any loaded
// configuration for the id.
func (r *Registry) Register(def Definition) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.defs[def.ID] = def
	delete(r.loaded, def.ID)
}

// Definitions lists registered definitions ordered by id.
func (r *Registry) Definitions() []Definition {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Definition, 0, len(r.defs))
	for _, d := range r.defs {
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Load returns the configuration for id, running its loader on first use.
// Concurrent first calls share one loader run. Failed loads are not cached.
func (r *Registry) Load(ctx context.Context, id string) (*Language, error) {
	if l, ok := r.Lookup(id); ok {
		return l, nil
	}

	r.mu.RLock()
	def, ok := r.defs[id]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownLanguage, id)
	}

	v, err, _ := r.group.Do(id, func() (any, error) {
		if l, ok := r.Lookup(id); ok {
			return l, nil
		}
		l, err := def.Loader(ctx)
		if err != nil {
			return nil, fmt.Errorf("langreg: load %s: %w", id, err)
		}
		r.mu.Lock()
		r.loaded[id] = l
		r.mu.Unlock()
		return l, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*Language), nil
}

// Lookup returns the configuration for id if it has been loaded.
func (r *Registry) Lookup(id string) (*Language, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	l, ok := r.loaded[id]
	return l, ok
}

// Evict forgets the loaded configuration for id; the next Load runs the
// loader again.
func (r *Registry) Evict(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.loaded, id)
}

// ForPath resolves a file path to a language id by extension.
func (r *Registry) ForPath(path string) (string, bool) {
	ext := strings.ToLower(filepath.Ext(path))
	if ext == "" {
		return "", false
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	for id, d := range r.defs {
		for _, e := range d.Extensions {
			if strings.EqualFold(e, ext) {
				return id, true
			}
		}
	}
	return "", false
}
