// Package imagefiles maps image file names to byte sources that can each be
// consumed exactly once.
//
// The set of names is fixed once the registry is handed to the assembly
// stage; after that the only mutation is the per-entry take flag, so
// concurrent takes of different names never contend and a second take of
// the same name always fails.
package imagefiles

import (
	"fmt"
	"io"
	"sort"
	"sync"
	"sync/atomic"
)

// Source is a readable, seekable image byte source. Sources that also
// implement io.Closer are closed once taken.
type Source interface {
	io.Reader
	io.Seeker
}

// UnknownFileNameError is returned when a name was never registered or has
// already been taken.
type UnknownFileNameError struct {
	Name string
}

func (e *UnknownFileNameError) Error() string {
	return fmt.Sprintf("no such image file name %q", e.Name)
}

// DuplicateNameError is returned by Add for a name that is already present.
type DuplicateNameError struct {
	Name string
}

func (e *DuplicateNameError) Error() string {
	return fmt.Sprintf("image file %q registered twice", e.Name)
}

type entry struct {
	taken  atomic.Bool
	source Source
}

// Registry is a name-keyed set of consume-once image sources.
// Add must not be called concurrently with Take.
type Registry struct {
	mu      sync.RWMutex
	entries map[string]*entry
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{entries: make(map[string]*entry)}
}

// Add registers src under name.
func (r *Registry) Add(name string, src Source) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.entries[name]; exists {
		return &DuplicateNameError{Name: name}
	}
	r.entries[name] = &entry{source: src}
	return nil
}

// Len returns the number of registered names, taken or not.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.entries)
}

// Names returns the names that have not been taken yet, sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.entries))
	for name, e := range r.entries {
		if !e.taken.Load() {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names
}

// Take reads the full encoded buffer behind name and transfers it to the
// caller. The entry is consumed even if reading fails.
func (r *Registry) Take(name string) ([]byte, error) {
	r.mu.RLock()
	e, ok := r.entries[name]
	r.mu.RUnlock()

	if !ok || !e.taken.CompareAndSwap(false, true) {
		return nil, &UnknownFileNameError{Name: name}
	}

	src := e.source
	e.source = nil
	if c, ok := src.(io.Closer); ok {
		defer c.Close()
	}

	if _, err := src.Seek(0, io.SeekStart); err != nil {
		return nil, fmt.Errorf("rewind image file %q: %w", name, err)
	}
	data, err := io.ReadAll(src)
	if err != nil {
		return nil, fmt.Errorf("read image file %q: %w", name, err)
	}
	tracef("took %s (%d bytes)", name, len(data))
	return data, nil
}
