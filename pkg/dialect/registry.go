package dialect

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
)

var (
	// ErrDialectRequired is returned when a dialect is required but not provided.
	ErrDialectRequired = errors.New("dialect is required")
	// ErrUnknownDialect is returned for a dialect id that is not registered.
	ErrUnknownDialect = errors.New("unknown dialect")
	// ErrDuplicateDialect is returned when registering an id twice.
	ErrDuplicateDialect = errors.New("dialect already registered")
)

// Registry holds validated dialects by lowercased id. It is safe for
// concurrent use; dialects themselves are immutable.
type Registry struct {
	mu       sync.RWMutex
	dialects map[string]*Dialect
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{dialects: make(map[string]*Dialect)}
}

// Register adds d. Ids are case-insensitive.
func (r *Registry) Register(d *Dialect) error {
	if d == nil {
		panic("dialect: Register called with nil dialect")
	}
	id := strings.ToLower(d.ID)
	if id == "" {
		return ErrDialectRequired
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.dialects[id]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicateDialect, id)
	}
	r.dialects[id] = d
	return nil
}

// Get returns the dialect for id, failing on an empty or unknown id.
func (r *Registry) Get(id string) (*Dialect, error) {
	if id == "" {
		return nil, ErrDialectRequired
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	d, ok := r.dialects[strings.ToLower(id)]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownDialect, id)
	}
	return d, nil
}

// List returns all registered dialect ids (sorted).
func (r *Registry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ids := make([]string, 0, len(r.dialects))
	for id := range r.dialects {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Len returns the number of registered dialects.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.dialects)
}

// Clone returns an independent registry holding the same dialects.
func (r *Registry) Clone() *Registry {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := NewRegistry()
	for id, d := range r.dialects {
		out.dialects[id] = d
	}
	return out
}

// builtins holds the dialects compiled into the binary.
var builtins = NewRegistry()

// Register adds a built-in dialect. Called by dialect packages in their
// init() functions; a failure there is a programming error.
func Register(d *Dialect) {
	if err := builtins.Register(d); err != nil {
		panic(err)
	}
}

// Get returns a built-in dialect by id.
func Get(id string) (*Dialect, error) {
	return builtins.Get(id)
}

// MustGet is Get for ids known to be compiled in.
func MustGet(id string) *Dialect {
	d, err := builtins.Get(id)
	if err != nil {
		panic(err)
	}
	return d
}

// List returns the ids of all built-in dialects (sorted).
func List() []string {
	return builtins.List()
}

// Builtins returns a copy of the built-in registry, ready to be extended.
func Builtins() *Registry {
	return builtins.Clone()
}
