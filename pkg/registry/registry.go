// Package registry implements the process-wide sertype registry: a
// mutex-protected table deduplicating type descriptors by name so
// multiple readers/writers of the same topic type share one precompiled
// program instance, with lookups refcounted the way CycloneDDS's
// ddsi_sertype registry tracks how many live entities reference a
// sertype.
//
// A single mutex-guarded struct holds one map of named entries with a
// Register/Lookup/Release/Get/List/Count method family; each registration
// is stamped with a google/uuid correlation id.
package registry

import (
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/ddsx/cdrstream/internal/logger"
	"github.com/ddsx/cdrstream/pkg/typedesc"
)

// entry is one registered type, plus the bookkeeping the registry needs to
// dedup re-registrations and evict on last release.
type entry struct {
	id       uuid.UUID
	desc     *typedesc.TypeDescriptor
	refcount int
}

// Registry is the process-wide sertype table: a name -> type descriptor
// map, protected by a single RWMutex.
type Registry struct {
	mu     sync.RWMutex
	types  map[string]*entry
	retain bool
}

// NewRegistry creates an empty sertype registry using the default
// "refcount" eviction policy: an entry is dropped as soon as its last
// Release brings the count to zero.
func NewRegistry() *Registry {
	return &Registry{types: make(map[string]*entry)}
}

// NewRegistryRetaining creates an empty sertype registry using the
// "retain" eviction policy (pkg/config's RegistryConfig.EvictionPolicy):
// Release still reports whether the count reached zero, but never deletes
// the entry. A one-shot CLI command that registers many ad hoc types for
// the lifetime of the process wants every earlier Lookup/Get result to
// stay valid without having to track a matching Release for each.
func NewRegistryRetaining() *Registry {
	return &Registry{types: make(map[string]*entry), retain: true}
}

// Register adds desc under name with an initial reference count of 1,
// representing the caller's own hold on it. Registering the same *pointer*
// again under the same name is idempotent: it bumps the refcount and
// returns the existing registration id instead of erroring. Registering a
// *different* descriptor
// under a name already in use is a collision and returns an error — two
// distinct types may never share a wire name in this registry.
func (r *Registry) Register(name string, desc *typedesc.TypeDescriptor) (uuid.UUID, error) {
	if name == "" {
		return uuid.Nil, fmt.Errorf("registry: cannot register type with empty name")
	}
	if desc == nil {
		return uuid.Nil, fmt.Errorf("registry: cannot register nil type descriptor for %q", name)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if e, exists := r.types[name]; exists {
		if e.desc != desc {
			return uuid.Nil, fmt.Errorf("registry: type %q already registered with a different descriptor", name)
		}
		e.refcount++
		logger.Info("sertype re-registered",
			logger.KeyTypeName, name,
			logger.KeyRegistrationID, e.id.String(),
			logger.KeyRefcount, e.refcount,
		)
		return e.id, nil
	}

	e := &entry{id: uuid.New(), desc: desc, refcount: 1}
	r.types[name] = e
	logger.Info("sertype registered",
		logger.KeyTypeName, name,
		logger.KeyRegistrationID, e.id.String(),
		logger.KeyExtensibility, desc.Extensibility.String(),
	)
	return e.id, nil
}

// Lookup returns the descriptor registered under name, incrementing its
// reference count. The caller must call Release when it no longer needs
// the descriptor.
func (r *Registry) Lookup(name string) (*typedesc.TypeDescriptor, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, exists := r.types[name]
	if !exists {
		return nil, fmt.Errorf("registry: type %q not registered", name)
	}
	e.refcount++
	return e.desc, nil
}

// Release decrements name's reference count, evicting the registration
// entirely once it reaches zero. Returns whether the entry was evicted.
func (r *Registry) Release(name string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, exists := r.types[name]
	if !exists {
		return false, fmt.Errorf("registry: type %q not registered", name)
	}

	e.refcount--
	if e.refcount > 0 {
		return false, nil
	}
	if r.retain {
		e.refcount = 0
		return false, nil
	}

	delete(r.types, name)
	logger.Info("sertype evicted",
		logger.KeyTypeName, name,
		logger.KeyRegistrationID, e.id.String(),
	)
	return true, nil
}

// Get returns name's descriptor without touching its reference count, for
// read-only inspection (e.g. the introspection HTTP server's
// /debug/programs/{type} endpoint) where the caller never holds the type
// past the single request.
func (r *Registry) Get(name string) (*typedesc.TypeDescriptor, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	e, exists := r.types[name]
	if !exists {
		return nil, false
	}
	return e.desc, true
}

// RegistrationID returns the correlation id stamped on name's current
// registration, or uuid.Nil if name is not registered.
func (r *Registry) RegistrationID(name string) (uuid.UUID, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	e, exists := r.types[name]
	if !exists {
		return uuid.Nil, false
	}
	return e.id, true
}

// Refcount reports name's current reference count, or 0 if not registered.
func (r *Registry) Refcount(name string) int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	e, exists := r.types[name]
	if !exists {
		return 0
	}
	return e.refcount
}

// List returns the names of every registered type. The returned slice is a
// copy and safe to modify.
func (r *Registry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.types))
	for name := range r.types {
		names = append(names, name)
	}
	return names
}

// Count returns the number of registered types.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.types)
}

// Exists reports whether name is currently registered.
func (r *Registry) Exists(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, exists := r.types[name]
	return exists
}
