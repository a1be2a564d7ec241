package automation

import (
	"fmt"
	"slices"
	"sync"
)

// Registry holds every registered parameter. It is built once at startup
// and passed to the components that create automation data or resolve
// persisted parameter ids.
//
// Registry is safe for concurrent use.
type Registry struct {
	mu      sync.RWMutex
	byKey   map[Key]*Parameter
	all     []*Parameter
	byOwner map[*OwnerType][]*Parameter
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		byKey:   make(map[Key]*Parameter),
		byOwner: make(map[*OwnerType][]*Parameter),
	}
}

func (r *Registry) add(p *Parameter) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.byKey[p.key]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicateParameter, p.key)
	}
	p.index = len(r.all)
	r.all = append(r.all, p)
	r.byKey[p.key] = p
	r.byOwner[p.owner] = append(r.byOwner[p.owner], p)
	return nil
}

// Lookup returns the parameter registered under key.
func (r *Registry) Lookup(key Key) (*Parameter, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.byKey[key]
	return p, ok
}

// LookupID parses a "domain::name" id and returns its parameter.
func (r *Registry) LookupID(id string) (*Parameter, error) {
	key, err := ParseKey(id)
	if err != nil {
		return nil, err
	}
	p, ok := r.Lookup(key)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownParameter, id)
	}
	return p, nil
}

// ByGlobalIndex returns the parameter with the given registration index.
func (r *Registry) ByGlobalIndex(i int) (*Parameter, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if i < 0 || i >= len(r.all) {
		return nil, false
	}
	return r.all[i], true
}

// Len returns the number of registered parameters.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.all)
}

// RegisteredOn returns the parameters registered directly on t, in
// registration order.
func (r *Registry) RegisteredOn(t *OwnerType) []*Parameter {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return slices.Clone(r.byOwner[t])
}

// ApplicableTo returns the parameters registered on t and its base types,
// ordered by global index.
func (r *Registry) ApplicableTo(t *OwnerType) []*Parameter {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []*Parameter
	for c := t; c != nil; c = c.parent {
		out = append(out, r.byOwner[c]...)
	}
	slices.SortFunc(out, func(a, b *Parameter) int { return a.index - b.index })
	return out
}
