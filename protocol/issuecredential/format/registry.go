package format

import (
	"fmt"
	"sync"
)

// Registry maps the format families and the wire format identifiers to
// their services.
type Registry struct {
	l        sync.RWMutex
	services map[Family]Service
	order    []Family
}

// NewRegistry returns a registry of the services. The order of the
// services is kept.
func NewRegistry(services ...Service) *Registry {
	r := &Registry{services: make(map[Family]Service)}
	for _, s := range services {
		r.Add(s)
	}
	return r
}

// Add registers the service. A service of the same family is replaced.
func (r *Registry) Add(s Service) {
	r.l.Lock()
	defer r.l.Unlock()

	if _, ok := r.services[s.Family()]; !ok {
		r.order = append(r.order, s.Family())
	}
	r.services[s.Family()] = s
}

// Get returns the service of the family.
func (r *Registry) Get(f Family) (Service, bool) {
	r.l.RLock()
	defer r.l.RUnlock()

	s, ok := r.services[f]
	return s, ok
}

// MustGet returns the service of the family or Error.
func (r *Registry) MustGet(f Family) (Service, error) {
	s, ok := r.Get(f)
	if !ok {
		return nil, &Error{Op: "resolve", Format: string(f), Err: ErrUnsupported}
	}
	return s, nil
}

// ForFormat resolves the service of a wire format identifier.
func (r *Registry) ForFormat(id string) (Service, bool) {
	r.l.RLock()
	defer r.l.RUnlock()

	for _, f := range r.order {
		if s := r.services[f]; s.SupportsFormat(id) {
			return s, true
		}
	}
	return nil, false
}

// Families returns the registered families in registration order.
func (r *Registry) Families() []Family {
	r.l.RLock()
	defer r.l.RUnlock()

	return append([]Family{}, r.order...)
}

func (r *Registry) String() string {
	return fmt.Sprint(r.Families())
}
