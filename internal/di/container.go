// Package di holds the per-application service registry.
//
// Services are registered either as ready values or as factories. A factory
// is realized on first access with the owning application as its argument;
// the produced value replaces the factory for the rest of the registry's
// lifetime.
package di

import (
	"context"
	"fmt"
	"sort"
	"sync"
)

// Factory creates a service for its owner.
type Factory[O any] func(owner O) (any, error)

// Shutdowner is implemented by services that release resources when the
// registry is shut down.
type Shutdowner interface {
	Shutdown(ctx context.Context) error
}

// Registry manages lazily created singleton services owned by one application.
//
// Invariants:
//   - a factory runs at most once per registration, even under concurrent Get
//   - realized values never revert to factories
//   - creating holds an entry only while its factory runs
type Registry[O any] struct {
	owner     O
	instances map[string]any
	factories map[string]Factory[O]
	creating  map[string]*sync.WaitGroup
	mu        sync.RWMutex
}

// NewRegistry creates an empty registry for owner.
func NewRegistry[O any](owner O) *Registry[O] {
	return &Registry[O]{
		owner:     owner,
		instances: make(map[string]any),
		factories: make(map[string]Factory[O]),
		creating:  make(map[string]*sync.WaitGroup),
	}
}

// Set overwrites the named entry. Plain func(O) any and func(O) (any, error)
// values are stored as unrealized factories, anything else as a realized
// service. Replacing an entry runs no lifecycle hook on the old value.
func (r *Registry[O]) Set(name string, value any) {
	switch fn := value.(type) {
	case Factory[O]:
		r.SetFactory(name, fn)
	case func(O) (any, error):
		r.SetFactory(name, fn)
	case func(O) any:
		r.SetFactory(name, func(owner O) (any, error) { return fn(owner), nil })
	default:
		r.mu.Lock()
		defer r.mu.Unlock()
		delete(r.factories, name)
		r.instances[name] = value
	}
}

// SetFactory registers a factory realized on first Get.
func (r *Registry[O]) SetFactory(name string, factory Factory[O]) {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.instances, name)
	r.factories[name] = factory
}

// Get returns the named service, realizing its factory on first access.
//
// A factory must not request its own service; that would wait for itself.
func (r *Registry[O]) Get(name string) (any, error) {
	// First check - read lock
	r.mu.RLock()
	if instance, exists := r.instances[name]; exists {
		r.mu.RUnlock()
		return instance, nil
	}
	wg, creating := r.creating[name]
	r.mu.RUnlock()

	if creating {
		wg.Wait()
		return r.realized(name)
	}

	// Second check with write lock - establish creation reservation
	r.mu.Lock()
	if instance, exists := r.instances[name]; exists {
		r.mu.Unlock()
		return instance, nil
	}
	if wg, creating := r.creating[name]; creating {
		r.mu.Unlock()
		wg.Wait()
		return r.realized(name)
	}

	factory, exists := r.factories[name]
	if !exists {
		r.mu.Unlock()
		return nil, fmt.Errorf("service '%s' not registered", name)
	}

	wg = &sync.WaitGroup{}
	wg.Add(1)
	r.creating[name] = wg
	r.mu.Unlock()

	// Create the instance without holding any locks
	instance, err := r.create(factory)

	r.mu.Lock()
	delete(r.creating, name)
	if err == nil {
		delete(r.factories, name)
		r.instances[name] = instance
	}
	r.mu.Unlock()
	wg.Done()

	if err != nil {
		return nil, fmt.Errorf("failed to create service '%s': %w", name, err)
	}
	return instance, nil
}

func (r *Registry[O]) create(factory Factory[O]) (instance any, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("factory panicked: %v", rec)
		}
	}()
	return factory(r.owner)
}

// realized reads the value a concurrent Get produced.
func (r *Registry[O]) realized(name string) (any, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if instance, exists := r.instances[name]; exists {
		return instance, nil
	}
	return nil, fmt.Errorf("service '%s' could not be created", name)
}

// MustGet retrieves a service and panics if it is unavailable.
func (r *Registry[O]) MustGet(name string) any {
	instance, err := r.Get(name)
	if err != nil {
		panic(fmt.Sprintf("failed to get service '%s': %v", name, err))
	}
	return instance
}

// Has reports whether the name is registered, realized or not.
func (r *Registry[O]) Has(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	_, realized := r.instances[name]
	_, pending := r.factories[name]
	return realized || pending
}

// Realized reports whether the named service has been created.
func (r *Registry[O]) Realized(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	_, ok := r.instances[name]
	return ok
}

// Names returns every registered name in sorted order.
func (r *Registry[O]) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.instances)+len(r.factories))
	for name := range r.instances {
		names = append(names, name)
	}
	for name := range r.factories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Shutdown shuts down every realized service implementing Shutdowner and
// empties the registry.
func (r *Registry[O]) Shutdown(ctx context.Context) error {
	r.mu.Lock()
	instances := r.instances
	r.instances = make(map[string]any)
	r.factories = make(map[string]Factory[O])
	r.mu.Unlock()

	names := make([]string, 0, len(instances))
	for name := range instances {
		names = append(names, name)
	}
	sort.Strings(names)

	var errs []error
	for _, name := range names {
		if s, ok := instances[name].(Shutdowner); ok {
			if err := s.Shutdown(ctx); err != nil {
				errs = append(errs, fmt.Errorf("failed to shutdown %s: %w", name, err))
			}
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("shutdown errors: %v", errs)
	}
	return nil
}
