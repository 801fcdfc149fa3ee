// Package registry holds the view modules an application can load by
// identifier, the Go counterpart of a dynamic module import.
package registry

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

// ErrModuleNotFound is returned by Load for identifiers never registered.
var ErrModuleNotFound = errors.New("module not found")

// Module is a loaded module with a default export.
type Module struct {
	Default any
	Exports map[string]any
}

// LoadFunc produces a module value on first Load.
type LoadFunc func(ctx context.Context) (any, error)

// ModuleInfo holds metadata about a registered module
type ModuleInfo struct {
	ID         string
	Value      any
	Loader     LoadFunc
	Loaded     bool
	Registered time.Time
}

// ModuleEvent represents a change in the module registry
type ModuleEvent struct {
	Type      EventType
	Module    *ModuleInfo
	Timestamp time.Time
}

// EventType represents the type of module event
type EventType int

const (
	EventTypeAdded EventType = iota
	EventTypeUpdated
	EventTypeRemoved
	EventTypeLoaded
)

func (t EventType) String() string {
	switch t {
	case EventTypeAdded:
		return "added"
	case EventTypeUpdated:
		return "updated"
	case EventTypeRemoved:
		return "removed"
	case EventTypeLoaded:
		return "loaded"
	default:
		return "unknown"
	}
}

// ViewRegistry manages modules addressable by identifier
type ViewRegistry struct {
	modules  map[string]*ModuleInfo
	mutex    sync.RWMutex
	watchers []chan ModuleEvent
	loads    singleflight.Group
}

// NewViewRegistry creates a new module registry
func NewViewRegistry() *ViewRegistry {
	return &ViewRegistry{
		modules:  make(map[string]*ModuleInfo),
		watchers: make([]chan ModuleEvent, 0),
	}
}

// Register adds or updates a module whose value is already available.
func (r *ViewRegistry) Register(id string, value any) {
	r.store(&ModuleInfo{ID: id, Value: value, Loaded: true, Registered: time.Now()})
}

// RegisterLoader adds or updates a module realized lazily by Load.
func (r *ViewRegistry) RegisterLoader(id string, load LoadFunc) {
	r.store(&ModuleInfo{ID: id, Loader: load, Registered: time.Now()})
}

func (r *ViewRegistry) store(info *ModuleInfo) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	eventType := EventTypeAdded
	if _, exists := r.modules[info.ID]; exists {
		eventType = EventTypeUpdated
	}

	r.modules[info.ID] = info
	r.notify(ModuleEvent{Type: eventType, Module: info, Timestamp: time.Now()})
}

// notify must be called with the mutex held.
func (r *ViewRegistry) notify(event ModuleEvent) {
	for _, watcher := range r.watchers {
		select {
		case watcher <- event:
		default:
			// Skip if channel is full
		}
	}
}

// Get retrieves a loaded module value by identifier
func (r *ViewRegistry) Get(id string) (any, bool) {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	info, exists := r.modules[id]
	if !exists || !info.Loaded {
		return nil, false
	}
	return info.Value, true
}

// Load returns the module value, running its loader on first use.
// Concurrent loads of one identifier share a single loader call; a failed
// load leaves the module unloaded so a later call retries.
func (r *ViewRegistry) Load(ctx context.Context, id string) (any, error) {
	r.mutex.RLock()
	info, exists := r.modules[id]
	r.mutex.RUnlock()

	if !exists {
		return nil, fmt.Errorf("%w: %s", ErrModuleNotFound, id)
	}
	if info.Loaded {
		return info.Value, nil
	}

	value, err, _ := r.loads.Do(id, func() (any, error) {
		value, err := callLoader(ctx, info.Loader)
		if err != nil {
			return nil, err
		}

		r.mutex.Lock()
		defer r.mutex.Unlock()
		// only realize the registration that was loaded
		if current, ok := r.modules[id]; ok && current == info {
			loaded := &ModuleInfo{
				ID:         id,
				Value:      value,
				Loader:     info.Loader,
				Loaded:     true,
				Registered: info.Registered,
			}
			r.modules[id] = loaded
			r.notify(ModuleEvent{Type: EventTypeLoaded, Module: loaded, Timestamp: time.Now()})
		}
		return value, nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to load module %s: %w", id, err)
	}
	return value, nil
}

func callLoader(ctx context.Context, load LoadFunc) (value any, err error) {
	if load == nil {
		return nil, errors.New("module has no value and no loader")
	}
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("module loader panicked: %v", rec)
		}
	}()
	return load(ctx)
}

// Info returns the metadata of a module.
func (r *ViewRegistry) Info(id string) (*ModuleInfo, bool) {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	info, exists := r.modules[id]
	return info, exists
}

// Names returns all registered identifiers in sorted order.
func (r *ViewRegistry) Names() []string {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	names := make([]string, 0, len(r.modules))
	for id := range r.modules {
		names = append(names, id)
	}
	sort.Strings(names)
	return names
}

// Remove removes a module from the registry
func (r *ViewRegistry) Remove(id string) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	info, exists := r.modules[id]
	if !exists {
		return
	}

	delete(r.modules, id)
	r.notify(ModuleEvent{Type: EventTypeRemoved, Module: info, Timestamp: time.Now()})
}

// Watch returns a channel that receives module events
func (r *ViewRegistry) Watch() <-chan ModuleEvent {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	ch := make(chan ModuleEvent, 100)
	r.watchers = append(r.watchers, ch)
	return ch
}

// UnWatch removes a watcher channel and closes it
func (r *ViewRegistry) UnWatch(ch <-chan ModuleEvent) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	for i, watcher := range r.watchers {
		if watcher == ch {
			close(watcher)
			r.watchers = append(r.watchers[:i], r.watchers[i+1:]...)
			break
		}
	}
}

// Count returns the number of registered modules
func (r *ViewRegistry) Count() int {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	return len(r.modules)
}
