// Package events implements the named-event bus shared by an application and
// its views.
//
// Emit returns an aggregate boolean: it is false when at least one handler
// returned false. The navigation guard uses that result as its synchronous
// veto channel.
package events

import (
	"sync"

	"go.uber.org/atomic"
)

// Event names emitted by the navigation engine.
const (
	Guard        = "app:guard"
	Route        = "app:route"
	Error        = "app:error"
	ErrorResolve = "app:error:resolve"
	ErrorRender  = "app:error:render"
	Render       = "app:render"
	Destroy      = "app:destroy"
	Click        = "app:click"
)

// Handler receives the emitted arguments. Returning false vetoes the emission.
type Handler func(args ...any) bool

// Listener adapts a handler that never vetoes.
func Listener(fn func(args ...any)) Handler {
	return func(args ...any) bool {
		fn(args...)
		return true
	}
}

// ID identifies an attached handler.
type ID uint64

type entry struct {
	id      ID
	handler Handler
	once    bool
}

// Bus dispatches named events to attached handlers in attach order.
type Bus struct {
	handlers map[string][]entry
	names    map[ID]string
	nextID   atomic.Uint64
	mutex    sync.RWMutex
}

// NewBus creates an empty bus.
func NewBus() *Bus {
	return &Bus{
		handlers: make(map[string][]entry),
		names:    make(map[ID]string),
	}
}

// On attaches a handler to the named event.
func (b *Bus) On(name string, h Handler) ID {
	return b.attach(name, h, false)
}

// Once attaches a handler that is detached after its first call.
func (b *Bus) Once(name string, h Handler) ID {
	return b.attach(name, h, true)
}

func (b *Bus) attach(name string, h Handler, once bool) ID {
	id := ID(b.nextID.Inc())

	b.mutex.Lock()
	defer b.mutex.Unlock()

	b.handlers[name] = append(b.handlers[name], entry{id: id, handler: h, once: once})
	b.names[id] = name
	return id
}

// Off detaches a handler. Unknown ids are ignored.
func (b *Bus) Off(id ID) {
	b.mutex.Lock()
	defer b.mutex.Unlock()
	b.detach(id)
}

func (b *Bus) detach(id ID) {
	name, ok := b.names[id]
	if !ok {
		return
	}
	delete(b.names, id)

	list := b.handlers[name]
	for i, e := range list {
		if e.id == id {
			b.handlers[name] = append(list[:i:i], list[i+1:]...)
			break
		}
	}
	if len(b.handlers[name]) == 0 {
		delete(b.handlers, name)
	}
}

// OffAll detaches every handler of the named event.
func (b *Bus) OffAll(name string) {
	b.mutex.Lock()
	defer b.mutex.Unlock()

	for _, e := range b.handlers[name] {
		delete(b.names, e.id)
	}
	delete(b.handlers, name)
}

// Has reports whether the named event has handlers.
func (b *Bus) Has(name string) bool {
	b.mutex.RLock()
	defer b.mutex.RUnlock()
	return len(b.handlers[name]) > 0
}

// Count returns the number of handlers attached to the named event.
func (b *Bus) Count(name string) int {
	b.mutex.RLock()
	defer b.mutex.RUnlock()
	return len(b.handlers[name])
}

// Emit calls every handler of the named event with args. All handlers run
// even after one of them vetoes. The result is false if any handler
// returned false.
//
// Handlers run on the caller's goroutine without the bus lock held, so they
// may attach or detach handlers themselves.
func (b *Bus) Emit(name string, args ...any) bool {
	b.mutex.RLock()
	list := make([]entry, len(b.handlers[name]))
	copy(list, b.handlers[name])
	b.mutex.RUnlock()

	result := true
	for _, e := range list {
		if e.once {
			b.Off(e.id)
		}
		if !e.handler(args...) {
			result = false
		}
	}
	return result
}
