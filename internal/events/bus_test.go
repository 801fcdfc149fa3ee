package events

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBus_EmitOrderAndArgs(t *testing.T) {
	bus := NewBus()

	var calls []string
	bus.On("ping", Listener(func(args ...any) {
		calls = append(calls, "first:"+args[0].(string))
	}))
	bus.On("ping", Listener(func(args ...any) {
		calls = append(calls, "second:"+args[0].(string))
	}))

	assert.True(t, bus.Emit("ping", "x"))
	assert.Equal(t, []string{"first:x", "second:x"}, calls)
	assert.True(t, bus.Emit("nobody-listens"))
}

func TestBus_VetoAggregates(t *testing.T) {
	bus := NewBus()

	later := false
	bus.On(Guard, func(args ...any) bool { return false })
	bus.On(Guard, func(args ...any) bool {
		later = true
		return true
	})

	assert.False(t, bus.Emit(Guard))
	assert.True(t, later, "handlers after a veto still run")
}

func TestBus_OffAndOnce(t *testing.T) {
	bus := NewBus()

	count := 0
	id := bus.On("tick", Listener(func(...any) { count++ }))
	bus.Once("tick", Listener(func(...any) { count += 10 }))
	assert.Equal(t, 2, bus.Count("tick"))

	bus.Emit("tick")
	assert.Equal(t, 11, count)
	assert.Equal(t, 1, bus.Count("tick"))

	bus.Off(id)
	bus.Off(id)
	bus.Emit("tick")
	assert.Equal(t, 11, count)
	assert.False(t, bus.Has("tick"))
}

func TestBus_OffAll(t *testing.T) {
	bus := NewBus()
	bus.On("a", Listener(func(...any) {}))
	bus.On("a", Listener(func(...any) {}))
	bus.On("b", Listener(func(...any) {}))

	bus.OffAll("a")
	assert.False(t, bus.Has("a"))
	assert.True(t, bus.Has("b"))
}

func TestBus_HandlerMayDetachItself(t *testing.T) {
	bus := NewBus()

	var id ID
	calls := 0
	id = bus.On("x", Listener(func(...any) {
		calls++
		bus.Off(id)
	}))

	bus.Emit("x")
	bus.Emit("x")
	assert.Equal(t, 1, calls)
}
