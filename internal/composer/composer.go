// Package composer normalizes declarative view configurations.
//
// Normalize deep-copies a configuration tree and replaces every subview
// declaration with a bare placeholder node carrying a container id. The
// declarations themselves are collected into a Slots table that the owning
// view uses to mount its children after the tree is built.
//
// Recognized markers:
//
//	{"$subview": true}             default slot, receives the rest of the URL
//	{"$subview": "page/child"}     named slot resolving its own URL
//	{"$subview": view}             named slot mounting a pre-built view
//	{"$ui": {...}}                 legacy descriptor wrapped as a subview
//
// A "name" key names the slot explicitly and an "id" key fixes the container id.
package composer

import (
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Marker keys recognized in configuration nodes.
const (
	SubviewKey = "$subview"
	LegacyKey  = "$ui"
	NameKey    = "name"
	IDKey      = "id"

	// DefaultSlot receives the remaining URL segments of its parent.
	DefaultSlot = "default"
)

// Opaque is implemented by toolkit-native handles that must be passed
// through by reference instead of being copied.
type Opaque interface {
	Opaque()
}

// Slot is one subview placeholder collected during normalization.
type Slot struct {
	// ID of the placeholder node in the normalized tree. Updated by the owner
	// to the id of whatever root is mounted there.
	ID   string
	Name string
	// URL to resolve for this slot. Empty for the default slot and for slots
	// mounting View.
	URL string
	// View is a pre-built view or a view class mounted instead of resolving URL.
	View any
	// Order is the position of the declaration among the slots collected by
	// one normalization.
	Order int
}

// Slots maps slot names to their declarations.
type Slots map[string]*Slot

// Names returns the slot names with the default slot first and the others by
// Order, then by name.
func (s Slots) Names() []string {
	names := make([]string, 0, len(s))
	for name := range s {
		if name != DefaultSlot {
			names = append(names, name)
		}
	}
	sort.Slice(names, func(i, j int) bool {
		a, b := s[names[i]], s[names[j]]
		if a.Order != b.Order {
			return a.Order < b.Order
		}
		return names[i] < names[j]
	})
	if _, ok := s[DefaultSlot]; ok {
		names = append([]string{DefaultSlot}, names...)
	}
	return names
}

// Options supplies the type tests the composer cannot perform itself.
type Options struct {
	// IsApp reports whether v is an application usable as a subview.
	IsApp func(v any) bool
	// IsView reports whether v is a pre-built view instance.
	IsView func(v any) bool
	// IsClass reports whether v is a view class.
	IsClass func(v any) bool
	// Legacy wraps a descriptor carrying LegacyKey into a view.
	Legacy func(descriptor map[string]any) any
	// NewID generates container and slot ids. Defaults to NewID.
	NewID func() string
}

// Composer normalizes configurations with a fixed set of hooks.
type Composer struct {
	opts Options
}

// New creates a composer. Nil hooks never match.
func New(opts Options) *Composer {
	if opts.NewID == nil {
		opts.NewID = NewID
	}
	return &Composer{opts: opts}
}

// NewID returns a generated container id.
func NewID() string {
	return "s" + strings.ReplaceAll(uuid.NewString(), "-", "")[:12]
}

// Normalize returns a deep copy of src with subview declarations replaced by
// placeholders, recording each declaration in slots. src is never modified.
// Normalizing an already normalized tree returns an equal tree and records
// no slots.
func (c *Composer) Normalize(src any, slots Slots) any {
	if slots == nil {
		slots = Slots{}
	}
	return c.node(src, slots)
}

func (c *Composer) node(src any, slots Slots) any {
	switch v := src.(type) {
	case map[string]any:
		if ui, ok := v[LegacyKey]; ok && ui != nil && c.opts.Legacy != nil {
			wrapped := map[string]any{SubviewKey: c.opts.Legacy(v)}
			for _, key := range []string{NameKey, IDKey} {
				if value, ok := v[key]; ok {
					wrapped[key] = value
				}
			}
			return c.subview(wrapped, slots)
		}
		if marker, ok := v[SubviewKey]; ok && marker != nil && marker != false {
			return c.subview(v, slots)
		}
		target := make(map[string]any, len(v))
		for key, child := range v {
			target[key] = c.child(child, slots)
		}
		return target
	case []any:
		target := make([]any, len(v))
		for i, child := range v {
			target[i] = c.child(child, slots)
		}
		return target
	default:
		if c.is(c.opts.IsApp, src) {
			return c.subview(map[string]any{SubviewKey: src}, slots)
		}
		return src
	}
}

func (c *Composer) child(value any, slots Slots) any {
	if c.is(c.opts.IsClass, value) || c.is(c.opts.IsApp, value) {
		return c.subview(map[string]any{SubviewKey: value}, slots)
	}

	switch v := value.(type) {
	case map[string]any, []any:
		return c.node(v, slots)
	case time.Time:
		return v
	case *time.Time:
		if v == nil {
			return v
		}
		clone := *v
		return &clone
	case Opaque:
		return v
	default:
		return value
	}
}

func (c *Composer) subview(obj map[string]any, slots Slots) map[string]any {
	slot := &Slot{Order: len(slots)}

	switch marker := obj[SubviewKey].(type) {
	case bool:
	case string:
		slot.URL = marker
	default:
		if c.is(c.opts.IsView, marker) || c.is(c.opts.IsClass, marker) || c.is(c.opts.IsApp, marker) {
			slot.View = marker
		}
	}

	name, _ := obj[NameKey].(string)
	if name == "" {
		if slot.URL != "" || slot.View != nil {
			name = c.opts.NewID()
		} else {
			name = DefaultSlot
		}
	}
	slot.Name = name

	id, _ := obj[IDKey].(string)
	if id == "" {
		id = c.opts.NewID()
	}
	slot.ID = id

	slots[name] = slot
	return map[string]any{IDKey: id}
}

func (c *Composer) is(test func(any) bool, v any) bool {
	return test != nil && v != nil && test(v)
}
