package view

import (
	"github.com/conneroisu/viewnav/internal/dom"
	"github.com/conneroisu/viewnav/internal/urlpath"
)

// Legacy descriptor keys.
const (
	LegacyUI          = "$ui"
	LegacyOnInit      = "$oninit"
	LegacyOnURLChange = "$onurlchange"
	LegacyOnDestroy   = "$ondestroy"
)

// Legacy descriptor hook signatures.
type (
	InitFunc      func(v *Instance, root dom.Node)
	URLChangeFunc func(v *Instance, url urlpath.URL)
	DestroyFunc   func(v *Instance)
)

type raw struct {
	config any
}

func (r raw) Config(*Instance) (any, error) {
	return r.config, nil
}

// NewRaw wraps a plain configuration into a view.
func NewRaw(host Host, name string, config any) *Instance {
	return New(host, name, raw{config: config})
}

// NewPlaceholder returns the inert view substituted for unresolvable pages.
func NewPlaceholder(host Host, name string) *Instance {
	return NewRaw(host, name, PlaceholderConfig())
}

type legacy struct {
	descriptor map[string]any
}

// NewLegacy wraps a descriptor whose configuration sits under "$ui" and
// whose optional "$oninit", "$onurlchange" and "$ondestroy" entries are
// lifecycle hooks.
func NewLegacy(host Host, name string, descriptor map[string]any) *Instance {
	return New(host, name, legacy{descriptor: descriptor})
}

func (l legacy) Config(*Instance) (any, error) {
	return l.descriptor[LegacyUI], nil
}

func (l legacy) Init(v *Instance, root dom.Node, _ urlpath.URL) error {
	if fn, ok := l.descriptor[LegacyOnInit].(func(*Instance, dom.Node)); ok {
		fn(v, root)
	} else if fn, ok := l.descriptor[LegacyOnInit].(InitFunc); ok {
		fn(v, root)
	}
	return nil
}

func (l legacy) URLChange(v *Instance, url urlpath.URL) error {
	if fn, ok := l.descriptor[LegacyOnURLChange].(func(*Instance, urlpath.URL)); ok {
		fn(v, url)
	} else if fn, ok := l.descriptor[LegacyOnURLChange].(URLChangeFunc); ok {
		fn(v, url)
	}
	return nil
}

func (l legacy) Destroy(v *Instance) {
	if fn, ok := l.descriptor[LegacyOnDestroy].(func(*Instance)); ok {
		fn(v)
	} else if fn, ok := l.descriptor[LegacyOnDestroy].(DestroyFunc); ok {
		fn(v)
	}
}

// IsLegacy reports whether descriptor carries a legacy "$ui" configuration.
func IsLegacy(descriptor map[string]any) bool {
	ui, ok := descriptor[LegacyUI]
	return ok && ui != nil
}
