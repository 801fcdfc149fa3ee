// Package view implements the lifecycle of view instances.
//
// A view is built once into a container and then receives URL changes until
// it is destroyed:
//
//	unrendered --Render--> rendered --Render (URL change)--> rendered
//	     |                     |
//	     +------Destroy--------+--> destroyed
//
// Destroyed is terminal. Parents own their subviews and destroy them first;
// children refer to their parent only by id through the Tree.
package view

import (
	"context"

	"github.com/conneroisu/viewnav/internal/composer"
	"github.com/conneroisu/viewnav/internal/dom"
	"github.com/conneroisu/viewnav/internal/events"
	"github.com/conneroisu/viewnav/internal/logging"
	"github.com/conneroisu/viewnav/internal/urlpath"
)

// View is a renderable unit of UI.
type View interface {
	ID() string
	// Name is the page the view was resolved for.
	Name() string
	// Render builds the view into target, or applies url to an already
	// rendered view, and returns the root widget.
	Render(ctx context.Context, target dom.Node, url urlpath.URL, parent View) (dom.Node, error)
	Root() dom.Node
	Destroy()
}

// Host is the application a view belongs to.
type Host interface {
	Backend() dom.Backend
	Tree() *Tree
	Events() *events.Bus
	Logger() logging.Logger
	// Compose normalizes a view configuration and collects its subview slots.
	Compose(src any, slots composer.Slots) any
	// CreateFromURL returns now when it already shows the first page of url,
	// otherwise a new unrendered view for that page.
	CreateFromURL(ctx context.Context, url urlpath.URL, now View) (View, error)
	// Show navigates the application to an absolute path.
	Show(ctx context.Context, path string) error
	// URL is the application's current parsed path.
	URL() urlpath.URL
	Error(name string, args ...any)
}

// Class constructs a view for the named page.
type Class func(host Host, name string) View

// Factory produces an inline configuration wrapped into a raw view.
type Factory func() any

// State of a view instance.
type State int

const (
	StateUnrendered State = iota
	StateRendered
	StateDestroyed
)

func (s State) String() string {
	switch s {
	case StateUnrendered:
		return "unrendered"
	case StateRendered:
		return "rendered"
	case StateDestroyed:
		return "destroyed"
	default:
		return "unknown"
	}
}

// PlaceholderConfig is the inert configuration shown when a view cannot be
// resolved.
func PlaceholderConfig() map[string]any {
	return map[string]any{"template": " "}
}

// ComposerOptions returns the composer hooks recognizing views of host.
func ComposerOptions(host Host) composer.Options {
	return composer.Options{
		IsApp: func(v any) bool {
			_, isView := v.(View)
			_, isHost := v.(Host)
			return isView && isHost
		},
		IsView: func(v any) bool {
			_, ok := v.(View)
			return ok
		},
		IsClass: func(v any) bool {
			return AsClass(v) != nil
		},
		Legacy: func(descriptor map[string]any) any {
			return NewLegacy(host, "", descriptor)
		},
	}
}

// AsClass returns v as a Class, or nil when v is not one.
func AsClass(v any) Class {
	switch c := v.(type) {
	case Class:
		return c
	case func(Host, string) View:
		return c
	default:
		return nil
	}
}
