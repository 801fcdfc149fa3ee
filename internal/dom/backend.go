// Package dom is the rendering backend the navigation engine paints into.
//
// The engine only needs a handful of primitives from a widget toolkit: build
// a widget tree from a normalized configuration into a container, look up
// widgets by id, destroy them, query their parent and suspend layout while a
// batch of changes is applied. Backend names exactly those. Document is the
// in-memory implementation used by the CLI, the HTTP server and the tests.
package dom

import "context"

// Node is a built widget.
type Node interface {
	ID() string
	// Parent returns the enclosing widget, or nil for a top-level widget.
	Parent() Node
}

// Backend builds and tears down widget trees.
type Backend interface {
	// Body is the top-level container.
	Body() Node
	// Build creates a widget tree from config inside target. Building into
	// Body adds a new top-level widget; building into any other node
	// replaces that node.
	Build(ctx context.Context, target Node, config any) (Node, error)
	Lookup(id string) (Node, bool)
	// Destroy removes node and its descendants. Detached nodes are ignored.
	Destroy(node Node)
	// Freeze suspends layout recomputation while fn runs. Layout resumes
	// when fn returns, whether or not it failed.
	Freeze(fn func() error) error
}

// Styler is implemented by backends that manage CSS classes on containers.
type Styler interface {
	AddCSS(node Node, class string)
	RemoveCSS(node Node, class string)
}
