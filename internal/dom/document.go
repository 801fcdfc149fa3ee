package dom

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"sync"

	"go.uber.org/atomic"
)

// BodyID is the id of the Document body.
const BodyID = "body"

var (
	// ErrForeignNode is returned for nodes that do not belong to the document.
	ErrForeignNode = errors.New("node does not belong to this document")
	// ErrDetached is returned when building into a removed node.
	ErrDetached = errors.New("node is detached")
)

// ClickEvent describes a click on a widget.
type ClickEvent struct {
	ID      string
	Route   string
	Trigger string
}

// Widget is a node of a Document.
type Widget struct {
	id       string
	kind     string
	template string
	css      []string
	attrs    map[string]string
	children []*Widget
	parent   *Widget
	doc      *Document
	attached bool
}

// ID implements Node.
func (w *Widget) ID() string { return w.id }

// Parent implements Node. Widgets placed directly in the body have no parent.
func (w *Widget) Parent() Node {
	w.doc.mu.RLock()
	defer w.doc.mu.RUnlock()
	if w.parent == nil || w.parent == w.doc.body {
		return nil
	}
	return w.parent
}

func (w *Widget) Kind() string { return w.kind }

// Template returns the sanitized template markup.
func (w *Widget) Template() string { return w.template }

func (w *Widget) Attr(name string) string {
	w.doc.mu.RLock()
	defer w.doc.mu.RUnlock()
	return w.attrs[name]
}

// Children returns a snapshot of the child widgets.
func (w *Widget) Children() []*Widget {
	w.doc.mu.RLock()
	defer w.doc.mu.RUnlock()
	return append([]*Widget(nil), w.children...)
}

func (w *Widget) HasCSS(class string) bool {
	w.doc.mu.RLock()
	defer w.doc.mu.RUnlock()
	for _, c := range w.css {
		if c == class {
			return true
		}
	}
	return false
}

// Attached reports whether the widget is still part of the document.
func (w *Widget) Attached() bool {
	w.doc.mu.RLock()
	defer w.doc.mu.RUnlock()
	return w.attached
}

// Document is an in-memory widget tree.
type Document struct {
	mu      sync.RWMutex
	body    *Widget
	index   map[string]*Widget
	nextID  atomic.Uint64
	frozen  atomic.Int32
	dirty   atomic.Bool
	layouts atomic.Int64

	clickMu  sync.RWMutex
	clickers map[uint64]func(ClickEvent)
	clickSeq uint64
}

// NewDocument creates an empty document.
func NewDocument() *Document {
	d := &Document{
		index:    make(map[string]*Widget),
		clickers: make(map[uint64]func(ClickEvent)),
	}
	d.body = &Widget{id: BodyID, kind: "body", doc: d, attached: true, attrs: map[string]string{}}
	d.index[BodyID] = d.body
	return d
}

// Body implements Backend.
func (d *Document) Body() Node { return d.body }

// BodyWidget returns the body as a Widget.
func (d *Document) BodyWidget() *Widget { return d.body }

// Lookup implements Backend.
func (d *Document) Lookup(id string) (Node, bool) {
	w, ok := d.Find(id)
	if !ok {
		return nil, false
	}
	return w, true
}

// Find returns the attached widget with id.
func (d *Document) Find(id string) (*Widget, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	w, ok := d.index[id]
	return w, ok
}

// Len returns the number of attached widgets, body excluded.
func (d *Document) Len() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.index) - 1
}

// Roots returns the top-level widgets.
func (d *Document) Roots() []*Widget {
	return d.body.Children()
}

// IDs returns the ids of all attached widgets in sorted order.
func (d *Document) IDs() []string {
	d.mu.RLock()
	defer d.mu.RUnlock()
	ids := make([]string, 0, len(d.index))
	for id := range d.index {
		if id != BodyID {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	return ids
}

// Layouts returns the number of layout passes run so far.
func (d *Document) Layouts() int64 {
	return d.layouts.Load()
}

// Build implements Backend.
func (d *Document) Build(ctx context.Context, target Node, config any) (Node, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	container, err := d.widget(target)
	if err != nil {
		return nil, err
	}

	root, err := d.build(config)
	if err != nil {
		return nil, err
	}

	d.mu.Lock()
	if !container.attached {
		d.mu.Unlock()
		return nil, fmt.Errorf("build into %s: %w", container.id, ErrDetached)
	}
	if err := d.checkIDs(root, container); err != nil {
		d.mu.Unlock()
		return nil, err
	}

	if container == d.body {
		root.parent = d.body
		d.body.children = append(d.body.children, root)
	} else {
		parent := container.parent
		for i, c := range parent.children {
			if c == container {
				parent.children[i] = root
				break
			}
		}
		root.parent = parent
		container.parent = nil
		d.unindex(container)
	}
	d.reindex(root)
	d.mu.Unlock()

	d.layout()
	return root, nil
}

// checkIDs fails when root reuses an id attached outside of replaced.
func (d *Document) checkIDs(root, replaced *Widget) error {
	var err error
	seen := make(map[string]bool)
	walk(root, func(w *Widget) {
		if err != nil {
			return
		}
		if seen[w.id] {
			err = fmt.Errorf("duplicate widget id %q", w.id)
			return
		}
		seen[w.id] = true
		existing, ok := d.index[w.id]
		if ok && !(replaced != d.body && within(existing, replaced)) {
			err = fmt.Errorf("duplicate widget id %q", w.id)
		}
	})
	return err
}

func within(w, ancestor *Widget) bool {
	for n := w; n != nil; n = n.parent {
		if n == ancestor {
			return true
		}
	}
	return false
}

func walk(w *Widget, fn func(*Widget)) {
	fn(w)
	for _, c := range w.children {
		walk(c, fn)
	}
}

// reindex must be called with the lock held.
func (d *Document) reindex(root *Widget) {
	walk(root, func(w *Widget) {
		w.attached = true
		d.index[w.id] = w
	})
}

// unindex must be called with the lock held.
func (d *Document) unindex(root *Widget) {
	walk(root, func(w *Widget) {
		w.attached = false
		if d.index[w.id] == w {
			delete(d.index, w.id)
		}
	})
}

// Destroy implements Backend.
func (d *Document) Destroy(node Node) {
	w, ok := node.(*Widget)
	if !ok || w == nil || w.doc != d || w == d.body {
		return
	}

	d.mu.Lock()
	if !w.attached {
		d.mu.Unlock()
		return
	}
	if parent := w.parent; parent != nil {
		for i, c := range parent.children {
			if c == w {
				parent.children = append(parent.children[:i:i], parent.children[i+1:]...)
				break
			}
		}
	}
	w.parent = nil
	d.unindex(w)
	d.mu.Unlock()

	d.layout()
}

// Freeze implements Backend. Nested scopes run a single layout pass when the
// outermost one is released.
func (d *Document) Freeze(fn func() error) error {
	d.frozen.Inc()
	defer func() {
		if d.frozen.Dec() == 0 && d.dirty.CompareAndSwap(true, false) {
			d.layouts.Inc()
		}
	}()
	return fn()
}

func (d *Document) layout() {
	if d.frozen.Load() > 0 {
		d.dirty.Store(true)
		return
	}
	d.layouts.Inc()
}

// AddCSS implements Styler.
func (d *Document) AddCSS(node Node, class string) {
	w, err := d.widget(node)
	if err != nil {
		return
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	for _, c := range w.css {
		if c == class {
			return
		}
	}
	w.css = append(w.css, class)
}

// RemoveCSS implements Styler.
func (d *Document) RemoveCSS(node Node, class string) {
	w, err := d.widget(node)
	if err != nil {
		return
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	for i, c := range w.css {
		if c == class {
			w.css = append(w.css[:i:i], w.css[i+1:]...)
			return
		}
	}
}

// OnClick registers fn for clicks and returns a function removing it.
func (d *Document) OnClick(fn func(ClickEvent)) func() {
	d.clickMu.Lock()
	d.clickSeq++
	id := d.clickSeq
	d.clickers[id] = fn
	d.clickMu.Unlock()

	return func() {
		d.clickMu.Lock()
		delete(d.clickers, id)
		d.clickMu.Unlock()
	}
}

// Click simulates a click on the widget with id.
func (d *Document) Click(id string) error {
	w, ok := d.Find(id)
	if !ok {
		return fmt.Errorf("no widget %q", id)
	}
	event := ClickEvent{ID: id, Route: w.Attr("route"), Trigger: w.Attr("trigger")}

	d.clickMu.RLock()
	keys := make([]uint64, 0, len(d.clickers))
	for k := range d.clickers {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	handlers := make([]func(ClickEvent), 0, len(keys))
	for _, k := range keys {
		handlers = append(handlers, d.clickers[k])
	}
	d.clickMu.RUnlock()

	for _, h := range handlers {
		h(event)
	}
	return nil
}

func (d *Document) widget(node Node) (*Widget, error) {
	if node == nil {
		return d.body, nil
	}
	w, ok := node.(*Widget)
	if !ok || w == nil || w.doc != d {
		return nil, ErrForeignNode
	}
	return w, nil
}

// build creates an unattached widget tree from a normalized config.
func (d *Document) build(config any) (*Widget, error) {
	switch c := config.(type) {
	case string:
		return d.newWidget("template", "", sanitize(c)), nil
	case map[string]any:
		return d.buildMap(c)
	case []any:
		w := d.newWidget("layout", "", "")
		for _, child := range c {
			cw, err := d.build(child)
			if err != nil {
				return nil, err
			}
			cw.parent = w
			w.children = append(w.children, cw)
		}
		return w, nil
	case nil:
		return nil, errors.New("empty widget config")
	default:
		return nil, fmt.Errorf("unsupported widget config %T", config)
	}
}

var childKeys = []string{"rows", "cols", "cells"}

func (d *Document) buildMap(config map[string]any) (*Widget, error) {
	id, _ := config["id"].(string)
	kind, _ := config["view"].(string)
	template, _ := config["template"].(string)

	w := d.newWidget(kind, id, sanitize(template))

	for _, key := range childKeys {
		raw, ok := config[key]
		if !ok {
			continue
		}
		list, ok := raw.([]any)
		if !ok {
			return nil, fmt.Errorf("widget %s: %s must be a list", w.id, key)
		}
		if w.kind == "" {
			w.kind = layoutKind(key)
		}
		w.attrs["layout"] = key
		for _, child := range list {
			cw, err := d.build(child)
			if err != nil {
				return nil, err
			}
			cw.parent = w
			w.children = append(w.children, cw)
		}
	}

	if w.kind == "" {
		if _, ok := config["template"]; ok {
			w.kind = "template"
		} else {
			w.kind = "view"
		}
	}

	if css, ok := config["css"].(string); ok {
		w.css = strings.Fields(css)
	}

	for key, value := range config {
		switch key {
		case "id", "view", "template", "css", "rows", "cols", "cells":
			continue
		}
		if strings.HasPrefix(key, "$") {
			continue
		}
		if s, ok := scalar(value); ok {
			w.attrs[key] = s
		}
	}

	return w, nil
}

func layoutKind(key string) string {
	if key == "cells" {
		return "multiview"
	}
	return "layout"
}

func scalar(v any) (string, bool) {
	switch t := v.(type) {
	case string:
		return t, true
	case bool:
		return strconv.FormatBool(t), true
	case int:
		return strconv.Itoa(t), true
	case int64:
		return strconv.FormatInt(t, 10), true
	case float64:
		return strconv.FormatFloat(t, 'g', -1, 64), true
	default:
		return "", false
	}
}

func (d *Document) newWidget(kind, id, template string) *Widget {
	if id == "" {
		id = "w" + strconv.FormatUint(d.nextID.Inc(), 10)
	}
	return &Widget{
		id:       id,
		kind:     kind,
		template: template,
		attrs:    make(map[string]string),
		doc:      d,
	}
}
