package view

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/conneroisu/viewnav/internal/composer"
	"github.com/conneroisu/viewnav/internal/dom"
	"github.com/conneroisu/viewnav/internal/errors"
	"github.com/conneroisu/viewnav/internal/events"
	"github.com/conneroisu/viewnav/internal/urlpath"
)

// Behavior supplies the configuration of an Instance. It may additionally
// implement Initializer, ReadyHook, URLChanger and Destroyer.
type Behavior interface {
	Config(v *Instance) (any, error)
}

// Initializer runs after the root widget is built, before subviews mount.
type Initializer interface {
	Init(v *Instance, root dom.Node, url urlpath.URL) error
}

// ReadyHook runs after the first render including subviews.
type ReadyHook interface {
	Ready(v *Instance, root dom.Node, url urlpath.URL) error
}

// URLChanger runs when a rendered instance receives a new URL.
type URLChanger interface {
	URLChange(v *Instance, url urlpath.URL) error
}

// Destroyer runs before the instance's widgets are removed.
type Destroyer interface {
	Destroy(v *Instance)
}

// Instance is the standard View implementation driven by a Behavior.
type Instance struct {
	id       string
	name     string
	host     Host
	behavior Behavior

	mu        sync.Mutex
	state     State
	root      dom.Node
	container dom.Node
	url       urlpath.URL
	slots     composer.Slots
	subs      map[string]View
	handlers  []events.ID
}

// New creates an unrendered instance for the named page.
func New(host Host, name string, behavior Behavior) *Instance {
	return &Instance{
		id:       uuid.NewString(),
		name:     name,
		host:     host,
		behavior: behavior,
		subs:     make(map[string]View),
	}
}

func (v *Instance) ID() string   { return v.id }
func (v *Instance) Name() string { return v.name }
func (v *Instance) Host() Host   { return v.host }

// Behavior returns the behavior driving the instance.
func (v *Instance) Behavior() Behavior { return v.behavior }

func (v *Instance) Root() dom.Node {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.root
}

func (v *Instance) State() State {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.state
}

// URL returns the segments this view was rendered with, its own first.
func (v *Instance) URL() urlpath.URL {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.url
}

// Param returns a parameter of the view's own segment.
func (v *Instance) Param(name string) string {
	v.mu.Lock()
	defer v.mu.Unlock()
	if len(v.url) == 0 {
		return ""
	}
	p, _ := v.url[0].Param(name)
	return p
}

// Parent returns the enclosing view, if it is still alive.
func (v *Instance) Parent() View {
	return v.host.Tree().Parent(v)
}

// Subview returns the view mounted in the named slot.
func (v *Instance) Subview(name string) View {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.subs[name]
}

// On attaches a handler to the application bus for the lifetime of the view.
func (v *Instance) On(name string, h events.Handler) events.ID {
	id := v.host.Events().On(name, h)
	v.mu.Lock()
	v.handlers = append(v.handlers, id)
	v.mu.Unlock()
	return id
}

// Trigger emits an event on the application bus.
func (v *Instance) Trigger(name string, args ...any) bool {
	return v.host.Events().Emit(name, args...)
}

// Show navigates relative to this view. Absolute paths replace the whole
// URL; "./page" or "page" replace everything after this view's segment and
// "../page" replaces this view's segment.
func (v *Instance) Show(ctx context.Context, path string) error {
	if strings.HasPrefix(path, "/") {
		return v.host.Show(ctx, path)
	}

	full := v.host.URL()
	own := v.URL()
	level := len(full) - len(own)
	if level < 0 {
		level = 0
	}

	switch {
	case strings.HasPrefix(path, "../"):
		path = strings.TrimPrefix(path, "../")
	default:
		path = strings.TrimPrefix(path, "./")
		level++
	}
	if level > len(full) {
		level = len(full)
	}

	next := append(full[:level:level], urlpath.Parse(path)...)
	return v.host.Show(ctx, next.String())
}

// Render implements View.
func (v *Instance) Render(ctx context.Context, target dom.Node, url urlpath.URL, parent View) (dom.Node, error) {
	v.mu.Lock()
	state := v.state
	v.mu.Unlock()

	switch state {
	case StateDestroyed:
		return nil, errors.ErrDestroyed
	case StateRendered:
		return v.urlChange(ctx, url)
	}

	root, err := v.render(ctx, target, url, parent)
	if err != nil {
		v.Destroy()
		return nil, errors.WrapRender(err, v.name)
	}
	return root, nil
}

func (v *Instance) render(ctx context.Context, target dom.Node, url urlpath.URL, parent View) (dom.Node, error) {
	config, err := v.config()
	if err != nil {
		return nil, err
	}

	slots := composer.Slots{}
	ui := v.host.Compose(config, slots)

	root, err := v.host.Backend().Build(ctx, target, ui)
	if err != nil {
		return nil, fmt.Errorf("build %s: %w", v.name, err)
	}

	v.mu.Lock()
	v.root = root
	v.container = target
	v.url = url
	v.slots = slots
	v.state = StateRendered
	v.mu.Unlock()

	v.host.Tree().Attach(v, parent)
	v.host.Logger().Debug(ctx, "view rendered", "view", v.name, "root", root.ID(), "slots", len(slots))

	if hook, ok := v.behavior.(Initializer); ok {
		if err := guardHook("init", func() error { return hook.Init(v, root, url) }); err != nil {
			return nil, err
		}
	}

	if err := v.renderSubviews(ctx, url, true); err != nil {
		return nil, err
	}

	if hook, ok := v.behavior.(ReadyHook); ok {
		if err := guardHook("ready", func() error { return hook.Ready(v, root, url) }); err != nil {
			return nil, err
		}
	}
	return root, nil
}

func (v *Instance) config() (config any, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = errors.FromPanic(errors.ErrCodeHookPanicked, rec)
		}
	}()
	return v.behavior.Config(v)
}

func guardHook(name string, fn func() error) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = errors.FromPanic(errors.ErrCodeHookPanicked, rec).WithContext("hook", name)
		}
	}()
	return fn()
}

func (v *Instance) urlChange(ctx context.Context, url urlpath.URL) (dom.Node, error) {
	v.mu.Lock()
	v.url = url
	root := v.root
	v.mu.Unlock()

	if hook, ok := v.behavior.(URLChanger); ok {
		if err := guardHook("urlchange", func() error { return hook.URLChange(v, url) }); err != nil {
			return nil, errors.WrapRender(err, v.name)
		}
	}

	if err := v.renderSubviews(ctx, url, false); err != nil {
		return nil, errors.WrapRender(err, v.name)
	}
	return root, nil
}

// renderSubviews mounts the slots collected from the configuration one at a
// time, the default slot first and the others in declaration order. Named
// slots are mounted on the first render only; the default slot follows the
// URL tail on every render.
func (v *Instance) renderSubviews(ctx context.Context, url urlpath.URL, first bool) error {
	v.mu.Lock()
	slots := make([]*composer.Slot, 0, len(v.slots))
	for _, name := range v.slots.Names() {
		slots = append(slots, v.slots[name])
	}
	v.mu.Unlock()

	for _, slot := range slots {
		if slot.Name != composer.DefaultSlot && !first {
			continue
		}
		if err := v.renderSlot(ctx, slot, url); err != nil {
			return err
		}
	}
	return nil
}

func (v *Instance) renderSlot(ctx context.Context, slot *composer.Slot, url urlpath.URL) error {
	v.mu.Lock()
	current := v.subs[slot.Name]
	target, ok := v.host.Backend().Lookup(slot.ID)
	v.mu.Unlock()
	if !ok {
		return fmt.Errorf("slot %s: container %s not found", slot.Name, slot.ID)
	}

	var (
		child  View
		suburl urlpath.URL
		err    error
	)
	switch {
	case slot.View != nil:
		if class := AsClass(slot.View); class != nil {
			child = class(v.host, "")
		} else if prebuilt, ok := slot.View.(View); ok {
			child = prebuilt
		} else {
			return fmt.Errorf("slot %s: %w", slot.Name, errors.ErrUnsupportedView)
		}
		suburl = url.Tail()
	case slot.URL != "":
		suburl = urlpath.Parse(slot.URL)
		child, err = v.host.CreateFromURL(ctx, suburl, current)
	default:
		suburl = url.Tail()
		if len(suburl) == 0 {
			if current == nil {
				return nil
			}
			return v.clearSlot(ctx, slot, target, current)
		}
		child, err = v.host.CreateFromURL(ctx, suburl, current)
	}
	if err != nil {
		return err
	}

	root, err := child.Render(ctx, target, suburl, v)
	if err != nil {
		return err
	}
	if root == nil {
		return fmt.Errorf("slot %s: %s rendered no root", slot.Name, child.Name())
	}

	v.mu.Lock()
	slot.ID = root.ID()
	v.subs[slot.Name] = child
	v.mu.Unlock()

	if current != nil && current != child {
		current.Destroy()
	}
	return nil
}

// clearSlot puts an empty container back in place of the slot's view and
// destroys it.
func (v *Instance) clearSlot(ctx context.Context, slot *composer.Slot, target dom.Node, current View) error {
	if _, err := v.host.Backend().Build(ctx, target, map[string]any{composer.IDKey: slot.ID}); err != nil {
		return fmt.Errorf("slot %s: %w", slot.Name, err)
	}

	v.mu.Lock()
	delete(v.subs, slot.Name)
	v.mu.Unlock()

	current.Destroy()
	return nil
}

// Destroy implements View. Subviews are destroyed first.
func (v *Instance) Destroy() {
	v.mu.Lock()
	if v.state == StateDestroyed {
		v.mu.Unlock()
		return
	}
	v.state = StateDestroyed
	subs := v.subs
	v.subs = make(map[string]View)
	handlers := v.handlers
	v.handlers = nil
	root := v.root
	v.mu.Unlock()

	for _, sub := range subs {
		sub.Destroy()
	}

	if hook, ok := v.behavior.(Destroyer); ok {
		if err := guardHook("destroy", func() error { hook.Destroy(v); return nil }); err != nil {
			v.host.Error(events.Error, err)
		}
	}

	bus := v.host.Events()
	for _, id := range handlers {
		bus.Off(id)
	}

	if root != nil {
		v.host.Backend().Destroy(root)
	}
	v.host.Tree().Detach(v)
}
