// Package app implements the navigation engine.
//
// An App owns the router adapter, the view tree, the event bus and the
// service registry of one application. It is itself a view, so an App can be
// mounted as a subview of another application.
//
// Navigation runs in two phases. Show compares the requested path with the
// router, runs the guard and writes the approved path back silently; the
// render stage then resolves and renders the top view inside a backend freeze
// scope. Render stages of one App never overlap. A stage requested while
// another one runs is queued behind it, so the most recent navigation wins.
package app

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/atomic"

	"github.com/conneroisu/viewnav/internal/composer"
	"github.com/conneroisu/viewnav/internal/config"
	"github.com/conneroisu/viewnav/internal/di"
	"github.com/conneroisu/viewnav/internal/dom"
	"github.com/conneroisu/viewnav/internal/errors"
	"github.com/conneroisu/viewnav/internal/events"
	"github.com/conneroisu/viewnav/internal/guard"
	"github.com/conneroisu/viewnav/internal/logging"
	"github.com/conneroisu/viewnav/internal/monitoring"
	"github.com/conneroisu/viewnav/internal/registry"
	"github.com/conneroisu/viewnav/internal/resolver"
	"github.com/conneroisu/viewnav/internal/router"
	"github.com/conneroisu/viewnav/internal/scheduler"
	"github.com/conneroisu/viewnav/internal/urlpath"
	"github.com/conneroisu/viewnav/internal/view"
)

// CSS classes toggled on the body when an application starts.
const (
	StartClass = "app-start"
	ReadyClass = "app"
)

// Plugin extends an application. The view argument is nil when the plugin
// is installed through Use.
type Plugin func(a *App, v view.View, cfg any) error

// BreakpointFunc is called for every reported error in debug mode.
type BreakpointFunc func(name string, args []any)

// Option configures an App.
type Option func(*App)

// WithConfig replaces the default configuration.
func WithConfig(cfg *config.Config) Option {
	return func(a *App) { a.cfg = cfg }
}

// WithLoader resolves pages with a custom loader.
func WithLoader(loader resolver.Loader) Option {
	return func(a *App) { a.loader = loader }
}

// WithViews resolves pages from a static mapping.
func WithViews(views map[string]any) Option {
	return func(a *App) { a.views = views }
}

// WithModules resolves pages from a module registry under the configured
// module prefix.
func WithModules(modules *registry.ViewRegistry) Option {
	return func(a *App) { a.modules = modules }
}

// WithRouter overrides the router factory selected by the configuration.
func WithRouter(factory router.Factory) Option {
	return func(a *App) { a.routerFactory = factory }
}

// WithBackend sets the rendering backend.
func WithBackend(backend dom.Backend) Option {
	return func(a *App) { a.backend = backend }
}

func WithLogger(logger logging.Logger) Option {
	return func(a *App) { a.logger = logger }
}

// WithMetrics records navigation metrics into m.
func WithMetrics(m *monitoring.Metrics) Option {
	return func(a *App) { a.metrics = m }
}

func WithTracer(tracer trace.Tracer) Option {
	return func(a *App) { a.tracer = tracer }
}

// WithBreakpoint sets the debug mode error hook.
func WithBreakpoint(fn BreakpointFunc) Option {
	return func(a *App) { a.breakpoint = fn }
}

// App is a navigable application.
type App struct {
	id  string
	cfg *config.Config

	bus      *events.Bus
	services *di.Registry[*App]
	tree     *view.Tree
	backend  dom.Backend
	composer *composer.Composer
	resolver *resolver.Resolver
	guard    *guard.Guard
	queue    *scheduler.Queue
	parser   urlpath.Parser

	logger     logging.Logger
	metrics    *monitoring.Metrics
	tracer     trace.Tracer
	breakpoint BreakpointFunc

	routerFactory router.Factory
	loader        resolver.Loader
	views         map[string]any
	modules       *registry.ViewRegistry

	// stage serializes render stages
	stage sync.Mutex

	mu        sync.RWMutex
	router    router.Adapter
	view      view.View
	root      dom.Node
	container dom.Node
	parent    view.View
	url       urlpath.URL
	unclick   func()

	destroyed atomic.Bool
}

// New creates an application. Without a view source option, pages are
// resolved from the descriptor file named by the configuration, or else from
// an empty module registry.
func New(opts ...Option) (*App, error) {
	a := &App{id: uuid.NewString()}
	for _, opt := range opts {
		opt(a)
	}

	if a.cfg == nil {
		a.cfg = config.Default()
	}
	if a.logger == nil {
		a.logger = logging.NewNop()
	}
	a.logger = a.logger.WithComponent("app")
	if a.tracer == nil {
		a.tracer = monitoring.Tracer()
	}
	if a.metrics == nil && a.cfg.Metrics.Enabled {
		a.metrics = monitoring.NewMetrics()
	}
	if a.backend == nil {
		a.backend = dom.NewDocument()
	}
	if a.routerFactory == nil {
		factory, err := router.ForKind(a.cfg.Router.Kind, a.logger)
		if err != nil {
			return nil, errors.NewConfigError(errors.ErrCodeConfigInvalid, err.Error())
		}
		a.routerFactory = factory
	}
	if err := a.viewSource(); err != nil {
		return nil, err
	}

	a.bus = events.NewBus()
	a.services = di.NewRegistry(a)
	a.tree = view.NewTree()
	a.composer = composer.New(view.ComposerOptions(a))
	a.guard = guard.New(a.bus)
	a.queue = scheduler.NewQueue()
	a.parser = urlpath.Parser{Start: a.cfg.Start}
	a.resolver = resolver.New(resolver.Options{
		Loader:  a.loader,
		Views:   a.views,
		Modules: a.modules,
		Prefix:  a.cfg.Views.Module,
		OnError: a.resolveError,
		Logger:  a.logger,
	})

	if clicker, ok := a.backend.(interface {
		OnClick(fn func(dom.ClickEvent)) func()
	}); ok {
		a.unclick = clicker.OnClick(a.HandleClick)
	}

	a.logger.Debug(context.Background(), "application created",
		"name", a.cfg.Name, "version", a.cfg.Version, "router", a.cfg.Router.Kind)
	return a, nil
}

func (a *App) viewSource() error {
	if a.loader != nil || a.views != nil || a.modules != nil {
		return nil
	}
	if a.cfg.Views.Descriptors != "" {
		views, err := registry.LoadDescriptors(a.cfg.Views.Descriptors)
		if err != nil {
			return errors.Wrap(err, errors.ErrorTypeConfig, errors.ErrCodeConfigInvalid, "cannot load view descriptors")
		}
		a.views = views
		return nil
	}
	a.modules = registry.NewViewRegistry()
	return nil
}

func (a *App) resolveError(err error, page string) {
	a.metrics.ResolveError()
	a.Error(events.ErrorResolve, err, page)
}

// ID implements view.View.
func (a *App) ID() string { return a.id }

// Name implements view.View with the configured application name.
func (a *App) Name() string { return a.cfg.Name }

// Config returns the application configuration.
func (a *App) Config() *config.Config { return a.cfg }

// Root returns the root widget of the top view.
func (a *App) Root() dom.Node {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.root
}

// View returns the top view, or nil before the first render.
func (a *App) View() view.View {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.view
}

// Router returns the router adapter, or nil before the first render.
func (a *App) Router() router.Adapter {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.router
}

// URL implements view.Host.
func (a *App) URL() urlpath.URL {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.url
}

func (a *App) Backend() dom.Backend         { return a.backend }
func (a *App) Tree() *view.Tree             { return a.tree }
func (a *App) Events() *events.Bus          { return a.bus }
func (a *App) Logger() logging.Logger       { return a.logger }
func (a *App) Metrics() *monitoring.Metrics { return a.metrics }

// Queue returns the task queue running deferred navigation work.
func (a *App) Queue() *scheduler.Queue { return a.queue }

// Compose implements view.Host.
func (a *App) Compose(src any, slots composer.Slots) any {
	return a.composer.Normalize(src, slots)
}

// GetService returns the named service, realizing a registered factory
// with the application on first access.
func (a *App) GetService(name string) (any, error) {
	return a.services.Get(name)
}

// SetService registers a service value or a func(*App) factory.
func (a *App) SetService(name string, value any) {
	a.services.Set(name, value)
}

// Use installs a plugin.
func (a *App) Use(plugin Plugin, cfg any) error {
	if err := plugin(a, nil, cfg); err != nil {
		return fmt.Errorf("plugin: %w", err)
	}
	return nil
}

// Trigger emits name with args on the application bus.
func (a *App) Trigger(name string, args ...any) bool {
	return a.Apply(name, args)
}

// Apply emits name with an argument slice.
func (a *App) Apply(name string, args []any) bool {
	return a.bus.Emit(name, args...)
}

// Action returns a function that triggers name with its arguments.
func (a *App) Action(name string) func(args ...any) {
	return func(args ...any) {
		a.Apply(name, args)
	}
}

func (a *App) On(name string, handler events.Handler) events.ID {
	return a.bus.On(name, handler)
}

func (a *App) Off(id events.ID) {
	a.bus.Off(id)
}

// HandleClick navigates to the route and emits the trigger of a clicked
// widget.
func (a *App) HandleClick(ev dom.ClickEvent) {
	a.bus.Emit(events.Click, ev)
	if ev.Trigger != "" {
		a.Trigger(ev.Trigger)
	}
	if ev.Route != "" {
		if err := a.Show(context.Background(), ev.Route); err != nil {
			a.logger.Warn(context.Background(), err, "click navigation failed", "route", ev.Route)
		}
	}
}

// Destroy tears down the top view and releases the router, services and
// task queue. It is safe to call more than once.
func (a *App) Destroy() {
	if !a.destroyed.CompareAndSwap(false, true) {
		return
	}

	a.mu.Lock()
	top := a.view
	adapter := a.router
	unclick := a.unclick
	a.view, a.root, a.unclick = nil, nil, nil
	a.mu.Unlock()

	ctx := context.Background()
	if top != nil {
		top.Destroy()
	}
	a.bus.Emit(events.Destroy, a)

	if unclick != nil {
		unclick()
	}
	if err := router.Close(adapter); err != nil {
		a.logger.Warn(ctx, err, "failed to close router")
	}
	if err := a.services.Shutdown(ctx); err != nil {
		a.logger.Warn(ctx, err, "failed to shut down services")
	}
	_ = a.queue.Close()
	a.metrics.SetLiveViews(a.tree.Len())
	a.logger.Debug(ctx, "application destroyed", "name", a.cfg.Name)
}

// Destroyed reports whether Destroy was called.
func (a *App) Destroyed() bool {
	return a.destroyed.Load()
}
