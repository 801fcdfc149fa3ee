package app

import (
	"context"
	"runtime/debug"
	"time"

	"github.com/conneroisu/viewnav/internal/composer"
	"github.com/conneroisu/viewnav/internal/dom"
	"github.com/conneroisu/viewnav/internal/errors"
	"github.com/conneroisu/viewnav/internal/events"
	"github.com/conneroisu/viewnav/internal/logging"
	"github.com/conneroisu/viewnav/internal/monitoring"
	"github.com/conneroisu/viewnav/internal/resolver"
	"github.com/conneroisu/viewnav/internal/router"
	"github.com/conneroisu/viewnav/internal/urlpath"
	"github.com/conneroisu/viewnav/internal/view"
)

// Start renders the application into the backend body. An empty path or
// "/" shows the router's stored path or the configured start page. A vetoed
// start is not an error, and render failures are only reported through
// app:error:render.
func (a *App) Start(ctx context.Context, path string) error {
	_, err := a.Render(ctx, a.backend.Body(), urlpath.Parse(path), nil)
	if errors.IsRejected(err) || errors.IsRenderError(err) {
		return nil
	}
	return err
}

// Render implements view.View. The first call constructs the router. Render
// stage failures are reported through app:error:render and leave the
// previous root in place; Render fails only when the guard rejects url or
// nothing could be shown at all.
func (a *App) Render(ctx context.Context, target dom.Node, url urlpath.URL, parent view.View) (dom.Node, error) {
	if a.destroyed.Load() {
		return nil, errors.ErrDestroyed
	}
	if target == nil {
		target = a.backend.Body()
	}

	a.mu.Lock()
	a.parent = parent
	a.container = target
	first := a.router == nil
	a.mu.Unlock()

	path := url.String()
	if first {
		var err error
		if path, err = a.firstStart(target, url); err != nil {
			return nil, err
		}
	}

	approved, err := a.CanNavigate(ctx, path, nil)
	if err != nil {
		a.metrics.Navigation(monitoring.ResultRejected)
		return nil, err
	}
	a.Router().Set(approved, router.SetOptions{Silent: true})

	a.stage.Lock()
	err = a.renderStage(ctx, approved, false)
	a.stage.Unlock()

	root := a.Root()
	if root == nil && err != nil {
		return nil, err
	}
	return root, nil
}

func (a *App) firstStart(target dom.Node, url urlpath.URL) (string, error) {
	adapter, err := a.routerFactory(a.routeChanged, a.cfg)
	if err != nil {
		return "", errors.NewRouterError(errors.ErrCodeRouterFailed, "cannot create router", err)
	}

	a.mu.Lock()
	a.router = adapter
	a.mu.Unlock()

	if target.ID() == a.backend.Body().ID() && a.cfg.AnimationEnabled() {
		a.animate(target)
	}

	path := url.String()
	if len(url) == 0 || (len(url) == 1 && url.Page() == "") {
		path = adapter.Get()
		if path == "" {
			path = a.cfg.Start
		}
		adapter.Set(path, router.SetOptions{Silent: true})
	}
	a.logger.Debug(context.Background(), "router started", "path", path)
	return path, nil
}

func (a *App) animate(body dom.Node) {
	styler, ok := a.backend.(dom.Styler)
	if !ok {
		return
	}
	styler.AddCSS(body, StartClass)
	_ = a.queue.After(10*time.Millisecond, func() {
		styler.RemoveCSS(body, StartClass)
		styler.AddCSS(body, ReadyClass)
	})
}

// routeChanged receives external router changes. Navigation always runs
// later on the task queue, never inside the adapter's call.
func (a *App) routeChanged(path string) {
	err := a.queue.Defer(func() {
		if a.destroyed.Load() {
			return
		}
		a.navigate(context.Background(), path)
	})
	if err != nil {
		a.logger.Debug(context.Background(), "route change dropped", "path", path, "error", err)
	}
}

// navigate guards and renders path without comparing it with the router,
// which already holds it.
func (a *App) navigate(ctx context.Context, path string) {
	approved, err := a.CanNavigate(ctx, path, nil)
	if err != nil {
		a.metrics.Navigation(monitoring.ResultRejected)
		a.logger.Debug(ctx, "navigation rejected", "path", path)
		return
	}
	a.Router().Set(approved, router.SetOptions{Silent: true})
	_ = a.commit(ctx, approved, false)
}

// Show navigates to path. Navigating to the router's current path does
// nothing, and a vetoed navigation is not an error. Render failures are
// reported through app:error:render.
func (a *App) Show(ctx context.Context, path string) error {
	if a.destroyed.Load() {
		return errors.ErrDestroyed
	}
	adapter := a.Router()
	if adapter == nil {
		return errors.ErrNotStarted
	}
	if adapter.Get() == path {
		a.metrics.Navigation(monitoring.ResultUnchanged)
		return nil
	}

	ctx, span := monitoring.StartSpan(ctx, a.tracer, "navigate", path)
	defer monitoring.EndSpan(span, nil)

	approved, err := a.CanNavigate(ctx, path, nil)
	if err != nil {
		a.metrics.Navigation(monitoring.ResultRejected)
		a.logger.Debug(ctx, "navigation rejected", "path", path)
		return nil
	}
	adapter.Set(approved, router.SetOptions{Silent: true})
	a.logger.Debug(ctx, "navigation approved", "path", path, "approved", approved)

	_ = a.commit(ctx, approved, false)
	return nil
}

// CanNavigate runs the guard for url on behalf of v, or of the top view when
// v is nil. It returns the approved path.
func (a *App) CanNavigate(ctx context.Context, url string, v view.View) (string, error) {
	var current any
	if v != nil {
		current = v
	} else if top := a.View(); top != nil {
		current = top
	}
	return a.guard.CanNavigate(ctx, url, current)
}

// Refresh replaces the top view with a fresh instance for the router's
// current path. The old view is destroyed before the new one is built.
// Render failures are reported through app:error:render.
func (a *App) Refresh(ctx context.Context) error {
	if a.destroyed.Load() {
		return errors.ErrDestroyed
	}
	adapter := a.Router()
	if adapter == nil {
		return errors.ErrNotStarted
	}

	path := adapter.Get()
	approved, err := a.CanNavigate(ctx, path, nil)
	if err != nil {
		a.metrics.Navigation(monitoring.ResultRejected)
		return nil
	}
	adapter.Set(approved, router.SetOptions{Silent: true})
	return a.commit(ctx, approved, true)
}

// commit runs a render stage now, or queues it when another stage is in
// progress. The running stage may be the caller itself, for instance a view
// hook navigating while it is rendered, so commit never blocks on it. It only
// fails when the stage cannot be queued.
func (a *App) commit(ctx context.Context, path string, fresh bool) error {
	if a.stage.TryLock() {
		defer a.stage.Unlock()
		_ = a.renderStage(ctx, path, fresh)
		return nil
	}

	a.logger.Debug(ctx, "render stage busy, queueing", "path", path)
	ctx = context.WithoutCancel(ctx)
	return a.queue.Defer(func() {
		a.stage.Lock()
		defer a.stage.Unlock()
		_ = a.renderStage(ctx, path, fresh)
	})
}

// renderStage must be called with the stage lock held. A fresh stage never
// reuses the top view.
func (a *App) renderStage(ctx context.Context, path string, fresh bool) (err error) {
	if a.destroyed.Load() {
		return errors.ErrDestroyed
	}

	url := a.parser.Parse(path)
	ctx, span := monitoring.StartSpan(ctx, a.tracer, "render", path)
	op := logging.StartOperation(a.logger.With("path", path), "render")

	defer func() {
		if err != nil {
			a.metrics.ObserveRender(op.EndWithError(ctx, err))
		} else {
			a.metrics.ObserveRender(op.End(ctx))
		}
		a.metrics.SetLiveViews(a.tree.Len())
		if err != nil {
			a.metrics.Navigation(monitoring.ResultFailed)
			a.metrics.RenderError()
			a.Error(events.ErrorRender, err)
		} else {
			a.metrics.Navigation(monitoring.ResultCommitted)
		}
		monitoring.EndSpan(span, err)
	}()

	err = a.backend.Freeze(func() error {
		return a.mount(ctx, url, fresh)
	})
	if err != nil {
		return err
	}

	a.logger.Debug(ctx, "route committed", "path", url.String())
	a.bus.Emit(events.Route, url)
	return nil
}

func (a *App) mount(ctx context.Context, url urlpath.URL, fresh bool) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = errors.WrapRender(errors.FromPanic(errors.ErrCodeHookPanicked, rec), url.Page())
		}
	}()

	a.mu.RLock()
	old := a.view
	container := a.container
	parent := a.parent
	a.mu.RUnlock()

	if fresh && old != nil {
		if container, err = a.clear(ctx, old, container); err != nil {
			return errors.WrapRender(err, url.Page())
		}
		old = nil
	}

	next, err := a.CreateFromURL(ctx, url, old)
	if err != nil {
		return errors.WrapRender(err, url.Page())
	}

	root, err := next.Render(ctx, container, url, parent)
	if err != nil {
		// the previous view, if any, stays in place
		return errors.WrapRender(err, url.Page())
	}
	if root == nil {
		return errors.NewRenderError(errors.ErrCodeRenderFailed, "view rendered no root", nil).WithPage(url.Page())
	}

	if a.destroyed.Load() {
		next.Destroy()
		return errors.ErrDestroyed
	}

	a.mu.Lock()
	a.view = next
	a.root = root
	a.url = url
	// a root nested in another widget replaced its container
	if root.Parent() != nil {
		a.container = root
	}
	a.mu.Unlock()

	if old != nil && old != next {
		old.Destroy()
	}
	return nil
}

// clear destroys the top view ahead of a fresh render. A root that replaced a
// slot container is first swapped for an empty container with the same id.
func (a *App) clear(ctx context.Context, old view.View, container dom.Node) (dom.Node, error) {
	if container.ID() != a.backend.Body().ID() {
		placeholder, err := a.backend.Build(ctx, container, map[string]any{composer.IDKey: container.ID()})
		if err != nil {
			return nil, err
		}
		container = placeholder
	}
	old.Destroy()

	a.mu.Lock()
	a.view = nil
	a.root = nil
	a.container = container
	a.mu.Unlock()
	return container, nil
}

// CreateFromURL implements view.Host. It returns now when now already shows
// the first page of url.
func (a *App) CreateFromURL(ctx context.Context, url urlpath.URL, now view.View) (view.View, error) {
	page := url.Page()
	if now != nil && now.Name() == page {
		return now, nil
	}
	return a.LoadView(ctx, page).Instantiate(a, page)
}

// LoadView resolves page. Failures are reported through app:error:resolve
// and yield the placeholder.
func (a *App) LoadView(ctx context.Context, page string) resolver.Resolved {
	return a.resolver.Resolve(ctx, page)
}

// Error emits name and then app:error with args. In debug mode the error is
// also logged with a stack trace and handed to the breakpoint hook.
func (a *App) Error(name string, args ...any) {
	a.bus.Emit(name, args...)
	a.bus.Emit(events.Error, args...)

	if !a.cfg.Debug {
		return
	}
	var err error
	if len(args) > 0 {
		err, _ = args[0].(error)
	}
	a.logger.Error(context.Background(), err, "application error",
		"event", name, "stack", string(debug.Stack()))
	if a.breakpoint != nil {
		a.breakpoint(name, args)
	}
}
