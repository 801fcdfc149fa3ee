package app

import (
	"bytes"
	"context"
	stderrors "errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/conneroisu/viewnav/internal/config"
	"github.com/conneroisu/viewnav/internal/dom"
	"github.com/conneroisu/viewnav/internal/errors"
	"github.com/conneroisu/viewnav/internal/events"
	"github.com/conneroisu/viewnav/internal/guard"
	"github.com/conneroisu/viewnav/internal/logging"
	"github.com/conneroisu/viewnav/internal/monitoring"
	"github.com/conneroisu/viewnav/internal/router"
	"github.com/conneroisu/viewnav/internal/urlpath"
	"github.com/conneroisu/viewnav/internal/view"
)

// page is a class view behavior with a fixed configuration.
type page struct {
	config any
	err    error

	mu        sync.Mutex
	inits     int
	destroyed int
}

func (p *page) Config(*view.Instance) (any, error) { return p.config, p.err }

func (p *page) Init(*view.Instance, dom.Node, urlpath.URL) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.inits++
	return nil
}

func (p *page) Destroy(*view.Instance) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.destroyed++
}

func (p *page) counts() (int, int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.inits, p.destroyed
}

func classOf(b view.Behavior) view.Class {
	return func(host view.Host, name string) view.View {
		return view.New(host, name, b)
	}
}

// recorder collects the arguments of emitted events.
type recorder struct {
	mu     sync.Mutex
	events map[string][][]any
}

func record(a *App, names ...string) *recorder {
	r := &recorder{events: make(map[string][][]any)}
	for _, name := range names {
		name := name
		a.On(name, events.Listener(func(args ...any) {
			r.mu.Lock()
			defer r.mu.Unlock()
			r.events[name] = append(r.events[name], args)
		}))
	}
	return r
}

func (r *recorder) get(name string) [][]any {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.events[name]
}

func noAnimation() *config.Config {
	cfg := config.Default()
	off := false
	cfg.Animation = &off
	return cfg
}

func newTestApp(t *testing.T, views map[string]any, opts ...Option) (*App, *dom.Document) {
	t.Helper()
	doc := dom.NewDocument()
	opts = append([]Option{WithConfig(noAnimation()), WithBackend(doc), WithViews(views)}, opts...)
	a, err := New(opts...)
	require.NoError(t, err)
	t.Cleanup(a.Destroy)
	return a, doc
}

func flush(t *testing.T, a *App) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, a.Queue().Flush(ctx))
}

func TestStartUsesStartPage(t *testing.T) {
	a, doc := newTestApp(t, map[string]any{
		"home": map[string]any{"template": "Home"},
	})
	rec := record(a, events.Route, events.Guard)

	require.NoError(t, a.Start(context.Background(), "/"))

	assert.Equal(t, "/home", a.Router().Get())
	require.NotNil(t, a.View())
	assert.Equal(t, "home", a.View().Name())
	assert.Equal(t, "home", a.URL().Page())
	assert.Len(t, rec.get(events.Guard), 1)
	require.Len(t, rec.get(events.Route), 1)
	assert.True(t, urlpath.Parse("/home").Equal(rec.get(events.Route)[0][0].(urlpath.URL)))

	root, ok := doc.Find(a.Root().ID())
	require.True(t, ok)
	assert.Equal(t, "Home", root.Template())
	assert.Nil(t, a.Root().Parent())
}

func TestStartKeepsStoredRouterPath(t *testing.T) {
	mem := router.NewMemory(nil)
	mem.Set("/users", router.SetOptions{Silent: true})

	a, _ := newTestApp(t, map[string]any{
		"home":  map[string]any{"template": "Home"},
		"users": map[string]any{"template": "Users"},
	}, WithRouter(func(onChange router.ChangeFunc, cfg *config.Config) (router.Adapter, error) {
		return mem, nil
	}))

	require.NoError(t, a.Start(context.Background(), ""))
	assert.Equal(t, "users", a.View().Name())
}

func TestShowBeforeStart(t *testing.T) {
	a, _ := newTestApp(t, map[string]any{})
	assert.ErrorIs(t, a.Show(context.Background(), "/home"), errors.ErrNotStarted)
	assert.ErrorIs(t, a.Refresh(context.Background()), errors.ErrNotStarted)
}

func TestShowSamePathIsNoop(t *testing.T) {
	a, _ := newTestApp(t, map[string]any{
		"home": map[string]any{"template": "Home"},
	})
	require.NoError(t, a.Start(context.Background(), "/home"))
	rec := record(a, events.Route, events.Guard)
	top := a.View()

	require.NoError(t, a.Show(context.Background(), "/home"))

	assert.Empty(t, rec.get(events.Guard))
	assert.Empty(t, rec.get(events.Route))
	assert.Same(t, top, a.View())
}

func TestGuardVeto(t *testing.T) {
	a, doc := newTestApp(t, map[string]any{
		"home":  map[string]any{"template": "Home"},
		"users": map[string]any{"template": "Users"},
	})
	require.NoError(t, a.Start(context.Background(), "/home"))
	before := doc.IDs()

	a.On(events.Guard, func(args ...any) bool { return false })
	rec := record(a, events.Route, events.Error)

	require.NoError(t, a.Show(context.Background(), "/users/42"))

	assert.Equal(t, "/home", a.Router().Get())
	assert.Equal(t, "home", a.View().Name())
	assert.Equal(t, before, doc.IDs())
	assert.Empty(t, rec.get(events.Route))
	assert.Empty(t, rec.get(events.Error))
}

func TestGuardAsyncRejection(t *testing.T) {
	a, _ := newTestApp(t, map[string]any{
		"home":  map[string]any{"template": "Home"},
		"users": map[string]any{"template": "Users"},
	})
	require.NoError(t, a.Start(context.Background(), "/home"))

	a.On(events.Guard, events.Listener(func(args ...any) {
		args[2].(*guard.Intent).Confirm = guard.Rejected()
	}))
	rec := record(a, events.Route)

	require.NoError(t, a.Show(context.Background(), "/users"))
	assert.Equal(t, "/home", a.Router().Get())
	assert.Empty(t, rec.get(events.Route))
}

func TestGuardRedirect(t *testing.T) {
	a, _ := newTestApp(t, map[string]any{
		"home":  map[string]any{"template": "Home"},
		"login": map[string]any{"template": "Login"},
	})
	require.NoError(t, a.Start(context.Background(), "/home"))

	a.On(events.Guard, events.Listener(func(args ...any) {
		intent := args[2].(*guard.Intent)
		if intent.Parsed.Page() == "admin" {
			intent.Redirect = "/login"
		}
	}))

	require.NoError(t, a.Show(context.Background(), "/admin"))
	assert.Equal(t, "/login", a.Router().Get())
	assert.Equal(t, "login", a.View().Name())
}

func TestReuseAndReplace(t *testing.T) {
	home := &page{config: map[string]any{"template": "Home"}}
	users := &page{config: map[string]any{"template": "Users"}}
	a, doc := newTestApp(t, map[string]any{
		"home":  classOf(home),
		"users": classOf(users),
	})
	ctx := context.Background()
	require.NoError(t, a.Start(ctx, "/home"))
	first := a.View()

	require.NoError(t, a.Show(ctx, "/home?tab=2"))
	assert.Same(t, first, a.View())
	inits, destroyed := home.counts()
	assert.Equal(t, 1, inits)
	assert.Equal(t, 0, destroyed)
	assert.Equal(t, "2", a.URL()[0].Params["tab"])

	require.NoError(t, a.Show(ctx, "/users"))
	assert.NotSame(t, first, a.View())
	assert.Equal(t, "users", a.View().Name())
	_, destroyed = home.counts()
	assert.Equal(t, 1, destroyed)
	assert.Equal(t, view.StateDestroyed, first.(*view.Instance).State())

	assert.Len(t, doc.Roots(), 1)
	assert.Equal(t, 1, a.Tree().Len())
}

func TestOldViewDestroyedAfterNewRoot(t *testing.T) {
	doc := dom.NewDocument()
	var rootsSeen []int
	users := &page{config: map[string]any{"template": "Users"}}
	home := &destroySpy{page: page{config: map[string]any{"template": "Home"}}, onDestroy: func() {
		rootsSeen = append(rootsSeen, len(doc.Roots()))
	}}

	a, err := New(WithConfig(noAnimation()), WithBackend(doc), WithViews(map[string]any{
		"home":  classOf(home),
		"users": classOf(users),
	}))
	require.NoError(t, err)
	defer a.Destroy()

	require.NoError(t, a.Start(context.Background(), "/home"))
	require.NoError(t, a.Show(context.Background(), "/users"))

	// both roots existed when the old view was torn down
	assert.Equal(t, []int{2}, rootsSeen)
	assert.Len(t, doc.Roots(), 1)
}

type destroySpy struct {
	page
	onDestroy func()
}

func (d *destroySpy) Destroy(v *view.Instance) {
	d.onDestroy()
	d.page.Destroy(v)
}

func TestResolveFailureShowsPlaceholder(t *testing.T) {
	doc := dom.NewDocument()
	metrics := monitoring.NewMetrics()
	a, err := New(WithConfig(noAnimation()), WithBackend(doc), WithMetrics(metrics),
		WithLoader(func(ctx context.Context, page string) (any, error) {
			return nil, stderrors.New("module missing")
		}))
	require.NoError(t, err)
	defer a.Destroy()
	rec := record(a, events.ErrorResolve, events.Error, events.ErrorRender)

	require.NoError(t, a.Start(context.Background(), ""))

	require.NotNil(t, a.Root())
	root, ok := doc.Find(a.Root().ID())
	require.True(t, ok)
	assert.Equal(t, " ", root.Template())

	resolved := rec.get(events.ErrorResolve)
	require.Len(t, resolved, 1)
	assert.True(t, errors.IsResolveError(resolved[0][0].(error)))
	assert.Equal(t, "home", resolved[0][1])
	assert.Len(t, rec.get(events.Error), 1)
	assert.Empty(t, rec.get(events.ErrorRender))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.ResolveErrors))
}

func TestNoViewSourceUsesModules(t *testing.T) {
	a, err := New(WithConfig(noAnimation()))
	require.NoError(t, err)
	defer a.Destroy()
	rec := record(a, events.ErrorResolve)

	require.NoError(t, a.Start(context.Background(), "/"))
	assert.Len(t, rec.get(events.ErrorResolve), 1)
	assert.Equal(t, "home", a.View().Name())
}

func TestRenderFailureKeepsPreviousView(t *testing.T) {
	metrics := monitoring.NewMetrics()
	a, doc := newTestApp(t, map[string]any{
		"home":   map[string]any{"template": "Home"},
		"broken": classOf(&page{err: stderrors.New("no config")}),
	}, WithMetrics(metrics))
	ctx := context.Background()
	require.NoError(t, a.Start(ctx, "/home"))
	rec := record(a, events.ErrorRender, events.Route)
	before := doc.IDs()

	require.NoError(t, a.Show(ctx, "/broken"))

	require.Len(t, rec.get(events.ErrorRender), 1)
	assert.True(t, errors.IsRenderError(rec.get(events.ErrorRender)[0][0].(error)))
	assert.Empty(t, rec.get(events.Route))
	assert.Equal(t, "home", a.View().Name())
	assert.Equal(t, before, doc.IDs())
	assert.Equal(t, 1, a.Tree().Len())
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.RenderErrors))

	// the engine keeps working
	require.NoError(t, a.Show(ctx, "/home?again=1"))
	assert.Len(t, rec.get(events.Route), 1)
}

func TestStartReportsRenderFailure(t *testing.T) {
	a, doc := newTestApp(t, map[string]any{
		"home": func() any { return nil },
	})
	rec := record(a, events.ErrorRender, events.Route)

	require.NoError(t, a.Start(context.Background(), "/home"))

	require.Len(t, rec.get(events.ErrorRender), 1)
	err := rec.get(events.ErrorRender)[0][0].(error)
	assert.True(t, errors.IsRenderError(err))
	assert.Equal(t, 1, strings.Count(err.Error(), "render failed"))
	assert.Empty(t, rec.get(events.Route))
	assert.Nil(t, a.View())
	assert.Equal(t, "/home", a.Router().Get())
	assert.Equal(t, 0, doc.Len())
}

func TestRefreshReportsRenderFailure(t *testing.T) {
	broken := &page{config: map[string]any{"template": "Home"}}
	a, _ := newTestApp(t, map[string]any{"home": classOf(broken)})
	ctx := context.Background()
	require.NoError(t, a.Start(ctx, "/home"))
	rec := record(a, events.ErrorRender)

	broken.mu.Lock()
	broken.err = stderrors.New("no config")
	broken.mu.Unlock()

	require.NoError(t, a.Refresh(ctx))
	assert.Len(t, rec.get(events.ErrorRender), 1)
}

func TestRenderStageIsTimed(t *testing.T) {
	var buf bytes.Buffer
	logger := logging.NewLogger(&logging.LoggerConfig{Level: logging.LevelDebug, Output: &buf})
	a, _ := newTestApp(t, map[string]any{
		"home":   map[string]any{"template": "Home"},
		"broken": func() any { return nil },
	}, WithLogger(logger))
	ctx := context.Background()

	require.NoError(t, a.Start(ctx, "/home"))
	assert.Contains(t, buf.String(), "Operation completed")
	assert.Contains(t, buf.String(), "operation=render")
	assert.Contains(t, buf.String(), "path=/home")

	buf.Reset()
	require.NoError(t, a.Show(ctx, "/broken"))
	assert.Contains(t, buf.String(), "Operation failed")
	assert.Contains(t, buf.String(), "path=/broken")
}

func TestNestedSubviews(t *testing.T) {
	a, doc := newTestApp(t, map[string]any{
		"layout": map[string]any{"rows": []any{
			map[string]any{"template": "Header"},
			map[string]any{"$subview": true},
		}},
		"list":   map[string]any{"template": "List"},
		"detail": map[string]any{"template": "Detail"},
	})
	ctx := context.Background()
	require.NoError(t, a.Start(ctx, "/layout/list"))

	top := a.View().(*view.Instance)
	require.NotNil(t, top.Subview("default"))
	assert.Equal(t, "list", top.Subview("default").Name())
	assert.Equal(t, 2, a.Tree().Len())

	require.NoError(t, a.Show(ctx, "/layout/detail"))
	assert.Same(t, top, a.View())
	assert.Equal(t, "detail", top.Subview("default").Name())
	assert.Equal(t, 2, a.Tree().Len())

	html, err := doc.HTML(ctx)
	require.NoError(t, err)
	assert.Contains(t, html, "Detail")
	assert.NotContains(t, html, "List")
}

func TestShowParentClearsDefaultSubview(t *testing.T) {
	a, doc := newTestApp(t, map[string]any{
		"layout": map[string]any{"rows": []any{
			map[string]any{"template": "Header"},
			map[string]any{"$subview": true},
		}},
		"list": map[string]any{"template": "List"},
	})
	ctx := context.Background()
	require.NoError(t, a.Start(ctx, "/layout/list"))
	top := a.View().(*view.Instance)
	rec := record(a, events.Route)

	require.NoError(t, a.Show(ctx, "/layout"))

	assert.Equal(t, "/layout", a.Router().Get())
	require.Len(t, rec.get(events.Route), 1)
	assert.Same(t, top, a.View())
	assert.Nil(t, top.Subview("default"))
	assert.Equal(t, 1, a.Tree().Len())

	html, err := doc.HTML(ctx)
	require.NoError(t, err)
	assert.Contains(t, html, "Header")
	assert.NotContains(t, html, "List")
}

func TestExternalRouteChangeIsDeferred(t *testing.T) {
	a, _ := newTestApp(t, map[string]any{
		"home":  map[string]any{"template": "Home"},
		"users": map[string]any{"template": "Users"},
	})
	require.NoError(t, a.Start(context.Background(), "/home"))
	mem := a.Router().(*router.Memory)

	block := make(chan struct{})
	require.NoError(t, a.Queue().Defer(func() { <-block }))

	mem.Navigate("/users")
	assert.Equal(t, "home", a.View().Name())

	close(block)
	flush(t, a)
	assert.Equal(t, "users", a.View().Name())
	assert.Equal(t, []string{"/home", "/users"}, mem.History())
}

func TestShowFromHookIsQueued(t *testing.T) {
	var a *App
	jump := &hookPage{page: page{config: map[string]any{"template": "Jump"}}}
	a, _ = newTestApp(t, map[string]any{
		"home":   map[string]any{"template": "Home"},
		"jump":   classOf(jump),
		"target": map[string]any{"template": "Target"},
	})
	jump.ready = func() { _ = a.Show(context.Background(), "/target") }

	ctx := context.Background()
	require.NoError(t, a.Start(ctx, "/home"))
	require.NoError(t, a.Show(ctx, "/jump"))
	flush(t, a)

	assert.Equal(t, "/target", a.Router().Get())
	assert.Equal(t, "target", a.View().Name())
}

type hookPage struct {
	page
	ready func()
}

func (h *hookPage) Ready(*view.Instance, dom.Node, urlpath.URL) error {
	h.ready()
	return nil
}

func TestRefreshCreatesFreshView(t *testing.T) {
	home := &page{config: map[string]any{"template": "Home"}}
	a, doc := newTestApp(t, map[string]any{"home": classOf(home)})
	ctx := context.Background()
	require.NoError(t, a.Start(ctx, "/home"))
	first := a.View()

	require.NoError(t, a.Refresh(ctx))

	assert.NotSame(t, first, a.View())
	inits, destroyed := home.counts()
	assert.Equal(t, 2, inits)
	assert.Equal(t, 1, destroyed)
	assert.Len(t, doc.Roots(), 1)
}

func TestRefreshWithFixedWidgetID(t *testing.T) {
	a, doc := newTestApp(t, map[string]any{
		"home": map[string]any{"id": "main", "template": "Home"},
	})
	ctx := context.Background()
	require.NoError(t, a.Start(ctx, "/home"))
	rec := record(a, events.ErrorRender, events.Route)
	first := a.View()

	require.NoError(t, a.Refresh(ctx))

	assert.Empty(t, rec.get(events.ErrorRender))
	assert.Len(t, rec.get(events.Route), 1)
	assert.NotSame(t, first, a.View())
	assert.Equal(t, "main", a.Root().ID())
	assert.Equal(t, []string{"main"}, doc.IDs())
	assert.Equal(t, 1, a.Tree().Len())
}

func TestRefreshEmbeddedApp(t *testing.T) {
	doc := dom.NewDocument()
	inner, err := New(WithConfig(noAnimation()), WithBackend(doc), WithViews(map[string]any{
		"home": map[string]any{"id": "inner", "template": "Inner"},
	}))
	require.NoError(t, err)

	outer, err := New(WithConfig(noAnimation()), WithBackend(doc), WithViews(map[string]any{
		"shell": map[string]any{"rows": []any{
			map[string]any{"template": "Shell"},
			map[string]any{"$subview": inner},
		}},
	}))
	require.NoError(t, err)
	defer outer.Destroy()

	ctx := context.Background()
	require.NoError(t, outer.Start(ctx, "/shell"))
	first := inner.View()

	require.NoError(t, inner.Refresh(ctx))

	assert.NotSame(t, first, inner.View())
	assert.Equal(t, "inner", inner.Root().ID())
	assert.NotNil(t, inner.Root().Parent())

	html, err := doc.HTML(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, strings.Count(html, "Inner"))
	assert.Contains(t, html, "Shell")
}

func TestServices(t *testing.T) {
	a, _ := newTestApp(t, map[string]any{})

	calls := 0
	a.SetService("counter", func(owner *App) any {
		calls++
		assert.Same(t, a, owner)
		return &calls
	})

	first, err := a.GetService("counter")
	require.NoError(t, err)
	second, err := a.GetService("counter")
	require.NoError(t, err)
	assert.Same(t, first, second)
	assert.Equal(t, 1, calls)

	a.SetService("plain", "value")
	v, err := a.GetService("plain")
	require.NoError(t, err)
	assert.Equal(t, "value", v)

	_, err = a.GetService("missing")
	assert.Error(t, err)
}

func TestErrorFansOut(t *testing.T) {
	cfg := noAnimation()
	cfg.Debug = true
	var hits []string
	a, err := New(WithConfig(cfg), WithViews(map[string]any{}), WithBreakpoint(func(name string, args []any) {
		hits = append(hits, name)
	}))
	require.NoError(t, err)
	defer a.Destroy()
	rec := record(a, "custom:error", events.Error)

	a.Error("custom:error", stderrors.New("boom"), 7)

	require.Len(t, rec.get("custom:error"), 1)
	require.Len(t, rec.get(events.Error), 1)
	assert.Equal(t, 7, rec.get(events.Error)[0][1])
	assert.Equal(t, []string{"custom:error"}, hits)
}

func TestEventHelpers(t *testing.T) {
	a, _ := newTestApp(t, map[string]any{})

	var got []any
	id := a.On("save", events.Listener(func(args ...any) { got = append(got, args...) }))

	a.Trigger("save", 1)
	a.Apply("save", []any{2, 3})
	a.Action("save")(4)
	a.Off(id)
	a.Trigger("save", 5)

	assert.Equal(t, []any{1, 2, 3, 4}, got)
}

func TestClickNavigation(t *testing.T) {
	a, doc := newTestApp(t, map[string]any{
		"home": map[string]any{"rows": []any{
			map[string]any{"id": "to-users", "template": "Users", "route": "/users"},
			map[string]any{"id": "save", "template": "Save", "trigger": "save"},
		}},
		"users": map[string]any{"template": "Users"},
	})
	require.NoError(t, a.Start(context.Background(), "/home"))
	rec := record(a, "save")

	require.NoError(t, doc.Click("save"))
	assert.Len(t, rec.get("save"), 1)

	require.NoError(t, doc.Click("to-users"))
	assert.Equal(t, "users", a.View().Name())
}

func TestStartAnimation(t *testing.T) {
	doc := dom.NewDocument()
	a, err := New(WithBackend(doc), WithViews(map[string]any{
		"home": map[string]any{"template": "Home"},
	}))
	require.NoError(t, err)
	defer a.Destroy()

	require.NoError(t, a.Start(context.Background(), ""))
	assert.True(t, doc.BodyWidget().HasCSS(StartClass))

	flush(t, a)
	assert.False(t, doc.BodyWidget().HasCSS(StartClass))
	assert.True(t, doc.BodyWidget().HasCSS(ReadyClass))
}

func TestUsePlugin(t *testing.T) {
	a, _ := newTestApp(t, map[string]any{})

	var seen any
	require.NoError(t, a.Use(func(app *App, v view.View, cfg any) error {
		assert.Nil(t, v)
		seen = cfg
		return nil
	}, "settings"))
	assert.Equal(t, "settings", seen)

	err := a.Use(func(*App, view.View, any) error { return stderrors.New("nope") }, nil)
	assert.Error(t, err)
}

func TestEmbeddedApp(t *testing.T) {
	doc := dom.NewDocument()
	inner, err := New(WithConfig(noAnimation()), WithBackend(doc), WithViews(map[string]any{
		"home": map[string]any{"template": "Inner"},
	}))
	require.NoError(t, err)

	outer, err := New(WithConfig(noAnimation()), WithBackend(doc), WithViews(map[string]any{
		"shell": map[string]any{"rows": []any{
			map[string]any{"template": "Shell"},
			map[string]any{"$subview": inner},
		}},
	}))
	require.NoError(t, err)
	defer outer.Destroy()

	require.NoError(t, outer.Start(context.Background(), "/shell"))

	require.NotNil(t, inner.View())
	assert.Equal(t, "home", inner.View().Name())
	assert.NotNil(t, inner.Root().Parent())

	outer.Destroy()
	assert.True(t, inner.Destroyed())
	assert.Equal(t, 0, doc.Len())
}

func TestDestroy(t *testing.T) {
	home := &page{config: map[string]any{"template": "Home"}}
	a, doc := newTestApp(t, map[string]any{"home": classOf(home)})
	rec := record(a, events.Destroy)
	require.NoError(t, a.Start(context.Background(), "/home"))

	a.Destroy()
	a.Destroy()

	_, destroyed := home.counts()
	assert.Equal(t, 1, destroyed)
	assert.Equal(t, 0, a.Tree().Len())
	assert.Equal(t, 0, doc.Len())
	assert.Len(t, rec.get(events.Destroy), 1)
	assert.ErrorIs(t, a.Show(context.Background(), "/other"), errors.ErrDestroyed)
	_, err := a.Render(context.Background(), nil, nil, nil)
	assert.ErrorIs(t, err, errors.ErrDestroyed)
}

func TestHealthChecks(t *testing.T) {
	a, _ := newTestApp(t, map[string]any{"home": map[string]any{"template": "Home"}})
	hm := monitoring.NewHealthMonitor(nil)
	for _, check := range a.HealthChecks() {
		hm.RegisterCheck(check)
	}

	assert.Equal(t, monitoring.HealthStatusUnhealthy, hm.Check(context.Background()).Status)

	require.NoError(t, a.Start(context.Background(), "/home"))
	assert.Equal(t, monitoring.HealthStatusHealthy, hm.Check(context.Background()).Status)
}

func TestInvalidRouterKind(t *testing.T) {
	cfg := config.Default()
	cfg.Router.Kind = "hash"
	_, err := New(WithConfig(cfg))
	require.Error(t, err)
	var ne *errors.NavError
	assert.True(t, stderrors.As(err, &ne))
}
