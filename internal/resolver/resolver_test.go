package resolver

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/conneroisu/viewnav/internal/composer"
	"github.com/conneroisu/viewnav/internal/dom"
	navErrors "github.com/conneroisu/viewnav/internal/errors"
	"github.com/conneroisu/viewnav/internal/events"
	"github.com/conneroisu/viewnav/internal/logging"
	"github.com/conneroisu/viewnav/internal/registry"
	"github.com/conneroisu/viewnav/internal/urlpath"
	"github.com/conneroisu/viewnav/internal/view"
)

type stubHost struct {
	doc  *dom.Document
	tree *view.Tree
	bus  *events.Bus
}

func newStubHost() *stubHost {
	return &stubHost{doc: dom.NewDocument(), tree: view.NewTree(), bus: events.NewBus()}
}

func (h *stubHost) Backend() dom.Backend   { return h.doc }
func (h *stubHost) Tree() *view.Tree       { return h.tree }
func (h *stubHost) Events() *events.Bus    { return h.bus }
func (h *stubHost) Logger() logging.Logger { return logging.NewNop() }
func (h *stubHost) URL() urlpath.URL       { return nil }
func (h *stubHost) Compose(src any, slots composer.Slots) any {
	return composer.New(view.ComposerOptions(h)).Normalize(src, slots)
}
func (h *stubHost) CreateFromURL(context.Context, urlpath.URL, view.View) (view.View, error) {
	return nil, errors.New("not supported")
}
func (h *stubHost) Show(context.Context, string) error { return nil }
func (h *stubHost) Error(string, ...any)               {}

func homeClass(h view.Host, name string) view.View {
	return view.NewRaw(h, name, map[string]any{"template": "class"})
}

func TestNormalize(t *testing.T) {
	tests := []struct {
		name    string
		value   any
		kind    Kind
		wantErr bool
	}{
		{"class func", homeClass, KindClass, false},
		{"named class", view.Class(homeClass), KindClass, false},
		{"factory func", func() any { return map[string]any{"template": "f"} }, KindFactory, false},
		{"named factory", view.Factory(func() any { return nil }), KindFactory, false},
		{"descriptor", map[string]any{"template": "d"}, KindDescriptor, false},
		{"module default", registry.Module{Default: homeClass}, KindClass, false},
		{"module pointer", &registry.Module{Default: map[string]any{}}, KindDescriptor, false},
		{"already resolved", Placeholder(), KindDescriptor, false},
		{"nil", nil, 0, true},
		{"string", "home", 0, true},
		{"module without default", registry.Module{}, 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Normalize(tt.value)
			if tt.wantErr {
				require.Error(t, err)
				assert.ErrorIs(t, err, navErrors.ErrUnsupportedView)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.kind, got.Kind)
		})
	}
}

func TestInstantiate(t *testing.T) {
	host := newStubHost()

	v, err := Resolved{Kind: KindClass, Class: homeClass}.Instantiate(host, "home")
	require.NoError(t, err)
	assert.Equal(t, "home", v.Name())

	v, err = Resolved{Kind: KindFactory, Factory: func() any {
		return map[string]any{"template": "made"}
	}}.Instantiate(host, "made")
	require.NoError(t, err)
	root, err := v.Render(context.Background(), nil, urlpath.Parse("/made"), nil)
	require.NoError(t, err)
	w, _ := host.doc.Find(root.ID())
	assert.Equal(t, "made", w.Template())

	v, err = Resolved{Kind: KindDescriptor, Descriptor: map[string]any{
		"$ui": map[string]any{"template": "legacy"},
	}}.Instantiate(host, "old")
	require.NoError(t, err)
	root, err = v.Render(context.Background(), nil, urlpath.Parse("/old"), nil)
	require.NoError(t, err)
	w, _ = host.doc.Find(root.ID())
	assert.Equal(t, "legacy", w.Template())

	_, err = Resolved{Kind: KindFactory, Factory: func() any { panic("factory broke") }}.Instantiate(host, "x")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "factory broke")

	_, err = Resolved{}.Instantiate(host, "x")
	assert.ErrorIs(t, err, navErrors.ErrUnsupportedView)
}

type resolveFailure struct {
	err  error
	page string
}

func recorder(into *[]resolveFailure) ErrorFunc {
	return func(err error, page string) {
		*into = append(*into, resolveFailure{err: err, page: page})
	}
}

func TestResolveStrategyOrder(t *testing.T) {
	modules := registry.NewViewRegistry()
	modules.Register("views/home", registry.Module{Default: map[string]any{"template": "module"}})

	views := map[string]any{"home": map[string]any{"template": "static"}}
	loader := func(ctx context.Context, page string) (any, error) {
		return map[string]any{"template": "loader:" + page}, nil
	}

	ctx := context.Background()

	r := New(Options{Loader: loader, Views: views, Modules: modules, Prefix: "views"})
	assert.Equal(t, "loader:home", r.Resolve(ctx, "home").Descriptor["template"])

	r = New(Options{Views: views, Modules: modules, Prefix: "views"})
	assert.Equal(t, "static", r.Resolve(ctx, "home").Descriptor["template"])

	r = New(Options{Modules: modules, Prefix: "views"})
	assert.Equal(t, "module", r.Resolve(ctx, "home").Descriptor["template"])
}

func TestResolveDottedModulePath(t *testing.T) {
	modules := registry.NewViewRegistry()
	modules.RegisterLoader("views/admin/users", func(ctx context.Context) (any, error) {
		return registry.Module{Default: homeClass}, nil
	})

	var failures []resolveFailure
	r := New(Options{Modules: modules, Prefix: "views/", OnError: recorder(&failures)})

	got := r.Resolve(context.Background(), "admin.users")
	assert.Equal(t, KindClass, got.Kind)
	assert.Empty(t, failures)
	assert.Equal(t, "views/admin/users", ModuleID("views/", "admin.users"))
	assert.Equal(t, "a/b", ModuleID("", "a.b"))
}

func TestResolveFailuresYieldPlaceholder(t *testing.T) {
	boom := errors.New("boom")
	ctx := context.Background()

	tests := []struct {
		name string
		opts Options
		code string
	}{
		{
			name: "loader error",
			opts: Options{Loader: func(context.Context, string) (any, error) { return nil, boom }},
			code: navErrors.ErrCodeLoadFailed,
		},
		{
			name: "loader panic",
			opts: Options{Loader: func(context.Context, string) (any, error) { panic("kaboom") }},
			code: navErrors.ErrCodeLoadFailed,
		},
		{
			name: "missing static view",
			opts: Options{Views: map[string]any{}},
			code: navErrors.ErrCodeViewNotFound,
		},
		{
			name: "missing module",
			opts: Options{Modules: registry.NewViewRegistry(), Prefix: "views"},
			code: navErrors.ErrCodeViewNotFound,
		},
		{
			name: "unsupported value",
			opts: Options{Views: map[string]any{"missing": 42}},
			code: navErrors.ErrCodeUnsupportedView,
		},
		{
			name: "no strategy",
			opts: Options{},
			code: navErrors.ErrCodeViewNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var failures []resolveFailure
			tt.opts.OnError = recorder(&failures)

			got := New(tt.opts).Resolve(ctx, "missing")

			assert.Equal(t, Placeholder(), got)
			require.Len(t, failures, 1)
			assert.Equal(t, "missing", failures[0].page)
			assert.True(t, navErrors.IsResolveError(failures[0].err))

			var ne *navErrors.NavError
			require.True(t, errors.As(failures[0].err, &ne))
			assert.Equal(t, tt.code, ne.Code)
			assert.Equal(t, "missing", ne.Page)
		})
	}
}
