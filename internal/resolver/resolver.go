// Package resolver turns page names into view implementations.
//
// Resolve never fails. Whatever a lookup strategy returns is normalized once
// into a Resolved value; lookup errors, panics and unsupported values are
// reported through the OnError callback and replaced by a placeholder.
package resolver

import (
	"context"
	stderrors "errors"
	"fmt"
	"strings"

	"github.com/conneroisu/viewnav/internal/errors"
	"github.com/conneroisu/viewnav/internal/logging"
	"github.com/conneroisu/viewnav/internal/registry"
	"github.com/conneroisu/viewnav/internal/view"
)

// Kind tags the shape of a resolved view.
type Kind int

const (
	KindClass Kind = iota + 1
	KindFactory
	KindDescriptor
)

func (k Kind) String() string {
	switch k {
	case KindClass:
		return "class"
	case KindFactory:
		return "factory"
	case KindDescriptor:
		return "descriptor"
	default:
		return "invalid"
	}
}

// Resolved is a view implementation in exactly one of three shapes.
type Resolved struct {
	Kind       Kind
	Class      view.Class
	Factory    view.Factory
	Descriptor map[string]any
}

// Placeholder is the inert view resolved for pages that failed to load.
func Placeholder() Resolved {
	return Resolved{Kind: KindDescriptor, Descriptor: view.PlaceholderConfig()}
}

// Instantiate creates an unrendered view for the named page.
func (r Resolved) Instantiate(host view.Host, name string) (v view.View, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = errors.FromPanic(errors.ErrCodeHookPanicked, rec).WithPage(name)
		}
	}()

	switch r.Kind {
	case KindClass:
		v = r.Class(host, name)
		if v == nil {
			return nil, fmt.Errorf("class for %s returned no view: %w", name, errors.ErrUnsupportedView)
		}
		return v, nil
	case KindFactory:
		return view.NewRaw(host, name, r.Factory()), nil
	case KindDescriptor:
		if view.IsLegacy(r.Descriptor) {
			return view.NewLegacy(host, name, r.Descriptor), nil
		}
		return view.NewRaw(host, name, r.Descriptor), nil
	default:
		return nil, fmt.Errorf("resolved kind %d: %w", r.Kind, errors.ErrUnsupportedView)
	}
}

// Normalize classifies a loaded value. Module values are unwrapped to their
// default export first.
func Normalize(value any) (Resolved, error) {
	switch v := value.(type) {
	case Resolved:
		return v, nil
	case view.Class:
		return Resolved{Kind: KindClass, Class: v}, nil
	case func(view.Host, string) view.View:
		return Resolved{Kind: KindClass, Class: v}, nil
	case view.Factory:
		return Resolved{Kind: KindFactory, Factory: v}, nil
	case func() any:
		return Resolved{Kind: KindFactory, Factory: v}, nil
	case map[string]any:
		return Resolved{Kind: KindDescriptor, Descriptor: v}, nil
	case registry.Module:
		return Normalize(v.Default)
	case *registry.Module:
		if v == nil {
			return Resolved{}, errors.ErrUnsupportedView
		}
		return Normalize(v.Default)
	case nil:
		return Resolved{}, fmt.Errorf("nil view: %w", errors.ErrUnsupportedView)
	default:
		return Resolved{}, fmt.Errorf("%T: %w", value, errors.ErrUnsupportedView)
	}
}

// Loader is a custom lookup strategy.
type Loader func(ctx context.Context, page string) (any, error)

// ErrorFunc receives resolution failures.
type ErrorFunc func(err error, page string)

// Options selects the lookup strategy. Loader wins over Views, Views over
// Modules.
type Options struct {
	Loader  Loader
	Views   map[string]any
	Modules *registry.ViewRegistry
	// Prefix is prepended to module identifiers.
	Prefix  string
	OnError ErrorFunc
	Logger  logging.Logger
}

// Resolver resolves pages with a fixed strategy.
type Resolver struct {
	opts   Options
	logger logging.Logger
}

func New(opts Options) *Resolver {
	logger := opts.Logger
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Resolver{opts: opts, logger: logger.WithComponent("resolver")}
}

// ModuleID derives the module identifier of a page: dots become path
// separators under the prefix.
func ModuleID(prefix, page string) string {
	id := strings.ReplaceAll(page, ".", "/")
	if prefix == "" {
		return id
	}
	return strings.TrimSuffix(prefix, "/") + "/" + id
}

// Resolve returns the view implementation of page, or Placeholder when it
// cannot be loaded.
func (r *Resolver) Resolve(ctx context.Context, page string) Resolved {
	value, err := r.load(ctx, page)
	if err == nil {
		var resolved Resolved
		resolved, err = Normalize(value)
		if err == nil {
			r.logger.Debug(ctx, "view resolved", "page", page, "kind", resolved.Kind.String())
			return resolved
		}
		err = errors.NewResolveError(errors.ErrCodeUnsupportedView, page, err)
	}

	r.logger.Warn(ctx, err, "view resolution failed", "page", page)
	if r.opts.OnError != nil {
		r.opts.OnError(err, page)
	}
	return Placeholder()
}

func (r *Resolver) load(ctx context.Context, page string) (value any, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = errors.NewResolveError(errors.ErrCodeLoadFailed, page,
				errors.FromPanic(errors.ErrCodeLoadFailed, rec))
		}
	}()

	switch {
	case r.opts.Loader != nil:
		value, err = r.opts.Loader(ctx, page)
		if err != nil {
			return nil, errors.NewResolveError(errors.ErrCodeLoadFailed, page, err)
		}
		return value, nil

	case r.opts.Views != nil:
		value, ok := r.opts.Views[page]
		if !ok {
			return nil, errors.NewResolveError(errors.ErrCodeViewNotFound, page,
				fmt.Errorf("no view named %q", page))
		}
		return value, nil

	case r.opts.Modules != nil:
		id := ModuleID(r.opts.Prefix, page)
		value, err = r.opts.Modules.Load(ctx, id)
		if err != nil {
			code := errors.ErrCodeLoadFailed
			if stderrors.Is(err, registry.ErrModuleNotFound) {
				code = errors.ErrCodeViewNotFound
			}
			return nil, errors.NewResolveError(code, page, err)
		}
		return value, nil

	default:
		return nil, errors.NewResolveError(errors.ErrCodeViewNotFound, page,
			fmt.Errorf("no view source configured for %q", page))
	}
}
