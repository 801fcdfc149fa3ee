package plugins

import (
	"context"
	"fmt"
	"sync"

	"github.com/conneroisu/viewnav/internal/app"
	"github.com/conneroisu/viewnav/internal/dom"
	"github.com/conneroisu/viewnav/internal/view"
)

// ThemeService is the service name the theme plugin registers.
const ThemeService = "theme"

// Theme marks the document body with a "theme-<name>" class.
type Theme struct {
	app *app.App

	mu   sync.Mutex
	name string
}

// ThemePlugin registers a *Theme as the "theme" service. cfg is the initial
// theme name or nil for "light".
func ThemePlugin(a *app.App, _ view.View, cfg any) error {
	name := "light"
	if cfg != nil {
		s, ok := cfg.(string)
		if !ok {
			return fmt.Errorf("theme: unsupported options %T", cfg)
		}
		name = s
	}

	t := &Theme{app: a}
	t.apply(name)
	a.SetService(ThemeService, t)
	return nil
}

func (t *Theme) Name() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.name
}

// Set switches the theme and re-renders a started application.
func (t *Theme) Set(ctx context.Context, name string) error {
	if t.Name() == name {
		return nil
	}
	t.apply(name)
	if t.app.Router() == nil {
		return nil
	}
	return t.app.Refresh(ctx)
}

func (t *Theme) apply(name string) {
	t.mu.Lock()
	old := t.name
	t.name = name
	t.mu.Unlock()

	styler, ok := t.app.Backend().(dom.Styler)
	if !ok {
		return
	}
	body := t.app.Backend().Body()
	if old != "" {
		styler.RemoveCSS(body, "theme-"+old)
	}
	styler.AddCSS(body, "theme-"+name)
}
