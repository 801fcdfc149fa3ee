package cmd

import (
	"fmt"

	"github.com/conneroisu/viewnav/internal/app"
	"github.com/conneroisu/viewnav/internal/config"
	"github.com/conneroisu/viewnav/internal/dom"
	"github.com/conneroisu/viewnav/internal/logging"
	"github.com/conneroisu/viewnav/internal/plugins"
)

// newApplication creates an application rendering into doc with the
// plugins its configuration asks for.
func newApplication(cfg *config.Config, doc *dom.Document, logger logging.Logger, opts ...app.Option) (*app.App, error) {
	opts = append([]app.Option{
		app.WithConfig(cfg),
		app.WithBackend(doc),
		app.WithLogger(logger),
	}, opts...)

	a, err := app.New(opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create application: %w", err)
	}

	if cfg.Locale.Path != "" {
		err = a.Use(plugins.LocalePlugin, plugins.LocaleOptions{Lang: cfg.Locale.Lang, Path: cfg.Locale.Path})
	}
	if err == nil && cfg.Theme != "" {
		err = a.Use(plugins.ThemePlugin, cfg.Theme)
	}
	if err != nil {
		a.Destroy()
		return nil, fmt.Errorf("failed to install plugins: %w", err)
	}
	return a, nil
}
