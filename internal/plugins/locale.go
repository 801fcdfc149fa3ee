package plugins

import (
	"context"
	stderrors "errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/BurntSushi/toml"
	"github.com/nicksnyder/go-i18n/v2/i18n"
	"golang.org/x/text/language"

	"github.com/conneroisu/viewnav/internal/app"
	"github.com/conneroisu/viewnav/internal/errors"
	"github.com/conneroisu/viewnav/internal/view"
)

// LocaleService is the service name the locale plugin registers.
const LocaleService = "locale"

// LocaleOptions configures the Locale plugin. Message files are TOML files
// named after their language, such as en.toml, read from Path or taken
// from Files.
type LocaleOptions struct {
	Lang  string
	Path  string
	Files map[string][]byte
}

// Locale translates messages for the current language.
type Locale struct {
	app    *app.App
	bundle *i18n.Bundle
	opts   LocaleOptions

	mu        sync.RWMutex
	lang      string
	localizer *i18n.Localizer
	loaded    map[string]bool
}

// LocalePlugin registers a *Locale as the "locale" service. cfg is a
// LocaleOptions, a *LocaleOptions or nil.
func LocalePlugin(a *app.App, _ view.View, cfg any) error {
	var opts LocaleOptions
	switch c := cfg.(type) {
	case LocaleOptions:
		opts = c
	case *LocaleOptions:
		if c != nil {
			opts = *c
		}
	case nil:
	default:
		return fmt.Errorf("locale: unsupported options %T", cfg)
	}
	if opts.Lang == "" {
		opts.Lang = "en"
	}

	base, err := language.Parse(opts.Lang)
	if err != nil {
		return fmt.Errorf("locale: %w", err)
	}

	bundle := i18n.NewBundle(base)
	bundle.RegisterUnmarshalFunc("toml", toml.Unmarshal)

	l := &Locale{
		app:    a,
		bundle: bundle,
		opts:   opts,
		loaded: make(map[string]bool),
	}
	if err := l.use(opts.Lang); err != nil {
		return err
	}
	a.SetService(LocaleService, l)
	return nil
}

// Lang returns the current language.
func (l *Locale) Lang() string {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.lang
}

// T translates id. Missing messages translate to id itself.
func (l *Locale) T(id string, data map[string]any) string {
	l.mu.RLock()
	localizer := l.localizer
	l.mu.RUnlock()

	msg, err := localizer.Localize(&i18n.LocalizeConfig{
		MessageID:    id,
		TemplateData: data,
	})
	if err != nil {
		return id
	}
	return msg
}

// SetLang switches the language and re-renders the application when it has
// started.
func (l *Locale) SetLang(ctx context.Context, lang string) error {
	if err := l.use(lang); err != nil {
		return err
	}
	if err := l.app.Refresh(ctx); err != nil && !stderrors.Is(err, errors.ErrNotStarted) {
		return err
	}
	return nil
}

func (l *Locale) use(lang string) error {
	tag, err := language.Parse(lang)
	if err != nil {
		return fmt.Errorf("locale: %w", err)
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if !l.loaded[lang] {
		if err := l.load(lang); err != nil {
			return err
		}
		l.loaded[lang] = true
	}
	l.lang = lang
	l.localizer = i18n.NewLocalizer(l.bundle, tag.String())
	return nil
}

func (l *Locale) load(lang string) error {
	name := lang + ".toml"
	if data, ok := l.opts.Files[lang]; ok {
		if _, err := l.bundle.ParseMessageFileBytes(data, name); err != nil {
			return fmt.Errorf("locale: parse %s: %w", name, err)
		}
		return nil
	}
	if l.opts.Path == "" {
		return nil
	}

	path := filepath.Join(l.opts.Path, name)
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil
	}
	if _, err := l.bundle.LoadMessageFile(path); err != nil {
		return fmt.Errorf("locale: load %s: %w", path, err)
	}
	return nil
}
