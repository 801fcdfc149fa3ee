// Package router provides the path stores an application navigates with.
//
// An Adapter holds the current path. Set updates it; unless the update is
// silent the adapter reports it through its ChangeFunc like any change made
// from outside the application (a history step, an edited state file, a
// browser message). The application always sets silently and defers every
// callback through its scheduler, so a callback never re-enters navigation.
package router

import (
	"fmt"
	"io"

	"github.com/conneroisu/viewnav/internal/config"
	"github.com/conneroisu/viewnav/internal/logging"
)

// SetOptions controls Set.
type SetOptions struct {
	// Silent suppresses the adapter's own change notification.
	Silent bool
}

// Adapter stores the current path.
type Adapter interface {
	Get() string
	Set(path string, opts SetOptions)
}

// ChangeFunc receives paths changed outside of silent Set calls.
type ChangeFunc func(path string)

// Factory constructs an adapter. cfg is the application configuration.
type Factory func(onChange ChangeFunc, cfg *config.Config) (Adapter, error)

// ForKind returns the factory for a configured router kind.
func ForKind(kind string, logger logging.Logger) (Factory, error) {
	if logger == nil {
		logger = logging.NewNop()
	}
	logger = logger.WithComponent("router")

	switch kind {
	case "", config.RouterMemory:
		return func(onChange ChangeFunc, cfg *config.Config) (Adapter, error) {
			return NewMemory(onChange), nil
		}, nil
	case config.RouterFile:
		return func(onChange ChangeFunc, cfg *config.Config) (Adapter, error) {
			path := ".viewnav/route"
			if cfg != nil && cfg.Router.StateFile != "" {
				path = cfg.Router.StateFile
			}
			return NewFile(path, onChange, logger)
		}, nil
	case config.RouterSocket:
		return func(onChange ChangeFunc, cfg *config.Config) (Adapter, error) {
			return NewSocket(onChange, logger), nil
		}, nil
	default:
		return nil, fmt.Errorf("unknown router kind %q", kind)
	}
}

// Close closes adapters holding resources.
func Close(a Adapter) error {
	if c, ok := a.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

func notify(onChange ChangeFunc, path string) {
	if onChange != nil {
		onChange(path)
	}
}
