// Package plugins provides optional application extensions installed with
// App.Use or attached to a single view.
package plugins

import (
	"context"
	"fmt"

	"github.com/conneroisu/viewnav/internal/app"
	"github.com/conneroisu/viewnav/internal/events"
	"github.com/conneroisu/viewnav/internal/guard"
	"github.com/conneroisu/viewnav/internal/view"
)

// UnloadGuard asks check before any navigation that would leave v, that is
// any navigation while v is the top view or inside it. check is a func() bool,
// a guard.Confirmation or a func(context.Context) (bool, error). A false
// result keeps the application where it is.
//
// The guard is detached when v is destroyed.
func UnloadGuard(a *app.App, v view.View, check any) error {
	if v == nil {
		return fmt.Errorf("unload guard: no view")
	}
	confirm, err := asConfirmation(check)
	if err != nil {
		return fmt.Errorf("unload guard: %w", err)
	}

	handler := func(args ...any) bool {
		if len(args) < 3 {
			return true
		}
		top, _ := args[1].(view.View)
		intent, ok := args[2].(*guard.Intent)
		if !ok || !contains(a.Tree(), top, v) {
			return true
		}

		prev := intent.Confirm
		intent.Confirm = func(ctx context.Context) (bool, error) {
			if prev != nil {
				if ok, err := prev(ctx); !ok || err != nil {
					return ok, err
				}
			}
			return confirm(ctx)
		}
		return true
	}

	if inst, ok := v.(*view.Instance); ok {
		inst.On(events.Guard, handler)
	} else {
		a.On(events.Guard, handler)
	}
	return nil
}

func asConfirmation(check any) (guard.Confirmation, error) {
	switch fn := check.(type) {
	case guard.Confirmation:
		return fn, nil
	case func(context.Context) (bool, error):
		return fn, nil
	case func() bool:
		return func(context.Context) (bool, error) { return fn(), nil }, nil
	default:
		return nil, fmt.Errorf("unsupported check %T", check)
	}
}

// contains reports whether v is top or one of its descendants.
func contains(tree *view.Tree, top, v view.View) bool {
	if top == nil {
		return false
	}
	for cur := v; cur != nil; cur = tree.Parent(cur) {
		if cur.ID() == top.ID() {
			return true
		}
	}
	return false
}
