// Package guard decides whether a navigation may proceed.
//
// Every attempt emits app:guard with the requested path, the current view
// and a mutable *Intent. Listeners veto synchronously by returning false,
// redirect by changing Intent.Redirect, or defer the decision by replacing
// Intent.Confirm with an asynchronous confirmation.
package guard

import (
	"context"
	"fmt"

	"github.com/conneroisu/viewnav/internal/errors"
	"github.com/conneroisu/viewnav/internal/events"
	"github.com/conneroisu/viewnav/internal/urlpath"
)

// Confirmation reports whether navigation may continue. It may block until
// the decision is made.
type Confirmation func(ctx context.Context) (bool, error)

// Approved is the confirmation every intent starts with.
func Approved() Confirmation {
	return func(context.Context) (bool, error) { return true, nil }
}

// Rejected refuses navigation.
func Rejected() Confirmation {
	return func(context.Context) (bool, error) { return false, nil }
}

// Await waits for a decision on ch, for example a dialog answer.
func Await(ch <-chan bool) Confirmation {
	return func(ctx context.Context) (bool, error) {
		select {
		case ok, open := <-ch:
			return ok && open, nil
		case <-ctx.Done():
			return false, ctx.Err()
		}
	}
}

// Intent is one navigation attempt.
type Intent struct {
	URL      string
	Parsed   urlpath.URL
	Redirect string
	Confirm  Confirmation
}

// Guard runs the guard protocol on a bus.
type Guard struct {
	bus *events.Bus
}

func New(bus *events.Bus) *Guard {
	return &Guard{bus: bus}
}

// CanNavigate returns the approved path, which is Intent.Redirect after all
// listeners ran. A synchronous veto rejects without awaiting the
// confirmation. Rejections wrap errors.ErrNavigationRejected.
func (g *Guard) CanNavigate(ctx context.Context, url string, current any) (string, error) {
	intent := &Intent{
		URL:      url,
		Parsed:   urlpath.Parse(url),
		Redirect: url,
		Confirm:  Approved(),
	}

	if !g.bus.Emit(events.Guard, url, current, intent) {
		return "", errors.ErrNavigationRejected
	}

	confirm := intent.Confirm
	if confirm == nil {
		confirm = Approved()
	}

	ok, err := run(ctx, confirm)
	if err != nil {
		return "", fmt.Errorf("%w: %w", errors.ErrNavigationRejected, err)
	}
	if !ok {
		return "", errors.ErrNavigationRejected
	}
	return intent.Redirect, nil
}

func run(ctx context.Context, confirm Confirmation) (ok bool, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = errors.FromPanic(errors.ErrCodeHookPanicked, rec)
		}
	}()
	return confirm(ctx)
}
