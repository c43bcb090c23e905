// browser/dom/locator.go
package dom

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// DefaultPollInterval is used by locators that were not given an explicit interval.
const DefaultPollInterval = 100 * time.Millisecond

// Locator is a lazy reference to "the first element matching selector inside scope".
// It is re-resolved on every use, so it survives re-renders of the underlying document.
type Locator struct {
	scope    Scope
	selector string
	poll     time.Duration
}

// Locate creates a locator rooted at the given scope.
func Locate(scope Scope, selector string) Locator {
	return Locator{scope: scope, selector: selector, poll: DefaultPollInterval}
}

// WithPollInterval returns a copy of the locator that polls at the given interval while awaiting.
func (l Locator) WithPollInterval(d time.Duration) Locator {
	if d > 0 {
		l.poll = d
	}
	return l
}

// Selector returns the CSS selector the locator resolves.
func (l Locator) Selector() string { return l.selector }

// Resolve looks the element up once, without waiting.
func (l Locator) Resolve(ctx context.Context) (Element, bool, error) {
	return l.scope.Find(ctx, l.selector)
}

// Ready reports whether an element is both visible and enabled.
func Ready(ctx context.Context, el Element) (bool, error) {
	visible, err := el.Visible(ctx)
	if err != nil || !visible {
		return false, err
	}
	return el.Enabled(ctx)
}

// AwaitVisible polls until the located element exists and is visible and enabled,
// or the timeout elapses. A timeout yields an error wrapping ErrTimeout.
func AwaitVisible(ctx context.Context, l Locator, timeout time.Duration) (Element, error) {
	return await(ctx, l, timeout, true)
}

// AwaitPresent polls until the located element exists, regardless of visibility.
func AwaitPresent(ctx context.Context, l Locator, timeout time.Duration) (Element, error) {
	return await(ctx, l, timeout, false)
}

func await(ctx context.Context, l Locator, timeout time.Duration, needReady bool) (Element, error) {
	waitCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	ticker := time.NewTicker(l.poll)
	defer ticker.Stop()

	var lastErr error
	for {
		el, found, err := l.scope.Find(waitCtx, l.selector)
		if err == nil && found {
			if !needReady {
				return el, nil
			}
			ready, readyErr := Ready(waitCtx, el)
			if readyErr == nil && ready {
				return el, nil
			}
			err = readyErr
		}
		if err != nil {
			lastErr = err
		}

		select {
		case <-waitCtx.Done():
			// The caller's own cancellation takes precedence over the local timeout.
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			if lastErr != nil {
				return nil, fmt.Errorf("%w: '%s' after %s (last error: %v)", ErrTimeout, l.selector, timeout, lastErr)
			}
			return nil, fmt.Errorf("%w: '%s' after %s", ErrTimeout, l.selector, timeout)
		case <-ticker.C:
		}
	}
}

// ClickIfPresentAndReady clicks the located element when it exists and is
// interactable right now. Absent or non-interactable elements are a no-op
// reported as (false, nil). Lookup and click failures are returned.
func ClickIfPresentAndReady(ctx context.Context, l Locator) (bool, error) {
	el, found, err := l.Resolve(ctx)
	if err != nil {
		return false, fmt.Errorf("failed to look up '%s': %w", l.selector, err)
	}
	if !found {
		return false, nil
	}
	ready, err := Ready(ctx, el)
	if err != nil {
		return false, fmt.Errorf("failed to check readiness of '%s': %w", l.selector, err)
	}
	if !ready {
		return false, nil
	}
	if err := el.Click(ctx); err != nil {
		return false, fmt.Errorf("failed to click '%s': %w", l.selector, err)
	}
	return true, nil
}

// ReadText returns the trimmed text of the first element matching selector
// inside scope. A missing element yields an error wrapping ErrNotFound.
func ReadText(ctx context.Context, scope Scope, selector string) (string, error) {
	el, found, err := scope.Find(ctx, selector)
	if err != nil {
		return "", fmt.Errorf("failed to look up '%s': %w", selector, err)
	}
	if !found {
		return "", fmt.Errorf("%w: '%s'", ErrNotFound, selector)
	}
	text, err := el.Text(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to read text of '%s': %w", selector, err)
	}
	return strings.TrimSpace(text), nil
}
