// internal/browser/element.go
package browser

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/chromedp/cdproto/cdp"
	cdpdom "github.com/chromedp/cdproto/dom"
	"github.com/chromedp/cdproto/runtime"
	"github.com/chromedp/chromedp"
	"go.uber.org/zap"

	"github.com/Hamza-bouzid/pagine-bianche/internal/browser/dom"
)

// Scripts are evaluated with the node bound to `this`.
const (
	visibleJS = `function() {
		if (!this.isConnected) return false;
		const style = window.getComputedStyle(this);
		if (style.display === 'none' || style.visibility === 'hidden' || style.opacity === '0') return false;
		const rect = this.getBoundingClientRect();
		return rect.width > 0 && rect.height > 0;
	}`
	enabledJS = `function() {
		return !this.disabled && this.getAttribute('aria-disabled') !== 'true';
	}`
	textJS = `function() { return this.textContent || ''; }`
	clickJS = `function() { this.click(); return true; }`
)

// element is a live DOM node inside a Session.
type element struct {
	session *Session
	node    *cdp.Node
}

var _ dom.Element = (*element)(nil)

func (e *element) Find(ctx context.Context, selector string) (dom.Element, bool, error) {
	return e.session.find(ctx, selector, e.node)
}

func (e *element) FindAll(ctx context.Context, selector string) ([]dom.Element, error) {
	return e.session.findAll(ctx, selector, e.node)
}

func (e *element) Visible(ctx context.Context) (bool, error) {
	var visible bool
	if err := e.callFunction(ctx, visibleJS, &visible); err != nil {
		return false, err
	}
	return visible, nil
}

func (e *element) Enabled(ctx context.Context) (bool, error) {
	var enabled bool
	if err := e.callFunction(ctx, enabledJS, &enabled); err != nil {
		return false, err
	}
	return enabled, nil
}

// Click dispatches a real mouse click at the node's center, falling back to a
// DOM click when the node has no clickable box.
func (e *element) Click(ctx context.Context) error {
	err := e.session.runActions(ctx, chromedp.MouseClickNode(e.node))
	if err == nil {
		return nil
	}
	if ctx.Err() != nil {
		return ctx.Err()
	}
	e.session.logger.Debug("Mouse click failed, falling back to DOM click.", zap.Error(err))

	var ok bool
	if jsErr := e.callFunction(ctx, clickJS, &ok); jsErr != nil {
		return fmt.Errorf("click failed: %w (fallback: %v)", err, jsErr)
	}
	return nil
}

func (e *element) Text(ctx context.Context) (string, error) {
	var text string
	if err := e.callFunction(ctx, textJS, &text); err != nil {
		return "", err
	}
	return text, nil
}

// callFunction resolves the node to a remote object and calls fn on it,
// decoding the by-value result into res.
func (e *element) callFunction(ctx context.Context, fn string, res interface{}) error {
	action := chromedp.ActionFunc(func(ctx context.Context) error {
		obj, err := cdpdom.ResolveNode().WithBackendNodeID(e.node.BackendNodeID).Do(ctx)
		if err != nil {
			return fmt.Errorf("failed to resolve node: %w", err)
		}
		defer func() { _ = runtime.ReleaseObject(obj.ObjectID).Do(ctx) }()

		result, exception, err := runtime.CallFunctionOn(fn).
			WithObjectID(obj.ObjectID).
			WithReturnByValue(true).
			Do(ctx)
		if err != nil {
			return err
		}
		if exception != nil {
			return fmt.Errorf("script exception: %s", exception.Text)
		}
		if result == nil || len(result.Value) == 0 {
			return fmt.Errorf("script returned no value")
		}
		return json.Unmarshal([]byte(result.Value), res)
	})
	return e.session.runActions(ctx, action)
}
