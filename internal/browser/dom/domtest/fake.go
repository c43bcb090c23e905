// Package domtest provides an in-memory document tree implementing the dom
// interfaces, for exercising scraping logic without a browser.
package domtest

import (
	"context"
	"sync"

	"github.com/Hamza-bouzid/pagine-bianche/internal/browser/dom"
)

// Node is a scriptable fake element. Children are keyed by the exact selector
// string used to look them up, so tests describe only the queries they expect.
type Node struct {
	mu sync.Mutex

	text     string
	hidden   bool
	disabled bool
	children map[string][]*Node
	clicks   int

	// Failure injection.
	TextErr    error
	FindErr    error
	VisibleErr error
	ClickErr   error

	// OnClick runs after a successful click, typically to reveal new children.
	OnClick func(n *Node)
}

// NewNode creates a visible, enabled node with the given text.
func NewNode(text string) *Node {
	return &Node{text: text, children: make(map[string][]*Node)}
}

// Add registers children returned for selector and returns the receiver for chaining.
func (n *Node) Add(selector string, children ...*Node) *Node {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.children[selector] = append(n.children[selector], children...)
	return n
}

// Remove drops every child registered under selector.
func (n *Node) Remove(selector string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	delete(n.children, selector)
}

// SetHidden toggles visibility.
func (n *Node) SetHidden(hidden bool) *Node {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.hidden = hidden
	return n
}

// SetDisabled toggles the enabled state.
func (n *Node) SetDisabled(disabled bool) *Node {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.disabled = disabled
	return n
}

// SetText replaces the node's text content.
func (n *Node) SetText(text string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.text = text
}

// Clicks returns how many times the node was clicked.
func (n *Node) Clicks() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.clicks
}

func (n *Node) Find(ctx context.Context, selector string) (dom.Element, bool, error) {
	all, err := n.FindAll(ctx, selector)
	if err != nil || len(all) == 0 {
		return nil, false, err
	}
	return all[0], true, nil
}

func (n *Node) FindAll(ctx context.Context, selector string) ([]dom.Element, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.FindErr != nil {
		return nil, n.FindErr
	}
	matches := n.children[selector]
	out := make([]dom.Element, 0, len(matches))
	for _, c := range matches {
		out = append(out, c)
	}
	return out, nil
}

func (n *Node) Visible(ctx context.Context) (bool, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.VisibleErr != nil {
		return false, n.VisibleErr
	}
	return !n.hidden, nil
}

func (n *Node) Enabled(ctx context.Context) (bool, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	return !n.disabled, nil
}

func (n *Node) Click(ctx context.Context) error {
	n.mu.Lock()
	if n.ClickErr != nil {
		err := n.ClickErr
		n.mu.Unlock()
		return err
	}
	n.clicks++
	hook := n.OnClick
	n.mu.Unlock()

	// The hook may mutate this node, so it runs outside the lock.
	if hook != nil {
		hook(n)
	}
	return nil
}

func (n *Node) Text(ctx context.Context) (string, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.TextErr != nil {
		return "", n.TextErr
	}
	return n.text, nil
}

// Page is a fake dom.Page whose document is a Node.
type Page struct {
	*Node

	mu          sync.Mutex
	NavigateErr error
	visited     []string
	closed      bool
}

// NewPage wraps a root node as a page.
func NewPage(root *Node) *Page {
	return &Page{Node: root}
}

func (p *Page) Navigate(ctx context.Context, url string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.visited = append(p.visited, url)
	return p.NavigateErr
}

func (p *Page) Close(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.closed = true
	return nil
}

// Visited returns every URL passed to Navigate.
func (p *Page) Visited() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.visited...)
}

// Closed reports whether Close was called.
func (p *Page) Closed() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.closed
}

// Opener hands out a fixed page, or fails with Err.
type Opener struct {
	Page *Page
	Err  error

	mu    sync.Mutex
	opens int
}

func (o *Opener) Open(ctx context.Context) (dom.Page, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.opens++
	if o.Err != nil {
		return nil, o.Err
	}
	return o.Page, nil
}

// Opens returns how many pages were requested.
func (o *Opener) Opens() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.opens
}

var (
	_ dom.Element    = (*Node)(nil)
	_ dom.Page       = (*Page)(nil)
	_ dom.PageOpener = (*Opener)(nil)
)
