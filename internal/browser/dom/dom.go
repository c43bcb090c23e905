// browser/dom/dom.go
package dom

import (
	"context"
	"errors"
)

var (
	// ErrTimeout is returned when an element does not reach the awaited state in time.
	ErrTimeout = errors.New("timed out waiting for element")
	// ErrNotFound is returned when a required element is absent.
	ErrNotFound = errors.New("element not found")
)

// Scope is anything that can be queried for descendant elements: a whole page
// or a single element acting as the root of a sub-tree.
type Scope interface {
	// Find returns the first element matching the CSS selector. The boolean is
	// false, with a nil error, when nothing matches.
	Find(ctx context.Context, selector string) (Element, bool, error)
	// FindAll returns every match in document order. An empty result is not an error.
	FindAll(ctx context.Context, selector string) ([]Element, error)
}

// Element is a handle on a single node in a live or static document.
type Element interface {
	Scope
	Visible(ctx context.Context) (bool, error)
	Enabled(ctx context.Context) (bool, error)
	Click(ctx context.Context) error
	// Text returns the raw text content of the node and its descendants.
	Text(ctx context.Context) (string, error)
}

// Page is a navigable document. Callers own the page and must Close it.
type Page interface {
	Scope
	Navigate(ctx context.Context, url string) error
	Close(ctx context.Context) error
}

// PageOpener acquires a fresh page, typically backed by a newly launched browser.
type PageOpener interface {
	Open(ctx context.Context) (Page, error)
}
