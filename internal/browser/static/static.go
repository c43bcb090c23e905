// browser/static/static.go
//
// Package static implements the dom interfaces over a parsed HTML document.
// It backs offline parsing of saved result pages and deterministic tests.
// Scripts never run, so Click only records the interaction.
package static

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"strings"
	"sync"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"

	"github.com/Hamza-bouzid/pagine-bianche/internal/browser/dom"
)

// clickAttr records clicks on the document itself so they survive re-querying.
const clickAttr = "data-static-clicks"

var (
	errNoDocument = errors.New("no document loaded, call Navigate first")
	errClosed     = errors.New("page is closed")
)

// Loader fetches the raw HTML for a target URL.
type Loader func(ctx context.Context, target string) (io.ReadCloser, error)

// HTTPLoader fetches pages over HTTP. Headers are added to every request.
func HTTPLoader(client *http.Client, headers map[string]string) Loader {
	if client == nil {
		client = http.DefaultClient
	}
	return func(ctx context.Context, target string) (io.ReadCloser, error) {
		u, err := url.Parse(target)
		if err != nil {
			return nil, fmt.Errorf("invalid url '%s': %w", target, err)
		}
		// Search terms are interpolated verbatim, so re-encode the query the way a browser would.
		u.RawQuery = u.Query().Encode()

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
		if err != nil {
			return nil, fmt.Errorf("failed to build request: %w", err)
		}
		for k, v := range headers {
			req.Header.Set(k, v)
		}

		resp, err := client.Do(req)
		if err != nil {
			return nil, fmt.Errorf("request to '%s' failed: %w", u.Redacted(), err)
		}
		if resp.StatusCode < 200 || resp.StatusCode > 299 {
			resp.Body.Close()
			return nil, fmt.Errorf("request to '%s' returned status %d", u.Redacted(), resp.StatusCode)
		}
		return resp.Body, nil
	}
}

// FileLoader serves a single saved HTML file regardless of the requested URL.
func FileLoader(path string) Loader {
	return func(ctx context.Context, _ string) (io.ReadCloser, error) {
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("failed to open '%s': %w", path, err)
		}
		return f, nil
	}
}

// Browser hands out static pages that share a loader.
type Browser struct {
	load   Loader
	logger *zap.Logger
}

// New creates a static page opener.
func New(load Loader, logger *zap.Logger) *Browser {
	return &Browser{load: load, logger: logger.Named("static")}
}

// Open returns an empty page. It never fails.
func (b *Browser) Open(ctx context.Context) (dom.Page, error) {
	return &Page{load: b.load, logger: b.logger}, nil
}

// Page is a document parsed with goquery.
type Page struct {
	load   Loader
	logger *zap.Logger

	mu     sync.RWMutex
	doc    *goquery.Document
	url    string
	closed bool
}

// NewPageFromReader parses HTML directly, bypassing any loader.
func NewPageFromReader(r io.Reader, logger *zap.Logger) (*Page, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to parse document: %w", err)
	}
	return &Page{doc: doc, logger: logger.Named("static")}, nil
}

func (p *Page) Navigate(ctx context.Context, target string) error {
	if p.load == nil {
		return errors.New("page has no loader")
	}
	body, err := p.load(ctx, target)
	if err != nil {
		return err
	}
	defer body.Close()

	doc, err := goquery.NewDocumentFromReader(body)
	if err != nil {
		return fmt.Errorf("failed to parse document from '%s': %w", target, err)
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return errClosed
	}
	p.doc = doc
	p.url = target
	p.logger.Debug("Document loaded.", zap.String("url", target))
	return nil
}

func (p *Page) Close(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.closed = true
	p.doc = nil
	return nil
}

// URL returns the last URL passed to a successful Navigate.
func (p *Page) URL() string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.url
}

func (p *Page) root() (*goquery.Selection, error) {
	if p.closed {
		return nil, errClosed
	}
	if p.doc == nil {
		return nil, errNoDocument
	}
	return p.doc.Selection, nil
}

func (p *Page) Find(ctx context.Context, selector string) (dom.Element, bool, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	root, err := p.root()
	if err != nil {
		return nil, false, err
	}
	return find(p, root, selector)
}

func (p *Page) FindAll(ctx context.Context, selector string) ([]dom.Element, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	root, err := p.root()
	if err != nil {
		return nil, err
	}
	return findAll(p, root, selector), nil
}

// Clicks returns how many times the first element matching selector was clicked.
func (p *Page) Clicks(selector string) int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	root, err := p.root()
	if err != nil {
		return 0
	}
	return clickCount(root.Find(selector).First())
}

func find(p *Page, scope *goquery.Selection, selector string) (dom.Element, bool, error) {
	match := scope.Find(selector).First()
	if match.Length() == 0 {
		return nil, false, nil
	}
	return &element{page: p, sel: match}, true, nil
}

func findAll(p *Page, scope *goquery.Selection, selector string) []dom.Element {
	matches := scope.Find(selector)
	out := make([]dom.Element, 0, matches.Length())
	matches.Each(func(_ int, s *goquery.Selection) {
		out = append(out, &element{page: p, sel: s})
	})
	return out
}

func clickCount(s *goquery.Selection) int {
	raw, ok := s.Attr(clickAttr)
	if !ok {
		return 0
	}
	n, _ := strconv.Atoi(raw)
	return n
}

// element wraps a single-node selection.
type element struct {
	page *Page
	sel  *goquery.Selection
}

func (e *element) Find(ctx context.Context, selector string) (dom.Element, bool, error) {
	e.page.mu.RLock()
	defer e.page.mu.RUnlock()
	if e.page.closed {
		return nil, false, errClosed
	}
	return find(e.page, e.sel, selector)
}

func (e *element) FindAll(ctx context.Context, selector string) ([]dom.Element, error) {
	e.page.mu.RLock()
	defer e.page.mu.RUnlock()
	if e.page.closed {
		return nil, errClosed
	}
	return findAll(e.page, e.sel, selector), nil
}

// Visible approximates rendering: the node and all of its ancestors must be free of
// the hidden attribute and of inline display:none or visibility:hidden.
func (e *element) Visible(ctx context.Context) (bool, error) {
	e.page.mu.RLock()
	defer e.page.mu.RUnlock()
	for s := e.sel; s.Length() > 0; s = s.Parent() {
		if hidden(s) {
			return false, nil
		}
	}
	return true, nil
}

func (e *element) Enabled(ctx context.Context) (bool, error) {
	e.page.mu.RLock()
	defer e.page.mu.RUnlock()
	if _, ok := e.sel.Attr("disabled"); ok {
		return false, nil
	}
	return e.sel.AttrOr("aria-disabled", "") != "true", nil
}

func (e *element) Click(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	e.page.mu.Lock()
	defer e.page.mu.Unlock()
	if e.page.closed {
		return errClosed
	}
	e.sel.SetAttr(clickAttr, strconv.Itoa(clickCount(e.sel)+1))
	return nil
}

func (e *element) Text(ctx context.Context) (string, error) {
	e.page.mu.RLock()
	defer e.page.mu.RUnlock()
	return e.sel.Text(), nil
}

func hidden(s *goquery.Selection) bool {
	if _, ok := s.Attr("hidden"); ok {
		return true
	}
	if goquery.NodeName(s) == "input" && strings.EqualFold(s.AttrOr("type", ""), "hidden") {
		return true
	}
	style := strings.ToLower(strings.ReplaceAll(s.AttrOr("style", ""), " ", ""))
	return strings.Contains(style, "display:none") || strings.Contains(style, "visibility:hidden")
}

var (
	_ dom.PageOpener = (*Browser)(nil)
	_ dom.Page       = (*Page)(nil)
	_ dom.Element    = (*element)(nil)
)
