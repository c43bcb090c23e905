// internal/browser/session.go
package browser

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/chromedp/cdproto/cdp"
	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/chromedp"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Hamza-bouzid/pagine-bianche/internal/browser/dom"
	"github.com/Hamza-bouzid/pagine-bianche/internal/config"
)

const (
	stabilizeTimeout = 30 * time.Second
	closeGracePeriod = 10 * time.Second
)

var errSessionClosed = errors.New("browser session is closed")

// Session represents a single browser tab and implements dom.Page.
type Session struct {
	id     string
	ctx    context.Context
	cancel context.CancelFunc
	cfg    config.NetworkConfig
	logger *zap.Logger

	mu       sync.Mutex
	isClosed bool
}

var _ dom.Page = (*Session)(nil)

// newSession wraps an already connected chromedp tab context.
func newSession(ctx context.Context, cancel context.CancelFunc, cfg config.NetworkConfig, logger *zap.Logger) *Session {
	id := uuid.New().String()
	return &Session{
		id:     id,
		ctx:    ctx,
		cancel: cancel,
		cfg:    cfg,
		logger: logger.With(zap.String("session_id", id)),
	}
}

// ID returns the unique identifier of the session.
func (s *Session) ID() string {
	return s.id
}

// initialize applies per-tab settings once the target is connected.
func (s *Session) initialize(ctx context.Context) error {
	if len(s.cfg.Headers) == 0 {
		return nil
	}
	headers := make(network.Headers)
	for k, v := range s.cfg.Headers {
		headers[k] = v
	}
	if err := s.runActions(ctx, network.Enable(), network.SetExtraHTTPHeaders(headers)); err != nil {
		return fmt.Errorf("failed to apply extra headers: %w", err)
	}
	return nil
}

// Navigate loads the URL and waits for the document to settle.
func (s *Session) Navigate(ctx context.Context, url string) error {
	if s.closed() {
		return errSessionClosed
	}
	navCtx := ctx
	if s.cfg.NavigationTimeout > 0 {
		var cancel context.CancelFunc
		navCtx, cancel = context.WithTimeout(ctx, s.cfg.NavigationTimeout)
		defer cancel()
	}

	s.logger.Debug("Navigating.", zap.String("url", url))
	if err := s.runActions(navCtx, chromedp.Navigate(url)); err != nil {
		return fmt.Errorf("failed to navigate to '%s': %w", url, err)
	}
	return s.stabilize(ctx)
}

// stabilize waits for the body to be ready and then for the configured quiet period.
func (s *Session) stabilize(ctx context.Context) error {
	stabCtx, cancel := context.WithTimeout(ctx, stabilizeTimeout)
	defer cancel()

	if err := s.runActions(stabCtx, chromedp.WaitReady("body", chromedp.ByQuery)); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		s.logger.Debug("WaitReady failed during stabilization.", zap.Error(err))
	}

	if s.cfg.PostLoadWait <= 0 {
		return nil
	}
	timer := time.NewTimer(s.cfg.PostLoadWait)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *Session) Find(ctx context.Context, selector string) (dom.Element, bool, error) {
	return s.find(ctx, selector, nil)
}

func (s *Session) FindAll(ctx context.Context, selector string) ([]dom.Element, error) {
	return s.findAll(ctx, selector, nil)
}

func (s *Session) find(ctx context.Context, selector string, root *cdp.Node) (dom.Element, bool, error) {
	all, err := s.findAll(ctx, selector, root)
	if err != nil || len(all) == 0 {
		return nil, false, err
	}
	return all[0], true, nil
}

// findAll runs a non-waiting querySelectorAll, scoped to root when given.
func (s *Session) findAll(ctx context.Context, selector string, root *cdp.Node) ([]dom.Element, error) {
	if s.closed() {
		return nil, errSessionClosed
	}
	opts := []chromedp.QueryOption{chromedp.ByQueryAll, chromedp.AtLeast(0)}
	if root != nil {
		opts = append(opts, chromedp.FromNode(root))
	}

	var nodes []*cdp.Node
	if err := s.runActions(ctx, chromedp.Nodes(selector, &nodes, opts...)); err != nil {
		return nil, fmt.Errorf("query '%s' failed: %w", selector, err)
	}

	out := make([]dom.Element, 0, len(nodes))
	for _, n := range nodes {
		out = append(out, &element{session: s, node: n})
	}
	return out, nil
}

// Close terminates the tab and the browser process behind it.
func (s *Session) Close(ctx context.Context) error {
	s.mu.Lock()
	if s.isClosed {
		s.mu.Unlock()
		return nil
	}
	s.isClosed = true
	s.mu.Unlock()

	s.logger.Debug("Closing browser session.")

	// 1. Ask the browser to shut down gracefully, bounded by ctx.
	graceCtx, cancel := context.WithTimeout(ctx, closeGracePeriod)
	defer cancel()
	done := make(chan error, 1)
	go func() { done <- chromedp.Cancel(s.ctx) }()

	var closeErr error
	select {
	case closeErr = <-done:
	case <-graceCtx.Done():
		closeErr = graceCtx.Err()
	}

	// 2. Tear down the tab and allocator contexts, killing the process if still alive.
	if s.cancel != nil {
		s.cancel()
	}

	if closeErr != nil && !errors.Is(closeErr, context.Canceled) {
		s.logger.Warn("Browser did not shut down gracefully.", zap.Error(closeErr))
		return fmt.Errorf("failed to close browser session: %w", closeErr)
	}
	return nil
}

func (s *Session) closed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.isClosed
}

// runActions executes chromedp.Actions, ensuring they respect both the session lifetime (s.ctx)
// and the incoming request context (ctx).
func (s *Session) runActions(ctx context.Context, actions ...chromedp.Action) error {
	runCtx, cancel := CombineContext(s.ctx, ctx)
	defer cancel()

	return chromedp.Run(runCtx, actions...)
}
