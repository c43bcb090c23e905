// internal/browser/browser.go
package browser

import (
	"context"
	"fmt"

	"github.com/chromedp/chromedp"
	"go.uber.org/zap"

	"github.com/Hamza-bouzid/pagine-bianche/internal/browser/dom"
	"github.com/Hamza-bouzid/pagine-bianche/internal/config"
)

// Launcher starts a dedicated Chrome process for every page it opens.
// Runs never share a browser, so one run's failure cannot leak into another.
type Launcher struct {
	cfg    config.Interface
	logger *zap.Logger
}

var _ dom.PageOpener = (*Launcher)(nil)

// NewLauncher creates a launcher. No process is started until Open.
func NewLauncher(cfg config.Interface, logger *zap.Logger) *Launcher {
	return &Launcher{cfg: cfg, logger: logger.Named("browser")}
}

// Open launches the browser and returns its first tab. The browser process is
// bound to ctx and is terminated by Session.Close or when ctx is canceled.
func (l *Launcher) Open(ctx context.Context) (dom.Page, error) {
	browserCfg := l.cfg.Browser()

	// 1. Allocator owns the process.
	allocCtx, allocCancel := chromedp.NewExecAllocator(ctx, execAllocatorOptions(browserCfg)...)

	// 2. Tab context, routing CDP diagnostics through zap.
	sugar := l.logger.Sugar()
	ctxOpts := []chromedp.ContextOption{
		chromedp.WithErrorf(sugar.Debugf),
	}
	if browserCfg.Debug {
		ctxOpts = append(ctxOpts, chromedp.WithLogf(sugar.Debugf), chromedp.WithDebugf(sugar.Debugf))
	}
	tabCtx, tabCancel := chromedp.NewContext(allocCtx, ctxOpts...)

	cancel := func() {
		tabCancel()
		allocCancel()
	}

	// 3. Start the process and connect to the target.
	if err := chromedp.Run(tabCtx); err != nil {
		cancel()
		return nil, fmt.Errorf("failed to launch browser: %w", err)
	}

	session := newSession(tabCtx, cancel, l.cfg.Network(), l.logger)
	if err := session.initialize(ctx); err != nil {
		_ = session.Close(context.WithoutCancel(ctx))
		return nil, err
	}

	l.logger.Debug("Browser session opened.", zap.String("session_id", session.ID()))
	return session, nil
}
