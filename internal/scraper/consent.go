// internal/scraper/consent.go
package scraper

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/Hamza-bouzid/pagine-bianche/internal/browser/dom"
	"github.com/Hamza-bouzid/pagine-bianche/internal/progress"
)

// ConsentHandler dismisses the cookie banner by choosing "reject".
// A handler belongs to one run; once it has dismissed the banner it never
// touches the page again.
type ConsentHandler struct {
	selector string
	timeout  time.Duration
	poll     time.Duration
	logger   *zap.Logger

	mu        sync.Mutex
	dismissed bool
}

// NewConsentHandler creates a handler for a single run.
func NewConsentHandler(selector string, timeout, poll time.Duration, logger *zap.Logger) *ConsentHandler {
	return &ConsentHandler{
		selector: selector,
		timeout:  timeout,
		poll:     poll,
		logger:   logger.Named("consent"),
	}
}

// Dismiss waits for the reject control and clicks it. A banner that never
// appears, or a click that fails, is logged and otherwise ignored. It reports
// whether the banner has been dismissed by this handler.
func (h *ConsentHandler) Dismiss(ctx context.Context, page dom.Scope, events *progress.Emitter) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.dismissed {
		return true
	}
	if h.selector == "" {
		return false
	}

	btn, err := dom.AwaitVisible(ctx, dom.Locate(page, h.selector).WithPollInterval(h.poll), h.timeout)
	if err != nil {
		h.logger.Debug("Consent banner not shown.", zap.Error(err))
		return false
	}
	if err := btn.Click(ctx); err != nil {
		h.logger.Warn("Failed to reject cookies.", zap.Error(err))
		return false
	}

	h.dismissed = true
	h.logger.Debug("Cookies rejected.")
	events.Info("Cookies rejected")
	return true
}

// Dismissed reports whether the banner was already dismissed.
func (h *ConsentHandler) Dismissed() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.dismissed
}
