// internal/scraper/pagination.go
package scraper

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/Hamza-bouzid/pagine-bianche/internal/browser/dom"
)

// PaginationHandler triggers the "load more" control. Only one extra batch is
// ever requested per run.
type PaginationHandler struct {
	selector string
	settle   time.Duration
	logger   *zap.Logger
}

// NewPaginationHandler creates a handler for the load-more control matched by selector.
func NewPaginationHandler(selector string, settle time.Duration, logger *zap.Logger) *PaginationHandler {
	return &PaginationHandler{selector: selector, settle: settle, logger: logger.Named("pagination")}
}

// Expand clicks the control if it is present and interactable, then waits for
// the new batch to settle. Every failure is non-fatal. It reports whether a
// click happened.
func (p *PaginationHandler) Expand(ctx context.Context, page dom.Scope) bool {
	if p.selector == "" {
		return false
	}
	clicked, err := dom.ClickIfPresentAndReady(ctx, dom.Locate(page, p.selector))
	if err != nil {
		p.logger.Warn("Error loading more results (non-critical).", zap.Error(err))
		return false
	}
	if !clicked {
		p.logger.Debug("No additional results to load.")
		return false
	}

	p.logger.Debug("Requested more results, waiting for them to settle.", zap.Duration("settle", p.settle))
	if p.settle > 0 {
		timer := time.NewTimer(p.settle)
		defer timer.Stop()
		select {
		case <-timer.C:
		case <-ctx.Done():
		}
	}
	return true
}
