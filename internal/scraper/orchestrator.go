// internal/scraper/orchestrator.go
package scraper

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/Hamza-bouzid/pagine-bianche/api/schemas"
	"github.com/Hamza-bouzid/pagine-bianche/internal/browser/dom"
	"github.com/Hamza-bouzid/pagine-bianche/internal/config"
	"github.com/Hamza-bouzid/pagine-bianche/internal/progress"
)

const pageCloseTimeout = 10 * time.Second

// Orchestrator runs one complete extraction: open a page, load the results,
// dismiss consent, expand once, and read every card in document order.
type Orchestrator struct {
	opener     dom.PageOpener
	cfg        config.ScraperConfig
	pagination *PaginationHandler
	extractor  *Extractor
	logger     *zap.Logger
}

// NewOrchestrator wires the pipeline stages. The opener decides which backend
// (live browser or static document) the run uses.
func NewOrchestrator(opener dom.PageOpener, cfg config.ScraperConfig, logger *zap.Logger) *Orchestrator {
	logger = logger.Named("scraper")
	return &Orchestrator{
		opener:     opener,
		cfg:        cfg,
		pagination: NewPaginationHandler(cfg.Selectors.LoadMore, cfg.LoadMoreSettle, logger),
		extractor:  NewExtractor(cfg, logger),
		logger:     logger,
	}
}

// scrapeSession is the state of a single run. It is never shared.
type scrapeSession struct {
	url     string
	page    dom.Page
	consent *ConsentHandler
	cards   []dom.Element
	records []schemas.ContactRecord
}

// Run extracts every contact for the query. Cards that cannot be read are
// skipped; only failures that invalidate the whole run are returned. The page
// is always closed before Run returns.
func (o *Orchestrator) Run(ctx context.Context, q schemas.SearchQuery, events *progress.Emitter) ([]schemas.ContactRecord, error) {
	if err := q.Validate(); err != nil {
		return nil, err
	}

	sess := &scrapeSession{
		url:     BuildSearchURL(o.cfg.BaseURL, o.cfg.SearchPath, q),
		consent: NewConsentHandler(o.cfg.Selectors.ConsentReject, o.cfg.ConsentTimeout, o.cfg.PollInterval, o.logger),
	}
	logger := o.logger.With(zap.String("run_id", events.RunID()), zap.String("url", sess.url))

	// 1. Acquire the page, scoped to this call.
	page, err := o.opener.Open(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to open browser page: %w", err)
	}
	sess.page = page
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), pageCloseTimeout)
		defer cancel()
		if err := sess.page.Close(closeCtx); err != nil {
			logger.Warn("Failed to close page.", zap.Error(err))
		}
	}()

	// 2. Load the results.
	logger.Info("Loading search results.")
	if err := sess.page.Navigate(ctx, sess.url); err != nil {
		return nil, fmt.Errorf("failed to load search results: %w", err)
	}

	// 3. Clear the banner, then ask for one more batch.
	sess.consent.Dismiss(ctx, sess.page, events)
	o.pagination.Expand(ctx, sess.page)

	// 4. Snapshot the cards.
	sess.cards, err = sess.page.FindAll(ctx, o.cfg.Selectors.Card)
	if err != nil {
		return nil, fmt.Errorf("failed to enumerate result cards: %w", err)
	}
	logger.Info("Result cards found.", zap.Int("count", len(sess.cards)))

	// 5. Cards are processed sequentially, in document order.
	for i, card := range sess.cards {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("extraction interrupted after %d of %d cards: %w", i, len(sess.cards), err)
		}
		record, err := o.extractor.Extract(ctx, card, events)
		if err != nil {
			logger.Warn("Skipping result card.", zap.Int("index", i), zap.Error(err))
			continue
		}
		sess.records = append(sess.records, record)
	}
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("extraction interrupted: %w", err)
	}

	logger.Info("Extraction complete.",
		zap.Int("cards", len(sess.cards)),
		zap.Int("records", len(sess.records)),
	)
	return sess.records, nil
}
