// internal/scraper/extractor.go
package scraper

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/Hamza-bouzid/pagine-bianche/api/schemas"
	"github.com/Hamza-bouzid/pagine-bianche/internal/browser/dom"
	"github.com/Hamza-bouzid/pagine-bianche/internal/config"
	"github.com/Hamza-bouzid/pagine-bianche/internal/progress"
)

// Extractor turns a single result card into a ContactRecord.
// Name and address are mandatory. The phone number degrades to a sentinel
// value when it cannot be revealed.
type Extractor struct {
	selectors     config.SelectorConfig
	revealTimeout time.Duration
	poll          time.Duration
	logger        *zap.Logger
}

// NewExtractor creates an extractor driven by the scraper selectors and timings.
func NewExtractor(cfg config.ScraperConfig, logger *zap.Logger) *Extractor {
	return &Extractor{
		selectors:     cfg.Selectors,
		revealTimeout: cfg.RevealTimeout,
		poll:          cfg.PollInterval,
		logger:        logger.Named("extractor"),
	}
}

// Extract reads the card. An error means the card must be skipped.
func (x *Extractor) Extract(ctx context.Context, card dom.Element, events *progress.Emitter) (schemas.ContactRecord, error) {
	name, err := dom.ReadText(ctx, card, x.selectors.Name)
	if err != nil {
		return schemas.ContactRecord{}, fmt.Errorf("failed to read name: %w", err)
	}
	address, err := dom.ReadText(ctx, card, x.selectors.Address)
	if err != nil {
		return schemas.ContactRecord{}, fmt.Errorf("failed to read address of '%s': %w", name, err)
	}

	record := schemas.ContactRecord{
		Name:    name,
		Phone:   x.revealPhone(ctx, card),
		Address: address,
	}
	events.Recordf("Found contact: %s", record.Name)
	return record, nil
}

// revealPhone clicks the card's reveal control and reads the number it uncovers.
// It never fails: a missing control, a failed click, or a number that does not
// appear all yield PhoneUnavailable, and a revealed but blank number yields PhoneEmpty.
func (x *Extractor) revealPhone(ctx context.Context, card dom.Element) string {
	if x.selectors.PhoneReveal == "" || x.selectors.Phone == "" {
		return schemas.PhoneUnavailable
	}

	// 1. The reveal control must become interactable within the budget.
	btn, err := dom.AwaitVisible(ctx, dom.Locate(card, x.selectors.PhoneReveal).WithPollInterval(x.poll), x.revealTimeout)
	if err != nil {
		x.logger.Debug("Phone reveal control not available.", zap.Error(err))
		return schemas.PhoneUnavailable
	}
	if err := btn.Click(ctx); err != nil {
		x.logger.Debug("Failed to click phone reveal control.", zap.Error(err))
		return schemas.PhoneUnavailable
	}

	// 2. Read the number the click uncovered.
	tel, err := dom.AwaitPresent(ctx, dom.Locate(card, x.selectors.Phone).WithPollInterval(x.poll), x.revealTimeout)
	if err != nil {
		x.logger.Debug("Phone number did not appear after reveal.", zap.Error(err))
		return schemas.PhoneUnavailable
	}
	text, err := tel.Text(ctx)
	if err != nil {
		x.logger.Debug("Failed to read phone number.", zap.Error(err))
		return schemas.PhoneUnavailable
	}
	if text = strings.TrimSpace(text); text == "" {
		return schemas.PhoneEmpty
	}
	return text
}
