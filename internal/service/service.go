// File: internal/service/service.go
package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Hamza-bouzid/pagine-bianche/api/schemas"
	"github.com/Hamza-bouzid/pagine-bianche/internal/progress"
)

// ErrNoData is the failure reported when a run extracts nothing. No table is written.
var ErrNoData = errors.New("no data found")

// noDataMessage is what callers are shown for ErrNoData.
const noDataMessage = "No data found."

// userMessage renders err for the result and the progress channel.
func userMessage(err error) string {
	if errors.Is(err, ErrNoData) {
		return noDataMessage
	}
	return err.Error()
}

// Extraction produces the contact records for a query.
type Extraction interface {
	Run(ctx context.Context, q schemas.SearchQuery, events *progress.Emitter) ([]schemas.ContactRecord, error)
}

// Exporter persists records and returns where they were written.
type Exporter interface {
	Export(q schemas.SearchQuery, records []schemas.ContactRecord) (string, error)
}

// Service is the outer contract used by every caller (CLI or HTTP): one query
// in, one ScrapeResult out. It never returns an error or panics; every failure
// is folded into the result and announced on the progress channel.
type Service struct {
	extraction Extraction
	exporter   Exporter
	reporter   progress.Reporter
	runTimeout time.Duration
	logger     *zap.Logger
}

// New assembles a service. A zero runTimeout means no limit beyond the caller's context.
func New(extraction Extraction, exporter Exporter, reporter progress.Reporter, runTimeout time.Duration, logger *zap.Logger) *Service {
	if reporter == nil {
		reporter = progress.Nop
	}
	return &Service{
		extraction: extraction,
		exporter:   exporter,
		reporter:   reporter,
		runTimeout: runTimeout,
		logger:     logger.Named("service"),
	}
}

// Run performs a complete scraping run and writes the table.
func (s *Service) Run(ctx context.Context, q schemas.SearchQuery) (result schemas.ScrapeResult) {
	runID := uuid.New().String()
	events := progress.NewEmitter(runID, s.reporter)
	logger := s.logger.With(
		zap.String("run_id", runID),
		zap.String("query", q.Term),
		zap.String("location", q.Location),
	)

	fail := func(err error) schemas.ScrapeResult {
		logger.Error("Scraping run failed.", zap.Error(err))
		msg := userMessage(err)
		events.Errorf("Errore: %s", msg)
		return schemas.ScrapeResult{RunID: runID, Success: false, Error: msg}
	}

	defer func() {
		if r := recover(); r != nil {
			logger.Error("Panic recovered during scraping run.", zap.Any("panic_value", r), zap.Stack("stack"))
			result = fail(fmt.Errorf("internal error: %v", r))
		}
	}()

	// 1. Reject bad input before any browser is started.
	if err := q.Validate(); err != nil {
		return fail(err)
	}

	runCtx := ctx
	if s.runTimeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, s.runTimeout)
		defer cancel()
	}

	// 2. Extract.
	logger.Info("Scraping run started.")
	events.Info("Processo di scraping in corso...")
	records, err := s.extraction.Run(runCtx, q, events)
	if err != nil {
		return fail(err)
	}
	if len(records) == 0 {
		return fail(ErrNoData)
	}

	// 3. Export.
	path, err := s.exporter.Export(q, records)
	if err != nil {
		return fail(fmt.Errorf("failed to write table: %w", err))
	}

	logger.Info("Scraping run completed.", zap.String("path", path), zap.Int("records", len(records)))
	events.Donef("CSV generato: %s", path)
	return schemas.ScrapeResult{RunID: runID, Success: true, FilePath: path, Records: len(records)}
}
