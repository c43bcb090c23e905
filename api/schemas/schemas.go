package schemas

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Phone sentinels. They distinguish "tried and failed" from a real value.
const (
	// PhoneUnavailable is used when the reveal control was never found,
	// never became interactable, or the revealed element never appeared.
	PhoneUnavailable = "Non disponibile"
	// PhoneEmpty is used when the reveal control was clicked but the
	// revealed element carried no text.
	PhoneEmpty = "N/A"
)

// ErrInvalidQuery is returned when a SearchQuery is missing a term or a location.
var ErrInvalidQuery = errors.New("invalid search query")

// SearchQuery identifies one extraction run: what to look for and where.
type SearchQuery struct {
	Term     string `json:"query"`
	Location string `json:"location"`
}

// Validate checks that both fields are non-empty after trimming.
func (q SearchQuery) Validate() error {
	if strings.TrimSpace(q.Term) == "" {
		return fmt.Errorf("%w: term is required", ErrInvalidQuery)
	}
	if strings.TrimSpace(q.Location) == "" {
		return fmt.Errorf("%w: location is required", ErrInvalidQuery)
	}
	return nil
}

// ContactRecord is a single business listing extracted from a result card.
type ContactRecord struct {
	Name    string `json:"name"`
	Phone   string `json:"phone"`
	Address string `json:"address"`
}

// HasPhone reports whether the phone field carries a revealed value rather than a sentinel.
func (r ContactRecord) HasPhone() bool {
	return r.Phone != "" && r.Phone != PhoneUnavailable && r.Phone != PhoneEmpty
}

// ProgressKind classifies a progress event. It is advisory only.
type ProgressKind string

const (
	ProgressInfo   ProgressKind = "info"
	ProgressRecord ProgressKind = "record"
	ProgressError  ProgressKind = "error"
	ProgressDone   ProgressKind = "done"
)

// ProgressEvent is a one-way, human-readable status notification emitted during a run.
type ProgressEvent struct {
	RunID   string       `json:"run_id,omitempty"`
	Kind    ProgressKind `json:"kind"`
	Message string       `json:"message"`
	Time    time.Time    `json:"timestamp"`
}

// ScrapeResult is the outcome of one run as seen by the caller.
// Success carries the file path; failure carries a human-readable message.
type ScrapeResult struct {
	RunID    string `json:"runId,omitempty"`
	Success  bool   `json:"success"`
	FilePath string `json:"filePath,omitempty"`
	Records  int    `json:"records,omitempty"`
	Error    string `json:"error,omitempty"`
}
