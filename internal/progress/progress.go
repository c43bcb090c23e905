// internal/progress/progress.go
//
// Package progress carries human readable status events from a scraping run to
// whoever is watching: a terminal, a log, or connected UI clients. Delivery is
// best effort and never blocks the run.
package progress

import (
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/Hamza-bouzid/pagine-bianche/api/schemas"
)

// Reporter receives progress events. Implementations must not block.
type Reporter interface {
	Report(ev schemas.ProgressEvent)
}

// Func adapts an ordinary function to a Reporter.
type Func func(ev schemas.ProgressEvent)

func (f Func) Report(ev schemas.ProgressEvent) { f(ev) }

// Nop discards every event.
var Nop Reporter = Func(func(schemas.ProgressEvent) {})

type multi []Reporter

func (m multi) Report(ev schemas.ProgressEvent) {
	for _, r := range m {
		r.Report(ev)
	}
}

// Multi fans an event out to every non-nil reporter, in order.
func Multi(reporters ...Reporter) Reporter {
	out := make(multi, 0, len(reporters))
	for _, r := range reporters {
		if r != nil {
			out = append(out, r)
		}
	}
	return out
}

type logReporter struct {
	logger *zap.Logger
}

// Log writes events to a structured logger. Error events are logged at warn
// level since the run itself reports the failure.
func Log(logger *zap.Logger) Reporter {
	return &logReporter{logger: logger.Named("progress")}
}

func (l *logReporter) Report(ev schemas.ProgressEvent) {
	fields := []zap.Field{zap.String("kind", string(ev.Kind))}
	if ev.RunID != "" {
		fields = append(fields, zap.String("run_id", ev.RunID))
	}
	if ev.Kind == schemas.ProgressError {
		l.logger.Warn(ev.Message, fields...)
		return
	}
	l.logger.Info(ev.Message, fields...)
}

// Emitter stamps events with a run ID and timestamp before handing them on.
// A nil *Emitter is valid and discards everything.
type Emitter struct {
	runID    string
	reporter Reporter
	now      func() time.Time
}

// NewEmitter binds a reporter to a run.
func NewEmitter(runID string, reporter Reporter) *Emitter {
	if reporter == nil {
		reporter = Nop
	}
	return &Emitter{runID: runID, reporter: reporter, now: time.Now}
}

// RunID returns the run the emitter is bound to.
func (e *Emitter) RunID() string {
	if e == nil {
		return ""
	}
	return e.runID
}

// Emit delivers a single event. msg is used verbatim.
func (e *Emitter) Emit(kind schemas.ProgressKind, msg string) {
	if e == nil {
		return
	}
	e.reporter.Report(schemas.ProgressEvent{
		RunID:   e.runID,
		Kind:    kind,
		Message: msg,
		Time:    e.now().UTC(),
	})
}

// Emitf formats the message with fmt.Sprintf before delivering it.
func (e *Emitter) Emitf(kind schemas.ProgressKind, format string, args ...interface{}) {
	if e == nil {
		return
	}
	e.Emit(kind, fmt.Sprintf(format, args...))
}

func (e *Emitter) Info(msg string)   { e.Emit(schemas.ProgressInfo, msg) }
func (e *Emitter) Record(msg string) { e.Emit(schemas.ProgressRecord, msg) }
func (e *Emitter) Error(msg string)  { e.Emit(schemas.ProgressError, msg) }
func (e *Emitter) Done(msg string)   { e.Emit(schemas.ProgressDone, msg) }

func (e *Emitter) Infof(format string, args ...interface{}) {
	e.Emitf(schemas.ProgressInfo, format, args...)
}

func (e *Emitter) Recordf(format string, args ...interface{}) {
	e.Emitf(schemas.ProgressRecord, format, args...)
}

func (e *Emitter) Errorf(format string, args ...interface{}) {
	e.Emitf(schemas.ProgressError, format, args...)
}

func (e *Emitter) Donef(format string, args ...interface{}) {
	e.Emitf(schemas.ProgressDone, format, args...)
}
