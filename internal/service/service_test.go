// File: internal/service/service_test.go
package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/Hamza-bouzid/pagine-bianche/api/schemas"
	"github.com/Hamza-bouzid/pagine-bianche/internal/progress"
)

// -- Mocks --

type mockExtraction struct {
	mock.Mock
}

func (m *mockExtraction) Run(ctx context.Context, q schemas.SearchQuery, events *progress.Emitter) ([]schemas.ContactRecord, error) {
	args := m.Called(ctx, q, events)
	records, _ := args.Get(0).([]schemas.ContactRecord)
	return records, args.Error(1)
}

type mockExporter struct {
	mock.Mock
}

func (m *mockExporter) Export(q schemas.SearchQuery, records []schemas.ContactRecord) (string, error) {
	args := m.Called(q, records)
	return args.String(0), args.Error(1)
}

// eventSink records progress events.
type eventSink struct {
	mu     sync.Mutex
	events []schemas.ProgressEvent
}

func (s *eventSink) Report(ev schemas.ProgressEvent) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, ev)
}

func (s *eventSink) messages() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, len(s.events))
	for i, ev := range s.events {
		out[i] = ev.Message
	}
	return out
}

var (
	roma     = schemas.SearchQuery{Term: "Pizzeria", Location: "Roma"}
	pizzerie = []schemas.ContactRecord{
		{Name: "Pizzeria Uno", Phone: "333-1234567", Address: "Via Roma 1"},
		{Name: "Pizzeria Due", Phone: schemas.PhoneUnavailable, Address: "Via Roma 2"},
	}
)

func newTestService(t *testing.T, timeout time.Duration) (*Service, *mockExtraction, *mockExporter, *eventSink) {
	t.Helper()
	ext, exp, sink := new(mockExtraction), new(mockExporter), &eventSink{}
	return New(ext, exp, sink, timeout, zaptest.NewLogger(t)), ext, exp, sink
}

// -- Test Cases --

func TestRun_Success(t *testing.T) {
	svc, ext, exp, sink := newTestService(t, time.Minute)
	ext.On("Run", mock.Anything, roma, mock.Anything).Return(pizzerie, nil)
	exp.On("Export", roma, pizzerie).Return("/home/u/Desktop/csv/Pizzeria_Roma_X.csv", nil)

	result := svc.Run(context.Background(), roma)

	assert.True(t, result.Success)
	assert.Equal(t, "/home/u/Desktop/csv/Pizzeria_Roma_X.csv", result.FilePath)
	assert.Equal(t, 2, result.Records)
	assert.Empty(t, result.Error)
	_, err := uuid.Parse(result.RunID)
	assert.NoError(t, err, "runs are identified by a UUID")

	assert.Equal(t, []string{
		"Processo di scraping in corso...",
		"CSV generato: /home/u/Desktop/csv/Pizzeria_Roma_X.csv",
	}, sink.messages())
	for _, ev := range sink.events {
		assert.Equal(t, result.RunID, ev.RunID)
	}
	ext.AssertExpectations(t)
	exp.AssertExpectations(t)
}

func TestRun_NoData(t *testing.T) {
	svc, ext, exp, sink := newTestService(t, time.Minute)
	ext.On("Run", mock.Anything, roma, mock.Anything).Return([]schemas.ContactRecord{}, nil)

	result := svc.Run(context.Background(), roma)

	assert.False(t, result.Success)
	assert.Equal(t, "No data found.", result.Error)
	assert.Empty(t, result.FilePath)
	exp.AssertNotCalled(t, "Export", mock.Anything, mock.Anything)
	assert.Equal(t, []string{"Processo di scraping in corso...", "Errore: No data found."}, sink.messages())
	assert.Equal(t, schemas.ProgressError, sink.events[1].Kind)
}

func TestRun_Failures(t *testing.T) {
	t.Run("extraction error", func(t *testing.T) {
		svc, ext, exp, sink := newTestService(t, time.Minute)
		ext.On("Run", mock.Anything, roma, mock.Anything).Return(nil, errors.New("failed to launch browser: exec: not found"))

		result := svc.Run(context.Background(), roma)

		assert.False(t, result.Success)
		assert.Equal(t, "failed to launch browser: exec: not found", result.Error)
		exp.AssertNotCalled(t, "Export", mock.Anything, mock.Anything)
		assert.Contains(t, sink.messages(), "Errore: failed to launch browser: exec: not found")
	})

	t.Run("export error", func(t *testing.T) {
		svc, ext, exp, _ := newTestService(t, time.Minute)
		ext.On("Run", mock.Anything, roma, mock.Anything).Return(pizzerie, nil)
		exp.On("Export", roma, pizzerie).Return("", errors.New("read-only file system"))

		result := svc.Run(context.Background(), roma)

		assert.False(t, result.Success)
		assert.Contains(t, result.Error, "failed to write table")
		assert.Contains(t, result.Error, "read-only file system")
	})

	t.Run("invalid query", func(t *testing.T) {
		svc, ext, _, sink := newTestService(t, time.Minute)

		result := svc.Run(context.Background(), schemas.SearchQuery{Term: "Pizzeria", Location: " "})

		assert.False(t, result.Success)
		assert.Contains(t, result.Error, "location")
		ext.AssertNotCalled(t, "Run", mock.Anything, mock.Anything, mock.Anything)
		require.Len(t, sink.messages(), 1)
	})

	t.Run("panic is contained", func(t *testing.T) {
		svc, ext, _, sink := newTestService(t, time.Minute)
		ext.On("Run", mock.Anything, roma, mock.Anything).Panic("nil pointer in extractor")

		var result schemas.ScrapeResult
		require.NotPanics(t, func() { result = svc.Run(context.Background(), roma) })

		assert.False(t, result.Success)
		assert.Equal(t, "internal error: nil pointer in extractor", result.Error)
		assert.NotEmpty(t, result.RunID)
		assert.Contains(t, sink.messages(), "Errore: internal error: nil pointer in extractor")
	})

	t.Run("run timeout", func(t *testing.T) {
		svc, ext, _, _ := newTestService(t, 20*time.Millisecond)
		ext.On("Run", mock.Anything, roma, mock.Anything).Return(nil, context.DeadlineExceeded).Run(func(args mock.Arguments) {
			<-args.Get(0).(context.Context).Done()
		})

		start := time.Now()
		result := svc.Run(context.Background(), roma)

		assert.False(t, result.Success)
		assert.Contains(t, result.Error, "deadline exceeded")
		assert.Less(t, time.Since(start), 5*time.Second)
	})
}

func TestUserMessage(t *testing.T) {
	assert.Equal(t, "no data found", ErrNoData.Error(), "sentinel follows Go error string conventions")
	assert.Equal(t, "No data found.", userMessage(ErrNoData))
	assert.Equal(t, "No data found.", userMessage(fmt.Errorf("page 1: %w", ErrNoData)))
	assert.Equal(t, "failed to write table: disk full", userMessage(errors.New("failed to write table: disk full")))
}
