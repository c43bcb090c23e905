// File: internal/server/server.go
//
// Package server exposes the scraping service to UI callers over HTTP: a
// request/reply endpoint that runs one extraction, and a WebSocket that streams
// progress events.
package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"

	"github.com/Hamza-bouzid/pagine-bianche/api/schemas"
	"github.com/Hamza-bouzid/pagine-bianche/internal/config"
	"github.com/Hamza-bouzid/pagine-bianche/internal/progress"
)

const readHeaderTimeout = 10 * time.Second

// Runner performs one scraping run. *service.Service satisfies it.
type Runner interface {
	Run(ctx context.Context, q schemas.SearchQuery) schemas.ScrapeResult
}

// Server hosts the HTTP API.
type Server struct {
	cfg    config.ServerConfig
	runner Runner
	hub    *progress.Hub
	logger *zap.Logger

	// Only one run at a time; each run drives its own browser.
	runs *semaphore.Weighted

	mu         sync.Mutex
	addr       string
	httpServer *http.Server
}

// NewServer creates a server. Events reported to hub are streamed to WebSocket clients.
func NewServer(cfg config.ServerConfig, runner Runner, hub *progress.Hub, logger *zap.Logger) *Server {
	return &Server{
		cfg:    cfg,
		runner: runner,
		hub:    hub,
		logger: logger.Named("server"),
		runs:   semaphore.NewWeighted(1),
	}
}

// Router builds the route table.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(corsMiddleware)

	// WebSocket routes stay outside the request logger, which does not support hijacking well.
	r.Get("/api/v1/progress", s.handleProgress)

	r.Group(func(r chi.Router) {
		r.Use(middleware.Logger)
		r.Get("/healthz", s.handleHealthCheck)
		r.Post("/api/v1/scrape", s.handleScrape)
	})
	return r
}

// Addr returns the bound listen address once Start has begun serving.
func (s *Server) Addr() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.addr
}

// Start serves until ctx is canceled, then shuts down gracefully. Runs in
// flight are canceled with ctx.
func (s *Server) Start(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.cfg.Addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.cfg.Addr, err)
	}

	httpServer := &http.Server{
		Handler:           s.Router(),
		ReadHeaderTimeout: readHeaderTimeout,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}
	s.mu.Lock()
	s.addr = ln.Addr().String()
	s.httpServer = httpServer
	s.mu.Unlock()

	s.logger.Info("Server starting.", zap.String("address", ln.Addr().String()))

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := httpServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server failed: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		s.logger.Info("Shutting down server gracefully...")

		// Closing the hub ends every progress stream.
		s.hub.Close()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("http server shutdown error: %w", err)
		}
		return nil
	})

	err = g.Wait()
	s.logger.Info("Server stopped.")
	return err
}

// corsMiddleware allows a locally served UI on another origin to call the API.
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "POST, GET, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}
