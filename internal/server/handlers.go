// File: internal/server/handlers.go
package server

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"go.uber.org/zap"

	"github.com/Hamza-bouzid/pagine-bianche/api/schemas"
)

const maxRequestBody = 1 << 16

// handleHealthCheck confirms the server is responsive.
func (s *Server) handleHealthCheck(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}

// handleScrape runs one extraction and replies with its ScrapeResult. Run
// failures are reported in the body with status 200; only malformed requests
// and concurrent runs are rejected at the HTTP level.
func (s *Server) handleScrape(w http.ResponseWriter, r *http.Request) {
	var q schemas.SearchQuery
	dec := json.NewDecoder(io.LimitReader(r.Body, maxRequestBody))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&q); err != nil {
		s.respondWithError(w, http.StatusBadRequest, fmt.Sprintf("Invalid request body: %v", err))
		return
	}
	if err := q.Validate(); err != nil {
		s.respondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	if !s.runs.TryAcquire(1) {
		s.respondWithError(w, http.StatusConflict, "A scraping run is already in progress.")
		return
	}
	defer s.runs.Release(1)

	s.logger.Info("Scrape requested.", zap.String("query", q.Term), zap.String("location", q.Location))
	result := s.runner.Run(r.Context(), q)
	s.respondWithJSON(w, http.StatusOK, result)
}

// respondWithError sends a failed ScrapeResult with the given status.
func (s *Server) respondWithError(w http.ResponseWriter, statusCode int, message string) {
	s.respondWithJSON(w, statusCode, schemas.ScrapeResult{Success: false, Error: message})
}

func (s *Server) respondWithJSON(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.logger.Error("Failed to encode response.", zap.Error(err))
	}
}
