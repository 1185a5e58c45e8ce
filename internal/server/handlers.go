package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/holiuunc/etf-justification-engine/internal/storage"
)

// handleHealth reports service and storage health.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if err := s.health.HealthCheck(r.Context()); err != nil {
		s.writeJSON(w, http.StatusServiceUnavailable, map[string]interface{}{
			"status": "unhealthy",
			"error":  err.Error(),
		})
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":  "healthy",
		"service": "etf-justification-engine",
	})
}

// handleTriggerRun starts a background analysis run. Only one run may be
// in flight at a time.
func (s *Server) handleTriggerRun(w http.ResponseWriter, r *http.Request) {
	s.state.mu.Lock()
	if s.state.running {
		s.state.mu.Unlock()
		s.writeError(w, http.StatusConflict, "analysis already running")
		return
	}
	s.state.running = true
	s.state.startedAt = time.Now().UTC()
	s.state.lastError = ""
	s.state.mu.Unlock()

	go s.runAnalysis()

	s.writeJSON(w, http.StatusAccepted, map[string]string{
		"status":  "started",
		"message": "analysis running in background, poll /api/analysis/status",
	})
}

// runAnalysis executes one run and records the outcome in the run state.
func (s *Server) runAnalysis() {
	ctx, cancel := context.WithTimeout(context.Background(), runTimeout)
	defer cancel()

	result, err := s.runner.Run(ctx)

	s.state.mu.Lock()
	defer s.state.mu.Unlock()
	s.state.running = false
	s.state.finishedAt = time.Now().UTC()
	if err != nil {
		s.state.lastError = err.Error()
		s.log.Error().Err(err).Msg("Triggered analysis run failed")
		return
	}
	s.state.lastRunID = result.ID
	s.log.Info().Str("run_id", result.ID).Msg("Triggered analysis run complete")
}

// handleRunStatus reports whether a run is in flight and how the last
// triggered run ended.
func (s *Server) handleRunStatus(w http.ResponseWriter, r *http.Request) {
	s.state.mu.Lock()
	defer s.state.mu.Unlock()

	resp := map[string]interface{}{
		"running": s.state.running,
	}
	if !s.state.startedAt.IsZero() {
		resp["started_at"] = s.state.startedAt
	}
	if !s.state.finishedAt.IsZero() {
		resp["finished_at"] = s.state.finishedAt
	}
	if s.state.lastRunID != "" {
		resp["last_run_id"] = s.state.lastRunID
	}
	if s.state.lastError != "" {
		resp["last_error"] = s.state.lastError
	}
	s.writeJSON(w, http.StatusOK, resp)
}

// handleLatestRun returns the most recent persisted run.
func (s *Server) handleLatestRun(w http.ResponseWriter, r *http.Request) {
	run, err := s.store.LatestRun()
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if run == nil {
		s.writeError(w, http.StatusNotFound, "no analysis runs found")
		return
	}
	s.writeJSON(w, http.StatusOK, run)
}

// handleRunByID returns one run by its identifier.
func (s *Server) handleRunByID(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	run, err := s.store.RunByID(id)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if run == nil {
		s.writeError(w, http.StatusNotFound, "run not found")
		return
	}
	s.writeJSON(w, http.StatusOK, run)
}

// handlePortfolio returns the latest portfolio snapshot.
func (s *Server) handlePortfolio(w http.ResponseWriter, r *http.Request) {
	snap, err := s.store.LatestSnapshot()
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if snap == nil {
		s.writeError(w, http.StatusNotFound, "no portfolio snapshot found")
		return
	}
	s.writeJSON(w, http.StatusOK, snap)
}

// handleTransactions returns the most recent journal entries.
func (s *Server) handleTransactions(w http.ResponseWriter, r *http.Request) {
	limit := 50
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			s.writeError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = parsed
	}

	txs, err := s.store.Transactions(limit)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]interface{}{
		"transactions": txs,
		"count":        len(txs),
	})
}

// executeRequest selects one recommendation out of a persisted run.
type executeRequest struct {
	RunID  string `json:"run_id"`
	Symbol string `json:"symbol"`
}

// handleExecute applies one trade recommendation from a run to the
// portfolio and journals the resulting transaction.
func (s *Server) handleExecute(w http.ResponseWriter, r *http.Request) {
	var req executeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.RunID == "" || req.Symbol == "" {
		s.writeError(w, http.StatusBadRequest, "run_id and symbol are required")
		return
	}

	run, err := s.store.RunByID(req.RunID)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if run == nil {
		s.writeError(w, http.StatusNotFound, "run not found")
		return
	}

	for _, rec := range run.Recommendations {
		if rec.Symbol != req.Symbol {
			continue
		}
		if !rec.Action.IsTrade() {
			s.writeError(w, http.StatusUnprocessableEntity, "recommendation is not a trade")
			return
		}
		tx, err := s.store.ApplyRecommendation(rec)
		if err != nil {
			if errors.Is(err, storage.ErrNoSnapshot) {
				s.writeError(w, http.StatusConflict, err.Error())
				return
			}
			s.writeError(w, http.StatusUnprocessableEntity, err.Error())
			return
		}
		s.log.Info().
			Str("symbol", tx.Symbol).
			Str("action", string(tx.Action)).
			Msg("Applied recommendation")
		s.writeJSON(w, http.StatusOK, tx)
		return
	}
	s.writeError(w, http.StatusNotFound, "no recommendation for symbol in run")
}

// writeJSON writes a JSON response.
func (s *Server) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.log.Error().Err(err).Msg("Failed to encode JSON response")
	}
}

// writeError writes an error response.
func (s *Server) writeError(w http.ResponseWriter, status int, message string) {
	s.writeJSON(w, status, map[string]string{
		"error": message,
	})
}
