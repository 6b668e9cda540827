package web

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/animelib/catalog/internal/core"
	"github.com/animelib/catalog/internal/logging"
	"github.com/go-chi/chi/v5"
)

const maxAuditPage = 500

// HealthResponse is the body of GET /healthz.
type HealthResponse struct {
	Status   string                   `json:"status"`
	Database string                   `json:"database"`
	Imports  core.ImportLimiterStatus `json:"imports"`
}

// parseIntParam parses a positive integer query parameter with a default value.
func parseIntParam(r *http.Request, name string, defaultVal int) int {
	val := r.URL.Query().Get(name)
	if val == "" {
		return defaultVal
	}
	i, err := strconv.Atoi(val)
	if err != nil || i < 1 {
		return defaultVal
	}
	return i
}

// parseOffset parses the offset query parameter; anything but a
// non-negative integer means zero.
func parseOffset(r *http.Request) int {
	i, err := strconv.Atoi(r.URL.Query().Get("offset"))
	if err != nil || i < 0 {
		return 0
	}
	return i
}

// handleHealth reports database reachability and import slot usage.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	resp := HealthResponse{
		Status:   "ok",
		Database: "ok",
		Imports:  s.service.ImportLimiterStatus(),
	}
	status := http.StatusOK
	if err := s.service.Ping(ctx); err != nil {
		resp.Status = "unavailable"
		resp.Database = err.Error()
		status = http.StatusServiceUnavailable
	}
	writeJSONStatus(w, status, resp)
}

// handleListKinds returns the importable kinds and their fields.
func (s *Server) handleListKinds(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, map[string]any{
		"kinds":          s.service.ListKinds(),
		"default_config": s.service.DefaultConfig(),
	})
}

// handleListBatches returns one page of batch history, newest first.
func (s *Server) handleListBatches(w http.ResponseWriter, r *http.Request) {
	list, err := s.service.ListBatches(r.Context(), core.BatchListOptions{
		Kind:   r.URL.Query().Get("kind"),
		Limit:  parseIntParam(r, "limit", core.DefaultHistoryLimit),
		Offset: parseOffset(r),
	})
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, list)
}

// handleGetBatch returns the ledger row of one batch.
func (s *Server) handleGetBatch(w http.ResponseWriter, r *http.Request) {
	batch, err := s.service.GetBatch(r.Context(), chi.URLParam(r, "batchID"))
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, batch)
}

// handleBatchErrors returns the error sink entries of one batch in record order.
func (s *Server) handleBatchErrors(w http.ResponseWriter, r *http.Request) {
	batchID := chi.URLParam(r, "batchID")

	// Resolve the batch first so an unknown id is a 404, not an empty list.
	if _, err := s.service.GetBatch(r.Context(), batchID); err != nil {
		s.respondError(w, r, err)
		return
	}

	entries, err := s.service.GetBatchErrors(r.Context(), batchID,
		parseIntParam(r, "limit", core.MaxErrorPage), parseOffset(r))
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, map[string]any{
		"batch_id": batchID,
		"errors":   entries,
	})
}

// handleAuditLog returns audit entries filtered by entity type or batch.
func (s *Server) handleAuditLog(w http.ResponseWriter, r *http.Request) {
	limit := parseIntParam(r, "limit", core.DefaultAuditLimit)
	if limit > maxAuditPage {
		limit = maxAuditPage
	}

	entries, err := s.service.GetAuditLog(r.Context(), core.AuditLogOptions{
		EntityType: r.URL.Query().Get("entity_type"),
		BatchID:    r.URL.Query().Get("batch_id"),
		Limit:      limit,
		Offset:     parseOffset(r),
	})
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, map[string]any{
		"entries": entries,
		"limit":   limit,
		"offset":  parseOffset(r),
	})
}

// handleBatchPage renders the HTML report of one batch with its first page
// of errors.
func (s *Server) handleBatchPage(w http.ResponseWriter, r *http.Request) {
	batchID := chi.URLParam(r, "batchID")

	batch, err := s.service.GetBatch(r.Context(), batchID)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	entries, err := s.service.GetBatchErrors(r.Context(), batchID, batchPageErrors, 0)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := batchPage(*batch, entries).Render(r.Context(), w); err != nil {
		logging.FromContext(r.Context()).Error("render batch page", "batch_id", batchID, "error", err)
	}
}
