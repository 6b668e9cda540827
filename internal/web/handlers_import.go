package web

import (
	"fmt"
	"net/http"

	"github.com/animelib/catalog/internal/core"
	"github.com/animelib/catalog/internal/logging"
	"github.com/go-chi/chi/v5"
)

// legacyTitlesKind is the only kind the /batch/titles endpoint accepts.
const legacyTitlesKind = "title"

// LegacyImportResponse is the body returned by POST /batch/titles.
type LegacyImportResponse struct {
	Status   core.ReportStatus `json:"status"`
	Message  string            `json:"message"`
	Inserted int               `json:"inserted"`
	Skipped  int               `json:"skipped"`
	BatchID  string            `json:"batch_id"`
}

// decodeImportRequest reads {"config", "records"} from a size-limited body.
func (s *Server) decodeImportRequest(w http.ResponseWriter, r *http.Request) (*core.ImportRequest, error) {
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.Import.MaxBodyBytes)
	return core.DecodeImportRequest(r.Body, s.service.DefaultConfig(), s.cfg.Import.MaxRecords)
}

// handleImport runs one batch and returns its report.
//
// The response is sent only after every record has been processed, so a
// 200 means the report is final. Per-record failures are reported inside
// the body, never as an HTTP error.
func (s *Server) handleImport(w http.ResponseWriter, r *http.Request) {
	kind := chi.URLParam(r, "kind")

	req, err := s.decodeImportRequest(w, r)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	ctx := WithRequestMetadata(r.Context(), r)
	report, err := s.service.ImportBatch(ctx, kind, req.Records, req.Config)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	logging.FromContext(ctx).Info("batch import served",
		"kind", kind,
		"batch_id", report.BatchID,
		"status", report.Status,
	)
	writeJSON(w, report)
}

// handlePreview predicts what an import would do without writing.
func (s *Server) handlePreview(w http.ResponseWriter, r *http.Request) {
	kind := chi.URLParam(r, "kind")

	req, err := s.decodeImportRequest(w, r)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	report, err := s.service.PreviewBatch(r.Context(), kind, req.Records, req.Config)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, report)
}

// handleLegacyTitles accepts a bare array of titles and imports it with the
// default configuration. Failed records are counted as skipped, as the
// endpoint always did.
func (s *Server) handleLegacyTitles(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.Import.MaxBodyBytes)
	records, err := core.DecodeCandidates(r.Body, s.cfg.Import.MaxRecords)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	ctx := WithRequestMetadata(r.Context(), r)
	report, err := s.service.ImportBatch(ctx, legacyTitlesKind, records, s.service.DefaultConfig())
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	skipped := report.Skipped + report.Failed
	writeJSON(w, LegacyImportResponse{
		Status:   report.Status,
		Message:  fmt.Sprintf("Inserted %d titles, skipped %d (duplicates/errors)", report.Succeeded, skipped),
		Inserted: report.Succeeded,
		Skipped:  skipped,
		BatchID:  report.BatchID,
	})
}
