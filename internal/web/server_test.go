package web

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/animelib/catalog/internal/config"
	"github.com/animelib/catalog/internal/core"
)

// fakeService records the calls the handlers make and returns canned results.
type fakeService struct {
	importReport *core.ImportReport
	importErr    error
	previewErr   error
	batch        *core.BatchSummary
	batchErr     error
	storedErrors []core.StoredError
	auditEntries []core.AuditEntry
	pingErr      error

	importCalls  int
	lastKind     string
	lastRecords  core.Candidates
	lastConfig   core.ImportConfig
	lastClient   core.ClientInfo
	lastList     core.BatchListOptions
	lastAudit    core.AuditLogOptions
	lastErrLimit int
	lastErrOff   int
}

func (f *fakeService) ListKinds() []core.KindInfo {
	return []core.KindInfo{{Key: "title", Label: "Titles", NaturalKey: []string{"canonical_title", "type"}}}
}

func (f *fakeService) DefaultConfig() core.ImportConfig {
	return core.DefaultImportConfig()
}

func (f *fakeService) ImportBatch(ctx context.Context, kind string, records core.Candidates, cfg core.ImportConfig) (*core.ImportReport, error) {
	f.importCalls++
	f.lastKind, f.lastRecords, f.lastConfig = kind, records, cfg
	f.lastClient = core.ClientFromContext(ctx)
	if f.importErr != nil {
		return nil, f.importErr
	}
	if f.importReport != nil {
		return f.importReport, nil
	}
	return &core.ImportReport{BatchID: "b-1", Kind: kind, Status: core.ReportSuccess, Total: len(records), Succeeded: len(records)}, nil
}

func (f *fakeService) PreviewBatch(ctx context.Context, kind string, records core.Candidates, cfg core.ImportConfig) (*core.PreviewReport, error) {
	f.lastKind, f.lastRecords, f.lastConfig = kind, records, cfg
	if f.previewErr != nil {
		return nil, f.previewErr
	}
	return &core.PreviewReport{Kind: kind, Config: cfg, Summary: core.PreviewSummary{Total: len(records), Create: len(records)}}, nil
}

func (f *fakeService) ListBatches(ctx context.Context, opts core.BatchListOptions) (*core.BatchList, error) {
	f.lastList = opts
	return &core.BatchList{Batches: []core.BatchSummary{}, Limit: opts.Limit, Offset: opts.Offset}, nil
}

func (f *fakeService) GetBatch(ctx context.Context, batchID string) (*core.BatchSummary, error) {
	if f.batchErr != nil {
		return nil, f.batchErr
	}
	return f.batch, nil
}

func (f *fakeService) GetBatchErrors(ctx context.Context, batchID string, limit, offset int) ([]core.StoredError, error) {
	f.lastErrLimit, f.lastErrOff = limit, offset
	return f.storedErrors, nil
}

func (f *fakeService) GetAuditLog(ctx context.Context, opts core.AuditLogOptions) ([]core.AuditEntry, error) {
	f.lastAudit = opts
	return f.auditEntries, nil
}

func (f *fakeService) ImportLimiterStatus() core.ImportLimiterStatus {
	return core.ImportLimiterStatus{Active: 1, Available: 3, MaxConcurrent: 4}
}

func (f *fakeService) Ping(ctx context.Context) error {
	return f.pingErr
}

func testConfig() *config.Config {
	return &config.Config{
		Server: config.ServerConfig{RequestTimeout: 5 * time.Second},
		Import: config.ImportConfig{MaxRecords: 3, MaxBodyBytes: 1024},
		Security: config.SecurityConfig{
			EnableCSP: true,
		},
	}
}

func newTestServer(t *testing.T, svc *fakeService, cfg *config.Config) *Server {
	t.Helper()
	if cfg == nil {
		cfg = testConfig()
	}
	return NewServer(svc, cfg)
}

func do(t *testing.T, s *Server, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.RemoteAddr = "203.0.113.7:41000"
	req.Header.Set("User-Agent", "catalog-test")
	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, req)
	return rec
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) ErrorResponse {
	t.Helper()
	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp), rec.Body.String())
	return resp
}

func TestHealth(t *testing.T) {
	svc := &fakeService{}
	s := newTestServer(t, svc, nil)

	rec := do(t, s, http.MethodGet, "/healthz", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp HealthResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, 4, resp.Imports.MaxConcurrent)

	svc.pingErr = errors.New("connection refused")
	rec = do(t, s, http.MethodGet, "/healthz", "")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestSecurityHeaders(t *testing.T) {
	rec := do(t, newTestServer(t, &fakeService{}, nil), http.MethodGet, "/healthz", "")
	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
	assert.Equal(t, "DENY", rec.Header().Get("X-Frame-Options"))
	assert.NotEmpty(t, rec.Header().Get("Content-Security-Policy"))
}

func TestListKinds(t *testing.T) {
	rec := do(t, newTestServer(t, &fakeService{}, nil), http.MethodGet, "/api/kinds", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"key":"title"`)
	assert.Contains(t, rec.Body.String(), `"on_conflict":"skip"`)
}

func TestImport(t *testing.T) {
	svc := &fakeService{}
	s := newTestServer(t, svc, nil)

	rec := do(t, s, http.MethodPost, "/api/batch-import/title",
		`{"config":{"on_conflict":"update"},"records":[{"canonical_title":"Frieren","type":"anime","status":"released"}]}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	assert.Equal(t, 1, svc.importCalls)
	assert.Equal(t, "title", svc.lastKind)
	assert.Len(t, svc.lastRecords, 1)
	assert.Equal(t, core.OnConflictUpdate, svc.lastConfig.OnConflict)
	assert.True(t, svc.lastConfig.SkipDuplicates, "omitted fields keep defaults")
	assert.Equal(t, core.ClientInfo{IPAddress: "203.0.113.7", UserAgent: "catalog-test"}, svc.lastClient)

	var report core.ImportReport
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &report))
	assert.Equal(t, "b-1", report.BatchID)
	assert.Equal(t, core.ReportSuccess, report.Status)
}

func TestImportErrors(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		serviceErr error
		wantStatus int
		wantCode   string
	}{
		{"malformed body", `{"records":`, nil, http.StatusBadRequest, "IMP006"},
		{"missing records", `{"config":{}}`, nil, http.StatusBadRequest, "IMP006"},
		{"over the record cap", `{"records":[{},{},{},{}]}`, nil, http.StatusRequestEntityTooLarge, "IMP003"},
		{"body too large", `{"records":["` + strings.Repeat("x", 2048) + `"]}`, nil, http.StatusRequestEntityTooLarge, "IMP006"},
		{"unknown kind", `{"records":[]}`, errors.Wrap(core.ErrUnknownKind, "anime_list"), http.StatusNotFound, "IMP002"},
		{"invalid config", `{"records":[]}`, errors.Wrap(core.ErrInvalidConfig, "on_conflict"), http.StatusBadRequest, "IMP001"},
		{"busy", `{"records":[]}`, core.ErrTooManyImports, http.StatusServiceUnavailable, "IMP004"},
		{"unexpected", `{"records":[]}`, errors.New("pool closed"), http.StatusInternalServerError, "ERR000"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &fakeService{importErr: tt.serviceErr}
			rec := do(t, newTestServer(t, svc, nil), http.MethodPost, "/api/batch-import/title", tt.body)

			assert.Equal(t, tt.wantStatus, rec.Code, rec.Body.String())
			assert.Equal(t, tt.wantCode, decodeError(t, rec).Code)
			if tt.serviceErr == nil {
				assert.Zero(t, svc.importCalls, "rejected bodies never reach the service")
			}
		})
	}
}

func TestImportBusySetsRetryAfter(t *testing.T) {
	svc := &fakeService{importErr: core.ErrTooManyImports}
	rec := do(t, newTestServer(t, svc, nil), http.MethodPost, "/api/batch-import/title", `{"records":[]}`)
	assert.Equal(t, "5", rec.Header().Get("Retry-After"))
}

func TestImportErrorCarriesHint(t *testing.T) {
	svc := &fakeService{importErr: errors.WithHint(core.ErrUnknownKind, "importable kinds: genre, studio, title")}
	rec := do(t, newTestServer(t, svc, nil), http.MethodPost, "/api/batch-import/anime", `{"records":[]}`)

	assert.Equal(t, "importable kinds: genre, studio, title", decodeError(t, rec).Hint)
}

func TestPreview(t *testing.T) {
	svc := &fakeService{}
	rec := do(t, newTestServer(t, svc, nil), http.MethodPost, "/api/batch-import/studio/preview",
		`{"records":[{"name":"Madhouse","type":"studio"}]}`)
	require.Equal(t, http.StatusOK, rec.Code)

	assert.Equal(t, "studio", svc.lastKind)
	assert.Zero(t, svc.importCalls)

	var report core.PreviewReport
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &report))
	assert.Equal(t, 1, report.Summary.Create)
}

func TestLegacyTitles(t *testing.T) {
	svc := &fakeService{importReport: &core.ImportReport{
		BatchID:   "b-7",
		Status:    core.ReportPartialSuccess,
		Total:     3,
		Succeeded: 1,
		Skipped:   1,
		Failed:    1,
	}}
	rec := do(t, newTestServer(t, svc, nil), http.MethodPost, "/batch/titles", `[{},{},{}]`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	assert.Equal(t, legacyTitlesKind, svc.lastKind)
	assert.Equal(t, core.DefaultImportConfig(), svc.lastConfig)

	var resp LegacyImportResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, LegacyImportResponse{
		Status:   core.ReportPartialSuccess,
		Message:  "Inserted 1 titles, skipped 2 (duplicates/errors)",
		Inserted: 1,
		Skipped:  2,
		BatchID:  "b-7",
	}, resp)
}

func TestLegacyTitlesRejectsObject(t *testing.T) {
	svc := &fakeService{}
	rec := do(t, newTestServer(t, svc, nil), http.MethodPost, "/batch/titles", `{"records":[]}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Zero(t, svc.importCalls)
}

func TestImportRoutesRequireAPIKey(t *testing.T) {
	cfg := testConfig()
	cfg.Security.RequireAPIKey = true
	cfg.Security.APIKeys = []string{"secret"}
	svc := &fakeService{}
	s := newTestServer(t, svc, cfg)

	rec := do(t, s, http.MethodPost, "/api/batch-import/title", `{"records":[]}`)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Zero(t, svc.importCalls)

	req := httptest.NewRequest(http.MethodPost, "/api/batch-import/title", strings.NewReader(`{"records":[]}`))
	req.Header.Set("X-API-Key", "secret")
	rec = httptest.NewRecorder()
	s.Router().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)

	// Reads stay open.
	rec = do(t, s, http.MethodGet, "/api/kinds", "")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestListBatchesParams(t *testing.T) {
	svc := &fakeService{}
	s := newTestServer(t, svc, nil)

	rec := do(t, s, http.MethodGet, "/api/batches?kind=genre&limit=5&offset=10", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, core.BatchListOptions{Kind: "genre", Limit: 5, Offset: 10}, svc.lastList)

	do(t, s, http.MethodGet, "/api/batches?limit=zero&offset=-3", "")
	assert.Equal(t, core.BatchListOptions{Limit: core.DefaultHistoryLimit}, svc.lastList)
}

func TestGetBatch(t *testing.T) {
	svc := &fakeService{batch: &core.BatchSummary{ID: "b-1", Kind: "title", Status: core.BatchCompleted, Total: 2, Succeeded: 2}}
	s := newTestServer(t, svc, nil)

	rec := do(t, s, http.MethodGet, "/api/batches/b-1", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"completed"`)

	svc.batchErr = core.ErrBatchNotFound
	rec = do(t, s, http.MethodGet, "/api/batches/missing", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "IMP005", decodeError(t, rec).Code)
}

func TestBatchErrors(t *testing.T) {
	svc := &fakeService{
		batch: &core.BatchSummary{ID: "b-1"},
		storedErrors: []core.StoredError{
			{BatchID: "b-1", RecordIndex: 2, Category: core.CategoryIntegrity, Message: "duplicate key value"},
		},
	}
	s := newTestServer(t, svc, nil)

	rec := do(t, s, http.MethodGet, "/api/batches/b-1/errors?limit=10", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 10, svc.lastErrLimit)
	assert.Contains(t, rec.Body.String(), `"record_index":2`)

	svc.batchErr = core.ErrBatchNotFound
	rec = do(t, s, http.MethodGet, "/api/batches/nope/errors", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestAuditLog(t *testing.T) {
	svc := &fakeService{auditEntries: []core.AuditEntry{{ID: 1, Action: core.ActionCatalogCreate, EntityType: "title"}}}
	s := newTestServer(t, svc, nil)

	rec := do(t, s, http.MethodGet, "/api/audit-log?entity_type=title&limit=100000", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "title", svc.lastAudit.EntityType)
	assert.Equal(t, maxAuditPage, svc.lastAudit.Limit)
	assert.Contains(t, rec.Body.String(), `"action":"catalog_create"`)
}

func TestBatchPage(t *testing.T) {
	done := time.Date(2026, 3, 1, 12, 0, 2, 0, time.UTC)
	svc := &fakeService{
		batch: &core.BatchSummary{
			ID:          "b-1",
			Kind:        "studio",
			Status:      core.BatchPartialSuccess,
			Total:       2,
			Succeeded:   1,
			Failed:      1,
			StartedAt:   done.Add(-2 * time.Second),
			CompletedAt: &done,
		},
		storedErrors: []core.StoredError{
			{RecordIndex: 1, Category: core.CategoryIntegrity, Message: `<script>alert("x")</script>`, RawRecord: json.RawMessage(`{"name":"<b>"}`)},
		},
	}

	rec := do(t, newTestServer(t, svc, nil), http.MethodGet, "/batches/b-1", "")
	require.Equal(t, http.StatusOK, rec.Code)

	body := rec.Body.String()
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/html")
	assert.Contains(t, body, "partial_success")
	assert.Contains(t, body, "2s")
	assert.NotContains(t, body, "<script>")
	assert.Contains(t, body, "&lt;script&gt;")
}

func TestBatchPageNotFoundRendersHTML(t *testing.T) {
	svc := &fakeService{batchErr: core.ErrBatchNotFound}
	rec := do(t, newTestServer(t, svc, nil), http.MethodGet, "/batches/nope", "")

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/html")
	assert.Contains(t, rec.Body.String(), "IMP005")
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{core.ErrInvalidConfig, http.StatusBadRequest},
		{errors.Wrap(core.ErrMalformedRequest, "decode"), http.StatusBadRequest},
		{core.ErrTooManyRecords, http.StatusRequestEntityTooLarge},
		{errors.Wrap(&http.MaxBytesError{Limit: 10}, "read body"), http.StatusRequestEntityTooLarge},
		{core.ErrUnknownKind, http.StatusNotFound},
		{core.ErrBatchNotFound, http.StatusNotFound},
		{core.ErrTooManyImports, http.StatusServiceUnavailable},
		{context.DeadlineExceeded, http.StatusGatewayTimeout},
		{errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, statusFor(tt.err), "%v", tt.err)
	}
}
