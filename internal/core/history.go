package core

import (
	"context"
	"encoding/json"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/jackc/pgx/v5"

	"github.com/animelib/catalog/internal/database"
)

const (
	DefaultHistoryLimit = 20
	MaxHistoryLimit     = 200
)

// BatchSummary is a ledger row as shown to operators.
type BatchSummary struct {
	ID          string       `json:"id"`
	Kind        string       `json:"kind"`
	Status      BatchStatus  `json:"status"`
	Total       int          `json:"total"`
	Succeeded   int          `json:"succeeded"`
	Skipped     int          `json:"skipped"`
	Failed      int          `json:"failed"`
	Config      ImportConfig `json:"config"`
	StartedAt   time.Time    `json:"started_at"`
	CompletedAt *time.Time   `json:"completed_at,omitempty"`
}

// Finished reports whether the batch reached a terminal status.
func (b BatchSummary) Finished() bool {
	return b.Status.IsTerminal()
}

// Duration returns how long the batch ran, or zero if it is unfinished.
func (b BatchSummary) Duration() time.Duration {
	if b.CompletedAt == nil {
		return 0
	}
	return b.CompletedAt.Sub(b.StartedAt)
}

// BatchListOptions filters and pages the batch history.
type BatchListOptions struct {
	Kind   string
	Limit  int
	Offset int
}

// BatchList is one page of batch history.
type BatchList struct {
	Batches []BatchSummary `json:"batches"`
	Total   int64          `json:"total"`
	Limit   int            `json:"limit"`
	Offset  int            `json:"offset"`
}

// StoredError is one row of the error sink.
type StoredError struct {
	ID          int64           `json:"id"`
	BatchID     string          `json:"batch_id"`
	Kind        string          `json:"kind"`
	RecordIndex int             `json:"record_index"`
	RawRecord   json.RawMessage `json:"raw_record"`
	Category    ErrorCategory   `json:"error_category"`
	Message     string          `json:"message"`
	CreatedAt   time.Time       `json:"created_at"`
}

func clampLimit(limit, def, max int) int {
	if limit <= 0 {
		return def
	}
	if limit > max {
		return max
	}
	return limit
}

// ListBatches returns batches newest first, optionally for one kind.
func (s *Service) ListBatches(ctx context.Context, opts BatchListOptions) (*BatchList, error) {
	return listBatches(ctx, s.pool, opts)
}

// GetBatch returns one batch by id.
func (s *Service) GetBatch(ctx context.Context, batchID string) (*BatchSummary, error) {
	return getBatch(ctx, s.pool, batchID)
}

// GetBatchErrors returns the sink entries for a batch in record order.
func (s *Service) GetBatchErrors(ctx context.Context, batchID string, limit, offset int) ([]StoredError, error) {
	return getBatchErrors(ctx, s.pool, batchID, limit, offset)
}

func listBatches(ctx context.Context, db database.DBTX, opts BatchListOptions) (*BatchList, error) {
	opts.Limit = clampLimit(opts.Limit, DefaultHistoryLimit, MaxHistoryLimit)
	if opts.Offset < 0 {
		opts.Offset = 0
	}

	q := database.New(db)
	rows, err := q.ListImportBatches(ctx, database.ListImportBatchesParams{
		Kind:   opts.Kind,
		Limit:  int32(opts.Limit),
		Offset: int32(opts.Offset),
	})
	if err != nil {
		return nil, errors.Wrap(err, "list import batches")
	}
	total, err := q.CountImportBatches(ctx, opts.Kind)
	if err != nil {
		return nil, errors.Wrap(err, "count import batches")
	}

	list := &BatchList{
		Batches: make([]BatchSummary, 0, len(rows)),
		Total:   total,
		Limit:   opts.Limit,
		Offset:  opts.Offset,
	}
	for _, row := range rows {
		list.Batches = append(list.Batches, batchRowToSummary(row))
	}
	return list, nil
}

func getBatch(ctx context.Context, db database.DBTX, batchID string) (*BatchSummary, error) {
	id := ToPgUUID(batchID)
	if !id.Valid {
		return nil, errors.Wrapf(ErrBatchNotFound, "batch %q", batchID)
	}

	row, err := database.New(db).GetImportBatch(ctx, id)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, errors.Wrapf(ErrBatchNotFound, "batch %s", batchID)
	}
	if err != nil {
		return nil, errors.Wrap(err, "get import batch")
	}
	summary := batchRowToSummary(row)
	return &summary, nil
}

func getBatchErrors(ctx context.Context, db database.DBTX, batchID string, limit, offset int) ([]StoredError, error) {
	id := ToPgUUID(batchID)
	if !id.Valid {
		return nil, errors.Wrapf(ErrBatchNotFound, "batch %q", batchID)
	}
	if offset < 0 {
		offset = 0
	}

	rows, err := database.New(db).ListImportErrorsByBatch(ctx, database.ListImportErrorsByBatchParams{
		BatchID: id,
		Limit:   int32(clampLimit(limit, MaxErrorPage, MaxErrorPage)),
		Offset:  int32(offset),
	})
	if err != nil {
		return nil, errors.Wrap(err, "list import errors")
	}

	out := make([]StoredError, 0, len(rows))
	for _, row := range rows {
		out = append(out, StoredError{
			ID:          row.ID,
			BatchID:     PgUUIDToString(row.BatchID),
			Kind:        row.Kind,
			RecordIndex: int(row.RecordIndex),
			RawRecord:   json.RawMessage(row.RawRecord),
			Category:    ErrorCategory(row.Category),
			Message:     row.Message,
			CreatedAt:   row.CreatedAt.Time,
		})
	}
	return out, nil
}

// MaxErrorPage is the largest page of sink entries returned at once.
const MaxErrorPage = 1000

func batchRowToSummary(row database.ImportBatch) BatchSummary {
	b := BatchSummary{
		ID:        PgUUIDToString(row.ID),
		Kind:      row.Kind,
		Status:    BatchStatus(row.Status),
		Total:     int(row.Total),
		Succeeded: int(row.Succeeded),
		Skipped:   int(row.Skipped),
		Failed:    int(row.Failed),
		StartedAt: row.StartedAt.Time,
	}
	if len(row.Config) > 0 {
		// Unreadable config leaves the zero value; the counters still stand.
		_ = json.Unmarshal(row.Config, &b.Config)
	}
	if row.CompletedAt.Valid {
		t := row.CompletedAt.Time
		b.CompletedAt = &t
	}
	return b
}
