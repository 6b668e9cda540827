package core

import (
	"context"
	"encoding/json"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// DBTX is the interface for database operations.
// Satisfied by *pgxpool.Pool, *pgxpool.Conn and pgx.Tx.
type DBTX interface {
	Exec(context.Context, string, ...interface{}) (pgconn.CommandTag, error)
	Query(context.Context, string, ...interface{}) (pgx.Rows, error)
	QueryRow(context.Context, string, ...interface{}) pgx.Row
}

// Session opens the per-record transactions of a batch. The caller owns the
// session and its lifetime; a *pgxpool.Pool or an acquired *pgxpool.Conn both
// satisfy it.
type Session interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}

// OnConflict selects what happens when a candidate matches an existing record.
type OnConflict string

const (
	OnConflictSkip   OnConflict = "skip"
	OnConflictUpdate OnConflict = "update"
)

const (
	DefaultBatchSize = 100
	MaxBatchSize     = 1000
)

// ImportConfig is the per-batch configuration supplied with the candidates.
type ImportConfig struct {
	// SkipDuplicates turns natural-key duplicate detection on. When false
	// every candidate is inserted.
	SkipDuplicates bool       `json:"skip_duplicates" yaml:"skip_duplicates"`
	OnConflict     OnConflict `json:"on_conflict" yaml:"on_conflict"`
	LogErrors      bool       `json:"log_errors" yaml:"log_errors"`

	// BatchSize is the progress checkpoint interval, 1..1000.
	BatchSize int `json:"batch_size" yaml:"batch_size"`
}

// DefaultImportConfig returns the configuration used when a caller omits one.
func DefaultImportConfig() ImportConfig {
	return ImportConfig{
		SkipDuplicates: true,
		OnConflict:     OnConflictSkip,
		LogErrors:      true,
		BatchSize:      DefaultBatchSize,
	}
}

// Validate rejects configurations the orchestrator cannot run.
func (c ImportConfig) Validate() error {
	switch c.OnConflict {
	case OnConflictSkip, OnConflictUpdate:
	default:
		return errors.WithHint(
			errors.Wrapf(ErrInvalidConfig, "invalid on_conflict %q", string(c.OnConflict)),
			"on_conflict must be \"skip\" or \"update\"",
		)
	}
	if c.BatchSize < 1 || c.BatchSize > MaxBatchSize {
		return errors.WithHint(
			errors.Wrapf(ErrInvalidConfig, "invalid batch_size %d", c.BatchSize),
			"batch_size must be between 1 and 1000",
		)
	}
	return nil
}

// ErrorCategory classifies a per-record failure.
type ErrorCategory string

const (
	CategoryValidation ErrorCategory = "validation_error"
	CategoryIntegrity  ErrorCategory = "integrity_error"
	CategoryUnknown    ErrorCategory = "unknown_error"
)

// Outcome is the single result each candidate ends with.
type Outcome string

const (
	OutcomeCreated Outcome = "created"
	OutcomeUpdated Outcome = "updated"
	OutcomeSkipped Outcome = "skipped"
	OutcomeFailed  Outcome = "failed"
)

// SkipReasonDuplicate is the reason recorded for candidates matched by key.
const SkipReasonDuplicate = "duplicate"

// RecordResult is the per-record result type of the orchestrator loop.
type RecordResult struct {
	Index    int
	Outcome  Outcome
	ID       int64 // created id, update target or existing id for skips
	Key      string
	Category ErrorCategory
	Err      error
}

// WrittenEntry describes a candidate that was created or updated.
type WrittenEntry struct {
	RecordIndex int     `json:"record_index"`
	Outcome     Outcome `json:"outcome"`
	ID          int64   `json:"id"`
}

// SkipEntry describes a candidate left alone because it already exists.
type SkipEntry struct {
	RecordIndex int    `json:"record_index"`
	Reason      string `json:"reason"`
	ExistingID  int64  `json:"existing_id"`
}

// RecordError describes a failed candidate in the report.
type RecordError struct {
	RecordIndex int           `json:"record_index"`
	Key         string        `json:"key"`
	Category    ErrorCategory `json:"error_category"`
	Message     string        `json:"message"`
}

// ImportReport is returned to the caller once a batch has been processed.
// List fields are never nil so they encode as empty arrays.
type ImportReport struct {
	BatchID   string       `json:"batch_id"`
	Kind      string       `json:"kind"`
	Status    ReportStatus `json:"status"`
	Total     int          `json:"total"`
	Succeeded int          `json:"succeeded"`
	Skipped   int          `json:"skipped"`
	Failed    int          `json:"failed"`

	// IDs holds created and updated ids in processing order.
	IDs     []int64        `json:"ids"`
	Written []WrittenEntry `json:"written"`
	Skips   []SkipEntry    `json:"skipped_records"`
	Errors  []RecordError  `json:"errors"`

	// Tracked is false when the batch ledger could not be opened.
	Tracked    bool          `json:"tracked"`
	Duration   time.Duration `json:"-"`
	DurationMS int64         `json:"duration_ms"`
}

func newImportReport(batchID, kind string, total int) *ImportReport {
	return &ImportReport{
		BatchID: batchID,
		Kind:    kind,
		Total:   total,
		IDs:     []int64{},
		Written: []WrittenEntry{},
		Skips:   []SkipEntry{},
		Errors:  []RecordError{},
	}
}

// add folds one record result into the report counters and lists.
func (r *ImportReport) add(res RecordResult) {
	switch res.Outcome {
	case OutcomeCreated, OutcomeUpdated:
		r.Succeeded++
		r.IDs = append(r.IDs, res.ID)
		r.Written = append(r.Written, WrittenEntry{RecordIndex: res.Index, Outcome: res.Outcome, ID: res.ID})
	case OutcomeSkipped:
		r.Skipped++
		r.Skips = append(r.Skips, SkipEntry{RecordIndex: res.Index, Reason: SkipReasonDuplicate, ExistingID: res.ID})
	default:
		r.Failed++
		msg := ""
		if res.Err != nil {
			msg = primaryLine(res.Err)
		}
		r.Errors = append(r.Errors, RecordError{
			RecordIndex: res.Index,
			Key:         res.Key,
			Category:    res.Category,
			Message:     msg,
		})
	}
}

// Candidates is an ordered, fully materialized list of raw candidate records.
type Candidates []json.RawMessage
