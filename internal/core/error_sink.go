package core

// error_sink.go implements the durable, append-only log of per-record
// failures.
//
// The sink is best-effort. A failed write is reported through LogResult and
// logged, never returned as an error, and never changes the outcome of the
// record or the batch. Each write is a single autocommit statement on the
// sink's own handle, so it survives the rollback of the record it describes.

import (
	"context"
	"encoding/json"
	"time"
	"unicode/utf8"

	"github.com/animelib/catalog/internal/database"
	"github.com/animelib/catalog/internal/logging"
)

// MaxErrorMessageLength is the longest message the sink stores, in characters.
const MaxErrorMessageLength = 500

// DefaultWriteTimeout bounds one sink, ledger or audit write, retries
// included.
const DefaultWriteTimeout = 5 * time.Second

// LogResult is the outcome of a best-effort write to the sink, the ledger or
// the audit trail. It is deliberately not an error.
type LogResult struct {
	Written bool
	Err     error
}

func logged() LogResult             { return LogResult{Written: true} }
func notLogged(err error) LogResult { return LogResult{Err: err} }

// ImportErrorEntry is one failure to record.
type ImportErrorEntry struct {
	BatchID     string
	Kind        string
	RecordIndex int
	Raw         json.RawMessage
	Category    ErrorCategory
	Message     string
}

// ErrorSink records per-record failures.
type ErrorSink interface {
	Record(ctx context.Context, entry ImportErrorEntry) LogResult
}

// TruncateMessage shortens msg to at most max characters.
func TruncateMessage(msg string, max int) string {
	if utf8.RuneCountInString(msg) <= max {
		return msg
	}
	runes := []rune(msg)
	return string(runes[:max])
}

// PGErrorSink writes failures to the import_errors table.
type PGErrorSink struct {
	db database.DBTX
}

// NewPGErrorSink creates a sink that writes through db, normally the pool.
func NewPGErrorSink(db database.DBTX) *PGErrorSink {
	return &PGErrorSink{db: db}
}

func (s *PGErrorSink) Record(ctx context.Context, entry ImportErrorEntry) LogResult {
	raw := []byte(entry.Raw)
	if !json.Valid(raw) {
		// Keep the bytes inspectable even when the candidate was not JSON.
		raw, _ = json.Marshal(string(entry.Raw))
	}

	err := database.New(s.db).InsertImportError(ctx, database.InsertImportErrorParams{
		BatchID:     ToPgUUID(entry.BatchID),
		Kind:        entry.Kind,
		RecordIndex: int32(entry.RecordIndex),
		RawRecord:   raw,
		Category:    string(entry.Category),
		Message:     TruncateMessage(entry.Message, MaxErrorMessageLength),
	})
	if err != nil {
		return notLogged(err)
	}
	return logged()
}

// RetrySink decorates another sink with a bounded number of attempts.
type RetrySink struct {
	inner    ErrorSink
	attempts int
	delay    time.Duration
}

// NewRetrySink wraps inner so each Record is tried up to attempts times,
// pausing delay between tries. attempts below 1 means a single try.
func NewRetrySink(inner ErrorSink, attempts int, delay time.Duration) *RetrySink {
	if attempts < 1 {
		attempts = 1
	}
	return &RetrySink{inner: inner, attempts: attempts, delay: delay}
}

func (r *RetrySink) Record(ctx context.Context, entry ImportErrorEntry) LogResult {
	var res LogResult
	for attempt := 1; attempt <= r.attempts; attempt++ {
		res = r.inner.Record(ctx, entry)
		if res.Written || attempt == r.attempts {
			return res
		}

		// The caller reports the final failure.
		logging.FromContext(ctx).Warn("error sink write failed, retrying",
			"record_index", entry.RecordIndex,
			"attempt", attempt,
			"attempts", r.attempts,
			"error", res.Err,
		)

		if r.delay > 0 {
			select {
			case <-ctx.Done():
				return res
			case <-time.After(r.delay):
			}
		}
	}
	return res
}
