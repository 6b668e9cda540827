package core

// importer.go runs a batch of candidates for one entity kind.
//
// The flow for a batch:
//
//  1. Reject the request outright if the kind is unknown, the configuration
//     is invalid or the batch is too large. Nothing is written.
//  2. Open the batch in the ledger. If that fails the batch still runs,
//     untracked.
//  3. For each candidate in input order: decode, validate, then inside its
//     own transaction look up the natural key and insert, update or skip.
//     A failing candidate rolls back alone and never stops the loop.
//  4. Close the ledger with the final counters and persisted status, and
//     return the report.
//
// Sink, ledger and audit writes are best-effort and go through their own
// handles, outside the record transactions. Each of them runs under its own
// write timeout.

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/animelib/catalog/internal/logging"
)

// Importer is the ingestion orchestrator. It holds no storage session of its
// own; each call to Import receives one from the caller.
type Importer struct {
	sink         ErrorSink
	ledger       Ledger
	audit        AuditLogger
	maxRecords   int
	writeTimeout time.Duration
	now          func() time.Time
	newBatchID   func() string
}

// ImporterOption customizes an Importer.
type ImporterOption func(*Importer)

// WithAuditLogger records catalog_create/catalog_update entries for written
// records and a system_event per batch.
func WithAuditLogger(a AuditLogger) ImporterOption {
	return func(im *Importer) { im.audit = a }
}

// WithMaxRecords caps the number of candidates per batch. Zero means no cap.
func WithMaxRecords(n int) ImporterOption {
	return func(im *Importer) { im.maxRecords = n }
}

// WithWriteTimeout bounds each sink, ledger and audit write. Zero or less
// leaves the writes unbounded.
func WithWriteTimeout(d time.Duration) ImporterOption {
	return func(im *Importer) { im.writeTimeout = d }
}

// WithClock replaces time.Now, for tests.
func WithClock(now func() time.Time) ImporterOption {
	return func(im *Importer) { im.now = now }
}

// WithBatchIDs replaces the batch id generator, for tests.
func WithBatchIDs(next func() string) ImporterOption {
	return func(im *Importer) { im.newBatchID = next }
}

// NewImporter creates an orchestrator that reports failures to sink and
// tracks batches in ledger.
func NewImporter(sink ErrorSink, ledger Ledger, opts ...ImporterOption) *Importer {
	im := &Importer{
		sink:         sink,
		ledger:       ledger,
		writeTimeout: DefaultWriteTimeout,
		now:          time.Now,
		newBatchID:   func() string { return uuid.NewString() },
	}
	for _, opt := range opts {
		opt(im)
	}
	return im
}

// sideWrite derives the context of one best-effort write.
func (im *Importer) sideWrite(ctx context.Context) (context.Context, context.CancelFunc) {
	if im.writeTimeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, im.writeTimeout)
}

// prepare runs every check that can reject a whole batch.
func (im *Importer) prepare(sess Session, kind string, records Candidates, cfg ImportConfig) (KindDefinition, error) {
	def, err := im.check(kind, records, cfg)
	if err != nil {
		return KindDefinition{}, err
	}
	if sess == nil {
		return KindDefinition{}, errors.AssertionFailedf("import of %q started without a storage session", kind)
	}
	return def, nil
}

// check validates a request without touching storage.
func (im *Importer) check(kind string, records Candidates, cfg ImportConfig) (KindDefinition, error) {
	def, ok := Get(kind)
	if !ok {
		return KindDefinition{}, errors.WithHint(
			errors.Wrapf(ErrUnknownKind, "kind %q", kind),
			"GET /api/kinds lists the importable kinds",
		)
	}
	if err := cfg.Validate(); err != nil {
		return KindDefinition{}, err
	}
	if im.maxRecords > 0 && len(records) > im.maxRecords {
		return KindDefinition{}, errors.WithHintf(
			errors.Wrapf(ErrTooManyRecords, "%d records", len(records)),
			"split the batch into chunks of at most %d records", im.maxRecords,
		)
	}
	return def, nil
}

// Import processes records of the given kind and returns the batch report.
//
// Errors are returned only for requests rejected before any record is
// processed. Once the batch starts it runs to the end: cancellation of ctx
// is ignored and per-record failures are reported, not returned.
func (im *Importer) Import(ctx context.Context, sess Session, kind string, records Candidates, cfg ImportConfig) (*ImportReport, error) {
	def, err := im.prepare(sess, kind, records, cfg)
	if err != nil {
		return nil, err
	}

	ctx = context.WithoutCancel(ctx)
	batchID := im.newBatchID()
	ctx = logging.ContextWithBatchID(ctx, batchID)
	logger := logging.WithFields(ctx, "kind", kind)

	start := im.now()
	report := newImportReport(batchID, kind, len(records))

	openCtx, cancel := im.sideWrite(ctx)
	opened := im.ledger.Open(openCtx, BatchOpen{
		BatchID:   batchID,
		Kind:      kind,
		Total:     len(records),
		Config:    cfg,
		StartedAt: start,
	})
	cancel()
	report.Tracked = opened.Written
	if !opened.Written {
		logger.Warn("batch ledger unavailable, continuing untracked", "error", opened.Err)
	}

	logger.Info("import started",
		"total", len(records),
		"skip_duplicates", cfg.SkipDuplicates,
		"on_conflict", cfg.OnConflict,
	)

	for i, raw := range records {
		res := im.processRecord(ctx, sess, def, i, raw, cfg)
		report.add(res)
		im.afterRecord(ctx, def, batchID, raw, res, cfg)

		if done := i + 1; done%cfg.BatchSize == 0 && done < len(records) {
			logger.Info("import progress",
				"processed", done,
				"total", len(records),
				"succeeded", report.Succeeded,
				"skipped", report.Skipped,
				"failed", report.Failed,
			)
		}
	}

	status := TerminalStatus(report.Succeeded, report.Skipped, report.Failed)
	report.Status = ReportStatusFor(report.Succeeded, report.Skipped, report.Failed)

	finished := im.now()
	if report.Tracked {
		closeCtx, cancel := im.sideWrite(ctx)
		closed := im.ledger.Close(closeCtx, BatchClose{
			BatchID:     batchID,
			Succeeded:   report.Succeeded,
			Skipped:     report.Skipped,
			Failed:      report.Failed,
			Status:      status,
			CompletedAt: finished,
		})
		cancel()
		if !closed.Written {
			logger.Warn("failed to close batch in ledger", "error", closed.Err)
		}
	}

	report.Duration = finished.Sub(start)
	report.DurationMS = report.Duration.Milliseconds()

	im.auditBatch(ctx, report, status)

	logger.Info("import finished",
		"status", report.Status,
		"batch_status", status,
		"succeeded", report.Succeeded,
		"skipped", report.Skipped,
		"failed", report.Failed,
		"duration_ms", report.DurationMS,
	)
	return report, nil
}

// processRecord takes one candidate to exactly one outcome.
func (im *Importer) processRecord(ctx context.Context, sess Session, def KindDefinition, index int, raw json.RawMessage, cfg ImportConfig) (res RecordResult) {
	res = RecordResult{Index: index}
	fail := func(err error) RecordResult {
		res.Outcome = OutcomeFailed
		res.Category = classifyFailure(err)
		res.Err = err
		return res
	}

	defer func() {
		if r := recover(); r != nil {
			res = fail(errors.Newf("panic while importing record: %v", r))
		}
	}()

	candidate, err := def.Decode(raw)
	if err != nil {
		return fail(malformedRecord(err))
	}
	key := def.NaturalKey(candidate)
	res.Key = key.String()

	if err := def.Validate(candidate); err != nil {
		return fail(err)
	}

	tx, err := sess.Begin(ctx)
	if err != nil {
		return fail(errors.Wrap(err, "begin record transaction"))
	}
	// Rollback after Commit is a no-op.
	defer func() { _ = tx.Rollback(ctx) }()

	outcome, id, err := im.write(ctx, tx, def, candidate, key, cfg)
	if err != nil {
		return fail(err)
	}
	res.ID = id
	res.Outcome = outcome

	if outcome == OutcomeSkipped {
		return res
	}
	if err := tx.Commit(ctx); err != nil {
		return fail(err)
	}
	return res
}

// write resolves the conflict policy for one candidate inside tx.
func (im *Importer) write(ctx context.Context, tx pgx.Tx, def KindDefinition, candidate any, key NaturalKey, cfg ImportConfig) (Outcome, int64, error) {
	if cfg.SkipDuplicates {
		existing, err := def.Lookup(ctx, tx, key)
		if err != nil {
			return OutcomeFailed, 0, errors.Wrap(err, "look up existing record")
		}
		if existing != nil {
			if cfg.OnConflict == OnConflictSkip {
				return OutcomeSkipped, existing.ID, nil
			}

			merged := def.Merge(existing.Record, candidate)
			if err := def.Validate(merged); err != nil {
				return OutcomeFailed, 0, err
			}
			if err := def.Update(ctx, tx, existing.ID, merged); err != nil {
				return OutcomeFailed, 0, err
			}
			return OutcomeUpdated, existing.ID, nil
		}
	}

	id, err := def.Insert(ctx, tx, candidate)
	if err != nil {
		return OutcomeFailed, 0, err
	}
	return OutcomeCreated, id, nil
}

// afterRecord performs the best-effort side writes for one result.
func (im *Importer) afterRecord(ctx context.Context, def KindDefinition, batchID string, raw json.RawMessage, res RecordResult, cfg ImportConfig) {
	logger := logging.FromContext(ctx)

	switch res.Outcome {
	case OutcomeFailed:
		logger.Debug("record failed",
			"record_index", res.Index,
			"key", res.Key,
			"category", res.Category,
			"error", res.Err,
		)
		if res.Category == CategoryValidation || !cfg.LogErrors || im.sink == nil {
			return
		}
		sinkCtx, cancel := im.sideWrite(ctx)
		defer cancel()
		logRes := im.sink.Record(sinkCtx, ImportErrorEntry{
			BatchID:     batchID,
			Kind:        def.Info.Key,
			RecordIndex: res.Index,
			Raw:         raw,
			Category:    res.Category,
			Message:     primaryLine(res.Err),
		})
		if !logRes.Written {
			logger.Warn("failed to record import error",
				"record_index", res.Index,
				"error", logRes.Err,
			)
		}

	case OutcomeCreated, OutcomeUpdated:
		if im.audit == nil {
			return
		}
		action, verb := ActionCatalogCreate, "created"
		if res.Outcome == OutcomeUpdated {
			action, verb = ActionCatalogUpdate, "updated"
		}
		auditCtx, cancel := im.sideWrite(ctx)
		defer cancel()
		_, err := im.audit.Log(auditCtx, AuditLogParams{
			Action:      action,
			UserRole:    RoleSystem,
			EntityType:  def.Info.Key,
			EntityID:    res.ID,
			Description: fmt.Sprintf("Batch import %s %s %s", verb, def.Info.Key, res.Key),
			Changes:     raw,
			BatchID:     batchID,
		})
		if err != nil {
			logger.Warn("failed to write audit entry", "record_index", res.Index, "error", err)
		}
	}
}

// auditBatch writes the batch-level system_event.
func (im *Importer) auditBatch(ctx context.Context, report *ImportReport, status BatchStatus) {
	if im.audit == nil {
		return
	}
	auditCtx, cancel := im.sideWrite(ctx)
	defer cancel()
	_, err := im.audit.Log(auditCtx, AuditLogParams{
		Action:     ActionSystemEvent,
		UserRole:   RoleSystem,
		EntityType: EntityImportBatch,
		Description: fmt.Sprintf("Batch import of %d %s record(s) finished: %d succeeded, %d skipped, %d failed",
			report.Total, report.Kind, report.Succeeded, report.Skipped, report.Failed),
		Changes: map[string]any{
			"status":    status,
			"total":     report.Total,
			"succeeded": report.Succeeded,
			"skipped":   report.Skipped,
			"failed":    report.Failed,
		},
		BatchID: report.BatchID,
	})
	if err != nil {
		logging.FromContext(ctx).Warn("failed to write batch audit entry", "error", err)
	}
}
