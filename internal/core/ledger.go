package core

import (
	"context"
	"encoding/json"
	"time"

	"github.com/cockroachdb/errors"

	"github.com/animelib/catalog/internal/database"
)

// BatchOpen carries what the ledger records when a batch starts.
type BatchOpen struct {
	BatchID   string
	Kind      string
	Total     int
	Config    ImportConfig
	StartedAt time.Time
}

// BatchClose carries the final counters and status of a batch.
type BatchClose struct {
	BatchID     string
	Succeeded   int
	Skipped     int
	Failed      int
	Status      BatchStatus
	CompletedAt time.Time
}

// Ledger keeps one row per batch. Like the error sink it is best-effort and
// writes outside the record transactions.
type Ledger interface {
	Open(ctx context.Context, b BatchOpen) LogResult
	Close(ctx context.Context, b BatchClose) LogResult
}

// PGLedger stores batches in the import_batches table.
type PGLedger struct {
	db database.DBTX
}

// NewPGLedger creates a ledger that writes through db, normally the pool.
func NewPGLedger(db database.DBTX) *PGLedger {
	return &PGLedger{db: db}
}

func (l *PGLedger) Open(ctx context.Context, b BatchOpen) LogResult {
	cfg, err := json.Marshal(b.Config)
	if err != nil {
		return notLogged(errors.Wrap(err, "encode batch config"))
	}

	err = database.New(l.db).CreateImportBatch(ctx, database.CreateImportBatchParams{
		ID:        ToPgUUID(b.BatchID),
		Kind:      b.Kind,
		Total:     int32(b.Total),
		Config:    cfg,
		StartedAt: ToPgTimestamptz(b.StartedAt),
	})
	if err != nil {
		return notLogged(errors.Wrap(err, "open batch"))
	}
	return logged()
}

func (l *PGLedger) Close(ctx context.Context, b BatchClose) LogResult {
	n, err := database.New(l.db).CompleteImportBatch(ctx, database.CompleteImportBatchParams{
		ID:          ToPgUUID(b.BatchID),
		Succeeded:   int32(b.Succeeded),
		Skipped:     int32(b.Skipped),
		Failed:      int32(b.Failed),
		Status:      string(b.Status),
		CompletedAt: ToPgTimestamptz(b.CompletedAt),
	})
	if err != nil {
		return notLogged(errors.Wrap(err, "close batch"))
	}
	if n == 0 {
		return notLogged(errors.Wrapf(ErrBatchNotFound, "close batch %s", b.BatchID))
	}
	return logged()
}
