package core

import (
	"context"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ServiceConfig holds the runtime settings of a Service.
type ServiceConfig struct {
	MaxRecords        int
	MaxConcurrent     int
	MaxWaitTime       time.Duration
	DefaultBatchSize  int
	SinkRetryAttempts int
	SinkRetryDelay    time.Duration
	WriteTimeout      time.Duration
}

// Service ties the orchestrator to a connection pool. It is the entry point
// for the HTTP handlers and the CLI.
type Service struct {
	pool     *pgxpool.Pool
	importer *Importer
	limiter  *ImportLimiter
	audit    *AuditService

	defaultBatchSize int
}

// NewService creates a new Service instance.
func NewService(pool *pgxpool.Pool, cfg ServiceConfig) (*Service, error) {
	if pool == nil {
		return nil, errors.New("core: nil connection pool")
	}
	if cfg.DefaultBatchSize < 1 || cfg.DefaultBatchSize > MaxBatchSize {
		cfg.DefaultBatchSize = DefaultBatchSize
	}
	if cfg.MaxConcurrent <= 0 {
		cfg.MaxConcurrent = DefaultMaxConcurrentImports
	}
	if cfg.MaxWaitTime <= 0 {
		cfg.MaxWaitTime = DefaultMaxWaitTime
	}
	if cfg.WriteTimeout <= 0 {
		cfg.WriteTimeout = DefaultWriteTimeout
	}

	audit := NewAuditService(pool)
	sink := NewRetrySink(NewPGErrorSink(pool), cfg.SinkRetryAttempts, cfg.SinkRetryDelay)

	return &Service{
		pool: pool,
		importer: NewImporter(sink, NewPGLedger(pool),
			WithAuditLogger(audit),
			WithMaxRecords(cfg.MaxRecords),
			WithWriteTimeout(cfg.WriteTimeout),
		),
		limiter:          NewImportLimiter(cfg.MaxConcurrent, cfg.MaxWaitTime),
		audit:            audit,
		defaultBatchSize: cfg.DefaultBatchSize,
	}, nil
}

// ListKinds returns information about all registered kinds.
func (s *Service) ListKinds() []KindInfo {
	return Kinds()
}

// DefaultConfig returns the import configuration applied when a caller
// sends none.
func (s *Service) DefaultConfig() ImportConfig {
	cfg := DefaultImportConfig()
	cfg.BatchSize = s.defaultBatchSize
	return cfg
}

// ImportBatch runs one batch to completion on a dedicated connection.
//
// Requests that can be rejected outright fail before the call waits for a
// free import slot. Cancelling ctx while waiting abandons the request; once
// the batch has started it always finishes.
func (s *Service) ImportBatch(ctx context.Context, kind string, records Candidates, cfg ImportConfig) (*ImportReport, error) {
	if _, err := s.importer.check(kind, records, cfg); err != nil {
		return nil, err
	}
	if err := s.limiter.Acquire(ctx); err != nil {
		return nil, err
	}
	defer s.limiter.Release()

	conn, err := s.pool.Acquire(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "acquire connection for import")
	}
	defer conn.Release()

	return s.importer.Import(ctx, conn, kind, records, cfg)
}

// PreviewBatch predicts the outcome of ImportBatch without writing.
func (s *Service) PreviewBatch(ctx context.Context, kind string, records Candidates, cfg ImportConfig) (*PreviewReport, error) {
	ctx, cancel := context.WithTimeout(ctx, previewTimeout)
	defer cancel()

	return s.importer.Preview(ctx, s.pool, kind, records, cfg)
}

// GetAuditLog returns audit entries, newest first.
func (s *Service) GetAuditLog(ctx context.Context, opts AuditLogOptions) ([]AuditEntry, error) {
	return s.audit.GetAuditLog(ctx, opts)
}

// ImportLimiterStatus reports how many import slots are in use.
func (s *Service) ImportLimiterStatus() ImportLimiterStatus {
	return s.limiter.Status()
}

// WaitForImports blocks until all running imports finish or ctx is done.
func (s *Service) WaitForImports(ctx context.Context) error {
	return s.limiter.WaitForDrain(ctx)
}

// Ping checks database connectivity.
func (s *Service) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}
