package core

import (
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/jackc/pgx/v5/pgconn"
)

// Batch-level errors. These reject a whole request before any record is
// processed; per-record failures never surface as errors from the engine.
var (
	ErrInvalidConfig      = errors.New("invalid import configuration")
	ErrUnknownKind        = errors.New("unknown kind")
	ErrTooManyRecords     = errors.New("too many records in batch")
	ErrBatchNotFound      = errors.New("import batch not found")
	ErrIntegrityViolation = errors.New("integrity constraint violation")
)

// pgIntegrityClass is the SQLSTATE class for integrity constraint violations
// (unique, foreign key, check, not null, exclusion).
const pgIntegrityClass = "23"

// IsIntegrityViolation reports whether err signals that storage rejected a
// write because of a constraint.
func IsIntegrityViolation(err error) bool {
	if err == nil {
		return false
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return strings.HasPrefix(pgErr.Code, pgIntegrityClass)
	}
	return errors.Is(err, ErrIntegrityViolation)
}

// classifyFailure maps a per-record storage error onto its category.
func classifyFailure(err error) ErrorCategory {
	var verr ValidationErrors
	if errors.As(err, &verr) {
		return CategoryValidation
	}
	if IsIntegrityViolation(err) {
		return CategoryIntegrity
	}
	return CategoryUnknown
}

// primaryLine returns the first line of the error's message. For Postgres
// errors this is the server's primary message without detail or hint.
func primaryLine(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Message != "" {
		return pgErr.Message
	}
	msg := err.Error()
	if i := strings.IndexByte(msg, '\n'); i >= 0 {
		msg = msg[:i]
	}
	return strings.TrimSpace(msg)
}
