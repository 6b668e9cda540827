package core

// status.go holds the two status vocabularies a batch ends up with.
//
// The persisted status lives on the import_batches row and is read by
// operators and history views. The report status is what the caller of an
// import gets back. Both are derived from the same three counters but follow
// different rules, and neither is computed from the other.

// BatchStatus is the persisted lifecycle state of an import batch.
type BatchStatus string

const (
	BatchProcessing           BatchStatus = "processing"
	BatchCompleted            BatchStatus = "completed"
	BatchCompletedWithSkipped BatchStatus = "completed_with_skipped"
	BatchPartialSuccess       BatchStatus = "partial_success"
	BatchFailed               BatchStatus = "failed"

	// BatchSkipped is accepted by storage but never produced by TerminalStatus.
	BatchSkipped BatchStatus = "skipped"
)

// IsTerminal reports whether the status ends a batch's lifecycle.
func (s BatchStatus) IsTerminal() bool {
	switch s {
	case BatchCompleted, BatchCompletedWithSkipped, BatchPartialSuccess, BatchFailed, BatchSkipped:
		return true
	}
	return false
}

// TerminalStatus derives the persisted status from succeeded, skipped and
// failed counts. Rules are checked in order.
func TerminalStatus(succeeded, skipped, failed int) BatchStatus {
	switch {
	case failed == 0 && skipped == 0 && succeeded > 0:
		return BatchCompleted
	case failed == 0 && skipped > 0:
		return BatchCompletedWithSkipped
	case succeeded > 0 && failed > 0:
		return BatchPartialSuccess
	default:
		return BatchFailed
	}
}

// ReportStatus is the status returned to the caller with the report.
type ReportStatus string

const (
	ReportSuccess        ReportStatus = "success"
	ReportPartialSuccess ReportStatus = "partial_success"
	ReportSkipped        ReportStatus = "skipped"
	ReportFailed         ReportStatus = "failed"
)

// ReportStatusFor derives the report status from the same counters.
func ReportStatusFor(succeeded, skipped, failed int) ReportStatus {
	switch {
	case succeeded > 0 && skipped == 0 && failed == 0:
		return ReportSuccess
	case succeeded > 0 && (failed > 0 || skipped > 0):
		return ReportPartialSuccess
	case skipped > 0 && failed == 0 && succeeded == 0:
		return ReportSkipped
	default:
		return ReportFailed
	}
}
