// Package core implements batch ingestion of catalog records.
//
// It holds all domain logic independent of any transport, so the HTTP
// handlers, the CLI and tests drive the same code.
//
// # Kinds
//
// Each importable entity kind (titles, studios, genres) is registered at init
// time with [Register]. A [Kind] bundles validation, the natural key used
// for duplicate detection, and the storage operations:
//
//	core.Register(core.Kind[Studio]{
//	    Key:        "studio",
//	    KeyFields:  []string{"name"},
//	    Validate:   validateStudio,
//	    NaturalKey: studioKey,
//	    Lookup:     lookupStudio,
//	    Insert:     insertStudio,
//	    Merge:      mergeStudio,
//	    Update:     updateStudio,
//	}.Definition())
//
// # Importing
//
// [Importer.Import] processes a batch in input order. Every candidate ends
// in exactly one of created, updated, skipped or failed, and each runs in
// its own transaction so a failure never affects its neighbours. With
// skip_duplicates on, a candidate whose natural key matches a stored record
// is skipped or merged into it according to on_conflict; merges never
// overwrite stored values with absent candidate fields.
//
// Failures are classified as validation_error, integrity_error or
// unknown_error. Integrity and unknown failures go to the [ErrorSink] when
// log_errors is on. The [Ledger] keeps one row per batch with its counters
// and persisted [BatchStatus]; the caller receives an [ImportReport] with
// a [ReportStatus]. Sink, ledger and audit writes are best-effort and never
// change a record's outcome.
//
// # Error Handling
//
// Requests rejected as a whole (unknown kind, invalid configuration, too many
// records, no import slot) return sentinel errors wrapped with
// cockroachdb/errors. [MapError] turns them into user-facing messages with
// support codes.
//
// # Audit Logging
//
// Stored records produce catalog_create or catalog_update audit entries and
// every batch ends with a system_event. Old entries are moved to cold
// storage by the archive scheduler.
package core
