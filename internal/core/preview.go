package core

import (
	"context"
	"time"

	"github.com/cockroachdb/errors"
)

// PredictedOutcome is what an import would do with a candidate.
type PredictedOutcome string

const (
	WouldCreate  PredictedOutcome = "would_create"
	WouldUpdate  PredictedOutcome = "would_update"
	WouldSkip    PredictedOutcome = "would_skip"
	WouldFail    PredictedOutcome = "invalid"
	LookupFailed PredictedOutcome = "lookup_failed"
)

// PreviewSummary contains the summary counts for an import preview.
type PreviewSummary struct {
	Total        int `json:"total"`
	Create       int `json:"would_create"`
	Update       int `json:"would_update"`
	Skip         int `json:"would_skip"`
	Invalid      int `json:"invalid"`
	LookupFailed int `json:"lookup_failed"`

	// DuplicateInBatch counts candidates whose key already appeared earlier
	// in the same batch.
	DuplicateInBatch int `json:"duplicate_in_batch"`
}

// RecordPreview is the prediction for one candidate.
type RecordPreview struct {
	RecordIndex int              `json:"record_index"`
	Key         string           `json:"key,omitempty"`
	Outcome     PredictedOutcome `json:"outcome"`
	ExistingID  int64            `json:"existing_id,omitempty"`

	// DuplicateOf is the index of the earlier candidate with the same key.
	DuplicateOf *int              `json:"duplicate_of,omitempty"`
	Errors      []ValidationError `json:"errors,omitempty"`
	Message     string            `json:"message,omitempty"`
}

// PreviewReport is the complete response of a dry run.
type PreviewReport struct {
	Kind             string          `json:"kind"`
	Config           ImportConfig    `json:"config"`
	Summary          PreviewSummary  `json:"summary"`
	Records          []RecordPreview `json:"records"`
	ProcessingTimeMs int64           `json:"processing_time_ms"`
}

// Preview predicts the outcome of importing records without writing
// anything. Lookups run in a single transaction that is always rolled back,
// and neither the ledger, the sink nor the audit trail is touched.
//
// Predictions ignore integrity constraints other than the natural key, so a
// would_create candidate can still fail at import time.
func (im *Importer) Preview(ctx context.Context, sess Session, kind string, records Candidates, cfg ImportConfig) (*PreviewReport, error) {
	def, err := im.prepare(sess, kind, records, cfg)
	if err != nil {
		return nil, err
	}
	start := im.now()

	tx, err := sess.Begin(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "begin preview transaction")
	}
	defer func() { _ = tx.Rollback(context.WithoutCancel(ctx)) }()

	report := &PreviewReport{
		Kind:    kind,
		Config:  cfg,
		Records: make([]RecordPreview, 0, len(records)),
	}
	report.Summary.Total = len(records)

	// First index of each key seen in this batch.
	seen := make(map[string]int)

	for i, raw := range records {
		p := RecordPreview{RecordIndex: i}

		candidate, err := def.Decode(raw)
		if err != nil {
			p.Outcome = WouldFail
			p.Errors = malformedRecord(err)
			report.add(p)
			continue
		}
		key := def.NaturalKey(candidate)
		p.Key = key.String()

		if err := def.Validate(candidate); err != nil {
			p.Outcome = WouldFail
			var verrs ValidationErrors
			if errors.As(err, &verrs) {
				p.Errors = verrs
			} else {
				p.Message = primaryLine(err)
			}
			report.add(p)
			continue
		}

		if !cfg.SkipDuplicates {
			p.Outcome = WouldCreate
			report.add(p)
			continue
		}

		if first, dup := seen[p.Key]; dup {
			p.DuplicateOf = Ptr(first)
			report.Summary.DuplicateInBatch++
			p.Outcome = conflictOutcome(cfg.OnConflict)
			report.add(p)
			continue
		}
		seen[p.Key] = i

		existing, err := def.Lookup(ctx, tx, key)
		switch {
		case err != nil:
			p.Outcome = LookupFailed
			p.Message = primaryLine(err)
		case existing == nil:
			p.Outcome = WouldCreate
		default:
			p.ExistingID = existing.ID
			p.Outcome = conflictOutcome(cfg.OnConflict)
			if p.Outcome == WouldUpdate {
				if err := def.Validate(def.Merge(existing.Record, candidate)); err != nil {
					p.Outcome = WouldFail
					p.Message = primaryLine(err)
				}
			}
		}
		report.add(p)
	}

	report.ProcessingTimeMs = im.now().Sub(start).Milliseconds()
	return report, nil
}

func conflictOutcome(policy OnConflict) PredictedOutcome {
	if policy == OnConflictUpdate {
		return WouldUpdate
	}
	return WouldSkip
}

func (r *PreviewReport) add(p RecordPreview) {
	switch p.Outcome {
	case WouldCreate:
		r.Summary.Create++
	case WouldUpdate:
		r.Summary.Update++
	case WouldSkip:
		r.Summary.Skip++
	case LookupFailed:
		r.Summary.LookupFailed++
	default:
		r.Summary.Invalid++
	}
	r.Records = append(r.Records, p)
}

// previewTimeout bounds the read-only transaction of a dry run.
const previewTimeout = 2 * time.Minute
