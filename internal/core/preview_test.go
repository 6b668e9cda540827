package core

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPreviewPredictsWithoutWriting(t *testing.T) {
	h := newHarness(t)
	h.store.seed(widget{Name: Ptr("existing"), Color: Ptr("red")})

	report, err := h.importer.Preview(context.Background(), h.session, widgetKind, candidates(
		`{"name":"fresh"}`,
		`{"name":"existing","size":2}`,
		`{"name":""}`,
		`{"name":"fresh","color":"blue"}`,
		`{"name":"neg","size":-1}`,
	), config(true, OnConflictSkip, true))
	require.NoError(t, err)

	assert.Equal(t, PreviewSummary{
		Total:            5,
		Create:           1,
		Skip:             2,
		Invalid:          2,
		DuplicateInBatch: 1,
	}, report.Summary)

	outcomes := make([]PredictedOutcome, len(report.Records))
	for i, r := range report.Records {
		outcomes[i] = r.Outcome
	}
	assert.Equal(t, []PredictedOutcome{WouldCreate, WouldSkip, WouldFail, WouldSkip, WouldFail}, outcomes)

	assert.Equal(t, int64(1), report.Records[1].ExistingID)
	require.NotNil(t, report.Records[3].DuplicateOf)
	assert.Equal(t, 0, *report.Records[3].DuplicateOf)
	assert.True(t, ValidationErrors(report.Records[2].Errors).Has(ViolationRequired))

	// Nothing reached the store, the ledger, the sink or the audit trail.
	assert.Equal(t, 1, h.store.count())
	assert.Zero(t, h.session.committed())
	assert.Empty(t, h.ledger.opens)
	assert.Zero(t, h.sink.calls)
	assert.Empty(t, h.audit.entries)
}

func TestPreviewUpdatePolicy(t *testing.T) {
	h := newHarness(t)
	h.store.seed(widget{Name: Ptr("existing")})

	report, err := h.importer.Preview(context.Background(), h.session, widgetKind,
		candidates(`{"name":"existing","color":"green"}`), config(true, OnConflictUpdate, true))
	require.NoError(t, err)

	assert.Equal(t, 1, report.Summary.Update)
	assert.Equal(t, WouldUpdate, report.Records[0].Outcome)
}

func TestPreviewDetectionOffPredictsCreates(t *testing.T) {
	h := newHarness(t)
	h.store.seed(widget{Name: Ptr("existing")})

	report, err := h.importer.Preview(context.Background(), h.session, widgetKind,
		candidates(`{"name":"existing"}`, `{"name":"existing"}`), config(false, OnConflictSkip, true))
	require.NoError(t, err)

	assert.Equal(t, 2, report.Summary.Create)
	assert.Zero(t, h.store.lookups)
}

func TestPreviewRejectsLikeImport(t *testing.T) {
	h := newHarness(t)

	_, err := h.importer.Preview(context.Background(), h.session, widgetKind,
		candidates(`{"name":"a"}`), ImportConfig{OnConflict: "replace", BatchSize: 10})

	assert.ErrorIs(t, err, ErrInvalidConfig)
	assert.Empty(t, h.session.txs)
}
