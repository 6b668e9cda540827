package core

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestImportBatchRejectsBadRequestsBeforeWaiting(t *testing.T) {
	h := newHarness(t, WithMaxRecords(2))
	limiter := NewImportLimiter(1, time.Hour)
	require.True(t, limiter.TryAcquire())
	t.Cleanup(limiter.Release)

	// No pool: a request that got past the checks would block on the
	// limiter instead of touching storage.
	svc := &Service{importer: h.importer, limiter: limiter, defaultBatchSize: DefaultBatchSize}

	tests := []struct {
		name    string
		kind    string
		records Candidates
		cfg     ImportConfig
		want    error
	}{
		{"unknown kind", "gadget", candidates(`{"name":"a"}`), DefaultImportConfig(), ErrUnknownKind},
		{"invalid on_conflict", widgetKind, candidates(`{"name":"a"}`), ImportConfig{OnConflict: "merge", BatchSize: 10}, ErrInvalidConfig},
		{"too many records", widgetKind, candidates(`{"name":"a"}`, `{"name":"b"}`, `{"name":"c"}`), DefaultImportConfig(), ErrTooManyRecords},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx, cancel := context.WithTimeout(context.Background(), time.Second)
			defer cancel()

			start := time.Now()
			_, err := svc.ImportBatch(ctx, tt.kind, tt.records, tt.cfg)

			assert.ErrorIs(t, err, tt.want)
			assert.Less(t, time.Since(start), 500*time.Millisecond, "rejected without waiting for a slot")
		})
	}
	assert.Equal(t, 1, limiter.ActiveCount())
}
