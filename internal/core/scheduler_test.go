package core

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeArchiver struct {
	mu       sync.Mutex
	archives int
	purges   int
	fail     bool
}

func (a *fakeArchiver) ArchiveOldAuditLogs(ctx context.Context, daysToKeep, batchSize int) (int64, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.archives++
	if a.fail {
		return 0, errors.New("archive table missing")
	}
	return 5, nil
}

func (a *fakeArchiver) PurgeOldArchives(ctx context.Context, yearsToKeep int) (int64, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.purges++
	return 1, nil
}

func TestArchiveSchedulerRunsImmediatelyAndStops(t *testing.T) {
	a := &fakeArchiver{fail: true}
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan struct{})
	go func() {
		runArchiveScheduler(ctx, a, ArchiveConfig{CheckInterval: time.Hour})
		close(done)
	}()

	require.Eventually(t, func() bool {
		a.mu.Lock()
		defer a.mu.Unlock()
		return a.archives == 1 && a.purges == 1
	}, time.Second, 5*time.Millisecond, "a failed archive step must not skip the purge")

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("scheduler did not stop after cancellation")
	}
}

func TestArchiveConfigDefaults(t *testing.T) {
	cfg := ArchiveConfig{}.withDefaults()
	assert.Equal(t, 90, cfg.HotRetentionDays)
	assert.Equal(t, 7, cfg.ArchiveRetentionYears)
	assert.Equal(t, 5000, cfg.BatchSize)
	assert.Equal(t, 24*time.Hour, cfg.CheckInterval)
}
