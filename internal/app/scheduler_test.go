package app

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bft-labs/flashguard/internal/domain"
)

// openBatch posts n messages and registers them as one batch.
func openBatch(t *testing.T, h *harness, n int) *domain.Batch {
	t.Helper()
	anchor := h.platform.Post(textMessage("anchor"))
	id, err := h.registry.CreateBatch(anchor)
	require.NoError(t, err)
	for i := 1; i < n; i++ {
		_, ok := h.registry.AppendToLatest(h.platform.Post(textMessage("reply")))
		require.True(t, ok)
	}
	snap := h.registry.Snapshot()
	require.Equal(t, id, snap[len(snap)-1].ID)
	return &domain.Batch{ID: id, Anchor: anchor}
}

func TestScheduler_ExpireBulkDeletes(t *testing.T) {
	h := newHarness(t, time.Hour)
	b := openBatch(t, h, 3)

	h.scheduler.Expire(context.Background(), b.ID)

	require.Len(t, h.platform.BulkDeletes, 1)
	assert.Len(t, h.platform.BulkDeletes[0], 3)
	assert.Empty(t, h.platform.Visible(testChannel))
	assert.Zero(t, h.registry.Len())
	assert.Equal(t, []bool{true}, h.emitter.bulk)
}

func TestScheduler_ExpireIsIdempotent(t *testing.T) {
	h := newHarness(t, time.Hour)
	b := openBatch(t, h, 2)

	h.scheduler.Expire(context.Background(), b.ID)
	h.scheduler.Expire(context.Background(), b.ID)

	assert.Len(t, h.platform.BulkDeletes, 1)
	assert.Empty(t, h.platform.Deleted)
	assert.Equal(t, []string{b.ID}, h.emitter.expired)
}

func TestScheduler_FallbackDeletesIndividually(t *testing.T) {
	h := newHarness(t, time.Hour)
	b := openBatch(t, h, 3)
	ids := h.platform.Visible(testChannel)

	// One member was removed by a moderator, so bulk delete fails as a whole.
	require.NoError(t, h.platform.DeleteMessage(context.Background(), testChannel, ids[1]))
	h.platform.Deleted = nil

	h.scheduler.Expire(context.Background(), b.ID)

	assert.Empty(t, h.platform.BulkDeletes)
	assert.Equal(t, []string{ids[0], ids[2]}, h.platform.Deleted)
	assert.Empty(t, h.platform.Visible(testChannel))
	assert.True(t, h.logger.Has("info", "message already deleted"))
	assert.Equal(t, []bool{false}, h.emitter.bulk)
}

func TestScheduler_FallbackContinuesPastErrors(t *testing.T) {
	h := newHarness(t, time.Hour)
	b := openBatch(t, h, 3)
	ids := h.platform.Visible(testChannel)
	h.platform.BulkDeleteErr = domain.ErrBulkDeleteLimit
	h.platform.DeleteErr[ids[0]] = domain.ErrForbidden
	h.platform.DeleteErr[ids[1]] = errors.New("boom")

	h.scheduler.Expire(context.Background(), b.ID)

	assert.Equal(t, []string{ids[2]}, h.platform.Deleted)
	assert.True(t, h.logger.Has("warn", "missing permission to delete message"))
	assert.True(t, h.logger.Has("error", "failed to delete message"))
	assert.Zero(t, h.registry.Len(), "batch is removed even when deletion fails")
}

func TestScheduler_ScheduleFiresAfterDelay(t *testing.T) {
	h := newHarness(t, 20*time.Millisecond)
	b := openBatch(t, h, 2)

	h.scheduler.Schedule(b.ID)
	assert.Equal(t, 1, h.scheduler.Pending())

	require.Eventually(t, func() bool { return h.registry.Len() == 0 }, time.Second, 5*time.Millisecond)
	assert.Empty(t, h.platform.Visible(testChannel))
	assert.Zero(t, h.scheduler.Pending())
}

func TestScheduler_ScheduleTwiceKeepsOneTimer(t *testing.T) {
	h := newHarness(t, time.Hour)
	b := openBatch(t, h, 1)

	h.scheduler.Schedule(b.ID)
	h.scheduler.Schedule(b.ID)

	assert.Equal(t, 1, h.scheduler.Pending())
}

func TestScheduler_CancelLeavesBatch(t *testing.T) {
	h := newHarness(t, 10*time.Millisecond)
	b := openBatch(t, h, 1)

	h.scheduler.Schedule(b.ID)
	assert.True(t, h.scheduler.Cancel(b.ID))
	assert.False(t, h.scheduler.Cancel(b.ID))

	time.Sleep(40 * time.Millisecond)
	assert.Equal(t, 1, h.registry.Len())
}

func TestScheduler_StopCancelsAndRejects(t *testing.T) {
	h := newHarness(t, 10*time.Millisecond)
	b := openBatch(t, h, 1)
	h.scheduler.Schedule(b.ID)

	h.scheduler.Stop()
	h.scheduler.Schedule("another")

	assert.Zero(t, h.scheduler.Pending())
	time.Sleep(40 * time.Millisecond)
	assert.Equal(t, 1, h.registry.Len())

	h.scheduler.Resume()
	h.scheduler.Schedule(b.ID)
	assert.Equal(t, 1, h.scheduler.Pending())
}

// countingTracker records worker accounting.
type countingTracker struct {
	added, done chan struct{}
}

func (c *countingTracker) AddWorker()  { c.added <- struct{}{} }
func (c *countingTracker) WorkerDone() { c.done <- struct{}{} }

func TestScheduler_TracksExpiryAsWorker(t *testing.T) {
	h := newHarness(t, 0)
	tracker := &countingTracker{added: make(chan struct{}, 1), done: make(chan struct{}, 1)}
	s := NewScheduler(h.registry, h.platform, h.logger, nil, tracker, 5*time.Millisecond)
	t.Cleanup(s.Stop)
	b := openBatch(t, h, 1)

	s.Schedule(b.ID)

	select {
	case <-tracker.added:
	case <-time.After(time.Second):
		t.Fatal("expiry was not tracked")
	}
	select {
	case <-tracker.done:
	case <-time.After(time.Second):
		t.Fatal("expiry did not finish")
	}
	assert.Zero(t, h.registry.Len())
}
