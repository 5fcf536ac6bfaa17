package app

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/bft-labs/flashguard/internal/domain"
	"github.com/bft-labs/flashguard/internal/ports"
)

// DefaultExpiry is the time a batch stays in the channel, measured from its
// creation. Appends do not extend it.
const DefaultExpiry = 300 * time.Second

// expireTimeout bounds the deletion work of a single expiry.
const expireTimeout = time.Minute

// WorkerTracker counts in-flight background work so shutdown can wait for it.
// *Lifecycle satisfies this interface.
type WorkerTracker interface {
	AddWorker()
	WorkerDone()
}

// Scheduler deletes each batch a fixed delay after it was scheduled.
//
// Timers are keyed by batch identifier and hold no reference to the batch
// itself: when a timer fires the batch is resolved against the registry, and
// a batch that is already gone makes the expiry a no-op.
type Scheduler struct {
	registry *Registry
	messages ports.Messenger
	logger   ports.Logger
	emitter  BatchEventEmitter
	workers  WorkerTracker
	delay    time.Duration

	mu      sync.Mutex
	timers  map[string]*time.Timer
	stopped bool
}

// NewScheduler creates an expiry scheduler. workers may be nil.
func NewScheduler(
	registry *Registry,
	messages ports.Messenger,
	logger ports.Logger,
	emitter BatchEventEmitter,
	workers WorkerTracker,
	delay time.Duration,
) *Scheduler {
	if delay <= 0 {
		delay = DefaultExpiry
	}
	return &Scheduler{
		registry: registry,
		messages: messages,
		logger:   logger,
		emitter:  emitterOrNoop(emitter),
		workers:  workers,
		delay:    delay,
		timers:   make(map[string]*time.Timer),
	}
}

// Schedule starts the expiry timer for a batch. Scheduling a batch that
// already has a pending timer does nothing.
func (s *Scheduler) Schedule(batchID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.stopped {
		return
	}
	if _, ok := s.timers[batchID]; ok {
		return
	}
	s.timers[batchID] = time.AfterFunc(s.delay, func() { s.fire(batchID) })
	s.logger.Debug("batch expiry scheduled",
		ports.String("batch_id", batchID),
		ports.Duration("delay", s.delay),
	)
}

// Cancel stops the pending timer for a batch without deleting anything.
// Returns false if no timer was pending.
func (s *Scheduler) Cancel(batchID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.timers[batchID]
	if !ok {
		return false
	}
	t.Stop()
	delete(s.timers, batchID)
	return true
}

// Pending returns the number of timers that have not fired yet.
func (s *Scheduler) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.timers)
}

// Stop cancels every pending timer and refuses new ones. Open batches are
// left in the channel.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.stopped = true
	for id, t := range s.timers {
		t.Stop()
		delete(s.timers, id)
	}
}

// Resume accepts new timers again after Stop.
func (s *Scheduler) Resume() {
	s.mu.Lock()
	s.stopped = false
	s.mu.Unlock()
}

func (s *Scheduler) fire(batchID string) {
	s.mu.Lock()
	if _, ok := s.timers[batchID]; !ok || s.stopped {
		s.mu.Unlock()
		return
	}
	delete(s.timers, batchID)
	if s.workers != nil {
		s.workers.AddWorker()
		defer s.workers.WorkerDone()
	}
	s.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), expireTimeout)
	defer cancel()
	s.Expire(ctx, batchID)
}

// Expire removes the batch from the registry and deletes its members.
//
// The batch leaves the registry before any deletion is attempted, so a
// failed delete never leaves it behind, and a second call for the same batch
// does nothing. A single bulk delete is tried first; if it fails every member
// is deleted individually and per-message failures are logged without
// stopping the remaining deletions.
func (s *Scheduler) Expire(ctx context.Context, batchID string) {
	batch, ok := s.registry.PopBatch(batchID)
	if !ok {
		s.logger.Debug("batch already expired", ports.String("batch_id", batchID))
		return
	}

	channelID := batch.ChannelID()
	ids := batch.MemberIDs()

	err := s.messages.BulkDelete(ctx, channelID, ids)
	if err == nil {
		s.logger.Info("batch expired",
			ports.String("batch_id", batchID),
			ports.Int("members", len(ids)),
		)
		s.emitter.OnBatchExpired(batchID, len(ids), true)
		return
	}

	s.logger.Warn("bulk delete failed, deleting members individually",
		ports.String("batch_id", batchID),
		ports.Int("members", len(ids)),
		ports.Err(err),
	)
	for _, id := range ids {
		s.deleteMember(ctx, channelID, batchID, id)
	}
	s.emitter.OnBatchExpired(batchID, len(ids), false)
}

func (s *Scheduler) deleteMember(ctx context.Context, channelID, batchID, messageID string) {
	err := s.messages.DeleteMessage(ctx, channelID, messageID)
	switch {
	case err == nil:
	case errors.Is(err, domain.ErrNotFound):
		s.logger.Info("message already deleted",
			ports.String("batch_id", batchID),
			ports.String("message_id", messageID),
		)
	case errors.Is(err, domain.ErrForbidden):
		s.logger.Warn("missing permission to delete message",
			ports.String("batch_id", batchID),
			ports.String("message_id", messageID),
		)
	default:
		s.logger.Error("failed to delete message",
			ports.String("batch_id", batchID),
			ports.String("message_id", messageID),
			ports.Err(err),
		)
	}
}
