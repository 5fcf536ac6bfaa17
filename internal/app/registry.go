package app

import (
	"fmt"
	"sync"

	"github.com/bft-labs/flashguard/internal/domain"
)

// Registry holds the open batches in creation order.
//
// Only the most recently created batch accepts trailing members. Every
// method holds the registry lock for its whole read-then-write step and never
// across I/O, so concurrent message handlers cannot interleave between
// choosing the latest batch and appending to it.
type Registry struct {
	mu      sync.Mutex
	order   []string
	batches map[string]*domain.Batch
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		batches: make(map[string]*domain.Batch),
	}
}

// CreateBatch registers a new batch anchored at the given message and
// returns its identifier. An existing batch with the same identifier is
// never overwritten.
func (r *Registry) CreateBatch(anchor *domain.Message) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.batches[anchor.ID]; ok {
		return "", fmt.Errorf("%w: %s", domain.ErrBatchExists, anchor.ID)
	}

	b := domain.NewBatch(anchor)
	r.batches[b.ID] = b
	r.order = append(r.order, b.ID)
	return b.ID, nil
}

// AppendAnnouncement adds the announcement message to the batch.
// It is a no-op if the batch has already been removed.
func (r *Registry) AppendAnnouncement(batchID string, msg *domain.Message) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if b, ok := r.batches[batchID]; ok {
		b.Add(msg)
	}
}

// AppendToLatest adds the message to the most recently created batch.
// Returns false without mutating anything when the registry is empty.
func (r *Registry) AppendToLatest(msg *domain.Message) (string, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if len(r.order) == 0 {
		return "", false
	}
	id := r.order[len(r.order)-1]
	r.batches[id].Add(msg)
	return id, true
}

// PopBatch removes and returns the batch. The second return value is false
// if the batch was already removed.
func (r *Registry) PopBatch(batchID string) (*domain.Batch, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	b, ok := r.batches[batchID]
	if !ok {
		return nil, false
	}
	delete(r.batches, batchID)
	for i, id := range r.order {
		if id == batchID {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	return b, true
}

// Snapshot returns the open batches and their member counts in creation order.
func (r *Registry) Snapshot() []domain.BatchSummary {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]domain.BatchSummary, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, domain.BatchSummary{ID: id, Members: r.batches[id].Size()})
	}
	return out
}

// Len returns the number of open batches.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.order)
}
