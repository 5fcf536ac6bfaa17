package flashguard

import (
	"time"

	"github.com/bft-labs/flashguard/internal/app"
)

// State is the lifecycle state of a Bot.
type State int

const (
	StateStopped State = iota
	StateStarting
	StateRunning
	StateStopping
	StateCrashed
)

// String returns a human-readable representation of the state.
func (s State) String() string {
	return app.State(s).String()
}

// StateChangeEvent is emitted on every lifecycle transition.
type StateChangeEvent struct {
	Previous State
	Current  State
	Reason   string
}

// BatchCreatedEvent is emitted when a media post opens a batch.
type BatchCreatedEvent struct {
	BatchID string
	Members int
	At      time.Time
}

// BatchExpiredEvent is emitted after an expired batch has been deleted.
type BatchExpiredEvent struct {
	BatchID string
	Members int
	// Bulk is false when messages had to be deleted one at a time.
	Bulk bool
}

// ReuploadEvent is emitted after each spoiler re-upload attempt.
type ReuploadEvent struct {
	// Error is nil on success.
	Error error
}

// StrayDeletedEvent is emitted when a message is deleted because no batch
// was open.
type StrayDeletedEvent struct{}

// EventHandler receives bot events.
type EventHandler interface {
	OnStateChange(StateChangeEvent)
	OnBatchCreated(BatchCreatedEvent)
	OnBatchExpired(BatchExpiredEvent)
	OnReupload(ReuploadEvent)
	OnStrayDeleted(StrayDeletedEvent)
}

// BaseEventHandler implements EventHandler with no-ops. Embed it to handle
// only some events.
type BaseEventHandler struct{}

func (BaseEventHandler) OnStateChange(StateChangeEvent)   {}
func (BaseEventHandler) OnBatchCreated(BatchCreatedEvent) {}
func (BaseEventHandler) OnBatchExpired(BatchExpiredEvent) {}
func (BaseEventHandler) OnReupload(ReuploadEvent)         {}
func (BaseEventHandler) OnStrayDeleted(StrayDeletedEvent) {}

// eventEmitterWrapper adapts EventHandler and metrics to the internal
// emitter interfaces.
type eventEmitterWrapper struct {
	handler EventHandler
	metrics app.BatchEventEmitter
}

func (e *eventEmitterWrapper) OnStateChange(previous, current app.State, reason string) {
	if e.handler == nil {
		return
	}
	e.handler.OnStateChange(StateChangeEvent{
		Previous: State(previous),
		Current:  State(current),
		Reason:   reason,
	})
}

func (e *eventEmitterWrapper) OnBatchCreated(id string, members int) {
	if e.metrics != nil {
		e.metrics.OnBatchCreated(id, members)
	}
	if e.handler != nil {
		e.handler.OnBatchCreated(BatchCreatedEvent{BatchID: id, Members: members, At: time.Now()})
	}
}

func (e *eventEmitterWrapper) OnBatchExpired(id string, members int, bulk bool) {
	if e.metrics != nil {
		e.metrics.OnBatchExpired(id, members, bulk)
	}
	if e.handler != nil {
		e.handler.OnBatchExpired(BatchExpiredEvent{BatchID: id, Members: members, Bulk: bulk})
	}
}

func (e *eventEmitterWrapper) OnReupload(err error) {
	if e.metrics != nil {
		e.metrics.OnReupload(err)
	}
	if e.handler != nil {
		e.handler.OnReupload(ReuploadEvent{Error: err})
	}
}

func (e *eventEmitterWrapper) OnStrayDeleted() {
	if e.metrics != nil {
		e.metrics.OnStrayDeleted()
	}
	if e.handler != nil {
		e.handler.OnStrayDeleted(StrayDeletedEvent{})
	}
}
