package app

// EventEmitter is called when lifecycle state changes.
type EventEmitter interface {
	OnStateChange(previous, current State, reason string)
}

// BatchEventEmitter is called as batches and stray messages are processed.
// Calls happen synchronously from message handlers and expiry timers, so
// implementations must be safe for concurrent use and return quickly.
type BatchEventEmitter interface {
	// OnBatchCreated is called after a batch is registered.
	OnBatchCreated(batchID string, members int)

	// OnBatchExpired is called after an expired batch has been deleted.
	// bulk is false when the per-message fallback was used.
	OnBatchExpired(batchID string, members int, bulk bool)

	// OnReupload is called after a spoiler re-upload attempt; err is nil
	// on success.
	OnReupload(err error)

	// OnStrayDeleted is called when a non-media message is removed because
	// no batch was open.
	OnStrayDeleted()
}

// noopBatchEmitter discards all batch events.
type noopBatchEmitter struct{}

func (noopBatchEmitter) OnBatchCreated(string, int)       {}
func (noopBatchEmitter) OnBatchExpired(string, int, bool) {}
func (noopBatchEmitter) OnReupload(error)                 {}
func (noopBatchEmitter) OnStrayDeleted()                  {}

func emitterOrNoop(e BatchEventEmitter) BatchEventEmitter {
	if e == nil {
		return noopBatchEmitter{}
	}
	return e
}
