package domain

import "errors"

// Domain errors represent error conditions in the flashguard domain.
// These errors are returned by the public API and can be checked with errors.Is.
var (
	// ErrAlreadyRunning is returned when Start() is called on a running instance.
	ErrAlreadyRunning = errors.New("flashguard: already running")

	// ErrNotRunning is returned when Stop() is called on a stopped instance.
	ErrNotRunning = errors.New("flashguard: not running")

	// ErrShutdownTimeout is returned when graceful shutdown times out.
	ErrShutdownTimeout = errors.New("flashguard: shutdown timeout")

	// ErrInvalidConfig is returned when configuration validation fails.
	ErrInvalidConfig = errors.New("flashguard: invalid configuration")

	// ErrBatchExists is returned when a batch is created for an anchor
	// whose identifier is already registered.
	ErrBatchExists = errors.New("flashguard: batch already exists")

	// ErrNotFound is returned by platform adapters when the target
	// message, webhook or role no longer exists.
	ErrNotFound = errors.New("flashguard: not found")

	// ErrForbidden is returned by platform adapters when the bot lacks
	// the permission required for an operation.
	ErrForbidden = errors.New("flashguard: forbidden")

	// ErrBulkDeleteLimit is returned when a bulk delete request exceeds
	// what the platform accepts in a single call.
	ErrBulkDeleteLimit = errors.New("flashguard: bulk delete limit exceeded")
)
