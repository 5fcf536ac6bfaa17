package flashguard

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/bft-labs/flashguard/internal/app"
	"github.com/bft-labs/flashguard/internal/domain"
	"github.com/bft-labs/flashguard/internal/ports"
)

// Logger is the interface for structured logging.
type Logger = ports.Logger

// LogField represents a structured log field.
type LogField = ports.Field

// Platform is the chat platform the bot talks to. The default connects to
// Discord with the configured token.
type Platform = ports.Platform

// Downloader fetches attachment contents for re-upload.
type Downloader = ports.Downloader

// MessageHandler receives every message delivered by a Platform.
type MessageHandler = ports.MessageHandler

// Types exchanged with a Platform implementation.
type (
	Message         = domain.Message
	Author          = domain.Author
	Attachment      = domain.Attachment
	OutboundMessage = domain.OutboundMessage
	Relay           = domain.Relay
	RelayPost       = domain.RelayPost
	File            = domain.File
)

// Option configures optional behavior of a Bot.
type Option func(*options)

type options struct {
	logger         ports.Logger
	platform       ports.Platform
	downloader     ports.Downloader
	eventHandler   EventHandler
	registerer     prometheus.Registerer
	openAttempts   int
	backoffInitial time.Duration
	backoffMax     time.Duration
}

// DefaultOpenAttempts is how many times Start tries to connect before giving up.
const DefaultOpenAttempts = 5

func defaultOptions() options {
	return options{
		openAttempts:   DefaultOpenAttempts,
		backoffInitial: app.DefaultBackoffInitial,
		backoffMax:     app.DefaultBackoffMax,
	}
}

// WithLogger sets a custom logger for structured logging.
// If not provided, a no-op logger is used (no output).
func WithLogger(logger Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithPlatform replaces the Discord connection, typically with a fake in tests.
func WithPlatform(platform Platform) Option {
	return func(o *options) {
		o.platform = platform
	}
}

// WithDownloader replaces the HTTP attachment downloader.
func WithDownloader(downloader Downloader) Option {
	return func(o *options) {
		o.downloader = downloader
	}
}

// WithEventHandler sets a handler for bot events.
// If not provided, no events are emitted.
func WithEventHandler(handler EventHandler) Option {
	return func(o *options) {
		o.eventHandler = handler
	}
}

// WithMetrics registers Prometheus collectors with reg.
func WithMetrics(reg prometheus.Registerer) Option {
	return func(o *options) {
		o.registerer = reg
	}
}

// WithReconnect sets how Start retries a failed connection: up to attempts
// tries, waiting with exponential backoff between initial and max.
func WithReconnect(attempts int, initial, max time.Duration) Option {
	return func(o *options) {
		if attempts > 0 {
			o.openAttempts = attempts
		}
		o.backoffInitial = initial
		o.backoffMax = max
	}
}
