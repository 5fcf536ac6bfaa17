package flashguard

import (
	"context"
	"fmt"
	"sync"

	"github.com/bft-labs/flashguard/internal/adapters/discord"
	httpAdapter "github.com/bft-labs/flashguard/internal/adapters/http"
	logAdapter "github.com/bft-labs/flashguard/internal/adapters/log"
	"github.com/bft-labs/flashguard/internal/adapters/metrics"
	"github.com/bft-labs/flashguard/internal/app"
	"github.com/bft-labs/flashguard/internal/domain"
	"github.com/bft-labs/flashguard/internal/ports"
)

// Bot moderates one channel. Use New() to create an instance, then Start()
// to connect.
type Bot struct {
	config    Config
	opts      options
	lifecycle *app.Lifecycle
	platform  ports.Platform
	registry  *app.Registry
	scheduler *app.Scheduler
	router    *app.Router
	commands  *app.Commands
	logger    ports.Logger
	backoff   *app.Backoff

	mu         sync.Mutex
	subscribed bool
}

// New creates a bot with the given configuration.
// The bot is created in StateStopped; call Start() to connect.
// Returns an error if the configuration is invalid.
func New(cfg Config, opts ...Option) (*Bot, error) {
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}

	logger := o.logger
	if logger == nil {
		logger = logAdapter.NewNoopLogger()
	}

	platform := o.platform
	if platform == nil {
		if cfg.Token == "" {
			return nil, fmt.Errorf("%w: token is required", domain.ErrInvalidConfig)
		}
		p, err := discord.New(cfg.Token, logger)
		if err != nil {
			return nil, err
		}
		platform = p
	}

	downloader := o.downloader
	if downloader == nil {
		downloader = httpAdapter.NewDownloader(logger, cfg.DownloadTimeout)
	}

	registry := app.NewRegistry()

	emitter := &eventEmitterWrapper{handler: o.eventHandler}
	if o.registerer != nil {
		emitter.metrics = metrics.NewPrometheus(o.registerer, registry.Len)
	}

	lifecycle := app.NewLifecycle(logger, emitter)
	enforcer := app.NewEnforcer(platform, platform, downloader, logger, emitter, cfg.RelayName)
	scheduler := app.NewScheduler(registry, platform, logger, emitter, lifecycle, cfg.Expiry)
	router := app.NewRouter(
		app.RouterConfig{ChannelID: cfg.ChannelID, RoleID: cfg.RoleID},
		platform, platform, platform,
		enforcer, registry, scheduler, logger, emitter,
	)
	commands := app.NewCommands(cfg.CommandPrefix, registry, platform, platform, logger)

	return &Bot{
		config:    cfg,
		opts:      o,
		lifecycle: lifecycle,
		platform:  platform,
		registry:  registry,
		scheduler: scheduler,
		router:    router,
		commands:  commands,
		logger:    logger,
		backoff:   app.NewBackoff(o.backoffInitial, o.backoffMax),
	}, nil
}

// Start connects to the platform and begins moderating. Failed connection
// attempts are retried with exponential backoff. Returns once the bot is
// running, or with the last connection error.
func (b *Bot) Start(ctx context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.lifecycle.CanStart() {
		return domain.ErrAlreadyRunning
	}
	if err := b.lifecycle.TransitionTo(app.StateStarting, "Start() called"); err != nil {
		return err
	}

	if !b.subscribed {
		b.platform.OnMessage(b.handleMessage)
		b.subscribed = true
	}

	if err := b.open(ctx); err != nil {
		b.logger.Error("failed to connect", ports.Err(err))
		_ = b.lifecycle.TransitionTo(app.StateCrashed, "connect failed")
		return err
	}

	b.scheduler.Resume()
	// Batches left over from a previous run get a fresh expiry.
	for _, s := range b.registry.Snapshot() {
		b.scheduler.Schedule(s.ID)
	}

	b.logger.Info("moderating channel",
		ports.String("channel_id", b.config.ChannelID),
		ports.Duration("expiry", b.config.Expiry),
	)
	return b.lifecycle.TransitionTo(app.StateRunning, "connected")
}

// open retries platform.Open; every call starts from the initial delay.
func (b *Bot) open(ctx context.Context) error {
	backoff := b.backoff
	backoff.Reset()
	var err error
	for attempt := 1; attempt <= b.opts.openAttempts; attempt++ {
		if err = b.platform.Open(ctx); err == nil {
			return nil
		}
		b.logger.Warn("connect attempt failed",
			ports.Int("attempt", attempt),
			ports.Duration("retry_in", backoff.Current()),
			ports.Err(err),
		)
		if attempt == b.opts.openAttempts {
			break
		}
		if werr := backoff.Wait(ctx); werr != nil {
			return werr
		}
	}
	return fmt.Errorf("open platform after %d attempts: %w", b.opts.openAttempts, err)
}

// Stop disconnects, cancels pending expiries and waits for in-flight
// messages and deletions. Open batches are left in the channel.
// Returns nil on graceful shutdown, ErrShutdownTimeout if forced.
func (b *Bot) Stop() error {
	b.mu.Lock()
	if !b.lifecycle.CanStop() {
		b.mu.Unlock()
		return domain.ErrNotRunning
	}
	if err := b.lifecycle.TransitionTo(app.StateStopping, "Stop() called"); err != nil {
		b.mu.Unlock()
		return err
	}
	b.mu.Unlock()

	if err := b.platform.Close(); err != nil {
		b.logger.Warn("failed to close platform session", ports.Err(err))
	}
	b.scheduler.Stop()

	err := b.lifecycle.WaitWithTimeout(app.ShutdownTimeout)
	if err != nil {
		_ = b.lifecycle.TransitionTo(app.StateCrashed, "shutdown timeout")
	} else {
		_ = b.lifecycle.TransitionTo(app.StateStopped, "graceful shutdown")
	}
	return err
}

// Status returns the current lifecycle state.
// Safe to call concurrently from any goroutine.
func (b *Bot) Status() State {
	return State(b.lifecycle.State())
}

// OpenBatches returns the number of batches awaiting expiry.
func (b *Bot) OpenBatches() int {
	return b.registry.Len()
}

func (b *Bot) handleMessage(ctx context.Context, msg *domain.Message) {
	if !b.lifecycle.TryAddWorker() {
		return
	}
	defer b.lifecycle.WorkerDone()

	if _, err := b.commands.HandleMessage(ctx, msg); err != nil {
		b.logger.Error("command failed",
			ports.String("message_id", msg.ID),
			ports.Err(err),
		)
	}
	if err := b.router.HandleMessage(ctx, msg); err != nil {
		b.logger.Error("failed to handle message",
			ports.String("message_id", msg.ID),
			ports.String("channel_id", msg.ChannelID),
			ports.Err(err),
		)
	}
}
