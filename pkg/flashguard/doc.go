// Package flashguard provides an embeddable Discord bot that moderates a
// single media channel.
//
// Every image or video posted to the channel is forced behind a spoiler,
// announced to a role, and opened as a batch. Text replies join the most
// recent batch and text posted while no batch is open is deleted at once.
// Each batch is deleted as a whole a fixed time after it was opened.
//
// # Basic Usage
//
//	cfg := flashguard.Config{
//	    Token:     os.Getenv("DISCORD_TOKEN"),
//	    ChannelID: "123456789012345678",
//	    RoleID:    "234567890123456789",
//	}
//
//	bot, err := flashguard.New(cfg)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if err := bot.Start(ctx); err != nil {
//	    log.Fatal(err)
//	}
//
//	// ... run until shutdown signal ...
//
//	if err := bot.Stop(); err != nil {
//	    log.Printf("shutdown error: %v", err)
//	}
//
// # Configuration
//
// ChannelID is required, and Token is required unless a platform is injected
// with [WithPlatform]. Every other field has a default set by
// [Config.SetDefaults].
//
// # Event Handling
//
// Implement [EventHandler] (embedding [BaseEventHandler] for no-op defaults)
// and pass it via [WithEventHandler]. Events are delivered synchronously from
// message handlers and expiry timers and must return quickly.
//
// # Metrics
//
// [WithMetrics] registers Prometheus collectors for batches and re-uploads
// with the given registerer.
//
// # Lifecycle States
//
// A bot starts in [StateStopped]. [Bot.Start] moves it through
// [StateStarting] to [StateRunning]; [Bot.Stop] moves it through
// [StateStopping] back to [StateStopped], or to [StateCrashed] when pending
// expiries do not finish within the shutdown timeout.
package flashguard
