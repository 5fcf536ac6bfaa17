package flashguard

import (
	"fmt"
	"time"

	"github.com/bft-labs/flashguard/internal/app"
	"github.com/bft-labs/flashguard/internal/domain"
)

// Default configuration values.
const (
	DefaultExpiry          = app.DefaultExpiry
	DefaultCommandPrefix   = app.DefaultCommandPrefix
	DefaultRelayName       = app.DefaultRelayName
	DefaultDownloadTimeout = 30 * time.Second
)

// Config holds the configuration of a moderation bot.
type Config struct {
	// Token is the bot token used to connect to Discord.
	Token string

	// ChannelID is the moderated channel.
	ChannelID string

	// RoleID is pinged for every new media post. Empty disables the ping.
	RoleID string

	// Expiry is how long a batch stays visible after it is opened.
	Expiry time.Duration

	// CommandPrefix precedes operator commands such as "showbatches".
	CommandPrefix string

	// RelayName is the display name of the temporary webhook used for
	// spoiler re-uploads.
	RelayName string

	// DownloadTimeout bounds each attachment download.
	DownloadTimeout time.Duration
}

// SetDefaults fills zero-valued fields with their defaults.
func (c *Config) SetDefaults() {
	if c.Expiry <= 0 {
		c.Expiry = DefaultExpiry
	}
	if c.CommandPrefix == "" {
		c.CommandPrefix = DefaultCommandPrefix
	}
	if c.RelayName == "" {
		c.RelayName = DefaultRelayName
	}
	if c.DownloadTimeout <= 0 {
		c.DownloadTimeout = DefaultDownloadTimeout
	}
}

// Validate checks the configuration. The token is checked separately by New
// because an injected platform does not need one.
func (c Config) Validate() error {
	if c.ChannelID == "" {
		return fmt.Errorf("%w: channel ID is required", domain.ErrInvalidConfig)
	}
	if c.Expiry <= 0 {
		return fmt.Errorf("%w: expiry must be positive", domain.ErrInvalidConfig)
	}
	return nil
}
