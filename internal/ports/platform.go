package ports

import (
	"context"

	"github.com/bft-labs/flashguard/internal/domain"
)

// MessageHandler receives every message the gateway delivers.
// Handlers may be invoked concurrently.
type MessageHandler func(ctx context.Context, msg *domain.Message)

// Gateway manages the platform session.
type Gateway interface {
	// Open establishes the session. Messages are delivered to registered
	// handlers once Open returns.
	Open(ctx context.Context) error

	// Close tears the session down.
	Close() error

	// OnMessage registers a handler for inbound messages.
	OnMessage(handler MessageHandler)

	// SelfID returns the bot's own user identifier once the session is ready.
	SelfID() string
}

// Messenger sends, deletes and reads channel messages.
type Messenger interface {
	// SendMessage posts a message as the bot.
	SendMessage(ctx context.Context, channelID string, msg domain.OutboundMessage) (*domain.Message, error)

	// DeleteMessage deletes a single message.
	// Returns an error wrapping domain.ErrNotFound or domain.ErrForbidden
	// when the platform reports those conditions.
	DeleteMessage(ctx context.Context, channelID, messageID string) error

	// BulkDelete deletes several messages in one request. It fails as a
	// whole if any message cannot be bulk-deleted.
	BulkDelete(ctx context.Context, channelID string, messageIDs []string) error

	// LatestMessage returns the most recent message in the channel, or nil
	// if the channel is empty.
	LatestMessage(ctx context.Context, channelID string) (*domain.Message, error)
}

// GuildDirectory resolves roles and permissions.
type GuildDirectory interface {
	// RoleMention returns the mention string for a role. ok is false when
	// the role does not exist in the guild.
	RoleMention(ctx context.Context, guildID, roleID string) (mention string, ok bool, err error)

	// IsAdministrator reports whether the user holds administrative
	// permission in the given channel.
	IsAdministrator(ctx context.Context, guildID, channelID, userID string) (bool, error)
}

// RelayService manages transient posting identities.
type RelayService interface {
	// CreateRelay creates a named posting identity bound to the channel.
	CreateRelay(ctx context.Context, channelID, name string) (*domain.Relay, error)

	// DeleteRelay removes a posting identity.
	DeleteRelay(ctx context.Context, relay *domain.Relay) error

	// ExecuteRelay posts through the relay. The returned message may be nil
	// if the platform does not echo the posted message back.
	ExecuteRelay(ctx context.Context, relay *domain.Relay, post domain.RelayPost) (*domain.Message, error)
}

// Platform is the full set of operations a chat platform adapter provides.
type Platform interface {
	Gateway
	Messenger
	GuildDirectory
	RelayService
}

// Downloader fetches the bytes behind an attachment URL.
type Downloader interface {
	Download(ctx context.Context, url string) ([]byte, error)
}
