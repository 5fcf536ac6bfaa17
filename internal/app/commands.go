package app

import (
	"context"
	"fmt"
	"strings"

	"github.com/bft-labs/flashguard/internal/domain"
	"github.com/bft-labs/flashguard/internal/ports"
)

// DefaultCommandPrefix precedes every operator command.
const DefaultCommandPrefix = "!"

// Operator command replies.
const (
	ReplyNotAdministrator = "You need administrator permission to use this command."
	ReplyNoBatches        = "📭 No active batches."
)

const showBatchesCommand = "showbatches"

// Commands handles operator commands.
type Commands struct {
	prefix   string
	registry *Registry
	messages ports.Messenger
	guilds   ports.GuildDirectory
	logger   ports.Logger
}

// NewCommands creates the operator command handler.
func NewCommands(prefix string, registry *Registry, messages ports.Messenger, guilds ports.GuildDirectory, logger ports.Logger) *Commands {
	if prefix == "" {
		prefix = DefaultCommandPrefix
	}
	return &Commands{
		prefix:   prefix,
		registry: registry,
		messages: messages,
		guilds:   guilds,
		logger:   logger,
	}
}

// HandleMessage runs the command in msg, if any. handled is false when the
// message is not a known command.
func (c *Commands) HandleMessage(ctx context.Context, msg *domain.Message) (handled bool, err error) {
	if msg.Author.Bot || msg.WebhookID != "" {
		return false, nil
	}
	fields := strings.Fields(msg.Content)
	if len(fields) == 0 || fields[0] != c.prefix+showBatchesCommand {
		return false, nil
	}
	return true, c.showBatches(ctx, msg)
}

func (c *Commands) showBatches(ctx context.Context, msg *domain.Message) error {
	admin, err := c.guilds.IsAdministrator(ctx, msg.GuildID, msg.ChannelID, msg.Author.ID)
	if err != nil {
		return fmt.Errorf("check permissions: %w", err)
	}

	reply := ReplyNotAdministrator
	if admin {
		reply = FormatSnapshot(c.registry.Snapshot())
	} else {
		c.logger.Info("showbatches denied", ports.String("user_id", msg.Author.ID))
	}

	if _, err := c.messages.SendMessage(ctx, msg.ChannelID, domain.OutboundMessage{Content: reply}); err != nil {
		return fmt.Errorf("send reply: %w", err)
	}
	return nil
}

// FormatSnapshot renders open batches for the showbatches command.
func FormatSnapshot(batches []domain.BatchSummary) string {
	if len(batches) == 0 {
		return ReplyNoBatches
	}
	blocks := make([]string, len(batches))
	for i, b := range batches {
		blocks[i] = fmt.Sprintf("**Batch %d**\n- Start message ID: `%s`\n- Messages in batch: `%d`", i+1, b.ID, b.Members)
	}
	return strings.Join(blocks, "\n\n")
}
