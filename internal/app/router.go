package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/bft-labs/flashguard/internal/domain"
	"github.com/bft-labs/flashguard/internal/ports"
)

// RouterConfig identifies the monitored channel and the role to announce.
type RouterConfig struct {
	ChannelID string

	// RoleID is the role pinged for each new media post. Empty disables
	// announcements.
	RoleID string
}

// Router decides what happens to every message posted in the monitored channel.
type Router struct {
	config    RouterConfig
	gateway   ports.Gateway
	messages  ports.Messenger
	guilds    ports.GuildDirectory
	enforcer  *Enforcer
	registry  *Registry
	scheduler *Scheduler
	logger    ports.Logger
	emitter   BatchEventEmitter
}

// NewRouter creates a channel message router.
func NewRouter(
	config RouterConfig,
	gateway ports.Gateway,
	messages ports.Messenger,
	guilds ports.GuildDirectory,
	enforcer *Enforcer,
	registry *Registry,
	scheduler *Scheduler,
	logger ports.Logger,
	emitter BatchEventEmitter,
) *Router {
	return &Router{
		config:    config,
		gateway:   gateway,
		messages:  messages,
		guilds:    guilds,
		enforcer:  enforcer,
		registry:  registry,
		scheduler: scheduler,
		logger:    logger,
		emitter:   emitterOrNoop(emitter),
	}
}

// HandleMessage routes one inbound message.
//
// Media posts are spoiler-enforced, announced and opened as a new batch.
// Other messages join the latest open batch, or are deleted at once when no
// batch is open. Messages from bots, webhooks and other channels are ignored.
//
// A non-media message that arrives while a media post is still being
// re-uploaded sees no open batch and is deleted.
func (r *Router) HandleMessage(ctx context.Context, msg *domain.Message) error {
	if msg.ChannelID != r.config.ChannelID {
		return nil
	}
	if r.ignored(msg) {
		return nil
	}

	if regulated := RegulatedAttachments(msg.Attachments); len(regulated) > 0 {
		return r.handleMedia(ctx, msg, regulated)
	}
	return r.handleReply(ctx, msg)
}

func (r *Router) ignored(msg *domain.Message) bool {
	if msg.Author.Bot || msg.WebhookID != "" {
		return true
	}
	self := r.gateway.SelfID()
	return self != "" && msg.Author.ID == self
}

func (r *Router) handleMedia(ctx context.Context, msg *domain.Message, regulated []domain.Attachment) error {
	canonical, err := r.enforcer.Enforce(ctx, msg, regulated)
	if err != nil {
		return fmt.Errorf("enforce spoiler on %s: %w", msg.ID, err)
	}
	if canonical == nil {
		return nil
	}

	announcement := r.announce(ctx, msg)

	batchID, err := r.registry.CreateBatch(canonical)
	if err != nil {
		return err
	}
	if announcement != nil {
		r.registry.AppendAnnouncement(batchID, announcement)
	}
	r.scheduler.Schedule(batchID)

	members := 1
	if announcement != nil {
		members = 2
	}
	r.logger.Info("batch opened",
		ports.String("batch_id", batchID),
		ports.String("author", msg.Author.Username),
		ports.Bool("reuploaded", canonical.ID != msg.ID),
		ports.Bool("announced", announcement != nil),
	)
	r.emitter.OnBatchCreated(batchID, members)
	return nil
}

// announce pings the configured role. Failures are logged; the batch is
// opened regardless so the media post still expires.
func (r *Router) announce(ctx context.Context, msg *domain.Message) *domain.Message {
	if r.config.RoleID == "" {
		return nil
	}
	mention, ok, err := r.guilds.RoleMention(ctx, msg.GuildID, r.config.RoleID)
	if err != nil {
		r.logger.Warn("failed to resolve mention role",
			ports.String("role_id", r.config.RoleID),
			ports.Err(err),
		)
		return nil
	}
	if !ok {
		r.logger.Debug("mention role not found", ports.String("role_id", r.config.RoleID))
		return nil
	}

	sent, err := r.messages.SendMessage(ctx, msg.ChannelID, domain.OutboundMessage{
		Content:        mention,
		MentionRoleIDs: []string{r.config.RoleID},
	})
	if err != nil {
		r.logger.Error("failed to send announcement",
			ports.String("channel_id", msg.ChannelID),
			ports.Err(err),
		)
		return nil
	}
	return sent
}

func (r *Router) handleReply(ctx context.Context, msg *domain.Message) error {
	if batchID, ok := r.registry.AppendToLatest(msg); ok {
		r.logger.Debug("message added to batch",
			ports.String("batch_id", batchID),
			ports.String("message_id", msg.ID),
		)
		return nil
	}

	err := r.messages.DeleteMessage(ctx, msg.ChannelID, msg.ID)
	switch {
	case err == nil:
		r.logger.Debug("stray message deleted",
			ports.String("message_id", msg.ID),
			ports.String("author", msg.Author.Username),
		)
		r.emitter.OnStrayDeleted()
		return nil
	case errors.Is(err, domain.ErrNotFound):
		return nil
	case errors.Is(err, domain.ErrForbidden):
		r.logger.Warn("missing permission to delete stray message",
			ports.String("message_id", msg.ID),
			ports.String("channel_id", msg.ChannelID),
		)
		return nil
	default:
		return fmt.Errorf("delete stray message %s: %w", msg.ID, err)
	}
}
