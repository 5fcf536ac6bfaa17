// Package discord implements the platform ports on top of discordgo.
package discord

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/bwmarrin/discordgo"

	"github.com/bft-labs/flashguard/internal/domain"
	"github.com/bft-labs/flashguard/internal/ports"
)

// MaxBulkDelete is the largest number of messages one bulk delete request
// accepts.
const MaxBulkDelete = 100

// Intents requested when identifying with the gateway.
const Intents = discordgo.IntentsGuilds |
	discordgo.IntentsGuildMessages |
	discordgo.IntentsMessageContent |
	discordgo.IntentsGuildMembers

// restAPI is the subset of *discordgo.Session used for REST calls.
type restAPI interface {
	ChannelMessageDelete(channelID, messageID string, options ...discordgo.RequestOption) error
	ChannelMessagesBulkDelete(channelID string, messages []string, options ...discordgo.RequestOption) error
	ChannelMessageSendComplex(channelID string, data *discordgo.MessageSend, options ...discordgo.RequestOption) (*discordgo.Message, error)
	ChannelMessages(channelID string, limit int, beforeID, afterID, aroundID string, options ...discordgo.RequestOption) ([]*discordgo.Message, error)
	GuildRoles(guildID string, options ...discordgo.RequestOption) ([]*discordgo.Role, error)
	UserChannelPermissions(userID, channelID string, fetchOptions ...discordgo.RequestOption) (int64, error)
	WebhookCreate(channelID, name, avatar string, options ...discordgo.RequestOption) (*discordgo.Webhook, error)
	WebhookDelete(webhookID string, options ...discordgo.RequestOption) error
	WebhookExecute(webhookID, token string, wait bool, data *discordgo.WebhookParams, options ...discordgo.RequestOption) (*discordgo.Message, error)
}

// Platform implements ports.Platform for a Discord bot account.
type Platform struct {
	session *discordgo.Session
	api     restAPI
	state   *discordgo.State
	logger  ports.Logger

	mu       sync.RWMutex
	selfID   string
	ctx      context.Context
	cancel   context.CancelFunc
	handlers []ports.MessageHandler
	removers []func()
}

// New creates a platform for the given bot token. The session is not
// opened until Open is called.
func New(token string, logger ports.Logger) (*Platform, error) {
	token = strings.TrimPrefix(strings.TrimSpace(token), "Bot ")
	if token == "" {
		return nil, fmt.Errorf("%w: empty bot token", domain.ErrInvalidConfig)
	}
	session, err := discordgo.New("Bot " + token)
	if err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}
	session.Identify.Intents = Intents
	session.ShouldReconnectOnError = true
	session.LogLevel = discordgo.LogWarning
	routeLibraryLogs(logger)

	p := newPlatform(session, session.State, logger)
	p.session = session
	return p, nil
}

func newPlatform(api restAPI, state *discordgo.State, logger ports.Logger) *Platform {
	p := &Platform{
		api:    api,
		state:  state,
		logger: logger,
	}
	p.renewContext()
	return p
}

// renewContext replaces the handler context once Close has cancelled it.
func (p *Platform) renewContext() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.ctx != nil && p.ctx.Err() == nil {
		return
	}
	p.ctx, p.cancel = context.WithCancel(context.Background())
}

// Open connects to the gateway and waits for the session to become ready.
func (p *Platform) Open(ctx context.Context) error {
	if p.session == nil {
		return fmt.Errorf("discord: no session")
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	p.renewContext()

	p.mu.Lock()
	if p.removers == nil {
		p.removers = append(p.removers,
			p.session.AddHandler(p.onReady),
			p.session.AddHandler(p.onMessageCreate),
		)
	}
	p.mu.Unlock()

	if err := p.session.Open(); err != nil {
		return fmt.Errorf("open gateway: %w", err)
	}
	if p.state != nil && p.state.User != nil {
		p.setSelf(p.state.User.ID)
	}
	p.logger.Info("connected to discord", ports.String("user_id", p.SelfID()))
	return nil
}

// Close disconnects from the gateway and cancels in-flight handler contexts.
func (p *Platform) Close() error {
	p.mu.Lock()
	for _, remove := range p.removers {
		remove()
	}
	p.removers = nil
	cancel := p.cancel
	p.mu.Unlock()

	cancel()
	if p.session == nil {
		return nil
	}
	return p.session.Close()
}

// OnMessage implements ports.Gateway.
func (p *Platform) OnMessage(handler ports.MessageHandler) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.handlers = append(p.handlers, handler)
}

// SelfID implements ports.Gateway.
func (p *Platform) SelfID() string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.selfID
}

func (p *Platform) setSelf(id string) {
	p.mu.Lock()
	p.selfID = id
	p.mu.Unlock()
}

func (p *Platform) onReady(_ *discordgo.Session, r *discordgo.Ready) {
	if r.User != nil {
		p.setSelf(r.User.ID)
	}
}

func (p *Platform) onMessageCreate(_ *discordgo.Session, m *discordgo.MessageCreate) {
	p.dispatch(toMessage(m.Message, m.Member))
}

func (p *Platform) dispatch(msg *domain.Message) {
	if msg == nil {
		return
	}
	p.mu.RLock()
	handlers := p.handlers
	ctx := p.ctx
	p.mu.RUnlock()
	for _, h := range handlers {
		h(ctx, msg)
	}
}

// SendMessage implements ports.Messenger.
func (p *Platform) SendMessage(ctx context.Context, channelID string, out domain.OutboundMessage) (*domain.Message, error) {
	m, err := p.api.ChannelMessageSendComplex(channelID, &discordgo.MessageSend{
		Content:         out.Content,
		AllowedMentions: allowedMentions(out.MentionRoleIDs),
	}, discordgo.WithContext(ctx))
	if err != nil {
		return nil, mapError(err)
	}
	return toMessage(m, nil), nil
}

// DeleteMessage implements ports.Messenger.
func (p *Platform) DeleteMessage(ctx context.Context, channelID, messageID string) error {
	return mapError(p.api.ChannelMessageDelete(channelID, messageID, discordgo.WithContext(ctx)))
}

// BulkDelete implements ports.Messenger. Discord only bulk deletes between
// 2 and 100 messages younger than two weeks; smaller sets are deleted
// directly and larger sets are rejected.
func (p *Platform) BulkDelete(ctx context.Context, channelID string, messageIDs []string) error {
	switch n := len(messageIDs); {
	case n == 0:
		return nil
	case n == 1:
		return p.DeleteMessage(ctx, channelID, messageIDs[0])
	case n > MaxBulkDelete:
		return fmt.Errorf("%w: %d messages", domain.ErrBulkDeleteLimit, n)
	}
	return mapError(p.api.ChannelMessagesBulkDelete(channelID, messageIDs, discordgo.WithContext(ctx)))
}

// LatestMessage implements ports.Messenger.
func (p *Platform) LatestMessage(ctx context.Context, channelID string) (*domain.Message, error) {
	msgs, err := p.api.ChannelMessages(channelID, 1, "", "", "", discordgo.WithContext(ctx))
	if err != nil {
		return nil, mapError(err)
	}
	if len(msgs) == 0 {
		return nil, nil
	}
	return toMessage(msgs[0], nil), nil
}

// RoleMention implements ports.GuildDirectory. The state cache is consulted
// before falling back to the REST API.
func (p *Platform) RoleMention(ctx context.Context, guildID, roleID string) (string, bool, error) {
	if p.state != nil {
		if role, err := p.state.Role(guildID, roleID); err == nil {
			return role.Mention(), true, nil
		}
	}
	roles, err := p.api.GuildRoles(guildID, discordgo.WithContext(ctx))
	if err != nil {
		return "", false, mapError(err)
	}
	for _, role := range roles {
		if role.ID == roleID {
			return role.Mention(), true, nil
		}
	}
	return "", false, nil
}

// IsAdministrator implements ports.GuildDirectory.
func (p *Platform) IsAdministrator(ctx context.Context, _, channelID, userID string) (bool, error) {
	perms, err := p.api.UserChannelPermissions(userID, channelID, discordgo.WithContext(ctx))
	if err != nil {
		return false, mapError(err)
	}
	return perms&discordgo.PermissionAdministrator != 0, nil
}

// CreateRelay implements ports.RelayService using a channel webhook.
func (p *Platform) CreateRelay(ctx context.Context, channelID, name string) (*domain.Relay, error) {
	wh, err := p.api.WebhookCreate(channelID, name, "", discordgo.WithContext(ctx))
	if err != nil {
		return nil, mapError(err)
	}
	return &domain.Relay{
		ID:        wh.ID,
		Token:     wh.Token,
		ChannelID: channelID,
		Name:      name,
	}, nil
}

// DeleteRelay implements ports.RelayService.
func (p *Platform) DeleteRelay(ctx context.Context, relay *domain.Relay) error {
	return mapError(p.api.WebhookDelete(relay.ID, discordgo.WithContext(ctx)))
}

// ExecuteRelay implements ports.RelayService. The post waits for Discord to
// return the created message.
func (p *Platform) ExecuteRelay(ctx context.Context, relay *domain.Relay, post domain.RelayPost) (*domain.Message, error) {
	m, err := p.api.WebhookExecute(relay.ID, relay.Token, true, &discordgo.WebhookParams{
		Content:         post.Content,
		Username:        post.Username,
		AvatarURL:       post.AvatarURL,
		Files:           toFiles(post.Files),
		AllowedMentions: allowedMentions(nil),
	}, discordgo.WithContext(ctx))
	if err != nil {
		return nil, mapError(err)
	}
	msg := toMessage(m, nil)
	if msg != nil && msg.ChannelID == "" {
		msg.ChannelID = relay.ChannelID
	}
	return msg, nil
}

var _ ports.Platform = (*Platform)(nil)
