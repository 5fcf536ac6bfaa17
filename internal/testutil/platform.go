// Package testutil provides in-memory fakes of the ports used by flashguard
// tests.
package testutil

import (
	"context"
	"fmt"
	"sync"

	"github.com/bft-labs/flashguard/internal/domain"
	"github.com/bft-labs/flashguard/internal/ports"
)

// Platform is an in-memory ports.Platform. Messages posted through it are
// kept per channel so tests can assert on what remains visible.
type Platform struct {
	mu sync.Mutex

	Self string

	// Roles maps role ID to its mention string.
	Roles map[string]string
	// Admins lists user IDs holding administrative permission.
	Admins map[string]bool

	// Injected failures.
	OpenErr        error
	OpenFailures   int
	BulkDeleteErr  error
	DeleteErr      map[string]error
	CreateRelayErr error
	DeleteRelayErr error
	ExecuteErr     error
	SendErr        error
	// EchoRelay controls whether ExecuteRelay returns the posted message.
	EchoRelay bool
	// ExecuteEntered, when set, receives a value as ExecuteRelay begins.
	ExecuteEntered chan struct{}
	// ExecuteGate, when set, blocks ExecuteRelay until it is closed.
	ExecuteGate chan struct{}

	handlers []ports.MessageHandler
	channels map[string][]*domain.Message
	nextID   int
	opened   bool

	Deleted       []string
	BulkDeletes   [][]string
	Sent          []*domain.Message
	Mentions      [][]string
	RelayPosts    []domain.RelayPost
	RelaysCreated int
	RelaysDeleted int
	OpenCalls     int
}

// NewPlatform creates an empty fake platform whose bot user is "bot".
func NewPlatform() *Platform {
	return &Platform{
		Self:      "bot",
		Roles:     map[string]string{},
		Admins:    map[string]bool{},
		DeleteErr: map[string]error{},
		EchoRelay: true,
		channels:  map[string][]*domain.Message{},
		nextID:    1000,
	}
}

func (p *Platform) newID() string {
	p.nextID++
	return fmt.Sprintf("%d", p.nextID)
}

// Post records a user message in its channel and returns it, without
// delivering it to handlers.
func (p *Platform) Post(msg *domain.Message) *domain.Message {
	p.mu.Lock()
	defer p.mu.Unlock()
	if msg.ID == "" {
		msg.ID = p.newID()
	}
	p.channels[msg.ChannelID] = append(p.channels[msg.ChannelID], msg)
	return msg
}

// Deliver posts the message and invokes every registered handler synchronously.
func (p *Platform) Deliver(ctx context.Context, msg *domain.Message) {
	p.Post(msg)
	p.mu.Lock()
	handlers := append([]ports.MessageHandler(nil), p.handlers...)
	p.mu.Unlock()
	for _, h := range handlers {
		h(ctx, msg)
	}
}

// Visible returns the IDs of the messages still present in the channel.
func (p *Platform) Visible(channelID string) []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	var ids []string
	for _, m := range p.channels[channelID] {
		ids = append(ids, m.ID)
	}
	return ids
}

// Open implements ports.Gateway.
func (p *Platform) Open(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.OpenCalls++
	if p.OpenFailures > 0 {
		p.OpenFailures--
		return fmt.Errorf("fake open failure")
	}
	if p.OpenErr != nil {
		return p.OpenErr
	}
	p.opened = true
	return nil
}

// Close implements ports.Gateway.
func (p *Platform) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.opened = false
	return nil
}

// Opened reports whether the session is open.
func (p *Platform) Opened() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.opened
}

// OnMessage implements ports.Gateway.
func (p *Platform) OnMessage(handler ports.MessageHandler) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.handlers = append(p.handlers, handler)
}

// SelfID implements ports.Gateway.
func (p *Platform) SelfID() string {
	return p.Self
}

// SendMessage implements ports.Messenger.
func (p *Platform) SendMessage(ctx context.Context, channelID string, out domain.OutboundMessage) (*domain.Message, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.SendErr != nil {
		return nil, p.SendErr
	}
	msg := &domain.Message{
		ID:        p.newID(),
		ChannelID: channelID,
		Content:   out.Content,
		Author:    domain.Author{ID: p.Self, Username: "flashguard", Bot: true},
	}
	p.channels[channelID] = append(p.channels[channelID], msg)
	p.Sent = append(p.Sent, msg)
	p.Mentions = append(p.Mentions, out.MentionRoleIDs)
	return msg, nil
}

// DeleteMessage implements ports.Messenger.
func (p *Platform) DeleteMessage(ctx context.Context, channelID, messageID string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.DeleteErr[messageID]; err != nil {
		return err
	}
	if !p.remove(channelID, messageID) {
		return fmt.Errorf("delete %s: %w", messageID, domain.ErrNotFound)
	}
	p.Deleted = append(p.Deleted, messageID)
	return nil
}

// BulkDelete implements ports.Messenger.
func (p *Platform) BulkDelete(ctx context.Context, channelID string, messageIDs []string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.BulkDeleteErr != nil {
		return p.BulkDeleteErr
	}
	for _, id := range messageIDs {
		if !p.has(channelID, id) {
			return fmt.Errorf("bulk delete %s: %w", id, domain.ErrNotFound)
		}
	}
	for _, id := range messageIDs {
		p.remove(channelID, id)
	}
	p.BulkDeletes = append(p.BulkDeletes, append([]string(nil), messageIDs...))
	return nil
}

// LatestMessage implements ports.Messenger.
func (p *Platform) LatestMessage(ctx context.Context, channelID string) (*domain.Message, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	msgs := p.channels[channelID]
	if len(msgs) == 0 {
		return nil, nil
	}
	return msgs[len(msgs)-1], nil
}

// RoleMention implements ports.GuildDirectory.
func (p *Platform) RoleMention(ctx context.Context, guildID, roleID string) (string, bool, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	m, ok := p.Roles[roleID]
	return m, ok, nil
}

// IsAdministrator implements ports.GuildDirectory.
func (p *Platform) IsAdministrator(ctx context.Context, guildID, channelID, userID string) (bool, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.Admins[userID], nil
}

// CreateRelay implements ports.RelayService.
func (p *Platform) CreateRelay(ctx context.Context, channelID, name string) (*domain.Relay, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.CreateRelayErr != nil {
		return nil, p.CreateRelayErr
	}
	p.RelaysCreated++
	return &domain.Relay{ID: p.newID(), Token: "token", ChannelID: channelID, Name: name}, nil
}

// DeleteRelay implements ports.RelayService.
func (p *Platform) DeleteRelay(ctx context.Context, relay *domain.Relay) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.RelaysDeleted++
	return p.DeleteRelayErr
}

// ExecuteRelay implements ports.RelayService.
func (p *Platform) ExecuteRelay(ctx context.Context, relay *domain.Relay, post domain.RelayPost) (*domain.Message, error) {
	if p.ExecuteEntered != nil {
		p.ExecuteEntered <- struct{}{}
	}
	if p.ExecuteGate != nil {
		<-p.ExecuteGate
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.ExecuteErr != nil {
		return nil, p.ExecuteErr
	}
	p.RelayPosts = append(p.RelayPosts, post)
	msg := &domain.Message{
		ID:        p.newID(),
		ChannelID: relay.ChannelID,
		Content:   post.Content,
		Author:    domain.Author{ID: relay.ID, Username: post.Username, Bot: true},
		WebhookID: relay.ID,
	}
	for _, f := range post.Files {
		msg.Attachments = append(msg.Attachments, domain.Attachment{Filename: f.Name, Size: len(f.Data)})
	}
	p.channels[relay.ChannelID] = append(p.channels[relay.ChannelID], msg)
	if !p.EchoRelay {
		return nil, nil
	}
	return msg, nil
}

func (p *Platform) has(channelID, id string) bool {
	for _, m := range p.channels[channelID] {
		if m.ID == id {
			return true
		}
	}
	return false
}

func (p *Platform) remove(channelID, id string) bool {
	msgs := p.channels[channelID]
	for i, m := range msgs {
		if m.ID == id {
			p.channels[channelID] = append(msgs[:i], msgs[i+1:]...)
			return true
		}
	}
	return false
}

// Downloader is an in-memory ports.Downloader keyed by URL.
type Downloader struct {
	mu    sync.Mutex
	Files map[string][]byte
	Err   error
	Calls int
}

// NewDownloader creates a downloader serving the given files.
func NewDownloader(files map[string][]byte) *Downloader {
	if files == nil {
		files = map[string][]byte{}
	}
	return &Downloader{Files: files}
}

// Download implements ports.Downloader.
func (d *Downloader) Download(ctx context.Context, url string) ([]byte, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.Calls++
	if d.Err != nil {
		return nil, d.Err
	}
	data, ok := d.Files[url]
	if !ok {
		return nil, fmt.Errorf("download %s: %w", url, domain.ErrNotFound)
	}
	return data, nil
}
