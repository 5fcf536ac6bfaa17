package domain

import "strings"

// SpoilerPrefix is the filename prefix the platform uses to hide an
// attachment behind a click-to-reveal overlay.
const SpoilerPrefix = "SPOILER_"

// Author identifies the sender of a message.
type Author struct {
	ID          string
	Username    string
	DisplayName string
	AvatarURL   string
	Bot         bool
}

// Name returns the name to show when re-posting on the author's behalf.
func (a Author) Name() string {
	if a.DisplayName != "" {
		return a.DisplayName
	}
	return a.Username
}

// Attachment is a file attached to a message.
type Attachment struct {
	ID       string
	Filename string
	URL      string
	Size     int

	// Spoiler is set when the platform reports the attachment as hidden
	// independently of its filename.
	Spoiler bool
}

// IsSpoiler reports whether the attachment is already spoiler-marked,
// either by flag or by filename convention.
func (a Attachment) IsSpoiler() bool {
	return a.Spoiler || strings.HasPrefix(a.Filename, SpoilerPrefix)
}

// SpoilerFilename returns the filename carrying the spoiler marker.
func (a Attachment) SpoilerFilename() string {
	if strings.HasPrefix(a.Filename, SpoilerPrefix) {
		return a.Filename
	}
	return SpoilerPrefix + a.Filename
}

// Message is a chat message delivered by the platform.
type Message struct {
	ID          string
	ChannelID   string
	GuildID     string
	Content     string
	Author      Author
	Attachments []Attachment

	// WebhookID is non-empty when the message was posted through a webhook.
	WebhookID string
}

// File is an outbound file upload.
type File struct {
	Name string
	Data []byte
}

// Relay is a transient posting identity scoped to a channel.
type Relay struct {
	ID        string
	Token     string
	ChannelID string
	Name      string
}

// RelayPost is the payload posted through a Relay on behalf of another author.
type RelayPost struct {
	Content   string
	Username  string
	AvatarURL string
	Files     []File
}

// OutboundMessage is a plain message sent by the bot itself.
type OutboundMessage struct {
	Content string

	// MentionRoleIDs lists the roles allowed to be pinged by Content.
	// Every other mention in Content is suppressed.
	MentionRoleIDs []string
}
