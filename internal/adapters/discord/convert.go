package discord

import (
	"bytes"
	"mime"
	"path/filepath"

	"github.com/bwmarrin/discordgo"

	"github.com/bft-labs/flashguard/internal/domain"
)

const avatarSize = "256"

func toMessage(m *discordgo.Message, member *discordgo.Member) *domain.Message {
	if m == nil {
		return nil
	}
	msg := &domain.Message{
		ID:        m.ID,
		ChannelID: m.ChannelID,
		GuildID:   m.GuildID,
		Content:   m.Content,
		WebhookID: m.WebhookID,
	}
	if member == nil {
		member = m.Member
	}
	if m.Author != nil {
		msg.Author = toAuthor(m.Author, member)
	}
	for _, a := range m.Attachments {
		if a == nil {
			continue
		}
		msg.Attachments = append(msg.Attachments, domain.Attachment{
			ID:       a.ID,
			Filename: a.Filename,
			URL:      a.URL,
			Size:     a.Size,
		})
	}
	return msg
}

func toAuthor(u *discordgo.User, member *discordgo.Member) domain.Author {
	a := domain.Author{
		ID:        u.ID,
		Username:  u.Username,
		AvatarURL: u.AvatarURL(avatarSize),
		Bot:       u.Bot,
	}
	switch {
	case member != nil && member.Nick != "":
		a.DisplayName = member.Nick
	case u.GlobalName != "":
		a.DisplayName = u.GlobalName
	}
	return a
}

func toFiles(files []domain.File) []*discordgo.File {
	out := make([]*discordgo.File, len(files))
	for i, f := range files {
		out[i] = &discordgo.File{
			Name:        f.Name,
			ContentType: contentType(f.Name),
			Reader:      bytes.NewReader(f.Data),
		}
	}
	return out
}

func contentType(name string) string {
	if ct := mime.TypeByExtension(filepath.Ext(name)); ct != "" {
		return ct
	}
	return "application/octet-stream"
}

func allowedMentions(roleIDs []string) *discordgo.MessageAllowedMentions {
	return &discordgo.MessageAllowedMentions{
		Parse: []discordgo.AllowedMentionType{},
		Roles: roleIDs,
	}
}
