package app

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bft-labs/flashguard/internal/domain"
	"github.com/bft-labs/flashguard/internal/testutil"
)

func TestEnforcer_AlreadySpoileredIsUntouched(t *testing.T) {
	h := newHarness(t, 0)
	m := h.platform.Post(mediaMessage(h, "hi", "SPOILER_a.png", "SPOILER_b.mp4"))

	got, err := h.enforcer.Enforce(context.Background(), m, RegulatedAttachments(m.Attachments))

	require.NoError(t, err)
	assert.Same(t, m, got)
	assert.Zero(t, h.platform.RelaysCreated)
	assert.Empty(t, h.platform.Deleted)
	assert.Empty(t, h.platform.RelayPosts)
	assert.Zero(t, h.downloader.Calls)
	assert.Empty(t, h.emitter.reuploads)
}

func TestEnforcer_SpoilerFlagCountsAsMarked(t *testing.T) {
	h := newHarness(t, 0)
	m := h.platform.Post(mediaMessage(h, "", "a.png"))
	m.Attachments[0].Spoiler = true

	got, err := h.enforcer.Enforce(context.Background(), m, RegulatedAttachments(m.Attachments))

	require.NoError(t, err)
	assert.Same(t, m, got)
	assert.Zero(t, h.platform.RelaysCreated)
}

func TestEnforcer_ReuploadsUnmarkedMedia(t *testing.T) {
	h := newHarness(t, 0)
	m := mediaMessage(h, "look", "a.png", "SPOILER_b.gif", "c.mov")
	m.Attachments = append(m.Attachments, domain.Attachment{Filename: "notes.txt", URL: "https://cdn/notes.txt"})
	h.platform.Post(m)

	got, err := h.enforcer.Enforce(context.Background(), m, RegulatedAttachments(m.Attachments))

	require.NoError(t, err)
	require.NotNil(t, got)
	assert.NotEqual(t, m.ID, got.ID)
	assert.Equal(t, []string{m.ID}, h.platform.Deleted)

	require.Len(t, h.platform.RelayPosts, 1)
	post := h.platform.RelayPosts[0]
	assert.Equal(t, "look", post.Content)
	assert.Equal(t, "Alice", post.Username)
	assert.Equal(t, "https://cdn/avatar.png", post.AvatarURL)
	require.Len(t, post.Files, 3)
	assert.Equal(t, "SPOILER_a.png", post.Files[0].Name)
	assert.Equal(t, "SPOILER_b.gif", post.Files[1].Name)
	assert.Equal(t, "SPOILER_c.mov", post.Files[2].Name)
	assert.Equal(t, []byte("bytes-of-a.png"), post.Files[0].Data)

	assert.Equal(t, 1, h.platform.RelaysCreated)
	assert.Equal(t, 1, h.platform.RelaysDeleted)
	assert.Equal(t, []error{nil}, h.emitter.reuploads)
}

// cancelOnDelete cancels the caller's context once the original is deleted.
type cancelOnDelete struct {
	*testutil.Platform
	cancel context.CancelFunc
}

func (c cancelOnDelete) DeleteMessage(ctx context.Context, channelID, messageID string) error {
	defer c.cancel()
	return c.Platform.DeleteMessage(ctx, channelID, messageID)
}

func TestEnforcer_PostsReplacementAfterCancel(t *testing.T) {
	h := newHarness(t, 0)
	m := h.platform.Post(mediaMessage(h, "", "a.png"))
	ctx, cancel := context.WithCancel(context.Background())
	h.enforcer.messages = cancelOnDelete{h.platform, cancel}

	got, err := h.enforcer.Enforce(ctx, m, RegulatedAttachments(m.Attachments))

	require.NoError(t, err)
	require.NotNil(t, got)
	require.Len(t, h.platform.RelayPosts, 1)
	assert.Equal(t, []string{got.ID}, h.platform.Visible(testChannel))
	assert.Equal(t, 1, h.platform.RelaysDeleted)
}

func TestEnforcer_ResolvesLatestWhenRelayDoesNotEcho(t *testing.T) {
	h := newHarness(t, 0)
	h.platform.EchoRelay = false
	m := h.platform.Post(mediaMessage(h, "", "a.png"))

	got, err := h.enforcer.Enforce(context.Background(), m, RegulatedAttachments(m.Attachments))

	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, []string{got.ID}, h.platform.Visible(testChannel))
}

func TestEnforcer_DownloadFailureKeepsOriginal(t *testing.T) {
	h := newHarness(t, 0)
	h.downloader.Err = errors.New("cdn down")
	m := h.platform.Post(mediaMessage(h, "", "a.png"))

	got, err := h.enforcer.Enforce(context.Background(), m, RegulatedAttachments(m.Attachments))

	require.Error(t, err)
	assert.Nil(t, got)
	assert.Empty(t, h.platform.Deleted)
	assert.Equal(t, 1, h.platform.RelaysDeleted, "relay must be released on failure")
	assert.Equal(t, []string{m.ID}, h.platform.Visible(testChannel))
}

func TestEnforcer_PostFailureReleasesRelay(t *testing.T) {
	h := newHarness(t, 0)
	h.platform.ExecuteErr = errors.New("webhook rejected")
	m := h.platform.Post(mediaMessage(h, "", "a.png"))

	got, err := h.enforcer.Enforce(context.Background(), m, RegulatedAttachments(m.Attachments))

	require.Error(t, err)
	assert.Nil(t, got)
	assert.Equal(t, []string{m.ID}, h.platform.Deleted, "original is already gone")
	assert.Equal(t, 1, h.platform.RelaysDeleted)
	require.Len(t, h.emitter.reuploads, 1)
	assert.Error(t, h.emitter.reuploads[0])
}

func TestEnforcer_RelayReleaseFailureIsLogged(t *testing.T) {
	h := newHarness(t, 0)
	h.platform.DeleteRelayErr = errors.New("gone")
	m := h.platform.Post(mediaMessage(h, "", "a.png"))

	got, err := h.enforcer.Enforce(context.Background(), m, RegulatedAttachments(m.Attachments))

	require.NoError(t, err)
	assert.NotNil(t, got)
	assert.True(t, h.logger.Has("warn", "failed to delete relay"))
}

func TestEnforcer_CreateRelayFailure(t *testing.T) {
	h := newHarness(t, 0)
	h.platform.CreateRelayErr = domain.ErrForbidden
	m := h.platform.Post(mediaMessage(h, "", "a.png"))

	_, err := h.enforcer.Enforce(context.Background(), m, RegulatedAttachments(m.Attachments))

	require.ErrorIs(t, err, domain.ErrForbidden)
	assert.Zero(t, h.platform.RelaysDeleted)
	assert.Empty(t, h.platform.Deleted)
}
