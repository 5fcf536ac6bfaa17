package app

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/bft-labs/flashguard/internal/domain"
	"github.com/bft-labs/flashguard/internal/ports"
)

// DefaultRelayName is the name given to the transient webhook used for re-uploads.
const DefaultRelayName = "FlashSpoilerBot"

// Enforcer guarantees that regulated media is posted behind a spoiler.
type Enforcer struct {
	relays     ports.RelayService
	messages   ports.Messenger
	downloader ports.Downloader
	logger     ports.Logger
	emitter    BatchEventEmitter
	relayName  string
}

// NewEnforcer creates a spoiler enforcer.
func NewEnforcer(
	relays ports.RelayService,
	messages ports.Messenger,
	downloader ports.Downloader,
	logger ports.Logger,
	emitter BatchEventEmitter,
	relayName string,
) *Enforcer {
	if relayName == "" {
		relayName = DefaultRelayName
	}
	return &Enforcer{
		relays:     relays,
		messages:   messages,
		downloader: downloader,
		logger:     logger,
		emitter:    emitterOrNoop(emitter),
		relayName:  relayName,
	}
}

// Enforce returns the canonical message for a media post.
//
// If every regulated attachment is already spoiler-marked the original
// message is returned untouched. Otherwise the message is deleted and
// re-posted through a transient relay under the author's name and avatar,
// with every regulated attachment renamed to carry the spoiler marker.
// Only regulated attachments are carried over.
//
// A nil message with a nil error means the re-posted message could not be
// resolved and the caller must not proceed.
func (e *Enforcer) Enforce(ctx context.Context, msg *domain.Message, regulated []domain.Attachment) (*domain.Message, error) {
	if allSpoilered(regulated) {
		return msg, nil
	}

	posted, err := e.reupload(ctx, msg, regulated)
	e.emitter.OnReupload(err)
	return posted, err
}

func (e *Enforcer) reupload(ctx context.Context, msg *domain.Message, regulated []domain.Attachment) (_ *domain.Message, err error) {
	relay, err := e.relays.CreateRelay(ctx, msg.ChannelID, e.relayName)
	if err != nil {
		return nil, fmt.Errorf("create relay: %w", err)
	}
	defer func() {
		// Release must happen even when ctx is already canceled.
		if derr := e.relays.DeleteRelay(context.WithoutCancel(ctx), relay); derr != nil {
			e.logger.Warn("failed to delete relay",
				ports.String("relay_id", relay.ID),
				ports.String("channel_id", msg.ChannelID),
				ports.Err(derr),
			)
		}
	}()

	files, err := e.download(ctx, regulated)
	if err != nil {
		return nil, err
	}

	if err := e.messages.DeleteMessage(ctx, msg.ChannelID, msg.ID); err != nil {
		return nil, fmt.Errorf("delete original %s: %w", msg.ID, err)
	}
	// The original is gone; the replacement must be posted even if the
	// session is shutting down.
	ctx = context.WithoutCancel(ctx)

	posted, err := e.relays.ExecuteRelay(ctx, relay, domain.RelayPost{
		Content:   msg.Content,
		Username:  msg.Author.Name(),
		AvatarURL: msg.Author.AvatarURL,
		Files:     files,
	})
	if err != nil {
		return nil, fmt.Errorf("post replacement: %w", err)
	}

	if posted == nil {
		posted, err = e.messages.LatestMessage(ctx, msg.ChannelID)
		if err != nil {
			return nil, fmt.Errorf("resolve replacement: %w", err)
		}
	}
	if posted == nil {
		e.logger.Warn("replacement message could not be resolved",
			ports.String("original_id", msg.ID),
			ports.String("channel_id", msg.ChannelID),
		)
		return nil, nil
	}

	e.logger.Info("media re-uploaded behind spoiler",
		ports.String("original_id", msg.ID),
		ports.String("replacement_id", posted.ID),
		ports.String("author", msg.Author.Username),
		ports.Int("files", len(files)),
	)
	return posted, nil
}

// download fetches every attachment concurrently; the result keeps the
// attachment order.
func (e *Enforcer) download(ctx context.Context, attachments []domain.Attachment) ([]domain.File, error) {
	files := make([]domain.File, len(attachments))
	g, gctx := errgroup.WithContext(ctx)
	for i, a := range attachments {
		g.Go(func() error {
			data, err := e.downloader.Download(gctx, a.URL)
			if err != nil {
				return fmt.Errorf("download %s: %w", a.Filename, err)
			}
			files[i] = domain.File{Name: a.SpoilerFilename(), Data: data}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return files, nil
}

func allSpoilered(attachments []domain.Attachment) bool {
	for _, a := range attachments {
		if !a.IsSpoiler() {
			return false
		}
	}
	return true
}
