package app

import (
	"testing"
	"time"

	"github.com/bft-labs/flashguard/internal/domain"
	"github.com/bft-labs/flashguard/internal/testutil"
)

const (
	testChannel = "chan-1"
	testGuild   = "guild-1"
	testRole    = "role-1"
)

// recordingEmitter captures batch events.
type recordingEmitter struct {
	created   []string
	expired   []string
	bulk      []bool
	reuploads []error
	strays    int
}

func (r *recordingEmitter) OnBatchCreated(id string, members int) { r.created = append(r.created, id) }
func (r *recordingEmitter) OnBatchExpired(id string, members int, bulk bool) {
	r.expired = append(r.expired, id)
	r.bulk = append(r.bulk, bulk)
}
func (r *recordingEmitter) OnReupload(err error) { r.reuploads = append(r.reuploads, err) }
func (r *recordingEmitter) OnStrayDeleted()      { r.strays++ }

type harness struct {
	platform   *testutil.Platform
	downloader *testutil.Downloader
	logger     *testutil.Logger
	emitter    *recordingEmitter
	registry   *Registry
	enforcer   *Enforcer
	scheduler  *Scheduler
	router     *Router
}

func newHarness(t *testing.T, delay time.Duration) *harness {
	t.Helper()
	h := &harness{
		platform:   testutil.NewPlatform(),
		downloader: testutil.NewDownloader(nil),
		logger:     &testutil.Logger{},
		emitter:    &recordingEmitter{},
		registry:   NewRegistry(),
	}
	h.platform.Roles[testRole] = "<@&" + testRole + ">"
	h.enforcer = NewEnforcer(h.platform, h.platform, h.downloader, h.logger, h.emitter, "")
	h.scheduler = NewScheduler(h.registry, h.platform, h.logger, h.emitter, nil, delay)
	h.router = NewRouter(
		RouterConfig{ChannelID: testChannel, RoleID: testRole},
		h.platform, h.platform, h.platform,
		h.enforcer, h.registry, h.scheduler, h.logger, h.emitter,
	)
	t.Cleanup(h.scheduler.Stop)
	return h
}

func textMessage(content string) *domain.Message {
	return &domain.Message{
		ChannelID: testChannel,
		GuildID:   testGuild,
		Content:   content,
		Author:    domain.Author{ID: "user-1", Username: "alice", DisplayName: "Alice", AvatarURL: "https://cdn/avatar.png"},
	}
}

func mediaMessage(h *harness, content string, files ...string) *domain.Message {
	msg := textMessage(content)
	for i, name := range files {
		url := "https://cdn/" + name
		h.downloader.Files[url] = []byte("bytes-of-" + name)
		msg.Attachments = append(msg.Attachments, domain.Attachment{
			ID:       string(rune('a' + i)),
			Filename: name,
			URL:      url,
		})
	}
	return msg
}
