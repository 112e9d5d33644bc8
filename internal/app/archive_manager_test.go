package app

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourusername/yt-backup-go/internal/domain"
)

type recordingNotifier struct {
	mu     sync.Mutex
	events []string
}

func (n *recordingNotifier) record(event string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, event)
}

func (n *recordingNotifier) NotifyRequestStarted(*domain.Request) { n.record("started") }

func (n *recordingNotifier) NotifyRequestCompleted(*domain.Request) { n.record("completed") }

func (n *recordingNotifier) NotifyRequestFailed(*domain.Request, error) { n.record("failed") }

func (n *recordingNotifier) Events() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]string(nil), n.events...)
}

// blockingAcquirer waits for cancellation
type blockingAcquirer struct {
	started chan struct{}
}

func (a *blockingAcquirer) Acquire(ctx context.Context, ref domain.VideoRef, destDir string) (*domain.AcquireResult, error) {
	close(a.started)
	<-ctx.Done()
	return nil, ctx.Err()
}

type managerFixture struct {
	manager  *ArchiveManager
	repo     *mockRepo
	broker   *EventBroker
	notifier *recordingNotifier
	config   *domain.Config
}

func newManagerFixture(t *testing.T, acquirer Acquirer, listing domain.ListingAPI) *managerFixture {
	t.Helper()

	config := domain.DefaultConfig()
	config.Download.BaseDir = t.TempDir()
	config.YouTube.APIKey = "default-key"

	repo := newMockRepo()
	broker := NewEventBroker(nil)
	notifier := &recordingNotifier{}
	resolver := NewPlaylistResolver(listing, config.Download.PageConcurrency, nil)

	return &managerFixture{
		manager:  NewArchiveManager(repo, resolver, acquirer, notifier, broker, config, nil, nil),
		repo:     repo,
		broker:   broker,
		notifier: notifier,
		config:   config,
	}
}

func drain(ch <-chan domain.Event) []domain.Event {
	var events []domain.Event
	for {
		select {
		case e := <-ch:
			events = append(events, e)
		default:
			return events
		}
	}
}

func kinds(events []domain.Event) []domain.EventKind {
	out := make([]domain.EventKind, 0, len(events))
	for _, e := range events {
		out = append(out, e.Kind)
	}
	return out
}

func TestProcessRequest_Video(t *testing.T) {
	f := newManagerFixture(t, &stubAcquirer{}, threePageListing())
	events, cancel := f.broker.Subscribe()
	defer cancel()

	req := domain.NewRequest("https://www.youtube.com/watch?v=abc", domain.KindVideo)
	require.NoError(t, f.repo.Create(req))

	require.NoError(t, f.manager.ProcessRequest(context.Background(), req))

	assert.Equal(t, domain.StatusCompleted, req.Status)
	assert.Equal(t, 1, req.Archived)
	assert.Equal(t, 1, req.Current)
	assert.Equal(t, 1, req.Total)

	got := drain(events)
	assert.Equal(t, []domain.EventKind{domain.EventStarted, domain.EventProgress, domain.EventFinished}, kinds(got))
	for _, e := range got {
		assert.Equal(t, req.ID, e.RequestID)
		assert.Equal(t, req.URL, e.Key)
	}
	assert.Equal(t, []string{"started", "completed"}, f.notifier.Events())
	assert.False(t, f.manager.IsProcessing(req.ID))
}

func TestProcessRequest_VideoFailure(t *testing.T) {
	url := "https://www.youtube.com/watch?v=bad"
	f := newManagerFixture(t, &stubAcquirer{fail: map[string]bool{url: true}}, threePageListing())
	events, cancel := f.broker.Subscribe()
	defer cancel()

	req := domain.NewRequest(url, domain.KindVideo)
	require.NoError(t, f.repo.Create(req))

	err := f.manager.ProcessRequest(context.Background(), req)
	assert.ErrorIs(t, err, domain.ErrAcquisitionFailed)

	assert.Equal(t, domain.StatusFailed, req.Status)
	assert.NotEmpty(t, req.ErrorMessage)
	assert.Equal(t, 1, req.Failed)

	assert.Equal(t,
		[]domain.EventKind{domain.EventStarted, domain.EventItemFailed, domain.EventProgress, domain.EventFinished},
		kinds(drain(events)))
	assert.Equal(t, []string{"started", "failed"}, f.notifier.Events())
}

func TestProcessRequest_Channel(t *testing.T) {
	acquirer := &stubAcquirer{fail: map[string]bool{domain.YouTubeWatchURL + "c": true}}
	f := newManagerFixture(t, acquirer, threePageListing())
	events, cancel := f.broker.Subscribe()
	defer cancel()

	req := domain.NewRequest("https://www.youtube.com/channel/UC123", domain.KindChannel)
	require.NoError(t, f.repo.Create(req))

	require.NoError(t, f.manager.ProcessRequest(context.Background(), req))

	assert.Equal(t, domain.StatusCompleted, req.Status)
	assert.Equal(t, "Some Channel", req.ChannelName)
	assert.Equal(t, filepath.Join(f.config.Download.BaseDir, "Some Channel"), req.OutputDir)
	assert.Equal(t, 4, req.Archived)
	assert.Equal(t, 1, req.Failed)
	assert.Equal(t, 5, req.Total)

	got := drain(events)
	require.NotEmpty(t, got)
	assert.Equal(t, domain.EventStarted, got[0].Kind)
	assert.Equal(t, domain.EventFinished, got[len(got)-1].Kind)
	assert.Equal(t, 5, countKind(got, domain.EventProgress))
	assert.Equal(t, 1, countKind(got, domain.EventItemFailed))
}

func TestArchiveChannel_MissingAPIKey(t *testing.T) {
	f := newManagerFixture(t, &stubAcquirer{}, threePageListing())
	f.config.YouTube.APIKey = ""
	sink := &recordingSink{}

	_, _, err := f.manager.ArchiveChannel(context.Background(), "https://www.youtube.com/channel/UC123", "", sink)
	assert.ErrorIs(t, err, domain.ErrMissingAPIKey)
	assert.Equal(t, []domain.EventKind{domain.EventFailed, domain.EventFinished}, kinds(sink.Events()))
}

func TestProcessRequest_ChannelNotFound(t *testing.T) {
	listing := &stubListing{channelErr: domain.ErrChannelNotFound}
	f := newManagerFixture(t, &stubAcquirer{}, listing)

	req := domain.NewRequest("https://www.youtube.com/channel/UC404", domain.KindChannel)
	require.NoError(t, f.repo.Create(req))

	err := f.manager.ProcessRequest(context.Background(), req)
	assert.ErrorIs(t, err, domain.ErrChannelNotFound)
	assert.Equal(t, domain.StatusFailed, req.Status)
}

func TestProcessRequest_SkipsCancelled(t *testing.T) {
	f := newManagerFixture(t, &stubAcquirer{}, threePageListing())

	req := domain.NewRequest("https://www.youtube.com/watch?v=abc", domain.KindVideo)
	require.NoError(t, f.repo.Create(req))
	require.NoError(t, f.manager.CancelRequest(req.ID))

	require.NoError(t, f.manager.ProcessRequest(context.Background(), req))
	assert.Equal(t, domain.StatusCancelled, req.Status)
	assert.Empty(t, f.notifier.Events())
}

func TestCancelRequest_Running(t *testing.T) {
	acquirer := &blockingAcquirer{started: make(chan struct{})}
	f := newManagerFixture(t, acquirer, threePageListing())

	req := domain.NewRequest("https://www.youtube.com/watch?v=abc", domain.KindVideo)
	require.NoError(t, f.repo.Create(req))

	done := make(chan error, 1)
	go func() {
		done <- f.manager.ProcessRequest(context.Background(), req)
	}()

	select {
	case <-acquirer.started:
	case <-time.After(2 * time.Second):
		t.Fatal("acquisition did not start")
	}
	assert.True(t, f.manager.IsProcessing(req.ID))

	require.NoError(t, f.manager.CancelRequest(req.ID))

	select {
	case err := <-done:
		assert.True(t, errors.Is(err, context.Canceled))
	case <-time.After(2 * time.Second):
		t.Fatal("request did not stop after cancel")
	}

	stored, err := f.repo.FindByID(req.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusCancelled, stored.Status)
}

func TestCancelRequest_Terminal(t *testing.T) {
	f := newManagerFixture(t, &stubAcquirer{}, threePageListing())

	req := domain.NewRequest("https://www.youtube.com/watch?v=abc", domain.KindVideo)
	req.MarkCompleted("/archive")
	require.NoError(t, f.repo.Create(req))

	assert.ErrorIs(t, f.manager.CancelRequest(req.ID), domain.ErrInvalidState)
	assert.ErrorIs(t, f.manager.CancelRequest("missing"), domain.ErrRequestNotFound)
}

func TestRetryRequest(t *testing.T) {
	f := newManagerFixture(t, &stubAcquirer{}, threePageListing())

	failed := domain.NewRequest("https://www.youtube.com/watch?v=a", domain.KindVideo)
	failed.MarkFailed(errors.New("boom"))
	queued := domain.NewRequest("https://www.youtube.com/watch?v=b", domain.KindVideo)
	require.NoError(t, f.repo.Create(failed))
	require.NoError(t, f.repo.Create(queued))

	require.NoError(t, f.manager.RetryRequest(failed.ID))
	assert.Equal(t, domain.StatusQueued, failed.Status)
	assert.Empty(t, failed.ErrorMessage)

	assert.ErrorIs(t, f.manager.RetryRequest(queued.ID), domain.ErrInvalidState)
}
