package app

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourusername/yt-backup-go/internal/domain"
)

// stubAcquirer fails the URLs in fail and tracks peak concurrency
type stubAcquirer struct {
	fail     map[string]bool
	existing map[string]bool
	delay    time.Duration

	active int32
	peak   int32
}

func (a *stubAcquirer) Acquire(ctx context.Context, ref domain.VideoRef, destDir string) (*domain.AcquireResult, error) {
	n := atomic.AddInt32(&a.active, 1)
	defer atomic.AddInt32(&a.active, -1)
	for {
		peak := atomic.LoadInt32(&a.peak)
		if n <= peak || atomic.CompareAndSwapInt32(&a.peak, peak, n) {
			break
		}
	}
	time.Sleep(a.delay)

	if a.fail[ref.URL] {
		return nil, &domain.AcquisitionError{URL: ref.URL, Attempts: 6, Cause: errors.New("engine failed")}
	}
	status := domain.AcquireArchived
	if a.existing[ref.URL] {
		status = domain.AcquireAlreadyArchived
	}
	return &domain.AcquireResult{Ref: ref, Status: status, Entry: &domain.ArchiveEntry{}}, nil
}

type recordingSink struct {
	mu     sync.Mutex
	events []domain.Event
}

func (s *recordingSink) Publish(event domain.Event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, event)
}

func (s *recordingSink) Events() []domain.Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]domain.Event(nil), s.events...)
}

func manifestOf(ids ...string) *domain.Manifest {
	m := &domain.Manifest{ChannelName: "Some Channel"}
	for _, id := range ids {
		m.Videos = append(m.Videos, domain.NewVideoRef(id, "Title "+id, testDate, "Some Channel"))
	}
	return m
}

func countKind(events []domain.Event, kind domain.EventKind) int {
	n := 0
	for _, e := range events {
		if e.Kind == kind {
			n++
		}
	}
	return n
}

func TestChannelCoordinator_Run(t *testing.T) {
	manifest := manifestOf("v1", "v2", "v3", "v4", "v5")
	acquirer := &stubAcquirer{
		fail:     map[string]bool{domain.YouTubeWatchURL + "v3": true},
		existing: map[string]bool{domain.YouTubeWatchURL + "v5": true},
		delay:    5 * time.Millisecond,
	}
	sink := &recordingSink{}
	coordinator := NewChannelCoordinator(acquirer, 4, nil)

	summary := coordinator.Run(context.Background(), "https://www.youtube.com/channel/UC1", manifest, t.TempDir(), sink)

	assert.Equal(t, 5, summary.Total)
	assert.Equal(t, 3, summary.Archived)
	assert.Equal(t, 1, summary.AlreadyArchived)
	assert.Equal(t, 1, summary.Failed)
	assert.Equal(t, []string{domain.YouTubeWatchURL + "v3"}, summary.FailedURLs)

	events := sink.Events()
	require.NotEmpty(t, events)
	assert.Equal(t, domain.EventFinished, events[len(events)-1].Kind)
	assert.Equal(t, 1, countKind(events, domain.EventFinished))
	assert.Equal(t, 5, countKind(events, domain.EventProgress))
	assert.Equal(t, 1, countKind(events, domain.EventItemFailed))

	seen := map[string]bool{}
	for _, e := range events {
		assert.Equal(t, "https://www.youtube.com/channel/UC1", e.Key)
		if e.Kind == domain.EventProgress {
			assert.Equal(t, 5, e.Total)
			seen[e.Progress()] = true
		}
		if e.Kind == domain.EventItemFailed {
			assert.Equal(t, domain.YouTubeWatchURL+"v3", e.VideoURL)
			assert.NotEmpty(t, e.Error)
		}
	}
	for _, label := range []string{"1/5", "2/5", "3/5", "4/5", "5/5"} {
		assert.True(t, seen[label], "missing progress %s", label)
	}
}

func TestChannelCoordinator_BoundsConcurrency(t *testing.T) {
	manifest := manifestOf("a", "b", "c", "d", "e", "f", "g", "h", "i", "j")
	acquirer := &stubAcquirer{delay: 20 * time.Millisecond}

	NewChannelCoordinator(acquirer, 4, nil).Run(context.Background(), "key", manifest, t.TempDir(), nil)

	assert.LessOrEqual(t, atomic.LoadInt32(&acquirer.peak), int32(4))
	assert.Greater(t, atomic.LoadInt32(&acquirer.peak), int32(1))
}

func TestChannelCoordinator_EmptyManifest(t *testing.T) {
	sink := &recordingSink{}

	summary := NewChannelCoordinator(&stubAcquirer{}, 4, nil).Run(context.Background(), "key", manifestOf(), t.TempDir(), sink)

	assert.Equal(t, 0, summary.Total)
	events := sink.Events()
	require.Len(t, events, 1)
	assert.Equal(t, domain.EventFinished, events[0].Kind)
}

func TestChannelCoordinator_CancelledStillFinishes(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	sink := &recordingSink{}

	summary := NewChannelCoordinator(&stubAcquirer{}, 1, nil).Run(ctx, "key", manifestOf("a", "b", "c"), t.TempDir(), sink)

	assert.Equal(t, 3, summary.Total)
	events := sink.Events()
	require.NotEmpty(t, events)
	assert.Equal(t, domain.EventFinished, events[len(events)-1].Kind)
}
