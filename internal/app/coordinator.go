package app

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/yourusername/yt-backup-go/internal/domain"
)

// ChannelCoordinator archives every video of a manifest through a bounded
// pool of acquisitions.
type ChannelCoordinator struct {
	acquirer Acquirer
	limit    int
	logger   *zap.Logger
}

// NewChannelCoordinator creates a coordinator running at most limit
// acquisitions at once.
func NewChannelCoordinator(acquirer Acquirer, limit int, logger *zap.Logger) *ChannelCoordinator {
	if limit < 1 {
		limit = 1
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ChannelCoordinator{
		acquirer: acquirer,
		limit:    limit,
		logger:   logger,
	}
}

// Run archives manifest into destDir. A progress event follows every item,
// failed or not, and the finished event is always the last one published.
// Item failures never stop the run.
func (c *ChannelCoordinator) Run(ctx context.Context, key string, manifest *domain.Manifest, destDir string, sink domain.EventSink) *domain.RunSummary {
	if sink == nil {
		sink = domain.NopSink
	}

	total := manifest.Len()
	summary := &domain.RunSummary{Total: total}

	var (
		mu sync.Mutex // guards summary and serializes emission
		wg sync.WaitGroup
	)
	semaphore := make(chan struct{}, c.limit)

	for i := 0; i < total; i++ {
		select {
		case semaphore <- struct{}{}:
		case <-ctx.Done():
		}
		if ctx.Err() != nil {
			c.logger.Warn("Channel run cancelled",
				zap.String("key", key),
				zap.Int("scheduled", i),
				zap.Int("total", total))
			break
		}

		wg.Add(1)
		go func(index int, ref domain.VideoRef) {
			defer wg.Done()
			defer func() { <-semaphore }()

			result, err := c.acquirer.Acquire(ctx, ref, destDir)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				summary.Failed++
				summary.FailedURLs = append(summary.FailedURLs, ref.URL)
				c.logger.Error("Failed to archive video",
					zap.String("key", key),
					zap.String("url", ref.URL),
					zap.Error(err))
				sink.Publish(domain.ItemFailedEvent(key, ref.URL, err))
			} else if result.Status == domain.AcquireAlreadyArchived {
				summary.AlreadyArchived++
			} else {
				summary.Archived++
			}
			sink.Publish(domain.ProgressEvent(key, index+1, total))
		}(i, manifest.Videos[i])
	}

	wg.Wait()
	sink.Publish(domain.FinishedEvent(key))

	c.logger.Info("Channel run finished",
		zap.String("key", key),
		zap.Int("total", summary.Total),
		zap.Int("archived", summary.Archived),
		zap.Int("already_archived", summary.AlreadyArchived),
		zap.Int("failed", summary.Failed))

	return summary
}
