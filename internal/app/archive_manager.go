package app

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/yourusername/yt-backup-go/internal/domain"
	"github.com/yourusername/yt-backup-go/pkg/logger"
)

// Notifier sends desktop notifications about request outcomes
type Notifier interface {
	NotifyRequestStarted(request *domain.Request)
	NotifyRequestCompleted(request *domain.Request)
	NotifyRequestFailed(request *domain.Request, err error)
}

// ArchiveManager runs archive requests end to end
type ArchiveManager struct {
	repo        domain.RequestRepository
	resolver    *PlaylistResolver
	acquirer    Acquirer
	coordinator *ChannelCoordinator
	notifier    Notifier
	broker      *EventBroker
	config      *domain.Config
	logger      *zap.Logger
	multiLogger *logger.MultiLogger

	mu        sync.Mutex
	cancels   map[string]context.CancelFunc // running request id -> cancel
	cancelled map[string]bool               // cancelled by the user while running
}

// NewArchiveManager creates a new archive manager. notifier, broker and
// multiLogger may be nil.
func NewArchiveManager(
	repo domain.RequestRepository,
	resolver *PlaylistResolver,
	acquirer Acquirer,
	notifier Notifier,
	broker *EventBroker,
	config *domain.Config,
	log *zap.Logger,
	multiLogger *logger.MultiLogger,
) *ArchiveManager {
	if log == nil {
		log = zap.NewNop()
	}
	return &ArchiveManager{
		repo:        repo,
		resolver:    resolver,
		acquirer:    acquirer,
		coordinator: NewChannelCoordinator(acquirer, config.Download.ConcurrentLimit, log),
		notifier:    notifier,
		broker:      broker,
		config:      config,
		logger:      log,
		multiLogger: multiLogger,
		cancels:     make(map[string]context.CancelFunc),
		cancelled:   make(map[string]bool),
	}
}

// ProcessRequest runs one queued request and records its outcome
func (am *ArchiveManager) ProcessRequest(ctx context.Context, request *domain.Request) error {
	// The request may have been cancelled after it was picked from the queue
	if current, err := am.repo.FindByID(request.ID); err == nil && current.Status == domain.StatusCancelled {
		am.logger.Info("Skipping cancelled request", zap.String("id", request.ID))
		return nil
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	am.mu.Lock()
	am.cancels[request.ID] = cancel
	am.mu.Unlock()
	defer func() {
		am.mu.Lock()
		delete(am.cancels, request.ID)
		am.mu.Unlock()
	}()

	am.logger.Info("Processing request",
		zap.String("id", request.ID),
		zap.String("url", request.URL),
		zap.String("kind", string(request.Kind)))

	request.MarkRunning()
	if err := am.repo.Update(request); err != nil {
		return fmt.Errorf("failed to update request status: %w", err)
	}
	if am.multiLogger != nil {
		am.multiLogger.LogRequestEvent("request_started",
			zap.String("id", request.ID),
			zap.String("url", request.URL),
			zap.String("kind", string(request.Kind)))
	}
	if am.notifier != nil {
		am.notifier.NotifyRequestStarted(request)
	}

	sink := &requestSink{manager: am, request: request}
	sink.Publish(domain.StartedEvent(request.URL))

	var err error
	switch request.Kind {
	case domain.KindChannel:
		var manifest *domain.Manifest
		var summary *domain.RunSummary
		manifest, summary, err = am.ArchiveChannel(ctx, request.URL, request.APIKey, sink)
		if err == nil {
			request.ChannelName = manifest.ChannelName
			request.Archived = summary.Archived + summary.AlreadyArchived
			request.Failed = summary.Failed
			request.MarkCompleted(am.channelDir(manifest.ChannelName))
		}
	default:
		var result *domain.AcquireResult
		result, err = am.ArchiveVideo(ctx, request.URL, sink)
		if err == nil {
			request.Archived = 1
			request.MarkCompleted(filepath.Dir(result.Entry.MediaPath))
		} else {
			request.Failed = 1
		}
	}

	if err != nil && ctx.Err() != nil {
		if am.takeCancelled(request.ID) {
			return am.finishCancelled(request)
		}
		// Shutdown: the request stays running and is re-queued on the
		// next start by ResetOrphanedRunning.
		am.logger.Warn("Request interrupted", zap.String("id", request.ID), zap.Error(err))
		return err
	}

	if err != nil {
		request.MarkFailed(err)
		if uerr := am.repo.Update(request); uerr != nil {
			am.logger.Error("Failed to update request status", zap.Error(uerr))
		}
		am.logger.Error("Request failed",
			zap.String("id", request.ID),
			zap.String("url", request.URL),
			zap.Error(err))
		if am.multiLogger != nil {
			am.multiLogger.LogRequestEvent("request_failed",
				zap.String("id", request.ID),
				zap.Error(err))
			am.multiLogger.LogAppError("Failed to process request",
				zap.String("id", request.ID),
				zap.Error(err))
		}
		if am.notifier != nil {
			am.notifier.NotifyRequestFailed(request, err)
		}
		return err
	}

	if uerr := am.repo.Update(request); uerr != nil {
		am.logger.Error("Failed to update request status", zap.Error(uerr))
	}
	am.logger.Info("Request completed",
		zap.String("id", request.ID),
		zap.String("output_dir", request.OutputDir),
		zap.Int("archived", request.Archived),
		zap.Int("failed", request.Failed))
	if am.multiLogger != nil {
		am.multiLogger.LogRequestEvent("request_completed",
			zap.String("id", request.ID),
			zap.String("output_dir", request.OutputDir),
			zap.Int("archived", request.Archived),
			zap.Int("failed", request.Failed))
	}
	if am.notifier != nil {
		am.notifier.NotifyRequestCompleted(request)
	}
	return nil
}

func (am *ArchiveManager) finishCancelled(request *domain.Request) error {
	request.Status = domain.StatusCancelled
	now := time.Now()
	request.CompletedAt = &now
	request.UpdatedAt = now
	if err := am.repo.Update(request); err != nil {
		am.logger.Error("Failed to update request status", zap.Error(err))
	}
	am.logger.Info("Request cancelled", zap.String("id", request.ID))
	if am.multiLogger != nil {
		am.multiLogger.LogRequestEvent("request_cancelled", zap.String("id", request.ID))
	}
	return context.Canceled
}

// ArchiveVideo archives a single video into the base directory. The sink
// receives progress and finished events, preceded by item_failed when the
// video could not be archived.
func (am *ArchiveManager) ArchiveVideo(ctx context.Context, url string, sink domain.EventSink) (*domain.AcquireResult, error) {
	if sink == nil {
		sink = domain.NopSink
	}

	result, err := am.acquirer.Acquire(ctx, domain.VideoRefFromURL(url), am.config.Download.BaseDir)
	if err != nil {
		sink.Publish(domain.ItemFailedEvent(url, url, err))
	}
	sink.Publish(domain.ProgressEvent(url, 1, 1))
	sink.Publish(domain.FinishedEvent(url))
	return result, err
}

// ArchiveChannel resolves and archives every upload of a channel into
// base_dir/<channel name>. A resolution failure is published as a failed
// event; the finished event is always published last.
func (am *ArchiveManager) ArchiveChannel(ctx context.Context, url, apiKey string, sink domain.EventSink) (*domain.Manifest, *domain.RunSummary, error) {
	if sink == nil {
		sink = domain.NopSink
	}
	if apiKey == "" {
		apiKey = am.config.YouTube.APIKey
	}

	fail := func(err error) (*domain.Manifest, *domain.RunSummary, error) {
		sink.Publish(domain.FailedEvent(url, err))
		sink.Publish(domain.FinishedEvent(url))
		return nil, nil, err
	}

	if apiKey == "" {
		return fail(domain.ErrMissingAPIKey)
	}

	manifest, err := am.resolver.Resolve(ctx, url, apiKey)
	if err != nil {
		return fail(fmt.Errorf("failed to resolve channel: %w", err))
	}

	destDir := am.channelDir(manifest.ChannelName)
	am.logger.Info("Archiving channel",
		zap.String("url", url),
		zap.String("channel", manifest.ChannelName),
		zap.Int("videos", manifest.Len()),
		zap.String("dest", destDir))

	summary := am.coordinator.Run(ctx, url, manifest, destDir, sink)
	if err := ctx.Err(); err != nil {
		return manifest, summary, err
	}
	return manifest, summary, nil
}

func (am *ArchiveManager) channelDir(channelName string) string {
	return filepath.Join(am.config.Download.BaseDir, domain.Sanitize(channelName))
}

// CancelRequest cancels a queued or running request
func (am *ArchiveManager) CancelRequest(id string) error {
	request, err := am.repo.FindByID(id)
	if err != nil {
		return err
	}

	if request.IsTerminal() {
		return fmt.Errorf("%w: request already %s", domain.ErrInvalidState, request.Status)
	}

	am.mu.Lock()
	cancel, running := am.cancels[id]
	if running {
		am.cancelled[id] = true
	}
	am.mu.Unlock()

	request.Status = domain.StatusCancelled
	now := time.Now()
	request.CompletedAt = &now
	request.UpdatedAt = now
	if err := am.repo.Update(request); err != nil {
		return fmt.Errorf("failed to update request: %w", err)
	}

	if running {
		cancel()
	}

	am.logger.Info("Request cancelled", zap.String("id", id), zap.Bool("was_running", running))
	return nil
}

// RetryRequest puts a failed or cancelled request back in the queue
func (am *ArchiveManager) RetryRequest(id string) error {
	request, err := am.repo.FindByID(id)
	if err != nil {
		return err
	}

	if request.Status != domain.StatusFailed && request.Status != domain.StatusCancelled {
		return fmt.Errorf("%w: request is %s", domain.ErrInvalidState, request.Status)
	}

	request.Reset()
	if err := am.repo.Update(request); err != nil {
		return fmt.Errorf("failed to update request: %w", err)
	}

	am.logger.Info("Request queued for retry", zap.String("id", id))
	return nil
}

func (am *ArchiveManager) takeCancelled(id string) bool {
	am.mu.Lock()
	defer am.mu.Unlock()
	ok := am.cancelled[id]
	delete(am.cancelled, id)
	return ok
}

// IsProcessing reports whether the request is being processed by this manager
func (am *ArchiveManager) IsProcessing(id string) bool {
	am.mu.Lock()
	defer am.mu.Unlock()
	_, ok := am.cancels[id]
	return ok
}

// requestSink stamps events with the request id, forwards them to the
// broker and mirrors progress into the repository.
type requestSink struct {
	manager *ArchiveManager
	request *domain.Request
	mu      sync.Mutex
}

func (s *requestSink) Publish(event domain.Event) {
	s.mu.Lock()
	defer s.mu.Unlock()

	event.RequestID = s.request.ID
	if event.Kind == domain.EventProgress {
		s.request.SetProgress(event.Current, event.Total)
		if err := s.manager.repo.Update(s.request); err != nil {
			s.manager.logger.Warn("Failed to record progress",
				zap.String("id", s.request.ID), zap.Error(err))
		}
	}
	if s.manager.broker != nil {
		s.manager.broker.Publish(event)
	}
}
