package app

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/yourusername/yt-backup-go/internal/domain"
	"github.com/yourusername/yt-backup-go/pkg/logger"
)

// RequestProcessor runs a single archive request
type RequestProcessor interface {
	ProcessRequest(ctx context.Context, request *domain.Request) error
}

// QueueManager manages the archive request queue
type QueueManager struct {
	repo        domain.RequestRepository
	processor   RequestProcessor
	config      *domain.QueueConfig
	multiLogger *logger.MultiLogger
	mu          sync.RWMutex
	running     bool
	inFlight    map[string]struct{}
	stopChan    chan struct{}
	workerWg    sync.WaitGroup
}

// NewQueueManager creates a new queue manager
func NewQueueManager(
	repo domain.RequestRepository,
	processor RequestProcessor,
	config *domain.QueueConfig,
	multiLogger *logger.MultiLogger,
) *QueueManager {
	return &QueueManager{
		repo:        repo,
		processor:   processor,
		config:      config,
		multiLogger: multiLogger,
		inFlight:    make(map[string]struct{}),
		stopChan:    make(chan struct{}),
	}
}

// Start starts the queue processor. Requests left running by a previous
// process are queued again first.
func (qm *QueueManager) Start(ctx context.Context) error {
	qm.mu.Lock()
	if qm.running {
		qm.mu.Unlock()
		return fmt.Errorf("queue manager already running")
	}
	qm.running = true
	qm.mu.Unlock()

	if n, err := qm.repo.ResetOrphanedRunning(); err != nil {
		qm.logAppError("Failed to reset orphaned requests", zap.Error(err))
	} else if n > 0 {
		qm.logEvent("orphaned_requests_requeued", zap.Int64("count", n))
	}

	qm.logEvent("queue_started")

	qm.workerWg.Add(1)
	go qm.processQueue(ctx)

	return nil
}

// Stop stops the queue processor and waits for in-flight requests
func (qm *QueueManager) Stop() error {
	qm.mu.Lock()
	if !qm.running {
		qm.mu.Unlock()
		return fmt.Errorf("queue manager not running")
	}
	qm.running = false
	qm.mu.Unlock()

	qm.logEvent("queue_stopped")
	close(qm.stopChan)
	qm.workerWg.Wait()

	return nil
}

// IsRunning returns whether the queue manager is running
func (qm *QueueManager) IsRunning() bool {
	qm.mu.RLock()
	defer qm.mu.RUnlock()
	return qm.running
}

// ActiveCount returns the number of requests currently being processed
func (qm *QueueManager) ActiveCount() int {
	qm.mu.RLock()
	defer qm.mu.RUnlock()
	return len(qm.inFlight)
}

// AddRequest adds an archive request to the queue. An empty kind is
// detected from the URL.
func (qm *QueueManager) AddRequest(url string, kind domain.RequestKind, apiKey string) (*domain.Request, error) {
	if !domain.ValidateURL(url) {
		return nil, fmt.Errorf("%w: invalid url: %s", domain.ErrInvalidRequest, url)
	}

	if kind == "" {
		kind = domain.DetectKind(url)
	}
	if !domain.ValidateKind(kind) {
		return nil, fmt.Errorf("%w: invalid kind: %s", domain.ErrInvalidRequest, kind)
	}

	existing, err := qm.repo.FindActiveByURL(url)
	if err != nil {
		return nil, fmt.Errorf("failed to check existing requests: %w", err)
	}
	if existing != nil {
		return existing, fmt.Errorf("%w: %s", domain.ErrDuplicateRequest, existing.ID)
	}

	request := domain.NewRequest(url, kind)
	request.APIKey = apiKey

	if err := qm.repo.Create(request); err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	qm.logEvent("request_added",
		zap.String("id", request.ID),
		zap.String("url", url),
		zap.String("kind", string(kind)))

	return request, nil
}

// GetRequest retrieves a request by ID
func (qm *QueueManager) GetRequest(id string) (*domain.Request, error) {
	return qm.repo.FindByID(id)
}

// ListRequests lists all requests with optional filters
func (qm *QueueManager) ListRequests(filters map[string]interface{}) ([]*domain.Request, error) {
	return qm.repo.FindAll(filters)
}

// DeleteRequest removes a request that is not being processed
func (qm *QueueManager) DeleteRequest(id string) error {
	request, err := qm.repo.FindByID(id)
	if err != nil {
		return err
	}
	if request.Status == domain.StatusRunning {
		return fmt.Errorf("%w: cancel the running request first", domain.ErrInvalidState)
	}
	if err := qm.repo.Delete(id); err != nil {
		return fmt.Errorf("failed to delete request: %w", err)
	}
	qm.logEvent("request_deleted", zap.String("id", id))
	return nil
}

// GetStats returns queue statistics
func (qm *QueueManager) GetStats() (*domain.RequestStats, error) {
	return qm.repo.GetStats()
}

// processQueue polls for queued requests until stopped
func (qm *QueueManager) processQueue(ctx context.Context) {
	defer qm.workerWg.Done()

	ticker := time.NewTicker(qm.config.CheckInterval)
	defer ticker.Stop()

	qm.dispatchPending(ctx)
	for {
		select {
		case <-ctx.Done():
			qm.logEvent("queue_processor_stopped", zap.String("reason", "context_cancelled"))
			return
		case <-qm.stopChan:
			qm.logEvent("queue_processor_stopped", zap.String("reason", "stop_signal"))
			return
		case <-ticker.C:
			qm.dispatchPending(ctx)
		}
	}
}

// dispatchPending starts queued requests up to the active request limit.
// A request is never dispatched twice while it is in flight.
func (qm *QueueManager) dispatchPending(ctx context.Context) {
	pending, err := qm.repo.FindPending()
	if err != nil {
		qm.logAppError("Failed to fetch pending requests", zap.Error(err))
		return
	}

	for _, request := range pending {
		if !qm.claim(request.ID) {
			continue
		}

		qm.logEvent("request_dispatched",
			zap.String("id", request.ID),
			zap.String("url", request.URL),
			zap.String("kind", string(request.Kind)))

		qm.workerWg.Add(1)
		go func(request *domain.Request) {
			defer qm.workerWg.Done()
			defer qm.release(request.ID)

			if err := qm.processor.ProcessRequest(ctx, request); err != nil {
				qm.logEvent("request_failed",
					zap.String("id", request.ID),
					zap.Error(err))
			} else {
				qm.logEvent("request_finished",
					zap.String("id", request.ID),
					zap.String("status", string(request.Status)))
			}
		}(request)
	}
}

// claim marks id as in flight if it is not already and a slot is free
func (qm *QueueManager) claim(id string) bool {
	qm.mu.Lock()
	defer qm.mu.Unlock()

	if _, ok := qm.inFlight[id]; ok {
		return false
	}
	if len(qm.inFlight) >= qm.config.MaxActiveRequests {
		return false
	}
	qm.inFlight[id] = struct{}{}
	return true
}

func (qm *QueueManager) release(id string) {
	qm.mu.Lock()
	defer qm.mu.Unlock()
	delete(qm.inFlight, id)
}

func (qm *QueueManager) logEvent(event string, fields ...zap.Field) {
	if qm.multiLogger != nil {
		qm.multiLogger.LogRequestEvent(event, fields...)
	}
}

func (qm *QueueManager) logAppError(msg string, fields ...zap.Field) {
	if qm.multiLogger != nil {
		qm.multiLogger.LogAppError(msg, fields...)
	}
}
