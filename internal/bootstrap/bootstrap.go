// Package bootstrap builds the archive component graph from configuration.
package bootstrap

import (
	"context"
	"fmt"
	"os"

	"go.uber.org/zap"

	"github.com/yourusername/yt-backup-go/internal/app"
	"github.com/yourusername/yt-backup-go/internal/domain"
	"github.com/yourusername/yt-backup-go/internal/infrastructure"
	"github.com/yourusername/yt-backup-go/pkg/logger"
)

// Services holds the long-lived components of a running server
type Services struct {
	Config  *domain.Config
	Repo    *infrastructure.SQLiteRequestRepository
	Broker  *app.EventBroker
	Archive *app.ArchiveManager
	Queue   *app.QueueManager
}

// CreateDirectories creates the archive and log directories
func CreateDirectories(config *domain.Config) error {
	for _, dir := range []string{config.Download.BaseDir, config.Download.LogsDir} {
		if dir == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}
	return nil
}

// NewArchiveManager wires the listing client, engine, ledger and pipeline
// behind an ArchiveManager. repo may be nil when only ArchiveVideo and
// ArchiveChannel are used.
func NewArchiveManager(
	ctx context.Context,
	config *domain.Config,
	repo domain.RequestRepository,
	broker *app.EventBroker,
	log *zap.Logger,
	multiLogger *logger.MultiLogger,
) (*app.ArchiveManager, error) {
	listing, err := infrastructure.NewYouTubeListing(ctx, &config.YouTube, nil, log)
	if err != nil {
		return nil, err
	}

	engine := infrastructure.NewYTDLPEngine(&config.Engine, config.Download.LogsDir, log)
	ledger := infrastructure.NewCSVLedger(config.Ledger.Path)
	workspaces := app.NewWorkspaceManager(config.Download.ScratchPollInterval, config.Download.ScratchPollAttempts, log)
	pipeline := app.NewAcquisitionPipeline(engine, workspaces, ledger, &config.Download, log, multiLogger)
	resolver := app.NewPlaylistResolver(listing, config.Download.PageConcurrency, log)
	notifier := infrastructure.NewNotificationService(&config.Notification, log)

	return app.NewArchiveManager(repo, resolver, pipeline, notifier, broker, config, log, multiLogger), nil
}

// NewServices opens the request database and builds the queue and archive
// managers. Close releases the database.
func NewServices(ctx context.Context, config *domain.Config, log *zap.Logger, multiLogger *logger.MultiLogger) (*Services, error) {
	repo, err := infrastructure.NewSQLiteRequestRepository(config.Queue.DatabasePath)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize repository: %w", err)
	}

	broker := app.NewEventBroker(log)
	archive, err := NewArchiveManager(ctx, config, repo, broker, log, multiLogger)
	if err != nil {
		repo.Close()
		return nil, err
	}

	return &Services{
		Config:  config,
		Repo:    repo,
		Broker:  broker,
		Archive: archive,
		Queue:   app.NewQueueManager(repo, archive, &config.Queue, multiLogger),
	}, nil
}

// Close releases the resources held by the services
func (s *Services) Close() error {
	return s.Repo.Close()
}
