package app

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/yourusername/yt-backup-go/internal/domain"
	"github.com/yourusername/yt-backup-go/pkg/logger"
)

// scratchStem is the fixed file stem the engine writes into a workspace
const scratchStem = "files"

// Acquirer archives a single video into a destination directory
type Acquirer interface {
	Acquire(ctx context.Context, ref domain.VideoRef, destDir string) (*domain.AcquireResult, error)
}

// AcquisitionPipeline downloads one video through the quality ladder and
// relocates the engine output into the archive.
type AcquisitionPipeline struct {
	engine      domain.Engine
	workspaces  *WorkspaceManager
	ledger      domain.ArchiveLedger
	config      *domain.DownloadConfig
	logger      *zap.Logger
	eventLogger *logger.MultiLogger // For structured archive events only
}

// NewAcquisitionPipeline creates a new acquisition pipeline. ledger and
// eventLogger may be nil.
func NewAcquisitionPipeline(
	engine domain.Engine,
	workspaces *WorkspaceManager,
	ledger domain.ArchiveLedger,
	config *domain.DownloadConfig,
	log *zap.Logger,
	eventLogger *logger.MultiLogger,
) *AcquisitionPipeline {
	if log == nil {
		log = zap.NewNop()
	}
	return &AcquisitionPipeline{
		engine:      engine,
		workspaces:  workspaces,
		ledger:      ledger,
		config:      config,
		logger:      log,
		eventLogger: eventLogger,
	}
}

// Acquire archives ref into destDir. A video whose archive file already
// exists is reported as already archived without touching the engine.
func (p *AcquisitionPipeline) Acquire(ctx context.Context, ref domain.VideoRef, destDir string) (*domain.AcquireResult, error) {
	destDir, err := filepath.Abs(destDir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve destination directory: %w", err)
	}
	if err := os.MkdirAll(destDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create destination directory: %w", err)
	}
	p.workspaces.SweepStale(destDir)

	result, err := p.acquire(ctx, ref, destDir)

	if ref.FromChannel() && p.ledger != nil {
		if lerr := p.ledger.Append(ref.Channel, ref.Title, ref.URL); lerr != nil {
			p.logger.Error("Failed to append ledger entry",
				zap.String("url", ref.URL), zap.Error(lerr))
		}
	}
	p.logOutcome(ref, result, err)

	return result, err
}

func (p *AcquisitionPipeline) acquire(ctx context.Context, ref domain.VideoRef, destDir string) (*domain.AcquireResult, error) {
	if ref.HasMetadata() {
		name := domain.FormatFilename(ref.PublishedAt, ref.Title, p.config.MediaExt)
		if exists(filepath.Join(destDir, name)) {
			return alreadyArchived(ref, filepath.Join(destDir, name)), nil
		}
	}

	ws, err := p.workspaces.Acquire(ctx, destDir, ref.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to acquire scratch workspace: %w", err)
	}
	defer ws.Release()

	probed := ref.HasMetadata()
	state := domain.NewRetryState(p.config.Tiers)
	var lastErr error

	for !state.Exhausted() {
		tier := state.Current()
		opts := domain.ExtractOptions{
			Format:           tier.Format,
			OutputTemplate:   filepath.Join(ws.Dir, scratchStem+".%(ext)s"),
			WriteDescription: true,
			WriteThumbnail:   true,
		}

		if !probed {
			info, err := p.engine.Extract(ctx, ref.URL, opts, false)
			if err != nil {
				lastErr = &domain.EngineError{URL: ref.URL, Tier: tier.Name, Cause: err}
			} else {
				probed = true
				name := domain.FormatFilename(info.UploadDate, info.Title, p.extOrDefault(info.Ext))
				if exists(filepath.Join(destDir, name)) {
					return alreadyArchived(ref, filepath.Join(destDir, name)), nil
				}
			}
		}

		if probed {
			entry, err := p.download(ctx, ref, ws, destDir, opts, tier)
			if err == nil {
				return &domain.AcquireResult{
					Ref:      ref,
					Status:   domain.AcquireArchived,
					Entry:    entry,
					Tier:     tier.Name,
					Attempts: state.Attempts() + 1,
				}, nil
			}
			lastErr = err
		}

		if ctx.Err() != nil {
			return nil, ctx.Err()
		}

		p.logger.Warn("Quality tier failed",
			zap.String("url", ref.URL),
			zap.String("tier", tier.Name),
			zap.Int("attempt", state.Attempts()+1),
			zap.Error(lastErr))
		if p.eventLogger != nil {
			p.eventLogger.LogArchiveEvent("tier_failed",
				zap.String("url", ref.URL),
				zap.String("tier", tier.Name),
				zap.Error(lastErr))
		}
		state.Advance()
	}

	if lastErr == nil {
		lastErr = errors.New("no quality tiers configured")
	}
	return nil, &domain.AcquisitionError{URL: ref.URL, Attempts: state.Attempts(), Cause: lastErr}
}

// download runs one engine attempt into a clean workspace and relocates
// the result.
func (p *AcquisitionPipeline) download(ctx context.Context, ref domain.VideoRef, ws *Workspace, destDir string, opts domain.ExtractOptions, tier domain.QualityTier) (*domain.ArchiveEntry, error) {
	if err := ws.Clear(); err != nil {
		return nil, fmt.Errorf("failed to clear scratch directory: %w", err)
	}

	info, err := p.engine.Extract(ctx, ref.URL, opts, true)
	if err != nil {
		return nil, &domain.EngineError{URL: ref.URL, Tier: tier.Name, Cause: err}
	}

	title, date := info.Title, info.UploadDate
	if title == "" {
		title = ref.Title
	}
	if date.IsZero() {
		date = ref.PublishedAt
	}
	if title == "" || date.IsZero() {
		return nil, &domain.EngineError{URL: ref.URL, Tier: tier.Name, Cause: errors.New("engine reported no title or upload date")}
	}

	return relocate(ws.Dir, destDir, title, date, p.extOrDefault(info.Ext), p.config)
}

func (p *AcquisitionPipeline) extOrDefault(ext string) string {
	if ext == "" {
		return p.config.MediaExt
	}
	return ext
}

func (p *AcquisitionPipeline) logOutcome(ref domain.VideoRef, result *domain.AcquireResult, err error) {
	if err != nil {
		p.logger.Error("Video acquisition failed", zap.String("url", ref.URL), zap.Error(err))
		if p.eventLogger != nil {
			p.eventLogger.LogArchiveEvent("video_failed",
				zap.String("url", ref.URL),
				zap.String("channel", ref.Channel),
				zap.Error(err))
		}
		return
	}

	if result.Status == domain.AcquireAlreadyArchived {
		p.logger.Debug("Video already archived", zap.String("url", ref.URL))
		if p.eventLogger != nil {
			p.eventLogger.LogArchiveEvent("video_already_archived",
				zap.String("url", ref.URL),
				zap.String("file", result.Entry.MediaPath))
		}
		return
	}

	p.logger.Info("Video archived",
		zap.String("url", ref.URL),
		zap.String("file", result.Entry.MediaPath),
		zap.String("tier", result.Tier))
	if p.eventLogger != nil {
		p.eventLogger.LogArchiveEvent("video_archived",
			zap.String("url", ref.URL),
			zap.String("channel", ref.Channel),
			zap.String("file", result.Entry.MediaPath),
			zap.String("tier", result.Tier),
			zap.Int("attempts", result.Attempts))
	}
}

func alreadyArchived(ref domain.VideoRef, mediaPath string) *domain.AcquireResult {
	return &domain.AcquireResult{
		Ref:    ref,
		Status: domain.AcquireAlreadyArchived,
		Entry:  &domain.ArchiveEntry{MediaPath: mediaPath},
	}
}
