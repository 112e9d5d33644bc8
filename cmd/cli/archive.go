package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/yourusername/yt-backup-go/internal/app"
	"github.com/yourusername/yt-backup-go/internal/bootstrap"
	"github.com/yourusername/yt-backup-go/internal/domain"
	"github.com/yourusername/yt-backup-go/pkg/logger"
)

var videoCmd = &cobra.Command{
	Use:   "video [url]",
	Short: "Archive a single video now",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runArchive(func(ctx context.Context, am *app.ArchiveManager, sink domain.EventSink) error {
			result, err := am.ArchiveVideo(ctx, args[0], sink)
			if err != nil {
				return err
			}
			if result.Status == domain.AcquireAlreadyArchived {
				fmt.Printf("Already archived: %s\n", result.Entry.MediaPath)
			} else {
				fmt.Printf("Archived: %s\n", result.Entry.MediaPath)
			}
			return nil
		})
	},
}

var channelCmd = &cobra.Command{
	Use:   "channel [url]",
	Short: "Archive every upload of a channel now",
	Long: `Archive every upload of a channel. The URL must have the form
https://www.youtube.com/channel/<id>. A YouTube Data API key is required,
either with --api-key or youtube.api_key in the config.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		apiKey, _ := cmd.Flags().GetString("api-key")
		return runArchive(func(ctx context.Context, am *app.ArchiveManager, sink domain.EventSink) error {
			manifest, summary, err := am.ArchiveChannel(ctx, args[0], apiKey, sink)
			if err != nil {
				return err
			}
			fmt.Printf("\nChannel:          %s\n", manifest.ChannelName)
			fmt.Printf("Videos:           %d\n", summary.Total)
			fmt.Printf("Archived:         %d\n", summary.Archived)
			fmt.Printf("Already archived: %d\n", summary.AlreadyArchived)
			fmt.Printf("Failed:           %d\n", summary.Failed)
			for _, u := range summary.FailedURLs {
				fmt.Printf("  %s\n", u)
			}
			return nil
		})
	},
}

func init() {
	channelCmd.Flags().String("api-key", "", "YouTube Data API key (overrides youtube.api_key)")
}

// runArchive loads configuration, builds an in-process archive manager and
// runs fn until it returns or the process is interrupted.
func runArchive(fn func(ctx context.Context, am *app.ArchiveManager, sink domain.EventSink) error) error {
	config, err := app.LoadConfig(configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if err := bootstrap.CreateDirectories(config); err != nil {
		return err
	}

	// Progress goes to stdout, so the process log defaults to stderr
	outputPath := config.Logging.OutputPath
	if outputPath == "stdout" {
		outputPath = "stderr"
	}
	log, err := logger.New(logger.Config{
		Level:      config.Logging.Level,
		Format:     config.Logging.Format,
		OutputPath: outputPath,
	})
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer log.Sync()

	multiLog, err := logger.NewMultiLogger(logger.MultiLoggerConfig{
		Level:   config.Logging.Level,
		LogsDir: config.Download.LogsDir,
	})
	if err != nil {
		log.Warn("Category logs disabled", zap.Error(err))
		multiLog = nil
	} else {
		defer multiLog.Close()
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	am, err := bootstrap.NewArchiveManager(ctx, config, nil, app.NewEventBroker(log), log, multiLog)
	if err != nil {
		return err
	}

	return fn(ctx, am, newProgressPrinter(os.Stdout))
}

// progressPrinter writes archive events as terminal lines
type progressPrinter struct {
	mu  sync.Mutex
	out io.Writer
}

func newProgressPrinter(out io.Writer) *progressPrinter {
	return &progressPrinter{out: out}
}

// Publish implements domain.EventSink
func (p *progressPrinter) Publish(event domain.Event) {
	p.mu.Lock()
	defer p.mu.Unlock()

	switch event.Kind {
	case domain.EventProgress:
		fmt.Fprintf(p.out, "[%s] done\n", event.Progress())
	case domain.EventItemFailed:
		fmt.Fprintf(p.out, "FAILED %s: %s\n", event.VideoURL, event.Error)
	case domain.EventFailed:
		fmt.Fprintf(p.out, "FAILED: %s\n", event.Error)
	case domain.EventFinished:
		fmt.Fprintln(p.out, "Finished")
	}
}
