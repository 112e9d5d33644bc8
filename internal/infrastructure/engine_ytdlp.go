package infrastructure

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	ytdlp "github.com/lrstanley/go-ytdlp"
	"go.uber.org/zap"

	"github.com/yourusername/yt-backup-go/internal/domain"
)

// uploadDateLayout is the date format yt-dlp reports in upload_date
const uploadDateLayout = "20060102"

// YTDLPEngine implements domain.Engine on top of the yt-dlp binary
type YTDLPEngine struct {
	binary  string
	logsDir string
	logger  *zap.Logger
}

// NewYTDLPEngine creates an engine running binary. Engine output is
// appended to a per-day log file under logsDir.
func NewYTDLPEngine(config *domain.EngineConfig, logsDir string, log *zap.Logger) *YTDLPEngine {
	if log == nil {
		log = zap.NewNop()
	}
	binary := config.YTDLPBinary
	if binary == "" {
		binary = "yt-dlp"
	}
	return &YTDLPEngine{
		binary:  binary,
		logsDir: logsDir,
		logger:  log,
	}
}

// Extract probes or downloads url. Metadata is read from the JSON yt-dlp
// prints for the processed video.
func (e *YTDLPEngine) Extract(ctx context.Context, url string, opts domain.ExtractOptions, download bool) (*domain.VideoInfo, error) {
	cmd := e.command(opts, download)

	engineLog, err := e.openLogFile()
	if err != nil {
		e.logger.Warn("Failed to open engine log", zap.Error(err))
	} else {
		defer engineLog.Close()
		writeLogHeader(engineLog, url, opts.Format, download)
	}

	result, runErr := cmd.Run(ctx, url)
	if engineLog != nil && result != nil {
		fmt.Fprintf(engineLog, "$ %s\n", CommandLine(result.Executable, result.Args))
		if result.Stderr != "" {
			engineLog.WriteString(strings.TrimRight(result.Stderr, "\n") + "\n")
		}
	}

	if runErr != nil {
		if engineLog != nil {
			writeLogFooter(engineLog, false, runErr.Error())
		}
		return nil, fmt.Errorf("yt-dlp failed: %w", runErr)
	}

	infos, err := result.GetExtractedInfo()
	if err != nil {
		if engineLog != nil {
			writeLogFooter(engineLog, false, err.Error())
		}
		return nil, fmt.Errorf("failed to parse yt-dlp output: %w", err)
	}
	if len(infos) == 0 {
		if engineLog != nil {
			writeLogFooter(engineLog, false, "no metadata reported")
		}
		return nil, errors.New("yt-dlp reported no metadata")
	}

	info := videoInfoFromExtracted(infos[len(infos)-1])
	if engineLog != nil {
		writeLogFooter(engineLog, true, fmt.Sprintf("%s (%s)", info.Title, info.Ext))
	}
	return info, nil
}

// command builds the yt-dlp invocation. Probes print metadata without
// downloading; downloads print the same metadata after writing files.
func (e *YTDLPEngine) command(opts domain.ExtractOptions, download bool) *ytdlp.Command {
	cmd := ytdlp.New().
		SetExecutable(e.binary).
		NoPlaylist().
		NoProgress().
		DumpJSON()

	if opts.Format != "" {
		cmd.Format(opts.Format)
	}
	if opts.OutputTemplate != "" {
		cmd.Output(opts.OutputTemplate)
	}
	if !download {
		return cmd
	}

	cmd.NoSimulate()
	if opts.WriteDescription {
		cmd.WriteDescription()
	}
	if opts.WriteThumbnail {
		cmd.WriteThumbnail()
	}
	return cmd
}

// videoInfoFromExtracted maps yt-dlp's info JSON to VideoInfo. Missing or
// malformed fields are left zero.
func videoInfoFromExtracted(info *ytdlp.ExtractedInfo) *domain.VideoInfo {
	out := &domain.VideoInfo{}
	if info == nil {
		return out
	}
	if info.Title != nil {
		out.Title = *info.Title
	}
	if info.UploadDate != nil {
		out.UploadDate = parseUploadDate(*info.UploadDate)
	}
	if info.Filename != nil {
		out.Ext = strings.TrimPrefix(filepath.Ext(*info.Filename), ".")
	}
	return out
}

func parseUploadDate(s string) time.Time {
	t, err := time.Parse(uploadDateLayout, s)
	if err != nil {
		return time.Time{}
	}
	return t
}

// openLogFile opens the engine log file for today
func (e *YTDLPEngine) openLogFile() (*os.File, error) {
	if e.logsDir == "" {
		return nil, errors.New("no logs directory configured")
	}
	if err := os.MkdirAll(e.logsDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create logs directory: %w", err)
	}

	dateStr := time.Now().Format("20060102")
	path := filepath.Join(e.logsDir, "engine-"+dateStr+".log")
	return os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
}

// writeLogHeader writes the invocation start marker
func writeLogHeader(file *os.File, url, format string, download bool) {
	timestamp := time.Now().Format("2006-01-02 15:04:05")
	mode := "probe"
	if download {
		mode = "download"
	}
	fmt.Fprintf(file, "\n=== [%s] %s: %s (format %s) ===\n", timestamp, mode, url, format)
}

// writeLogFooter writes the invocation end marker
func writeLogFooter(file *os.File, success bool, message string) {
	timestamp := time.Now().Format("2006-01-02 15:04:05")
	status := "SUCCESS"
	if !success {
		status = "FAILED"
	}
	fmt.Fprintf(file, "[%s] %s: %s\n", timestamp, status, message)
	file.WriteString("=== END ===\n\n")
}
