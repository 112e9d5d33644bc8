package infrastructure

import (
	"context"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/yourusername/yt-backup-go/internal/domain"
)

const (
	notifyTimeout = 5 * time.Second
	maxSubjectLen = 40
)

// commandRunner runs an external notification command
type commandRunner func(ctx context.Context, name string, args ...string) error

func runCommand(ctx context.Context, name string, args ...string) error {
	return exec.CommandContext(ctx, name, args...).Run()
}

// NotificationService sends desktop notifications about archive requests
type NotificationService struct {
	config *domain.NotificationConfig
	logger *zap.Logger
	run    commandRunner
}

// NewNotificationService creates a new notification service
func NewNotificationService(config *domain.NotificationConfig, log *zap.Logger) *NotificationService {
	if log == nil {
		log = zap.NewNop()
	}
	return &NotificationService{
		config: config,
		logger: log,
		run:    runCommand,
	}
}

// Send shows a notification. Failures are logged and returned; callers on
// the archive path ignore them.
func (n *NotificationService) Send(title, message string) error {
	if !n.config.Enabled {
		n.logger.Debug("Notifications disabled, skipping",
			zap.String("title", title),
			zap.String("message", message))
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), notifyTimeout)
	defer cancel()

	var err error
	switch n.config.Method {
	case "osascript":
		script := fmt.Sprintf(`display notification %s with title %s`, appleScriptString(message), appleScriptString(title))
		err = n.run(ctx, "osascript", "-e", script)
	case "notify-send":
		err = n.run(ctx, "notify-send", title, message)
	default:
		n.logger.Warn("Unknown notification method", zap.String("method", n.config.Method))
		return nil
	}

	if err != nil {
		n.logger.Error("Failed to send notification",
			zap.String("method", n.config.Method),
			zap.Error(err))
		return err
	}

	n.logger.Debug("Notification sent",
		zap.String("title", title),
		zap.String("message", message))
	return nil
}

// NotifyRequestStarted announces that a request began processing
func (n *NotificationService) NotifyRequestStarted(request *domain.Request) {
	n.Send("Archive Started", fmt.Sprintf("Processing %s: %s", request.Kind, subject(request)))
}

// NotifyRequestCompleted announces a finished request with its counts
func (n *NotificationService) NotifyRequestCompleted(request *domain.Request) {
	message := fmt.Sprintf("Archived %s", subject(request))
	if request.Kind == domain.KindChannel {
		message = fmt.Sprintf("%s: %d archived, %d failed", subject(request), request.Archived, request.Failed)
	}
	n.Send("Archive Completed", message)
}

// NotifyRequestFailed announces a failed request
func (n *NotificationService) NotifyRequestFailed(request *domain.Request, err error) {
	message := fmt.Sprintf("Failed: %s", subject(request))
	if err != nil {
		message = fmt.Sprintf("%s (%s)", message, truncateString(err.Error(), maxSubjectLen))
	}
	n.Send("Archive Failed", message)
}

// subject names a request by channel when known, otherwise by URL
func subject(request *domain.Request) string {
	if request.ChannelName != "" {
		return truncateString(request.ChannelName, maxSubjectLen)
	}
	return truncateString(request.URL, maxSubjectLen)
}

// appleScriptString quotes s as an AppleScript string literal
func appleScriptString(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, `"`, `\"`)
	return `"` + s + `"`
}

// truncateString shortens s to maxLen runes
func truncateString(s string, maxLen int) string {
	runes := []rune(s)
	if len(runes) <= maxLen {
		return s
	}
	return string(runes[:maxLen]) + "..."
}
