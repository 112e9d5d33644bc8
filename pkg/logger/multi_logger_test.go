package logger

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestNewMultiLogger_RequiresLogsDir(t *testing.T) {
	_, err := NewMultiLogger(MultiLoggerConfig{Level: "info"})
	assert.Error(t, err)
}

func TestMultiLogger_CreatesCategoryFiles(t *testing.T) {
	dir := t.TempDir()

	ml, err := NewMultiLogger(MultiLoggerConfig{Level: "info", LogsDir: dir})
	require.NoError(t, err)
	defer ml.Close()

	for _, category := range Categories {
		_, err := os.Stat(CategoryLogPath(dir, category, time.Now()))
		assert.NoError(t, err, "missing %s log", category)
	}
	assert.Equal(t, dir, ml.GetLogsDir())
}

func TestMultiLogger_ArchiveEventsAreReadable(t *testing.T) {
	dir := t.TempDir()

	ml, err := NewMultiLogger(MultiLoggerConfig{Level: "info", LogsDir: dir})
	require.NoError(t, err)

	ml.LogArchiveEvent("video_archived",
		zap.String("url", "https://www.youtube.com/watch?v=a"),
		zap.String("tier", "1080p"))
	ml.LogArchiveEvent("video_failed",
		zap.String("url", "https://www.youtube.com/watch?v=b"))
	ml.LogRequestEvent("request_started", zap.String("request_id", "r1"))
	require.NoError(t, ml.Close())

	reader := NewLogReader(dir)

	entries, err := reader.ReadLogs(CategoryArchive, time.Now(), 0)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "video_archived", entries[0].Message)
	assert.Equal(t, "archive", entries[0].Category)
	assert.Equal(t, "1080p", entries[0].Fields["tier"])
	assert.Equal(t, "info", entries[0].Level)

	last, err := reader.ReadLogs(CategoryArchive, time.Now(), 1)
	require.NoError(t, err)
	require.Len(t, last, 1)
	assert.Equal(t, "video_failed", last[0].Message)

	found, err := reader.SearchLogs(CategoryArchive, time.Now(), "watch?v=b", 0)
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, "video_failed", found[0].Message)

	requests, err := reader.ReadLogs(CategoryRequests, time.Now(), 0)
	require.NoError(t, err)
	require.Len(t, requests, 1)
	assert.Equal(t, "r1", requests[0].Fields["request_id"])
}

func TestMultiLogger_ErrorCategoryDropsInfo(t *testing.T) {
	dir := t.TempDir()

	ml, err := NewMultiLogger(MultiLoggerConfig{Level: "debug", LogsDir: dir})
	require.NoError(t, err)

	ml.Error().Info("ignored")
	ml.LogAppError("boom", zap.String("component", "queue"))
	require.NoError(t, ml.Close())

	entries, err := NewLogReader(dir).ReadLogs(CategoryError, time.Now(), 0)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "boom", entries[0].Message)
}

func TestLogReader_MissingFile(t *testing.T) {
	entries, err := NewLogReader(t.TempDir()).ReadLogs(CategoryArchive, time.Now(), 10)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestLogReader_NonJSONLine(t *testing.T) {
	dir := t.TempDir()
	path := CategoryLogPath(dir, CategoryArchive, time.Now())
	require.NoError(t, os.WriteFile(path, []byte("plain text\n"), 0644))

	entries, err := NewLogReader(dir).ReadLogs(CategoryArchive, time.Now(), 0)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "plain text", entries[0].Message)
}

func TestValidCategory(t *testing.T) {
	assert.True(t, ValidCategory(CategoryArchive))
	assert.True(t, ValidCategory(CategoryRequests))
	assert.True(t, ValidCategory(CategoryError))
	assert.False(t, ValidCategory("queue"))
}

func TestNew_FileOutput(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "app.log")

	log, err := New(Config{Level: "debug", Format: "json", OutputPath: path})
	require.NoError(t, err)
	log.Info("hello")
	_ = log.Sync()

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "hello")
}
