package app

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourusername/yt-backup-go/internal/domain"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoadConfig_File(t *testing.T) {
	path := writeConfig(t, `
server:
  port: 9090
download:
  base_dir: /srv/archive
  concurrent_limit: 2
  scratch_poll_interval: 1s
  tiers:
    - name: 720p
      format: "best[height=720]"
      attempts: 2
youtube:
  api_key: file-key
queue:
  database_path: /srv/archive/requests.db
`)

	config, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, 9090, config.Server.Port)
	assert.Equal(t, "/srv/archive", config.Download.BaseDir)
	assert.Equal(t, 2, config.Download.ConcurrentLimit)
	assert.Equal(t, time.Second, config.Download.ScratchPollInterval)
	assert.Equal(t, []domain.QualityTier{{Name: "720p", Format: "best[height=720]", Attempts: 2}}, config.Download.Tiers)
	assert.Equal(t, "file-key", config.YouTube.APIKey)

	// untouched sections keep their defaults
	assert.Equal(t, 10, config.Download.PageConcurrency)
	assert.Equal(t, "yt-dlp", config.Engine.YTDLPBinary)
	assert.Equal(t, int64(50), config.YouTube.PageSize)
}

func TestLoadConfig_TiersReplaceDefaults(t *testing.T) {
	path := writeConfig(t, "download:\n  tiers:\n    - name: only\n      format: worst\n      attempts: 1\n")

	config, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, []domain.QualityTier{{Name: "only", Format: "worst", Attempts: 1}}, config.Download.Tiers)
}

func TestLoadConfig_DefaultTiersWithoutLadder(t *testing.T) {
	config, err := LoadConfig(writeConfig(t, "server:\n  port: 9090\n"))
	require.NoError(t, err)

	assert.Equal(t, domain.DefaultTiers(), config.Download.Tiers)
}

func TestLoadConfig_EnvOverride(t *testing.T) {
	path := writeConfig(t, "server:\n  port: 9090\n")
	t.Setenv("YTBACKUP_YOUTUBE_API_KEY", "env-key")
	t.Setenv("YTBACKUP_DOWNLOAD_CONCURRENT_LIMIT", "3")

	config, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "env-key", config.YouTube.APIKey)
	assert.Equal(t, 3, config.Download.ConcurrentLimit)
}

func TestLoadConfig_ExpandsHome(t *testing.T) {
	home, err := os.UserHomeDir()
	require.NoError(t, err)

	path := writeConfig(t, "download:\n  base_dir: ~/videos\n")

	config, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(home, "videos"), config.Download.BaseDir)
	assert.Equal(t, filepath.Join(home, "Downloads/yt-backup/requests.db"), config.Queue.DatabasePath)
}

func TestLoadConfig_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"bad port", "server:\n  port: 70000\n"},
		{"zero concurrency", "download:\n  concurrent_limit: 0\n"},
		{"tier without format", "download:\n  tiers:\n    - name: x\n"},
		{"page size too large", "youtube:\n  page_size: 500\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadConfig(writeConfig(t, tt.content))
			assert.Error(t, err)
		})
	}
}

func TestLoadConfig_MissingFile(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestSaveConfig_RoundTrip(t *testing.T) {
	config := domain.DefaultConfig()
	config.Server.Port = 9999
	config.Download.BaseDir = "/srv/archive"
	config.YouTube.APIKey = "saved-key"

	path := filepath.Join(t.TempDir(), "nested", "config.yaml")
	require.NoError(t, SaveConfig(config, path))

	loaded, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, 9999, loaded.Server.Port)
	assert.Equal(t, "/srv/archive", loaded.Download.BaseDir)
	assert.Equal(t, "saved-key", loaded.YouTube.APIKey)
	assert.Equal(t, config.Download.Tiers, loaded.Download.Tiers)
	assert.Equal(t, config.Queue.CheckInterval, loaded.Queue.CheckInterval)
}
