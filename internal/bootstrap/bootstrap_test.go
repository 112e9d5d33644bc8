package bootstrap

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourusername/yt-backup-go/internal/domain"
)

func testConfig(t *testing.T) *domain.Config {
	t.Helper()
	dir := t.TempDir()

	config := domain.DefaultConfig()
	config.Download.BaseDir = filepath.Join(dir, "archive")
	config.Download.LogsDir = filepath.Join(dir, "logs")
	config.Queue.DatabasePath = filepath.Join(dir, "requests.db")
	config.Ledger.Path = filepath.Join(dir, "video_data.csv")
	return config
}

func TestCreateDirectories(t *testing.T) {
	config := testConfig(t)
	require.NoError(t, CreateDirectories(config))
	assert.DirExists(t, config.Download.BaseDir)
	assert.DirExists(t, config.Download.LogsDir)
}

func TestNewServices(t *testing.T) {
	config := testConfig(t)

	services, err := NewServices(context.Background(), config, nil, nil)
	require.NoError(t, err)
	defer services.Close()

	assert.NotNil(t, services.Queue)
	assert.NotNil(t, services.Archive)
	assert.False(t, services.Queue.IsRunning())
	assert.FileExists(t, config.Queue.DatabasePath)

	request, err := services.Queue.AddRequest("https://www.youtube.com/channel/UC123", "", "")
	require.NoError(t, err)
	assert.Equal(t, domain.KindChannel, request.Kind)
}
