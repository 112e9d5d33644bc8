package domain

import "time"

// Config represents the application configuration
type Config struct {
	Server       ServerConfig       `mapstructure:"server"`
	Download     DownloadConfig     `mapstructure:"download"`
	Queue        QueueConfig        `mapstructure:"queue"`
	YouTube      YouTubeConfig      `mapstructure:"youtube"`
	Engine       EngineConfig       `mapstructure:"engine"`
	Ledger       LedgerConfig       `mapstructure:"ledger"`
	Notification NotificationConfig `mapstructure:"notification"`
	Logging      LoggingConfig      `mapstructure:"logging"`
}

// ServerConfig contains server-related configuration
type ServerConfig struct {
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port"`
}

// DownloadConfig contains archive-related configuration
type DownloadConfig struct {
	BaseDir             string        `mapstructure:"base_dir"`
	LogsDir             string        `mapstructure:"logs_dir"`
	ConcurrentLimit     int           `mapstructure:"concurrent_limit"`
	PageConcurrency     int           `mapstructure:"page_concurrency"`
	ScratchPollInterval time.Duration `mapstructure:"scratch_poll_interval"`
	ScratchPollAttempts int           `mapstructure:"scratch_poll_attempts"`
	MediaExt            string        `mapstructure:"media_ext"`
	ThumbnailExt        string        `mapstructure:"thumbnail_ext"`
	DescriptionExt      string        `mapstructure:"description_ext"`
	Tiers               []QualityTier `mapstructure:"tiers"`
}

// QueueConfig contains request queue configuration
type QueueConfig struct {
	DatabasePath      string        `mapstructure:"database_path"`
	CheckInterval     time.Duration `mapstructure:"check_interval"`
	MaxActiveRequests int           `mapstructure:"max_active_requests"`
	AutoStartWorkers  bool          `mapstructure:"auto_start_workers"`
}

// YouTubeConfig contains YouTube Data API configuration
type YouTubeConfig struct {
	APIKey   string `mapstructure:"api_key"`
	Endpoint string `mapstructure:"endpoint"` // empty uses the public API
	PageSize int64  `mapstructure:"page_size"`
}

// EngineConfig contains download engine configuration
type EngineConfig struct {
	YTDLPBinary string `mapstructure:"ytdlp_binary"`
}

// LedgerConfig contains archive ledger configuration
type LedgerConfig struct {
	Path string `mapstructure:"path"`
}

// NotificationConfig contains notification-related configuration
type NotificationConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Method  string `mapstructure:"method"` // osascript, notify-send
}

// LoggingConfig contains logging-related configuration
type LoggingConfig struct {
	Level      string `mapstructure:"level"`       // debug, info, warn, error
	Format     string `mapstructure:"format"`      // json, console
	OutputPath string `mapstructure:"output_path"` // stdout, stderr, or file path
}

// DefaultTiers returns the quality ladder tried for every video, best first.
func DefaultTiers() []QualityTier {
	return []QualityTier{
		{
			Name:     "1080p",
			Format:   "bestvideo[ext=mp4][height=1080]+bestaudio[ext=m4a]/best[ext=mp4][height=1080]",
			Attempts: 1,
		},
		{
			Name:     "720p",
			Format:   "bestvideo[ext=mp4][height=720]+bestaudio[ext=m4a]/best[ext=mp4][height=720]",
			Attempts: 1,
		},
		{
			Name:     "best",
			Format:   "best",
			Attempts: 4,
		},
	}
}

// DefaultConfig returns a configuration with default values
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host: "localhost",
			Port: 8080,
		},
		Download: DownloadConfig{
			BaseDir:             "$HOME/Downloads/yt-backup",
			LogsDir:             "$HOME/Downloads/yt-backup/logs",
			ConcurrentLimit:     4,
			PageConcurrency:     10,
			ScratchPollInterval: 3 * time.Second,
			ScratchPollAttempts: 5,
			MediaExt:            "mp4",
			ThumbnailExt:        "jpg",
			DescriptionExt:      "txt",
			Tiers:               DefaultTiers(),
		},
		Queue: QueueConfig{
			DatabasePath:      "$HOME/Downloads/yt-backup/requests.db",
			CheckInterval:     2 * time.Second,
			MaxActiveRequests: 4,
			AutoStartWorkers:  true,
		},
		YouTube: YouTubeConfig{
			PageSize: 50,
		},
		Engine: EngineConfig{
			YTDLPBinary: "yt-dlp",
		},
		Ledger: LedgerConfig{
			Path: "video_data.csv",
		},
		Notification: NotificationConfig{
			Enabled: false,
			Method:  "notify-send",
		},
		Logging: LoggingConfig{
			Level:      "info",
			Format:     "console",
			OutputPath: "stdout",
		},
	}
}
