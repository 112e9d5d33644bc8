package app

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"

	"github.com/yourusername/yt-backup-go/internal/domain"
)

// envPrefix prefixes every environment override, e.g. YTBACKUP_YOUTUBE_API_KEY
const envPrefix = "YTBACKUP"

// envKeys are the settings that can be overridden from the environment
// without a config file.
var envKeys = []string{
	"server.host",
	"server.port",
	"download.base_dir",
	"download.logs_dir",
	"download.concurrent_limit",
	"download.page_concurrency",
	"queue.database_path",
	"queue.max_active_requests",
	"youtube.api_key",
	"youtube.endpoint",
	"engine.ytdlp_binary",
	"ledger.path",
	"notification.enabled",
	"notification.method",
	"logging.level",
	"logging.format",
	"logging.output_path",
}

// LoadConfig loads configuration from file and environment
func LoadConfig(configPath string) (*domain.Config, error) {
	config := domain.DefaultConfig()

	v := viper.New()
	v.SetConfigType("yaml")

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.AddConfigPath("./configs")
		v.AddConfigPath("$HOME/.yt-backup")
		v.AddConfigPath("/etc/yt-backup")
	}

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for _, key := range envKeys {
		if err := v.BindEnv(key); err != nil {
			return nil, fmt.Errorf("failed to bind %s: %w", key, err)
		}
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		// Config file not found, use defaults
	}

	// a configured ladder replaces the default one instead of merging by index
	if v.IsSet("download.tiers") {
		config.Download.Tiers = nil
	}

	if err := v.Unmarshal(config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	config = expandPaths(config)

	if err := validateConfig(config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return config, nil
}

// expandPaths expands environment variables in path configurations
func expandPaths(config *domain.Config) *domain.Config {
	config.Download.BaseDir = expandPath(config.Download.BaseDir)
	config.Download.LogsDir = expandPath(config.Download.LogsDir)
	config.Queue.DatabasePath = expandPath(config.Queue.DatabasePath)
	config.Ledger.Path = expandPath(config.Ledger.Path)

	if config.Logging.OutputPath != "stdout" && config.Logging.OutputPath != "stderr" {
		config.Logging.OutputPath = expandPath(config.Logging.OutputPath)
	}

	return config
}

// expandPath expands environment variables and ~ in paths
func expandPath(path string) string {
	if strings.HasPrefix(path, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			path = filepath.Join(home, path[2:])
		}
	}

	// $HOME is resolved through UserHomeDir so it works where HOME is unset
	if strings.Contains(path, "$HOME") {
		if home, err := os.UserHomeDir(); err == nil {
			path = strings.ReplaceAll(path, "$HOME", home)
		}
	}

	return os.ExpandEnv(path)
}

// validateConfig validates the configuration
func validateConfig(config *domain.Config) error {
	if config.Server.Port < 1 || config.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", config.Server.Port)
	}

	if config.Download.BaseDir == "" {
		return fmt.Errorf("download base directory not configured")
	}

	if config.Download.ConcurrentLimit < 1 {
		return fmt.Errorf("concurrent limit must be at least 1")
	}

	if config.Download.PageConcurrency < 1 {
		return fmt.Errorf("page concurrency must be at least 1")
	}

	if len(config.Download.Tiers) == 0 {
		return fmt.Errorf("at least one quality tier must be configured")
	}
	for i, tier := range config.Download.Tiers {
		if tier.Format == "" {
			return fmt.Errorf("quality tier %d has no format", i)
		}
	}

	if config.Download.ScratchPollAttempts < 0 {
		return fmt.Errorf("scratch poll attempts cannot be negative")
	}

	if config.Queue.DatabasePath == "" {
		return fmt.Errorf("queue database path not configured")
	}

	if config.Queue.MaxActiveRequests < 1 {
		return fmt.Errorf("max active requests must be at least 1")
	}

	if config.Queue.CheckInterval <= 0 {
		return fmt.Errorf("queue check interval must be positive")
	}

	if config.YouTube.PageSize < 1 || config.YouTube.PageSize > 50 {
		return fmt.Errorf("youtube page size must be between 1 and 50")
	}

	if config.Ledger.Path == "" {
		return fmt.Errorf("ledger path not configured")
	}

	if config.Logging.Level == "" {
		config.Logging.Level = "info"
	}

	return nil
}

// SaveConfig saves configuration to file
func SaveConfig(config *domain.Config, path string) error {
	var settings map[string]interface{}
	if err := mapstructure.Decode(config, &settings); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}

	v := viper.New()
	v.SetConfigType("yaml")
	for key, value := range settings {
		v.Set(key, value)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	if err := v.WriteConfigAs(path); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}
