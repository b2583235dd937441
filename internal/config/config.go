package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds the application configuration loaded from files and environment variables.
type Config struct {
	AppName  string `mapstructure:"app_name"`
	Env      string `mapstructure:"app_env"`
	LogLevel string `mapstructure:"log_level"`

	MercuryURL            string        `mapstructure:"mercury_url"`
	ConnectTimeoutSeconds int64         `mapstructure:"mercury_connect_timeout_seconds"`
	RequestTimeoutSeconds int64         `mapstructure:"mercury_request_timeout_seconds"`
	ConnectTimeout        time.Duration `mapstructure:"-"`
	RequestTimeout        time.Duration `mapstructure:"-"`

	TextFormat     string `mapstructure:"text_format"`
	ImportersFile  string `mapstructure:"importers_file"`
	PublishersFile string `mapstructure:"publishers_file"`

	SyncIntervalSeconds int64         `mapstructure:"sync_interval"`
	SyncInterval        time.Duration `mapstructure:"-"`

	StoragePath string `mapstructure:"storage_path"`
	MediaDir    string `mapstructure:"media_dir"`
}

// Load reads configuration from environment variables and config files.
func Load() (*Config, error) {
	_ = godotenv.Load("configs/.env")

	v := viper.New()

	v.SetDefault("app_name", "mercury-sync")
	v.SetDefault("app_env", "development")
	v.SetDefault("log_level", "info")
	v.SetDefault("mercury_url", "https://hg.gatech.edu")
	v.SetDefault("mercury_connect_timeout_seconds", 5)
	v.SetDefault("mercury_request_timeout_seconds", 60)
	v.SetDefault("text_format", "restricted_html")
	v.SetDefault("importers_file", "./configs/importers.yaml")
	v.SetDefault("publishers_file", "./configs/publishers.yaml")
	v.SetDefault("sync_interval", 300) // seconds
	v.SetDefault("storage_path", "./data/content.db")
	v.SetDefault("media_dir", "./data/media")

	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if strings.TrimSpace(cfg.MercuryURL) == "" {
		return nil, fmt.Errorf("mercury_url must not be empty")
	}
	cfg.MercuryURL = strings.TrimRight(strings.TrimSpace(cfg.MercuryURL), "/")

	if cfg.ConnectTimeoutSeconds <= 0 {
		return nil, fmt.Errorf("invalid mercury_connect_timeout_seconds (must be positive seconds)")
	}
	if cfg.RequestTimeoutSeconds <= 0 {
		return nil, fmt.Errorf("invalid mercury_request_timeout_seconds (must be positive seconds)")
	}
	cfg.ConnectTimeout = time.Duration(cfg.ConnectTimeoutSeconds) * time.Second
	cfg.RequestTimeout = time.Duration(cfg.RequestTimeoutSeconds) * time.Second

	if cfg.SyncIntervalSeconds <= 0 {
		return nil, fmt.Errorf("invalid sync_interval (must be positive seconds)")
	}
	cfg.SyncInterval = time.Duration(cfg.SyncIntervalSeconds) * time.Second

	return &cfg, nil
}
