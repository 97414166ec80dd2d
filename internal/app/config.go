package app

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/mindmorass/infinity-clipboard/internal/backend"
	"github.com/mindmorass/infinity-clipboard/internal/host"
	"github.com/spf13/viper"
)

const (
	// ConfigFileName is the config file name (without extension)
	ConfigFileName = "config"

	// ConfigDir is the directory for config files
	ConfigDir = ".infinity-clipboard"

	// EnvPrefix prefixes environment overrides, e.g. INFCLIP_BACKEND_TYPE
	EnvPrefix = "INFCLIP"
)

// Config holds application configuration
type Config struct {
	// Backend configuration
	BackendType string `mapstructure:"backend_type" yaml:"backend_type" json:"backend_type"` // local, sqlite, s3, dropbox or memory
	DataDir     string `mapstructure:"data_dir" yaml:"data_dir" json:"data_dir"`
	SQLitePath  string `mapstructure:"sqlite_path" yaml:"sqlite_path" json:"sqlite_path"`

	// S3-specific settings
	S3Bucket   string `mapstructure:"s3_bucket" yaml:"s3_bucket" json:"s3_bucket"`
	S3Prefix   string `mapstructure:"s3_prefix" yaml:"s3_prefix" json:"s3_prefix"`
	S3Region   string `mapstructure:"s3_region" yaml:"s3_region" json:"s3_region"`
	S3Endpoint string `mapstructure:"s3_endpoint" yaml:"s3_endpoint" json:"s3_endpoint"`

	// Dropbox-specific settings (tokens live in the keychain or the secrets dir)
	DropboxAppKey    string `mapstructure:"dropbox_app_key" yaml:"dropbox_app_key" json:"dropbox_app_key"`
	DropboxAppSecret string `mapstructure:"dropbox_app_secret" yaml:"dropbox_app_secret" json:"dropbox_app_secret"`

	DownloadDir     string        `mapstructure:"download_dir" yaml:"download_dir" json:"download_dir"`
	CaptureInterval time.Duration `mapstructure:"capture_interval" yaml:"capture_interval" json:"capture_interval"`
	TrayItems       int           `mapstructure:"tray_items" yaml:"tray_items" json:"tray_items"`
	CheckUpdates    bool          `mapstructure:"check_updates" yaml:"check_updates" json:"check_updates"`
	LogLevel        string        `mapstructure:"log_level" yaml:"log_level" json:"log_level"`
}

// defaults returns every config key with its default value
func defaults() map[string]interface{} {
	d := DefaultConfig()
	return map[string]interface{}{
		"backend_type":       d.BackendType,
		"data_dir":           d.DataDir,
		"sqlite_path":        d.SQLitePath,
		"s3_bucket":          d.S3Bucket,
		"s3_prefix":          d.S3Prefix,
		"s3_region":          d.S3Region,
		"s3_endpoint":        d.S3Endpoint,
		"dropbox_app_key":    d.DropboxAppKey,
		"dropbox_app_secret": d.DropboxAppSecret,
		"download_dir":       d.DownloadDir,
		"capture_interval":   d.CaptureInterval,
		"tray_items":         d.TrayItems,
		"check_updates":      d.CheckUpdates,
		"log_level":          d.LogLevel,
	}
}

// Keys lists the configuration keys in sorted order
func Keys() []string {
	d := defaults()
	keys := make([]string, 0, len(d))
	for k := range d {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	home := homeDir()
	return &Config{
		BackendType:     string(backend.BackendLocal),
		DataDir:         home,
		SQLitePath:      filepath.Join(home, ConfigDir, backend.DefaultSQLiteFile),
		DownloadDir:     host.DefaultDownloadDir(),
		CaptureInterval: 500 * time.Millisecond,
		TrayItems:       10,
		CheckUpdates:    true,
		LogLevel:        "info",
	}
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetConfigType("yaml")
	v.SetEnvPrefix(EnvPrefix)
	v.AutomaticEnv()
	for k, val := range defaults() {
		v.SetDefault(k, val)
	}
	return v
}

// LoadConfig loads configuration from path, or from the default location
// when path is empty. A missing file yields the defaults plus any
// environment overrides.
func LoadConfig(path string) (*Config, error) {
	if path == "" {
		path = DefaultConfigPath()
	}

	v := newViper()
	v.SetConfigFile(path)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &config, nil
}

// SaveConfig writes the configuration to path (or the default location)
func SaveConfig(config *Config, path string) error {
	if path == "" {
		path = DefaultConfigPath()
	}

	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return err
	}

	v := viper.New()
	v.SetConfigType("yaml")
	v.Set("backend_type", config.BackendType)
	v.Set("data_dir", config.DataDir)
	v.Set("sqlite_path", config.SQLitePath)
	v.Set("s3_bucket", config.S3Bucket)
	v.Set("s3_prefix", config.S3Prefix)
	v.Set("s3_region", config.S3Region)
	v.Set("s3_endpoint", config.S3Endpoint)
	v.Set("dropbox_app_key", config.DropboxAppKey)
	v.Set("dropbox_app_secret", config.DropboxAppSecret)
	v.Set("download_dir", config.DownloadDir)
	v.Set("capture_interval", config.CaptureInterval.String())
	v.Set("tray_items", config.TrayItems)
	v.Set("check_updates", config.CheckUpdates)
	v.Set("log_level", config.LogLevel)

	return v.WriteConfigAs(path)
}

// SetValue changes one key in the config file at path, keeping the others
func SetValue(path, key, value string) error {
	if path == "" {
		path = DefaultConfigPath()
	}
	if _, ok := defaults()[key]; !ok {
		return fmt.Errorf("unknown config key %q (known: %s)", key, strings.Join(Keys(), ", "))
	}

	v := newViper()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil && !errors.Is(err, os.ErrNotExist) {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return fmt.Errorf("read config %s: %w", path, err)
		}
	}
	v.Set(key, value)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return fmt.Errorf("invalid value for %s: %w", key, err)
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	return SaveConfig(&cfg, path)
}

// Validate checks values that would otherwise fail later and far away
func (c *Config) Validate() error {
	if c.BackendType == "" {
		c.BackendType = string(backend.BackendLocal)
	}
	if _, err := backend.ParseType(c.BackendType); err != nil {
		return err
	}
	if c.CaptureInterval <= 0 {
		return fmt.Errorf("capture_interval must be positive, got %s", c.CaptureInterval)
	}
	if c.TrayItems < 0 {
		return fmt.Errorf("tray_items must not be negative, got %d", c.TrayItems)
	}
	return nil
}

// BackendConfig converts the settings into a backend.Config
func (c *Config) BackendConfig() *backend.Config {
	cfg := &backend.Config{
		Type:             backend.BackendType(c.BackendType),
		Location:         c.DataDir,
		S3Bucket:         c.S3Bucket,
		S3Prefix:         c.S3Prefix,
		S3Region:         c.S3Region,
		S3Endpoint:       c.S3Endpoint,
		DropboxAppKey:    c.DropboxAppKey,
		DropboxAppSecret: c.DropboxAppSecret,
	}

	if cfg.Type == "" {
		cfg.Type = backend.BackendLocal
	}
	if cfg.Type == backend.BackendSQLite {
		cfg.Location = c.SQLitePath
	}

	return cfg
}

// DefaultConfigPath returns ~/.infinity-clipboard/config.yaml
func DefaultConfigPath() string {
	return filepath.Join(homeDir(), ConfigDir, ConfigFileName+".yaml")
}

func homeDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return home
}
