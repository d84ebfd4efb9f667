package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds the complete application configuration
type Config struct {
	ActivityWatch ActivityWatchConfig `mapstructure:"activitywatch"`
	Polling       PollingConfig       `mapstructure:"polling"`
	Categories    CategoriesConfig    `mapstructure:"categories"`
	Notify        NotifyConfig        `mapstructure:"notify"`
	Storage       StorageConfig       `mapstructure:"storage"`
	Metrics       MetricsConfig       `mapstructure:"metrics"`
	Logging       LoggingConfig       `mapstructure:"logging"`
}

// ActivityWatchConfig defines how to reach the ActivityWatch server
type ActivityWatchConfig struct {
	URL      string `mapstructure:"url"`
	Hostname string `mapstructure:"hostname"` // Prefer buckets of this host, defaults to os.Hostname
	Timeout  string `mapstructure:"timeout"`
}

// PollingConfig defines the poll loop schedule
type PollingConfig struct {
	Interval     string `mapstructure:"interval"`
	FetchTimeout string `mapstructure:"fetch_timeout"`
	MaxBackoff   string `mapstructure:"max_backoff"`
	Cutoff       string `mapstructure:"cutoff"`    // HH:MM, end-of-day summary
	DayStart     string `mapstructure:"day_start"` // HH:MM, daily reset
}

// CategoriesConfig defines where category rules come from
type CategoriesConfig struct {
	Path      string `mapstructure:"path"` // Empty means the default location
	CacheSize int    `mapstructure:"cache_size"`
}

// NotifyConfig defines notification delivery
type NotifyConfig struct {
	Sink    string `mapstructure:"sink"` // "desktop" or "log"
	AppName string `mapstructure:"app_name"`
	Icon    string `mapstructure:"icon"`
	TopN    int    `mapstructure:"top_n"`
}

// StorageConfig defines storage backend settings
type StorageConfig struct {
	Type  string      `mapstructure:"type"` // "memory", "bolt" or "redis"
	Path  string      `mapstructure:"path"` // bolt database file, empty means the default location
	Redis RedisConfig `mapstructure:"redis"`
}

// RedisConfig defines Redis connection settings
type RedisConfig struct {
	Host         string `mapstructure:"host"`
	Port         int    `mapstructure:"port"` // Zero when Host already holds host:port
	Password     string `mapstructure:"password"`
	DB           int    `mapstructure:"db"`
	PoolSize     int    `mapstructure:"pool_size"`
	MinIdleConns int    `mapstructure:"min_idle_conns"`
	DialTimeout  string `mapstructure:"dial_timeout"`
	ReadTimeout  string `mapstructure:"read_timeout"`
	WriteTimeout string `mapstructure:"write_timeout"`
	KeyPrefix    string `mapstructure:"key_prefix"`
}

// MetricsConfig defines the Prometheus endpoint
type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Listen  string `mapstructure:"listen"`
}

// LoggingConfig defines logging behavior
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// Load loads configuration from file and environment variables. An empty
// configPath, or a path that does not exist, yields defaults plus environment.
func Load(configPath string) (*Config, error) {
	v := viper.New()

	// Set defaults
	setDefaults(v)

	// Configure viper
	v.SetEnvPrefix("AWNOTIFY")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Read config file
	if configPath != "" {
		if _, err := os.Stat(configPath); err == nil {
			v.SetConfigFile(configPath)
			if err := v.ReadInConfig(); err != nil {
				return nil, fmt.Errorf("failed to read config file: %w", err)
			}
		} else if !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		// Config file not found, use defaults and environment variables
	}

	// Unmarshal config
	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if config.ActivityWatch.Hostname == "" {
		config.ActivityWatch.Hostname, _ = os.Hostname()
	}

	// Validate config
	if err := validate(&config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// DefaultPath returns the per-user configuration file location
func DefaultPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "config.yaml"
	}
	return filepath.Join(dir, "awnotify", "config.yaml")
}

// Defaults returns the configuration used when nothing is set
func Defaults() *Config {
	v := viper.New()
	setDefaults(v)

	var cfg Config
	_ = v.Unmarshal(&cfg)
	return &cfg
}

// UnknownKeys returns the keys of a config file that no setting reads
func UnknownKeys(configPath string) ([]string, error) {
	file := viper.New()
	file.SetConfigFile(configPath)
	if err := file.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	known := viper.New()
	setDefaults(known)
	valid := known.AllKeys()

	var unknown []string
	for _, key := range file.AllKeys() {
		if !slices.Contains(valid, key) {
			unknown = append(unknown, key)
		}
	}
	slices.Sort(unknown)
	return unknown, nil
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	// ActivityWatch defaults
	v.SetDefault("activitywatch.url", "http://localhost:5600")
	v.SetDefault("activitywatch.hostname", "")
	v.SetDefault("activitywatch.timeout", "10s")

	// Polling defaults
	v.SetDefault("polling.interval", "60s")
	v.SetDefault("polling.fetch_timeout", "30s")
	v.SetDefault("polling.max_backoff", "10m")
	v.SetDefault("polling.cutoff", "22:00")
	v.SetDefault("polling.day_start", "00:00")

	// Category defaults
	v.SetDefault("categories.path", "")
	v.SetDefault("categories.cache_size", 4096)

	// Notification defaults
	v.SetDefault("notify.sink", "desktop")
	v.SetDefault("notify.app_name", "ActivityWatch notify")
	v.SetDefault("notify.icon", "")
	v.SetDefault("notify.top_n", 4)

	// Storage defaults
	v.SetDefault("storage.type", "memory")
	v.SetDefault("storage.path", "")
	v.SetDefault("storage.redis.host", "localhost")
	v.SetDefault("storage.redis.port", 6379)
	v.SetDefault("storage.redis.password", "")
	v.SetDefault("storage.redis.db", 0)
	v.SetDefault("storage.redis.pool_size", 4)
	v.SetDefault("storage.redis.min_idle_conns", 1)
	v.SetDefault("storage.redis.dial_timeout", "5s")
	v.SetDefault("storage.redis.read_timeout", "3s")
	v.SetDefault("storage.redis.write_timeout", "3s")
	v.SetDefault("storage.redis.key_prefix", "awnotify")

	// Metrics defaults
	v.SetDefault("metrics.enabled", false)
	v.SetDefault("metrics.listen", "127.0.0.1:9377")

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "text")
}

// validate validates the configuration
func validate(cfg *Config) error {
	if cfg.ActivityWatch.URL == "" {
		return errors.New("activitywatch.url is required")
	}

	durations := map[string]string{
		"activitywatch.timeout": cfg.ActivityWatch.Timeout,
		"polling.interval":      cfg.Polling.Interval,
		"polling.fetch_timeout": cfg.Polling.FetchTimeout,
		"polling.max_backoff":   cfg.Polling.MaxBackoff,
	}
	for key, value := range durations {
		d, err := time.ParseDuration(value)
		if err != nil {
			return fmt.Errorf("invalid %s %q: %w", key, value, err)
		}
		if d <= 0 {
			return fmt.Errorf("%s must be positive, got %s", key, value)
		}
	}

	for key, value := range map[string]string{
		"polling.cutoff":    cfg.Polling.Cutoff,
		"polling.day_start": cfg.Polling.DayStart,
	} {
		if _, err := time.Parse("15:04", value); err != nil {
			return fmt.Errorf("invalid %s %q (want HH:MM)", key, value)
		}
	}
	if cfg.Polling.Cutoff == cfg.Polling.DayStart {
		return errors.New("polling.cutoff must differ from polling.day_start")
	}

	if cfg.Categories.CacheSize < 0 {
		return fmt.Errorf("invalid categories.cache_size: %d", cfg.Categories.CacheSize)
	}

	switch cfg.Notify.Sink {
	case "desktop", "log":
	default:
		return fmt.Errorf("invalid notify.sink %q (must be desktop or log)", cfg.Notify.Sink)
	}
	if cfg.Notify.TopN <= 0 {
		return fmt.Errorf("invalid notify.top_n: %d", cfg.Notify.TopN)
	}

	if cfg.Storage.Type == "" {
		cfg.Storage.Type = "memory"
	}
	switch cfg.Storage.Type {
	case "memory", "bolt":
	case "redis":
		if cfg.Storage.Redis.Host == "" {
			return errors.New("storage.redis.host is required for redis storage")
		}
	default:
		return fmt.Errorf("invalid storage.type %q (must be memory, bolt or redis)", cfg.Storage.Type)
	}

	if cfg.Metrics.Enabled && cfg.Metrics.Listen == "" {
		return errors.New("metrics.listen is required when metrics are enabled")
	}

	return nil
}
