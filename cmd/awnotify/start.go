package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/goodtune/awnotify/internal/activity"
	"github.com/goodtune/awnotify/internal/admin"
	"github.com/goodtune/awnotify/internal/category"
	"github.com/goodtune/awnotify/internal/config"
	"github.com/goodtune/awnotify/internal/metrics"
	"github.com/goodtune/awnotify/internal/notify"
	"github.com/goodtune/awnotify/internal/scheduler"
	"github.com/goodtune/awnotify/internal/storage"
	"github.com/goodtune/awnotify/internal/storage/bolt"
	"github.com/goodtune/awnotify/internal/storage/memory"
	"github.com/goodtune/awnotify/internal/storage/redis"
	"github.com/goodtune/awnotify/internal/systemd"
	"github.com/goodtune/awnotify/internal/usage"
)

var (
	startInterval  int
	startCutoff    string
	categoriesFile string
)

var startCmd = &cobra.Command{
	Use:   "start",
	Short: "Start the notification daemon",
	Long: `Poll ActivityWatch until interrupted, sending a notification whenever a
category crosses one of its thresholds and a daily summary at the cutoff.`,
	Example: `  awnotify start
  awnotify start --interval 30 --cutoff 21:00 --categories ~/categories.yaml`,
	Args: cobra.NoArgs,
	RunE: runStart,
}

func init() {
	startCmd.Flags().IntVar(&startInterval, "interval", 0, "Seconds between polls (overrides polling.interval)")
	startCmd.Flags().StringVar(&startCutoff, "cutoff", "", "Time of the daily summary, HH:MM (overrides polling.cutoff)")
	startCmd.Flags().StringVar(&categoriesFile, "categories", "", "Category rules file (overrides categories.path)")
	rootCmd.AddCommand(startCmd)
}

func runStart(cmd *cobra.Command, args []string) error {
	if cmd.Flags().Changed("interval") && startInterval <= 0 {
		return fmt.Errorf("--interval must be positive, got %d", startInterval)
	}

	// Load configuration
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if startInterval > 0 {
		cfg.Polling.Interval = fmt.Sprintf("%ds", startInterval)
	}
	if startCutoff != "" {
		cfg.Polling.Cutoff = startCutoff
	}

	// Setup logger
	logger := setupLogger(cfg.Logging)
	log.Logger = logger

	logger.Info().
		Str("version", version).
		Str("config", configPath).
		Msg("Starting awnotify")

	// Check for systemd socket activation
	sdListeners, err := systemd.GetListeners()
	if err != nil {
		return fmt.Errorf("failed to get systemd listeners: %w", err)
	}
	if sdListeners.Activated {
		logger.Info().Msg("Running with systemd socket activation")
	}

	pollerCfg, err := schedulerConfig(cfg)
	if err != nil {
		return err
	}

	// Load category rules
	rules, err := loadRules(cfg.Categories.Path, logger)
	if err != nil {
		return err
	}

	classifier, err := category.NewClassifier(rules, cfg.Categories.CacheSize, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize classifier: %w", err)
	}

	// Initialize storage
	store, err := openStorage(cfg.Storage)
	if err != nil {
		return fmt.Errorf("failed to initialize storage: %w", err)
	}
	defer func() {
		if err := store.Close(); err != nil {
			logger.Error().Err(err).Msg("Failed to close storage")
		}
	}()

	logger.Info().Str("type", cfg.Storage.Type).Msg("Storage initialized")

	// Initialize notifications
	sink, err := notify.NewSink(cfg.Notify.Sink, cfg.Notify.AppName, cfg.Notify.Icon, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize notifications: %w", err)
	}
	dispatcher := notify.NewDispatcher(sink, logger)

	source := newSource(cfg, logger)

	poller := scheduler.New(
		pollerCfg,
		source,
		classifier,
		usage.ThresholdsFromRules(rules),
		dispatcher,
		store,
		logger,
	)

	// Initialize Metrics Server, which also serves the stats API
	var metricsServer *metrics.Server
	if cfg.Metrics.Enabled || sdListeners.Metrics != nil {
		metricsServer = metrics.NewServer(cfg.Metrics.Listen, logger)
		metricsServer.Handle("/api/", admin.NewStatsViews(store, pollerCfg.DayStart, logger).Router())

		// Use systemd socket-activated listener if available
		if sdListeners.Metrics != nil {
			metricsServer.SetListener(sdListeners.Metrics)
		}

		if err := metricsServer.Start(); err != nil {
			return fmt.Errorf("failed to start Metrics Server: %w", err)
		}
		logger.Info().
			Str("url", "http://"+metricsServer.Addr().String()+"/api/v1/days/today").
			Msg("Stats API available")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Notify systemd that we're ready
	if err := systemd.NotifyReady(); err != nil {
		logger.Warn().Err(err).Msg("Failed to send systemd ready notification")
	}

	logger.Info().
		Str("activitywatch", cfg.ActivityWatch.URL).
		Int("categories", len(rules.Categories)).
		Str("sink", cfg.Notify.Sink).
		Msg("awnotify startup complete")

	if err := poller.Run(ctx); err != nil {
		logger.Error().Err(err).Msg("Poller failed")
	}

	logger.Info().Msg("Shutdown signal received, gracefully stopping...")

	// Notify systemd that we're stopping
	if err := systemd.NotifyStopping(); err != nil {
		logger.Warn().Err(err).Msg("Failed to send systemd stopping notification")
	}

	if metricsServer != nil {
		if err := metricsServer.Stop(); err != nil {
			logger.Error().Err(err).Msg("Error stopping Metrics Server")
		}
	}

	logger.Info().Msg("awnotify stopped")

	return nil
}

// loadConfig loads the configuration and applies the --categories flag
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	if categoriesFile != "" {
		cfg.Categories.Path = categoriesFile
	}
	return cfg, nil
}

// schedulerConfig converts the polling section into poller settings
func schedulerConfig(cfg *config.Config) (scheduler.Config, error) {
	cutoff, err := usage.ParseTimeOfDay(cfg.Polling.Cutoff)
	if err != nil {
		return scheduler.Config{}, fmt.Errorf("invalid cutoff: %w", err)
	}
	dayStart, err := usage.ParseTimeOfDay(cfg.Polling.DayStart)
	if err != nil {
		return scheduler.Config{}, fmt.Errorf("invalid day start: %w", err)
	}
	if cutoff == dayStart {
		return scheduler.Config{}, fmt.Errorf("cutoff %s must differ from day start", cutoff)
	}

	return scheduler.Config{
		Interval:     parseDuration(cfg.Polling.Interval, scheduler.DefaultInterval),
		FetchTimeout: parseDuration(cfg.Polling.FetchTimeout, scheduler.DefaultFetchTimeout),
		MaxBackoff:   parseDuration(cfg.Polling.MaxBackoff, scheduler.DefaultMaxBackoff),
		Cutoff:       cutoff,
		DayStart:     dayStart,
		TopN:         cfg.Notify.TopN,
	}, nil
}

// loadRules reads the category rules. A missing file at the default location
// falls back to the built-in categories; an explicit path must exist.
func loadRules(path string, logger zerolog.Logger) (*category.Rules, error) {
	if path == "" {
		path = category.DefaultPath()
		if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
			logger.Info().Str("path", path).Msg("No category rules file, using built-in categories")
			return category.Defaults(), nil
		}
	}

	rules, err := category.LoadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load category rules from %s: %w", path, err)
	}

	logger.Info().
		Str("path", path).
		Int("categories", len(rules.Categories)).
		Msg("Category rules loaded")

	return rules, nil
}

func newSource(cfg *config.Config, logger zerolog.Logger) *activity.Client {
	return activity.NewClient(activity.Config{
		URL:      cfg.ActivityWatch.URL,
		Hostname: cfg.ActivityWatch.Hostname,
		Timeout:  parseDuration(cfg.ActivityWatch.Timeout, activity.DefaultTimeout),
	}, logger)
}

func openStorage(cfg config.StorageConfig) (storage.Store, error) {
	switch cfg.Type {
	case "", "memory":
		return memory.New(), nil
	case "bolt":
		path := cfg.Path
		if path == "" {
			path = bolt.DefaultPath()
		}
		return bolt.Open(path)
	case "redis":
		return redis.Open(cfg.Redis)
	default:
		return nil, fmt.Errorf("unsupported storage type: %s", cfg.Type)
	}
}

// setupLogger configures the logger based on configuration
func setupLogger(cfg config.LoggingConfig) zerolog.Logger {
	// Set log level
	level := zerolog.InfoLevel
	switch cfg.Level {
	case "debug":
		level = zerolog.DebugLevel
	case "info":
		level = zerolog.InfoLevel
	case "warn":
		level = zerolog.WarnLevel
	case "error":
		level = zerolog.ErrorLevel
	}

	zerolog.SetGlobalLevel(level)

	// Set output format
	if cfg.Format == "text" {
		return zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()
	}

	// Default to JSON
	return zerolog.New(os.Stderr).With().Timestamp().Logger()
}

// parseDuration parses a duration string with a fallback
func parseDuration(s string, fallback time.Duration) time.Duration {
	d, err := time.ParseDuration(s)
	if err != nil {
		return fallback
	}
	return d
}
