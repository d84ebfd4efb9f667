package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"reflect"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/goodtune/awnotify/internal/category"
	"github.com/goodtune/awnotify/internal/config"
	"github.com/goodtune/awnotify/internal/notify"
)

var (
	validateDump bool
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate configuration and category rules",
	Long:  `Validate the awnotify configuration file and the category rules file for syntax and semantic errors.`,
	Args:  cobra.NoArgs,
	RunE:  runValidate,
}

func init() {
	validateCmd.Flags().BoolVar(&validateDump, "dump", false, "Dump full configuration with defaults highlighted")
	validateCmd.Flags().StringVar(&categoriesFile, "categories", "", "Category rules file (overrides categories.path)")
	rootCmd.AddCommand(validateCmd)
}

func runValidate(cmd *cobra.Command, args []string) error {
	// Load configuration
	cfg, err := loadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "❌ Configuration validation failed: %v\n", err)
		return err
	}

	if _, statErr := os.Stat(configPath); statErr == nil {
		_, _ = fmt.Fprintf(os.Stdout, "✅ Configuration is valid: %s\n", configPath)

		// Check for unknown keys
		unknownKeys, err := config.UnknownKeys(configPath)
		if err != nil {
			_, _ = fmt.Fprintf(os.Stderr, "⚠️  Warning: Could not check for unknown keys: %v\n", err)
		}
		if len(unknownKeys) > 0 {
			red := color.New(color.FgRed, color.Bold)
			fmt.Fprintln(os.Stdout)
			_, _ = red.Fprintf(os.Stdout, "⚠️  WARNING: Found %d unknown configuration key(s):\n", len(unknownKeys))
			for _, key := range unknownKeys {
				_, _ = red.Fprintf(os.Stdout, "   - %s\n", key)
			}
			fmt.Fprintln(os.Stdout, "\nThese keys will be ignored and may indicate typos or deprecated settings.")
		}
	} else {
		_, _ = fmt.Fprintf(os.Stdout, "✅ No configuration file at %s, defaults are valid\n", configPath)
	}

	// Validate category rules
	rulesPath := cfg.Categories.Path
	if rulesPath == "" {
		rulesPath = category.DefaultPath()
		if _, err := os.Stat(rulesPath); errors.Is(err, fs.ErrNotExist) {
			rulesPath = ""
		}
	}

	rules, err := loadRules(cfg.Categories.Path, zerolog.Nop())
	if err != nil {
		fmt.Fprintf(os.Stderr, "❌ Category rules validation failed: %v\n", err)
		return err
	}

	if rulesPath == "" {
		_, _ = fmt.Fprintln(os.Stdout, "✅ Using built-in categories")
	} else {
		_, _ = fmt.Fprintf(os.Stdout, "✅ Category rules are valid: %s\n", rulesPath)
	}
	printRules(rules)

	// If dump requested, show full configuration with defaults highlighted
	if validateDump {
		_, _ = fmt.Fprintln(os.Stdout, "\n"+strings.Repeat("=", 80))
		_, _ = fmt.Fprintln(os.Stdout, "FULL CONFIGURATION (values different from defaults are highlighted)")
		_, _ = fmt.Fprintln(os.Stdout, strings.Repeat("=", 80))

		dumpConfig(cfg, config.Defaults())
	}

	return nil
}

func printRules(rules *category.Rules) {
	cyan := color.New(color.FgCyan, color.Bold)
	green := color.New(color.FgGreen)

	fmt.Println()
	for _, rule := range rules.Categories {
		_, _ = cyan.Printf("  %s", rule.Name)
		if rule.Priority != 0 {
			fmt.Printf(" (priority %d)", rule.Priority)
		}
		fmt.Println()

		patterns := make([]string, 0, len(rule.Matchers))
		for _, m := range rule.Matchers {
			patterns = append(patterns, m.Pattern)
		}
		_, _ = green.Printf("    matches:    %s\n", strings.Join(patterns, ", "))
		if len(rule.Thresholds) > 0 {
			fmt.Printf("    thresholds: %s\n", formatDurations(rule.Thresholds))
		}
	}

	if len(rules.TotalThresholds) > 0 {
		_, _ = cyan.Printf("  %s\n", category.TotalCategory)
		fmt.Printf("    thresholds: %s\n", formatDurations(rules.TotalThresholds))
	}
	if rules.Exclusive {
		fmt.Println("\n  Each activity counts towards its highest priority category only")
	}
}

// dumpConfig dumps configuration with color highlighting for non-default values
func dumpConfig(cfg, defaultCfg *config.Config) {
	yellow := color.New(color.FgYellow, color.Bold)
	green := color.New(color.FgGreen)
	cyan := color.New(color.FgCyan, color.Bold)

	// ActivityWatch
	_, _ = cyan.Println("\n[activitywatch]")
	dumpField("  url", cfg.ActivityWatch.URL, defaultCfg.ActivityWatch.URL, yellow, green)
	dumpField("  hostname", cfg.ActivityWatch.Hostname, defaultCfg.ActivityWatch.Hostname, yellow, green)
	dumpField("  timeout", cfg.ActivityWatch.Timeout, defaultCfg.ActivityWatch.Timeout, yellow, green)

	// Polling
	_, _ = cyan.Println("\n[polling]")
	dumpField("  interval", cfg.Polling.Interval, defaultCfg.Polling.Interval, yellow, green)
	dumpField("  fetch_timeout", cfg.Polling.FetchTimeout, defaultCfg.Polling.FetchTimeout, yellow, green)
	dumpField("  max_backoff", cfg.Polling.MaxBackoff, defaultCfg.Polling.MaxBackoff, yellow, green)
	dumpField("  cutoff", cfg.Polling.Cutoff, defaultCfg.Polling.Cutoff, yellow, green)
	dumpField("  day_start", cfg.Polling.DayStart, defaultCfg.Polling.DayStart, yellow, green)

	// Categories
	_, _ = cyan.Println("\n[categories]")
	dumpField("  path", cfg.Categories.Path, defaultCfg.Categories.Path, yellow, green)
	dumpField("  cache_size", cfg.Categories.CacheSize, defaultCfg.Categories.CacheSize, yellow, green)

	// Notify
	_, _ = cyan.Println("\n[notify]")
	dumpField("  sink", cfg.Notify.Sink, defaultCfg.Notify.Sink, yellow, green)
	dumpField("  app_name", cfg.Notify.AppName, defaultCfg.Notify.AppName, yellow, green)
	dumpField("  icon", cfg.Notify.Icon, defaultCfg.Notify.Icon, yellow, green)
	dumpField("  top_n", cfg.Notify.TopN, defaultCfg.Notify.TopN, yellow, green)

	// Storage
	_, _ = cyan.Println("\n[storage]")
	dumpField("  type", cfg.Storage.Type, defaultCfg.Storage.Type, yellow, green)
	dumpField("  path", cfg.Storage.Path, defaultCfg.Storage.Path, yellow, green)
	_, _ = cyan.Println("  [storage.redis]")
	dumpField("    host", cfg.Storage.Redis.Host, defaultCfg.Storage.Redis.Host, yellow, green)
	dumpField("    port", cfg.Storage.Redis.Port, defaultCfg.Storage.Redis.Port, yellow, green)
	dumpField("    password", redactPassword(cfg.Storage.Redis.Password), redactPassword(defaultCfg.Storage.Redis.Password), yellow, green)
	dumpField("    db", cfg.Storage.Redis.DB, defaultCfg.Storage.Redis.DB, yellow, green)
	dumpField("    pool_size", cfg.Storage.Redis.PoolSize, defaultCfg.Storage.Redis.PoolSize, yellow, green)
	dumpField("    min_idle_conns", cfg.Storage.Redis.MinIdleConns, defaultCfg.Storage.Redis.MinIdleConns, yellow, green)
	dumpField("    dial_timeout", cfg.Storage.Redis.DialTimeout, defaultCfg.Storage.Redis.DialTimeout, yellow, green)
	dumpField("    read_timeout", cfg.Storage.Redis.ReadTimeout, defaultCfg.Storage.Redis.ReadTimeout, yellow, green)
	dumpField("    write_timeout", cfg.Storage.Redis.WriteTimeout, defaultCfg.Storage.Redis.WriteTimeout, yellow, green)
	dumpField("    key_prefix", cfg.Storage.Redis.KeyPrefix, defaultCfg.Storage.Redis.KeyPrefix, yellow, green)

	// Metrics
	_, _ = cyan.Println("\n[metrics]")
	dumpField("  enabled", cfg.Metrics.Enabled, defaultCfg.Metrics.Enabled, yellow, green)
	dumpField("  listen", cfg.Metrics.Listen, defaultCfg.Metrics.Listen, yellow, green)

	// Logging
	_, _ = cyan.Println("\n[logging]")
	dumpField("  level", cfg.Logging.Level, defaultCfg.Logging.Level, yellow, green)
	dumpField("  format", cfg.Logging.Format, defaultCfg.Logging.Format, yellow, green)

	_, _ = fmt.Fprintln(os.Stdout, "\n"+strings.Repeat("=", 80))
}

// dumpField prints a field with color if it differs from default
func dumpField(name string, value, defaultValue any, modifiedColor, defaultColor *color.Color) {
	valueStr := fmt.Sprintf("%v", value)

	if reflect.DeepEqual(value, defaultValue) {
		_, _ = defaultColor.Printf("%s = %s\n", name, valueStr)
	} else {
		_, _ = modifiedColor.Printf("%s = %s  (modified from default: %v)\n", name, valueStr, defaultValue)
	}
}

// redactPassword redacts password if not empty
func redactPassword(password string) string {
	if password == "" {
		return ""
	}
	return "***REDACTED***"
}

func formatDurations(ds []time.Duration) string {
	out := make([]string, 0, len(ds))
	for _, d := range ds {
		out = append(out, notify.FormatDuration(d))
	}
	return strings.Join(out, ", ")
}
