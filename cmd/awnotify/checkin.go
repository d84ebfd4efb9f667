package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/goodtune/awnotify/internal/category"
	"github.com/goodtune/awnotify/internal/notify"
	"github.com/goodtune/awnotify/internal/scheduler"
	"github.com/goodtune/awnotify/internal/storage/memory"
	"github.com/goodtune/awnotify/internal/usage"
)

var checkinCmd = &cobra.Command{
	Use:   "checkin",
	Short: "Send a summary of today right now",
	Long: `Fetch today's activity, send the daily summary notification immediately
and print it. A running daemon is not affected.`,
	Args: cobra.NoArgs,
	RunE: runCheckin,
}

func init() {
	checkinCmd.Flags().StringVar(&categoriesFile, "categories", "", "Category rules file (overrides categories.path)")
	rootCmd.AddCommand(checkinCmd)
}

func runCheckin(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	logger := setupLogger(cfg.Logging)

	pollerCfg, err := schedulerConfig(cfg)
	if err != nil {
		return err
	}

	rules, err := loadRules(cfg.Categories.Path, logger)
	if err != nil {
		return err
	}

	classifier, err := category.NewClassifier(rules, cfg.Categories.CacheSize, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize classifier: %w", err)
	}

	sink, err := notify.NewSink(cfg.Notify.Sink, cfg.Notify.AppName, cfg.Notify.Icon, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize notifications: %w", err)
	}

	poller := scheduler.New(
		pollerCfg,
		newSource(cfg, logger),
		classifier,
		nil,
		notify.NewDispatcher(sink, logger),
		memory.New(),
		logger,
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	summary, err := poller.Checkin(ctx)
	if summary.Day.IsZero() {
		// Nothing was fetched
		return err
	}

	printSummary(summary)

	if err != nil {
		logger.Warn().Err(err).Msg("Summary could not be delivered as a notification")
	}
	return nil
}

func printSummary(s usage.Summary) {
	cyan := color.New(color.FgCyan, color.Bold)
	green := color.New(color.FgGreen)

	fmt.Println()
	_, _ = cyan.Printf("Summary for %s\n", usage.DayKey(s.Day))
	fmt.Printf("Total:      %s\n", notify.FormatDuration(s.Total))

	if len(s.Top) == 0 {
		fmt.Println("No categorized activity yet")
		fmt.Println()
		return
	}

	for _, c := range s.Top {
		_, _ = green.Printf("  %-20s", c.Name)
		fmt.Printf(" %8s  (%.0f%%)\n", notify.FormatDuration(c.Duration), c.Percent)
	}
	fmt.Println()
}
