package main

import (
	"context"
	"fmt"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/goodtune/awnotify/internal/category"
	"github.com/goodtune/awnotify/internal/notify"
	"github.com/goodtune/awnotify/internal/storage"
	"github.com/goodtune/awnotify/internal/usage"
)

var reportDate string

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Print stored usage and notifications for a day",
	Long: `Print the daily totals and the notifications recorded by the daemon for
a day. Only persistent storage backends (bolt, redis) have anything to show.`,
	Example: `  awnotify report
  awnotify report --date 2026-03-02`,
	Args: cobra.NoArgs,
	RunE: runReport,
}

func init() {
	reportCmd.Flags().StringVar(&reportDate, "date", "", "Day to report, YYYY-MM-DD (defaults to today)")
	rootCmd.AddCommand(reportCmd)
}

func runReport(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	date := reportDate
	if date == "" {
		dayStart, err := usage.ParseTimeOfDay(cfg.Polling.DayStart)
		if err != nil {
			return fmt.Errorf("invalid day start: %w", err)
		}
		date = usage.DayKey(usage.DayStart(time.Now(), dayStart))
	} else if _, err := time.Parse(usage.DateFormat, date); err != nil {
		return fmt.Errorf("invalid --date %q (want YYYY-MM-DD)", date)
	}

	if cfg.Storage.Type == "memory" {
		return fmt.Errorf("storage type %q keeps nothing between runs, configure bolt or redis", cfg.Storage.Type)
	}

	store, err := openStorage(cfg.Storage)
	if err != nil {
		return fmt.Errorf("failed to initialize storage: %w", err)
	}
	defer store.Close()

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	usages, err := store.Usage().ListDailyUsage(ctx, date)
	if err != nil {
		return fmt.Errorf("failed to list daily usage: %w", err)
	}

	notifications, err := store.Notifications().List(ctx, date)
	if err != nil {
		return fmt.Errorf("failed to list notifications: %w", err)
	}

	printReport(date, usages, notifications)

	return nil
}

func printReport(date string, usages []storage.DailyUsage, notifications []storage.NotificationRecord) {
	cyan := color.New(color.FgCyan, color.Bold)
	green := color.New(color.FgGreen)
	yellow := color.New(color.FgYellow)

	fmt.Println()
	_, _ = cyan.Printf("Report for %s\n", date)

	if len(usages) == 0 && len(notifications) == 0 {
		_, _ = yellow.Println("Nothing recorded for this day")
		fmt.Println()
		return
	}

	_, _ = cyan.Println("\nTime spent")
	for _, u := range usages {
		d := time.Duration(u.TotalSeconds) * time.Second
		switch u.Category {
		case category.TotalCategory:
			fmt.Printf("  %-20s %s\n", "Total", notify.FormatDuration(d))
		case category.Uncategorized:
			_, _ = yellow.Printf("  %-20s %s\n", u.Category, notify.FormatDuration(d))
		default:
			_, _ = green.Printf("  %-20s %s\n", u.Category, notify.FormatDuration(d))
		}
	}

	_, _ = cyan.Println("\nNotifications")
	if len(notifications) == 0 {
		fmt.Println("  none")
	}
	for _, n := range notifications {
		sentAt := n.SentAt.Local().Format("15:04")
		switch usage.TriggerKind(n.Kind) {
		case usage.KindSummary:
			fmt.Printf("  %s  daily summary\n", sentAt)
		default:
			fmt.Printf("  %s  %s reached %s\n", sentAt, n.Category, notify.FormatDuration(n.Threshold))
		}
	}
	fmt.Println()
}
