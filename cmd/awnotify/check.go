package main

import (
	"fmt"
	"strings"

	"github.com/fatih/color"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/goodtune/awnotify/internal/activity"
	"github.com/goodtune/awnotify/internal/category"
)

var (
	checkApp   string
	checkTitle string
	checkURL   string
)

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Show how an activity would be categorized",
	Long:  `Classify a single window or browser activity against the category rules and print the matching categories.`,
	Example: `  awnotify check --app code --title "main.go - awnotify"
  awnotify check --app firefox --title "Home / X" --url https://twitter.com/home`,
	Args: cobra.NoArgs,
	RunE: runCheck,
}

func init() {
	checkCmd.Flags().StringVar(&checkApp, "app", "", "Application name")
	checkCmd.Flags().StringVar(&checkTitle, "title", "", "Window title")
	checkCmd.Flags().StringVar(&checkURL, "url", "", "Browser tab URL")
	checkCmd.Flags().StringVar(&categoriesFile, "categories", "", "Category rules file (overrides categories.path)")
	rootCmd.AddCommand(checkCmd)
}

func runCheck(cmd *cobra.Command, args []string) error {
	if checkApp == "" && checkTitle == "" && checkURL == "" {
		return fmt.Errorf("at least one of --app, --title or --url is required")
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	// Quiet logger for check mode
	logger := zerolog.Nop()

	rules, err := loadRules(cfg.Categories.Path, logger)
	if err != nil {
		return err
	}

	classifier, err := category.NewClassifier(rules, 0, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize classifier: %w", err)
	}

	ev := activity.Event{App: checkApp, Title: checkTitle, URL: checkURL}
	printCheckResult(ev, rules, classifier.Classify(ev))

	return nil
}

func printCheckResult(ev activity.Event, rules *category.Rules, matched []string) {
	cyan := color.New(color.FgCyan, color.Bold)
	green := color.New(color.FgGreen, color.Bold)
	yellow := color.New(color.FgYellow, color.Bold)

	fmt.Println()
	_, _ = cyan.Println("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━")
	_, _ = cyan.Println("  Category Check")
	_, _ = cyan.Println("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━")
	fmt.Println()

	fmt.Printf("App:        %s\n", ev.App)
	fmt.Printf("Title:      %s\n", ev.Title)
	if ev.URL != "" {
		fmt.Printf("URL:        %s\n", ev.URL)
	}
	fmt.Println()

	_, _ = cyan.Print("Categories: ")
	if len(matched) == 0 {
		_, _ = yellow.Println(category.Uncategorized)
	} else {
		_, _ = green.Println(strings.Join(matched, ", "))
		if len(matched) > 1 {
			fmt.Println("            → Time is counted towards every category listed")
		}
	}

	for _, name := range matched {
		for _, rule := range rules.Categories {
			if rule.Name != name || len(rule.Thresholds) == 0 {
				continue
			}
			fmt.Printf("Thresholds: %s: %s\n", name, formatDurations(rule.Thresholds))
		}
	}

	fmt.Println()
	_, _ = cyan.Println("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━")
	fmt.Println()
}
