package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/goodtune/awnotify/internal/config"
)

var (
	version    = "dev"
	configPath string
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "awnotify",
	Short: "awnotify - time-spent notifications for ActivityWatch",
	Long: `awnotify polls a local ActivityWatch server, sorts your activity into
categories and sends desktop notifications when a category crosses a time
threshold, plus a summary of the day at a configurable cutoff.`,
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", config.DefaultPath(), "Path to configuration file")
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
