package main

import (
	"context"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/Monce-AI/concierge.aws.monce.ai/internal/config"
	"github.com/Monce-AI/concierge.aws.monce.ai/pkg/log"
)

var (
	debug bool
)

var rootCmd = &cobra.Command{
	Use:   "concierge",
	Short: "Concierge: operational memory for the Monce extraction pipeline",
	Long: `Concierge accumulates memory records about incoming orders and
recomputes business-intelligence digests from them.`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		// A missing .env is fine; env vars win either way.
		_ = godotenv.Load()
	},
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	// Global flags available to all subcommands
	rootCmd.PersistentFlags().BoolVarP(&debug, "debug", "d", config.IsDebug(), "enable debug logging")
}

func setupLogger(ctx context.Context) (context.Context, func()) {
	isDebug := debug || config.IsDebug()
	return log.NewContextWithLogger(ctx, isDebug)
}
