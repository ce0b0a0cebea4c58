package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var forgetCmd = &cobra.Command{
	Use:   "forget <query>",
	Short: "Remove every memory whose text contains the query",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, flushLog := setupLogger(cmd.Context())
		defer flushLog()

		query := strings.TrimSpace(strings.Join(args, " "))
		if query == "" {
			return fmt.Errorf("empty query")
		}

		a, err := newApp(ctx)
		if err != nil {
			return err
		}
		defer a.Close()

		forgotten, err := a.memory.Forget(ctx, query)
		if err != nil {
			return err
		}

		fmt.Printf("forgot %d memory(ies)\n", forgotten)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(forgetCmd)
}
