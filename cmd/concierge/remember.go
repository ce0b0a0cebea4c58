package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var (
	rememberSource string
	rememberTags   []string
)

var rememberCmd = &cobra.Command{
	Use:   "remember <text>",
	Short: "Store one memory entry",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, flushLog := setupLogger(cmd.Context())
		defer flushLog()

		text := strings.TrimSpace(strings.Join(args, " "))
		if text == "" {
			return fmt.Errorf("empty text")
		}

		a, err := newApp(ctx)
		if err != nil {
			return err
		}
		defer a.Close()

		entry, err := a.memory.Add(ctx, text, rememberSource, rememberTags)
		if err != nil {
			return err
		}

		fmt.Printf("remembered %s\n", entry.ID)
		return nil
	},
}

func init() {
	rememberCmd.Flags().StringVar(&rememberSource, "source", "", "memory source tag")
	rememberCmd.Flags().StringSliceVar(&rememberTags, "tag", nil, "tags (repeatable)")
	rootCmd.AddCommand(rememberCmd)
}
