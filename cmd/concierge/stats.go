package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show store counts",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, flushLog := setupLogger(cmd.Context())
		defer flushLog()

		a, err := newApp(ctx)
		if err != nil {
			return err
		}
		defer a.Close()

		memories, err := a.memory.MemoryCount(ctx)
		if err != nil {
			return err
		}
		conversations, err := a.memory.ConversationCount(ctx)
		if err != nil {
			return err
		}
		digests, err := a.digests.LoadDigests(ctx)
		if err != nil {
			return err
		}

		fmt.Printf("memories:      %d\n", memories)
		fmt.Printf("conversations: %d\n", conversations)
		fmt.Printf("digests:       %d\n", len(digests))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(statsCmd)
}
