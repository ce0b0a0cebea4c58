package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var searchLimit int

var searchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Keyword search over stored memories",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, flushLog := setupLogger(cmd.Context())
		defer flushLog()

		a, err := newApp(ctx)
		if err != nil {
			return err
		}
		defer a.Close()

		results, err := a.memory.Search(ctx, strings.Join(args, " "), searchLimit)
		if err != nil {
			return err
		}

		for _, entry := range results {
			fmt.Printf("%s  %s\n", entry.Timestamp.Format("2006-01-02 15:04"), entry.Text)
		}
		fmt.Printf("%d result(s)\n", len(results))
		return nil
	},
}

func init() {
	searchCmd.Flags().IntVar(&searchLimit, "limit", 50, "maximum results")
	rootCmd.AddCommand(searchCmd)
}
