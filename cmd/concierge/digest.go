package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var digestCmd = &cobra.Command{
	Use:   "digest",
	Short: "Recompute digests from the current memory set",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, flushLog := setupLogger(cmd.Context())
		defer flushLog()

		a, err := newApp(ctx)
		if err != nil {
			return err
		}
		defer a.Close()

		digests, err := a.engine.Compute(ctx)
		if err != nil {
			return err
		}

		for _, d := range digests {
			fmt.Println(d.Text)
		}
		fmt.Printf("%d digest(s) computed\n", len(digests))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(digestCmd)
}
