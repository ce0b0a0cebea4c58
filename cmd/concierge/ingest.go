package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/Monce-AI/concierge.aws.monce.ai/internal/core"
)

var ingestFile string

var ingestCmd = &cobra.Command{
	Use:   "ingest",
	Short: "Ingest a batch of extraction records into memory",
	Long: `Reads a JSON array of extraction records (as exported from monce_db)
and stores one memory per record not seen before. Already-known extraction
IDs are skipped.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, flushLog := setupLogger(cmd.Context())
		defer flushLog()

		data, err := os.ReadFile(ingestFile)
		if err != nil {
			return fmt.Errorf("failed to read %s: %w", ingestFile, err)
		}
		var batch []core.Extraction
		if err := json.Unmarshal(data, &batch); err != nil {
			return fmt.Errorf("failed to parse %s: %w", ingestFile, err)
		}

		a, err := newApp(ctx)
		if err != nil {
			return err
		}
		defer a.Close()

		result, err := a.ingest.IngestExtractions(ctx, batch)
		if err != nil {
			return err
		}

		fmt.Printf("ingested=%d skipped=%d total_fetched=%d\n",
			result.Ingested, result.Skipped, result.TotalFetched)
		return nil
	},
}

func init() {
	ingestCmd.Flags().StringVarP(&ingestFile, "file", "f", "", "path to the extraction batch (JSON array)")
	ingestCmd.MarkFlagRequired("file")
	rootCmd.AddCommand(ingestCmd)
}
