package main

import (
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/Monce-AI/concierge.aws.monce.ai/internal/config"
	transport "github.com/Monce-AI/concierge.aws.monce.ai/internal/transport/http"
	"github.com/Monce-AI/concierge.aws.monce.ai/pkg/log"
	"github.com/Monce-AI/concierge.aws.monce.ai/pkg/srv"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the Concierge API server",
	Long:  `Opens the record store and serves the memory, search, ingest and digest endpoints.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
		defer stop()

		// logger setup
		var flushLog func()
		ctx, flushLog = setupLogger(ctx)
		defer flushLog()

		logger := log.FromCtx(ctx)
		logger.Info().Msg("starting concierge")

		a, err := newApp(ctx)
		if err != nil {
			return err
		}

		server := transport.NewServer(config.NewServerConfig(ctx), a.memory, a.ingest, a.engine, a.digests)

		services := []srv.Service{
			server,
			srv.NewCleanup(a.Close),
		}

		srv.StartServices(ctx, services)
		srv.ShutdownServices(ctx, services)
		logger.Info().Msg("concierge has been shut down gracefully")

		return nil
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}
