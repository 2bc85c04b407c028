package serve

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"property-valuation/api"
	"property-valuation/app"
	"property-valuation/config"
	"property-valuation/utils"
)

// Command creates the serve command, which runs the HTTP API.
func Command(cfg *config.Config, logger *utils.Logger) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the valuation HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			a, err := app.New(ctx, cfg, logger)
			if err != nil {
				return err
			}
			defer a.Close()

			logger.Info("=== Property valuation service starting ===")
			logger.Info("Config: store=%s | topK=%d | pool cap=%d | workers=%d | strategy=%s",
				cfg.StoreBackend, cfg.DefaultTopK, cfg.MaxPoolSize, cfg.ScoringWorkers, cfg.ValuationStrategy)

			server := api.NewServer(cfg.HTTPAddr, a.Engine, logger, a.Registry, cfg.AuditQueryLimit)
			return server.Start(ctx)
		},
	}

	cmd.Flags().StringVar(&cfg.HTTPAddr, "addr", cfg.HTTPAddr, "HTTP listen address")

	return cmd
}
