package cmd

import (
	"github.com/spf13/cobra"

	"property-valuation/cmd/ingest"
	"property-valuation/cmd/serve"
	"property-valuation/cmd/value"
	"property-valuation/config"
	"property-valuation/utils"
)

// RootCommand creates and returns the root command.
func RootCommand(cfg *config.Config, logger *utils.Logger) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:          "valuation",
		Short:        "Comparable-sales property valuation",
		SilenceUsage: true,
	}

	setupFlags(rootCmd, cfg)

	rootCmd.AddCommand(
		serve.Command(cfg, logger),
		ingest.Command(cfg, logger),
		value.Command(cfg, logger),
	)

	rootCmd.PersistentPreRun = func(cmd *cobra.Command, args []string) {
		logger.SetLevel(utils.ParseLevel(cfg.LogLevel))
	}

	return rootCmd
}

// setupFlags lets the command line override the environment.
func setupFlags(rootCmd *cobra.Command, cfg *config.Config) {
	rootCmd.PersistentFlags().StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "Log level: debug, info, warn, error")
	rootCmd.PersistentFlags().StringVar(&cfg.StoreBackend, "store", cfg.StoreBackend, "Ingestion store backend: memory, file, postgres")
	rootCmd.PersistentFlags().StringVar(&cfg.RunStorePath, "store-path", cfg.RunStorePath, "Path of the file store")
}
