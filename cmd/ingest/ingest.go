package ingest

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"property-valuation/app"
	"property-valuation/config"
	"property-valuation/services"
	"property-valuation/storage"
	"property-valuation/utils"
)

// Command creates the ingest command. The input file holds
// {"transactions": [...], "listings": [...]}.
func Command(cfg *config.Config, logger *utils.Logger) *cobra.Command {
	var (
		csvPath   string
		createdBy string
	)

	cmd := &cobra.Command{
		Use:   "ingest [records.json]",
		Short: "Clean and deduplicate a batch of transactions and listings",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			req, err := readRequest(args[0])
			if err != nil {
				return err
			}
			if createdBy != "" {
				req.CreatedBy = createdBy
			}

			a, err := app.New(cmd.Context(), cfg, logger)
			if err != nil {
				return err
			}
			defer a.Close()

			run, err := a.Engine.Ingest(cmd.Context(), req)
			if err != nil {
				return err
			}

			if csvPath != "" {
				w, err := storage.NewCSVWriter(csvPath)
				if err != nil {
					return err
				}
				defer w.Close()
				if err := w.WriteCleaned(run.Transactions.Cleaned); err != nil {
					return err
				}
				if err := w.WriteCleaned(run.Listings.Cleaned); err != nil {
					return err
				}
				logger.Info("[ingest] cleaned records written to %s", csvPath)
			}

			insights := services.NewInsightService(logger)
			insights.Print(cmd.OutOrStdout(), insights.Generate(run))
			return nil
		},
	}

	cmd.Flags().StringVar(&csvPath, "csv", "", "Also write cleaned records to this CSV file")
	cmd.Flags().StringVar(&createdBy, "created-by", "", "Actor recorded on the run")

	return cmd
}

func readRequest(path string) (services.IngestRequest, error) {
	var req services.IngestRequest
	data, err := os.ReadFile(path)
	if err != nil {
		return req, fmt.Errorf("read %s: %w", path, err)
	}
	if err := json.Unmarshal(data, &req); err != nil {
		return req, fmt.Errorf("decode %s: %w", path, err)
	}
	return req, nil
}
