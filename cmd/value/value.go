package value

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"property-valuation/app"
	"property-valuation/config"
	"property-valuation/services"
	"property-valuation/utils"
)

// Command creates the value command. The input file holds a subject, a
// comparablesPool and optionally topK.
func Command(cfg *config.Config, logger *utils.Logger) *cobra.Command {
	var (
		strategy string
		topK     int
	)

	cmd := &cobra.Command{
		Use:   "value [search.json]",
		Short: "Rank comparables for a subject and estimate its value",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("read %s: %w", args[0], err)
			}
			var req services.SearchRequest
			if err := json.Unmarshal(data, &req); err != nil {
				return fmt.Errorf("decode %s: %w", args[0], err)
			}
			if topK > 0 {
				req.TopK = topK
			}

			a, err := app.New(cmd.Context(), cfg, logger)
			if err != nil {
				return err
			}
			defer a.Close()

			res, err := a.Engine.Search(cmd.Context(), req)
			if err != nil {
				return err
			}
			v, err := a.Engine.Value(cmd.Context(), services.ValueRequest{RunID: res.RunID, Strategy: strategy})
			if err != nil {
				return err
			}

			services.NewInsightService(logger).PrintValuation(cmd.OutOrStdout(), res.RunID, res.Comparables, v)
			return nil
		},
	}

	cmd.Flags().StringVar(&strategy, "strategy", "", "Valuation strategy: mean, weighted-mean, hedonic")
	cmd.Flags().IntVar(&topK, "top-k", 0, "Number of comparables to keep")

	return cmd
}
