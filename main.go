package main

import (
	"context"
	"os"

	"property-valuation/cmd"
	"property-valuation/config"
	"property-valuation/utils"
)

func main() {
	logger := utils.NewLogger()
	cfg := config.Load()

	if err := cmd.RootCommand(cfg, logger).ExecuteContext(context.Background()); err != nil {
		logger.Error("%v", err)
		os.Exit(1)
	}
}
