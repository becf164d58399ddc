package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/forest-guardian/index-series/internal/config"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "index-series",
	Short: "Regularize satellite index observations into daily series",
	Long:  "Turns sparse, cloud-affected per-overpass index statistics of a field into a continuous daily series with provenance flags, and writes CSV, metadata and plots.",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := config.Load()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		cfg = c

		if err := config.InitLogger(cfg.Log); err != nil {
			return fmt.Errorf("init logger: %w", err)
		}

		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = zap.L().Sync()
	},
	SilenceUsage: true,
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
