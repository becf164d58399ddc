package main

import (
	"encoding/json"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var validateConfigCmd = &cobra.Command{
	Use:   "validate-config",
	Short: "Validate the configuration and print the effective engine settings",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := cfg.Validate(); err != nil {
			zap.L().Error("invalid configuration", zap.Error(err))
			return err
		}

		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		if err := enc.Encode(cfg.Engine); err != nil {
			return eris.Wrap(err, "encode engine config")
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(validateConfigCmd)
}
