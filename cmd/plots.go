package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/forest-guardian/index-series/internal/field"
)

var plotsField string

var plotsCmd = &cobra.Command{
	Use:   "plots",
	Short: "List the plot ids of a field GeoJSON",
	RunE: func(cmd *cobra.Command, args []string) error {
		ids, err := field.PlotIDs(plotsField)
		if err != nil {
			return err
		}
		for _, id := range ids {
			fmt.Fprintln(cmd.OutOrStdout(), id)
		}
		return nil
	},
}

func init() {
	plotsCmd.Flags().StringVar(&plotsField, "field", "", "GeoJSON file (required)")
	_ = plotsCmd.MarkFlagRequired("field")
	rootCmd.AddCommand(plotsCmd)
}
