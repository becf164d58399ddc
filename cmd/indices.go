package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/forest-guardian/index-series/internal/index"
)

var indicesCmd = &cobra.Command{
	Use:   "indices",
	Short: "List the supported spectral indices",
	RunE: func(cmd *cobra.Command, args []string) error {
		w := cmd.OutOrStdout()
		for _, name := range index.Names() {
			p, err := index.Lookup(name)
			if err != nil {
				return err
			}
			fmt.Fprintf(w, "%-6s [%g, %g] %s (%v)\n", p.Name, p.Range.Min, p.Range.Max, p.Description, p.Bands)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(indicesCmd)
}
