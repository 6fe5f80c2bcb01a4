package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"opiniontrace/internal/report"
)

var schemaCmd = &cobra.Command{
	Use:   "schema",
	Short: "Print the JSON Schema of the trace report",
	Long: `Print the JSON Schema describing the report object.

Tools that consume reports can validate them against this schema before
rendering, instead of hard-coding the report shape.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := report.Schema(cmd.OutOrStdout()); err != nil {
			return fmt.Errorf("failed to render schema: %w", err)
		}
		return nil
	},
}
