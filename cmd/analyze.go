package main

import (
	"github.com/spf13/cobra"

	"github.com/sells-group/directory-cli/internal/model"
)

var analyzeFlags modeFlags

var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Audit the store and write the quality report",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runStages(cmd.Context(), cmd.OutOrStdout(), &analyzeFlags, model.StageQuality)
	},
}

func init() {
	analyzeFlags.register(analyzeCmd)
	rootCmd.AddCommand(analyzeCmd)
}
