package main

import (
	"github.com/spf13/cobra"

	"github.com/sells-group/directory-cli/internal/model"
)

var enrichFlags modeFlags

var enrichCmd = &cobra.Command{
	Use:   "enrich",
	Short: "Generate descriptions for records without accepted content",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runStages(cmd.Context(), cmd.OutOrStdout(), &enrichFlags, model.StageEnrichment)
	},
}

func init() {
	enrichFlags.register(enrichCmd)
	rootCmd.AddCommand(enrichCmd)
}
