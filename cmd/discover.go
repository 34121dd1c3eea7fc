package main

import (
	"github.com/spf13/cobra"

	"github.com/sells-group/directory-cli/internal/model"
)

var discoverFlags modeFlags

var discoverCmd = &cobra.Command{
	Use:   "discover",
	Short: "Search every geo cell and upsert listings into the store",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runStages(cmd.Context(), cmd.OutOrStdout(), &discoverFlags, model.StageDiscovery)
	},
}

func init() {
	discoverFlags.register(discoverCmd)
	rootCmd.AddCommand(discoverCmd)
}
