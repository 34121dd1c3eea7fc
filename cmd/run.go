package main

import (
	"github.com/spf13/cobra"
)

var (
	runFlags      modeFlags
	runStagesFlag []string
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the full pipeline: discovery, quality, enrichment, build",
	Long: `Runs every stage in order against the canonical store. --stages selects a
subset; stages always execute in pipeline order.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runStages(cmd.Context(), cmd.OutOrStdout(), &runFlags, runStagesFlag...)
	},
}

func init() {
	runFlags.register(runCmd)
	runCmd.Flags().StringSliceVar(&runStagesFlag, "stages", nil, "comma-separated subset of stages to run")
	rootCmd.AddCommand(runCmd)
}
