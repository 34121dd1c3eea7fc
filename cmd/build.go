package main

import (
	"github.com/spf13/cobra"

	"github.com/sells-group/directory-cli/internal/model"
)

var buildFlags modeFlags

var buildCmd = &cobra.Command{
	Use:   "build",
	Short: "Build facilities.json, summary.json, and the sitemap",
	Long:  "Projects the whole canonical store into the static artifacts. Artifacts are staged and swapped into build.output_dir only after every file is written.",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runStages(cmd.Context(), cmd.OutOrStdout(), &buildFlags, model.StageBuild)
	},
}

func init() {
	buildFlags.register(buildCmd)
	rootCmd.AddCommand(buildCmd)
}
