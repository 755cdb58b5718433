package main

import (
	"github.com/spf13/cobra"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the full pipeline",
	Long: `Run executes fetch, enrich, keywords, and generate in sequence for the
active conference. Stages share state through the data directory, so a
failed run can be resumed by invoking the remaining stages directly.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		if err := fetchStage(ctx); err != nil {
			return err
		}
		if err := enrichStage(ctx); err != nil {
			return err
		}
		if err := keywordsStage(ctx, ""); err != nil {
			return err
		}
		return generateStage()
	},
}

func init() {
	rootCmd.AddCommand(runCmd)
}
