// Package main is the entry point for the confcloud CLI.
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/confcloud/confcloud/internal/config"
	"github.com/confcloud/confcloud/internal/observability"
)

// cfg and logger are populated by the root command's PersistentPreRunE
// before any subcommand runs.
var (
	cfg    *config.Config
	logger zerolog.Logger
)

var rootCmd = &cobra.Command{
	Use:   "confcloud",
	Short: "Conference word-cloud pipeline",
	Long: `confcloud harvests conference paper listings from DBLP, enriches them
with abstracts from scholarly APIs, extracts keywords from titles, and
generates the word-cloud JSON artifact the frontend renders.

Each pipeline stage is a subcommand: fetch, enrich, keywords, and
generate. The run subcommand executes all stages in sequence. Stages
communicate through JSON documents under the configured data directory,
one file set per conference.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// .env is optional; real environment variables win either way.
		_ = godotenv.Load()

		var err error
		cfg, err = config.Load()
		if err != nil {
			return err
		}

		if conference, _ := cmd.Flags().GetString("conference"); conference != "" {
			cfg.Conference = conference
			if err := cfg.Validate(); err != nil {
				return err
			}
		}

		logger = observability.NewLogger(observability.LoggingConfig{
			Level:      cfg.Logging.Level,
			Format:     cfg.Logging.Format,
			Output:     cfg.Logging.Output,
			TimeFormat: cfg.Logging.TimeFormat,
		})
		logger = logger.With().Str("conference", cfg.Conference).Logger()
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().String("conference", "", "conference key overriding the configured default")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}
