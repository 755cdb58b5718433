package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/confcloud/confcloud/internal/checkpoint"
	"github.com/confcloud/confcloud/internal/keywords"
)

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate the word-cloud JSON artifact",
	Long: `Generate reshapes the keyword statistics into the word-cloud JSON the
frontend renders: words sorted by overall count with per-year breakdowns,
under a metadata envelope describing the collection.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return generateStage()
	},
}

func init() {
	rootCmd.AddCommand(generateCmd)
}

func generateStage() error {
	conf, err := cfg.ActiveConference()
	if err != nil {
		return err
	}
	store, err := checkpoint.NewStore(cfg.Data.Dir)
	if err != nil {
		return err
	}

	data, err := os.ReadFile(store.KeywordsPath(conf.Name))
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("no keyword statistics for %s; run keywords first", conf.Name)
		}
		return err
	}
	var stats keywords.Stats
	if err := json.Unmarshal(data, &stats); err != nil {
		return fmt.Errorf("decoding keyword statistics: %w", err)
	}

	cloud := keywords.BuildCloud(keywords.CloudMetadata{
		Conference: conf.Name,
		FullName:   conf.FullName,
		Categories: conf.Categories,
		Years:      conf.Years,
	}, stats)
	if err := cloud.Validate(); err != nil {
		return fmt.Errorf("generated cloud failed validation: %w", err)
	}

	if err := store.WriteJSON(store.CloudPath(conf.Name), cloud); err != nil {
		return err
	}
	logger.Info().
		Int("words", len(cloud.Words)).
		Int("papers", cloud.Metadata.TotalPapers).
		Str("path", store.CloudPath(conf.Name)).
		Msg("word cloud written")
	return nil
}
