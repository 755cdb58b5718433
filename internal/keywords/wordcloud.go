package keywords

import (
	"fmt"
	"sort"
	"strconv"
	"time"
)

// Word is one frontend word-cloud entry. Years maps year strings to
// that year's count; years with zero count are omitted.
type Word struct {
	Text  string         `json:"text"`
	Value int            `json:"value"`
	Years map[string]int `json:"years"`
}

// CloudMetadata describes the collection behind a cloud.
type CloudMetadata struct {
	Conference    string    `json:"conference"`
	FullName      string    `json:"full_name,omitempty"`
	Categories    []string  `json:"categories,omitempty"`
	Years         []int     `json:"years"`
	TotalPapers   int       `json:"total_papers"`
	TotalKeywords int       `json:"total_keywords"`
	LastUpdated   time.Time `json:"last_updated"`
}

// Cloud is the aggregated artifact the frontend renders.
type Cloud struct {
	Metadata CloudMetadata `json:"metadata"`
	Words    []Word        `json:"words"`
}

// BuildCloud reshapes keyword statistics into the frontend format,
// sorted by overall count descending with alphabetical tiebreak.
func BuildCloud(meta CloudMetadata, stats Stats) Cloud {
	words := make([]Word, 0, len(stats.Overall))
	for kw, count := range stats.Overall {
		years := make(map[string]int)
		for _, year := range meta.Years {
			if c := stats.ByYear[year][kw]; c > 0 {
				years[strconv.Itoa(year)] = c
			}
		}
		words = append(words, Word{Text: kw, Value: count, Years: years})
	}
	sort.Slice(words, func(i, j int) bool {
		if words[i].Value != words[j].Value {
			return words[i].Value > words[j].Value
		}
		return words[i].Text < words[j].Text
	})

	meta.TotalPapers = stats.TotalPapers
	meta.TotalKeywords = len(words)
	meta.LastUpdated = time.Now().UTC()
	return Cloud{Metadata: meta, Words: words}
}

// Validate checks the structural invariants the frontend depends on.
func (c *Cloud) Validate() error {
	if c.Metadata.Conference == "" {
		return fmt.Errorf("cloud metadata missing conference")
	}
	if len(c.Metadata.Years) == 0 {
		return fmt.Errorf("cloud metadata missing years")
	}
	if len(c.Words) == 0 {
		return fmt.Errorf("cloud has no words")
	}
	if c.Metadata.TotalKeywords != len(c.Words) {
		return fmt.Errorf("cloud metadata total_keywords %d does not match %d words",
			c.Metadata.TotalKeywords, len(c.Words))
	}
	for i, word := range c.Words {
		if word.Text == "" {
			return fmt.Errorf("word %d has empty text", i)
		}
		if word.Value <= 0 {
			return fmt.Errorf("word %q has non-positive value %d", word.Text, word.Value)
		}
		yearTotal := 0
		for _, count := range word.Years {
			yearTotal += count
		}
		if yearTotal > word.Value {
			return fmt.Errorf("word %q year counts %d exceed value %d", word.Text, yearTotal, word.Value)
		}
	}
	return nil
}
