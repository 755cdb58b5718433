package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func intPtr(v int) *int { return &v }

func TestNormalizeDOI(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"plain", "10.1145/3394486.3403043", "10.1145/3394486.3403043"},
		{"uppercase", "10.1145/ABC.DEF", "10.1145/abc.def"},
		{"https resolver", "https://doi.org/10.1145/3394486.3403043", "10.1145/3394486.3403043"},
		{"http resolver", "http://doi.org/10.1/X", "10.1/x"},
		{"dx resolver", "https://dx.doi.org/10.1/x", "10.1/x"},
		{"doi scheme", "doi:10.1/x", "10.1/x"},
		{"whitespace", "  10.1/a  ", "10.1/a"},
		{"empty", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NormalizeDOI(tt.input))
		})
	}
}

func TestNormalizeTitle(t *testing.T) {
	assert.Equal(t, "deep learning models", NormalizeTitle("  Deep  Learning\tModels. "))
	assert.Equal(t, "", NormalizeTitle("   "))
}

func TestApplyEnrichment(t *testing.T) {
	t.Run("sets all fields once", func(t *testing.T) {
		paper := &PaperRecord{Title: "A", Year: 2022}
		res := EnrichmentResult{Abstract: "text", CitationCount: intPtr(12), SourceID: "W123"}

		require.True(t, paper.ApplyEnrichment(res, SourceOpenAlex))

		require.NotNil(t, paper.Abstract)
		assert.Equal(t, "text", *paper.Abstract)
		require.NotNil(t, paper.AbstractSource)
		assert.Equal(t, SourceOpenAlex, *paper.AbstractSource)
		require.NotNil(t, paper.CitationCount)
		assert.Equal(t, 12, *paper.CitationCount)
		require.NotNil(t, paper.SourceID)
		assert.Equal(t, "W123", *paper.SourceID)
	})

	t.Run("not-found result is a no-op", func(t *testing.T) {
		paper := &PaperRecord{Title: "A", Year: 2022}

		assert.False(t, paper.ApplyEnrichment(EnrichmentResult{}, SourceOpenAlex))
		assert.Nil(t, paper.Abstract)
		assert.Nil(t, paper.AbstractSource)
	})

	t.Run("never overwrites an enriched record", func(t *testing.T) {
		paper := &PaperRecord{Title: "A", Year: 2022}
		require.True(t, paper.ApplyEnrichment(EnrichmentResult{Abstract: "first"}, SourceOpenReview))

		assert.False(t, paper.ApplyEnrichment(EnrichmentResult{Abstract: "second"}, SourceSemanticScholar))
		assert.Equal(t, "first", *paper.Abstract)
		assert.Equal(t, SourceOpenReview, *paper.AbstractSource)
	})

	t.Run("citation count may stay nil", func(t *testing.T) {
		paper := &PaperRecord{Title: "A", Year: 2022}
		require.True(t, paper.ApplyEnrichment(EnrichmentResult{Abstract: "text"}, SourceNeurIPSProceedings))

		assert.Nil(t, paper.CitationCount)
		assert.NotNil(t, paper.AbstractSource)
	})
}

func TestComputeCoverage(t *testing.T) {
	papers := []*PaperRecord{
		{Title: "a", Year: 2020},
		{Title: "b", Year: 2021},
		{Title: "c", Year: 2022},
	}
	papers[0].ApplyEnrichment(EnrichmentResult{Abstract: "x"}, SourceOpenReview)
	papers[1].ApplyEnrichment(EnrichmentResult{Abstract: "y"}, SourceOpenAlex)

	stats := ComputeCoverage(papers)

	assert.Equal(t, 3, stats.Total)
	assert.Equal(t, 2, stats.WithAbstract)
	assert.Equal(t, 1, stats.BySource[SourceOpenReview])
	assert.Equal(t, 1, stats.BySource[SourceOpenAlex])
	assert.InDelta(t, 2.0/3.0, stats.Coverage(), 1e-9)

	// The invariant holds for every record: source tag iff abstract.
	for _, p := range papers {
		assert.Equal(t, p.HasAbstract(), p.AbstractSource != nil)
	}
}
