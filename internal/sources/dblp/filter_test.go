package dblp

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTitleFilter(t *testing.T) {
	filter, err := NewTitleFilter()
	require.NoError(t, err)

	papers := []string{
		"Deep Learning on Graphs at Scale",
		"Learning to Rank with Small Labeled Data",
		"Counterfactual Explanations for Recommender Systems",
	}
	nonPapers := []string{
		"Proceedings of the 26th ACM SIGKDD Conference",
		"KDD '20: The 26th ACM SIGKDD Conference, Virtual Event, CA, USA, August 23-27, 2020",
		"Workshop on Mining and Learning with Graphs",
		"Hands-On Tutorial: Scalable Graph Neural Networks",
		"Invited Talk: The Future of Data Mining",
		"Panel Discussion: Ethics in Machine Learning",
		"Health Day: AI for Clinical Practice",
	}

	for _, title := range papers {
		assert.True(t, filter.IsResearchPaper(title), title)
	}
	for _, title := range nonPapers {
		assert.False(t, filter.IsResearchPaper(title), title)
	}
}

func TestTitleFilterExtraPatterns(t *testing.T) {
	filter, err := NewTitleFilter(`^poster:`)
	require.NoError(t, err)

	assert.False(t, filter.IsResearchPaper("Poster: Fast Sampling for GNNs"))
	assert.True(t, filter.IsResearchPaper("Fast Sampling for GNNs"))
}

func TestTitleFilterInvalidPattern(t *testing.T) {
	_, err := NewTitleFilter(`([`)
	require.Error(t, err)
}

func TestTitleFilterEmptyTitle(t *testing.T) {
	filter, err := NewTitleFilter()
	require.NoError(t, err)
	assert.False(t, filter.IsResearchPaper(""))
	assert.False(t, filter.IsResearchPaper("   "))
}
