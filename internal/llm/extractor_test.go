package llm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildExtractionPrompt(t *testing.T) {
	prompt := BuildExtractionPrompt(ExtractionRequest{
		Titles:           []string{"Graph Attention Networks", "Scaling Laws for Neural Models"},
		KeywordsPerTitle: 3,
	})

	assert.Contains(t, prompt, "1. Graph Attention Networks")
	assert.Contains(t, prompt, "2. Scaling Laws for Neural Models")
	assert.Contains(t, prompt, "3 keywords each")
	assert.Contains(t, prompt, `{"keywords":`)
}

func TestBuildExtractionPromptDefaultCount(t *testing.T) {
	prompt := BuildExtractionPrompt(ExtractionRequest{Titles: []string{"T"}})
	assert.Contains(t, prompt, "3 keywords each")
}

func TestParseExtraction(t *testing.T) {
	req := ExtractionRequest{Titles: []string{"A", "B"}}

	result, err := parseExtraction(llmResponse{
		Keywords: [][]string{{" Graph Mining ", "GNN"}, {"privacy"}},
	}, req, "test-model")
	require.NoError(t, err)

	assert.Equal(t, [][]string{{"graph mining", "gnn"}, {"privacy"}}, result.Keywords)
	assert.Equal(t, "test-model", result.Model)
}

func TestParseExtractionCountMismatch(t *testing.T) {
	req := ExtractionRequest{Titles: []string{"A", "B"}}
	_, err := parseExtraction(llmResponse{Keywords: [][]string{{"only one"}}}, req, "m")
	require.Error(t, err)
}
