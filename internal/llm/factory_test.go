package llm

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewKeywordExtractor(t *testing.T) {
	ollama, err := NewKeywordExtractor(FactoryConfig{
		Provider: "ollama",
		Timeout:  time.Minute,
	})
	require.NoError(t, err)
	assert.Equal(t, "ollama", ollama.Provider())
	assert.Equal(t, defaultOllamaModel, ollama.Model())

	gemini, err := NewKeywordExtractor(FactoryConfig{
		Provider: "gemini",
		Gemini:   GeminiConfig{APIKey: "key", Model: "gemini-2.5-flash-lite"},
	})
	require.NoError(t, err)
	assert.Equal(t, "gemini", gemini.Provider())
	assert.Equal(t, "gemini-2.5-flash-lite", gemini.Model())
}

func TestNewKeywordExtractorUnsupported(t *testing.T) {
	_, err := NewKeywordExtractor(FactoryConfig{Provider: "bard"})
	require.Error(t, err)

	_, err = NewKeywordExtractor(FactoryConfig{})
	require.Error(t, err)
}
