package checkpoint

import (
	"encoding/json"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/confcloud/confcloud/internal/domain"
)

func strptr(s string) *string { return &s }

func TestCheckpointRoundTrip(t *testing.T) {
	store, err := NewStore(t.TempDir())
	require.NoError(t, err)

	source := domain.SourceOpenAlex
	papers := []*domain.PaperRecord{
		{
			Title:          "Mining Temporal Graphs at Scale",
			Year:           2023,
			Authors:        []string{"Jane Doe"},
			DOI:            "10.1145/3394486.3403043",
			Abstract:       strptr("We study graphs."),
			AbstractSource: &source,
			SourceID:       strptr("W100"),
		},
		{Title: "Unenriched Paper", Year: 2023},
	}

	meta := Metadata{Conference: "KDD", Years: []int{2023}, RunID: "run-1"}
	require.NoError(t, store.Checkpoint(meta, papers))

	doc, err := store.Load("KDD")
	require.NoError(t, err)

	assert.Equal(t, "KDD", doc.Metadata.Conference)
	assert.Equal(t, "run-1", doc.Metadata.RunID)
	assert.Equal(t, 2, doc.Metadata.TotalPapers)
	assert.Equal(t, 1, doc.Metadata.WithAbstract)
	assert.False(t, doc.Metadata.UpdatedAt.IsZero())

	require.Len(t, doc.Papers, 2)
	require.NotNil(t, doc.Papers[0].Abstract)
	assert.Equal(t, "We study graphs.", *doc.Papers[0].Abstract)
	require.NotNil(t, doc.Papers[0].AbstractSource)
	assert.Equal(t, domain.SourceOpenAlex, *doc.Papers[0].AbstractSource)
	assert.Nil(t, doc.Papers[1].Abstract)
	assert.Nil(t, doc.Papers[1].AbstractSource)
}

func TestCheckpointOverwrites(t *testing.T) {
	store, err := NewStore(t.TempDir())
	require.NoError(t, err)

	meta := Metadata{Conference: "KDD"}
	require.NoError(t, store.Checkpoint(meta, []*domain.PaperRecord{{Title: "One", Year: 2023}}))
	require.NoError(t, store.Checkpoint(meta, []*domain.PaperRecord{
		{Title: "One", Year: 2023},
		{Title: "Two", Year: 2023},
	}))

	doc, err := store.Load("KDD")
	require.NoError(t, err)
	assert.Len(t, doc.Papers, 2)

	// No stray temp files left behind.
	entries, err := os.ReadDir(store.dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestLoadMissing(t *testing.T) {
	store, err := NewStore(t.TempDir())
	require.NoError(t, err)

	_, err = store.Load("NeurIPS")
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestPathNaming(t *testing.T) {
	store, err := NewStore(t.TempDir())
	require.NoError(t, err)

	assert.True(t, strings.HasSuffix(store.Path("KDD"), "kdd_papers.json"))
	assert.True(t, strings.HasSuffix(store.ProgressLogPath("Neur IPS"), "neur_ips_progress.log"))
	assert.True(t, strings.HasSuffix(store.KeywordsPath("KDD"), "kdd_keywords.json"))
	assert.True(t, strings.HasSuffix(store.CloudPath("KDD"), "kdd_wordcloud.json"))
}

func TestWriteJSON(t *testing.T) {
	dir := t.TempDir()
	store, err := NewStore(dir)
	require.NoError(t, err)

	path := store.KeywordsPath("KDD")
	require.NoError(t, store.WriteJSON(path, map[string]int{"graph": 3}))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var got map[string]int
	require.NoError(t, json.Unmarshal(data, &got))
	assert.Equal(t, 3, got["graph"])

	// No stray temp files survive the write.
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}
