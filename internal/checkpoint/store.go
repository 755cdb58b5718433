// Package checkpoint persists the paper collection between and during
// pipeline runs. Each conference gets one checkpoint file, overwritten
// atomically on every save, and one append-only progress log. Restarted
// runs reload the checkpoint and skip papers that already carry an
// abstract, so an interrupted run converges to the same end state as an
// uninterrupted one.
package checkpoint

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/confcloud/confcloud/internal/domain"
)

// Metadata is the envelope describing one checkpointed collection.
type Metadata struct {
	Conference   string    `json:"conference"`
	FullName     string    `json:"full_name,omitempty"`
	Years        []int     `json:"years,omitempty"`
	RunID        string    `json:"run_id,omitempty"`
	TotalPapers  int       `json:"total_papers"`
	WithAbstract int       `json:"with_abstract"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Document is the on-disk checkpoint shape.
type Document struct {
	Metadata Metadata              `json:"metadata"`
	Papers   []*domain.PaperRecord `json:"papers"`
}

// Store reads and writes per-conference checkpoint files under one
// data directory.
type Store struct {
	dir string
}

// NewStore creates a store rooted at dir, creating it if needed.
func NewStore(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}
	return &Store{dir: dir}, nil
}

// Path returns the checkpoint file path for a conference.
func (s *Store) Path(conference string) string {
	return filepath.Join(s.dir, fileStem(conference)+"_papers.json")
}

// ProgressLogPath returns the progress log path for a conference.
func (s *Store) ProgressLogPath(conference string) string {
	return filepath.Join(s.dir, fileStem(conference)+"_progress.log")
}

// KeywordsPath returns the keyword statistics path for a conference.
func (s *Store) KeywordsPath(conference string) string {
	return filepath.Join(s.dir, fileStem(conference)+"_keywords.json")
}

// CloudPath returns the word-cloud artifact path for a conference.
func (s *Store) CloudPath(conference string) string {
	return filepath.Join(s.dir, fileStem(conference)+"_wordcloud.json")
}

func fileStem(conference string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimSpace(conference)), " ", "_")
}

// Checkpoint writes the full collection, replacing any prior checkpoint.
// The write goes to a temp file in the same directory and is renamed
// into place, so a crash mid-write never corrupts the previous
// checkpoint.
func (s *Store) Checkpoint(meta Metadata, papers []*domain.PaperRecord) error {
	meta.TotalPapers = len(papers)
	meta.WithAbstract = domain.ComputeCoverage(papers).WithAbstract
	meta.UpdatedAt = time.Now().UTC()

	doc := Document{Metadata: meta, Papers: papers}
	return s.WriteJSON(s.Path(meta.Conference), doc)
}

// WriteJSON atomically writes v as indented JSON to a path inside the
// store's directory. Derived artifacts (keyword statistics, the word
// cloud) share the checkpoint's temp-and-rename discipline.
func (s *Store) WriteJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling %s: %w", filepath.Base(path), err)
	}

	tmp, err := os.CreateTemp(s.dir, filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("writing %s: %w", filepath.Base(path), err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("closing %s: %w", filepath.Base(path), err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("replacing %s: %w", filepath.Base(path), err)
	}
	return nil
}

// Load reads the checkpoint for a conference. A missing file maps to
// domain.ErrNotFound so callers can distinguish "first run" from a
// damaged checkpoint.
func (s *Store) Load(conference string) (Document, error) {
	data, err := os.ReadFile(s.Path(conference))
	if err != nil {
		if os.IsNotExist(err) {
			return Document{}, domain.NewNotFoundError("checkpoint", conference)
		}
		return Document{}, fmt.Errorf("reading checkpoint: %w", err)
	}

	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return Document{}, fmt.Errorf("decoding checkpoint %s: %w", s.Path(conference), err)
	}
	return doc, nil
}
