// Package storage persists the reference corpus snapshot on disk.
package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"magic-scanner/internal/domain/entity"
	"magic-scanner/internal/domain/port"
)

// FileCorpusStore keeps the corpus as a single JSON snapshot keyed by
// Scryfall ID. Writes go through a temp file and rename so a crash never
// leaves a half-written snapshot behind.
type FileCorpusStore struct {
	path string
}

// NewFileCorpusStore creates a store backed by the given file path.
func NewFileCorpusStore(path string) *FileCorpusStore {
	return &FileCorpusStore{path: path}
}

// Load reads the snapshot. On a missing or unreadable file it returns an
// empty corpus along with the error: the service starts and answers
// health checks even with zero reference data.
func (s *FileCorpusStore) Load(ctx context.Context) (entity.Corpus, error) {
	_ = ctx
	data, err := os.ReadFile(s.path)
	if err != nil {
		return entity.Corpus{}, fmt.Errorf("read corpus snapshot: %w", err)
	}

	var corpus entity.Corpus
	if err := json.Unmarshal(data, &corpus); err != nil {
		return entity.Corpus{}, fmt.Errorf("decode corpus snapshot: %w", err)
	}
	return corpus, nil
}

// Save writes the full corpus snapshot atomically.
func (s *FileCorpusStore) Save(ctx context.Context, corpus entity.Corpus) error {
	_ = ctx
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("create corpus dir: %w", err)
	}

	data, err := json.Marshal(corpus)
	if err != nil {
		return fmt.Errorf("encode corpus snapshot: %w", err)
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write corpus snapshot: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("replace corpus snapshot: %w", err)
	}
	return nil
}

var _ port.CorpusStore = (*FileCorpusStore)(nil)
