package source

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"AwardScanner/internal/domain"
	"AwardScanner/internal/ports"
)

// FileSource reads page records the external retrieval collaborator already
// materialized into a JSON file: an array of {url, title, text} objects.
type FileSource struct {
	path string
}

var _ ports.PageSource = (*FileSource)(nil)

// NewFileSource points at the pages file.
func NewFileSource(path string) *FileSource {
	return &FileSource{path: path}
}

// Pages loads and decodes the page list. The query parameter is accepted for
// interface symmetry; the file is assumed to hold that query's result set.
func (s *FileSource) Pages(_ context.Context, _ string) ([]domain.PageRecord, error) {
	raw, err := os.ReadFile(s.path)
	if err != nil {
		return nil, fmt.Errorf("read pages file %s: %w", s.path, err)
	}

	var pages []domain.PageRecord
	if err := json.Unmarshal(raw, &pages); err != nil {
		return nil, fmt.Errorf("parse pages file %s: %w", s.path, err)
	}
	return pages, nil
}
