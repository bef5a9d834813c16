// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package store

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"go.yaml.in/yaml/v3"
)

// ExportEntry holds one chunk with its quality mapping for export (R5.2).
// Quality uses the plain mapping form so manifests stay readable by
// downstream report writers.
type ExportEntry struct {
	ChunkID        string         `json:"chunk_id" yaml:"chunk_id"`
	DocumentID     string         `json:"document_id" yaml:"document_id"`
	DocumentType   string         `json:"document_type" yaml:"document_type"`
	Position       int            `json:"position" yaml:"position"`
	SectionContext string         `json:"section_context" yaml:"section_context"`
	Text           string         `json:"text" yaml:"text"`
	WordCount      int            `json:"word_count" yaml:"word_count"`
	TokenCount     int            `json:"token_count" yaml:"token_count"`
	Quality        map[string]any `json:"quality" yaml:"quality"`
}

const exportLimit = 100000

// ExportYAML writes the chunk store to corpusDir/export.yaml (R5.1).
// It supports the same filters as Retrieve (R5.3).
func (s *Store) ExportYAML(ctx context.Context, opts QueryOptions) error {
	entries, err := s.exportEntries(ctx, opts)
	if err != nil {
		return err
	}

	path := filepath.Join(s.corpusDir, "export.yaml")
	data, err := yaml.Marshal(entries)
	if err != nil {
		return fmt.Errorf("marshaling YAML: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}

// ExportJSON writes the chunk store to corpusDir/export.json (R5.1).
// It supports the same filters as Retrieve (R5.3).
func (s *Store) ExportJSON(ctx context.Context, opts QueryOptions) error {
	entries, err := s.exportEntries(ctx, opts)
	if err != nil {
		return err
	}

	path := filepath.Join(s.corpusDir, "export.json")
	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling JSON: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}

func (s *Store) exportEntries(ctx context.Context, opts QueryOptions) ([]ExportEntry, error) {
	opts.MaxResults = exportLimit
	results, err := s.Retrieve(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("querying for export: %w", err)
	}

	entries := make([]ExportEntry, len(results))
	for i, r := range results {
		entries[i] = ExportEntry{
			ChunkID:        r.ChunkID,
			DocumentID:     r.DocumentID,
			DocumentType:   r.DocumentType,
			Position:       r.Position,
			SectionContext: r.SectionContext,
			Text:           r.Text,
			WordCount:      r.WordCount,
			TokenCount:     r.TokenCount,
			Quality:        r.Quality.Map(),
		}
	}

	return entries, nil
}
