// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package chunker

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/chunk-engine/pkg/types"
)

const (
	markdownDir = "markdown"
	chunksDir   = "chunks"

	chunkSetSuffix = "-chunks.yaml"
)

// BatchSummary holds counts from a batch splitting run (R3.4).
type BatchSummary struct {
	Split   int
	Skipped int
	Failed  int
}

// Total returns the number of documents processed.
func (s BatchSummary) Total() int {
	return s.Split + s.Skipped + s.Failed
}

// HasFailures reports whether any documents failed.
func (s BatchSummary) HasFailures() bool {
	return s.Failed > 0
}

// SplitAll splits every Markdown file in corpusDir/markdown/ and writes a
// chunk set per document to corpusDir/chunks/. Documents whose Markdown is
// older than the existing chunk set are skipped (R3.4, R3.5).
func (s *Splitter) SplitAll(ctx context.Context, cfg types.ChunkingConfig, w io.Writer) (BatchSummary, error) {
	mdDir := filepath.Join(cfg.CorpusDir, markdownDir)
	outDir := filepath.Join(cfg.CorpusDir, chunksDir)

	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return BatchSummary{}, fmt.Errorf("creating output directory: %w", err)
	}

	entries, err := os.ReadDir(mdDir)
	if err != nil {
		return BatchSummary{}, fmt.Errorf("reading markdown directory %s: %w", mdDir, err)
	}

	var summary BatchSummary

	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".md") {
			continue
		}

		select {
		case <-ctx.Done():
			return summary, ctx.Err()
		default:
		}

		docID := strings.TrimSuffix(entry.Name(), ".md")
		mdPath := filepath.Join(mdDir, entry.Name())
		outPath := filepath.Join(outDir, docID+chunkSetSuffix)

		changed, err := hasChanged(mdPath, outPath)
		if err != nil {
			fmt.Fprintf(w, "failed  %s: %v\n", docID, err)
			summary.Failed++
			continue
		}
		if !changed {
			fmt.Fprintf(w, "skipped %s\n", docID)
			summary.Skipped++
			continue
		}

		content, err := os.ReadFile(mdPath)
		if err != nil {
			fmt.Fprintf(w, "failed  %s: %v\n", docID, err)
			summary.Failed++
			continue
		}

		set := types.ChunkSet{
			DocumentID: docID,
			Chunks:     s.Split(docID, string(content)),
		}

		data, err := yaml.Marshal(&set)
		if err != nil {
			fmt.Fprintf(w, "failed  %s: marshal error: %v\n", docID, err)
			summary.Failed++
			continue
		}
		if err := os.WriteFile(outPath, data, 0o644); err != nil {
			fmt.Fprintf(w, "failed  %s: write error: %v\n", docID, err)
			summary.Failed++
			continue
		}

		fmt.Fprintf(w, "split   %s (%d chunks)\n", docID, len(set.Chunks))
		summary.Split++
	}

	return summary, nil
}

// hasChanged reports whether the Markdown file is newer than the chunk
// set. Returns true if the chunk set does not exist.
func hasChanged(mdPath, outPath string) (bool, error) {
	mdInfo, err := os.Stat(mdPath)
	if err != nil {
		return false, fmt.Errorf("stat markdown %s: %w", mdPath, err)
	}

	outInfo, err := os.Stat(outPath)
	if err != nil {
		if os.IsNotExist(err) {
			return true, nil
		}
		return false, fmt.Errorf("stat output %s: %w", outPath, err)
	}

	return mdInfo.ModTime().After(outInfo.ModTime()), nil
}
