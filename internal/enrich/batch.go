// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package enrich

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
	chunksDir   = "chunks"
	metadataDir = "metadata"
	enrichedDir = "enriched"

	chunkSetSuffix = "-chunks.yaml"
)

// BatchSummary holds counts from a batch enrichment run (R4.4).
type BatchSummary struct {
	Enriched int
	Skipped  int
	Failed   int
}

// Total returns the number of documents processed.
func (s BatchSummary) Total() int {
	return s.Enriched + s.Skipped + s.Failed
}

// HasFailures reports whether any documents failed (R4.5).
func (s BatchSummary) HasFailures() bool {
	return s.Failed > 0
}

// EnrichAll processes every chunk set in corpusDir/chunks/, loading the
// per-document metadata sidecar from corpusDir/metadata/, and writes
// enriched chunk sets to corpusDir/enriched/. Unchanged inputs are skipped
// by mod-time comparison (R4.1, R4.2). A single chunk failure fails the
// whole document: a broken enrichment dependency affects every remaining
// chunk identically, so skipping would only hide it.
func (e *Enricher) EnrichAll(ctx context.Context, cfg types.EnrichmentConfig, w io.Writer) (BatchSummary, error) {
	inDir := filepath.Join(cfg.CorpusDir, chunksDir)
	metaDir := filepath.Join(cfg.CorpusDir, metadataDir)
	outDir := filepath.Join(cfg.CorpusDir, enrichedDir)

	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return BatchSummary{}, fmt.Errorf("creating output directory: %w", err)
	}

	entries, err := os.ReadDir(inDir)
	if err != nil {
		return BatchSummary{}, fmt.Errorf("reading chunks directory %s: %w", inDir, err)
	}

	var summary BatchSummary

	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), chunkSetSuffix) {
			continue
		}

		select {
		case <-ctx.Done():
			return summary, ctx.Err()
		default:
		}

		docID := strings.TrimSuffix(entry.Name(), chunkSetSuffix)
		inPath := filepath.Join(inDir, entry.Name())
		outPath := filepath.Join(outDir, entry.Name())

		changed, err := hasChanged(inPath, outPath)
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

		set, err := readChunkSet(inPath)
		if err != nil {
			fmt.Fprintf(w, "failed  %s: %v\n", docID, err)
			summary.Failed++
			continue
		}

		src, err := LoadSourceMetadata(filepath.Join(metaDir, docID+".yaml"))
		if err != nil {
			fmt.Fprintf(w, "failed  %s: %v\n", docID, err)
			summary.Failed++
			continue
		}

		enriched := types.ChunkSet{DocumentID: set.DocumentID}
		failed := false
		for _, chunk := range set.Chunks {
			out, err := e.EnrichChunk(chunk, src)
			if err != nil {
				fmt.Fprintf(w, "failed  %s: chunk %s: %v\n", docID, chunk.ID, err)
				summary.Failed++
				failed = true
				break
			}
			enriched.Chunks = append(enriched.Chunks, out)
		}
		if failed {
			continue
		}

		if err := writeChunkSet(outPath, &enriched); err != nil {
			fmt.Fprintf(w, "failed  %s: write error: %v\n", docID, err)
			summary.Failed++
			continue
		}

		fmt.Fprintf(w, "enriched %s (%d chunks)\n", docID, len(enriched.Chunks))
		summary.Enriched++
	}

	return summary, nil
}

// LoadSourceMetadata reads a per-document metadata sidecar. A missing file
// yields the defaults (perfect OCR confidence and completeness); keys
// absent from an existing file keep their defaults (R1.2).
func LoadSourceMetadata(path string) (types.SourceMetadata, error) {
	meta := types.DefaultSourceMetadata()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return meta, nil
		}
		return meta, fmt.Errorf("reading source metadata %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, &meta); err != nil {
		return types.SourceMetadata{}, fmt.Errorf("parsing source metadata %s: %w", path, err)
	}
	return meta, nil
}

func readChunkSet(path string) (*types.ChunkSet, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading chunk set %s: %w", path, err)
	}
	var set types.ChunkSet
	if err := yaml.Unmarshal(data, &set); err != nil {
		return nil, fmt.Errorf("parsing chunk set %s: %w", path, err)
	}
	return &set, nil
}

func writeChunkSet(path string, set *types.ChunkSet) error {
	data, err := yaml.Marshal(set)
	if err != nil {
		return fmt.Errorf("marshaling chunk set: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}

// hasChanged reports whether the input file is newer than the output file.
// Returns true if the output does not exist.
func hasChanged(inPath, outPath string) (bool, error) {
	inInfo, err := os.Stat(inPath)
	if err != nil {
		return false, fmt.Errorf("stat input %s: %w", inPath, err)
	}

	outInfo, err := os.Stat(outPath)
	if err != nil {
		if os.IsNotExist(err) {
			return true, nil
		}
		return false, fmt.Errorf("stat output %s: %w", outPath, err)
	}

	return inInfo.ModTime().After(outInfo.ModTime()), nil
}
