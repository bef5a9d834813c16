package store

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/chunk-engine/pkg/types"
)

// chunkFixture describes one enriched chunk for test corpora.
type chunkFixture struct {
	text    string
	overall float64
	flags   []string
}

func writeEnrichedSet(t *testing.T, corpusDir, docID, docType string, fixtures []chunkFixture) {
	t.Helper()

	set := types.ChunkSet{DocumentID: docID}
	for i, f := range fixtures {
		quality, err := types.NewQualityScore(8, 10, 0.99, 0.98, 0.8, f.overall, f.flags)
		require.NoError(t, err, "building fixture score")
		set.Chunks = append(set.Chunks, types.Chunk{
			ID:         fmt.Sprintf("%s-%04d", docID, i),
			DocumentID: docID,
			Text:       f.text,
			Position:   i,
			WordCount:  len(strings.Fields(f.text)),
			Metadata: &types.ChunkMetadata{
				SectionContext:    "Results",
				Quality:           quality,
				SourceHash:        "hash-" + docID,
				DocumentType:      docType,
				WordCount:         len(strings.Fields(f.text)),
				TokenCount:        len(f.text) / 4,
				CreatedAt:         time.Now().UTC(),
				ProcessingVersion: "1.0.0",
			},
		})
	}

	data, err := yaml.Marshal(&set)
	require.NoError(t, err)
	dir := filepath.Join(corpusDir, "enriched")
	require.NoError(t, os.MkdirAll(dir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, docID+"-chunks.yaml"), data, 0o644))
}

func testStore(t *testing.T) (*Store, string) {
	t.Helper()
	corpusDir := t.TempDir()
	s, err := NewStore(types.StoreConfig{
		CorpusDir: corpusDir,
		IndexDir:  filepath.Join(corpusDir, "index"),
	})
	require.NoError(t, err, "NewStore")
	t.Cleanup(func() { s.Close() })
	return s, corpusDir
}

func seedCorpus(t *testing.T, corpusDir string) {
	t.Helper()
	writeEnrichedSet(t, corpusDir, "solar-report", "report", []chunkFixture{
		{text: "Solar capacity doubled across the region last year.", overall: 0.9},
		{text: "Storage deployment still lags behind solar growth.", overall: 0.6, flags: []string{"low_ocr"}},
	})
	writeEnrichedSet(t, corpusDir, "wind-brief", "brief", []chunkFixture{
		{text: "Offshore wind farms delivered record output.", overall: 0.8},
	})
}

func TestIngestAndRetrieve(t *testing.T) {
	s, corpusDir := testStore(t)
	seedCorpus(t, corpusDir)

	var out bytes.Buffer
	summary, err := s.Ingest(context.Background(), &out)
	require.NoError(t, err)
	require.Equal(t, IngestSummary{Indexed: 2}, summary)

	results, err := s.Retrieve(context.Background(), QueryOptions{})
	require.NoError(t, err)
	require.Len(t, results, 3)

	// Structured queries sort by document then position.
	first := results[0]
	assert.Equal(t, "solar-report", first.DocumentID)
	assert.Equal(t, 0, first.Position)
	assert.Equal(t, "report", first.DocumentType, "document type joined from documents table")
	assert.Equal(t, 0.9, first.Quality.Overall())
	assert.Equal(t, 0.99, first.Quality.OCRConfidence())
	assert.Equal(t, "Results", first.SectionContext)
}

func TestIngestSkipsUnchanged(t *testing.T) {
	s, corpusDir := testStore(t)
	seedCorpus(t, corpusDir)

	_, err := s.Ingest(context.Background(), &bytes.Buffer{})
	require.NoError(t, err)

	summary, err := s.Ingest(context.Background(), &bytes.Buffer{})
	require.NoError(t, err)
	assert.Equal(t, IngestSummary{Skipped: 2}, summary)
}

func TestIngestUpdatesChangedDocument(t *testing.T) {
	s, corpusDir := testStore(t)
	seedCorpus(t, corpusDir)

	_, err := s.Ingest(context.Background(), &bytes.Buffer{})
	require.NoError(t, err)

	// Rewrite one document with a single chunk and a future mod time.
	writeEnrichedSet(t, corpusDir, "solar-report", "report", []chunkFixture{
		{text: "Revised solar analysis with one chunk only.", overall: 0.7},
	})
	path := filepath.Join(corpusDir, "enriched", "solar-report-chunks.yaml")
	future := time.Now().Add(time.Hour)
	require.NoError(t, os.Chtimes(path, future, future))

	summary, err := s.Ingest(context.Background(), &bytes.Buffer{})
	require.NoError(t, err)
	assert.Equal(t, IngestSummary{Updated: 1, Skipped: 1}, summary)

	// Old chunks of the updated document are gone.
	results, err := s.Retrieve(context.Background(), QueryOptions{DocumentID: "solar-report"})
	require.NoError(t, err)
	assert.Len(t, results, 1)
}

func TestIngestRejectsUnenrichedChunks(t *testing.T) {
	s, corpusDir := testStore(t)

	set := types.ChunkSet{
		DocumentID: "raw-doc",
		Chunks:     []types.Chunk{{ID: "raw-0001", DocumentID: "raw-doc", Text: "No metadata."}},
	}
	data, err := yaml.Marshal(&set)
	require.NoError(t, err)
	dir := filepath.Join(corpusDir, "enriched")
	require.NoError(t, os.MkdirAll(dir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "raw-doc-chunks.yaml"), data, 0o644))

	var out bytes.Buffer
	summary, err := s.Ingest(context.Background(), &out)
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Failed)
	assert.Contains(t, out.String(), "enrich before ingesting")
}

func TestRetrieveFullText(t *testing.T) {
	s, corpusDir := testStore(t)
	seedCorpus(t, corpusDir)
	_, err := s.Ingest(context.Background(), &bytes.Buffer{})
	require.NoError(t, err)

	results, err := s.Retrieve(context.Background(), QueryOptions{Query: "offshore"})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "wind-brief", results[0].DocumentID)
}

func TestRetrieveQualityFilters(t *testing.T) {
	s, corpusDir := testStore(t)
	seedCorpus(t, corpusDir)
	_, err := s.Ingest(context.Background(), &bytes.Buffer{})
	require.NoError(t, err)
	ctx := context.Background()

	tests := []struct {
		name string
		opts QueryOptions
		want int
	}{
		{"min overall", QueryOptions{MinOverall: 0.7}, 2},
		{"high quality only", QueryOptions{HighQuality: true}, 2},
		{"without flag", QueryOptions{WithoutFlag: "low_ocr"}, 2},
		{"document filter", QueryOptions{DocumentID: "solar-report"}, 2},
		{"type filter", QueryOptions{DocumentType: "brief"}, 1},
		{"combined", QueryOptions{DocumentID: "solar-report", MinOverall: 0.7}, 1},
		{"max results", QueryOptions{MinOverall: 0.1, MaxResults: 1}, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			results, err := s.Retrieve(ctx, tt.opts)
			require.NoError(t, err)
			assert.Len(t, results, tt.want)
		})
	}
}

func TestIngestWritesExport(t *testing.T) {
	s, corpusDir := testStore(t)
	seedCorpus(t, corpusDir)
	_, err := s.Ingest(context.Background(), &bytes.Buffer{})
	require.NoError(t, err)

	data, err := os.ReadFile(filepath.Join(corpusDir, "export.yaml"))
	require.NoError(t, err, "export.yaml written after ingest")

	var entries []ExportEntry
	require.NoError(t, yaml.Unmarshal(data, &entries))
	require.Len(t, entries, 3)
	for _, e := range entries {
		assert.Contains(t, e.Quality, "overall", "entry %s quality mapping", e.ChunkID)
	}
}

func TestExportJSONFiltered(t *testing.T) {
	s, corpusDir := testStore(t)
	seedCorpus(t, corpusDir)
	_, err := s.Ingest(context.Background(), &bytes.Buffer{})
	require.NoError(t, err)

	require.NoError(t, s.ExportJSON(context.Background(), QueryOptions{HighQuality: true}))

	data, err := os.ReadFile(filepath.Join(corpusDir, "export.json"))
	require.NoError(t, err)
	assert.Contains(t, string(data), "solar-report-0000")
	assert.NotContains(t, string(data), "solar-report-0001", "below-threshold chunk must be filtered")
}

func TestQueryOptionsIsEmpty(t *testing.T) {
	tests := []struct {
		name string
		opts QueryOptions
		want bool
	}{
		{"empty", QueryOptions{}, true},
		{"max results only", QueryOptions{MaxResults: 5}, true},
		{"query", QueryOptions{Query: "solar"}, false},
		{"document", QueryOptions{DocumentID: "d"}, false},
		{"high quality", QueryOptions{HighQuality: true}, false},
		{"without flag", QueryOptions{WithoutFlag: "low_ocr"}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.opts.IsEmpty())
		})
	}
}

func TestIngestRecordsRun(t *testing.T) {
	s, corpusDir := testStore(t)
	seedCorpus(t, corpusDir)
	_, err := s.Ingest(context.Background(), &bytes.Buffer{})
	require.NoError(t, err)

	var runs, indexed int
	err = s.db.QueryRow(`SELECT count(*), coalesce(sum(indexed), 0) FROM ingest_runs`).Scan(&runs, &indexed)
	require.NoError(t, err)
	assert.Equal(t, 1, runs)
	assert.Equal(t, 2, indexed)
}
