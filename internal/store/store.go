// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package store persists enriched chunks and builds a retrieval index.
// Implements: prd003-store (R1-R5); docs/ARCHITECTURE § Chunk Store.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/chunk-engine/pkg/types"
)

const (
	enrichedDir = "enriched"
	dbFile      = "chunks.db"

	chunkSetSuffix = "-chunks.yaml"
)

// Store manages the chunk index SQLite database.
type Store struct {
	db         *sql.DB
	corpusDir  string
	indexDir   string
	maxResults int
}

// NewStore opens or creates the chunk index at indexDir/chunks.db,
// creating the schema if it does not exist (R1.1, R1.2).
func NewStore(cfg types.StoreConfig) (*Store, error) {
	if err := os.MkdirAll(cfg.IndexDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating index directory: %w", err)
	}

	dbPath := filepath.Join(cfg.IndexDir, dbFile)
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	maxResults := cfg.MaxResults
	if maxResults <= 0 {
		maxResults = 20
	}

	s := &Store{
		db:         db,
		corpusDir:  cfg.CorpusDir,
		indexDir:   cfg.IndexDir,
		maxResults: maxResults,
	}

	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	return s, nil
}

// Close releases the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) createSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS documents (
			id TEXT PRIMARY KEY,
			document_type TEXT,
			source_hash TEXT,
			chunk_count INTEGER
		)`,
		`CREATE TABLE IF NOT EXISTS chunks (
			rowid INTEGER PRIMARY KEY AUTOINCREMENT,
			id TEXT NOT NULL UNIQUE,
			document_id TEXT NOT NULL REFERENCES documents(id),
			position INTEGER NOT NULL,
			text TEXT NOT NULL,
			section_context TEXT,
			word_count INTEGER,
			token_count INTEGER,
			flesch_kincaid REAL,
			gunning_fog REAL,
			ocr_confidence REAL,
			completeness REAL,
			coherence REAL,
			overall REAL,
			flags TEXT,
			processing_version TEXT,
			created_at TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_chunks_document_id ON chunks(document_id)`,
		`CREATE INDEX IF NOT EXISTS idx_chunks_overall ON chunks(overall)`,
		`CREATE TABLE IF NOT EXISTS indexing_status (
			document_id TEXT PRIMARY KEY,
			file_mod_time TEXT
		)`,
		`CREATE TABLE IF NOT EXISTS ingest_runs (
			id TEXT PRIMARY KEY,
			started_at TEXT,
			indexed INTEGER,
			updated INTEGER,
			skipped INTEGER,
			failed INTEGER
		)`,
	}

	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}

	// FTS5 virtual table with triggers for sync.
	var ftsExists int
	if err := s.db.QueryRow(
		`SELECT count(*) FROM sqlite_master WHERE type='table' AND name='chunks_fts'`,
	).Scan(&ftsExists); err != nil {
		return fmt.Errorf("checking FTS table: %w", err)
	}

	if ftsExists == 0 {
		ftsStatements := []string{
			`CREATE VIRTUAL TABLE chunks_fts USING fts5(text, content=chunks, content_rowid=rowid)`,
			`CREATE TRIGGER chunks_ai AFTER INSERT ON chunks BEGIN
				INSERT INTO chunks_fts(rowid, text) VALUES (new.rowid, new.text);
			END`,
			`CREATE TRIGGER chunks_ad AFTER DELETE ON chunks BEGIN
				INSERT INTO chunks_fts(chunks_fts, rowid, text) VALUES('delete', old.rowid, old.text);
			END`,
			`CREATE TRIGGER chunks_au AFTER UPDATE ON chunks BEGIN
				INSERT INTO chunks_fts(chunks_fts, rowid, text) VALUES('delete', old.rowid, old.text);
				INSERT INTO chunks_fts(rowid, text) VALUES (new.rowid, new.text);
			END`,
		}
		for _, stmt := range ftsStatements {
			if _, err := s.db.Exec(stmt); err != nil {
				return fmt.Errorf("creating FTS infrastructure: %w", err)
			}
		}
	}

	return nil
}

// IngestSummary holds counts from an indexing run (R4.4).
type IngestSummary struct {
	Indexed int
	Updated int
	Skipped int
	Failed  int
}

// Total returns the number of documents processed.
func (s IngestSummary) Total() int {
	return s.Indexed + s.Updated + s.Skipped + s.Failed
}

// Ingest reads enriched chunk sets from corpusDir/enriched/ and populates
// the database, detecting new, changed, and unchanged files for
// incremental updates (R4.1-R4.3). Each run is recorded in ingest_runs
// with a unique run ID. On success it writes export.yaml (R5.1).
func (s *Store) Ingest(ctx context.Context, w io.Writer) (IngestSummary, error) {
	inDir := filepath.Join(s.corpusDir, enrichedDir)

	entries, err := os.ReadDir(inDir)
	if err != nil {
		return IngestSummary{}, fmt.Errorf("reading enriched directory %s: %w", inDir, err)
	}

	runID := uuid.NewString()
	startedAt := time.Now().UTC()

	var summary IngestSummary

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
		filePath := filepath.Join(inDir, entry.Name())

		info, err := entry.Info()
		if err != nil {
			fmt.Fprintf(w, "failed  %s: %v\n", docID, err)
			summary.Failed++
			continue
		}
		modTime := info.ModTime().UTC().Format(time.RFC3339Nano)

		// Unchanged files are skipped (R4.1).
		var storedModTime string
		err = s.db.QueryRowContext(ctx,
			`SELECT file_mod_time FROM indexing_status WHERE document_id = ?`, docID,
		).Scan(&storedModTime)

		if err == nil && storedModTime == modTime {
			fmt.Fprintf(w, "skipped %s\n", docID)
			summary.Skipped++
			continue
		}

		isUpdate := err == nil

		data, err := os.ReadFile(filePath)
		if err != nil {
			fmt.Fprintf(w, "failed  %s: %v\n", docID, err)
			summary.Failed++
			continue
		}

		var set types.ChunkSet
		if err := yaml.Unmarshal(data, &set); err != nil {
			fmt.Fprintf(w, "failed  %s: parse error: %v\n", docID, err)
			summary.Failed++
			continue
		}

		if err := s.ingestDocument(ctx, docID, &set, modTime, isUpdate); err != nil {
			fmt.Fprintf(w, "failed  %s: %v\n", docID, err)
			summary.Failed++
			continue
		}

		if isUpdate {
			fmt.Fprintf(w, "updated %s (%d chunks)\n", docID, len(set.Chunks))
			summary.Updated++
		} else {
			fmt.Fprintf(w, "indexing %s (%d chunks)\n", docID, len(set.Chunks))
			summary.Indexed++
		}
	}

	fmt.Fprintf(w, "\nindexed: %d, updated: %d, skipped: %d, failed: %d\n",
		summary.Indexed, summary.Updated, summary.Skipped, summary.Failed)

	if _, err := s.db.ExecContext(ctx,
		`INSERT INTO ingest_runs (id, started_at, indexed, updated, skipped, failed)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		runID, startedAt.Format(time.RFC3339Nano),
		summary.Indexed, summary.Updated, summary.Skipped, summary.Failed,
	); err != nil {
		return summary, fmt.Errorf("recording ingest run: %w", err)
	}

	// Refresh the export after successful ingestion (R5.1).
	if summary.Indexed > 0 || summary.Updated > 0 {
		if err := s.ExportYAML(ctx, QueryOptions{}); err != nil {
			fmt.Fprintf(w, "warning: export.yaml write failed: %v\n", err)
		}
	}

	return summary, nil
}

func (s *Store) ingestDocument(ctx context.Context, docID string, set *types.ChunkSet, modTime string, isUpdate bool) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	// Remove old chunks if updating (R4.2).
	if isUpdate {
		if _, err := tx.ExecContext(ctx, `DELETE FROM chunks WHERE document_id = ?`, docID); err != nil {
			return fmt.Errorf("deleting old chunks: %w", err)
		}
	}

	doc := documentRecord(docID, set)
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO documents (id, document_type, source_hash, chunk_count)
		 VALUES (?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
			document_type=excluded.document_type, source_hash=excluded.source_hash,
			chunk_count=excluded.chunk_count`,
		doc.ID, doc.DocumentType, doc.SourceHash, doc.ChunkCount,
	); err != nil {
		return fmt.Errorf("upserting document: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT OR REPLACE INTO chunks (id, document_id, position, text, section_context,
			word_count, token_count, flesch_kincaid, gunning_fog, ocr_confidence,
			completeness, coherence, overall, flags, processing_version, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("preparing insert: %w", err)
	}
	defer stmt.Close()

	for _, chunk := range set.Chunks {
		meta := chunk.Metadata
		if meta == nil {
			return fmt.Errorf("chunk %s has no metadata: enrich before ingesting", chunk.ID)
		}
		q := meta.Quality
		flagsJSON, _ := json.Marshal(q.Flags())
		if _, err := stmt.ExecContext(ctx,
			chunk.ID, chunk.DocumentID, chunk.Position, chunk.Text, meta.SectionContext,
			meta.WordCount, meta.TokenCount,
			q.FleschKincaid(), q.GunningFog(), q.OCRConfidence(),
			q.Completeness(), q.Coherence(), q.Overall(),
			string(flagsJSON), meta.ProcessingVersion,
			meta.CreatedAt.UTC().Format(time.RFC3339Nano),
		); err != nil {
			return fmt.Errorf("inserting chunk %s: %w", chunk.ID, err)
		}
	}

	// Update indexing status (R4.1).
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO indexing_status (document_id, file_mod_time) VALUES (?, ?)
		 ON CONFLICT(document_id) DO UPDATE SET file_mod_time=excluded.file_mod_time`,
		docID, modTime,
	); err != nil {
		return fmt.Errorf("updating indexing status: %w", err)
	}

	return tx.Commit()
}

// documentRecord derives the document row from the chunk set, taking type
// and hash from the first chunk's metadata.
func documentRecord(docID string, set *types.ChunkSet) types.Document {
	doc := types.Document{ID: docID, ChunkCount: len(set.Chunks)}
	if len(set.Chunks) > 0 && set.Chunks[0].Metadata != nil {
		doc.DocumentType = set.Chunks[0].Metadata.DocumentType
		doc.SourceHash = set.Chunks[0].Metadata.SourceHash
	}
	return doc
}
