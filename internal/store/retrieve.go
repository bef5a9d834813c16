// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/pdiddy/chunk-engine/pkg/types"
)

// QueryOptions holds parameters for chunk store queries (R2, R3).
type QueryOptions struct {
	// Query is the FTS5 full-text search string (R2.1).
	Query string

	// DocumentID filters by document (R3.1).
	DocumentID string

	// DocumentType filters by the upstream classification label (R3.2).
	DocumentType string

	// MinOverall keeps only chunks whose overall quality is at least this
	// value (R3.3).
	MinOverall float64

	// HighQuality keeps only chunks meeting the high-quality threshold (R3.4).
	HighQuality bool

	// WithoutFlag excludes chunks carrying the given issue flag (R3.5).
	WithoutFlag string

	// MaxResults limits result count. Zero uses the store default (R2.3).
	MaxResults int
}

// IsEmpty reports whether the query has no search terms or filters.
func (q QueryOptions) IsEmpty() bool {
	return q.Query == "" && q.DocumentID == "" && q.DocumentType == "" &&
		q.MinOverall == 0 && !q.HighQuality && q.WithoutFlag == ""
}

// QueryResult is a stored chunk with its reconstructed quality score and
// owning-document context (R2.4).
type QueryResult struct {
	ChunkID        string             `json:"chunk_id" yaml:"chunk_id"`
	DocumentID     string             `json:"document_id" yaml:"document_id"`
	DocumentType   string             `json:"document_type" yaml:"document_type"`
	Position       int                `json:"position" yaml:"position"`
	SectionContext string             `json:"section_context" yaml:"section_context"`
	Text           string             `json:"text" yaml:"text"`
	WordCount      int                `json:"word_count" yaml:"word_count"`
	TokenCount     int                `json:"token_count" yaml:"token_count"`
	Quality        types.QualityScore `json:"quality" yaml:"quality"`
}

// Retrieve queries the chunk store with optional full-text search and
// quality filters. Full-text queries rank by FTS5 relevance; structured
// queries sort by document and position (R2.2, R3.6). Quality columns are
// rebuilt into a validated QualityScore, so a corrupted index surfaces as
// an error rather than an out-of-range score.
func (s *Store) Retrieve(ctx context.Context, opts QueryOptions) ([]QueryResult, error) {
	maxResults := opts.MaxResults
	if maxResults <= 0 {
		maxResults = s.maxResults
	}

	var (
		qb     strings.Builder
		args   []any
		useFTS = opts.Query != ""
	)

	if useFTS {
		qb.WriteString(
			`SELECT c.id, c.document_id, d.document_type, c.position, c.section_context,
				c.text, c.word_count, c.token_count,
				c.flesch_kincaid, c.gunning_fog, c.ocr_confidence,
				c.completeness, c.coherence, c.overall, c.flags
			FROM chunks_fts
			JOIN chunks c ON c.rowid = chunks_fts.rowid
			LEFT JOIN documents d ON c.document_id = d.id
			WHERE chunks_fts MATCH ?`)
		args = append(args, opts.Query)
	} else {
		qb.WriteString(
			`SELECT c.id, c.document_id, d.document_type, c.position, c.section_context,
				c.text, c.word_count, c.token_count,
				c.flesch_kincaid, c.gunning_fog, c.ocr_confidence,
				c.completeness, c.coherence, c.overall, c.flags
			FROM chunks c
			LEFT JOIN documents d ON c.document_id = d.id
			WHERE 1=1`)
	}

	if opts.DocumentID != "" {
		qb.WriteString(` AND c.document_id = ?`)
		args = append(args, opts.DocumentID)
	}

	if opts.DocumentType != "" {
		qb.WriteString(` AND d.document_type = ?`)
		args = append(args, opts.DocumentType)
	}

	if opts.MinOverall > 0 {
		qb.WriteString(` AND c.overall >= ?`)
		args = append(args, opts.MinOverall)
	}

	if opts.HighQuality {
		qb.WriteString(` AND c.overall >= 0.75`)
	}

	if opts.WithoutFlag != "" {
		qb.WriteString(` AND NOT EXISTS (SELECT 1 FROM json_each(c.flags) WHERE value = ?)`)
		args = append(args, opts.WithoutFlag)
	}

	if useFTS {
		qb.WriteString(` ORDER BY chunks_fts.rank`)
	} else {
		qb.WriteString(` ORDER BY c.document_id, c.position`)
	}

	qb.WriteString(` LIMIT ?`)
	args = append(args, maxResults)

	rows, err := s.db.QueryContext(ctx, qb.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("querying chunk store: %w", err)
	}
	defer rows.Close()

	var results []QueryResult
	for rows.Next() {
		var (
			qr             QueryResult
			docType        sql.NullString
			sectionContext sql.NullString
			fk, fog        float64
			ocr, comp      float64
			coh, overall   float64
			flagsJSON      sql.NullString
		)

		if err := rows.Scan(
			&qr.ChunkID, &qr.DocumentID, &docType, &qr.Position, &sectionContext,
			&qr.Text, &qr.WordCount, &qr.TokenCount,
			&fk, &fog, &ocr, &comp, &coh, &overall, &flagsJSON,
		); err != nil {
			return nil, fmt.Errorf("scanning row: %w", err)
		}

		if docType.Valid {
			qr.DocumentType = docType.String
		}
		if sectionContext.Valid {
			qr.SectionContext = sectionContext.String
		}

		var flags []string
		if flagsJSON.Valid {
			json.Unmarshal([]byte(flagsJSON.String), &flags)
		}

		quality, err := types.NewQualityScore(fk, fog, ocr, comp, coh, overall, flags)
		if err != nil {
			return nil, fmt.Errorf("chunk %s: %w", qr.ChunkID, err)
		}
		qr.Quality = quality

		results = append(results, qr)
	}

	return results, rows.Err()
}
