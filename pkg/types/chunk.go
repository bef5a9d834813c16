// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// Chunk is a bounded span of extracted document text treated as a retrieval
// unit. Chunks are immutable by convention: enrichment returns a new Chunk
// value rather than modifying the input. Per prd001-splitting R1.1,
// prd002-enrichment R1.1.
type Chunk struct {
	// ID is a stable identifier, consistent across re-splits of unchanged
	// content. Per prd001-splitting R2.3.
	ID string `json:"id" yaml:"id"`

	// DocumentID names the owning document.
	DocumentID string `json:"document_id" yaml:"document_id"`

	// Text is the raw chunk text.
	Text string `json:"text" yaml:"text"`

	// Position is the zero-based ordinal of the chunk within its document.
	Position int `json:"position" yaml:"position"`

	// WordCount and TokenCount are computed during enrichment and mirror
	// the copies held on Metadata.
	WordCount  int `json:"word_count" yaml:"word_count"`
	TokenCount int `json:"token_count" yaml:"token_count"`

	// Metadata carries the enrichment record. Nil before enrichment, apart
	// from any section context seeded by the splitter.
	Metadata *ChunkMetadata `json:"metadata,omitempty" yaml:"metadata,omitempty"`
}

// ChunkMetadata is the enrichment record attached to a chunk.
// Per prd002-enrichment R3.1-R3.4.
type ChunkMetadata struct {
	// EntityTags, SectionContext, EntityRelationships, and SourceMetadata
	// are pass-through attributes owned by upstream stages; enrichment
	// copies them forward without interpretation.
	EntityTags          []string       `json:"entity_tags,omitempty" yaml:"entity_tags,omitempty"`
	SectionContext      string         `json:"section_context,omitempty" yaml:"section_context,omitempty"`
	EntityRelationships []string       `json:"entity_relationships,omitempty" yaml:"entity_relationships,omitempty"`
	SourceMetadata      map[string]any `json:"source_metadata,omitempty" yaml:"source_metadata,omitempty"`

	// Quality is the validated quality score for the chunk.
	Quality QualityScore `json:"quality" yaml:"quality"`

	// SourceHash is the content hash of the originating document.
	SourceHash string `json:"source_hash" yaml:"source_hash"`

	// DocumentType is the upstream classification label (e.g. "report").
	DocumentType string `json:"document_type" yaml:"document_type"`

	// WordCount and TokenCount are the freshly computed counts for the
	// chunk text.
	WordCount  int `json:"word_count" yaml:"word_count"`
	TokenCount int `json:"token_count" yaml:"token_count"`

	// CreatedAt is the enrichment timestamp.
	CreatedAt time.Time `json:"created_at" yaml:"created_at"`

	// ProcessingVersion tags the enrichment pipeline revision for
	// reproducibility tracking.
	ProcessingVersion string `json:"processing_version" yaml:"processing_version"`
}

// ChunkSet is the per-document artifact written by the splitting and
// enrichment stages ([docID]-chunks.yaml).
type ChunkSet struct {
	// DocumentID identifies the source document.
	DocumentID string `json:"document_id" yaml:"document_id"`

	// Chunks holds the document's chunks in position order.
	Chunks []Chunk `json:"chunks" yaml:"chunks"`
}

// SourceMetadata is the extraction layer's per-document output contract,
// read from the corpus/metadata/[docID].yaml sidecar. All keys are
// optional; use DefaultSourceMetadata as the unmarshal base so absent keys
// keep their documented defaults. Per prd002-enrichment R1.2.
type SourceMetadata struct {
	// OCRConfidence estimates OCR accuracy for the document (default 1.0).
	OCRConfidence float64 `json:"ocr_confidence" yaml:"ocr_confidence"`

	// Completeness estimates how much of the source was extracted (default 1.0).
	Completeness float64 `json:"completeness" yaml:"completeness"`

	// SourceHash is the content hash of the source document.
	SourceHash string `json:"source_hash" yaml:"source_hash"`

	// DocumentType is the classification label for the document.
	DocumentType string `json:"document_type" yaml:"document_type"`
}

// DefaultSourceMetadata returns the defaults that apply when a sidecar
// file or key is absent: perfect OCR confidence and completeness, empty
// hash and type.
func DefaultSourceMetadata() SourceMetadata {
	return SourceMetadata{
		OCRConfidence: 1.0,
		Completeness:  1.0,
	}
}
