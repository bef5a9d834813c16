// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

// Document summarizes one source document as recorded in the chunk store.
// Per prd003-store R1.4.
type Document struct {
	// ID is the document identifier, derived from the Markdown file name.
	ID string `json:"id" yaml:"id"`

	// DocumentType is the upstream classification label.
	DocumentType string `json:"document_type" yaml:"document_type"`

	// SourceHash is the content hash of the source document.
	SourceHash string `json:"source_hash" yaml:"source_hash"`

	// ChunkCount is the number of chunks indexed for the document.
	ChunkCount int `json:"chunk_count" yaml:"chunk_count"`
}
