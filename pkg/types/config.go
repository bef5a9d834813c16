// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

// ChunkingConfig holds settings for the splitting stage.
// Per prd001-splitting R3.1-R3.3.
type ChunkingConfig struct {
	// CorpusDir is the base directory for corpus artifacts (contains
	// markdown/, chunks/).
	CorpusDir string `json:"corpus_dir" yaml:"corpus_dir"`

	// MaxChunkWords caps the number of words packed into one chunk
	// (default 200).
	MaxChunkWords int `json:"max_chunk_words" yaml:"max_chunk_words"`

	// OverlapSentences is the number of trailing sentences carried into
	// the next chunk for context continuity (default 1).
	OverlapSentences int `json:"overlap_sentences" yaml:"overlap_sentences"`
}

// EnrichmentConfig holds settings for the enrichment stage.
// Per prd002-enrichment R4.1.
type EnrichmentConfig struct {
	// CorpusDir is the base directory for corpus artifacts (contains
	// chunks/, metadata/, enriched/).
	CorpusDir string `json:"corpus_dir" yaml:"corpus_dir"`
}

// StoreConfig holds settings for the chunk store stage.
// Per prd003-store R1.1, R2.4.
type StoreConfig struct {
	// CorpusDir is the base directory for corpus artifacts (contains
	// enriched/; export.yaml is written here).
	CorpusDir string `json:"corpus_dir" yaml:"corpus_dir"`

	// IndexDir is the directory holding the SQLite chunk index.
	IndexDir string `json:"index_dir" yaml:"index_dir"`

	// MaxResults is the default maximum number of query results (default 20).
	MaxResults int `json:"max_results" yaml:"max_results"`
}

// PipelineConfig groups all stage configurations for the pipeline.
type PipelineConfig struct {
	Chunking   ChunkingConfig   `json:"chunking" yaml:"chunking"`
	Enrichment EnrichmentConfig `json:"enrichment" yaml:"enrichment"`
	Store      StoreConfig      `json:"store" yaml:"store"`
}
