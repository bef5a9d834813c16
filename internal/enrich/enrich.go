// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package enrich computes quality metadata for chunks: readability,
// coherence, completeness and OCR propagation, a weighted composite score,
// and discrete issue flags.
// Implements: prd002-enrichment (R1-R7); docs/ARCHITECTURE § Enrichment.
package enrich

import (
	"fmt"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/pdiddy/chunk-engine/internal/segment"
	"github.com/pdiddy/chunk-engine/internal/textstat"
	"github.com/pdiddy/chunk-engine/pkg/types"
)

// ProcessingVersion tags enriched metadata for reproducibility tracking.
const ProcessingVersion = "1.0.0"

// Quality flag codes, in detection order (R7.5). The order is part of the
// contract: downstream display and equality checks rely on it.
const (
	FlagLowOCR               = "low_ocr"
	FlagIncompleteExtraction = "incomplete_extraction"
	FlagHighComplexity       = "high_complexity"
	FlagGibberish            = "gibberish"
)

// Composite score weights (R6.3). Fixed by product decision: OCR fidelity
// matters most, technical-document readability least. Not configurable.
const (
	weightOCR          = 0.4
	weightCompleteness = 0.3
	weightCoherence    = 0.2
	weightReadability  = 0.1
)

const (
	// maxReadabilityGrade caps both readability indices before scoring.
	maxReadabilityGrade = 30.0

	// readabilityGradeCeiling normalizes the Flesch-Kincaid grade into a
	// 0-1 "higher is better" signal; grades above it saturate to zero.
	readabilityGradeCeiling = 20.0

	// Flag thresholds (R7.1-R7.4). All comparisons are strict.
	lowOCRThreshold     = 0.95
	incompleteThreshold = 0.90
	complexityThreshold = 15.0
	gibberishRatio      = 0.30

	// charsPerToken is the fixed character-to-token approximation. It is
	// intentionally not a real tokenizer: scores must stay comparable
	// across pipeline revisions.
	charsPerToken = 4
)

// Enricher computes quality metadata for one chunk at a time. Both
// collaborators are injected so tests run without loading models.
// EnrichChunk is pure apart from the detector's one-time model load, so an
// Enricher is safe for concurrent use across chunks.
type Enricher struct {
	stats     textstat.Analyzer
	segmenter *segment.Segmenter
}

// New returns an Enricher using the given readability analyzer and
// sentence segmenter.
func New(stats textstat.Analyzer, segmenter *segment.Segmenter) *Enricher {
	return &Enricher{stats: stats, segmenter: segmenter}
}

// EnrichChunk computes all quality metrics for the chunk and returns a new
// chunk carrying a fully populated metadata record. The input chunk is not
// modified (R1.3). Pass-through metadata fields are copied forward from the
// input chunk when present; ocr confidence and completeness come from src.
func (e *Enricher) EnrichChunk(chunk types.Chunk, src types.SourceMetadata) (types.Chunk, error) {
	fleschKincaid, gunningFog := e.readability(chunk.Text)
	coherence := e.coherence(chunk.Text)
	words, tokens := wordTokenCounts(chunk.Text)
	overall := overallQuality(src.OCRConfidence, src.Completeness, coherence, fleschKincaid)

	// Construct once without flags so the detector can inspect the
	// computed numeric fields, then reconstruct with flags attached:
	// the score type is immutable (R2.5).
	score, err := types.NewQualityScore(
		fleschKincaid, gunningFog,
		src.OCRConfidence, src.Completeness, coherence, overall, nil,
	)
	if err != nil {
		return types.Chunk{}, fmt.Errorf("assembling quality score for chunk %s: %w", chunk.ID, err)
	}
	score = score.WithFlags(detectFlags(chunk.Text, score))

	meta := &types.ChunkMetadata{
		Quality:           score,
		SourceHash:        src.SourceHash,
		DocumentType:      src.DocumentType,
		WordCount:         words,
		TokenCount:        tokens,
		CreatedAt:         time.Now().UTC(),
		ProcessingVersion: ProcessingVersion,
	}
	if prev := chunk.Metadata; prev != nil {
		meta.EntityTags = append([]string(nil), prev.EntityTags...)
		meta.SectionContext = prev.SectionContext
		meta.EntityRelationships = append([]string(nil), prev.EntityRelationships...)
		if prev.SourceMetadata != nil {
			meta.SourceMetadata = make(map[string]any, len(prev.SourceMetadata))
			for k, v := range prev.SourceMetadata {
				meta.SourceMetadata[k] = v
			}
		}
	}

	enriched := chunk
	enriched.Metadata = meta
	enriched.WordCount = words
	enriched.TokenCount = tokens
	return enriched, nil
}

// readability returns the clamped Flesch-Kincaid grade and Gunning Fog
// index. Empty text and analyzer failures (degenerate short input) both
// fall back to (0, 0); analyzer errors never propagate (R6.1).
func (e *Enricher) readability(text string) (float64, float64) {
	if strings.TrimSpace(text) == "" {
		return 0, 0
	}

	fleschKincaid, err := e.stats.FleschKincaidGrade(text)
	if err != nil {
		return 0, 0
	}
	gunningFog, err := e.stats.GunningFog(text)
	if err != nil {
		return 0, 0
	}

	return clamp(fleschKincaid, 0, maxReadabilityGrade),
		clamp(gunningFog, 0, maxReadabilityGrade)
}

// wordTokenCounts counts whitespace-delimited words and approximates
// tokens as one per four characters (R6.2).
func wordTokenCounts(text string) (words, tokens int) {
	if strings.TrimSpace(text) == "" {
		return 0, 0
	}
	return len(strings.Fields(text)), utf8.RuneCountInString(text) / charsPerToken
}

// overallQuality combines the signals with fixed weights and clamps the
// result to [0, 1] (R6.3). fleschKincaid must already be clamped.
func overallQuality(ocrConfidence, completeness, coherence, fleschKincaid float64) float64 {
	readabilityNormalized := clamp(1.0-fleschKincaid/readabilityGradeCeiling, 0, 1)
	return clamp(
		weightOCR*ocrConfidence+
			weightCompleteness*completeness+
			weightCoherence*coherence+
			weightReadability*readabilityNormalized,
		0, 1)
}

// detectFlags evaluates every flag condition independently; a chunk may
// carry several flags at once. Flags appear in fixed order: low_ocr,
// incomplete_extraction, high_complexity, gibberish (R7.5).
func detectFlags(text string, score types.QualityScore) []string {
	var flags []string

	if score.OCRConfidence() < lowOCRThreshold {
		flags = append(flags, FlagLowOCR)
	}
	if score.Completeness() < incompleteThreshold {
		flags = append(flags, FlagIncompleteExtraction)
	}
	if score.FleschKincaid() > complexityThreshold {
		flags = append(flags, FlagHighComplexity)
	}
	if total := utf8.RuneCountInString(text); total > 0 {
		letters := 0
		for _, r := range text {
			if unicode.IsLetter(r) {
				letters++
			}
		}
		if 1.0-float64(letters)/float64(total) > gibberishRatio {
			flags = append(flags, FlagGibberish)
		}
	}

	return flags
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
