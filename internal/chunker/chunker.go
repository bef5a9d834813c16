// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package chunker splits converted document Markdown into bounded chunks
// suitable for retrieval.
// Implements: prd001-splitting (R1-R3); docs/ARCHITECTURE § Splitting.
package chunker

import (
	"crypto/sha256"
	"fmt"
	"strconv"
	"strings"

	"github.com/pdiddy/chunk-engine/internal/segment"
	"github.com/pdiddy/chunk-engine/pkg/types"
)

const (
	// DefaultMaxChunkWords caps the words packed into one chunk.
	DefaultMaxChunkWords = 200

	// DefaultOverlapSentences is the number of trailing sentences carried
	// into the next chunk for context continuity.
	DefaultOverlapSentences = 1
)

// Splitter packs section sentences into word-bounded chunks.
type Splitter struct {
	segmenter        *segment.Segmenter
	maxChunkWords    int
	overlapSentences int
}

// New returns a Splitter. Non-positive maxChunkWords or negative
// overlapSentences fall back to the defaults.
func New(segmenter *segment.Segmenter, maxChunkWords, overlapSentences int) *Splitter {
	if maxChunkWords <= 0 {
		maxChunkWords = DefaultMaxChunkWords
	}
	if overlapSentences < 0 {
		overlapSentences = DefaultOverlapSentences
	}
	return &Splitter{
		segmenter:        segmenter,
		maxChunkWords:    maxChunkWords,
		overlapSentences: overlapSentences,
	}
}

// Split divides a document's Markdown into chunks. Sections are delimited
// by ## and ### headings (page markers are stripped); each section's
// sentences are packed into chunks of at most maxChunkWords words, with
// overlapSentences carried across chunk boundaries (R1.2, R1.3). Chunk IDs
// are stable across re-splits of unchanged content (R2.3).
func (s *Splitter) Split(docID, content string) []types.Chunk {
	var chunks []types.Chunk
	position := 0

	for _, sec := range splitSections(content) {
		if strings.TrimSpace(sec.body) == "" {
			continue
		}

		sentences, err := s.segmenter.Segment(sec.body)
		if err != nil || len(sentences) == 0 {
			sentences = fallbackSentences(sec.body)
		}
		if len(sentences) == 0 {
			continue
		}

		flush := func(group []string) {
			text := strings.Join(group, " ")
			chunks = append(chunks, types.Chunk{
				ID:         stableID(docID, position, text),
				DocumentID: docID,
				Text:       text,
				Position:   position,
				Metadata:   &types.ChunkMetadata{SectionContext: sec.heading},
			})
			position++
		}

		var group []string
		groupWords := 0
		for _, sentence := range sentences {
			words := len(strings.Fields(sentence))
			if groupWords > 0 && groupWords+words > s.maxChunkWords {
				flush(group)
				group = tail(group, s.overlapSentences)
				groupWords = 0
				for _, kept := range group {
					groupWords += len(strings.Fields(kept))
				}
			}
			group = append(group, sentence)
			groupWords += words
		}
		if len(group) > 0 {
			flush(group)
		}
	}

	return chunks
}

// section is a span of Markdown under one heading.
type section struct {
	heading string
	body    string
}

// splitSections divides Markdown into sections on ## and ### headings.
// Page markers (<!-- page N -->) are stripped; preamble before the first
// heading becomes a section with an empty heading.
func splitSections(content string) []section {
	lines := strings.Split(content, "\n")
	var sections []section
	currentHeading := ""
	var bodyLines []string

	flush := func() {
		body := strings.Join(bodyLines, "\n")
		if currentHeading != "" || strings.TrimSpace(body) != "" {
			sections = append(sections, section{heading: currentHeading, body: body})
		}
		bodyLines = nil
	}

	for _, line := range lines {
		trimmed := strings.TrimSpace(line)

		if strings.HasPrefix(trimmed, "<!-- page ") && strings.HasSuffix(trimmed, " -->") {
			continue
		}

		if strings.HasPrefix(trimmed, "## ") || strings.HasPrefix(trimmed, "### ") {
			flush()
			currentHeading = strings.TrimSpace(strings.TrimLeft(trimmed, "#"))
			continue
		}

		bodyLines = append(bodyLines, line)
	}

	flush()
	return sections
}

// fallbackSentences splits on terminal punctuation when boundary detection
// is unavailable, keeping any unterminated trailing text.
func fallbackSentences(body string) []string {
	var sentences []string
	start := 0
	for i, r := range body {
		if r == '.' || r == '!' || r == '?' {
			if s := strings.TrimSpace(body[start : i+1]); s != "" {
				sentences = append(sentences, s)
			}
			start = i + 1
		}
	}
	if s := strings.TrimSpace(body[start:]); s != "" {
		sentences = append(sentences, s)
	}
	return sentences
}

// tail returns the last n elements of group as a fresh slice.
func tail(group []string, n int) []string {
	if n <= 0 || len(group) == 0 {
		return nil
	}
	if n > len(group) {
		n = len(group)
	}
	return append([]string(nil), group[len(group)-n:]...)
}

// stableID generates a deterministic chunk ID from document ID, position,
// and text: the first 12 hex characters of their SHA-256.
func stableID(docID string, position int, text string) string {
	h := sha256.New()
	h.Write([]byte(docID))
	h.Write([]byte(strconv.Itoa(position)))
	h.Write([]byte(text))
	return fmt.Sprintf("%x", h.Sum(nil))[:12]
}
