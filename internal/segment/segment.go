// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package segment splits raw text into ordered sentence strings using a
// sentence-boundary-detection model.
// Implements: prd002-enrichment R5 (sentence segmentation).
package segment

import (
	"fmt"
	"strings"
)

// Detector reports sentence boundaries as ascending byte end-offsets into
// the text. Implementations must be safe for concurrent use; tests supply
// stubs so no model is loaded.
type Detector interface {
	SentenceEnds(text string) ([]int, error)
}

// Segmenter converts text into trimmed, non-empty sentence strings.
type Segmenter struct {
	detector Detector
}

// New returns a Segmenter backed by the given detector.
func New(detector Detector) *Segmenter {
	return &Segmenter{detector: detector}
}

// Segment splits text into sentences in original order. Empty or
// whitespace-only text yields no sentences and no error; the detector is
// never consulted for it. Detector failures propagate to the caller.
func (s *Segmenter) Segment(text string) ([]string, error) {
	if strings.TrimSpace(text) == "" {
		return nil, nil
	}

	ends, err := s.detector.SentenceEnds(text)
	if err != nil {
		return nil, fmt.Errorf("detecting sentence boundaries: %w", err)
	}

	var sentences []string
	prev := 0
	for _, end := range ends {
		if end > len(text) {
			end = len(text)
		}
		if end <= prev {
			continue
		}
		if sentence := strings.TrimSpace(text[prev:end]); sentence != "" {
			sentences = append(sentences, sentence)
		}
		prev = end
	}
	return sentences, nil
}
