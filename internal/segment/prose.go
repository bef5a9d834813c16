// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package segment

import (
	"fmt"
	"strings"
	"sync"

	"github.com/jdkato/prose/v2"
)

// proseDetector derives sentence end-offsets from the prose English
// sentence-segmentation model. The model data ships with the library, so
// SentenceEnds is a pure function of its input.
type proseDetector struct{}

func (proseDetector) SentenceEnds(text string) ([]int, error) {
	doc, err := prose.NewDocument(text,
		prose.WithTokenization(false),
		prose.WithTagging(false),
		prose.WithExtraction(false),
	)
	if err != nil {
		return nil, err
	}

	var ends []int
	pos := 0
	for _, sentence := range doc.Sentences() {
		// Locate each sentence in the original text so offsets account
		// for inter-sentence whitespace.
		idx := strings.Index(text[pos:], sentence.Text)
		if idx < 0 {
			idx = 0
		}
		end := pos + idx + len(sentence.Text)
		if end > len(text) {
			end = len(text)
		}
		ends = append(ends, end)
		pos = end
	}

	// Cover any trailing text so the segmenter never drops a tail span.
	if len(ends) == 0 || ends[len(ends)-1] < len(text) {
		ends = append(ends, len(text))
	}
	return ends, nil
}

// defaultDetector lazily verifies the model once per process. The load is
// write-once, read-many: concurrent first callers block on the same
// initialization and every later call reuses the cached detector.
var defaultDetector = sync.OnceValues(func() (Detector, error) {
	if _, err := prose.NewDocument("Model check.",
		prose.WithTokenization(false),
		prose.WithTagging(false),
		prose.WithExtraction(false),
	); err != nil {
		return nil, fmt.Errorf(
			"sentence model unavailable: %w (run 'go mod download github.com/jdkato/prose/v2' to restore the bundled English model data)",
			err)
	}
	return proseDetector{}, nil
})

// Default returns the process-wide prose-backed detector, verifying the
// English model on first use.
func Default() (Detector, error) {
	return defaultDetector()
}
