// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package enrich

import "strings"

// stopWords are common English function words excluded from the overlap
// measure (R5.2).
var stopWords = map[string]struct{}{
	"the": {}, "a": {}, "an": {}, "and": {}, "or": {}, "but": {},
	"in": {}, "on": {}, "at": {}, "to": {}, "for": {}, "of": {},
	"as": {}, "by": {}, "is": {}, "be": {}, "are": {}, "was": {},
	"were": {}, "been": {}, "being": {}, "this": {}, "that": {},
	"these": {}, "those": {},
}

// tokenPunct is stripped from both ends of each token before matching.
const tokenPunct = ".,!?;:"

// rootPrefixLen is the shared-prefix length treated as a common word root.
// A crude stemming stand-in: it rewards morphological variants such as
// "risk"/"risks" or "assess"/"assessment", at the cost of occasionally
// matching unrelated short words. The behavior is load-bearing for score
// stability, so it stays as is until a TF-IDF measure replaces it.
const rootPrefixLen = 3

// coherence measures sentence-to-sentence lexical continuity as the mean
// bidirectional word-set coverage over adjacent sentence pairs (R5.1-R5.6).
// Empty text scores 0; a single sentence scores 1. Segmentation failures
// fall back to a naive split on periods — only here, not in the segmenter
// itself.
func (e *Enricher) coherence(text string) float64 {
	if strings.TrimSpace(text) == "" {
		return 0
	}

	sentences, err := e.segmenter.Segment(text)
	if err != nil {
		sentences = naiveSplit(text)
	}
	if len(sentences) <= 1 {
		return 1
	}

	var overlaps []float64
	for i := 0; i+1 < len(sentences); i++ {
		first := contentWords(sentences[i])
		second := contentWords(sentences[i+1])
		// Pairs with no content words on either side are omitted from
		// the average, not scored as zero.
		if len(first) == 0 || len(second) == 0 {
			continue
		}
		overlaps = append(overlaps, pairOverlap(first, second))
	}

	if len(overlaps) == 0 {
		return 0
	}
	sum := 0.0
	for _, o := range overlaps {
		sum += o
	}
	return clamp(sum/float64(len(overlaps)), 0, 1)
}

// pairOverlap scores one adjacent sentence pair: exact word-set
// intersection plus root matches, averaged over both sentences' coverage.
// Symmetric bidirectional coverage, not Jaccard.
func pairOverlap(first, second map[string]struct{}) float64 {
	shared := 0
	for w := range first {
		if _, ok := second[w]; ok {
			shared++
		}
	}

	// Root matches: words of the first sentence outside the exact
	// intersection count once if any second-sentence word shares their
	// first three characters (both at least three characters long).
	rootMatches := 0
	for w := range first {
		if _, ok := second[w]; ok {
			continue
		}
		wr := []rune(w)
		if len(wr) < rootPrefixLen {
			continue
		}
		for other := range second {
			or := []rune(other)
			if len(or) >= rootPrefixLen && string(or[:rootPrefixLen]) == string(wr[:rootPrefixLen]) {
				rootMatches++
				break
			}
		}
	}

	effective := shared + rootMatches
	if effective == 0 {
		return 0
	}
	return (float64(effective)/float64(len(first)) +
		float64(effective)/float64(len(second))) / 2
}

// contentWords tokenizes a sentence into its set of lowercased,
// punctuation-stripped, non-stop words. Duplicates collapse.
func contentWords(sentence string) map[string]struct{} {
	words := make(map[string]struct{})
	for _, token := range strings.Fields(sentence) {
		w := strings.ToLower(strings.Trim(token, tokenPunct))
		if w == "" {
			continue
		}
		if _, stop := stopWords[w]; stop {
			continue
		}
		words[w] = struct{}{}
	}
	return words
}

// naiveSplit is the coherence fallback when boundary detection fails:
// split on literal periods, trim, drop empties.
func naiveSplit(text string) []string {
	var sentences []string
	for _, part := range strings.Split(text, ".") {
		if s := strings.TrimSpace(part); s != "" {
			sentences = append(sentences, s)
		}
	}
	return sentences
}
