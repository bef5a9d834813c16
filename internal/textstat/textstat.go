// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package textstat computes readability statistics over raw text.
// Implements: prd002-enrichment R6 (readability indices).
package textstat

import (
	"fmt"
	"strings"
)

// Analyzer abstracts the readability computations so the enricher can be
// tested with deterministic fixed values.
type Analyzer interface {
	// FleschKincaidGrade estimates the U.S. school grade level needed to
	// understand the text.
	FleschKincaidGrade(text string) (float64, error)

	// GunningFog estimates the years of formal education needed to
	// understand the text on first reading.
	GunningFog(text string) (float64, error)
}

// Heuristic is the built-in Analyzer. It derives both indices from word,
// sentence, and syllable counts using a vowel-group syllable heuristic.
type Heuristic struct{}

// counts holds the text statistics both formulas share.
type counts struct {
	words     int
	sentences int
	syllables int
	complex   int // words of three or more syllables
}

// FleschKincaidGrade implements Analyzer.
// grade = 0.39*(words/sentences) + 11.8*(syllables/words) - 15.59
func (Heuristic) FleschKincaidGrade(text string) (float64, error) {
	c, err := analyze(text)
	if err != nil {
		return 0, err
	}
	return 0.39*float64(c.words)/float64(c.sentences) +
		11.8*float64(c.syllables)/float64(c.words) - 15.59, nil
}

// GunningFog implements Analyzer.
// index = 0.4*((words/sentences) + 100*(complex/words))
func (Heuristic) GunningFog(text string) (float64, error) {
	c, err := analyze(text)
	if err != nil {
		return 0, err
	}
	return 0.4 * (float64(c.words)/float64(c.sentences) +
		100*float64(c.complex)/float64(c.words)), nil
}

func analyze(text string) (counts, error) {
	fields := strings.Fields(text)
	if len(fields) == 0 {
		return counts{}, fmt.Errorf("textstat: no words in text")
	}

	c := counts{words: len(fields), sentences: sentenceCount(text)}
	for _, f := range fields {
		s := syllableCount(f)
		c.syllables += s
		if s >= 3 {
			c.complex++
		}
	}
	return c, nil
}

// sentenceCount counts runs of terminal punctuation, with a floor of one.
func sentenceCount(text string) int {
	n := 0
	inRun := false
	for _, r := range text {
		switch r {
		case '.', '!', '?':
			if !inRun {
				n++
				inRun = true
			}
		default:
			inRun = false
		}
	}
	if n == 0 {
		n = 1
	}
	return n
}

const vowels = "aeiouy"

// syllableCount approximates syllables as vowel groups, discounting a
// trailing silent e. Every word counts at least one syllable.
func syllableCount(word string) int {
	w := strings.ToLower(strings.Trim(word, ".,!?;:\"'()[]"))
	if w == "" {
		return 1
	}

	groups := 0
	prevVowel := false
	for _, r := range w {
		isVowel := strings.ContainsRune(vowels, r)
		if isVowel && !prevVowel {
			groups++
		}
		prevVowel = isVowel
	}

	if groups > 1 && strings.HasSuffix(w, "e") && !strings.HasSuffix(w, "le") {
		groups--
	}
	if groups < 1 {
		groups = 1
	}
	return groups
}
