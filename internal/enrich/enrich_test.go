package enrich

import (
	"errors"
	"math"
	"reflect"
	"strings"
	"testing"

	"github.com/pdiddy/chunk-engine/internal/segment"
	"github.com/pdiddy/chunk-engine/internal/textstat"
	"github.com/pdiddy/chunk-engine/pkg/types"
)

// --- test doubles ---

// fixedAnalyzer returns canned readability values.
type fixedAnalyzer struct {
	fleschKincaid float64
	gunningFog    float64
	err           error
}

func (f fixedAnalyzer) FleschKincaidGrade(string) (float64, error) {
	return f.fleschKincaid, f.err
}

func (f fixedAnalyzer) GunningFog(string) (float64, error) {
	return f.gunningFog, f.err
}

// punctDetector reports a boundary after each terminal punctuation rune,
// standing in for the real model.
type punctDetector struct{}

func (punctDetector) SentenceEnds(text string) ([]int, error) {
	var ends []int
	for i, r := range text {
		if r == '.' || r == '!' || r == '?' {
			ends = append(ends, i+1)
		}
	}
	ends = append(ends, len(text))
	return ends, nil
}

// failingDetector simulates a broken boundary model.
type failingDetector struct{}

func (failingDetector) SentenceEnds(string) ([]int, error) {
	return nil, errors.New("model unavailable")
}

func testEnricher(stats textstat.Analyzer) *Enricher {
	return New(stats, segment.New(punctDetector{}))
}

func defaultSource() types.SourceMetadata {
	return types.DefaultSourceMetadata()
}

// --- scenarios ---

func TestEnrichChunkSingleSentence(t *testing.T) {
	e := testEnricher(textstat.Heuristic{})
	chunk := types.Chunk{ID: "c1", DocumentID: "d1", Text: "Hello."}

	got, err := e.EnrichChunk(chunk, defaultSource())
	if err != nil {
		t.Fatalf("EnrichChunk: %v", err)
	}

	q := got.Metadata.Quality
	if q.Coherence() != 1.0 {
		t.Errorf("coherence = %v, want 1.0 for a single sentence", q.Coherence())
	}
	if flags := q.Flags(); len(flags) != 0 {
		t.Errorf("flags = %v, want none", flags)
	}
	if q.Overall() < 0.9 {
		t.Errorf("overall = %v, want >= 0.9", q.Overall())
	}
	if !q.IsHighQuality() {
		t.Error("expected high quality")
	}
}

func TestEnrichChunkEmptyText(t *testing.T) {
	e := testEnricher(textstat.Heuristic{})
	chunk := types.Chunk{ID: "c1", DocumentID: "d1", Text: ""}

	got, err := e.EnrichChunk(chunk, defaultSource())
	if err != nil {
		t.Fatalf("EnrichChunk: %v", err)
	}

	q := got.Metadata.Quality
	if q.FleschKincaid() != 0 || q.GunningFog() != 0 {
		t.Errorf("readability = (%v, %v), want (0, 0)", q.FleschKincaid(), q.GunningFog())
	}
	if q.Coherence() != 0 {
		t.Errorf("coherence = %v, want 0", q.Coherence())
	}
	if got.WordCount != 0 || got.TokenCount != 0 {
		t.Errorf("counts = (%d, %d), want (0, 0)", got.WordCount, got.TokenCount)
	}
}

func TestEnrichChunkLowOCRFlag(t *testing.T) {
	e := testEnricher(fixedAnalyzer{fleschKincaid: 8, gunningFog: 10})
	chunk := types.Chunk{ID: "c1", Text: "Normal text about ordinary things."}
	src := types.SourceMetadata{OCRConfidence: 0.80, Completeness: 0.95}

	got, err := e.EnrichChunk(chunk, src)
	if err != nil {
		t.Fatalf("EnrichChunk: %v", err)
	}

	flags := got.Metadata.Quality.Flags()
	if !contains(flags, FlagLowOCR) {
		t.Errorf("flags = %v, want %s present", flags, FlagLowOCR)
	}
	if contains(flags, FlagIncompleteExtraction) {
		t.Errorf("flags = %v, %s must not trigger at 0.95", flags, FlagIncompleteExtraction)
	}
}

func TestEnrichChunkGibberishFlag(t *testing.T) {
	e := testEnricher(fixedAnalyzer{fleschKincaid: 5, gunningFog: 5})
	// 8 non-letter runes of 14 total, well past the 0.30 ratio.
	chunk := types.Chunk{ID: "c1", Text: "ab12 cd34 ef56"}

	got, err := e.EnrichChunk(chunk, defaultSource())
	if err != nil {
		t.Fatalf("EnrichChunk: %v", err)
	}

	if flags := got.Metadata.Quality.Flags(); !contains(flags, FlagGibberish) {
		t.Errorf("flags = %v, want %s present", flags, FlagGibberish)
	}
}

func TestFlagBoundariesAreStrict(t *testing.T) {
	e := testEnricher(fixedAnalyzer{fleschKincaid: 15.0, gunningFog: 10})
	// 3 non-letter runes of 10 total: ratio exactly 0.30.
	chunk := types.Chunk{ID: "c1", Text: "abcdefg 12"}
	src := types.SourceMetadata{OCRConfidence: 0.95, Completeness: 0.90}

	got, err := e.EnrichChunk(chunk, src)
	if err != nil {
		t.Fatalf("EnrichChunk: %v", err)
	}

	if flags := got.Metadata.Quality.Flags(); len(flags) != 0 {
		t.Errorf("flags = %v, want none: every threshold comparison is strict", flags)
	}
}

func TestFlagOrder(t *testing.T) {
	e := testEnricher(fixedAnalyzer{fleschKincaid: 20, gunningFog: 22})
	chunk := types.Chunk{ID: "c1", Text: "ab12 cd34 ef56"}
	src := types.SourceMetadata{OCRConfidence: 0.5, Completeness: 0.5}

	got, err := e.EnrichChunk(chunk, src)
	if err != nil {
		t.Fatalf("EnrichChunk: %v", err)
	}

	want := []string{FlagLowOCR, FlagIncompleteExtraction, FlagHighComplexity, FlagGibberish}
	if flags := got.Metadata.Quality.Flags(); !reflect.DeepEqual(flags, want) {
		t.Errorf("flags = %v, want %v", flags, want)
	}
}

func TestOverallWeighting(t *testing.T) {
	e := testEnricher(fixedAnalyzer{fleschKincaid: 10, gunningFog: 12})
	chunk := types.Chunk{ID: "c1", Text: "Solar panels convert sunlight. Solar cells use sunlight daily."}
	src := types.SourceMetadata{OCRConfidence: 0.9, Completeness: 0.8}

	got, err := e.EnrichChunk(chunk, src)
	if err != nil {
		t.Fatalf("EnrichChunk: %v", err)
	}

	q := got.Metadata.Quality
	want := 0.4*0.9 + 0.3*0.8 + 0.2*q.Coherence() + 0.1*(1.0-10.0/20.0)
	if math.Abs(q.Overall()-want) > 1e-9 {
		t.Errorf("overall = %v, want %v", q.Overall(), want)
	}
}

func TestReadabilityClamped(t *testing.T) {
	e := testEnricher(fixedAnalyzer{fleschKincaid: 45, gunningFog: -3})
	chunk := types.Chunk{ID: "c1", Text: "Some text here."}

	got, err := e.EnrichChunk(chunk, defaultSource())
	if err != nil {
		t.Fatalf("EnrichChunk: %v", err)
	}

	q := got.Metadata.Quality
	if q.FleschKincaid() != 30 {
		t.Errorf("flesch kincaid = %v, want clamped to 30", q.FleschKincaid())
	}
	if q.GunningFog() != 0 {
		t.Errorf("gunning fog = %v, want clamped to 0", q.GunningFog())
	}
	if flags := q.Flags(); !contains(flags, FlagHighComplexity) {
		t.Errorf("flags = %v, want %s after clamping", flags, FlagHighComplexity)
	}
}

func TestReadabilityFallbackOnAnalyzerError(t *testing.T) {
	e := testEnricher(fixedAnalyzer{err: errors.New("degenerate input")})
	chunk := types.Chunk{ID: "c1", Text: "x"}

	got, err := e.EnrichChunk(chunk, defaultSource())
	if err != nil {
		t.Fatalf("analyzer failure must not propagate: %v", err)
	}

	q := got.Metadata.Quality
	if q.FleschKincaid() != 0 || q.GunningFog() != 0 {
		t.Errorf("readability = (%v, %v), want (0, 0) fallback", q.FleschKincaid(), q.GunningFog())
	}
}

func TestEnrichChunkDoesNotMutateInput(t *testing.T) {
	e := testEnricher(textstat.Heuristic{})
	chunk := types.Chunk{
		ID:         "c1",
		DocumentID: "d1",
		Text:       "Original text here.",
		Metadata: &types.ChunkMetadata{
			EntityTags:     []string{"solar"},
			SectionContext: "Introduction",
			SourceMetadata: map[string]any{"page": 3},
		},
	}
	before := *chunk.Metadata

	got, err := e.EnrichChunk(chunk, defaultSource())
	if err != nil {
		t.Fatalf("EnrichChunk: %v", err)
	}

	if !reflect.DeepEqual(*chunk.Metadata, before) {
		t.Errorf("input metadata mutated: %+v", *chunk.Metadata)
	}
	if got.Metadata == chunk.Metadata {
		t.Error("output shares the input metadata record")
	}
	if got.Metadata.SectionContext != "Introduction" {
		t.Errorf("section context not carried forward: %q", got.Metadata.SectionContext)
	}
	if !reflect.DeepEqual(got.Metadata.EntityTags, []string{"solar"}) {
		t.Errorf("entity tags not carried forward: %v", got.Metadata.EntityTags)
	}

	// The copied source metadata map must be independent of the input's.
	got.Metadata.SourceMetadata["page"] = 99
	if chunk.Metadata.SourceMetadata["page"] != 3 {
		t.Error("output source metadata aliases the input map")
	}
}

func TestEnrichChunkIdempotent(t *testing.T) {
	e := testEnricher(textstat.Heuristic{})
	chunk := types.Chunk{ID: "c1", Text: "Solar output grows. Solar capacity grows faster."}
	src := types.SourceMetadata{OCRConfidence: 0.92, Completeness: 0.97}

	first, err := e.EnrichChunk(chunk, src)
	if err != nil {
		t.Fatalf("first EnrichChunk: %v", err)
	}
	second, err := e.EnrichChunk(chunk, src)
	if err != nil {
		t.Fatalf("second EnrichChunk: %v", err)
	}

	q1, q2 := first.Metadata.Quality, second.Metadata.Quality
	if q1.FleschKincaid() != q2.FleschKincaid() ||
		q1.GunningFog() != q2.GunningFog() ||
		q1.Coherence() != q2.Coherence() ||
		q1.Overall() != q2.Overall() ||
		!reflect.DeepEqual(q1.Flags(), q2.Flags()) {
		t.Errorf("repeated enrichment diverged: %+v vs %+v", q1.Map(), q2.Map())
	}
}

func TestWordTokenCounts(t *testing.T) {
	tests := []struct {
		text       string
		wantWords  int
		wantTokens int
	}{
		{"", 0, 0},
		{"   ", 0, 0},
		{"hello world", 2, 2},    // 11 runes / 4
		{"héllo", 1, 1},          // runes, not bytes: 5 / 4
		{"a b c d e f g h", 8, 3}, // 15 runes / 4
	}
	for _, tt := range tests {
		words, tokens := wordTokenCounts(tt.text)
		if words != tt.wantWords || tokens != tt.wantTokens {
			t.Errorf("wordTokenCounts(%q) = (%d, %d), want (%d, %d)",
				tt.text, words, tokens, tt.wantWords, tt.wantTokens)
		}
	}
}

func TestEnrichChunkSetsBookkeeping(t *testing.T) {
	e := testEnricher(textstat.Heuristic{})
	chunk := types.Chunk{ID: "c1", Text: "Some text."}
	src := types.SourceMetadata{
		OCRConfidence: 1.0,
		Completeness:  1.0,
		SourceHash:    "abc123",
		DocumentType:  "report",
	}

	got, err := e.EnrichChunk(chunk, src)
	if err != nil {
		t.Fatalf("EnrichChunk: %v", err)
	}

	m := got.Metadata
	if m.SourceHash != "abc123" || m.DocumentType != "report" {
		t.Errorf("source fields not propagated: hash=%q type=%q", m.SourceHash, m.DocumentType)
	}
	if m.ProcessingVersion != ProcessingVersion {
		t.Errorf("processing version = %q, want %q", m.ProcessingVersion, ProcessingVersion)
	}
	if m.CreatedAt.IsZero() {
		t.Error("created at not set")
	}
	if !strings.EqualFold(m.CreatedAt.Location().String(), "UTC") {
		t.Errorf("created at not UTC: %v", m.CreatedAt.Location())
	}
	if m.WordCount != got.WordCount || m.TokenCount != got.TokenCount {
		t.Errorf("metadata counts (%d, %d) disagree with chunk counts (%d, %d)",
			m.WordCount, m.TokenCount, got.WordCount, got.TokenCount)
	}
}

func contains(list []string, want string) bool {
	for _, s := range list {
		if s == want {
			return true
		}
	}
	return false
}
