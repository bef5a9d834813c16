// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import (
	"encoding/json"
	"fmt"

	"go.yaml.in/yaml/v3"
)

const (
	// maxReadabilityGrade caps both readability indices. Grade levels above
	// this are clamped during enrichment before a score is constructed.
	maxReadabilityGrade = 30.0

	// highQualityThreshold is the overall score at or above which a chunk
	// counts as high quality. Per prd002-enrichment R2.4.
	highQualityThreshold = 0.75
)

// QualityScore holds the computed quality metrics and issue flags for one
// chunk. It is immutable: all fields are set through NewQualityScore (or
// WithFlags) and validated there, so any QualityScore in circulation is
// known to be in range. Per prd002-enrichment R2.1-R2.3.
type QualityScore struct {
	readabilityFleschKincaid float64
	readabilityGunningFog    float64
	ocrConfidence            float64
	completeness             float64
	coherence                float64
	overall                  float64
	flags                    []string
}

// NewQualityScore validates and constructs a QualityScore. The readability
// indices must fall within [0, 30]; ocr confidence, completeness, coherence,
// and overall must fall within [0, 1]. An out-of-range value is a caller
// bug (the enrichment pipeline clamps before construction), so the error
// names the offending field and value (R2.2).
func NewQualityScore(fleschKincaid, gunningFog, ocrConfidence, completeness, coherence, overall float64, flags []string) (QualityScore, error) {
	checks := []struct {
		field    string
		value    float64
		min, max float64
	}{
		{"readability_flesch_kincaid", fleschKincaid, 0, maxReadabilityGrade},
		{"readability_gunning_fog", gunningFog, 0, maxReadabilityGrade},
		{"ocr_confidence", ocrConfidence, 0, 1},
		{"completeness", completeness, 0, 1},
		{"coherence", coherence, 0, 1},
		{"overall", overall, 0, 1},
	}
	for _, c := range checks {
		if c.value < c.min || c.value > c.max {
			return QualityScore{}, fmt.Errorf("quality score: %s = %v outside [%g, %g]", c.field, c.value, c.min, c.max)
		}
	}

	return QualityScore{
		readabilityFleschKincaid: fleschKincaid,
		readabilityGunningFog:    gunningFog,
		ocrConfidence:            ocrConfidence,
		completeness:             completeness,
		coherence:                coherence,
		overall:                  overall,
		flags:                    append([]string(nil), flags...),
	}, nil
}

// FleschKincaid returns the Flesch-Kincaid grade level in [0, 30].
func (q QualityScore) FleschKincaid() float64 { return q.readabilityFleschKincaid }

// GunningFog returns the Gunning Fog index in [0, 30].
func (q QualityScore) GunningFog() float64 { return q.readabilityGunningFog }

// OCRConfidence returns the upstream OCR confidence in [0, 1].
func (q QualityScore) OCRConfidence() float64 { return q.ocrConfidence }

// Completeness returns the upstream extraction completeness in [0, 1].
func (q QualityScore) Completeness() float64 { return q.completeness }

// Coherence returns the sentence-to-sentence coherence in [0, 1].
func (q QualityScore) Coherence() float64 { return q.coherence }

// Overall returns the weighted composite score in [0, 1].
func (q QualityScore) Overall() float64 { return q.overall }

// Flags returns a copy of the detected issue codes, in detection order.
func (q QualityScore) Flags() []string {
	out := make([]string, len(q.flags))
	copy(out, q.flags)
	return out
}

// IsHighQuality reports whether the overall score meets the high-quality
// threshold (R2.4).
func (q QualityScore) IsHighQuality() bool {
	return q.overall >= highQualityThreshold
}

// WithFlags returns a copy of the score carrying the given flags. The
// receiver is unchanged; callers holding the flag-less instance never see
// the flags appear. Numeric fields were validated at construction, so no
// revalidation happens here.
func (q QualityScore) WithFlags(flags []string) QualityScore {
	out := q
	out.flags = append([]string(nil), flags...)
	return out
}

// Map returns a plain, JSON-serializable mapping of all seven fields,
// suitable for manifest and report writers.
func (q QualityScore) Map() map[string]any {
	return map[string]any{
		"readability_flesch_kincaid": q.readabilityFleschKincaid,
		"readability_gunning_fog":    q.readabilityGunningFog,
		"ocr_confidence":             q.ocrConfidence,
		"completeness":               q.completeness,
		"coherence":                  q.coherence,
		"overall":                    q.overall,
		"flags":                      q.Flags(),
	}
}

// qualityScoreWire is the serialized form shared by JSON and YAML codecs.
// Decoding goes back through NewQualityScore so persisted artifacts are
// revalidated on load.
type qualityScoreWire struct {
	ReadabilityFleschKincaid float64  `json:"readability_flesch_kincaid" yaml:"readability_flesch_kincaid"`
	ReadabilityGunningFog    float64  `json:"readability_gunning_fog" yaml:"readability_gunning_fog"`
	OCRConfidence            float64  `json:"ocr_confidence" yaml:"ocr_confidence"`
	Completeness             float64  `json:"completeness" yaml:"completeness"`
	Coherence                float64  `json:"coherence" yaml:"coherence"`
	Overall                  float64  `json:"overall" yaml:"overall"`
	Flags                    []string `json:"flags" yaml:"flags"`
}

func (q QualityScore) wire() qualityScoreWire {
	return qualityScoreWire{
		ReadabilityFleschKincaid: q.readabilityFleschKincaid,
		ReadabilityGunningFog:    q.readabilityGunningFog,
		OCRConfidence:            q.ocrConfidence,
		Completeness:             q.completeness,
		Coherence:                q.coherence,
		Overall:                  q.overall,
		Flags:                    q.Flags(),
	}
}

func fromWire(w qualityScoreWire) (QualityScore, error) {
	return NewQualityScore(
		w.ReadabilityFleschKincaid, w.ReadabilityGunningFog,
		w.OCRConfidence, w.Completeness, w.Coherence, w.Overall, w.Flags,
	)
}

// MarshalJSON implements json.Marshaler.
func (q QualityScore) MarshalJSON() ([]byte, error) {
	return json.Marshal(q.wire())
}

// UnmarshalJSON implements json.Unmarshaler, validating ranges on decode.
func (q *QualityScore) UnmarshalJSON(data []byte) error {
	var w qualityScoreWire
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	score, err := fromWire(w)
	if err != nil {
		return err
	}
	*q = score
	return nil
}

// MarshalYAML implements yaml.Marshaler.
func (q QualityScore) MarshalYAML() (any, error) {
	return q.wire(), nil
}

// UnmarshalYAML implements yaml.Unmarshaler, validating ranges on decode.
func (q *QualityScore) UnmarshalYAML(value *yaml.Node) error {
	var w qualityScoreWire
	if err := value.Decode(&w); err != nil {
		return err
	}
	score, err := fromWire(w)
	if err != nil {
		return err
	}
	*q = score
	return nil
}
