package scoring

import (
	"fmt"

	"github.com/vijay-prabhu/bursary-matcher/internal/config"
)

// Quality is the ordered strength of a match
type Quality int

const (
	QualityNone Quality = iota // not a match
	QualityFair
	QualityGood
	QualityVeryGood
	QualityExcellent
)

var qualityLabels = map[Quality]string{
	QualityNone:      "No Match",
	QualityFair:      "Fair Match",
	QualityGood:      "Good Match",
	QualityVeryGood:  "Very Good Match",
	QualityExcellent: "Excellent Match",
}

// String returns the label shown to users and stored with matches
func (q Quality) String() string {
	if label, ok := qualityLabels[q]; ok {
		return label
	}
	return fmt.Sprintf("Quality(%d)", int(q))
}

// MarshalText encodes the quality as its label
func (q Quality) MarshalText() ([]byte, error) {
	return []byte(q.String()), nil
}

// UnmarshalText decodes a label produced by MarshalText
func (q *Quality) UnmarshalText(text []byte) error {
	parsed, ok := ParseQuality(string(text))
	if !ok {
		return fmt.Errorf("unknown match quality: %q", string(text))
	}
	*q = parsed
	return nil
}

// ParseQuality maps a stored label back to its Quality
func ParseQuality(label string) (Quality, bool) {
	for q, l := range qualityLabels {
		if l == label {
			return q, true
		}
	}
	return QualityNone, false
}

// KeywordQuality classifies a keyword score. Every score gets a tier; the
// minimum-score threshold is applied separately by the caller.
func KeywordQuality(score int, tiers config.KeywordTiers) Quality {
	switch {
	case score >= tiers.Excellent:
		return QualityExcellent
	case score >= tiers.VeryGood:
		return QualityVeryGood
	case score >= tiers.Good:
		return QualityGood
	default:
		return QualityFair
	}
}

// SemanticQuality classifies a cosine similarity. Similarity below the
// minimum threshold is not a match at all and yields QualityNone.
func SemanticQuality(similarity float64, th config.SemanticThresholds) Quality {
	switch {
	case similarity >= th.Excellent:
		return QualityExcellent
	case similarity >= th.VeryGood:
		return QualityVeryGood
	case similarity >= th.Minimum:
		return QualityGood
	default:
		return QualityNone
	}
}
