package finding

import "math"

// Severity holds the product-native score and the score normalized to [0,100].
type Severity struct {
	Product    float64 `json:"product"`
	Normalized int32   `json:"normalized"`
}

// SeverityFunc maps an anomaly score to a finding severity.
type SeverityFunc func(anomalyScore float64) Severity

// FixedSeverity ignores the anomaly score and always returns the same severity.
// The normalized score is clamped to [0,100].
func FixedSeverity(product float64, normalized float64) SeverityFunc {
	s := Severity{Product: product, Normalized: clampNormalized(normalized)}
	return func(float64) Severity {
		return s
	}
}

// ProportionalSeverity maps scores in [0,maxScore] linearly onto [0,100].
// A non-positive maxScore falls back to 100.
func ProportionalSeverity(maxScore float64) SeverityFunc {
	if maxScore <= 0 || math.IsNaN(maxScore) || math.IsInf(maxScore, 0) {
		maxScore = 100
	}

	return func(score float64) Severity {
		return Severity{Product: score, Normalized: clampNormalized(score / maxScore * 100)}
	}
}

func clampNormalized(v float64) int32 {
	if math.IsNaN(v) || v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return int32(math.Round(v))
}
