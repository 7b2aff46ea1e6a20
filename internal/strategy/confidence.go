package strategy

import (
	"github.com/shopspring/decimal"

	"claws/internal/types"
)

// Confidence applies the shared scoring formula: base 0.55 plus the
// evaluator's bonuses, clamped to [0, 0.80]. Bonuses are capped per
// evaluator so their sum stays within 0.25; the clamp holds regardless.
func Confidence(bonuses ...float64) float64 {
	score := decimal.NewFromFloat(types.ConfidenceBase)
	for _, b := range bonuses {
		score = score.Add(decimal.NewFromFloat(b))
	}
	return Clamp(score.InexactFloat64())
}

// Clamp bounds an arbitrary confidence to [0, MaxConfidence]. The
// lifecycle manager applies it again on ingestion so no evaluator,
// however buggy, publishes a confidence above the ceiling.
func Clamp(confidence float64) float64 {
	if confidence < 0 {
		return 0
	}
	if confidence > types.MaxConfidence {
		return types.MaxConfidence
	}
	return confidence
}

// bonus caps a single additive component at limit.
func bonus(v, limit float64) float64 {
	if v < 0 {
		return 0
	}
	if v > limit {
		return limit
	}
	return v
}
