// Package score combines the three confidence signals into the Unified
// Confidence Score and maps it to a terminal status.
package score

import "github.com/tomide-ade/docuverify/constants"

// Fixed weights; they sum to 1.0 so the composite stays in [0,1].
const (
	WeightAI      = 0.4
	WeightQuality = 0.2
	WeightLogic   = 0.4

	SuccessThreshold = 0.9
	ReviewThreshold  = 0.7
)

// Unified computes the weighted composite of AI confidence, image quality,
// and logic score. Inputs are clamped into [0,1] first.
func Unified(aiConfidence, qualityScore, logicScore float64) float64 {
	return WeightAI*clamp01(aiConfidence) +
		WeightQuality*clamp01(qualityScore) +
		WeightLogic*clamp01(logicScore)
}

// StatusFor classifies a unified score into its disposition.
func StatusFor(score float64) constants.Status {
	switch {
	case score >= SuccessThreshold:
		return constants.StatusSuccess
	case score >= ReviewThreshold:
		return constants.StatusManualReview
	default:
		return constants.StatusRetryUpload
	}
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
