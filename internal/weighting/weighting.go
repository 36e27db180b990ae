// Package weighting derives per-annotator reliability multipliers from
// historical agreement scores. Weighted voting multiplies each vote by
// the voter's multiplier.
package weighting

const (
	// floorWeight is the minimum multiplier for an annotator with
	// history, so chronic disagreement never fully silences a vote.
	floorWeight = 0.1
	// newAnnotatorWeight applies when there is no history at all.
	newAnnotatorWeight = 0.5
)

// ForAnnotator returns the reliability multiplier for an annotator
// given their historical kappa coefficients. With history the weight
// is the average kappa floored at 0.1; without it a flat new-annotator
// penalty applies.
func ForAnnotator(kappaHistory []float64) float64 {
	if len(kappaHistory) == 0 {
		return newAnnotatorWeight
	}
	var sum float64
	for _, k := range kappaHistory {
		sum += k
	}
	avg := sum / float64(len(kappaHistory))
	if avg < floorWeight {
		return floorWeight
	}
	return avg
}
