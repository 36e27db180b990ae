// Package conflict detects and classifies disagreements between
// overlapping annotations. Classification is pure; detection scans a
// project's annotation set and dedups against already-open conflicts.
package conflict

import (
	"math"

	"concord/internal/config"
	"concord/internal/domain"
	"concord/internal/span"
)

// Candidate is a detected disagreement awaiting persistence as a
// Conflict row. The caller owns materialization.
type Candidate struct {
	Kind          domain.ConflictKind `json:"kind"`
	Severity      domain.Severity     `json:"severity"`
	Score         float64             `json:"score"`
	Confidence    float64             `json:"confidence"`
	ProjectID     string              `json:"project_id"`
	TextID        string              `json:"text_id"`
	AnnotationAID string              `json:"annotation_a_id"`
	AnnotationBID string              `json:"annotation_b_id"`
	Overlap       *span.Info          `json:"overlap,omitempty"`
}

// PairKey returns the dedup key for the candidate's unordered
// annotation pair and kind.
func (c Candidate) PairKey() string {
	return domain.PairKey(c.AnnotationAID, c.AnnotationBID) + "|" + string(c.Kind)
}

// qualityDisputeMaxGap bounds how far apart two spans may sit for a
// confidence gap to count as a quality dispute.
const qualityDisputeMaxGap = 50

// Classify compares a pair of annotations and emits zero or more
// conflict candidates. Candidates below the configured confidence
// threshold are NOT filtered here; that is the detection engine's job.
func Classify(a, b domain.Annotation, det config.Detection) []Candidate {
	var out []Candidate

	overlap, overlaps := span.Overlap(a.Start, a.End, b.Start, b.End)
	confDiff := math.Abs(a.Confidence - b.Confidence)

	if overlaps {
		ratio := overlap.Ratio()
		ov := overlap
		if ratio >= det.OverlapThreshold {
			out = append(out, Candidate{
				Kind:          domain.KindSpanOverlap,
				Severity:      severityForScore(ratio),
				Score:         ratio,
				Confidence:    math.Min(1, 2*ratio),
				ProjectID:     a.ProjectID,
				TextID:        a.TextID,
				AnnotationAID: a.ID,
				AnnotationBID: b.ID,
				Overlap:       &ov,
			})
		}
		if a.LabelID != b.LabelID {
			score := math.Min(1, ratio+0.3*confDiff)
			out = append(out, Candidate{
				Kind:          domain.KindLabelConflict,
				Severity:      severityForScore(score),
				Score:         score,
				Confidence:    math.Min(1, ratio*(1+confDiff)),
				ProjectID:     a.ProjectID,
				TextID:        a.TextID,
				AnnotationAID: a.ID,
				AnnotationBID: b.ID,
				Overlap:       &ov,
			})
		}
	}

	if confDiff >= 0.5 && span.Gap(a.Start, a.End, b.Start, b.End) <= qualityDisputeMaxGap {
		severity := domain.SeverityMedium
		if confDiff >= 0.7 {
			severity = domain.SeverityHigh
		}
		out = append(out, Candidate{
			Kind:          domain.KindQualityDispute,
			Severity:      severity,
			Score:         confDiff,
			Confidence:    confDiff,
			ProjectID:     a.ProjectID,
			TextID:        a.TextID,
			AnnotationAID: a.ID,
			AnnotationBID: b.ID,
		})
	}
	return out
}

// severityForScore bands a score in [0,1] into a severity.
func severityForScore(score float64) domain.Severity {
	switch {
	case score >= 0.8:
		return domain.SeverityCritical
	case score >= 0.5:
		return domain.SeverityHigh
	case score >= 0.3:
		return domain.SeverityMedium
	default:
		return domain.SeverityLow
	}
}
