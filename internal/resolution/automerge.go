package resolution

import (
	"fmt"
	"math"

	"concord/internal/domain"
)

// labelConflictDiscount records the unresolved disagreement when a
// label conflict is settled by picking the higher-confidence side.
const labelConflictDiscount = 0.9

// autoMergeEligible gates automatic merging to low-scoring conflicts
// between annotations of comparable confidence.
func autoMergeEligible(rctx Context) bool {
	if !rctx.Settings.AutoMergeEnabled {
		return false
	}
	if rctx.Conflict.Score > 0.5 {
		return false
	}
	confDiff := math.Abs(rctx.AnnotationA.Confidence - rctx.AnnotationB.Confidence)
	if confDiff > 0.3 {
		return false
	}
	switch rctx.Conflict.Kind {
	case domain.KindSpanOverlap, domain.KindLabelConflict:
		return true
	}
	return false
}

func resolveAutoMerge(rctx Context) Result {
	result, err := mergeAnnotations(rctx)
	if err != nil {
		return Result{
			Status:   Failed,
			Strategy: StrategyAutoMerge,
			Reason:   ReasonInternal,
			Errors:   []string{err.Error()},
		}
	}
	result.Strategy = StrategyAutoMerge
	return result
}

// mergeAnnotations applies the merge logic shared by AutoMerge and a
// winning Merge vote. Span overlaps merge to the union span with the
// higher-confidence label and averaged confidence; label conflicts
// keep the higher-confidence annotation with a 10% confidence
// discount, as does any other kind.
func mergeAnnotations(rctx Context) (Result, error) {
	a, b := rctx.AnnotationA, rctx.AnnotationB

	if rctx.Conflict.Kind == domain.KindSpanOverlap {
		winner := higherConfidence(a, b)
		if winner.LabelID == "" {
			return Result{}, fmt.Errorf("annotation %s has no label", winner.ID)
		}
		merged := &MergedAnnotation{
			Start:      min(a.Start, b.Start),
			End:        max(a.End, b.End),
			LabelID:    winner.LabelID,
			Confidence: (a.Confidence + b.Confidence) / 2,
		}
		return Result{
			Status:      Succeeded,
			Outcome:     OutcomeMerged,
			Merged:      merged,
			Confidence:  merged.Confidence,
			Description: fmt.Sprintf("merged spans [%d,%d) and [%d,%d) into [%d,%d)", a.Start, a.End, b.Start, b.End, merged.Start, merged.End),
		}, nil
	}

	winner := higherConfidence(a, b)
	if winner.LabelID == "" {
		return Result{}, fmt.Errorf("annotation %s has no label", winner.ID)
	}
	outcome := OutcomeAcceptA
	if winner.ID == b.ID {
		outcome = OutcomeAcceptB
	}
	return Result{
		Status:            Succeeded,
		Outcome:           outcome,
		FinalAnnotationID: winner.ID,
		Confidence:        winner.Confidence * labelConflictDiscount,
		Description:       fmt.Sprintf("kept higher-confidence annotation %s (label %s)", winner.ID, winner.LabelID),
	}, nil
}

func higherConfidence(a, b domain.Annotation) domain.Annotation {
	if b.Confidence > a.Confidence {
		return b
	}
	return a
}
