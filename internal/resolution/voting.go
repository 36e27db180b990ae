package resolution

import (
	"fmt"

	"concord/internal/domain"
	"concord/internal/weighting"
)

// plainWeights uses each vote's stated weight, defaulting to 1.0.
func plainWeights(votes []domain.Vote) map[string]float64 {
	weights := make(map[string]float64, len(votes))
	for _, v := range votes {
		w := v.Weight
		if w <= 0 {
			w = 1.0
		}
		weights[v.VoterID] = w
	}
	return weights
}

// performanceWeights multiplies each vote's weight by the voter's
// reliability multiplier from kappa history, and by the voter's stated
// confidence when present.
func performanceWeights(rctx Context) map[string]float64 {
	weights := plainWeights(rctx.Votes)
	for _, v := range rctx.Votes {
		w := weights[v.VoterID]
		w *= weighting.ForAnnotator(rctx.KappaHistory[v.VoterID])
		if v.Confidence != nil {
			w *= *v.Confidence
		}
		weights[v.VoterID] = w
	}
	return weights
}

// resolveVoting tallies weighted vote mass per choice and accepts the
// winner when its share of the total mass reaches the voting
// threshold. A tied maximum fails: there is no winner to apply.
func resolveVoting(rctx Context, strategy Strategy, weights map[string]float64) Result {
	tally := map[domain.VoteChoice]float64{}
	var total float64
	for _, v := range rctx.Votes {
		w := weights[v.VoterID]
		tally[v.Choice] += w
		total += w
	}
	if total <= 0 {
		return Result{
			Status:   Failed,
			Strategy: strategy,
			Reason:   ReasonInsufficientConsensus,
			Errors:   []string{"total vote mass is zero"},
		}
	}

	var winner domain.VoteChoice
	var winnerMass float64
	tied := false
	for choice, mass := range tally {
		switch {
		case mass > winnerMass:
			winner, winnerMass, tied = choice, mass, false
		case mass == winnerMass && winnerMass > 0:
			tied = true
		}
	}

	consensus := winnerMass / total
	if tied || consensus < rctx.Settings.VotingThreshold {
		return Result{
			Status:      Failed,
			Strategy:    strategy,
			Consensus:   consensus,
			Reason:      ReasonInsufficientConsensus,
			Description: fmt.Sprintf("consensus %.3f below threshold %.3f", consensus, rctx.Settings.VotingThreshold),
		}
	}

	result := applyChoice(rctx, winner)
	result.Strategy = strategy
	result.Consensus = consensus
	if result.Status == Succeeded && result.Confidence == 0 {
		result.Confidence = consensus
	}
	return result
}

// applyChoice turns the winning vote choice into an outcome. A Merge
// winner reuses the auto-merge logic regardless of auto-merge's own
// eligibility gate.
func applyChoice(rctx Context, choice domain.VoteChoice) Result {
	switch choice {
	case domain.ChoiceAnnotationA:
		return Result{
			Status:            Succeeded,
			Outcome:           OutcomeAcceptA,
			FinalAnnotationID: rctx.AnnotationA.ID,
			Description:       fmt.Sprintf("voters accepted annotation %s", rctx.AnnotationA.ID),
		}
	case domain.ChoiceAnnotationB:
		return Result{
			Status:            Succeeded,
			Outcome:           OutcomeAcceptB,
			FinalAnnotationID: rctx.AnnotationB.ID,
			Description:       fmt.Sprintf("voters accepted annotation %s", rctx.AnnotationB.ID),
		}
	case domain.ChoiceMerge:
		result, err := mergeAnnotations(rctx)
		if err != nil {
			return Result{
				Status: Failed,
				Reason: ReasonInternal,
				Errors: []string{err.Error()},
			}
		}
		return result
	case domain.ChoiceRejectBoth:
		return Result{
			Status:      Succeeded,
			Outcome:     OutcomeRejectedBoth,
			Description: "voters rejected both annotations",
		}
	case domain.ChoiceEscalate:
		return Result{
			Status:      Failed,
			Reason:      ReasonEscalationRequested,
			Description: "voters requested expert escalation",
		}
	}
	return Result{
		Status: Failed,
		Reason: ReasonInternal,
		Errors: []string{fmt.Sprintf("unknown vote choice %q", choice)},
	}
}
