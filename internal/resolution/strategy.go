// Package resolution advances a conflict from detection to a terminal
// outcome through a closed set of strategies. Strategies are pure
// decisions over a caller-supplied Context; persistence and status
// transitions belong to the caller.
package resolution

import (
	"fmt"
	"time"

	"concord/internal/config"
	"concord/internal/domain"
)

// Strategy is the closed strategy set. Keeping it a tagged enum with a
// single dispatch function keeps exhaustiveness checkable.
type Strategy string

const (
	StrategyAutoMerge      Strategy = "auto_merge"
	StrategyVoting         Strategy = "voting"
	StrategyWeightedVoting Strategy = "weighted_voting"
	StrategyExpertReview   Strategy = "expert_review"
)

// Status distinguishes "strategy not applicable" from an applicable
// attempt that succeeded or failed. Not-applicable is routine control
// flow, not an error.
type Status string

const (
	NotApplicable Status = "not_applicable"
	Succeeded     Status = "succeeded"
	Failed        Status = "failed"
)

// Outcome is what a successful resolution decided.
type Outcome string

const (
	OutcomeAcceptA      Outcome = "accept_a"
	OutcomeAcceptB      Outcome = "accept_b"
	OutcomeMerged       Outcome = "merged"
	OutcomeRejectedBoth Outcome = "rejected_both"
)

// FailureReason marks why an applicable attempt failed.
type FailureReason string

const (
	ReasonInsufficientConsensus FailureReason = "insufficient_consensus"
	ReasonManualInputRequired   FailureReason = "manual_input_required"
	ReasonEscalationRequested   FailureReason = "escalation_requested"
	ReasonInternal              FailureReason = "internal_error"
)

// Context carries everything a strategy may consult. All lookups are
// resolved by the caller up front; strategies never touch storage.
type Context struct {
	Conflict    domain.Conflict
	AnnotationA domain.Annotation
	AnnotationB domain.Annotation
	Votes       []domain.Vote
	// KappaHistory maps voter id to historical kappa coefficients for
	// performance-weighted voting.
	KappaHistory map[string][]float64
	Settings     config.Resolution
	DetectedAt   time.Time
	Now          time.Time
	// Attempts is the number of prior resolution attempts on this
	// conflict.
	Attempts int
}

// MergedAnnotation is a new annotation produced by a merge outcome,
// for the caller to persist.
type MergedAnnotation struct {
	Start      int     `json:"start"`
	End        int     `json:"end"`
	LabelID    string  `json:"label_id"`
	Confidence float64 `json:"confidence"`
}

// Result is the value returned by every resolution attempt. Strategy
// execution failures are wrapped into Errors; nothing escapes as a
// panic across the package boundary.
type Result struct {
	Status            Status            `json:"status"`
	Strategy          Strategy          `json:"strategy"`
	Outcome           Outcome           `json:"outcome,omitempty"`
	FinalAnnotationID string            `json:"final_annotation_id,omitempty"`
	Merged            *MergedAnnotation `json:"merged,omitempty"`
	Confidence        float64           `json:"confidence"`
	Consensus         float64           `json:"consensus,omitempty"`
	Description       string            `json:"description,omitempty"`
	Reason            FailureReason     `json:"reason,omitempty"`
	Errors            []string          `json:"errors,omitempty"`
}

// CanResolve reports whether a strategy is applicable to the context.
func CanResolve(s Strategy, rctx Context) bool {
	switch s {
	case StrategyAutoMerge:
		return autoMergeEligible(rctx)
	case StrategyVoting, StrategyWeightedVoting:
		return len(rctx.Votes) >= rctx.Settings.MinimumVoterCount
	case StrategyExpertReview:
		return true
	}
	return false
}

// Resolve dispatches one resolution attempt. A strategy that is not
// applicable returns a NotApplicable result rather than an error.
func Resolve(s Strategy, rctx Context) (result Result) {
	defer func() {
		if r := recover(); r != nil {
			result = Result{
				Status:   Failed,
				Strategy: s,
				Reason:   ReasonInternal,
				Errors:   []string{fmt.Sprintf("strategy panic: %v", r)},
			}
		}
	}()

	if !CanResolve(s, rctx) {
		return Result{Status: NotApplicable, Strategy: s}
	}
	switch s {
	case StrategyAutoMerge:
		return resolveAutoMerge(rctx)
	case StrategyVoting:
		return resolveVoting(rctx, StrategyVoting, plainWeights(rctx.Votes))
	case StrategyWeightedVoting:
		return resolveVoting(rctx, StrategyWeightedVoting, performanceWeights(rctx))
	case StrategyExpertReview:
		return resolveExpertReview(rctx)
	}
	return Result{
		Status:   Failed,
		Strategy: s,
		Reason:   ReasonInternal,
		Errors:   []string{fmt.Sprintf("unknown strategy %q", s)},
	}
}

// Select picks a strategy when the caller does not pin one: cheap
// automatic merging for low-scoring conflicts, weighted voting once a
// quorum exists, expert review for severe conflicts, plain voting
// otherwise.
func Select(rctx Context) Strategy {
	if rctx.Conflict.Score <= 0.3 && rctx.Settings.AutoMergeEnabled {
		return StrategyAutoMerge
	}
	if len(rctx.Votes) >= rctx.Settings.MinimumVoterCount {
		return StrategyWeightedVoting
	}
	if rctx.Conflict.Severity == domain.SeverityHigh || rctx.Conflict.Severity == domain.SeverityCritical {
		return StrategyExpertReview
	}
	return StrategyVoting
}

// EscalationDue reports whether a failed attempt should escalate to
// expert review: attempts exhausted or the conflict has outlived its
// resolution timeout, and escalation is enabled. Timeouts only ever
// trigger escalation, never silent closure.
func EscalationDue(rctx Context) bool {
	if !rctx.Settings.EscalationEnabled {
		return false
	}
	if rctx.Attempts >= rctx.Settings.MaxResolutionAttempts {
		return true
	}
	return rctx.Now.Sub(rctx.DetectedAt) > rctx.Settings.ResolutionTimeout.Std()
}
