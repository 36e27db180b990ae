package resolution_test

import (
	"testing"
	"time"

	"concord/internal/config"
	"concord/internal/domain"
	"concord/internal/resolution"
)

func settings() config.Resolution {
	return config.Resolution{
		AutoMergeEnabled:          true,
		VotingThreshold:           0.6,
		ExpertAssignmentThreshold: 0.8,
		MinimumVoterCount:         3,
		ResolutionTimeout:         config.Duration(72 * time.Hour),
		MaxResolutionAttempts:     3,
		EscalationEnabled:         true,
	}
}

func spanOverlapContext() resolution.Context {
	detected := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	return resolution.Context{
		Conflict: domain.Conflict{
			ID:            "c1",
			Kind:          domain.KindSpanOverlap,
			Severity:      domain.SeverityMedium,
			Score:         0.4,
			AnnotationAID: "a1",
			AnnotationBID: "b1",
		},
		AnnotationA: domain.Annotation{ID: "a1", LabelID: "PER", Start: 10, End: 25, Confidence: 0.8},
		AnnotationB: domain.Annotation{ID: "b1", LabelID: "PER", Start: 15, End: 35, Confidence: 0.7},
		Settings:    settings(),
		DetectedAt:  detected,
		Now:         detected.Add(time.Hour),
	}
}

func votes(choices map[string]domain.VoteChoice) []domain.Vote {
	var out []domain.Vote
	for voter, choice := range choices {
		out = append(out, domain.Vote{ConflictID: "c1", VoterID: voter, Choice: choice, Weight: 1.0})
	}
	return out
}

func TestAutoMergeSpanOverlap(t *testing.T) {
	rctx := spanOverlapContext()
	res := resolution.Resolve(resolution.StrategyAutoMerge, rctx)
	if res.Status != resolution.Succeeded {
		t.Fatalf("got status %s, want succeeded: %+v", res.Status, res)
	}
	if res.Outcome != resolution.OutcomeMerged || res.Merged == nil {
		t.Fatalf("got outcome %s merged=%v, want a merged annotation", res.Outcome, res.Merged)
	}
	m := res.Merged
	if m.Start != 10 || m.End != 35 {
		t.Fatalf("got merged span [%d,%d), want the union [10,35)", m.Start, m.End)
	}
	if m.LabelID != "PER" {
		t.Fatalf("got label %s, want the higher-confidence label PER", m.LabelID)
	}
	if m.Confidence != 0.75 {
		t.Fatalf("got confidence %.4f, want the average 0.75", m.Confidence)
	}
}

func TestAutoMergeEligibilityGates(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*resolution.Context)
	}{
		{"score too high", func(rctx *resolution.Context) { rctx.Conflict.Score = 0.9 }},
		{"confidence gap too wide", func(rctx *resolution.Context) { rctx.AnnotationB.Confidence = 0.2 }},
		{"quality dispute kind", func(rctx *resolution.Context) { rctx.Conflict.Kind = domain.KindQualityDispute }},
		{"disabled", func(rctx *resolution.Context) { rctx.Settings.AutoMergeEnabled = false }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rctx := spanOverlapContext()
			tc.mutate(&rctx)
			res := resolution.Resolve(resolution.StrategyAutoMerge, rctx)
			if res.Status != resolution.NotApplicable {
				t.Fatalf("got status %s, want not_applicable", res.Status)
			}
		})
	}
}

func TestAutoMergeLabelConflictKeepsHigherConfidence(t *testing.T) {
	rctx := spanOverlapContext()
	rctx.Conflict.Kind = domain.KindLabelConflict
	rctx.AnnotationB.LabelID = "ORG"

	res := resolution.Resolve(resolution.StrategyAutoMerge, rctx)
	if res.Status != resolution.Succeeded || res.Outcome != resolution.OutcomeAcceptA {
		t.Fatalf("got %s/%s, want succeeded/accept_a", res.Status, res.Outcome)
	}
	if res.FinalAnnotationID != "a1" {
		t.Fatalf("got final annotation %s, want a1", res.FinalAnnotationID)
	}
	want := 0.8 * 0.9
	if diff := res.Confidence - want; diff > 1e-9 || diff < -1e-9 {
		t.Fatalf("got confidence %.4f, want discounted %.4f", res.Confidence, want)
	}
}

func TestVotingMajority(t *testing.T) {
	rctx := spanOverlapContext()
	rctx.Votes = votes(map[string]domain.VoteChoice{
		"alice": domain.ChoiceAnnotationA,
		"bob":   domain.ChoiceAnnotationA,
		"carol": domain.ChoiceAnnotationB,
	})

	res := resolution.Resolve(resolution.StrategyVoting, rctx)
	if res.Status != resolution.Succeeded || res.Outcome != resolution.OutcomeAcceptA {
		t.Fatalf("got %s/%s, want succeeded/accept_a: %+v", res.Status, res.Outcome, res)
	}
	want := 2.0 / 3.0
	if diff := res.Consensus - want; diff > 1e-9 || diff < -1e-9 {
		t.Fatalf("got consensus %.4f, want %.4f", res.Consensus, want)
	}
	if res.FinalAnnotationID != "a1" {
		t.Fatalf("got final annotation %s, want a1", res.FinalAnnotationID)
	}
}

func TestVotingBelowQuorumNotApplicable(t *testing.T) {
	rctx := spanOverlapContext()
	rctx.Votes = votes(map[string]domain.VoteChoice{
		"alice": domain.ChoiceAnnotationA,
		"bob":   domain.ChoiceAnnotationB,
	})
	res := resolution.Resolve(resolution.StrategyVoting, rctx)
	if res.Status != resolution.NotApplicable {
		t.Fatalf("got status %s, want not_applicable below the voter quorum", res.Status)
	}
}

func TestVotingTieFails(t *testing.T) {
	rctx := spanOverlapContext()
	rctx.Settings.MinimumVoterCount = 2
	rctx.Votes = votes(map[string]domain.VoteChoice{
		"alice": domain.ChoiceAnnotationA,
		"bob":   domain.ChoiceAnnotationB,
	})
	res := resolution.Resolve(resolution.StrategyVoting, rctx)
	if res.Status != resolution.Failed || res.Reason != resolution.ReasonInsufficientConsensus {
		t.Fatalf("a tied vote must fail with insufficient consensus, got %+v", res)
	}
}

func TestVotingBelowThresholdFails(t *testing.T) {
	rctx := spanOverlapContext()
	rctx.Settings.VotingThreshold = 0.8
	rctx.Votes = votes(map[string]domain.VoteChoice{
		"alice": domain.ChoiceAnnotationA,
		"bob":   domain.ChoiceAnnotationA,
		"carol": domain.ChoiceAnnotationA,
		"dave":  domain.ChoiceAnnotationB,
		"erin":  domain.ChoiceAnnotationB,
	})
	res := resolution.Resolve(resolution.StrategyVoting, rctx)
	if res.Status != resolution.Failed || res.Reason != resolution.ReasonInsufficientConsensus {
		t.Fatalf("got %+v, want failure at consensus 0.6 against threshold 0.8", res)
	}
}

func TestVotingMergeChoiceBypassesAutoMergeGate(t *testing.T) {
	rctx := spanOverlapContext()
	// Well above the auto-merge score gate; a winning merge vote still
	// merges.
	rctx.Conflict.Score = 0.9
	rctx.Votes = votes(map[string]domain.VoteChoice{
		"alice": domain.ChoiceMerge,
		"bob":   domain.ChoiceMerge,
		"carol": domain.ChoiceMerge,
	})
	res := resolution.Resolve(resolution.StrategyVoting, rctx)
	if res.Status != resolution.Succeeded || res.Outcome != resolution.OutcomeMerged {
		t.Fatalf("got %s/%s, want succeeded/merged", res.Status, res.Outcome)
	}
	if res.Merged == nil || res.Merged.Start != 10 || res.Merged.End != 35 {
		t.Fatalf("got merged %+v, want the union span [10,35)", res.Merged)
	}
}

func TestVotingEscalateChoice(t *testing.T) {
	rctx := spanOverlapContext()
	rctx.Votes = votes(map[string]domain.VoteChoice{
		"alice": domain.ChoiceEscalate,
		"bob":   domain.ChoiceEscalate,
		"carol": domain.ChoiceEscalate,
	})
	res := resolution.Resolve(resolution.StrategyVoting, rctx)
	if res.Status != resolution.Failed || res.Reason != resolution.ReasonEscalationRequested {
		t.Fatalf("got %+v, want an escalation request", res)
	}
}

func TestWeightedVotingFlipsWinner(t *testing.T) {
	rctx := spanOverlapContext()
	rctx.Votes = votes(map[string]domain.VoteChoice{
		"alice": domain.ChoiceAnnotationA,
		"bob":   domain.ChoiceAnnotationB,
		"carol": domain.ChoiceAnnotationB,
	})
	// alice averages 0.9, bob has no history (0.5), carol is floored at
	// 0.1. Weighted mass: A=0.9 vs B=0.6.
	rctx.KappaHistory = map[string][]float64{
		"alice": {0.85, 0.95},
		"carol": {0.02},
	}
	rctx.Settings.VotingThreshold = 0.5

	plain := resolution.Resolve(resolution.StrategyVoting, rctx)
	if plain.Outcome != resolution.OutcomeAcceptB {
		t.Fatalf("plain voting should pick b by headcount, got %+v", plain)
	}

	weighted := resolution.Resolve(resolution.StrategyWeightedVoting, rctx)
	if weighted.Status != resolution.Succeeded || weighted.Outcome != resolution.OutcomeAcceptA {
		t.Fatalf("got %s/%s, want the reliable voter to win", weighted.Status, weighted.Outcome)
	}
	want := 0.9 / 1.5
	if diff := weighted.Consensus - want; diff > 1e-9 || diff < -1e-9 {
		t.Fatalf("got consensus %.4f, want %.4f", weighted.Consensus, want)
	}
}

func TestExpertReviewRequiresManualInput(t *testing.T) {
	rctx := spanOverlapContext()
	res := resolution.Resolve(resolution.StrategyExpertReview, rctx)
	if res.Status != resolution.Failed || res.Reason != resolution.ReasonManualInputRequired {
		t.Fatalf("got %+v, want failed/manual_input_required", res)
	}
}

func TestSelect(t *testing.T) {
	rctx := spanOverlapContext()

	rctx.Conflict.Score = 0.2
	if s := resolution.Select(rctx); s != resolution.StrategyAutoMerge {
		t.Fatalf("low score with auto-merge enabled: got %s", s)
	}

	rctx.Settings.AutoMergeEnabled = false
	rctx.Votes = votes(map[string]domain.VoteChoice{
		"alice": domain.ChoiceAnnotationA,
		"bob":   domain.ChoiceAnnotationA,
		"carol": domain.ChoiceAnnotationB,
	})
	if s := resolution.Select(rctx); s != resolution.StrategyWeightedVoting {
		t.Fatalf("quorum of votes: got %s", s)
	}

	rctx.Votes = nil
	rctx.Conflict.Score = 0.6
	rctx.Conflict.Severity = domain.SeverityCritical
	if s := resolution.Select(rctx); s != resolution.StrategyExpertReview {
		t.Fatalf("critical severity: got %s", s)
	}

	rctx.Conflict.Severity = domain.SeverityLow
	if s := resolution.Select(rctx); s != resolution.StrategyVoting {
		t.Fatalf("default: got %s", s)
	}
}

func TestEscalationDue(t *testing.T) {
	rctx := spanOverlapContext()

	rctx.Attempts = 3
	if !resolution.EscalationDue(rctx) {
		t.Fatalf("exhausted attempts must escalate")
	}

	rctx.Attempts = 1
	if resolution.EscalationDue(rctx) {
		t.Fatalf("one attempt inside the timeout must not escalate")
	}

	rctx.Now = rctx.DetectedAt.Add(80 * time.Hour)
	if !resolution.EscalationDue(rctx) {
		t.Fatalf("a conflict past its resolution timeout must escalate")
	}

	rctx.Settings.EscalationEnabled = false
	if resolution.EscalationDue(rctx) {
		t.Fatalf("escalation disabled must never escalate")
	}
}
