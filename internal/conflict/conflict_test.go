package conflict_test

import (
	"context"
	"reflect"
	"testing"

	"concord/internal/config"
	"concord/internal/conflict"
	"concord/internal/domain"
)

func detection() config.Detection {
	return config.Detection{
		OverlapThreshold:    0.1,
		ConfidenceThreshold: 0.3,
		ProximityWindow:     100,
	}
}

func ann(id, annotator, label string, start, end int, confidence float64) domain.Annotation {
	return domain.Annotation{
		ID:          id,
		ProjectID:   "proj-1",
		TextID:      "text-1",
		AnnotatorID: annotator,
		LabelID:     label,
		Start:       start,
		End:         end,
		Confidence:  confidence,
	}
}

func TestClassifySpanOverlapSameLabel(t *testing.T) {
	a := ann("a1", "alice", "PER", 10, 25, 0.8)
	b := ann("b1", "bob", "PER", 15, 35, 0.7)

	out := conflict.Classify(a, b, detection())
	if len(out) != 1 {
		t.Fatalf("got %d candidates, want 1", len(out))
	}
	c := out[0]
	if c.Kind != domain.KindSpanOverlap {
		t.Fatalf("got kind %s, want %s", c.Kind, domain.KindSpanOverlap)
	}
	want := 10.0 / 15.0
	if c.Score != want {
		t.Fatalf("got score %.4f, want %.4f", c.Score, want)
	}
	if c.Severity != domain.SeverityHigh {
		t.Fatalf("got severity %s, want %s", c.Severity, domain.SeverityHigh)
	}
	if c.Confidence != 1.0 {
		t.Fatalf("got confidence %.4f, want 1", c.Confidence)
	}
	if c.Overlap == nil || c.Overlap.Start != 15 || c.Overlap.End != 25 {
		t.Fatalf("overlap info missing or wrong: %+v", c.Overlap)
	}
}

func TestClassifyLabelConflictAndQualityDispute(t *testing.T) {
	a := ann("a1", "alice", "PER", 10, 25, 0.9)
	b := ann("b1", "bob", "ORG", 15, 35, 0.3)

	out := conflict.Classify(a, b, detection())
	if len(out) != 3 {
		t.Fatalf("got %d candidates, want span overlap, label conflict and quality dispute", len(out))
	}

	kinds := map[domain.ConflictKind]conflict.Candidate{}
	for _, c := range out {
		kinds[c.Kind] = c
	}

	label, ok := kinds[domain.KindLabelConflict]
	if !ok {
		t.Fatalf("missing label conflict")
	}
	// ratio 2/3 plus 0.3 of the 0.6 confidence gap.
	wantScore := 10.0/15.0 + 0.3*0.6
	if diff := label.Score - wantScore; diff > 1e-9 || diff < -1e-9 {
		t.Fatalf("got label score %.6f, want %.6f", label.Score, wantScore)
	}
	if label.Severity != domain.SeverityCritical {
		t.Fatalf("got label severity %s, want %s", label.Severity, domain.SeverityCritical)
	}

	quality, ok := kinds[domain.KindQualityDispute]
	if !ok {
		t.Fatalf("missing quality dispute")
	}
	if diff := quality.Score - 0.6; diff > 1e-9 || diff < -1e-9 {
		t.Fatalf("got quality score %.6f, want 0.6", quality.Score)
	}
	if quality.Severity != domain.SeverityMedium {
		t.Fatalf("got quality severity %s, want %s", quality.Severity, domain.SeverityMedium)
	}
}

func TestClassifyQualityDisputeDisjointSpans(t *testing.T) {
	a := ann("a1", "alice", "PER", 0, 5, 0.9)
	b := ann("b1", "bob", "PER", 40, 50, 0.1)

	out := conflict.Classify(a, b, detection())
	if len(out) != 1 {
		t.Fatalf("got %d candidates, want 1", len(out))
	}
	if out[0].Kind != domain.KindQualityDispute {
		t.Fatalf("got kind %s, want %s", out[0].Kind, domain.KindQualityDispute)
	}
	if out[0].Severity != domain.SeverityHigh {
		t.Fatalf("0.8 confidence gap must be high severity, got %s", out[0].Severity)
	}

	far := ann("b2", "bob", "PER", 100, 110, 0.1)
	if got := conflict.Classify(a, far, detection()); len(got) != 0 {
		t.Fatalf("spans beyond the dispute gap must not conflict, got %d candidates", len(got))
	}
}

func TestDetectProximityWindow(t *testing.T) {
	// 20 characters apart: within the quality dispute gap but outside
	// a 10-character proximity window.
	anns := []domain.Annotation{
		ann("a1", "alice", "PER", 0, 5, 0.9),
		ann("b1", "bob", "PER", 25, 30, 0.1),
	}

	det := detection()
	det.ProximityWindow = 10
	if got := conflict.Detect(anns, nil, det); len(got) != 0 {
		t.Fatalf("pairs outside the proximity window must be skipped, got %d", len(got))
	}

	det.ProximityWindow = 100
	got := conflict.Detect(anns, nil, det)
	if len(got) != 1 || got[0].Kind != domain.KindQualityDispute {
		t.Fatalf("got %+v, want one quality dispute", got)
	}
}

func TestDetectSkipsSameAnnotator(t *testing.T) {
	anns := []domain.Annotation{
		ann("a1", "alice", "PER", 10, 25, 0.8),
		ann("a2", "alice", "ORG", 15, 35, 0.2),
	}
	if got := conflict.Detect(anns, nil, detection()); len(got) != 0 {
		t.Fatalf("an annotator cannot conflict with themselves, got %d candidates", len(got))
	}
}

func TestDetectConfidenceThreshold(t *testing.T) {
	anns := []domain.Annotation{
		ann("a1", "alice", "PER", 0, 5, 0.85),
		ann("b1", "bob", "PER", 20, 30, 0.30),
	}

	det := detection()
	det.ConfidenceThreshold = 0.6
	if got := conflict.Detect(anns, nil, det); len(got) != 0 {
		t.Fatalf("candidate below confidence threshold must be dropped, got %d", len(got))
	}

	det.ConfidenceThreshold = 0.3
	if got := conflict.Detect(anns, nil, det); len(got) != 1 {
		t.Fatalf("got %d candidates, want 1", len(got))
	}
}

func TestDetectDedupsOpenConflicts(t *testing.T) {
	anns := []domain.Annotation{
		ann("a1", "alice", "PER", 10, 25, 0.8),
		ann("b1", "bob", "PER", 15, 35, 0.7),
	}

	first := conflict.Detect(anns, nil, detection())
	if len(first) != 1 {
		t.Fatalf("got %d candidates, want 1", len(first))
	}

	open := []domain.Conflict{{
		ID:            "c1",
		Kind:          first[0].Kind,
		Status:        domain.StatusDetected,
		AnnotationAID: "b1",
		AnnotationBID: "a1",
	}}
	if got := conflict.Detect(anns, open, detection()); len(got) != 0 {
		t.Fatalf("open conflict on the same unordered pair must dedup, got %d", len(got))
	}

	open[0].Status = domain.StatusResolved
	if got := conflict.Detect(anns, open, detection()); len(got) != 1 {
		t.Fatalf("terminal conflicts must not block re-detection, got %d", len(got))
	}
}

func TestDetectShardedMatchesDetect(t *testing.T) {
	var anns []domain.Annotation
	texts := []string{"text-1", "text-2", "text-3"}
	for i, textID := range texts {
		base := i * 7
		a := ann("a-"+textID, "alice", "PER", 10+base, 25+base, 0.8)
		a.TextID = textID
		b := ann("b-"+textID, "bob", "ORG", 15+base, 35+base, 0.6)
		b.TextID = textID
		c := ann("c-"+textID, "carol", "PER", 12+base, 20+base, 0.1)
		c.TextID = textID
		anns = append(anns, a, b, c)
	}

	want := conflict.Detect(anns, nil, detection())
	if len(want) == 0 {
		t.Fatalf("expected candidates")
	}
	got, err := conflict.DetectSharded(context.Background(), anns, nil, detection(), 4)
	if err != nil {
		t.Fatalf("DetectSharded: %v", err)
	}
	if !reflect.DeepEqual(want, got) {
		t.Fatalf("sharded detection diverged:\n got %+v\nwant %+v", got, want)
	}
}
