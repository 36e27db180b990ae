package weighting

import "testing"

func TestForAnnotator(t *testing.T) {
	if w := ForAnnotator(nil); w != 0.5 {
		t.Fatalf("new annotator weight: got %.2f, want 0.5", w)
	}
	if w := ForAnnotator([]float64{0.75, 0.25}); w != 0.5 {
		t.Fatalf("history average: got %.2f, want 0.5", w)
	}
	if w := ForAnnotator([]float64{-0.4, 0.0}); w != 0.1 {
		t.Fatalf("floor: got %.2f, want 0.1", w)
	}
}
