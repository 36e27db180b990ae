package span

import "testing"

func TestOverlapDisjoint(t *testing.T) {
	if _, ok := Overlap(0, 5, 5, 10); ok {
		t.Fatalf("adjacent half-open spans must not overlap")
	}
	if _, ok := Overlap(0, 5, 20, 30); ok {
		t.Fatalf("disjoint spans must not overlap")
	}
}

func TestOverlapPartial(t *testing.T) {
	info, ok := Overlap(10, 25, 15, 35)
	if !ok {
		t.Fatalf("expected overlap")
	}
	if info.Start != 15 || info.End != 25 || info.Length != 10 {
		t.Fatalf("got overlap [%d,%d) length %d, want [15,25) length 10", info.Start, info.End, info.Length)
	}
	wantA := 10.0 / 15.0
	wantB := 10.0 / 20.0
	if info.PctA != wantA || info.PctB != wantB {
		t.Fatalf("got pct %.4f/%.4f, want %.4f/%.4f", info.PctA, info.PctB, wantA, wantB)
	}
	if info.Kind != Partial {
		t.Fatalf("got kind %s, want %s", info.Kind, Partial)
	}
	if info.Ratio() != wantA {
		t.Fatalf("ratio is the larger percentage, got %.4f", info.Ratio())
	}
}

func TestOverlapIdentical(t *testing.T) {
	info, ok := Overlap(5, 12, 5, 12)
	if !ok || info.Kind != Identical {
		t.Fatalf("got kind %s, want %s", info.Kind, Identical)
	}
	if info.Ratio() != 1.0 {
		t.Fatalf("identical spans must have ratio 1, got %.4f", info.Ratio())
	}
}

func TestOverlapContainment(t *testing.T) {
	// Containment is classified as complete: the inner span is fully
	// covered.
	info, ok := Overlap(10, 40, 15, 25)
	if !ok || info.Kind != Complete {
		t.Fatalf("got kind %s, want %s", info.Kind, Complete)
	}
	if info.PctB != 1.0 {
		t.Fatalf("inner span must be fully overlapped, got %.4f", info.PctB)
	}
}

func TestGap(t *testing.T) {
	if g := Gap(0, 5, 8, 12); g != 3 {
		t.Fatalf("got gap %d, want 3", g)
	}
	if g := Gap(8, 12, 0, 5); g != 3 {
		t.Fatalf("gap must be symmetric, got %d", g)
	}
	if g := Gap(0, 10, 5, 20); g != 0 {
		t.Fatalf("overlapping spans have zero gap, got %d", g)
	}
	if g := Gap(0, 5, 5, 10); g != 0 {
		t.Fatalf("touching spans have zero gap, got %d", g)
	}
}
