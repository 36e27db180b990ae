package conflict

import (
	"context"
	"sort"
	"sync"

	"golang.org/x/sync/errgroup"

	"concord/internal/config"
	"concord/internal/domain"
)

// Detect scans an annotation set for conflicts. Annotations are
// grouped by text and compared pairwise in start order; the scan for a
// given annotation stops once the gap to the next one exceeds the
// proximity window, since the classifier emits nothing for distant
// pairs. Candidates matching an open conflict on the same unordered
// pair and kind are skipped, as are candidates below the confidence
// threshold.
func Detect(annotations []domain.Annotation, open []domain.Conflict, det config.Detection) []Candidate {
	byText := groupByText(annotations)
	openKeys := openConflictKeys(open)

	var out []Candidate
	for _, group := range byText {
		out = append(out, scanText(group, openKeys, det)...)
	}
	sortCandidates(out)
	return out
}

// DetectSharded is Detect with per-text scans spread across workers.
// Each text's pairwise scan is self-contained, so the shards share no
// mutable state beyond the result slice.
func DetectSharded(ctx context.Context, annotations []domain.Annotation, open []domain.Conflict, det config.Detection, workers int) ([]Candidate, error) {
	if workers < 1 {
		workers = 1
	}
	byText := groupByText(annotations)
	openKeys := openConflictKeys(open)

	g, _ := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	var mu sync.Mutex
	var out []Candidate
	for _, group := range byText {
		group := group
		g.Go(func() error {
			found := scanText(group, openKeys, det)
			mu.Lock()
			out = append(out, found...)
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	sortCandidates(out)
	return out, nil
}

func scanText(group []domain.Annotation, openKeys map[string]bool, det config.Detection) []Candidate {
	sorted := make([]domain.Annotation, len(group))
	copy(sorted, group)
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].Start != sorted[j].Start {
			return sorted[i].Start < sorted[j].Start
		}
		return sorted[i].ID < sorted[j].ID
	})

	var out []Candidate
	for i := 0; i < len(sorted); i++ {
		a := sorted[i]
		for j := i + 1; j < len(sorted); j++ {
			b := sorted[j]
			if b.Start-a.End > det.ProximityWindow {
				break
			}
			if a.AnnotatorID == b.AnnotatorID {
				continue
			}
			for _, cand := range Classify(a, b, det) {
				if cand.Confidence < det.ConfidenceThreshold {
					continue
				}
				if openKeys[cand.PairKey()] {
					continue
				}
				out = append(out, cand)
			}
		}
	}
	return out
}

func groupByText(annotations []domain.Annotation) map[string][]domain.Annotation {
	byText := make(map[string][]domain.Annotation)
	for _, a := range annotations {
		byText[a.TextID] = append(byText[a.TextID], a)
	}
	return byText
}

// openConflictKeys indexes non-terminal conflicts by pair key + kind
// for the dedup invariant: at most one open conflict per unordered
// annotation pair and kind.
func openConflictKeys(open []domain.Conflict) map[string]bool {
	keys := make(map[string]bool, len(open))
	for _, c := range open {
		if domain.IsTerminalStatus(c.Status) {
			continue
		}
		keys[domain.PairKey(c.AnnotationAID, c.AnnotationBID)+"|"+string(c.Kind)] = true
	}
	return keys
}

func sortCandidates(out []Candidate) {
	sort.Slice(out, func(i, j int) bool {
		if out[i].TextID != out[j].TextID {
			return out[i].TextID < out[j].TextID
		}
		if out[i].AnnotationAID != out[j].AnnotationAID {
			return out[i].AnnotationAID < out[j].AnnotationAID
		}
		if out[i].AnnotationBID != out[j].AnnotationBID {
			return out[i].AnnotationBID < out[j].AnnotationBID
		}
		return out[i].Kind < out[j].Kind
	})
}
