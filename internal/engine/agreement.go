package engine

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/google/uuid"

	"concord/internal/agreement"
	"concord/internal/domain"
	"concord/internal/events"
	"concord/internal/repo"
)

// ProjectAnnotators is the wildcard stored in agreement records that
// cover every annotator rather than a pair.
const ProjectAnnotators = "*"

// PairAgreementOptions are parameters for a pairwise agreement run.
type PairAgreementOptions struct {
	ProjectID  string
	AnnotatorA string
	AnnotatorB string
	// Weighting selects the Cohen kappa penalty matrix; empty means
	// unweighted.
	Weighting agreement.Weighting
	ActorID   string
}

// PairAgreement computes Cohen's kappa between two annotators over the
// spans both labeled, stores the coefficient as an agreement record
// and returns the full result. Stored coefficients feed
// performance-weighted voting.
func (e Engine) PairAgreement(ctx context.Context, opts PairAgreementOptions) (agreement.Result, error) {
	if e.Config == nil {
		return agreement.Result{}, errors.New("config not loaded")
	}
	if opts.AnnotatorA == "" || opts.AnnotatorB == "" {
		return agreement.Result{}, errors.New("two annotators are required")
	}
	if opts.AnnotatorA == opts.AnnotatorB {
		return agreement.Result{}, errors.New("annotators must differ")
	}
	annotations, err := e.Repo.ListAnnotations(ctx, repo.AnnotationFilters{ProjectID: opts.ProjectID})
	if err != nil {
		return agreement.Result{}, err
	}
	seqA, seqB := alignPair(annotations, opts.AnnotatorA, opts.AnnotatorB)
	if len(seqA) == 0 {
		return agreement.Result{}, fmt.Errorf("annotators %s and %s share no labeled spans", opts.AnnotatorA, opts.AnnotatorB)
	}
	if opts.Weighting == "" {
		opts.Weighting = agreement.WeightNone
	}
	result, err := agreement.CohenKappa(seqA, seqB, opts.Weighting)
	if err != nil {
		return result, err
	}
	if err := e.storeAgreement(ctx, opts.ProjectID, opts.AnnotatorA, opts.AnnotatorB, opts.ActorID, result); err != nil {
		return result, err
	}
	return result, nil
}

// ProjectAgreementOptions are parameters for a project-wide agreement
// run.
type ProjectAgreementOptions struct {
	ProjectID string
	// Method is fleiss_kappa or krippendorff_alpha.
	Method string
	// Metric applies to alpha only; empty means nominal.
	Metric  agreement.Metric
	ActorID string
}

// ProjectAgreement computes a project-wide reliability coefficient
// across all annotators. Fleiss' kappa uses only spans every annotator
// labeled; Krippendorff's alpha uses every span and treats absent
// annotators as missing judgments.
func (e Engine) ProjectAgreement(ctx context.Context, opts ProjectAgreementOptions) (agreement.Result, error) {
	if e.Config == nil {
		return agreement.Result{}, errors.New("config not loaded")
	}
	annotations, err := e.Repo.ListAnnotations(ctx, repo.AnnotationFilters{ProjectID: opts.ProjectID})
	if err != nil {
		return agreement.Result{}, err
	}
	annotators, units := alignAll(annotations)
	if len(annotators) < 2 {
		return agreement.Result{}, fmt.Errorf("project %s has %d annotators; need at least 2", opts.ProjectID, len(annotators))
	}

	var result agreement.Result
	switch opts.Method {
	case agreement.MethodFleiss, "":
		seqs := fleissSequences(annotators, units)
		if len(seqs) == 0 || len(seqs[0]) == 0 {
			return agreement.Result{}, errors.New("no span was labeled by every annotator")
		}
		result, err = agreement.FleissKappa(seqs)
	case agreement.MethodKrippendorff:
		seqs := alphaSequences(annotators, units)
		result, err = agreement.KrippendorffAlpha(seqs, agreement.AlphaOptions{
			Metric:              opts.Metric,
			BootstrapIterations: e.Config.Agreement.BootstrapIterations,
		})
	default:
		return agreement.Result{}, fmt.Errorf("unknown agreement method %q", opts.Method)
	}
	if err != nil {
		return result, err
	}
	if err := e.storeAgreement(ctx, opts.ProjectID, ProjectAnnotators, "", opts.ActorID, result); err != nil {
		return result, err
	}
	return result, nil
}

func (e Engine) storeAgreement(ctx context.Context, projectID, annotatorA, annotatorB, actorID string, result agreement.Result) error {
	rec := domain.AgreementRecord{
		ID:          uuid.New().String(),
		ProjectID:   projectID,
		AnnotatorA:  annotatorA,
		AnnotatorB:  annotatorB,
		Method:      result.Method,
		Coefficient: result.Coefficient,
		NItems:      result.NItems,
		ComputedAt:  e.now().UTC().Format(time.RFC3339),
	}
	tx, err := e.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()
	if _, err := tx.ExecContext(ctx, `INSERT INTO agreement_records(id,project_id,annotator_a,annotator_b,method,coefficient,n_items,computed_at)
VALUES (?,?,?,?,?,?,?,?)`,
		rec.ID, rec.ProjectID, rec.AnnotatorA, nullable(rec.AnnotatorB), rec.Method, rec.Coefficient, rec.NItems, rec.ComputedAt); err != nil {
		return err
	}
	if err := e.Events.Append(ctx, tx, events.TypeAgreementComputed, projectID, "agreement", rec.ID, actorID, events.EventPayload{
		"method":         rec.Method,
		"coefficient":    rec.Coefficient,
		"n_items":        rec.NItems,
		"interpretation": result.Interpretation,
	}); err != nil {
		return err
	}
	return tx.Commit()
}

// spanKey identifies an annotation unit: the same span of the same
// text rated by different annotators is one item.
func spanKey(a domain.Annotation) string {
	return fmt.Sprintf("%s|%d|%d", a.TextID, a.Start, a.End)
}

// alignPair builds parallel label sequences over the spans both
// annotators labeled, in deterministic unit order.
func alignPair(annotations []domain.Annotation, annotatorA, annotatorB string) (seqA, seqB []string) {
	labelsA := map[string]string{}
	labelsB := map[string]string{}
	for _, a := range annotations {
		key := spanKey(a)
		switch a.AnnotatorID {
		case annotatorA:
			if _, seen := labelsA[key]; !seen {
				labelsA[key] = a.LabelID
			}
		case annotatorB:
			if _, seen := labelsB[key]; !seen {
				labelsB[key] = a.LabelID
			}
		}
	}
	keys := make([]string, 0, len(labelsA))
	for key := range labelsA {
		if _, ok := labelsB[key]; ok {
			keys = append(keys, key)
		}
	}
	sort.Strings(keys)
	for _, key := range keys {
		seqA = append(seqA, labelsA[key])
		seqB = append(seqB, labelsB[key])
	}
	return seqA, seqB
}

// alignAll indexes every annotation by unit and annotator. Annotators
// and units come back in deterministic order.
func alignAll(annotations []domain.Annotation) (annotators []string, units map[string]map[string]string) {
	units = map[string]map[string]string{}
	seen := map[string]bool{}
	for _, a := range annotations {
		key := spanKey(a)
		if units[key] == nil {
			units[key] = map[string]string{}
		}
		if _, dup := units[key][a.AnnotatorID]; !dup {
			units[key][a.AnnotatorID] = a.LabelID
		}
		if !seen[a.AnnotatorID] {
			seen[a.AnnotatorID] = true
			annotators = append(annotators, a.AnnotatorID)
		}
	}
	sort.Strings(annotators)
	return annotators, units
}

func sortedUnitKeys(units map[string]map[string]string) []string {
	keys := make([]string, 0, len(units))
	for key := range units {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

// fleissSequences keeps only units rated by every annotator, since
// Fleiss' kappa requires a constant rater count per item.
func fleissSequences(annotators []string, units map[string]map[string]string) [][]string {
	seqs := make([][]string, len(annotators))
	for _, key := range sortedUnitKeys(units) {
		ratings := units[key]
		if len(ratings) != len(annotators) {
			continue
		}
		for i, annotator := range annotators {
			seqs[i] = append(seqs[i], ratings[annotator])
		}
	}
	return seqs
}

// alphaSequences codes labels as numeric category indexes with NaN for
// missing judgments. Nominal alpha only compares codes for equality,
// so the coding is arbitrary as long as it is consistent.
func alphaSequences(annotators []string, units map[string]map[string]string) [][]float64 {
	labelSet := map[string]bool{}
	for _, ratings := range units {
		for _, label := range ratings {
			labelSet[label] = true
		}
	}
	labels := make([]string, 0, len(labelSet))
	for label := range labelSet {
		labels = append(labels, label)
	}
	sort.Strings(labels)
	code := make(map[string]float64, len(labels))
	for i, label := range labels {
		code[label] = float64(i)
	}

	seqs := make([][]float64, len(annotators))
	for _, key := range sortedUnitKeys(units) {
		ratings := units[key]
		for i, annotator := range annotators {
			if label, ok := ratings[annotator]; ok {
				seqs[i] = append(seqs[i], code[label])
			} else {
				seqs[i] = append(seqs[i], math.NaN())
			}
		}
	}
	return seqs
}
