package repo

import (
	"context"

	"concord/internal/domain"
)

func (r Repo) InsertAgreementRecord(ctx context.Context, rec domain.AgreementRecord) error {
	_, err := r.DB.ExecContext(ctx, `INSERT INTO agreement_records(id,project_id,annotator_a,annotator_b,method,coefficient,n_items,computed_at)
VALUES (?,?,?,?,?,?,?,?)`,
		rec.ID, rec.ProjectID, rec.AnnotatorA, nullable(rec.AnnotatorB), rec.Method, rec.Coefficient, rec.NItems, rec.ComputedAt)
	return err
}

func (r Repo) ListAgreementRecords(ctx context.Context, projectID string) ([]domain.AgreementRecord, error) {
	rows, err := r.DB.QueryContext(ctx, `SELECT id,project_id,annotator_a,COALESCE(annotator_b,''),method,coefficient,n_items,computed_at
FROM agreement_records WHERE project_id=? ORDER BY computed_at DESC, id DESC`, projectID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []domain.AgreementRecord
	for rows.Next() {
		var rec domain.AgreementRecord
		if err := rows.Scan(&rec.ID, &rec.ProjectID, &rec.AnnotatorA, &rec.AnnotatorB, &rec.Method, &rec.Coefficient, &rec.NItems, &rec.ComputedAt); err != nil {
			return nil, err
		}
		res = append(res, rec)
	}
	return res, nil
}

// KappaHistory returns each annotator's stored kappa coefficients,
// newest first, for performance-weighted voting. A record counts
// toward both annotators of the pair.
func (r Repo) KappaHistory(ctx context.Context, projectID string) (map[string][]float64, error) {
	rows, err := r.DB.QueryContext(ctx, `SELECT annotator_a,COALESCE(annotator_b,''),coefficient
FROM agreement_records WHERE project_id=? AND method IN (?,?) ORDER BY computed_at DESC, id DESC`,
		projectID, "cohen_kappa", "fleiss_kappa")
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	history := map[string][]float64{}
	for rows.Next() {
		var a, b string
		var coeff float64
		if err := rows.Scan(&a, &b, &coeff); err != nil {
			return nil, err
		}
		history[a] = append(history[a], coeff)
		if b != "" {
			history[b] = append(history[b], coeff)
		}
	}
	return history, nil
}
