package repo

import (
	"context"
	"database/sql"

	"concord/internal/domain"
)

// InsertResolutionTx appends one resolution attempt. The trail is
// append-only; failed attempts stay on record.
func (r Repo) InsertResolutionTx(ctx context.Context, tx *sql.Tx, res domain.Resolution) error {
	_, err := tx.ExecContext(ctx, `INSERT INTO resolutions(id,conflict_id,strategy,outcome,confidence_score,final_annotation_id,resolver_id,description,created_at,completed_at)
VALUES (?,?,?,?,?,?,?,?,?,?)`,
		res.ID, res.ConflictID, res.Strategy, nullable(res.Outcome), nullableFloatPtr(res.ConfidenceScore),
		nullableStringPtr(res.FinalAnnotationID), res.ResolverID, nullable(res.Description), res.CreatedAt, nullableStringPtr(res.CompletedAt))
	return err
}

func scanResolution(scan func(dest ...any) error) (domain.Resolution, error) {
	var res domain.Resolution
	var outcome, finalAnn, description, completedAt sql.NullString
	var confidence sql.NullFloat64
	err := scan(&res.ID, &res.ConflictID, &res.Strategy, &outcome, &confidence, &finalAnn, &res.ResolverID, &description, &res.CreatedAt, &completedAt)
	if outcome.Valid {
		res.Outcome = outcome.String
	}
	if confidence.Valid {
		res.ConfidenceScore = &confidence.Float64
	}
	if finalAnn.Valid {
		res.FinalAnnotationID = &finalAnn.String
	}
	if description.Valid {
		res.Description = description.String
	}
	if completedAt.Valid {
		res.CompletedAt = &completedAt.String
	}
	return res, err
}

func (r Repo) ListResolutions(ctx context.Context, conflictID string) ([]domain.Resolution, error) {
	rows, err := r.DB.QueryContext(ctx, `SELECT id,conflict_id,strategy,outcome,confidence_score,final_annotation_id,resolver_id,description,created_at,completed_at
FROM resolutions WHERE conflict_id=? ORDER BY created_at ASC, id ASC`, conflictID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []domain.Resolution
	for rows.Next() {
		rec, err := scanResolution(rows.Scan)
		if err != nil {
			return nil, err
		}
		res = append(res, rec)
	}
	return res, nil
}

// CountResolutionAttempts returns the number of prior attempts on a
// conflict, feeding the escalation policy.
func (r Repo) CountResolutionAttempts(ctx context.Context, tx *sql.Tx, conflictID string) (int, error) {
	var n int
	err := tx.QueryRowContext(ctx, `SELECT count(*) FROM resolutions WHERE conflict_id=?`, conflictID).Scan(&n)
	return n, err
}
