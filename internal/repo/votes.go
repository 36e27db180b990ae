package repo

import (
	"context"
	"database/sql"

	"concord/internal/domain"
)

// UpsertVote inserts or overwrites a voter's vote. Resubmission keeps
// the original created_at and bumps updated_at.
func (r Repo) UpsertVote(ctx context.Context, tx *sql.Tx, v domain.Vote) error {
	_, err := tx.ExecContext(ctx, `INSERT INTO votes(conflict_id,voter_id,choice,weight,confidence,rationale,created_at,updated_at)
VALUES (?,?,?,?,?,?,?,?)
ON CONFLICT(conflict_id,voter_id) DO UPDATE SET choice=excluded.choice, weight=excluded.weight,
confidence=excluded.confidence, rationale=excluded.rationale, updated_at=excluded.updated_at`,
		v.ConflictID, v.VoterID, v.Choice, v.Weight, nullableFloatPtr(v.Confidence), nullable(v.Rationale), v.CreatedAt, v.UpdatedAt)
	return err
}

func scanVote(scan func(dest ...any) error) (domain.Vote, error) {
	var v domain.Vote
	var confidence sql.NullFloat64
	var rationale sql.NullString
	err := scan(&v.ConflictID, &v.VoterID, &v.Choice, &v.Weight, &confidence, &rationale, &v.CreatedAt, &v.UpdatedAt)
	if confidence.Valid {
		v.Confidence = &confidence.Float64
	}
	if rationale.Valid {
		v.Rationale = rationale.String
	}
	return v, err
}

const voteColumns = `conflict_id,voter_id,choice,weight,confidence,rationale,created_at,updated_at`

func (r Repo) ListVotes(ctx context.Context, conflictID string) ([]domain.Vote, error) {
	rows, err := r.DB.QueryContext(ctx, `SELECT `+voteColumns+` FROM votes WHERE conflict_id=? ORDER BY created_at ASC, voter_id ASC`, conflictID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []domain.Vote
	for rows.Next() {
		v, err := scanVote(rows.Scan)
		if err != nil {
			return nil, err
		}
		res = append(res, v)
	}
	return res, nil
}

func (r Repo) ListVotesTx(ctx context.Context, tx *sql.Tx, conflictID string) ([]domain.Vote, error) {
	rows, err := tx.QueryContext(ctx, `SELECT `+voteColumns+` FROM votes WHERE conflict_id=? ORDER BY created_at ASC, voter_id ASC`, conflictID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []domain.Vote
	for rows.Next() {
		v, err := scanVote(rows.Scan)
		if err != nil {
			return nil, err
		}
		res = append(res, v)
	}
	return res, nil
}
