package repo

import (
	"context"
	"database/sql"
	"strings"

	"concord/internal/domain"
)

const conflictColumns = `id,project_id,text_id,kind,severity,score,annotation_a_id,annotation_b_id,status,assigned_resolver,deadline,detected_at,resolved_at`

func scanConflict(scan func(dest ...any) error) (domain.Conflict, error) {
	var c domain.Conflict
	var resolver, deadline, resolvedAt sql.NullString
	err := scan(&c.ID, &c.ProjectID, &c.TextID, &c.Kind, &c.Severity, &c.Score,
		&c.AnnotationAID, &c.AnnotationBID, &c.Status, &resolver, &deadline, &c.DetectedAt, &resolvedAt)
	if resolver.Valid {
		c.AssignedResolver = &resolver.String
	}
	if deadline.Valid {
		c.Deadline = &deadline.String
	}
	if resolvedAt.Valid {
		c.ResolvedAt = &resolvedAt.String
	}
	return c, err
}

func (r Repo) InsertConflictTx(ctx context.Context, tx *sql.Tx, c domain.Conflict) error {
	_, err := tx.ExecContext(ctx, `INSERT INTO conflicts(id,project_id,text_id,kind,severity,score,annotation_a_id,annotation_b_id,pair_key,status,assigned_resolver,deadline,detected_at,resolved_at)
VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?)`,
		c.ID, c.ProjectID, c.TextID, c.Kind, c.Severity, c.Score, c.AnnotationAID, c.AnnotationBID,
		domain.PairKey(c.AnnotationAID, c.AnnotationBID), c.Status,
		nullableStringPtr(c.AssignedResolver), nullableStringPtr(c.Deadline), c.DetectedAt, nullableStringPtr(c.ResolvedAt))
	return err
}

func (r Repo) GetConflict(ctx context.Context, id string) (domain.Conflict, error) {
	row := r.DB.QueryRowContext(ctx, `SELECT `+conflictColumns+` FROM conflicts WHERE id=?`, id)
	c, err := scanConflict(row.Scan)
	if err == sql.ErrNoRows {
		return c, ErrNotFound
	}
	return c, err
}

func (r Repo) GetConflictTx(ctx context.Context, tx *sql.Tx, id string) (domain.Conflict, error) {
	row := tx.QueryRowContext(ctx, `SELECT `+conflictColumns+` FROM conflicts WHERE id=?`, id)
	c, err := scanConflict(row.Scan)
	if err == sql.ErrNoRows {
		return c, ErrNotFound
	}
	return c, err
}

func (r Repo) UpdateConflictStatus(ctx context.Context, tx *sql.Tx, id, status string) error {
	_, err := tx.ExecContext(ctx, `UPDATE conflicts SET status=? WHERE id=?`, status, id)
	return err
}

func (r Repo) UpdateConflictResolver(ctx context.Context, tx *sql.Tx, id, status string, resolver *string, deadline *string) error {
	_, err := tx.ExecContext(ctx, `UPDATE conflicts SET status=?, assigned_resolver=?, deadline=? WHERE id=?`,
		status, nullableStringPtr(resolver), nullableStringPtr(deadline), id)
	return err
}

func (r Repo) MarkConflictResolved(ctx context.Context, tx *sql.Tx, id, status, resolvedAt string) error {
	_, err := tx.ExecContext(ctx, `UPDATE conflicts SET status=?, resolved_at=? WHERE id=?`, status, resolvedAt, id)
	return err
}

type ConflictFilters struct {
	ProjectID string
	TextID    string
	Kind      string
	Severity  string
	Status    string
	Limit     int
}

func (r Repo) ListConflicts(ctx context.Context, f ConflictFilters) ([]domain.Conflict, error) {
	var clauses []string
	var args []any
	if f.ProjectID != "" {
		clauses = append(clauses, "project_id=?")
		args = append(args, f.ProjectID)
	}
	if f.TextID != "" {
		clauses = append(clauses, "text_id=?")
		args = append(args, f.TextID)
	}
	if f.Kind != "" {
		clauses = append(clauses, "kind=?")
		args = append(args, f.Kind)
	}
	if f.Severity != "" {
		clauses = append(clauses, "severity=?")
		args = append(args, f.Severity)
	}
	if f.Status != "" {
		clauses = append(clauses, "status=?")
		args = append(args, f.Status)
	}
	where := ""
	if len(clauses) > 0 {
		where = "WHERE " + strings.Join(clauses, " AND ")
	}
	query := `SELECT ` + conflictColumns + ` FROM conflicts ` + where + ` ORDER BY detected_at DESC, id DESC`
	if f.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, f.Limit)
	}
	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []domain.Conflict
	for rows.Next() {
		c, err := scanConflict(rows.Scan)
		if err != nil {
			return nil, err
		}
		res = append(res, c)
	}
	return res, nil
}

// ListOpenConflicts returns non-terminal conflicts for a project, used
// for detection dedup and escalation sweeps.
func (r Repo) ListOpenConflicts(ctx context.Context, projectID string) ([]domain.Conflict, error) {
	rows, err := r.DB.QueryContext(ctx, `SELECT `+conflictColumns+` FROM conflicts
WHERE project_id=? AND status NOT IN (?,?,?) ORDER BY detected_at ASC, id ASC`,
		projectID, domain.StatusResolved, domain.StatusDismissed, domain.StatusArchived)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []domain.Conflict
	for rows.Next() {
		c, err := scanConflict(rows.Scan)
		if err != nil {
			return nil, err
		}
		res = append(res, c)
	}
	return res, nil
}
