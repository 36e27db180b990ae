package repo

import (
	"context"
	"database/sql"
	"strings"

	"concord/internal/domain"
)

func (r Repo) InsertAnnotation(ctx context.Context, a domain.Annotation) error {
	_, err := r.DB.ExecContext(ctx, `INSERT INTO annotations(id,text_id,project_id,annotator_id,label_id,start_pos,end_pos,selected_text,confidence,created_at) VALUES (?,?,?,?,?,?,?,?,?,?)`,
		a.ID, a.TextID, a.ProjectID, a.AnnotatorID, a.LabelID, a.Start, a.End, nullable(a.SelectedText), a.Confidence, a.CreatedAt)
	return err
}

func (r Repo) InsertAnnotationTx(ctx context.Context, tx *sql.Tx, a domain.Annotation) error {
	_, err := tx.ExecContext(ctx, `INSERT INTO annotations(id,text_id,project_id,annotator_id,label_id,start_pos,end_pos,selected_text,confidence,created_at) VALUES (?,?,?,?,?,?,?,?,?,?)`,
		a.ID, a.TextID, a.ProjectID, a.AnnotatorID, a.LabelID, a.Start, a.End, nullable(a.SelectedText), a.Confidence, a.CreatedAt)
	return err
}

func scanAnnotation(scan func(dest ...any) error) (domain.Annotation, error) {
	var a domain.Annotation
	var selected sql.NullString
	err := scan(&a.ID, &a.TextID, &a.ProjectID, &a.AnnotatorID, &a.LabelID, &a.Start, &a.End, &selected, &a.Confidence, &a.CreatedAt)
	if selected.Valid {
		a.SelectedText = selected.String
	}
	return a, err
}

const annotationColumns = `id,text_id,project_id,annotator_id,label_id,start_pos,end_pos,selected_text,confidence,created_at`

func (r Repo) GetAnnotation(ctx context.Context, id string) (domain.Annotation, error) {
	row := r.DB.QueryRowContext(ctx, `SELECT `+annotationColumns+` FROM annotations WHERE id=?`, id)
	a, err := scanAnnotation(row.Scan)
	if err == sql.ErrNoRows {
		return a, ErrNotFound
	}
	return a, err
}

type AnnotationFilters struct {
	ProjectID   string
	TextID      string
	AnnotatorID string
	LabelID     string
	Limit       int
}

func (r Repo) ListAnnotations(ctx context.Context, f AnnotationFilters) ([]domain.Annotation, error) {
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
	if f.AnnotatorID != "" {
		clauses = append(clauses, "annotator_id=?")
		args = append(args, f.AnnotatorID)
	}
	if f.LabelID != "" {
		clauses = append(clauses, "label_id=?")
		args = append(args, f.LabelID)
	}
	where := ""
	if len(clauses) > 0 {
		where = "WHERE " + strings.Join(clauses, " AND ")
	}
	query := `SELECT ` + annotationColumns + ` FROM annotations ` + where + ` ORDER BY text_id ASC, start_pos ASC, id ASC`
	if f.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, f.Limit)
	}
	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []domain.Annotation
	for rows.Next() {
		a, err := scanAnnotation(rows.Scan)
		if err != nil {
			return nil, err
		}
		res = append(res, a)
	}
	return res, nil
}
