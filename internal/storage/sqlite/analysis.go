package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/slok/legalflow/internal/model"
)

// CreateAnalysis stores the result of an analysis over a vault document.
func (r *Repository) CreateAnalysis(ctx context.Context, a model.Analysis) error {
	if a.ID == "" || a.DocumentID == "" {
		return fmt.Errorf("analysis id and document id are required: %w", model.ErrNotValid)
	}
	if err := a.Kind.Validate(); err != nil {
		return err
	}

	var result sql.NullString
	if len(a.Result) > 0 {
		result = sql.NullString{String: string(a.Result), Valid: true}
	}

	query := `
		INSERT INTO analyses (id, document_id, kind, remote_task_id, status, result, error, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err := r.db.ExecContext(ctx, query,
		a.ID,
		a.DocumentID,
		a.Kind,
		a.RemoteTaskID,
		a.Status,
		result,
		a.Error,
		a.CreatedAt.Unix(),
	)
	if err != nil {
		msg := err.Error()
		switch {
		case strings.Contains(msg, "UNIQUE constraint failed: analyses."):
			return fmt.Errorf("analysis %s: %w", a.ID, model.ErrAlreadyExists)
		case strings.Contains(msg, "FOREIGN KEY constraint failed"):
			return fmt.Errorf("document %s: %w", a.DocumentID, model.ErrNotFound)
		}
		return fmt.Errorf("could not insert analysis: %w", err)
	}

	r.logger.Debugf("Created analysis %s for document %s", a.ID, a.DocumentID)
	return nil
}

// ListAnalyses returns the analyses of a document, oldest first.
func (r *Repository) ListAnalyses(ctx context.Context, documentID string) ([]model.Analysis, error) {
	query := `
		SELECT id, document_id, kind, remote_task_id, status, result, error, created_at
		FROM analyses
		WHERE document_id = ?
		ORDER BY created_at ASC, id ASC
	`

	rows, err := r.db.QueryContext(ctx, query, documentID)
	if err != nil {
		return nil, fmt.Errorf("could not query analyses: %w", err)
	}
	defer rows.Close()

	var analyses []model.Analysis
	for rows.Next() {
		var a model.Analysis
		var result sql.NullString
		var createdAt int64
		err := rows.Scan(
			&a.ID,
			&a.DocumentID,
			&a.Kind,
			&a.RemoteTaskID,
			&a.Status,
			&result,
			&a.Error,
			&createdAt,
		)
		if err != nil {
			return nil, fmt.Errorf("could not scan row: %w", err)
		}
		if result.Valid {
			a.Result = []byte(result.String)
		}
		a.CreatedAt = timeFromUnix(createdAt)
		analyses = append(analyses, a)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return analyses, nil
}
