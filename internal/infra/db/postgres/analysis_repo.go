package postgres

import (
	"context"
	"database/sql"

	domain "github.com/bryanwahyu/finsight/internal/domain/analyses"
)

type AnalysisRepository struct{ db *sql.DB }

func NewAnalysisRepository(db *sql.DB) *AnalysisRepository { return &AnalysisRepository{db: db} }

// Save inserts an analysis record
func (r *AnalysisRepository) Save(ctx context.Context, a *domain.Analysis) error {
	const q = `
INSERT INTO analyses (id, statement_id, prompt, response, model, created_at)
VALUES ($1,$2,$3,$4,$5,$6);`

	_, err := r.db.ExecContext(ctx, q, a.ID, a.StatementID, a.Prompt, a.Response, a.Model, a.CreatedAt)
	if err != nil {
		return dbErr("save", "analysis", err)
	}
	return nil
}

// Get by ID
func (r *AnalysisRepository) Get(ctx context.Context, id domain.AnalysisID) (*domain.Analysis, error) {
	const q = `
SELECT id, statement_id, prompt, response, model, created_at
FROM analyses
WHERE id=$1 LIMIT 1;`

	row := r.db.QueryRowContext(ctx, q, id)

	var a domain.Analysis
	if err := row.Scan(&a.ID, &a.StatementID, &a.Prompt, &a.Response, &a.Model, &a.CreatedAt); err != nil {
		return nil, dbErr("get", "analysis", err)
	}
	return &a, nil
}

// ListByStatement in creation order
func (r *AnalysisRepository) ListByStatement(ctx context.Context, statementID string) ([]*domain.Analysis, error) {
	const q = `
SELECT id, statement_id, prompt, response, model, created_at
FROM analyses
WHERE statement_id=$1
ORDER BY created_at ASC, id ASC;`

	rows, err := r.db.QueryContext(ctx, q, statementID)
	if err != nil {
		return nil, dbErr("list", "analysis", err)
	}
	defer rows.Close()

	return scanAnalyses(rows)
}

// Paginate ordered by created_at desc
func (r *AnalysisRepository) Paginate(ctx context.Context, page, pageSize int) ([]*domain.Analysis, error) {
	if page <= 0 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = 20
	}
	offset := (page - 1) * pageSize

	const q = `
SELECT id, statement_id, prompt, response, model, created_at
FROM analyses
ORDER BY created_at DESC, id DESC
LIMIT $1 OFFSET $2;`

	rows, err := r.db.QueryContext(ctx, q, pageSize, offset)
	if err != nil {
		return nil, dbErr("list", "analysis", err)
	}
	defer rows.Close()

	return scanAnalyses(rows)
}

func scanAnalyses(rows *sql.Rows) ([]*domain.Analysis, error) {
	var out []*domain.Analysis
	for rows.Next() {
		var a domain.Analysis
		if err := rows.Scan(&a.ID, &a.StatementID, &a.Prompt, &a.Response, &a.Model, &a.CreatedAt); err != nil {
			return nil, dbErr("list", "analysis", err)
		}
		out = append(out, &a)
	}
	if err := rows.Err(); err != nil {
		return nil, dbErr("list", "analysis", err)
	}
	return out, nil
}
