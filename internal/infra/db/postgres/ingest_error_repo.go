package postgres

import (
	"context"
	"database/sql"
	"time"

	domain "github.com/bryanwahyu/finsight/internal/domain/ingesterrors"
)

type IngestErrorRepository struct{ db *sql.DB }

func NewIngestErrorRepository(db *sql.DB) *IngestErrorRepository {
	return &IngestErrorRepository{db: db}
}

// Save inserts an ingest error entry
func (r *IngestErrorRepository) Save(ctx context.Context, e *domain.IngestError) error {
	const q = `
INSERT INTO ingest_errors (statement_id, phase, message, details_json, created_at)
VALUES ($1,$2,$3,$4,$5)
RETURNING id;`

	createdAt := e.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}
	details := e.DetailsJSON
	if details == "" {
		details = "{}"
	}

	if err := r.db.QueryRowContext(ctx, q, e.StatementID, e.Phase, e.Message, details, createdAt).Scan(&e.ID); err != nil {
		return dbErr("save", "ingest error", err)
	}
	return nil
}

// ListByStatement newest first
func (r *IngestErrorRepository) ListByStatement(ctx context.Context, statementID string, limit int) ([]*domain.IngestError, error) {
	if limit <= 0 {
		limit = 50
	}
	const q = `
SELECT id, statement_id, phase, message, details_json, created_at
FROM ingest_errors
WHERE statement_id=$1
ORDER BY created_at DESC, id DESC
LIMIT $2;`

	rows, err := r.db.QueryContext(ctx, q, statementID, limit)
	if err != nil {
		return nil, dbErr("list", "ingest error", err)
	}
	defer rows.Close()

	var out []*domain.IngestError
	for rows.Next() {
		var e domain.IngestError
		if err := rows.Scan(&e.ID, &e.StatementID, &e.Phase, &e.Message, &e.DetailsJSON, &e.CreatedAt); err != nil {
			return nil, dbErr("list", "ingest error", err)
		}
		out = append(out, &e)
	}
	if err := rows.Err(); err != nil {
		return nil, dbErr("list", "ingest error", err)
	}
	return out, nil
}
