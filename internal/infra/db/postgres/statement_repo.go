package postgres

import (
	"context"
	"database/sql"

	domain "github.com/bryanwahyu/finsight/internal/domain/statements"
)

type StatementRepository struct{ db *sql.DB }

func NewStatementRepository(db *sql.DB) *StatementRepository { return &StatementRepository{db: db} }

// Save insert Statement record
func (r *StatementRepository) Save(ctx context.Context, s *domain.Statement) error {
	const q = `
INSERT INTO statements
(id, filename, format, extracted_text, page_count, char_count, source_url, uploaded_at)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8);`

	_, err := r.db.ExecContext(ctx, q,
		s.ID, s.Filename, s.Format, s.ExtractedText,
		s.PageCount, s.CharCount, s.SourceURL, s.UploadedAt,
	)
	if err != nil {
		return dbErr("save", "statement", err)
	}
	return nil
}

// Get by ID
func (r *StatementRepository) Get(ctx context.Context, id domain.StatementID) (*domain.Statement, error) {
	const q = `
SELECT id, filename, format, extracted_text, page_count, char_count, source_url, uploaded_at
FROM statements
WHERE id=$1 LIMIT 1;`

	row := r.db.QueryRowContext(ctx, q, id)

	var s domain.Statement
	if err := row.Scan(
		&s.ID, &s.Filename, &s.Format, &s.ExtractedText,
		&s.PageCount, &s.CharCount, &s.SourceURL, &s.UploadedAt,
	); err != nil {
		return nil, dbErr("get", "statement", err)
	}
	return &s, nil
}

// Latest statements, newest first
func (r *StatementRepository) Latest(ctx context.Context, limit int) ([]*domain.Statement, error) {
	if limit <= 0 {
		limit = 20
	}
	const q = `
SELECT id, filename, format, extracted_text, page_count, char_count, source_url, uploaded_at
FROM statements
ORDER BY uploaded_at DESC, id DESC LIMIT $1;`

	rows, err := r.db.QueryContext(ctx, q, limit)
	if err != nil {
		return nil, dbErr("list", "statement", err)
	}
	defer rows.Close()

	var out []*domain.Statement
	for rows.Next() {
		var s domain.Statement
		if err := rows.Scan(
			&s.ID, &s.Filename, &s.Format, &s.ExtractedText,
			&s.PageCount, &s.CharCount, &s.SourceURL, &s.UploadedAt,
		); err != nil {
			return nil, dbErr("list", "statement", err)
		}
		out = append(out, &s)
	}
	if err := rows.Err(); err != nil {
		return nil, dbErr("list", "statement", err)
	}
	return out, nil
}

// Delete cascades to analyses and ingest errors in one transaction.
func (r *StatementRepository) Delete(ctx context.Context, id domain.StatementID) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return dbErr("delete", "statement", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM analyses WHERE statement_id=$1;`, id); err != nil {
		return dbErr("delete", "analysis", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM ingest_errors WHERE statement_id=$1;`, id); err != nil {
		return dbErr("delete", "ingest error", err)
	}

	res, err := tx.ExecContext(ctx, `DELETE FROM statements WHERE id=$1;`, id)
	if err != nil {
		return dbErr("delete", "statement", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return dbErr("delete", "statement", err)
	}
	if n == 0 {
		return dbErr("delete", "statement", sql.ErrNoRows)
	}

	if err := tx.Commit(); err != nil {
		return dbErr("delete", "statement", err)
	}
	return nil
}
