package ingesterrors

import (
	"context"
)

// Repository defines persistence for ingest errors
type Repository interface {
	Save(ctx context.Context, e *IngestError) error
	ListByStatement(ctx context.Context, statementID string, limit int) ([]*IngestError, error)
}
