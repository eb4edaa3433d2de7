package analyses

import "context"

// Repository port for persisting and querying analyses
type Repository interface {
	Save(ctx context.Context, a *Analysis) error
	Get(ctx context.Context, id AnalysisID) (*Analysis, error)

	// ListByStatement urut created_at naik (urutan pembuatan)
	ListByStatement(ctx context.Context, statementID string) ([]*Analysis, error)

	// Paginate urut created_at turun, untuk listing global
	Paginate(ctx context.Context, page, pageSize int) ([]*Analysis, error)
}
