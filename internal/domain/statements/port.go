package statements

import (
	"context"
	"io"
)

// Repository port (interface untuk persistence)
type Repository interface {
	Save(ctx context.Context, s *Statement) error
	Get(ctx context.Context, id StatementID) (*Statement, error)
	Latest(ctx context.Context, limit int) ([]*Statement, error)

	// Delete menghapus statement beserta semua analysis miliknya (cascade)
	Delete(ctx context.Context, id StatementID) error
}

// Extractor port (interface untuk ekstraksi teks dokumen)
type Extractor interface {
	Extract(data []byte) (ExtractResult, error)
}

// FileStore port (interface untuk penyimpanan dokumen asli)
type FileStore interface {
	Upload(ctx context.Context, key string, r io.Reader, size int64, contentType string) (string, error)
}
