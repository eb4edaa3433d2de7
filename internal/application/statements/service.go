package statements

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/bryanwahyu/finsight/internal/application"
	"github.com/bryanwahyu/finsight/internal/domain/errs"
	"github.com/bryanwahyu/finsight/internal/domain/ingesterrors"
	domain "github.com/bryanwahyu/finsight/internal/domain/statements"
)

// Service implements use-cases untuk Statement
// Service is designed to be used concurrently and is thread-safe
type Service struct {
	Repo   domain.Repository
	Errors ingesterrors.Repository
	Files  domain.FileStore // optional, boleh nil
	PDF    domain.Extractor
	CSV    domain.Extractor
	Clock  application.Clock
}

//
// ==== USE CASES ====
//

// Command untuk upload statement
type UploadCommand struct {
	Filename string
	Data     []byte
}

// UploadResult is the upload response payload: the persisted statement
// plus whatever structure the extractor recovered from a CSV.
type UploadResult struct {
	Statement    *domain.Statement    `json:"statement"`
	Metadata     map[string]string    `json:"metadata,omitempty"`
	Transactions []domain.Transaction `json:"transactions,omitempty"`
}

// Upload ekstrak dokumen → simpan file asli → simpan statement.
// Gagal ekstraksi berarti tidak ada statement yang dibuat.
func (s *Service) Upload(ctx context.Context, cmd UploadCommand) (*UploadResult, error) {
	if strings.TrimSpace(cmd.Filename) == "" {
		return nil, errs.Validation("filename is required")
	}
	if len(cmd.Data) == 0 {
		return nil, errs.Validation("uploaded file is empty").With("filename", cmd.Filename)
	}

	extractor, format, err := s.extractorFor(cmd.Filename)
	if err != nil {
		return nil, err
	}

	res, err := extractor.Extract(cmd.Data)
	if err != nil {
		return nil, err
	}

	now := s.Clock.Now()
	id := uuid.New().String()

	// simpan dokumen asli ke object store; gagal di sini tidak
	// menggagalkan upload, cuma source_url kosong + audit entry
	sourceURL := ""
	var storeErr error
	if s.Files != nil {
		key := fmt.Sprintf("statements/%s/%s", id, sanitizeKey(cmd.Filename))
		sourceURL, storeErr = s.Files.Upload(ctx, key, bytes.NewReader(cmd.Data), int64(len(cmd.Data)), contentTypeFor(format))
		if storeErr != nil {
			sourceURL = ""
		}
	}

	stmt := &domain.Statement{
		ID:            domain.StatementID(id),
		Filename:      cmd.Filename,
		Format:        format,
		ExtractedText: res.Text,
		PageCount:     res.PageCount,
		CharCount:     utf8.RuneCountInString(res.Text),
		SourceURL:     sourceURL,
		UploadedAt:    now,
	}
	if err := s.Repo.Save(ctx, stmt); err != nil {
		return nil, err
	}

	if storeErr != nil {
		s.recordError(id, "store", "failed to store original document", storeErr)
	}

	return &UploadResult{
		Statement:    stmt,
		Metadata:     res.Metadata,
		Transactions: res.Transactions,
	}, nil
}

// Get ambil 1 statement by id
func (s *Service) Get(ctx context.Context, id domain.StatementID) (*domain.Statement, error) {
	return s.Repo.Get(ctx, id)
}

// Latest ambil N statement terakhir
func (s *Service) Latest(ctx context.Context, limit int) ([]*domain.Statement, error) {
	return s.Repo.Latest(ctx, limit)
}

// Delete hapus statement + semua analysis miliknya (cascade)
func (s *Service) Delete(ctx context.Context, id domain.StatementID) error {
	return s.Repo.Delete(ctx, id)
}

// ListErrors returns the ingest-error audit entries for a statement.
// The statement must exist; listing for a missing id is a not-found.
func (s *Service) ListErrors(ctx context.Context, id domain.StatementID, limit int) ([]*ingesterrors.IngestError, error) {
	if _, err := s.Repo.Get(ctx, id); err != nil {
		return nil, err
	}
	return s.Errors.ListByStatement(ctx, string(id), limit)
}

func (s *Service) extractorFor(filename string) (domain.Extractor, domain.Format, error) {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".pdf":
		return s.PDF, domain.FormatPDF, nil
	case ".csv":
		return s.CSV, domain.FormatCSV, nil
	default:
		return nil, "", errs.Validation("only PDF and CSV files are allowed").
			With("filename", filename)
	}
}

// recordError best effort, pakai context.Background supaya tetap tersimpan
// walau request sudah selesai
func (s *Service) recordError(statementID, phase, message string, cause error) {
	if s.Errors == nil {
		return
	}
	details, _ := json.Marshal(map[string]string{"error": cause.Error()})
	_ = s.Errors.Save(context.Background(), &ingesterrors.IngestError{
		StatementID: statementID,
		Phase:       phase,
		Message:     message,
		DetailsJSON: string(details),
		CreatedAt:   s.Clock.Now(),
	})
}

func sanitizeKey(filename string) string {
	base := filepath.Base(filename)
	base = strings.ReplaceAll(base, " ", "_")
	return base
}

func contentTypeFor(f domain.Format) string {
	switch f {
	case domain.FormatPDF:
		return "application/pdf"
	case domain.FormatCSV:
		return "text/csv"
	default:
		return "application/octet-stream"
	}
}
